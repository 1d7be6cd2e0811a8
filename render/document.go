package render

import (
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/ratings_backend/config"
	"bitbucket.org/mmdatafocus/ratings_backend/models"
	"bitbucket.org/mmdatafocus/ratings_backend/models/reports"
	"bitbucket.org/mmdatafocus/ratings_backend/utils"
)

type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
	// SerialColumn marks the first column as the running serial number.
	SerialColumn bool
}

type Section struct {
	Heading    string
	Paragraphs []string
	Tables     []*Table
}

// Document is the format-independent rendering of a report. Structured
// documents are serialized cell by cell; markup documents go through the
// kind's HTML template.
type Document struct {
	Kind      models.DocumentKind
	Layout    string
	Template  string
	Title     string
	Subtitle  string
	Header    []string
	Addressee []string
	Subject   string
	Sections  []*Section
	Closing   []string
	Footer    []string
	Logo      []byte
	Policy    config.KindPolicy
}

// Tables returns every table of the document in section order.
func (d *Document) Tables() []*Table {
	var tables []*Table
	for _, s := range d.Sections {
		tables = append(tables, s.Tables...)
	}
	return tables
}

type Options struct {
	AgencyName string
	Timezone   string
	Logo       []byte
}

func (o Options) local(t time.Time) time.Time {
	if o.Timezone == "" {
		return t
	}
	return utils.ConvertToLocalTime(t, o.Timezone)
}

func (o Options) agency() string {
	if strings.TrimSpace(o.AgencyName) == "" {
		return "The Rating Committee"
	}
	return o.AgencyName
}

type renderFunc func(data *reports.ReportData, opts Options) (*Document, error)

var renderers = map[models.DocumentKind]renderFunc{
	models.DocumentKindRatingSheet:              renderRatingSheet,
	models.DocumentKindAgenda:                   renderAgenda,
	models.DocumentKindMinutes:                  renderMinutes,
	models.DocumentKindPressRelease:             renderPressRelease,
	models.DocumentKindRatingLetter:             renderRatingLetter,
	models.DocumentKindProvisionalCommunication: renderProvisionalCommunication,
}

// Render builds the document tree of data's kind.
func Render(data *reports.ReportData, policy config.KindPolicy, opts Options) (*Document, error) {
	if data == nil || data.Meeting == nil {
		return nil, fmt.Errorf("render: %w", utils.ErrorEmptyReportData)
	}
	fn, ok := renderers[data.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: no renderer for document kind %q", utils.ErrorInvalidRequest, data.Kind)
	}
	doc, err := fn(data, opts)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", data.Kind, err)
	}
	doc.Kind = data.Kind
	doc.Layout = policy.Layout
	doc.Template = policy.Template
	doc.Policy = policy
	doc.Logo = opts.Logo
	if doc.Title == "" {
		doc.Title = policy.Title
	}
	return doc, nil
}

// firstGroup is for documents addressed to a single company.
func firstGroup(data *reports.ReportData) (*reports.CompanyGroup, error) {
	if len(data.Groups) == 0 || data.Groups[0] == nil {
		return nil, utils.ErrorEmptyReportData
	}
	return data.Groups[0], nil
}

// perGroupRows numbers rows once per company: two companies with two
// instruments each are numbered 1, 1, 2, 2.
func perGroupRows(groups []*reports.CompanyGroup, cells func(g *reports.CompanyGroup, l reports.InstrumentLine) []string) [][]string {
	rows := make([][]string, 0)
	serial := 0
	for _, g := range groups {
		if len(g.Instruments) == 0 {
			continue
		}
		serial++
		for _, l := range g.Instruments {
			rows = append(rows, append([]string{fmt.Sprint(serial)}, cells(g, l)...))
		}
	}
	return rows
}

// perInstrumentRows numbers every instrument row.
func perInstrumentRows(groups []*reports.CompanyGroup, cells func(g *reports.CompanyGroup, l reports.InstrumentLine) []string) [][]string {
	rows := make([][]string, 0)
	serial := 0
	for _, g := range groups {
		for _, l := range g.Instruments {
			serial++
			rows = append(rows, append([]string{fmt.Sprint(serial)}, cells(g, l)...))
		}
	}
	return rows
}

func namesByRole(attendees []reports.AttendeeRecord, role string) string {
	var names []string
	for _, a := range attendees {
		if a.Role == role {
			names = append(names, a.Name)
		}
	}
	return strings.Join(names, ", ")
}

func meetingHeading(data *reports.ReportData, opts Options) string {
	return fmt.Sprintf("%s Rating Committee Meeting held on %s",
		Ordinal(data.Meeting.Sequence), FormatLongDateTime(opts.local(data.Meeting.MeetingAt)))
}
