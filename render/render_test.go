package render

import (
	"bytes"
	"errors"
	"image/color"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"bitbucket.org/mmdatafocus/ratings_backend/config"
	"bitbucket.org/mmdatafocus/ratings_backend/models"
	"bitbucket.org/mmdatafocus/ratings_backend/models/reports"
	"bitbucket.org/mmdatafocus/ratings_backend/utils"
	"github.com/disintegration/imaging"
	"github.com/shopspring/decimal"
)

func policyOf(t *testing.T, kind models.DocumentKind) config.KindPolicy {
	t.Helper()
	p, ok := config.DefaultKindPolicies().Policy(string(kind))
	if !ok {
		t.Fatalf("no policy for %s", kind)
	}
	return p
}

func twoByTwo(kind models.DocumentKind) *reports.ReportData {
	line := func(id int, label string) reports.InstrumentLine {
		return reports.InstrumentLine{ID: id, Label: label, Size: decimal.RequireFromString("100.50"), CommitteeRating: "AA", IsLongTerm: true}
	}
	return &reports.ReportData{
		Kind:    kind,
		Title:   "Test",
		Meeting: &models.Meeting{ID: 1, Ref: "RCM-53", Sequence: 53, MeetingAt: time.Date(2024, 3, 1, 5, 30, 0, 0, time.UTC)},
		Groups: []*reports.CompanyGroup{
			{
				Company:     reports.CompanyIdentity{Key: "L1", Name: "Acme Steel Ltd", Cin: "L1"},
				Instruments: []reports.InstrumentLine{line(1, "Term Loan"), line(2, "Commercial Paper")},
				Attendees:   []reports.AttendeeRecord{{Name: "Ravi", Role: reports.RoleAnalyst}},
			},
			{
				Company:     reports.CompanyIdentity{Key: "L2", Name: "Beta Power Ltd", Cin: "L2"},
				Instruments: []reports.InstrumentLine{line(3, "NCD"), line(4, "Cash Credit")},
			},
		},
	}
}

func serials(tbl *Table) []string {
	var out []string
	for _, r := range tbl.Rows {
		out = append(out, r[0])
	}
	return out
}

func TestRender_SerialNumberingPolicies(t *testing.T) {
	cases := []struct {
		kind models.DocumentKind
		want []string
	}{
		{models.DocumentKindRatingSheet, []string{"1", "1", "2", "2"}},
		{models.DocumentKindAgenda, []string{"1", "1", "2", "2"}},
		{models.DocumentKindMinutes, []string{"1", "2", "3", "4"}},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			doc, err := Render(twoByTwo(tc.kind), policyOf(t, tc.kind), Options{})
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			tables := doc.Tables()
			ratings := tables[len(tables)-1]
			if len(ratings.Rows) != 4 {
				t.Fatalf("rows=%d want 4", len(ratings.Rows))
			}
			if got := serials(ratings); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("serials=%v want %v", got, tc.want)
			}
		})
	}
}

func TestRender_RatingSheetCells(t *testing.T) {
	doc, err := Render(twoByTwo(models.DocumentKindRatingSheet), policyOf(t, models.DocumentKindRatingSheet), Options{Timezone: "Asia/Kolkata"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if doc.Layout != config.LayoutStructured {
		t.Fatalf("layout=%s", doc.Layout)
	}
	if !strings.HasPrefix(doc.Subtitle, "53rd Rating Committee Meeting held on Friday, March 1, 2024 at 11:00 AM") {
		t.Fatalf("subtitle=%q", doc.Subtitle)
	}
	row := doc.Tables()[0].Rows[0]
	if row[1] != "Acme Steel Ltd" || row[3] != "Term Loan" || row[4] != "100.5" || row[11] != "Ravi" {
		t.Fatalf("first row=%v", row)
	}
}

func TestRender_EmptyGroups(t *testing.T) {
	empty := func(kind models.DocumentKind) *reports.ReportData {
		d := twoByTwo(kind)
		d.Groups = []*reports.CompanyGroup{}
		return d
	}

	for _, kind := range []models.DocumentKind{models.DocumentKindPressRelease, models.DocumentKindRatingLetter, models.DocumentKindProvisionalCommunication} {
		_, err := Render(empty(kind), policyOf(t, kind), Options{})
		if !errors.Is(err, utils.ErrorEmptyReportData) {
			t.Fatalf("%s: err=%v want ErrorEmptyReportData", kind, err)
		}
	}

	// list documents stay renderable with nothing to list
	for _, kind := range []models.DocumentKind{models.DocumentKindRatingSheet, models.DocumentKindAgenda, models.DocumentKindMinutes} {
		doc, err := Render(empty(kind), policyOf(t, kind), Options{})
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		tables := doc.Tables()
		if n := len(tables[len(tables)-1].Rows); n != 0 {
			t.Fatalf("%s: rows=%d want 0", kind, n)
		}
	}
}

func TestRender_AgendaReferencesPreviousMeeting(t *testing.T) {
	data := twoByTwo(models.DocumentKindAgenda)
	data.Previous = &models.HistoricalMeetingRef{ID: 9, Sequence: 52, MeetingAt: time.Date(2024, 2, 1, 5, 30, 0, 0, time.UTC)}
	doc, err := Render(data, policyOf(t, models.DocumentKindAgenda), Options{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "To confirm the minutes of the 52nd Rating Committee Meeting held on Thursday, February 1, 2024."
	if doc.Sections[0].Paragraphs[0] != want {
		t.Fatalf("paragraph=%q", doc.Sections[0].Paragraphs[0])
	}
}

func TestMarkupEngine_RendersEveryMarkupKind(t *testing.T) {
	engine, err := NewMarkupEngine()
	if err != nil {
		t.Fatalf("NewMarkupEngine: %v", err)
	}
	kinds := []models.DocumentKind{
		models.DocumentKindMinutes, models.DocumentKindPressRelease,
		models.DocumentKindRatingLetter, models.DocumentKindProvisionalCommunication,
	}
	for _, kind := range kinds {
		data := twoByTwo(kind)
		data.Groups[0].Company.Name = "Acme <Steel> & Co"
		doc, err := Render(data, policyOf(t, kind), Options{Logo: []byte("\x89PNG\r\n\x1a\n")})
		if err != nil {
			t.Fatalf("%s: Render: %v", kind, err)
		}
		html, err := engine.RenderDocument(doc)
		if err != nil {
			t.Fatalf("%s: RenderDocument: %v", kind, err)
		}
		page := string(html)
		if !strings.Contains(page, "Acme &lt;Steel&gt; &amp; Co") {
			t.Fatalf("%s: company name not escaped in output", kind)
		}
		if !strings.Contains(page, "data:image/png;base64,") {
			t.Fatalf("%s: logo missing", kind)
		}
		if !strings.Contains(page, "<td>Term Loan</td>") {
			t.Fatalf("%s: instrument table missing", kind)
		}
	}

	if _, err := engine.Render("missing.html", nil); err == nil {
		t.Fatalf("unknown template should fail")
	}
}

func TestLoadLetterhead_ScalesDown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo.png")
	if err := imaging.Save(imaging.New(400, 200, color.NRGBA{R: 10, G: 20, B: 30, A: 255}), path); err != nil {
		t.Fatalf("save: %v", err)
	}
	b, err := LoadLetterhead(path)
	if err != nil {
		t.Fatalf("LoadLetterhead: %v", err)
	}
	img, err := imaging.Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dy() != letterheadHeight || img.Bounds().Dx() != 160 {
		t.Fatalf("size=%v", img.Bounds())
	}

	if b, err := LoadLetterhead(""); err != nil || b != nil {
		t.Fatalf("empty path: %v %v", b, err)
	}
}
