package render

import (
	"fmt"

	"bitbucket.org/mmdatafocus/ratings_backend/models/reports"
)

func renderRatingSheet(data *reports.ReportData, opts Options) (*Document, error) {
	table := &Table{
		Name: "Rating Sheet",
		Columns: []string{
			"Sr. No.", "Company", "CIN", "Instrument", "Size (Rs. Cr.)", "Nature of Assignment",
			"Term", "Existing Rating", "Existing Outlook", "Proposed Rating", "Proposed Outlook",
			"Analyst", "Group Head",
		},
		SerialColumn: true,
	}
	table.Rows = perGroupRows(data.Groups, func(g *reports.CompanyGroup, l reports.InstrumentLine) []string {
		return []string{
			g.Company.Name, g.Company.Cin, l.Label, FormatSize(l.Size), l.AssignmentNature,
			l.Term(), l.ExistingRating, l.ExistingOutlook, l.ProposedRating, l.ProposedOutlook,
			namesByRole(g.Attendees, reports.RoleAnalyst), namesByRole(g.Attendees, reports.RoleGroupHead),
		}
	})

	doc := &Document{
		Title:    data.Title,
		Subtitle: meetingHeading(data, opts),
		Sections: []*Section{{Tables: []*Table{table}}},
		Footer:   []string{opts.agency()},
	}
	if data.Company != nil {
		doc.Header = append(doc.Header, fmt.Sprintf("Company: %s", data.Company.Name))
	}
	return doc, nil
}

func renderAgenda(data *reports.ReportData, opts Options) (*Document, error) {
	confirm := &Section{Heading: "1. Confirmation of Minutes"}
	if data.Previous != nil {
		confirm.Paragraphs = append(confirm.Paragraphs, fmt.Sprintf(
			"To confirm the minutes of the %s Rating Committee Meeting held on %s.",
			Ordinal(data.Previous.Sequence), FormatLongDate(opts.local(data.Previous.MeetingAt))))
	} else {
		confirm.Paragraphs = append(confirm.Paragraphs, "There are no previous minutes to confirm.")
	}

	table := &Table{
		Name: "Agenda",
		Columns: []string{
			"Sr. No.", "Company", "Instrument", "Size (Rs. Cr.)", "Nature of Assignment", "Term",
			"Existing Rating", "Proposed Rating", "Analyst",
		},
		SerialColumn: true,
	}
	table.Rows = perGroupRows(data.Groups, func(g *reports.CompanyGroup, l reports.InstrumentLine) []string {
		return []string{
			g.Company.Name, l.Label, FormatSize(l.Size), l.AssignmentNature, l.Term(),
			l.ExistingRating, l.ProposedRating, namesByRole(g.Attendees, reports.RoleAnalyst),
		}
	})
	proposals := &Section{Heading: "2. Rating Proposals", Tables: []*Table{table}}
	if len(table.Rows) == 0 {
		proposals.Paragraphs = append(proposals.Paragraphs, "No rating proposals are placed before the committee.")
	}

	header := []string{fmt.Sprintf("Date: %s", FormatLongDateTime(opts.local(data.Meeting.MeetingAt)))}
	if data.Meeting.Venue != "" {
		header = append(header, fmt.Sprintf("Venue: %s", data.Meeting.Venue))
	}

	return &Document{
		Title:    data.Title,
		Subtitle: fmt.Sprintf("%s Rating Committee Meeting", Ordinal(data.Meeting.Sequence)),
		Header:   header,
		Sections: []*Section{confirm, proposals, {Heading: "3. Any Other Business"}},
		Footer:   []string{opts.agency()},
	}, nil
}
