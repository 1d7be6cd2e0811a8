package render

import (
	"fmt"
	"strings"

	"bitbucket.org/mmdatafocus/ratings_backend/models/reports"
)

func renderMinutes(data *reports.ReportData, opts Options) (*Document, error) {
	members := &Table{
		Name:         "Members",
		Columns:      []string{"Sr. No.", "Name", "Designation", "Attendance"},
		Rows:         make([][]string, 0),
		SerialColumn: true,
	}
	for i, a := range data.Attendees {
		attendance := "Present"
		if !a.Present {
			attendance = "Leave of absence"
		}
		members.Rows = append(members.Rows, []string{fmt.Sprint(i + 1), a.Name, a.Role, attendance})
	}
	attendance := &Section{Heading: "Members of the Committee", Tables: []*Table{members}}
	if data.Chairman != nil {
		attendance.Paragraphs = append(attendance.Paragraphs, fmt.Sprintf("%s chaired the meeting.", data.Chairman.Name))
	} else {
		attendance.Paragraphs = append(attendance.Paragraphs, "The members present elected a chairman for the meeting.")
	}

	confirm := &Section{Heading: "Confirmation of Previous Minutes"}
	if data.Previous != nil {
		confirm.Paragraphs = append(confirm.Paragraphs, fmt.Sprintf(
			"The minutes of the %s Rating Committee Meeting held on %s were confirmed.",
			Ordinal(data.Previous.Sequence), FormatLongDate(opts.local(data.Previous.MeetingAt))))
	} else {
		confirm.Paragraphs = append(confirm.Paragraphs, "This was the first meeting of the committee in its series.")
	}

	ratings := &Table{
		Name: "Ratings",
		Columns: []string{
			"Sr. No.", "Company", "Instrument", "Size (Rs. Cr.)", "Existing Rating", "Proposed Rating",
			"Committee Rating", "Committee Outlook", "Votes",
		},
		SerialColumn: true,
	}
	ratings.Rows = perInstrumentRows(data.Groups, func(g *reports.CompanyGroup, l reports.InstrumentLine) []string {
		return []string{
			g.Company.Name, l.Label, FormatSize(l.Size), l.ExistingRating, l.ProposedRating,
			l.CommitteeRating, l.CommitteeOutlook, formatVotes(l.Votes),
		}
	})
	decisions := &Section{Heading: "Rating Decisions", Tables: []*Table{ratings}}
	if len(ratings.Rows) == 0 {
		decisions.Paragraphs = append(decisions.Paragraphs, "No rating proposals were placed before the committee.")
	}

	return &Document{
		Title:    data.Title,
		Subtitle: fmt.Sprintf("Minutes of the %s", meetingHeading(data, opts)),
		Sections: []*Section{attendance, confirm, decisions},
		Footer:   []string{opts.agency()},
	}, nil
}

func formatVotes(votes []reports.VoteRecord) string {
	parts := make([]string, 0, len(votes))
	for _, v := range votes {
		s := fmt.Sprintf("%s: %s", v.MemberName, v.Vote)
		if v.Remark != "" {
			s += " (" + v.Remark + ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "; ")
}

func instrumentTable(g *reports.CompanyGroup) *Table {
	t := &Table{
		Name:         "Ratings",
		Columns:      []string{"Sr. No.", "Instrument", "Size (Rs. Cr.)", "Term", "Rating", "Outlook"},
		SerialColumn: true,
	}
	t.Rows = perInstrumentRows([]*reports.CompanyGroup{g}, func(_ *reports.CompanyGroup, l reports.InstrumentLine) []string {
		return []string{l.Label, FormatSize(l.Size), l.Term(), l.CommitteeRating, l.CommitteeOutlook}
	})
	return t
}

func renderPressRelease(data *reports.ReportData, opts Options) (*Document, error) {
	group, err := firstGroup(data)
	if err != nil {
		return nil, err
	}

	contacts := &Section{Heading: "Analytical Contacts"}
	for _, a := range group.Attendees {
		contacts.Paragraphs = append(contacts.Paragraphs, fmt.Sprintf("%s, %s", a.Name, a.Role))
	}

	return &Document{
		Title:    data.Title,
		Subtitle: group.Company.Name,
		Header:   []string{FormatLongDate(opts.local(data.Meeting.MeetingAt))},
		Sections: []*Section{
			{
				Paragraphs: []string{fmt.Sprintf("%s has assigned the following ratings to the instruments of %s.", opts.agency(), group.Company.Name)},
				Tables:     []*Table{instrumentTable(group)},
			},
			contacts,
		},
		Footer: []string{opts.agency()},
	}, nil
}

func letterAddressee(g *reports.CompanyGroup) []string {
	lines := []string{g.Company.Name}
	for _, l := range []string{g.Company.Address, g.Company.Email, g.Company.Phone} {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func renderRatingLetter(data *reports.ReportData, opts Options) (*Document, error) {
	group, err := firstGroup(data)
	if err != nil {
		return nil, err
	}
	return &Document{
		Title:     data.Title,
		Header:    []string{fmt.Sprintf("Date: %s", FormatShortDate(opts.local(data.Meeting.MeetingAt)))},
		Addressee: letterAddressee(group),
		Subject:   fmt.Sprintf("Rating of the instruments of %s", group.Company.Name),
		Sections: []*Section{{
			Paragraphs: []string{
				fmt.Sprintf("We write to inform you that the %s Rating Committee, at its meeting held on %s, has assigned the following ratings.",
					Ordinal(data.Meeting.Sequence), FormatLongDate(opts.local(data.Meeting.MeetingAt))),
			},
			Tables: []*Table{instrumentTable(group)},
		}, {
			Paragraphs: []string{
				"The ratings are subject to surveillance over the life of the instruments and may be revised on new information.",
			},
		}},
		Closing: []string{"Yours faithfully,", fmt.Sprintf("For %s", opts.agency())},
		Footer:  []string{opts.agency()},
	}, nil
}

func renderProvisionalCommunication(data *reports.ReportData, opts Options) (*Document, error) {
	group, err := firstGroup(data)
	if err != nil {
		return nil, err
	}
	return &Document{
		Title:     data.Title,
		Header:    []string{fmt.Sprintf("Date: %s", FormatShortDate(opts.local(data.Meeting.MeetingAt)))},
		Addressee: letterAddressee(group),
		Subject:   fmt.Sprintf("Provisional communication of ratings of %s", group.Company.Name),
		Sections: []*Section{{
			Paragraphs: []string{
				fmt.Sprintf("The %s Rating Committee, at its meeting held on %s, has provisionally assigned the ratings below.",
					Ordinal(data.Meeting.Sequence), FormatLongDate(opts.local(data.Meeting.MeetingAt))),
				"Please convey your acceptance of the ratings within seven working days. Unaccepted ratings will not be published.",
			},
			Tables: []*Table{instrumentTable(group)},
		}},
		Closing: []string{"Yours faithfully,", fmt.Sprintf("For %s", opts.agency())},
		Footer:  []string{opts.agency()},
	}, nil
}
