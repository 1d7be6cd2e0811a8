package reports

import (
	"strconv"
	"strings"
)

// Extracted is what one flat row contributes to its company group.
type Extracted struct {
	GroupKey   string
	Company    CompanyIdentity
	Instrument *InstrumentLine
	Attendees  []AttendeeRecord
}

// Extractor maps a row of a fixed query shape onto group fields.
type Extractor[R any] func(row R) Extracted

type attendeeKey struct {
	name string
	role string
}

// Aggregate groups flat joined rows into one CompanyGroup per group key.
//
// Groups keep the first-seen order of their key and instrument lines keep row
// order, so the output follows the query's ORDER BY. A row without an
// instrument still creates its group. Attendees with a blank name are skipped
// and repeated (name, role) pairs are kept once per group, since a wide join
// repeats the same person on every instrument row.
func Aggregate[R any](rows []R, extract Extractor[R]) []*CompanyGroup {
	groups := make([]*CompanyGroup, 0)
	index := make(map[string]int)
	seen := make(map[string]map[attendeeKey]bool)

	for _, row := range rows {
		e := extract(row)

		i, ok := index[e.GroupKey]
		if !ok {
			company := e.Company
			company.Key = e.GroupKey
			groups = append(groups, &CompanyGroup{
				Company:     company,
				Instruments: make([]InstrumentLine, 0),
				Attendees:   make([]AttendeeRecord, 0),
			})
			i = len(groups) - 1
			index[e.GroupKey] = i
			seen[e.GroupKey] = make(map[attendeeKey]bool)
		}
		group := groups[i]

		if e.Instrument != nil {
			group.Instruments = append(group.Instruments, *e.Instrument)
		}

		for _, a := range e.Attendees {
			name := strings.TrimSpace(a.Name)
			if name == "" {
				continue
			}
			k := attendeeKey{name: name, role: a.Role}
			if seen[e.GroupKey][k] {
				continue
			}
			seen[e.GroupKey][k] = true
			a.Name = name
			group.Attendees = append(group.Attendees, a)
		}
	}
	return groups
}

// CompanyKey is the natural grouping key of a company: its registration id,
// or its internal id when the registration id is missing.
func CompanyKey(cin string, companyId int) string {
	if cin = strings.TrimSpace(cin); cin != "" {
		return cin
	}
	return "company:" + strconv.Itoa(companyId)
}

// Chairman returns the first attendee flagged as chairman, or nil.
func Chairman(attendees []AttendeeRecord) *AttendeeRecord {
	for i := range attendees {
		if attendees[i].IsChairman {
			c := attendees[i]
			return &c
		}
	}
	return nil
}

// AttachVotes copies votes onto the instrument lines they were cast for.
func AttachVotes(groups []*CompanyGroup, votes map[int][]VoteRecord) {
	if len(votes) == 0 {
		return
	}
	for _, g := range groups {
		for i := range g.Instruments {
			if v, ok := votes[g.Instruments[i].ID]; ok {
				g.Instruments[i].Votes = append([]VoteRecord(nil), v...)
			}
		}
	}
}
