package reports_test

import (
	"reflect"
	"testing"

	"bitbucket.org/mmdatafocus/ratings_backend/models/reports"
	"github.com/shopspring/decimal"
)

type flatRow struct {
	Cin          string
	Name         string
	InstrumentId *int
	Size         string
	Analyst      string
	GroupHead    string
}

func intPtr(i int) *int { return &i }

func extractFlatRow(r flatRow) reports.Extracted {
	e := reports.Extracted{
		GroupKey: r.Cin,
		Company:  reports.CompanyIdentity{Name: r.Name, Cin: r.Cin},
		Attendees: []reports.AttendeeRecord{
			{Name: r.Analyst, Role: reports.RoleAnalyst, Present: true},
			{Name: r.GroupHead, Role: reports.RoleGroupHead, Present: true},
		},
	}
	if r.InstrumentId != nil {
		e.Instrument = &reports.InstrumentLine{ID: *r.InstrumentId, Size: decimal.RequireFromString(r.Size)}
	}
	return e
}

func groupShape(groups []*reports.CompanyGroup) map[string][]int {
	shape := make(map[string][]int)
	for _, g := range groups {
		ids := make([]int, 0)
		for _, l := range g.Instruments {
			ids = append(ids, l.ID)
		}
		shape[g.Company.Key] = ids
	}
	return shape
}

func groupOrder(groups []*reports.CompanyGroup) []string {
	keys := make([]string, 0, len(groups))
	for _, g := range groups {
		keys = append(keys, g.Company.Key)
	}
	return keys
}

func TestAggregate_OneGroupPerKeyInFirstSeenOrder(t *testing.T) {
	cases := []struct {
		name      string
		rows      []flatRow
		wantOrder []string
		wantShape map[string][]int
	}{
		{
			name: "contiguous",
			rows: []flatRow{
				{Cin: "A", InstrumentId: intPtr(1), Size: "10"},
				{Cin: "A", InstrumentId: intPtr(2), Size: "10"},
				{Cin: "B", InstrumentId: intPtr(3), Size: "10"},
			},
			wantOrder: []string{"A", "B"},
			wantShape: map[string][]int{"A": {1, 2}, "B": {3}},
		},
		{
			name: "interleaved",
			rows: []flatRow{
				{Cin: "B", InstrumentId: intPtr(5), Size: "1"},
				{Cin: "A", InstrumentId: intPtr(1), Size: "1"},
				{Cin: "B", InstrumentId: intPtr(2), Size: "1"},
				{Cin: "C", InstrumentId: intPtr(9), Size: "1"},
				{Cin: "A", InstrumentId: intPtr(4), Size: "1"},
				{Cin: "B", InstrumentId: intPtr(3), Size: "1"},
			},
			wantOrder: []string{"B", "A", "C"},
			wantShape: map[string][]int{"B": {5, 2, 3}, "A": {1, 4}, "C": {9}},
		},
		{
			name: "null instrument keeps group without a line",
			rows: []flatRow{
				{Cin: "A", InstrumentId: nil},
				{Cin: "B", InstrumentId: intPtr(7), Size: "1"},
				{Cin: "A", InstrumentId: intPtr(8), Size: "1"},
			},
			wantOrder: []string{"A", "B"},
			wantShape: map[string][]int{"A": {8}, "B": {7}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			groups := reports.Aggregate(tc.rows, extractFlatRow)
			if got := groupOrder(groups); !reflect.DeepEqual(got, tc.wantOrder) {
				t.Fatalf("order=%v want %v", got, tc.wantOrder)
			}
			if got := groupShape(groups); !reflect.DeepEqual(got, tc.wantShape) {
				t.Fatalf("shape=%v want %v", got, tc.wantShape)
			}
		})
	}
}

func TestAggregate_EmptyInput(t *testing.T) {
	groups := reports.Aggregate([]flatRow{}, extractFlatRow)
	if groups == nil || len(groups) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", groups)
	}
	groups = reports.Aggregate[flatRow](nil, extractFlatRow)
	if groups == nil || len(groups) != 0 {
		t.Fatalf("nil input: want empty non-nil slice, got %#v", groups)
	}
}

func TestAggregate_AttendeesSkipBlankAndDeduplicate(t *testing.T) {
	rows := []flatRow{
		{Cin: "A", InstrumentId: intPtr(1), Size: "1", Analyst: "Ravi", GroupHead: "Meera"},
		{Cin: "A", InstrumentId: intPtr(2), Size: "1", Analyst: "Ravi ", GroupHead: ""},
		{Cin: "A", InstrumentId: intPtr(3), Size: "1", Analyst: "Anil", GroupHead: "Meera"},
		{Cin: "B", InstrumentId: intPtr(4), Size: "1", Analyst: "Ravi", GroupHead: "   "},
	}
	groups := reports.Aggregate(rows, extractFlatRow)

	wantA := []reports.AttendeeRecord{
		{Name: "Ravi", Role: reports.RoleAnalyst, Present: true},
		{Name: "Meera", Role: reports.RoleGroupHead, Present: true},
		{Name: "Anil", Role: reports.RoleAnalyst, Present: true},
	}
	if !reflect.DeepEqual(groups[0].Attendees, wantA) {
		t.Fatalf("group A attendees=%+v want %+v", groups[0].Attendees, wantA)
	}
	wantB := []reports.AttendeeRecord{{Name: "Ravi", Role: reports.RoleAnalyst, Present: true}}
	if !reflect.DeepEqual(groups[1].Attendees, wantB) {
		t.Fatalf("group B attendees=%+v want %+v", groups[1].Attendees, wantB)
	}
}

func TestAggregate_SizePassesThroughUnrounded(t *testing.T) {
	rows := []flatRow{{Cin: "A", InstrumentId: intPtr(1), Size: "1234.56789"}}
	groups := reports.Aggregate(rows, extractFlatRow)
	if got := groups[0].Instruments[0].Size.String(); got != "1234.56789" {
		t.Fatalf("size=%s want 1234.56789", got)
	}
}

// Flattening the groups back into rows and aggregating again must give the
// same grouping.
func TestAggregate_RegroupIsIdempotent(t *testing.T) {
	rows := []flatRow{
		{Cin: "C", InstrumentId: intPtr(1), Size: "1"},
		{Cin: "A", InstrumentId: intPtr(2), Size: "2"},
		{Cin: "C", InstrumentId: intPtr(3), Size: "3"},
		{Cin: "B", InstrumentId: intPtr(4), Size: "4"},
		{Cin: "A", InstrumentId: intPtr(5), Size: "5"},
	}
	first := reports.Aggregate(rows, extractFlatRow)

	var flattened []flatRow
	for _, g := range first {
		for _, l := range g.Instruments {
			flattened = append(flattened, flatRow{Cin: g.Company.Cin, InstrumentId: intPtr(l.ID), Size: l.Size.String()})
		}
	}
	second := reports.Aggregate(flattened, extractFlatRow)

	if !reflect.DeepEqual(groupOrder(first), groupOrder(second)) {
		t.Fatalf("order changed: %v vs %v", groupOrder(first), groupOrder(second))
	}
	if !reflect.DeepEqual(groupShape(first), groupShape(second)) {
		t.Fatalf("shape changed: %v vs %v", groupShape(first), groupShape(second))
	}
}

func TestChairman_ToleratesZeroAndDuplicates(t *testing.T) {
	if c := reports.Chairman(nil); c != nil {
		t.Fatalf("no attendees: want nil chairman")
	}
	attendees := []reports.AttendeeRecord{
		{Name: "A", Role: "Member"},
		{Name: "B", Role: "Chairman", IsChairman: true},
		{Name: "C", Role: "Chairman", IsChairman: true},
	}
	c := reports.Chairman(attendees)
	if c == nil || c.Name != "B" {
		t.Fatalf("chairman=%+v want B", c)
	}
}

func TestCompanyKey_FallsBackToId(t *testing.T) {
	if got := reports.CompanyKey(" L123 ", 4); got != "L123" {
		t.Fatalf("got %q", got)
	}
	if got := reports.CompanyKey("", 4); got != "company:4" {
		t.Fatalf("got %q", got)
	}
}
