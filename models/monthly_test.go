package models

import (
	"testing"
	"time"
)

func TestMonthRange(t *testing.T) {
	tests := []struct {
		year        int
		month       time.Month
		first, last string
	}{
		{2025, time.March, "2025-03-01", "2025-03-31"},
		{2024, time.February, "2024-02-01", "2024-02-29"},
		{2025, time.December, "2025-12-01", "2025-12-31"},
	}
	for _, tt := range tests {
		first, last := MonthRange(tt.year, tt.month)
		if first.String() != tt.first || last.String() != tt.last {
			t.Errorf("MonthRange(%d, %s) = %s..%s, expected %s..%s",
				tt.year, tt.month, first, last, tt.first, tt.last)
		}
	}
}

func TestSummarizeMonth(t *testing.T) {
	day := func(s string) Date {
		d, err := ParseDate(s)
		if err != nil {
			t.Fatal(err)
		}
		return d
	}
	p := &Project{Name: "Bridge"}
	reports := []DailyReport{
		{Date: day("2025-03-12"), Activities: "Slab", Status: ReportCompleted, Productivity: 90, Accidents: NoAccident},
		{Date: day("2025-03-03"), Activities: "Excavation", Status: ReportDelayed, Productivity: 40, Accidents: "Worker slipped"},
		{Date: day("2025-03-07"), Activities: "Formwork", Status: ReportCompleted, Productivity: 75, Accidents: ""},
	}

	s := SummarizeMonth(p, 2025, time.March, reports)
	if s.DaysWorked != 3 {
		t.Errorf("DaysWorked = %d, expected 3", s.DaysWorked)
	}
	if s.CompletedDays != 2 {
		t.Errorf("CompletedDays = %d, expected 2", s.CompletedDays)
	}
	if s.AccidentFreeDays != 2 {
		t.Errorf("AccidentFreeDays = %d, expected 2", s.AccidentFreeDays)
	}
	if s.AverageProductivity != 68.3 {
		t.Errorf("AverageProductivity = %v, expected 68.3", s.AverageProductivity)
	}
	if s.Rows[0].Date.String() != "2025-03-03" || !s.Rows[0].Accident {
		t.Errorf("first row = %+v, expected the 3rd with an accident", s.Rows[0])
	}
	if s.Rows[2].Date.String() != "2025-03-12" {
		t.Errorf("last row = %s, expected 2025-03-12", s.Rows[2].Date)
	}

	empty := SummarizeMonth(p, 2025, time.April, nil)
	if empty.DaysWorked != 0 || empty.AverageProductivity != 0 || len(empty.Rows) != 0 {
		t.Errorf("empty month = %+v", empty)
	}
}
