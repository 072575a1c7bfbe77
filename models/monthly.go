package models

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// MonthlyRow is one day in the monthly report table.
type MonthlyRow struct {
	Date         Date         `json:"date"`
	Activities   string       `json:"activities"`
	Status       ReportStatus `json:"status"`
	Productivity float64      `json:"productivity"`
	Accident     bool         `json:"accident"`
}

// MonthlySummary aggregates the reports of one project over a calendar month.
type MonthlySummary struct {
	ProjectID           uuid.UUID    `json:"project_id"`
	ProjectName         string       `json:"project_name"`
	Year                int          `json:"year"`
	Month               int          `json:"month"`
	DaysWorked          int          `json:"days_worked"`
	CompletedDays       int          `json:"completed_days"`
	AverageProductivity float64      `json:"average_productivity"`
	AccidentFreeDays    int          `json:"accident_free_days"`
	Rows                []MonthlyRow `json:"rows"`
}

// MonthRange returns the first and last day of the month, both inclusive.
func MonthRange(year int, month time.Month) (Date, Date) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Date(first), Date(first.AddDate(0, 1, -1))
}

// SummarizeMonth expects reports already restricted to the month; rows
// come out in calendar order.
func SummarizeMonth(p *Project, year int, month time.Month, reports []DailyReport) MonthlySummary {
	s := MonthlySummary{
		ProjectID:   p.ID,
		ProjectName: p.Name,
		Year:        year,
		Month:       int(month),
		DaysWorked:  len(reports),
		Rows:        make([]MonthlyRow, 0, len(reports)),
	}

	var sum float64
	for i := range reports {
		r := &reports[i]
		sum += r.Productivity
		if r.Status == ReportCompleted {
			s.CompletedDays++
		}
		accident := r.HasAccident()
		if !accident {
			s.AccidentFreeDays++
		}
		s.Rows = append(s.Rows, MonthlyRow{
			Date:         r.Date,
			Activities:   r.Activities,
			Status:       r.Status,
			Productivity: r.Productivity,
			Accident:     accident,
		})
	}
	if len(reports) > 0 {
		s.AverageProductivity = math.Round(sum/float64(len(reports))*10) / 10
	}
	sort.Slice(s.Rows, func(i, j int) bool { return s.Rows[i].Date.Before(s.Rows[j].Date) })
	return s
}
