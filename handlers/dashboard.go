package handlers

import (
	"net/http"
	"time"

	"p9e.in/sitelog/models"
	"p9e.in/sitelog/repositories"
	"p9e.in/sitelog/utils"
)

// DefaultDashboardDays is the window used when no range is given.
const DefaultDashboardDays = 30

// DashboardHandler serves the project dashboard.
type DashboardHandler struct {
	scoper
	reports repositories.ReportRepository
	alerts  repositories.AlertRepository
	now     func() time.Time
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(store *repositories.Store) *DashboardHandler {
	return &DashboardHandler{
		scoper:  scoper{store.Projects},
		reports: store.Reports,
		alerts:  store.Alerts,
		now:     time.Now,
	}
}

// Dashboard is the project overview page.
type Dashboard struct {
	ProjectID           string                      `json:"project_id"`
	Project             string                      `json:"project"`
	TotalBudget         float64                     `json:"total_budget"`
	From                models.Date                 `json:"from"`
	To                  models.Date                 `json:"to"`
	DaysWorked          int                         `json:"days_worked"`
	CompletedDays       int                         `json:"completed_days"`
	AverageProductivity float64                     `json:"average_productivity"`
	Rating              string                      `json:"rating"`
	UnreadAlerts        int64                       `json:"unread_alerts"`
	EmergencyAlerts     int64                       `json:"emergency_alerts"`
	StatusDistribution  map[models.ReportStatus]int `json:"status_distribution"`
	Productivity        []utils.TimeSeriesPoint     `json:"productivity"`
	Latest              []models.DailyReport        `json:"latest"`
}

// GetDashboard handles GET /projects/{id}/dashboard?from=&to=
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	project, ok := h.projectFromPath(w, r)
	if !ok {
		return
	}
	from, to, err := dateRange(r)
	if err != nil {
		http.Error(w, "invalid date range", http.StatusBadRequest)
		return
	}
	if to.IsZero() {
		to = models.NewDate(h.now())
	}
	if from.IsZero() {
		from = to.AddDays(-DefaultDashboardDays)
	}

	reports, err := h.reports.List(r.Context(), models.ReportFilter{ProjectID: project.ID, From: from, To: to})
	if err != nil {
		writeError(w, err, "report")
		return
	}
	unread, emergencies, err := h.alerts.CountUnread(r.Context(), project.ID)
	if err != nil {
		writeError(w, err, "alert")
		return
	}

	d := BuildDashboard(project, reports, from, to)
	d.UnreadAlerts, d.EmergencyAlerts = unread, emergencies
	writeJSON(w, http.StatusOK, d)
}

// BuildDashboard expects reports most recent first, as the repository
// returns them.
func BuildDashboard(p *models.Project, reports []models.DailyReport, from, to models.Date) Dashboard {
	d := Dashboard{
		ProjectID:          p.ID.String(),
		Project:            p.Name,
		TotalBudget:        p.TotalBudget,
		From:               from,
		To:                 to,
		DaysWorked:         len(reports),
		StatusDistribution: map[models.ReportStatus]int{},
		Productivity:       make([]utils.TimeSeriesPoint, 0, len(reports)),
		Latest:             []models.DailyReport{},
	}

	values := make([]float64, 0, len(reports))
	for i := len(reports) - 1; i >= 0; i-- {
		rep := reports[i]
		values = append(values, rep.Productivity)
		d.StatusDistribution[rep.Status]++
		if rep.Status == models.ReportCompleted {
			d.CompletedDays++
		}
		d.Productivity = append(d.Productivity, utils.TimeSeriesPoint{Date: rep.Date.String(), Value: rep.Productivity})
	}
	d.AverageProductivity = utils.Round(utils.Mean(values), 1)
	d.Rating = utils.ProductivityRating(d.AverageProductivity)

	n := len(reports)
	if n > 5 {
		n = 5
	}
	d.Latest = append(d.Latest, reports[:n]...)
	return d
}
