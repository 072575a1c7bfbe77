package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"p9e.in/sitelog/export"
	"p9e.in/sitelog/middleware"
	"p9e.in/sitelog/models"
	"p9e.in/sitelog/repositories"
	"p9e.in/sitelog/storage"
)

// ReportHandler serves daily reports, their PDFs and monthly summaries.
type ReportHandler struct {
	scoper
	reports repositories.ReportRepository
	blobs   storage.BlobStore
	alerts  *AlertService
	now     func() time.Time
}

// NewReportHandler creates a new report handler
func NewReportHandler(store *repositories.Store, blobs storage.BlobStore, alerts *AlertService) *ReportHandler {
	return &ReportHandler{
		scoper:  scoper{store.Projects},
		reports: store.Reports,
		blobs:   blobs,
		alerts:  alerts,
		now:     time.Now,
	}
}

// ReportRequest is the daily report form. CrewBreakdown, when present,
// replaces Crew with its generated description.
type ReportRequest struct {
	Date          models.Date           `json:"date"`
	ProjectID     uuid.UUID             `json:"project_id"`
	Weather       string                `json:"weather"`
	Activities    string                `json:"activities"`
	ActivityItems []models.Activity     `json:"activity_items"`
	Crew          string                `json:"crew"`
	CrewBreakdown *models.CrewBreakdown `json:"crew_breakdown"`
	Equipment     string                `json:"equipment"`
	Incidents     string                `json:"incidents"`
	Accidents     string                `json:"accidents"`
	NextDayPlan   string                `json:"next_day_plan"`
	Observations  string                `json:"observations"`
	Status        models.ReportStatus   `json:"status"`
	Productivity  float64               `json:"productivity"`
}

func (req *ReportRequest) toReport(author uuid.UUID) (*models.DailyReport, error) {
	crew := req.Crew
	if req.CrewBreakdown != nil {
		s, err := req.CrewBreakdown.Describe()
		if err != nil {
			return nil, err
		}
		crew = s
	}
	report := &models.DailyReport{
		Date:          req.Date,
		ProjectID:     req.ProjectID,
		AuthorID:      author,
		Weather:       req.Weather,
		Activities:    req.Activities,
		ActivityItems: req.ActivityItems,
		Crew:          crew,
		Equipment:     req.Equipment,
		Incidents:     req.Incidents,
		Accidents:     req.Accidents,
		NextDayPlan:   req.NextDayPlan,
		Observations:  req.Observations,
		Status:        req.Status,
		Productivity:  req.Productivity,
	}
	return report, report.Validate()
}

// ListReports handles GET /reports?project_id=&from=&to=&mine=true&limit=
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	projectID, err := queryUUID(r, "project_id")
	if err != nil {
		http.Error(w, "invalid project_id", http.StatusBadRequest)
		return
	}
	from, to, err := dateRange(r)
	if err != nil {
		http.Error(w, "invalid date range", http.StatusBadRequest)
		return
	}
	scope, err := h.scope(r)
	if err != nil {
		writeError(w, err, "report")
		return
	}
	if projectID != uuid.Nil && !scope.Allows(projectID) {
		http.Error(w, "project not found", http.StatusNotFound)
		return
	}

	filter := models.ReportFilter{
		ProjectID: projectID,
		From:      from,
		To:        to,
		Scope:     scope,
		Limit:     queryInt(r, "limit", 0),
	}
	if r.URL.Query().Get("mine") == "true" {
		filter.AuthorID = currentUserID(r)
	}
	reports, err := h.reports.List(r.Context(), filter)
	if err != nil {
		writeError(w, err, "report")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	})
}

// report loads the {id} report when its project is in scope.
func (h *ReportHandler) report(w http.ResponseWriter, r *http.Request) (*models.DailyReport, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid report id", http.StatusBadRequest)
		return nil, false
	}
	report, err := h.reports.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, "report")
		return nil, false
	}
	scope, err := h.scope(r)
	if err != nil {
		writeError(w, err, "report")
		return nil, false
	}
	if !scope.Allows(report.ProjectID) {
		http.Error(w, "report not found", http.StatusNotFound)
		return nil, false
	}
	return report, true
}

// GetReport returns one report.
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// SaveReport creates the report of a day or overwrites the one already
// filed for that date and project. 201 on insert, 200 on update.
func (h *ReportHandler) SaveReport(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	author := middleware.GetUser(r)
	if author == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	report, err := req.toReport(author.ID)
	if err != nil {
		writeError(w, err, "report")
		return
	}
	project, ok := h.project(w, r, report.ProjectID)
	if !ok {
		return
	}

	created, err := h.reports.Upsert(r.Context(), report)
	if err != nil {
		writeError(w, err, "report")
		return
	}
	zap.L().Info("daily report saved",
		zap.String("report_id", report.ID.String()),
		zap.String("project_id", project.ID.String()),
		zap.String("date", report.Date.String()),
		zap.Bool("created", created),
	)
	alerts := h.alerts.ReportSaved(r.Context(), project, report)

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]interface{}{
		"id":           report.ID,
		"created":      created,
		"productivity": report.Productivity,
		"alerts":       alerts,
	})
}

// DeleteReport removes the report, its photo rows and their blobs.
func (h *ReportHandler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	photos, err := h.reports.Delete(r.Context(), report.ID)
	if err != nil {
		writeError(w, err, "report")
		return
	}
	removeBlobs(r, h.blobs, photos)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":        "Report deleted successfully",
		"photos_removed": len(photos),
	})
}

// ShareMessage is the text sent when a report is shared.
func ShareMessage(r *models.DailyReport, projectName string) string {
	return fmt.Sprintf("Report %s - %s\nStatus: %s\nProductivity: %.1f%%",
		r.Date, projectName, r.Status.Label(), r.Productivity)
}

// ShareReport handles POST /reports/{id}/share: it sends a one-line summary
// of the report to every notification channel.
func (h *ReportHandler) ShareReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	project, err := h.projects.Get(r.Context(), report.ProjectID)
	if err != nil {
		writeError(w, err, "project")
		return
	}
	if len(h.alerts.fanout.Channels()) == 0 {
		http.Error(w, "no notification channel configured", http.StatusServiceUnavailable)
		return
	}
	text := ShareMessage(report, project.Name)
	delivered := h.alerts.Share(r.Context(), project, text)
	if len(delivered) == 0 {
		http.Error(w, "message could not be delivered", http.StatusBadGateway)
		return
	}
	zap.L().Info("report shared",
		zap.String("report_id", report.ID.String()),
		zap.Strings("channels", delivered),
	)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Report shared",
		"text":     text,
		"channels": delivered,
	})
}

// ReportPDF renders one report as a PDF download.
func (h *ReportHandler) ReportPDF(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteReportPDF(&buf, report); err != nil {
		zap.L().Error("failed to render report pdf", zap.String("report_id", report.ID.String()), zap.Error(err))
		http.Error(w, "failed to generate pdf", http.StatusInternalServerError)
		return
	}
	name := export.Filename("report_"+report.Date.String(), "pdf", h.now())
	sendFile(w, "application/pdf", name, buf.Bytes())
}

// monthParam reads ?year=&month=, defaulting to the current month.
func (h *ReportHandler) monthParam(r *http.Request) (int, time.Month, error) {
	now := h.now()
	year, month := now.Year(), now.Month()
	q := r.URL.Query()
	if s := q.Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil || y < 2000 || y > 2100 {
			return 0, 0, fmt.Errorf("invalid year %q", s)
		}
		year = y
	}
	if s := q.Get("month"); s != "" {
		m, err := strconv.Atoi(s)
		if err != nil || m < 1 || m > 12 {
			return 0, 0, fmt.Errorf("invalid month %q", s)
		}
		month = time.Month(m)
	}
	return year, month, nil
}

func (h *ReportHandler) monthly(w http.ResponseWriter, r *http.Request) (*models.MonthlySummary, bool) {
	project, ok := h.projectFromPath(w, r)
	if !ok {
		return nil, false
	}
	year, month, err := h.monthParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	from, to := models.MonthRange(year, month)
	reports, err := h.reports.List(r.Context(), models.ReportFilter{ProjectID: project.ID, From: from, To: to})
	if err != nil {
		writeError(w, err, "report")
		return nil, false
	}
	summary := models.SummarizeMonth(project, year, month, reports)
	return &summary, true
}

// MonthlySummary handles GET /projects/{id}/monthly?year=&month=
func (h *ReportHandler) MonthlySummary(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.monthly(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// MonthlyPDF handles GET /projects/{id}/monthly/pdf?year=&month=
func (h *ReportHandler) MonthlyPDF(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.monthly(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteMonthlyPDF(&buf, *summary); err != nil {
		zap.L().Error("failed to render monthly pdf", zap.String("project_id", summary.ProjectID.String()), zap.Error(err))
		http.Error(w, "failed to generate pdf", http.StatusInternalServerError)
		return
	}
	prefix := fmt.Sprintf("monthly_%s_%04d_%02d", summary.ProjectName, summary.Year, summary.Month)
	sendFile(w, "application/pdf", export.Filename(prefix, "pdf", h.now()), buf.Bytes())
}

func sendFile(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
