package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"p9e.in/sitelog/models"
	"p9e.in/sitelog/notify"
	"p9e.in/sitelog/repositories"
	"p9e.in/sitelog/utils"
)

// Alert thresholds.
const (
	LowProductivityThreshold = 60.0
	HighCostThreshold        = 10000.0
	BudgetAlertPercent       = 80.0
)

// AlertService persists alerts raised by report, project and cost writes
// and hands them to the notifiers.
type AlertService struct {
	alerts repositories.AlertRepository
	costs  repositories.CostRepository
	fanout *notify.Fanout
}

// NewAlertService creates the alert service. A nil fanout logs only.
func NewAlertService(store *repositories.Store, fanout *notify.Fanout) *AlertService {
	if fanout == nil {
		fanout = notify.NewFanout(zap.L())
	}
	return &AlertService{alerts: store.Alerts, costs: store.Costs, fanout: fanout}
}

// Raise stores one alert and dispatches it. Failures are logged; the write
// that triggered the alert has already succeeded.
func (s *AlertService) Raise(ctx context.Context, p *models.Project, typ models.AlertType, message string) *models.Alert {
	a := &models.Alert{ProjectID: p.ID, Type: typ, Message: message}
	if err := s.alerts.Create(ctx, a); err != nil {
		zap.L().Error("failed to store alert",
			zap.String("project_id", p.ID.String()),
			zap.String("type", string(typ)),
			zap.Error(err),
		)
		return nil
	}
	s.fanout.Dispatch(notify.Message{Project: p.Name, Type: typ, Text: message, CreatedAt: a.CreatedAt})
	return a
}

// Share sends text about p to every channel right away without storing an
// alert. It returns the channels that delivered it.
func (s *AlertService) Share(ctx context.Context, p *models.Project, text string) []string {
	return s.fanout.Notify(ctx, notify.Message{Project: p.Name, Type: models.AlertInfo, Text: text, CreatedAt: time.Now()})
}

// ProjectCreated raises the info alert of a new project.
func (s *AlertService) ProjectCreated(ctx context.Context, p *models.Project) {
	s.Raise(ctx, p, models.AlertInfo, "New project created: "+p.Name)
}

// ReportSaved raises the accident and low productivity alerts.
func (s *AlertService) ReportSaved(ctx context.Context, p *models.Project, r *models.DailyReport) []models.Alert {
	var raised []models.Alert
	if r.HasAccident() {
		msg := fmt.Sprintf("Accident reported on %s. Check the daily report.", r.Date)
		if a := s.Raise(ctx, p, models.AlertEmergency, msg); a != nil {
			raised = append(raised, *a)
		}
	}
	if r.Productivity < LowProductivityThreshold {
		msg := fmt.Sprintf("Low productivity (%.1f%%) on %s", r.Productivity, r.Date)
		if a := s.Raise(ctx, p, models.AlertWarning, msg); a != nil {
			raised = append(raised, *a)
		}
	}
	return raised
}

// CostRecorded raises the high cost alert and, once the project total
// passes BudgetAlertPercent of the budget, the budget alert.
func (s *AlertService) CostRecorded(ctx context.Context, p *models.Project, c *models.Cost) []models.Alert {
	var raised []models.Alert
	if c.Amount > HighCostThreshold {
		msg := fmt.Sprintf("High cost recorded: %s - %.2f", c.Description, c.Amount)
		if a := s.Raise(ctx, p, models.AlertFinancial, msg); a != nil {
			raised = append(raised, *a)
		}
	}
	if p.TotalBudget <= 0 {
		return raised
	}
	spent, err := s.costs.Total(ctx, p.ID)
	if err != nil {
		zap.L().Error("failed to total project costs", zap.String("project_id", p.ID.String()), zap.Error(err))
		return raised
	}
	if used := utils.Percentage(spent, p.TotalBudget); used > BudgetAlertPercent {
		if a := s.Raise(ctx, p, models.AlertFinancial, fmt.Sprintf("Budget used at %.1f%%", used)); a != nil {
			raised = append(raised, *a)
		}
	}
	return raised
}

// AlertHandler lists and acknowledges alerts.
type AlertHandler struct {
	scoper
	alerts  repositories.AlertRepository
	service *AlertService
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(store *repositories.Store, service *AlertService) *AlertHandler {
	return &AlertHandler{scoper: scoper{store.Projects}, alerts: store.Alerts, service: service}
}

// ListAlerts handles GET /alerts?project_id=&unread=true&type=&limit=
func (h *AlertHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	projectID, err := queryUUID(r, "project_id")
	if err != nil {
		http.Error(w, "invalid project_id", http.StatusBadRequest)
		return
	}
	scope, err := h.scope(r)
	if err != nil {
		writeError(w, err, "alert")
		return
	}
	if projectID != uuid.Nil && !scope.Allows(projectID) {
		http.Error(w, "project not found", http.StatusNotFound)
		return
	}

	q := r.URL.Query()
	alerts, err := h.alerts.List(r.Context(), repositories.AlertFilter{
		ProjectID:  projectID,
		UnreadOnly: q.Get("unread") == "true",
		Type:       models.AlertType(q.Get("type")),
		Scope:      scope,
		Limit:      queryInt(r, "limit", 0),
	})
	if err != nil {
		writeError(w, err, "alert")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

type createAlertReq struct {
	ProjectID string `json:"project_id"`
	Type      string `json:"type"`
	Priority  string `json:"priority"`
	Message   string `json:"message"`
}

var alertPriorities = []string{"Low", "Medium", "High", "Critical"}

// CreateAlert handles POST /alerts. The message is stored with its
// priority prefix, e.g. "[High] crane inspection overdue".
func (h *AlertHandler) CreateAlert(w http.ResponseWriter, r *http.Request) {
	var req createAlertReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}
	typ := models.AlertType(req.Type)
	switch typ {
	case models.AlertInfo, models.AlertWarning, models.AlertEmergency, models.AlertFinancial:
	default:
		http.Error(w, "invalid alert type", http.StatusBadRequest)
		return
	}
	priority := "Medium"
	if req.Priority != "" {
		priority = ""
		for _, p := range alertPriorities {
			if strings.EqualFold(p, req.Priority) {
				priority = p
			}
		}
		if priority == "" {
			http.Error(w, "invalid priority", http.StatusBadRequest)
			return
		}
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		http.Error(w, "invalid project_id", http.StatusBadRequest)
		return
	}
	project, ok := h.project(w, r, projectID)
	if !ok {
		return
	}

	a := h.service.Raise(r.Context(), project, typ, fmt.Sprintf("[%s] %s", priority, strings.TrimSpace(req.Message)))
	if a == nil {
		http.Error(w, "failed to create alert", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Alert created successfully",
		"alert":   a,
	})
}

// MarkRead handles POST /alerts/{id}/read.
func (h *AlertHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid alert id", http.StatusBadRequest)
		return
	}
	alert, err := h.alerts.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, "alert")
		return
	}
	if _, ok := h.project(w, r, alert.ProjectID); !ok {
		return
	}
	if err := h.alerts.MarkRead(r.Context(), id); err != nil {
		writeError(w, err, "alert")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Alert marked as read",
		"id":      id,
	})
}
