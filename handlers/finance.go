package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"p9e.in/sitelog/models"
	"p9e.in/sitelog/repositories"
	"p9e.in/sitelog/storage"
	"p9e.in/sitelog/utils"
)

const (
	maxReceiptSize   = 10 << 20
	receiptKeyPrefix = "receipts"
)

// FinanceHandler covers costs, materials and the finance summary.
type FinanceHandler struct {
	scoper
	costs     repositories.CostRepository
	materials repositories.MaterialRepository
	blobs     storage.BlobStore
	alerts    *AlertService
	now       func() time.Time
}

// NewFinanceHandler creates a new finance handler
func NewFinanceHandler(store *repositories.Store, blobs storage.BlobStore, alerts *AlertService) *FinanceHandler {
	return &FinanceHandler{
		scoper:    scoper{store.Projects},
		costs:     store.Costs,
		materials: store.Materials,
		blobs:     blobs,
		alerts:    alerts,
		now:       time.Now,
	}
}

type costReq struct {
	Category    models.CostCategory `json:"category"`
	Description string              `json:"description"`
	Amount      float64             `json:"amount"`
	Date        models.Date         `json:"date"`
}

// ListCosts handles GET /projects/{id}/costs?from=&to=
func (h *FinanceHandler) ListCosts(w http.ResponseWriter, r *http.Request) {
	project, ok := h.projectFromPath(w, r)
	if !ok {
		return
	}
	from, to, err := dateRange(r)
	if err != nil {
		http.Error(w, "invalid date range", http.StatusBadRequest)
		return
	}
	costs, err := h.costs.List(r.Context(), project.ID, from, to)
	if err != nil {
		writeError(w, err, "cost")
		return
	}
	var total float64
	for _, c := range costs {
		total += c.Amount
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"costs": costs,
		"count": len(costs),
		"total": utils.Round(total, 2),
	})
}

// CreateCost handles POST /projects/{id}/costs as JSON, or as a multipart
// form carrying an optional "receipt" file.
func (h *FinanceHandler) CreateCost(w http.ResponseWriter, r *http.Request) {
	project, ok := h.projectFromPath(w, r)
	if !ok {
		return
	}

	var req costReq
	var receipt []byte
	var receiptName string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxReceiptSize * 2); err != nil {
			http.Error(w, "Failed to parse form", http.StatusBadRequest)
			return
		}
		amount, err := strconv.ParseFloat(r.FormValue("amount"), 64)
		if err != nil {
			http.Error(w, "invalid amount", http.StatusBadRequest)
			return
		}
		req = costReq{
			Category:    models.CostCategory(r.FormValue("category")),
			Description: r.FormValue("description"),
			Amount:      amount,
		}
		if s := r.FormValue("date"); s != "" {
			if req.Date, err = models.ParseDate(s); err != nil {
				http.Error(w, "invalid date", http.StatusBadRequest)
				return
			}
		}
		if f, fh, err := r.FormFile("receipt"); err == nil {
			receipt, err = io.ReadAll(io.LimitReader(f, maxReceiptSize+1))
			f.Close()
			if err != nil {
				http.Error(w, "Failed to read file", http.StatusBadRequest)
				return
			}
			if len(receipt) > maxReceiptSize {
				http.Error(w, "receipt exceeds 10 MB", http.StatusBadRequest)
				return
			}
			receiptName = fh.Filename
		} else if !errors.Is(err, http.ErrMissingFile) {
			http.Error(w, "Failed to read file", http.StatusBadRequest)
			return
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	cost := &models.Cost{
		ProjectID:   project.ID,
		Category:    req.Category,
		Description: strings.TrimSpace(req.Description),
		Amount:      req.Amount,
		Date:        req.Date,
		CreatedBy:   currentUserID(r),
	}
	if cost.Date.IsZero() {
		cost.Date = models.NewDate(h.now())
	}
	if cost.Description == "" {
		http.Error(w, "description is required", http.StatusBadRequest)
		return
	}
	if err := cost.Validate(); err != nil {
		writeError(w, err, "cost")
		return
	}

	if receipt != nil {
		contentType := http.DetectContentType(receipt)
		if !strings.HasPrefix(contentType, "image/") && contentType != "application/pdf" {
			http.Error(w, "receipt must be an image or a PDF", http.StatusBadRequest)
			return
		}
		key := storage.NewKey(receiptKeyPrefix, receiptName, h.now())
		if _, err := h.blobs.Put(r.Context(), key, contentType, bytes.NewReader(receipt)); err != nil {
			zap.L().Error("failed to store receipt", zap.Error(err))
			http.Error(w, "failed to store receipt", http.StatusInternalServerError)
			return
		}
		cost.ReceiptKey = key
	}

	if err := h.costs.Create(r.Context(), cost); err != nil {
		writeError(w, err, "cost")
		return
	}
	zap.L().Info("cost recorded",
		zap.String("project_id", project.ID.String()),
		zap.String("category", string(cost.Category)),
		zap.Float64("amount", cost.Amount),
	)
	alerts := h.alerts.CostRecorded(r.Context(), project, cost)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Cost recorded successfully",
		"cost":    cost,
		"alerts":  alerts,
	})
}

// CategoryStats is the per-category breakdown of the finance summary.
type CategoryStats struct {
	Category models.CostCategory `json:"category"`
	Count    int                 `json:"count"`
	Sum      float64             `json:"sum"`
	Mean     float64             `json:"mean"`
	Max      float64             `json:"max"`
}

// BudgetUsage compares the budget with everything spent so far.
type BudgetUsage struct {
	TotalBudget    float64 `json:"total_budget"`
	Spent          float64 `json:"spent"`
	Remaining      float64 `json:"remaining"`
	PercentageUsed float64 `json:"percentage_used"`
}

// FinanceSummary is the body of GET /projects/{id}/finance.
type FinanceSummary struct {
	ProjectID  string                          `json:"project_id"`
	Project    string                          `json:"project"`
	Currency   string                          `json:"currency"`
	From       models.Date                     `json:"from"`
	To         models.Date                     `json:"to"`
	Totals     map[models.CostCategory]float64 `json:"totals"`
	GrandTotal float64                         `json:"grand_total"`
	Budget     BudgetUsage                     `json:"budget"`
	CashFlow   []utils.TimeSeriesPoint         `json:"cash_flow"`
	Categories []CategoryStats                 `json:"categories"`
	Forecast   Forecast                        `json:"forecast"`
}

// Forecast projects the average daily cost of the range until the end date.
type Forecast struct {
	AverageDaily   float64 `json:"average_daily"`
	DaysRemaining  int     `json:"days_remaining"`
	Projected      float64 `json:"projected"`
	EstimatedTotal float64 `json:"estimated_total"`
}

// GetFinanceSummary handles GET /projects/{id}/finance?from=&to=
func (h *FinanceHandler) GetFinanceSummary(w http.ResponseWriter, r *http.Request) {
	project, ok := h.projectFromPath(w, r)
	if !ok {
		return
	}
	from, to, err := dateRange(r)
	if err != nil {
		http.Error(w, "invalid date range", http.StatusBadRequest)
		return
	}

	costs, err := h.costs.List(r.Context(), project.ID, from, to)
	if err != nil {
		writeError(w, err, "cost")
		return
	}
	spent, err := h.costs.Total(r.Context(), project.ID)
	if err != nil {
		writeError(w, err, "cost")
		return
	}

	summary := BuildFinanceSummary(project, costs, spent, from, to, models.NewDate(h.now()))
	writeJSON(w, http.StatusOK, summary)
}

// BuildFinanceSummary aggregates costs already restricted to [from, to].
// spent is the project's all-time total. Zero range ends default to the
// earliest cost and today.
func BuildFinanceSummary(p *models.Project, costs []models.Cost, spent float64, from, to, today models.Date) FinanceSummary {
	s := FinanceSummary{
		ProjectID: p.ID.String(),
		Project:   p.Name,
		Currency:  p.Currency,
		Totals:    make(map[models.CostCategory]float64, len(models.CostCategories)),
		Budget: BudgetUsage{
			TotalBudget:    p.TotalBudget,
			Spent:          utils.Round(spent, 2),
			Remaining:      utils.Round(p.TotalBudget-spent, 2),
			PercentageUsed: utils.Percentage(spent, p.TotalBudget),
		},
		Categories: []CategoryStats{},
	}

	daily := map[string]float64{}
	amounts := map[models.CostCategory][]float64{}
	for _, c := range costs {
		s.Totals[c.Category] += c.Amount
		s.GrandTotal += c.Amount
		daily[c.Date.String()] += c.Amount
		amounts[c.Category] = append(amounts[c.Category], c.Amount)
	}
	for _, cat := range models.CostCategories {
		s.Totals[cat] = utils.Round(s.Totals[cat], 2)
		if stats := utils.CalculateStatistics(amounts[cat]); stats != nil {
			s.Categories = append(s.Categories, CategoryStats{
				Category: cat,
				Count:    stats.Count,
				Sum:      utils.Round(stats.Sum, 2),
				Mean:     utils.Round(stats.Mean, 2),
				Max:      stats.Max,
			})
		}
	}
	s.GrandTotal = utils.Round(s.GrandTotal, 2)
	s.CashFlow = utils.CumulativeSeries(daily)

	if from.IsZero() && len(s.CashFlow) > 0 {
		from, _ = models.ParseDate(s.CashFlow[0].Date)
	}
	if to.IsZero() {
		to = today
	}
	s.From, s.To = from, to

	observed := daysBetween(from, to) + 1
	if from.IsZero() {
		observed = 0
	}
	remaining := 0
	if p.EndDate != nil && today.Before(*p.EndDate) {
		remaining = daysBetween(today, *p.EndDate)
	}
	s.Forecast = Forecast{DaysRemaining: remaining}
	if observed > 0 {
		s.Forecast.AverageDaily = utils.Round(s.GrandTotal/float64(observed), 2)
	}
	s.Forecast.Projected = utils.Forecast(s.GrandTotal, observed, remaining)
	s.Forecast.EstimatedTotal = utils.Round(spent+s.Forecast.Projected, 2)
	return s
}

func daysBetween(a, b models.Date) int {
	return int(b.Time().Sub(a.Time()).Hours() / 24)
}

type materialReq struct {
	Name      string      `json:"name"`
	Quantity  float64     `json:"quantity"`
	Unit      string      `json:"unit"`
	UnitCost  float64     `json:"unit_cost"`
	EntryDate models.Date `json:"entry_date"`
	Supplier  string      `json:"supplier"`
}

// ListMaterials handles GET /projects/{id}/materials.
func (h *FinanceHandler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	project, ok := h.projectFromPath(w, r)
	if !ok {
		return
	}
	materials, err := h.materials.List(r.Context(), project.ID)
	if err != nil {
		writeError(w, err, "material")
		return
	}
	var total float64
	for i := range materials {
		total += materials[i].TotalCost()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"materials":  materials,
		"count":      len(materials),
		"total_cost": utils.Round(total, 2),
	})
}

// CreateMaterial handles POST /projects/{id}/materials.
func (h *FinanceHandler) CreateMaterial(w http.ResponseWriter, r *http.Request) {
	project, ok := h.projectFromPath(w, r)
	if !ok {
		return
	}
	var req materialReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	m := &models.Material{
		ProjectID: project.ID,
		Name:      strings.TrimSpace(req.Name),
		Quantity:  req.Quantity,
		Unit:      strings.TrimSpace(req.Unit),
		UnitCost:  req.UnitCost,
		EntryDate: req.EntryDate,
		Supplier:  strings.TrimSpace(req.Supplier),
	}
	if m.EntryDate.IsZero() {
		m.EntryDate = models.NewDate(h.now())
	}
	if err := m.Validate(); err != nil {
		writeError(w, err, "material")
		return
	}
	if err := h.materials.Create(r.Context(), m); err != nil {
		writeError(w, err, "material")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":    "Material recorded successfully",
		"material":   m,
		"total_cost": utils.Round(m.TotalCost(), 2),
	})
}
