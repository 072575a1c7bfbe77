package handlers

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"p9e.in/sitelog/export"
	"p9e.in/sitelog/middleware"
	"p9e.in/sitelog/models"
	"p9e.in/sitelog/repositories"
	"p9e.in/sitelog/utils"
)

// ExportHandler serves dataset downloads.
type ExportHandler struct {
	scoper
	store *repositories.Store
	now   func() time.Time
}

// NewExportHandler creates a new export handler
func NewExportHandler(store *repositories.Store) *ExportHandler {
	return &ExportHandler{scoper: scoper{store.Projects}, store: store, now: time.Now}
}

// datasetPermission is the extra grant a dataset needs beyond export:read.
var datasetPermission = map[string]string{
	export.DatasetReports:  utils.PermReportRead,
	export.DatasetProjects: utils.PermProjectRead,
	export.DatasetUsers:    utils.PermUserManage,
	export.DatasetCosts:    utils.PermCostRead,
}

type exportFormat struct {
	ext         string
	contentType string
	write       func(w io.Writer, tables []export.Table) error
}

var exportFormats = map[string]exportFormat{
	"xlsx": {"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.WriteXLSX},
	"csv":  {"zip", "application/zip", export.WriteCSVZip},
	"json": {"json", "application/json", export.WriteJSON},
}

// Export handles GET /export?format=xlsx|csv|json&datasets=reports,projects&project_id=&from=&to=
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	formatName := q.Get("format")
	if formatName == "" {
		formatName = "xlsx"
	}
	format, ok := exportFormats[formatName]
	if !ok {
		http.Error(w, "format must be xlsx, csv or json", http.StatusBadRequest)
		return
	}

	datasets, err := parseDatasets(q.Get("datasets"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	role := models.Role(middleware.GetRole(r))
	for _, ds := range datasets {
		if !utils.HasPermission(role, datasetPermission[ds]) {
			http.Error(w, "forbidden dataset: "+ds, http.StatusForbidden)
			return
		}
	}

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
		writeError(w, err, "export")
		return
	}
	if projectID != uuid.Nil {
		if !scope.Allows(projectID) {
			http.Error(w, "project not found", http.StatusNotFound)
			return
		}
		scope = &models.ProjectScope{IDs: []uuid.UUID{projectID}}
	}

	tables := make([]export.Table, 0, len(datasets))
	for _, ds := range datasets {
		t, err := h.table(r, ds, scope, from, to)
		if err != nil {
			writeError(w, err, ds)
			return
		}
		tables = append(tables, t)
	}

	var buf bytes.Buffer
	if err := format.write(&buf, tables); err != nil {
		zap.L().Error("export failed", zap.String("format", formatName), zap.Error(err))
		http.Error(w, "failed to generate export", http.StatusInternalServerError)
		return
	}
	zap.L().Info("data exported",
		zap.String("format", formatName),
		zap.Strings("datasets", datasets),
		zap.String("user", currentUserID(r).String()),
	)
	sendFile(w, format.contentType, export.Filename("sitelog_export", format.ext, h.now()), buf.Bytes())
}

func parseDatasets(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return []string{export.DatasetReports, export.DatasetProjects}, nil
	}
	seen := map[string]bool{}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		ds := strings.ToLower(strings.TrimSpace(part))
		if ds == "" || seen[ds] {
			continue
		}
		if _, ok := datasetPermission[ds]; !ok {
			return nil, &unknownDatasetError{ds}
		}
		seen[ds] = true
		out = append(out, ds)
	}
	if len(out) == 0 {
		return nil, &unknownDatasetError{raw}
	}
	return out, nil
}

type unknownDatasetError struct{ name string }

func (e *unknownDatasetError) Error() string {
	return "unknown dataset " + e.name + " (use " + strings.Join(export.Datasets, ", ") + ")"
}

func (h *ExportHandler) table(r *http.Request, dataset string, scope *models.ProjectScope, from, to models.Date) (export.Table, error) {
	ctx := r.Context()
	switch dataset {
	case export.DatasetReports:
		reports, err := h.store.Reports.List(ctx, models.ReportFilter{From: from, To: to, Scope: scope})
		return export.ReportsTable(reports), err
	case export.DatasetProjects:
		projects, err := h.store.Projects.List(ctx, scope)
		return export.ProjectsTable(projects), err
	case export.DatasetUsers:
		users, err := h.store.Users.List(ctx)
		return export.UsersTable(users), err
	case export.DatasetCosts:
		projects, err := h.store.Projects.List(ctx, scope)
		if err != nil {
			return export.Table{}, err
		}
		var costs []models.Cost
		for _, p := range projects {
			pc, err := h.store.Costs.List(ctx, p.ID, from, to)
			if err != nil {
				return export.Table{}, err
			}
			costs = append(costs, pc...)
		}
		return export.CostsTable(costs), nil
	}
	return export.Table{}, &unknownDatasetError{dataset}
}
