// Package handlers holds the HTTP handlers of the dashboard API. Each
// handler struct owns the repositories and services it needs and is built
// once by the route table.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"p9e.in/sitelog/middleware"
	"p9e.in/sitelog/models"
	"p9e.in/sitelog/repositories"
)

// validationErrors are answered with 400 and their own message.
var validationErrors = []error{
	models.ErrWeakPassword,
	models.ErrInvalidProductivity,
	models.ErrActivitiesRequired,
	models.ErrInvalidReportStatus,
	models.ErrInvalidProjectStatus,
	models.ErrInvalidCostCategory,
	models.ErrInvalidAmount,
	models.ErrInvalidDateRange,
	models.ErrProjectNameRequired,
	models.ErrNegativeBudget,
	models.ErrMaterialNameRequired,
	models.ErrNegativeCrew,
	models.ErrReportDateRequired,
	models.ErrReportProjectRequired,
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

// writeError maps repository and validation errors onto status codes.
// what names the entity in 404/409 messages ("report", "user").
func writeError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		http.Error(w, what+" not found", http.StatusNotFound)
		return
	case errors.Is(err, repositories.ErrConflict):
		http.Error(w, what+" already exists", http.StatusConflict)
		return
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	zap.L().Error("request failed", zap.String("entity", what), zap.Error(err))
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// pathID parses the named mux variable as a UUID.
func pathID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	return id, err == nil
}

// queryUUID returns uuid.Nil when the parameter is absent.
func queryUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(raw)
}

// dateRange reads ?from=&to=. Missing ends are zero dates.
func dateRange(r *http.Request) (from, to models.Date, err error) {
	q := r.URL.Query()
	if s := q.Get("from"); s != "" {
		if from, err = models.ParseDate(s); err != nil {
			return
		}
	}
	if s := q.Get("to"); s != "" {
		if to, err = models.ParseDate(s); err != nil {
			return
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		err = models.ErrInvalidDateRange
	}
	return
}

func queryInt(r *http.Request, name string, fallback int) int {
	if n, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil {
		return n
	}
	return fallback
}

// scoper resolves the signed-in user's project scope.
type scoper struct {
	projects repositories.ProjectRepository
}

func (s scoper) scope(r *http.Request) (*models.ProjectScope, error) {
	u := middleware.GetUser(r)
	if u == nil {
		return &models.ProjectScope{}, nil
	}
	return s.projects.Scope(r.Context(), u)
}

// project loads a project the caller may see. Projects outside the scope
// answer 404 like missing ones; false means the response is already written.
func (s scoper) project(w http.ResponseWriter, r *http.Request, id uuid.UUID) (*models.Project, bool) {
	scope, err := s.scope(r)
	if err != nil {
		writeError(w, err, "project")
		return nil, false
	}
	if !scope.Allows(id) {
		http.Error(w, "project not found", http.StatusNotFound)
		return nil, false
	}
	p, err := s.projects.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, "project")
		return nil, false
	}
	return p, true
}

// projectFromPath is project() for the {id} route variable.
func (s scoper) projectFromPath(w http.ResponseWriter, r *http.Request) (*models.Project, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return nil, false
	}
	return s.project(w, r, id)
}

func currentUserID(r *http.Request) uuid.UUID {
	if u := middleware.GetUser(r); u != nil {
		return u.ID
	}
	return uuid.Nil
}
