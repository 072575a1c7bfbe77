package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
	"p9e.in/sitelog/models"
	"p9e.in/sitelog/repositories"
	"p9e.in/sitelog/storage"
	"p9e.in/sitelog/utils"
)

// ProjectHandler handles project management operations
type ProjectHandler struct {
	scoper
	projects repositories.ProjectRepository
	users    repositories.UserRepository
	blobs    storage.BlobStore
	alerts   *AlertService
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(store *repositories.Store, blobs storage.BlobStore, alerts *AlertService) *ProjectHandler {
	return &ProjectHandler{
		scoper:   scoper{store.Projects},
		projects: store.Projects,
		users:    store.Users,
		blobs:    blobs,
		alerts:   alerts,
	}
}

// ProjectRequest is the create/update body. Nil fields are left unchanged on update.
type ProjectRequest struct {
	Name          *string      `json:"name"`
	Description   *string      `json:"description"`
	Location      *string      `json:"location"`
	Latitude      *float64     `json:"latitude"`
	Longitude     *float64     `json:"longitude"`
	TotalBudget   *float64     `json:"total_budget"`
	Currency      *string      `json:"currency"`
	StartDate     *models.Date `json:"start_date"`
	EndDate       *models.Date `json:"end_date"`
	Status        *string      `json:"status"`
	ResponsibleID *uuid.UUID   `json:"responsible_id"`
	OwnerID       *uuid.UUID   `json:"owner_id"`
}

var errCoordinatesPair = errors.New("latitude and longitude must be set together")

func (req *ProjectRequest) apply(p *models.Project) error {
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Location != nil {
		p.Location = *req.Location
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return errCoordinatesPair
	}
	if req.Latitude != nil {
		if err := utils.ValidateCoordinate(*req.Latitude, *req.Longitude); err != nil {
			return err
		}
		p.Latitude, p.Longitude = req.Latitude, req.Longitude
	}
	if req.TotalBudget != nil {
		p.TotalBudget = *req.TotalBudget
	}
	if req.Currency != nil {
		p.Currency = strings.ToUpper(strings.TrimSpace(*req.Currency))
	}
	if req.StartDate != nil {
		p.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		p.EndDate = req.EndDate
	}
	if req.Status != nil {
		p.Status = models.ProjectStatus(*req.Status)
	}
	if req.ResponsibleID != nil {
		p.ResponsibleID = req.ResponsibleID
	}
	if req.OwnerID != nil {
		p.OwnerID = req.OwnerID
	}
	return p.Validate()
}

// checkPeople verifies the responsible and owner references.
func (h *ProjectHandler) checkPeople(w http.ResponseWriter, r *http.Request, p *models.Project) bool {
	if p.ResponsibleID != nil {
		if _, err := h.users.Get(r.Context(), *p.ResponsibleID); err != nil {
			http.Error(w, "responsible user not found", http.StatusBadRequest)
			return false
		}
	}
	if p.OwnerID != nil {
		owner, err := h.users.Get(r.Context(), *p.OwnerID)
		if err != nil {
			http.Error(w, "owner user not found", http.StatusBadRequest)
			return false
		}
		if owner.Role != models.RoleOwner {
			http.Error(w, "owner must have the owner role", http.StatusBadRequest)
			return false
		}
	}
	return true
}

// ListProjects returns the projects inside the caller's scope.
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	scope, err := h.scope(r)
	if err != nil {
		writeError(w, err, "project")
		return
	}
	projects, err := h.projects.List(r.Context(), scope)
	if err != nil {
		writeError(w, err, "project")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"projects": projects,
		"count":    len(projects),
	})
}

// GetProject returns one project
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	project, ok := h.projectFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// ProjectsGeoJSON renders located projects as a FeatureCollection of points.
func (h *ProjectHandler) ProjectsGeoJSON(w http.ResponseWriter, r *http.Request) {
	scope, err := h.scope(r)
	if err != nil {
		writeError(w, err, "project")
		return
	}
	projects, err := h.projects.List(r.Context(), scope)
	if err != nil {
		writeError(w, err, "project")
		return
	}

	fc := ProjectFeatures(projects)
	data, err := fc.MarshalJSON()
	if err != nil {
		writeError(w, err, "project")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Write(data)
}

// ProjectFeatures skips projects without coordinates.
func ProjectFeatures(projects []models.Project) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range projects {
		if !p.HasLocation() {
			continue
		}
		f := geojson.NewFeature(orb.Point{*p.Longitude, *p.Latitude})
		f.ID = p.ID.String()
		f.Properties["name"] = p.Name
		f.Properties["status"] = string(p.Status)
		f.Properties["location"] = p.Location
		f.Properties["total_budget"] = p.TotalBudget
		fc.Append(f)
	}
	return fc
}

// CreateProject creates a new project
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	project := &models.Project{Currency: "MZN", Status: models.ProjectInProgress}
	if err := req.apply(project); err != nil {
		projectInputError(w, err)
		return
	}
	if !h.checkPeople(w, r, project) {
		return
	}
	if err := h.projects.Create(r.Context(), project); err != nil {
		writeError(w, err, "project")
		return
	}

	zap.L().Info("project created", zap.String("project_id", project.ID.String()), zap.String("name", project.Name))
	h.alerts.ProjectCreated(r.Context(), project)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Project created successfully",
		"project": project,
	})
}

// UpdateProject updates an existing project
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return
	}
	var req ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	project, err := h.projects.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, "project")
		return
	}
	if err := req.apply(project); err != nil {
		projectInputError(w, err)
		return
	}
	if !h.checkPeople(w, r, project) {
		return
	}
	if err := h.projects.Update(r.Context(), project); err != nil {
		writeError(w, err, "project")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Project updated successfully",
		"project": project,
	})
}

// DeleteProject removes the project with its reports, photos, costs,
// materials, alerts and access rows, then the photo and receipt blobs.
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return
	}
	photos, receipts, err := h.projects.Delete(r.Context(), id)
	if err != nil {
		writeError(w, err, "project")
		return
	}
	removeBlobs(r, h.blobs, photos)
	removeReceipts(r, h.blobs, receipts)

	zap.L().Info("project deleted", zap.String("project_id", id.String()),
		zap.Int("photos", len(photos)), zap.Int("receipts", len(receipts)))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":          "Project deleted successfully",
		"photos_removed":   len(photos),
		"receipts_removed": len(receipts),
	})
}

type accessReq struct {
	UserID uuid.UUID `json:"user_id"`
}

// ListAccess returns the users granted access to the project.
func (h *ProjectHandler) ListAccess(w http.ResponseWriter, r *http.Request) {
	project, ok := h.projectFromPath(w, r)
	if !ok {
		return
	}
	rows, err := h.projects.ListAccess(r.Context(), project.ID)
	if err != nil {
		writeError(w, err, "access")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"access": rows})
}

// GrantAccess links an owner or finance user to the project.
func (h *ProjectHandler) GrantAccess(w http.ResponseWriter, r *http.Request) {
	project, ok := h.projectFromPath(w, r)
	if !ok {
		return
	}
	var req accessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == uuid.Nil {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	user, err := h.users.Get(r.Context(), req.UserID)
	if err != nil {
		writeError(w, err, "user")
		return
	}
	if user.SeesAllProjects() {
		http.Error(w, "role already sees every project", http.StatusBadRequest)
		return
	}
	if err := h.projects.GrantAccess(r.Context(), user.ID, project.ID); err != nil {
		writeError(w, err, "access")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":    "Access granted",
		"user_id":    user.ID,
		"project_id": project.ID,
	})
}

// RevokeAccess removes a user's access row.
func (h *ProjectHandler) RevokeAccess(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return
	}
	userID, ok := pathID(r, "userId")
	if !ok {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	if err := h.projects.RevokeAccess(r.Context(), userID, projectID); err != nil {
		writeError(w, err, "access")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Access revoked"})
}

func projectInputError(w http.ResponseWriter, err error) {
	if errors.Is(err, errCoordinatesPair) || errors.Is(err, utils.ErrInvalidCoordinate) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeError(w, err, "project")
}

// removeBlobs deletes stored photo bytes after their rows are gone. A blob
// that cannot be removed is logged and left behind.
// removeReceipts deletes cost receipts. Receipts carry no backend tag and
// are looked up on the current store.
func removeReceipts(r *http.Request, blobs storage.BlobStore, keys []string) {
	for _, key := range keys {
		if err := blobs.Delete(r.Context(), key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			zap.L().Warn("failed to delete receipt blob", zap.String("key", key), zap.Error(err))
		}
	}
}

func removeBlobs(r *http.Request, blobs storage.BlobStore, photos []models.Photo) {
	for _, p := range photos {
		if p.Backend != blobs.Name() {
			zap.L().Warn("photo stored on another backend, blob kept",
				zap.String("photo_id", p.ID.String()), zap.String("backend", p.Backend))
			continue
		}
		if err := blobs.Delete(r.Context(), p.StorageKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
			zap.L().Warn("failed to delete photo blob", zap.String("key", p.StorageKey), zap.Error(err))
		}
	}
}
