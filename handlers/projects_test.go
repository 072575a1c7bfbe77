package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"p9e.in/sitelog/internal/testdb"
	"p9e.in/sitelog/models"
	"p9e.in/sitelog/repositories"
)

func TestCreateProjectRaisesInfoAlert(t *testing.T) {
	env := newEnv(t)
	h := NewProjectHandler(env.store, env.blobs, env.alerts)
	admin := testdb.User(t, env.db, "admin", models.RoleAdmin)
	owner := testdb.User(t, env.db, "owner", models.RoleOwner)

	rec := call(h.CreateProject, http.MethodPost, "/api/v1/projects", jsonBody(t, map[string]interface{}{
		"name":         "Maputo Bridge",
		"location":     "Maputo",
		"latitude":     -25.9692,
		"longitude":    32.5732,
		"total_budget": 250000,
		"owner_id":     owner.ID,
	}), admin, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Project models.Project `json:"project"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, "Maputo Bridge", resp.Project.Name)
	assert.Equal(t, "MZN", resp.Project.Currency)
	assert.Equal(t, models.ProjectInProgress, resp.Project.Status)

	alerts, err := env.store.Alerts.List(context.Background(), repositories.AlertFilter{ProjectID: resp.Project.ID})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertInfo, alerts[0].Type)
	assert.Equal(t, "New project created: Maputo Bridge", alerts[0].Message)

	// The owner now sees the project through owner_id.
	rec = call(h.GetProject, http.MethodGet, "/api/v1/projects/x", nil, owner,
		map[string]string{"id": resp.Project.ID.String()})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateProjectValidation(t *testing.T) {
	env := newEnv(t)
	h := NewProjectHandler(env.store, env.blobs, env.alerts)
	admin := testdb.User(t, env.db, "admin", models.RoleAdmin)
	fiscal := testdb.User(t, env.db, "fiscal", models.RoleFiscal)

	cases := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing name", map[string]interface{}{"total_budget": 10}},
		{"negative budget", map[string]interface{}{"name": "X", "total_budget": -1}},
		{"latitude without longitude", map[string]interface{}{"name": "X", "latitude": 10.0}},
		{"latitude out of range", map[string]interface{}{"name": "X", "latitude": 91.0, "longitude": 0.0}},
		{"owner with wrong role", map[string]interface{}{"name": "X", "owner_id": fiscal.ID}},
		{"unknown status", map[string]interface{}{"name": "X", "status": "paused"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := call(h.CreateProject, http.MethodPost, "/api/v1/projects", jsonBody(t, tc.body), admin, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestProjectFeaturesSkipsUnlocated(t *testing.T) {
	lat, lng := -19.84, 34.84
	located := models.Project{Name: "Beira Road", Latitude: &lat, Longitude: &lng, Status: models.ProjectInProgress}
	unlocated := models.Project{Name: "Nowhere"}

	fc := ProjectFeatures([]models.Project{located, unlocated})
	require.Len(t, fc.Features, 1)
	f := fc.Features[0]
	assert.Equal(t, orb.Point{34.84, -19.84}, f.Geometry)
	assert.Equal(t, "Beira Road", f.Properties["name"])
	assert.Equal(t, "in_progress", f.Properties["status"])
}

func TestProjectsGeoJSONIsScoped(t *testing.T) {
	env := newEnv(t)
	h := NewProjectHandler(env.store, env.blobs, env.alerts)
	owner := testdb.User(t, env.db, "owner", models.RoleOwner)
	visible := testdb.Project(t, env.db, "Visible", 0)
	hidden := testdb.Project(t, env.db, "Hidden", 0)
	lat, lng := -25.9, 32.6
	for _, p := range []*models.Project{visible, hidden} {
		p.Latitude, p.Longitude = &lat, &lng
		require.NoError(t, env.store.Projects.Update(context.Background(), p))
	}
	require.NoError(t, env.store.Projects.GrantAccess(context.Background(), owner.ID, visible.ID))

	rec := call(h.ProjectsGeoJSON, http.MethodGet, "/api/v1/projects/geojson", nil, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))

	fc, err := geojson.UnmarshalFeatureCollection(rec.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, visible.ID.String(), fc.Features[0].ID)
}

func TestGrantAccessRejectsAllSeeingRoles(t *testing.T) {
	env := newEnv(t)
	h := NewProjectHandler(env.store, env.blobs, env.alerts)
	admin := testdb.User(t, env.db, "admin", models.RoleAdmin)
	fiscal := testdb.User(t, env.db, "fiscal", models.RoleFiscal)
	finance := testdb.User(t, env.db, "finance", models.RoleFinance)
	project := testdb.Project(t, env.db, "Bridge", 0)
	vars := map[string]string{"id": project.ID.String()}

	rec := call(h.GrantAccess, http.MethodPost, "/api/v1/projects/x/access",
		jsonBody(t, map[string]interface{}{"user_id": fiscal.ID}), admin, vars)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(h.GrantAccess, http.MethodPost, "/api/v1/projects/x/access",
		jsonBody(t, map[string]interface{}{"user_id": finance.ID}), admin, vars)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(h.GrantAccess, http.MethodPost, "/api/v1/projects/x/access",
		jsonBody(t, map[string]interface{}{"user_id": finance.ID}), admin, vars)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = call(h.RevokeAccess, http.MethodDelete, "/api/v1/projects/x/access/y", nil, admin,
		map[string]string{"id": project.ID.String(), "userId": finance.ID.String()})
	assert.Equal(t, http.StatusOK, rec.Code)
}
