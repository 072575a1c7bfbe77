package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"p9e.in/sitelog/internal/testdb"
	"p9e.in/sitelog/models"
	"p9e.in/sitelog/repositories"
)

func TestCreateAlertPrefixesPriority(t *testing.T) {
	env := newEnv(t)
	h := NewAlertHandler(env.store, env.alerts)
	fiscal := testdb.User(t, env.db, "fiscal", models.RoleFiscal)
	project := testdb.Project(t, env.db, "Bridge", 0)

	rec := call(h.CreateAlert, http.MethodPost, "/api/v1/alerts", jsonBody(t, map[string]interface{}{
		"project_id": project.ID,
		"type":       "warning",
		"priority":   "High",
		"message":    "Scaffolding loose on east face",
	}), fiscal, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	alerts, err := env.store.Alerts.List(context.Background(), repositories.AlertFilter{ProjectID: project.ID})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "[High] Scaffolding loose on east face", alerts[0].Message)
	assert.Equal(t, models.AlertWarning, alerts[0].Type)

	rec = call(h.CreateAlert, http.MethodPost, "/api/v1/alerts", jsonBody(t, map[string]interface{}{
		"project_id": project.ID,
		"type":       "warning",
		"priority":   "Urgent",
		"message":    "x",
	}), fiscal, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAndMarkAlertsRead(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	h := NewAlertHandler(env.store, env.alerts)
	owner := testdb.User(t, env.db, "owner", models.RoleOwner)
	mine := testdb.Project(t, env.db, "Mine", 0)
	other := testdb.Project(t, env.db, "Other", 0)
	require.NoError(t, env.store.Projects.GrantAccess(ctx, owner.ID, mine.ID))

	a := env.alerts.Raise(ctx, mine, models.AlertWarning, "Low productivity")
	require.NotNil(t, a)
	hidden := env.alerts.Raise(ctx, other, models.AlertWarning, "Not for the owner")
	require.NotNil(t, hidden)

	rec := call(h.ListAlerts, http.MethodGet, "/api/v1/alerts?unread=true", nil, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var list struct {
		Alerts []models.Alert `json:"alerts"`
	}
	decode(t, rec, &list)
	require.Len(t, list.Alerts, 1)
	assert.Equal(t, a.ID, list.Alerts[0].ID)

	rec = call(h.MarkRead, http.MethodPost, "/api/v1/alerts/x/read", nil, owner,
		map[string]string{"id": hidden.ID.String()})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(h.MarkRead, http.MethodPost, "/api/v1/alerts/x/read", nil, owner,
		map[string]string{"id": a.ID.String()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(h.ListAlerts, http.MethodGet, "/api/v1/alerts?unread=true", nil, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &list)
	assert.Empty(t, list.Alerts)
}
