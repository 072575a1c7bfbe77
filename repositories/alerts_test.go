package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"p9e.in/sitelog/internal/testdb"
	"p9e.in/sitelog/models"
)

func TestAlertUnreadCounts(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	repo := NewAlertRepository(db)
	project := testdb.Project(t, db, "A", 0)
	other := testdb.Project(t, db, "B", 0)

	alerts := []*models.Alert{
		{ProjectID: project.ID, Type: models.AlertEmergency, Message: "accident"},
		{ProjectID: project.ID, Type: models.AlertEmergency, Message: "second accident"},
		{ProjectID: project.ID, Type: models.AlertWarning, Message: "low productivity"},
		{ProjectID: other.ID, Type: models.AlertEmergency, Message: "elsewhere"},
	}
	for _, a := range alerts {
		require.NoError(t, repo.Create(ctx, a))
	}
	require.NoError(t, repo.MarkRead(ctx, alerts[1].ID))

	unread, emergencies, err := repo.CountUnread(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)
	assert.Equal(t, int64(1), emergencies)

	list, err := repo.List(ctx, AlertFilter{ProjectID: project.ID, UnreadOnly: true})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	scoped, err := repo.List(ctx, AlertFilter{Scope: &models.ProjectScope{IDs: nil}})
	require.NoError(t, err)
	assert.Empty(t, scoped)

	emergencyOnly, err := repo.List(ctx, AlertFilter{Type: models.AlertEmergency})
	require.NoError(t, err)
	assert.Len(t, emergencyOnly, 3)
}
