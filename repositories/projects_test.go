package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"p9e.in/sitelog/internal/testdb"
	"p9e.in/sitelog/models"
)

func TestProjectScopeByRole(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	repo := NewProjectRepository(db)

	admin := testdb.User(t, db, "admin", models.RoleAdmin)
	fiscal := testdb.User(t, db, "fiscal", models.RoleFiscal)
	owner := testdb.User(t, db, "owner", models.RoleOwner)
	finance := testdb.User(t, db, "finance", models.RoleFinance)

	granted := testdb.Project(t, db, "Granted", 0)
	owned := &models.Project{Name: "Owned", OwnerID: &owner.ID}
	require.NoError(t, repo.Create(ctx, owned))
	hidden := testdb.Project(t, db, "Hidden", 0)

	require.NoError(t, repo.GrantAccess(ctx, owner.ID, granted.ID))
	require.NoError(t, repo.GrantAccess(ctx, finance.ID, granted.ID))

	tests := []struct {
		name    string
		user    *models.User
		visible []string
	}{
		{"admin sees all", admin, []string{"Granted", "Hidden", "Owned"}},
		{"fiscal sees all", fiscal, []string{"Granted", "Hidden", "Owned"}},
		{"owner sees granted and owned", owner, []string{"Granted", "Owned"}},
		{"finance sees granted only", finance, []string{"Granted"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope, err := repo.Scope(ctx, tt.user)
			require.NoError(t, err)
			projects, err := repo.List(ctx, scope)
			require.NoError(t, err)
			var names []string
			for _, p := range projects {
				names = append(names, p.Name)
			}
			assert.Equal(t, tt.visible, names)
		})
	}

	scope, err := repo.Scope(ctx, finance)
	require.NoError(t, err)
	assert.False(t, scope.Allows(hidden.ID))
	assert.True(t, scope.Allows(granted.ID))
}

func TestProjectAccessRows(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	repo := NewProjectRepository(db)
	owner := testdb.User(t, db, "owner", models.RoleOwner)
	project := testdb.Project(t, db, "A", 0)

	require.NoError(t, repo.GrantAccess(ctx, owner.ID, project.ID))
	assert.ErrorIs(t, repo.GrantAccess(ctx, owner.ID, project.ID), ErrConflict)

	rows, err := repo.ListAccess(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].User)
	assert.Equal(t, "owner", rows[0].User.Username)

	require.NoError(t, repo.RevokeAccess(ctx, owner.ID, project.ID))
	assert.ErrorIs(t, repo.RevokeAccess(ctx, owner.ID, project.ID), ErrNotFound)

	scope, err := repo.Scope(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, scope.IDs)
}

func TestProjectDeleteCascades(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	store := NewStore(db)
	fiscal := testdb.User(t, db, "fiscal", models.RoleFiscal)
	owner := testdb.User(t, db, "owner", models.RoleOwner)
	project := testdb.Project(t, db, "Doomed", 5000)
	keep := testdb.Project(t, db, "Kept", 0)

	for _, p := range []*models.Project{project, keep} {
		r := &models.DailyReport{Date: testdb.Date(t, "2025-03-10"), ProjectID: p.ID, AuthorID: fiscal.ID, Activities: "work"}
		_, err := store.Reports.Upsert(ctx, r)
		require.NoError(t, err)
		require.NoError(t, store.Photos.Create(ctx, &models.Photo{ReportID: r.ID, ProjectID: p.ID, Backend: "local", StorageKey: p.Name + ".jpg"}))
	}
	require.NoError(t, store.Projects.GrantAccess(ctx, owner.ID, project.ID))
	require.NoError(t, store.Costs.Create(ctx, &models.Cost{ProjectID: project.ID, Category: models.CostLabor, Description: "crew", Amount: 10, Date: testdb.Date(t, "2025-03-10")}))
	require.NoError(t, store.Costs.Create(ctx, &models.Cost{ProjectID: project.ID, Category: models.CostMaterials, Description: "cement", Amount: 20, Date: testdb.Date(t, "2025-03-10"), ReceiptKey: "receipts/2025/03/cement.pdf"}))
	require.NoError(t, store.Costs.Create(ctx, &models.Cost{ProjectID: keep.ID, Category: models.CostMaterials, Description: "sand", Amount: 5, Date: testdb.Date(t, "2025-03-10"), ReceiptKey: "receipts/2025/03/sand.pdf"}))
	require.NoError(t, store.Materials.Create(ctx, &models.Material{ProjectID: project.ID, Name: "Cement", Quantity: 1}))
	require.NoError(t, store.Alerts.Create(ctx, &models.Alert{ProjectID: project.ID, Type: models.AlertInfo, Message: "hi"}))

	photos, receipts, err := store.Projects.Delete(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, photos, 1)
	assert.Equal(t, "Doomed.jpg", photos[0].StorageKey)
	assert.Equal(t, []string{"receipts/2025/03/cement.pdf"}, receipts)

	counts, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Projects)
	assert.Equal(t, int64(1), counts.Reports)
	assert.Equal(t, int64(1), counts.Photos)
	assert.Equal(t, int64(1), counts.Costs)
	assert.Equal(t, int64(0), counts.Materials)
	assert.Equal(t, int64(0), counts.Alerts)

	var access int64
	require.NoError(t, db.Model(&models.UserProjectAccess{}).Count(&access).Error)
	assert.Equal(t, int64(0), access)

	_, _, err = store.Projects.Delete(ctx, project.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = store.Projects.Delete(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProjectUpdate(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	repo := NewProjectRepository(db)
	p := testdb.Project(t, db, "Old", 100)

	p.Name = "New"
	p.TotalBudget = 0
	p.Status = models.ProjectPaused
	require.NoError(t, repo.Update(ctx, p))

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)
	assert.Equal(t, 0.0, got.TotalBudget)
	assert.Equal(t, models.ProjectPaused, got.Status)

	assert.ErrorIs(t, repo.Update(ctx, &models.Project{ID: uuid.New(), Name: "x"}), ErrNotFound)
}
