package repositories

import (
	"bytes"
	"context"
	"log"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"p9e.in/sitelog/internal/testdb"
	"p9e.in/sitelog/models"
)

func TestReportUpsertUpdatesSameDay(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	repo := NewReportRepository(db)
	fiscal := testdb.User(t, db, "fiscal", models.RoleFiscal)
	admin := testdb.User(t, db, "admin", models.RoleAdmin)
	project := testdb.Project(t, db, "Bridge", 1000)

	first := &models.DailyReport{
		Date:       testdb.Date(t, "2025-03-10"),
		ProjectID:  project.ID,
		AuthorID:   fiscal.ID,
		Activities: "Excavation",
		Weather:    "Sunny",
		Status:     models.ReportInProgress,
	}
	require.NoError(t, first.Validate())
	created, err := repo.Upsert(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)

	second := &models.DailyReport{
		Date:       testdb.Date(t, "2025-03-10"),
		ProjectID:  project.ID,
		AuthorID:   admin.ID,
		Activities: "Excavation and formwork",
		Weather:    "Rain",
		Status:     models.ReportCompleted,
		ActivityItems: []models.Activity{{
			Name:          "Formwork",
			SubActivities: []models.SubActivity{{Name: "a", Done: true}, {Name: "b", Done: false}},
		}},
	}
	require.NoError(t, second.Validate())
	created, err = repo.Upsert(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&models.DailyReport{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	got, err := repo.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Excavation and formwork", got.Activities)
	assert.Equal(t, "Rain", got.Weather)
	assert.Equal(t, admin.ID, got.AuthorID)
	assert.Equal(t, models.ReportCompleted, got.Status)
	assert.Equal(t, 50.0, got.Productivity)
	assert.Equal(t, models.NoAccident, got.Accidents)
	require.Len(t, got.ActivityItems, 1)
	assert.Equal(t, "Formwork", got.ActivityItems[0].Name)
	assert.Equal(t, "2025-03-10", got.Date.String())
}

func TestReportUpsertDifferentDaysInsert(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	repo := NewReportRepository(db)
	fiscal := testdb.User(t, db, "fiscal", models.RoleFiscal)
	a := testdb.Project(t, db, "A", 0)
	b := testdb.Project(t, db, "B", 0)

	for _, tc := range []struct {
		date    string
		project *models.Project
	}{
		{"2025-03-10", a},
		{"2025-03-11", a},
		{"2025-03-10", b},
	} {
		r := &models.DailyReport{Date: testdb.Date(t, tc.date), ProjectID: tc.project.ID, AuthorID: fiscal.ID, Activities: "work"}
		require.NoError(t, r.Validate())
		created, err := repo.Upsert(ctx, r)
		require.NoError(t, err)
		assert.True(t, created, tc.date)
	}

	all, err := repo.List(ctx, models.ReportFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestReportListFiltersAndOrder(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	repo := NewReportRepository(db)
	fiscal := testdb.User(t, db, "fiscal", models.RoleFiscal)
	a := testdb.Project(t, db, "A", 0)
	b := testdb.Project(t, db, "B", 0)

	for _, d := range []string{"2025-03-01", "2025-03-15", "2025-03-08", "2025-04-02"} {
		r := &models.DailyReport{Date: testdb.Date(t, d), ProjectID: a.ID, AuthorID: fiscal.ID, Activities: "work " + d}
		_, err := repo.Upsert(ctx, r)
		require.NoError(t, err)
	}
	other := &models.DailyReport{Date: testdb.Date(t, "2025-03-05"), ProjectID: b.ID, AuthorID: fiscal.ID, Activities: "other"}
	_, err := repo.Upsert(ctx, other)
	require.NoError(t, err)

	got, err := repo.List(ctx, models.ReportFilter{
		ProjectID: a.ID,
		From:      testdb.Date(t, "2025-03-01"),
		To:        testdb.Date(t, "2025-03-31"),
	})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "2025-03-15", got[0].Date.String())
	assert.Equal(t, "2025-03-08", got[1].Date.String())
	assert.Equal(t, "2025-03-01", got[2].Date.String())
	require.NotNil(t, got[0].Project)
	assert.Equal(t, "A", got[0].Project.Name)

	scoped, err := repo.List(ctx, models.ReportFilter{Scope: &models.ProjectScope{IDs: []uuid.UUID{b.ID}}})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "other", scoped[0].Activities)

	none, err := repo.List(ctx, models.ReportFilter{Scope: &models.ProjectScope{}})
	require.NoError(t, err)
	assert.Empty(t, none)

	limited, err := repo.List(ctx, models.ReportFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
	assert.Equal(t, "2025-04-02", limited[0].Date.String())
}

func TestReportDeleteRemovesPhotos(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	store := NewStore(db)
	fiscal := testdb.User(t, db, "fiscal", models.RoleFiscal)
	project := testdb.Project(t, db, "A", 0)

	r := &models.DailyReport{Date: testdb.Date(t, "2025-03-10"), ProjectID: project.ID, AuthorID: fiscal.ID, Activities: "work"}
	_, err := store.Reports.Upsert(ctx, r)
	require.NoError(t, err)
	photo := &models.Photo{ReportID: r.ID, ProjectID: project.ID, Backend: "local", StorageKey: "a.jpg"}
	require.NoError(t, store.Photos.Create(ctx, photo))

	removed, err := store.Reports.Delete(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, "a.jpg", removed[0].StorageKey)

	_, err = store.Photos.Get(ctx, photo.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Reports.Get(ctx, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Reports.Delete(ctx, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReportUpsertInsertLogsNoError(t *testing.T) {
	db := testdb.Open(t)
	fiscal := testdb.User(t, db, "fiscal", models.RoleFiscal)
	project := testdb.Project(t, db, "Bridge", 1000)

	var buf bytes.Buffer
	quiet := db.Session(&gorm.Session{Logger: logger.New(log.New(&buf, "", 0), logger.Config{
		LogLevel: logger.Warn,
		Colorful: false,
	})})
	repo := NewReportRepository(quiet)

	r := &models.DailyReport{Date: testdb.Date(t, "2025-03-10"), ProjectID: project.ID, AuthorID: fiscal.ID, Activities: "Excavation"}
	require.NoError(t, r.Validate())
	created, err := repo.Upsert(context.Background(), r)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotContains(t, buf.String(), "record not found")
}
