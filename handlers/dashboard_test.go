package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"p9e.in/sitelog/internal/testdb"
	"p9e.in/sitelog/models"
	"p9e.in/sitelog/utils"
)

func TestBuildDashboard(t *testing.T) {
	project := &models.Project{Name: "Bridge", TotalBudget: 5000}
	reports := []models.DailyReport{
		{Date: testdb.Date(t, "2025-03-03"), Status: models.ReportCompleted, Productivity: 90},
		{Date: testdb.Date(t, "2025-03-02"), Status: models.ReportInProgress, Productivity: 70},
		{Date: testdb.Date(t, "2025-03-01"), Status: models.ReportDelayed, Productivity: 50},
	}
	from, to := testdb.Date(t, "2025-02-01"), testdb.Date(t, "2025-03-03")

	d := BuildDashboard(project, reports, from, to)

	assert.Equal(t, 3, d.DaysWorked)
	assert.Equal(t, 1, d.CompletedDays)
	assert.Equal(t, 70.0, d.AverageProductivity)
	assert.Equal(t, utils.RatingAverage, d.Rating)
	assert.Equal(t, map[models.ReportStatus]int{
		models.ReportCompleted:  1,
		models.ReportInProgress: 1,
		models.ReportDelayed:    1,
	}, d.StatusDistribution)
	assert.Equal(t, []utils.TimeSeriesPoint{
		{Date: "2025-03-01", Value: 50},
		{Date: "2025-03-02", Value: 70},
		{Date: "2025-03-03", Value: 90},
	}, d.Productivity)
	require.Len(t, d.Latest, 3)
	assert.Equal(t, "2025-03-03", d.Latest[0].Date.String())
}

func TestBuildDashboardKeepsFiveLatest(t *testing.T) {
	var reports []models.DailyReport
	for _, day := range []string{"2025-03-07", "2025-03-06", "2025-03-05", "2025-03-04", "2025-03-03", "2025-03-02", "2025-03-01"} {
		reports = append(reports, models.DailyReport{Date: testdb.Date(t, day), Status: models.ReportCompleted, Productivity: 85})
	}
	d := BuildDashboard(&models.Project{Name: "Road"}, reports, models.Date{}, models.Date{})

	require.Len(t, d.Latest, 5)
	assert.Equal(t, "2025-03-07", d.Latest[0].Date.String())
	assert.Equal(t, "2025-03-03", d.Latest[4].Date.String())
	assert.Equal(t, utils.RatingGood, d.Rating)
	assert.Equal(t, 7, d.CompletedDays)
}

func TestBuildDashboardWithoutReports(t *testing.T) {
	d := BuildDashboard(&models.Project{Name: "Idle"}, nil, models.Date{}, models.Date{})
	assert.Equal(t, 0, d.DaysWorked)
	assert.Equal(t, 0.0, d.AverageProductivity)
	assert.Equal(t, utils.RatingLow, d.Rating)
	assert.NotNil(t, d.Productivity)
	assert.NotNil(t, d.Latest)
}

func TestGetDashboardDefaultsToLastThirtyDays(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	h := NewDashboardHandler(env.store)
	h.now = fixedClock("2025-03-31")
	fiscal := testdb.User(t, env.db, "fiscal", models.RoleFiscal)
	project := testdb.Project(t, env.db, "Bridge", 0)

	for _, day := range []string{"2025-02-15", "2025-03-05", "2025-03-30"} {
		r := &models.DailyReport{
			Date:       testdb.Date(t, day),
			ProjectID:  project.ID,
			AuthorID:   fiscal.ID,
			Activities: "Work",
			Status:     models.ReportCompleted,
		}
		require.NoError(t, r.Validate())
		_, err := env.store.Reports.Upsert(ctx, r)
		require.NoError(t, err)
	}
	env.alerts.Raise(ctx, project, models.AlertEmergency, "Accident")
	env.alerts.Raise(ctx, project, models.AlertInfo, "FYI")

	rec := call(h.GetDashboard, http.MethodGet, "/api/v1/projects/x/dashboard", nil, fiscal,
		map[string]string{"id": project.ID.String()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var d Dashboard
	decode(t, rec, &d)
	assert.Equal(t, "2025-03-01", d.From.String())
	assert.Equal(t, "2025-03-31", d.To.String())
	assert.Equal(t, 2, d.DaysWorked)
	assert.Equal(t, int64(2), d.UnreadAlerts)
	assert.Equal(t, int64(1), d.EmergencyAlerts)
}
