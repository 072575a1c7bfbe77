package routes

import (
	"github.com/gorilla/mux"
	"p9e.in/sitelog/handlers"
	"p9e.in/sitelog/middleware"
	"p9e.in/sitelog/utils"
)

// RegisterProjectRoutes registers projects, access, costs, materials and
// the dashboard.
func RegisterProjectRoutes(r *mux.Router, d Deps, alerts *handlers.AlertService) {
	projectHandler := handlers.NewProjectHandler(d.Store, d.Blobs, alerts)
	financeHandler := handlers.NewFinanceHandler(d.Store, d.Blobs, alerts)
	dashboardHandler := handlers.NewDashboardHandler(d.Store)

	// =====================================================
	// Projects
	// =====================================================
	// geojson is registered before {id} so it is not taken for an id.
	r.Handle("/projects/geojson", middleware.RequirePermission(utils.PermProjectRead,
		projectHandler.ProjectsGeoJSON)).Methods("GET")
	r.Handle("/projects", middleware.RequirePermission(utils.PermProjectRead,
		projectHandler.ListProjects)).Methods("GET")
	r.Handle("/projects", middleware.RequirePermission(utils.PermProjectManage,
		projectHandler.CreateProject)).Methods("POST")
	r.Handle("/projects/{id}", middleware.RequirePermission(utils.PermProjectRead,
		projectHandler.GetProject)).Methods("GET")
	r.Handle("/projects/{id}", middleware.RequirePermission(utils.PermProjectManage,
		projectHandler.UpdateProject)).Methods("PUT")
	r.Handle("/projects/{id}", middleware.RequirePermission(utils.PermProjectManage,
		projectHandler.DeleteProject)).Methods("DELETE")
	r.Handle("/projects/{id}/site", middleware.RequirePermission(utils.PermProjectManage,
		projectHandler.UploadSite)).Methods("POST")

	// Access rows
	r.Handle("/projects/{id}/access", middleware.RequirePermission(utils.PermProjectManage,
		projectHandler.ListAccess)).Methods("GET")
	r.Handle("/projects/{id}/access", middleware.RequirePermission(utils.PermProjectManage,
		projectHandler.GrantAccess)).Methods("POST")
	r.Handle("/projects/{id}/access/{userId}", middleware.RequirePermission(utils.PermProjectManage,
		projectHandler.RevokeAccess)).Methods("DELETE")

	// =====================================================
	// Finance
	// =====================================================
	r.Handle("/projects/{id}/costs", middleware.RequirePermission(utils.PermCostRead,
		financeHandler.ListCosts)).Methods("GET")
	r.Handle("/projects/{id}/costs", middleware.RequirePermission(utils.PermCostWrite,
		financeHandler.CreateCost)).Methods("POST")
	r.Handle("/projects/{id}/finance", middleware.RequirePermission(utils.PermCostRead,
		financeHandler.GetFinanceSummary)).Methods("GET")
	r.Handle("/projects/{id}/materials", middleware.RequirePermission(utils.PermMaterialRead,
		financeHandler.ListMaterials)).Methods("GET")
	r.Handle("/projects/{id}/materials", middleware.RequirePermission(utils.PermMaterialWrite,
		financeHandler.CreateMaterial)).Methods("POST")

	r.Handle("/projects/{id}/dashboard", middleware.RequirePermission(utils.PermReportRead,
		dashboardHandler.GetDashboard)).Methods("GET")
}
