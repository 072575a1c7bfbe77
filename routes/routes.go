package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/swaggo/swag"
	"go.uber.org/zap"
	_ "p9e.in/sitelog/docs"
	"p9e.in/sitelog/handlers"
	"p9e.in/sitelog/middleware"
	"p9e.in/sitelog/models"
	"p9e.in/sitelog/notify"
	"p9e.in/sitelog/repositories"
	"p9e.in/sitelog/storage"
	"p9e.in/sitelog/utils"
)

// Deps are the process-wide services the handlers are built from.
type Deps struct {
	Store   *repositories.Store
	Auth    *middleware.Auth
	Blobs   storage.BlobStore
	Fanout  *notify.Fanout
	Version string
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(d Deps) http.Handler {
	r := mux.NewRouter()

	alerts := handlers.NewAlertService(d.Store, d.Fanout)
	authHandler := handlers.NewAuthHandler(d.Store, d.Auth)
	adminHandler := handlers.NewAdminHandler(d.Store, d.Blobs, d.Fanout, d.Version)

	// =====================================================
	// Public Routes (no authentication)
	// =====================================================
	r.HandleFunc("/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/healthz", adminHandler.Health).Methods("GET")
	r.HandleFunc("/swagger/doc.json", serveSwagger).Methods("GET")

	// =====================================================
	// Protected API Routes (require JWT authentication)
	// =====================================================
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(d.Auth.Middleware)

	api.HandleFunc("/logout", authHandler.Logout).Methods("POST")
	api.HandleFunc("/me", authHandler.GetCurrentUser).Methods("GET")
	api.HandleFunc("/me/password", authHandler.ChangeOwnPassword).Methods("POST")
	api.HandleFunc("/menu", authHandler.GetMenu).Methods("GET")

	registerUserRoutes(api, handlers.NewUserHandler(d.Store))
	RegisterProjectRoutes(api, d, alerts)
	RegisterReportRoutes(api, d, alerts)

	alertHandler := handlers.NewAlertHandler(d.Store, alerts)
	api.Handle("/alerts", middleware.RequirePermission(utils.PermAlertRead, alertHandler.ListAlerts)).Methods("GET")
	api.Handle("/alerts", middleware.RequirePermission(utils.PermAlertWrite, alertHandler.CreateAlert)).Methods("POST")
	api.Handle("/alerts/{id}/read", middleware.RequirePermission(utils.PermAlertUpdate, alertHandler.MarkRead)).Methods("POST")

	exportHandler := handlers.NewExportHandler(d.Store)
	api.Handle("/export", middleware.RequirePermission(utils.PermExportRead, exportHandler.Export)).Methods("GET")

	// =====================================================
	// Admin Routes
	// =====================================================
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Handle("/stats", middleware.RequirePermission(utils.PermSystemManage, adminHandler.Stats)).Methods("GET")

	return r
}

func registerUserRoutes(api *mux.Router, h *handlers.UserHandler) {
	adminOnly := []models.Role{models.RoleAdmin}
	api.Handle("/users", middleware.RequireRole(adminOnly, http.HandlerFunc(h.ListUsers))).Methods("GET")
	api.Handle("/users", middleware.RequireRole(adminOnly, http.HandlerFunc(h.CreateUser))).Methods("POST")
	api.Handle("/users/{id}", middleware.RequireRole(adminOnly, http.HandlerFunc(h.UpdateUser))).Methods("PUT")
	api.Handle("/users/{id}/deactivate", middleware.RequireRole(adminOnly, http.HandlerFunc(h.DeactivateUser))).Methods("POST")
	api.Handle("/users/{id}/password", middleware.RequireRole(adminOnly, http.HandlerFunc(h.ChangePassword))).Methods("POST")
}

// serveSwagger returns the registered OpenAPI document.
func serveSwagger(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		zap.L().Error("swagger document unavailable", zap.Error(err))
		http.Error(w, "swagger document unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(doc))
}
