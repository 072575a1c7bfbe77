package routes

import (
	"github.com/gorilla/mux"
	"p9e.in/sitelog/handlers"
	"p9e.in/sitelog/middleware"
	"p9e.in/sitelog/utils"
)

// RegisterReportRoutes registers daily reports, their PDFs, the monthly
// summary and photos.
func RegisterReportRoutes(r *mux.Router, d Deps, alerts *handlers.AlertService) {
	reportHandler := handlers.NewReportHandler(d.Store, d.Blobs, alerts)
	photoHandler := handlers.NewPhotoHandler(d.Store, d.Blobs)

	r.Handle("/reports", middleware.RequirePermission(utils.PermReportRead,
		reportHandler.ListReports)).Methods("GET")
	r.Handle("/reports", middleware.RequirePermission(utils.PermReportWrite,
		reportHandler.SaveReport)).Methods("POST")
	r.Handle("/reports/{id}", middleware.RequirePermission(utils.PermReportRead,
		reportHandler.GetReport)).Methods("GET")
	r.Handle("/reports/{id}", middleware.RequirePermission(utils.PermReportWrite,
		reportHandler.DeleteReport)).Methods("DELETE")
	r.Handle("/reports/{id}/pdf", middleware.RequirePermission(utils.PermReportRead,
		reportHandler.ReportPDF)).Methods("GET")
	r.Handle("/reports/{id}/share", middleware.RequirePermission(utils.PermAlertWrite,
		reportHandler.ShareReport)).Methods("POST")

	r.Handle("/projects/{id}/monthly", middleware.RequirePermission(utils.PermReportRead,
		reportHandler.MonthlySummary)).Methods("GET")
	r.Handle("/projects/{id}/monthly/pdf", middleware.RequirePermission(utils.PermReportRead,
		reportHandler.MonthlyPDF)).Methods("GET")

	// Photos
	r.Handle("/reports/{id}/photos", middleware.RequirePermission(utils.PermPhotoWrite,
		photoHandler.UploadPhotos)).Methods("POST")
	r.Handle("/reports/{id}/photos", middleware.RequirePermission(utils.PermPhotoRead,
		photoHandler.ListReportPhotos)).Methods("GET")
	r.Handle("/projects/{id}/photos", middleware.RequirePermission(utils.PermPhotoRead,
		photoHandler.ListProjectPhotos)).Methods("GET")
	r.Handle("/photos/{id}/content", middleware.RequirePermission(utils.PermPhotoRead,
		photoHandler.PhotoContent)).Methods("GET")
	r.Handle("/photos/{id}", middleware.RequirePermission(utils.PermPhotoWrite,
		photoHandler.DeletePhoto)).Methods("DELETE")
}
