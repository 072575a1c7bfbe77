package models

import "errors"

var (
	ErrWeakPassword          = errors.New("password must be at least 6 characters")
	ErrInvalidProductivity   = errors.New("productivity must be between 0 and 100")
	ErrActivitiesRequired    = errors.New("activities description is required")
	ErrInvalidReportStatus   = errors.New("invalid report status")
	ErrInvalidProjectStatus  = errors.New("invalid project status")
	ErrInvalidCostCategory   = errors.New("invalid cost category")
	ErrInvalidAmount         = errors.New("amount must be greater than zero")
	ErrInvalidDateRange      = errors.New("end date is before start date")
	ErrProjectNameRequired   = errors.New("project name is required")
	ErrNegativeBudget        = errors.New("budget cannot be negative")
	ErrMaterialNameRequired  = errors.New("material name is required")
	ErrNegativeCrew          = errors.New("crew counts cannot be negative")
	ErrReportDateRequired    = errors.New("report date is required")
	ErrReportProjectRequired = errors.New("report project is required")
)
