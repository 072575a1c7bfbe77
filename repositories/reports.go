package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"p9e.in/sitelog/models"
)

type ReportRepository interface {
	Upsert(ctx context.Context, r *models.DailyReport) (created bool, err error)
	Get(ctx context.Context, id uuid.UUID) (*models.DailyReport, error)
	List(ctx context.Context, f models.ReportFilter) ([]models.DailyReport, error)
	Delete(ctx context.Context, id uuid.UUID) ([]models.Photo, error)
}

type GormReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *GormReportRepository {
	return &GormReportRepository{db: db}
}

// reportContent lists the columns an upsert overwrites on an existing day.
var reportContent = []string{
	"author_id", "weather", "activities", "activity_items", "crew", "equipment",
	"incidents", "accidents", "next_day_plan", "observations", "status", "productivity",
}

// Upsert stores r under its (date, project) key. An existing report for
// that day is overwritten in place and keeps its id; r.ID is set either way.
func (r *GormReportRepository) Upsert(ctx context.Context, report *models.DailyReport) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Find, not First: a missing row is the insert path and must not log.
		var existing models.DailyReport
		res := tx.Where("date = ? AND project_id = ?", report.Date, report.ProjectID).
			Limit(1).Find(&existing)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			created = true
			report.ID = uuid.Nil
			return tx.Omit(clause.Associations).Create(report).Error
		}

		report.ID = existing.ID
		report.CreatedAt = existing.CreatedAt
		return tx.Model(&existing).Select(reportContent).Updates(report).Error
	})
	if err != nil {
		return false, translate(err)
	}
	return created, nil
}

func (r *GormReportRepository) Get(ctx context.Context, id uuid.UUID) (*models.DailyReport, error) {
	var report models.DailyReport
	err := r.db.WithContext(ctx).Preload("Project").Preload("Author").First(&report, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &report, nil
}

// List returns matching reports, most recent day first.
func (r *GormReportRepository) List(ctx context.Context, f models.ReportFilter) ([]models.DailyReport, error) {
	reports := []models.DailyReport{}
	q := r.db.WithContext(ctx).Preload("Project").Preload("Author")
	if f.Scope != nil && !f.Scope.All {
		if len(f.Scope.IDs) == 0 {
			return reports, nil
		}
		q = q.Where("project_id IN ?", f.Scope.IDs)
	}
	if f.ProjectID != uuid.Nil {
		q = q.Where("project_id = ?", f.ProjectID)
	}
	if f.AuthorID != uuid.Nil {
		q = q.Where("author_id = ?", f.AuthorID)
	}
	if !f.From.IsZero() {
		q = q.Where("date >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("date <= ?", f.To)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	err := q.Order("date DESC").Order("created_at DESC").Find(&reports).Error
	return reports, translate(err)
}

// Delete removes the report with its photo rows and returns those photos
// so their blobs can be dropped from storage.
func (r *GormReportRepository) Delete(ctx context.Context, id uuid.UUID) ([]models.Photo, error) {
	var photos []models.Photo
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("report_id = ?", id).Find(&photos).Error; err != nil {
			return err
		}
		if err := tx.Where("report_id = ?", id).Delete(&models.Photo{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.DailyReport{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return photos, nil
}
