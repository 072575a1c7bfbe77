package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"p9e.in/sitelog/models"
)

type CostRepository interface {
	Create(ctx context.Context, c *models.Cost) error
	List(ctx context.Context, projectID uuid.UUID, from, to models.Date) ([]models.Cost, error)
	TotalsByCategory(ctx context.Context, projectID uuid.UUID, from, to models.Date) (map[models.CostCategory]float64, error)
	Total(ctx context.Context, projectID uuid.UUID) (float64, error)
}

type GormCostRepository struct {
	db *gorm.DB
}

func NewCostRepository(db *gorm.DB) *GormCostRepository {
	return &GormCostRepository{db: db}
}

func (r *GormCostRepository) Create(ctx context.Context, c *models.Cost) error {
	return translate(r.db.WithContext(ctx).Create(c).Error)
}

func (r *GormCostRepository) scoped(ctx context.Context, projectID uuid.UUID, from, to models.Date) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Cost{}).Where("project_id = ?", projectID)
	if !from.IsZero() {
		q = q.Where("date >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("date <= ?", to)
	}
	return q
}

// List returns the project's costs in [from, to], most recent first.
// Zero dates leave that end of the range open.
func (r *GormCostRepository) List(ctx context.Context, projectID uuid.UUID, from, to models.Date) ([]models.Cost, error) {
	costs := []models.Cost{}
	err := r.scoped(ctx, projectID, from, to).Order("date DESC").Order("created_at DESC").Find(&costs).Error
	return costs, translate(err)
}

func (r *GormCostRepository) TotalsByCategory(ctx context.Context, projectID uuid.UUID, from, to models.Date) (map[models.CostCategory]float64, error) {
	var rows []struct {
		Category models.CostCategory
		Total    float64
	}
	err := r.scoped(ctx, projectID, from, to).
		Select("category, COALESCE(SUM(amount), 0) AS total").
		Group("category").Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	totals := make(map[models.CostCategory]float64, len(rows))
	for _, row := range rows {
		totals[row.Category] = row.Total
	}
	return totals, nil
}

// Total is everything ever spent on the project, used for budget usage.
func (r *GormCostRepository) Total(ctx context.Context, projectID uuid.UUID) (float64, error) {
	var total float64
	err := r.scoped(ctx, projectID, models.Date{}, models.Date{}).
		Select("COALESCE(SUM(amount), 0)").Scan(&total).Error
	return total, translate(err)
}
