package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"p9e.in/sitelog/models"
)

type MaterialRepository interface {
	Create(ctx context.Context, m *models.Material) error
	List(ctx context.Context, projectID uuid.UUID) ([]models.Material, error)
}

type GormMaterialRepository struct {
	db *gorm.DB
}

func NewMaterialRepository(db *gorm.DB) *GormMaterialRepository {
	return &GormMaterialRepository{db: db}
}

func (r *GormMaterialRepository) Create(ctx context.Context, m *models.Material) error {
	return translate(r.db.WithContext(ctx).Create(m).Error)
}

func (r *GormMaterialRepository) List(ctx context.Context, projectID uuid.UUID) ([]models.Material, error) {
	materials := []models.Material{}
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).
		Order("entry_date DESC").Find(&materials).Error
	return materials, translate(err)
}
