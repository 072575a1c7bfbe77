package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"p9e.in/sitelog/models"
)

type PhotoRepository interface {
	Create(ctx context.Context, p *models.Photo) error
	Get(ctx context.Context, id uuid.UUID) (*models.Photo, error)
	ListByReport(ctx context.Context, reportID uuid.UUID) ([]models.Photo, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Photo, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type GormPhotoRepository struct {
	db *gorm.DB
}

func NewPhotoRepository(db *gorm.DB) *GormPhotoRepository {
	return &GormPhotoRepository{db: db}
}

func (r *GormPhotoRepository) Create(ctx context.Context, p *models.Photo) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *GormPhotoRepository) Get(ctx context.Context, id uuid.UUID) (*models.Photo, error) {
	var p models.Photo
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *GormPhotoRepository) ListByReport(ctx context.Context, reportID uuid.UUID) ([]models.Photo, error) {
	return r.list(ctx, "report_id = ?", reportID)
}

func (r *GormPhotoRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Photo, error) {
	return r.list(ctx, "project_id = ?", projectID)
}

func (r *GormPhotoRepository) list(ctx context.Context, cond string, id uuid.UUID) ([]models.Photo, error) {
	photos := []models.Photo{}
	err := r.db.WithContext(ctx).Where(cond, id).Order("uploaded_at DESC").Find(&photos).Error
	return photos, translate(err)
}

func (r *GormPhotoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Photo{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
