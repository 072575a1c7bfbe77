package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"p9e.in/sitelog/models"
)

// AlertFilter narrows alert listings. Zero values mean "no constraint".
type AlertFilter struct {
	ProjectID  uuid.UUID
	UnreadOnly bool
	Type       models.AlertType
	Scope      *models.ProjectScope
	Limit      int
}

type AlertRepository interface {
	Create(ctx context.Context, a *models.Alert) error
	Get(ctx context.Context, id uuid.UUID) (*models.Alert, error)
	List(ctx context.Context, f AlertFilter) ([]models.Alert, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	CountUnread(ctx context.Context, projectID uuid.UUID) (unread, emergencies int64, err error)
}

type GormAlertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) *GormAlertRepository {
	return &GormAlertRepository{db: db}
}

func (r *GormAlertRepository) Create(ctx context.Context, a *models.Alert) error {
	return translate(r.db.WithContext(ctx).Create(a).Error)
}

func (r *GormAlertRepository) Get(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	var a models.Alert
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *GormAlertRepository) List(ctx context.Context, f AlertFilter) ([]models.Alert, error) {
	alerts := []models.Alert{}
	q := r.db.WithContext(ctx).Preload("Project")
	if f.Scope != nil && !f.Scope.All {
		if len(f.Scope.IDs) == 0 {
			return alerts, nil
		}
		q = q.Where("project_id IN ?", f.Scope.IDs)
	}
	if f.ProjectID != uuid.Nil {
		q = q.Where("project_id = ?", f.ProjectID)
	}
	if f.UnreadOnly {
		q = q.Where("read = ?", false)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	err := q.Order("created_at DESC").Find(&alerts).Error
	return alerts, translate(err)
}

func (r *GormAlertRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&models.Alert{}).Where("id = ?", id).Update("read", true)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUnread returns the unread alerts of a project and how many of them
// are emergencies.
func (r *GormAlertRepository) CountUnread(ctx context.Context, projectID uuid.UUID) (int64, int64, error) {
	var counts struct {
		Unread      int64
		Emergencies int64
	}
	err := r.db.WithContext(ctx).Model(&models.Alert{}).
		Select("COUNT(*) AS unread, COUNT(CASE WHEN type = ? THEN 1 END) AS emergencies", models.AlertEmergency).
		Where("project_id = ? AND read = ?", projectID, false).
		Scan(&counts).Error
	if err != nil {
		return 0, 0, translate(err)
	}
	return counts.Unread, counts.Emergencies, nil
}
