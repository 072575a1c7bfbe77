package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"p9e.in/sitelog/models"
)

type ProjectRepository interface {
	Create(ctx context.Context, p *models.Project) error
	Get(ctx context.Context, id uuid.UUID) (*models.Project, error)
	List(ctx context.Context, scope *models.ProjectScope) ([]models.Project, error)
	Update(ctx context.Context, p *models.Project) error
	Delete(ctx context.Context, id uuid.UUID) (photos []models.Photo, receipts []string, err error)
	Scope(ctx context.Context, u *models.User) (*models.ProjectScope, error)
	GrantAccess(ctx context.Context, userID, projectID uuid.UUID) error
	RevokeAccess(ctx context.Context, userID, projectID uuid.UUID) error
	ListAccess(ctx context.Context, projectID uuid.UUID) ([]models.UserProjectAccess, error)
}

type GormProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

func (r *GormProjectRepository) Create(ctx context.Context, p *models.Project) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error)
}

func (r *GormProjectRepository) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var p models.Project
	err := r.db.WithContext(ctx).Preload("Responsible").Preload("Owner").First(&p, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// List returns the projects inside scope ordered by name. A nil scope lists everything.
func (r *GormProjectRepository) List(ctx context.Context, scope *models.ProjectScope) ([]models.Project, error) {
	projects := []models.Project{}
	q := r.db.WithContext(ctx).Preload("Responsible").Order("name ASC")
	if scope != nil && !scope.All {
		if len(scope.IDs) == 0 {
			return projects, nil
		}
		q = q.Where("id IN ?", scope.IDs)
	}
	err := q.Find(&projects).Error
	return projects, translate(err)
}

func (r *GormProjectRepository) Update(ctx context.Context, p *models.Project) error {
	res := r.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", p.ID).
		Select("name", "description", "location", "latitude", "longitude", "total_budget",
			"currency", "start_date", "end_date", "status", "responsible_id", "owner_id").
		Updates(p)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the project and everything recorded against it. The
// returned photos and cost receipt keys still have blobs in storage that the
// caller must remove.
func (r *GormProjectRepository) Delete(ctx context.Context, id uuid.UUID) ([]models.Photo, []string, error) {
	var photos []models.Photo
	var receipts []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Project
		if err := tx.Select("id").First(&p, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Find(&photos).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Cost{}).Where("project_id = ? AND receipt_key <> ''", id).
			Pluck("receipt_key", &receipts).Error; err != nil {
			return err
		}
		for _, model := range []interface{}{
			&models.Photo{}, &models.DailyReport{}, &models.UserProjectAccess{},
			&models.Cost{}, &models.Material{}, &models.Alert{},
		} {
			if err := tx.Where("project_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Project{}, "id = ?", id).Error
	})
	if err != nil {
		return nil, nil, translate(err)
	}
	return photos, receipts, nil
}

// Scope resolves the projects u may read. Admin and fiscal see every
// project; owner and finance only those granted through access rows, plus
// for owners the projects they own.
func (r *GormProjectRepository) Scope(ctx context.Context, u *models.User) (*models.ProjectScope, error) {
	if u.SeesAllProjects() {
		return &models.ProjectScope{All: true}, nil
	}
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.UserProjectAccess{}).
		Where("user_id = ?", u.ID).Pluck("project_id", &ids).Error
	if err != nil {
		return nil, translate(err)
	}
	if u.Role == models.RoleOwner {
		var owned []uuid.UUID
		err := r.db.WithContext(ctx).Model(&models.Project{}).
			Where("owner_id = ?", u.ID).Pluck("id", &owned).Error
		if err != nil {
			return nil, translate(err)
		}
		ids = append(ids, owned...)
	}

	seen := make(map[uuid.UUID]bool, len(ids))
	scope := &models.ProjectScope{IDs: []uuid.UUID{}}
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			scope.IDs = append(scope.IDs, id)
		}
	}
	return scope, nil
}

func (r *GormProjectRepository) GrantAccess(ctx context.Context, userID, projectID uuid.UUID) error {
	access := models.UserProjectAccess{UserID: userID, ProjectID: projectID}
	return translate(r.db.WithContext(ctx).Create(&access).Error)
}

func (r *GormProjectRepository) RevokeAccess(ctx context.Context, userID, projectID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		Delete(&models.UserProjectAccess{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormProjectRepository) ListAccess(ctx context.Context, projectID uuid.UUID) ([]models.UserProjectAccess, error) {
	rows := []models.UserProjectAccess{}
	err := r.db.WithContext(ctx).Preload("User").
		Where("project_id = ?", projectID).Order("created_at ASC").Find(&rows).Error
	return rows, translate(err)
}
