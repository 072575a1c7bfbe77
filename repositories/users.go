package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"p9e.in/sitelog/models"
)

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, u *models.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(ctx context.Context, u *models.User) error {
	return translate(r.db.WithContext(ctx).Create(u).Error)
}

func (r *GormUserRepository) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *GormUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *GormUserRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Order("name ASC").Find(&users).Error
	return users, translate(err)
}

// Update writes the profile fields of u. The password hash is left alone.
func (r *GormUserRepository) Update(ctx context.Context, u *models.User) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", u.ID).
		Select("name", "email", "phone", "role", "is_active").
		Updates(u)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return r.updateColumn(ctx, id, "password_hash", hash)
}

// SetActive deactivates (or reactivates) an account. Users are never deleted.
func (r *GormUserRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.updateColumn(ctx, id, "is_active", active)
}

func (r *GormUserRepository) updateColumn(ctx context.Context, id uuid.UUID, column string, value interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
