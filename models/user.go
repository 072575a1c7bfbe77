// models/user.go
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Role decides which menus a user sees and which projects are in scope.
type Role string

const (
	RoleFiscal  Role = "fiscal"
	RoleOwner   Role = "owner"
	RoleFinance Role = "finance"
	RoleAdmin   Role = "admin"
)

var Roles = []Role{RoleFiscal, RoleOwner, RoleFinance, RoleAdmin}

func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// ParseRole normalises user input ("Admin", " fiscal ") into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Phone        string    `gorm:"size:20" json:"phone,omitempty"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         Role      `gorm:"size:20;not null;index" json:"role"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}

// SetPassword stores a bcrypt hash of plain.
func (u *User) SetPassword(plain string) error {
	if len(plain) < 6 {
		return ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}

// SeesAllProjects reports whether the role is exempt from per-project access rows.
func (u *User) SeesAllProjects() bool {
	return u.Role == RoleAdmin || u.Role == RoleFiscal
}

// FirstName is used for greetings in the menu payload.
func (u *User) FirstName() string {
	if f := strings.Fields(u.Name); len(f) > 0 {
		return f[0]
	}
	return u.Username
}

// UserProjectAccess grants an owner or finance user visibility into a project.
type UserProjectAccess struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_access_user_project" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_access_user_project;index" json:"project_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (UserProjectAccess) TableName() string {
	return "user_project_access"
}

func (a *UserProjectAccess) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}
