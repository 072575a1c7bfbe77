package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectPaused     ProjectStatus = "paused"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectCancelled  ProjectStatus = "cancelled"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectInProgress, ProjectPaused, ProjectCompleted, ProjectCancelled:
		return true
	}
	return false
}

// Project is a construction site with a budget and a reporting team.
type Project struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Location    string    `gorm:"size:255" json:"location,omitempty"`

	// Site coordinates, optional. Used for the projects map.
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	// Budget
	TotalBudget float64 `gorm:"type:decimal(15,2);default:0" json:"total_budget"`
	Currency    string  `gorm:"size:10;default:'MZN'" json:"currency"`

	// Timeline
	StartDate *Date `json:"start_date,omitempty"`
	EndDate   *Date `json:"end_date,omitempty"`

	Status ProjectStatus `gorm:"size:30;not null;default:'in_progress';index" json:"status"`

	ResponsibleID *uuid.UUID `gorm:"type:uuid;index" json:"responsible_id,omitempty"`
	Responsible   *User      `gorm:"foreignKey:ResponsibleID" json:"responsible,omitempty"`
	OwnerID       *uuid.UUID `gorm:"type:uuid;index" json:"owner_id,omitempty"`
	Owner         *User      `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Project
func (Project) TableName() string {
	return "projects"
}

func (p *Project) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = ProjectInProgress
	}
	return
}

// Validate checks the fields an admin form can get wrong.
func (p *Project) Validate() error {
	if p.Name == "" {
		return ErrProjectNameRequired
	}
	if p.TotalBudget < 0 {
		return ErrNegativeBudget
	}
	if p.Status != "" && !p.Status.Valid() {
		return ErrInvalidProjectStatus
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return ErrInvalidDateRange
	}
	return nil
}

// HasLocation reports whether both coordinates are set.
func (p *Project) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}
