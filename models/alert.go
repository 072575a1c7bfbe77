package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AlertType string

const (
	AlertInfo      AlertType = "info"
	AlertWarning   AlertType = "warning"
	AlertEmergency AlertType = "emergency"
	AlertFinancial AlertType = "financial"
)

type Alert struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	Project   *Project  `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Type      AlertType `gorm:"size:20;not null;index" json:"type"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Read      bool      `gorm:"not null;default:false;index" json:"read"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (a *Alert) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}
