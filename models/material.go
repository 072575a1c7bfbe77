package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Material is a delivery of construction material to a site.
type Material struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Quantity  float64   `gorm:"type:decimal(15,3)" json:"quantity"`
	Unit      string    `gorm:"size:30" json:"unit"`
	UnitCost  float64   `gorm:"type:decimal(15,2)" json:"unit_cost"`
	EntryDate Date      `json:"entry_date"`
	Supplier  string    `gorm:"size:255" json:"supplier,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (m *Material) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}

func (m *Material) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrMaterialNameRequired
	}
	if m.Quantity < 0 || m.UnitCost < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// TotalCost is quantity times unit cost.
func (m *Material) TotalCost() float64 {
	return m.Quantity * m.UnitCost
}
