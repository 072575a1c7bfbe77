package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CostCategory string

const (
	CostMaterials   CostCategory = "materials"
	CostLabor       CostCategory = "labor"
	CostEquipment   CostCategory = "equipment"
	CostTransport   CostCategory = "transport"
	CostServices    CostCategory = "services"
	CostContingency CostCategory = "contingency"
)

var CostCategories = []CostCategory{
	CostMaterials, CostLabor, CostEquipment, CostTransport, CostServices, CostContingency,
}

func (c CostCategory) Valid() bool {
	for _, known := range CostCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Cost is an expense booked against a project.
type Cost struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID   uuid.UUID    `gorm:"type:uuid;not null;index" json:"project_id"`
	Category    CostCategory `gorm:"size:30;not null;index" json:"category"`
	Description string       `gorm:"type:text;not null" json:"description"`
	Amount      float64      `gorm:"type:decimal(15,2);not null" json:"amount"`
	Date        Date         `gorm:"not null;index" json:"date"`
	ReceiptKey  string       `gorm:"size:500" json:"receipt_key,omitempty"`
	CreatedBy   uuid.UUID    `gorm:"type:uuid" json:"created_by"`
	CreatedAt   time.Time    `json:"created_at"`
}

func (c *Cost) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}

func (c *Cost) Validate() error {
	if !c.Category.Valid() {
		return ErrInvalidCostCategory
	}
	if c.Amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
