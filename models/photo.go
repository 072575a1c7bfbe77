package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Photo is a site picture attached to a daily report. The bytes live in
// whichever blob store Backend names, under StorageKey.
type Photo struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ReportID    uuid.UUID `gorm:"type:uuid;not null;index" json:"report_id"`
	ProjectID   uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	Backend     string    `gorm:"size:20;not null" json:"backend"`
	StorageKey  string    `gorm:"size:500;not null" json:"-"`
	FileName    string    `gorm:"size:255" json:"file_name"`
	ContentType string    `gorm:"size:100" json:"content_type"`
	Size        int64     `json:"size"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Activity    string    `gorm:"size:255;index" json:"activity,omitempty"`
	UploadedAt  time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}

func (p *Photo) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

// PhotoGroup collects the photos tagged with one activity.
type PhotoGroup struct {
	Activity string  `json:"activity"`
	Photos   []Photo `json:"photos"`
}

// GroupPhotosByActivity keeps the order of first appearance; untagged
// photos end up in the group with an empty activity.
func GroupPhotosByActivity(photos []Photo) []PhotoGroup {
	index := map[string]int{}
	groups := []PhotoGroup{}
	for _, p := range photos {
		i, ok := index[p.Activity]
		if !ok {
			i = len(groups)
			index[p.Activity] = i
			groups = append(groups, PhotoGroup{Activity: p.Activity})
		}
		groups[i].Photos = append(groups[i].Photos, p)
	}
	return groups
}

// StoredBlob backs the "database" photo storage backend.
type StoredBlob struct {
	Key         string    `gorm:"size:500;primaryKey"`
	ContentType string    `gorm:"size:100"`
	Data        []byte    `gorm:"not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (StoredBlob) TableName() string {
	return "stored_blobs"
}
