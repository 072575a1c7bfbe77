// Package repositories is the persistence layer: one interface per entity
// with a gorm implementation behind it.
package repositories

import (
	"context"

	"gorm.io/gorm"
	"p9e.in/sitelog/models"
)

// Store bundles the repositories that share one database handle.
type Store struct {
	db        *gorm.DB
	Users     UserRepository
	Projects  ProjectRepository
	Reports   ReportRepository
	Photos    PhotoRepository
	Costs     CostRepository
	Alerts    AlertRepository
	Materials MaterialRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:        db,
		Users:     NewUserRepository(db),
		Projects:  NewProjectRepository(db),
		Reports:   NewReportRepository(db),
		Photos:    NewPhotoRepository(db),
		Costs:     NewCostRepository(db),
		Alerts:    NewAlertRepository(db),
		Materials: NewMaterialRepository(db),
	}
}

// Counts is the row count of every table, shown on the settings page.
type Counts struct {
	Users     int64 `json:"users"`
	Projects  int64 `json:"projects"`
	Reports   int64 `json:"reports"`
	Photos    int64 `json:"photos"`
	Costs     int64 `json:"costs"`
	Alerts    int64 `json:"alerts"`
	Materials int64 `json:"materials"`
}

func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	targets := []struct {
		model interface{}
		dst   *int64
	}{
		{&models.User{}, &c.Users},
		{&models.Project{}, &c.Projects},
		{&models.DailyReport{}, &c.Reports},
		{&models.Photo{}, &c.Photos},
		{&models.Cost{}, &c.Costs},
		{&models.Alert{}, &c.Alerts},
		{&models.Material{}, &c.Materials},
	}
	for _, t := range targets {
		if err := s.db.WithContext(ctx).Model(t.model).Count(t.dst).Error; err != nil {
			return Counts{}, err
		}
	}
	return c, nil
}

// Ping checks the database connection, used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
