package config

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
	"p9e.in/sitelog/models"
)

// Migrations brings the schema up to date. Entries are append-only: later
// revisions add columns to tables created by earlier ones.
func Migrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "01022025_create_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.User{}, &models.Project{}, &models.DailyReport{},
					&models.Photo{}, &models.Material{}, &models.Alert{})
			},
		},
		{
			ID: "10032025_add_user_project_access",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.UserProjectAccess{})
			},
		},
		{
			ID: "15032025_add_costs",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Cost{})
			},
		},
		{
			ID: "02042025_add_photo_activity_and_blobs",
			Migrate: func(tx *gorm.DB) error {
				if !tx.Migrator().HasColumn(&models.Photo{}, "Activity") {
					if err := tx.Migrator().AddColumn(&models.Photo{}, "Activity"); err != nil {
						return err
					}
				}
				return tx.AutoMigrate(&models.StoredBlob{})
			},
		},
		{
			ID: "20052025_add_report_activity_items",
			Migrate: func(tx *gorm.DB) error {
				if tx.Migrator().HasColumn(&models.DailyReport{}, "ActivityItems") {
					return nil
				}
				return tx.Migrator().AddColumn(&models.DailyReport{}, "ActivityItems")
			},
		},
		{
			ID: "01062025_add_project_owner_and_location",
			Migrate: func(tx *gorm.DB) error {
				for _, field := range []string{"OwnerID", "Latitude", "Longitude"} {
					if tx.Migrator().HasColumn(&models.Project{}, field) {
						continue
					}
					if err := tx.Migrator().AddColumn(&models.Project{}, field); err != nil {
						return err
					}
				}
				return nil
			},
		},
	})
	return m.Migrate()
}
