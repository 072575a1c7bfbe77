package config

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"p9e.in/sitelog/models"
)

// SeedDefaults creates one user per role and a sample project on an empty
// database. Every seeded account shares password, which should be changed
// on first login.
func SeedDefaults(db *gorm.DB, password string) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		zap.L().Debug("users already present, skipping seed")
		return nil
	}

	usersToSeed := []models.User{
		{Username: "fiscal", Name: "Site Inspector", Email: "fiscal@sitelog.local", Phone: "+258841234567", Role: models.RoleFiscal},
		{Username: "owner", Name: "Project Owner", Email: "owner@sitelog.local", Phone: "+258842345678", Role: models.RoleOwner},
		{Username: "finance", Name: "Finance Officer", Email: "finance@sitelog.local", Phone: "+258843456789", Role: models.RoleFinance},
		{Username: "admin", Name: "Administrator", Email: "admin@sitelog.local", Phone: "+258844567890", Role: models.RoleAdmin},
	}

	return db.Transaction(func(tx *gorm.DB) error {
		byRole := map[models.Role]*models.User{}
		for i := range usersToSeed {
			u := &usersToSeed[i]
			u.IsActive = true
			if err := u.SetPassword(password); err != nil {
				return fmt.Errorf("seed user %s: %w", u.Username, err)
			}
			if err := tx.Create(u).Error; err != nil {
				return fmt.Errorf("seed user %s: %w", u.Username, err)
			}
			byRole[u.Role] = u
			zap.L().Info("seeded user", zap.String("username", u.Username), zap.String("role", string(u.Role)))
		}

		var projects int64
		if err := tx.Model(&models.Project{}).Count(&projects).Error; err != nil {
			return err
		}
		if projects > 0 {
			return nil
		}

		start, _ := models.ParseDate("2025-02-01")
		end, _ := models.ParseDate("2025-08-01")
		project := models.Project{
			Name:          "LBO Xai-Xai - Refurbishment and Expansion",
			Description:   "Refurbishment of the existing structure with expansion",
			Location:      "Xai-Xai, Gaza",
			TotalBudget:   2500000,
			Currency:      "MZN",
			StartDate:     &start,
			EndDate:       &end,
			Status:        models.ProjectInProgress,
			ResponsibleID: &byRole[models.RoleFiscal].ID,
			OwnerID:       &byRole[models.RoleOwner].ID,
		}
		if err := tx.Create(&project).Error; err != nil {
			return fmt.Errorf("seed project: %w", err)
		}
		for _, role := range []models.Role{models.RoleOwner, models.RoleFinance} {
			access := models.UserProjectAccess{UserID: byRole[role].ID, ProjectID: project.ID}
			if err := tx.Create(&access).Error; err != nil {
				return fmt.Errorf("seed access: %w", err)
			}
		}
		zap.L().Info("seeded project", zap.String("name", project.Name))
		return nil
	})
}
