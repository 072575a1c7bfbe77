package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"p9e.in/sitelog/config"
	"p9e.in/sitelog/models"
	"p9e.in/sitelog/utils"
)

type roleCount struct {
	Role   models.Role `gorm:"column:role"`
	Total  int64       `gorm:"column:total"`
	Active int64       `gorm:"column:active"`
}

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	driver := os.Getenv("DB_DRIVER")
	if driver == "" {
		driver = "sqlite"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "sitelog.db"
	}
	db, err := config.Open(driver, dsn)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	fmt.Println("========================================")
	fmt.Println("VERIFICATION: Sitelog database")
	fmt.Println("========================================")

	tables := []struct {
		name  string
		model interface{}
	}{
		{"users", &models.User{}},
		{"projects", &models.Project{}},
		{"user_project_access", &models.UserProjectAccess{}},
		{"daily_reports", &models.DailyReport{}},
		{"photos", &models.Photo{}},
		{"costs", &models.Cost{}},
		{"materials", &models.Material{}},
		{"alerts", &models.Alert{}},
	}
	for _, t := range tables {
		var n int64
		if err := db.Model(t.model).Count(&n).Error; err != nil {
			fmt.Printf("❌ %-20s %v\n", t.name, err)
			continue
		}
		fmt.Printf("✅ %-20s %d rows\n", t.name, n)
	}

	var counts []roleCount
	query := `
		SELECT role,
		       COUNT(*) AS total,
		       SUM(CASE WHEN is_active THEN 1 ELSE 0 END) AS active
		FROM users
		GROUP BY role
		ORDER BY role
	`
	if err := db.Raw(query).Scan(&counts).Error; err != nil {
		log.Fatal("Query failed:", err)
	}

	fmt.Println("\nUsers per role:")
	fmt.Println("---------------")
	seen := map[models.Role]bool{}
	for _, c := range counts {
		seen[c.Role] = true
		fmt.Printf("%-8s total=%d active=%d\n", c.Role, c.Total, c.Active)
	}
	for _, role := range []models.Role{models.RoleFiscal, models.RoleOwner, models.RoleFinance, models.RoleAdmin} {
		if !seen[role] {
			fmt.Printf("❌ no %s user; run the server with SEED=true on an empty database\n", role)
		}
	}

	fmt.Println("\nPermissions per role:")
	fmt.Println("---------------------")
	for _, role := range []models.Role{models.RoleFiscal, models.RoleOwner, models.RoleFinance, models.RoleAdmin} {
		fmt.Printf("%s:\n", role)
		for _, perm := range []string{utils.PermReportWrite, utils.PermPhotoWrite, utils.PermCostWrite, utils.PermProjectManage, utils.PermExportRead} {
			status := "❌"
			if utils.HasPermission(role, perm) {
				status = "✅"
			}
			fmt.Printf("  %s %s\n", status, perm)
		}
	}
	fmt.Println("========================================")
}
