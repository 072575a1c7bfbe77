// Package testdb opens throwaway SQLite databases for package tests.
package testdb

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"p9e.in/sitelog/config"
	"p9e.in/sitelog/models"
)

// Open returns a migrated in-memory database private to t.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])
	db, err := config.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := config.Migrations(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// User inserts an active user with password "secret123".
func User(t testing.TB, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Name:     strings.ToUpper(username[:1]) + username[1:] + " Tester",
		Email:    username + "@test.local",
		Role:     role,
		IsActive: true,
	}
	if err := u.SetPassword("secret123"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// Project inserts a project with the given budget.
func Project(t testing.TB, db *gorm.DB, name string, budget float64) *models.Project {
	t.Helper()
	p := &models.Project{Name: name, TotalBudget: budget, Currency: "MZN"}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create project: %v", err)
	}
	return p
}

// Date parses s or fails the test.
func Date(t testing.TB, s string) models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	return d
}
