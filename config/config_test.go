package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"p9e.in/sitelog/models"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("ALERT_EMAILS", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "local", cfg.PhotoStorage)
	assert.False(t, cfg.SMTP.Enabled())
	assert.False(t, cfg.Twilio.Enabled())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("ALERT_EMAILS", "owner@site.test, manager@site.test,")
	t.Setenv("SMTP_HOST", "smtp.site.test")
	t.Setenv("SMTP_FROM", "alerts@site.test")
	t.Setenv("SEED", "false")

	cfg := Load()
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"owner@site.test", "manager@site.test"}, cfg.SMTP.To)
	assert.True(t, cfg.SMTP.Enabled())
	assert.False(t, cfg.Seed)
}

func TestValidate(t *testing.T) {
	ok := Config{JWTSecret: "s", DBDriver: "sqlite", PhotoStorage: "local"}
	require.NoError(t, ok.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing secret", func(c *Config) { c.JWTSecret = "" }},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }},
		{"unknown storage", func(c *Config) { c.PhotoStorage = "s3" }},
		{"gcs without bucket", func(c *Config) { c.PhotoStorage = "gcs" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ok
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestMigrationsAndSeedAreIdempotent(t *testing.T) {
	db, err := Open("sqlite", "file:config_seed?mode=memory&cache=shared")
	require.NoError(t, err)
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()

	require.NoError(t, Migrations(db))
	require.NoError(t, Migrations(db))

	require.NoError(t, SeedDefaults(db, "Welcome@123"))
	require.NoError(t, SeedDefaults(db, "Welcome@123"))

	var users, projects, access int64
	db.Model(&models.User{}).Count(&users)
	db.Model(&models.Project{}).Count(&projects)
	db.Model(&models.UserProjectAccess{}).Count(&access)
	assert.EqualValues(t, 4, users)
	assert.EqualValues(t, 1, projects)
	assert.EqualValues(t, 2, access)

	var admin models.User
	require.NoError(t, db.Where("username = ?", "admin").First(&admin).Error)
	assert.True(t, admin.CheckPassword("Welcome@123"))
	assert.Equal(t, models.RoleAdmin, admin.Role)
}
