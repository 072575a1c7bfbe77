package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB is the process-wide connection opened by Connect.
var DB *gorm.DB

type Config struct {
	Port     string
	DBDriver string
	DBDSN    string

	JWTSecret string
	TokenTTL  time.Duration

	LogLevel  string
	LogFormat string

	// Photo storage: "local", "database" or "gcs"
	PhotoStorage       string
	UploadDir          string
	GCSBucket          string
	GCSCredentialsFile string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SMTP   SMTPConfig
	Twilio TwilioConfig

	Seed            bool
	DefaultPassword string
	DashboardURL    string
}

type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
	To   []string
}

// Enabled is false while the sender is unset, matching the placeholder
// credentials shipped with the sample env file.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.From != "" && len(c.To) > 0
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	To         []string
	BaseURL    string
}

func (c TwilioConfig) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.From != "" && len(c.To) > 0
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load reads .env (when present) and the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		zap.L().Info("No .env file found, using system environment variables")
	}

	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "24h"))
	if err != nil {
		ttl = 24 * time.Hour
	}
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		redisDB = 0
	}

	return Config{
		Port:               getEnv("PORT", "8080"),
		DBDriver:           strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBDSN:              getEnv("DB_DSN", "sitelog.db"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		TokenTTL:           ttl,
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		PhotoStorage:       strings.ToLower(getEnv("PHOTO_STORAGE", "local")),
		UploadDir:          getEnv("UPLOAD_DIR", "./uploads"),
		GCSBucket:          getEnv("GCS_BUCKET", ""),
		GCSCredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            redisDB,
		SMTP: SMTPConfig{
			Host: getEnv("SMTP_HOST", ""),
			Port: getEnv("SMTP_PORT", "587"),
			User: getEnv("SMTP_USER", ""),
			Pass: getEnv("SMTP_PASS", ""),
			From: getEnv("SMTP_FROM", ""),
			To:   getList("ALERT_EMAILS"),
		},
		Twilio: TwilioConfig{
			AccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
			From:       getEnv("TWILIO_WHATSAPP_FROM", "whatsapp:+14155238886"),
			To:         getList("WHATSAPP_TO"),
			BaseURL:    getEnv("TWILIO_BASE_URL", "https://api.twilio.com"),
		},
		Seed:            strings.EqualFold(getEnv("SEED", "true"), "true"),
		DefaultPassword: getEnv("DEFAULT_PASSWORD", "Welcome@123"),
		DashboardURL:    getEnv("DASHBOARD_URL", "http://localhost:8080"),
	}
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.PhotoStorage {
	case "local", "database":
	case "gcs":
		if c.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required when PHOTO_STORAGE=gcs")
		}
	default:
		return fmt.Errorf("unsupported PHOTO_STORAGE %q", c.PhotoStorage)
	}
	return nil
}

// Open returns a gorm handle for the given driver without touching DB.
func Open(driver, dsn string) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	}
	switch driver {
	case "postgres":
		return gorm.Open(postgres.Open(dsn), gcfg)
	case "sqlite":
		return gorm.Open(sqlite.Open(dsn), gcfg)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

// Connect opens the database, runs migrations and stores the handle in DB.
func Connect(cfg Config) (*gorm.DB, error) {
	db, err := Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// A single SQLite file does not benefit from concurrent writers.
	if cfg.DBDriver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	DB = db
	return db, nil
}
