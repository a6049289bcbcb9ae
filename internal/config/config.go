package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	MinIO     MinIOConfig
	Session   SessionConfig
	CORS      CORSConfig
	SMTP      SMTPConfig
	Log       LogConfig
	Admin     AdminSeedConfig
	Complaint ComplaintConfig
}

type AppConfig struct {
	Env      string
	Host     string
	Port     string
	URL      string // public base URL used for links in emails
	Timezone string
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string // empty disables the cross-instance relay bridge
	Password string
	DB       int
}

type MinIOConfig struct {
	Endpoint    string
	PresignHost string // Host to use in presigned URLs (for browser access)
	AccessKey   string
	SecretKey   string
	Bucket      string
	UseSSL      bool
	PublicURL   string
}

type SessionConfig struct {
	Secret     string
	TTL        time.Duration
	CookieName string
}

type CORSConfig struct {
	Origins []string
}

// SMTPConfig is the environment fallback; an admin-saved setting in the database wins over it.
type SMTPConfig struct {
	Host   string
	Port   int
	User   string
	Pass   string
	From   string
	Secure bool
}

type LogConfig struct {
	Level string
}

type AdminSeedConfig struct {
	Email    string
	Password string
	Username string
	Name     string
	Surname  string
}

type ComplaintConfig struct {
	Moderation bool
	MaxImages  int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	sessionTTL, err := time.ParseDuration(getEnv("SESSION_TTL", "168h"))
	if err != nil {
		sessionTTL = 168 * time.Hour
	}
	connLifetime, err := time.ParseDuration(getEnv("DB_CONN_MAX_LIFETIME", "1h"))
	if err != nil {
		connLifetime = time.Hour
	}

	cfg := &Config{
		App: AppConfig{
			Env:      getEnv("APP_ENV", "development"),
			Host:     getEnv("HOST", "0.0.0.0"),
			Port:     getEnv("PORT", "8080"),
			URL:      strings.TrimSuffix(firstEnv("http://localhost:3000", "NEXT_PUBLIC_APP_URL", "NEXT_PUBLIC_BASE_URL", "APP_URL"), "/"),
			Timezone: getEnv("APP_TIMEZONE", "Europe/Istanbul"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "sikayet"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "sikayet"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 50),
			ConnMaxLifetime: connLifetime,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		MinIO: MinIOConfig{
			Endpoint:    getEnv("MINIO_ENDPOINT", "localhost:9000"),
			PresignHost: getEnv("MINIO_PRESIGN_HOST", "localhost:9000"),
			AccessKey:   getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey:   getEnv("MINIO_SECRET_KEY", ""),
			Bucket:      getEnv("MINIO_BUCKET", "sikayet"),
			UseSSL:      getEnvBool("MINIO_USE_SSL", false),
			PublicURL:   getEnv("STORAGE_PUBLIC_URL", "http://localhost:9000/sikayet"),
		},
		Session: SessionConfig{
			Secret:     getEnv("SESSION_SECRET", ""),
			TTL:        sessionTTL,
			CookieName: getEnv("SESSION_COOKIE", "session"),
		},
		CORS: CORSConfig{
			Origins: splitOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		SMTP: SMTPConfig{
			Host:   getEnv("SMTP_HOST", ""),
			Port:   getEnvInt("SMTP_PORT", 587),
			User:   getEnv("SMTP_USER", ""),
			Pass:   getEnv("SMTP_PASS", ""),
			From:   getEnv("SMTP_FROM", ""),
			Secure: getEnvBool("SMTP_SECURE", false),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Admin: AdminSeedConfig{
			Email:    getEnv("ADMIN_EMAIL", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
			Username: getEnv("ADMIN_USERNAME", "admin"),
			Name:     getEnv("ADMIN_NAME", "Site"),
			Surname:  getEnv("ADMIN_SURNAME", "Yöneticisi"),
		},
		Complaint: ComplaintConfig{
			Moderation: getEnvBool("COMPLAINT_MODERATION", false),
			MaxImages:  getEnvInt("COMPLAINT_MAX_IMAGES", 5),
		},
	}

	if cfg.App.Env == "production" && cfg.Session.Secret == "" {
		return nil, errors.New("SESSION_SECRET must be configured in production environment")
	}
	if cfg.Session.Secret == "" {
		cfg.Session.Secret = "dev-only-session-secret"
	}

	return cfg, nil
}

// Location resolves APP_TIMEZONE, falling back to UTC when the zone database lacks it.
func (a AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

func splitOrigins(raw string) []string {
	var normalized []string
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimSpace(o)
		o = strings.TrimSuffix(o, "/")
		if o != "" {
			normalized = append(normalized, o)
		}
	}
	return normalized
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func firstEnv(defaultValue string, keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		n, err := strconv.Atoi(value)
		if err == nil {
			return n
		}
	}
	return defaultValue
}
