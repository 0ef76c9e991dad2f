package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is built once at startup and treated as read-only afterwards.
type Config struct {
	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBPath     string

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Server
	Port        string
	CORSOrigins string
	LogLevel    string
	AppEnv      string
	SentryDSN   string

	// Seeding
	SeedOnStart       bool
	SeedAdminEmail    string
	SeedAdminPassword string
	SeedCSVPath       string

	// Catalog
	CatalogMaxLimit int
	ImportMaxBytes  int

	// Export archive (S3-compatible)
	ArchiveBucket          string
	ArchiveRegion          string
	ArchiveEndpoint        string
	ArchivePathStyle       bool
	ArchiveAccessKeyID     string
	ArchiveSecretAccessKey string
}

func Load() *Config {
	return &Config{
		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "pricewise"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		DBPath:     getEnv("DB_PATH", "pricewise.db"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "60m"), 60*time.Minute),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"), 168*time.Hour),

		Port:        getEnv("PORT", "8000"),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173,http://localhost:5000"),
		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", "info")),
		AppEnv:      getEnv("APP_ENV", "development"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),

		SeedOnStart:       parseBool(getEnv("SEED_ON_START", "true"), true),
		SeedAdminEmail:    getEnv("SEED_ADMIN_EMAIL", "admin@pricewise.com"),
		SeedAdminPassword: getEnv("SEED_ADMIN_PASSWORD", "admin123"),
		SeedCSVPath:       getEnv("SEED_CSV_PATH", "shared/sample_smartphones.csv"),

		CatalogMaxLimit: parseInt(getEnv("CATALOG_MAX_LIMIT", "1000"), 1000),
		ImportMaxBytes:  parseInt(getEnv("IMPORT_MAX_BYTES", "10485760"), 10*1024*1024),

		ArchiveBucket:          getEnv("EXPORT_ARCHIVE_BUCKET", ""),
		ArchiveRegion:          getEnv("EXPORT_ARCHIVE_REGION", "us-east-1"),
		ArchiveEndpoint:        getEnv("EXPORT_ARCHIVE_ENDPOINT", ""),
		ArchivePathStyle:       parseBool(getEnv("EXPORT_ARCHIVE_PATH_STYLE", "false"), false),
		ArchiveAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		ArchiveSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
	}
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET environment variable is required"))
	}
	switch c.DBDriver {
	case "postgres":
		if c.DBPassword == "" {
			errs = append(errs, errors.New("DB_PASSWORD environment variable is required"))
		}
	case "sqlite":
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH must not be empty for the sqlite driver"))
		}
	default:
		errs = append(errs, errors.New("DB_DRIVER must be postgres or sqlite, got "+strconv.Quote(c.DBDriver)))
	}
	if c.CatalogMaxLimit <= 0 {
		errs = append(errs, errors.New("CATALOG_MAX_LIMIT must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// ArchiveEnabled reports whether exports should also be copied to object storage.
func (c *Config) ArchiveEnabled() bool {
	return c.ArchiveBucket != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func parseBool(s string, fallback bool) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fallback
	}
	return b
}
