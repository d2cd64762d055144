package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone AuthMode = "none" // Every request runs as the local-dev user (default)
	AuthModeJWT  AuthMode = "jwt"  // Bearer tokens issued by an external identity provider
)

type (
	Config struct {
		HTTP
		Global
		Database
		Storage
		Parser
		Import
		Tasks
		Auth
		Logging
	}

	HTTP struct {
		Port               int32
		Host               string
		CORSAllowedOrigins []string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Storage struct {
		Dir           string
		PublicURL     string        // Base URL used when building upload URLs
		SigningSecret string        // HS256 secret for upload tokens, generated if empty
		UploadURLTTL  time.Duration // Lifetime of an issued upload URL (default: 15m)
	}
	Parser struct {
		URL     string
		Timeout time.Duration // Bounded wait for one parse call (default: 2m)
	}
	Import struct {
		MaxFileSize   int64
		StaleAfter    time.Duration // Jobs stuck in queued/parsing/ingesting longer than this are failed
		SweepEnabled  bool
		SweepSchedule string // Cron format: "*/5 * * * *" = every 5 minutes
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Auth struct {
		Mode       AuthMode
		JWTSecret  string
		JWTIssuer  string // Expected "iss" claim, empty accepts any issuer
		AllowLocal bool   // Fall back to the local-dev identity when no token is sent
	}
	Logging struct {
		Level      string
		File       string // Rotating JSON log file, disabled when empty
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
	}
)

func NewConfig() *Config {
	// A missing .env file is the normal case outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("cors_allowed_origins", "http://localhost:3000")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Storage defaults
	v.SetDefault("storage_dir", DefaultStorageDir)
	v.SetDefault("storage_public_url", "http://localhost:8188")
	v.SetDefault("storage_signing_secret", "")
	v.SetDefault("storage_upload_url_ttl", "15m")

	// Parser defaults
	v.SetDefault("parser_url", DefaultParserURL)
	v.SetDefault("parser_timeout", "2m")

	// Import defaults
	v.SetDefault("import_max_file_size", 100<<20)
	v.SetDefault("import_stale_after", "30m")
	v.SetDefault("import_sweep_enabled", true)
	v.SetDefault("import_sweep_schedule", "*/5 * * * *")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "10m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	// Auth defaults
	v.SetDefault("auth_mode", "none")
	v.SetDefault("auth_jwt_secret", "")
	v.SetDefault("auth_jwt_issuer", "")
	v.SetDefault("allow_local_auth", false)

	// Logging defaults
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("log_max_size_mb", 10)
	v.SetDefault("log_max_backups", 3)
	v.SetDefault("log_max_age_days", 28)

	return &Config{
		HTTP: HTTP{
			Port:               v.GetInt32("PORT"),
			Host:               v.GetString("HOST"),
			CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Storage: Storage{
			Dir:           v.GetString("STORAGE_DIR"),
			PublicURL:     strings.TrimRight(v.GetString("STORAGE_PUBLIC_URL"), "/"),
			SigningSecret: v.GetString("STORAGE_SIGNING_SECRET"),
			UploadURLTTL:  v.GetDuration("STORAGE_UPLOAD_URL_TTL"),
		},
		Parser: Parser{
			URL:     v.GetString("PARSER_URL"),
			Timeout: v.GetDuration("PARSER_TIMEOUT"),
		},
		Import: Import{
			MaxFileSize:   v.GetInt64("IMPORT_MAX_FILE_SIZE"),
			StaleAfter:    v.GetDuration("IMPORT_STALE_AFTER"),
			SweepEnabled:  v.GetBool("IMPORT_SWEEP_ENABLED"),
			SweepSchedule: v.GetString("IMPORT_SWEEP_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Auth: Auth{
			Mode:       AuthMode(v.GetString("AUTH_MODE")),
			JWTSecret:  v.GetString("AUTH_JWT_SECRET"),
			JWTIssuer:  v.GetString("AUTH_JWT_ISSUER"),
			AllowLocal: v.GetBool("ALLOW_LOCAL_AUTH"),
		},
		Logging: Logging{
			Level:      v.GetString("LOG_LEVEL"),
			File:       v.GetString("LOG_FILE"),
			MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
			MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
		},
	}
}

// LocalIdentityAllowed reports whether requests may run as the local-dev user.
func (a Auth) LocalIdentityAllowed() bool {
	return a.Mode == AuthModeNone || a.AllowLocal
}

// ExplicitOwnerAllowed reports whether imports may name another owner. Only an
// unauthenticated single-user setup allows it; a token-less caller in jwt mode
// must not reach other libraries.
func (a Auth) ExplicitOwnerAllowed() bool {
	return a.Mode == AuthModeNone
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
