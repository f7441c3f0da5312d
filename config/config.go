package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
//
//nolint:govet // Field alignment optimization would reduce readability
type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Redis          RedisConfig
	Logging        LoggingConfig
	Observability  ObservabilityConfig
	Profiling      ProfilingConfig
	Cache          CacheConfig
	Auth           AuthConfig
	Security       SecurityConfig
	Reconciliation ReconciliationConfig
	EventTriggers  EventTriggersConfig
	AIEngine       AIEngineConfig
	ObjectStorage  ObjectStorageConfig
}

type ServerConfig struct {
	Port           string
	GinMode        string
	AppEnv         string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	URL         string
	MaxConns    int32
	MinConns    int32
	CACertPath  string
	WorkOffline bool // in-memory store, nothing persisted
}

type RedisConfig struct {
	URL         string // empty keeps per-mentor locks in-process
	LockTTL     time.Duration
	LockMaxWait time.Duration
}

type LoggingConfig struct {
	Level      string
	Dir        string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type ObservabilityConfig struct {
	ExporterEndpoint  string
	ServiceName       string
	ServiceNamespace  string
	ServiceVersion    string
	ServiceInstanceID string
}

type ProfilingConfig struct {
	Enabled               bool
	Endpoint              string
	AppName               string
	SampleTypes           string
	UploadIntervalSeconds int
}

type CacheConfig struct {
	ReputationTTL time.Duration
}

type AuthConfig struct {
	JWTSecret       string
	JWTIssuer       string
	SessionTTLHours int
}

type SecurityConfig struct {
	MaxFailedLogins   int
	LockoutDuration   time.Duration
	BcryptCost        int
	PasswordMinLength int
}

type ReconciliationConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	Interval     time.Duration // zero disables the background pass
}

type EventTriggersConfig struct {
	RequestAcceptedTriggerURL  string
	SessionScheduledTriggerURL string
	RatingRecordedTriggerURL   string
}

type AIEngineConfig struct {
	URL     string
	Timeout time.Duration
}

type ObjectStorageConfig struct {
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Endpoint        string
	Region          string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("PORT", "8081")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("ALLOWED_CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("DB_CA_CERT_PATH", "certs/db-ca.crt")
	v.SetDefault("REDIS_LOCK_TTL_SECONDS", 10)
	v.SetDefault("REDIS_LOCK_MAX_WAIT_SECONDS", 5)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DIR", "/app/logs")
	v.SetDefault("LOG_MAX_SIZE_MB", 100)
	v.SetDefault("LOG_MAX_BACKUPS", 5)
	v.SetDefault("LOG_MAX_AGE_DAYS", 14)
	v.SetDefault("O11Y_EXPORTER_ENDPOINT", "")
	v.SetDefault("O11Y_BE_SERVICE_NAME", "mentorship-api")
	v.SetDefault("O11Y_SERVICE_NAMESPACE", "mentorship")
	v.SetDefault("O11Y_BE_SERVICE_VERSION", "1.0.0")
	v.SetDefault("PROFILING_ENABLED", false)
	v.SetDefault("PROFILING_APP_NAME", "mentorship-api")
	v.SetDefault("PROFILING_SAMPLE_TYPES", "cpu,alloc_space,inuse_space,goroutines,mutex")
	v.SetDefault("PROFILING_UPLOAD_INTERVAL_SECONDS", 15)
	v.SetDefault("REPUTATION_CACHE_TTL", 300) // seconds
	v.SetDefault("JWT_ISSUER", "mentorship-api")
	v.SetDefault("SESSION_TTL_HOURS", 24)
	v.SetDefault("MAX_FAILED_LOGINS", 5)
	v.SetDefault("LOCKOUT_DURATION_MINUTES", 120)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("PASSWORD_MIN_LENGTH", 8)
	v.SetDefault("RECONCILE_MAX_RETRIES", 3)
	v.SetDefault("RECONCILE_INITIAL_DELAY_MS", 50)
	v.SetDefault("RECONCILE_INTERVAL_MINUTES", 15)
	v.SetDefault("AI_ENGINE_TIMEOUT_SECONDS", 60)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	_ = v.ReadInConfig() //nolint:errcheck // Ignore error if .env file doesn't exist

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			GinMode:        v.GetString("GIN_MODE"),
			AppEnv:         v.GetString("APP_ENV"),
			AllowedOrigins: splitList(v.GetString("ALLOWED_CORS_ORIGINS")),
		},
		Database: DatabaseConfig{
			URL:         v.GetString("DATABASE_URL"),
			MaxConns:    v.GetInt32("DB_MAX_CONNS"),
			MinConns:    v.GetInt32("DB_MIN_CONNS"),
			CACertPath:  v.GetString("DB_CA_CERT_PATH"),
			WorkOffline: v.GetBool("DB_WORK_OFFLINE"),
		},
		Redis: RedisConfig{
			URL:         v.GetString("REDIS_URL"),
			LockTTL:     time.Duration(v.GetInt("REDIS_LOCK_TTL_SECONDS")) * time.Second,
			LockMaxWait: time.Duration(v.GetInt("REDIS_LOCK_MAX_WAIT_SECONDS")) * time.Second,
		},
		Logging: LoggingConfig{
			Level:      v.GetString("LOG_LEVEL"),
			Dir:        v.GetString("LOG_DIR"),
			MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
			MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
		},
		Observability: ObservabilityConfig{
			ExporterEndpoint:  v.GetString("O11Y_EXPORTER_ENDPOINT"),
			ServiceName:       v.GetString("O11Y_BE_SERVICE_NAME"),
			ServiceNamespace:  v.GetString("O11Y_SERVICE_NAMESPACE"),
			ServiceVersion:    v.GetString("O11Y_BE_SERVICE_VERSION"),
			ServiceInstanceID: v.GetString("SERVICE_INSTANCE_ID"),
		},
		Profiling: ProfilingConfig{
			Enabled:               v.GetBool("PROFILING_ENABLED"),
			Endpoint:              v.GetString("PROFILING_ENDPOINT"),
			AppName:               v.GetString("PROFILING_APP_NAME"),
			SampleTypes:           v.GetString("PROFILING_SAMPLE_TYPES"),
			UploadIntervalSeconds: v.GetInt("PROFILING_UPLOAD_INTERVAL_SECONDS"),
		},
		Cache: CacheConfig{
			ReputationTTL: time.Duration(v.GetInt("REPUTATION_CACHE_TTL")) * time.Second,
		},
		Auth: AuthConfig{
			JWTSecret:       v.GetString("JWT_SECRET"),
			JWTIssuer:       v.GetString("JWT_ISSUER"),
			SessionTTLHours: v.GetInt("SESSION_TTL_HOURS"),
		},
		Security: SecurityConfig{
			MaxFailedLogins:   v.GetInt("MAX_FAILED_LOGINS"),
			LockoutDuration:   time.Duration(v.GetInt("LOCKOUT_DURATION_MINUTES")) * time.Minute,
			BcryptCost:        v.GetInt("BCRYPT_COST"),
			PasswordMinLength: v.GetInt("PASSWORD_MIN_LENGTH"),
		},
		Reconciliation: ReconciliationConfig{
			MaxRetries:   v.GetInt("RECONCILE_MAX_RETRIES"),
			InitialDelay: time.Duration(v.GetInt("RECONCILE_INITIAL_DELAY_MS")) * time.Millisecond,
			Interval:     time.Duration(v.GetInt("RECONCILE_INTERVAL_MINUTES")) * time.Minute,
		},
		EventTriggers: EventTriggersConfig{
			RequestAcceptedTriggerURL:  v.GetString("REQUEST_ACCEPTED_TRIGGER_URL"),
			SessionScheduledTriggerURL: v.GetString("SESSION_SCHEDULED_TRIGGER_URL"),
			RatingRecordedTriggerURL:   v.GetString("RATING_RECORDED_TRIGGER_URL"),
		},
		AIEngine: AIEngineConfig{
			URL:     v.GetString("AI_ENGINE_URL"),
			Timeout: time.Duration(v.GetInt("AI_ENGINE_TIMEOUT_SECONDS")) * time.Second,
		},
		ObjectStorage: ObjectStorageConfig{
			AccessKeyID:     v.GetString("OBJECT_STORAGE_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("OBJECT_STORAGE_SECRET_ACCESS_KEY"),
			Bucket:          v.GetString("OBJECT_STORAGE_BUCKET"),
			Endpoint:        v.GetString("OBJECT_STORAGE_ENDPOINT"),
			Region:          v.GetString("OBJECT_STORAGE_REGION"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func splitList(raw string) []string {
	out := []string{}
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	if !c.Database.WorkOffline && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when not in offline mode")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if len(c.Server.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_CORS_ORIGINS is required")
	}

	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET is required and must be at least 32 characters")
	}

	if c.Security.MaxFailedLogins < 1 {
		return fmt.Errorf("MAX_FAILED_LOGINS must be at least 1")
	}
	if c.Security.LockoutDuration <= 0 {
		return fmt.Errorf("LOCKOUT_DURATION_MINUTES must be positive")
	}
	if c.Security.PasswordMinLength < 8 {
		return fmt.Errorf("PASSWORD_MIN_LENGTH must be at least 8")
	}

	if c.Reconciliation.MaxRetries < 0 {
		return fmt.Errorf("RECONCILE_MAX_RETRIES must not be negative")
	}

	if c.Profiling.Enabled && c.Profiling.Endpoint == "" {
		return fmt.Errorf("PROFILING_ENDPOINT is required when profiling is enabled")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.GinMode == "debug"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.AppEnv == "production"
}
