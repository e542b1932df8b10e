package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Google       GoogleConfig
	Vexa         VexaConfig
	Analysis     AnalysisConfig
	Notification NotificationConfig
	Pipeline     PipelineConfig
	Archive      ArchiveConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	AllowedOrigins  []string
	ShutdownTimeout int
	CronSecret      string
	CronUserAgent   string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	MaxConns    int
	MinConns    int
	AutoMigrate bool
}

// RedisConfig holds Redis configuration. An empty host disables Redis and
// falls back to the in-process locker.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// GoogleConfig holds the OAuth client used to refresh per-user calendar tokens
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
}

// VexaConfig holds transcription vendor configuration
type VexaConfig struct {
	BaseURL  string
	BotName  string
	Language string
	Timeout  time.Duration
}

// AnalysisConfig holds analysis collaborator configuration
type AnalysisConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NotificationConfig holds notification sink configuration
type NotificationConfig struct {
	SlackBotToken string
	SlackBaseURL  string
}

// PipelineConfig holds the stage thresholds and batch limits
type PipelineConfig struct {
	ScanLookback     time.Duration // calendar window start, before now
	ScanLookahead    time.Duration // calendar window end, after now
	InstantThreshold time.Duration // event created within this of now => instant
	JoinEarly        time.Duration // scheduled dispatch: how early to join
	JoinLate         time.Duration // scheduled dispatch: how late is still worth joining
	RetrieveDelay    time.Duration // pause between per-meeting vendor calls
	BatchLimit       int
	StageLockTTL     time.Duration
	SchedulerEnabled bool
	SchedulerPeriod  time.Duration
}

// ArchiveConfig holds optional raw-payload archive configuration.
// An empty endpoint disables archiving.
type ArchiveConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			AllowedOrigins:  strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 10),
			CronSecret:      getEnv("CRON_SECRET", ""),
			CronUserAgent:   getEnv("CRON_USER_AGENT", "Pipeline-Cron"),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			Name:        getEnv("DB_NAME", "meeting_pipeline"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			MaxConns:    getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:    getEnvAsInt("DB_MIN_CONNS", 5),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Google: GoogleConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		},
		Vexa: VexaConfig{
			BaseURL:  getEnv("VEXA_BASE_URL", "https://gateway.dev.vexa.ai"),
			BotName:  getEnv("VEXA_BOT_NAME", "Veritas AI Assistant"),
			Language: getEnv("VEXA_LANGUAGE", "en"),
			Timeout:  getEnvAsDuration("VEXA_TIMEOUT", "60s"),
		},
		Analysis: AnalysisConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			BaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
			Model:   getEnv("OPENAI_MODEL", "gpt-4-turbo"),
			Timeout: getEnvAsDuration("OPENAI_TIMEOUT", "120s"),
		},
		Notification: NotificationConfig{
			SlackBotToken: getEnv("SLACK_BOT_TOKEN", ""),
			SlackBaseURL:  getEnv("SLACK_BASE_URL", "https://slack.com/api"),
		},
		Pipeline: PipelineConfig{
			ScanLookback:     getEnvAsDuration("PIPELINE_SCAN_LOOKBACK", "5m"),
			ScanLookahead:    getEnvAsDuration("PIPELINE_SCAN_LOOKAHEAD", "2h"),
			InstantThreshold: getEnvAsDuration("PIPELINE_INSTANT_THRESHOLD", "10m"),
			JoinEarly:        getEnvAsDuration("PIPELINE_JOIN_EARLY", "2m"),
			JoinLate:         getEnvAsDuration("PIPELINE_JOIN_LATE", "5m"),
			RetrieveDelay:    getEnvAsDuration("PIPELINE_RETRIEVE_DELAY", "1s"),
			BatchLimit:       getEnvAsInt("PIPELINE_BATCH_LIMIT", 10),
			StageLockTTL:     getEnvAsDuration("PIPELINE_STAGE_LOCK_TTL", "4m"),
			SchedulerEnabled: getEnvAsBool("SCHEDULER_ENABLED", false),
			SchedulerPeriod:  getEnvAsDuration("SCHEDULER_PERIOD", "1m"),
		},
		Archive: ArchiveConfig{
			Endpoint:        getEnv("ARCHIVE_ENDPOINT", ""),
			AccessKeyID:     getEnv("ARCHIVE_ACCESS_KEY", ""),
			SecretAccessKey: getEnv("ARCHIVE_SECRET_KEY", ""),
			BucketName:      getEnv("ARCHIVE_BUCKET", "meeting-transcripts"),
			UseSSL:          getEnvAsBool("ARCHIVE_USE_SSL", false),
		},
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Environment == "production" && c.Server.CronSecret == "" {
		return fmt.Errorf("CRON_SECRET is required in production")
	}
	if c.Pipeline.JoinEarly < 0 || c.Pipeline.JoinLate < 0 {
		return fmt.Errorf("join window bounds must be positive durations")
	}
	if c.Pipeline.BatchLimit <= 0 {
		return fmt.Errorf("PIPELINE_BATCH_LIMIT must be positive")
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// RedisEnabled reports whether a Redis host is configured
func (c *Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}

// ArchiveEnabled reports whether the raw-payload archive is configured
func (c *Config) ArchiveEnabled() bool {
	return c.Archive.Endpoint != ""
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}
