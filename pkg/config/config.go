package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Environment   string
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	History       HistoryConfig
	Analysis      AnalysisConfig
	SearchConsole SearchConsoleConfig
	GA4           GA4Config
	Meta          MetaConfig
	HTTPClient    HTTPClientConfig
	OTEL          OTELConfig
	CORS          CORSConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// History backends
const (
	HistoryBackendFile     = "file"
	HistoryBackendPostgres = "postgres"
)

// HistoryConfig selects and tunes the report history store
type HistoryConfig struct {
	Backend       string
	Dir           string
	RetentionDays int
	TailSize      int
}

// Analysis schedules
const (
	ScheduleDaily   = "daily"
	ScheduleWeekly  = "weekly"
	ScheduleMonthly = "monthly"
)

// AnalysisConfig holds analysis defaults and score weights
type AnalysisConfig struct {
	DefaultDays         int
	DefaultSite         string
	Schedule            string
	ScheduleEnabled     bool
	SearchWeight        float64
	WebWeight           float64
	SocialWeight        float64
	TechnicalWeight     float64
	ContentWeight       float64
	ChannelFetchTimeout time.Duration
}

// SearchConsoleConfig holds Google Search Console API settings
type SearchConsoleConfig struct {
	SiteURL     string
	AccessToken string
	BaseURL     string
	RowLimit    int
}

// GA4Config holds Google Analytics Data API settings
type GA4Config struct {
	PropertyID  string
	AccessToken string
	BaseURL     string
}

// MetaConfig holds Meta Graph API settings
type MetaConfig struct {
	PageID      string
	AccessToken string
	APIVersion  string
	BaseURL     string
}

// HTTPClientConfig tunes the outbound analytics API clients
type HTTPClientConfig struct {
	Timeout        time.Duration
	RatePerSecond  float64
	Burst          int
	RetryAttempts  int
	RetryBaseDelay time.Duration
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// CORSConfig holds allowed browser origins
type CORSConfig struct {
	AllowedOrigins []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("ENV", "development"),
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 5000),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "sitepulse"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		History: HistoryConfig{
			Backend:       strings.ToLower(getEnv("HISTORY_BACKEND", HistoryBackendFile)),
			Dir:           getEnv("HISTORY_DIR", "reports/history"),
			RetentionDays: getEnvAsInt("HISTORY_RETENTION_DAYS", 90),
			TailSize:      getEnvAsInt("HISTORY_TAIL_SIZE", 2),
		},
		Analysis: AnalysisConfig{
			DefaultDays:         getEnvAsInt("ANALYSIS_DEFAULT_DAYS", 30),
			DefaultSite:         getEnv("ANALYSIS_SITE_URL", ""),
			Schedule:            strings.ToLower(getEnv("ANALYSIS_SCHEDULE", ScheduleDaily)),
			ScheduleEnabled:     getEnvAsBool("ANALYSIS_SCHEDULE_ENABLED", false),
			SearchWeight:        getEnvAsFloat("SCORE_WEIGHT_SEARCH", 0.20),
			WebWeight:           getEnvAsFloat("SCORE_WEIGHT_WEB", 0.30),
			SocialWeight:        getEnvAsFloat("SCORE_WEIGHT_SOCIAL", 0.20),
			TechnicalWeight:     getEnvAsFloat("SCORE_WEIGHT_TECHNICAL", 0.15),
			ContentWeight:       getEnvAsFloat("SCORE_WEIGHT_CONTENT", 0.15),
			ChannelFetchTimeout: getEnvAsDuration("CHANNEL_FETCH_TIMEOUT", 60*time.Second),
		},
		SearchConsole: SearchConsoleConfig{
			SiteURL:     getEnv("GSC_SITE_URL", ""),
			AccessToken: getEnv("GSC_ACCESS_TOKEN", ""),
			BaseURL:     getEnv("GSC_BASE_URL", "https://searchconsole.googleapis.com"),
			RowLimit:    getEnvAsInt("GSC_ROW_LIMIT", 1000),
		},
		GA4: GA4Config{
			PropertyID:  getEnv("GA4_PROPERTY_ID", ""),
			AccessToken: getEnv("GA4_ACCESS_TOKEN", ""),
			BaseURL:     getEnv("GA4_BASE_URL", "https://analyticsdata.googleapis.com"),
		},
		Meta: MetaConfig{
			PageID:      getEnv("META_PAGE_ID", ""),
			AccessToken: getEnv("META_ACCESS_TOKEN", ""),
			APIVersion:  getEnv("META_API_VERSION", "v18.0"),
			BaseURL:     getEnv("META_BASE_URL", "https://graph.facebook.com"),
		},
		HTTPClient: HTTPClientConfig{
			Timeout:        getEnvAsDuration("HTTP_CLIENT_TIMEOUT", 30*time.Second),
			RatePerSecond:  getEnvAsFloat("HTTP_CLIENT_RATE", 5),
			Burst:          getEnvAsInt("HTTP_CLIENT_BURST", 5),
			RetryAttempts:  getEnvAsInt("HTTP_CLIENT_RETRY_ATTEMPTS", 3),
			RetryBaseDelay: getEnvAsDuration("HTTP_CLIENT_RETRY_DELAY", 500*time.Millisecond),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "sitepulse-analyst"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"*"}),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with
func (c *Config) Validate() error {
	switch c.History.Backend {
	case HistoryBackendFile, HistoryBackendPostgres:
	default:
		return fmt.Errorf("invalid HISTORY_BACKEND %q: use %s or %s", c.History.Backend, HistoryBackendFile, HistoryBackendPostgres)
	}
	if c.History.RetentionDays < 1 {
		return fmt.Errorf("HISTORY_RETENTION_DAYS must be positive, got %d", c.History.RetentionDays)
	}
	if c.History.TailSize < 2 {
		return fmt.Errorf("HISTORY_TAIL_SIZE must be at least 2, got %d", c.History.TailSize)
	}

	switch c.Analysis.Schedule {
	case ScheduleDaily, ScheduleWeekly, ScheduleMonthly:
	default:
		return fmt.Errorf("invalid ANALYSIS_SCHEDULE %q: use daily, weekly or monthly", c.Analysis.Schedule)
	}
	if c.Analysis.DefaultDays < 1 {
		return fmt.Errorf("ANALYSIS_DEFAULT_DAYS must be positive, got %d", c.Analysis.DefaultDays)
	}

	weights := []float64{
		c.Analysis.SearchWeight, c.Analysis.WebWeight, c.Analysis.SocialWeight,
		c.Analysis.TechnicalWeight, c.Analysis.ContentWeight,
	}
	sum := 0.0
	for _, w := range weights {
		if w < 0 {
			return fmt.Errorf("score weights must be non-negative, got %v", w)
		}
		sum += w
	}
	if math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("score weights must sum to 1, got %.4f", sum)
	}

	if c.HTTPClient.RatePerSecond <= 0 {
		return fmt.Errorf("HTTP_CLIENT_RATE must be positive, got %v", c.HTTPClient.RatePerSecond)
	}
	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ScheduleDays returns the analysis period for a schedule name
func ScheduleDays(schedule string) int {
	switch strings.ToLower(schedule) {
	case ScheduleDaily:
		return 1
	case ScheduleWeekly:
		return 7
	default:
		return 30
	}
}

// ScheduleInterval returns how often a schedule runs
func ScheduleInterval(schedule string) time.Duration {
	return time.Duration(ScheduleDays(schedule)) * 24 * time.Hour
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
