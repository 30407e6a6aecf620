package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/futig/lessonplan-backend/internal/entity"
	pkgRetry "github.com/futig/lessonplan-backend/internal/pkg/retry"
	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr          string        `env:"SERVER_ADDR" envDefault:":5000"`
	ServerReadTimeout   time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	ServerWriteTimeout  time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"10m"`
	ServerIdleTimeout   time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	RequestTimeout      time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	PublicDownloadRoute string        `env:"PUBLIC_DOWNLOAD_ROUTE" envDefault:"/download/"`

	// Database configuration. Generation history falls back to memory when
	// DATABASE_URL is empty.
	DatabaseURL         string        `env:"DATABASE_URL"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"1"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`
	HistoryCapacity     int           `env:"HISTORY_CAPACITY" envDefault:"500"`

	// External service configuration
	LLMConnectorCfg LLMConnectorConfig `envPrefix:"LLM_"`

	// Files on disk
	PathsCfg PathsConfig

	// Logging configuration
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile       string `env:"LOG_FILE"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"100"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
	LogMaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"30"`

	// File upload configuration
	FileUploadCfg FileUploadConfig `envPrefix:"FILE_UPLOAD_"`

	// In-memory stores
	SessionCfg  SessionConfig  `envPrefix:"SESSION_"`
	DocumentCfg DocumentConfig `envPrefix:"DOCUMENT_"`

	RateLimitCfg RateLimitConfig `envPrefix:"RATE_LIMIT_"`

	// Fixed course fields used when the client does not send them
	DefaultCourseCfg DefaultCourseConfig `envPrefix:"DEFAULT_COURSE_"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// unioffice metered license key
	UnidocLicenseKey string `env:"UNIDOC_LICENSE_API_KEY"`

	// Environment (set from flag, not from env var)
	Environment string
}

type LLMConnectorConfig struct {
	HTTPClientConfig
	ChatEndpoint string               `env:"CHAT_ENDPOINT" envDefault:"/v1/chat/completions"`
	Model        string               `env:"MODEL" envDefault:"deepseek-chat"`
	Temperature  float64              `env:"TEMPERATURE" envDefault:"0.7"`
	MaxTokens    int                  `env:"MAX_TOKENS" envDefault:"4000"`
	LogPayload   bool                 `env:"LOG_PAYLOAD" envDefault:"false"`
	Retry        pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"60s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"60s"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL" envDefault:"https://api.deepseek.com"`
}

type PathsConfig struct {
	TemplatePath  string `env:"TEMPLATE_PATH" envDefault:"moban.docx"`
	OutputDir     string `env:"OUTPUT_DIR" envDefault:"output"`
	UploadDir     string `env:"UPLOAD_DIR" envDefault:"uploads"`
	PromptDumpDir string `env:"PROMPT_DUMP_DIR"`
	StaticDir     string `env:"STATIC_DIR" envDefault:"static"`
	SwaggerFile   string `env:"SWAGGER_FILE" envDefault:"docs/swagger.yaml"`
	PDFFontPath   string `env:"PDF_FONT_PATH"`
}

// FileUploadConfig holds file upload limits
type FileUploadConfig struct {
	MaxFileSize   int64 `env:"MAX_FILE_SIZE" envDefault:"20971520"`   // 20 MiB
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"22020096"` // 21 MiB, file plus form fields
}

type SessionConfig struct {
	TTL             time.Duration `env:"TTL" envDefault:"24h"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"10m"`
	Dir             string        `env:"DIR"`
	HeartbeatPeriod time.Duration `env:"HEARTBEAT_PERIOD" envDefault:"1s"`
}

type DocumentConfig struct {
	TTL             time.Duration `env:"TTL" envDefault:"24h"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"10m"`
}

type RateLimitConfig struct {
	Enabled     bool          `env:"ENABLED" envDefault:"true"`
	MaxRequests int           `env:"MAX_REQUESTS" envDefault:"30"`
	Window      time.Duration `env:"WINDOW" envDefault:"1m"`
}

type DefaultCourseConfig struct {
	Department string `env:"DEPARTMENT" envDefault:"智能装备学院"`
	Class      string `env:"CLASS" envDefault:"电气自动化（2）班"`
	Major      string `env:"MAJOR" envDefault:"电气自动化"`
	Course     string `env:"COURSE" envDefault:"电子焊接"`
	Teacher    string `env:"TEACHER" envDefault:"张老师"`
}

// CourseInfo returns the defaults as fixed course fields.
func (d DefaultCourseConfig) CourseInfo() entity.CourseInfo {
	return entity.CourseInfo{
		Department: d.Department,
		Class:      d.Class,
		Major:      d.Major,
		Course:     d.Course,
		Teacher:    d.Teacher,
	}
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg, err := Parse()
	if err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag

	return cfg, nil
}

// Parse reads and validates the configuration from the process environment.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errors []string

	if cfg.LLMConnectorCfg.Retry.Attempts < 1 || cfg.LLMConnectorCfg.Retry.Attempts > 5 {
		errors = append(errors, fmt.Sprintf("LLM_RETRY_ATTEMPTS must be between 1 and 5, got %d", cfg.LLMConnectorCfg.Retry.Attempts))
	}

	if cfg.LLMConnectorCfg.Retry.Delay > cfg.LLMConnectorCfg.Retry.MaxDelay {
		errors = append(errors, fmt.Sprintf("LLM_RETRY_DELAY (%s) must not exceed LLM_RETRY_MAX_DELAY (%s)",
			cfg.LLMConnectorCfg.Retry.Delay, cfg.LLMConnectorCfg.Retry.MaxDelay))
	}

	if cfg.LLMConnectorCfg.Temperature < 0 || cfg.LLMConnectorCfg.Temperature > 2 {
		errors = append(errors, fmt.Sprintf("LLM_TEMPERATURE must be between 0 and 2, got %v", cfg.LLMConnectorCfg.Temperature))
	}

	if cfg.LLMConnectorCfg.MaxTokens < 1 {
		errors = append(errors, fmt.Sprintf("LLM_MAX_TOKENS must be positive, got %d", cfg.LLMConnectorCfg.MaxTokens))
	}

	if cfg.PathsCfg.TemplatePath == "" {
		errors = append(errors, "TEMPLATE_PATH must not be empty")
	}

	if cfg.FileUploadCfg.MaxFileSize <= 0 || cfg.FileUploadCfg.MaxUploadSize < cfg.FileUploadCfg.MaxFileSize {
		errors = append(errors, fmt.Sprintf("FILE_UPLOAD_MAX_UPLOAD_SIZE (%d) must be at least FILE_UPLOAD_MAX_FILE_SIZE (%d) > 0",
			cfg.FileUploadCfg.MaxUploadSize, cfg.FileUploadCfg.MaxFileSize))
	}

	if cfg.RateLimitCfg.Enabled && (cfg.RateLimitCfg.MaxRequests < 1 || cfg.RateLimitCfg.Window <= 0) {
		errors = append(errors, "RATE_LIMIT_MAX_REQUESTS and RATE_LIMIT_WINDOW must be positive")
	}

	if cfg.SessionCfg.HeartbeatPeriod <= 0 {
		errors = append(errors, "SESSION_HEARTBEAT_PERIOD must be positive")
	}

	if cfg.DatabaseURL != "" {
		if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
			errors = append(errors, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns))
		}

		if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
			errors = append(errors, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
