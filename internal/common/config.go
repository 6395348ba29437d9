package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Storage  StorageConfig
	Extract  ExtractConfig
	Batch    BatchConfig
	LLM      LLMConfig
	Security SecurityConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr    string
	GRPCAddr    string
	CORSOrigins []string
	// MaxUploadBytes caps a multipart request body.
	MaxUploadBytes int64
}

// StorageConfig holds filesystem locations
type StorageConfig struct {
	UploadDir string
}

// ExtractConfig holds PDF text extraction settings
type ExtractConfig struct {
	PDFToTextBin  string
	Timeout       time.Duration
	OCR           bool
	TesseractLang string
	TessdataDir   string
}

// BatchConfig holds batch import limits
type BatchConfig struct {
	MaxFiles      int
	DefaultWindow int
	LeaseTTL      time.Duration
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	APIURL      string
	Model       string
	APIKey      string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	FillTimeout time.Duration
	FillEnabled bool
}

// SecurityConfig holds at-rest encryption settings
type SecurityConfig struct {
	EncryptionKey string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			HTTPAddr:       getEnv("HTTP_ADDR", ":8000"),
			GRPCAddr:       getEnv("GRPC_ADDR", ":8081"),
			CORSOrigins:    getEnvAsList("CORS_ORIGINS", []string{"http://localhost:3000"}),
			MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_MB", 512)) << 20,
		},
		Storage: StorageConfig{
			UploadDir: getEnv("UPLOAD_DIR", "uploads/pdfs"),
		},
		Extract: ExtractConfig{
			PDFToTextBin:  getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Timeout:       getEnvAsDuration("EXTRACT_TIMEOUT", 60*time.Second),
			OCR:           getEnvAsBool("OCR_ENABLED", false),
			TesseractLang: getEnv("TESSERACT_LANG", "fra+ara"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
		},
		Batch: BatchConfig{
			MaxFiles:      getEnvAsInt("BATCH_MAX_FILES", 200),
			DefaultWindow: getEnvAsInt("BATCH_DEFAULT_WINDOW", 10),
			LeaseTTL:      getEnvAsDuration("BATCH_LEASE_TTL", 10*time.Minute),
		},
		LLM: LLMConfig{
			APIURL:      getEnv("OPENROUTER_API_URL", "https://openrouter.ai/api/v1/chat/completions"),
			Model:       getEnv("OPENROUTER_MODEL", "anthropic/claude-3.5-sonnet"),
			APIKey:      getEnv("OPENROUTER_API_KEY", ""),
			Temperature: getEnvAsFloat32("OPENROUTER_TEMPERATURE", 0.3),
			MaxTokens:   getEnvAsInt("OPENROUTER_MAX_TOKENS", 3000),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
			FillTimeout: getEnvAsDuration("LLM_FILL_TIMEOUT", 20*time.Second),
			FillEnabled: getEnvAsBool("LLM_FILL_ENABLED", true),
		},
		Security: SecurityConfig{
			EncryptionKey: getEnv("ENCRYPTION_KEY", ""),
		},
	}
}

// Helper functions for environment variable parsing
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

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// AIEnabled reports whether the LLM collaborator is configured.
func (c *Config) AIEnabled() bool {
	return c.LLM.APIKey != ""
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Security.EncryptionKey == "" {
		return NewAppError("CONFIG_ERROR", "ENCRYPTION_KEY is required", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Storage.UploadDir == "" {
		return NewAppError("CONFIG_ERROR", "UPLOAD_DIR is required", ErrInvalidInput)
	}
	if c.Batch.MaxFiles <= 0 || c.Batch.DefaultWindow <= 0 {
		return NewAppError("CONFIG_ERROR", "BATCH_MAX_FILES and BATCH_DEFAULT_WINDOW must be positive", ErrInvalidInput)
	}
	return nil
}
