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
	PDF      PDFConfig
	Kafka    KafkaConfig
	Log      LogConfig
	Ledger   LedgerConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr       string
	GRPCAddr       string
	MaxUploadBytes int
	StrictContract bool
	RequestTimeout time.Duration
}

// PDFConfig holds document-to-text configuration
type PDFConfig struct {
	Method    string // "native" | "pdftotext" | "auto"
	Pdftotext string
	MaxPages  int
}

// KafkaConfig holds result event publishing configuration
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// LogConfig controls the slog handler built by NewLogger.
type LogConfig struct {
	Level  string // "debug" | "info" | "warn" | "error"
	Format string // "text" | "json"
}

// LedgerConfig holds extraction defaults.
type LedgerConfig struct {
	DefaultResultDate string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", "file:ledger.db"),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			HTTPAddr:       getEnv("HTTP_ADDR", ":3000"),
			GRPCAddr:       getEnv("GRPC_ADDR", ":8080"),
			MaxUploadBytes: getEnvAsInt("MAX_UPLOAD_BYTES", 10*1024*1024),
			StrictContract: getEnvAsBool("STRICT_CONTRACT", false),
			RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 60*time.Second),
		},
		PDF: PDFConfig{
			Method:    getEnv("PDF_METHOD", "auto"),
			Pdftotext: getEnv("PDFTOTEXT_BIN", "pdftotext"),
			MaxPages:  getEnvAsInt("PDF_MAX_PAGES", 0),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvAsList("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_TOPIC", "ledger.results"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Ledger: LedgerConfig{
			DefaultResultDate: getEnv("DEFAULT_RESULT_DATE", ""),
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError(CodeConfig, "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" && c.Server.GRPCAddr == "" {
		return NewAppError(CodeConfig, "HTTP_ADDR or GRPC_ADDR is required", ErrInvalidInput)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return NewAppError(CodeConfig, "MAX_UPLOAD_BYTES must be positive", ErrInvalidInput)
	}
	switch c.PDF.Method {
	case "native", "pdftotext", "auto":
	default:
		return NewAppError(CodeConfig, "PDF_METHOD must be one of native|pdftotext|auto", ErrInvalidInput)
	}
	return nil
}
