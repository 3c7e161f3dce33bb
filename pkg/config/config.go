package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	// LLMProvider selects the vision extractor: "openai" or "gigachat".
	LLMProvider string
	OpenAI      OpenAIConfig
	GigaChat    GigaChatConfig
	OCR         OCRConfig
	Cache       CacheConfig
	Pipeline    PipelineConfig
	Logger      LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type AuthConfig struct {
	SecretKey   string
	Expiration  time.Duration
	APIUser     string
	APIPassHash string
}

// OpenAIConfig configures the primary vision extractor.
type OpenAIConfig struct {
	APIKey string
	Model  string
}

// GigaChatConfig configures the alternative vision extractor.
type GigaChatConfig struct {
	APIKey             string
	Scope              string
	InsecureSkipVerify bool
}

type OCRConfig struct {
	// Languages passed to tesseract, e.g. "spa", "eng".
	Languages []string
}

type CacheConfig struct {
	// Backend selects the key-value store: "memory" or "bolt".
	Backend string
	Path    string
	TTL     time.Duration
}

// PipelineConfig holds the business thresholds of the reconciliation
// pipeline. The defaults are the values the extraction rules were calibrated
// with; they are configuration, not derived quantities.
type PipelineConfig struct {
	// TotalOverrideThreshold is the relative difference between the two
	// extractors' totals above which the OCR total wins.
	TotalOverrideThreshold float64
	// ItemSumTolerance is the relative tolerance between the item sum and
	// the document total before an anomaly is flagged.
	ItemSumTolerance float64
	// TaxRate is the VAT rate used to back-compute subtotal and IGV.
	TaxRate float64
}

func Load() (*Config, error) {
	// Optional .env; environment variables win (Docker/K8s friendly).
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "30"))
	jwtExp, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	cacheTTL, _ := strconv.Atoi(getEnv("CACHE_TTL_SECONDS", "604800"))
	insecureSkipVerify := getEnv("GIGACHAT_INSECURE_SKIP_VERIFY", "true") == "true"

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "gastoscan"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			SecretKey:   getEnv("JWT_SECRET_KEY", "your-secret-key-change-in-production"),
			Expiration:  time.Duration(jwtExp) * time.Hour,
			APIUser:     getEnv("AUTH_API_USER", "gastoscan"),
			APIPassHash: getEnv("AUTH_API_PASSWORD_HASH", ""),
		},
		LLMProvider: getEnv("LLM_PROVIDER", "openai"),
		OpenAI: OpenAIConfig{
			APIKey: getEnv("OPENAI_API_KEY", ""),
			Model:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		},
		GigaChat: GigaChatConfig{
			APIKey:             getEnv("GIGACHAT_API_KEY", ""),
			Scope:              getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
			InsecureSkipVerify: insecureSkipVerify,
		},
		OCR: OCRConfig{
			Languages: []string{getEnv("OCR_LANGUAGE", "spa"), "eng"},
		},
		Cache: CacheConfig{
			Backend: getEnv("CACHE_BACKEND", "memory"),
			Path:    getEnv("CACHE_PATH", "gastoscan-cache.db"),
			TTL:     time.Duration(cacheTTL) * time.Second,
		},
		Pipeline: PipelineConfig{
			TotalOverrideThreshold: getEnvFloat("PIPELINE_TOTAL_OVERRIDE_THRESHOLD", 0.4),
			ItemSumTolerance:       getEnvFloat("PIPELINE_ITEM_SUM_TOLERANCE", 0.02),
			TaxRate:                getEnvFloat("PIPELINE_TAX_RATE", 0.18),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
