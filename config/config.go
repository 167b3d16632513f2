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

type Config struct {
	// Server
	Port        string
	Environment string

	// Conversation memory
	Memory MemoryConfig

	// Database (only used when Memory.Backend is "mongodb")
	Database DatabaseConfig

	// Generation backend
	AI AIConfig

	// Content retriever
	Retriever RetrieverConfig

	// Logging
	LogDir string

	// Security
	Security SecurityConfig
}

type MemoryConfig struct {
	// Backend selects the single production ConversationMemory
	// implementation: "memory" or "mongodb".
	Backend string

	// Window bounds the per-user turn history; oldest turns are evicted.
	Window int
}

type DatabaseConfig struct {
	URI      string
	Name     string
	Host     string
	Port     string
	Username string
	Password string

	MaxConnections int
	MinConnections int
	MaxIdleTime    time.Duration
}

type AIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration

	// Rate limiting for outbound generation calls
	MinRequestInterval   time.Duration
	MaxRequestsPerMinute int
	MaxRequestsPerDay    int
}

type RetrieverConfig struct {
	// Backend selects the content source: "corpus" (flat-file snippets)
	// or "web" (live fetch from trusted medical sources).
	Backend    string
	CorpusPath string
	Timeout    time.Duration
}

type SecurityConfig struct {
	AdminSecret    string
	AllowedOrigins []string
}

var cfg *Config

// Load initializes the configuration from the environment.
func Load() error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg = &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		Memory: MemoryConfig{
			Backend: getEnv("MEMORY_BACKEND", "memory"),
			Window:  getEnvAsInt("MEMORY_WINDOW", 15),
		},

		Database: DatabaseConfig{
			URI:      getEnv("DATABASE_URL", ""),
			Name:     getEnv("DB_NAME", "petal_chatbot"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "27017"),
			Username: getEnv("DB_USERNAME", ""),
			Password: getEnv("DB_PASSWORD", ""),

			MaxConnections: getEnvAsInt("DB_MAX_CONNECTIONS", 100),
			MinConnections: getEnvAsInt("DB_MIN_CONNECTIONS", 10),
			MaxIdleTime:    getEnvAsDuration("DB_MAX_IDLE_TIME", "30m"),
		},

		AI: AIConfig{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Model:       getEnv("AI_MODEL", "gpt-3.5-turbo"),
			BaseURL:     getEnv("AI_BASE_URL", ""),
			MaxTokens:   getEnvAsInt("AI_MAX_TOKENS", 700),
			Temperature: getEnvAsFloat("AI_TEMPERATURE", 0.8),
			Timeout:     getEnvAsDuration("AI_TIMEOUT", "30s"),

			MinRequestInterval:   getEnvAsDuration("AI_MIN_REQUEST_INTERVAL", "1s"),
			MaxRequestsPerMinute: getEnvAsInt("AI_MAX_REQUESTS_PER_MINUTE", 25),
			MaxRequestsPerDay:    getEnvAsInt("AI_MAX_REQUESTS_PER_DAY", 800),
		},

		Retriever: RetrieverConfig{
			Backend:    getEnv("RETRIEVER_BACKEND", "corpus"),
			CorpusPath: getEnv("RETRIEVER_CORPUS_PATH", "./data/medical_content"),
			Timeout:    getEnvAsDuration("RETRIEVER_TIMEOUT", "10s"),
		},

		LogDir: getEnv("LOG_DIR", "./logs"),

		Security: SecurityConfig{
			AdminSecret:    getEnv("ADMIN_SECRET", ""),
			AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		},
	}

	if err := validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	return nil
}

// Get returns the loaded configuration
func Get() *Config {
	if cfg == nil {
		log.Fatal("Configuration not loaded. Call Load() first")
	}
	return cfg
}

// AIEnabled reports whether a generation backend is configured. A missing
// key is not an error: the pipeline runs fully degraded on templates.
func (c *Config) AIEnabled() bool {
	return c.AI.APIKey != ""
}

// BuildDatabaseURI constructs the MongoDB URI if not provided directly.
func (c *Config) BuildDatabaseURI() string {
	if c.Database.URI != "" {
		return c.Database.URI
	}

	if c.Database.Username != "" && c.Database.Password != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%s/%s",
			c.Database.Username,
			c.Database.Password,
			c.Database.Host,
			c.Database.Port,
			c.Database.Name,
		)
	}
	return fmt.Sprintf("mongodb://%s:%s/%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

func validate() error {
	switch cfg.Memory.Backend {
	case "memory", "mongodb":
	default:
		return fmt.Errorf("unsupported memory backend: %s", cfg.Memory.Backend)
	}

	switch cfg.Retriever.Backend {
	case "corpus", "web":
	default:
		return fmt.Errorf("unsupported retriever backend: %s", cfg.Retriever.Backend)
	}

	if cfg.Memory.Window < 1 {
		return fmt.Errorf("memory window must be at least 1, got %d", cfg.Memory.Window)
	}

	return nil
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	return strings.Split(value, ",")
}
