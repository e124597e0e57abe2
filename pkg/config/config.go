package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// ErrConfiguration is returned when required settings are missing or
// invalid. Wrapped messages name the missing keys, never their values.
var ErrConfiguration = errors.New("configuration error")

// Config holds all configuration for the application.
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Database configuration
	Database DatabaseConfig `mapstructure:"database"`

	// LLM configuration
	LLM LLMConfig `mapstructure:"llm"`

	// Cache configuration
	Cache CacheConfig `mapstructure:"cache"`

	// Data paths for the ETL pipeline
	Data DataConfig `mapstructure:"data"`

	// CircuitBreaker configuration for the LLM boundary
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// DatabaseConfig holds the Neo4j connection profile.
type DatabaseConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// LLMConfig holds the hosted-model endpoint configuration.
type LLMConfig struct {
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`

	// MaxIterations bounds the tool-calling loop per question.
	MaxIterations int `mapstructure:"max_iterations"`

	// HistorySize bounds the retained chat turns.
	HistorySize int `mapstructure:"history_size"`
}

// CacheConfig holds query-cache configuration.
type CacheConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	TTLSeconds int  `mapstructure:"ttl_seconds"`
}

// DataConfig holds ETL input locations.
type DataConfig struct {
	NotesDir     string `mapstructure:"notes_dir"`
	DrugbankFile string `mapstructure:"drugbank_file"`

	// NoteLimit caps how many note files one pipeline run processes;
	// zero means no cap.
	NoteLimit int `mapstructure:"note_limit"`
}

// CircuitBreakerConfig holds configuration for the breaker around LLM calls.
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout"`  // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(config)

	return config, nil
}

// Validate checks that the settings needed by every entrypoint are set.
func (c *Config) Validate() error {
	var missing []string

	if c.Database.URI == "" {
		missing = append(missing, "database.uri")
	}
	if c.Database.Password == "" {
		missing = append(missing, "database.password (NEO4J_PASSWORD)")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrConfiguration, strings.Join(missing, ", "))
	}
	return nil
}

// ValidateLLM additionally checks the LLM endpoint settings. Only the
// agent-facing entrypoints require them; the ETL pipeline does not.
func (c *Config) ValidateLLM() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("%w: missing llm.api_key (OPENAI_API_KEY)", ErrConfiguration)
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")

	// Database defaults
	viper.SetDefault("database.uri", "bolt://localhost:7687")
	viper.SetDefault("database.username", "neo4j")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.database", "neo4j")

	// LLM defaults
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.temperature", 0.0)
	viper.SetDefault("llm.max_tokens", 1024)
	viper.SetDefault("llm.max_iterations", 5)
	viper.SetDefault("llm.history_size", 10)

	// Cache defaults
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.ttl_seconds", 3600)

	// Data defaults
	viper.SetDefault("data.notes_dir", "data/notes")
	viper.SetDefault("data.drugbank_file", "data/drugbank/drugbank.csv")
	viper.SetDefault("data.note_limit", 0)

	// Circuit breaker defaults
	viper.SetDefault("circuit_breaker.enabled", true)
	viper.SetDefault("circuit_breaker.max_requests", 1)
	viper.SetDefault("circuit_breaker.interval", 60)
	viper.SetDefault("circuit_breaker.timeout", 30)
	viper.SetDefault("circuit_breaker.ready_to_trip_ratio", 0.6)
}

// overrideWithEnv overrides config with environment variables.
func overrideWithEnv(config *Config) {
	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		config.Database.URI = uri
	}
	if user := os.Getenv("NEO4J_USER"); user != "" {
		config.Database.Username = user
	}
	if user := os.Getenv("NEO4J_USERNAME"); user != "" {
		config.Database.Username = user
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		config.Database.Password = pass
	}
	if db := os.Getenv("NEO4J_DATABASE"); db != "" {
		config.Database.Database = db
	}

	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.LLM.APIKey = apiKey
	}
	if baseURL := os.Getenv("LLM_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if model := os.Getenv("LLM_MODEL"); model != "" {
		config.LLM.Model = model
	}

	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		viper.Set("server.port", port)
		config.Server.Port = viper.GetInt("server.port")
	}

	if dir := os.Getenv("NOTES_DIR"); dir != "" {
		config.Data.NotesDir = dir
	}
	if file := os.Getenv("DRUGBANK_FILE"); file != "" {
		config.Data.DrugbankFile = file
	}
}
