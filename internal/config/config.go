// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultJWTSecret = "dev-secret-change-in-production"

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	JWT        JWTConfig        `yaml:"jwt"`
	LLM        LLMConfig        `yaml:"llm"`
	Logging    LoggingConfig    `yaml:"logging"`
	Validation ValidationConfig `yaml:"validation"`
}

type ServerConfig struct {
	GRPCPort         string `yaml:"grpc_port"`
	HTTPPort         string `yaml:"http_port"`
	Environment      string `yaml:"environment"`
	EnableReflection bool   `yaml:"enable_reflection"`
	AutoMigrate      bool   `yaml:"auto_migrate"`
	// ShutdownTimeout bounds graceful shutdown of both servers.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// ReadHeaderTimeout bounds how long an HTTP client may take to send headers.
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	Path     string `yaml:"path"`
}

type JWTConfig struct {
	Secret        string        `yaml:"secret"`
	TokenDuration time.Duration `yaml:"token_duration"`
}

type LLMConfig struct {
	Provider string        `yaml:"provider"`
	BaseURL  string        `yaml:"base_url"`
	Model    string        `yaml:"model"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ValidationConfig struct {
	MaxTitleLength       int `yaml:"max_title_length"`
	MaxDescriptionLength int `yaml:"max_description_length"`
	MaxCommentLength     int `yaml:"max_comment_length"`
	MaxMessageLength     int `yaml:"max_message_length"`
	MaxNameLength        int `yaml:"max_name_length"`
	MinPasswordLength    int `yaml:"min_password_length"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			GRPCPort:          "50051",
			HTTPPort:          "5000",
			Environment:       "development",
			EnableReflection:  false,
			AutoMigrate:       true,
			ShutdownTimeout:   10 * time.Second,
			ReadHeaderTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:  "postgres",
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			DBName:  "teamtask",
			SSLMode: "disable",
			Path:    "file:teamtask.db?_fk=1",
		},
		JWT: JWTConfig{
			Secret:        defaultJWTSecret,
			TokenDuration: 24 * time.Hour,
		},
		LLM: LLMConfig{
			Provider: "ollama",
			BaseURL:  "http://localhost:11434",
			Model:    "gemma3",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Validation: ValidationConfig{
			MaxTitleLength:       200,
			MaxDescriptionLength: 5000,
			MaxCommentLength:     5000,
			MaxMessageLength:     4000,
			MaxNameLength:        100,
			MinPasswordLength:    8,
		},
	}
}

// Load builds the configuration from defaults, the YAML file named by
// CONFIG_FILE (if set), and finally environment variables.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.GRPCPort = getEnv("GRPC_PORT", c.Server.GRPCPort)
	c.Server.HTTPPort = getEnv("HTTP_PORT", getEnv("PORT", c.Server.HTTPPort))
	c.Server.Environment = getEnv("ENVIRONMENT", c.Server.Environment)
	c.Server.EnableReflection = getEnvAsBool("ENABLE_REFLECTION", c.Server.EnableReflection)
	c.Server.AutoMigrate = getEnvAsBool("AUTO_MIGRATE", c.Server.AutoMigrate)
	c.Server.ShutdownTimeout = getEnvAsDuration("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.ReadHeaderTimeout = getEnvAsDuration("READ_HEADER_TIMEOUT", c.Server.ReadHeaderTimeout)

	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnvAsInt("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.DBName = getEnv("DB_NAME", c.Database.DBName)
	c.Database.SSLMode = getEnv("DB_SSL_MODE", c.Database.SSLMode)
	c.Database.Path = getEnv("DB_PATH", c.Database.Path)

	c.JWT.Secret = getEnv("JWT_SECRET", c.JWT.Secret)
	c.JWT.TokenDuration = getEnvAsDuration("JWT_TOKEN_DURATION", c.JWT.TokenDuration)

	c.LLM.Provider = getEnv("LLM_PROVIDER", c.LLM.Provider)
	c.LLM.BaseURL = getEnv("LLM_BASE_URL", getEnv("OLLAMA_URL", c.LLM.BaseURL))
	c.LLM.Model = getEnv("LLM_MODEL", c.LLM.Model)
	c.LLM.APIKey = getEnv("LLM_API_KEY", getEnv("GEMINI_API_KEY", c.LLM.APIKey))
	c.LLM.Timeout = getEnvAsDuration("LLM_TIMEOUT", c.LLM.Timeout)

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("LOG_FORMAT", c.Logging.Format)

	c.Validation.MinPasswordLength = getEnvAsInt("MIN_PASSWORD_LENGTH", c.Validation.MinPasswordLength)
}

// ValidateConfig reports every problem with the configuration at once.
func (c *Config) ValidateConfig() error {
	var errs []string

	switch c.Database.Driver {
	case "postgres", "pgx", "sqlite3":
	default:
		errs = append(errs, fmt.Sprintf("database.driver: unsupported driver %q", c.Database.Driver))
	}

	switch c.LLM.Provider {
	case "ollama":
		if c.LLM.BaseURL == "" {
			errs = append(errs, "llm.base_url is required for ollama")
		}
	case "gemini":
		if c.LLM.APIKey == "" {
			errs = append(errs, "llm.api_key is required for gemini")
		}
	default:
		errs = append(errs, fmt.Sprintf("llm.provider: unsupported provider %q", c.LLM.Provider))
	}

	if c.LLM.Model == "" {
		errs = append(errs, "llm.model is required")
	}
	if c.JWT.TokenDuration <= 0 {
		errs = append(errs, "jwt.token_duration must be positive")
	}
	if c.IsProduction() && (c.JWT.Secret == "" || c.JWT.Secret == defaultJWTSecret) {
		errs = append(errs, "jwt.secret must be set in production")
	}
	if c.Server.HTTPPort == "" || c.Server.GRPCPort == "" {
		errs = append(errs, "server ports are required")
	}
	if c.Server.ReadHeaderTimeout <= 0 {
		errs = append(errs, "server.read_header_timeout must be positive")
	}
	if c.Validation.MinPasswordLength < 6 {
		errs = append(errs, "validation.min_password_length must be at least 6")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	// Try parsing as duration string (e.g., "15m", "24h")
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}

	return defaultValue
}
