package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Storage       StorageConfig      `mapstructure:"storage"`
	APIs          APIsConfig         `mapstructure:"apis"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Intake        IntakeConfig       `mapstructure:"intake"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address      string `mapstructure:"address"`
	MetricsPath  string `mapstructure:"metrics_path"`
	BodyLimit    int    `mapstructure:"body_limit"`    // bytes, multipart upload cap
	ReadTimeout  int    `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int    `mapstructure:"write_timeout"` // milliseconds
	ScopedHeader string `mapstructure:"scope_header"`  // header carrying the company scope
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	FormTTL  int    `mapstructure:"form_ttl"` // seconds, application form cache
}

// StorageConfig holds document store settings.
type StorageConfig struct {
	S3 struct {
		Region string `mapstructure:"region"`
		Bucket string `mapstructure:"bucket"`
		// Prefix is the key prefix under which category directories
		// (cvs, recordings) are created.
		Prefix string `mapstructure:"prefix"`
	} `mapstructure:"s3"`
}

// APIsConfig holds settings for external AI provider integrations.
type APIsConfig struct {
	OpenAI struct {
		APIKey             string  `mapstructure:"api_key"`
		Model              string  `mapstructure:"model"`
		TranscriptionModel string  `mapstructure:"transcription_model"`
		Temperature        float32 `mapstructure:"temperature"`
		MaxTokens          int     `mapstructure:"max_tokens"`
		Timeout            int     `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"openai"`
}

// NotificationConfig holds settings for candidate email dispatch.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
		Timeout   int    `mapstructure:"timeout"` // milliseconds, per recipient
	} `mapstructure:"email"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// IntakeConfig holds timeouts for the best-effort enrichment stage.
type IntakeConfig struct {
	ExtractionTimeout int `mapstructure:"extraction_timeout"` // milliseconds
	ScoringTimeout    int `mapstructure:"scoring_timeout"`    // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
