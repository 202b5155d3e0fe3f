// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Database      DatabaseConfig     `mapstructure:"database"`
	APIs          APIsConfig         `mapstructure:"apis"`
	Orchestrator  OrchestratorConfig `mapstructure:"orchestrator"`
	Agenda        AgendaConfig       `mapstructure:"agenda"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address        string `mapstructure:"address"`
	MetricsAddress string `mapstructure:"metrics_address"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
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
}

type ElasticsearchConfig struct {
	Addresses    []string `mapstructure:"addresses"`
	Username     string   `mapstructure:"username"`
	Password     string   `mapstructure:"password"`
	SessionIndex string   `mapstructure:"session_index"`
}

// APIsConfig holds the external AI and search endpoints.
type APIsConfig struct {
	GenAI     GenAIConfig     `mapstructure:"genai"`
	WebSearch WebSearchConfig `mapstructure:"web_search"`
}

type GenAIConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	TimeoutMS  int    `mapstructure:"timeout"` // milliseconds
	MaxRetries int    `mapstructure:"max_retries"`
}

type WebSearchConfig struct {
	BaseURL        string  `mapstructure:"base_url"`
	APIKey         string  `mapstructure:"api_key"`
	SearchEngineID string  `mapstructure:"search_engine_id"`
	TimeoutMS      int     `mapstructure:"timeout"` // per-query, milliseconds
	MaxResults     int     `mapstructure:"max_results"`
	MinRelevance   float64 `mapstructure:"min_relevance"`
}

// OrchestratorConfig tunes the conversation state machine.
type OrchestratorConfig struct {
	SessionTTLMinutes int `mapstructure:"session_ttl_minutes"`
	MaxBuildAttempts  int `mapstructure:"max_build_attempts"`
}

// AgendaConfig tunes the default agenda builder.
type AgendaConfig struct {
	MaxSessionsPerDay int    `mapstructure:"max_sessions_per_day"`
	IncludeMeals      bool   `mapstructure:"include_meals"`
	ConferenceDays    int    `mapstructure:"conference_days"`
	ConferenceStart   string `mapstructure:"conference_start"` // "2006-01-02"
}

type NotificationConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	AWSRegion string `mapstructure:"aws_region"`
	FromEmail string `mapstructure:"from_email"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
