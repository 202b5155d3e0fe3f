// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like DATABASE_POSTGRES_PASSWORD
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, ignored when absent.
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptySecrets(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile tries .env from the working directory and its ancestors so the
// loader behaves the same from cmd/, tests, and the repo root.
func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env", "../../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string config values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		if strVal, ok := v.Get(key).(string); ok {
			if strings.Contains(strVal, "${") {
				if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// overrideEmptySecrets fills credentials from plain env vars when the YAML
// left them blank.
func overrideEmptySecrets(cfg *Config) {
	if cfg.APIs.GenAI.APIKey == "" {
		cfg.APIs.GenAI.APIKey = os.Getenv("GENAI_API_KEY")
	}
	if cfg.APIs.WebSearch.APIKey == "" {
		cfg.APIs.WebSearch.APIKey = os.Getenv("WEB_SEARCH_API_KEY")
	}
	if cfg.APIs.WebSearch.SearchEngineID == "" {
		cfg.APIs.WebSearch.SearchEngineID = os.Getenv("WEB_SEARCH_ENGINE_ID")
	}
	if cfg.Database.Postgres.Password == "" {
		cfg.Database.Postgres.Password = os.Getenv("POSTGRES_PASSWORD")
	}
	if cfg.Database.Redis.Password == "" {
		cfg.Database.Redis.Password = os.Getenv("REDIS_PASSWORD")
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "agenda-orchestrator"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.MetricsAddress == "" {
		cfg.Server.MetricsAddress = ":9090"
	}
	if cfg.Database.Postgres.Host == "" {
		cfg.Database.Postgres.Host = "localhost"
	}
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 20
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}
	if cfg.Database.Elasticsearch.SessionIndex == "" {
		cfg.Database.Elasticsearch.SessionIndex = "conference-sessions"
	}
	if cfg.APIs.GenAI.TimeoutMS == 0 {
		cfg.APIs.GenAI.TimeoutMS = 10000
	}
	if cfg.APIs.GenAI.MaxRetries == 0 {
		cfg.APIs.GenAI.MaxRetries = 2
	}
	if cfg.APIs.WebSearch.TimeoutMS == 0 {
		cfg.APIs.WebSearch.TimeoutMS = 5000
	}
	if cfg.APIs.WebSearch.MaxResults == 0 {
		cfg.APIs.WebSearch.MaxResults = 5
	}
	if cfg.APIs.WebSearch.MinRelevance == 0 {
		cfg.APIs.WebSearch.MinRelevance = 0.5
	}
	if cfg.Orchestrator.SessionTTLMinutes == 0 {
		cfg.Orchestrator.SessionTTLMinutes = 30
	}
	if cfg.Orchestrator.MaxBuildAttempts == 0 {
		cfg.Orchestrator.MaxBuildAttempts = 3
	}
	if cfg.Agenda.MaxSessionsPerDay == 0 {
		cfg.Agenda.MaxSessionsPerDay = 8
	}
	if cfg.Agenda.ConferenceDays == 0 {
		cfg.Agenda.ConferenceDays = 3
	}
	if cfg.Agenda.ConferenceStart == "" {
		cfg.Agenda.ConferenceStart = "2025-10-14"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}
	if cfg.Notifications.Enabled && cfg.Notifications.FromEmail == "" {
		return fmt.Errorf("notifications.from_email is required when notifications are enabled")
	}
	return nil
}
