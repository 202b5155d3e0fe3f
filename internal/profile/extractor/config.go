// internal/profile/extractor/config.go
package extractor

import "time"

type Config struct {
	GenAIBaseURL string
	APIKey       string
	Timeout      time.Duration
	MaxRetries   int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    10 * time.Second,
		MaxRetries: 2,
	}
}
