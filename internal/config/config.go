// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the application configuration.
type Config struct {
	DatabasePath    string
	RulesPath       string
	LogLevel        string
	CredentialsPath string
	TokenPath       string
	GmailRPS        int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath:    "./data/wall-e.db",
		RulesPath:       "./rules.json",
		LogLevel:        "info",
		CredentialsPath: "./gmail_credentials.json",
		TokenPath:       "./gmail_tokens.json",
		GmailRPS:        4,
	}

	if v := os.Getenv("DATABASE_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("RULES_PATH"); v != "" {
		cfg.RulesPath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("GMAIL_CREDENTIALS_PATH"); v != "" {
		cfg.CredentialsPath = v
	}
	if v := os.Getenv("GMAIL_TOKEN_PATH"); v != "" {
		cfg.TokenPath = v
	}
	if v := os.Getenv("GMAIL_RPS"); v != "" {
		rps, err := strconv.Atoi(v)
		if err != nil || rps < 0 {
			return nil, fmt.Errorf("invalid GMAIL_RPS %q", v)
		}
		cfg.GmailRPS = rps
	}

	return cfg, nil
}
