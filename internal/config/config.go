package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIBaseURL         string        `yaml:"api_base_url"`
	GoogleClientID     string        `yaml:"google_client_id"`
	MicrosoftClientID  string        `yaml:"microsoft_client_id"`
	OAuthRedirectURI   string        `yaml:"oauth_redirect_uri"`
	TokenEncryptionKey string        `yaml:"token_encryption_key"`
	SessionDBPath      string        `yaml:"session_db_path"`
	LogLevel           string        `yaml:"log_level"`
	LogFormat          string        `yaml:"log_format"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	RequestsPerSecond  float64       `yaml:"requests_per_second"`
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment variables, in increasing order of precedence. path may be empty,
// in which case only defaults and the environment apply.
func Load(path string) (*Config, error) {
	cfg := &Config{
		APIBaseURL:        "http://localhost:3000/api",
		OAuthRedirectURI:  "http://localhost:8765/callback",
		SessionDBPath:     defaultSessionDBPath(),
		LogLevel:          "info",
		LogFormat:         "text",
		RequestTimeout:    15 * time.Second,
		RequestsPerSecond: 10,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(cfg)

	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("api_base_url is required")
	}

	if cfg.TokenEncryptionKey != "" {
		keyBytes, err := hex.DecodeString(cfg.TokenEncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("token_encryption_key must be valid hex: %w", err)
		}
		if len(keyBytes) != 32 {
			return nil, fmt.Errorf("token_encryption_key must be exactly 64 hex characters (32 bytes), got %d bytes", len(keyBytes))
		}
	}

	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("request_timeout must be positive")
	}
	if cfg.RequestsPerSecond <= 0 {
		return nil, fmt.Errorf("requests_per_second must be positive")
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	setEnv(&cfg.APIBaseURL, "VARA_API_BASE_URL")
	setEnv(&cfg.GoogleClientID, "VARA_GOOGLE_CLIENT_ID")
	setEnv(&cfg.MicrosoftClientID, "VARA_MICROSOFT_CLIENT_ID")
	setEnv(&cfg.OAuthRedirectURI, "VARA_OAUTH_REDIRECT_URI")
	setEnv(&cfg.TokenEncryptionKey, "VARA_TOKEN_ENCRYPTION_KEY")
	setEnv(&cfg.SessionDBPath, "VARA_SESSION_DB")
	setEnv(&cfg.LogLevel, "VARA_LOG_LEVEL")
	setEnv(&cfg.LogFormat, "VARA_LOG_FORMAT")

	if value := os.Getenv("VARA_REQUEST_TIMEOUT"); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			cfg.RequestTimeout = d
		}
	}
	if value := os.Getenv("VARA_REQUESTS_PER_SECOND"); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			cfg.RequestsPerSecond = f
		}
	}
}

func setEnv(target *string, key string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}

func defaultSessionDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "vara-session.db"
	}
	return filepath.Join(home, ".vara", "session.db")
}
