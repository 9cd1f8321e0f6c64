package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// LLMConfig selects the generative text service used by the openai parser.
// An empty provider disables it.
type LLMConfig struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	APIKey   string `json:"api_key"`
	BaseURL  string `json:"base_url"`
}

// Config represents the application configuration.
type Config struct {
	ListenAddr     string    `json:"listen_addr"`
	DatabaseDriver string    `json:"database_driver"`
	DatabaseURL    string    `json:"DATABASE_URL"`
	DefaultGroupID string    `json:"default_group_id"`
	VocabularyPath string    `json:"vocabulary_path"`
	SeedPath       string    `json:"seed_path"`
	AllowedOrigins []string  `json:"allowed_origins"`
	RequestTimeout Duration  `json:"request_timeout"`
	LLM            LLMConfig `json:"llm"`
}

// Duration is a time.Duration written as a string ("45s") in JSON.
type Duration time.Duration

// UnmarshalJSON implements the json.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		ListenAddr:     ":8080",
		DatabaseDriver: "postgres",
		DefaultGroupID: uuid.Nil.String(),
		AllowedOrigins: []string{"http://localhost:8081"},
		RequestTimeout: Duration(45 * time.Second),
	}
}

// Load reads the JSON config file at path (a missing file is not an error),
// loads .env if present and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	// .env is optional
	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setString("LISTEN_ADDR", &c.ListenAddr)
	setString("DATABASE_DRIVER", &c.DatabaseDriver)
	setString("DATABASE_URL", &c.DatabaseURL)
	setString("DEFAULT_GROUP_ID", &c.DefaultGroupID)
	setString("VOCABULARY_PATH", &c.VocabularyPath)
	setString("SEED_PATH", &c.SeedPath)
	setString("LLM_PROVIDER", &c.LLM.Provider)
	setString("LLM_MODEL", &c.LLM.Model)
	setString("LLM_API_KEY", &c.LLM.APIKey)
	setString("LLM_BASE_URL", &c.LLM.BaseURL)

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		// a bare number is read as seconds
		if d, err := time.ParseDuration(v); err == nil {
			c.RequestTimeout = Duration(d)
		} else if secs, err := strconv.Atoi(v); err == nil {
			c.RequestTimeout = Duration(time.Duration(secs) * time.Second)
		} else {
			return fmt.Errorf("invalid REQUEST_TIMEOUT %q: %w", v, err)
		}
	}
	return nil
}

// Validate checks the configuration for values the server cannot start with.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.DatabaseDriver)
	}
	if _, err := uuid.Parse(c.DefaultGroupID); err != nil {
		return fmt.Errorf("invalid default_group_id: %w", err)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request_timeout must be positive")
	}
	switch strings.ToLower(c.LLM.Provider) {
	case "", "gemini", "openai", "local", "ollama", "anthropic", "claude":
	default:
		return fmt.Errorf("unsupported llm provider %q", c.LLM.Provider)
	}
	return nil
}

// GroupID returns the parsed default group id.
func (c *Config) GroupID() uuid.UUID {
	id, err := uuid.Parse(c.DefaultGroupID)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// Timeout returns the request timeout as a time.Duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout)
}
