package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Store  StoreConfig  `yaml:"store"`
	Auth   AuthConfig   `yaml:"auth"`
	Market MarketConfig `yaml:"market"`
}

type ServerConfig struct {
	Port        int      `yaml:"port"`
	MaxBodyMB   int      `yaml:"max_body_mb"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

type StoreConfig struct {
	Sqlite SqliteConfig `yaml:"sqlite"`
}

type SqliteConfig struct {
	Path string `yaml:"path"`
}

type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`
}

type MarketConfig struct {
	// Provider selects the live quote source: "yahoo" or "none".
	Provider          string `yaml:"provider"`
	QuoteTimeoutMs    int    `yaml:"quote_timeout_ms"`
	SearchTimeoutMs   int    `yaml:"search_timeout_ms"`
	HistoryTimeoutMs  int    `yaml:"history_timeout_ms"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
	Burst             int    `yaml:"burst"`
	SearchEndpoint    string `yaml:"search_endpoint"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:      5000,
			MaxBodyMB: 10,
			CORSOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5173",
			},
		},
		Log: LogConfig{Level: "info", Format: "json", Output: "stdout"},
		Store: StoreConfig{
			Sqlite: SqliteConfig{Path: "data/finance.db"},
		},
		Auth: AuthConfig{TokenTTLHours: 7 * 24},
		Market: MarketConfig{
			Provider:          "yahoo",
			QuoteTimeoutMs:    1500,
			SearchTimeoutMs:   5000,
			HistoryTimeoutMs:  5000,
			RequestsPerMinute: 120,
			Burst:             10,
			SearchEndpoint:    "https://query2.finance.yahoo.com/v1/finance/search",
		},
	}
}

// Load reads the .env file (if any), then the YAML config at path on top of
// the defaults, then applies environment overrides. A missing config file is
// not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p <= 0 || p > 65535 {
			return fmt.Errorf("invalid PORT: %q", v)
		}
		cfg.Server.Port = p
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.Store.Sqlite.Path = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("MARKET_PROVIDER"); v != "" {
		cfg.Market.Provider = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("MARKET_TIMEOUT_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return fmt.Errorf("invalid MARKET_TIMEOUT_MS: %q", v)
		}
		cfg.Market.QuoteTimeoutMs = ms
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitCSV(v)
	}
	return nil
}

func (c *Config) validate() error {
	switch c.Market.Provider {
	case "yahoo", "none":
	default:
		return fmt.Errorf("invalid market.provider: %q", c.Market.Provider)
	}
	if c.Market.QuoteTimeoutMs <= 0 {
		return fmt.Errorf("market.quote_timeout_ms must be positive")
	}
	if c.Market.SearchTimeoutMs <= 0 {
		return fmt.Errorf("market.search_timeout_ms must be positive")
	}
	if c.Market.HistoryTimeoutMs <= 0 {
		return fmt.Errorf("market.history_timeout_ms must be positive")
	}
	if c.Auth.TokenTTLHours <= 0 {
		return fmt.Errorf("auth.token_ttl_hours must be positive")
	}
	return nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
