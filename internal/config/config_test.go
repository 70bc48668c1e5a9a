package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, 5000, cfg.Server.Port)
	require.Equal(t, 1500, cfg.Market.QuoteTimeoutMs)
	require.Equal(t, "yahoo", cfg.Market.Provider)
	require.Equal(t, 168, cfg.Auth.TokenTTLHours)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
market:
  provider: none
  quote_timeout_ms: 200
store:
  sqlite:
    path: /tmp/x.db
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "none", cfg.Market.Provider)
	require.Equal(t, 200, cfg.Market.QuoteTimeoutMs)
	require.Equal(t, "/tmp/x.db", cfg.Store.Sqlite.Path)
	// untouched nested defaults survive
	require.Equal(t, 5000, cfg.Market.SearchTimeoutMs)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("MARKET_PROVIDER", "NONE")
	t.Setenv("MARKET_TIMEOUT_MS", "300")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 7000, cfg.Server.Port)
	require.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	require.Equal(t, "none", cfg.Market.Provider)
	require.Equal(t, 300, cfg.Market.QuoteTimeoutMs)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Run("port", func(t *testing.T) {
		t.Setenv("PORT", "abc")
		_, err := Load("")
		require.Error(t, err)
	})
	t.Run("provider", func(t *testing.T) {
		_, err := Load(writeConfig(t, "market:\n  provider: bloomberg\n"))
		require.ErrorContains(t, err, "market.provider")
	})
	t.Run("search timeout", func(t *testing.T) {
		_, err := Load(writeConfig(t, "market:\n  search_timeout_ms: 0\n"))
		require.ErrorContains(t, err, "market.search_timeout_ms")
	})
	t.Run("history timeout", func(t *testing.T) {
		_, err := Load(writeConfig(t, "market:\n  history_timeout_ms: -5\n"))
		require.ErrorContains(t, err, "market.history_timeout_ms")
	})
	t.Run("yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "server: [\n"))
		require.ErrorContains(t, err, "parse config")
	})
}
