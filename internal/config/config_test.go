package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "world-intel", cfg.Service.Name)
	assert.Equal(t, 8097, cfg.Service.Port)
	assert.Equal(t, 120, cfg.Feeds.MaxPerSource)
	assert.Equal(t, 8*time.Second, cfg.Feeds.Timeout)
	assert.Equal(t, 3, cfg.Feeds.Attempts)
	assert.Equal(t, 25, cfg.Enrich.MaxItems)
	assert.Equal(t, 3600, cfg.Enrich.CacheTTLSeconds)
	assert.Equal(t, 4000, cfg.Stream.IntervalMs)
	assert.Equal(t, 90*time.Second, cfg.Stream.MaxAge)
	assert.NotEmpty(t, cfg.Enrich.Models.ZeroShot)

	require.NoError(t, cfg.Validate())
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
service:
  port: 9001
feeds:
  timeout: 3s
enrich:
  max_items: 10
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Service.Port)
	assert.Equal(t, 3*time.Second, cfg.Feeds.Timeout)
	assert.Equal(t, 10, cfg.Enrich.MaxItems)
}

func TestEnvOverridesWin(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("API_SECRET", "sekrit")
	t.Setenv("MAX_HF_ENRICH", "7")
	t.Setenv("HF_USE_ENDPOINTS", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Service.Port)
	assert.Equal(t, "sekrit", cfg.Service.APISecret)
	assert.Equal(t, 7, cfg.Enrich.MaxItems)
	assert.True(t, cfg.Enrich.UseEndpoints)
}

func TestEnrichTokensFromJSON(t *testing.T) {
	t.Setenv("HF_TOKENS_JSON", `["tok-1","tok-2","tok-3"]`)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"tok-1", "tok-2", "tok-3"}, cfg.EnrichTokens())
}

func TestEnrichTokensFromScalars(t *testing.T) {
	t.Setenv("HF_TOKEN_B", "second")
	t.Setenv("HF_TOKEN_A", "first")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, cfg.EnrichTokens(), "numbered scalars stay ordered by suffix")
}

func TestEnrichTokensMalformedJSONFallsBack(t *testing.T) {
	t.Setenv("HF_TOKENS_JSON", `not json`)
	t.Setenv("HF_TOKEN_A", "scalar")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"scalar"}, cfg.EnrichTokens())
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Service.Port = -1
	assert.Error(t, cfg.Validate())
}
