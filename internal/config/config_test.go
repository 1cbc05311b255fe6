package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.sults.com.br/api/v1/expansao", cfg.Sults.BaseURL)
	assert.Equal(t, int64(1), cfg.Sults.FunnelID)
	assert.Equal(t, 100, cfg.Sults.PageSize)
	assert.Equal(t, 51, cfg.Sults.MaxPages)
	assert.Equal(t, 30, cfg.Sults.TimeoutSecs)
	assert.Equal(t, 3, cfg.Sults.MaxRetries)
	assert.Empty(t, cfg.Sults.Token)

	assert.Equal(t, []int64{7286, 4918, 2067, 2090}, cfg.Filter.BlacklistIDs)
	assert.Equal(t, 5, cfg.Enrich.GroupSize)

	assert.Len(t, cfg.Franchise.CitiesMG, 24)
	assert.Contains(t, cfg.Franchise.CitiesMG, "belo horizonte")
	assert.Equal(t, []string{"anapolis", "aparecida de goiania", "goiania"}, cfg.Franchise.CitiesGO)

	assert.InDelta(t, 200000.0, cfg.Scoring.InvestmentCap, 0.001)
	assert.InDelta(t, 1000.0, cfg.Scoring.MinInvestment, 0.001)
	assert.InDelta(t, 3.0, cfg.Scoring.Weights.Location, 0.001)
	assert.InDelta(t, 2.0, cfg.Scoring.Weights.Investment, 0.001)
	assert.InDelta(t, 0.5, cfg.Scoring.Weights.Recency, 0.001)
	assert.InDelta(t, 4.09, cfg.Scoring.Thresholds.MQLPlus, 0.001)
	assert.InDelta(t, 3.58, cfg.Scoring.Thresholds.MQL, 0.001)
	assert.InDelta(t, 3.0, cfg.Scoring.Thresholds.LeadPlus, 0.001)
	assert.InDelta(t, 0.62, cfg.Scoring.Thresholds.Lead, 0.001)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "leadscore.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
sults:
  token: tok-123
  page_size: 50
store:
  driver: postgres
  database_url: postgres://localhost/leads
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "tok-123", cfg.Sults.Token)
	assert.Equal(t, 50, cfg.Sults.PageSize)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	// Defaults still apply for unset values
	assert.Equal(t, 51, cfg.Sults.MaxPages)
	assert.Equal(t, 5, cfg.Enrich.GroupSize)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
sults:
  token: from-file
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("LEADSCORE_SULTS_TOKEN", "from-env")
	t.Setenv("LEADSCORE_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "from-env", cfg.Sults.Token)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())

	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
}

func TestInitLoggerBadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "verbose", Format: "json"})
	assert.Error(t, err)
}
