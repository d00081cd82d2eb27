package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 2*time.Second, cfg.Poller.Interval)
	assert.Equal(t, 0, cfg.Server.MaxHistory)
	assert.Equal(t, "R(QR)", cfg.Feeder.Circuit)
	assert.Equal(t, ":3001", cfg.Server.HTTPAddress())
}

func TestLoadFromYAMLAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eisplot.yaml")
	yamlDoc := `
server:
  port: "8090"
  max_history: 500
poller:
  interval: 3s
feeder:
  circuit: R(CR)
  params: [10, 1.0e-6, 100]
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("EISPLOT_POLLER_TIMEOUT", "750ms")
	t.Setenv("EISPLOT_FEEDER_PARAMS", "20, 2e-6,200")
	t.Setenv("EISPLOT_QUIET", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8090", cfg.Server.HTTPAddress())
	assert.Equal(t, 500, cfg.Server.MaxHistory)
	assert.True(t, cfg.Server.Quiet)
	assert.Equal(t, 3*time.Second, cfg.Poller.Interval)
	assert.Equal(t, 750*time.Millisecond, cfg.Poller.Timeout)
	assert.Equal(t, "R(CR)", cfg.Feeder.Circuit)
	assert.Equal(t, []float64{20, 2e-6, 200}, cfg.Feeder.Params)
	assert.Equal(t, 5, cfg.Feeder.Workers)
}

func TestLoadRejectsBadEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("EISPLOT_MAX_HISTORY", "lots")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EISPLOT_MAX_HISTORY")
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.MaxHistory = -1
	cfg.Poller.Interval = 0
	cfg.Feeder.Workers = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_history")
	assert.Contains(t, err.Error(), "poller.interval")
	assert.Contains(t, err.Error(), "feeder.workers")
}

func TestLoadConfigTargetChecks(t *testing.T) {
	assert.Error(t, LoadConfig(nil))
	var notStruct int
	assert.Error(t, LoadConfig(&notStruct))
}
