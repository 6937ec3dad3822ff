package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPlanningDefaults(t *testing.T) {
	cfg, err := LoadPlanning("")
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.PeriodDays)
	assert.Equal(t, 14, cfg.MalformedDateOffsetDays)
	assert.Equal(t, "ospo", cfg.IncomingPolicy)
	assert.InDelta(t, 12, cfg.EOQ.MaxOrdersPerPeriod, 1e-9)
	assert.True(t, cfg.EOQ.SafetyStockBeforeMOV)
	assert.False(t, cfg.Jitter.Enabled)

	caps := cfg.Capacities()
	assert.InDelta(t, 115000, caps[40], 1e-9)
	assert.InDelta(t, 165000, caps[772], 1e-9)
	assert.Equal(t, "STL - Sentul", cfg.WarehouseName(772))
	assert.Equal(t, "MTG - Menteng", cfg.HubName(98))
	assert.Equal(t, []int64{537, 758}, cfg.ExcludedHubs)
}

func TestLoadPlanningFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "planning.yaml")
	content := `
planning:
  period_days: 5
  cycles: 4
  eoq:
    max_orders_per_period: 24
  warehouses:
    - id: 1
      name: North
      daily_capacity: 1000
  categories:
    - category: Dry
      warehouses:
        - id: 1
          ratio: 1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadPlanning(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.PeriodDays)
	assert.Equal(t, 4, cfg.Cycles)
	assert.InDelta(t, 24, cfg.EOQ.MaxOrdersPerPeriod, 1e-9)
	// untouched keys keep their defaults
	assert.InDelta(t, 3, cfg.EOQ.MinDOIDays, 1e-9)
	assert.InDelta(t, 3, cfg.DOIPolicyDays, 1e-9)

	require.Len(t, cfg.Warehouses, 1)
	assert.Equal(t, "North", cfg.Warehouses[0].Name)
	require.Len(t, cfg.Categories, 1)
	assert.Equal(t, int64(1), cfg.Categories[0].Warehouses[0].ID)
	// hubs fall back to the defaults when the file omits them
	assert.NotEmpty(t, cfg.Hubs)
}

func TestLoadPlanningMissingFile(t *testing.T) {
	_, err := LoadPlanning(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
