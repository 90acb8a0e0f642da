package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/stalker/game/ai"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 9090\n"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Mode)
	assert.Equal(t, "stalker:notifications", cfg.Cache.RelayChannel)
	assert.Equal(t, 50*time.Millisecond, cfg.Sim.TickInterval())
	assert.Equal(t, 10*time.Second, cfg.Sim.StatusInterval)
	assert.Equal(t, 1500*time.Millisecond, cfg.Agent.StareDuration)
	assert.True(t, cfg.Agent.ScanOnGiveUp)

	// the defaults are the same tuning the agents ship with
	rt := cfg.Agent.Runtime()
	def := ai.DefaultConfig()
	assert.InDelta(t, def.ViewAngle, rt.ViewAngle, 1e-12)
	assert.InDelta(t, def.SearchSpread, rt.SearchSpread, 1e-12)
	assert.InDelta(t, def.ScanAngle, rt.ScanAngle, 1e-12)
	assert.Equal(t, def.StareDuration, rt.StareDuration)
	assert.Equal(t, def.KillRange, rt.KillRange)
	assert.Equal(t, def.SearchPoints, rt.SearchPoints)
	assert.Equal(t, def.PointTimeout, rt.PointTimeout)
	assert.Equal(t, def.ChaseSpeed, rt.ChaseSpeed)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
sim:
  tick_ms: 20
  seed: 42
agent:
  view_angle_deg: 120
  stare_duration: 250ms
  scan_on_give_up: false
`))
	require.NoError(t, err)
	assert.Equal(t, int64(42), cfg.Sim.Seed)
	assert.Equal(t, 20*time.Millisecond, cfg.Sim.TickInterval())

	rt := cfg.Agent.Runtime()
	assert.InDelta(t, 2*math.Pi/3, rt.ViewAngle, 1e-12)
	assert.InDelta(t, 0.25, rt.StareDuration, 1e-12)
	assert.False(t, rt.ScanOnGiveUp)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(writeConfig(t, "agent:\n  search_min_distance: 8\n  search_max_distance: 4\n"))
	assert.ErrorIs(t, err, ai.ErrInvalidConfig)

	_, err = Load(writeConfig(t, "agent:\n  kill_range: 0\n"))
	assert.ErrorIs(t, err, ai.ErrInvalidConfig)

	_, err = Load(writeConfig(t, "agent:\n  view_angle_deg: 400\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "sim:\n  tick_ms: 0\n"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
