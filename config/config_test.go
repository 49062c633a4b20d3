package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fearrpc/discovery"
	"fearrpc/process"
)

func TestLoadWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", DefaultFile)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.FileExists(t, path)

	d := Default()
	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, d.AppID, cfg.AppID)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.ImageInterval)
	assert.Equal(t, d.Images, cfg.Images)
	assert.Equal(t, d.Session, cfg.Session)
	assert.Equal(t, d.Processes, cfg.Processes)
	assert.Equal(t, d.HealthChains, cfg.HealthChains)
	assert.Equal(t, d.Discovery, cfg.Discovery)
	assert.Equal(t, discovery.Bounds{Min: 0, Max: 200}, cfg.BoundsTable().Lookup("FEAR2"))
	assert.Equal(t, discovery.DefaultBounds, cfg.BoundsTable().Lookup("Condemned"))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(`
poll_interval = "500ms"

[session]
max_age = "48h"

[redis]
url = "redis://localhost:6379/0"

[health.FEAR]
min = 0
max = 120

[discovery]
death_offsets = [64, 128]

[[processes]]
version = "FEAR"
executable = "FEAR_custom.exe"

[[health_chains]]
description = "chain x: FEAR.exe+0894C"
offsets = [16, 32]
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 48*time.Hour, cfg.Session.MaxAge)
	assert.Equal(t, "Session.dat", cfg.Session.File)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	require.Len(t, cfg.Processes, 1)
	assert.Equal(t, "FEAR_custom.exe", cfg.Processes[0].Executable)
	assert.Equal(t, discovery.Bounds{Min: 0, Max: 120}, cfg.BoundsTable().Lookup("FEAR"))

	dc := cfg.DiscoveryConfig()
	assert.Equal(t, []int64{64, 128}, dc.DeathOffsets)
	require.Len(t, dc.HealthChains, 1)
	assert.Equal(t, []int64{16, 32}, dc.HealthChains[0].Offsets)
	off, ok := dc.Anchor(dc.HealthChains[0].Description)
	require.True(t, ok)
	assert.Equal(t, int64(0x0894C), off)
	assert.Equal(t, process.ProcessMemorySize(0x100000), dc.LevelWindow)
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	t.Setenv("FEARRPC_POLL_INTERVAL", "5s")
	t.Setenv("FEARRPC_SESSION_MAX_AGE", "1h")
	t.Setenv("FEARRPC_REDIS_CHANNEL", "other")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, time.Hour, cfg.Session.MaxAge)
	assert.Equal(t, "other", cfg.Redis.Channel)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.PollInterval = 0
	cfg.Health = discovery.BoundsTable{"FEAR": {Min: 10, Max: 5}}
	cfg.HealthChains = []HealthChain{{Description: "empty"}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll_interval")
	assert.Contains(t, err.Error(), "health.FEAR")
	assert.Contains(t, err.Error(), "health_chains[0]")
}

func TestBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte("poll_interval = [\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	cfg := Config{Path: filepath.Join("etc", "fearrpc", DefaultFile)}
	assert.Equal(t, filepath.Join("etc", "fearrpc", "Session.dat"), cfg.Resolve("Session.dat"))
	abs, err := filepath.Abs("x")
	require.NoError(t, err)
	assert.Equal(t, abs, cfg.Resolve(abs))
	assert.Equal(t, "", cfg.Resolve(""))
}

func TestWriteDefaultKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte("app_id = \"x\"\n"), 0644))
	require.NoError(t, WriteDefault(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "app_id = \"x\"\n", string(data))
}
