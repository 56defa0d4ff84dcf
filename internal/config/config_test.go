package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hc.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[sim]
max_step = "100ms"
character = "ranger"

[integrity]
max_dps = 1234.5
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, cfg.Sim.MaxStep)
	assert.Equal(t, "ranger", cfg.Sim.Character)
	assert.Equal(t, 1234.5, cfg.Integrity.MaxDPS)
	// untouched keys keep defaults
	assert.Equal(t, 2*time.Second, cfg.Sim.DeathSlowmo)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[sim]\nslowmo_scale = 2.0\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("[sim\n"), 0o644))
	_, err := LoadOrDefault(path)
	assert.Error(t, err)
}

func TestSampleConfigMatchesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "hordecore.toml"))
	require.NoError(t, err)
	want := Default()
	want.Sim.TickRate = 16 * time.Millisecond
	want.Debug.Enabled = true
	assert.Equal(t, want, cfg)
}
