package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultBootstrapIsLoadable(t *testing.T) {
	cfg := DefaultBootstrap()
	require.Equal(t, 16, cfg.Arena.MaxHeaps)
	require.Equal(t, "porpoise_sram.cfg", cfg.SRAM.Path)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "porpoise.toml")
	const body = `
[arena]
mem1_bytes = 16777216
max_heaps = 4

[sram]
path = "custom_sram.cfg"

[default]
video_mode = "pal"
language = 2
progressive = true
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, int64(16777216), cfg.Arena.MEM1Bytes)
	require.Equal(t, 4, cfg.Arena.MaxHeaps)
	require.Equal(t, "custom_sram.cfg", cfg.SRAM.Path)
	require.Equal(t, "pal", cfg.Default.VideoMode)
	require.Equal(t, uint8(2), cfg.Default.Language)
	require.True(t, cfg.Default.Progressive)

	// A field omitted from the file keeps DefaultBootstrap's value.
	require.Equal(t, "stereo", cfg.Default.SoundMode)
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}
