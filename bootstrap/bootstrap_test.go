package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wowjinxy/porpoise/sram"
)

func TestInitWithoutConfigFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir()) // Init("") writes its default SRAM path relative to cwd

	rt, err := Init("")
	require.NoError(t, err)
	require.NotNil(t, rt.MEM1)
	require.NotNil(t, rt.MEM2)
	require.Equal(t, 16, rt.Config.Arena.MaxHeaps)

	p := rt.MEM1.Alloc(rt.MEM1.CurrentHeap(), 128)
	require.NotZero(t, p)
}

func TestInitLoadsArenasOfRequestedSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "porpoise.toml")
	body := `
[arena]
mem1_bytes = 1048576
mem2_bytes = 2097152
max_heaps = 2

[sram]
path = "` + filepath.Join(t.TempDir(), "sram.cfg") + `"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	rt, err := Init(path)
	require.NoError(t, err)
	require.Equal(t, int64(1048576), rt.Config.Arena.MEM1Bytes)
	require.Equal(t, int64(2097152), rt.Config.Arena.MEM2Bytes)

	p := rt.MEM1.Alloc(rt.MEM1.CurrentHeap(), 128)
	require.NotZero(t, p)
}

func TestInitSeedsSRAMDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "porpoise.toml")
	body := `
[sram]
path = "` + filepath.Join(t.TempDir(), "sram.cfg") + `"

[default]
video_mode = "pal"
language = 5
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := Init(path)
	require.NoError(t, err)
	require.Equal(t, sram.VideoPAL, sram.GetVideoMode())
	require.Equal(t, uint8(5), sram.GetLanguage())
}
