// Package config loads the bootstrap-time configuration that the original
// hardware had no equivalent of: arena sizes, SRAM path, and default
// locale/video settings were all build-time constants there, but a PC
// re-host needs a config-file loader as one of its external collaborators
// (spec.md §6).
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Bootstrap is the top-level configuration consumed by bootstrap.Init.
type Bootstrap struct {
	Arena   Arena   `toml:"arena"`
	SRAM    SRAM    `toml:"sram"`
	Default Default `toml:"default"`
}

// Arena controls the two host arenas standing in for MEM1 and MEM2.
type Arena struct {
	// MEM1Bytes and MEM2Bytes are the requested sizes, in bytes, of the two
	// arenas. A value of 0 means bootstrap.Init's fixed default size (64 MiB
	// for MEM1, 128 MiB for MEM2).
	MEM1Bytes int64 `toml:"mem1_bytes"`
	MEM2Bytes int64 `toml:"mem2_bytes"`
	MaxHeaps  int   `toml:"max_heaps"`
}

// SRAM controls the persistent settings store's backing file.
type SRAM struct {
	Path string `toml:"path"`
}

// Default seeds the SRAM image's settings fields the first time it is
// created.
type Default struct {
	VideoMode   string `toml:"video_mode"` // "ntsc", "pal", "mpal"
	SoundMode   string `toml:"sound_mode"` // "mono", "stereo"
	Language    uint8  `toml:"language"`
	Progressive bool   `toml:"progressive"`
}

// DefaultBootstrap is used whenever no config file is supplied.
func DefaultBootstrap() Bootstrap {
	return Bootstrap{
		Arena: Arena{
			MEM1Bytes: 0,
			MEM2Bytes: 0,
			MaxHeaps:  16,
		},
		SRAM: SRAM{
			Path: "porpoise_sram.cfg",
		},
		Default: Default{
			VideoMode: "ntsc",
			SoundMode: "stereo",
			Language:  0,
		},
	}
}

// Load reads and parses a TOML file at path, starting from DefaultBootstrap
// so that any field the file omits keeps its default.
func Load(path string) (Bootstrap, error) {
	cfg := DefaultBootstrap()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Bootstrap{}, fmt.Errorf("config: load %q: %w", path, err)
	}
	return cfg, nil
}
