// Package bootstrap wires the core together for a host process: runtime
// tuning, arena sizing, and SRAM loading, all performed once by Init before
// any other package is touched. On the original hardware every one of
// these was a fixed, known-good constant baked into the firmware; a PC
// re-host has to derive them from the host it actually finds itself on.
package bootstrap

import (
	"fmt"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"github.com/pbnjay/memory"
	"go.uber.org/automaxprocs/maxprocs"
	"golang.org/x/sync/errgroup"

	"github.com/wowjinxy/porpoise/alloc"
	"github.com/wowjinxy/porpoise/config"
	"github.com/wowjinxy/porpoise/debug"
	"github.com/wowjinxy/porpoise/sram"
)

// memoryFraction is the conservative ceiling placed on MEM1+MEM2's combined
// request against total host RAM; exceeding it is only logged, never
// fatal — the original hardware had no concept of "too much RAM requested".
const memoryFraction = 0.5

// defaultMEM1Bytes and defaultMEM2Bytes are used when a config leaves an
// arena size at its zero value, matching roughly the original console's
// MEM1/MEM2 proportions (24 MiB / 64 MiB) scaled up for a modern host.
const (
	defaultMEM1Bytes int64 = 64 << 20
	defaultMEM2Bytes int64 = 128 << 20
)

// Runtime bundles the two host arenas and the loaded configuration handed
// back by Init. The shutdown coordinator (package reset) and the alarm
// scheduler (package alarm) are process-wide singletons and need no handle
// of their own.
type Runtime struct {
	MEM1   *alloc.Arena
	MEM2   *alloc.Arena
	Config config.Bootstrap
}

// Init tunes the host process (GOMAXPROCS, GOMEMLIMIT), loads configPath if
// non-empty (otherwise config.DefaultBootstrap), sizes and creates the two
// arenas, and loads the SRAM store. It must be called exactly once, before
// any other package in this module is used.
func Init(configPath string) (*Runtime, error) {
	tuneRuntime()

	cfg := config.DefaultBootstrap()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	mem1Bytes := cfg.Arena.MEM1Bytes
	if mem1Bytes == 0 {
		mem1Bytes = defaultMEM1Bytes
	}
	mem2Bytes := cfg.Arena.MEM2Bytes
	if mem2Bytes == 0 {
		mem2Bytes = defaultMEM2Bytes
	}
	checkMemoryBudget(mem1Bytes, mem2Bytes)

	maxHeaps := cfg.Arena.MaxHeaps
	if maxHeaps <= 0 {
		maxHeaps = 16
	}

	// MEM1/MEM2 and the SRAM load touch disjoint state, so bring all three
	// up concurrently and fail on the first error.
	var mem1, mem2 *alloc.Arena
	var g errgroup.Group
	g.Go(func() error {
		mem1 = alloc.Init(make([]byte, mem1Bytes), maxHeaps)
		createDefaultHeap(mem1)
		return nil
	})
	g.Go(func() error {
		mem2 = alloc.Init(make([]byte, mem2Bytes), maxHeaps)
		createDefaultHeap(mem2)
		return nil
	})
	g.Go(func() error {
		if err := sram.Init(cfg.SRAM.Path); err != nil {
			return fmt.Errorf("bootstrap: sram: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seedSRAMDefaults(cfg.Default)

	return &Runtime{MEM1: mem1, MEM2: mem2, Config: cfg}, nil
}

// tuneRuntime adjusts GOMAXPROCS and GOMEMLIMIT to whatever cgroup quota the
// process is actually confined to; both are best-effort and log rather than
// fail, since a host outside any container has nothing to adjust.
func tuneRuntime() {
	if _, err := maxprocs.Set(maxprocs.Logger(debug.Report)); err != nil {
		debug.Report("bootstrap: automaxprocs: %v", err)
	}
	if _, err := memlimit.SetGoMemLimitWithOpts(
		memlimit.WithRatio(0.9),
		memlimit.WithProvider(memlimit.ApplyFallback(
			memlimit.FromCgroup,
			memlimit.FromSystem,
		)),
	); err != nil {
		debug.Report("bootstrap: automemlimit: %v", err)
	}
}

// checkMemoryBudget warns, but never fails, if the requested arenas exceed
// memoryFraction of total host RAM.
func checkMemoryBudget(mem1, mem2 int64) {
	total := memory.TotalMemory()
	if total == 0 {
		return // couldn't determine host memory; nothing to check against
	}
	requested := uint64(mem1 + mem2)
	budget := uint64(float64(total) * memoryFraction)
	if requested > budget {
		debug.Report("bootstrap: requested arenas (%d bytes) exceed %.0f%% of host memory (%d bytes)",
			requested, memoryFraction*100, total)
	}
}

func createDefaultHeap(a *alloc.Arena) {
	lo, hi := a.Extent()
	if h := a.CreateHeap(lo, hi); h != alloc.NoHeap {
		a.SetCurrentHeap(h)
	}
}

// seedSRAMDefaults applies cfg only to an SRAM image whose flags byte and
// language are both still zero, as a freshly-created image's are; any other
// image, such as one sram.Init loaded from a backing file written by an
// earlier seeding, is left as it is.
func seedSRAMDefaults(cfg config.Default) {
	p, ok := sram.LockPrimary()
	if !ok {
		return
	}
	fresh := p.Flags() == 0 && p.Language() == 0
	sram.UnlockPrimary(false)
	if !fresh {
		return
	}

	switch cfg.VideoMode {
	case "pal":
		sram.SetVideoMode(sram.VideoPAL)
	case "mpal":
		sram.SetVideoMode(sram.VideoMPAL)
	default:
		sram.SetVideoMode(sram.VideoNTSC)
	}

	if cfg.SoundMode == "mono" {
		sram.SetSoundMode(sram.SoundMono)
	} else {
		sram.SetSoundMode(sram.SoundStereo)
	}

	sram.SetLanguage(cfg.Language)
	sram.SetProgressive(cfg.Progressive)
}
