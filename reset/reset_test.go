package reset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func resetGlobalsForTest(t *testing.T) {
	t.Helper()
	g := reg.mu.Disable()
	reg.hooks = nil
	reg.seq = 0
	reg.mu.Restore(g)
}

func TestHooksRunInPriorityOrder(t *testing.T) {
	resetGlobalsForTest(t)

	var order []string
	Register(10, func(int, bool) bool { order = append(order, "b-prepare-or-final"); return true })
	Register(5, func(int, bool) bool { order = append(order, "a-prepare-or-final"); return true })
	Register(10, func(int, bool) bool { order = append(order, "c-prepare-or-final"); return true })

	runPasses()

	require.Equal(t, []string{
		"a-prepare-or-final", "b-prepare-or-final", "c-prepare-or-final",
		"a-prepare-or-final", "b-prepare-or-final", "c-prepare-or-final",
	}, order)
}

func TestPrepareThenFinalPassOrdering(t *testing.T) {
	resetGlobalsForTest(t)

	var calls []bool
	Register(0, func(_ int, final bool) bool {
		calls = append(calls, final)
		return true
	})

	runPasses()
	require.Equal(t, []bool{false, true}, calls)
}

func TestUnregisterRemovesHook(t *testing.T) {
	resetGlobalsForTest(t)

	ran := false
	h := Register(0, func(int, bool) bool { ran = true; return true })
	Unregister(h)

	runPasses()
	require.False(t, ran)
}

func TestUnregisterTwiceIsSafe(t *testing.T) {
	resetGlobalsForTest(t)

	h := Register(0, func(int, bool) bool { return true })
	Unregister(h)
	require.NotPanics(t, func() { Unregister(h) })
}

func TestIsRestartReportsRestartBit(t *testing.T) {
	resetCode.mu.Lock()
	resetCode.word = 0
	resetCode.mu.Unlock()

	resetCode.mu.Lock()
	resetCode.word = 0x1234 | CodeRestart
	resetCode.mu.Unlock()

	require.True(t, IsRestart())
}

func TestCaptureSaveRegionSnapshotsCurrentRegion(t *testing.T) {
	SetSaveRegion(0x1000, 0x2000)
	captureSaveRegion()

	start, end, ok := SavedRegion()
	require.True(t, ok)
	require.Equal(t, uintptr(0x1000), start)
	require.Equal(t, uintptr(0x2000), end)

	// Moving the save region afterward must not retroactively change the
	// snapshot Restart already captured.
	SetSaveRegion(0x3000, 0x4000)
	start, end, ok = SavedRegion()
	require.True(t, ok)
	require.Equal(t, uintptr(0x1000), start)
	require.Equal(t, uintptr(0x2000), end)
}

func TestSavedRegionNotOKBeforeAnyCapture(t *testing.T) {
	saveRegion.mu.Lock()
	saveRegion.hasSnapshot = false
	saveRegion.mu.Unlock()

	_, _, ok := SavedRegion()
	require.False(t, ok)
}
