package thread

import "github.com/wowjinxy/porpoise/debug"

// Priority band thresholds, per spec.md §4.C: "<8 critical, <16
// above-normal, >24 below-normal, else normal".
const (
	bandCritical    = 8
	bandAboveNormal = 16
	bandBelowNormal = 24
)

// SetPriority updates both t's record and, best-effort, its host OS
// thread's scheduling priority.
func SetPriority(t *Thread, priority int) {
	if priority < PriorityHighest || priority > PriorityLowest {
		debug.Panic("thread/priority.go", 0, "thread: SetPriority: invalid priority %d", priority)
	}
	g := rtMask.Disable()
	t.basePriority = priority
	t.currPriority = priority
	rtMask.Restore(g)
	applyHostPriority(t, priority)
}

// GetPriority returns t's base priority.
func GetPriority(t *Thread) int {
	g := rtMask.Disable()
	defer rtMask.Restore(g)
	return t.basePriority
}

// EffectivePriority returns t's current (possibly priority-inherited)
// priority.
func EffectivePriority(t *Thread) int {
	g := rtMask.Disable()
	defer rtMask.Restore(g)
	return t.currPriority
}

func niceFor(priority int) int {
	switch {
	case priority < bandCritical:
		return -10
	case priority < bandAboveNormal:
		return -5
	case priority > bandBelowNormal:
		return 5
	default:
		return 0
	}
}
