// Package mask implements the interrupt-disable surrogate used throughout
// the core: a Guard whose Disable/Restore pair protects small critical
// sections the way OSDisableInterrupts/OSRestoreInterrupts protected them on
// the original hardware.
//
// This is not a literal interrupt mask on a host OS; it is a lock whose
// ownership is the returned token. Every routine documented as "entered
// under the mask" must hold it for the duration of its list/counter
// mutation and release it before invoking any user callback.
package mask

import "sync"

// Token is the opaque value returned by Disable and consumed by Restore.
// It exists so call sites read like the original disable/restore pairing,
// even though the current implementation needs no state beyond "locked".
type Token struct{}

// Guard is a single coarse-grained or per-structure lock standing in for an
// interrupt mask. The zero value is ready to use.
type Guard struct {
	mu sync.Mutex
}

// Disable acquires the guard and returns a Token to hand back to Restore.
func (g *Guard) Disable() Token {
	g.mu.Lock()
	return Token{}
}

// Restore releases the guard. The Token argument documents the
// disable/restore pairing at call sites; it carries no state.
func (g *Guard) Restore(Token) {
	g.mu.Unlock()
}

// TryDisable attempts to acquire the guard without blocking.
func (g *Guard) TryDisable() (Token, bool) {
	if g.mu.TryLock() {
		return Token{}, true
	}
	return Token{}, false
}
