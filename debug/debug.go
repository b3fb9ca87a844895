// Package debug provides the core's two debug primitives: Report, a
// timestamped informational line, and Panic, which reports then aborts the
// process. Neither allocates from any heap managed by package alloc.
//
// Output goes through a single package-level zerolog.Logger so that, per
// core's ordering guarantee, output from one logical thread appears as a
// single atomic line: zerolog serializes one event into one Write call.
package debug

import (
	"fmt"
	"os"
	"reflect"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu     sync.RWMutex
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}).With().Timestamp().Logger()
)

// SetLogger replaces the package-level logger. Passing the zero value
// resets it to a console writer on stderr.
func SetLogger(l zerolog.Logger) {
	if reflect.ValueOf(l).IsZero() {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}).With().Timestamp().Logger()
	}
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Report writes a single timestamped informational line. It is the core's
// equivalent of OSReport.
func Report(format string, args ...any) {
	current().Info().Msg(fmt.Sprintf(format, args...))
}

// Warn writes a single timestamped warning line, used for resource
// exhaustion and recoverable-corruption conditions that callers must still
// check for via a return value.
func Warn(format string, args ...any) {
	current().Warn().Msg(fmt.Sprintf(format, args...))
}

// Panic writes a single error line carrying the caller-supplied file/line,
// then aborts the process. It never returns.
//
// Panic is reserved for programmer error (invalid handle, unaligned free,
// double init, and similar bugs) as distinguished in the core's error
// taxonomy; it is not used for resource exhaustion or expected-absence
// conditions, which return a sentinel instead.
func Panic(file string, line int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	current().Error().Str("file", file).Int("line", line).Msg(msg)
	panic(fmt.Sprintf("%s:%d: %s", file, line, msg))
}
