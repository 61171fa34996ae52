// -----------------------------------------------------------------------
// Guarded tasks - panic-protected wrappers for fan-out work
// -----------------------------------------------------------------------

package common

import (
	"fmt"
	"runtime"

	"github.com/ternarybob/arbor"
)

// PanicError is returned by Guard when the wrapped task panicked
type PanicError struct {
	Task  string
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Task, e.Value)
}

// Guard wraps fn so a panic is logged and returned as a *PanicError instead of
// crashing the process. Use it for tasks handed to an errgroup.
//
// Example:
//
//	g.Go(common.Guard(logger, "leverage", func() error {
//	    blocks[key] = engine(in)
//	    return nil
//	}))
func Guard(logger arbor.ILogger, name string, fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				buf := make([]byte, 4096)
				n := runtime.Stack(buf, false)
				stackTrace := string(buf[:n])

				if logger != nil {
					logger.Error().
						Str("task", name).
						Str("panic", fmt.Sprintf("%v", r)).
						Str("stack", stackTrace).
						Msg("Recovered from panic in task")
				}
				err = &PanicError{Task: name, Value: r, Stack: stackTrace}
			}
		}()
		return fn()
	}
}
