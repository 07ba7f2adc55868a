// File: internal/browser/errors.go
package browser

import (
	"errors"
	"fmt"
	"time"
)

// ErrSessionClosed is returned when an action is attempted on a session that
// has already been torn down. It indicates a programming error in the test,
// not a browser failure.
var ErrSessionClosed = errors.New("browser session is closed")

// StartError reports that the underlying browser or remote hub could not be
// started or reached. It is fatal for the test that requested the session.
type StartError struct {
	Kind   string // browser kind, or "remote" for hub connections
	Target string // exec path or hub URL
	Err    error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("failed to start %s session (%s): %v", e.Kind, e.Target, e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

// NavigationError reports that a page did not load within the configured
// page-load timeout.
type NavigationError struct {
	URL     string
	Timeout time.Duration
	Err     error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed after %s: %v", e.URL, e.Timeout, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }
