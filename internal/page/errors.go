// File: internal/page/errors.go
package page

import (
	"fmt"
	"time"
)

// ElementNotFoundError reports that an element did not reach the expected
// condition within its wait budget. The locator description makes the failing
// element identifiable without reading the selector.
type ElementNotFoundError struct {
	Locator Locator
	Timeout time.Duration
	Err     error
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("element %s not found within %s: %v", e.Locator, e.Timeout, e.Err)
}

func (e *ElementNotFoundError) Unwrap() error { return e.Err }
