// File: internal/browser/context.go
package browser

import (
	"context"
	"errors"
)

// CombineContext creates a new context derived from ctx1 (the session
// context, which carries the CDP connection info) that is canceled when
// either ctx1 or ctx2 (the per-operation context) is canceled. Values are
// inherited from ctx1, so chromedp actions stay bound to the right target.
func CombineContext(ctx1, ctx2 context.Context) (context.Context, context.CancelFunc) {
	combinedCtx, cancel := context.WithCancel(ctx1)

	// Link ctx2's lifecycle to the combined context. The goroutine exits as
	// soon as either side is done.
	go func() {
		select {
		case <-ctx2.Done():
			cancel()
		case <-combinedCtx.Done():
		}
	}()

	return combinedCtx, cancel
}

// deadlineExpired reports whether a failed run was caused by the per-call
// deadline. The combined run context reports Canceled when either side ends,
// so the run error alone cannot distinguish a timeout from a teardown.
func deadlineExpired(err error, callCtx context.Context) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded)
}
