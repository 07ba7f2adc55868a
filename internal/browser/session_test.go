// File: internal/browser/session_test.go
package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uiharness/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Waits.PageLoad = 200 * time.Millisecond
	cfg.Waits.Explicit = 200 * time.Millisecond
	return cfg
}

// plainSession builds a session over a vanilla context, enough to exercise
// the lifecycle without a browser.
func plainSession(t *testing.T) *Session {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	s := newSession(ctx, cancel, testConfig(), zap.NewNop())
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestSession_StartsUnopened(t *testing.T) {
	s := plainSession(t)
	assert.Equal(t, StateUnopened, s.State())
	assert.NotEmpty(t, s.ID())
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	s := plainSession(t)

	closed := 0
	s.onClose = func() { closed++ }

	require.NoError(t, s.Close(context.Background()))
	require.NoError(t, s.Close(context.Background()))
	require.NoError(t, s.Close(context.Background()))

	assert.Equal(t, 1, closed)
	assert.Equal(t, StateClosed, s.State())
}

func TestSession_CloseBeforeAnyNavigationIsNoOp(t *testing.T) {
	s := plainSession(t)
	require.Equal(t, StateUnopened, s.State())
	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, StateClosed, s.State())
}

func TestSession_ActionsAfterCloseFailFast(t *testing.T) {
	s := plainSession(t)
	require.NoError(t, s.Close(context.Background()))

	ctx := context.Background()

	err := s.Navigate(ctx, "https://example.invalid/")
	assert.ErrorIs(t, err, ErrSessionClosed)

	_, err = s.Title(ctx)
	assert.ErrorIs(t, err, ErrSessionClosed)

	_, err = s.Screenshot(ctx)
	assert.ErrorIs(t, err, ErrSessionClosed)

	err = s.RunActions(ctx, chromedp.Reload())
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSession_NavigateFailureWrapsNavigationError(t *testing.T) {
	// A plain context carries no CDP target, so the navigation fails; the
	// failure must still surface as a NavigationError carrying the URL.
	s := plainSession(t)

	err := s.Navigate(context.Background(), "https://example.invalid/login")
	require.Error(t, err)

	var navErr *NavigationError
	require.ErrorAs(t, err, &navErr)
	assert.Equal(t, "https://example.invalid/login", navErr.URL)
	assert.Equal(t, StateUnopened, s.State(), "failed navigation must not open the session")
}

func TestSession_NavigateTimeoutYieldsDeadlineError(t *testing.T) {
	// With an expired page-load budget the failure must classify as a
	// timeout even though the combined run context only reports Canceled.
	s := plainSession(t)
	s.cfg.Waits.PageLoad = time.Nanosecond

	err := s.Navigate(context.Background(), "https://example.invalid/slow")
	require.Error(t, err)

	var navErr *NavigationError
	require.ErrorAs(t, err, &navErr)
	assert.Equal(t, time.Nanosecond, navErr.Timeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDeadlineExpired(t *testing.T) {
	expired, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-expired.Done()

	canceled, cancelNow := context.WithCancel(context.Background())
	cancelNow()

	assert.True(t, deadlineExpired(context.Canceled, expired), "expired per-call context is a timeout")
	assert.True(t, deadlineExpired(context.DeadlineExceeded, context.Background()))
	assert.False(t, deadlineExpired(context.Canceled, canceled), "cancellation is not a timeout")
	assert.False(t, deadlineExpired(errors.New("target crashed"), context.Background()))
}

func TestSession_StateStrings(t *testing.T) {
	assert.Equal(t, "unopened", StateUnopened.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestCombineContext_CancelsWhenOperationContextCancels(t *testing.T) {
	base := context.Background()
	opCtx, opCancel := context.WithCancel(context.Background())

	combined, cancel := CombineContext(base, opCtx)
	defer cancel()

	opCancel()

	select {
	case <-combined.Done():
	case <-time.After(time.Second):
		t.Fatal("combined context was not canceled")
	}
}

func TestCombineContext_InheritsValuesFromFirstContext(t *testing.T) {
	type key struct{}
	base := context.WithValue(context.Background(), key{}, "cdp-target")

	combined, cancel := CombineContext(base, context.Background())
	defer cancel()

	assert.Equal(t, "cdp-target", combined.Value(key{}))
}

func TestStartError_Format(t *testing.T) {
	cause := errors.New("exec: not found")
	err := &StartError{Kind: "firefox", Target: "/usr/bin/firefox", Err: cause}

	assert.Contains(t, err.Error(), "firefox")
	assert.Contains(t, err.Error(), "/usr/bin/firefox")
	assert.ErrorIs(t, err, cause)
}

func TestNavigationError_Format(t *testing.T) {
	err := &NavigationError{
		URL:     "https://example.invalid/",
		Timeout: 30 * time.Second,
		Err:     context.DeadlineExceeded,
	}

	assert.Contains(t, err.Error(), "https://example.invalid/")
	assert.Contains(t, err.Error(), "30s")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
