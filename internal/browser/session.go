// File: internal/browser/session.go
package browser

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uiharness/internal/config"
)

// State tracks where a session is in its lifecycle.
type State int

const (
	// StateUnopened means the browser is connected but no page has been
	// navigated yet.
	StateUnopened State = iota
	// StateOpen means at least one navigation succeeded.
	StateOpen
	// StateClosed means the session has been torn down.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is a single isolated browser target. It is created by the Manager
// and must be closed by the caller on every exit path; Close is idempotent.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	cfg    *config.Config
	logger *zap.Logger

	mu    sync.Mutex
	state State

	closeOnce sync.Once
	onClose   func()
}

func newSession(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, logger *zap.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:     id,
		ctx:    ctx,
		cancel: cancel,
		cfg:    cfg,
		logger: logger.Named("session").With(zap.String("session_id", id)),
		state:  StateUnopened,
	}
}

// NewDetachedSession wraps an externally created chromedp context in a
// Session. The caller owns the allocator lifecycle; Close only cancels the
// wrapped context.
func NewDetachedSession(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, logger *zap.Logger) *Session {
	return newSession(ctx, cancel, cfg, logger)
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Config exposes the configuration the session was created with. Page
// objects read wait budgets and the base URL from here.
func (s *Session) Config() *config.Config { return s.cfg }

// Logger returns the session-scoped logger.
func (s *Session) Logger() *zap.Logger { return s.logger }

// guard fails fast when the session has already been closed.
func (s *Session) guard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return ErrSessionClosed
	}
	return nil
}

// markOpen records the first successful navigation.
func (s *Session) markOpen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateUnopened {
		s.state = StateOpen
	}
}

// RunActions executes chromedp actions against this session's target. The
// per-operation ctx controls deadlines; the session context supplies the CDP
// connection.
func (s *Session) RunActions(ctx context.Context, actions ...chromedp.Action) error {
	if err := s.guard(); err != nil {
		return err
	}
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// Navigate loads the given URL and waits for the document to become ready,
// within the configured page-load timeout. On the first success the session
// transitions to the open state.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.guard(); err != nil {
		return err
	}

	timeout := s.cfg.Waits.PageLoad
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.logger.Debug("Navigating.", zap.String("url", url), zap.Duration("timeout", timeout))
	start := time.Now()
	err := s.RunActions(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		if deadlineExpired(err, navCtx) {
			return &NavigationError{URL: url, Timeout: timeout, Err: context.DeadlineExceeded}
		}
		return &NavigationError{URL: url, Timeout: time.Since(start).Round(time.Millisecond), Err: err}
	}

	s.markOpen()
	s.logger.Debug("Navigation complete.", zap.String("url", url), zap.Duration("took", time.Since(start)))
	return nil
}

// Title returns the current document title.
func (s *Session) Title(ctx context.Context) (string, error) {
	var title string
	if err := s.RunActions(ctx, chromedp.Title(&title)); err != nil {
		return "", err
	}
	return title, nil
}

// CurrentURL returns the location of the active document.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var loc string
	if err := s.RunActions(ctx, chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}

// Refresh reloads the current page and waits for it to become ready again.
func (s *Session) Refresh(ctx context.Context) error {
	navCtx, cancel := context.WithTimeout(ctx, s.cfg.Waits.PageLoad)
	defer cancel()
	return s.RunActions(navCtx,
		chromedp.Reload(),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

// Back navigates one entry backwards in the session history.
func (s *Session) Back(ctx context.Context) error {
	return s.RunActions(ctx, chromedp.NavigateBack())
}

// Forward navigates one entry forwards in the session history.
func (s *Session) Forward(ctx context.Context) error {
	return s.RunActions(ctx, chromedp.NavigateForward())
}

// Screenshot captures the current viewport as PNG bytes.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.RunActions(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}

// SetExtraHeaders attaches headers to every request the session makes, for
// example an auth token for a protected test environment.
func (s *Session) SetExtraHeaders(ctx context.Context, headers map[string]string) error {
	netHeaders := make(network.Headers, len(headers))
	for k, v := range headers {
		netHeaders[k] = v
	}
	return s.RunActions(ctx,
		network.Enable(),
		network.SetExtraHTTPHeaders(netHeaders),
	)
}

// SetUserAgent overrides the session's user agent string.
func (s *Session) SetUserAgent(ctx context.Context, userAgent string) error {
	return s.RunActions(ctx, emulation.SetUserAgentOverride(userAgent))
}

// Evaluate runs a JavaScript expression in the page and unmarshals the result
// into res. Pass nil when the result is not needed.
func (s *Session) Evaluate(ctx context.Context, expression string, res any) error {
	return s.RunActions(ctx, chromedp.Evaluate(expression, res))
}

// Close tears the session down. It is safe to call multiple times and safe to
// call on a session that never navigated; subsequent actions return
// ErrSessionClosed.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		prev := s.state
		s.state = StateClosed
		s.mu.Unlock()

		s.logger.Debug("Closing session.", zap.Stringer("previous_state", prev))
		s.cancel()
		if s.onClose != nil {
			s.onClose()
		}
	})
	return nil
}
