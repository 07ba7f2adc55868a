// File: internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/xkilldash9x/uiharness/internal/config"
)

const (
	sessionStartTimeout = 60 * time.Second
	shutdownGracePeriod = 15 * time.Second
)

// execCandidates lists the executable names probed for each browser kind
// when no explicit exec path is configured. Every kind is driven over CDP.
var execCandidates = map[config.BrowserKind][]string{
	config.BrowserChrome: {
		"google-chrome", "google-chrome-stable", "chromium", "chromium-browser",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	},
	config.BrowserEdge: {
		"microsoft-edge", "microsoft-edge-stable", "msedge",
		"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge",
	},
	config.BrowserFirefox: {
		"firefox", "firefox-esr",
		"/Applications/Firefox.app/Contents/MacOS/firefox",
	},
}

// Manager owns the browser allocator and creates one isolated session per
// test. Allocator startup is deferred until the first session is requested.
type Manager struct {
	cfg    *config.Config
	logger *zap.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc

	// sem caps the number of concurrently open sessions.
	sem *semaphore.Weighted

	sessions map[string]*Session
	mu       sync.RWMutex
	wg       sync.WaitGroup

	initOnce sync.Once
	initErr  error
}

// NewManager creates a browser manager. No browser process is started until
// OpenSession is called.
func NewManager(cfg *config.Config, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:      cfg,
		logger:   logger.Named("browser_manager"),
		sem:      semaphore.NewWeighted(int64(cfg.Browser.MaxSessions)),
		sessions: make(map[string]*Session),
	}
}

// initialize builds the allocator context: a remote allocator when remote
// execution is configured, otherwise an exec allocator for the configured
// browser kind.
func (m *Manager) initialize(ctx context.Context) error {
	m.initOnce.Do(func() {
		if m.cfg.Remote.Enabled {
			m.logger.Info("Using remote browser allocator.", zap.String("hub_url", m.cfg.Remote.HubURL))
			m.allocCtx, m.allocCancel = chromedp.NewRemoteAllocator(context.Background(), m.cfg.Remote.HubURL)
			return
		}

		opts, err := m.allocatorOptions()
		if err != nil {
			m.initErr = err
			return
		}
		m.logger.Info("Using local exec allocator.",
			zap.String("kind", string(m.cfg.Browser.Kind)),
			zap.Bool("headless", m.cfg.Browser.Headless),
		)
		m.allocCtx, m.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	})
	return m.initErr
}

// allocatorOptions translates the browser configuration into exec allocator
// options.
func (m *Manager) allocatorOptions() ([]chromedp.ExecAllocatorOption, error) {
	bc := m.cfg.Browser

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.WindowSize(bc.WindowWidth, bc.WindowHeight),
		// Container-friendly stability flags.
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-popup-blocking", true),
	}

	if bc.Headless {
		opts = append(opts, chromedp.Headless)
	}

	execPath, err := resolveExecPath(bc)
	if err != nil {
		return nil, err
	}
	if execPath != "" {
		opts = append(opts, chromedp.ExecPath(execPath))
	}

	for _, arg := range bc.Args {
		name := strings.TrimPrefix(arg, "--")
		if name == "" {
			continue
		}
		if k, v, ok := strings.Cut(name, "="); ok {
			opts = append(opts, chromedp.Flag(k, v))
		} else {
			opts = append(opts, chromedp.Flag(name, true))
		}
	}

	return opts, nil
}

// resolveExecPath returns the browser executable to launch. An explicitly
// configured path wins; chrome falls back to chromedp's own lookup when
// nothing is found, other kinds require a resolvable candidate.
func resolveExecPath(bc config.BrowserConfig) (string, error) {
	if bc.ExecPath != "" {
		return bc.ExecPath, nil
	}
	for _, candidate := range execCandidates[bc.Kind] {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}
	if bc.Kind == config.BrowserChrome {
		return "", nil
	}
	return "", &StartError{
		Kind:   string(bc.Kind),
		Target: strings.Join(execCandidates[bc.Kind], ", "),
		Err:    fmt.Errorf("no executable found"),
	}
}

// OpenSession creates a new isolated browser session (one tab in its own
// context). The caller must guarantee Close runs on every exit path.
func (m *Manager) OpenSession(ctx context.Context) (*Session, error) {
	if err := m.initialize(ctx); err != nil {
		return nil, err
	}

	if err := m.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for a free session slot: %w", err)
	}

	sessionCtx, sessionCancel := chromedp.NewContext(m.allocCtx)
	s := newSession(sessionCtx, sessionCancel, m.cfg, m.logger)

	// Probe the connection so a missing binary or unreachable hub surfaces
	// here rather than on the first page action.
	startCtx, startCancel := context.WithTimeout(sessionCtx, sessionStartTimeout)
	defer startCancel()
	if err := chromedp.Run(startCtx); err != nil {
		sessionCancel()
		m.sem.Release(1)
		target := m.cfg.Browser.ExecPath
		kind := string(m.cfg.Browser.Kind)
		if m.cfg.Remote.Enabled {
			kind, target = "remote", m.cfg.Remote.HubURL
		}
		return nil, &StartError{Kind: kind, Target: target, Err: err}
	}

	m.wg.Add(1)
	s.onClose = func() {
		m.mu.Lock()
		delete(m.sessions, s.ID())
		m.mu.Unlock()
		m.sem.Release(1)
		m.wg.Done()
		m.logger.Debug("Session removed from manager.", zap.String("session_id", s.ID()))
	}

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	m.logger.Info("New browser session opened.", zap.String("session_id", s.ID()))
	return s, nil
}

// OpenSessions reports how many sessions are currently live.
func (m *Manager) OpenSessions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Shutdown closes all remaining sessions and tears down the allocator. It is
// safe to call even when no session was ever opened.
func (m *Manager) Shutdown(ctx context.Context) error {
	if m.allocCtx == nil {
		m.logger.Debug("Manager never initialized; nothing to shut down.")
		return nil
	}
	m.logger.Info("Shutting down browser manager.")

	m.mu.RLock()
	toClose := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		toClose = append(toClose, s)
	}
	m.mu.RUnlock()

	for _, s := range toClose {
		go func(s *Session) {
			if err := s.Close(ctx); err != nil {
				m.logger.Warn("Error closing session during shutdown.",
					zap.String("session_id", s.ID()), zap.Error(err))
			}
		}(s)
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("All sessions closed.")
	case <-ctx.Done():
		m.logger.Warn("Timeout waiting for sessions to close; forcing allocator shutdown.", zap.Error(ctx.Err()))
	case <-time.After(shutdownGracePeriod):
		m.logger.Warn("Grace period elapsed waiting for sessions to close; forcing allocator shutdown.")
	}

	m.allocCancel()
	return nil
}
