// File: internal/harness/harness.go

// Package harness wires configuration, logging, browser management, and
// reporting into a per-test fixture. Tests call New once, open sessions as
// needed, and rely on registered cleanups for teardown and failure
// screenshots.
package harness

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/uiharness/internal/browser"
	"github.com/xkilldash9x/uiharness/internal/config"
	"github.com/xkilldash9x/uiharness/internal/reporting"
)

// e2eEnvVar gates tests that need a real browser. Without it, browser-backed
// tests skip so the suite stays runnable anywhere.
const e2eEnvVar = "UIHARNESS_E2E"

const teardownTimeout = 30 * time.Second

// RequireE2E skips the test unless end-to-end runs are enabled.
func RequireE2E(t *testing.T) {
	t.Helper()
	if os.Getenv(e2eEnvVar) == "" {
		t.Skipf("set %s=1 to run browser-backed tests", e2eEnvVar)
	}
}

// Harness bundles the framework components a test needs.
type Harness struct {
	Cfg      *config.Config
	Logger   *zap.Logger
	Manager  *browser.Manager
	Reporter *reporting.Reporter
}

// New builds a harness from the environment and registers teardown with the
// test. Configuration errors fail the test immediately.
func New(t *testing.T) *Harness {
	t.Helper()

	cfg, err := config.Load()
	require.NoError(t, err, "loading configuration")

	logger := zaptest.NewLogger(t)

	reporter, err := reporting.New(cfg.Artifacts, logger)
	require.NoError(t, err, "creating reporter")

	manager := browser.NewManager(cfg, logger)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
		defer cancel()
		if err := manager.Shutdown(ctx); err != nil {
			t.Errorf("browser manager shutdown: %v", err)
		}
	})

	return &Harness{
		Cfg:      cfg,
		Logger:   logger,
		Manager:  manager,
		Reporter: reporter,
	}
}

// NewSession opens a browser session owned by the test. Teardown always
// closes the session; when the test has failed and screenshots are enabled,
// a screenshot is captured first and recorded in the run summary.
func (h *Harness) NewSession(t *testing.T) *browser.Session {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()

	s, err := h.Manager.OpenSession(ctx)
	require.NoError(t, err, "opening browser session")

	start := time.Now()
	t.Cleanup(func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
		defer cancel()

		result := reporting.TestResult{
			Name:     t.Name(),
			Passed:   !t.Failed(),
			Duration: time.Since(start),
		}
		if t.Failed() {
			result.Screenshot = h.captureFailureScreenshot(cleanupCtx, t, s)
		}
		h.Reporter.Record(result)

		if err := s.Close(cleanupCtx); err != nil {
			t.Errorf("closing session: %v", err)
		}
	})
	return s
}

// captureFailureScreenshot grabs a screenshot for a failed test. Capture
// errors are logged, never fatal: the test already failed for a real reason.
func (h *Harness) captureFailureScreenshot(ctx context.Context, t *testing.T, s *browser.Session) string {
	if !h.Cfg.Artifacts.ScreenshotOnFailure || s.State() != browser.StateOpen {
		return ""
	}
	png, err := s.Screenshot(ctx)
	if err != nil {
		h.Logger.Warn("Could not capture failure screenshot.", zap.String("test", t.Name()), zap.Error(err))
		return ""
	}
	path, err := h.Reporter.SaveScreenshot(t.Name(), png)
	if err != nil {
		h.Logger.Warn("Could not save failure screenshot.", zap.String("test", t.Name()), zap.Error(err))
		return ""
	}
	return path
}

// WriteRunArtifacts writes the environment properties and a summary of the
// results recorded so far. The summary is a snapshot: call it after the
// tests that should appear in it have finished. TestMain cannot build a
// Harness (it has no *testing.T); a package reporting from TestMain uses
// reporting.New directly.
func (h *Harness) WriteRunArtifacts() error {
	if _, err := h.Reporter.WriteEnvironment(reporting.EnvironmentProps(h.Cfg)); err != nil {
		return err
	}
	_, err := h.Reporter.WriteSummary()
	return err
}
