// File: internal/reporting/reporting.go

// Package reporting writes run artifacts: failure screenshots, a JSON run
// summary, and an environment properties file for report tooling.
package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uiharness/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// unsafeNameChars matches everything that may not appear in an artifact
// file name.
var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Reporter collects per-test results and writes them under the artifacts
// directory. It is not safe for concurrent use; wrap it in the harness,
// which serializes access.
type Reporter struct {
	dir    string
	logger *zap.Logger

	startedAt time.Time
	results   []TestResult
}

// TestResult is one test's outcome in the run summary.
type TestResult struct {
	Name       string        `json:"name"`
	Passed     bool          `json:"passed"`
	Duration   time.Duration `json:"duration_ns"`
	Screenshot string        `json:"screenshot,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// Summary is the JSON document written at the end of a run.
type Summary struct {
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Total      int          `json:"total"`
	Passed     int          `json:"passed"`
	Failed     int          `json:"failed"`
	Results    []TestResult `json:"results"`
}

// New creates a reporter writing into the configured artifacts directory,
// creating it when missing.
func New(cfg config.ArtifactsConfig, logger *zap.Logger) (*Reporter, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifacts dir %q: %w", cfg.Dir, err)
	}
	return &Reporter{
		dir:       cfg.Dir,
		logger:    logger.Named("reporter"),
		startedAt: time.Now(),
	}, nil
}

// Dir returns the artifacts directory.
func (r *Reporter) Dir() string { return r.dir }

// Record appends a test result to the run summary.
func (r *Reporter) Record(res TestResult) {
	r.results = append(r.results, res)
}

// ScreenshotName builds a collision-free, filesystem-safe file name for a
// failure screenshot.
func ScreenshotName(testName string, at time.Time) string {
	safe := unsafeNameChars.ReplaceAllString(testName, "_")
	safe = strings.Trim(safe, "_")
	if safe == "" {
		safe = "test"
	}
	return fmt.Sprintf("%s_%s.png", safe, at.Format("20060102_150405.000"))
}

// SaveScreenshot writes PNG bytes for the given test and returns the path.
func (r *Reporter) SaveScreenshot(testName string, png []byte) (string, error) {
	name := ScreenshotName(testName, time.Now())
	path := filepath.Join(r.dir, name)
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", fmt.Errorf("writing screenshot %q: %w", path, err)
	}
	r.logger.Info("Failure screenshot saved.", zap.String("path", path))
	return path, nil
}

// WriteSummary writes the run summary JSON and returns its path.
func (r *Reporter) WriteSummary() (string, error) {
	summary := Summary{
		StartedAt:  r.startedAt,
		FinishedAt: time.Now(),
		Total:      len(r.results),
		Results:    r.results,
	}
	for _, res := range r.results {
		if res.Passed {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling run summary: %w", err)
	}
	path := filepath.Join(r.dir, "run_summary.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing run summary %q: %w", path, err)
	}
	return path, nil
}

// WriteEnvironment writes a sorted key=value properties file describing the
// run environment, for report tooling to pick up.
func (r *Reporter) WriteEnvironment(props map[string]string) (string, error) {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, props[k])
	}

	path := filepath.Join(r.dir, "environment.properties")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("writing environment properties %q: %w", path, err)
	}
	return path, nil
}

// EnvironmentProps derives the standard environment properties from the
// configuration.
func EnvironmentProps(cfg *config.Config) map[string]string {
	return map[string]string{
		"browser":     string(cfg.Browser.Kind),
		"headless":    fmt.Sprint(cfg.Browser.Headless),
		"base_url":    cfg.Target.BaseURL,
		"environment": cfg.Target.Environment,
		"remote":      fmt.Sprint(cfg.Remote.Enabled),
	}
}
