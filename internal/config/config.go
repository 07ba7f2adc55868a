// File: internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// BrowserKind enumerates the supported browsers. All kinds are driven over
// the Chrome DevTools Protocol; the kind selects which executable candidates
// the session manager probes for.
type BrowserKind string

const (
	BrowserChrome  BrowserKind = "chrome"
	BrowserFirefox BrowserKind = "firefox"
	BrowserEdge    BrowserKind = "edge"
)

// ParseBrowserKind validates a browser name from config or CLI input.
func ParseBrowserKind(s string) (BrowserKind, error) {
	switch BrowserKind(strings.ToLower(strings.TrimSpace(s))) {
	case BrowserChrome:
		return BrowserChrome, nil
	case BrowserFirefox:
		return BrowserFirefox, nil
	case BrowserEdge:
		return BrowserEdge, nil
	default:
		return "", &ConfigError{Field: "browser.kind", Value: s, Reason: "must be one of chrome, firefox, edge"}
	}
}

// Config holds the entire framework configuration. It is built once per run
// (or per test, when overridden via flags) and never mutated afterwards.
type Config struct {
	Browser   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	Waits     WaitConfig      `mapstructure:"waits" yaml:"waits"`
	Target    TargetConfig    `mapstructure:"target" yaml:"target"`
	Remote    RemoteConfig    `mapstructure:"remote" yaml:"remote"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts" yaml:"artifacts"`
	API       APIConfig       `mapstructure:"api" yaml:"api"`
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
}

// BrowserConfig holds settings for the browser instances under test control.
type BrowserConfig struct {
	Kind         BrowserKind `mapstructure:"kind" yaml:"kind"`
	Headless     bool        `mapstructure:"headless" yaml:"headless"`
	WindowWidth  int         `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight int         `mapstructure:"window_height" yaml:"window_height"`
	ExecPath     string      `mapstructure:"exec_path" yaml:"exec_path"`
	Args         []string    `mapstructure:"args" yaml:"args"`
	// MaxSessions caps how many sessions may be open at once across parallel
	// test workers sharing one manager.
	MaxSessions int `mapstructure:"max_sessions" yaml:"max_sessions"`
}

// WaitConfig defines the wait budgets used throughout the framework.
// Every wait is an explicit per-call budget; there is no driver-global
// implicit wait.
type WaitConfig struct {
	Explicit     time.Duration `mapstructure:"explicit" yaml:"explicit"`
	PageLoad     time.Duration `mapstructure:"page_load" yaml:"page_load"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// TargetConfig describes the application under test.
type TargetConfig struct {
	BaseURL     string `mapstructure:"base_url" yaml:"base_url"`
	Environment string `mapstructure:"environment" yaml:"environment"`
}

// RemoteConfig enables execution against a remote CDP endpoint (a grid hub
// or a standalone headless-browser container).
type RemoteConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	HubURL  string `mapstructure:"hub_url" yaml:"hub_url"`
}

// ArtifactsConfig controls where failure diagnostics and run summaries land.
type ArtifactsConfig struct {
	Dir                 string `mapstructure:"dir" yaml:"dir"`
	ScreenshotOnFailure bool   `mapstructure:"screenshot_on_failure" yaml:"screenshot_on_failure"`
}

// APIConfig configures the API test client.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Key     string        `mapstructure:"key" yaml:"-"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Browser --
	v.SetDefault("browser.kind", "chrome")
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.window_width", 1920)
	v.SetDefault("browser.window_height", 1080)
	v.SetDefault("browser.max_sessions", 4)

	// -- Waits --
	v.SetDefault("waits.explicit", 30*time.Second)
	v.SetDefault("waits.page_load", 30*time.Second)
	v.SetDefault("waits.poll_interval", 250*time.Millisecond)

	// -- Target --
	v.SetDefault("target.base_url", "https://example.invalid")
	v.SetDefault("target.environment", "staging")

	// -- Remote --
	v.SetDefault("remote.enabled", false)

	// -- Artifacts --
	v.SetDefault("artifacts.dir", "artifacts")
	v.SetDefault("artifacts.screenshot_on_failure", true)

	// -- API --
	v.SetDefault("api.timeout", 30*time.Second)

	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "uiharness")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
}

// Default returns a configuration built purely from defaults, ignoring the
// environment and any config file. Tests and tools start from here.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := FromViper(v)
	if err != nil {
		// Defaults always validate; reaching this is a bug in SetDefaults.
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return cfg
}

// envBindings maps config keys to the plain environment variables the
// framework recognizes (BROWSER, HEADLESS, ...). Wait values are bound
// through *_seconds shadow keys so integers in the environment keep their
// meaning of "seconds".
var envBindings = map[string][]string{
	"browser.kind":                    {"BROWSER"},
	"browser.headless":                {"HEADLESS"},
	"browser.window_width":            {"WINDOW_WIDTH"},
	"browser.window_height":           {"WINDOW_HEIGHT"},
	"browser.window_size":             {"WINDOW_SIZE"},
	"target.base_url":                 {"BASE_URL"},
	"target.environment":              {"ENVIRONMENT"},
	"remote.enabled":                  {"REMOTE_EXECUTION"},
	"remote.hub_url":                  {"HUB_URL", "SELENIUM_HUB_URL"},
	"artifacts.dir":                   {"ARTIFACTS_DIR"},
	"artifacts.screenshot_on_failure": {"SCREENSHOT_ON_FAILURE"},
	"api.base_url":                    {"API_BASE_URL"},
	"api.key":                         {"API_KEY"},
	"logger.level":                    {"LOG_LEVEL"},
	"logger.log_file":                 {"LOG_FILE"},
	"waits.explicit_seconds":          {"EXPLICIT_WAIT"},
	"waits.page_load_seconds":         {"PAGE_LOAD_TIMEOUT"},
	// IMPLICIT_WAIT is accepted for compatibility and folded into the
	// explicit wait budget; there is no separate implicit mechanism.
	"waits.implicit_seconds": {"IMPLICIT_WAIT"},
}

// BindEnv attaches the recognized environment variables to a viper instance.
func BindEnv(v *viper.Viper) {
	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		// BindEnv only errors on an empty key.
		_ = v.BindEnv(args...)
	}
}

// Load reads configuration from defaults, an optional config file in the
// working directory (uiharness.yaml), and the process environment. It is a
// pure function of that snapshot; the returned Config is never mutated.
func Load() (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)

	v.AddConfigPath(".")
	v.SetConfigName("uiharness")
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, &ConfigError{Field: "config_file", Value: v.ConfigFileUsed(), Reason: err.Error()}
		}
	}

	return FromViper(v)
}

// FromViper builds and validates a Config from a prepared viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{Field: "config", Reason: fmt.Sprintf("unmarshal failed: %v", err)}
	}

	// Re-parse the browser kind so unknown values fail here, before any
	// session is attempted.
	kind, err := ParseBrowserKind(string(cfg.Browser.Kind))
	if err != nil {
		return nil, err
	}
	cfg.Browser.Kind = kind

	if err := applyWaitSeconds(v, &cfg.Waits); err != nil {
		return nil, err
	}

	// WINDOW_SIZE=WxH overrides the individual dimension keys.
	if raw := v.GetString("browser.window_size"); raw != "" {
		w, h, err := parseWindowSize(raw)
		if err != nil {
			return nil, &ConfigError{Field: "browser.window_size", Value: raw, Reason: err.Error()}
		}
		cfg.Browser.WindowWidth, cfg.Browser.WindowHeight = w, h
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyWaitSeconds folds the integer *_seconds overrides into the duration
// fields. Non-numeric or non-positive values are configuration errors, not
// silent fallbacks.
func applyWaitSeconds(v *viper.Viper, w *WaitConfig) error {
	apply := func(key string, field *time.Duration) (bool, error) {
		raw := v.GetString(key)
		if raw == "" {
			return false, nil
		}
		secs, err := parsePositiveSeconds(raw)
		if err != nil {
			return false, &ConfigError{Field: key, Value: raw, Reason: err.Error()}
		}
		*field = secs
		return true, nil
	}

	explicitSet, err := apply("waits.explicit_seconds", &w.Explicit)
	if err != nil {
		return err
	}
	if !explicitSet {
		// The implicit fold is a compatibility alias; an explicitly named
		// explicit wait always wins over it.
		if _, err := apply("waits.implicit_seconds", &w.Explicit); err != nil {
			return err
		}
	}
	if _, err := apply("waits.page_load_seconds", &w.PageLoad); err != nil {
		return err
	}
	return nil
}

func parsePositiveSeconds(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	var secs int
	if _, err := fmt.Sscanf(raw, "%d", &secs); err != nil || fmt.Sprintf("%d", secs) != raw {
		return 0, fmt.Errorf("must be a whole number of seconds")
	}
	if secs <= 0 {
		return 0, fmt.Errorf("must be a positive number of seconds")
	}
	return time.Duration(secs) * time.Second, nil
}

func parseWindowSize(raw string) (int, int, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	var w, h int
	if _, err := fmt.Sscanf(raw, "%dx%d", &w, &h); err != nil || fmt.Sprintf("%dx%d", w, h) != raw {
		return 0, 0, fmt.Errorf("must be WIDTHxHEIGHT, e.g. 1920x1080")
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("dimensions must be positive")
	}
	return w, h, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if _, err := ParseBrowserKind(string(c.Browser.Kind)); err != nil {
		return err
	}
	if c.Browser.WindowWidth <= 0 || c.Browser.WindowHeight <= 0 {
		return &ConfigError{
			Field:  "browser.window_width/window_height",
			Value:  fmt.Sprintf("%dx%d", c.Browser.WindowWidth, c.Browser.WindowHeight),
			Reason: "window dimensions must be positive",
		}
	}
	if c.Browser.MaxSessions <= 0 {
		return &ConfigError{Field: "browser.max_sessions", Value: fmt.Sprint(c.Browser.MaxSessions), Reason: "must be a positive integer"}
	}
	if c.Waits.Explicit <= 0 {
		return &ConfigError{Field: "waits.explicit", Value: c.Waits.Explicit.String(), Reason: "must be a positive duration"}
	}
	if c.Waits.PageLoad <= 0 {
		return &ConfigError{Field: "waits.page_load", Value: c.Waits.PageLoad.String(), Reason: "must be a positive duration"}
	}
	if c.Waits.PollInterval <= 0 {
		return &ConfigError{Field: "waits.poll_interval", Value: c.Waits.PollInterval.String(), Reason: "must be a positive duration"}
	}
	if err := validateBaseURL(c.Target.BaseURL); err != nil {
		return err
	}
	if c.Remote.Enabled {
		if err := validateHubURL(c.Remote.HubURL); err != nil {
			return err
		}
	}
	return nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return &ConfigError{Field: "target.base_url", Value: raw, Reason: "must be an absolute URL"}
	}
	return nil
}

func validateHubURL(raw string) error {
	if raw == "" {
		return &ConfigError{Field: "remote.hub_url", Reason: "required when remote execution is enabled"}
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return &ConfigError{Field: "remote.hub_url", Value: raw, Reason: "must be a well-formed URL"}
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
		return nil
	default:
		return &ConfigError{Field: "remote.hub_url", Value: raw, Reason: "scheme must be ws, wss, http, or https"}
	}
}
