// File: internal/config/config_test.go
package config

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	return v
}

// -- Constructor and Defaults Tests --

func TestDefaults(t *testing.T) {
	cfg, err := FromViper(newTestViper())
	require.NoError(t, err)

	assert.Equal(t, BrowserChrome, cfg.Browser.Kind)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 1920, cfg.Browser.WindowWidth)
	assert.Equal(t, 1080, cfg.Browser.WindowHeight)
	assert.Equal(t, 4, cfg.Browser.MaxSessions)
	assert.Equal(t, 30*time.Second, cfg.Waits.Explicit)
	assert.Equal(t, 30*time.Second, cfg.Waits.PageLoad)
	assert.Equal(t, 250*time.Millisecond, cfg.Waits.PollInterval)
	assert.Equal(t, "https://example.invalid", cfg.Target.BaseURL)
	assert.Equal(t, "staging", cfg.Target.Environment)
	assert.False(t, cfg.Remote.Enabled)
	assert.True(t, cfg.Artifacts.ScreenshotOnFailure)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "uiharness", cfg.Logger.ServiceName)
}

// -- Browser Kind Tests --

func TestParseBrowserKind(t *testing.T) {
	for _, tc := range []struct {
		input string
		want  BrowserKind
	}{
		{"chrome", BrowserChrome},
		{"firefox", BrowserFirefox},
		{"edge", BrowserEdge},
		{"Chrome", BrowserChrome},
		{"  EDGE  ", BrowserEdge},
	} {
		kind, err := ParseBrowserKind(tc.input)
		require.NoError(t, err, "input %q", tc.input)
		assert.Equal(t, tc.want, kind)
	}
}

func TestParseBrowserKind_Unknown(t *testing.T) {
	_, err := ParseBrowserKind("safari")
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "browser.kind", cfgErr.Field)
	assert.Contains(t, cfgErr.Error(), "safari")
}

func TestLoad_EnvBrowserKind(t *testing.T) {
	for _, name := range []string{"chrome", "firefox", "edge"} {
		t.Run(name, func(t *testing.T) {
			t.Setenv("BROWSER", name)
			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, BrowserKind(name), cfg.Browser.Kind)
		})
	}
}

func TestLoad_EnvBrowserUnknown(t *testing.T) {
	t.Setenv("BROWSER", "netscape")
	_, err := Load()
	require.Error(t, err)

	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

// -- Environment Override Tests --

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BROWSER", "chrome")
	t.Setenv("HEADLESS", "true")
	t.Setenv("BASE_URL", "https://example.test")
	t.Setenv("EXPLICIT_WAIT", "12")
	t.Setenv("PAGE_LOAD_TIMEOUT", "45")
	t.Setenv("ENVIRONMENT", "dev")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BrowserChrome, cfg.Browser.Kind)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, "https://example.test", cfg.Target.BaseURL)
	assert.Equal(t, 12*time.Second, cfg.Waits.Explicit)
	assert.Equal(t, 45*time.Second, cfg.Waits.PageLoad)
	assert.Equal(t, "dev", cfg.Target.Environment)
}

func TestLoad_WindowSize(t *testing.T) {
	t.Setenv("WINDOW_SIZE", "1280x720")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1280, cfg.Browser.WindowWidth)
	assert.Equal(t, 720, cfg.Browser.WindowHeight)
}

func TestLoad_WindowSizeInvalid(t *testing.T) {
	for name, value := range map[string]string{
		"missing separator": "1280720",
		"words":             "widexhigh",
		"zero dimension":    "0x720",
		"trailing garbage":  "1280x720px",
	} {
		t.Run(name, func(t *testing.T) {
			t.Setenv("WINDOW_SIZE", value)
			_, err := Load()
			require.Error(t, err)

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, "browser.window_size", cfgErr.Field)
		})
	}
}

func TestLoad_ImplicitWaitFoldsIntoExplicit(t *testing.T) {
	t.Setenv("IMPLICIT_WAIT", "7")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, cfg.Waits.Explicit)
}

func TestLoad_ExplicitWaitWinsOverImplicit(t *testing.T) {
	t.Setenv("EXPLICIT_WAIT", "10")
	t.Setenv("IMPLICIT_WAIT", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.Waits.Explicit)
}

func TestLoad_WaitValidation(t *testing.T) {
	cases := map[string]string{
		"non-numeric": "soon",
		"negative":    "-5",
		"zero":        "0",
		"float":       "2.5",
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("EXPLICIT_WAIT", value)
			_, err := Load()
			require.Error(t, err)

			var cfgErr *ConfigError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

// -- Remote / Hub URL Tests --

func TestLoad_RemoteRequiresHubURL(t *testing.T) {
	t.Setenv("REMOTE_EXECUTION", "true")
	_, err := Load()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "remote.hub_url", cfgErr.Field)
}

func TestLoad_RemoteWithHubURL(t *testing.T) {
	t.Setenv("REMOTE_EXECUTION", "true")
	t.Setenv("HUB_URL", "ws://grid.internal:9222")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Remote.Enabled)
	assert.Equal(t, "ws://grid.internal:9222", cfg.Remote.HubURL)
}

func TestLoad_RemoteSeleniumHubAlias(t *testing.T) {
	t.Setenv("REMOTE_EXECUTION", "true")
	t.Setenv("SELENIUM_HUB_URL", "http://hub:4444")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://hub:4444", cfg.Remote.HubURL)
}

func TestLoad_RemoteHubURLBadScheme(t *testing.T) {
	t.Setenv("REMOTE_EXECUTION", "true")
	t.Setenv("HUB_URL", "ftp://hub:21")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheme")
}

// -- Validation Logic Tests --

func TestValidate(t *testing.T) {
	base, err := FromViper(newTestViper())
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base.Validate())
	})

	t.Run("bad base url", func(t *testing.T) {
		cfg := *base
		cfg.Target.BaseURL = "not a url"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "target.base_url")
	})

	t.Run("zero window", func(t *testing.T) {
		cfg := *base
		cfg.Browser.WindowWidth = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive max sessions", func(t *testing.T) {
		cfg := *base
		cfg.Browser.MaxSessions = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative poll interval", func(t *testing.T) {
		cfg := *base
		cfg.Waits.PollInterval = -time.Second
		assert.Error(t, cfg.Validate())
	})
}

func TestConfigError_Message(t *testing.T) {
	err := &ConfigError{Field: "browser.kind", Value: "opera", Reason: "must be one of chrome, firefox, edge"}
	assert.Equal(t, `invalid configuration: browser.kind="opera": must be one of chrome, firefox, edge`, err.Error())

	var target *ConfigError
	assert.True(t, errors.As(err, &target))
}
