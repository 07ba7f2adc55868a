// File: cmd/root.go
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uiharness/internal/config"
	"github.com/xkilldash9x/uiharness/internal/observability"
)

var (
	cfgFile string

	// cfg is populated by the persistent pre-run and read by subcommands.
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "uiharness",
	Short:   "uiharness drives browser-based UI and API test runs.",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Runs before any command, setting up config and logging.
		v, err := buildViper(cmd)
		if err != nil {
			return err
		}

		cfg, err = config.FromViper(v)
		if err != nil {
			// Initialize a fallback logger so the error still gets reported.
			observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "uiharness"})
			return err
		}

		observability.InitializeLogger(cfg.Logger)
		observability.GetLogger().Info("Starting uiharness.", zap.String("version", Version))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	defer observability.Sync()
	if err := rootCmd.Execute(); err != nil {
		if logger := observability.GetLogger(); logger != nil {
			logger.Error("Command execution failed.", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file (default is ./uiharness.yaml)")
	pf.String("browser", "", "browser kind: chrome, firefox, or edge")
	pf.Bool("headless", false, "run the browser headless")
	pf.String("base-url", "", "base URL of the application under test")
	pf.String("environment", "", "environment name for reports (e.g. staging)")
	pf.Bool("remote", false, "run against a remote CDP endpoint")
	pf.String("hub-url", "", "remote CDP endpoint URL (ws:// or http://)")
	pf.String("artifacts-dir", "", "directory for screenshots and run reports")
	pf.String("log-level", "", "log level: debug, info, warn, error")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// flagBindings maps config keys to the persistent flags that override them.
var flagBindings = map[string]string{
	"browser.kind":       "browser",
	"browser.headless":   "headless",
	"target.base_url":    "base-url",
	"target.environment": "environment",
	"remote.enabled":     "remote",
	"remote.hub_url":     "hub-url",
	"artifacts.dir":      "artifacts-dir",
	"logger.level":       "log-level",
}

// buildViper assembles the config sources: defaults, optional config file,
// environment, and finally any flags the user set.
func buildViper(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	config.SetDefaults(v)
	config.BindEnv(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("uiharness")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults and env vars.
	}

	for key, flag := range flagBindings {
		f := cmd.Flags().Lookup(flag)
		if f != nil && f.Changed {
			v.Set(key, f.Value.String())
		}
	}
	return v, nil
}
