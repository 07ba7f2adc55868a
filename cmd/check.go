// File: cmd/check.go
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uiharness/internal/browser"
	"github.com/xkilldash9x/uiharness/internal/observability"
	"github.com/xkilldash9x/uiharness/internal/reporting"
)

// checkCmd verifies the local setup: configuration, browser startup, and a
// basic navigation. Run it once after installing to catch environment
// problems before any real test does.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that the configured browser can be started and driven.",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.GetLogger()

		fmt.Printf("Browser:     %s (headless=%v)\n", cfg.Browser.Kind, cfg.Browser.Headless)
		fmt.Printf("Base URL:    %s\n", cfg.Target.BaseURL)
		fmt.Printf("Environment: %s\n", cfg.Target.Environment)
		if cfg.Remote.Enabled {
			fmt.Printf("Remote hub:  %s\n", cfg.Remote.HubURL)
		}

		reporter, err := reporting.New(cfg.Artifacts, logger)
		if err != nil {
			return err
		}
		if _, err := reporter.WriteEnvironment(reporting.EnvironmentProps(cfg)); err != nil {
			return err
		}

		manager := browser.NewManager(cfg, logger)
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()
		defer func() {
			if err := manager.Shutdown(context.Background()); err != nil {
				logger.Warn("Browser manager shutdown failed.", zap.Error(err))
			}
		}()

		session, err := manager.OpenSession(ctx)
		if err != nil {
			return fmt.Errorf("browser startup failed: %w", err)
		}
		defer session.Close(ctx)

		if err := session.Navigate(ctx, "about:blank"); err != nil {
			return fmt.Errorf("navigation failed: %w", err)
		}

		loc, err := session.CurrentURL(ctx)
		if err != nil {
			return fmt.Errorf("reading current url failed: %w", err)
		}

		fmt.Printf("Session:     %s\n", session.ID())
		fmt.Printf("Navigated:   %s\n", loc)
		fmt.Println("Setup check passed.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
