package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dorinclisu/airzone-cli/internal/config"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored credentials",
	Long: `Remove the stored Airzone Cloud credentials.

The current session is closed on the server when possible, then the
configuration file holding the email and password is deleted.
You will need to run 'airzone-cli login' again to use the CLI.`,
	RunE: runLogout,
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

func runLogout(cmd *cobra.Command, args []string) error {
	cfgPath := configPath
	if cfgPath == "" {
		cfgPath = config.DefaultConfigPath()
	}

	// Check if config exists
	cfg, err := config.LoadFrom(cfgPath)
	if err != nil {
		if errors.Is(err, config.ErrNotConfigured) {
			printSuccess("Already logged out (no configuration found)")
			return nil
		}
		// If there's another error, still try to delete
		printInfo("Warning: could not read config: %v", err)
	}

	if cfg.IsConfigured() {
		client := newAPIClient(cfg, newLogger(cfg), nil)
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout())
		if _, err := client.Login(ctx); err == nil {
			if err := client.Logout(ctx); err != nil {
				printInfo("Warning: server logout failed: %v", err)
			}
		}
		cancel()
	}

	// Delete the configuration
	if err := config.DeleteFrom(cfgPath); err != nil {
		return fmt.Errorf("failed to delete configuration: %w", err)
	}

	printSuccess("Successfully logged out")
	printSuccess("Configuration removed from %s", cfgPath)

	return nil
}
