package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dorinclisu/airzone-cli/internal/api"
	"github.com/dorinclisu/airzone-cli/internal/config"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Configure Airzone Cloud credentials",
	Long: `Configure the Airzone Cloud account used by every other command.

You can provide the email and password as flags, or you will be prompted to
enter them. The credentials are verified against the API before they are
saved. The config file is readable by your user only.

Example:
  airzone-cli login --email you@example.com`,
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	// Get credentials from flags or prompt
	mail := email
	pass := password

	reader := bufio.NewReader(os.Stdin)

	if mail == "" {
		fmt.Print("Airzone Cloud email: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read email: %w", err)
		}
		mail = strings.TrimSpace(input)
	}
	if mail == "" {
		return fmt.Errorf("email is required")
	}

	if pass == "" {
		fmt.Print("Password: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		pass = strings.TrimSpace(input)
	}
	if pass == "" {
		return fmt.Errorf("password is required")
	}

	cfgPath := configPath
	if cfgPath == "" {
		cfgPath = config.DefaultConfigPath()
	}

	// Keep the other settings of an existing config
	cfg, err := config.LoadFrom(cfgPath)
	if err != nil {
		if !errors.Is(err, config.ErrNotConfigured) {
			printInfo("Warning: could not read config: %v", err)
		}
		cfg = &config.Config{}
		cfg.ApplyDefaults()
	}
	cfg.Account = config.AccountConfig{Email: mail, Password: pass}
	if serverURL != "" {
		cfg.Server.URL = serverURL
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Defaults.Timeout = timeout
	}

	// Test the credentials
	printInfo("Logging in to %s...", cfg.Server.URL)
	client := newAPIClient(cfg, newLogger(cfg), nil)
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout())
	defer cancel()

	if _, err := client.Login(ctx); err != nil {
		var authErr *api.AuthError
		if errors.As(err, &authErr) {
			return fmt.Errorf("authentication failed: invalid email or password")
		}
		return fmt.Errorf("connection failed: %w", err)
	}

	if err := cfg.SaveTo(cfgPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	printSuccess("Successfully logged in as %s", mail)
	printSuccess("Configuration saved to %s", cfgPath)

	return nil
}
