package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dorinclisu/airzone-cli/internal/api"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check Airzone Cloud API connectivity",
	Long: `Log in to Airzone Cloud and display the account and its installations.

Examples:
  airzone-cli status              # Check connectivity and show account info
  airzone-cli status --json       # Output as JSON`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

type statusView struct {
	URL           string                   `json:"url"`
	User          *api.User                `json:"user"`
	Installations []api.InstallationRecord `json:"installations"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client := newAPIClient(cfg, newLogger(cfg), nil)
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout())
	defer cancel()

	printInfo("Checking connection to %s...", cfg.Server.URL)

	user, err := client.GetUser(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	installations, err := client.ListInstallations(ctx)
	if err != nil {
		return fmt.Errorf("failed to list installations: %w", err)
	}

	if jsonOutput {
		return outputJSON(statusView{URL: cfg.Server.URL, User: user, Installations: installations})
	}

	fmt.Printf("Connected to Airzone Cloud\n\n")
	fmt.Printf("Server:         %s\n", cfg.Server.URL)
	fmt.Printf("Account:        %s\n", user.Email)
	if name := user.Name + " " + user.Lastname; name != " " {
		fmt.Printf("Name:           %s\n", name)
	}
	if user.Lang != "" {
		fmt.Printf("Language:       %s\n", user.Lang)
	}
	fmt.Printf("Installations:  %d\n", len(installations))
	for _, inst := range installations {
		fmt.Printf("  - %s (%s, %s)\n", inst.Name, inst.InstallationID, inst.AccessType)
	}

	return nil
}
