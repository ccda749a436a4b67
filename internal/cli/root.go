// Package cli implements the command-line interface for airzone-cli.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	jsonOutput bool
	configPath string
	email      string
	password   string
	serverURL  string
	timeout    int
	verbose    bool

	// Version is set from main
	version = "dev"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "airzone-cli",
	Short: "Command-line interface for Airzone Cloud",
	Long: `airzone-cli is a command-line interface for Airzone Cloud HVAC installations.

It lists installations, groups and zones, reads temperatures and modes,
switches zones on and off, changes modes and setpoints, streams live
updates and exports Prometheus metrics.

Get started by running:
  airzone-cli login --email you@example.com`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError("%v", err)
	}
	return err
}

// SetVersion sets the version string for the CLI.
func SetVersion(v string) {
	version = v
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ~/.config/airzone-cli/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&email, "email", "", "Airzone Cloud account email (overrides config)")
	rootCmd.PersistentFlags().StringVar(&password, "password", "", "Airzone Cloud account password (overrides config)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", "", "Airzone Cloud API URL (overrides config)")
	rootCmd.PersistentFlags().IntVar(&timeout, "timeout", 30, "Request timeout in seconds")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	// Add version command
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("airzone-cli version %s\n", version)
	},
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// printSuccess prints a success message.
func printSuccess(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}

// printInfo prints an info message (only in verbose mode).
func printInfo(format string, args ...interface{}) {
	if verbose {
		fmt.Printf(format+"\n", args...)
	}
}
