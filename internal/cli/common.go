package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dorinclisu/airzone-cli/internal/airzone"
	"github.com/dorinclisu/airzone-cli/internal/api"
	"github.com/dorinclisu/airzone-cli/internal/config"
)

// loadConfig reads the config file and applies command-line overrides. When no
// file exists, --email and --password are enough.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error

	// Load from file
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}

	// If config doesn't exist but credentials are provided via flags, create a temporary config
	if errors.Is(err, config.ErrNotConfigured) && email != "" && password != "" {
		cfg = &config.Config{}
		cfg.ApplyDefaults()
		err = nil
	}

	if err != nil {
		return nil, err
	}

	// Apply command-line overrides
	if email != "" {
		cfg.Account.Email = email
	}
	if password != "" {
		cfg.Account.Password = password
	}
	if serverURL != "" {
		cfg.Server.URL = serverURL
	}
	if rootCmd.PersistentFlags().Changed("timeout") {
		cfg.Defaults.Timeout = timeout
	}

	// Validate
	if !cfg.IsConfigured() {
		return nil, config.ErrNotConfigured
	}

	return cfg, nil
}

// newLogger returns the stderr logger for cfg. --verbose selects debug.
func newLogger(cfg *config.Config) *slog.Logger {
	level := cfg.LogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newAPIClient builds the transport for cfg. observer may be nil.
func newAPIClient(cfg *config.Config, logger *slog.Logger, observer api.Observer) *api.Client {
	return api.NewClient(api.NewSession(cfg.Account.Email, cfg.Account.Password), api.Options{
		BaseURL:   cfg.Server.URL,
		UserAgent: cfg.Server.UserAgent,
		Timeout:   cfg.Timeout(),
		RateLimit: cfg.Defaults.RateLimit,
		Logger:    logger,
		Observer:  observer,
	})
}

// newTree builds the entity tree for cfg. Nothing is fetched yet.
func newTree(cfg *config.Config, logger *slog.Logger, observer api.Observer) (*airzone.Client, error) {
	delay, err := cfg.SettleDelay()
	if err != nil {
		return nil, err
	}
	if delay == 0 {
		delay = -1
	}
	return airzone.New(newAPIClient(cfg, logger, observer), airzone.Options{
		Logger:      logger,
		SettleDelay: delay,
	}), nil
}

// loadTopology fetches installations, groups and device identities without
// device statuses.
func loadTopology(ctx context.Context, tree *airzone.Client) error {
	if err := tree.RefreshInstallations(ctx); err != nil {
		return err
	}
	for _, inst := range tree.Installations() {
		if err := inst.RefreshGroups(ctx); err != nil {
			return err
		}
	}
	return nil
}

// signalContext is cancelled on Ctrl+C or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func outputJSON(data interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// findDevice matches a device by id, then by case-insensitive name. A name
// shared by several devices is an error.
func findDevice(tree *airzone.Client, ref string) (*airzone.Device, error) {
	if d, ok := tree.Device(ref); ok {
		return d, nil
	}
	var matches []*airzone.Device
	for _, d := range tree.AllDevices() {
		if strings.EqualFold(d.Name(), ref) {
			matches = append(matches, d)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("device not found: %s", ref)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("device name %q is ambiguous (%d matches), use the id", ref, len(matches))
	}
}

// findGroup matches a group by id, then by case-insensitive name.
func findGroup(tree *airzone.Client, ref string) (*airzone.Group, error) {
	if g, ok := tree.Group(ref); ok {
		return g, nil
	}
	var matches []*airzone.Group
	for _, g := range tree.AllGroups() {
		if strings.EqualFold(g.Name(), ref) {
			matches = append(matches, g)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("group not found: %s", ref)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("group name %q is ambiguous (%d matches), use the id", ref, len(matches))
	}
}

// parseCelsius parses a temperature argument such as "21.5" or "21,5".
func parseCelsius(arg string) (float64, error) {
	v, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(arg), ",", ".", 1), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid temperature %q", arg)
	}
	return v, nil
}

// formatCelsius renders an optional temperature.
func formatCelsius(v float64, ok bool) string {
	if !ok {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 1, 64) + "°C"
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

// formatAge renders how long ago t was, or "never".
func formatAge(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return time.Since(t).Round(time.Second).String() + " ago"
}
