package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dorinclisu/airzone-cli/internal/airzone"
	"github.com/dorinclisu/airzone-cli/internal/websocket"
)

var devicePatterns []string

var watchCmd = &cobra.Command{
	Use:   "watch [installation]...",
	Short: "Watch zone updates in real-time",
	Long: `Watch for zone updates via the Airzone Cloud live stream.

Installations are referenced by id or name. If none are specified, every
installation of the account is watched. Press Ctrl+C to stop watching.

Examples:
  airzone-cli watch                              # Watch everything
  airzone-cli watch Home                         # Watch one installation
  airzone-cli watch --device "living*"           # Filter zones by name or id
  airzone-cli watch --json                       # Output as JSON`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringSliceVarP(&devicePatterns, "device", "d", nil, "Only show zones whose name or id matches (trailing * for prefix)")
	rootCmd.AddCommand(watchCmd)
}

type watchEvent struct {
	Time           time.Time                  `json:"time"`
	InstallationID string                     `json:"installation_id"`
	DeviceID       string                     `json:"device_id"`
	DeviceName     string                     `json:"device_name,omitempty"`
	Status         map[string]json.RawMessage `json:"status,omitempty"`
	Config         map[string]json.RawMessage `json:"config,omitempty"`
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	tree, err := newTree(cfg, logger, nil)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := loadTopology(ctx, tree); err != nil {
		return fmt.Errorf("failed to load installations: %w", err)
	}
	installations, err := selectInstallations(tree, args)
	if err != nil {
		return err
	}

	token, err := streamToken(tree)
	if err != nil {
		return err
	}

	printInfo("Connecting to the live stream...")
	client, err := websocket.NewClient(ctx, cfg.Server.URL, token, cfg.Timeout())
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer client.Close()

	for _, inst := range installations {
		printInfo("Listening to %s...", inst.Name())
		if err := client.ListenInstallation(inst.ID()); err != nil {
			return fmt.Errorf("failed to listen: %w", err)
		}
	}

	var patterns []string
	for _, p := range devicePatterns {
		patterns = append(patterns, strings.ToLower(p))
	}

	if !jsonOutput {
		fmt.Println("Watching for zone updates... (press Ctrl+C to stop)")
		if len(patterns) > 0 {
			fmt.Printf("Filtering: %s\n", strings.Join(patterns, ", "))
		}
		fmt.Println()
	}

	// Event loop
	eventChan := make(chan *websocket.Event)
	errChan := make(chan error, 1)

	go func() {
		for {
			event, err := client.ReadEvent()
			if err != nil {
				errChan <- err
				return
			}
			select {
			case eventChan <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	ping := time.NewTicker(client.PingInterval())
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			if !jsonOutput {
				fmt.Println("\nStopped watching")
			}
			return nil

		case <-ping.C:
			if err := client.Ping(); err != nil {
				return err
			}

		case err := <-errChan:
			if errors.Is(err, websocket.ErrDisconnected) {
				return fmt.Errorf("live stream closed by server")
			}
			return fmt.Errorf("connection error: %w", err)

		case event := <-eventChan:
			if !event.IsDeviceUpdate() {
				logger.Debug("ignoring event", "name", event.Name)
				continue
			}
			update, err := event.DeviceUpdate()
			if err != nil {
				logger.Warn("skipping malformed update", "error", err)
				continue
			}

			ev := newWatchEvent(tree, update, time.Now())
			if len(patterns) > 0 && !matchesPatterns(ev.DeviceID, patterns) && !matchesPatterns(ev.DeviceName, patterns) {
				continue
			}

			if jsonOutput {
				if err := outputJSON(ev); err != nil {
					return fmt.Errorf("failed to write event: %w", err)
				}
				continue
			}
			fmt.Println(formatWatchEvent(ev))
		}
	}
}

// streamToken returns the session token obtained while loading the tree.
func streamToken(tree *airzone.Client) (string, error) {
	token, _ := tree.API().Session().Token()
	if token == "" {
		return "", fmt.Errorf("not logged in")
	}
	return token, nil
}

// selectInstallations resolves refs by id or name. No refs selects all.
func selectInstallations(tree *airzone.Client, refs []string) ([]*airzone.Installation, error) {
	if len(refs) == 0 {
		if len(tree.Installations()) == 0 {
			return nil, fmt.Errorf("no installations found")
		}
		return tree.Installations(), nil
	}

	var selected []*airzone.Installation
	for _, ref := range refs {
		inst, ok := tree.Installation(ref)
		if !ok {
			for _, candidate := range tree.Installations() {
				if strings.EqualFold(candidate.Name(), ref) {
					inst, ok = candidate, true
					break
				}
			}
		}
		if !ok {
			return nil, fmt.Errorf("installation not found: %s", ref)
		}
		selected = append(selected, inst)
	}
	return selected, nil
}

func newWatchEvent(tree *airzone.Client, update *websocket.DeviceUpdate, now time.Time) watchEvent {
	ev := watchEvent{
		Time:           now,
		InstallationID: update.InstallationID,
		DeviceID:       update.DeviceID,
		Status:         update.Change.Status,
		Config:         update.Change.Config,
	}
	if d, ok := tree.Device(update.DeviceID); ok {
		ev.DeviceName = d.Name()
		if ev.InstallationID == "" {
			ev.InstallationID = d.InstallationID()
		}
	}
	return ev
}

// formatWatchEvent renders one update line, fields sorted by name.
func formatWatchEvent(ev watchEvent) string {
	name := ev.DeviceName
	if name == "" {
		name = ev.DeviceID
	}

	var fields []string
	for key, value := range ev.Status {
		fields = append(fields, key+"="+string(value))
	}
	for key, value := range ev.Config {
		fields = append(fields, "config."+key+"="+string(value))
	}
	sort.Strings(fields)

	return fmt.Sprintf("[%s] %s: %s", ev.Time.Local().Format("15:04:05"), name, strings.Join(fields, " "))
}

// matchesPatterns checks if a zone name or id matches any of the patterns.
// Supports wildcards (*) for prefix matching.
func matchesPatterns(value string, patterns []string) bool {
	valueLower := strings.ToLower(value)

	for _, pattern := range patterns {
		if strings.HasSuffix(pattern, "*") {
			prefix := strings.TrimSuffix(pattern, "*")
			if strings.HasPrefix(valueLower, prefix) {
				return true
			}
		} else if valueLower == pattern {
			return true
		}
	}

	return false
}
