package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dorinclisu/airzone-cli/internal/airzone"
	"github.com/dorinclisu/airzone-cli/internal/api"
)

var (
	waitSettle bool
	showConfig bool
)

var deviceCmd = &cobra.Command{
	Use:     "device",
	Aliases: []string{"zone"},
	Short:   "Inspect and control a single zone",
	Long: `Inspect and control a single zone thermostat.

A zone is referenced by its device id or by its name (case-insensitive).

Examples:
  airzone-cli device show "Living room"
  airzone-cli device on 60f5a1c2d3e4
  airzone-cli device temp "Living room" 21.5
  airzone-cli device mode "Living room" heating --wait`,
}

var deviceShowCmd = &cobra.Command{
	Use:   "show <device>",
	Short: "Show the status of a zone",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeviceShow,
}

var deviceOnCmd = &cobra.Command{
	Use:   "on <device>",
	Short: "Turn a zone on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDeviceCommand(args[0], "Turned on", func(ctx context.Context, d *airzone.Device) error {
			return d.TurnOn(ctx)
		})
	},
}

var deviceOffCmd = &cobra.Command{
	Use:   "off <device>",
	Short: "Turn a zone off",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDeviceCommand(args[0], "Turned off", func(ctx context.Context, d *airzone.Device) error {
			return d.TurnOff(ctx)
		})
	},
}

var deviceModeCmd = &cobra.Command{
	Use:   "mode <device> <mode>",
	Short: "Change the operating mode of a zone",
	Long: `Change the operating mode of a zone.

Only zones that control their group accept a mode, and only one of the
modes they advertise. Run 'airzone-cli modes' for the mode names.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDeviceCommand(args[0], "Mode set to "+args[1], func(ctx context.Context, d *airzone.Device) error {
			return d.SetMode(ctx, args[1])
		})
	},
}

var deviceTempCmd = &cobra.Command{
	Use:     "temp <device> <celsius>",
	Aliases: []string{"temperature", "setpoint"},
	Short:   "Set the target temperature of a zone",
	Long: `Set the target temperature of a zone for its current mode.

The value is rounded to the zone's step and clamped to its range.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		celsius, err := parseCelsius(args[1])
		if err != nil {
			return err
		}
		var sent float64
		err = runDeviceCommand(args[0], "", func(ctx context.Context, d *airzone.Device) error {
			var setErr error
			sent, setErr = d.SetTemperature(ctx, celsius)
			return setErr
		})
		if err == nil && !jsonOutput {
			printSuccess("Setpoint set to %s", formatCelsius(sent, true))
		}
		return err
	},
}

func init() {
	for _, c := range []*cobra.Command{deviceOnCmd, deviceOffCmd, deviceModeCmd, deviceTempCmd} {
		c.Flags().BoolVarP(&waitSettle, "wait", "w", false, "Wait for the cloud to settle and show the new status")
	}
	deviceShowCmd.Flags().BoolVar(&showConfig, "details", false, "Also fetch the device configuration (firmware, units)")

	deviceCmd.AddCommand(deviceShowCmd, deviceOnCmd, deviceOffCmd, deviceModeCmd, deviceTempCmd)
	rootCmd.AddCommand(deviceCmd)
}

type deviceDetail struct {
	deviceView
	Installation string            `json:"installation"`
	Group        string            `json:"group"`
	WebserverID  string            `json:"ws_id"`
	SystemNumber int               `json:"system_number"`
	ZoneNumber   int               `json:"zone_number"`
	Config       *api.DeviceConfig `json:"config,omitempty"`
}

func runDeviceShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tree, err := newTree(cfg, newLogger(cfg), nil)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := loadTopology(ctx, tree); err != nil {
		return fmt.Errorf("failed to load installations: %w", err)
	}
	d, err := findDevice(tree, args[0])
	if err != nil {
		return err
	}
	if err := d.Refresh(ctx); err != nil {
		return err
	}

	detail := deviceDetail{
		deviceView:   newDeviceView(d),
		Installation: d.Installation().Name(),
		Group:        d.Group().Name(),
		WebserverID:  d.WebserverID(),
		SystemNumber: d.SystemNumber(),
		ZoneNumber:   d.ZoneNumber(),
	}
	if showConfig {
		detail.Config, err = d.Config(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch config: %w", err)
		}
	}

	if jsonOutput {
		return outputJSON(detail)
	}
	outputDeviceDetail(detail, d)
	return nil
}

func outputDeviceDetail(v deviceDetail, d *airzone.Device) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Zone:\t%s (%s)\n", v.Name, v.ID)
	fmt.Fprintf(w, "Installation:\t%s (%s)\n", v.Installation, v.InstallationID)
	fmt.Fprintf(w, "Group:\t%s (%s)\n", v.Group, v.GroupID)
	fmt.Fprintf(w, "Webserver:\t%s (system %d, zone %d)\n", v.WebserverID, v.SystemNumber, v.ZoneNumber)
	fmt.Fprintf(w, "Connected:\t%t\n", v.Connected)
	fmt.Fprintf(w, "Power:\t%s\n", onOff(v.Power))
	fmt.Fprintf(w, "Mode:\t%s (%d)\n", v.Mode, v.ModeID)
	if v.Master {
		fmt.Fprintf(w, "Modes available:\t%s\n", strings.Join(v.ModesAvailable, ", "))
	} else {
		fmt.Fprintf(w, "Modes available:\t- (mode is set by the group's controlling zone)\n")
	}
	fmt.Fprintf(w, "Temperature:\t%s\n", formatCelsiusPtr(v.Temperature))
	fmt.Fprintf(w, "Setpoint:\t%s\n", formatCelsiusPtr(v.Setpoint))
	fmt.Fprintf(w, "Range:\t%s .. %s (step %g)\n",
		formatCelsius(v.MinTemperature, true), formatCelsius(v.MaxTemperature, true), v.Step)
	if v.Humidity != nil {
		fmt.Fprintf(w, "Humidity:\t%d%%\n", *v.Humidity)
	}
	fmt.Fprintf(w, "Fetched:\t%s\n", formatAge(d.FetchedAt()))
	if v.Config != nil {
		fmt.Fprintf(w, "Firmware:\tws %s, system %s, zone %s\n",
			v.Config.WebserverFirmware, v.Config.SystemFirmware, v.Config.ZoneFirmware)
	}
	w.Flush()
}

// runDeviceCommand resolves ref, runs fn and optionally waits for the new
// status.
func runDeviceCommand(ref, done string, fn func(context.Context, *airzone.Device) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tree, err := newTree(cfg, newLogger(cfg), nil)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := loadTopology(ctx, tree); err != nil {
		return fmt.Errorf("failed to load installations: %w", err)
	}
	d, err := findDevice(tree, ref)
	if err != nil {
		return err
	}

	if err := fn(ctx, d); err != nil {
		return commandError(d.Name(), err)
	}
	if done != "" && !jsonOutput {
		printSuccess("%s: %s", d.Name(), done)
	}

	if !waitSettle {
		return nil
	}
	printInfo("Waiting for the cloud to settle...")
	if err := d.RefreshAfterSettle(ctx); err != nil {
		return err
	}
	if jsonOutput {
		return outputJSON(newDeviceView(d))
	}
	fmt.Printf("%s: power %s, mode %s, temperature %s, setpoint %s\n",
		d.Name(), onOff(d.IsOn()), d.Mode().Name,
		formatCelsius(d.CurrentTemperature()), formatCelsius(d.TargetTemperature()))
	return nil
}

// commandError turns command failures into user-facing messages.
func commandError(target string, err error) error {
	var verr *airzone.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("%s: command failed: %w", target, err)
	}
	if errors.Is(err, airzone.ErrUnknownMode) {
		return fmt.Errorf("%w (run 'airzone-cli modes' for the list)", err)
	}
	return err
}
