package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dorinclisu/airzone-cli/internal/airzone"
)

var groupCmd = &cobra.Command{
	Use:     "group",
	Aliases: []string{"system"},
	Short:   "Control every zone of a group",
	Long: `Control every zone of a group at once.

Power and setpoint go to every zone, each setpoint clamped to the zone's
own range. A mode goes to the zones that control the group.

A group is referenced by its id or by its name (case-insensitive).

Examples:
  airzone-cli group off "Ground floor"
  airzone-cli group temp "Ground floor" 21 --wait
  airzone-cli group mode "Ground floor" cooling`,
}

var groupOnCmd = &cobra.Command{
	Use:   "on <group>",
	Short: "Turn every zone of a group on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGroupCommand(args[0], "Turned on", func(ctx context.Context, g *airzone.Group) error {
			return g.TurnOn(ctx)
		})
	},
}

var groupOffCmd = &cobra.Command{
	Use:   "off <group>",
	Short: "Turn every zone of a group off",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGroupCommand(args[0], "Turned off", func(ctx context.Context, g *airzone.Group) error {
			return g.TurnOff(ctx)
		})
	},
}

var groupModeCmd = &cobra.Command{
	Use:   "mode <group> <mode>",
	Short: "Change the operating mode of a group",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGroupCommand(args[0], "Mode set to "+args[1], func(ctx context.Context, g *airzone.Group) error {
			return g.SetMode(ctx, args[1])
		})
	},
}

var groupTempCmd = &cobra.Command{
	Use:     "temp <group> <celsius>",
	Aliases: []string{"temperature", "setpoint"},
	Short:   "Set the target temperature of every zone of a group",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		celsius, err := parseCelsius(args[1])
		if err != nil {
			return err
		}
		return runGroupCommand(args[0], "Setpoint set to "+formatCelsius(celsius, true), func(ctx context.Context, g *airzone.Group) error {
			return g.SetTemperature(ctx, celsius)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{groupOnCmd, groupOffCmd, groupModeCmd, groupTempCmd} {
		c.Flags().BoolVarP(&waitSettle, "wait", "w", false, "Wait for the cloud to settle and show the new status")
	}

	groupCmd.AddCommand(groupOnCmd, groupOffCmd, groupModeCmd, groupTempCmd)
	rootCmd.AddCommand(groupCmd)
}

func runGroupCommand(ref, done string, fn func(context.Context, *airzone.Group) error) error {
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
	g, err := findGroup(tree, ref)
	if err != nil {
		return err
	}

	if err := fn(ctx, g); err != nil {
		return commandError(g.Name(), err)
	}
	if !jsonOutput {
		printSuccess("%s: %s", g.Name(), done)
	}

	if !waitSettle {
		return nil
	}
	printInfo("Waiting for the cloud to settle...")
	if err := g.RefreshAfterSettle(ctx); err != nil {
		return err
	}

	views := make([]deviceView, 0, len(g.Devices()))
	for _, d := range g.Devices() {
		views = append(views, newDeviceView(d))
	}
	if jsonOutput {
		return outputJSON(views)
	}
	for _, v := range views {
		fmt.Printf("%s: power %s, mode %s, temperature %s, setpoint %s\n",
			v.Name, onOff(v.Power), v.Mode, formatCelsiusPtr(v.Temperature), formatCelsiusPtr(v.Setpoint))
	}
	return nil
}
