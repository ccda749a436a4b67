package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dorinclisu/airzone-cli/internal/airzone"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List installations, groups and zones",
	Long: `List every installation of the account with its groups and zones,
including power, mode and temperatures.

Zones marked with * control the mode of their group.

Examples:
  airzone-cli list              # Tree of all zones
  airzone-cli list --json       # Output as JSON`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

type installationView struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	AccessType string      `json:"access_type"`
	Groups     []groupView `json:"groups"`
}

type groupView struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Devices []deviceView `json:"devices"`
}

type deviceView struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	InstallationID string   `json:"installation_id"`
	GroupID        string   `json:"group_id"`
	State          string   `json:"state"`
	Connected      bool     `json:"connected"`
	Power          bool     `json:"power"`
	Master         bool     `json:"master"`
	Mode           string   `json:"mode"`
	ModeID         int      `json:"mode_id"`
	ModesAvailable []string `json:"modes_available"`
	Temperature    *float64 `json:"temperature,omitempty"`
	Setpoint       *float64 `json:"setpoint,omitempty"`
	Humidity       *int     `json:"humidity,omitempty"`
	MinTemperature float64  `json:"min_temperature"`
	MaxTemperature float64  `json:"max_temperature"`
	Step           float64  `json:"step"`
}

func newDeviceView(d *airzone.Device) deviceView {
	v := deviceView{
		ID:             d.ID(),
		Name:           d.Name(),
		InstallationID: d.InstallationID(),
		GroupID:        d.Group().ID(),
		State:          d.State().String(),
		Connected:      d.IsConnected(),
		Power:          d.IsOn(),
		Master:         d.IsMaster(),
		Mode:           d.Mode().Name,
		ModeID:         d.Mode().ID,
		ModesAvailable: []string{},
		MinTemperature: d.MinTemperature(),
		MaxTemperature: d.MaxTemperature(),
		Step:           d.Step(),
	}
	for _, m := range d.ModesAvailable() {
		v.ModesAvailable = append(v.ModesAvailable, m.Name)
	}
	if t, ok := d.CurrentTemperature(); ok {
		v.Temperature = &t
	}
	if t, ok := d.TargetTemperature(); ok {
		v.Setpoint = &t
	}
	if h, ok := d.Humidity(); ok {
		v.Humidity = &h
	}
	return v
}

func newInstallationViews(tree *airzone.Client) []installationView {
	views := make([]installationView, 0)
	for _, inst := range tree.Installations() {
		iv := installationView{
			ID:         inst.ID(),
			Name:       inst.Name(),
			AccessType: inst.AccessType(),
			Groups:     []groupView{},
		}
		for _, g := range inst.Groups() {
			gv := groupView{ID: g.ID(), Name: g.Name(), Devices: []deviceView{}}
			for _, d := range g.Devices() {
				gv.Devices = append(gv.Devices, newDeviceView(d))
			}
			iv.Groups = append(iv.Groups, gv)
		}
		views = append(views, iv)
	}
	return views
}

func runList(cmd *cobra.Command, args []string) error {
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

	printInfo("Fetching installations...")
	if err := tree.Refresh(ctx); err != nil {
		return fmt.Errorf("failed to refresh: %w", err)
	}

	views := newInstallationViews(tree)
	if jsonOutput {
		return outputJSON(views)
	}

	return outputInstallations(views)
}

func outputInstallations(views []installationView) error {
	if len(views) == 0 {
		fmt.Println("No installations found")
		return nil
	}

	total := 0
	for i, inst := range views {
		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("%s (%s)\n", inst.Name, inst.ID)

		for _, g := range inst.Groups {
			fmt.Printf("\n  Group %s (%s)\n", g.Name, g.ID)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "    ID\tNAME\tPOWER\tMODE\tTEMP\tSETPOINT\tHUMIDITY")
			for _, d := range g.Devices {
				name := d.Name
				if len(name) > 30 {
					name = name[:27] + "..."
				}
				if d.Master {
					name += " *"
				}
				humidity := "-"
				if d.Humidity != nil {
					humidity = fmt.Sprintf("%d%%", *d.Humidity)
				}
				fmt.Fprintf(w, "    %s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					d.ID,
					name,
					onOff(d.Power),
					d.Mode,
					formatCelsiusPtr(d.Temperature),
					formatCelsiusPtr(d.Setpoint),
					humidity,
				)
				total++
			}
			w.Flush()
		}
	}
	fmt.Printf("\nTotal: %d zones\n", total)

	return nil
}

func formatCelsiusPtr(v *float64) string {
	if v == nil {
		return formatCelsius(0, false)
	}
	return formatCelsius(*v, true)
}
