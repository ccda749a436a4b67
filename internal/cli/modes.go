package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dorinclisu/airzone-cli/internal/airzone"
)

var modesCmd = &cobra.Command{
	Use:   "modes",
	Short: "List operating modes",
	Long: `List the operating modes understood by Airzone Cloud.

Use the NAME column with 'device mode' and 'group mode'. A zone only
accepts the modes it advertises, see 'device show'.`,
	RunE: runModes,
}

func init() {
	rootCmd.AddCommand(modesCmd)
}

func runModes(cmd *cobra.Command, args []string) error {
	modes := airzone.Modes()
	if jsonOutput {
		return outputJSON(modes)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION\tSETPOINT")
	fmt.Fprintln(w, "--\t----\t-----------\t--------")
	for _, m := range modes {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", m.ID, m.Name, m.Description, m.Kind.SetpointParam())
	}
	return w.Flush()
}
