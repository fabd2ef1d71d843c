package cmd

import (
	"baton/internal/demo"
	batonstrings "baton/pkg/strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// listCmd renders the catalog of built-in choreographies.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the built-in choreographies",
	Long: `Shows every built-in choreography with its thread count, the beat a
clean run ends on, and what the scenario demonstrates. Pass any of the
names to 'baton demo' or 'baton stress'.`,
	Args: cobra.NoArgs,
	Run:  runList,
}

// runList is the main entry point for the list command
func runList(cmd *cobra.Command, args []string) {
	t := newTable(cmd.OutOrStdout())
	t.AppendHeader(headerRow("NAME", "THREADS", "BEATS", "DESCRIPTION"))
	for _, d := range demo.All() {
		t.AppendRow(table.Row{
			d.Name,
			d.Threads,
			d.Beats,
			batonstrings.Ellipsize(d.Description, batonstrings.DefaultCellWidth),
		})
	}
	t.Render()
}

// init registers the list command with the root command.
// This is called automatically when the package is imported.
func init() {
	rootCmd.AddCommand(listCmd)
}
