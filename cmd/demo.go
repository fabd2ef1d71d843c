package cmd

import (
	"fmt"
	"io"
	"time"

	"baton/internal/demo"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// demoAll runs every built-in choreography instead of a single one.
var demoAll bool

// demoClockPeriod overrides the pacing of the conduct's advance checks.
// Zero keeps the scaled default.
var demoClockPeriod time.Duration

// demoTimeout overrides the deadlock budget of each conduct.
// Zero keeps the demo's own budget, then the scaled default.
var demoTimeout time.Duration

// demoCmd defines the demo command structure.
// It runs one or all built-in choreographies and prints the beat trace
// each one recorded.
var demoCmd = &cobra.Command{
	Use:   "demo [name]",
	Short: "Run a built-in choreography and print its beat trace",
	Long: `Runs a built-in choreography on a fresh conductor and prints the trace
its threads recorded, one row per marked beat. Without a name (or with
--all) every choreography in the catalog runs in order.

The 'stall' choreography intentionally trips the deadlock budget; the
timeout it reports is its expected outcome, not a failure.`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: demoNameCompletion,
	RunE:              runDemo,
}

// runDemo is the main entry point for the demo command
func runDemo(cmd *cobra.Command, args []string) error {
	demos, err := selectDemos(args)
	if err != nil {
		return err
	}

	for _, d := range demos {
		if err := runOneDemo(cmd.OutOrStdout(), d); err != nil {
			return err
		}
	}
	return nil
}

// selectDemos resolves the command line into the demos to run.
func selectDemos(args []string) ([]demo.Demo, error) {
	if len(args) == 0 {
		return demo.All(), nil
	}
	if demoAll {
		return nil, fmt.Errorf("cannot combine --all with the demo name %q", args[0])
	}
	d, ok := demo.Find(args[0])
	if !ok {
		return nil, fmt.Errorf("unknown demo %q; run 'baton list' to see the catalog", args[0])
	}
	return []demo.Demo{d}, nil
}

// runOneDemo executes a single choreography and renders its trace.
// The trace is printed even when the conduct fails, so a stalled run
// still shows how far the beat got.
func runOneDemo(out io.Writer, d demo.Demo) error {
	fmt.Fprintf(out, "%s: %s\n", text.FgHiWhite.Sprint(d.Name), d.Description)

	tr, err := demo.Execute(d, demoClockPeriod, demoTimeout)
	renderTrace(out, tr)
	if err != nil {
		return fmt.Errorf("demo %q: %w", d.Name, err)
	}

	if d.ExpectTimeout {
		fmt.Fprintf(out, "%s\n\n", text.FgGreen.Sprint("conduct timed out as intended"))
	} else {
		fmt.Fprintf(out, "%s\n\n", text.FgGreen.Sprint("conduct completed"))
	}
	return nil
}

// renderTrace prints the recorded events as a beat-ordered table.
func renderTrace(out io.Writer, tr *demo.Trace) {
	events := tr.Events()
	if len(events) == 0 {
		fmt.Fprintln(out, "no events recorded")
		return
	}

	t := newTable(out)
	t.AppendHeader(headerRow("BEAT", "THREAD", "NOTE"))
	for _, ev := range events {
		t.AppendRow(table.Row{ev.Beat, ev.Worker, ev.Note})
	}
	t.Render()
}

// demoNameCompletion offers the catalog names for shell completion.
func demoNameCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var names []string
	for _, d := range demo.All() {
		names = append(names, d.Name)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// init registers the demo command and its flags with the root command.
// This is called automatically when the package is imported.
func init() {
	rootCmd.AddCommand(demoCmd)

	demoCmd.Flags().BoolVar(&demoAll, "all", false, "Run every built-in choreography")
	demoCmd.Flags().DurationVar(&demoClockPeriod, "clock-period", 0, "Pace of the clock's advance checks (0 uses the default)")
	demoCmd.Flags().DurationVar(&demoTimeout, "timeout", 0, "Deadlock budget per conduct (0 uses the demo's own budget)")
}
