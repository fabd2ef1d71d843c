package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"baton/internal/demo"
	"baton/internal/stress"
	batonstrings "baton/pkg/strings"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// stressOptions collects the stress command's flag values. The command is
// built by a constructor so tests can run isolated instances with their
// own flag state.
type stressOptions struct {
	runs        int
	parallel    int
	failFast    bool
	quiet       bool
	configPath  string
	reportPath  string
	clockPeriod time.Duration
	timeout     time.Duration
}

// newStressCmd creates the stress command.
// It repeats choreographies, in parallel, hunting for scheduling-dependent
// failures, and summarizes the session in a table and an optional JSON report.
func newStressCmd() *cobra.Command {
	opts := &stressOptions{}

	cmd := &cobra.Command{
		Use:   "stress [scenario]...",
		Short: "Repeat choreographies hunting for scheduling-dependent failures",
		Long: `Runs the named choreographies (or the whole catalog) over and over with
several conducts in flight at once. Every run gets a fresh conductor, so
a failure in any repetition points at a real scheduling dependence.

Configuration can come from a YAML file via --config; flags set on the
command line override what the file says. With --report the session is
also written as a JSON report for later comparison.`,
		Args:              cobra.ArbitraryArgs,
		ValidArgsFunction: demoNameCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress(cmd, args, opts)
		},
	}

	defaults := stress.DefaultConfig()
	flags := cmd.Flags()
	flags.IntVar(&opts.runs, "runs", defaults.Runs, "Conducts per scenario")
	flags.IntVar(&opts.parallel, "parallel", defaults.Parallel, "Conducts in flight at once")
	flags.BoolVar(&opts.failFast, "fail-fast", false, "Stop scheduling new runs after the first failure")
	flags.BoolVar(&opts.quiet, "quiet", false, "Suppress the progress spinner")
	flags.StringVar(&opts.configPath, "config", "", "YAML stress configuration file")
	flags.StringVar(&opts.reportPath, "report", "", "Write a JSON session report to this path")
	flags.DurationVar(&opts.clockPeriod, "clock-period", 0, "Pace of each conduct's advance checks (0 uses the default)")
	flags.DurationVar(&opts.timeout, "timeout", 0, "Deadlock budget per conduct (0 uses each demo's own budget)")

	return cmd
}

// runStress is the main entry point for the stress command
func runStress(cmd *cobra.Command, args []string, opts *stressOptions) error {
	cfg, err := stressConfig(cmd, args, opts)
	if err != nil {
		return err
	}

	runner, err := stress.NewRunner(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if rootVerbose || rootDebug {
		runner.OnResult(func(res stress.RunResult) {
			if res.Passed {
				fmt.Fprintf(out, "%s %s #%d in %dms\n", text.FgGreen.Sprint("pass"), res.Scenario, res.Attempt, res.DurationMs)
				return
			}
			fmt.Fprintf(out, "%s %s #%d in %dms: %s\n", text.FgRed.Sprint("FAIL"), res.Scenario, res.Attempt, res.DurationMs, res.Error)
		})
	}

	var s *spinner.Spinner
	if !opts.quiet && !rootVerbose && !rootDebug {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
		s.Suffix = fmt.Sprintf(" Running %d conducts...", plannedConducts(cfg))
		s.Start()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	report, runErr := runner.Run(ctx)

	if s != nil {
		s.Stop()
	}

	renderStressSummary(out, report)

	if cfg.ReportPath != "" {
		if err := report.WriteFile(cfg.ReportPath); err != nil {
			return err
		}
		fmt.Fprintf(out, "report written to %s\n", cfg.ReportPath)
	}

	if runErr != nil {
		return runErr
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d of %d conducts failed", report.Failed, report.Total)
	}
	return nil
}

// stressConfig merges defaults, an optional YAML file, and command line
// flags into the session configuration. Flags win over the file, the file
// wins over defaults, and positional arguments select the scenarios.
func stressConfig(cmd *cobra.Command, args []string, opts *stressOptions) (stress.Config, error) {
	cfg := stress.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := stress.LoadConfig(opts.configPath)
		if err != nil {
			return stress.Config{}, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("runs") {
		cfg.Runs = opts.runs
	}
	if flags.Changed("parallel") {
		cfg.Parallel = opts.parallel
	}
	if flags.Changed("fail-fast") {
		cfg.FailFast = opts.failFast
	}
	if flags.Changed("clock-period") {
		cfg.ClockPeriod = opts.clockPeriod
	}
	if flags.Changed("timeout") {
		cfg.Timeout = opts.timeout
	}
	if flags.Changed("report") {
		cfg.ReportPath = opts.reportPath
	}
	if len(args) > 0 {
		cfg.Scenarios = args
	}
	return cfg, nil
}

// plannedConducts is how many runs the configuration asks for in total.
func plannedConducts(cfg stress.Config) int {
	scenarios := len(cfg.Scenarios)
	if scenarios == 0 {
		scenarios = len(demo.All())
	}
	return scenarios * cfg.Runs
}

// scenarioTally aggregates one scenario's results for the summary table.
type scenarioTally struct {
	passed int
	failed int
}

// renderStressSummary prints the per-scenario outcome table, the failures,
// and a closing session line.
func renderStressSummary(out io.Writer, report *stress.Report) {
	order := make([]string, 0, 4)
	tally := make(map[string]*scenarioTally)
	for _, res := range report.Results {
		st, ok := tally[res.Scenario]
		if !ok {
			st = &scenarioTally{}
			tally[res.Scenario] = st
			order = append(order, res.Scenario)
		}
		if res.Passed {
			st.passed++
		} else {
			st.failed++
		}
	}

	t := newTable(out)
	t.AppendHeader(headerRow("SCENARIO", "RUNS", "PASSED", "FAILED"))
	for _, name := range order {
		st := tally[name]
		failed := fmt.Sprint(st.failed)
		if st.failed > 0 {
			failed = text.FgRed.Sprint(st.failed)
		}
		t.AppendRow(table.Row{name, st.passed + st.failed, st.passed, failed})
	}
	t.AppendFooter(table.Row{"TOTAL", report.Total, report.Passed, report.Failed})
	t.Render()

	for _, res := range report.Results {
		if res.Passed {
			continue
		}
		fmt.Fprintf(out, "%s %s #%d: %s\n",
			text.FgRed.Sprint("FAIL"),
			res.Scenario,
			res.Attempt,
			batonstrings.Ellipsize(res.Error, batonstrings.DefaultCellWidth))
	}

	fmt.Fprintf(out, "session %s ran %d of %d planned conducts in %dms\n",
		report.RunID, report.Total, report.Planned, report.ElapsedMs)
}
