// Package stress hammers the conduct engine with repeated demo runs. A
// choreography that only mostly holds is a flaky test generator, so the
// runner executes each scenario many times, in parallel, and aggregates
// the verdicts into a reproducible report.
package stress

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"baton/internal/demo"
	"baton/pkg/logging"
)

// Runner executes a stress session over the built-in demos.
type Runner struct {
	cfg      Config
	catalog  []demo.Demo
	onResult func(RunResult)
}

// NewRunner validates cfg and prepares a runner over the built-in demos.
func NewRunner(cfg Config) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Runner{cfg: cfg, catalog: demo.All()}, nil
}

// OnResult registers a callback invoked for every finished run in
// completion order, from the collecting goroutine.
func (r *Runner) OnResult(fn func(RunResult)) {
	r.onResult = fn
}

// scenarios resolves the configured scenario names against the catalog,
// keeping the configured order.
func (r *Runner) scenarios() []demo.Demo {
	if len(r.cfg.Scenarios) == 0 {
		return r.catalog
	}
	picked := make([]demo.Demo, 0, len(r.cfg.Scenarios))
	for _, name := range r.cfg.Scenarios {
		for _, d := range r.catalog {
			if d.Name == name {
				picked = append(picked, d)
			}
		}
	}
	return picked
}

// Run executes the session: every selected scenario Runs times, at most
// Parallel conducts in flight. Scenario failures land in the report, not
// in the returned error, which reports runner-level interruptions only.
//
// With FailFast set, the first failure stops the scheduling of new runs;
// runs already in flight complete and are counted.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	scenarios := r.scenarios()
	planned := len(scenarios) * r.cfg.Runs

	report := &Report{
		RunID:   uuid.New().String(),
		Started: time.Now(),
		Planned: planned,
		Results: make([]RunResult, 0, planned),
	}
	logging.Info("Stress", "session %s: %d scenarios x %d runs, %d in flight",
		report.RunID, len(scenarios), r.cfg.Runs, r.cfg.Parallel)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(r.cfg.Parallel)
	results := make(chan RunResult, planned)

	go func() {
	schedule:
		for _, d := range scenarios {
			for attempt := 1; attempt <= r.cfg.Runs; attempt++ {
				if gctx.Err() != nil {
					break schedule
				}
				d, attempt := d, attempt
				g.Go(func() error {
					if gctx.Err() != nil {
						return nil
					}
					results <- r.runOne(d, attempt)
					return nil
				})
			}
		}
		_ = g.Wait()
		close(results)
	}()

	for res := range results {
		report.Results = append(report.Results, res)
		report.Total++
		if res.Passed {
			report.Passed++
		} else {
			report.Failed++
			if r.cfg.FailFast {
				cancel()
			}
		}
		if r.onResult != nil {
			r.onResult(res)
		}
	}

	report.ElapsedMs = time.Since(report.Started).Milliseconds()
	logging.Info("Stress", "session %s finished: %d/%d passed in %dms",
		report.RunID, report.Passed, report.Total, report.ElapsedMs)

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("stress session interrupted: %w", err)
	}
	return report, nil
}

func (r *Runner) runOne(d demo.Demo, attempt int) RunResult {
	res := RunResult{
		RunID:    uuid.New().String(),
		Scenario: d.Name,
		Attempt:  attempt,
	}

	start := time.Now()
	tr, err := demo.Execute(d, r.cfg.ClockPeriod, r.cfg.Timeout)
	res.DurationMs = time.Since(start).Milliseconds()
	res.Events = len(tr.Events())

	if err != nil {
		res.Error = err.Error()
		logging.Debug("Stress", "run %s (%s #%d) failed: %v", res.RunID, d.Name, attempt, err)
		return res
	}
	res.Passed = true
	logging.Debug("Stress", "run %s (%s #%d) passed in %dms", res.RunID, d.Name, attempt, res.DurationMs)
	return res
}
