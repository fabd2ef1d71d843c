package stress

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baton/internal/demo"
	"baton/pkg/conduct"
	"baton/pkg/patience"
)

func TestNewRunnerValidatesConfig(t *testing.T) {
	_, err := NewRunner(Config{Runs: 0, Parallel: 1})
	require.Error(t, err)

	r, err := NewRunner(DefaultConfig())
	require.NoError(t, err)
	assert.NotNil(t, r)
}

func TestRunnerExecutesConfiguredRuns(t *testing.T) {
	r, err := NewRunner(Config{
		Runs:        3,
		Parallel:    2,
		ClockPeriod: patience.Scale(time.Millisecond),
		Scenarios:   []string{"handoff"},
	})
	require.NoError(t, err)

	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, report.RunID, 36)
	assert.Equal(t, 3, report.Planned)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 3, report.Passed)
	assert.Equal(t, 0, report.Failed)
	require.Len(t, report.Results, 3)

	attempts := map[int]bool{}
	ids := map[string]bool{}
	for _, res := range report.Results {
		assert.Equal(t, "handoff", res.Scenario)
		assert.True(t, res.Passed)
		assert.Empty(t, res.Error)
		assert.Equal(t, 9, res.Events)
		attempts[res.Attempt] = true
		ids[res.RunID] = true
	}
	assert.Len(t, attempts, 3, "attempts must be distinct")
	assert.Len(t, ids, 3, "run ids must be distinct")
}

func TestRunnerCoversAllScenariosByDefault(t *testing.T) {
	r, err := NewRunner(Config{
		Runs:        1,
		Parallel:    4,
		ClockPeriod: patience.Scale(time.Millisecond),
	})
	require.NoError(t, err)

	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, len(demo.All()), report.Total)
	assert.Equal(t, report.Total, report.Passed, "every built-in demo must pass: %+v", report.Results)
}

func TestRunnerFailFastStopsScheduling(t *testing.T) {
	failing := demo.Demo{
		Name: "always-failing",
		Script: func(c *conduct.Conductor, tr *demo.Trace) error {
			_, err := c.Thread(func() error { return errors.New("broken on purpose") })
			return err
		},
	}

	r := &Runner{
		cfg: Config{
			Runs:        50,
			Parallel:    1,
			ClockPeriod: patience.Scale(time.Millisecond),
			FailFast:    true,
			Scenarios:   []string{"always-failing"},
		},
		catalog: []demo.Demo{failing},
	}

	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 50, report.Planned)
	assert.GreaterOrEqual(t, report.Failed, 1)
	assert.LessOrEqual(t, report.Total, 3, "fail-fast must stop scheduling new runs")
	for _, res := range report.Results {
		assert.Contains(t, res.Error, "broken on purpose")
	}
}

func TestRunnerKeepsGoingWithoutFailFast(t *testing.T) {
	failing := demo.Demo{
		Name: "always-failing",
		Script: func(c *conduct.Conductor, tr *demo.Trace) error {
			_, err := c.Thread(func() error { return errors.New("broken on purpose") })
			return err
		},
	}

	r := &Runner{
		cfg: Config{
			Runs:        4,
			Parallel:    2,
			ClockPeriod: patience.Scale(time.Millisecond),
			Scenarios:   []string{"always-failing"},
		},
		catalog: []demo.Demo{failing},
	}

	report, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 4, report.Failed)
}

func TestRunnerInvokesResultCallback(t *testing.T) {
	r, err := NewRunner(Config{
		Runs:        2,
		Parallel:    2,
		ClockPeriod: patience.Scale(time.Millisecond),
		Scenarios:   []string{"bounded-buffer"},
	})
	require.NoError(t, err)

	var seen []RunResult
	r.OnResult(func(res RunResult) {
		seen = append(seen, res)
	})

	report, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, seen, report.Total)
}

func TestRunnerHonorsCanceledContext(t *testing.T) {
	r, err := NewRunner(Config{
		Runs:      5,
		Parallel:  2,
		Scenarios: []string{"handoff"},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := r.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stress session interrupted")
	assert.Equal(t, 0, report.Total)
}
