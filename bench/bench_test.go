package bench

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobshop/encoding"
	"jobshop/jsp"
	"jobshop/neighborhood"
	"jobshop/solver"
)

type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

func twoByTwo() *jsp.Instance {
	return jsp.MustInstance("2x2", [][]jsp.WorkPair{
		{{Machine: 0, Duration: 3}, {Machine: 1, Duration: 2}},
		{{Machine: 1, Duration: 2}, {Machine: 0, Duration: 4}},
	})
}

func testInstances(t *testing.T) []*jsp.Instance {
	t.Helper()
	catalog, err := jsp.LoadCatalog("../jsp/testdata/instances.json")
	require.NoError(t, err)
	aaa, err := jsp.MatchPrefix(catalog, "aaa")
	require.NoError(t, err)
	return append(aaa, twoByTwo())
}

// solverFunc adapts a function to solver.Solver.
type solverFunc func(inst *jsp.Instance) solver.Result

func (f solverFunc) Solve(_ context.Context, inst *jsp.Instance, _ solver.Deadline) solver.Result {
	return f(inst)
}

func TestRunner_Report(t *testing.T) {
	metrics := NewMetrics()
	runner := &Runner{
		Solvers: []Entry{{Name: "basic", Solver: solver.Basic{}}, {Name: "spt", Solver: solver.Greedy{Rule: solver.SPT}}},
		Workers: 1,
		Clock:   &stepClock{now: time.Unix(0, 0), step: time.Millisecond},
		Metrics: metrics,
	}
	instances := testInstances(t)
	report, err := runner.Run(context.Background(), instances)
	require.NoError(t, err)

	assert.Equal(t, []string{"basic", "spt"}, report.Solvers)
	require.Len(t, report.Records, 4)
	basicOnAAA := report.Record(0, 0)
	assert.Equal(t, "aaa1", basicOnAAA.Instance.Name)
	assert.Equal(t, "basic", basicOnAAA.Solver)
	assert.Equal(t, time.Millisecond, basicOnAAA.Runtime)
	gap, ok := basicOnAAA.Gap()
	require.True(t, ok)
	assert.InDelta(t, 100.0/11, gap, 1e-9)

	_, ok = report.Record(1, 0).Gap()
	assert.False(t, ok, "no best known makespan")
	span, _ := report.Record(1, 1).Result.Makespan()
	assert.Equal(t, 7, span)

	var out bytes.Buffer
	require.NoError(t, report.WriteTable(&out))
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], strings.Repeat(" ", 25)+"basic"))
	assert.Contains(t, lines[1], "runtime makespan gap")
	assert.True(t, strings.HasPrefix(lines[2], "aaa1     2x3     11            1       12   9.1        "), lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "2x2      2x2      -            1        7     -        "), lines[3])
	assert.True(t, strings.HasPrefix(lines[4], "AVG      -        -          1.0        -   9.1        "), lines[4])

	var text bytes.Buffer
	require.NoError(t, metrics.WriteText(&text))
	assert.Contains(t, text.String(), `jobshop_solver_runs_total{cause="Blocked",solver="basic"} 2`)
	assert.Contains(t, text.String(), `jobshop_solver_makespan{instance="aaa1",solver="basic"} 12`)
	assert.Contains(t, text.String(), "jobshop_solver_runtime_seconds_bucket")
}

func TestRunner_ConcurrentTimeouts(t *testing.T) {
	runner := &Runner{
		Solvers: []Entry{
			{Name: "random", Solver: solver.Random{Seed: 1}},
			{Name: "taboo", Solver: solver.Taboo{
				Base:          solver.Greedy{Rule: solver.ESTLRPT},
				Neighborhood:  neighborhood.Nowicki{},
				MaxIterations: 50,
				Tenure:        3,
			}},
		},
		Timeout: 20 * time.Millisecond,
		Workers: 4,
	}
	report, err := runner.Run(context.Background(), testInstances(t))
	require.NoError(t, err)
	for _, rec := range report.Records {
		require.NotNil(t, rec.Result.Schedule)
		assert.NoError(t, rec.Result.Schedule.Validate())
	}
	assert.Equal(t, solver.Timeout, report.Record(0, 0).Result.Cause)
}

func TestRunner_RejectsBadResults(t *testing.T) {
	none := solverFunc(func(inst *jsp.Instance) solver.Result {
		return solver.Result{Instance: inst, Cause: solver.Blocked}
	})
	overlapping := solverFunc(func(inst *jsp.Instance) solver.Result {
		// every task starting at 0 breaks job order
		return solver.Result{Instance: inst, Schedule: encoding.NewSchedule(inst), Cause: solver.Blocked}
	})

	_, err := (&Runner{Solvers: []Entry{{Name: "none", Solver: none}}}).Run(context.Background(), testInstances(t))
	assert.ErrorIs(t, err, ErrNoSchedule)

	_, err = (&Runner{Solvers: []Entry{{Name: "zeros", Solver: overlapping}}}).Run(context.Background(), testInstances(t))
	assert.ErrorIs(t, err, ErrInvalidSchedule)
	assert.Contains(t, err.Error(), "zeros")
}
