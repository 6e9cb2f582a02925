// Package bench runs solvers over sets of instances and reports runtimes, makespans and
// distances to the best known makespans.
package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"jobshop/jsp"
	"jobshop/solver"
)

var (
	// ErrNoSchedule means a solver returned without any schedule.
	ErrNoSchedule = errors.New("solver returned no schedule")
	// ErrInvalidSchedule means a solver returned a schedule violating a constraint.
	ErrInvalidSchedule = errors.New("solver returned an invalid schedule")
)

// Entry is a solver under test and the name it is reported under.
type Entry struct {
	Name   string
	Solver solver.Solver
}

// Record is the outcome of running one solver on one instance.
type Record struct {
	Instance *jsp.Instance
	Solver   string
	Result   solver.Result
	Runtime  time.Duration
}

// Gap is the distance of the makespan to the instance's best known makespan, in percent.
// It is false when either is unknown.
func (r Record) Gap() (float64, bool) {
	span, ok := r.Result.Makespan()
	if !ok || r.Instance.Optimum <= 0 {
		return 0, false
	}
	return 100 * float64(span-r.Instance.Optimum) / float64(r.Instance.Optimum), true
}

// Runner solves every instance with every solver. Runs are independent and execute
// concurrently on up to Workers goroutines (unbounded when Workers <= 0).
type Runner struct {
	Solvers []Entry
	// Timeout is the budget of each run; <= 0 runs without a deadline.
	Timeout time.Duration
	Workers int
	Clock   solver.Clock
	// Metrics, when set, observes every run.
	Metrics *Metrics
	Logger  *slog.Logger
}

// Report holds the records of a benchmark, instance-major: the record of solver s on
// instance i is Records[i*len(Solvers)+s].
type Report struct {
	Solvers   []string
	Instances []*jsp.Instance
	Records   []Record
}

func (rep *Report) Record(instance, solver int) Record {
	return rep.Records[instance*len(rep.Solvers)+solver]
}

// Run executes the benchmark. A run returning no schedule or an invalid one is a solver
// bug: Run cancels the remaining runs and returns ErrNoSchedule or ErrInvalidSchedule.
func (r *Runner) Run(ctx context.Context, instances []*jsp.Instance) (*Report, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	clock := r.Clock
	if clock == nil {
		clock = solver.SystemClock
	}

	report := &Report{
		Solvers:   make([]string, len(r.Solvers)),
		Instances: instances,
		Records:   make([]Record, len(instances)*len(r.Solvers)),
	}
	for s, entry := range r.Solvers {
		report.Solvers[s] = entry.Name
	}

	g, ctx := errgroup.WithContext(ctx)
	if r.Workers > 0 {
		g.SetLimit(r.Workers)
	}
	for i, inst := range instances {
		for s, entry := range r.Solvers {
			i, inst, s, entry := i, inst, s, entry
			g.Go(func() error {
				rec, err := r.runOne(ctx, clock, inst, entry)
				if err != nil {
					return err
				}
				report.Records[i*len(r.Solvers)+s] = rec
				if r.Metrics != nil {
					r.Metrics.Observe(rec)
				}
				span, _ := rec.Result.Makespan()
				logger.Info("run finished", "instance", inst.Name, "solver", entry.Name,
					"makespan", span, "cause", rec.Result.Cause, "runtime", rec.Runtime)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

func (r *Runner) runOne(ctx context.Context, clock solver.Clock, inst *jsp.Instance, entry Entry) (Record, error) {
	deadline := solver.NoDeadline
	if r.Timeout > 0 {
		deadline = solver.NewDeadline(clock, r.Timeout)
	}
	start := clock.Now()
	result := entry.Solver.Solve(ctx, inst, deadline)
	runtime := clock.Now().Sub(start)

	if result.Schedule == nil {
		return Record{}, fmt.Errorf("%w: %s on %s", ErrNoSchedule, entry.Name, inst.Name)
	}
	if err := result.Schedule.Validate(); err != nil {
		return Record{}, fmt.Errorf("%w: %s on %s: %w", ErrInvalidSchedule, entry.Name, inst.Name, err)
	}
	return Record{Instance: inst, Solver: entry.Name, Result: result, Runtime: runtime}, nil
}
