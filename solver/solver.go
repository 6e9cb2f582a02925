// Package solver holds the search strategies for the job-shop problem.
//
// Every strategy is a value implementing Solver. A call to Solve owns all of its state,
// so solvers can be reused and run concurrently on different instances.
//
// Deadlines are polled between steps, never enforced preemptively: a solver may overrun
// its deadline by the cost of the step in flight (one dispatch decision for Greedy, one
// decode for Random, one full neighborhood scan for Descent and Taboo), plus whatever its
// base solver overran.
package solver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"jobshop/encoding"
	"jobshop/jsp"
)

type Solver interface {
	// Solve searches until it is blocked, the deadline passes or ctx is cancelled.
	Solve(ctx context.Context, inst *jsp.Instance, deadline Deadline) Result
}

// ExitCause documents why a solver returned.
type ExitCause uint8

const (
	// Timeout: the deadline, the iteration budget or the context ran out.
	Timeout ExitCause = iota
	// ProvedOptimal: no better solution exists in the explored space (for Descent, a local
	// optimum of its neighborhood).
	ProvedOptimal
	// Blocked: the solver could not improve any further.
	Blocked
)

func (c ExitCause) String() string {
	switch c {
	case Timeout:
		return "Timeout"
	case ProvedOptimal:
		return "ProvedOptimal"
	case Blocked:
		return "Blocked"
	default:
		return fmt.Sprintf("ExitCause(%d)", uint8(c))
	}
}

// Stats counts the work a solver did.
type Stats struct {
	Iterations int
	// Evaluated is the number of candidate solutions decoded.
	Evaluated int
}

// Result is the outcome of one Solve call. Schedule is nil when no solution was found.
type Result struct {
	Instance *jsp.Instance
	Schedule *encoding.Schedule
	Cause    ExitCause
	Stats    Stats
}

// Makespan returns the schedule's makespan, or false when there is no schedule.
func (r Result) Makespan() (int, bool) {
	if r.Schedule == nil {
		return 0, false
	}
	return r.Schedule.Makespan(), true
}

// Clock tells the time. Tests inject fake clocks.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock.
var SystemClock Clock = systemClock{}

// Deadline is an absolute point in time measured on Clock. The zero value never expires.
type Deadline struct {
	At    time.Time
	Clock Clock
}

// NoDeadline never expires; solvers stop on their own budgets or on cancellation.
var NoDeadline = Deadline{}

// NewDeadline returns the deadline budget from now on clock.
func NewDeadline(clock Clock, budget time.Duration) Deadline {
	return Deadline{At: clock.Now().Add(budget), Clock: clock}
}

func (d Deadline) clock() Clock {
	if d.Clock == nil {
		return SystemClock
	}
	return d.Clock
}

// Remaining is the time left before the deadline, negative once it has passed.
func (d Deadline) Remaining() time.Duration {
	if d.At.IsZero() {
		return time.Duration(math.MaxInt64)
	}
	return d.At.Sub(d.clock().Now())
}

func (d Deadline) Exceeded() bool {
	return d.Remaining() <= 0
}

func stopped(ctx context.Context, deadline Deadline) bool {
	return ctx.Err() != nil || deadline.Exceeded()
}

func loggerOr(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger
}
