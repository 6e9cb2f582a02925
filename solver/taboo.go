package solver

import (
	"context"
	"log/slog"

	"jobshop/encoding"
	"jobshop/jsp"
	"jobshop/neighborhood"
)

// Taboo is tabu search over Neighborhood. Each iteration it moves to the best neighbor
// whose swapped pair of tasks is not tabu, even when that is worse than the current
// solution, and forbids swapping that pair again for Tenure iterations. Tabu neighbors
// are still evaluated: one that beats the best known solution is recorded (aspiration)
// without moving the search there.
//
// The result is the best schedule seen. The cause is Blocked when no move or no
// admissible move exists and Timeout when MaxIterations or the deadline run out.
type Taboo struct {
	Base          Solver
	Neighborhood  neighborhood.Neighborhood
	MaxIterations int
	Tenure        int
	Logger        *slog.Logger
}

func (tb Taboo) Solve(ctx context.Context, inst *jsp.Instance, deadline Deadline) Result {
	logger := loggerOr(tb.Logger)
	base := tb.Base.Solve(ctx, inst, deadline)
	if base.Schedule == nil {
		return Result{Instance: inst, Cause: base.Cause, Stats: base.Stats}
	}

	order := encoding.ResourceOrderFromSchedule(base.Schedule)
	current, ok := order.ToSchedule()
	if !ok {
		panic("resource order of a valid schedule does not decode")
	}
	best := base.Schedule
	if current.Makespan() < best.Makespan() {
		best = current
	}
	stats := Stats{Evaluated: base.Stats.Evaluated + 1}
	table := newTabuTable()

	cause := Timeout
	for k := 0; k < tb.MaxIterations; k++ {
		if stopped(ctx, deadline) {
			break
		}
		moves := tb.Neighborhood.Neighbors(order, current)
		if len(moves) == 0 {
			cause = Blocked
			break
		}

		var (
			chosen         neighborhood.Move
			chosenSchedule *encoding.Schedule
		)
		for _, mv := range moves {
			a, b := order.TaskAt(mv.Machine, mv.I), order.TaskAt(mv.Machine, mv.J)
			mv.Apply(order)
			candidate, ok := order.ToSchedule()
			mv.Undo(order)
			stats.Evaluated++
			if !ok {
				continue
			}
			if table.forbidden(a, b, k) {
				if candidate.Makespan() < best.Makespan() {
					best = candidate
					logger.Debug("taboo aspiration", "iteration", k, "move", mv, "makespan", best.Makespan())
				}
				continue
			}
			if chosenSchedule == nil || candidate.Makespan() < chosenSchedule.Makespan() {
				chosen, chosenSchedule = mv, candidate
			}
		}
		if chosenSchedule == nil {
			cause = Blocked
			break
		}

		a, b := order.TaskAt(chosen.Machine, chosen.I), order.TaskAt(chosen.Machine, chosen.J)
		chosen.Apply(order)
		table.forbid(a, b, k+tb.Tenure)
		current = chosenSchedule
		stats.Iterations++
		if current.Makespan() < best.Makespan() {
			best = current
		}
		logger.Debug("taboo moved", "iteration", k, "move", chosen, "makespan", current.Makespan(), "best", best.Makespan())
	}

	logger.Info("taboo done", "instance", inst.Name, "base_makespan", base.Schedule.Makespan(),
		"makespan", best.Makespan(), "cause", cause, "iterations", stats.Iterations)
	return Result{Instance: inst, Schedule: best, Cause: cause, Stats: stats}
}

type taskPair struct {
	first, second jsp.Task
}

// tabuTable maps an ordered pair of tasks to the first iteration at which swapping them
// is allowed again.
type tabuTable struct {
	until map[taskPair]int
}

func newTabuTable() *tabuTable {
	return &tabuTable{until: map[taskPair]int{}}
}

// forbid marks the swap of a and b tabu up to, but not including, iteration until.
func (t *tabuTable) forbid(a, b jsp.Task, until int) {
	t.until[taskPair{a, b}] = until
}

// forbidden reports whether swapping a and b, in either order, is tabu at iteration k.
func (t *tabuTable) forbidden(a, b jsp.Task, k int) bool {
	return t.until[taskPair{a, b}] > k || t.until[taskPair{b, a}] > k
}
