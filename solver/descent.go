package solver

import (
	"context"
	"log/slog"

	"jobshop/encoding"
	"jobshop/jsp"
	"jobshop/neighborhood"
)

// Descent is steepest-descent local search. Starting from Base's schedule it moves to the
// best strictly improving neighbor until none exists (ProvedOptimal: a local optimum for
// Neighborhood) or the deadline or MaxIterations is reached (Timeout).
type Descent struct {
	Base         Solver
	Neighborhood neighborhood.Neighborhood
	// MaxIterations bounds the number of moves taken; 0 means unbounded.
	MaxIterations int
	Logger        *slog.Logger
}

func (d Descent) Solve(ctx context.Context, inst *jsp.Instance, deadline Deadline) Result {
	logger := loggerOr(d.Logger)
	base := d.Base.Solve(ctx, inst, deadline)
	if base.Schedule == nil {
		return Result{Instance: inst, Cause: base.Cause, Stats: base.Stats}
	}

	order := encoding.ResourceOrderFromSchedule(base.Schedule)
	current, ok := order.ToSchedule()
	if !ok || current.Makespan() > base.Schedule.Makespan() {
		// decoding a feasible schedule's machine orders never fails nor worsens it
		panic("resource order of a valid schedule does not decode")
	}
	stats := Stats{Evaluated: base.Stats.Evaluated + 1}

	cause := ProvedOptimal
	for {
		if stopped(ctx, deadline) || (d.MaxIterations > 0 && stats.Iterations >= d.MaxIterations) {
			cause = Timeout
			break
		}
		var (
			bestMove     neighborhood.Move
			bestSchedule *encoding.Schedule
		)
		for _, mv := range d.Neighborhood.Neighbors(order, current) {
			mv.Apply(order)
			candidate, ok := order.ToSchedule()
			mv.Undo(order)
			stats.Evaluated++
			if !ok {
				continue
			}
			bestSpan := current.Makespan()
			if bestSchedule != nil {
				bestSpan = bestSchedule.Makespan()
			}
			if candidate.Makespan() < bestSpan {
				bestMove, bestSchedule = mv, candidate
			}
		}
		if bestSchedule == nil {
			break
		}
		bestMove.Apply(order)
		current = bestSchedule
		stats.Iterations++
		logger.Debug("descent moved", "iteration", stats.Iterations, "move", bestMove, "makespan", current.Makespan())
	}

	logger.Info("descent done", "instance", inst.Name, "base_makespan", base.Schedule.Makespan(),
		"makespan", current.Makespan(), "cause", cause, "moves", stats.Iterations)
	return Result{Instance: inst, Schedule: current, Cause: cause, Stats: stats}
}
