package solver

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"jobshop/jsp"
)

// Random shuffles the dispatch sequence over and over and keeps the best decoding.
// It is reproducible for a given Seed and number of shuffles.
type Random struct {
	Seed int64
	// MaxIterations bounds the number of shuffles; 0 means until the deadline, or
	// DefaultShuffles when there is none.
	MaxIterations int
	Logger        *slog.Logger
}

const (
	// imminent is how close to the deadline Random stops shuffling.
	imminent = time.Millisecond
	// DefaultShuffles bounds Random when it has neither a deadline nor MaxIterations.
	DefaultShuffles = 10000
)

func (r Random) Solve(ctx context.Context, inst *jsp.Instance, deadline Deadline) Result {
	logger := loggerOr(r.Logger)
	rng := rand.New(rand.NewSource(r.Seed))

	sequence := basicSequence(inst)
	best, _ := sequence.ToSchedule()
	stats := Stats{Evaluated: 1}
	budget := r.MaxIterations
	if budget == 0 && deadline.At.IsZero() {
		budget = DefaultShuffles
	}

	for deadline.Remaining() > imminent && ctx.Err() == nil {
		if budget > 0 && stats.Iterations >= budget {
			break
		}
		stats.Iterations++
		sequence.Shuffle(rng)
		candidate, ok := sequence.ToSchedule()
		stats.Evaluated++
		if ok && candidate.Makespan() < best.Makespan() {
			best = candidate
			logger.Debug("random improved", "iteration", stats.Iterations, "makespan", best.Makespan())
		}
	}
	logger.Info("random done", "instance", inst.Name, "makespan", best.Makespan(), "shuffles", stats.Iterations)
	return Result{Instance: inst, Schedule: best, Cause: Timeout, Stats: stats}
}
