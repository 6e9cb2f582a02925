package solver

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/oleiade/lane/v2"

	"jobshop/encoding"
	"jobshop/jsp"
)

// Rule is a greedy dispatch priority.
type Rule uint8

const (
	SPT     Rule = iota // shortest processing time
	LPT                 // longest processing time
	SRPT                // shortest remaining processing time of the job
	LRPT                // longest remaining processing time of the job
	ESTSPT              // SPT among the tasks that can start earliest
	ESTLPT              // LPT among the tasks that can start earliest
	ESTSRPT             // SRPT among the tasks that can start earliest
	ESTLRPT             // LRPT among the tasks that can start earliest
)

var ruleNames = [...]string{"SPT", "LPT", "SRPT", "LRPT", "EST_SPT", "EST_LPT", "EST_SRPT", "EST_LRPT"}

// Rules lists every dispatch rule.
func Rules() []Rule {
	return []Rule{SPT, LPT, SRPT, LRPT, ESTSPT, ESTLPT, ESTSRPT, ESTLRPT}
}

func (r Rule) String() string {
	if int(r) < len(ruleNames) {
		return ruleNames[r]
	}
	return fmt.Sprintf("Rule(%d)", uint8(r))
}

// ParseRule accepts rule names in any case, e.g. "est_lrpt".
func ParseRule(name string) (Rule, error) {
	for i, n := range ruleNames {
		if strings.EqualFold(n, name) {
			return Rule(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRule, name)
}

// EST reports whether the rule first restricts candidates to the earliest start time.
func (r Rule) EST() bool { return r >= ESTSPT }

// Base is the rule without earliest-start gating.
func (r Rule) Base() Rule {
	if r.EST() {
		return r - ESTSPT
	}
	return r
}

// key orders candidate tasks: lower keys are dispatched first.
func (r Rule) key(inst *jsp.Instance, t jsp.Task) int {
	switch r.Base() {
	case SPT:
		return inst.Duration(t)
	case LPT:
		return -inst.Duration(t)
	case SRPT:
		return inst.RemainingDuration(t)
	default:
		return -inst.RemainingDuration(t)
	}
}

// Greedy builds a schedule by list scheduling: it keeps the next unscheduled task of every
// job as a candidate, dispatches the candidate preferred by Rule at its earliest feasible
// start and replaces it with the next task of its job. Ties go to the lowest job index.
type Greedy struct {
	Rule   Rule
	Logger *slog.Logger
}

func (g Greedy) Solve(ctx context.Context, inst *jsp.Instance, deadline Deadline) Result {
	logger := loggerOr(g.Logger)
	sequence, cause, stats := g.dispatch(ctx, inst, deadline)
	schedule, _ := sequence.ToSchedule()
	logger.Info("greedy done", "instance", inst.Name, "rule", g.Rule, "makespan", schedule.Makespan(), "cause", cause)
	return Result{Instance: inst, Schedule: schedule, Cause: cause, Stats: stats}
}

// dispatch returns the complete dispatch sequence chosen by the rule. Past the deadline
// the remaining tasks are appended by job order and the cause is Timeout.
func (g Greedy) dispatch(ctx context.Context, inst *jsp.Instance, deadline Deadline) (*encoding.JobNumbers, ExitCause, Stats) {
	machineFree := make([]int, inst.NumMachines())
	jobFree := make([]int, inst.NumJobs())
	est := func(t jsp.Task) int { return max(machineFree[inst.Machine(t)], jobFree[t.Job]) }

	var queue dispatchQueue
	if g.Rule.EST() {
		queue = newReadySet(g.Rule, inst, est)
	} else {
		queue = newPriorityQueue(g.Rule, inst)
	}
	for j := 0; j < inst.NumJobs(); j++ {
		queue.add(jsp.Task{Job: j, Index: 0})
	}

	sequence := encoding.NewJobNumbers(inst)
	stats := Stats{Evaluated: 1}
	cause := Blocked
	for !queue.empty() {
		if stopped(ctx, deadline) {
			cause = Timeout
			break
		}
		next := queue.pop()
		start := est(next)
		end := start + inst.Duration(next)
		machineFree[inst.Machine(next)] = end
		jobFree[next.Job] = end

		sequence.AddTask(next.Job)
		if next.Index+1 < inst.NumTasks() {
			queue.add(jsp.Task{Job: next.Job, Index: next.Index + 1})
		}
		stats.Iterations++
	}
	if cause == Timeout {
		finishByJobOrder(inst, sequence, queue.remaining())
	}
	return sequence, cause, stats
}

// finishByJobOrder appends the tasks not yet dispatched, round-robin over jobs in index
// order starting from each job's pending task.
func finishByJobOrder(inst *jsp.Instance, dispatch *encoding.JobNumbers, pending []jsp.Task) {
	next := make([]int, inst.NumJobs())
	for j := range next {
		next[j] = inst.NumTasks()
	}
	for _, t := range pending {
		next[t.Job] = t.Index
	}
	for t := 0; t < inst.NumTasks(); t++ {
		for j := 0; j < inst.NumJobs(); j++ {
			if next[j] < inst.NumTasks() {
				dispatch.AddTask(j)
				next[j]++
			}
		}
	}
}

// dispatchQueue holds the candidate tasks, at most one per job.
type dispatchQueue interface {
	add(t jsp.Task)
	pop() jsp.Task
	empty() bool
	remaining() []jsp.Task
}

// priorityQueue serves rules whose keys never change while a task waits.
type priorityQueue struct {
	rule  Rule
	inst  *jsp.Instance
	queue *lane.PriorityQueue[jsp.Task, int]
	size  int
}

func newPriorityQueue(rule Rule, inst *jsp.Instance) *priorityQueue {
	return &priorityQueue{rule: rule, inst: inst, queue: lane.NewMinPriorityQueue[jsp.Task, int]()}
}

func (q *priorityQueue) add(t jsp.Task) {
	// unique priorities: rule key first, job index second
	q.queue.Push(t, q.rule.key(q.inst, t)*q.inst.NumJobs()+t.Job)
	q.size++
}

func (q *priorityQueue) pop() jsp.Task {
	t, _, _ := q.queue.Pop()
	q.size--
	return t
}

func (q *priorityQueue) empty() bool { return q.size == 0 }

func (q *priorityQueue) remaining() []jsp.Task {
	var tasks []jsp.Task
	for !q.empty() {
		tasks = append(tasks, q.pop())
	}
	return tasks
}

// readySet serves earliest-start rules, whose gate moves with every dispatch.
type readySet struct {
	rule  Rule
	inst  *jsp.Instance
	est   func(jsp.Task) int
	ready mapset.Set[jsp.Task]
}

func newReadySet(rule Rule, inst *jsp.Instance, est func(jsp.Task) int) *readySet {
	return &readySet{rule: rule, inst: inst, est: est, ready: mapset.NewThreadUnsafeSetWithSize[jsp.Task](inst.NumJobs())}
}

func (s *readySet) add(t jsp.Task) { s.ready.Add(t) }

func (s *readySet) empty() bool { return s.ready.IsEmpty() }

func (s *readySet) pop() jsp.Task {
	candidates := s.remaining()
	earliest := s.est(candidates[0])
	for _, t := range candidates[1:] {
		earliest = min(earliest, s.est(t))
	}
	var best jsp.Task
	bestKey, found := 0, false
	for _, t := range candidates {
		if s.est(t) != earliest {
			continue
		}
		// candidates are in job order, so strict improvement keeps the lowest job on ties
		if key := s.rule.key(s.inst, t); !found || key < bestKey {
			best, bestKey, found = t, key, true
		}
	}
	s.ready.Remove(best)
	return best
}

func (s *readySet) remaining() []jsp.Task {
	tasks := s.ready.ToSlice()
	slices.SortFunc(tasks, func(a, b jsp.Task) int { return a.Job - b.Job })
	return tasks
}
