package encoding

import (
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"jobshop/jsp"
)

// Schedule assigns a start time to every task of an instance.
type Schedule struct {
	inst *jsp.Instance
	// times[job][task] is the start time of task (job, task).
	times [][]int
}

// NewSchedule returns a schedule where every task starts at 0.
func NewSchedule(inst *jsp.Instance) *Schedule {
	return &Schedule{inst: inst, times: jsp.NewMatrix[int](inst.NumJobs(), inst.NumTasks())}
}

func (s *Schedule) Instance() *jsp.Instance { return s.inst }

func (s *Schedule) StartTime(t jsp.Task) int { return s.times[t.Job][t.Index] }

func (s *Schedule) EndTime(t jsp.Task) int { return s.StartTime(t) + s.inst.Duration(t) }

func (s *Schedule) SetStartTime(t jsp.Task, start int) { s.times[t.Job][t.Index] = start }

// ToSchedule returns the schedule itself.
func (s *Schedule) ToSchedule() (*Schedule, bool) { return s, true }

// Clone returns an independent copy.
func (s *Schedule) Clone() *Schedule {
	c := NewSchedule(s.inst)
	for j := range s.times {
		copy(c.times[j], s.times[j])
	}
	return c
}

// Validate reports the first violated constraint, or nil when the schedule is feasible:
// tasks of a job run in order, no two tasks overlap on a machine and nothing starts
// before 0.
func (s *Schedule) Validate() error {
	inst := s.inst
	for j := 0; j < inst.NumJobs(); j++ {
		for t := 0; t < inst.NumTasks(); t++ {
			task := jsp.Task{Job: j, Index: t}
			if s.StartTime(task) < 0 {
				return fmt.Errorf("task %v starts at %d", task, s.StartTime(task))
			}
			if t > 0 {
				prev := jsp.Task{Job: j, Index: t - 1}
				if s.EndTime(prev) > s.StartTime(task) {
					return fmt.Errorf("task %v starts at %d before %v ends at %d",
						task, s.StartTime(task), prev, s.EndTime(prev))
				}
			}
		}
	}
	for m := 0; m < inst.NumMachines(); m++ {
		for j1 := 0; j1 < inst.NumJobs(); j1++ {
			t1 := inst.TaskWithMachine(j1, m)
			for j2 := j1 + 1; j2 < inst.NumJobs(); j2++ {
				t2 := inst.TaskWithMachine(j2, m)
				t1First := s.EndTime(t1) <= s.StartTime(t2)
				t2First := s.EndTime(t2) <= s.StartTime(t1)
				if !t1First && !t2First {
					return fmt.Errorf("tasks %v and %v overlap on machine %d", t1, t2, m)
				}
			}
		}
	}
	return nil
}

func (s *Schedule) IsValid() bool { return s.Validate() == nil }

// Makespan is the latest end time among the last task of every job.
func (s *Schedule) Makespan() int {
	last := s.inst.NumTasks() - 1
	makespan := 0
	for j := 0; j < s.inst.NumJobs(); j++ {
		makespan = max(makespan, s.EndTime(jsp.Task{Job: j, Index: last}))
	}
	return makespan
}

// IsCriticalPath reports whether path starts at 0, ends at the makespan and every task
// ends exactly when the next one starts.
func (s *Schedule) IsCriticalPath(path []jsp.Task) bool {
	if len(path) == 0 {
		return false
	}
	if s.StartTime(path[0]) != 0 {
		return false
	}
	if s.EndTime(path[len(path)-1]) != s.Makespan() {
		return false
	}
	for i := 0; i < len(path)-1; i++ {
		if s.EndTime(path[i]) != s.StartTime(path[i+1]) {
			return false
		}
	}
	return true
}

// CriticalPath walks back from the task that finishes last to a task starting at 0,
// always stepping to a task that ends exactly when the current one starts.
//
// Ties are broken by lowest job index: the seed is the lowest-index job whose last task
// ends at the makespan, the job predecessor is preferred over machine predecessors, and
// among machine predecessors the lowest job index wins. Zero-duration machine
// predecessors starting with the current task are taken only when nothing earlier ends
// there, and never twice.
//
// The schedule must be semi-active (no task can start earlier without moving another),
// which holds for every schedule produced by decoding an encoding. A schedule with an
// idle gap before some task on the path makes this panic.
func (s *Schedule) CriticalPath() []jsp.Task {
	inst := s.inst
	last := inst.NumTasks() - 1
	seed := jsp.Task{Job: 0, Index: last}
	for j := 1; j < inst.NumJobs(); j++ {
		candidate := jsp.Task{Job: j, Index: last}
		if s.EndTime(candidate) > s.EndTime(seed) {
			seed = candidate
		}
	}

	// built back to front, reversed at the end
	path := []jsp.Task{seed}
	onPath := mapset.NewThreadUnsafeSet(seed)
	cur := seed
	for s.StartTime(cur) != 0 {
		pred, ok := s.latestPredecessor(cur, onPath)
		if !ok {
			panic(fmt.Sprintf("no task ends when %v starts at %d: schedule is not semi-active",
				cur, s.StartTime(cur)))
		}
		path = append(path, pred)
		onPath.Add(pred)
		cur = pred
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// latestPredecessor finds a task ending exactly when cur starts. A same-machine task
// that starts earlier is preferred over a zero-duration one starting with cur; the
// latter must not already be on the path.
func (s *Schedule) latestPredecessor(cur jsp.Task, onPath mapset.Set[jsp.Task]) (jsp.Task, bool) {
	start := s.StartTime(cur)
	if cur.Index > 0 {
		onJob := jsp.Task{Job: cur.Job, Index: cur.Index - 1}
		if s.EndTime(onJob) == start {
			return onJob, true
		}
	}
	machine := s.inst.Machine(cur)
	zeroDuration, found := jsp.Task{}, false
	for j := 0; j < s.inst.NumJobs(); j++ {
		if j == cur.Job {
			continue
		}
		t := s.inst.TaskWithMachine(j, machine)
		if s.EndTime(t) != start {
			continue
		}
		if s.StartTime(t) < start {
			return t, true
		}
		if !found && !onPath.Contains(t) {
			zeroDuration, found = t, true
		}
	}
	return zeroDuration, found
}

func (s *Schedule) String() string {
	var sb strings.Builder
	sb.WriteString("Start times of all tasks:\n")
	for j := range s.times {
		fmt.Fprintf(&sb, "Job %d:", j)
		for _, start := range s.times[j] {
			fmt.Fprintf(&sb, "%5d", start)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
