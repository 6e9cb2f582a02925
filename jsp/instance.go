package jsp

import (
	"errors"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/exp/constraints"
)

var ErrInvalidInstance = errors.New("invalid instance")

// WorkPair is one operation of a job: the machine it runs on and for how long.
type WorkPair struct {
	Machine  int `json:"machine"`
	Duration int `json:"duration"`
}

// Task identifies the Index-th operation of Job.
type Task struct {
	Job   int
	Index int
}

func (t Task) String() string {
	return fmt.Sprintf("(%d, %d)", t.Job, t.Index)
}

// Instance is an immutable job-shop problem. Every job visits every machine exactly once,
// so the number of tasks per job equals the number of machines.
type Instance struct {
	Name    string
	Optimum int // best known makespan, 0 when unknown

	jobs      int
	tasks     int
	durations [][]int
	machines  [][]int
	// taskOn[job][machine] is the index of the job's task running on machine.
	taskOn [][]int
}

// NewMatrix allocates a rows x cols matrix backed by a single slice.
func NewMatrix[T constraints.Integer](rows, cols int) [][]T {
	backing := make([]T, rows*cols)
	m := make([][]T, rows)
	for r := range m {
		m[r] = backing[r*cols : (r+1)*cols : (r+1)*cols]
	}
	return m
}

// Sum adds up values.
func Sum[T constraints.Integer](values []T) T {
	var total T
	for _, v := range values {
		total += v
	}
	return total
}

// NewInstance builds an instance from per-job rows of (machine, duration) pairs.
// The rows are copied; later changes to work do not affect the instance.
func NewInstance(name string, work [][]WorkPair) (*Instance, error) {
	if len(work) == 0 {
		return nil, fmt.Errorf("%w: no jobs", ErrInvalidInstance)
	}
	tasks := len(work[0])
	if tasks == 0 {
		return nil, fmt.Errorf("%w: no tasks", ErrInvalidInstance)
	}
	inst := &Instance{
		Name:      name,
		jobs:      len(work),
		tasks:     tasks,
		durations: NewMatrix[int](len(work), tasks),
		machines:  NewMatrix[int](len(work), tasks),
		taskOn:    NewMatrix[int](len(work), tasks),
	}
	for j, row := range work {
		if len(row) != tasks {
			return nil, fmt.Errorf("%w: job %d has %d tasks, want %d", ErrInvalidInstance, j, len(row), tasks)
		}
		seen := mapset.NewThreadUnsafeSetWithSize[int](tasks)
		for t, pair := range row {
			if pair.Machine < 0 || pair.Machine >= tasks {
				return nil, fmt.Errorf("%w: job %d task %d uses machine %d out of [0,%d)",
					ErrInvalidInstance, j, t, pair.Machine, tasks)
			}
			if pair.Duration < 0 {
				return nil, fmt.Errorf("%w: job %d task %d has negative duration %d",
					ErrInvalidInstance, j, t, pair.Duration)
			}
			if !seen.Add(pair.Machine) {
				return nil, fmt.Errorf("%w: job %d visits machine %d twice", ErrInvalidInstance, j, pair.Machine)
			}
			inst.machines[j][t] = pair.Machine
			inst.durations[j][t] = pair.Duration
			inst.taskOn[j][pair.Machine] = t
		}
	}
	return inst, nil
}

// MustInstance is like NewInstance but panics on invalid input. Meant for tests and fixtures.
func MustInstance(name string, work [][]WorkPair) *Instance {
	inst, err := NewInstance(name, work)
	if err != nil {
		panic(err)
	}
	return inst
}

func (inst *Instance) NumJobs() int     { return inst.jobs }
func (inst *Instance) NumTasks() int    { return inst.tasks }
func (inst *Instance) NumMachines() int { return inst.tasks }

func (inst *Instance) Duration(t Task) int { return inst.durations[t.Job][t.Index] }
func (inst *Instance) Machine(t Task) int  { return inst.machines[t.Job][t.Index] }

// TaskWithMachine returns the task of job that runs on machine.
func (inst *Instance) TaskWithMachine(job, machine int) Task {
	return Task{Job: job, Index: inst.taskOn[job][machine]}
}

// RemainingDuration is the total duration of job's tasks from t.Index (inclusive) to the end.
func (inst *Instance) RemainingDuration(t Task) int {
	return Sum(inst.durations[t.Job][t.Index:])
}

// Work returns a copy of the instance as (machine, duration) rows.
func (inst *Instance) Work() [][]WorkPair {
	work := make([][]WorkPair, inst.jobs)
	for j := range work {
		work[j] = make([]WorkPair, inst.tasks)
		for t := range work[j] {
			work[j][t] = WorkPair{Machine: inst.machines[j][t], Duration: inst.durations[j][t]}
		}
	}
	return work
}

func (inst *Instance) String() string {
	return fmt.Sprintf("%s (%dx%d)", inst.Name, inst.jobs, inst.tasks)
}
