package encoding

import (
	"fmt"
	"slices"
	"strings"

	"jobshop/jsp"
)

// ResourceOrder lists, for every machine, the order in which it processes its tasks.
// Unlike JobNumbers it can describe an infeasible solution: machine orders may contradict
// job orders and form a cycle.
type ResourceOrder struct {
	inst *jsp.Instance
	// tasks[m] is the processing order of machine m.
	tasks [][]jsp.Task
	// filled[m] is the number of tasks already placed on machine m.
	filled []int
}

// NewResourceOrder returns an empty order to be filled with AddTask or AddToMachine.
func NewResourceOrder(inst *jsp.Instance) *ResourceOrder {
	tasks := make([][]jsp.Task, inst.NumMachines())
	for m := range tasks {
		tasks[m] = make([]jsp.Task, inst.NumJobs())
	}
	return &ResourceOrder{inst: inst, tasks: tasks, filled: make([]int, inst.NumMachines())}
}

// ResourceOrderFromSchedule orders each machine's tasks by start time. Equal start times
// keep job index order.
func ResourceOrderFromSchedule(s *Schedule) *ResourceOrder {
	inst := s.Instance()
	ro := NewResourceOrder(inst)
	for m := 0; m < inst.NumMachines(); m++ {
		for j := 0; j < inst.NumJobs(); j++ {
			ro.tasks[m][j] = inst.TaskWithMachine(j, m)
		}
		slices.SortStableFunc(ro.tasks[m], func(a, b jsp.Task) int {
			return s.StartTime(a) - s.StartTime(b)
		})
		ro.filled[m] = inst.NumJobs()
	}
	return ro
}

func (ro *ResourceOrder) Instance() *jsp.Instance { return ro.inst }

// AddToMachine appends to machine's order the task of job that runs on it. Like AddTask it
// panics when that machine already holds a task of every job.
func (ro *ResourceOrder) AddToMachine(machine, job int) {
	ro.AddTask(ro.inst.TaskWithMachine(job, machine))
}

// AddTask appends task to the order of the machine it runs on. It panics when that
// machine already holds a task of every job.
func (ro *ResourceOrder) AddTask(task jsp.Task) {
	machine := ro.inst.Machine(task)
	if ro.filled[machine] == ro.inst.NumJobs() {
		panic(fmt.Sprintf("resource order: AddTask(%v) on full machine %d", task, machine))
	}
	ro.tasks[machine][ro.filled[machine]] = task
	ro.filled[machine]++
}

// TaskAt returns the i-th task processed by machine.
func (ro *ResourceOrder) TaskAt(machine, i int) jsp.Task {
	return ro.tasks[machine][i]
}

// PositionOf returns where task sits in its machine's order, or -1.
func (ro *ResourceOrder) PositionOf(task jsp.Task) int {
	machine := ro.inst.Machine(task)
	return slices.Index(ro.tasks[machine][:ro.filled[machine]], task)
}

// SwapTasks exchanges positions i and j of machine's order. Applying it twice restores
// the original order.
func (ro *ResourceOrder) SwapTasks(machine, i, j int) {
	ro.tasks[machine][i], ro.tasks[machine][j] = ro.tasks[machine][j], ro.tasks[machine][i]
}

func (ro *ResourceOrder) complete() bool {
	for _, n := range ro.filled {
		if n != ro.inst.NumJobs() {
			return false
		}
	}
	return true
}

// ToSchedule simulates the combined job and machine precedences: it repeatedly schedules
// a task that is next both on its job and on its machine, as early as both allow. When no
// such task exists before everything is scheduled the orders form a cycle and there is
// no schedule.
func (ro *ResourceOrder) ToSchedule() (*Schedule, bool) {
	inst := ro.inst
	if !ro.complete() {
		return nil, false
	}
	schedule := NewSchedule(inst)

	// number of scheduled tasks per job and per machine
	nextByJob := make([]int, inst.NumJobs())
	nextByMachine := make([]int, inst.NumMachines())
	// earliest time each machine is available
	release := make([]int, inst.NumMachines())

	remaining := inst.NumJobs() * inst.NumTasks()
	for remaining > 0 {
		progressed := false
		for m := 0; m < inst.NumMachines(); m++ {
			if nextByMachine[m] == inst.NumJobs() {
				continue
			}
			t := ro.tasks[m][nextByMachine[m]]
			if t.Index != nextByJob[t.Job] {
				continue
			}
			est := release[m]
			if t.Index > 0 {
				est = max(est, schedule.EndTime(jsp.Task{Job: t.Job, Index: t.Index - 1}))
			}
			schedule.SetStartTime(t, est)
			nextByJob[t.Job]++
			nextByMachine[m]++
			release[m] = est + inst.Duration(t)
			remaining--
			progressed = true
		}
		if !progressed {
			return nil, false
		}
	}
	return schedule, true
}

// Copy returns an independent order by decoding and re-encoding this one. It fails with
// ErrInfeasibleOrder when the order has no schedule.
func (ro *ResourceOrder) Copy() (*ResourceOrder, error) {
	schedule, ok := ro.ToSchedule()
	if !ok {
		return nil, ErrInfeasibleOrder
	}
	return ResourceOrderFromSchedule(schedule), nil
}

func (ro *ResourceOrder) Equal(other *ResourceOrder) bool {
	if !slices.Equal(ro.filled, other.filled) {
		return false
	}
	for m := range ro.tasks {
		if !slices.Equal(ro.tasks[m], other.tasks[m]) {
			return false
		}
	}
	return true
}

func (ro *ResourceOrder) String() string {
	var sb strings.Builder
	for m := range ro.tasks {
		fmt.Fprintf(&sb, "Machine %d :", m)
		for _, t := range ro.tasks[m][:ro.filled[m]] {
			fmt.Fprintf(&sb, " %v ;", t)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
