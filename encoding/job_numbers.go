package encoding

import (
	"fmt"
	"math/rand"
	"slices"

	"github.com/oleiade/lane/v2"

	"jobshop/jsp"
)

// JobNumbers is a dispatch sequence: the i-th occurrence of job j dispatches the i-th task
// of job j. A complete sequence holds every job exactly NumTasks times.
type JobNumbers struct {
	inst *jsp.Instance
	jobs []int
	// next is the index of the first unset entry of jobs.
	next int
}

// NewJobNumbers returns an empty sequence to be filled with AddTask.
func NewJobNumbers(inst *jsp.Instance) *JobNumbers {
	jobs := make([]int, inst.NumJobs()*inst.NumTasks())
	for i := range jobs {
		jobs[i] = -1
	}
	return &JobNumbers{inst: inst, jobs: jobs}
}

// JobNumbersFromSchedule rebuilds a dispatch sequence by repeatedly taking, among jobs
// with tasks left, the job whose next task starts earliest. Equal start times go to the
// lowest job index.
func JobNumbersFromSchedule(s *Schedule) *JobNumbers {
	inst := s.Instance()
	jn := NewJobNumbers(inst)

	// priorities are unique: start time first, job index second
	key := func(t jsp.Task) int { return s.StartTime(t)*inst.NumJobs() + t.Job }
	pending := lane.NewMinPriorityQueue[jsp.Task, int]()
	for j := 0; j < inst.NumJobs(); j++ {
		first := jsp.Task{Job: j, Index: 0}
		pending.Push(first, key(first))
	}
	for !pending.Empty() {
		task, _, _ := pending.Pop()
		jn.AddTask(task.Job)
		if task.Index+1 < inst.NumTasks() {
			next := jsp.Task{Job: task.Job, Index: task.Index + 1}
			pending.Push(next, key(next))
		}
	}
	return jn
}

func (jn *JobNumbers) Instance() *jsp.Instance { return jn.inst }

// AddTask appends the next task of job to the sequence. It panics when the sequence is
// already Complete.
func (jn *JobNumbers) AddTask(job int) {
	if jn.Complete() {
		panic(fmt.Sprintf("job numbers: AddTask(%d) on a complete sequence of %d tasks", job, len(jn.jobs)))
	}
	jn.jobs[jn.next] = job
	jn.next++
}

// Jobs returns a copy of the filled part of the sequence.
func (jn *JobNumbers) Jobs() []int {
	return slices.Clone(jn.jobs[:jn.next])
}

func (jn *JobNumbers) Complete() bool { return jn.next == len(jn.jobs) }

// Shuffle permutes the filled part of the sequence in place (Fisher-Yates).
func (jn *JobNumbers) Shuffle(rng *rand.Rand) {
	filled := jn.jobs[:jn.next]
	for i := len(filled) - 1; i > 0; i-- {
		k := rng.Intn(i + 1)
		filled[i], filled[k] = filled[k], filled[i]
	}
}

// ToSchedule dispatches every task at the earliest time allowed by its job predecessor
// and its machine. It only fails when the sequence is incomplete or lists a job too often.
func (jn *JobNumbers) ToSchedule() (*Schedule, bool) {
	inst := jn.inst
	if !jn.Complete() {
		return nil, false
	}
	// time at which each machine is freed
	machineFree := make([]int, inst.NumMachines())
	// first unscheduled task of each job
	nextTask := make([]int, inst.NumJobs())

	schedule := NewSchedule(inst)
	for _, job := range jn.jobs {
		if job < 0 || job >= inst.NumJobs() || nextTask[job] == inst.NumTasks() {
			return nil, false
		}
		task := jsp.Task{Job: job, Index: nextTask[job]}
		machine := inst.Machine(task)
		est := machineFree[machine]
		if task.Index > 0 {
			est = max(est, schedule.EndTime(jsp.Task{Job: job, Index: task.Index - 1}))
		}
		schedule.SetStartTime(task, est)
		machineFree[machine] = est + inst.Duration(task)
		nextTask[job]++
	}
	return schedule, true
}

func (jn *JobNumbers) Equal(other *JobNumbers) bool {
	return jn.next == other.next && slices.Equal(jn.jobs, other.jobs)
}

func (jn *JobNumbers) String() string {
	return fmt.Sprint(jn.jobs[:jn.next])
}
