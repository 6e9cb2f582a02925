package solver

import (
	"context"

	"jobshop/encoding"
	"jobshop/jsp"
)

// Basic dispatches the first task of every job, then every second task, and so on.
type Basic struct{}

func (Basic) Solve(_ context.Context, inst *jsp.Instance, _ Deadline) Result {
	schedule, _ := basicSequence(inst).ToSchedule()
	return Result{Instance: inst, Schedule: schedule, Cause: Blocked, Stats: Stats{Evaluated: 1}}
}

func basicSequence(inst *jsp.Instance) *encoding.JobNumbers {
	jn := encoding.NewJobNumbers(inst)
	for t := 0; t < inst.NumTasks(); t++ {
		for j := 0; j < inst.NumJobs(); j++ {
			jn.AddTask(j)
		}
	}
	return jn
}
