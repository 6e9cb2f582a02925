package encoding

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobshop/jsp"
)

// twoByTwo: job 0 = [(m0, 3), (m1, 2)], job 1 = [(m1, 2), (m0, 4)].
func twoByTwo() *jsp.Instance {
	return jsp.MustInstance("2x2", [][]jsp.WorkPair{
		{{Machine: 0, Duration: 3}, {Machine: 1, Duration: 2}},
		{{Machine: 1, Duration: 2}, {Machine: 0, Duration: 4}},
	})
}

func task(job, index int) jsp.Task { return jsp.Task{Job: job, Index: index} }

func startTimes(s *Schedule) [][]int {
	inst := s.Instance()
	out := make([][]int, inst.NumJobs())
	for j := range out {
		out[j] = make([]int, inst.NumTasks())
		for i := range out[j] {
			out[j][i] = s.StartTime(task(j, i))
		}
	}
	return out
}

func TestJobNumbers_ToSchedule(t *testing.T) {
	inst := twoByTwo()
	jn := NewJobNumbers(inst)
	for _, j := range []int{0, 1, 0, 1} {
		jn.AddTask(j)
	}
	s, ok := jn.ToSchedule()
	require.True(t, ok)
	assert.Equal(t, [][]int{{0, 3}, {0, 3}}, startTimes(s))
	assert.Equal(t, 7, s.Makespan())
	assert.True(t, s.IsValid())
}

func TestJobNumbers_IncompleteOrOverfull(t *testing.T) {
	inst := twoByTwo()
	jn := NewJobNumbers(inst)
	jn.AddTask(0)
	_, ok := jn.ToSchedule()
	assert.False(t, ok)

	for _, j := range []int{0, 0, 1} {
		jn.AddTask(j)
	}
	_, ok = jn.ToSchedule()
	assert.False(t, ok, "job 0 listed three times")
}

func TestJobNumbersFromSchedule_EarliestStartLowestJob(t *testing.T) {
	inst := twoByTwo()
	s := NewSchedule(inst)
	s.SetStartTime(task(0, 0), 0)
	s.SetStartTime(task(0, 1), 3)
	s.SetStartTime(task(1, 0), 0)
	s.SetStartTime(task(1, 1), 3)

	jn := JobNumbersFromSchedule(s)
	assert.Equal(t, []int{0, 1, 0, 1}, jn.Jobs())

	back, ok := jn.ToSchedule()
	require.True(t, ok)
	assert.Equal(t, startTimes(s), startTimes(back))
}

func TestJobNumbers_AnySequenceDecodesToValidSchedule(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 20; trial++ {
		inst := jsp.Random(2+rng.Intn(6), 2+rng.Intn(6), rng)
		jn := NewJobNumbers(inst)
		for j := 0; j < inst.NumJobs(); j++ {
			for i := 0; i < inst.NumTasks(); i++ {
				jn.AddTask(j)
			}
		}
		for shuffle := 0; shuffle < 10; shuffle++ {
			jn.Shuffle(rng)
			s, ok := jn.ToSchedule()
			require.True(t, ok)
			require.NoError(t, s.Validate())
			require.True(t, s.IsCriticalPath(s.CriticalPath()))
		}
	}
}

func TestResourceOrder_RoundTripNeverWorse(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for trial := 0; trial < 20; trial++ {
		inst := jsp.Random(2+rng.Intn(6), 2+rng.Intn(6), rng)
		jn := NewJobNumbers(inst)
		for i := 0; i < inst.NumTasks(); i++ {
			for j := 0; j < inst.NumJobs(); j++ {
				jn.AddTask(j)
			}
		}
		jn.Shuffle(rng)
		s, ok := jn.ToSchedule()
		require.True(t, ok)

		ro := ResourceOrderFromSchedule(s)
		back, ok := ro.ToSchedule()
		require.True(t, ok)
		require.NoError(t, back.Validate())
		assert.LessOrEqual(t, back.Makespan(), s.Makespan())

		again := JobNumbersFromSchedule(back)
		decoded, ok := again.ToSchedule()
		require.True(t, ok)
		assert.Equal(t, back.Makespan(), decoded.Makespan())
	}
}

func TestResourceOrder_FromScheduleSortsByStart(t *testing.T) {
	inst := twoByTwo()
	jn := NewJobNumbers(inst)
	for _, j := range []int{0, 1, 0, 1} {
		jn.AddTask(j)
	}
	s, _ := jn.ToSchedule()
	ro := ResourceOrderFromSchedule(s)

	assert.Equal(t, task(0, 0), ro.TaskAt(0, 0))
	assert.Equal(t, task(1, 1), ro.TaskAt(0, 1))
	assert.Equal(t, task(1, 0), ro.TaskAt(1, 0))
	assert.Equal(t, task(0, 1), ro.TaskAt(1, 1))
	assert.Equal(t, 1, ro.PositionOf(task(1, 1)))
}

func TestResourceOrder_CyclicOrderHasNoSchedule(t *testing.T) {
	inst := twoByTwo()
	ro := NewResourceOrder(inst)
	// (1,1) first on m0 needs (1,0), which waits on m1 for (0,1), which needs (0,0),
	// which waits on m0 for (1,1).
	ro.AddToMachine(0, 1)
	ro.AddToMachine(0, 0)
	ro.AddToMachine(1, 0)
	ro.AddToMachine(1, 1)

	s, ok := ro.ToSchedule()
	assert.False(t, ok)
	assert.Nil(t, s)

	_, err := ro.Copy()
	assert.ErrorIs(t, err, ErrInfeasibleOrder)
}

func TestResourceOrder_ManualOrder(t *testing.T) {
	inst, err := jsp.Load("../jsp/testdata/aaa1")
	require.NoError(t, err)

	ro := NewResourceOrder(inst)
	ro.AddToMachine(0, 0)
	ro.AddToMachine(0, 1)
	ro.AddToMachine(1, 1)
	ro.AddToMachine(1, 0)
	ro.AddToMachine(2, 1)
	ro.AddToMachine(2, 0)

	s, ok := ro.ToSchedule()
	require.True(t, ok)
	require.NoError(t, s.Validate())
	// job 1 runs m1 [0,2], m0 [3,5], m2 [5,9]; job 0 runs m0 [0,3], m1 [3,6], m2 [9,11]
	assert.Equal(t, [][]int{{0, 3, 9}, {0, 3, 5}}, startTimes(s))
	assert.Equal(t, 11, s.Makespan())
}

func TestResourceOrder_SwapTwiceRestores(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	inst := jsp.Random(5, 4, rng)
	jn := NewJobNumbers(inst)
	for i := 0; i < inst.NumTasks(); i++ {
		for j := 0; j < inst.NumJobs(); j++ {
			jn.AddTask(j)
		}
	}
	s, _ := jn.ToSchedule()
	ro := ResourceOrderFromSchedule(s)
	original, err := ro.Copy()
	require.NoError(t, err)

	for m := 0; m < inst.NumMachines(); m++ {
		ro.SwapTasks(m, 1, 3)
		assert.False(t, ro.Equal(original))
		ro.SwapTasks(m, 1, 3)
		assert.True(t, ro.Equal(original))
	}
}

func TestResourceOrder_CopyIsIndependent(t *testing.T) {
	inst := twoByTwo()
	jn := NewJobNumbers(inst)
	for _, j := range []int{0, 1, 0, 1} {
		jn.AddTask(j)
	}
	s, _ := jn.ToSchedule()
	ro := ResourceOrderFromSchedule(s)
	c, err := ro.Copy()
	require.NoError(t, err)
	c.SwapTasks(0, 0, 1)
	assert.Equal(t, task(0, 0), ro.TaskAt(0, 0))
	assert.Equal(t, task(1, 1), c.TaskAt(0, 0))
}

func TestSchedule_ValidateDetectsViolations(t *testing.T) {
	inst := twoByTwo()

	overlap := NewSchedule(inst)
	overlap.SetStartTime(task(0, 1), 3)
	overlap.SetStartTime(task(1, 1), 2)
	assert.ErrorContains(t, overlap.Validate(), "overlap")

	early := NewSchedule(inst)
	early.SetStartTime(task(0, 1), 1)
	early.SetStartTime(task(1, 1), 8)
	assert.False(t, early.IsValid())

	negative := NewSchedule(inst)
	negative.SetStartTime(task(0, 0), -1)
	assert.False(t, negative.IsValid())
}

func TestSchedule_CriticalPath(t *testing.T) {
	inst := twoByTwo()
	jn := NewJobNumbers(inst)
	for _, j := range []int{0, 1, 0, 1} {
		jn.AddTask(j)
	}
	s, _ := jn.ToSchedule()

	path := s.CriticalPath()
	assert.Equal(t, []jsp.Task{task(0, 0), task(1, 1)}, path)
	assert.True(t, s.IsCriticalPath(path))

	assert.False(t, s.IsCriticalPath(nil))
	assert.False(t, s.IsCriticalPath([]jsp.Task{task(1, 0), task(1, 1)}), "gap between 2 and 3")
	assert.False(t, s.IsCriticalPath([]jsp.Task{task(0, 0), task(0, 1)}), "does not reach makespan")
}

func TestSchedule_CloneIsIndependent(t *testing.T) {
	inst := twoByTwo()
	s := NewSchedule(inst)
	c := s.Clone()
	c.SetStartTime(task(1, 1), 9)
	assert.Equal(t, 0, s.StartTime(task(1, 1)))
}

func TestSchedule_CriticalPathThroughZeroDurationTasks(t *testing.T) {
	inst := jsp.MustInstance("zeros", [][]jsp.WorkPair{
		{{Machine: 1, Duration: 0}, {Machine: 0, Duration: 1}},
		{{Machine: 1, Duration: 0}, {Machine: 0, Duration: 10}},
		{{Machine: 1, Duration: 3}, {Machine: 0, Duration: 1}},
	})
	ro := NewResourceOrder(inst)
	for _, j := range []int{2, 0, 1} {
		ro.AddToMachine(1, j)
	}
	for _, j := range []int{1, 0, 2} {
		ro.AddToMachine(0, j)
	}
	s, ok := ro.ToSchedule()
	require.True(t, ok)
	require.NoError(t, s.Validate())
	assert.Equal(t, 15, s.Makespan())

	var path []jsp.Task
	require.NotPanics(t, func() { path = s.CriticalPath() })
	assert.Equal(t, []jsp.Task{task(2, 0), task(1, 0), task(1, 1), task(0, 1), task(2, 1)}, path)
	assert.True(t, s.IsCriticalPath(path))
}

func TestSchedule_CriticalPathStepsAcrossZeroDurationTie(t *testing.T) {
	// (1, 0) starts at 2 with nothing earlier ending there on its machine but the
	// zero-duration (0, 1) starting at the same time.
	inst := jsp.MustInstance("tie", [][]jsp.WorkPair{
		{{Machine: 0, Duration: 2}, {Machine: 1, Duration: 0}},
		{{Machine: 1, Duration: 0}, {Machine: 0, Duration: 3}},
	})
	ro := NewResourceOrder(inst)
	ro.AddToMachine(0, 0)
	ro.AddToMachine(0, 1)
	ro.AddToMachine(1, 0)
	ro.AddToMachine(1, 1)
	s, ok := ro.ToSchedule()
	require.True(t, ok)
	require.NoError(t, s.Validate())
	assert.Equal(t, 5, s.Makespan())

	path := s.CriticalPath()
	assert.Equal(t, []jsp.Task{task(0, 0), task(0, 1), task(1, 0), task(1, 1)}, path)
	assert.True(t, s.IsCriticalPath(path))
}

func TestAddPastCapacityPanics(t *testing.T) {
	inst := twoByTwo()
	jn := NewJobNumbers(inst)
	for _, j := range []int{0, 1, 1, 0} {
		jn.AddTask(j)
	}
	require.True(t, jn.Complete())
	assert.PanicsWithValue(t, "job numbers: AddTask(1) on a complete sequence of 4 tasks", func() { jn.AddTask(1) })

	ro := NewResourceOrder(inst)
	ro.AddToMachine(0, 0)
	ro.AddToMachine(0, 1)
	assert.PanicsWithValue(t, "resource order: AddTask((1, 1)) on full machine 0", func() { ro.AddToMachine(0, 1) })
	assert.Panics(t, func() { ro.AddTask(task(0, 0)) })
	ro.AddToMachine(1, 0)
	assert.Equal(t, task(0, 1), ro.TaskAt(1, 0), "other machines still accept tasks")
}
