package bench

import (
	"fmt"
	"io"
	"strings"
)

// WriteTable prints the report as a fixed-width table: one column group per solver with
// runtime (ms), makespan and gap (%), one row per instance and a closing row of averages.
// Gaps of instances without a best known makespan print as "-" and are left out of the
// average.
func (rep *Report) WriteTable(w io.Writer) error {
	var b strings.Builder

	b.WriteString(strings.Repeat(" ", 25))
	for _, name := range rep.Solvers {
		fmt.Fprintf(&b, "%-30s", name)
	}
	b.WriteString("\n")
	b.WriteString("instance size  best      ")
	for range rep.Solvers {
		b.WriteString("runtime makespan gap          ")
	}
	b.WriteString("\n")

	runtimes := make([]float64, len(rep.Solvers))
	gaps := make([]float64, len(rep.Solvers))
	gapCounts := make([]int, len(rep.Solvers))
	for i, inst := range rep.Instances {
		best := "-"
		if inst.Optimum > 0 {
			best = fmt.Sprint(inst.Optimum)
		}
		size := fmt.Sprintf("%dx%d", inst.NumJobs(), inst.NumTasks())
		fmt.Fprintf(&b, "%-8s %-5s %4s      ", inst.Name, size, best)

		for s := range rep.Solvers {
			rec := rep.Record(i, s)
			ms := rec.Runtime.Milliseconds()
			runtimes[s] += float64(ms) / float64(len(rep.Instances))
			span, _ := rec.Result.Makespan()

			gap := "-"
			if g, ok := rec.Gap(); ok {
				gap = fmt.Sprintf("%.1f", g)
				gaps[s] += g
				gapCounts[s]++
			}
			fmt.Fprintf(&b, "%7d %8d %5s        ", ms, span, gap)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "%-8s %-5s %4s      ", "AVG", "-", "-")
	for s := range rep.Solvers {
		gap := "-"
		if gapCounts[s] > 0 {
			gap = fmt.Sprintf("%.1f", gaps[s]/float64(gapCounts[s]))
		}
		fmt.Fprintf(&b, "%7.1f %8s %5s        ", runtimes[s], "-", gap)
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}
