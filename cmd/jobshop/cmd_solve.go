package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"jobshop/bench"
	"jobshop/jsp"
	"jobshop/solver"
)

var (
	solveTimeout time.Duration
	solveSolver  string
)

var solveCmd = &cobra.Command{
	Use:   "solve INSTANCE_FILE",
	Short: "Solve one instance file and print the schedule",
	Args:  cobra.ExactArgs(1),
	RunE:  runSolve,
}

var solversCmd = &cobra.Command{
	Use:   "solvers",
	Short: "List solver names",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		registry, err := newRegistry(newLogger())
		if err != nil {
			return err
		}
		for _, name := range registry.Names() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var (
	generateJobs     int
	generateMachines int
	generateSeed     int64
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Print a random instance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if generateJobs <= 0 || generateMachines <= 0 {
			return fmt.Errorf("%w: %d jobs, %d machines", jsp.ErrInvalidInstance, generateJobs, generateMachines)
		}
		inst := jsp.Random(generateJobs, generateMachines, rand.New(rand.NewSource(generateSeed)))
		return jsp.Write(cmd.OutOrStdout(), inst)
	},
}

func init() {
	solveCmd.Flags().DurationVarP(&solveTimeout, "timeout", "t", time.Second, "Solver budget")
	solveCmd.Flags().StringVar(&solveSolver, "solver", "taboo", "Solver to run")

	generateCmd.Flags().IntVar(&generateJobs, "jobs", 10, "Number of jobs")
	generateCmd.Flags().IntVar(&generateMachines, "machines", 5, "Number of machines")
	generateCmd.Flags().Int64Var(&generateSeed, "seed", 0, "Random seed")
}

func runSolve(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	registry, err := newRegistry(logger)
	if err != nil {
		return err
	}
	s, err := registry.Lookup(solveSolver)
	if err != nil {
		return err
	}
	inst, err := jsp.Load(args[0])
	if err != nil {
		return err
	}

	runner := &bench.Runner{
		Solvers: []bench.Entry{{Name: solveSolver, Solver: s}},
		Timeout: solveTimeout,
		Clock:   solver.SystemClock,
		Logger:  logger,
	}
	report, err := runner.Run(cmd.Context(), []*jsp.Instance{inst})
	if err != nil {
		return err
	}
	rec := report.Record(0, 0)
	span, _ := rec.Result.Makespan()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "instance %v solved by %s in %v\n", inst, solveSolver, rec.Runtime.Round(time.Millisecond))
	fmt.Fprintf(out, "makespan %d, exit cause %v, %d iterations, %d schedules evaluated\n",
		span, rec.Result.Cause, rec.Result.Stats.Iterations, rec.Result.Stats.Evaluated)
	fmt.Fprint(out, rec.Result.Schedule)
	return nil
}
