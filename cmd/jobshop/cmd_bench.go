package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"jobshop/bench"
	"jobshop/jsp"
)

var (
	benchTimeout    time.Duration
	benchSolvers    []string
	benchInstances  []string
	benchCatalog    string
	benchWorkers    int
	benchMetricsOut string
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Compare solvers on catalog instances",
	Long: `Run every solver on every selected instance and print runtime (ms), makespan and
distance to the best known makespan (%), followed by averages.

Instances are selected by name prefix: "ft" selects ft06, ft10 and ft20.

Examples:
  jobshop bench --catalog jsp/testdata/instances.json --solver basic --solver spt --instance ft
  jobshop bench --catalog jsp/testdata/instances.json --solver taboo --instance la --timeout 5s --workers 4`,
	RunE: runBench,
}

func init() {
	benchCmd.Flags().DurationVarP(&benchTimeout, "timeout", "t", time.Second, "Budget of each solver run")
	benchCmd.Flags().StringSliceVar(&benchSolvers, "solver", nil, "Solver(s) to run (repeatable or comma separated)")
	benchCmd.Flags().StringSliceVar(&benchInstances, "instance", nil, "Instance name prefix(es) to run on")
	benchCmd.Flags().StringVar(&benchCatalog, "catalog", "", "JSON instance catalog (see jsp/testdata/instances.json)")
	benchCmd.Flags().IntVar(&benchWorkers, "workers", 1,
		"Runs executed in parallel; more than one skews runtimes")
	benchCmd.Flags().StringVar(&benchMetricsOut, "metrics-out", "",
		"Write prometheus text metrics of the runs to this file")
	_ = benchCmd.MarkFlagRequired("solver")
	_ = benchCmd.MarkFlagRequired("instance")
	_ = benchCmd.MarkFlagRequired("catalog")
}

func runBench(cmd *cobra.Command, _ []string) error {
	logger := newLogger()
	registry, err := newRegistry(logger)
	if err != nil {
		return err
	}

	entries := make([]bench.Entry, 0, len(benchSolvers))
	for _, name := range benchSolvers {
		s, err := registry.Lookup(name)
		if err != nil {
			return err
		}
		entries = append(entries, bench.Entry{Name: name, Solver: s})
	}

	catalog, err := jsp.LoadCatalog(benchCatalog)
	if err != nil {
		return err
	}
	var instances []*jsp.Instance
	for _, prefix := range benchInstances {
		matches, err := jsp.MatchPrefix(catalog, prefix)
		if err != nil {
			return err
		}
		instances = append(instances, matches...)
	}

	runner := &bench.Runner{
		Solvers: entries,
		Timeout: benchTimeout,
		Workers: benchWorkers,
		Logger:  logger,
	}
	if benchMetricsOut != "" {
		runner.Metrics = bench.NewMetrics()
	}

	report, err := runner.Run(cmd.Context(), instances)
	if err != nil {
		return err
	}
	if err := report.WriteTable(cmd.OutOrStdout()); err != nil {
		return err
	}

	if runner.Metrics != nil {
		f, err := os.Create(benchMetricsOut)
		if err != nil {
			return fmt.Errorf("create metrics file: %w", err)
		}
		defer f.Close()
		if err := runner.Metrics.WriteText(f); err != nil {
			return err
		}
		return f.Close()
	}
	return nil
}
