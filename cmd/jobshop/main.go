// Command jobshop solves and benchmarks job-shop scheduling instances.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"jobshop/solver"
)

var (
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "jobshop",
	Short: "Solve job-shop scheduling problems",
	Long: `Solvers and a benchmark harness for the job-shop scheduling problem.

Solver names:
  basic, random             trivial baselines
  spt, lpt, srpt, lrpt      greedy dispatch rules
  est_spt ... est_lrpt      greedy rules restricted to the earliest start time
  descent[-RULE]            steepest descent from a greedy schedule
  taboo[-RULE]              tabu search from a greedy schedule

More named solvers can be declared in a YAML file passed with --config.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every solver step")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"YAML file declaring additional named solvers")

	rootCmd.AddCommand(benchCmd, solveCmd, solversCmd, generateCmd)
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newRegistry resolves solver names, including those declared in --config.
func newRegistry(logger *slog.Logger) (*solver.Registry, error) {
	registry := solver.NewRegistry(logger)
	if configPath != "" {
		if err := registry.LoadConfigFile(configPath); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
