package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobshop/jsp"
	"jobshop/solver"
)

// resetFlags restores flag defaults between executions of the shared root command.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSolvers(t *testing.T) {
	out, err := execute(t, "solvers")
	require.NoError(t, err)
	assert.Equal(t, solver.Names(), strings.Fields(out))
}

func TestGenerateThenSolve(t *testing.T) {
	out, err := execute(t, "generate", "--jobs", "4", "--machines", "3", "--seed", "2")
	require.NoError(t, err)
	inst, err := jsp.Parse("generated", strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 4, inst.NumJobs())
	assert.Equal(t, 3, inst.NumMachines())

	path := filepath.Join(t.TempDir(), "gen")
	require.NoError(t, os.WriteFile(path, []byte(out), 0o644))
	out, err = execute(t, "solve", path, "--solver", "descent-spt", "--timeout", "200ms")
	require.NoError(t, err)
	assert.Contains(t, out, "solved by descent-spt")
	assert.Contains(t, out, "Start times of all tasks:")
}

func TestBench(t *testing.T) {
	metrics := filepath.Join(t.TempDir(), "metrics.prom")
	out, err := execute(t, "bench",
		"--catalog", "../../jsp/testdata/instances.json",
		"--solver", "basic,est_lrpt", "--instance", "aaa", "--instance", "ft",
		"--timeout", "100ms", "--metrics-out", metrics)
	require.NoError(t, err)
	assert.Contains(t, out, "aaa1")
	assert.Contains(t, out, "ft06     6x6     55")
	assert.Contains(t, out, "AVG")

	text, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(text), `jobshop_solver_runs_total{cause="Blocked",solver="est_lrpt"} 2`)
}

func TestBench_Errors(t *testing.T) {
	_, err := execute(t, "bench", "--catalog", "../../jsp/testdata/instances.json",
		"--solver", "annealing", "--instance", "ft", "--metrics-out", "")
	assert.ErrorIs(t, err, solver.ErrUnknownSolver)

	_, err = execute(t, "bench", "--catalog", "../../jsp/testdata/instances.json",
		"--solver", "basic", "--instance", "la")
	assert.ErrorContains(t, err, "matches nothing")
}

func TestBench_CatalogRequired(t *testing.T) {
	_, err := execute(t, "bench", "--solver", "basic", "--instance", "ft")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"catalog" not set`)
}
