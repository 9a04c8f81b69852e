package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/spf13/cobra"

	"godea/adapters/solver"
	"godea/app"
	"godea/domain/dataset"
	"godea/domain/dea"
	"godea/internal"
	"godea/internal/testkit"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "godea-dev",
		Short: "godea development tools",
	}

	rootCmd.AddCommand(
		newSmokeTestCmd(),
		newDeterminismTestCmd(),
		newVerifyCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newSmokeTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Run smoke tests against known DEA scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSmokeTests(cmd.Context(), cmd.OutOrStdout())
		},
	}
	return cmd
}

func newDeterminismTestCmd() *cobra.Command {
	var seed uint64
	var dmus int

	cmd := &cobra.Command{
		Use:   "determinism",
		Short: "Check that sequential and parallel solves agree on a generated table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return testDeterminism(cmd.Context(), cmd.OutOrStdout(), seed, dmus)
		},
	}
	cmd.Flags().Uint64Var(&seed, "seed", 42, "Random seed for the generated table")
	cmd.Flags().IntVar(&dmus, "dmus", 50, "Number of DMUs")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	var trials, dmus int

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check solver invariants on random positive tables",
		Long: `For each trial, generate a strictly positive table and check that every
efficiency is in (0, 1], that slacks and peer weights are non-negative, that each
solution satisfies its constraints, and that recomputing θ from the peer weights
reproduces the optimum.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), cmd.OutOrStdout(), trials, dmus)
		},
	}
	cmd.Flags().IntVar(&trials, "trials", 25, "Number of generated tables")
	cmd.Flags().IntVar(&dmus, "dmus", 15, "DMUs per table")
	return cmd
}

func quietSolver() *solver.Solver {
	return solver.New(solver.Options{Logger: internal.NewLogger(internal.LogLevelError)})
}

func runSmokeTests(ctx context.Context, w io.Writer) error {
	fmt.Fprintln(w, "Running smoke tests...")
	s := quietSolver()

	tests := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"three_unit_scenario", func(ctx context.Context) error {
			table, err := dataset.FromMatrices(nil, nil, nil,
				[][]float64{{2}, {3}, {4}}, [][]float64{{1}, {1}, {1}})
			if err != nil {
				return err
			}
			want := []float64{1, 2.0 / 3.0, 0.5}
			for k, out := range s.SolveAll(ctx, table) {
				if out.Err != nil {
					return out.Err
				}
				if math.Abs(out.Result.Efficiency-want[k]) > 1e-6 {
					return fmt.Errorf("DMU%d: θ=%g, want %g", k+1, out.Result.Efficiency, want[k])
				}
			}
			return nil
		}},
		{"single_dmu", func(ctx context.Context) error {
			table, err := dataset.FromMatrices(nil, nil, nil, [][]float64{{3, 4}}, [][]float64{{5}})
			if err != nil {
				return err
			}
			out := s.Solve(ctx, table, 0)
			if out.Err != nil {
				return out.Err
			}
			if math.Abs(out.Result.Efficiency-1) > 1e-6 {
				return fmt.Errorf("θ=%g, want 1", out.Result.Efficiency)
			}
			return nil
		}},
		{"zero_output_reported", func(ctx context.Context) error {
			table, err := dataset.FromMatrices(nil, nil, nil, [][]float64{{2}, {3}}, [][]float64{{1}, {0}})
			if err != nil {
				return err
			}
			if out := s.Solve(ctx, table, 1); out.Status() != dea.StatusOutOfRange {
				return fmt.Errorf("status %s, want %s", out.Status(), dea.StatusOutOfRange)
			}
			return nil
		}},
	}

	passed := 0
	for _, test := range tests {
		fmt.Fprintf(w, "  Running %s...", test.name)
		if err := test.fn(ctx); err != nil {
			fmt.Fprintf(w, " FAILED: %v\n", err)
		} else {
			fmt.Fprintln(w, " PASSED")
			passed++
		}
	}

	fmt.Fprintf(w, "\nSmoke tests: %d/%d passed\n", passed, len(tests))
	if passed < len(tests) {
		return fmt.Errorf("some smoke tests failed")
	}
	return nil
}

func testDeterminism(ctx context.Context, w io.Writer, seed uint64, dmus int) error {
	cfg := testkit.DefaultGeneratorConfig()
	cfg.Seed = seed
	cfg.DMUCount = dmus
	table, err := testkit.NewGenerator(cfg).Table()
	if err != nil {
		return fmt.Errorf("failed to generate table: %w", err)
	}
	fmt.Fprintf(w, "Testing determinism on %d DMUs (fingerprint %s)...\n", table.NumDMU(), table.Fingerprint().Short())

	logger := internal.NewLogger(internal.LogLevelError)
	run := func(workers int) []dea.Outcome {
		svc := app.NewAnalysisService(nil, nil, quietSolver(), app.ServiceConfig{Workers: workers, Logger: logger})
		return svc.SolveTable(ctx, table, nil)
	}

	sequential, parallel := run(1), run(8)
	if err := compareRuns(sequential, parallel); err != nil {
		return fmt.Errorf("determinism test failed: %w", err)
	}

	fmt.Fprintln(w, "✓ Determinism test passed - results identical")
	return nil
}

func compareRuns(original, replay []dea.Outcome) error {
	if len(original) != len(replay) {
		return fmt.Errorf("outcome counts differ: %d vs %d", len(original), len(replay))
	}
	for k := range original {
		a, b := original[k], replay[k]
		if a.Status() != b.Status() {
			return fmt.Errorf("DMU %d status differs: %s vs %s", k, a.Status(), b.Status())
		}
		if !a.Solved() {
			continue
		}
		if a.Result.Efficiency != b.Result.Efficiency {
			return fmt.Errorf("DMU %d efficiency differs: %v vs %v", k, a.Result.Efficiency, b.Result.Efficiency)
		}
	}
	return nil
}

func runVerify(ctx context.Context, w io.Writer, trials, dmus int) error {
	s := quietSolver()
	violations := 0

	for trial := 1; trial <= trials; trial++ {
		cfg := testkit.DefaultGeneratorConfig()
		cfg.Seed = uint64(trial)
		cfg.DMUCount = dmus
		table, err := testkit.NewGenerator(cfg).Table()
		if err != nil {
			return err
		}

		for k, out := range s.SolveAll(ctx, table) {
			if err := checkOutcome(table, k, out); err != nil {
				violations++
				fmt.Fprintf(w, "  seed %d %s: %v\n", trial, table.Name(k), err)
			}
		}
	}

	fmt.Fprintf(w, "Verified %d tables of %d DMUs: %d violations\n", trials, dmus, violations)
	if violations > 0 {
		return fmt.Errorf("%d invariant violations", violations)
	}
	return nil
}

func checkOutcome(table *dataset.DataTable, k int, out dea.Outcome) error {
	if out.Err != nil {
		return out.Err
	}
	res := out.Result
	if res.Efficiency <= 0 || res.Efficiency > 1 {
		return fmt.Errorf("θ=%g outside (0, 1]", res.Efficiency)
	}
	if err := solver.CheckFeasible(table, k, res, 1e-6); err != nil {
		return err
	}
	theta, err := solver.RadialScore(table, k, res.PeerWeights)
	if err != nil {
		return err
	}
	if math.Abs(theta-res.Efficiency) > 1e-6 {
		return fmt.Errorf("radial score %g does not reproduce θ=%g", theta, res.Efficiency)
	}
	return nil
}
