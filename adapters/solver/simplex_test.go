package solver

import (
	"context"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"godea/domain/core"
	"godea/domain/dataset"
	"godea/domain/dea"
	"godea/internal"
	"godea/internal/testkit"
)

const eps = 1e-6

func quietSolver() *Solver {
	return New(Options{Logger: internal.NewLoggerTo(io.Discard, internal.LogLevelError)})
}

func mustTable(t *testing.T, inputs, outputs [][]float64) *dataset.DataTable {
	t.Helper()
	table, err := dataset.FromMatrices(nil, nil, nil, inputs, outputs)
	require.NoError(t, err)
	return table
}

func TestSolve_SingleDMUIsEfficient(t *testing.T) {
	table := mustTable(t, [][]float64{{5, 7}}, [][]float64{{3}})
	out := quietSolver().Solve(context.Background(), table, 0)

	require.NoError(t, out.Err)
	assert.InDelta(t, 1.0, out.Result.Efficiency, eps)
	assert.InDelta(t, 1.0, out.Result.PeerWeights[0], eps)
}

func TestSolve_ThreeUnitScenario(t *testing.T) {
	table := mustTable(t,
		[][]float64{{2}, {3}, {4}},
		[][]float64{{1}, {1}, {1}})
	outcomes := quietSolver().SolveAll(context.Background(), table)
	require.Len(t, outcomes, 3)

	want := []float64{1.0, 2.0 / 3.0, 0.5}
	for k, out := range outcomes {
		require.NoError(t, out.Err, "DMU %d", k)
		assert.InDelta(t, want[k], out.Result.Efficiency, eps, "DMU %d", k)
		assert.InDelta(t, 1.0, out.Result.PeerWeights[0], eps, "DMU %d benchmarks DMU1", k)
		assert.InDelta(t, 0.0, out.Result.InputSlack[0], eps)
	}

	table2 := dea.FormatEfficiencyTable(table.Names(), outcomes, dea.DefaultFormatOptions())
	assert.Equal(t, 0.6667, *table2.Rows[1].Efficiency)
	assert.Equal(t, "DMU1 (λ=1.0000)", table2.Rows[1].Benchmarks)
	assert.Equal(t, "DMU1 (λ=1.0000)", table2.Rows[2].Benchmarks)
	assert.Equal(t, dea.EfficientMarker, table2.Rows[0].Benchmarks)
}

func TestSolve_IdenticalUnitsAllEfficient(t *testing.T) {
	row := []float64{4, 2}
	inputs := [][]float64{row, row, row, row}
	outputs := [][]float64{{3, 1}, {3, 1}, {3, 1}, {3, 1}}
	table := mustTable(t, inputs, outputs)

	outcomes := quietSolver().SolveAll(context.Background(), table)
	for k, out := range outcomes {
		require.NoError(t, out.Err)
		assert.InDelta(t, 1.0, out.Result.Efficiency, eps, "DMU %d", k)
	}

	opts := dea.DefaultFormatOptions()
	eff := dea.FormatEfficiencyTable(table.Names(), outcomes, opts)
	for _, r := range eff.Rows {
		assert.Equal(t, dea.EfficientMarker, r.Benchmarks)
		assert.Empty(t, r.Peers)
	}
	slack := dea.FormatSlackTable(table.Names(), table.InputNames(), outcomes, opts)
	assert.True(t, slack.Empty())
	assert.Equal(t, dea.FullyEfficientNotice, slack.Notice())
}

func TestSolve_ZeroOutputIsReportedNotCrashed(t *testing.T) {
	table := mustTable(t,
		[][]float64{{2}, {3}},
		[][]float64{{1}, {0}})

	outcomes := quietSolver().SolveAll(context.Background(), table)
	require.NoError(t, outcomes[0].Err)

	bad := outcomes[1]
	require.Error(t, bad.Err)
	assert.True(t, core.IsSolveError(bad.Err))
	assert.True(t, core.IsOutOfRange(bad.Err))
	assert.False(t, bad.Solved())
	assert.Equal(t, dea.StatusOutOfRange, bad.Status())
}

func TestSolve_AllZeroInputsIsUnbounded(t *testing.T) {
	table := mustTable(t,
		[][]float64{{2}, {0}},
		[][]float64{{1}, {1}})

	out := quietSolver().Solve(context.Background(), table, 1)
	require.Error(t, out.Err)
	assert.ErrorIs(t, out.Err, core.ErrUnbounded)
	assert.Nil(t, out.Result)
}

func TestSolve_AllZeroPeerIsSkipped(t *testing.T) {
	// DMU3 is an all-zero row; it must not break the others and gets λ = 0 everywhere.
	table := mustTable(t,
		[][]float64{{2}, {4}, {0}},
		[][]float64{{1}, {1}, {0}})

	outcomes := quietSolver().SolveAll(context.Background(), table)
	require.NoError(t, outcomes[1].Err)
	assert.InDelta(t, 0.5, outcomes[1].Result.Efficiency, eps)
	assert.Equal(t, 0.0, outcomes[1].Result.PeerWeights[2])
	assert.Error(t, outcomes[2].Err)
}

func TestSolve_InputSlack(t *testing.T) {
	// B matches A on input 1 after contraction but uses more of input 2 than any radial
	// contraction removes; the leftover shows up as slack.
	table := mustTable(t,
		[][]float64{{2, 2}, {4, 8}},
		[][]float64{{1}, {1}})

	out := quietSolver().Solve(context.Background(), table, 1)
	require.NoError(t, out.Err)
	assert.InDelta(t, 0.5, out.Result.Efficiency, eps)
	assert.InDelta(t, 0.0, out.Result.InputSlack[0], eps)
	assert.InDelta(t, 2.0, out.Result.InputSlack[1], eps)
	assert.NoError(t, CheckFeasible(table, 1, out.Result, eps))

	slack := dea.FormatSlackTable(table.Names(), table.InputNames(), []dea.Outcome{out}, dea.DefaultFormatOptions())
	require.Len(t, slack.Rows, 1)
	assert.False(t, slack.Rows[0].Cells[0].Highlight)
	assert.True(t, slack.Rows[0].Cells[1].Highlight)
}

func TestSolve_CancelledContext(t *testing.T) {
	table := mustTable(t, [][]float64{{2}, {3}}, [][]float64{{1}, {1}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes := quietSolver().SolveAll(ctx, table)
	for _, out := range outcomes {
		assert.ErrorIs(t, out.Err, context.Canceled)
		assert.True(t, core.IsSolveError(out.Err))
	}
}

func TestSolve_RandomPositiveTablesStayInRange(t *testing.T) {
	s := quietSolver()
	for seed := uint64(1); seed <= 20; seed++ {
		cfg := testkit.DefaultGeneratorConfig()
		cfg.Seed = seed
		cfg.DMUCount = 12
		cfg.InputCount = 2
		cfg.OutputCount = 2
		table, err := testkit.NewGenerator(cfg).Table()
		require.NoError(t, err)

		bestSeen := 0.0
		for k, out := range s.SolveAll(context.Background(), table) {
			require.NoError(t, out.Err, "seed %d DMU %d", seed, k)
			res := out.Result
			assert.Greater(t, res.Efficiency, 0.0)
			assert.LessOrEqual(t, res.Efficiency, 1.0)
			bestSeen = math.Max(bestSeen, res.Efficiency)

			for _, v := range res.InputSlack {
				assert.GreaterOrEqual(t, v, 0.0)
			}
			for _, l := range res.PeerWeights {
				assert.GreaterOrEqual(t, l, 0.0)
			}
			assert.NoError(t, CheckFeasible(table, k, res, 1e-6), "seed %d DMU %d", seed, k)

			theta, err := RadialScore(table, k, res.PeerWeights)
			require.NoError(t, err)
			assert.InDelta(t, res.Efficiency, theta, 1e-6, "fixed-λ round trip, seed %d DMU %d", seed, k)
		}
		// Under constant returns to scale some unit always sits on the frontier.
		assert.InDelta(t, 1.0, bestSeen, eps, "seed %d", seed)
	}
}

func TestSolve_DominatedUnitScoresLower(t *testing.T) {
	// A uses at least as much of every input as B, strictly more of one, and produces less.
	table := mustTable(t,
		[][]float64{{5, 3}, {4, 3}, {6, 1}},
		[][]float64{{2}, {2}, {2}})

	outcomes := quietSolver().SolveAll(context.Background(), table)
	require.NoError(t, outcomes[0].Err)
	require.NoError(t, outcomes[1].Err)
	assert.LessOrEqual(t, outcomes[0].Result.Efficiency, outcomes[1].Result.Efficiency+eps)
}

func TestRadialScore_Errors(t *testing.T) {
	table := mustTable(t, [][]float64{{0}, {1}}, [][]float64{{1}, {1}})

	_, err := RadialScore(table, 0, []float64{0, 1})
	assert.ErrorIs(t, err, core.ErrUnbounded)

	_, err = RadialScore(table, 1, []float64{1})
	assert.Error(t, err)
}
