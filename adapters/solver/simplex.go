// Package solver solves the input-oriented CCR envelopment model with the gonum simplex.
package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"godea/domain/core"
	"godea/domain/dataset"
	"godea/domain/dea"
	"godea/internal"
)

const (
	// DefaultTolerance is the simplex reduced-cost tolerance.
	DefaultTolerance = 1e-10
	// snapTolerance zeroes λ, slack and surplus values that are solver residue.
	snapTolerance = 1e-9
	// rangeTolerance allows θ to exceed 1 by floating-point drift before it is an anomaly.
	rangeTolerance = 1e-6
)

// Options configures the solver.
type Options struct {
	Tolerance float64
	Logger    *internal.Logger
}

// Solver builds and solves one LP per DMU. It holds no per-solve state and is
// safe for concurrent use.
type Solver struct {
	tol    float64
	logger *internal.Logger
}

// New creates a solver; zero options select the defaults.
func New(opts Options) *Solver {
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}
	if opts.Logger == nil {
		opts.Logger = internal.DefaultLogger
	}
	return &Solver{tol: opts.Tolerance, logger: opts.Logger.Named("Solver")}
}

// SolveAll solves every DMU in order. Once ctx is done the remaining DMUs are
// reported as SolveErrors carrying ctx.Err().
func (s *Solver) SolveAll(ctx context.Context, table *dataset.DataTable) []dea.Outcome {
	start := time.Now()
	outcomes := make([]dea.Outcome, table.NumDMU())
	for k := range outcomes {
		outcomes[k] = s.Solve(ctx, table, k)
	}
	s.logger.Debug("solved %d DMUs in %.2fms", len(outcomes), float64(time.Since(start).Nanoseconds())/1e6)
	return outcomes
}

// Solve evaluates DMU k:
//
//	minimize    θ
//	subject to  Σ_j X[j,i] λ_j + s_i = θ X[k,i]   each input i
//	            Σ_j Y[j,r] λ_j - e_r = Y[k,r]     each output r
//	            λ, s, e >= 0, θ free
//
// θ is split into θ⁺ - θ⁻ so the model is in the standard form lp.Simplex expects.
func (s *Solver) Solve(ctx context.Context, table *dataset.DataTable, k int) (out dea.Outcome) {
	out = dea.Outcome{Index: k, DMU: table.Name(k)}
	if err := ctx.Err(); err != nil {
		out.Err = core.NewSolveError(k, out.DMU, err)
		return out
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("DMU %q: simplex panicked: %v", out.DMU, r)
			out.Result = nil
			out.Err = core.NewSolveError(k, out.DMU, fmt.Errorf("%w: %v", core.ErrNumerical, r))
		}
	}()

	m := newModel(table, k)
	if !m.hasPositiveInput() {
		// Every input row reads Σ X λ + s = 0 and θ no longer appears in any constraint.
		out.Err = core.NewSolveError(k, out.DMU, fmt.Errorf("%w: all inputs are zero", core.ErrUnbounded))
		return out
	}

	c, A, b := m.standardForm()
	_, x, err := lp.Simplex(c, A, b, s.tol, nil)
	if err != nil {
		out.Err = core.NewSolveError(k, out.DMU, classify(err))
		s.logger.Warn("DMU %q: %v", out.DMU, err)
		return out
	}

	res := m.extract(x)
	out.Result = res
	if res.Efficiency <= snapTolerance || res.Efficiency > 1+rangeTolerance {
		out.Err = core.NewSolveError(k, out.DMU, fmt.Errorf("%w: θ=%g", core.ErrOutOfRange, res.Efficiency))
		s.logger.Warn("DMU %q: efficiency %g outside (0, 1]", out.DMU, res.Efficiency)
		return out
	}
	if res.Efficiency > 1 {
		res.Efficiency = 1
	}

	s.logger.Trace("DMU %q: θ=%.6f", out.DMU, res.Efficiency)
	return out
}

func classify(err error) error {
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return fmt.Errorf("%w: %v", core.ErrInfeasible, err)
	case errors.Is(err, lp.ErrUnbounded):
		return fmt.Errorf("%w: %v", core.ErrUnbounded, err)
	default:
		return fmt.Errorf("%w: %v", core.ErrNumerical, err)
	}
}

// model is the envelopment LP of one DMU. DMUs whose inputs and outputs are all
// zero would be all-zero columns, which lp.Simplex rejects, so they are left out
// and reported with λ = 0.
type model struct {
	table  *dataset.DataTable
	k      int
	active []int // DMU indices that carry a λ column
}

func newModel(table *dataset.DataTable, k int) *model {
	m := &model{table: table, k: k}
	for j := 0; j < table.NumDMU(); j++ {
		if rowHasPositive(table.InputRow(j)) || rowHasPositive(table.OutputRow(j)) {
			m.active = append(m.active, j)
		}
	}
	return m
}

func (m *model) hasPositiveInput() bool {
	return rowHasPositive(m.table.InputRow(m.k))
}

// Column layout: [θ⁺, θ⁻, λ(active)..., s_1..s_m, e_1..e_q].
func (m *model) lambdaCol(pos int) int { return 2 + pos }
func (m *model) slackCol(i int) int    { return 2 + len(m.active) + i }
func (m *model) surplusCol(r int) int  { return 2 + len(m.active) + m.table.NumInputs() + r }

func (m *model) standardForm() ([]float64, *mat.Dense, []float64) {
	nIn, nOut := m.table.NumInputs(), m.table.NumOutputs()
	rows := nIn + nOut
	cols := 2 + len(m.active) + nIn + nOut

	c := make([]float64, cols)
	c[0], c[1] = 1, -1

	A := mat.NewDense(rows, cols, nil)
	b := make([]float64, rows)

	for i := 0; i < nIn; i++ {
		xk := m.table.Input(m.k, i)
		A.Set(i, 0, -xk)
		A.Set(i, 1, xk)
		for pos, j := range m.active {
			A.Set(i, m.lambdaCol(pos), m.table.Input(j, i))
		}
		A.Set(i, m.slackCol(i), 1)
	}

	for r := 0; r < nOut; r++ {
		row := nIn + r
		for pos, j := range m.active {
			A.Set(row, m.lambdaCol(pos), m.table.Output(j, r))
		}
		A.Set(row, m.surplusCol(r), -1)
		b[row] = m.table.Output(m.k, r)
	}

	return c, A, b
}

func (m *model) extract(x []float64) *dea.Result {
	res := &dea.Result{
		Efficiency:      x[0] - x[1],
		PeerWeights:     make([]float64, m.table.NumDMU()),
		InputSlack:      make([]float64, m.table.NumInputs()),
		OutputShortfall: make([]float64, m.table.NumOutputs()),
	}
	for pos, j := range m.active {
		res.PeerWeights[j] = snap(x[m.lambdaCol(pos)])
	}
	for i := range res.InputSlack {
		res.InputSlack[i] = snap(x[m.slackCol(i)])
	}
	for r := range res.OutputShortfall {
		res.OutputShortfall[r] = snap(x[m.surplusCol(r)])
	}
	return res
}

func snap(v float64) float64 {
	if v < snapTolerance {
		return 0
	}
	return v
}

func rowHasPositive(row []float64) bool {
	for _, v := range row {
		if v > 0 {
			return true
		}
	}
	return false
}

// RadialScore recomputes θ for DMU k from fixed peer weights: the smallest θ with
// Σ_j X[j,i] λ_j <= θ X[k,i] for every input i. Re-solving with λ fixed must
// reproduce the LP's optimum.
func RadialScore(table *dataset.DataTable, k int, lambda []float64) (float64, error) {
	if len(lambda) != table.NumDMU() {
		return 0, fmt.Errorf("got %d peer weights for %d DMUs", len(lambda), table.NumDMU())
	}
	theta := math.Inf(-1)
	for i := 0; i < table.NumInputs(); i++ {
		xk := table.Input(k, i)
		if xk <= 0 {
			continue
		}
		var used float64
		for j, l := range lambda {
			used += table.Input(j, i) * l
		}
		theta = math.Max(theta, used/xk)
	}
	if math.IsInf(theta, -1) {
		return 0, fmt.Errorf("%w: DMU %d has no positive input", core.ErrUnbounded, k)
	}
	return theta, nil
}

// CheckFeasible verifies that a result satisfies DMU k's constraints within tol.
func CheckFeasible(table *dataset.DataTable, k int, res *dea.Result, tol float64) error {
	for i := 0; i < table.NumInputs(); i++ {
		var lhs float64
		for j, l := range res.PeerWeights {
			lhs += table.Input(j, i) * l
		}
		lhs += res.InputSlack[i]
		rhs := res.Efficiency * table.Input(k, i)
		if math.Abs(lhs-rhs) > tol*math.Max(1, math.Abs(rhs)) {
			return fmt.Errorf("input %d: Σλx+s = %g, θx = %g", i, lhs, rhs)
		}
	}
	for r := 0; r < table.NumOutputs(); r++ {
		var lhs float64
		for j, l := range res.PeerWeights {
			lhs += table.Output(j, r) * l
		}
		if want := table.Output(k, r); lhs < want-tol*math.Max(1, want) {
			return fmt.Errorf("output %d: Σλy = %g < %g", r, lhs, want)
		}
	}
	for j, l := range res.PeerWeights {
		if l < 0 {
			return fmt.Errorf("λ[%d] = %g is negative", j, l)
		}
	}
	for i, v := range res.InputSlack {
		if v < 0 {
			return fmt.Errorf("slack[%d] = %g is negative", i, v)
		}
	}
	return nil
}
