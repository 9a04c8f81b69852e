package app

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"godea/domain/core"
	"godea/domain/dataset"
	"godea/domain/dea"
	"godea/internal"
	"godea/internal/errors"
	"godea/internal/profiling"
	"godea/ports"
)

// ProgressFunc is called after each DMU finishes with the number done so far.
// It may be called from several goroutines at once.
type ProgressFunc func(done, total int)

// AnalysisService runs a DEA analysis end to end: select, build, solve, format, summarise
type AnalysisService struct {
	reader  ports.TablePort
	coercer ports.CoercerPort
	solver  ports.SolverPort
	workers int
	opts    dea.FormatOptions
	logger  *internal.Logger
}

// ServiceConfig tunes the service; zero values select defaults
type ServiceConfig struct {
	Workers int
	Format  dea.FormatOptions
	Logger  *internal.Logger
}

// AnalysisRequest selects columns of an already-read table
type AnalysisRequest struct {
	Table *dataset.RawTable
	// Inputs and Outputs name header columns; Selection, when set, takes precedence
	Inputs    []string
	Outputs   []string
	Selection *dataset.Selection
	Progress  ProgressFunc
}

// Analysis contains the complete output of one run. It is never persisted.
type Analysis struct {
	ID          core.AnalysisID        `json:"id"`
	Source      string                 `json:"source,omitempty"`
	Fingerprint core.Hash              `json:"fingerprint"`
	DMUs        []string               `json:"dmus"`
	Inputs      []string               `json:"inputs"`
	Outputs     []string               `json:"outputs"`
	Efficiency  dea.EfficiencyTable    `json:"efficiency"`
	Slack       dea.SlackTable         `json:"slack"`
	Notice      string                 `json:"notice,omitempty"`
	Summary     profiling.ScoreSummary `json:"summary"`
	CreatedAt   time.Time              `json:"created_at"`
	RuntimeMs   int64                  `json:"runtime_ms"`

	Table    *dataset.DataTable `json:"-"`
	Outcomes []dea.Outcome      `json:"-"`
}

// NewAnalysisService creates an analysis service
func NewAnalysisService(reader ports.TablePort, coercer ports.CoercerPort, solver ports.SolverPort, cfg ServiceConfig) *AnalysisService {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Logger == nil {
		cfg.Logger = internal.DefaultLogger
	}
	if cfg.Format == (dea.FormatOptions{}) {
		cfg.Format = dea.DefaultFormatOptions()
	}
	return &AnalysisService{
		reader:  reader,
		coercer: coercer,
		solver:  solver,
		workers: cfg.Workers,
		opts:    cfg.Format,
		logger:  cfg.Logger.Named("AnalysisService"),
	}
}

// FormatOptions returns the classification thresholds in use
func (s *AnalysisService) FormatOptions() dea.FormatOptions {
	return s.opts
}

// ReadTable reads an uploaded file
func (s *AnalysisService) ReadTable(src io.Reader, name string) (*dataset.RawTable, error) {
	raw, err := s.reader.ReadFrom(src, name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", name)
	}
	return raw, nil
}

// Columns profiles every candidate column of a table
func (s *AnalysisService) Columns(raw *dataset.RawTable) []dataset.ColumnProfile {
	return s.coercer.AnalyzeTable(raw)
}

// Run executes the analysis. Table construction errors abort before any solve.
// When ctx ends mid-run the partial analysis is returned together with ctx.Err();
// unsolved DMUs carry the context error in their SolveError.
func (s *AnalysisService) Run(ctx context.Context, req AnalysisRequest) (*Analysis, error) {
	startTime := time.Now()
	if req.Table == nil {
		return nil, errors.InvalidInput("no table supplied")
	}

	sel, err := s.resolveSelection(req)
	if err != nil {
		return nil, errors.Wrap(err, "invalid column selection")
	}

	table, err := dataset.NewDataTable(req.Table, sel, s.coercer)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build data table")
	}

	analysis := &Analysis{
		ID:          core.NewAnalysisID(),
		Source:      req.Table.Source,
		Fingerprint: table.Fingerprint(),
		DMUs:        table.Names(),
		Inputs:      table.InputNames(),
		Outputs:     table.OutputNames(),
		Table:       table,
		CreatedAt:   startTime.UTC(),
	}
	s.logger.Info("analysis %s: %d DMUs, inputs %v, outputs %v (fingerprint %s)",
		analysis.ID, table.NumDMU(), analysis.Inputs, analysis.Outputs, analysis.Fingerprint.Short())

	analysis.Outcomes = s.SolveTable(ctx, table, req.Progress)
	if err := s.finish(analysis); err != nil {
		return nil, err
	}
	analysis.RuntimeMs = time.Since(startTime).Milliseconds()

	s.logger.Info("analysis %s finished in %dms: %d efficient, %d inefficient, %d unsolved",
		analysis.ID, analysis.RuntimeMs, analysis.Summary.Efficient, analysis.Summary.Inefficient,
		analysis.Summary.Unsolved+analysis.Summary.OutOfRange)

	if err := ctx.Err(); err != nil {
		return analysis, err
	}
	return analysis, nil
}

// RunTable analyses a DataTable built elsewhere, such as a generated sample
func (s *AnalysisService) RunTable(ctx context.Context, table *dataset.DataTable, progress ProgressFunc) (*Analysis, error) {
	startTime := time.Now()
	analysis := &Analysis{
		ID:          core.NewAnalysisID(),
		Fingerprint: table.Fingerprint(),
		DMUs:        table.Names(),
		Inputs:      table.InputNames(),
		Outputs:     table.OutputNames(),
		Table:       table,
		CreatedAt:   startTime.UTC(),
	}
	analysis.Outcomes = s.SolveTable(ctx, table, progress)
	if err := s.finish(analysis); err != nil {
		return nil, err
	}
	analysis.RuntimeMs = time.Since(startTime).Milliseconds()
	if err := ctx.Err(); err != nil {
		return analysis, err
	}
	return analysis, nil
}

// SolveTable solves every DMU with at most s.workers LPs in flight.
// Outcomes are in table order regardless of completion order.
func (s *AnalysisService) SolveTable(ctx context.Context, table *dataset.DataTable, progress ProgressFunc) []dea.Outcome {
	n := table.NumDMU()
	outcomes := make([]dea.Outcome, n)
	sem := semaphore.NewWeighted(int64(s.workers))

	var (
		wg   sync.WaitGroup
		done atomic.Int64
	)
	for k := 0; k < n; k++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			s.logger.Warn("cancelled with %d of %d DMUs not started: %v", n-k, n, err)
			for j := k; j < n; j++ {
				outcomes[j] = dea.Outcome{Index: j, DMU: table.Name(j), Err: core.NewSolveError(j, table.Name(j), err)}
			}
			break
		}
		wg.Add(1)
		go func(k int) {
			defer wg.Done()
			defer sem.Release(1)
			outcomes[k] = s.solver.Solve(ctx, table, k)
			if progress != nil {
				progress(int(done.Add(1)), n)
			}
		}(k)
	}
	wg.Wait()

	for _, out := range outcomes {
		if out.Err != nil {
			s.logger.Debug("DMU %q not classified: %v", out.DMU, out.Err)
		}
	}
	return outcomes
}

func (s *AnalysisService) finish(a *Analysis) error {
	names := a.Table.Names()
	a.Efficiency = dea.FormatEfficiencyTable(names, a.Outcomes, s.opts)
	a.Slack = dea.FormatSlackTable(names, a.Table.InputNames(), a.Outcomes, s.opts)
	a.Notice = a.Slack.Notice()

	summary, err := profiling.NewScoreAnalyzer(s.opts).Summarize(a.Outcomes)
	if err != nil {
		return errors.Wrap(err, "failed to summarise scores")
	}
	a.Summary = summary
	return nil
}

func (s *AnalysisService) resolveSelection(req AnalysisRequest) (dataset.Selection, error) {
	if req.Selection != nil {
		return *req.Selection, nil
	}
	sel, err := dataset.SelectByName(req.Table.Headers, req.Inputs, req.Outputs)
	if err != nil {
		return dataset.Selection{}, fmt.Errorf("resolve columns: %w", err)
	}
	return sel, nil
}
