package container

import (
	"fmt"

	"godea/adapters/coercer"
	"godea/adapters/excel"
	"godea/adapters/solver"
	"godea/app"
	"godea/domain/dea"
	"godea/internal"
	"godea/internal/config"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Adapters
	Reader  *excel.DataReader
	Coercer *coercer.NumericCoercer
	Solver  *solver.Solver

	// Services
	Analysis *app.AnalysisService
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Reader:  excel.NewDataReader("", logger),
		Coercer: coercer.NewNumericCoercer(coercer.DefaultCoercionConfig()),
		Solver:  solver.New(solver.Options{Tolerance: cfg.Solver.Tolerance, Logger: logger}),
	}
	c.Analysis = app.NewAnalysisService(c.Reader, c.Coercer, c.Solver, app.ServiceConfig{
		Workers: cfg.Solver.Workers,
		Format:  FormatOptions(cfg),
		Logger:  logger,
	})

	logger.Named("Container").Debug("wired solver (tol %g) with %d workers", cfg.Solver.Tolerance, cfg.Solver.Workers)
	return c, nil
}

// FormatOptions maps the configured thresholds onto the result formatter
func FormatOptions(cfg *config.Config) dea.FormatOptions {
	return dea.FormatOptions{
		EfficiencyThreshold: cfg.Solver.EfficiencyThreshold,
		PeerThreshold:       cfg.Solver.PeerThreshold,
	}
}
