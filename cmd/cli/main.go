package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"godea/internal/config"
	"godea/internal/container"
)

func main() {
	// .env is optional for the CLI
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "godea",
		Short:         "Data Envelopment Analysis (input-oriented CCR) for spreadsheets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newColumnsCmd(),
		newSolveCmd(),
		newSampleCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// loadContainer reads the environment configuration and applies flag overrides
func loadContainer(workers int, threshold float64) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if workers > 0 {
		cfg.Solver.Workers = workers
	}
	if threshold > 0 {
		if threshold > 1 {
			return nil, fmt.Errorf("--threshold must be in (0, 1], got %g", threshold)
		}
		cfg.Solver.EfficiencyThreshold = threshold
	}
	return container.New(cfg)
}
