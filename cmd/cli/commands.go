package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"godea/adapters/excel"
	"godea/app"
	"godea/internal/testkit"
)

func newColumnsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "columns [file]",
		Short: "List candidate input/output columns of an .xlsx or .csv file",
		Long: `List the columns that can be selected as inputs or outputs.

The first column holds DMU names and is never selectable. A column is marked
selectable when every cell parses as a non-negative number.

Example: godea columns branches.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer(0, 0)
			if err != nil {
				return err
			}
			raw, err := c.Reader.ReadFile(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d DMUs (names from column %q)\n", filepath.Base(args[0]), raw.NumRows(), raw.Headers[0])
			renderColumns(out, c.Analysis.Columns(raw))
			return nil
		},
	}
	return cmd
}

func newSolveCmd() *cobra.Command {
	var inputs, outputs []string
	var export string
	var workers int
	var threshold float64
	var quiet bool

	cmd := &cobra.Command{
		Use:   "solve [file]",
		Short: "Score every DMU and print efficiency, benchmarks and input slack",
		Long: `Solve the input-oriented CCR envelopment model for every DMU.

Inputs and outputs are header names (comma separated or repeated flags).
Results are recomputed on every run and never stored.

Example: godea solve branches.xlsx --inputs Staff,Cost --outputs Loans --export report.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer(workers, threshold)
			if err != nil {
				return err
			}
			raw, err := c.Reader.ReadFile(args[0])
			if err != nil {
				return err
			}

			req := app.AnalysisRequest{Table: raw, Inputs: inputs, Outputs: outputs}
			if !quiet {
				req.Progress = stderrProgress()
			}
			analysis, err := c.Analysis.Run(cmd.Context(), req)
			if !quiet && req.Progress != nil {
				fmt.Fprintln(os.Stderr)
			}
			if analysis == nil {
				return err
			}

			renderAnalysis(cmd.OutOrStdout(), analysis)
			if export != "" {
				if werr := exportReport(export, analysis); werr != nil {
					return werr
				}
				color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Report written to %s\n", export)
			}
			return err
		},
	}

	cmd.Flags().StringSliceVar(&inputs, "inputs", nil, "Input column names")
	cmd.Flags().StringSliceVar(&outputs, "outputs", nil, "Output column names")
	cmd.Flags().StringVar(&export, "export", "", "Write an .xlsx report to this path")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent LP solves (default DEA_WORKERS or CPU count)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Efficiency threshold (default DEA_EFFICIENCY_THRESHOLD or 0.999)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")
	_ = cmd.MarkFlagRequired("inputs")
	_ = cmd.MarkFlagRequired("outputs")

	return cmd
}

func newSampleCmd() *cobra.Command {
	cfg := testkit.DefaultGeneratorConfig()

	cmd := &cobra.Command{
		Use:   "sample [file]",
		Short: "Write a synthetic DEA dataset to an .xlsx or .csv file",
		Long: `Generate a deterministic dataset from a constant-returns frontier.

Example: godea sample demo.xlsx --dmus 20 --inputs 3 --outputs 2 --seed 7`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g := testkit.NewGenerator(cfg)
			raw, err := g.RawTable()
			if err != nil {
				return err
			}

			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", args[0], err)
			}
			if err := excel.WriteRawTable(f, args[0], raw); err != nil {
				f.Close()
				os.Remove(args[0])
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			sel := g.Selection()
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d DMUs to %s\n", raw.NumRows(), args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Try: godea solve %s --inputs %s --outputs %s\n", args[0],
				strings.Join(pick(raw.Headers, sel.Inputs), ","), strings.Join(pick(raw.Headers, sel.Outputs), ","))
			return nil
		},
	}

	cmd.Flags().IntVar(&cfg.DMUCount, "dmus", cfg.DMUCount, "Number of DMUs")
	cmd.Flags().IntVar(&cfg.InputCount, "inputs", cfg.InputCount, "Number of input columns")
	cmd.Flags().IntVar(&cfg.OutputCount, "outputs", cfg.OutputCount, "Number of output columns")
	cmd.Flags().Uint64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed")

	return cmd
}

func exportReport(path string, analysis *app.Analysis) error {
	if _, err := excel.DetectFileType(path); err != nil || !strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return fmt.Errorf("--export must end in .xlsx, got %q", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	return excel.WriteReport(f, excel.Report{
		Efficiency: analysis.Efficiency,
		Slack:      analysis.Slack,
		Summary:    &analysis.Summary,
	})
}

func pick(headers []string, idx []int) []string {
	out := make([]string, len(idx))
	for i, c := range idx {
		out[i] = headers[c]
	}
	return out
}

func stderrProgress() app.ProgressFunc {
	var mu sync.Mutex
	return func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(os.Stderr, "\rsolving %d/%d", done, total)
	}
}
