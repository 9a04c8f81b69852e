package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"godea/app"
	"godea/domain/core"
	"godea/domain/dataset"
	"godea/domain/dea"
)

func init() {
	color.NoColor = true
}

func TestRenderColumns(t *testing.T) {
	var buf bytes.Buffer
	renderColumns(&buf, []dataset.ColumnProfile{
		{Column: "Staff", Index: 1, TotalCount: 3, ValidCount: 3, NumericRatio: 1, Selectable: true},
		{Column: "Loss", Index: 2, TotalCount: 3, ValidCount: 3, NumericRatio: 1, NegativeSeen: true},
		{Column: "Notes", Index: 3, TotalCount: 3, ValidCount: 2},
	})
	out := buf.String()
	assert.Contains(t, out, "Staff")
	assert.Contains(t, out, "100%")
	assert.Contains(t, out, "no (negative values)")
	assert.Contains(t, out, "no (missing values)")
}

func TestRenderAnalysis(t *testing.T) {
	eff, ineff := 1.0, 0.5
	yes, no := true, false
	a := &app.Analysis{
		ID: core.NewAnalysisID(),
		Efficiency: dea.EfficiencyTable{Rows: []dea.EfficiencyRow{
			{DMU: "A", Efficiency: &eff, Efficient: &yes, Benchmarks: dea.EfficientMarker},
			{DMU: "B", Efficiency: &ineff, Efficient: &no, Benchmarks: "A (λ=1.0000)"},
			{DMU: "C", Status: dea.StatusOutOfRange, Error: "efficiency outside (0, 1]"},
		}},
		Slack: dea.SlackTable{
			Columns: []string{"↓ Decrease Staff"},
			Rows:    []dea.SlackRow{{DMU: "B", Cells: []dea.SlackCell{{Input: "Staff", Value: 1.25, Highlight: true}}}},
		},
	}
	a.Summary.DMUs, a.Summary.Efficient, a.Summary.Inefficient, a.Summary.OutOfRange = 3, 1, 1, 1

	var buf bytes.Buffer
	renderAnalysis(&buf, a)
	out := buf.String()

	assert.Contains(t, out, "1.0000")
	assert.Contains(t, out, "0.5000")
	assert.Contains(t, out, "A (λ=1.0000)")
	assert.Contains(t, out, "n/a")
	assert.Contains(t, out, "efficiency outside (0, 1]")
	assert.Contains(t, out, "1.25")
	assert.Contains(t, out, "unsolved: 1")
}

func TestRenderAnalysis_FullyEfficient(t *testing.T) {
	a := &app.Analysis{ID: core.NewAnalysisID(), Slack: dea.SlackTable{Columns: []string{"↓ Decrease x"}}}
	var buf bytes.Buffer
	renderAnalysis(&buf, a)
	assert.Contains(t, buf.String(), dea.FullyEfficientNotice)
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, core.ErrEmptySelection)
	assert.Contains(t, buf.String(), "VALIDATION_ERROR")
	assert.Contains(t, buf.String(), core.ErrEmptySelection.Error())
}

func TestSampleThenSolve(t *testing.T) {
	t.Setenv("LOG_LEVEL", "ERROR")
	dir := t.TempDir()
	data := filepath.Join(dir, "demo.csv")
	report := filepath.Join(dir, "report.xlsx")

	sample := newSampleCmd()
	var sampleOut bytes.Buffer
	sample.SetOut(&sampleOut)
	sample.SetArgs([]string{data, "--dmus", "6", "--seed", "3"})
	require.NoError(t, sample.Execute())
	assert.Contains(t, sampleOut.String(), "Wrote 6 DMUs")

	solve := newSolveCmd()
	var solveOut bytes.Buffer
	solve.SetOut(&solveOut)
	solve.SetArgs([]string{data, "--inputs", "Input1,Input2", "--outputs", "Output1", "--outputs", "Output2",
		"--export", report, "--quiet"})
	require.NoError(t, solve.Execute())
	assert.Contains(t, solveOut.String(), "DMU1")
	assert.Contains(t, solveOut.String(), "Report written to")

	info, err := os.Stat(report)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	columns := newColumnsCmd()
	var colOut bytes.Buffer
	columns.SetOut(&colOut)
	columns.SetArgs([]string{data})
	require.NoError(t, columns.Execute())
	assert.Contains(t, colOut.String(), "Output2")
}
