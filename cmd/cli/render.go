package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"godea/app"
	"godea/domain/dataset"
	"godea/domain/dea"
	"godea/internal/errors"
)

var (
	heading   = color.New(color.FgCyan, color.Bold)
	highlight = color.New(color.FgRed, color.Bold)
	warning   = color.New(color.FgYellow)
	success   = color.New(color.FgGreen)
)

func renderColumns(w io.Writer, cols []dataset.ColumnProfile) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Column", "Numeric", "Selectable"})
	for _, c := range cols {
		selectable := "yes"
		if !c.Selectable {
			selectable = "no"
			if c.NegativeSeen {
				selectable = "no (negative values)"
			} else if c.ValidCount < c.TotalCount {
				selectable = "no (missing values)"
			}
		}
		table.Append([]string{
			strconv.Itoa(c.Index),
			c.Column,
			fmt.Sprintf("%.0f%%", c.NumericRatio*100),
			selectable,
		})
	}
	table.Render()
}

func renderAnalysis(w io.Writer, a *app.Analysis) {
	heading.Fprintf(w, "\nDEA Efficiency Results (%s)\n", a.ID)
	renderEfficiency(w, a.Efficiency)

	heading.Fprintln(w, "\nInput Slack (inefficient DMUs)")
	if a.Slack.Empty() {
		success.Fprintln(w, a.Slack.Notice())
	} else {
		renderSlack(w, a.Slack)
	}

	s := a.Summary
	heading.Fprintln(w, "\nSummary")
	fmt.Fprintf(w, "DMUs: %d  efficient: %d  inefficient: %d", s.DMUs, s.Efficient, s.Inefficient)
	if unsolved := s.Unsolved + s.OutOfRange; unsolved > 0 {
		warning.Fprintf(w, "  unsolved: %d", unsolved)
	}
	fmt.Fprintln(w)
	if s.Solved > 0 {
		fmt.Fprintf(w, "Efficiency mean %.4f  median %.4f  min %.4f  max %.4f\n",
			s.Distribution.Mean, s.Distribution.Median, s.Distribution.Min, s.Distribution.Max)
	}
}

func renderEfficiency(w io.Writer, t dea.EfficiencyTable) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"DMU", "Efficiency", "Efficient?", "Benchmarks"})
	table.SetAutoWrapText(false)
	for _, row := range t.Rows {
		eff, flag, benchmarks := "n/a", "?", row.Benchmarks
		if row.Efficiency != nil {
			eff = strconv.FormatFloat(*row.Efficiency, 'f', 4, 64)
		}
		if row.Efficient != nil {
			flag = "no"
			if *row.Efficient {
				flag = "yes"
			}
		}
		if row.Error != "" {
			benchmarks = warning.Sprint(row.Error)
		}
		table.Append([]string{row.DMU, eff, flag, benchmarks})
	}
	table.Render()
}

func renderSlack(w io.Writer, t dea.SlackTable) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(append([]string{"DMU"}, t.Columns...))
	for _, row := range t.Rows {
		cells := make([]string, 0, len(row.Cells)+1)
		cells = append(cells, row.DMU)
		for _, c := range row.Cells {
			v := strconv.FormatFloat(c.Value, 'f', 2, 64)
			if c.Highlight {
				v = highlight.Sprint(v)
			}
			cells = append(cells, v)
		}
		table.Append(cells)
	}
	table.Render()
}

func printError(w io.Writer, err error) {
	code := errors.GetCode(err)
	highlight.Fprintf(w, "Error [%s]: ", code)
	fmt.Fprintln(w, err)
}
