package dea

import (
	"fmt"
	"math"
	"strings"
)

const (
	// EfficientMarker replaces the benchmark list of efficient DMUs.
	EfficientMarker = "—"
	// BenchmarkSeparator joins "<peer> (λ=...)" entries.
	BenchmarkSeparator = ", "
	// SlackColumnPrefix labels each slack column.
	SlackColumnPrefix = "↓ Decrease "
	// FullyEfficientNotice is shown instead of an empty slack grid.
	FullyEfficientNotice = "All DMUs are efficient. No input slack to display."
)

// EfficiencyRow is one line of the efficiency/benchmark table.
// Efficiency and Efficient are nil when the DMU could not be classified.
type EfficiencyRow struct {
	DMU        string   `json:"dmu"`
	Efficiency *float64 `json:"efficiency"`
	Efficient  *bool    `json:"efficient"`
	Benchmarks string   `json:"benchmarks"`
	Peers      []Peer   `json:"peers,omitempty"`
	Status     Status   `json:"status"`
	Error      string   `json:"error,omitempty"`
}

// EfficiencyTable is one row per DMU in table order.
type EfficiencyTable struct {
	Rows []EfficiencyRow `json:"rows"`
}

// Counts returns efficient, inefficient and unclassified row counts.
func (t EfficiencyTable) Counts() (efficient, inefficient, unclassified int) {
	for _, row := range t.Rows {
		switch {
		case row.Efficient == nil:
			unclassified++
		case *row.Efficient:
			efficient++
		default:
			inefficient++
		}
	}
	return
}

// FormatEfficiencyTable renders efficiency scores, flags and benchmark peers.
func FormatEfficiencyTable(names []string, outcomes []Outcome, opts FormatOptions) EfficiencyTable {
	opts = opts.withDefaults()
	rows := make([]EfficiencyRow, 0, len(outcomes))

	for _, out := range outcomes {
		row := EfficiencyRow{DMU: nameOf(names, out), Status: out.Status()}
		if !out.Solved() {
			if out.Err != nil {
				row.Error = out.Err.Error()
			}
			rows = append(rows, row)
			continue
		}

		eff := Round4(out.Result.Efficiency)
		efficient := out.Result.Efficiency >= opts.EfficiencyThreshold
		row.Efficiency = &eff
		row.Efficient = &efficient

		if efficient {
			row.Benchmarks = EfficientMarker
		} else {
			row.Peers = opts.Peers(names, out.Result)
			row.Benchmarks = BenchmarkText(row.Peers)
		}
		rows = append(rows, row)
	}

	return EfficiencyTable{Rows: rows}
}

// BenchmarkText renders peers as "<name> (λ=0.1234)" joined by ", ".
func BenchmarkText(peers []Peer) string {
	parts := make([]string, len(peers))
	for i, p := range peers {
		parts[i] = fmt.Sprintf("%s (λ=%.4f)", p.Name, p.Lambda)
	}
	return strings.Join(parts, BenchmarkSeparator)
}

// SlackCell is one input's slack for one DMU. Highlight marks an actionable reduction.
type SlackCell struct {
	Input     string  `json:"input"`
	Value     float64 `json:"value"`
	Highlight bool    `json:"highlight"`
}

// SlackRow holds the slacks of one inefficient DMU.
type SlackRow struct {
	Index int         `json:"index"`
	DMU   string      `json:"dmu"`
	Cells []SlackCell `json:"cells"`
}

// SlackTable lists input slacks for solved, inefficient DMUs only.
type SlackTable struct {
	Columns []string   `json:"columns"`
	Rows    []SlackRow `json:"rows"`
}

// Empty reports whether no DMU needs an input reduction.
func (t SlackTable) Empty() bool {
	return len(t.Rows) == 0
}

// Notice returns the message to show instead of an empty grid, or "".
func (t SlackTable) Notice() string {
	if t.Empty() {
		return FullyEfficientNotice
	}
	return ""
}

// FormatSlackTable renders the inefficient-only slack table.
func FormatSlackTable(names, inputNames []string, outcomes []Outcome, opts FormatOptions) SlackTable {
	opts = opts.withDefaults()

	columns := make([]string, len(inputNames))
	for i, name := range inputNames {
		columns[i] = SlackColumnPrefix + name
	}
	table := SlackTable{Columns: columns}

	for _, out := range outcomes {
		if !opts.IsInefficient(out) {
			continue
		}
		row := SlackRow{Index: out.Index, DMU: nameOf(names, out), Cells: make([]SlackCell, len(inputNames))}
		for i, name := range inputNames {
			v := 0.0
			if i < len(out.Result.InputSlack) {
				v = out.Result.InputSlack[i]
			}
			row.Cells[i] = SlackCell{Input: name, Value: v, Highlight: v > 0}
		}
		table.Rows = append(table.Rows, row)
	}

	return table
}

// Round4 rounds to four decimal places.
func Round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

func nameOf(names []string, out Outcome) string {
	if out.Index >= 0 && out.Index < len(names) {
		return names[out.Index]
	}
	return out.DMU
}
