package dataset

import (
	"fmt"
	"strings"

	"godea/domain/core"
)

// RawTable is an uploaded sheet before any column has been interpreted.
// Column 0 holds DMU names; every other column is a candidate input or output.
type RawTable struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"-"`
	Source  string     `json:"source,omitempty"` // file name the table was read from
}

// NumRows returns the number of data rows (header excluded).
func (t *RawTable) NumRows() int {
	return len(t.Rows)
}

// Cell returns the trimmed cell at (row, col) and whether it was present at all.
// Short rows are common in CSV and xlsx exports; missing trailing cells report false.
func (t *RawTable) Cell(row, col int) (string, bool) {
	if row < 0 || row >= len(t.Rows) {
		return "", false
	}
	r := t.Rows[row]
	if col < 0 || col >= len(r) {
		return "", false
	}
	return strings.TrimSpace(r[col]), true
}

// CandidateColumns lists the headers that may be chosen as inputs or outputs.
func (t *RawTable) CandidateColumns() []string {
	if len(t.Headers) <= 1 {
		return nil
	}
	out := make([]string, len(t.Headers)-1)
	copy(out, t.Headers[1:])
	return out
}

// ColumnProfile summarises how usable a candidate column is as an input or output.
type ColumnProfile struct {
	Column       string  `json:"column"`
	Index        int     `json:"index"`
	TotalCount   int     `json:"total_count"`
	ValidCount   int     `json:"valid_count"` // non-empty cells
	NumericCount int     `json:"numeric_count"`
	NegativeSeen bool    `json:"negative_seen"`
	NumericRatio float64 `json:"numeric_ratio"`
	Selectable   bool    `json:"selectable"`
}

// Selection is the caller's choice of input and output columns, as indices into
// RawTable.Headers. Index 0 (the DMU name column) is never selectable.
type Selection struct {
	Inputs  []int `json:"inputs"`
	Outputs []int `json:"outputs"`
}

// Validate checks the selection against a header row of width columns.
// Empty lists are reported before anything else.
func (s Selection) Validate(width int) error {
	if len(s.Inputs) == 0 || len(s.Outputs) == 0 {
		return core.ErrEmptySelection
	}

	seen := make(map[int]string, len(s.Inputs)+len(s.Outputs))
	check := func(role string, cols []int) error {
		local := make(map[int]bool, len(cols))
		for _, c := range cols {
			if c <= 0 || c >= width {
				return core.NewSelectionError("%s column index %d outside 1..%d", role, c, width-1)
			}
			if local[c] {
				return core.NewSelectionError("%s column index %d listed twice", role, c)
			}
			local[c] = true
			if other, ok := seen[c]; ok && other != role {
				return fmt.Errorf("%w: index %d", core.ErrOverlappingSelection, c)
			}
			seen[c] = role
		}
		return nil
	}

	if err := check("input", s.Inputs); err != nil {
		return err
	}
	return check("output", s.Outputs)
}

// SelectByName resolves header names to a Selection. Names are matched exactly
// first and then case-insensitively after trimming.
func SelectByName(headers []string, inputs, outputs []string) (Selection, error) {
	if len(inputs) == 0 || len(outputs) == 0 {
		return Selection{}, core.ErrEmptySelection
	}

	resolve := func(names []string) ([]int, error) {
		idx := make([]int, 0, len(names))
		for _, name := range names {
			c := lookupHeader(headers, name)
			if c < 0 {
				return nil, core.NewSelectionError("no column named %q", name)
			}
			idx = append(idx, c)
		}
		return idx, nil
	}

	in, err := resolve(inputs)
	if err != nil {
		return Selection{}, err
	}
	out, err := resolve(outputs)
	if err != nil {
		return Selection{}, err
	}
	return Selection{Inputs: in, Outputs: out}, nil
}

func lookupHeader(headers []string, name string) int {
	// Skip column 0: it is the DMU name column.
	for i := 1; i < len(headers); i++ {
		if headers[i] == name {
			return i
		}
	}
	want := strings.ToLower(strings.TrimSpace(name))
	for i := 1; i < len(headers); i++ {
		if strings.ToLower(strings.TrimSpace(headers[i])) == want {
			return i
		}
	}
	return -1
}
