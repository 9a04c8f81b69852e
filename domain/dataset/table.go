package dataset

import (
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"godea/domain/core"
)

// CellParser turns a raw cell into a number. ok=false means the cell is not numeric.
type CellParser interface {
	ParseNumeric(raw string) (float64, bool)
}

type strictParser struct{}

func (strictParser) ParseNumeric(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// DataTable is the numeric view of a RawTable under one Selection.
// It is immutable after construction and safe to share between goroutines.
type DataTable struct {
	names       []string
	inputNames  []string
	outputNames []string
	inputs      *mat.Dense // n_dmu × n_inputs
	outputs     *mat.Dense // n_dmu × n_outputs
	fingerprint core.Hash
}

// NewDataTable coerces the selected columns of raw into input and output matrices.
// A nil parser falls back to strconv.ParseFloat.
func NewDataTable(raw *RawTable, sel Selection, parser CellParser) (*DataTable, error) {
	if err := sel.Validate(len(raw.Headers)); err != nil {
		return nil, err
	}
	if raw.NumRows() == 0 {
		return nil, core.ErrInsufficientData
	}
	if parser == nil {
		parser = strictParser{}
	}

	n := raw.NumRows()
	names := make([]string, n)
	for r := 0; r < n; r++ {
		names[r], _ = raw.Cell(r, 0)
	}

	inputs, err := buildMatrix(raw, sel.Inputs, parser)
	if err != nil {
		return nil, err
	}
	outputs, err := buildMatrix(raw, sel.Outputs, parser)
	if err != nil {
		return nil, err
	}

	t := &DataTable{
		names:       names,
		inputNames:  pickHeaders(raw.Headers, sel.Inputs),
		outputNames: pickHeaders(raw.Headers, sel.Outputs),
		inputs:      inputs,
		outputs:     outputs,
	}
	t.fingerprint = t.computeFingerprint()
	return t, nil
}

// FromMatrices builds a DataTable directly from row-major values. Names may be nil,
// in which case DMUs are labelled DMU1..DMUn.
func FromMatrices(names, inputNames, outputNames []string, inputs, outputs [][]float64) (*DataTable, error) {
	n := len(inputs)
	if n == 0 {
		return nil, core.ErrInsufficientData
	}
	if len(outputs) != n {
		return nil, core.NewSelectionError("inputs have %d rows, outputs %d", n, len(outputs))
	}
	if len(inputs[0]) == 0 || len(outputs[0]) == 0 {
		return nil, core.ErrEmptySelection
	}
	if names == nil {
		names = make([]string, n)
		for i := range names {
			names[i] = "DMU" + strconv.Itoa(i+1)
		}
	}
	if len(names) != n {
		return nil, core.NewSelectionError("%d names for %d rows", len(names), n)
	}
	if inputNames == nil {
		inputNames = defaultLabels("x", len(inputs[0]))
	}
	if outputNames == nil {
		outputNames = defaultLabels("y", len(outputs[0]))
	}

	in, err := denseFromRows(inputNames, inputs)
	if err != nil {
		return nil, err
	}
	out, err := denseFromRows(outputNames, outputs)
	if err != nil {
		return nil, err
	}

	t := &DataTable{
		names:       append([]string(nil), names...),
		inputNames:  append([]string(nil), inputNames...),
		outputNames: append([]string(nil), outputNames...),
		inputs:      in,
		outputs:     out,
	}
	t.fingerprint = t.computeFingerprint()
	return t, nil
}

// NumDMU returns the number of decision-making units (rows).
func (t *DataTable) NumDMU() int {
	r, _ := t.inputs.Dims()
	return r
}

func (t *DataTable) NumInputs() int {
	_, c := t.inputs.Dims()
	return c
}

func (t *DataTable) NumOutputs() int {
	_, c := t.outputs.Dims()
	return c
}

// Names returns a copy of the DMU names in row order.
func (t *DataTable) Names() []string { return append([]string(nil), t.names...) }

// Name returns the name of DMU k.
func (t *DataTable) Name(k int) string { return t.names[k] }

func (t *DataTable) InputNames() []string  { return append([]string(nil), t.inputNames...) }
func (t *DataTable) OutputNames() []string { return append([]string(nil), t.outputNames...) }

// Input returns X[k,i].
func (t *DataTable) Input(k, i int) float64 { return t.inputs.At(k, i) }

// Output returns Y[k,r].
func (t *DataTable) Output(k, r int) float64 { return t.outputs.At(k, r) }

// InputRow returns a copy of DMU k's input vector.
func (t *DataTable) InputRow(k int) []float64 { return mat.Row(nil, k, t.inputs) }

// OutputRow returns a copy of DMU k's output vector.
func (t *DataTable) OutputRow(k int) []float64 { return mat.Row(nil, k, t.outputs) }

// Inputs exposes the input matrix read-only.
func (t *DataTable) Inputs() mat.Matrix { return t.inputs }

// Outputs exposes the output matrix read-only.
func (t *DataTable) Outputs() mat.Matrix { return t.outputs }

// Fingerprint identifies the numeric content of the table.
func (t *DataTable) Fingerprint() core.Hash { return t.fingerprint }

func (t *DataTable) computeFingerprint() core.Hash {
	var f core.Fingerprint
	for _, n := range t.names {
		f.AddString(n)
	}
	for _, n := range t.inputNames {
		f.AddString("in:" + n)
	}
	for _, n := range t.outputNames {
		f.AddString("out:" + n)
	}
	for _, m := range []*mat.Dense{t.inputs, t.outputs} {
		r, c := m.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				f.AddFloat(m.At(i, j))
			}
		}
	}
	return f.Sum()
}

func buildMatrix(raw *RawTable, cols []int, parser CellParser) (*mat.Dense, error) {
	n := raw.NumRows()
	m := mat.NewDense(n, len(cols), nil)
	for j, c := range cols {
		header := raw.Headers[c]
		for r := 0; r < n; r++ {
			cell, ok := raw.Cell(r, c)
			if !ok || cell == "" {
				return nil, core.NewDataFormatError(header, r+1, cell, "missing value")
			}
			v, ok := parser.ParseNumeric(cell)
			if !ok {
				return nil, core.NewDataFormatError(header, r+1, cell, "not a number")
			}
			if v < 0 {
				return nil, core.NewDataFormatError(header, r+1, cell, "negative value")
			}
			m.Set(r, j, v)
		}
	}
	return m, nil
}

func denseFromRows(labels []string, rows [][]float64) (*mat.Dense, error) {
	width := len(labels)
	m := mat.NewDense(len(rows), width, nil)
	for r, row := range rows {
		if len(row) != width {
			return nil, core.NewSelectionError("row %d has %d values, want %d", r+1, len(row), width)
		}
		for c, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, core.NewDataFormatError(labels[c], r+1, strconv.FormatFloat(v, 'g', -1, 64), "not a finite number")
			}
			if v < 0 {
				return nil, core.NewDataFormatError(labels[c], r+1, strconv.FormatFloat(v, 'g', -1, 64), "negative value")
			}
			m.Set(r, c, v)
		}
	}
	return m, nil
}

func pickHeaders(headers []string, cols []int) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = headers[c]
	}
	return out
}

func defaultLabels(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = prefix + strconv.Itoa(i+1)
	}
	return out
}
