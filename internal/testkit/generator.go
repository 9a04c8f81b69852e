package testkit

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"

	"gonum.org/v1/gonum/stat/distuv"

	"godea/domain/dataset"
)

// GeneratorConfig configures the synthetic DEA data generator
type GeneratorConfig struct {
	DMUCount    int     `json:"dmu_count"`
	InputCount  int     `json:"input_count"`
	OutputCount int     `json:"output_count"`
	InputMin    float64 `json:"input_min"`
	InputMax    float64 `json:"input_max"`
	// MinEfficiency is the lower bound of the per-DMU technical efficiency draw
	MinEfficiency float64 `json:"min_efficiency"`
	Seed          uint64  `json:"seed"`
}

// DefaultGeneratorConfig returns sensible defaults for sample data generation
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		DMUCount:      10,
		InputCount:    2,
		OutputCount:   2,
		InputMin:      10,
		InputMax:      100,
		MinEfficiency: 0.4,
		Seed:          42,
	}
}

// Validate rejects configurations that cannot produce a strictly positive table
func (c GeneratorConfig) Validate() error {
	switch {
	case c.DMUCount < 1:
		return fmt.Errorf("dmu count must be at least 1, got %d", c.DMUCount)
	case c.InputCount < 1 || c.OutputCount < 1:
		return fmt.Errorf("need at least one input and one output, got %d/%d", c.InputCount, c.OutputCount)
	case c.InputMin <= 0 || c.InputMax <= c.InputMin:
		return fmt.Errorf("input range must satisfy 0 < min < max, got [%g, %g]", c.InputMin, c.InputMax)
	case c.MinEfficiency <= 0 || c.MinEfficiency > 1:
		return fmt.Errorf("min efficiency must be in (0, 1], got %g", c.MinEfficiency)
	}
	return nil
}

// Generator draws DMUs from a constant-returns frontier: each output is a weighted
// geometric mean of the inputs scaled by a per-DMU efficiency draw. All values are
// strictly positive and the same seed always yields the same table.
type Generator struct {
	config GeneratorConfig
}

// NewGenerator creates a new generator
func NewGenerator(config GeneratorConfig) *Generator {
	return &Generator{config: config}
}

// Matrices returns names, inputs and outputs as row-major slices
func (g *Generator) Matrices() ([]string, [][]float64, [][]float64, error) {
	if err := g.config.Validate(); err != nil {
		return nil, nil, nil, err
	}
	src := rand.NewPCG(g.config.Seed, g.config.Seed^0x9e3779b97f4a7c15)
	inputDist := distuv.Uniform{Min: g.config.InputMin, Max: g.config.InputMax, Src: src}
	effDist := distuv.Uniform{Min: g.config.MinEfficiency, Max: 1, Src: src}
	weightDist := distuv.Uniform{Min: 0.2, Max: 1, Src: src}

	// output r uses its own input elasticities, normalised to sum to 1
	elasticities := make([][]float64, g.config.OutputCount)
	for r := range elasticities {
		w := make([]float64, g.config.InputCount)
		var total float64
		for i := range w {
			w[i] = weightDist.Rand()
			total += w[i]
		}
		for i := range w {
			w[i] /= total
		}
		elasticities[r] = w
	}

	width := len(strconv.Itoa(g.config.DMUCount))
	names := make([]string, g.config.DMUCount)
	inputs := make([][]float64, g.config.DMUCount)
	outputs := make([][]float64, g.config.DMUCount)
	for k := range names {
		names[k] = fmt.Sprintf("DMU%0*d", width, k+1)

		x := make([]float64, g.config.InputCount)
		for i := range x {
			x[i] = round2(inputDist.Rand())
		}
		eff := effDist.Rand()

		y := make([]float64, g.config.OutputCount)
		for r := range y {
			logSum := 0.0
			for i, w := range elasticities[r] {
				logSum += w * math.Log(x[i])
			}
			y[r] = round2(eff * math.Exp(logSum))
		}
		inputs[k], outputs[k] = x, y
	}
	return names, inputs, outputs, nil
}

// Table builds a DataTable directly
func (g *Generator) Table() (*dataset.DataTable, error) {
	names, inputs, outputs, err := g.Matrices()
	if err != nil {
		return nil, err
	}
	return dataset.FromMatrices(names, labels("Input", len(inputs[0])), labels("Output", len(outputs[0])), inputs, outputs)
}

// RawTable renders the sample as an uploaded sheet: name column, inputs, then outputs
func (g *Generator) RawTable() (*dataset.RawTable, error) {
	names, inputs, outputs, err := g.Matrices()
	if err != nil {
		return nil, err
	}
	headers := append([]string{"DMU"}, labels("Input", g.config.InputCount)...)
	headers = append(headers, labels("Output", g.config.OutputCount)...)

	rows := make([][]string, len(names))
	for k, name := range names {
		row := make([]string, 0, len(headers))
		row = append(row, name)
		for _, v := range inputs[k] {
			row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
		}
		for _, v := range outputs[k] {
			row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
		}
		rows[k] = row
	}
	return &dataset.RawTable{Headers: headers, Rows: rows, Source: "sample"}, nil
}

// Selection returns the selection matching RawTable's layout
func (g *Generator) Selection() dataset.Selection {
	sel := dataset.Selection{}
	for i := 0; i < g.config.InputCount; i++ {
		sel.Inputs = append(sel.Inputs, 1+i)
	}
	for r := 0; r < g.config.OutputCount; r++ {
		sel.Outputs = append(sel.Outputs, 1+g.config.InputCount+r)
	}
	return sel
}

func labels(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i+1)
	}
	return out
}

// round2 keeps two decimals but never rounds a positive value down to zero
func round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r <= 0 {
		return 0.01
	}
	return r
}
