package testkit

import (
	"reflect"
	"testing"
)

func TestGenerator_Deterministic(t *testing.T) {
	cfg := DefaultGeneratorConfig()
	cfg.Seed = 7

	names1, in1, out1, err := NewGenerator(cfg).Matrices()
	if err != nil {
		t.Fatalf("Failed to generate: %v", err)
	}
	names2, in2, out2, err := NewGenerator(cfg).Matrices()
	if err != nil {
		t.Fatalf("Failed to generate: %v", err)
	}

	if !reflect.DeepEqual(names1, names2) || !reflect.DeepEqual(in1, in2) || !reflect.DeepEqual(out1, out2) {
		t.Error("Expected identical tables for the same seed")
	}

	cfg.Seed = 8
	_, in3, _, err := NewGenerator(cfg).Matrices()
	if err != nil {
		t.Fatalf("Failed to generate: %v", err)
	}
	if reflect.DeepEqual(in1, in3) {
		t.Error("Expected a different table for a different seed")
	}
}

func TestGenerator_StrictlyPositive(t *testing.T) {
	cfg := DefaultGeneratorConfig()
	cfg.DMUCount = 50
	cfg.InputCount = 3
	cfg.OutputCount = 2

	table, err := NewGenerator(cfg).Table()
	if err != nil {
		t.Fatalf("Failed to build table: %v", err)
	}
	if table.NumDMU() != 50 || table.NumInputs() != 3 || table.NumOutputs() != 2 {
		t.Fatalf("Unexpected shape %dx%d/%d", table.NumDMU(), table.NumInputs(), table.NumOutputs())
	}
	for k := 0; k < table.NumDMU(); k++ {
		for _, v := range table.InputRow(k) {
			if v < cfg.InputMin || v > cfg.InputMax {
				t.Errorf("DMU %d input %g outside [%g, %g]", k, v, cfg.InputMin, cfg.InputMax)
			}
		}
		for _, v := range table.OutputRow(k) {
			if v <= 0 {
				t.Errorf("DMU %d has non-positive output %g", k, v)
			}
		}
	}
	if table.Name(0) != "DMU01" {
		t.Errorf("Expected zero-padded names, got %q", table.Name(0))
	}
}

func TestGenerator_RawTableMatchesSelection(t *testing.T) {
	g := NewGenerator(DefaultGeneratorConfig())
	raw, err := g.RawTable()
	if err != nil {
		t.Fatalf("Failed to build raw table: %v", err)
	}
	sel := g.Selection()
	if err := sel.Validate(len(raw.Headers)); err != nil {
		t.Fatalf("Selection does not fit raw table: %v", err)
	}
	if raw.Headers[sel.Outputs[0]] != "Output1" {
		t.Errorf("Expected Output1 header, got %q", raw.Headers[sel.Outputs[0]])
	}
}

func TestGeneratorConfig_Validate(t *testing.T) {
	bad := []GeneratorConfig{
		{DMUCount: 0, InputCount: 1, OutputCount: 1, InputMin: 1, InputMax: 2, MinEfficiency: 0.5},
		{DMUCount: 1, InputCount: 0, OutputCount: 1, InputMin: 1, InputMax: 2, MinEfficiency: 0.5},
		{DMUCount: 1, InputCount: 1, OutputCount: 1, InputMin: 0, InputMax: 2, MinEfficiency: 0.5},
		{DMUCount: 1, InputCount: 1, OutputCount: 1, InputMin: 1, InputMax: 2, MinEfficiency: 1.5},
	}
	for i, cfg := range bad {
		if err := cfg.Validate(); err == nil {
			t.Errorf("config %d: expected validation error", i)
		}
	}
	if err := DefaultGeneratorConfig().Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}
