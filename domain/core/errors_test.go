package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestDataFormatErrorMatchesSentinel(t *testing.T) {
	err := NewDataFormatError("staff", 3, "n/a", "not a number")

	if !errors.Is(err, ErrDataFormat) {
		t.Fatal("Expected DataFormatError to match ErrDataFormat")
	}
	if !IsInputError(fmt.Errorf("build table: %w", err)) {
		t.Error("Expected wrapped DataFormatError to count as input error")
	}

	var dfe *DataFormatError
	if !errors.As(err, &dfe) || dfe.Row != 3 || dfe.Column != "staff" {
		t.Errorf("Expected location to survive errors.As, got %+v", dfe)
	}
}

func TestSolveErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		cause      error
		outOfRange bool
	}{
		{"infeasible", ErrInfeasible, false},
		{"unbounded", ErrUnbounded, false},
		{"out of range", ErrOutOfRange, true},
		{"cancelled", context.Canceled, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := NewSolveError(1, "B", test.cause)
			if !IsSolveError(err) {
				t.Errorf("Expected %v to be a solve error", err)
			}
			if IsOutOfRange(err) != test.outOfRange {
				t.Errorf("IsOutOfRange = %v, want %v", IsOutOfRange(err), test.outOfRange)
			}
			if !errors.Is(err, test.cause) {
				t.Errorf("Expected cause %v to be reachable", test.cause)
			}
			if IsInputError(err) {
				t.Error("Solve errors must not be reported as input errors")
			}
		})
	}
}

func TestSelectionErrors(t *testing.T) {
	for _, err := range []error{
		ErrEmptySelection,
		ErrOverlappingSelection,
		NewSelectionError("column %d out of range", 9),
	} {
		if !IsSelectionError(err) {
			t.Errorf("Expected %v to be a selection error", err)
		}
	}
}
