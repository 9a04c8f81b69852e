package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Table construction errors (fatal for the whole run)
	ErrDataFormat           = errors.New("selected column contains non-numeric or missing values")
	ErrEmptySelection       = errors.New("at least one input and one output column must be selected")
	ErrInvalidSelection     = errors.New("invalid column selection")
	ErrOverlappingSelection = errors.New("column selected as both input and output")
	ErrInsufficientData     = errors.New("insufficient data for analysis")
	ErrUnsupportedFormat    = errors.New("unsupported file format")

	// Per-DMU solve errors
	ErrSolve      = errors.New("DEA model could not be solved")
	ErrInfeasible = fmt.Errorf("%w: infeasible", ErrSolve)
	ErrUnbounded  = fmt.Errorf("%w: unbounded", ErrSolve)
	ErrNumerical  = fmt.Errorf("%w: numerical failure", ErrSolve)
	ErrOutOfRange = fmt.Errorf("%w: efficiency outside (0, 1]", ErrSolve)
)

// DataFormatError reports the first offending cell of a selected column.
type DataFormatError struct {
	Column string
	Row    int // 1-based data row, header excluded
	Value  string
	Reason string
}

func (e *DataFormatError) Error() string {
	return fmt.Sprintf("column %q row %d: %s (value %q)", e.Column, e.Row, e.Reason, e.Value)
}

// Is lets errors.Is(err, ErrDataFormat) match any DataFormatError.
func (e *DataFormatError) Is(target error) bool {
	return target == ErrDataFormat
}

// SolveError marks a single DMU whose LP did not produce a usable score.
type SolveError struct {
	Index int
	DMU   string
	Cause error
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("DMU %q (#%d): %v", e.DMU, e.Index+1, e.Cause)
}

func (e *SolveError) Unwrap() error {
	return e.Cause
}

// Is matches ErrSolve even when Cause is a context error.
func (e *SolveError) Is(target error) bool {
	return target == ErrSolve
}

// Error constructors with context
func NewDataFormatError(column string, row int, value, reason string) error {
	return &DataFormatError{Column: column, Row: row, Value: value, Reason: reason}
}

func NewSolveError(index int, dmu string, cause error) error {
	return &SolveError{Index: index, DMU: dmu, Cause: cause}
}

func NewSelectionError(reason string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidSelection, fmt.Sprintf(reason, args...))
}

// Error checking helpers
func IsSelectionError(err error) bool {
	return errors.Is(err, ErrEmptySelection) ||
		errors.Is(err, ErrInvalidSelection) ||
		errors.Is(err, ErrOverlappingSelection)
}

// IsInputError reports errors caused by the uploaded table or the caller's selection.
func IsInputError(err error) bool {
	return IsSelectionError(err) ||
		errors.Is(err, ErrDataFormat) ||
		errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrUnsupportedFormat)
}

func IsSolveError(err error) bool {
	return errors.Is(err, ErrSolve)
}

// IsOutOfRange separates integrity anomalies from plain solver failures.
func IsOutOfRange(err error) bool {
	return errors.Is(err, ErrOutOfRange)
}
