package coercer

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"godea/domain/dataset"
)

// NumericCoercer turns spreadsheet cells into float64 with deterministic rules
type NumericCoercer struct {
	config CoercionConfig
}

// CoercionConfig defines the coercion thresholds and rules
type CoercionConfig struct {
	NumericThreshold float64 `json:"numeric_threshold"` // share of non-empty values that must parse
	AllowCurrency    bool    `json:"allow_currency"`    // strip $, €, £, ¥ and ISO codes
	AllowPercent     bool    `json:"allow_percent"`     // strip a trailing %
}

// DefaultCoercionConfig returns sensible defaults
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		NumericThreshold: 1.0, // a DEA column must be fully numeric
		AllowCurrency:    true,
		AllowPercent:     true,
	}
}

// NewNumericCoercer creates a coercer with the given config
func NewNumericCoercer(config CoercionConfig) *NumericCoercer {
	if config.NumericThreshold <= 0 || config.NumericThreshold > 1 {
		config.NumericThreshold = 1.0
	}
	return &NumericCoercer{config: config}
}

var _ dataset.CellParser = (*NumericCoercer)(nil)

var (
	currencySymbols  = []string{"$", "€", "£", "¥", "USD", "EUR", "GBP", "JPY"}
	thousandsComma   = regexp.MustCompile(`^-?\d{1,3}(,\d{3})+(\.\d+)?$`)
	europeanDecimal  = regexp.MustCompile(`^-?\d{1,3}([. ]\d{3})+(,\d+)?$`)
	whitespaceGroups = regexp.MustCompile(`\s+`)
)

// ParseNumeric parses one cell. It accepts plain and scientific notation, currency
// symbols, parentheses for negatives, and US or European thousands separators.
// NaN and ±Inf are rejected.
func (c *NumericCoercer) ParseNumeric(raw string) (float64, bool) {
	cleanVal := strings.TrimSpace(raw)
	if cleanVal == "" {
		return 0, false
	}

	// (123) -> -123
	isNegative := false
	if strings.HasPrefix(cleanVal, "(") && strings.HasSuffix(cleanVal, ")") {
		cleanVal = strings.TrimSuffix(strings.TrimPrefix(cleanVal, "("), ")")
		isNegative = true
	}

	if c.config.AllowCurrency {
		for _, symbol := range currencySymbols {
			cleanVal = strings.ReplaceAll(cleanVal, symbol, "")
		}
	}
	if c.config.AllowPercent {
		cleanVal = strings.TrimSuffix(strings.TrimSpace(cleanVal), "%")
	}
	cleanVal = whitespaceGroups.ReplaceAllString(strings.TrimSpace(cleanVal), " ")

	cleanVal = normalizeSeparators(cleanVal)
	if cleanVal == "" {
		return 0, false
	}

	if isNegative {
		if strings.HasPrefix(cleanVal, "-") {
			return 0, false
		}
		cleanVal = "-" + cleanVal
	}

	val, err := strconv.ParseFloat(cleanVal, 64)
	if err != nil || math.IsInf(val, 0) || math.IsNaN(val) {
		return 0, false
	}
	return val, true
}

// normalizeSeparators rewrites "1,234.5", "1.234,5" and "1 234,5" to "1234.5".
// A lone comma with no thousands grouping is read as a decimal comma.
func normalizeSeparators(s string) string {
	hasComma := strings.Contains(s, ",")
	switch {
	case thousandsComma.MatchString(s):
		return strings.ReplaceAll(s, ",", "")
	case europeanDecimal.MatchString(s) && (hasComma || strings.Contains(s, " ")):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, " ", "")
		return strings.ReplaceAll(s, ",", ".")
	case hasComma && strings.Count(s, ",") == 1 && !strings.Contains(s, "."):
		return strings.ReplaceAll(s, ",", ".")
	default:
		return s
	}
}

// AnalyzeColumn measures how much of a column parses as non-negative numbers
func (c *NumericCoercer) AnalyzeColumn(raw *dataset.RawTable, col int) dataset.ColumnProfile {
	profile := dataset.ColumnProfile{Index: col, TotalCount: raw.NumRows()}
	if col < len(raw.Headers) {
		profile.Column = raw.Headers[col]
	}

	for row := 0; row < raw.NumRows(); row++ {
		cell, ok := raw.Cell(row, col)
		if !ok || cell == "" {
			continue
		}
		profile.ValidCount++
		if v, ok := c.ParseNumeric(cell); ok {
			profile.NumericCount++
			if v < 0 {
				profile.NegativeSeen = true
			}
		}
	}

	if profile.ValidCount > 0 {
		profile.NumericRatio = float64(profile.NumericCount) / float64(profile.ValidCount)
	}
	profile.Selectable = col > 0 &&
		profile.TotalCount > 0 &&
		profile.ValidCount == profile.TotalCount &&
		!profile.NegativeSeen &&
		profile.NumericRatio >= c.config.NumericThreshold
	return profile
}

// AnalyzeTable runs AnalyzeColumn over every candidate column (all but the name column)
func (c *NumericCoercer) AnalyzeTable(raw *dataset.RawTable) []dataset.ColumnProfile {
	if len(raw.Headers) < 2 {
		return nil
	}
	out := make([]dataset.ColumnProfile, 0, len(raw.Headers)-1)
	for col := 1; col < len(raw.Headers); col++ {
		out = append(out, c.AnalyzeColumn(raw, col))
	}
	return out
}
