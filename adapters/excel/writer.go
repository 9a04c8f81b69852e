package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"godea/domain/dataset"
	"godea/domain/dea"
	"godea/internal/profiling"
)

// Sheet names of the exported report
const (
	EfficiencySheet = "Efficiency"
	SlackSheet      = "Slack"
	SummarySheet    = "Summary"
)

// highlightFont marks slack cells the DMU should act on
var highlightFont = &excelize.Font{Bold: true, Color: "FF0000"}

// Report is everything the workbook export renders
type Report struct {
	Efficiency dea.EfficiencyTable
	Slack      dea.SlackTable
	Summary    *profiling.ScoreSummary
}

// WriteReport renders the efficiency, slack and summary sheets as an xlsx workbook
func WriteReport(w io.Writer, report Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", EfficiencySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	highlightStyle, err := f.NewStyle(&excelize.Style{Font: highlightFont, NumFmt: 2})
	if err != nil {
		return fmt.Errorf("failed to create highlight style: %w", err)
	}

	if err := writeEfficiencySheet(f, report.Efficiency, headerStyle); err != nil {
		return err
	}
	if err := writeSlackSheet(f, report.Slack, headerStyle, highlightStyle); err != nil {
		return err
	}
	if report.Summary != nil {
		if err := writeSummarySheet(f, *report.Summary, headerStyle); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeEfficiencySheet(f *excelize.File, table dea.EfficiencyTable, headerStyle int) error {
	header := []interface{}{"DMU", "Efficiency", "Efficient?", "Benchmarks", "Status"}
	if err := setRow(f, EfficiencySheet, 1, header); err != nil {
		return err
	}
	if err := f.SetCellStyle(EfficiencySheet, "A1", "E1", headerStyle); err != nil {
		return err
	}

	for i, row := range table.Rows {
		values := []interface{}{row.DMU, "", "", row.Benchmarks, string(row.Status)}
		if row.Efficiency != nil {
			values[1] = *row.Efficiency
		}
		if row.Efficient != nil {
			values[2] = "No"
			if *row.Efficient {
				values[2] = "Yes"
			}
		}
		if row.Error != "" {
			values[3] = row.Error
		}
		if err := setRow(f, EfficiencySheet, i+2, values); err != nil {
			return err
		}
	}
	return f.SetColWidth(EfficiencySheet, "D", "D", 48)
}

func writeSlackSheet(f *excelize.File, table dea.SlackTable, headerStyle, highlightStyle int) error {
	if _, err := f.NewSheet(SlackSheet); err != nil {
		return fmt.Errorf("failed to add %s sheet: %w", SlackSheet, err)
	}
	if table.Empty() {
		return f.SetCellValue(SlackSheet, "A1", table.Notice())
	}

	header := make([]interface{}, 0, len(table.Columns)+1)
	header = append(header, "DMU")
	for _, c := range table.Columns {
		header = append(header, c)
	}
	if err := setRow(f, SlackSheet, 1, header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SlackSheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for i, row := range table.Rows {
		values := make([]interface{}, 0, len(row.Cells)+1)
		values = append(values, row.DMU)
		for _, cell := range row.Cells {
			values = append(values, cell.Value)
		}
		if err := setRow(f, SlackSheet, i+2, values); err != nil {
			return err
		}
		for j, cell := range row.Cells {
			if !cell.Highlight {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(j+2, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(SlackSheet, ref, ref, highlightStyle); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, s profiling.ScoreSummary, headerStyle int) error {
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("failed to add %s sheet: %w", SummarySheet, err)
	}
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"DMUs", s.DMUs},
		{"Solved", s.Solved},
		{"Efficient", s.Efficient},
		{"Inefficient", s.Inefficient},
		{"Unsolved", s.Unsolved},
		{"Out of range", s.OutOfRange},
		{"Mean efficiency", s.Distribution.Mean},
		{"Median efficiency", s.Distribution.Median},
		{"Std dev", s.Distribution.StdDev},
		{"Min", s.Distribution.Min},
		{"Max", s.Distribution.Max},
	}
	for i, row := range rows {
		if err := setRow(f, SummarySheet, i+1, row); err != nil {
			return err
		}
	}
	return f.SetCellStyle(SummarySheet, "A1", "B1", headerStyle)
}

// WriteRawTable writes a raw table as csv or xlsx, picked by the name's extension
func WriteRawTable(w io.Writer, name string, table *dataset.RawTable) error {
	fileType, err := DetectFileType(name)
	if err != nil {
		return err
	}
	if fileType == FileTypeCSV {
		return writeCSV(w, table)
	}

	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, len(table.Headers))
	for i, h := range table.Headers {
		header[i] = h
	}
	if err := setRow(f, "Sheet1", 1, header); err != nil {
		return err
	}
	for i, row := range table.Rows {
		values := make([]interface{}, len(row))
		for j, cell := range row {
			// numbers are stored as numeric cells so the workbook behaves like a real export
			if v, err := strconv.ParseFloat(cell, 64); err == nil && j > 0 {
				values[j] = v
			} else {
				values[j] = cell
			}
		}
		if err := setRow(f, "Sheet1", i+2, values); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	ref, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, ref, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func writeCSV(w io.Writer, table *dataset.RawTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Headers); err != nil {
		return err
	}
	// WriteAll flushes and returns cw.Error()
	return cw.WriteAll(table.Rows)
}
