package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"godea/domain/core"
	"godea/domain/dataset"
	"godea/internal"
)

// File types understood by the reader
const (
	FileTypeXLSX = "xlsx"
	FileTypeCSV  = "csv"
)

// DetectFileType maps a file name to "xlsx" or "csv" by extension
func DetectFileType(name string) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FileTypeXLSX, nil
	case ".csv":
		return FileTypeCSV, nil
	default:
		return "", fmt.Errorf("%w: %q (expected .xlsx or .csv)", core.ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// DataReader handles reading Excel and CSV files into a RawTable
type DataReader struct {
	filePath string
	logger   *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string, logger *internal.Logger) *DataReader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DataReader{filePath: filePath, logger: logger.Named("DataReader")}
}

// ReadData reads the file at the reader's path
func (r *DataReader) ReadData() (*dataset.RawTable, error) {
	return r.ReadFile(r.filePath)
}

// ReadFile reads an xlsx or csv file from disk
func (r *DataReader) ReadFile(path string) (*dataset.RawTable, error) {
	fileType, err := DetectFileType(path)
	if err != nil {
		return nil, err
	}
	r.logger.Info("Starting to read %s file: %s", fileType, path)

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(fileType), path)
		}
		return nil, fmt.Errorf("failed to open %s file: %w", strings.ToUpper(fileType), err)
	}
	defer file.Close()

	return r.read(file, filepath.Base(path), fileType)
}

// ReadFrom reads an uploaded stream; name only selects the format and labels the table
func (r *DataReader) ReadFrom(src io.Reader, name string) (*dataset.RawTable, error) {
	fileType, err := DetectFileType(name)
	if err != nil {
		return nil, err
	}
	return r.read(src, name, fileType)
}

func (r *DataReader) read(src io.Reader, name, fileType string) (*dataset.RawTable, error) {
	var (
		rows [][]string
		err  error
	)
	switch fileType {
	case FileTypeCSV:
		rows, err = r.readCSVRows(src)
	default:
		rows, err = r.readExcelRows(src)
	}
	if err != nil {
		return nil, err
	}

	table, err := processRows(rows)
	if err != nil {
		return nil, err
	}
	table.Source = name

	r.logger.Info("%s file processed (%d columns, %d rows)",
		strings.ToUpper(fileType), len(table.Headers), table.NumRows())
	return table, nil
}

// readExcelRows reads the first worksheet with unformatted cell values
func (r *DataReader) readExcelRows(src io.Reader) ([][]string, error) {
	startTime := time.Now()
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open Excel file: %v", core.ErrUnsupportedFormat, err)
	}
	defer f.Close()
	r.logger.Debug("Excel file opened in %.2fms", float64(time.Since(startTime).Nanoseconds())/1e6)

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", core.ErrInsufficientData)
	}
	sheet := sheets[0]

	readStart := time.Now()
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	r.logger.Debug("%s read in %.2fms (%d rows)", sheet, float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

// readCSVRows reads CSV data; ragged rows are allowed and checked later per cell
func (r *DataReader) readCSVRows(src io.Reader) ([][]string, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV file: %v", core.ErrUnsupportedFormat, err)
	}
	r.logger.Debug("CSV file read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

// processRows splits the header row off and drops fully blank trailing rows
func processRows(rows [][]string) (*dataset.RawTable, error) {
	for len(rows) > 0 && blankRow(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: file must have at least a header row and one data row", core.ErrInsufficientData)
	}

	headerRow := rows[0]
	if len(headerRow) < 3 {
		return nil, fmt.Errorf("%w: need a DMU name column plus at least one input and one output column, got %d columns",
			core.ErrInsufficientData, len(headerRow))
	}
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(header)
		if headers[i] == "" {
			headers[i] = columnIndexToLetter(i)
		}
	}

	dataRows := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = strings.TrimSpace(cell)
		}
		dataRows = append(dataRows, cells)
	}

	return &dataset.RawTable{Headers: headers, Rows: dataRows}, nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// columnIndexToLetter converts 0-based column index to Excel column letter (A, B, ..., Z, AA, AB, ...)
func columnIndexToLetter(colIdx int) string {
	result := ""
	colIdx++ // Excel is 1-indexed internally
	for colIdx > 0 {
		colIdx--
		result = string(rune('A'+(colIdx%26))) + result
		colIdx /= 26
	}
	return result
}
