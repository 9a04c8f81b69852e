package ports

import (
	"io"

	"godea/domain/dataset"
)

// TablePort reads an uploaded xlsx or csv stream into a raw table.
// name carries the original file name, which selects the format.
type TablePort interface {
	ReadFrom(src io.Reader, name string) (*dataset.RawTable, error)
}

// CoercerPort parses cells and profiles candidate columns
type CoercerPort interface {
	dataset.CellParser
	AnalyzeTable(raw *dataset.RawTable) []dataset.ColumnProfile
}
