package service

import (
	"fmt"
	"io"

	"github.com/UnknownOlympus/geobatch/internal/table"
)

// ExportFormat selects how the results table is exported.
type ExportFormat string

const (
	ExportCSV     ExportFormat = "csv"
	ExportTSV     ExportFormat = "tsv"
	ExportXLSX    ExportFormat = "xlsx"
	ExportGeoJSON ExportFormat = "geojson"
)

// ContentType returns the media type of the export.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ExportGeoJSON:
		return "application/geo+json"
	case ExportTSV:
		return "text/tab-separated-values; charset=utf-8"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Filename returns the download name of the export.
func (f ExportFormat) Filename() string {
	return "addresses." + string(f)
}

// Export writes the results table in the given format. The delimiter name applies to csv only.
func (b *Batch) Export(w io.Writer, format ExportFormat, delimiter string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch format {
	case ExportCSV, "":
		delim, err := table.ParseDelimiter(delimiter, b.delim)
		if err != nil {
			return err
		}
		return b.table.WriteDelimited(w, delim)
	case ExportTSV:
		return b.table.WriteDelimited(w, '\t')
	case ExportXLSX:
		return b.table.WriteXLSX(w)
	case ExportGeoJSON:
		return b.table.WriteGeoJSON(w)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, format)
	}
}

// ClipboardText returns the comma delimited table as copied to the clipboard.
func (b *Batch) ClipboardText() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.table.String(',')
}
