package table

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/xuri/excelize/v2"
)

// SheetName is the name of the worksheet holding the exported table.
const SheetName = "addresses"

// ErrInvalidDelimiter is returned for delimiters that cannot separate fields.
var ErrInvalidDelimiter = errors.New("invalid export delimiter")

// ParseDelimiter resolves an export delimiter name. "input" selects the delimiter detected in the input,
// an empty name selects a comma.
func ParseDelimiter(name string, input rune) (rune, error) {
	switch name {
	case "", ",", "comma":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";", "semicolon":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	case "input":
		return input, nil
	}

	delim, size := utf8.DecodeRuneInString(name)
	if size != len(name) || delim == '"' || delim == '\r' || delim == '\n' || delim == utf8.RuneError {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDelimiter, name)
	}

	return delim, nil
}

// WriteDelimited writes the table as delimited text.
func (t *Table) WriteDelimited(w io.Writer, delim rune) error {
	writer := csv.NewWriter(w)
	writer.Comma = delim

	if err := writer.WriteAll(t.Grid()); err != nil {
		return fmt.Errorf("failed to write delimited table: %w", err)
	}

	return nil
}

// String renders the table as delimited text, as used for clipboard copies.
func (t *Table) String(delim rune) (string, error) {
	var buf bytes.Buffer
	if err := t.WriteDelimited(&buf, delim); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// WriteXLSX writes the table into a single worksheet.
func (t *Table) WriteXLSX(w io.Writer) error {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name worksheet: %w", err)
	}

	for rowIdx, line := range t.Grid() {
		for colIdx, value := range line {
			cellRef, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return fmt.Errorf("failed to resolve cell reference: %w", err)
			}
			if err = file.SetCellValue(SheetName, cellRef, value); err != nil {
				return fmt.Errorf("failed to set cell %s: %w", cellRef, err)
			}
		}
	}

	if _, err := file.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	return nil
}

// WriteGeoJSON writes every geocoded row as a point feature.
// Rows without a result are left out.
func (t *Table) WriteGeoJSON(w io.Writer) error {
	collection := geojson.FeatureCollection{Features: []*geojson.Feature{}}

	for _, n := range t.order {
		row := t.rows[n]
		if row.Result == nil {
			continue
		}

		properties := map[string]any{
			ColAddressString:  row.AddressString,
			ColFullAddress:    row.Result.FullAddress,
			ColScore:          row.Result.Score,
			"matchPrecision":  row.Result.MatchPrecision,
			"precisionPoints": row.Result.PrecisionPoints,
			ColFaults:         row.Faults,
			ColNotes:          row.Notes,
		}
		if t.layout.AdminAreas {
			properties[ColCHSACode] = row.CHSACode
			properties[ColCHSAName] = row.CHSAName
		}
		for i, name := range t.layout.ExtraFields {
			if i < len(row.Extra) {
				properties[name] = row.Extra[i]
			}
		}

		point := row.Result.Coordinates
		collection.Features = append(collection.Features, &geojson.Feature{
			ID:         strconv.Itoa(row.RowNumber),
			Geometry:   geom.NewPointFlat(geom.XY, []float64{point.X, point.Y}),
			Properties: properties,
		})
	}

	if err := json.NewEncoder(w).Encode(&collection); err != nil {
		return fmt.Errorf("failed to encode feature collection: %w", err)
	}

	return nil
}
