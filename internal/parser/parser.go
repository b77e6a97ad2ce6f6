// Package parser turns delimited batch input into row records.
package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/UnknownOlympus/geobatch/internal/models"
)

// MaxRows is the largest number of data rows a single batch may hold.
const MaxRows = 1000

// AddressColumn is the name of the required input column.
const AddressColumn = "addressString"

// NotesColumn is the reserved column whose value seeds the row notes.
const NotesColumn = "Notes"

// Validation errors. Each one aborts the batch before any request is sent.
var (
	ErrEmptyInput             = errors.New("no input given, please provide some data to geocode")
	ErrMissingHeader          = errors.New("you must provide a header row with column names in addition to the actual data to be geocoded")
	ErrTooManyRows            = fmt.Errorf("no more than %d requests are allowed, please reduce the number of requests", MaxRows)
	ErrMissingAddressColumn   = errors.New("no column named 'addressString' could be found")
	ErrDuplicateAddressColumn = errors.New("more than one column is named 'addressString'")
)

var (
	addressColumnRe = regexp.MustCompile(`(?i)^\s*addressString\s*$`)
	blankRe         = regexp.MustCompile(`^\s*$`)
)

// reservedColumns are result columns that are never carried over as extra columns.
var reservedColumns = map[string]struct{}{
	"fullAddress": {},
	"score":       {},
	"precision":   {},
	"faults":      {},
	"X":           {},
	"Y":           {},
	NotesColumn:   {},
}

// candidateDelimiters are tried in order when detecting the header delimiter.
var candidateDelimiters = []rune{',', '\t', ';'}

// Result is the outcome of a successful parse.
type Result struct {
	Delimiter   rune               // Delimiter detected from the header line.
	ExtraFields []string           // ExtraFields are the non-reserved header columns in first-seen order.
	Rows        []models.RowRecord // Rows holds one record per data record, numbered from 1.
}

// Parse validates raw batch input and returns its row records.
func Parse(input string) (*Result, error) {
	if blankRe.MatchString(input) {
		return nil, ErrEmptyInput
	}

	delimiter := detectDelimiter(headerLine(input))

	reader := csv.NewReader(strings.NewReader(input))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := readRecords(reader)
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, ErrMissingHeader
	}
	if len(records)-1 > MaxRows {
		return nil, ErrTooManyRows
	}

	header := records[0]
	addressIdx := -1
	notesIdx := -1
	extraIdx := []int{}
	result := &Result{Delimiter: delimiter}

	for idx, name := range header {
		switch {
		case addressColumnRe.MatchString(name):
			if addressIdx >= 0 {
				return nil, ErrDuplicateAddressColumn
			}
			addressIdx = idx
		case isReserved(name):
			if name == NotesColumn {
				notesIdx = idx
			}
		default:
			extraIdx = append(extraIdx, idx)
			result.ExtraFields = append(result.ExtraFields, name)
		}
	}

	if addressIdx < 0 {
		return nil, ErrMissingAddressColumn
	}

	for _, record := range records[1:] {
		row := models.RowRecord{
			RowNumber:   len(result.Rows) + 1,
			AddressText: cell(record, addressIdx),
			Notes:       cell(record, notesIdx),
		}
		for i, idx := range extraIdx {
			row.ExtraFields = append(row.ExtraFields, models.Field{Name: result.ExtraFields[i], Value: cell(record, idx)})
		}
		result.Rows = append(result.Rows, row)
	}

	return result, nil
}

// readRecords reads the header and data records, skipping blank ones. Reading stops once the
// row ceiling is exceeded.
func readRecords(reader *csv.Reader) ([][]string, error) {
	var records [][]string
	for len(records) <= MaxRows+1 {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record %d: %w", len(records)+1, err)
		}
		if isBlankRecord(record) {
			continue
		}
		records = append(records, record)
	}

	return records, nil
}

// headerLine returns the first non-blank line of the input.
func headerLine(input string) string {
	for line := range strings.Lines(input) {
		if !blankRe.MatchString(line) {
			return line
		}
	}

	return ""
}

func isBlankRecord(record []string) bool {
	for _, field := range record {
		if !blankRe.MatchString(field) {
			return false
		}
	}

	return true
}

// detectDelimiter picks the candidate that splits the header into the most columns.
func detectDelimiter(header string) rune {
	best, bestCount := candidateDelimiters[0], 0
	for _, delim := range candidateDelimiters {
		if count := strings.Count(header, string(delim)); count > bestCount {
			best, bestCount = delim, count
		}
	}

	return best
}

func isReserved(name string) bool {
	_, ok := reservedColumns[name]
	return ok
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}

	return record[idx]
}
