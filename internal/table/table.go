// Package table keeps the editable results table of a batch: one row per input record,
// with placeholder cells while a request is pending and result cells once it settles.
// A Table is not safe for concurrent use; callers serialize access.
package table

import (
	"net/url"
	"strconv"

	"github.com/UnknownOlympus/geobatch/internal/models"
)

// LowScoreCutoff is the score below which a match is flagged.
const LowScoreCutoff = 85

// FailureMessage is written into the full address cell of a row whose request failed for good.
const FailureMessage = "Network or server error; please retry."

// OLSDemoURL is the map viewer a geocoded address is shown in.
const OLSDemoURL = "https://bcgov.github.io/ols-devkit/ols-demo/index.html"

// Column names of the exported table, in order.
const (
	ColAddressString = "addressString"
	ColFullAddress   = "fullAddress"
	ColScore         = "score"
	ColPrecision     = "precision"
	ColFaults        = "faults"
	ColX             = "X"
	ColY             = "Y"
	ColCHSACode      = "chsaCode"
	ColCHSAName      = "chsaName"
	ColNotes         = "Notes"
)

// Layout describes the columns of a table.
type Layout struct {
	ExtraFields []string // ExtraFields are appended after the result columns.
	AdminAreas  bool     // AdminAreas adds the health service area columns.
	MapEnv      string   // MapEnv is passed to the map viewer, empty for production.
}

// Row is the displayed state of one input record.
type Row struct {
	RowNumber     int                  `json:"row"`
	AddressString string               `json:"addressString"`
	FullAddress   string               `json:"fullAddress"`
	Score         string               `json:"score"`
	Precision     string               `json:"precision"`
	Faults        string               `json:"faults"`
	X             string               `json:"x"`
	Y             string               `json:"y"`
	CHSACode      string               `json:"chsaCode,omitempty"`
	CHSAName      string               `json:"chsaName,omitempty"`
	Notes         string               `json:"notes"`
	Extra         []string             `json:"extra,omitempty"`
	Status        models.RequestStatus `json:"status"`
	Loading       bool                 `json:"loading"`
	Failed        bool                 `json:"failed"`
	LowScore      bool                 `json:"lowScore"`
	MapURL        string               `json:"mapUrl,omitempty"`

	Result *models.GeocodeResult `json:"-"` // Result is the last match applied to the row.
}

// Table holds the rows of a batch in display order.
type Table struct {
	layout Layout
	order  []int
	rows   map[int]*Row
}

// New creates an empty table with the given layout.
func New(layout Layout) *Table {
	return &Table{layout: layout, rows: map[int]*Row{}}
}

// Layout returns the column layout of the table.
func (t *Table) Layout() Layout {
	return t.layout
}

// NewRow projects a record into a row whose result cells are still placeholders.
func NewRow(record models.RowRecord) *Row {
	row := &Row{
		RowNumber:     record.RowNumber,
		AddressString: record.AddressText,
		Notes:         record.Notes,
		Status:        models.StatusPending,
		Loading:       true,
	}
	for _, field := range record.ExtraFields {
		row.Extra = append(row.Extra, field.Value)
	}

	return row
}

// Append renders a record at the end of the table and returns its row.
func (t *Table) Append(record models.RowRecord) *Row {
	row := NewRow(record)
	if _, exists := t.rows[row.RowNumber]; !exists {
		t.order = append(t.order, row.RowNumber)
	}
	t.rows[row.RowNumber] = row

	return row
}

// Get returns the row with the given number.
func (t *Table) Get(rowNumber int) (*Row, bool) {
	row, ok := t.rows[rowNumber]
	return row, ok
}

// Delete removes a row. It reports whether the row existed.
func (t *Table) Delete(rowNumber int) bool {
	if _, ok := t.rows[rowNumber]; !ok {
		return false
	}

	delete(t.rows, rowNumber)
	for i, n := range t.order {
		if n == rowNumber {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}

	return true
}

// Len returns the number of rows currently in the table.
func (t *Table) Len() int {
	return len(t.order)
}

// RowNumbers returns the numbers of the current rows in display order.
func (t *Table) RowNumbers() []int {
	return append([]int(nil), t.order...)
}

// Rows returns copies of the current rows in display order.
func (t *Table) Rows() []Row {
	rows := make([]Row, 0, len(t.order))
	for _, n := range t.order {
		row := *t.rows[n]
		row.Extra = append([]string(nil), row.Extra...)
		rows = append(rows, row)
	}

	return rows
}

// MarkPending shows the loading indicator while a request for the row is in flight.
func (r *Row) MarkPending() {
	r.Status = models.StatusPending
	r.Loading = true
	r.FullAddress = ""
	r.CHSACode = ""
	r.CHSAName = ""
}

// ApplyResult writes a successful match into the row cells.
func (r *Row) ApplyResult(result *models.GeocodeResult, mapEnv string) {
	r.Status = models.StatusSuccess
	r.Failed = false
	r.Loading = false
	r.Result = result

	r.FullAddress = result.FullAddress
	r.Score = strconv.Itoa(result.Score)
	r.Precision = result.MatchPrecision + "(" + strconv.Itoa(result.PrecisionPoints) + ")"
	r.Faults = models.FormatFaults(result.Faults)
	r.X = strconv.FormatFloat(result.Coordinates.X, 'f', -1, 64)
	r.Y = strconv.FormatFloat(result.Coordinates.Y, 'f', -1, 64)
	r.LowScore = result.Score < LowScoreCutoff
	r.MapURL = ShowMapURL(mapEnv, result.FullAddress)
}

// ApplyFailure flags the row after its retries are exhausted.
func (r *Row) ApplyFailure() {
	r.Status = models.StatusFailed
	r.Failed = true
	r.Loading = false
	r.Result = nil
	r.FullAddress = FailureMessage
}

// ApplyAdminArea fills the health service area cells.
func (r *Row) ApplyAdminArea(area *models.AdminArea) {
	r.CHSACode = area.Code
	r.CHSAName = area.Name
}

// ShowMapURL links the map viewer to a full address.
func ShowMapURL(mapEnv, fullAddress string) string {
	query := url.Values{}
	if mapEnv != "" {
		query.Set("env", mapEnv)
	}
	query.Set("q", fullAddress)

	return OLSDemoURL + "?" + query.Encode()
}

// Header returns the column names of the exported table.
func (t *Table) Header() []string {
	header := []string{ColAddressString, ColFullAddress, ColScore, ColPrecision, ColFaults, ColX, ColY}
	if t.layout.AdminAreas {
		header = append(header, ColCHSACode, ColCHSAName)
	}
	header = append(header, ColNotes)

	return append(header, t.layout.ExtraFields...)
}

// Grid returns the header followed by one line of cells per row.
func (t *Table) Grid() [][]string {
	grid := [][]string{t.Header()}
	for _, n := range t.order {
		row := t.rows[n]
		line := []string{row.AddressString, row.FullAddress, row.Score, row.Precision, row.Faults, row.X, row.Y}
		if t.layout.AdminAreas {
			line = append(line, row.CHSACode, row.CHSAName)
		}
		line = append(line, row.Notes)
		grid = append(grid, append(line, row.Extra...))
	}

	return grid
}
