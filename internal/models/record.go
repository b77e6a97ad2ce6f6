package models

// Field is a single named value of an extra input column.
type Field struct {
	Name  string
	Value string
}

// RowRecord represents one data line of the batch input.
type RowRecord struct {
	RowNumber   int     // RowNumber is unique and stable for the lifetime of the table, starting at 1.
	AddressText string  // AddressText is the value of the addressString column.
	ExtraFields []Field // ExtraFields holds the non-reserved columns in first-seen header order.
	Notes       string  // Notes is seeded from a Notes column and editable afterwards.
}
