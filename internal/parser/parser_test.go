package parser_test

import (
	"strings"
	"testing"

	"github.com/UnknownOlympus/geobatch/internal/models"
	"github.com/UnknownOlympus/geobatch/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("single row", func(t *testing.T) {
		result, err := parser.Parse("addressString\n123 Main St")

		require.NoError(t, err)
		require.Len(t, result.Rows, 1)
		assert.Equal(t, ',', result.Delimiter)
		assert.Empty(t, result.ExtraFields)
		assert.Equal(t, models.RowRecord{RowNumber: 1, AddressText: "123 Main St"}, result.Rows[0])
	})

	t.Run("extra and reserved columns", func(t *testing.T) {
		input := "id,addressString,score,Notes,city\n" +
			"7,\"525 Superior St, Victoria, BC\",99,check me,Victoria\n" +
			"8,1 Main St,,,Nanaimo\n"

		result, err := parser.Parse(input)

		require.NoError(t, err)
		assert.Equal(t, []string{"id", "city"}, result.ExtraFields)
		require.Len(t, result.Rows, 2)

		first := result.Rows[0]
		assert.Equal(t, 1, first.RowNumber)
		assert.Equal(t, "525 Superior St, Victoria, BC", first.AddressText)
		assert.Equal(t, "check me", first.Notes)
		assert.Equal(t, []models.Field{{Name: "id", Value: "7"}, {Name: "city", Value: "Victoria"}}, first.ExtraFields)

		assert.Equal(t, 2, result.Rows[1].RowNumber)
		assert.Empty(t, result.Rows[1].Notes)
	})

	t.Run("address column is matched loosely", func(t *testing.T) {
		result, err := parser.Parse(" AddressString \n1 Main St\n")

		require.NoError(t, err)
		assert.Equal(t, "1 Main St", result.Rows[0].AddressText)
	})

	t.Run("tab delimited", func(t *testing.T) {
		result, err := parser.Parse("addressString\tzone\n1 Main St, Victoria\tA\n")

		require.NoError(t, err)
		assert.Equal(t, '\t', result.Delimiter)
		assert.Equal(t, "1 Main St, Victoria", result.Rows[0].AddressText)
		assert.Equal(t, []string{"zone"}, result.ExtraFields)
	})

	t.Run("semicolon delimited", func(t *testing.T) {
		result, err := parser.Parse("addressString;zone\n1 Main St;A\n2 Main St;B")

		require.NoError(t, err)
		assert.Equal(t, ';', result.Delimiter)
		assert.Len(t, result.Rows, 2)
	})

	t.Run("row count matches line count", func(t *testing.T) {
		var builder strings.Builder
		builder.WriteString("addressString,id\n")
		for i := range 57 {
			builder.WriteString("1 Main St,")
			builder.WriteString(strings.Repeat("x", i+1))
			builder.WriteString("\n")
		}

		result, err := parser.Parse(builder.String())

		require.NoError(t, err)
		assert.Len(t, result.Rows, 57)
		assert.Equal(t, 57, result.Rows[56].RowNumber)
	})

	t.Run("quoted field keeps embedded blank lines", func(t *testing.T) {
		result, err := parser.Parse("addressString,comment\n\"1 Main St\",\"first\n\nthird\"\n")

		require.NoError(t, err)
		require.Len(t, result.Rows, 1)
		assert.Equal(t, []models.Field{{Name: "comment", Value: "first\n\nthird"}}, result.Rows[0].ExtraFields)
	})

	t.Run("blank lines between records are skipped", func(t *testing.T) {
		result, err := parser.Parse("\naddressString\n\n1 Main St\n   \n2 Oak Ave\n\n")

		require.NoError(t, err)
		require.Len(t, result.Rows, 2)
		assert.Equal(t, "2 Oak Ave", result.Rows[1].AddressText)
		assert.Equal(t, 2, result.Rows[1].RowNumber)
	})

	t.Run("row ceiling counts records not lines", func(t *testing.T) {
		input := "addressString,comment\n" + strings.Repeat("1 Main St,\"line one\nline two\"\n", parser.MaxRows)

		result, err := parser.Parse(input)

		require.NoError(t, err)
		assert.Len(t, result.Rows, parser.MaxRows)
	})

	t.Run("exactly the row ceiling", func(t *testing.T) {
		input := "addressString\n" + strings.Repeat("1 Main St\n", parser.MaxRows)

		result, err := parser.Parse(input)

		require.NoError(t, err)
		assert.Len(t, result.Rows, parser.MaxRows)
	})
}

func TestParse_ValidationErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  error
	}{
		{name: "empty input", input: "", want: parser.ErrEmptyInput},
		{name: "blank input", input: "  \n\t\n", want: parser.ErrEmptyInput},
		{name: "header only", input: "addressString", want: parser.ErrMissingHeader},
		{name: "header with trailing newline", input: "addressString\n", want: parser.ErrMissingHeader},
		{name: "missing address column", input: "address,city\n1 Main St,Victoria", want: parser.ErrMissingAddressColumn},
		{name: "duplicate address column", input: "addressString,addressstring\na,b", want: parser.ErrDuplicateAddressColumn},
		{
			name:  "too many rows",
			input: "addressString\n" + strings.Repeat("1 Main St\n", parser.MaxRows+1),
			want:  parser.ErrTooManyRows,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := parser.Parse(tc.input)

			require.Nil(t, result)
			require.ErrorIs(t, err, tc.want)
		})
	}
}
