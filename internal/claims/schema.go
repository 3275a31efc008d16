// Package claims loads uploaded claims files: it reads the CSV table, checks
// the required columns and coerces the typed columns.
package claims

import (
	"fmt"
	"strings"

	"github.com/claims-dashboard/backend/internal/models"
)

// SchemaError reports required columns absent from an uploaded table.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("the uploaded file is missing these columns: %s", strings.Join(e.Missing, ", "))
}

// RawTable is a parsed CSV before typing: a header and its text rows.
type RawTable struct {
	Header []string
	Rows   [][]string
}

// Index returns the position of column name in the header, or -1.
func (t *RawTable) Index(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// RequiredColumns returns a copy of the required column list.
func RequiredColumns() []string {
	return append([]string(nil), models.RequiredColumns...)
}

// MissingColumns returns the required columns absent from header, in
// required-column order.
func MissingColumns(header []string) []string {
	present := make(map[string]struct{}, len(header))
	for _, h := range header {
		present[h] = struct{}{}
	}
	var missing []string
	for _, col := range models.RequiredColumns {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

// Validate fails with *SchemaError when t lacks any required column.
func Validate(t *RawTable) error {
	if missing := MissingColumns(t.Header); len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}
