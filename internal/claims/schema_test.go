package claims

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claims-dashboard/backend/internal/models"
)

func headerWithout(cols ...string) []string {
	skip := make(map[string]bool)
	for _, c := range cols {
		skip[c] = true
	}
	var header []string
	for _, c := range models.RequiredColumns {
		if !skip[c] {
			header = append(header, c)
		}
	}
	return header
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		header      []string
		wantMissing []string
	}{
		{
			name:   "all required columns",
			header: models.RequiredColumns,
		},
		{
			name:   "extra columns tolerated",
			header: append(RequiredColumns(), "Payer", "Notes"),
		},
		{
			name:   "order independent",
			header: reversed(models.RequiredColumns),
		},
		{
			name:        "missing denial reason and region",
			header:      headerWithout(models.ColDenialReason, models.ColRegion),
			wantMissing: []string{models.ColRegion, models.ColDenialReason},
		},
		{
			name:        "empty header",
			header:      []string{},
			wantMissing: models.RequiredColumns,
		},
		{
			name:        "case sensitive",
			header:      append(headerWithout(models.ColDeniedAmount), "Denied_Amount"),
			wantMissing: []string{models.ColDeniedAmount},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&RawTable{Header: tt.header})
			if tt.wantMissing == nil {
				assert.NoError(t, err)
				return
			}
			var schemaErr *SchemaError
			require.True(t, errors.As(err, &schemaErr), "expected SchemaError, got %v", err)
			assert.Equal(t, tt.wantMissing, schemaErr.Missing)
		})
	}
}

func TestValidate_Idempotent(t *testing.T) {
	table := &RawTable{Header: headerWithout(models.ColGender)}
	first := Validate(table)
	second := Validate(table)
	assert.Equal(t, first, second)
	assert.Equal(t, headerWithout(models.ColGender), table.Header)
}

func TestSchemaError_Message(t *testing.T) {
	err := &SchemaError{Missing: []string{"Region", "Denial_reason"}}
	assert.Equal(t, "the uploaded file is missing these columns: Region, Denial_reason", err.Error())
}

func TestLoad_RejectsWithoutRows(t *testing.T) {
	csv := strings.Join(headerWithout(models.ColRegion), ",") + "\n" + strings.Repeat("x,", 11) + "x\n"
	ds, err := Load(strings.NewReader(csv))
	assert.Nil(t, ds)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{models.ColRegion}, schemaErr.Missing)
}

func reversed(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[len(in)-1-i] = s
	}
	return out
}
