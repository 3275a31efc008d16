package exporter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/claims-dashboard/backend/internal/claims"
	"github.com/claims-dashboard/backend/internal/models"
	"github.com/claims-dashboard/backend/internal/testutil"
)

func TestExport_CSVRoundTrip(t *testing.T) {
	rows := testutil.ScenarioRows()
	rows[0][models.ColClaimDate] = "2025-01-01T09:30:00Z"
	rows[1][models.ColDeniedAmount] = "not a number"
	ds := testutil.LoadRows(t, rows...)

	p, err := Export(ds, "Claims")
	require.NoError(t, err)

	back, err := claims.Load(bytes.NewReader(p.CSV))
	require.NoError(t, err)
	assert.Equal(t, ds.Columns, back.Columns)
	assert.Equal(t, ds.Records(), back.Records())
}

func TestWriteCSV_Format(t *testing.T) {
	ds := testutil.LoadRows(t, testutil.ScenarioRows()...)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, ds))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(models.RequiredColumns, ","), lines[0])
	assert.False(t, strings.HasPrefix(buf.String(), "\ufeff"))
	assert.Equal(t, "A00,99213,2025-01-01,40,F,North,Cardiology,Private,Approved,1000,1000,0,", lines[1])
	assert.Contains(t, lines[2], "2025-02-15")
	assert.Contains(t, lines[2], "Missing info")
}

func TestWriteCSV_KeepsExtraColumns(t *testing.T) {
	columns := append([]string{"Claim_ID"}, models.RequiredColumns...)
	row := testutil.Claim("North", "Cardiology", "2025-01-01", "Denied", "5", "X")
	row["Claim_ID"] = "C-1"
	ds, err := claims.Load(bytes.NewReader(testutil.CSVWithColumns(columns, row)))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, ds))

	assert.True(t, strings.HasPrefix(buf.String(), "Claim_ID,ICD10_Code,"))
	assert.Contains(t, buf.String(), "\nC-1,A00,")
}

func TestExport_KeepsUnparsedNumbers(t *testing.T) {
	row := testutil.Claim("North", "Cardiology", "2025-01-01", "Denied", "10", "X")
	row[models.ColPatientAge] = "34.5"
	row[models.ColClaimedAmount] = "1,000"
	row[models.ColApprovedAmount] = "N/A"
	ds := testutil.LoadRows(t, row)

	p, err := Export(ds, "Claims")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(p.CSV), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `A00,99213,2025-01-01,34.5,F,North,Cardiology,Private,Denied,"1,000",N/A,10,X`, lines[1])

	back, err := claims.Load(bytes.NewReader(p.CSV))
	require.NoError(t, err)
	assert.Equal(t, ds.Records(), back.Records())

	f, err := excelize.OpenReader(bytes.NewReader(p.XLSX))
	require.NoError(t, err)
	defer f.Close()
	for cell, want := range map[string]string{"D2": "34.5", "J2": "1,000", "K2": "N/A", "L2": "10"} {
		got, err := f.GetCellValue("Claims", cell)
		require.NoError(t, err)
		assert.Equal(t, want, got, cell)
	}
}

func TestWriteXLSX_PreciseAmountsKeptAsText(t *testing.T) {
	row := testutil.Claim("North", "Cardiology", "2025-01-01", "Denied", "12345678901234567.89", "X")
	row[models.ColApprovedAmount] = "0.1"
	ds := testutil.LoadRows(t, row)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, ds, "Claims"))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	denied, err := f.GetCellValue("Claims", "L2")
	require.NoError(t, err)
	assert.Equal(t, "12345678901234567.89", denied)

	approved, err := f.GetCellValue("Claims", "K2")
	require.NoError(t, err)
	assert.Equal(t, "0.1", approved)
}

func TestWriteCSV_EmptyDatasetHasHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, testutil.LoadRows(t)))
	assert.Equal(t, strings.Join(models.RequiredColumns, ",")+"\n", buf.String())
}

func TestWriteXLSX_SheetAndTypedCells(t *testing.T) {
	rows := testutil.ScenarioRows()
	rows[0][models.ColDeniedAmount] = ""
	ds := testutil.LoadRows(t, rows...)

	p, err := Export(ds, "Filtered Claims")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(p.XLSX))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Filtered Claims"}, f.GetSheetList())

	got, err := f.GetRows("Filtered Claims")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, models.RequiredColumns, got[0])
	assert.Equal(t, "North", got[1][5])
	assert.Equal(t, "2025-02-15", got[2][2])

	value, err := f.GetCellValue("Filtered Claims", "J3")
	require.NoError(t, err)
	assert.Equal(t, "2000", value)

	empty, err := f.GetCellValue("Filtered Claims", "L2")
	require.NoError(t, err)
	assert.Equal(t, "", empty)
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Claims", "Claims"},
		{"", DefaultSheetName},
		{"a/b:c", "a b c"},
		{strings.Repeat("x", 40), strings.Repeat("x", 31)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SheetName(tt.in), "input %q", tt.in)
	}
}

func TestFileNames(t *testing.T) {
	tests := []struct {
		base, csv, xlsx string
	}{
		{"filtered_claims", "filtered_claims.csv", "filtered_claims.xlsx"},
		{"denials.csv", "denials.csv", "denials.xlsx"},
		{"report.CSV", "report.csv", "report.xlsx"},
		{"  ", "filtered_claims.csv", "filtered_claims.xlsx"},
	}
	for _, tt := range tests {
		csvName, xlsxName := FileNames(tt.base)
		assert.Equal(t, tt.csv, csvName)
		assert.Equal(t, tt.xlsx, xlsxName)
	}
}
