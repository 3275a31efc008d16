// Package exporter serializes a claims dataset as CSV and XLSX downloads.
package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/claims-dashboard/backend/internal/models"
)

// DefaultSheetName is used when no sheet name is supplied.
const DefaultSheetName = "Claims"

// maxSheetNameLen is Excel's limit on worksheet names.
const maxSheetNameLen = 31

// Payload holds both encodings of one dataset.
type Payload struct {
	CSV  []byte
	XLSX []byte
}

// Export encodes ds as CSV and as a single-sheet XLSX workbook.
func Export(ds *models.Dataset, sheetName string) (*Payload, error) {
	var csvBuf, xlsxBuf bytes.Buffer
	if err := WriteCSV(&csvBuf, ds); err != nil {
		return nil, err
	}
	if err := WriteXLSX(&xlsxBuf, ds, sheetName); err != nil {
		return nil, err
	}
	return &Payload{CSV: csvBuf.Bytes(), XLSX: xlsxBuf.Bytes()}, nil
}

// WriteCSV writes the header row and one line per record, without a BOM or
// an index column.
func WriteCSV(w io.Writer, ds *models.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := range ds.Claims {
		if err := cw.Write(ds.Row(i)); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteXLSX writes ds to a workbook with one sheet. Amounts and ages are
// stored as numbers; everything else is text.
func WriteXLSX(w io.Writer, ds *models.Dataset, sheetName string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetName(sheetName)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := make([]interface{}, len(ds.Columns))
	for i, col := range ds.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write xlsx header: %w", err)
	}

	for i := range ds.Claims {
		c := &ds.Claims[i]
		row := make([]interface{}, len(ds.Columns))
		for j, col := range ds.Columns {
			row[j] = cellValue(c, col)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write xlsx row %d: %w", i, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// cellValue returns the typed value for one cell; nil leaves it empty.
// Numeric cells that did not parse keep their original text.
func cellValue(c *models.Claim, column string) interface{} {
	switch column {
	case models.ColPatientAge:
		if !c.PatientAge.Valid {
			return textValue(c.Field(column))
		}
		return c.PatientAge.Int
	case models.ColClaimedAmount:
		return amountValue(c, column, c.ClaimedAmount)
	case models.ColApprovedAmount:
		return amountValue(c, column, c.ApprovedAmount)
	case models.ColDeniedAmount:
		return amountValue(c, column, c.DeniedAmount)
	default:
		return c.Field(column)
	}
}

// amountValue writes an amount as a number when a float64 holds it exactly
// and as text otherwise, so the workbook never shows a rounded amount.
func amountValue(c *models.Claim, column string, d decimal.NullDecimal) interface{} {
	if !d.Valid {
		return textValue(c.Field(column))
	}
	f := d.Decimal.InexactFloat64()
	if math.IsInf(f, 0) || !decimal.NewFromFloat(f).Equal(d.Decimal) {
		return d.Decimal.String()
	}
	return f
}

func textValue(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// SheetName makes name usable as a worksheet name: forbidden characters
// become spaces and the result is cut to 31 characters.
func SheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return ' '
		}
		return r
	}, name)
	name = strings.Trim(strings.TrimSpace(name), "'")
	if name == "" {
		return DefaultSheetName
	}
	if r := []rune(name); len(r) > maxSheetNameLen {
		name = string(r[:maxSheetNameLen])
	}
	return name
}

// FileNames derives the download names for both formats from a base name.
// A trailing ".csv" on the base is dropped first.
func FileNames(base string) (csvName, xlsxName string) {
	base = strings.TrimSpace(base)
	if strings.HasSuffix(strings.ToLower(base), ".csv") {
		base = base[:len(base)-len(".csv")]
	}
	if base == "" {
		base = "filtered_claims"
	}
	return base + ".csv", base + ".xlsx"
}
