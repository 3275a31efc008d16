package claims

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/claims-dashboard/backend/internal/models"
)

// Load reads, validates and types a claims CSV. It fails with *SchemaError
// when required columns are missing and with ErrMalformedCSV when the input
// is not a readable table; no rows are returned in either case.
func Load(r io.Reader) (*models.Dataset, error) {
	table, err := ReadTable(r)
	if err != nil {
		return nil, err
	}
	if err := Validate(table); err != nil {
		return nil, err
	}
	return Build(table), nil
}

// Build types a validated table. Dates go through ParseClaimDate. Numbers
// that do not parse become null and keep their text in Claim.Unparsed.
func Build(t *RawTable) *models.Dataset {
	idx := make(map[string]int, len(t.Header))
	var extra []int
	required := make(map[string]struct{}, len(models.RequiredColumns))
	for _, col := range models.RequiredColumns {
		required[col] = struct{}{}
	}
	for i, h := range t.Header {
		if _, dup := idx[h]; dup {
			continue
		}
		idx[h] = i
		if _, ok := required[h]; !ok {
			extra = append(extra, i)
		}
	}

	ds := &models.Dataset{
		Columns: uniqueColumns(t.Header),
		Claims:  make([]models.Claim, 0, len(t.Rows)),
	}
	for _, row := range t.Rows {
		get := func(col string) string { return row[idx[col]] }
		c := models.Claim{
			ICD10Code:         get(models.ColICD10Code),
			CPTCode:           get(models.ColCPTCode),
			ClaimDate:         ParseClaimDate(get(models.ColClaimDate)),
			PatientAge:        parseInt(get(models.ColPatientAge)),
			Gender:            get(models.ColGender),
			Region:            get(models.ColRegion),
			ProviderSpecialty: get(models.ColProviderSpecialty),
			HospitalType:      get(models.ColHospitalType),
			ClaimStatus:       get(models.ColClaimStatus),
			ClaimedAmount:     parseAmount(get(models.ColClaimedAmount)),
			ApprovedAmount:    parseAmount(get(models.ColApprovedAmount)),
			DeniedAmount:      parseAmount(get(models.ColDeniedAmount)),
			DenialReason:      get(models.ColDenialReason),
		}
		c.Unparsed = unparsedNumbers(&c, get)
		if len(extra) > 0 {
			c.Extra = make(map[string]string, len(extra))
			for _, i := range extra {
				c.Extra[t.Header[i]] = row[i]
			}
		}
		ds.Claims = append(ds.Claims, c)
	}
	return ds
}

// Normalize re-applies date coercion to a typed dataset and returns a new
// dataset. Normalizing a loaded dataset yields an identical one.
func Normalize(ds *models.Dataset) *models.Dataset {
	out := &models.Dataset{
		Columns: append([]string(nil), ds.Columns...),
		Claims:  make([]models.Claim, len(ds.Claims)),
	}
	for i, c := range ds.Claims {
		c.ClaimDate = ParseClaimDate(c.ClaimDate.String())
		out.Claims[i] = c
	}
	return out
}

// LoadFile loads a claims CSV from disk.
func LoadFile(path string) (*models.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening claims file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func uniqueColumns(header []string) []string {
	seen := make(map[string]struct{}, len(header))
	cols := make([]string, 0, len(header))
	for _, h := range header {
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		cols = append(cols, h)
	}
	return cols
}

// unparsedNumbers returns the non-blank numeric cells of c that did not
// parse, or nil.
func unparsedNumbers(c *models.Claim, get func(string) string) map[string]string {
	typed := [...]struct {
		column string
		valid  bool
	}{
		{models.ColPatientAge, c.PatientAge.Valid},
		{models.ColClaimedAmount, c.ClaimedAmount.Valid},
		{models.ColApprovedAmount, c.ApprovedAmount.Valid},
		{models.ColDeniedAmount, c.DeniedAmount.Valid},
	}
	var out map[string]string
	for _, f := range typed {
		if f.valid {
			continue
		}
		if raw := get(f.column); strings.TrimSpace(raw) != "" {
			if out == nil {
				out = make(map[string]string, 1)
			}
			out[f.column] = raw
		}
	}
	return out
}

func parseAmount(raw string) decimal.NullDecimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func parseInt(raw string) models.NullInt {
	s := strings.TrimSpace(raw)
	if s == "" {
		return models.NullInt{}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// Whole-valued decimals such as "34.0" are common in spreadsheet exports.
		d, derr := decimal.NewFromString(s)
		if derr != nil || !d.IsInteger() {
			return models.NullInt{}
		}
		n = int(d.IntPart())
	}
	return models.NullInt{Int: n, Valid: true}
}
