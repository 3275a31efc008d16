// Package models contains domain types for the claims denial dashboard.
package models

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Column names of the claims CSV format.
const (
	ColICD10Code         = "ICD10_Code"
	ColCPTCode           = "CPT_Code"
	ColClaimDate         = "claim_date"
	ColPatientAge        = "Patient_Age"
	ColGender            = "Gender"
	ColRegion            = "Region"
	ColProviderSpecialty = "Provider_Specialty"
	ColHospitalType      = "Hospital_Type"
	ColClaimStatus       = "Claim_Status"
	ColClaimedAmount     = "Claimed_Amount"
	ColApprovedAmount    = "Approved_Amount"
	ColDeniedAmount      = "Denied_amount"
	ColDenialReason      = "Denial_reason"
)

// RequiredColumns lists the columns every uploaded file must carry, in
// canonical order.
var RequiredColumns = []string{
	ColICD10Code, ColCPTCode, ColClaimDate, ColPatientAge, ColGender, ColRegion,
	ColProviderSpecialty, ColHospitalType, ColClaimStatus, ColClaimedAmount,
	ColApprovedAmount, ColDeniedAmount, ColDenialReason,
}

// NullInt is an integer that may be absent.
type NullInt struct {
	Int   int
	Valid bool
}

func (n NullInt) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.Itoa(n.Int)
}

// MarshalJSON renders a missing value as null.
func (n NullInt) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(n.Int)), nil
}

// Claim is one row of the claims table.
type Claim struct {
	ICD10Code         string
	CPTCode           string
	ClaimDate         ClaimDate
	PatientAge        NullInt
	Gender            string
	Region            string
	ProviderSpecialty string
	HospitalType      string
	ClaimStatus       string
	ClaimedAmount     decimal.NullDecimal
	ApprovedAmount    decimal.NullDecimal
	DeniedAmount      decimal.NullDecimal
	DenialReason      string

	// Extra holds columns outside the required set, keyed by header name.
	Extra map[string]string
	// Unparsed keeps the original text of numeric cells that did not parse,
	// keyed by column. Those values count as missing in sums.
	Unparsed map[string]string
}

// Denied returns the denied amount, treating a missing value as zero.
func (c *Claim) Denied() decimal.Decimal {
	return amountOrZero(c.DeniedAmount)
}

// Claimed returns the claimed amount, treating a missing value as zero.
func (c *Claim) Claimed() decimal.Decimal {
	return amountOrZero(c.ClaimedAmount)
}

// Approved returns the approved amount, treating a missing value as zero.
func (c *Claim) Approved() decimal.Decimal {
	return amountOrZero(c.ApprovedAmount)
}

func amountOrZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

// Field returns the text form of a column, as written to CSV.
func (c *Claim) Field(column string) string {
	switch column {
	case ColICD10Code:
		return c.ICD10Code
	case ColCPTCode:
		return c.CPTCode
	case ColClaimDate:
		return c.ClaimDate.String()
	case ColPatientAge:
		if !c.PatientAge.Valid {
			return c.Unparsed[column]
		}
		return c.PatientAge.String()
	case ColGender:
		return c.Gender
	case ColRegion:
		return c.Region
	case ColProviderSpecialty:
		return c.ProviderSpecialty
	case ColHospitalType:
		return c.HospitalType
	case ColClaimStatus:
		return c.ClaimStatus
	case ColClaimedAmount:
		return c.amountText(column, c.ClaimedAmount)
	case ColApprovedAmount:
		return c.amountText(column, c.ApprovedAmount)
	case ColDeniedAmount:
		return c.amountText(column, c.DeniedAmount)
	case ColDenialReason:
		return c.DenialReason
	default:
		return c.Extra[column]
	}
}

func (c *Claim) amountText(column string, d decimal.NullDecimal) string {
	if !d.Valid {
		return c.Unparsed[column]
	}
	return d.Decimal.String()
}

// Dataset is an ordered, read-only table of claims.
type Dataset struct {
	// Columns is the header order of the uploaded file.
	Columns []string
	Claims  []Claim
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Claims)
}

// Subset returns a new Dataset holding the rows at the given indexes, in
// the order given.
func (d *Dataset) Subset(indexes []int) *Dataset {
	out := &Dataset{
		Columns: append([]string(nil), d.Columns...),
		Claims:  make([]Claim, 0, len(indexes)),
	}
	for _, i := range indexes {
		out.Claims = append(out.Claims, d.Claims[i])
	}
	return out
}

// Records returns every row as text cells in column order.
func (d *Dataset) Records() [][]string {
	records := make([][]string, 0, d.Len())
	for i := range d.Claims {
		records = append(records, d.Row(i))
	}
	return records
}

// Row returns row i as text cells in column order.
func (d *Dataset) Row(i int) []string {
	row := make([]string, len(d.Columns))
	for j, col := range d.Columns {
		row[j] = d.Claims[i].Field(col)
	}
	return row
}
