// fixtures.go - Claims table builders shared by package tests
package testutil

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/claims-dashboard/backend/internal/claims"
	"github.com/claims-dashboard/backend/internal/models"
)

// Row is one claims row keyed by column name. Columns not set are empty.
type Row map[string]string

// ClaimsCSV renders rows under the required header plus any extra columns,
// in the order they are given.
func ClaimsCSV(rows ...Row) []byte {
	return CSVWithColumns(models.RequiredColumns, rows...)
}

// CSVWithColumns renders rows under an explicit header.
func CSVWithColumns(columns []string, rows ...Row) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write(columns)
	for _, r := range rows {
		record := make([]string, len(columns))
		for i, col := range columns {
			record[i] = r[col]
		}
		w.Write(record)
	}
	w.Flush()
	return buf.Bytes()
}

// LoadRows builds a dataset through the real loader.
func LoadRows(t testing.TB, rows ...Row) *models.Dataset {
	t.Helper()
	ds, err := claims.Load(bytes.NewReader(ClaimsCSV(rows...)))
	if err != nil {
		t.Fatalf("loading fixture rows: %v", err)
	}
	return ds
}

// Claim returns a row with the fields the aggregations look at.
func Claim(region, specialty, date, status, denied, reason string) Row {
	return Row{
		models.ColICD10Code:         "A00",
		models.ColCPTCode:           "99213",
		models.ColClaimDate:         date,
		models.ColPatientAge:        "40",
		models.ColGender:            "F",
		models.ColRegion:            region,
		models.ColProviderSpecialty: specialty,
		models.ColHospitalType:      "Private",
		models.ColClaimStatus:       status,
		models.ColClaimedAmount:     "1000",
		models.ColApprovedAmount:    "0",
		models.ColDeniedAmount:      denied,
		models.ColDenialReason:      reason,
	}
}

// ScenarioRows are the two documented sample rows.
func ScenarioRows() []Row {
	north := Claim("North", "Cardiology", "2025-01-01", "Approved", "0", "")
	north[models.ColApprovedAmount] = "1000"
	south := Claim("South", "Orthopedics", "2025-02-15", "Denied", "2000", "Missing info")
	south[models.ColClaimedAmount] = "2000"
	return []Row{north, south}
}
