package claims

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/claims-dashboard/backend/internal/models"
)

// SampleFileName is the download name of the sample dataset.
const SampleFileName = "sample_claims.csv"

// SampleDataset returns the fixed two-row example table that documents the
// expected file layout.
func SampleDataset() *models.Dataset {
	amount := func(v int64) decimal.NullDecimal { return decimal.NewNullDecimal(decimal.NewFromInt(v)) }
	return &models.Dataset{
		Columns: RequiredColumns(),
		Claims: []models.Claim{
			{
				ICD10Code:         "A00",
				CPTCode:           "12345",
				ClaimDate:         models.NewClaimDate(2025, time.January, 1),
				PatientAge:        models.NullInt{Int: 34, Valid: true},
				Gender:            "M",
				Region:            "North",
				ProviderSpecialty: "Cardiology",
				HospitalType:      "Private",
				ClaimStatus:       "Approved",
				ClaimedAmount:     amount(1000),
				ApprovedAmount:    amount(1000),
				DeniedAmount:      amount(0),
				DenialReason:      "",
			},
			{
				ICD10Code:         "B00",
				CPTCode:           "67890",
				ClaimDate:         models.NewClaimDate(2025, time.February, 15),
				PatientAge:        models.NullInt{Int: 45, Valid: true},
				Gender:            "F",
				Region:            "South",
				ProviderSpecialty: "Orthopedics",
				HospitalType:      "Public",
				ClaimStatus:       "Denied",
				ClaimedAmount:     amount(2000),
				ApprovedAmount:    amount(0),
				DeniedAmount:      amount(2000),
				DenialReason:      "Missing info",
			},
		},
	}
}
