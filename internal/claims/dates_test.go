package claims

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/claims-dashboard/backend/internal/models"
)

func TestParseClaimDate(t *testing.T) {
	tests := []struct {
		raw  string
		want models.ClaimDate
	}{
		{"2025-01-01", models.NewClaimDate(2025, time.January, 1)},
		{" 2025-02-15 ", models.NewClaimDate(2025, time.February, 15)},
		{"2024-02-29", models.NewClaimDate(2024, time.February, 29)},
		{"2025-03-04T10:30:00Z", models.NewClaimDate(2025, time.March, 4)},
		{"2025-03-04T23:30:00-05:00", models.NewClaimDate(2025, time.March, 4)},
		{"2025-03-04T10:30:00", models.NewClaimDate(2025, time.March, 4)},
		{"2025-03-04 10:30:00", models.NewClaimDate(2025, time.March, 4)},
		{"2025-03-04 10:30:00.250", models.NewClaimDate(2025, time.March, 4)},
		{"2025/03/04", models.NewClaimDate(2025, time.March, 4)},
		{"", models.ClaimDate{}},
		{"   ", models.ClaimDate{}},
		{"not a date", models.ClaimDate{}},
		{"2025-02-30", models.ClaimDate{}},
		{"2025-13-01", models.ClaimDate{}},
		{"2025-00-10", models.ClaimDate{}},
		{"01/02/2025", models.ClaimDate{}},
		{"NaT", models.ClaimDate{}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := ParseClaimDate(tt.raw)
			assert.Equal(t, tt.want.Valid, got.Valid)
			if tt.want.Valid {
				assert.True(t, tt.want.Time.Equal(got.Time), "want %s got %s", tt.want, got)
			}
		})
	}
}

func TestMissingDateIsNotZeroDate(t *testing.T) {
	missing := ParseClaimDate("garbage")
	assert.False(t, missing.Valid)
	assert.Equal(t, "", missing.String())
	js, err := missing.MarshalJSON()
	assert.NoError(t, err)
	assert.Equal(t, "null", string(js))
}
