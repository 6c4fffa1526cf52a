package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2024-01-05", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), false},
		{" 2024-01-05 ", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), false},
		{"2024-01-05T18:30:00Z", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), false},
		{"05/01/2024", time.Time{}, true},
		{"", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestDay(t *testing.T) {
	in := time.Date(2024, 3, 9, 23, 59, 59, 5, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), Day(in))
}

func TestFormatOptionalDate(t *testing.T) {
	assert.Equal(t, "", FormatOptionalDate(nil))
	d := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-09", FormatOptionalDate(&d))
}

func TestTaskSnapshotPointsOrZero(t *testing.T) {
	assert.Equal(t, 0.0, TaskSnapshot{}.PointsOrZero())
	assert.Equal(t, 3.0, TaskSnapshot{Points: Ptr(3.0)}.PointsOrZero())
}

func TestMaintenanceFractionShares(t *testing.T) {
	m := MaintenanceFraction{MaintPoints: 2, TotalPoints: 8, MaintCount: 1, TotalCount: 4}
	assert.InDelta(t, 0.25, m.PointsFraction(), 1e-9)
	assert.InDelta(t, 0.25, m.CountFraction(), 1e-9)
	assert.Equal(t, 0.0, MaintenanceFraction{}.PointsFraction())
	assert.Equal(t, 0.0, MaintenanceFraction{}.CountFraction())
}

func TestCategoryRuleDisplayed(t *testing.T) {
	assert.True(t, CategoryRule{}.Displayed())
	assert.False(t, CategoryRule{Display: Ptr(false)}.Displayed())
}
