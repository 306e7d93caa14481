package ledger

import (
	"errors"
	"schoolfees_go/models"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateScheduleWrapsYear(t *testing.T) {
	got, err := GenerateSchedule(9, 5, 9, dec("100"), "2024-2025", TuitionDueDay)
	require.NoError(t, err)
	require.Len(t, got, 9)

	wantMonths := []int{9, 10, 11, 12, 1, 2, 3, 4, 5}
	for i, inst := range got {
		assert.Equal(t, wantMonths[i], inst.Month)
		assert.Equal(t, models.StatusPending, inst.Status)
		assert.True(t, inst.PaidAmount.IsZero())
		assertAmount(t, "100", inst.Amount)
	}
	assert.Equal(t, time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC), got[3].DueDate)
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), got[4].DueDate)
	assert.Equal(t, "Décembre", got[3].MonthName)
	assert.Equal(t, "Janvier", got[4].MonthName)
}

func TestGenerateScheduleWithinOneYear(t *testing.T) {
	got, err := GenerateSchedule(1, 6, 6, dec("50"), "2024-2025", TransportDueDay)
	require.NoError(t, err)
	require.Len(t, got, 6)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), got[0].DueDate)
	assert.Equal(t, time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC), got[5].DueDate)
}

func TestGenerateScheduleRejectsBadInput(t *testing.T) {
	cases := []struct {
		name        string
		start, end  int
		total       int
		year        string
		want        error
	}{
		{"year label", 9, 5, 9, "2024", models.ErrInvalidAcademicYear},
		{"non consecutive years", 9, 5, 9, "2024-2026", models.ErrInvalidAcademicYear},
		{"month range", 0, 5, 9, "2024-2025", models.ErrInvalidConfiguration},
		{"too many months", 9, 5, 13, "2024-2025", models.ErrInvalidConfiguration},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := GenerateSchedule(tc.start, tc.end, tc.total, decimal.Zero, tc.year, TuitionDueDay)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestDueDateClampsToMonthEnd(t *testing.T) {
	assert.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), dueDate(2025, 2, 31))
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), dueDate(2024, 2, 30))
}

func TestSpreadSumsToTotal(t *testing.T) {
	cases := []struct {
		total string
		n     int
		first string
		last  string
	}{
		{"1200", 9, "133.33", "133.36"},
		{"946.67", 8, "118.33", "118.36"},
		{"360", 9, "40", "40"},
		{"0.10", 12, "0", "0.10"},
		{"-20", 3, "0", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.total, func(t *testing.T) {
			parts := spread(dec(tc.total), tc.n)
			require.Len(t, parts, tc.n)
			assertAmount(t, tc.first, parts[0])
			assertAmount(t, tc.last, parts[tc.n-1])
			sum := decimal.Zero
			for _, p := range parts {
				assert.False(t, p.IsNegative())
				sum = sum.Add(p)
			}
			if dec(tc.total).IsPositive() {
				assertAmount(t, tc.total, sum)
			}
		})
	}
}
