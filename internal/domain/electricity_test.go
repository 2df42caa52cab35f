package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReading(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr error
	}{
		{"1234", "1234", nil},
		{" 1234.5 ", "1234.5", nil},
		{"1234,5", "1234.5", nil},
		{"12 345", "12345", nil},
		{"12\u00a0345", "12345", nil},
		{"0", "0", nil},
		{"", "", ErrReadingNotNumeric},
		{"abc", "", ErrReadingNotNumeric},
		{"12kWh", "", ErrReadingNotNumeric},
		{"-5", "", ErrReadingNegative},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := ParseReading(tc.raw)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, dec(tc.want).Equal(got), "got %s", got)
		})
	}
}

func TestParsePeriod(t *testing.T) {
	got, err := ParsePeriod("2026-03")
	require.NoError(t, err)
	assert.Equal(t, "2026-03", got)

	for _, bad := range []string{"", "2026-13", "03-2026", "2026/03"} {
		_, err := ParsePeriod(bad)
		assert.Error(t, err, "period %q should be rejected", bad)
	}
}

func TestCurrentPeriod(t *testing.T) {
	now := time.Date(2026, time.October, 19, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-10", CurrentPeriod(now))
}

func TestElectricityReading_Consumption(t *testing.T) {
	prev := &ElectricityReading{Value: dec("1000")}
	cur := &ElectricityReading{Value: dec("1120.5")}
	assert.True(t, dec("120.5").Equal(cur.Consumption(prev)))
	assert.True(t, cur.Consumption(nil).IsZero())
}

func TestPreviousReadings(t *testing.T) {
	mayA := &ElectricityReading{ID: "a-05", PlotID: "a", Period: "2024-05", Value: dec("150")}
	marA := &ElectricityReading{ID: "a-03", PlotID: "a", Period: "2024-03", Value: dec("100")}
	aprA := &ElectricityReading{ID: "a-04", PlotID: "a", Period: "2024-04", Value: dec("120")}
	aprB := &ElectricityReading{ID: "b-04", PlotID: "b", Period: "2024-04", Value: dec("7")}

	prev := PreviousReadings([]*ElectricityReading{mayA, aprB, marA, aprA})
	assert.Len(t, prev, 2)
	assert.Same(t, aprA, prev["a-05"])
	assert.Same(t, marA, prev["a-04"])
	assert.NotContains(t, prev, "a-03")
	assert.NotContains(t, prev, "b-04")
	assert.True(t, dec("30").Equal(mayA.Consumption(prev["a-05"])))
}
