package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func TestParseTimeWindow(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeWindow
		wantErr bool
	}{
		{in: "day", want: WindowDay},
		{in: "Week", want: WindowWeek},
		{in: "month", want: WindowMonth},
		{in: "6m", want: WindowSixMonths},
		{in: "sixMonths", want: WindowSixMonths},
		{in: "1y", want: WindowYear},
		{in: " year ", want: WindowYear},
		{in: "decade", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeWindow(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownWindow)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, w := range AllWindows() {
		parsed, err := ParseTimeWindow(w.String())
		require.NoError(t, err)
		assert.Equal(t, w, parsed)
	}
}

func TestInWindow(t *testing.T) {
	tests := []struct {
		name   string
		ts     time.Time
		ref    time.Time
		window TimeWindow
		want   bool
	}{
		{"day same", date(2025, 1, 3, 0, 5), date(2025, 1, 3, 23, 0), WindowDay, true},
		{"day next", date(2025, 1, 4, 0, 0), date(2025, 1, 3, 23, 0), WindowDay, false},

		{"week mid", date(2025, 1, 1, 9, 0), date(2025, 1, 3, 18, 0), WindowWeek, true},
		{"week monday across new year", date(2024, 12, 30, 7, 0), date(2025, 1, 3, 18, 0), WindowWeek, true},
		{"week previous sunday", date(2024, 12, 29, 23, 59), date(2025, 1, 3, 18, 0), WindowWeek, false},
		{"week next monday", date(2025, 1, 6, 0, 0), date(2025, 1, 3, 18, 0), WindowWeek, false},

		{"month first day", date(2025, 3, 1, 0, 0), date(2025, 3, 15, 12, 0), WindowMonth, true},
		{"month previous", date(2025, 2, 28, 23, 0), date(2025, 3, 15, 12, 0), WindowMonth, false},
		{"month previous year", date(2024, 3, 15, 12, 0), date(2025, 3, 15, 12, 0), WindowMonth, false},
		{"month later in same month", date(2025, 3, 30, 12, 0), date(2025, 3, 15, 12, 0), WindowMonth, true},

		{"6m lower bound clamps to feb 28", date(2025, 2, 28, 12, 0), date(2025, 8, 31, 12, 0), WindowSixMonths, true},
		{"6m just before lower bound", date(2025, 2, 28, 11, 59), date(2025, 8, 31, 12, 0), WindowSixMonths, false},
		{"6m reference itself", date(2025, 8, 31, 12, 0), date(2025, 8, 31, 12, 0), WindowSixMonths, true},
		{"6m after reference", date(2025, 8, 31, 12, 1), date(2025, 8, 31, 12, 0), WindowSixMonths, false},

		{"1y leap day lower bound", date(2023, 2, 28, 10, 0), date(2024, 2, 29, 10, 0), WindowYear, true},
		{"1y before lower bound", date(2023, 2, 28, 9, 0), date(2024, 2, 29, 10, 0), WindowYear, false},
		{"1y inside", date(2023, 11, 2, 10, 0), date(2024, 2, 29, 10, 0), WindowYear, true},

		{"unknown window", date(2025, 1, 3, 0, 0), date(2025, 1, 3, 0, 0), TimeWindow(42), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InWindow(tt.ts, tt.ref, tt.window))
		})
	}
}

func TestInWindow_UsesReferenceLocation(t *testing.T) {
	plusTwo := time.FixedZone("UTC+2", 2*60*60)
	// Sunday night in UTC, already Monday in UTC+2.
	ts := date(2025, 1, 5, 23, 30)

	assert.True(t, InWindow(ts, time.Date(2025, 1, 6, 10, 0, 0, 0, plusTwo), WindowWeek))
	assert.False(t, InWindow(ts, date(2025, 1, 6, 8, 0), WindowWeek))
}

func TestAxisTicks_Week(t *testing.T) {
	ticks := AxisTicks(date(2025, 1, 3, 18, 0), WindowWeek)

	require.Len(t, ticks, 8)
	assert.Equal(t, time.Monday, ticks[0].Weekday())
	assert.Equal(t, date(2024, 12, 30, 0, 0), ticks[0])
	assert.Equal(t, date(2025, 1, 6, 0, 0), ticks[7])
	for i := 1; i < len(ticks); i++ {
		assert.Equal(t, ticks[i-1].AddDate(0, 0, 1), ticks[i])
	}

	// A Sunday belongs to the week that started six days earlier.
	sunday := AxisTicks(date(2025, 1, 5, 12, 0), WindowWeek)
	assert.Equal(t, date(2024, 12, 30, 0, 0), sunday[0])
}

func TestAxisTicks_Month(t *testing.T) {
	march := AxisTicks(date(2025, 3, 15, 12, 0), WindowMonth)
	assert.Equal(t, []time.Time{
		date(2025, 3, 3, 0, 0),
		date(2025, 3, 10, 0, 0),
		date(2025, 3, 17, 0, 0),
		date(2025, 3, 24, 0, 0),
		date(2025, 3, 31, 0, 0),
	}, march)

	// September 2025 starts on a Monday.
	september := AxisTicks(date(2025, 9, 20, 12, 0), WindowMonth)
	require.Len(t, september, 5)
	assert.Equal(t, date(2025, 9, 1, 0, 0), september[0])
	for _, tick := range september {
		assert.Equal(t, time.Monday, tick.Weekday())
		assert.Equal(t, time.September, tick.Month())
	}
}

func TestAxisTicks_MonthStarts(t *testing.T) {
	ref := date(2025, 3, 15, 12, 0)

	sixMonths := AxisTicks(ref, WindowSixMonths)
	assert.Equal(t, []time.Time{
		date(2024, 10, 1, 0, 0),
		date(2024, 11, 1, 0, 0),
		date(2024, 12, 1, 0, 0),
		date(2025, 1, 1, 0, 0),
		date(2025, 2, 1, 0, 0),
		date(2025, 3, 1, 0, 0),
	}, sixMonths)

	year := AxisTicks(ref, WindowYear)
	require.Len(t, year, 12)
	assert.Equal(t, date(2024, 4, 1, 0, 0), year[0])
	assert.Equal(t, date(2025, 3, 1, 0, 0), year[11])
	for i := 1; i < len(year); i++ {
		assert.True(t, year[i-1].Before(year[i]))
	}
}

func TestAxisTicks_Day(t *testing.T) {
	ticks := AxisTicks(date(2025, 1, 3, 18, 0), WindowDay)

	require.Len(t, ticks, 7)
	assert.Equal(t, date(2025, 1, 3, 0, 0), ticks[0])
	assert.Equal(t, date(2025, 1, 3, 12, 0), ticks[3])
	assert.Equal(t, date(2025, 1, 4, 0, 0), ticks[6])
}

func TestAxisTicks_UnknownWindow(t *testing.T) {
	assert.Empty(t, AxisTicks(date(2025, 1, 3, 0, 0), TimeWindow(-1)))
}

func TestAddMonths(t *testing.T) {
	assert.Equal(t, date(2025, 2, 28, 8, 0), addMonths(date(2025, 8, 31, 8, 0), -6))
	assert.Equal(t, date(2024, 2, 29, 8, 0), addMonths(date(2024, 8, 31, 8, 0), -6))
	assert.Equal(t, date(2023, 2, 28, 8, 0), addMonths(date(2024, 2, 29, 8, 0), -12))
	assert.Equal(t, date(2024, 12, 15, 8, 0), addMonths(date(2025, 1, 15, 8, 0), -1))
}
