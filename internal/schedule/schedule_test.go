package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendorconnect/jobs/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func series(freq model.Frequency, interval int, anchor time.Time) model.Series {
	return model.Series{
		Repeating: true,
		Active:    true,
		Frequency: freq,
		Interval:  interval,
		Anchor:    anchor,
	}
}

func TestNextOccurrenceWeeklyScenario(t *testing.T) {
	s := series(model.FrequencyWeekly, 2, date(2024, 1, 1))

	next, outcome := NextOccurrence(s, date(2024, 1, 10))

	require.Equal(t, Due, outcome)
	assert.Equal(t, date(2024, 1, 15), next)
}

func TestNextOccurrenceMonthlyTwiceIsTwoCalendarMonths(t *testing.T) {
	for month := time.January; month <= time.December; month++ {
		for day := 1; day <= 31; day++ {
			anchor := time.Date(2023, month, day, 9, 30, 0, 0, time.UTC)
			if anchor.Month() != month {
				continue
			}
			s := series(model.FrequencyMonthly, 1, anchor)

			first, outcome := NextOccurrence(s, anchor)
			require.Equal(t, Due, outcome, anchor)

			s.LastMaterializedAt = ptr(first)
			second, outcome := NextOccurrence(s, first)
			require.Equal(t, Due, outcome, anchor)

			assert.Equal(t, 1, monthsBetween(anchor, first), anchor)
			assert.Equal(t, 2, monthsBetween(anchor, second), anchor)
			assert.False(t, second.Before(first), anchor)

			wantDay := day
			if last := daysIn(second.Year(), second.Month(), time.UTC); wantDay > last {
				wantDay = last
			}
			assert.Equal(t, wantDay, second.Day(), anchor)
			assert.Equal(t, 9, second.Hour())
		}
	}
}

func TestNextOccurrenceMonthEndClamping(t *testing.T) {
	anchor := date(2024, 1, 31)
	s := series(model.FrequencyMonthly, 1, anchor)

	feb, outcome := NextOccurrence(s, anchor.Add(time.Hour))
	require.Equal(t, Due, outcome)
	assert.Equal(t, date(2024, 2, 29), feb)

	s.LastMaterializedAt = ptr(feb)
	mar, outcome := NextOccurrence(s, feb.Add(time.Hour))
	require.Equal(t, Due, outcome)
	assert.Equal(t, date(2024, 3, 31), mar, "day of month comes back after a short month")
}

func TestNextOccurrenceYearlyLeapDay(t *testing.T) {
	s := series(model.FrequencyYearly, 1, date(2024, 2, 29))

	next, outcome := NextOccurrence(s, date(2024, 3, 1))

	require.Equal(t, Due, outcome)
	assert.Equal(t, date(2025, 2, 28), next)
}

func TestNextOccurrenceDaily(t *testing.T) {
	s := series(model.FrequencyDaily, 3, date(2024, 3, 9))
	s.LastMaterializedAt = ptr(date(2024, 3, 9))

	next, outcome := NextOccurrence(s, date(2024, 3, 10))

	require.Equal(t, Due, outcome)
	assert.Equal(t, date(2024, 3, 12), next)
}

func TestNextOccurrenceNone(t *testing.T) {
	now := date(2024, 5, 10)

	tests := []struct {
		name   string
		series func() model.Series
		want   Outcome
	}{
		{
			name: "not repeating",
			series: func() model.Series {
				s := series(model.FrequencyDaily, 1, date(2024, 5, 1))
				s.Repeating = false
				return s
			},
			want: Inactive,
		},
		{
			name: "switched off",
			series: func() model.Series {
				s := series(model.FrequencyDaily, 1, date(2024, 5, 1))
				s.Active = false
				return s
			},
			want: Inactive,
		},
		{
			name:   "zero interval",
			series: func() model.Series { return series(model.FrequencyDaily, 0, date(2024, 5, 1)) },
			want:   Inactive,
		},
		{
			name:   "unknown frequency",
			series: func() model.Series { return series("hourly", 1, date(2024, 5, 1)) },
			want:   Inactive,
		},
		{
			name:   "future start",
			series: func() model.Series { return series(model.FrequencyDaily, 1, date(2024, 6, 1)) },
			want:   NotStarted,
		},
		{
			name: "computed date in the past",
			series: func() model.Series {
				s := series(model.FrequencyDaily, 1, date(2024, 5, 1))
				s.LastMaterializedAt = ptr(date(2024, 5, 5))
				return s
			},
			want: Missed,
		},
		{
			name: "computed date equal to now",
			series: func() model.Series {
				s := series(model.FrequencyDaily, 1, date(2024, 5, 1))
				s.LastMaterializedAt = ptr(date(2024, 5, 9))
				return s
			},
			want: Missed,
		},
		{
			name: "end date passed",
			series: func() model.Series {
				s := series(model.FrequencyDaily, 1, date(2024, 5, 1))
				s.Until = ptr(date(2024, 5, 9))
				return s
			},
			want: Ended,
		},
		{
			name: "next date beyond end date",
			series: func() model.Series {
				s := series(model.FrequencyWeekly, 1, date(2024, 5, 9))
				s.Until = ptr(date(2024, 5, 12))
				return s
			},
			want: Ended,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, outcome := NextOccurrence(tt.series(), now)
			assert.Equal(t, tt.want, outcome)
			assert.True(t, next.IsZero())
		})
	}
}

func TestNextOccurrenceLandingOnEndDate(t *testing.T) {
	s := series(model.FrequencyDaily, 1, date(2024, 5, 1))
	s.LastMaterializedAt = ptr(date(2024, 5, 10))
	s.Until = ptr(date(2024, 5, 11))

	next, outcome := NextOccurrence(s, date(2024, 5, 10).Add(6*time.Hour))

	require.Equal(t, Due, outcome)
	assert.Equal(t, date(2024, 5, 11), next)
}

func TestNextOccurrenceIgnoresStampBeforeAnchor(t *testing.T) {
	s := series(model.FrequencyWeekly, 1, date(2024, 5, 6))
	s.LastMaterializedAt = ptr(date(2024, 4, 1))

	next, outcome := NextOccurrence(s, date(2024, 5, 7))

	require.Equal(t, Due, outcome)
	assert.Equal(t, date(2024, 5, 13), next)
}

func TestFirstAfterSkipsMissedDates(t *testing.T) {
	s := series(model.FrequencyWeekly, 1, date(2024, 1, 1))
	s.LastMaterializedAt = ptr(date(2024, 1, 8))

	next, outcome := FirstAfter(s, date(2024, 2, 7))

	require.Equal(t, Due, outcome)
	assert.Equal(t, date(2024, 2, 12), next)
}

func TestFirstAfterRespectsEndDate(t *testing.T) {
	s := series(model.FrequencyMonthly, 1, date(2024, 1, 15))
	s.Until = ptr(date(2024, 3, 1))

	_, outcome := FirstAfter(s, date(2024, 2, 20))

	assert.Equal(t, Ended, outcome)
}

func TestFirstAfterRejectsMalformedSeries(t *testing.T) {
	_, outcome := FirstAfter(series(model.FrequencyDaily, 0, date(2024, 1, 1)), date(2024, 2, 1))

	assert.Equal(t, Inactive, outcome)
}

func TestNextOccurrenceAdvancesFromStampAheadOfNow(t *testing.T) {
	now := date(2024, 1, 10)
	s := series(model.FrequencyMonthly, 1, date(2024, 1, 1))

	first, outcome := NextOccurrence(s, now)
	require.Equal(t, Due, outcome)
	assert.Equal(t, date(2024, 2, 1), first)

	s.LastMaterializedAt = ptr(first)
	second, outcome := NextOccurrence(s, now)
	require.Equal(t, Due, outcome)
	assert.Equal(t, date(2024, 3, 1), second)
}
