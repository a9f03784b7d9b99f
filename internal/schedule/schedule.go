// Package schedule computes when a recurring task series next repeats.
//
// Dates are calendar aware: daily and weekly steps add calendar days, monthly
// and yearly steps are counted from the series anchor so the day of month is
// kept where the month allows it and clamped to the month's last day where it
// does not (Jan 31, Feb 29, Mar 31).
package schedule

import (
	"time"

	"github.com/vendorconnect/jobs/internal/model"
)

// Outcome tells the caller what to do with a series.
type Outcome int

const (
	// Due means a date was produced and should be materialized.
	Due Outcome = iota
	// Inactive series are not repeating, switched off or malformed.
	Inactive
	// NotStarted series have a start date in the future.
	NotStarted
	// Missed means the computed date is not in the future. Nothing is backfilled.
	Missed
	// Ended series are past their end date and should be deactivated.
	Ended
)

func (o Outcome) String() string {
	switch o {
	case Due:
		return "due"
	case Inactive:
		return "inactive"
	case NotStarted:
		return "not_started"
	case Missed:
		return "missed"
	case Ended:
		return "ended"
	}
	return "unknown"
}

// maxCatchUpSteps bounds FirstAfter for series that have been idle for a very
// long time.
const maxCatchUpSteps = 100000

// NextOccurrence returns the next date for s as seen at now. The time is only
// meaningful when the outcome is Due.
func NextOccurrence(s model.Series, now time.Time) (time.Time, Outcome) {
	if !s.Repeating || !s.Active || s.Interval < 1 || !s.Frequency.Valid() {
		return time.Time{}, Inactive
	}

	loc := now.Location()
	anchor := s.Anchor.In(loc)
	if anchor.After(now) {
		return time.Time{}, NotStarted
	}
	if endPassed(s, now) {
		return time.Time{}, Ended
	}

	next := step(s.Frequency, s.Interval, anchor, base(s, anchor))
	if pastUntil(s, next) {
		return time.Time{}, Ended
	}
	if !next.After(now) {
		return time.Time{}, Missed
	}
	return next, Due
}

// FirstAfter returns the first on-schedule date strictly after now, skipping
// every date in between. It is how a sweep resumes a Missed series without
// backfilling it. The outcome is Ended when the series stops before such a
// date, Missed when the catch-up bound is hit and Inactive for a malformed
// series.
func FirstAfter(s model.Series, now time.Time) (time.Time, Outcome) {
	if !s.Repeating || s.Interval < 1 || !s.Frequency.Valid() {
		return time.Time{}, Inactive
	}
	loc := now.Location()
	anchor := s.Anchor.In(loc)
	next := base(s, anchor)
	for i := 0; i < maxCatchUpSteps && !next.After(now); i++ {
		next = step(s.Frequency, s.Interval, anchor, next)
		if pastUntil(s, next) {
			return time.Time{}, Ended
		}
	}
	if !next.After(now) {
		return time.Time{}, Missed
	}
	if pastUntil(s, next) {
		return time.Time{}, Ended
	}
	return next, Due
}

func base(s model.Series, anchor time.Time) time.Time {
	if s.LastMaterializedAt != nil && !s.LastMaterializedAt.Before(anchor) {
		return s.LastMaterializedAt.In(anchor.Location())
	}
	return anchor
}

func endPassed(s model.Series, now time.Time) bool {
	if s.Until == nil {
		return false
	}
	return model.DateOf(s.Until.In(now.Location())).Before(model.DateOf(now))
}

func pastUntil(s model.Series, next time.Time) bool {
	if s.Until == nil {
		return false
	}
	return model.DateOf(next).After(model.DateOf(s.Until.In(next.Location())))
}

func step(freq model.Frequency, interval int, anchor, from time.Time) time.Time {
	switch freq {
	case model.FrequencyDaily:
		return from.AddDate(0, 0, interval)
	case model.FrequencyWeekly:
		return from.AddDate(0, 0, 7*interval)
	case model.FrequencyMonthly:
		return addMonths(anchor, monthsBetween(anchor, from)+interval)
	case model.FrequencyYearly:
		return addMonths(anchor, monthsBetween(anchor, from)+12*interval)
	}
	return from
}

func monthsBetween(a, b time.Time) int {
	ay, am, _ := a.Date()
	by, bm, _ := b.Date()
	return (by-ay)*12 + int(bm-am)
}

// addMonths moves t forward by n months, clamping the day to the target
// month's length instead of overflowing into the next month the way
// time.AddDate does.
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	total := int(m) - 1 + n
	year := y + total/12
	month := time.Month(total%12 + 1)
	if last := daysIn(year, month, t.Location()); d > last {
		d = last
	}
	hh, mm, ss := t.Clock()
	return time.Date(year, month, d, hh, mm, ss, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
