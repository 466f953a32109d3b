package analytics

import (
	"math"
	"time"

	"github.com/salesops/crm-dashboard/internal/domain"
)

const day = 24 * time.Hour

// allTimeStart is the lower bound of the "all" period.
var allTimeStart = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// DaysBetween returns floor((b - a) / 1 day). The result is nil when either bound is nil.
func DaysBetween(a, b *time.Time) *int {
	if a == nil || b == nil {
		return nil
	}
	d := int(math.Floor(b.Sub(*a).Hours() / 24))
	return &d
}

// DaysAgo returns the whole days elapsed between t and now, or UnknownDays when t is nil.
func DaysAgo(t *time.Time, now time.Time) int {
	d := DaysBetween(t, &now)
	if d == nil {
		return UnknownDays
	}
	return *d
}

// fractionalDaysAgo is DaysAgo without flooring.
func fractionalDaysAgo(t *time.Time, now time.Time) float64 {
	if t == nil {
		return UnknownDays
	}
	return now.Sub(*t).Hours() / 24
}

// StartOfDay returns local midnight of t.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns the last instant of t's local day.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	return StartOfDay(t, loc).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// SameDay reports whether t falls on the local calendar day of ref.
func SameDay(t *time.Time, ref time.Time, loc *time.Location) bool {
	if t == nil {
		return false
	}
	a, b := t.In(loc), ref.In(loc)
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// ResolvePeriod turns a preset into a closed interval relative to now.
// Weeks start on Monday. Custom periods use start and end as calendar days;
// a missing custom bound falls back to the all-time start or today.
func ResolvePeriod(preset domain.PeriodPreset, now time.Time, loc *time.Location, start, end *time.Time) domain.Period {
	if loc == nil {
		loc = time.UTC
	}
	today := StartOfDay(now, loc)
	p := domain.Period{Preset: preset, Start: today, End: EndOfDay(now, loc)}

	switch preset {
	case domain.PeriodToday:
	case domain.PeriodYesterday:
		p.Start = today.AddDate(0, 0, -1)
		p.End = today.Add(-time.Nanosecond)
	case domain.PeriodThisWeek:
		p.Start = mondayOf(today)
	case domain.PeriodLastWeek:
		p.Start = mondayOf(today).AddDate(0, 0, -7)
		p.End = mondayOf(today).Add(-time.Nanosecond)
	case domain.PeriodThisMonth:
		p.Start = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, loc)
	case domain.PeriodLastMonth:
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, loc)
		p.Start = first.AddDate(0, -1, 0)
		p.End = first.Add(-time.Nanosecond)
	case domain.PeriodQuarter:
		q := (int(today.Month()) - 1) / 3
		p.Start = time.Date(today.Year(), time.Month(q*3+1), 1, 0, 0, 0, 0, loc)
	case domain.PeriodThisYear:
		p.Start = time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, loc)
	case domain.PeriodCustom:
		p.Start = allTimeStart
		if start != nil {
			p.Start = StartOfDay(*start, loc)
		}
		if end != nil {
			p.End = EndOfDay(*end, loc)
		}
	default:
		p.Preset = domain.PeriodAll
		p.Start = allTimeStart
	}
	return p
}

func mondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

// monthKey formats the local calendar month of t as YYYY-MM.
func monthKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01")
}
