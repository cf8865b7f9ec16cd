package recurring

import (
	"time"

	"cloud.google.com/go/civil"

	"github.com/tally-dev/tally/internal/model"
)

// window is an inclusive range of calendar dates.
type window struct {
	from, to civil.Date
}

func (w window) contains(d civil.Date) bool {
	return !d.Before(w.from) && !d.After(w.to)
}

// DueDates returns the template's occurrences that are due as of asOf, in
// ascending order. Every date is on or after StartDate, on or before both
// asOf and EndDate, and strictly after LastGenerated when it is set.
//
// A template whose pattern cannot be turned into a Rule yields nothing; the
// validator rejects such templates before they are stored.
func DueDates(t model.RecurrenceTemplate, asOf civil.Date) []civil.Date {
	r, err := RuleFor(t)
	if err != nil {
		return nil
	}
	w, ok := dueWindow(t, asOf)
	if !ok {
		return nil
	}

	var dates []civil.Date
	walk(r, t.StartDate, t.LastGenerated, w, func(d civil.Date) bool {
		dates = append(dates, d)
		return true
	})
	return dates
}

// NextOccurrence returns the first occurrence strictly after the given date,
// ignoring the template's watermark. It reports false when the template ends
// before another occurrence.
func NextOccurrence(t model.RecurrenceTemplate, after civil.Date) (civil.Date, bool) {
	r, err := RuleFor(t)
	if err != nil || !t.StartDate.IsValid() {
		return civil.Date{}, false
	}

	from := after.AddDays(1)
	if from.Before(t.StartDate) {
		from = t.StartDate
	}
	horizon := 366
	if s, ok := r.(StrideRule); ok && s.Days > horizon {
		horizon = s.Days
	}
	w := window{from: from, to: from.AddDays(horizon)}
	if t.EndDate != nil && t.EndDate.Before(w.to) {
		w.to = *t.EndDate
	}
	if w.from.After(w.to) {
		return civil.Date{}, false
	}

	var next civil.Date
	var found bool
	walk(r, t.StartDate, nil, w, func(d civil.Date) bool {
		next, found = d, true
		return false
	})
	return next, found
}

// dueWindow computes the range processing may emit dates in.
func dueWindow(t model.RecurrenceTemplate, asOf civil.Date) (window, bool) {
	if !t.StartDate.IsValid() || !asOf.IsValid() {
		return window{}, false
	}

	w := window{from: t.StartDate, to: asOf}
	if t.EndDate != nil && t.EndDate.Before(w.to) {
		w.to = *t.EndDate
	}
	if last := t.LastGenerated; last != nil {
		if !last.Before(asOf) {
			return window{}, false
		}
		if !last.Before(w.from) {
			w.from = last.AddDays(1)
		}
	}
	if w.from.After(w.to) {
		return window{}, false
	}
	return w, true
}

// walk yields each occurrence of r inside w in ascending order until yield
// returns false. start anchors stride rules; last, when set, makes monthly
// and stride rules resume one step past the watermark.
func walk(r Rule, start civil.Date, last *civil.Date, w window, yield func(civil.Date) bool) {
	switch r := r.(type) {
	case MonthlyRule:
		year, month := w.from.Year, w.from.Month
		if last != nil && !last.Before(start) {
			// One occurrence per month: the watermark's month is done even
			// when the anchor day has since moved later.
			year, month = nextMonth(last.Year, last.Month)
		}
		for {
			// Clamping uses the anchor every month so a short month never
			// pulls later occurrences earlier.
			d := clampDay(year, month, r.AnchorDay)
			if d.After(w.to) {
				return
			}
			if w.contains(d) && !yield(d) {
				return
			}
			year, month = nextMonth(year, month)
		}

	case StrideRule:
		if r.Days < 1 {
			return
		}
		d := start
		if last != nil && !last.Before(start) {
			d = last.AddDays(r.Days)
		}
		for ; !d.After(w.to); d = d.AddDays(r.Days) {
			if w.contains(d) && !yield(d) {
				return
			}
		}

	case WeeklyRule:
		shift := (int(r.Weekday) - int(weekday(w.from)) + 7) % 7
		for d := w.from.AddDays(shift); !d.After(w.to); d = d.AddDays(7) {
			if !yield(d) {
				return
			}
		}

	case DaysOfMonthRule:
		year, month := w.from.Year, w.from.Month
		for {
			first := civil.Date{Year: year, Month: month, Day: 1}
			if first.After(w.to) {
				return
			}
			var prev civil.Date
			for _, day := range r.Days {
				d := clampDay(year, month, day)
				if d == prev {
					continue
				}
				prev = d
				if d.After(w.to) {
					return
				}
				if w.contains(d) && !yield(d) {
					return
				}
			}
			year, month = nextMonth(year, month)
		}
	}
}

func weekday(d civil.Date) time.Weekday {
	return d.In(time.UTC).Weekday()
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// clampDay returns year-month-day, or the month's last day when day is past it.
func clampDay(year int, month time.Month, day int) civil.Date {
	if n := daysIn(year, month); day > n {
		day = n
	}
	return civil.Date{Year: year, Month: month, Day: day}
}

func nextMonth(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}

// AddMonths moves d forward n months keeping its day of month, clamped to the
// last day of the target month.
func AddMonths(d civil.Date, n int) civil.Date {
	m := int(d.Month) - 1 + n
	return clampDay(d.Year+m/12, time.Month(m%12+1), d.Day)
}
