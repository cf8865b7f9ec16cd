package ledger

import (
	"fmt"
	"slices"

	"cloud.google.com/go/civil"

	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/recurring"
)

// RepeatFrequency is the step of a date-range repeat.
type RepeatFrequency string

const (
	RepeatDaily     RepeatFrequency = "daily"
	RepeatWeekly    RepeatFrequency = "weekly"
	RepeatBiweekly  RepeatFrequency = "biweekly"
	RepeatMonthly   RepeatFrequency = "monthly"
	RepeatQuarterly RepeatFrequency = "quarterly"
)

// MaxRepeatOccurrences caps the size of a single repeat expansion.
const MaxRepeatOccurrences = 1000

// Valid reports whether f is a known repeat frequency.
func (f RepeatFrequency) Valid() bool {
	switch f {
	case RepeatDaily, RepeatWeekly, RepeatBiweekly, RepeatMonthly, RepeatQuarterly:
		return true
	}
	return false
}

// RepeatDates returns every step from start through until inclusive. Monthly
// and quarterly steps keep start's day of month, clamped in short months.
// At most limit dates are returned; limit <= 0 means no cap.
func RepeatDates(start, until civil.Date, f RepeatFrequency, limit int) []civil.Date {
	var dates []civil.Date
	for i := 0; limit <= 0 || i < limit; i++ {
		var d civil.Date
		switch f {
		case RepeatDaily:
			d = start.AddDays(i)
		case RepeatWeekly:
			d = start.AddDays(7 * i)
		case RepeatBiweekly:
			d = start.AddDays(14 * i)
		case RepeatMonthly:
			d = recurring.AddMonths(start, i)
		case RepeatQuarterly:
			d = recurring.AddMonths(start, 3*i)
		default:
			return nil
		}
		if d.After(until) {
			break
		}
		dates = append(dates, d)
	}
	return dates
}

// Expand turns a repeating draft into one transaction per step, each tagged
// Repeated, normalized and validated on its own. Any failure rejects the
// whole series.
func Expand(d Draft) ([]model.Transaction, model.ValidationErrors) {
	var errs model.ValidationErrors
	if d.RepeatFrequency == "" {
		errs = append(errs, model.ValidationError{Field: "repeatFrequency", Message: "Repeat frequency is required"})
	} else if !d.RepeatFrequency.Valid() {
		errs = append(errs, model.ValidationError{Field: "repeatFrequency", Message: "Repeat frequency must be one of: daily, weekly, biweekly, monthly, quarterly"})
	}
	if d.RepeatUntil == nil || !d.RepeatUntil.IsValid() {
		errs = append(errs, model.ValidationError{Field: "repeatUntil", Message: "Repeat until date is required"})
	} else if d.Date.IsValid() && d.RepeatUntil.Before(d.Date) {
		errs = append(errs, model.ValidationError{Field: "repeatUntil", Message: "Repeat until date must not be before the start date"})
	}
	if !d.Date.IsValid() {
		// Report the date problem through the regular rules.
		d.Repeat = true
		errs = append(errs, Validate(NormalizeAmount(d))...)
	}
	if len(errs) > 0 {
		return nil, errs
	}

	dates := RepeatDates(d.Date, *d.RepeatUntil, d.RepeatFrequency, MaxRepeatOccurrences+1)
	if len(dates) > MaxRepeatOccurrences {
		return nil, model.ValidationErrors{{
			Field:   "repeatUntil",
			Message: fmt.Sprintf("Repeat range produces more than %d transactions", MaxRepeatOccurrences),
		}}
	}

	tags := slices.Clone(d.Tags)
	if !slices.Contains(tags, model.TagRepeated) {
		tags = append(tags, model.TagRepeated)
	}

	out := make([]model.Transaction, 0, len(dates))
	for _, date := range dates {
		item := d
		item.Date = date
		item.Tags = tags
		item.Repeat = true
		item = NormalizeAmount(item)
		if errs := Validate(item); len(errs) > 0 {
			return nil, errs
		}
		out = append(out, item.Transaction())
	}
	return out, nil
}
