package recurring

import (
	"fmt"
	"slices"
	"time"

	"github.com/tally-dev/tally/internal/model"
)

// BiweeklyDays is the stride of a biweekly schedule.
const BiweeklyDays = 14

// DefaultCustomInterval applies to custom schedules stored without an interval.
const DefaultCustomInterval = 30

// Rule is a normalized recurrence schedule. Exactly one of the concrete
// rule types below implements it.
type Rule interface {
	rule()
}

// MonthlyRule recurs once a month on AnchorDay, clamped to the month's last day.
type MonthlyRule struct {
	AnchorDay int
}

// StrideRule recurs every Days days counted from the template start.
type StrideRule struct {
	Days int
}

// WeeklyRule recurs on the same weekday every week.
type WeeklyRule struct {
	Weekday time.Weekday
}

// DaysOfMonthRule recurs on each listed day of every month. Days past the end
// of a short month collapse onto its last day.
type DaysOfMonthRule struct {
	Days []int
}

func (MonthlyRule) rule()     {}
func (StrideRule) rule()      {}
func (WeeklyRule) rule()      {}
func (DaysOfMonthRule) rule() {}

// RuleFor converts a template's stored pattern into a Rule.
func RuleFor(t model.RecurrenceTemplate) (Rule, error) {
	p := t.RecurrencePattern
	if p == nil {
		return nil, fmt.Errorf("template %s has no recurrence pattern", t.ID)
	}

	switch p.Frequency {
	case model.FrequencyMonthly:
		anchor := t.StartDate.Day
		if p.DayOfMonth != nil && *p.DayOfMonth >= 1 && *p.DayOfMonth <= 31 {
			anchor = *p.DayOfMonth
		}
		return MonthlyRule{AnchorDay: anchor}, nil

	case model.FrequencyBiweekly:
		return StrideRule{Days: BiweeklyDays}, nil

	case model.FrequencyWeekly:
		wd := weekday(t.StartDate)
		if p.DayOfWeek != nil && *p.DayOfWeek >= 0 && *p.DayOfWeek <= 6 {
			wd = time.Weekday(*p.DayOfWeek)
		}
		return WeeklyRule{Weekday: wd}, nil

	case model.FrequencyCustom:
		if len(p.CustomDates) > 0 {
			days := make([]int, 0, len(p.CustomDates))
			for _, d := range p.CustomDates {
				if d >= 1 && d <= 31 {
					days = append(days, d)
				}
			}
			slices.Sort(days)
			days = slices.Compact(days)
			if len(days) == 0 {
				return nil, fmt.Errorf("template %s has no usable custom dates", t.ID)
			}
			return DaysOfMonthRule{Days: days}, nil
		}
		interval := DefaultCustomInterval
		if p.Interval != nil {
			interval = *p.Interval
		}
		if interval < 1 {
			return nil, fmt.Errorf("template %s has interval %d", t.ID, interval)
		}
		return StrideRule{Days: interval}, nil

	default:
		return nil, fmt.Errorf("template %s has unknown frequency %q", t.ID, p.Frequency)
	}
}
