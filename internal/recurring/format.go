package recurring

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tally-dev/tally/internal/model"
)

// Describe renders a pattern for display, e.g. "Monthly" or "Every 10 days".
func Describe(p *model.RecurrencePattern) string {
	if p == nil {
		return ""
	}
	switch p.Frequency {
	case model.FrequencyMonthly:
		if p.DayOfMonth != nil {
			return fmt.Sprintf("Monthly on day %d", *p.DayOfMonth)
		}
		return "Monthly"
	case model.FrequencyBiweekly:
		return "Every 2 weeks"
	case model.FrequencyWeekly:
		if p.DayOfWeek != nil && *p.DayOfWeek >= 0 && *p.DayOfWeek <= 6 {
			return "Weekly on " + time.Weekday(*p.DayOfWeek).String()
		}
		return "Weekly"
	case model.FrequencyCustom:
		if len(p.CustomDates) > 0 {
			days := make([]string, len(p.CustomDates))
			for i, d := range p.CustomDates {
				days[i] = strconv.Itoa(d)
			}
			return "Monthly on days " + strings.Join(days, ", ")
		}
		n := DefaultCustomInterval
		if p.Interval != nil {
			n = *p.Interval
		}
		if n == 1 {
			return "Every day"
		}
		return fmt.Sprintf("Every %d days", n)
	default:
		return "Unknown"
	}
}
