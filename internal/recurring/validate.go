package recurring

import (
	"strings"

	"cloud.google.com/go/civil"

	"github.com/tally-dev/tally/internal/model"
)

// ValidateTemplate checks a template before it is stored and returns every
// violation found. An empty result means the template is valid.
//
// Amount signs are not checked here; Materialize normalizes them.
func ValidateTemplate(t model.RecurrenceTemplate) model.ValidationErrors {
	var errs model.ValidationErrors
	add := func(field, msg string) {
		errs = append(errs, model.ValidationError{Field: field, Message: msg})
	}

	switch {
	case t.Type == "":
		add("type", "Transaction type is required")
	case !t.Type.Valid():
		add("type", "Transaction type must be one of: Income, Expense, Transfer")
	}

	if strings.TrimSpace(t.Company) == "" {
		add("company", "Company is required")
	}

	switch t.AmountType {
	case "":
		add("amountType", "Amount type is required")
	case model.AmountFixed:
		if t.Amount == nil {
			add("amount", "Amount is required for fixed amount type")
		} else if t.Amount.IsZero() {
			add("amount", "Amount must be a non-zero number")
		}
	case model.AmountVariable:
	default:
		add("amountType", "Amount type must be one of: fixed, variable")
	}

	switch {
	case t.StartDate == (civil.Date{}):
		add("startDate", "Start date is required")
	case !t.StartDate.IsValid():
		add("startDate", "Start date is not a valid calendar date")
	case t.EndDate != nil && t.EndDate.Before(t.StartDate):
		add("endDate", "End date must not be before start date")
	}

	validatePattern(t.RecurrencePattern, add)

	return errs
}

func validatePattern(p *model.RecurrencePattern, add func(field, msg string)) {
	if p == nil {
		add("recurrencePattern", "Recurrence pattern is required")
		return
	}

	switch p.Frequency {
	case "":
		add("recurrencePattern.frequency", "Recurrence frequency is required")
	case model.FrequencyMonthly:
		if p.DayOfMonth != nil && (*p.DayOfMonth < 1 || *p.DayOfMonth > 31) {
			add("recurrencePattern.dayOfMonth", "Day of month must be between 1 and 31")
		}
	case model.FrequencyBiweekly:
	case model.FrequencyWeekly:
		if p.DayOfWeek != nil && (*p.DayOfWeek < 0 || *p.DayOfWeek > 6) {
			add("recurrencePattern.dayOfWeek", "Day of week must be between 0 (Sunday) and 6 (Saturday)")
		}
	case model.FrequencyCustom:
		if len(p.CustomDates) > 0 {
			for _, d := range p.CustomDates {
				if d < 1 || d > 31 {
					add("recurrencePattern.customDates", "Custom dates must be days of the month between 1 and 31")
					break
				}
			}
		} else if p.Interval == nil || *p.Interval < 1 {
			add("recurrencePattern.interval", "Interval must be at least 1 day for custom frequency")
		}
	default:
		add("recurrencePattern.frequency", "Frequency must be one of: monthly, biweekly, weekly, custom")
	}
}
