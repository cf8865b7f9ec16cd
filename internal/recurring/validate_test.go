package recurring

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"

	"github.com/tally-dev/tally/internal/model"
)

func validTemplate() model.RecurrenceTemplate {
	return monthlyTemplate(date(2024, 1, 31))
}

func TestValidateTemplate_Valid(t *testing.T) {
	assert.Empty(t, ValidateTemplate(validTemplate()))

	variable := validTemplate()
	variable.AmountType = model.AmountVariable
	variable.Amount = nil
	variable.EstimatedAmount = dec("80")
	assert.Empty(t, ValidateTemplate(variable))
}

func TestValidateTemplate_AccumulatesAllErrors(t *testing.T) {
	errs := ValidateTemplate(model.RecurrenceTemplate{})
	assert.Equal(t, []string{
		"Transaction type is required",
		"Company is required",
		"Amount type is required",
		"Start date is required",
		"Recurrence pattern is required",
	}, errs.Messages())
}

func TestValidateTemplate_Rules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.RecurrenceTemplate)
		want   string
	}{
		{"bad type", func(t *model.RecurrenceTemplate) { t.Type = "Gift" }, "Transaction type must be one of: Income, Expense, Transfer"},
		{"blank company", func(t *model.RecurrenceTemplate) { t.Company = "   " }, "Company is required"},
		{"bad amount type", func(t *model.RecurrenceTemplate) { t.AmountType = "guess" }, "Amount type must be one of: fixed, variable"},
		{"fixed without amount", func(t *model.RecurrenceTemplate) { t.Amount = nil }, "Amount is required for fixed amount type"},
		{"fixed zero amount", func(t *model.RecurrenceTemplate) { t.Amount = dec("0") }, "Amount must be a non-zero number"},
		{"invalid start", func(t *model.RecurrenceTemplate) { t.StartDate = civil.Date{Year: 2024, Month: 2, Day: 30} }, "Start date is not a valid calendar date"},
		{"end before start", func(t *model.RecurrenceTemplate) { t.EndDate = datePtr(2023, 12, 1) }, "End date must not be before start date"},
		{"missing frequency", func(t *model.RecurrenceTemplate) { t.RecurrencePattern.Frequency = "" }, "Recurrence frequency is required"},
		{"bad frequency", func(t *model.RecurrenceTemplate) { t.RecurrencePattern.Frequency = "yearly" }, "Frequency must be one of: monthly, biweekly, weekly, custom"},
		{"custom without interval", func(t *model.RecurrenceTemplate) {
			t.RecurrencePattern = &model.RecurrencePattern{Frequency: model.FrequencyCustom}
		}, "Interval must be at least 1 day for custom frequency"},
		{"custom zero interval", func(t *model.RecurrenceTemplate) {
			t.RecurrencePattern = &model.RecurrencePattern{Frequency: model.FrequencyCustom, Interval: intPtr(0)}
		}, "Interval must be at least 1 day for custom frequency"},
		{"custom bad dates", func(t *model.RecurrenceTemplate) {
			t.RecurrencePattern = &model.RecurrencePattern{Frequency: model.FrequencyCustom, CustomDates: []int{1, 32}}
		}, "Custom dates must be days of the month between 1 and 31"},
		{"weekly bad day", func(t *model.RecurrenceTemplate) {
			t.RecurrencePattern = &model.RecurrencePattern{Frequency: model.FrequencyWeekly, DayOfWeek: intPtr(7)}
		}, "Day of week must be between 0 (Sunday) and 6 (Saturday)"},
		{"monthly bad day", func(t *model.RecurrenceTemplate) { t.RecurrencePattern.DayOfMonth = intPtr(0) }, "Day of month must be between 1 and 31"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := validTemplate()
			tt.mutate(&tpl)
			errs := ValidateTemplate(tpl)
			assert.Equal(t, []string{tt.want}, errs.Messages())
		})
	}
}

func TestValidateTemplate_IgnoresAmountSign(t *testing.T) {
	tpl := validTemplate()
	tpl.Type = model.TypeIncome
	tpl.Amount = dec("-250")
	assert.Empty(t, ValidateTemplate(tpl))
}

func TestValidateTemplate_CustomDatesNeedNoInterval(t *testing.T) {
	tpl := validTemplate()
	tpl.RecurrencePattern = &model.RecurrencePattern{Frequency: model.FrequencyCustom, CustomDates: []int{1, 15}}
	assert.Empty(t, ValidateTemplate(tpl))
}

func TestValidateException(t *testing.T) {
	occ := date(2024, 2, 29)
	assert.Empty(t, ValidateException(model.TemplateException{OccurrenceDate: occ, Type: model.ExceptionSkip}))
	assert.Empty(t, ValidateException(model.TemplateException{OccurrenceDate: occ, Type: model.ExceptionAmount, ModifiedAmount: dec("12")}))

	errs := ValidateException(model.TemplateException{Type: model.ExceptionDate})
	assert.Equal(t, []string{"Occurrence date is required", "Modified date is required for date exceptions"}, errs.Messages())

	errs = ValidateException(model.TemplateException{OccurrenceDate: occ, Type: "postpone"})
	assert.Equal(t, []string{"Exception type must be one of: amount, date, skip"}, errs.Messages())
}
