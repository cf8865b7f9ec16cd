package recurring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tally-dev/tally/internal/model"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		pattern *model.RecurrencePattern
		want    string
	}{
		{nil, ""},
		{&model.RecurrencePattern{Frequency: model.FrequencyMonthly}, "Monthly"},
		{&model.RecurrencePattern{Frequency: model.FrequencyMonthly, DayOfMonth: intPtr(15)}, "Monthly on day 15"},
		{&model.RecurrencePattern{Frequency: model.FrequencyBiweekly}, "Every 2 weeks"},
		{&model.RecurrencePattern{Frequency: model.FrequencyWeekly, DayOfWeek: intPtr(1)}, "Weekly on Monday"},
		{&model.RecurrencePattern{Frequency: model.FrequencyCustom, Interval: intPtr(10)}, "Every 10 days"},
		{&model.RecurrencePattern{Frequency: model.FrequencyCustom, Interval: intPtr(1)}, "Every day"},
		{&model.RecurrencePattern{Frequency: model.FrequencyCustom}, "Every 30 days"},
		{&model.RecurrencePattern{Frequency: model.FrequencyCustom, CustomDates: []int{1, 15}}, "Monthly on days 1, 15"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Describe(tt.pattern))
	}
}
