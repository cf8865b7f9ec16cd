package model

import (
	"slices"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// AmountType says whether a template knows its amount up front.
type AmountType string

const (
	AmountFixed    AmountType = "fixed"
	AmountVariable AmountType = "variable"
)

// Frequency is the recurrence discriminator on the wire.
type Frequency string

const (
	FrequencyMonthly  Frequency = "monthly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyCustom   Frequency = "custom"
)

// RecurrencePattern is the stored shape of a template's schedule. Two entry
// points write it: the simple form sets Interval, the detailed form sets
// DayOfMonth, DayOfWeek or CustomDates.
type RecurrencePattern struct {
	Frequency   Frequency `json:"frequency"`
	Interval    *int      `json:"interval,omitempty"`    // days, custom only
	DayOfMonth  *int      `json:"dayOfMonth,omitempty"`  // 1..31, monthly
	DayOfWeek   *int      `json:"dayOfWeek,omitempty"`   // 0=Sunday..6, weekly
	CustomDates []int     `json:"customDates,omitempty"` // days of month, custom
}

// RecurrenceTemplate periodically produces transactions.
type RecurrenceTemplate struct {
	ID                string             `json:"id"`
	Type              TransactionType    `json:"type"`
	Company           string             `json:"company"`
	Tags              []string           `json:"tags"`
	AmountType        AmountType         `json:"amountType"`
	Amount            *decimal.Decimal   `json:"amount"`
	EstimatedAmount   *decimal.Decimal   `json:"estimatedAmount,omitempty"`
	Paid              bool               `json:"paid"`
	StartDate         civil.Date         `json:"startDate"`
	EndDate           *civil.Date        `json:"endDate,omitempty"`
	RecurrencePattern *RecurrencePattern `json:"recurrencePattern"`
	IsActive          bool               `json:"isActive"`
	LastGenerated     *civil.Date        `json:"lastGenerated"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

// Clone returns a deep copy of the template.
func (t RecurrenceTemplate) Clone() RecurrenceTemplate {
	t.Tags = slices.Clone(t.Tags)
	if t.Amount != nil {
		a := *t.Amount
		t.Amount = &a
	}
	if t.EstimatedAmount != nil {
		e := *t.EstimatedAmount
		t.EstimatedAmount = &e
	}
	if t.EndDate != nil {
		d := *t.EndDate
		t.EndDate = &d
	}
	if t.LastGenerated != nil {
		d := *t.LastGenerated
		t.LastGenerated = &d
	}
	if t.RecurrencePattern != nil {
		p := *t.RecurrencePattern
		p.Interval = cloneInt(p.Interval)
		p.DayOfMonth = cloneInt(p.DayOfMonth)
		p.DayOfWeek = cloneInt(p.DayOfWeek)
		p.CustomDates = slices.Clone(p.CustomDates)
		t.RecurrencePattern = &p
	}
	return t
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ExceptionType selects how a single occurrence deviates from its template.
type ExceptionType string

const (
	ExceptionAmount ExceptionType = "amount"
	ExceptionDate   ExceptionType = "date"
	ExceptionSkip   ExceptionType = "skip"
)

// TemplateException overrides one occurrence of a template. At most one
// exception exists per (TemplateID, OccurrenceDate).
type TemplateException struct {
	ID             string           `json:"id"`
	TemplateID     string           `json:"templateId"`
	OccurrenceDate civil.Date       `json:"occurrenceDate"`
	Type           ExceptionType    `json:"exceptionType"`
	ModifiedAmount *decimal.Decimal `json:"modifiedAmount,omitempty"`
	ModifiedDate   *civil.Date      `json:"modifiedDate,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}
