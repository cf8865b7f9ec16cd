package model

import (
	"encoding/json"
	"errors"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionTypeSigned(t *testing.T) {
	tests := []struct {
		typ    TransactionType
		amount string
		want   string
	}{
		{TypeIncome, "100", "100"},
		{TypeIncome, "-100", "100"},
		{TypeExpense, "100", "-100"},
		{TypeExpense, "-100", "-100"},
		{TypeTransfer, "42.50", "-42.5"},
		{TypeIncome, "0", "0"},
		{"Bogus", "-3", "-3"},
	}
	for _, tt := range tests {
		got := tt.typ.Signed(decimal.RequireFromString(tt.amount))
		assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "%s.Signed(%s) = %s", tt.typ, tt.amount, got)
	}
}

func TestTransactionTypeValid(t *testing.T) {
	assert.True(t, TypeIncome.Valid())
	assert.True(t, TypeTransfer.Valid())
	assert.False(t, TransactionType("income").Valid())
	assert.False(t, TransactionType("").Valid())
}

func TestTransactionJSON(t *testing.T) {
	tx := Transaction{
		ID:      "t1",
		Date:    civil.Date{Year: 2024, Month: 2, Day: 29},
		Type:    TypeExpense,
		Amount:  decimal.RequireFromString("-100.25"),
		Company: "Rent",
		Tags:    []string{},
	}
	data, err := json.Marshal(tx)
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"date":"2024-02-29"`)
	assert.Contains(t, s, `"amount":-100.25`)
	assert.NotContains(t, s, "templateId")

	var back Transaction
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, tx.Date, back.Date)
	assert.True(t, tx.Amount.Equal(back.Amount))
}

func TestTemplateCloneIsDeep(t *testing.T) {
	amt := decimal.NewFromInt(10)
	interval := 3
	last := civil.Date{Year: 2024, Month: 1, Day: 1}
	orig := RecurrenceTemplate{
		Tags:              []string{"a"},
		Amount:            &amt,
		LastGenerated:     &last,
		RecurrencePattern: &RecurrencePattern{Frequency: FrequencyCustom, Interval: &interval},
	}

	c := orig.Clone()
	c.Tags[0] = "b"
	*c.Amount = decimal.NewFromInt(20)
	*c.RecurrencePattern.Interval = 9
	c.LastGenerated.Day = 5

	assert.Equal(t, "a", orig.Tags[0])
	assert.True(t, orig.Amount.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 3, *orig.RecurrencePattern.Interval)
	assert.Equal(t, 1, orig.LastGenerated.Day)
}

func TestValidationErrors(t *testing.T) {
	var err error = ValidationErrors{
		{Field: "date", Message: "Date is required"},
		{Field: "company", Message: "Company is required"},
	}
	assert.Equal(t, "validation failed: Date is required; Company is required", err.Error())

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, []string{"Date is required", "Company is required"}, verrs.Messages())
}
