package recurring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tally-dev/tally/internal/model"
)

func TestMaterialize_FixedSignsByType(t *testing.T) {
	tests := []struct {
		typ    model.TransactionType
		amount string
		want   string
	}{
		{model.TypeExpense, "100", "-100"},
		{model.TypeExpense, "-100", "-100"},
		{model.TypeTransfer, "25.5", "-25.5"},
		{model.TypeIncome, "-3000", "3000"},
		{model.TypeIncome, "3000", "3000"},
	}
	for _, tt := range tests {
		tpl := validTemplate()
		tpl.Type = tt.typ
		tpl.Amount = dec(tt.amount)

		tx := Materialize(tpl, date(2024, 2, 29))
		assert.True(t, dec(tt.want).Equal(tx.Amount), "%s %s -> %s", tt.typ, tt.amount, tx.Amount)
		assert.False(t, tx.IsPending)
	}
}

func TestMaterialize_Variable(t *testing.T) {
	tpl := validTemplate()
	tpl.AmountType = model.AmountVariable
	tpl.Amount = nil
	tpl.EstimatedAmount = dec("75")

	tx := Materialize(tpl, date(2024, 3, 1))
	assert.True(t, tx.Amount.IsZero())
	assert.True(t, tx.IsPending)
}

func TestMaterialize_CopiesTemplateFields(t *testing.T) {
	tpl := validTemplate()
	tpl.Tags = []string{"housing"}
	tpl.Paid = true

	tx := Materialize(tpl, date(2024, 1, 31))
	assert.Empty(t, tx.ID)
	assert.Equal(t, "2024-01-31", tx.Date.String())
	assert.Equal(t, model.TypeExpense, tx.Type)
	assert.Equal(t, "Rent", tx.Company)
	assert.Equal(t, []string{"housing"}, tx.Tags)
	assert.True(t, tx.Paid)
	assert.Equal(t, "tpl-rent", tx.TemplateID)
	assert.True(t, tx.IsAutoGenerated)

	// The transaction must not alias the template's tags.
	tx.Tags[0] = "changed"
	assert.Equal(t, "housing", tpl.Tags[0])
}

func TestMaterialize_NilTagsBecomeEmpty(t *testing.T) {
	tx := Materialize(validTemplate(), date(2024, 1, 31))
	assert.NotNil(t, tx.Tags)
	assert.Empty(t, tx.Tags)
}
