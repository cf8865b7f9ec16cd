package recurring

import (
	"slices"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/model"
)

// Materialize builds the unsaved transaction for one occurrence of t.
//
// Fixed templates get |amount| signed by type. Variable templates get a zero
// amount and are marked pending until the real value is known.
func Materialize(t model.RecurrenceTemplate, date civil.Date) model.Transaction {
	tx := model.Transaction{
		Date:            date,
		Type:            t.Type,
		Company:         t.Company,
		Tags:            slices.Clone(t.Tags),
		Paid:            t.Paid,
		TemplateID:      t.ID,
		IsAutoGenerated: true,
	}
	if tx.Tags == nil {
		tx.Tags = []string{}
	}

	switch {
	case t.AmountType == model.AmountVariable:
		tx.Amount = decimal.Zero
		tx.IsPending = true
	case t.Amount != nil:
		tx.Amount = t.Type.Signed(*t.Amount)
	default:
		tx.Amount = decimal.Zero
	}
	return tx
}
