package recurring

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-dev/tally/internal/model"
)

func TestBuildPlan_MonthEndScenario(t *testing.T) {
	tpl := monthlyTemplate(date(2024, 1, 31))

	plan := BuildPlan([]model.RecurrenceTemplate{tpl}, date(2024, 3, 15), nil, nil)

	created := plan.Created()
	require.Len(t, created, 2)
	assert.Equal(t, date(2024, 1, 31), created[0].Date)
	assert.Equal(t, date(2024, 2, 29), created[1].Date)
	for _, tx := range created {
		assert.True(t, dec("-100").Equal(tx.Amount))
	}
	assert.Equal(t, map[string]civil.Date{"tpl-rent": date(2024, 2, 29)}, plan.Watermarks())
}

func TestBuildPlan_DuplicateStillAdvancesWatermark(t *testing.T) {
	tpl := monthlyTemplate(date(2024, 1, 31))
	tpl.LastGenerated = datePtr(2024, 1, 31)
	existing := []model.Transaction{
		{ID: "t1", TemplateID: "tpl-rent", Date: date(2024, 2, 29), Company: "Rent"},
	}

	plan := BuildPlan([]model.RecurrenceTemplate{tpl}, date(2024, 3, 15), existing, nil)

	assert.Empty(t, plan.Created())
	require.Len(t, plan.Outcomes, 1)
	assert.Equal(t, 1, plan.Outcomes[0].Duplicates)
	assert.Equal(t, date(2024, 2, 29), plan.Watermarks()["tpl-rent"])
}

func TestBuildPlan_DuplicateKeyIncludesCompany(t *testing.T) {
	tpl := monthlyTemplate(date(2024, 1, 31))
	existing := []model.Transaction{
		// Same template and date, but the template has since been renamed.
		{ID: "t1", TemplateID: "tpl-rent", Date: date(2024, 1, 31), Company: "Old Landlord"},
		// Same date and company but written by hand.
		{ID: "t2", Date: date(2024, 2, 29), Company: "Rent"},
	}

	plan := BuildPlan([]model.RecurrenceTemplate{tpl}, date(2024, 3, 15), existing, nil)
	assert.Len(t, plan.Created(), 2)
}

func TestBuildPlan_SkipsInactiveAndFutureTemplates(t *testing.T) {
	inactive := monthlyTemplate(date(2024, 1, 1))
	inactive.ID = "inactive"
	inactive.IsActive = false

	future := monthlyTemplate(date(2024, 6, 1))
	future.ID = "future"

	plan := BuildPlan([]model.RecurrenceTemplate{inactive, future}, date(2024, 3, 15), nil, nil)
	assert.Empty(t, plan.Outcomes)
	assert.Empty(t, plan.Watermarks())
}

func TestBuildPlan_NoWatermarkWithoutCandidates(t *testing.T) {
	tpl := monthlyTemplate(date(2024, 1, 31))
	tpl.LastGenerated = datePtr(2024, 2, 29)

	plan := BuildPlan([]model.RecurrenceTemplate{tpl}, date(2024, 3, 15), nil, nil)
	assert.Empty(t, plan.Outcomes)
}

func TestBuildPlan_Exceptions(t *testing.T) {
	tpl := stride(date(2024, 1, 1), model.FrequencyCustom, intPtr(7))
	exceptions := map[string][]model.TemplateException{
		"tpl-rent": {
			{TemplateID: "tpl-rent", OccurrenceDate: date(2024, 1, 8), Type: model.ExceptionSkip},
			{TemplateID: "tpl-rent", OccurrenceDate: date(2024, 1, 15), Type: model.ExceptionAmount, ModifiedAmount: dec("55")},
			{TemplateID: "tpl-rent", OccurrenceDate: date(2024, 1, 22), Type: model.ExceptionDate, ModifiedDate: datePtr(2024, 1, 24)},
		},
	}

	plan := BuildPlan([]model.RecurrenceTemplate{tpl}, date(2024, 1, 22), nil, exceptions)

	created := plan.Created()
	require.Len(t, created, 3)
	assert.Equal(t, date(2024, 1, 1), created[0].Date)
	assert.True(t, dec("-100").Equal(created[0].Amount))
	assert.Equal(t, date(2024, 1, 15), created[1].Date)
	assert.True(t, dec("-55").Equal(created[1].Amount))
	assert.Equal(t, date(2024, 1, 24), created[2].Date)

	require.Len(t, plan.Outcomes, 1)
	assert.Equal(t, 1, plan.Outcomes[0].Skipped)
	// The watermark follows occurrence dates, not moved dates.
	assert.Equal(t, date(2024, 1, 22), plan.Watermarks()["tpl-rent"])
}

func TestBuildPlan_AmountExceptionResolvesPending(t *testing.T) {
	tpl := monthlyTemplate(date(2024, 1, 10))
	tpl.Type = model.TypeIncome
	tpl.AmountType = model.AmountVariable
	tpl.Amount = nil
	exceptions := map[string][]model.TemplateException{
		"tpl-rent": {{OccurrenceDate: date(2024, 2, 10), Type: model.ExceptionAmount, ModifiedAmount: dec("-420.10")}},
	}

	created := BuildPlan([]model.RecurrenceTemplate{tpl}, date(2024, 2, 10), nil, exceptions).Created()
	require.Len(t, created, 2)
	assert.True(t, created[0].IsPending)
	assert.False(t, created[1].IsPending)
	assert.True(t, dec("420.10").Equal(created[1].Amount))
}

func TestBuildPlan_IsIdempotent(t *testing.T) {
	templates := []model.RecurrenceTemplate{
		monthlyTemplate(date(2024, 1, 31)),
		stride(date(2024, 1, 1), model.FrequencyBiweekly, nil),
	}
	templates[1].ID = "tpl-pay"
	templates[1].Company = "Payroll"
	asOf := date(2024, 4, 1)

	first := BuildPlan(templates, asOf, nil, nil)
	require.NotEmpty(t, first.Created())

	// Feed the results back as persisted state, without advancing the
	// watermarks, and the second plan must create nothing new.
	again := BuildPlan(templates, asOf, first.Created(), nil)
	assert.Empty(t, again.Created())
	assert.Equal(t, first.Watermarks(), again.Watermarks())
}

func TestBuildPlan_SignInvariant(t *testing.T) {
	var templates []model.RecurrenceTemplate
	for i, typ := range model.TransactionTypes {
		for j, amt := range []string{"10", "-10"} {
			tpl := monthlyTemplate(date(2024, 1, 1))
			tpl.ID = string(typ) + amt
			tpl.Type = typ
			tpl.Amount = dec(amt)
			tpl.Company = string(rune('A' + i*2 + j))
			templates = append(templates, tpl)
		}
	}

	for _, tx := range BuildPlan(templates, date(2024, 6, 1), nil, nil).Created() {
		if tx.Type == model.TypeIncome {
			assert.True(t, tx.Amount.IsPositive(), "%s %s", tx.Type, tx.Amount)
		} else {
			assert.True(t, tx.Amount.IsNegative(), "%s %s", tx.Type, tx.Amount)
		}
	}
}
