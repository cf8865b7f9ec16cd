package recurring

import (
	"cloud.google.com/go/civil"

	"github.com/tally-dev/tally/internal/model"
)

// dupKey identifies a generated transaction for duplicate suppression.
//
// Company is part of the key. Renaming a template's company therefore makes
// its old rows unrecognizable and the next run with a rewound watermark would
// generate them again. The watermark normally prevents that rewind.
type dupKey struct {
	templateID string
	date       civil.Date
	company    string
}

func keyOf(tx model.Transaction) dupKey {
	return dupKey{templateID: tx.TemplateID, date: tx.Date, company: tx.Company}
}

// Outcome is the result of planning one template.
type Outcome struct {
	TemplateID string
	// Occurrences is the number of due dates considered.
	Occurrences int
	// Create holds the transactions that should be persisted.
	Create []model.Transaction
	// Duplicates counts occurrences already present in the ledger.
	Duplicates int
	// Skipped counts occurrences suppressed by a skip exception.
	Skipped int
	// Watermark is the new LastGenerated value, nil when nothing was due.
	Watermark *civil.Date
}

// Plan is the pure part of a processing run.
type Plan struct {
	AsOf     civil.Date
	Outcomes []Outcome
}

// Created returns every transaction the plan wants persisted, in template order.
func (p Plan) Created() []model.Transaction {
	var out []model.Transaction
	for _, o := range p.Outcomes {
		out = append(out, o.Create...)
	}
	return out
}

// Watermarks returns the new watermark of every template that had due dates.
func (p Plan) Watermarks() map[string]civil.Date {
	out := make(map[string]civil.Date)
	for _, o := range p.Outcomes {
		if o.Watermark != nil {
			out[o.TemplateID] = *o.Watermark
		}
	}
	return out
}

// BuildPlan decides what a processing run as of asOf should create.
//
// Inactive templates and templates starting after asOf contribute nothing.
// Candidates matching an existing transaction on template, date and company
// are dropped but still advance the watermark, as do skipped occurrences.
// exceptions is keyed by template ID and may be nil.
func BuildPlan(templates []model.RecurrenceTemplate, asOf civil.Date, existing []model.Transaction, exceptions map[string][]model.TemplateException) Plan {
	seen := make(map[dupKey]bool, len(existing))
	for _, tx := range existing {
		if tx.TemplateID != "" {
			seen[keyOf(tx)] = true
		}
	}

	plan := Plan{AsOf: asOf}
	for _, t := range templates {
		if !t.IsActive || t.StartDate.After(asOf) {
			continue
		}
		dates := DueDates(t, asOf)
		if len(dates) == 0 {
			continue
		}

		byDate := make(map[civil.Date]model.TemplateException)
		for _, ex := range exceptions[t.ID] {
			byDate[ex.OccurrenceDate] = ex
		}

		out := Outcome{TemplateID: t.ID, Occurrences: len(dates)}
		for _, d := range dates {
			tx := Materialize(t, d)
			if ex, ok := byDate[d]; ok {
				if ex.Type == model.ExceptionSkip {
					out.Skipped++
					continue
				}
				applyException(&tx, ex)
			}

			k := keyOf(tx)
			if seen[k] {
				out.Duplicates++
				continue
			}
			seen[k] = true
			out.Create = append(out.Create, tx)
		}

		// Dates are ascending, so the last one is the maximum. It is always
		// after any prior watermark.
		wm := dates[len(dates)-1]
		out.Watermark = &wm
		plan.Outcomes = append(plan.Outcomes, out)
	}
	return plan
}

func applyException(tx *model.Transaction, ex model.TemplateException) {
	switch ex.Type {
	case model.ExceptionAmount:
		if ex.ModifiedAmount != nil {
			tx.Amount = tx.Type.Signed(*ex.ModifiedAmount)
			tx.IsPending = false
		}
	case model.ExceptionDate:
		if ex.ModifiedDate != nil {
			tx.Date = *ex.ModifiedDate
		}
	}
}
