package recurring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/tally-dev/tally/internal/model"
)

// Store is the persistence a processing run needs.
type Store interface {
	ActiveTemplates(ctx context.Context) ([]model.RecurrenceTemplate, error)
	AllTransactions(ctx context.Context) ([]model.Transaction, error)
	SaveTransaction(ctx context.Context, tx model.Transaction) (model.Transaction, error)
	SaveTemplateWatermark(ctx context.Context, templateID string, date civil.Date) error
}

// ExceptionSource lists the per-occurrence overrides of a template.
type ExceptionSource interface {
	ListExceptions(ctx context.Context, templateID string) ([]model.TemplateException, error)
}

// Processor materializes due recurring transactions against a Store.
//
// Runs are not locked against each other. Two concurrent runs cannot create
// duplicate rows for an already persisted date, but their watermark writes
// may race; the later write wins.
type Processor struct {
	store      Store
	exceptions ExceptionSource
	loc        *time.Location
	log        zerolog.Logger
}

// NewProcessor creates a Processor. exceptions may be nil. loc decides which
// calendar day "now" falls on and defaults to time.Local.
func NewProcessor(store Store, exceptions ExceptionSource, loc *time.Location, log zerolog.Logger) *Processor {
	if loc == nil {
		loc = time.Local
	}
	return &Processor{store: store, exceptions: exceptions, loc: loc, log: log}
}

// Report summarizes a processing run.
type Report struct {
	AsOf       civil.Date            `json:"asOf"`
	Generated  int                   `json:"generated"`
	Created    []model.Transaction   `json:"transactions"`
	Duplicates int                   `json:"duplicates"`
	Skipped    int                   `json:"skipped"`
	Watermarks map[string]civil.Date `json:"watermarks"`
	Failed     []string              `json:"failedTemplates,omitempty"`
}

// Run processes every active template as of now.
//
// A failure to load templates or transactions aborts the run before anything
// is written. Once writing starts, every candidate is attempted; a template
// with any failed save keeps its old watermark so the next run retries it,
// while the others advance. All write failures are joined into the returned
// error alongside a report of what did succeed. Delivery is at-least-once:
// a crash between a save and its watermark write is repaired by duplicate
// suppression on the next run, not by a transaction.
func (p *Processor) Run(ctx context.Context, now time.Time) (Report, error) {
	asOf := civil.DateOf(now.In(p.loc))
	report := Report{AsOf: asOf, Created: []model.Transaction{}, Watermarks: map[string]civil.Date{}}

	templates, err := p.store.ActiveTemplates(ctx)
	if err != nil {
		return report, fmt.Errorf("loading active templates: %w", err)
	}
	existing, err := p.store.AllTransactions(ctx)
	if err != nil {
		return report, fmt.Errorf("loading transactions: %w", err)
	}

	var exceptions map[string][]model.TemplateException
	if p.exceptions != nil {
		exceptions = make(map[string][]model.TemplateException)
		for _, t := range templates {
			exs, err := p.exceptions.ListExceptions(ctx, t.ID)
			if err != nil {
				return report, fmt.Errorf("loading exceptions for template %s: %w", t.ID, err)
			}
			exceptions[t.ID] = exs
		}
	}

	plan := BuildPlan(templates, asOf, existing, exceptions)

	var errs []error
	for _, o := range plan.Outcomes {
		failed := false
		for _, tx := range o.Create {
			saved, err := p.store.SaveTransaction(ctx, tx)
			if err != nil {
				failed = true
				errs = append(errs, fmt.Errorf("saving %s occurrence on %s: %w", o.TemplateID, tx.Date, err))
				continue
			}
			report.Created = append(report.Created, saved)
		}
		report.Duplicates += o.Duplicates
		report.Skipped += o.Skipped

		if failed {
			report.Failed = append(report.Failed, o.TemplateID)
			p.log.Error().Str("template_id", o.TemplateID).Msg("keeping watermark after failed save")
			continue
		}
		if err := p.store.SaveTemplateWatermark(ctx, o.TemplateID, *o.Watermark); err != nil {
			report.Failed = append(report.Failed, o.TemplateID)
			errs = append(errs, fmt.Errorf("saving watermark for template %s: %w", o.TemplateID, err))
			continue
		}
		report.Watermarks[o.TemplateID] = *o.Watermark

		p.log.Debug().
			Str("template_id", o.TemplateID).
			Int("due", o.Occurrences).
			Int("created", len(o.Create)).
			Int("duplicates", o.Duplicates).
			Int("skipped", o.Skipped).
			Stringer("watermark", *o.Watermark).
			Msg("processed template")
	}
	report.Generated = len(report.Created)

	p.log.Info().
		Stringer("as_of", asOf).
		Int("templates", len(templates)).
		Int("generated", report.Generated).
		Int("duplicates", report.Duplicates).
		Int("failed", len(report.Failed)).
		Msg("recurring templates processed")

	return report, errors.Join(errs...)
}
