package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tally-dev/tally/internal/id"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/store"
)

const templateColumns = `id, type, company, tags, amount_type, amount::text,
	estimated_amount::text, paid, start_date::text, end_date::text,
	recurrence_pattern, is_active, last_generated::text, created_at, updated_at`

func scanTemplate(row pgx.Row) (model.RecurrenceTemplate, error) {
	var (
		t                      model.RecurrenceTemplate
		amount, estimated      pgtype.Text
		start                  string
		endDate, lastGenerated pgtype.Text
		pattern                []byte
	)
	err := row.Scan(&t.ID, &t.Type, &t.Company, &t.Tags, &t.AmountType, &amount,
		&estimated, &t.Paid, &start, &endDate, &pattern, &t.IsActive, &lastGenerated,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return model.RecurrenceTemplate{}, err
	}
	if t.Amount, err = parseDecimalText(amount); err != nil {
		return model.RecurrenceTemplate{}, err
	}
	if t.EstimatedAmount, err = parseDecimalText(estimated); err != nil {
		return model.RecurrenceTemplate{}, err
	}
	if t.StartDate, err = civil.ParseDate(start); err != nil {
		return model.RecurrenceTemplate{}, fmt.Errorf("parsing stored date %q: %w", start, err)
	}
	if t.EndDate, err = parseDateText(endDate); err != nil {
		return model.RecurrenceTemplate{}, err
	}
	if t.LastGenerated, err = parseDateText(lastGenerated); err != nil {
		return model.RecurrenceTemplate{}, err
	}
	if len(pattern) > 0 && string(pattern) != "null" {
		t.RecurrencePattern = &model.RecurrencePattern{}
		if err := json.Unmarshal(pattern, t.RecurrencePattern); err != nil {
			return model.RecurrenceTemplate{}, fmt.Errorf("decoding recurrence pattern: %w", err)
		}
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return t, nil
}

func collectTemplates(rows pgx.Rows) ([]model.RecurrenceTemplate, error) {
	defer rows.Close()
	var out []model.RecurrenceTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) insertTemplate(ctx context.Context, q querier, t model.RecurrenceTemplate) (model.RecurrenceTemplate, error) {
	now := s.now()
	if t.ID == "" {
		t.ID = id.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	pattern, err := json.Marshal(t.RecurrencePattern)
	if err != nil {
		return model.RecurrenceTemplate{}, fmt.Errorf("encoding recurrence pattern: %w", err)
	}
	row := q.QueryRow(ctx, `
		INSERT INTO recurring_templates (id, type, company, tags, amount_type, amount,
			estimated_amount, paid, start_date, end_date, recurrence_pattern, is_active,
			last_generated, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::text::numeric, $7::text::numeric, $8,
			$9::text::date, $10::text::date, $11, $12, $13::text::date, $14, $15)
		RETURNING `+templateColumns,
		t.ID, t.Type, t.Company, t.Tags, t.AmountType, decimalText(t.Amount),
		decimalText(t.EstimatedAmount), t.Paid, t.StartDate.String(), dateText(t.EndDate),
		pattern, t.IsActive, dateText(t.LastGenerated), t.CreatedAt, t.UpdatedAt)
	saved, err := scanTemplate(row)
	if err != nil {
		return model.RecurrenceTemplate{}, mapErr(err)
	}
	return saved, nil
}

// ListTemplates implements store.Templates.
func (s *Store) ListTemplates(ctx context.Context) ([]model.RecurrenceTemplate, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+templateColumns+` FROM recurring_templates ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	return collectTemplates(rows)
}

// ActiveTemplates implements store.Templates.
func (s *Store) ActiveTemplates(ctx context.Context) ([]model.RecurrenceTemplate, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+templateColumns+` FROM recurring_templates WHERE is_active ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing active templates: %w", err)
	}
	return collectTemplates(rows)
}

// GetTemplate implements store.Templates.
func (s *Store) GetTemplate(ctx context.Context, templateID string) (model.RecurrenceTemplate, error) {
	t, err := scanTemplate(s.pool.QueryRow(ctx,
		`SELECT `+templateColumns+` FROM recurring_templates WHERE id = $1`, templateID))
	if err != nil {
		return model.RecurrenceTemplate{}, mapErr(err)
	}
	return t, nil
}

// CreateTemplate implements store.Templates.
func (s *Store) CreateTemplate(ctx context.Context, t model.RecurrenceTemplate) (model.RecurrenceTemplate, error) {
	t.ID = ""
	t.CreatedAt, t.UpdatedAt = s.now(), s.now()
	return s.insertTemplate(ctx, s.pool, t)
}

// UpdateTemplate implements store.Templates.
func (s *Store) UpdateTemplate(ctx context.Context, t model.RecurrenceTemplate) (model.RecurrenceTemplate, error) {
	if t.Tags == nil {
		t.Tags = []string{}
	}
	pattern, err := json.Marshal(t.RecurrencePattern)
	if err != nil {
		return model.RecurrenceTemplate{}, fmt.Errorf("encoding recurrence pattern: %w", err)
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE recurring_templates SET
			type = $2, company = $3, tags = $4, amount_type = $5,
			amount = $6::text::numeric, estimated_amount = $7::text::numeric, paid = $8,
			start_date = $9::text::date, end_date = $10::text::date,
			recurrence_pattern = $11, is_active = $12, last_generated = $13::text::date,
			updated_at = $14
		WHERE id = $1
		RETURNING `+templateColumns,
		t.ID, t.Type, t.Company, t.Tags, t.AmountType, decimalText(t.Amount),
		decimalText(t.EstimatedAmount), t.Paid, t.StartDate.String(), dateText(t.EndDate),
		pattern, t.IsActive, dateText(t.LastGenerated), s.now())
	saved, err := scanTemplate(row)
	if err != nil {
		return model.RecurrenceTemplate{}, mapErr(err)
	}
	return saved, nil
}

// DeleteTemplate implements store.Templates. Exceptions are removed with the
// template; generated transactions stay.
func (s *Store) DeleteTemplate(ctx context.Context, templateID string) error {
	return s.inTx(ctx, func(q querier) error {
		tag, err := q.Exec(ctx, `DELETE FROM recurring_templates WHERE id = $1`, templateID)
		if err != nil {
			return fmt.Errorf("deleting template: %w", err)
		}
		if err := mustAffect(tag); err != nil {
			return err
		}
		if _, err := q.Exec(ctx, `DELETE FROM template_exceptions WHERE template_id = $1`, templateID); err != nil {
			return fmt.Errorf("deleting template exceptions: %w", err)
		}
		return nil
	})
}

// SaveTemplateWatermark implements store.Templates.
func (s *Store) SaveTemplateWatermark(ctx context.Context, templateID string, date civil.Date) error {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		WITH moved AS (
			UPDATE recurring_templates
			SET last_generated = $2::text::date, updated_at = $3
			WHERE id = $1 AND (last_generated IS NULL OR last_generated < $2::text::date)
			RETURNING id
		)
		SELECT EXISTS (SELECT 1 FROM moved) OR EXISTS (SELECT 1 FROM recurring_templates WHERE id = $1)`,
		templateID, date.String(), s.now()).Scan(&exists)
	if err != nil {
		return fmt.Errorf("saving watermark: %w", err)
	}
	if !exists {
		return store.ErrNotFound
	}
	return nil
}

const exceptionColumns = `id, template_id, occurrence_date::text, exception_type,
	modified_amount::text, modified_date::text, created_at, updated_at`

func scanException(row pgx.Row) (model.TemplateException, error) {
	var (
		e              model.TemplateException
		occurrence     string
		amount, modDay pgtype.Text
	)
	err := row.Scan(&e.ID, &e.TemplateID, &occurrence, &e.Type, &amount, &modDay, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return model.TemplateException{}, err
	}
	if e.OccurrenceDate, err = civil.ParseDate(occurrence); err != nil {
		return model.TemplateException{}, fmt.Errorf("parsing stored date %q: %w", occurrence, err)
	}
	if e.ModifiedAmount, err = parseDecimalText(amount); err != nil {
		return model.TemplateException{}, err
	}
	if e.ModifiedDate, err = parseDateText(modDay); err != nil {
		return model.TemplateException{}, err
	}
	return e, nil
}

func collectExceptions(rows pgx.Rows) ([]model.TemplateException, error) {
	defer rows.Close()
	var out []model.TemplateException
	for rows.Next() {
		e, err := scanException(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListExceptions implements store.Templates.
func (s *Store) ListExceptions(ctx context.Context, templateID string) ([]model.TemplateException, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+exceptionColumns+` FROM template_exceptions
		WHERE template_id = $1 ORDER BY occurrence_date`, templateID)
	if err != nil {
		return nil, fmt.Errorf("listing exceptions: %w", err)
	}
	return collectExceptions(rows)
}

func (s *Store) insertException(ctx context.Context, q querier, e model.TemplateException) (model.TemplateException, error) {
	now := s.now()
	if e.ID == "" {
		e.ID = id.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = now
	}
	row := q.QueryRow(ctx, `
		INSERT INTO template_exceptions (id, template_id, occurrence_date, exception_type,
			modified_amount, modified_date, created_at, updated_at)
		VALUES ($1, $2, $3::text::date, $4, $5::text::numeric, $6::text::date, $7, $8)
		ON CONFLICT (template_id, occurrence_date) DO UPDATE SET
			exception_type = EXCLUDED.exception_type,
			modified_amount = EXCLUDED.modified_amount,
			modified_date = EXCLUDED.modified_date,
			updated_at = EXCLUDED.updated_at
		RETURNING `+exceptionColumns,
		e.ID, e.TemplateID, e.OccurrenceDate.String(), e.Type, decimalText(e.ModifiedAmount),
		dateText(e.ModifiedDate), e.CreatedAt, e.UpdatedAt)
	saved, err := scanException(row)
	if err != nil {
		return model.TemplateException{}, mapErr(err)
	}
	return saved, nil
}

// UpsertException implements store.Templates.
func (s *Store) UpsertException(ctx context.Context, e model.TemplateException) (model.TemplateException, error) {
	if _, err := s.GetTemplate(ctx, e.TemplateID); err != nil {
		return model.TemplateException{}, err
	}
	e.ID = ""
	e.CreatedAt, e.UpdatedAt = s.now(), s.now()
	return s.insertException(ctx, s.pool, e)
}

// DeleteException implements store.Templates.
func (s *Store) DeleteException(ctx context.Context, templateID string, occurrence civil.Date) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM template_exceptions
		WHERE template_id = $1 AND occurrence_date = $2::text::date`, templateID, occurrence.String())
	if err != nil {
		return fmt.Errorf("deleting exception: %w", err)
	}
	return mustAffect(tag)
}
