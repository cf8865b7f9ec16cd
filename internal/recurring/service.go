package recurring

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/tally-dev/tally/internal/model"
)

// TemplateStore persists templates and their exceptions.
type TemplateStore interface {
	ListTemplates(ctx context.Context) ([]model.RecurrenceTemplate, error)
	GetTemplate(ctx context.Context, id string) (model.RecurrenceTemplate, error)
	CreateTemplate(ctx context.Context, t model.RecurrenceTemplate) (model.RecurrenceTemplate, error)
	UpdateTemplate(ctx context.Context, t model.RecurrenceTemplate) (model.RecurrenceTemplate, error)
	// DeleteTemplate removes the template and its exceptions. Transactions
	// generated from it are kept.
	DeleteTemplate(ctx context.Context, id string) error

	ListExceptions(ctx context.Context, templateID string) ([]model.TemplateException, error)
	UpsertException(ctx context.Context, ex model.TemplateException) (model.TemplateException, error)
	DeleteException(ctx context.Context, templateID string, occurrence civil.Date) error
}

// Service provides template CRUD with validation.
type Service struct {
	store TemplateStore
}

// NewService creates a template Service.
func NewService(store TemplateStore) *Service {
	return &Service{store: store}
}

// List returns all templates.
func (s *Service) List(ctx context.Context) ([]model.RecurrenceTemplate, error) {
	return s.store.ListTemplates(ctx)
}

// Get returns one template.
func (s *Service) Get(ctx context.Context, id string) (model.RecurrenceTemplate, error) {
	return s.store.GetTemplate(ctx, id)
}

// Create validates and stores a new template. The watermark always starts
// empty.
func (s *Service) Create(ctx context.Context, t model.RecurrenceTemplate) (model.RecurrenceTemplate, error) {
	if errs := ValidateTemplate(t); len(errs) > 0 {
		return model.RecurrenceTemplate{}, errs
	}
	t.ID = ""
	t.LastGenerated = nil
	if t.Tags == nil {
		t.Tags = []string{}
	}
	created, err := s.store.CreateTemplate(ctx, t)
	if err != nil {
		return model.RecurrenceTemplate{}, fmt.Errorf("creating template: %w", err)
	}
	return created, nil
}

// Update replaces the editable fields of template t.ID. The watermark and
// creation time of the stored template are preserved.
func (s *Service) Update(ctx context.Context, t model.RecurrenceTemplate) (model.RecurrenceTemplate, error) {
	existing, err := s.store.GetTemplate(ctx, t.ID)
	if err != nil {
		return model.RecurrenceTemplate{}, err
	}
	if errs := ValidateTemplate(t); len(errs) > 0 {
		return model.RecurrenceTemplate{}, errs
	}
	t.LastGenerated = existing.LastGenerated
	t.CreatedAt = existing.CreatedAt
	if t.Tags == nil {
		t.Tags = []string{}
	}
	updated, err := s.store.UpdateTemplate(ctx, t)
	if err != nil {
		return model.RecurrenceTemplate{}, fmt.Errorf("updating template %s: %w", t.ID, err)
	}
	return updated, nil
}

// Delete removes a template without touching its transactions.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteTemplate(ctx, id)
}

// Exceptions lists the overrides of one template.
func (s *Service) Exceptions(ctx context.Context, templateID string) ([]model.TemplateException, error) {
	if _, err := s.store.GetTemplate(ctx, templateID); err != nil {
		return nil, err
	}
	return s.store.ListExceptions(ctx, templateID)
}

// SetException creates or replaces the override for one occurrence.
func (s *Service) SetException(ctx context.Context, ex model.TemplateException) (model.TemplateException, error) {
	if _, err := s.store.GetTemplate(ctx, ex.TemplateID); err != nil {
		return model.TemplateException{}, err
	}
	if errs := ValidateException(ex); len(errs) > 0 {
		return model.TemplateException{}, errs
	}
	saved, err := s.store.UpsertException(ctx, ex)
	if err != nil {
		return model.TemplateException{}, fmt.Errorf("saving exception: %w", err)
	}
	return saved, nil
}

// ClearException removes the override for one occurrence.
func (s *Service) ClearException(ctx context.Context, templateID string, occurrence civil.Date) error {
	return s.store.DeleteException(ctx, templateID, occurrence)
}

// ValidateException checks that an override carries the value its type needs.
func ValidateException(ex model.TemplateException) model.ValidationErrors {
	var errs model.ValidationErrors
	if !ex.OccurrenceDate.IsValid() {
		errs = append(errs, model.ValidationError{Field: "occurrenceDate", Message: "Occurrence date is required"})
	}
	switch ex.Type {
	case model.ExceptionSkip:
	case model.ExceptionAmount:
		if ex.ModifiedAmount == nil {
			errs = append(errs, model.ValidationError{Field: "modifiedAmount", Message: "Modified amount is required for amount exceptions"})
		}
	case model.ExceptionDate:
		if ex.ModifiedDate == nil || !ex.ModifiedDate.IsValid() {
			errs = append(errs, model.ValidationError{Field: "modifiedDate", Message: "Modified date is required for date exceptions"})
		}
	case "":
		errs = append(errs, model.ValidationError{Field: "exceptionType", Message: "Exception type is required"})
	default:
		errs = append(errs, model.ValidationError{Field: "exceptionType", Message: "Exception type must be one of: amount, date, skip"})
	}
	return errs
}
