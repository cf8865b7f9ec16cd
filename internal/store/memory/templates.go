package memory

import (
	"context"
	"slices"

	"cloud.google.com/go/civil"

	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/store"
)

// ListTemplates implements store.Templates.
func (s *Store) ListTemplates(_ context.Context) ([]model.RecurrenceTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.RecurrenceTemplate, len(s.templates))
	for i, t := range s.templates {
		out[i] = t.Clone()
	}
	return out, nil
}

// ActiveTemplates implements store.Templates.
func (s *Store) ActiveTemplates(_ context.Context) ([]model.RecurrenceTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.RecurrenceTemplate
	for _, t := range s.templates {
		if t.IsActive {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

// GetTemplate implements store.Templates.
func (s *Store) GetTemplate(_ context.Context, templateID string) (model.RecurrenceTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.templateIndex(templateID)
	if i < 0 {
		return model.RecurrenceTemplate{}, store.ErrNotFound
	}
	return s.templates[i].Clone(), nil
}

// CreateTemplate implements store.Templates.
func (s *Store) CreateTemplate(_ context.Context, t model.RecurrenceTemplate) (model.RecurrenceTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t = t.Clone()
	now := s.now()
	t.ID = newID()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Tags == nil {
		t.Tags = []string{}
	}
	s.templates = append(s.templates, t)
	return t.Clone(), nil
}

// UpdateTemplate implements store.Templates.
func (s *Store) UpdateTemplate(_ context.Context, t model.RecurrenceTemplate) (model.RecurrenceTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.templateIndex(t.ID)
	if i < 0 {
		return model.RecurrenceTemplate{}, store.ErrNotFound
	}
	t = t.Clone()
	t.CreatedAt = s.templates[i].CreatedAt
	t.UpdatedAt = s.now()
	if t.Tags == nil {
		t.Tags = []string{}
	}
	s.templates[i] = t
	return t.Clone(), nil
}

// DeleteTemplate implements store.Templates. The template's exceptions go
// with it; transactions it generated stay.
func (s *Store) DeleteTemplate(_ context.Context, templateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.templateIndex(templateID)
	if i < 0 {
		return store.ErrNotFound
	}
	s.templates = append(s.templates[:i], s.templates[i+1:]...)
	s.exceptions = slices.DeleteFunc(s.exceptions, func(e model.TemplateException) bool {
		return e.TemplateID == templateID
	})
	return nil
}

// SaveTemplateWatermark implements store.Templates.
func (s *Store) SaveTemplateWatermark(_ context.Context, templateID string, date civil.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.templateIndex(templateID)
	if i < 0 {
		return store.ErrNotFound
	}
	t := &s.templates[i]
	if t.LastGenerated != nil && !date.After(*t.LastGenerated) {
		return nil
	}
	t.LastGenerated = &date
	t.UpdatedAt = s.now()
	return nil
}

// ListExceptions implements store.Templates. Results are ordered by
// occurrence date.
func (s *Store) ListExceptions(_ context.Context, templateID string) ([]model.TemplateException, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.TemplateException
	for _, e := range s.exceptions {
		if e.TemplateID == templateID {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b model.TemplateException) int {
		switch {
		case a.OccurrenceDate.Before(b.OccurrenceDate):
			return -1
		case a.OccurrenceDate.After(b.OccurrenceDate):
			return 1
		}
		return 0
	})
	return out, nil
}

// UpsertException implements store.Templates. An existing exception for the
// same occurrence is replaced and keeps its ID.
func (s *Store) UpsertException(_ context.Context, ex model.TemplateException) (model.TemplateException, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.templateIndex(ex.TemplateID) < 0 {
		return model.TemplateException{}, store.ErrNotFound
	}
	now := s.now()
	ex.UpdatedAt = now
	for i, e := range s.exceptions {
		if e.TemplateID == ex.TemplateID && e.OccurrenceDate == ex.OccurrenceDate {
			ex.ID = e.ID
			ex.CreatedAt = e.CreatedAt
			s.exceptions[i] = ex
			return ex, nil
		}
	}
	ex.ID = newID()
	ex.CreatedAt = now
	s.exceptions = append(s.exceptions, ex)
	return ex, nil
}

// DeleteException implements store.Templates.
func (s *Store) DeleteException(_ context.Context, templateID string, occurrence civil.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.exceptions {
		if e.TemplateID == templateID && e.OccurrenceDate == occurrence {
			s.exceptions = append(s.exceptions[:i], s.exceptions[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) templateIndex(templateID string) int {
	for i := range s.templates {
		if s.templates[i].ID == templateID {
			return i
		}
	}
	return -1
}
