package form

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/formentry/internal/domain/encounter"
	"github.com/ehr/formentry/internal/htmlform"
)

// Engine renders form markup and handles submissions against it.
type Engine interface {
	Render(ctx context.Context, req htmlform.RenderRequest) (*htmlform.RenderResult, error)
	Submit(ctx context.Context, req htmlform.RenderRequest, sub htmlform.Submission) (*htmlform.SubmissionResult, error)
}

type Service struct {
	forms  Repository
	engine Engine
	logger zerolog.Logger
}

func NewService(forms Repository, engine Engine, logger zerolog.Logger) *Service {
	return &Service{forms: forms, engine: engine, logger: logger}
}

// CreateForm stores a new form definition. Markup that fails to render is a
// bad form design and is rejected.
func (s *Service) CreateForm(ctx context.Context, f *Form) error {
	if err := s.validate(ctx, f); err != nil {
		return err
	}
	if err := s.forms.Create(ctx, f); err != nil {
		return fmt.Errorf("create form: %w", err)
	}
	s.logger.Info().Str("form_id", f.ID.String()).Str("name", f.Name).Msg("form created")
	return nil
}

// ImportForms creates forms in order and stops at the first one that fails.
// It returns how many were created.
func (s *Service) ImportForms(ctx context.Context, forms []*Form) (int, error) {
	for i, f := range forms {
		if err := s.CreateForm(ctx, f); err != nil {
			return i, fmt.Errorf("import %q: %w", f.Name, err)
		}
	}
	return len(forms), nil
}

func (s *Service) GetForm(ctx context.Context, id uuid.UUID) (*Form, error) {
	return s.forms.GetByID(ctx, id)
}

func (s *Service) UpdateForm(ctx context.Context, f *Form) error {
	if err := s.validate(ctx, f); err != nil {
		return err
	}
	return s.forms.Update(ctx, f)
}

func (s *Service) DeleteForm(ctx context.Context, id uuid.UUID) error {
	return s.forms.Delete(ctx, id)
}

func (s *Service) ListForms(ctx context.Context, limit, offset int) ([]*Form, int, error) {
	return s.forms.List(ctx, limit, offset)
}

// RenderForm renders a stored form. enc supplies existing diagnoses in EDIT
// and VIEW modes and may be nil.
func (s *Service) RenderForm(ctx context.Context, id uuid.UUID, mode htmlform.Mode, enc *encounter.Encounter) (string, error) {
	f, err := s.forms.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return s.RenderMarkup(ctx, f.Markup, mode, enc)
}

// RenderMarkup renders form markup that is not stored.
func (s *Service) RenderMarkup(ctx context.Context, markup string, mode htmlform.Mode, enc *encounter.Encounter) (string, error) {
	if strings.TrimSpace(markup) == "" {
		return "", fmt.Errorf("%w: markup is required", ErrInvalid)
	}
	res, err := s.engine.Render(ctx, htmlform.RenderRequest{Mode: mode, Encounter: enc, Markup: markup})
	if err != nil {
		return "", err
	}
	return res.HTML, nil
}

// SubmitForm validates and handles a submission of a stored form.
func (s *Service) SubmitForm(ctx context.Context, id uuid.UUID, mode htmlform.Mode, enc *encounter.Encounter, sub htmlform.Submission) (*htmlform.SubmissionResult, error) {
	f, err := s.forms.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.Retired {
		return nil, fmt.Errorf("%w: form %s is retired", ErrInvalid, f.Name)
	}
	if mode == htmlform.ModeView {
		return nil, fmt.Errorf("%w: cannot submit a form in VIEW mode", ErrInvalid)
	}
	return s.engine.Submit(ctx, htmlform.RenderRequest{Mode: mode, Encounter: enc, Markup: f.Markup}, sub)
}

func (s *Service) validate(ctx context.Context, f *Form) error {
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if strings.TrimSpace(f.Markup) == "" {
		return fmt.Errorf("%w: markup is required", ErrInvalid)
	}
	if f.Version == "" {
		f.Version = "1.0"
	}
	if _, err := s.engine.Render(ctx, htmlform.RenderRequest{Mode: htmlform.ModeEnter, Markup: f.Markup}); err != nil {
		s.logger.Warn().Err(err).Str("name", f.Name).Msg("form design rejected")
		return err
	}
	return nil
}
