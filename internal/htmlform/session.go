package htmlform

import (
	"context"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/ehr/formentry/internal/domain/encounter"
)

// FormEntryContext is the read-only rendering context of a form.
type FormEntryContext struct {
	mode      Mode
	encounter *encounter.Encounter
}

// NewFormEntryContext creates a context. enc may be nil in ENTER mode.
func NewFormEntryContext(mode Mode, enc *encounter.Encounter) *FormEntryContext {
	return &FormEntryContext{mode: mode, encounter: enc}
}

func (c *FormEntryContext) Mode() Mode { return c.mode }

// ExistingDiagnoses returns the diagnoses already recorded on the encounter
// being viewed or edited. ENTER mode never has any.
func (c *FormEntryContext) ExistingDiagnoses() []encounter.Diagnosis {
	if c.mode == ModeEnter || c.encounter == nil {
		return nil
	}
	return c.encounter.Diagnoses
}

// Submission holds submitted form field values.
type Submission url.Values

// Get returns the first value of the field.
func (s Submission) Get(field string) string {
	return url.Values(s).Get(field)
}

// SubmissionResult collects what the registered actions produced while
// handling a submission.
type SubmissionResult struct {
	Diagnoses []encounter.Diagnosis `json:"diagnoses"`
}

// Session ties one render or submission of a form to its context, its
// submission controller, and its results.
type Session struct {
	ctx        context.Context
	entry      *FormEntryContext
	controller *SubmissionController
	logger     zerolog.Logger
	result     *SubmissionResult
}

// NewSession creates a session with an empty submission controller.
func NewSession(ctx context.Context, entry *FormEntryContext, logger zerolog.Logger) *Session {
	return &Session{
		ctx:        ctx,
		entry:      entry,
		controller: NewSubmissionController(),
		logger:     logger,
		result:     &SubmissionResult{},
	}
}

func (s *Session) Context() context.Context { return s.ctx }

func (s *Session) FormEntry() *FormEntryContext { return s.entry }

func (s *Session) Controller() *SubmissionController { return s.controller }

func (s *Session) Logger() *zerolog.Logger { return &s.logger }

func (s *Session) Result() *SubmissionResult { return s.result }

// AddDiagnoses appends diagnoses to the submission result.
func (s *Session) AddDiagnoses(ds ...encounter.Diagnosis) {
	s.result.Diagnoses = append(s.result.Diagnoses, ds...)
}
