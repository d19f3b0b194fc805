package htmlform

import "fmt"

// FormSubmissionAction is registered by a tag handler and takes part in
// validating and handling the submitted form.
type FormSubmissionAction interface {
	ValidateSubmission(fc *FormEntryContext, sub Submission) []FieldError
	HandleSubmission(s *Session, sub Submission) error
}

// SubmissionController keeps the actions registered while a form is rendered.
type SubmissionController struct {
	actions []FormSubmissionAction
}

func NewSubmissionController() *SubmissionController {
	return &SubmissionController{}
}

// AddAction registers an action. Actions run in registration order.
func (c *SubmissionController) AddAction(a FormSubmissionAction) {
	c.actions = append(c.actions, a)
}

func (c *SubmissionController) Actions() []FormSubmissionAction {
	return c.actions
}

// ValidateSubmission runs every action and collects all field errors.
func (c *SubmissionController) ValidateSubmission(fc *FormEntryContext, sub Submission) []FieldError {
	var errs []FieldError
	for _, a := range c.actions {
		errs = append(errs, a.ValidateSubmission(fc, sub)...)
	}
	return errs
}

// HandleSubmission runs every action, stopping at the first failure.
func (c *SubmissionController) HandleSubmission(s *Session, sub Submission) error {
	for i, a := range c.actions {
		if err := a.HandleSubmission(s, sub); err != nil {
			return fmt.Errorf("handle submission action %d: %w", i, err)
		}
	}
	return nil
}
