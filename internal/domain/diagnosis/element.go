package diagnosis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ehr/formentry/internal/domain/disposition"
	"github.com/ehr/formentry/internal/domain/encounter"
	"github.com/ehr/formentry/internal/htmlform"
)

// Tag and attribute names of the encounter diagnoses form tag.
const (
	TagName                     = "encounterDiagnoses"
	AttrRequired                = "required"
	AttrIncludePriorDiagnoses   = "includePriorDiagnoses"
	AttrSelectedDiagnosesTarget = "selectedDiagnosesTarget"
	AttrConceptSource           = "conceptSource"
)

// FormFieldName is the submitted field that carries the diagnoses as JSON.
const FormFieldName = "encounterDiagnoses"

// EncounterDiagnosesElement is the configuration of one encounter diagnoses
// widget on a form. It is immutable once built and doubles as the submission
// action for the diagnoses it collects.
type EncounterDiagnosesElement struct {
	required                bool
	priorDiagnoses          disposition.Type
	selectedDiagnosesTarget string
	conceptSource           string
}

// NewElement builds an element from already validated values.
func NewElement(required bool, priorDiagnoses disposition.Type, selectedDiagnosesTarget, conceptSource string) *EncounterDiagnosesElement {
	return &EncounterDiagnosesElement{
		required:                required,
		priorDiagnoses:          priorDiagnoses,
		selectedDiagnosesTarget: selectedDiagnosesTarget,
		conceptSource:           conceptSource,
	}
}

// ParseElement validates tag attributes and builds the element. The only
// failure is an includePriorDiagnoses value outside the disposition
// vocabulary, reported as a *htmlform.BadFormDesignError. Every other
// attribute falls back to its zero value.
func ParseElement(attrs htmlform.TagAttributes) (*EncounterDiagnosesElement, error) {
	raw := attrs.Get(AttrIncludePriorDiagnoses)
	prior, err := disposition.Parse(raw)
	if err != nil {
		return nil, &htmlform.BadFormDesignError{
			Tag:       TagName,
			Attribute: AttrIncludePriorDiagnoses,
			Value:     raw,
			Allowed:   disposition.Keywords(),
			Err:       err,
		}
	}

	return NewElement(
		attrs.Bool(AttrRequired),
		prior,
		attrs.Get(AttrSelectedDiagnosesTarget),
		attrs.Get(AttrConceptSource),
	), nil
}

func (e *EncounterDiagnosesElement) Required() bool { return e.required }

func (e *EncounterDiagnosesElement) DispositionTypeForPriorDiagnoses() disposition.Type {
	return e.priorDiagnoses
}

func (e *EncounterDiagnosesElement) SelectedDiagnosesTarget() string {
	return e.selectedDiagnosesTarget
}

func (e *EncounterDiagnosesElement) ConceptSource() string { return e.conceptSource }

// FragmentParams returns the parameters the diagnoses fragment renders from.
func (e *EncounterDiagnosesElement) FragmentParams(fc *htmlform.FormEntryContext) map[string]any {
	existing := fc.ExistingDiagnoses()
	if existing == nil {
		existing = []encounter.Diagnosis{}
	}
	return map[string]any{
		"formFieldName":                    FormFieldName,
		"required":                         e.required,
		"selectedDiagnosesTarget":          e.selectedDiagnosesTarget,
		"dispositionTypeForPriorDiagnoses": e.priorDiagnoses.String(),
		"mode":                             fc.Mode().String(),
		"existingDiagnoses":                existing,
	}
}

// ValidateSubmission checks the submitted diagnoses. Nothing is validated in
// VIEW mode.
func (e *EncounterDiagnosesElement) ValidateSubmission(fc *htmlform.FormEntryContext, sub htmlform.Submission) []htmlform.FieldError {
	if fc.Mode() == htmlform.ModeView {
		return nil
	}
	ds, err := DecodeDiagnoses(sub.Get(FormFieldName))
	if err != nil {
		return []htmlform.FieldError{{Field: FormFieldName, Message: err.Error()}}
	}
	if e.required && len(ds) == 0 {
		return []htmlform.FieldError{{Field: FormFieldName, Message: "at least one diagnosis is required"}}
	}
	return nil
}

// HandleSubmission records the submitted diagnoses on the session result.
// Coded diagnoses without a code system get the element's concept source.
func (e *EncounterDiagnosesElement) HandleSubmission(s *htmlform.Session, sub htmlform.Submission) error {
	if s.FormEntry().Mode() == htmlform.ModeView {
		return nil
	}
	ds, err := DecodeDiagnoses(sub.Get(FormFieldName))
	if err != nil {
		return err
	}
	for i := range ds {
		if ds[i].IsCoded() && ds[i].CodeSystem == "" {
			ds[i].CodeSystem = e.conceptSource
		}
	}
	s.AddDiagnoses(ds...)
	s.Logger().Debug().Int("count", len(ds)).Msg("encounter diagnoses submitted")
	return nil
}

// DecodeDiagnoses parses the JSON array submitted by the diagnoses widget.
// An empty value means no diagnoses.
func DecodeDiagnoses(raw string) ([]encounter.Diagnosis, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var ds []encounter.Diagnosis
	if err := json.Unmarshal([]byte(raw), &ds); err != nil {
		return nil, fmt.Errorf("decode diagnoses: %w", err)
	}
	for i := range ds {
		ds[i].Normalize()
		if err := ds[i].Validate(); err != nil {
			return nil, fmt.Errorf("diagnosis %d: %w", i, err)
		}
	}
	return ds, nil
}
