package diagnosis

import (
	"context"
	"fmt"
	"html"

	"github.com/ehr/formentry/internal/htmlform"
)

// Fragment that renders the diagnoses widget.
const (
	FragmentNamespace = "coreapps"
	FragmentPath      = "diagnosis/encounterDiagnoses"
)

// FragmentRenderer renders a named HTML fragment.
type FragmentRenderer interface {
	IncludeFragment(ctx context.Context, namespace, path string, params map[string]any) (string, error)
}

// TagHandler expands <encounterDiagnoses> tags.
type TagHandler struct {
	fragments FragmentRenderer
}

// NewTagHandler creates a handler rendering through fragments.
func NewTagHandler(fragments FragmentRenderer) *TagHandler {
	return &TagHandler{fragments: fragments}
}

// Substitution validates the tag attributes, registers the resulting element
// with the submission controller, and returns the widget HTML followed by a
// hidden concept-source input when the conceptSource attribute is set.
func (h *TagHandler) Substitution(s *htmlform.Session, c *htmlform.SubmissionController, attrs htmlform.TagAttributes) (string, error) {
	el, err := ParseElement(attrs)
	if err != nil {
		return "", err
	}

	c.AddAction(el)
	s.Logger().Debug().
		Bool("required", el.Required()).
		Str("prior_diagnoses", el.DispositionTypeForPriorDiagnoses().String()).
		Str("mode", s.FormEntry().Mode().String()).
		Msg("encounter diagnoses element registered")

	out, err := h.fragments.IncludeFragment(s.Context(), FragmentNamespace, FragmentPath, el.FragmentParams(s.FormEntry()))
	if err != nil {
		return "", fmt.Errorf("include %s/%s: %w", FragmentNamespace, FragmentPath, err)
	}

	if src := el.ConceptSource(); src != "" {
		out += "\n" + conceptSourceInput(src)
	}
	return out, nil
}

func conceptSourceInput(src string) string {
	return `<input type="hidden" id="concept-source" value="` + html.EscapeString(src) + `"/>`
}
