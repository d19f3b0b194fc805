package htmlform

import (
	"testing"

	"github.com/ehr/formentry/internal/domain/encounter"
)

func TestTagAttributes_CaseInsensitiveLookup(t *testing.T) {
	attrs := TagAttributes{"includepriordiagnoses": "admit", "required": "TRUE"}
	if got := attrs.Get("includePriorDiagnoses"); got != "admit" {
		t.Errorf("Get = %q, want admit", got)
	}
	if !attrs.Bool("required") {
		t.Error("expected required to parse as true")
	}
	if _, ok := attrs.Lookup("conceptSource"); ok {
		t.Error("expected conceptSource to be absent")
	}
}

func TestTagAttributes_Bool(t *testing.T) {
	tests := map[string]bool{"true": true, "True": true, " true ": true, "false": false, "yes": false, "1": false, "": false}
	for in, want := range tests {
		attrs := TagAttributes{"required": in}
		if got := attrs.Bool("required"); got != want {
			t.Errorf("Bool(%q) = %v, want %v", in, got, want)
		}
	}
	if (TagAttributes{}).Bool("required") {
		t.Error("expected absent attribute to be false")
	}
}

func TestParseMode(t *testing.T) {
	tests := map[string]Mode{"": ModeEnter, "enter": ModeEnter, "EDIT": ModeEdit, "View": ModeView}
	for in, want := range tests {
		got, err := ParseMode(in)
		if err != nil {
			t.Fatalf("ParseMode(%q) unexpected error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseMode(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseMode("print"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestFormEntryContext_ExistingDiagnoses(t *testing.T) {
	enc := &encounter.Encounter{Diagnoses: []encounter.Diagnosis{{Code: "R51"}}}
	if got := NewFormEntryContext(ModeEnter, enc).ExistingDiagnoses(); got != nil {
		t.Errorf("expected no existing diagnoses in ENTER mode, got %v", got)
	}
	if got := NewFormEntryContext(ModeEdit, enc).ExistingDiagnoses(); len(got) != 1 {
		t.Errorf("expected 1 existing diagnosis in EDIT mode, got %d", len(got))
	}
	if got := NewFormEntryContext(ModeView, nil).ExistingDiagnoses(); got != nil {
		t.Errorf("expected nil without encounter, got %v", got)
	}
}

func TestBadFormDesignError_Message(t *testing.T) {
	err := &BadFormDesignError{Tag: "encounterDiagnoses", Attribute: "includePriorDiagnoses", Value: "x", Allowed: []string{"ADMIT", "TRANSFER"}}
	want := `bad form design: <encounterDiagnoses> attribute includePriorDiagnoses has invalid value "x" (allowed: ADMIT, TRANSFER)`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
