package form

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/ehr/formentry/internal/htmlform"
)

func TestLoadManifest(t *testing.T) {
	fsys := fstest.MapFS{
		"forms/manifest.yaml": {Data: []byte(`forms:
  - name: Visit note
    version: "1.2"
    description: "  Outpatient visit  "
    markupFile: visit-note.xml
  - name: Discharge
    markup: <htmlform><encounterDiagnoses includePriorDiagnoses="DISCHARGE"/></htmlform>
    retired: true
`)},
		"forms/visit-note.xml": {Data: []byte(visitNote)},
	}

	forms, err := LoadManifest(fsys, "forms/manifest.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(forms) != 2 {
		t.Fatalf("expected 2 forms, got %d", len(forms))
	}

	visit := forms[0]
	if visit.Name != "Visit note" || visit.Version != "1.2" || visit.Markup != visitNote {
		t.Errorf("unexpected first form: %+v", visit)
	}
	if visit.Description == nil || *visit.Description != "Outpatient visit" {
		t.Errorf("expected trimmed description, got %v", visit.Description)
	}

	discharge := forms[1]
	if !discharge.Retired || discharge.Description != nil {
		t.Errorf("unexpected second form: %+v", discharge)
	}
	if !strings.Contains(discharge.Markup, `includePriorDiagnoses="DISCHARGE"`) {
		t.Errorf("expected inline markup, got %q", discharge.Markup)
	}
}

func TestLoadManifest_Errors(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
	}{
		{"unknown field", "forms:\n  - name: x\n    layout: two-column\n"},
		{"missing markup file", "forms:\n  - name: x\n    markupFile: nowhere.xml\n"},
		{"both markups", "forms:\n  - name: x\n    markup: <htmlform/>\n    markupFile: a.xml\n"},
		{"not yaml", "forms: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fstest.MapFS{
				"manifest.yaml": {Data: []byte(tt.manifest)},
				"a.xml":         {Data: []byte("<htmlform/>")},
			}
			if _, err := LoadManifest(fsys, "manifest.yaml"); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := LoadManifest(fstest.MapFS{}, "manifest.yaml"); err == nil {
		t.Error("expected error for missing manifest")
	}
}

func TestService_ImportForms_StopsAtBadDesign(t *testing.T) {
	svc, repo := newTestService(t)
	forms := []*Form{
		{Name: "Visit note", Markup: visitNote},
		{Name: "Broken", Markup: `<htmlform><encounterDiagnoses includePriorDiagnoses="readmit"/></htmlform>`},
		{Name: "Never reached", Markup: visitNote},
	}

	n, err := svc.ImportForms(context.Background(), forms)
	if n != 1 {
		t.Errorf("expected 1 imported form, got %d", n)
	}
	if !errors.Is(err, htmlform.ErrBadFormDesign) {
		t.Fatalf("expected bad form design, got %v", err)
	}
	if !strings.Contains(err.Error(), `"Broken"`) {
		t.Errorf("expected form name in error, got %v", err)
	}
	if len(repo.store) != 1 {
		t.Errorf("expected 1 stored form, got %d", len(repo.store))
	}
}
