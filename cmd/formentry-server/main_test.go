package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRenderCmd_EnterMode(t *testing.T) {
	formFile := writeFile(t, "visit.xml", `<htmlform>
<h3>Visit note</h3>
<encounterDiagnoses required="true" conceptSource="ICD-10-WHO"/>
</htmlform>`)

	out, err := runRoot(t, "render", "--file", formFile, "--mode", "enter")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "<h3>Visit note</h3>") {
		t.Errorf("expected surrounding markup to be kept, got %q", out)
	}
	if !strings.Contains(out, `<input type="hidden" id="concept-source" value="ICD-10-WHO"/>`) {
		t.Errorf("expected concept-source input, got %q", out)
	}
	if strings.Contains(out, "<htmlform>") {
		t.Errorf("expected htmlform wrapper to be stripped, got %q", out)
	}
}

func TestRenderCmd_ViewModeWithDiagnoses(t *testing.T) {
	formFile := writeFile(t, "visit.xml", `<htmlform><encounterDiagnoses/></htmlform>`)
	dxFile := writeFile(t, "dx.json", `[{"certainty":"CONFIRMED","order":"PRIMARY","code_system":"ICD-10-WHO","code":"J45","display":"Asthma"}]`)

	out, err := runRoot(t, "render", "--file", formFile, "--mode", "view", "--diagnoses", dxFile)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "Asthma") {
		t.Errorf("expected existing diagnosis in view output, got %q", out)
	}
	if strings.Contains(out, "concept-source") {
		t.Errorf("expected no concept-source input, got %q", out)
	}
}

func TestRenderCmd_BadFormDesign(t *testing.T) {
	formFile := writeFile(t, "bad.xml", `<htmlform><encounterDiagnoses includePriorDiagnoses="readmit"/></htmlform>`)

	out, err := runRoot(t, "render", "--file", formFile)
	if err == nil {
		t.Fatal("expected bad form design error")
	}
	if !strings.Contains(err.Error(), "readmit") {
		t.Errorf("expected offending value in error, got %v", err)
	}
	if out != "" {
		t.Errorf("expected no output on error, got %q", out)
	}
}

func TestRenderCmd_InvalidMode(t *testing.T) {
	formFile := writeFile(t, "visit.xml", `<htmlform/>`)
	if _, err := runRoot(t, "render", "--file", formFile, "--mode", "print"); err == nil {
		t.Fatal("expected invalid mode error")
	}
}

func TestRenderCmd_RequiresFile(t *testing.T) {
	if _, err := runRoot(t, "render"); err == nil {
		t.Fatal("expected error without --file")
	}
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := newLogger("production", tt.in, &buf).GetLevel(); got != tt.want {
			t.Errorf("newLogger(%q) level = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewEngine_RegistersDiagnosisTag(t *testing.T) {
	engine, err := newEngine("", zerolog.Nop())
	if err != nil {
		t.Fatalf("newEngine: %v", err)
	}
	tags := engine.Tags()
	if len(tags) != 1 || tags[0] != "encounterdiagnoses" {
		t.Errorf("unexpected tags: %v", tags)
	}
}

func TestFormsImportCmd_BadManifestFailsBeforeDatabase(t *testing.T) {
	manifest := writeFile(t, "forms.yaml", "forms:\n  - name: x\n    markupFile: missing.xml\n")

	_, err := runRoot(t, "forms", "import", "--manifest", manifest)
	if err == nil || !strings.Contains(err.Error(), "missing.xml") {
		t.Fatalf("expected missing markup file error, got %v", err)
	}
}

func TestFormsImportCmd_RequiresManifest(t *testing.T) {
	if _, err := runRoot(t, "forms", "import"); err == nil {
		t.Fatal("expected error without --manifest")
	}
}
