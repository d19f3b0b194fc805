package encounter

import "testing"

func TestDiagnosis_Normalize_Defaults(t *testing.T) {
	d := &Diagnosis{Code: " R51 "}
	d.Normalize()
	if d.Certainty != CertaintyConfirmed {
		t.Errorf("certainty = %q, want CONFIRMED", d.Certainty)
	}
	if d.Order != OrderSecondary {
		t.Errorf("order = %q, want SECONDARY", d.Order)
	}
	if d.Code != "R51" {
		t.Errorf("code = %q, want trimmed R51", d.Code)
	}
}

func TestDiagnosis_Normalize_UpperCases(t *testing.T) {
	d := &Diagnosis{Certainty: "presumed", Order: "primary", NonCoded: "headache"}
	d.Normalize()
	if d.Certainty != CertaintyPresumed || d.Order != OrderPrimary {
		t.Errorf("unexpected normalization: %+v", d)
	}
}

func TestDiagnosis_Validate(t *testing.T) {
	tests := []struct {
		name    string
		d       Diagnosis
		wantErr bool
	}{
		{"coded", Diagnosis{Certainty: CertaintyConfirmed, Order: OrderPrimary, Code: "A90"}, false},
		{"non-coded", Diagnosis{Certainty: CertaintyPresumed, Order: OrderSecondary, NonCoded: "rash"}, false},
		{"missing both", Diagnosis{Certainty: CertaintyConfirmed, Order: OrderPrimary}, true},
		{"both set", Diagnosis{Certainty: CertaintyConfirmed, Order: OrderPrimary, Code: "A90", NonCoded: "x"}, true},
		{"bad certainty", Diagnosis{Certainty: "MAYBE", Order: OrderPrimary, Code: "A90"}, true},
		{"bad order", Diagnosis{Certainty: CertaintyConfirmed, Order: "TERTIARY", Code: "A90"}, true},
	}
	for _, tt := range tests {
		err := tt.d.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}
