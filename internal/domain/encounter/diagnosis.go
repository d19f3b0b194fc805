package encounter

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Certainty of an encounter diagnosis.
type Certainty string

const (
	CertaintyConfirmed Certainty = "CONFIRMED"
	CertaintyPresumed  Certainty = "PRESUMED"
)

// Order ranks a diagnosis within an encounter.
type Order string

const (
	OrderPrimary   Order = "PRIMARY"
	OrderSecondary Order = "SECONDARY"
)

var validCertainties = map[Certainty]bool{
	CertaintyConfirmed: true, CertaintyPresumed: true,
}

var validOrders = map[Order]bool{
	OrderPrimary: true, OrderSecondary: true,
}

// Diagnosis is a single diagnosis recorded against an encounter. Exactly one
// of Code or NonCoded is set.
type Diagnosis struct {
	Certainty  Certainty `json:"certainty"`
	Order      Order     `json:"order"`
	CodeSystem string    `json:"code_system,omitempty"`
	Code       string    `json:"code,omitempty"`
	Display    string    `json:"display,omitempty"`
	NonCoded   string    `json:"non_coded,omitempty"`
}

// IsCoded reports whether the diagnosis references a coded concept.
func (d *Diagnosis) IsCoded() bool {
	return d.Code != ""
}

// Normalize upper-cases certainty and order and fills their defaults.
func (d *Diagnosis) Normalize() {
	d.Certainty = Certainty(strings.ToUpper(strings.TrimSpace(string(d.Certainty))))
	d.Order = Order(strings.ToUpper(strings.TrimSpace(string(d.Order))))
	if d.Certainty == "" {
		d.Certainty = CertaintyConfirmed
	}
	if d.Order == "" {
		d.Order = OrderSecondary
	}
	d.Code = strings.TrimSpace(d.Code)
	d.NonCoded = strings.TrimSpace(d.NonCoded)
}

// Validate checks a normalized diagnosis.
func (d *Diagnosis) Validate() error {
	if !validCertainties[d.Certainty] {
		return fmt.Errorf("invalid certainty: %s", d.Certainty)
	}
	if !validOrders[d.Order] {
		return fmt.Errorf("invalid order: %s", d.Order)
	}
	if d.Code == "" && d.NonCoded == "" {
		return fmt.Errorf("code or non_coded is required")
	}
	if d.Code != "" && d.NonCoded != "" {
		return fmt.Errorf("code and non_coded are mutually exclusive")
	}
	return nil
}

// Encounter carries the diagnoses already recorded for an encounter being
// viewed or edited.
type Encounter struct {
	ID        uuid.UUID   `json:"id"`
	Diagnoses []Diagnosis `json:"diagnoses,omitempty"`
}
