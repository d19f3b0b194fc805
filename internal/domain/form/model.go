package form

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a form definition does not exist.
	ErrNotFound = errors.New("form not found")
	// ErrInvalid marks a request the caller has to fix.
	ErrInvalid = errors.New("invalid form request")
)

// Form is a stored HTML form definition. Markup is the <htmlform> document
// whose custom tags are expanded at render time.
type Form struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Version     string    `db:"version" json:"version"`
	Description *string   `db:"description" json:"description,omitempty"`
	Markup      string    `db:"markup" json:"markup"`
	Retired     bool      `db:"retired" json:"retired"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
