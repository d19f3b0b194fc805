package htmlform

import (
	"fmt"
	"strings"
)

// Mode is the context a form is rendered in.
type Mode int

const (
	ModeEnter Mode = iota
	ModeEdit
	ModeView
)

var modeNames = map[Mode]string{
	ModeEnter: "ENTER",
	ModeEdit:  "EDIT",
	ModeView:  "VIEW",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode resolves a mode name case-insensitively. Empty means ENTER.
func ParseMode(s string) (Mode, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ModeEnter, nil
	}
	for m, name := range modeNames {
		if strings.EqualFold(s, name) {
			return m, nil
		}
	}
	return ModeEnter, fmt.Errorf("invalid mode: %s", s)
}
