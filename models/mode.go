package models

import (
	"fmt"
	"strings"
)

// Mode selects which inputs a generation needs and which prompt it uses.
type Mode string

const (
	// ModeConsultant lets the model pick a frame style that suits the face.
	ModeConsultant Mode = "CONSULTANT"
	// ModeTryOn composites a user-supplied pair of glasses onto the face.
	ModeTryOn Mode = "TRY_ON"
)

// ParseMode accepts the canonical names case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToUpper(strings.TrimSpace(s))) {
	case ModeConsultant:
		return ModeConsultant, nil
	case ModeTryOn:
		return ModeTryOn, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

func (m Mode) Valid() bool {
	return m == ModeConsultant || m == ModeTryOn
}
