package model

import "github.com/rotisserie/eris"

// Mode selects which comparison passes a detection run executes.
type Mode string

const (
	ModeAll       Mode = "all"
	ModeSecured   Mode = "secured"   // secured self-comparison only
	ModeCross     Mode = "cross"     // unsecured vs secured only
	ModeUnsecured Mode = "unsecured" // unsecured self-comparison only
)

// ParseMode validates a mode string. "unsecured_secured" is accepted as
// a legacy alias for cross.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAll, ModeSecured, ModeCross, ModeUnsecured:
		return Mode(s), nil
	}
	if s == "unsecured_secured" {
		return ModeCross, nil
	}
	return "", eris.Errorf("model: unknown mode %q (want all, secured, cross or unsecured)", s)
}

// RunsSecuredSelf reports whether the secured self-comparison pass executes.
func (m Mode) RunsSecuredSelf() bool { return m == ModeAll || m == ModeSecured }

// RunsCross reports whether the unsecured-vs-secured pass executes.
func (m Mode) RunsCross() bool { return m == ModeAll || m == ModeCross }

// RunsUnsecuredSelf reports whether the unsecured self-comparison pass executes.
func (m Mode) RunsUnsecuredSelf() bool { return m == ModeAll || m == ModeUnsecured }
