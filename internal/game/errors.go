package game

import "fmt"

// ErrorKind classifies user-caused command failures so callers can react
// without string inspection.
type ErrorKind int

const (
	// KindMissingRequired means a slot had no matching input and no default.
	KindMissingRequired ErrorKind = iota

	// KindInvalidValue means a token did not parse as the slot's type. The
	// parser may still fall back to the slot's default.
	KindInvalidValue

	// KindInvalidIndex means a card index referenced a position outside the
	// pile.
	KindInvalidIndex

	// KindAmbiguousReference means a syntactically valid token named
	// something that does not exist. Never falls back to defaults.
	KindAmbiguousReference

	// KindPermissionDenied means the actor referenced a pile they may not
	// access. Never falls back to defaults.
	KindPermissionDenied

	// KindUnknownCommand means the verb itself is not recognized.
	KindUnknownCommand
)

// CommandError is a user-caused validation or parse failure. It is shown to
// the issuing participant, never broadcast, and never mutates state. Any
// error that is not a *CommandError is an internal fault.
type CommandError struct {
	Kind    ErrorKind
	Message string
}

func (e *CommandError) Error() string {
	return e.Message
}

// Definite reports whether the error identifies a definitively wrong
// reference, in which case the parser must not try a slot default.
func (e *CommandError) Definite() bool {
	return e.Kind == KindAmbiguousReference || e.Kind == KindPermissionDenied
}

func commandErrorf(kind ErrorKind, format string, args ...any) *CommandError {
	return &CommandError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
