package game

import "fmt"

// InvalidActionError is returned when an action fails validation. The state
// is never modified when it is returned.
type InvalidActionError struct {
	Reason string
}

func (e *InvalidActionError) Error() string {
	return "invalid action: " + e.Reason
}

func invalid(format string, args ...interface{}) error {
	return &InvalidActionError{Reason: fmt.Sprintf(format, args...)}
}

// EngineBug is the panic value raised when an engine invariant is violated.
type EngineBug struct {
	Message string
}

func (b EngineBug) Error() string {
	return "engine bug: " + b.Message
}

func engineBug(format string, args ...interface{}) {
	panic(EngineBug{Message: fmt.Sprintf(format, args...)})
}
