package stylist

import "errors"

var (
	ErrBusy             = errors.New("another request is already in progress")
	ErrNoSubjectImage   = errors.New("no subject image uploaded")
	ErrMissingReference = errors.New("try-on mode needs a reference eyewear image")
	ErrEmptyMessage     = errors.New("message is empty")
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidMode      = errors.New("invalid mode")
)

// ValidationError is raised before any network call when required input
// is missing. Message is the alert shown to the user.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// AlertError reports a failed generation. Message is the alert shown to the
// user, Err the underlying cause.
type AlertError struct {
	Message string
	Err     error
}

func (e *AlertError) Error() string { return "generation failed: " + e.Err.Error() }
func (e *AlertError) Unwrap() error { return e.Err }
