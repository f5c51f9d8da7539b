package tracking

import "errors"

var (
	// ErrInvalidTransition marks a lifecycle call that the current status does
	// not allow, such as finishing a session that never started.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrInvalidInput marks out-of-range arguments such as a negative target.
	ErrInvalidInput = errors.New("invalid tracking input")
)
