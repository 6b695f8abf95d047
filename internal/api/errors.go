package api

import (
	"errors"
	"fmt"
)

// StatusError is returned when the backend answers with a non-success status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned status %d", e.Code)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Code, e.Body)
}

// Permanent reports whether retrying the same request can ever succeed.
// Client errors are permanent except request timeout (408) and rate
// limiting (429); everything else, including transport failures, is
// treated as transient.
func (e *StatusError) Permanent() bool {
	return e.Code >= 400 && e.Code < 500 && e.Code != 408 && e.Code != 429
}

// IsPermanent classifies an arbitrary submission error.
func IsPermanent(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Permanent()
	}
	return false
}
