package instructions

import (
	"errors"
	"fmt"
)

// ErrEditResolved rejects body edits on tickets whose completion flag is set.
var ErrEditResolved = errors.New("cannot edit resolved tickets")

// ValidationError reports a malformed or missing draft field. Handlers
// surface it as a 400 with the message.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
