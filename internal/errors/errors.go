package errors

import (
	"errors"
	"fmt"
)

// Errors shared by the credential store backends.
var (
	ErrEmptyKey     = errors.New("credential key is empty")
	ErrStoreClosed  = errors.New("credential store closed")
	ErrWrongSecret  = errors.New("credential store secret does not match")
	ErrCorruptStore = errors.New("credential store is corrupt")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
