// Package errs distinguishes requester-caused failures from internal ones.
// User errors are surfaced verbatim to whoever triggered them; everything
// else is logged with full context and reported only as a generic failure.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// UserError marks an error as caused by the requester's input or state.
type UserError struct {
	Err error
}

func (e *UserError) Error() string { return e.Err.Error() }

func (e *UserError) Unwrap() error { return e.Err }

// User wraps err as a user error. A nil err stays nil.
func User(err error) error {
	if err == nil {
		return nil
	}
	return &UserError{Err: err}
}

// Userf formats a new user error.
func Userf(format string, args ...any) error {
	return &UserError{Err: fmt.Errorf(format, args...)}
}

// IsUser reports whether any error in the chain is a user error.
func IsUser(err error) bool {
	var ue *UserError
	return errors.As(err, &ue)
}

// DedupeChain renders an error chain with directly repeated messages
// collapsed, so stacked contexts that add nothing don't echo.
func DedupeChain(err error) string {
	if err == nil {
		return ""
	}

	var messages []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		messages = append(messages, e.Error())
	}

	// Each level usually embeds the next; reduce every level to the text it
	// adds, then drop directly repeated contexts.
	var parts []string
	for i, msg := range messages {
		if i+1 < len(messages) {
			if trimmed, ok := strings.CutSuffix(msg, messages[i+1]); ok {
				msg = strings.TrimSuffix(trimmed, ": ")
				if msg == "" {
					continue
				}
			}
		}
		if len(parts) == 0 || parts[len(parts)-1] != msg {
			parts = append(parts, msg)
		}
	}

	return strings.Join(parts, ": ")
}
