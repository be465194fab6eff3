package cli

import (
	"errors"
	"fmt"
)

// ErrUsage marks errors the user can fix from the command line. main exits
// with status 2 for them.
var ErrUsage = errors.New("cli usage error")

// usageError carries the message shown to the user and, when there is one,
// the failure behind it so callers can still match config or document errors.
type usageError struct {
	msg   string
	cause error
}

func newUsageError(msg string) error {
	return usageError{msg: msg}
}

// wrapUsage formats a usage message around cause and keeps cause reachable
// through errors.Is and errors.As.
func wrapUsage(cause error, format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...), cause: cause}
}

func (e usageError) Error() string {
	return e.msg
}

func (e usageError) Is(target error) bool {
	return target == ErrUsage
}

func (e usageError) Unwrap() error {
	return e.cause
}
