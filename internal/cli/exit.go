// Package cli holds the small pieces cmd/quarkdep needs that don't
// belong in cobra's own command tree: the typed exit-code error.
package cli

import "fmt"

// ExitError carries the process exit code a command wants on failure,
// the way agent-readyness's own cmd package unwraps a *types.ExitError
// in Execute().
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Message
}

// NewExitError builds an ExitError with a formatted message.
func NewExitError(code int, format string, args ...any) *ExitError {
	return &ExitError{Code: code, Message: fmt.Sprintf(format, args...)}
}
