package main

import "fmt"

// Exit codes for the typeshift CLI.
const (
	ExitOK               = 0 // Conversion completed.
	ExitInvalidArgs      = 1 // Invalid arguments or bad path.
	ExitConversionFailed = 2 // A conversion step failed; working copy may hold partial changes.
	ExitSubmissionFailed = 3 // Conversion succeeded but committing or submitting the changeset failed.
)

// exitCodeError carries a non-zero exit code through cobra's error handling.
type exitCodeError struct {
	code int
	msg  string
}

func (e *exitCodeError) Error() string { return e.msg }

// ExitCode returns the process exit code for this error.
func (e *exitCodeError) ExitCode() int { return e.code }

// exitError creates an exitCodeError. If msg is empty, a generic message is
// used.
func exitError(code int, format string, args ...any) *exitCodeError {
	msg := fmt.Sprintf(format, args...)
	if msg == "" {
		msg = "typeshift: error"
	}
	return &exitCodeError{code: code, msg: msg}
}
