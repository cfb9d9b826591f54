package main

import (
	"errors"
	"fmt"
	"testing"
)

func TestExitErrorFormatting(t *testing.T) {
	err := exitError(ExitConversionFailed, "typeshift: converting %s: %v", "a/b", errors.New("boom"))
	if err.Error() != "typeshift: converting a/b: boom" {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.ExitCode() != ExitConversionFailed {
		t.Errorf("ExitCode() = %d, want %d", err.ExitCode(), ExitConversionFailed)
	}
}

func TestExitErrorEmptyMessage(t *testing.T) {
	err := exitError(ExitInvalidArgs, "")
	if err.Error() != "typeshift: error" {
		t.Errorf("Error() = %q, want generic message", err.Error())
	}
}

func TestExitErrorSurvivesWrapping(t *testing.T) {
	inner := exitError(ExitInvalidArgs, "bad path")
	wrapped := fmt.Errorf("while starting: %w", inner)

	var ece *exitCodeError
	if !errors.As(wrapped, &ece) {
		t.Fatal("errors.As failed to find exitCodeError")
	}
	if ece.ExitCode() != ExitInvalidArgs {
		t.Errorf("ExitCode() = %d, want %d", ece.ExitCode(), ExitInvalidArgs)
	}
}
