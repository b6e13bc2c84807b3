package config

import (
	"fmt"
	"io"
	"os"

	apperrors "github.com/louisbranch/skirmish/internal/platform/errors"
	"github.com/louisbranch/skirmish/internal/platform/errors/i18n"
)

// Exitf writes a formatted error message to stderr and exits with code 1.
// It provides a consistent fatal-exit pattern for CLI entry points.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// ExitError reports err on stderr using the locale's message catalog and
// exits with the code mapped from the error's domain code.
func ExitError(locale string, err error) {
	os.Exit(WriteError(os.Stderr, locale, err))
}

// WriteError renders err for an operator and returns the exit code to use.
func WriteError(w io.Writer, locale string, err error) int {
	code := apperrors.CodeOf(err)
	if code == apperrors.CodeUnknown {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 1
	}
	msg := i18n.GetCatalog(locale).Format(string(code), apperrors.MetadataOf(err))
	fmt.Fprintf(w, "Error: %s\n  (%v)\n", msg, err)
	return code.ExitCode()
}
