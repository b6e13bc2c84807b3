package config_test

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/louisbranch/skirmish/internal/platform/config"
	apperrors "github.com/louisbranch/skirmish/internal/platform/errors"
)

// TestExitf_ExitsWithCode1 verifies that Exitf writes to stderr and exits
// with code 1. It uses the subprocess test pattern because os.Exit cannot be
// intercepted in-process.
func TestExitf_ExitsWithCode1(t *testing.T) {
	if os.Getenv("TEST_EXITF_SUBPROCESS") == "1" {
		config.Exitf("fatal: %s", "something broke")
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestExitf_ExitsWithCode1$")
	cmd.Env = append(os.Environ(), "TEST_EXITF_SUBPROCESS=1")

	out, err := cmd.CombinedOutput()

	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		t.Fatalf("expected *exec.ExitError, got %T: %v", err, err)
	}
	if exitErr.ExitCode() != 1 {
		t.Fatalf("expected exit code 1, got %d", exitErr.ExitCode())
	}
	if !strings.Contains(string(out), "fatal: something broke") {
		t.Fatalf("expected stderr to contain %q, got %q", "fatal: something broke", string(out))
	}
}

func TestWriteErrorUsesCatalog(t *testing.T) {
	var buf bytes.Buffer
	err := fmt.Errorf("survey: %w", apperrors.WithMetadata(apperrors.CodeRetryExhausted, "seed 9 failed",
		map[string]string{"Seed": "9", "Attempts": "3"}))

	code := config.WriteError(&buf, "en-US", err)
	if code != 3 {
		t.Fatalf("exit code = %d, want 3", code)
	}
	if !strings.Contains(buf.String(), "Seed 9 failed after 3 attempts") {
		t.Fatalf("output = %q, want catalog message", buf.String())
	}
}

func TestWriteErrorPlain(t *testing.T) {
	var buf bytes.Buffer
	if code := config.WriteError(&buf, "", fmt.Errorf("boom")); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if got := buf.String(); got != "Error: boom\n" {
		t.Fatalf("output = %q", got)
	}
}
