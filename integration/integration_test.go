//go:build integration

package integration

import (
	"errors"
	"os/exec"
	"runtime"
	"testing"

	"github.com/wagiedev/procsup-go"
)

// requireTools skips the test unless every named tool is on PATH.
func requireTools(t *testing.T, tools ...string) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("Integration tests use POSIX tools")
	}

	for _, tool := range tools {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not installed", tool)
		}
	}
}

// skipIfNotFound skips the test if err says the executable is missing.
func skipIfNotFound(t *testing.T, err error) {
	t.Helper()

	if _, ok := errors.AsType[*procsup.SpawnError](err); ok && errors.Is(err, procsup.ErrExecutableNotFound) {
		t.Skip("executable not installed")
	}
}
