// Package testutil provides fake engine executables for tests.
//
// The real engine is an opaque binary that reads a program artifact and
// writes progress lines to stdout. Tests substitute small POSIX shell
// scripts with scripted output, so every execution path (success, noise,
// non-zero exit, hang) is reproducible without the engine itself.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteEngineScript writes an executable shell script into a test temp dir
// and returns its path. body runs after the shebang; the artifact path is
// available as "$1". Skips the test on platforms without a POSIX shell.
func WriteEngineScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake engine scripts require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "qutrit-engine")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

// Measurement is one scripted [MEAS] report.
type Measurement struct {
	Chunk int
	Value int64
}

// MeasurementScript returns a fake engine that prints the given measurement
// reports (interleaved with diagnostic noise) and exits 0.
func MeasurementScript(t *testing.T, measurements ...Measurement) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("echo '[ENGINE] loaded program '\"$1\"\n")
	for _, m := range measurements {
		fmt.Fprintf(&b, "echo '[MEAS] Measuring chunk %d => %d'\n", m.Chunk, m.Value)
	}
	b.WriteString("echo '[ENGINE] done'")
	return WriteEngineScript(t, b.String())
}

// SilentScript returns a fake engine that prints nothing recognizable and
// exits with the given code.
func SilentScript(t *testing.T, exitCode int) string {
	t.Helper()
	return WriteEngineScript(t, fmt.Sprintf("echo 'warming up'\nexit %d", exitCode))
}

// HangingScript returns a fake engine that emits one noise line and then
// sleeps far past any test timeout. Killing it is the caller's job.
func HangingScript(t *testing.T) string {
	t.Helper()
	return WriteEngineScript(t, "echo 'spinning'\nsleep 300")
}
