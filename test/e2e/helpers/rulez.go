package helpers

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"
)

// Binary is the executable under test, looked up in PATH.
const Binary = "rulez"

// RequireRulez skips the test if rulez is not available in PATH.
func RequireRulez(t *testing.T) {
	t.Helper()

	if !IsRulezAvailable() {
		t.Skip("rulez not found in PATH")
	}
}

// RequireGit skips the test if git is not available in PATH.
func RequireGit(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}
}

// IsRulezAvailable checks if rulez is available without skipping.
func IsRulezAvailable() bool {
	_, err := exec.LookPath(Binary)
	return err == nil
}

// Result is the outcome of one rulez process.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// JSON decodes stdout as a single JSON object.
func (r Result) JSON(t *testing.T) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal([]byte(r.Stdout), &body); err != nil {
		t.Fatalf("stdout is not a JSON object: %v\n%s", err, r.Stdout)
	}
	return body
}

// Run executes rulez in the project directory with stdin and extra
// environment variables. The audit log points at the project's log.
func (p *TempProject) Run(stdin string, env map[string]string, args ...string) Result {
	p.t.Helper()

	cmd := exec.Command(Binary, args...)
	cmd.Dir = p.Dir
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = append(os.Environ(), "RULEZ_LOG_PATH="+p.LogPath, "RULEZ_CONFIG=")
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		p.t.Fatalf("failed to run %s: %v", Binary, err)
	}
	return result
}
