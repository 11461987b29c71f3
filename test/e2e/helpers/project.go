package helpers

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// TempProject is a temporary project directory with its own audit log.
type TempProject struct {
	Dir     string
	LogPath string
	t       *testing.T
}

// NewTempProject creates an empty project directory removed after the test.
func NewTempProject(t *testing.T) *TempProject {
	t.Helper()

	dir := t.TempDir()
	return &TempProject{
		Dir:     dir,
		LogPath: filepath.Join(dir, "logs", "rulez.jsonl"),
		t:       t,
	}
}

// ConfigPath is the project configuration file.
func (p *TempProject) ConfigPath() string {
	return filepath.Join(p.Dir, ".claude", "hooks.yaml")
}

// WriteConfig writes .claude/hooks.yaml.
func (p *TempProject) WriteConfig(content string) {
	p.t.Helper()

	if err := p.CreateFile(filepath.Join(".claude", "hooks.yaml"), content); err != nil {
		p.t.Fatalf("failed to write config: %v", err)
	}
}

// CreateFile creates a file relative to the project directory.
func (p *TempProject) CreateFile(path, content string) error {
	p.t.Helper()

	fullPath := filepath.Join(p.Dir, path)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(fullPath, []byte(content), 0755); err != nil {
		return fmt.Errorf("failed to write file %s: %w", fullPath, err)
	}

	return nil
}

// InitGit turns the project into a git repository on the named branch.
func (p *TempProject) InitGit(branch string) {
	p.t.Helper()

	steps := [][]string{
		{"init"},
		{"checkout", "-b", branch},
		{"config", "user.email", "test@test.com"},
		{"config", "user.name", "Test User"},
	}
	for _, args := range steps {
		if _, err := p.RunGit(args...); err != nil {
			p.t.Fatalf("failed to initialize git repo: %v", err)
		}
	}
}

// RunGit runs a git command in the project.
func (p *TempProject) RunGit(args ...string) (string, error) {
	p.t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = p.Dir

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git command failed: %w: %s", err, string(output))
	}

	return string(output), nil
}
