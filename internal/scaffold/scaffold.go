// Package scaffold renders starter rule configurations for `rulez init`.
package scaffold

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"text/template"

	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/config"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

const (
	templateDir = "templates"
	templateExt = ".tmpl"

	// DefaultTemplate is used when no template is named.
	DefaultTemplate = "minimal"
)

// ErrExists is returned when the target file exists and force is not set.
var ErrExists = errors.New("configuration already exists")

// Data holds the values substituted into a starter template.
type Data struct {
	Project       string
	Version       string
	ScriptTimeout int
}

// DefaultData returns the template data for a project directory.
func DefaultData(root string) Data {
	project := filepath.Base(root)
	if abs, err := filepath.Abs(root); err == nil {
		project = filepath.Base(abs)
	}
	defaults := config.Default()
	return Data{
		Project:       project,
		Version:       defaults.Version,
		ScriptTimeout: defaults.Settings.ScriptTimeout,
	}
}

// Engine holds the parsed starter templates.
type Engine struct {
	templates *template.Template
	names     []string
}

// NewEngine loads the embedded templates.
func NewEngine() (*Engine, error) {
	return NewEngineWithFS(templatesFS)
}

// NewEngineWithFS loads every .tmpl file under templates/ in fsys.
func NewEngineWithFS(fsys fs.FS) (*Engine, error) {
	entries, err := fs.ReadDir(fsys, templateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read templates: %w", err)
	}

	engine := &Engine{templates: template.New("scaffold")}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), templateExt) {
			continue
		}

		file := path.Join(templateDir, entry.Name())
		content, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("failed to read template file %s: %w", file, err)
		}

		name := strings.TrimSuffix(entry.Name(), templateExt)
		if _, err := engine.templates.New(name).Option("missingkey=error").Parse(string(content)); err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", file, err)
		}
		engine.names = append(engine.names, name)
	}
	slices.Sort(engine.names)

	return engine, nil
}

// List returns the available template names.
func (e *Engine) List() []string {
	return slices.Clone(e.names)
}

// Render executes the named template and checks that the result is a
// valid configuration.
func (e *Engine) Render(name string, data Data) (string, error) {
	tmpl := e.templates.Lookup(name)
	if tmpl == nil || !slices.Contains(e.names, name) {
		return "", fmt.Errorf("template %q not found (available: %s)", name, strings.Join(e.names, ", "))
	}

	var out strings.Builder
	if err := tmpl.Execute(&out, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	if _, err := config.Parse([]byte(out.String())); err != nil {
		return "", fmt.Errorf("template %s produced an invalid configuration: %w", name, err)
	}
	return out.String(), nil
}

// InitConfig writes the named template to <root>/.claude/hooks.yaml and
// returns the written path. An existing file is kept unless force is set.
func (e *Engine) InitConfig(root, name string, force bool) (string, error) {
	target := filepath.Join(root, config.DirName, config.FileName)

	if !force {
		if _, err := os.Stat(target); err == nil {
			return target, fmt.Errorf("%w: %s (use --force to overwrite)", ErrExists, target)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return target, fmt.Errorf("failed to check %s: %w", target, err)
		}
	}

	content, err := e.Render(name, DefaultData(root))
	if err != nil {
		return target, err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return target, fmt.Errorf("failed to create directory %s: %w", filepath.Dir(target), err)
	}
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		return target, fmt.Errorf("failed to write file %s: %w", target, err)
	}
	return target, nil
}
