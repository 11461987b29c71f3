// Package expression evaluates the boolean expressions used by
// enabled_when and validate_expr.
//
// Expressions use the expr language (https://expr-lang.org), for example:
//
//	tool_name == "Bash" && env_CI != "true"
//	has_field("options.force") && get_field("options.force") == true
package expression

import (
	"fmt"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/models"
)

// envVarPrefix prefixes flattened environment variables in the context.
const envVarPrefix = "env_"

// schema declares the typed variables every context carries.
// Environment variables are resolved dynamically, so undefined
// identifiers are allowed and evaluate to nil.
func schema() map[string]any {
	return map[string]any{
		"tool_name":       "",
		"event_type":      "",
		"session_id":      "",
		"cwd":             "",
		"prompt":          "",
		"permission_mode": "",
		"command":         "",
		"command_name":    "",
		"command_args":    []string{},
		"file_path":       "",
		"tool_input":      map[string]any{},
		"env":             map[string]string{},
		"has_field":       func(string) bool { return false },
		"get_field":       func(string) any { return nil },
	}
}

func compile(source string) (*vm.Program, error) {
	program, err := expr.Compile(source,
		expr.Env(schema()),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid expression %q: %w", source, err)
	}
	return program, nil
}

// Check reports whether source compiles as a boolean expression.
func Check(source string) error {
	_, err := compile(source)
	return err
}

// Evaluator compiles expressions once and evaluates them against contexts.
type Evaluator struct {
	mu       sync.Mutex
	programs map[string]*vm.Program
}

// NewEvaluator creates an evaluator with an empty program cache.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		programs: make(map[string]*vm.Program),
	}
}

func (e *Evaluator) program(source string) (*vm.Program, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if program, ok := e.programs[source]; ok {
		return program, nil
	}

	program, err := compile(source)
	if err != nil {
		return nil, err
	}
	e.programs[source] = program
	return program, nil
}

// Eval evaluates source against ctx and returns its boolean result.
func (e *Evaluator) Eval(source string, ctx Context) (bool, error) {
	program, err := e.program(source)
	if err != nil {
		return false, err
	}

	out, err := expr.Run(program, map[string]any(ctx))
	if err != nil {
		return false, fmt.Errorf("evaluate %q: %w", source, err)
	}

	result, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("expression %q returned %T, want bool", source, out)
	}
	return result, nil
}

// Context is the variable set an expression is evaluated against.
type Context map[string]any

// NewContext exposes the event fields and the given environment
// (KEY=VALUE pairs, as returned by os.Environ) to expressions.
func NewContext(event *models.Event, environ []string) Context {
	toolInput := map[string]any{}
	for k, v := range event.ToolInput {
		toolInput[k] = v
	}

	ctx := Context{
		"tool_name":       event.ToolName,
		"event_type":      string(event.EventType),
		"session_id":      event.SessionID,
		"cwd":             event.Cwd,
		"permission_mode": event.PermissionMode,
		"command":         "",
		"command_name":    "",
		"command_args":    []string{},
		"file_path":       "",
		"tool_input":      toolInput,
		"has_field": func(path string) bool {
			_, ok := event.ToolInput.Lookup(path)
			return ok
		},
		"get_field": func(path string) any {
			value, _ := event.ToolInput.Lookup(path)
			return value
		},
	}

	prompt, _ := event.PromptText()
	ctx["prompt"] = prompt
	if command, ok := event.Command(); ok {
		ctx["command"] = command
	}
	if path, ok := event.FilePath(); ok {
		ctx["file_path"] = path
	}

	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		env[name] = value
		ctx[envVarPrefix+name] = value
	}
	ctx["env"] = env

	return ctx
}
