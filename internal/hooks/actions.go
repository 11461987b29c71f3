package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/command"
	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/config"
	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/expression"
	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/models"
)

// blockIfMatchFields are the tool_input strings scanned by block_if_match,
// in addition to the prompt.
var blockIfMatchFields = []string{"command", "content", "new_string"}

// scriptOutput is the optional JSON a script may print on stdout.
type scriptOutput struct {
	Continue *bool  `json:"continue"`
	Context  string `json:"context"`
	Reason   string `json:"reason"`
}

// parseScriptOutput honours a JSON object on stdout. Any other output
// is treated as context to inject.
func parseScriptOutput(stdout string) scriptOutput {
	trimmed := strings.TrimSpace(stdout)
	if trimmed == "" {
		return scriptOutput{}
	}

	var out scriptOutput
	if strings.HasPrefix(trimmed, "{") && json.Unmarshal([]byte(trimmed), &out) == nil {
		return out
	}
	return scriptOutput{Context: trimmed}
}

func (o scriptOutput) allowed() bool {
	return o.Continue == nil || *o.Continue
}

// blockReason checks the block, block_if_match and validate_expr actions.
// A non-nil error is an execution failure.
func (e *Engine) blockReason(rule *config.Rule, event *models.Event, exprCtx expression.Context) (string, bool, error) {
	actions := &rule.Actions

	if actions.Block {
		if rule.Description != "" {
			return fmt.Sprintf("Blocked by rule '%s': %s", rule.Name, rule.Description), true, nil
		}
		return fmt.Sprintf("Blocked by rule '%s'", rule.Name), true, nil
	}

	if actions.BlockIfMatch != "" {
		re, err := e.cache.GetOrCompile(actions.BlockIfMatch)
		if err != nil {
			return "", false, fmt.Errorf("block_if_match: %w", err)
		}
		for _, text := range blockIfMatchTargets(event) {
			if re.MatchString(text) {
				return fmt.Sprintf("Blocked by rule '%s': content matches pattern '%s'", rule.Name, actions.BlockIfMatch), true, nil
			}
		}
	}

	if actions.ValidateExpr != "" {
		ok, err := e.evaluator.Eval(actions.ValidateExpr, exprCtx)
		if err != nil {
			return "", false, fmt.Errorf("validate_expr: %w", err)
		}
		if !ok {
			return fmt.Sprintf("Blocked by rule '%s': validation failed: %s", rule.Name, actions.ValidateExpr), true, nil
		}
	}

	return "", false, nil
}

func blockIfMatchTargets(event *models.Event) []string {
	var targets []string
	for _, field := range blockIfMatchFields {
		if value, ok := event.ToolInput.GetString(field); ok && value != "" {
			targets = append(targets, value)
		}
	}
	if prompt, ok := event.PromptText(); ok && prompt != "" {
		targets = append(targets, prompt)
	}
	return targets
}

// runScript executes a validator script with the event on stdin.
// Timeouts, spawn errors and nonzero exits are execution failures.
func (e *Engine) runScript(ctx context.Context, rule *config.Rule, event *models.Event, label, script string) (scriptOutput, error) {
	result, err := e.shell(ctx, rule, event, label, script)
	if err != nil {
		return scriptOutput{}, err
	}
	return parseScriptOutput(result.Stdout), nil
}

// injection resolves the rule's context in precedence order:
// inject_inline, then inject_command, then inject.
func (e *Engine) injection(ctx context.Context, rule *config.Rule, event *models.Event) (string, string, error) {
	actions := &rule.Actions

	switch {
	case actions.InjectInline != "":
		return "inject_inline", actions.InjectInline, nil
	case actions.InjectCommand != "":
		result, err := e.shell(ctx, rule, event, "inject_command", actions.InjectCommand)
		if err != nil {
			return "inject_command", "", err
		}
		return "inject_command", strings.TrimRight(result.Stdout, "\n"), nil
	case actions.Inject != "":
		path := e.resolvePath(actions.Inject, event)
		data, err := os.ReadFile(path)
		if err != nil {
			return "inject", "", fmt.Errorf("inject: failed to read %s: %w", path, err)
		}
		return "inject", string(data), nil
	default:
		return "", "", nil
	}
}

// shell runs script through the command runner with the rule's timeout.
func (e *Engine) shell(ctx context.Context, rule *config.Rule, event *models.Event, label, script string) (*command.Result, error) {
	stdin, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to encode event: %w", label, err)
	}

	result, err := e.runner.Run(ctx, command.Request{
		Command: script,
		Dir:     workDir(event),
		Stdin:   stdin,
		Env:     scriptEnv(rule, event),
		Timeout: e.scriptTimeout(rule),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	if result.ExitCode != 0 {
		msg := strings.TrimSpace(result.Stderr)
		if msg == "" {
			msg = "no stderr output"
		}
		return nil, fmt.Errorf("%s exited with code %d: %s", label, result.ExitCode, msg)
	}

	return result, nil
}

func (e *Engine) scriptTimeout(rule *config.Rule) time.Duration {
	if seconds := rule.TimeoutSeconds(); seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return e.cfg.Settings.ScriptTimeoutDuration()
}

// resolvePath anchors relative inject paths at the event's working directory.
func (e *Engine) resolvePath(path string, event *models.Event) string {
	if filepath.IsAbs(path) || event.Cwd == "" {
		return path
	}
	return filepath.Join(event.Cwd, path)
}

func scriptEnv(rule *config.Rule, event *models.Event) []string {
	return []string{
		"RULEZ_EVENT_TYPE=" + string(event.EventType),
		"RULEZ_TOOL_NAME=" + event.ToolName,
		"RULEZ_SESSION_ID=" + event.SessionID,
		"RULEZ_RULE_NAME=" + rule.Name,
	}
}

// workDir returns the event cwd when it is an existing directory.
func workDir(event *models.Event) string {
	if event.Cwd == "" {
		return ""
	}
	if info, err := os.Stat(event.Cwd); err != nil || !info.IsDir() {
		return ""
	}
	return event.Cwd
}
