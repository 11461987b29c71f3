// Package hooks evaluates canonical events against the configured rules
// and turns one hook invocation into one reply.
package hooks

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/google/uuid"

	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/audit"
	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/command"
	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/config"
	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/expression"
	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/logging"
	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/models"
	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/pattern"
)

// Evaluation is the result of one pipeline run.
type Evaluation struct {
	Response *models.Response
	LogEntry *models.LogEntry
}

// Engine evaluates events against a configuration snapshot.
type Engine struct {
	cfg       *config.Config
	rules     []*config.Rule
	cache     *pattern.Cache
	matcher   *Matcher
	evaluator *expression.Evaluator
	runner    command.Runner
	sink      audit.Sink
	clock     Clock
	environ   func() []string
	logger    *slog.Logger
	debug     bool
	platform  string
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegexCache shares a compiled-regex cache with the engine.
func WithRegexCache(cache *pattern.Cache) Option {
	return func(e *Engine) {
		e.cache = cache
	}
}

// WithRunner sets the subprocess runner used by scripts and inject_command.
func WithRunner(runner command.Runner) Option {
	return func(e *Engine) {
		e.runner = runner
	}
}

// WithSink sets where audit entries are written.
func WithSink(sink audit.Sink) Option {
	return func(e *Engine) {
		e.sink = sink
	}
}

// WithClock sets the time source.
func WithClock(clock Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithEnviron sets the environment exposed to enabled_when expressions.
func WithEnviron(environ func() []string) Option {
	return func(e *Engine) {
		e.environ = environ
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithDebug records the per-rule trace and the raw event in audit entries.
func WithDebug(debug bool) Option {
	return func(e *Engine) {
		e.debug = debug
	}
}

// WithPlatform names the adapter in audit entries.
func WithPlatform(name string) Option {
	return func(e *Engine) {
		e.platform = name
	}
}

// NewEngine creates an engine for cfg, which must already be validated.
// A nil cfg means the default configuration.
func NewEngine(cfg *config.Config, opts ...Option) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}

	e := &Engine{
		cfg:       cfg,
		cache:     pattern.NewCache(),
		evaluator: expression.NewEvaluator(),
		runner:    command.NewRunner(),
		sink:      audit.NopSink{},
		clock:     NewRealClock(),
		environ:   os.Environ,
		logger:    logging.Discard(),
		debug:     cfg.Settings.DebugLogs,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.matcher = NewMatcher(e.cache)

	e.rules = make([]*config.Rule, len(cfg.Rules))
	for i := range cfg.Rules {
		e.rules[i] = &cfg.Rules[i]
	}
	slices.SortStableFunc(e.rules, func(a, b *config.Rule) int {
		return cmp.Compare(b.EffectivePriority(), a.EffectivePriority())
	})

	return e
}

// Config returns the configuration snapshot the engine evaluates.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// RegexCache returns the engine's compiled-regex cache.
func (e *Engine) RegexCache() *pattern.Cache {
	return e.cache
}

// Rules returns the rules in evaluation order.
func (e *Engine) Rules() []*config.Rule {
	return slices.Clone(e.rules)
}

// Evaluate runs every active rule against event in priority order.
// The first blocking rule stops evaluation.
func (e *Engine) Evaluate(ctx context.Context, event *models.Event) (*Evaluation, error) {
	if event == nil {
		return nil, errors.New("event cannot be nil")
	}

	start := e.clock.Now()
	d := newDecision()
	exprCtx := e.expressionContext(event)

	var trace []models.RuleEvaluation
	rulesEvaluated := 0

	for _, rule := range e.rules {
		ruleStart := e.clock.Now()
		eval := models.RuleEvaluation{
			RuleName: rule.Name,
			Priority: rule.EffectivePriority(),
			Mode:     string(rule.EffectiveMode()),
		}

		active, detail := e.isActive(rule, exprCtx)
		if !active {
			eval.Detail = detail
			trace = append(trace, eval)
			continue
		}
		eval.Enabled = true
		rulesEvaluated++

		matched, detail, err := e.matcher.match(rule, event)
		eval.Detail = detail
		if err != nil {
			stop := e.handleFailure(d, rule, fmt.Errorf("matchers: %w", err))
			eval.Detail = err.Error()
			eval.DurationMs = e.clock.Since(ruleStart).Milliseconds()
			trace = append(trace, eval)
			if stop {
				break
			}
			continue
		}
		if !matched {
			eval.DurationMs = e.clock.Since(ruleStart).Milliseconds()
			trace = append(trace, eval)
			continue
		}

		eval.Matched = true
		d.matched = append(d.matched, rule.Name)
		stop := e.apply(ctx, rule, event, exprCtx, d, &eval)
		eval.DurationMs = e.clock.Since(ruleStart).Milliseconds()
		trace = append(trace, eval)
		if stop {
			break
		}
	}

	resp := d.response()
	resp.Timing = &models.Timing{
		ProcessingMs:   e.clock.Since(start).Milliseconds(),
		RulesEvaluated: rulesEvaluated,
	}

	entry := e.logEntry(event, resp, d, trace)
	if err := e.sink.Write(ctx, entry); err != nil {
		e.logger.Warn("failed to write audit entry", "error", err)
	}

	return &Evaluation{Response: resp, LogEntry: entry}, nil
}

// isActive applies metadata.enabled and enabled_when. A runtime error
// in enabled_when deactivates the rule.
func (e *Engine) isActive(rule *config.Rule, exprCtx expression.Context) (bool, string) {
	if !rule.IsEnabled() {
		return false, "disabled by metadata.enabled"
	}
	if rule.EnabledWhen == "" {
		return true, ""
	}

	ok, err := e.evaluator.Eval(rule.EnabledWhen, exprCtx)
	if err != nil {
		e.logger.Warn("enabled_when evaluation failed, rule skipped", "rule", rule.Name, "error", err)
		return false, fmt.Sprintf("enabled_when error: %v", err)
	}
	if !ok {
		return false, "enabled_when is false"
	}
	return true, ""
}

// apply runs a matched rule's actions and reports whether evaluation stops.
func (e *Engine) apply(ctx context.Context, rule *config.Rule, event *models.Event, exprCtx expression.Context, d *decision, eval *models.RuleEvaluation) bool {
	mode := rule.EffectiveMode()
	if mode == config.ModeAudit {
		eval.Detail = "audit mode: actions skipped"
		return false
	}

	reason, blocked, err := e.blockReason(rule, event, exprCtx)
	if err != nil {
		eval.Actions = append(eval.Actions, "failure")
		return e.handleFailure(d, rule, err)
	}
	if blocked {
		eval.Actions = append(eval.Actions, "block")
		if e.enforceBlock(d, rule, reason) {
			return true
		}
	}

	scripts := []struct{ label, source string }{
		{label: "run", source: runSource(rule)},
		{label: "inline_script", source: rule.Actions.InlineScript},
	}
	for _, script := range scripts {
		if script.source == "" {
			continue
		}
		eval.Actions = append(eval.Actions, script.label)

		out, err := e.runScript(ctx, rule, event, script.label, script.source)
		if err != nil {
			if e.handleFailure(d, rule, err) {
				return true
			}
			continue
		}
		if !out.allowed() {
			reason := out.Reason
			if reason == "" {
				reason = fmt.Sprintf("Blocked by rule '%s': %s rejected the action", rule.Name, script.label)
			}
			if e.enforceBlock(d, rule, reason) {
				return true
			}
			continue
		}
		if out.Context != "" {
			if e.addContext(d, rule, out.Context) {
				return true
			}
		}
	}

	source, text, err := e.injection(ctx, rule, event)
	if source != "" {
		eval.Actions = append(eval.Actions, source)
	}
	if err != nil {
		return e.handleFailure(d, rule, err)
	}
	if text != "" {
		return e.addContext(d, rule, text)
	}

	return false
}

func runSource(rule *config.Rule) string {
	if rule.Actions.Run == nil {
		return ""
	}
	return rule.Actions.Run.Script
}

// enforceBlock blocks in enforce mode. In warn mode the reason is injected
// as a warning and evaluation continues.
func (e *Engine) enforceBlock(d *decision, rule *config.Rule, reason string) bool {
	if rule.EffectiveMode() == config.ModeWarn {
		e.logger.Info("rule in warn mode would block", "rule", rule.Name, "reason", reason)
		return e.addContext(d, rule, "Warning: "+reason)
	}
	d.block(rule.Name, reason)
	return true
}

// addContext appends text unless it would exceed settings.max_context_size.
func (e *Engine) addContext(d *decision, rule *config.Rule, text string) bool {
	if size := d.contextSizeWith(text); size > e.cfg.Settings.MaxContextSize {
		return e.handleFailure(d, rule, fmt.Errorf("context size %d exceeds max_context_size %d", size, e.cfg.Settings.MaxContextSize))
	}
	d.inject(text)
	return false
}

// handleFailure applies settings.fail_open to an execution failure and
// reports whether evaluation stops.
func (e *Engine) handleFailure(d *decision, rule *config.Rule, err error) bool {
	e.logger.Warn("rule execution failed", "rule", rule.Name, "fail_open", e.cfg.Settings.FailOpen, "error", err)

	if e.cfg.Settings.FailOpen {
		d.warn(fmt.Sprintf("rule '%s' failed: %v", rule.Name, err))
		return false
	}

	d.block(rule.Name, fmt.Sprintf("Blocked by rule '%s': execution failed (fail_open is false): %v", rule.Name, err))
	return true
}

// expressionContext builds the enabled_when and validate_expr variables.
func (e *Engine) expressionContext(event *models.Event) expression.Context {
	ctx := expression.NewContext(event, e.environ())
	if cmdline, ok := event.Command(); ok {
		name, args := commandFacts(cmdline)
		ctx["command_name"] = name
		ctx["command_args"] = args
	}
	return ctx
}

func (e *Engine) logEntry(event *models.Event, resp *models.Response, d *decision, trace []models.RuleEvaluation) *models.LogEntry {
	entry := &models.LogEntry{
		Timestamp:    e.clock.Now().UTC(),
		InvocationID: uuid.NewString(),
		Platform:     e.platform,
		EventType:    event.EventType,
		SessionID:    event.SessionID,
		ToolName:     event.ToolName,
		RulesMatched: d.matched,
		Outcome:      resp.Outcome(),
		Reason:       resp.Reason,
		Timing:       *resp.Timing,
	}

	if e.debug {
		entry.RawEvent = event
		entry.RuleEvaluations = trace
		entry.Response = models.Summarize(resp)
	}

	return entry
}
