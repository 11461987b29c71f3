package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/pattern"
)

// DefaultPriority applies when neither priority nor metadata.priority is set.
const DefaultPriority = 50

// Mode controls how a matching rule's actions take effect.
type Mode string

const (
	// ModeEnforce applies every action. It is the default.
	ModeEnforce Mode = "enforce"
	// ModeWarn turns blocks into injected warnings.
	ModeWarn Mode = "warn"
	// ModeAudit records the match without running any action.
	ModeAudit Mode = "audit"
)

// Rule is one user-authored policy.
type Rule struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description,omitempty"`
	EnabledWhen string        `yaml:"enabled_when,omitempty"`
	Matchers    Matchers      `yaml:"matchers"`
	Actions     Actions       `yaml:"actions"`
	Priority    *int          `yaml:"priority,omitempty"`
	Mode        Mode          `yaml:"mode,omitempty"`
	Metadata    *RuleMetadata `yaml:"metadata,omitempty"`
}

// RuleMetadata carries legacy and descriptive rule attributes.
type RuleMetadata struct {
	Priority *int     `yaml:"priority,omitempty"`
	Enabled  *bool    `yaml:"enabled,omitempty"`
	Timeout  int      `yaml:"timeout,omitempty"`
	Author   string   `yaml:"author,omitempty"`
	Tags     []string `yaml:"tags,omitempty"`
}

// EffectivePriority resolves priority, then metadata.priority, then the default.
func (r *Rule) EffectivePriority() int {
	if r.Priority != nil {
		return *r.Priority
	}
	if r.Metadata != nil && r.Metadata.Priority != nil {
		return *r.Metadata.Priority
	}
	return DefaultPriority
}

// IsEnabled reports metadata.enabled, which defaults to true.
func (r *Rule) IsEnabled() bool {
	if r.Metadata != nil && r.Metadata.Enabled != nil {
		return *r.Metadata.Enabled
	}
	return true
}

// EffectiveMode returns the rule mode, defaulting to enforce.
func (r *Rule) EffectiveMode() Mode {
	if r.Mode == "" {
		return ModeEnforce
	}
	return Mode(strings.ToLower(string(r.Mode)))
}

// TimeoutSeconds resolves the script timeout for this rule.
// Returns 0 when the settings default should be used.
func (r *Rule) TimeoutSeconds() int {
	if r.Actions.Run != nil && r.Actions.Run.Timeout > 0 {
		return r.Actions.Run.Timeout
	}
	if r.Metadata != nil && r.Metadata.Timeout > 0 {
		return r.Metadata.Timeout
	}
	return 0
}

// Matchers are AND-ed predicates. An empty predicate imposes no constraint.
type Matchers struct {
	Tools         []string          `yaml:"tools,omitempty"`
	Extensions    []string          `yaml:"extensions,omitempty"`
	Directories   []string          `yaml:"directories,omitempty"`
	Operations    []string          `yaml:"operations,omitempty"`
	CommandMatch  string            `yaml:"command_match,omitempty"`
	PromptMatch   *PromptMatch      `yaml:"prompt_match,omitempty"`
	RequireFields []string          `yaml:"require_fields,omitempty"`
	FieldTypes    map[string]string `yaml:"field_types,omitempty"`
}

// MatchMode selects how multiple prompt patterns combine.
type MatchMode string

const (
	MatchAny MatchMode = "any"
	MatchAll MatchMode = "all"
)

// PromptMatch is either a plain list of patterns or a mapping with options.
//
//	prompt_match: ["delete", "drop database"]
//
//	prompt_match:
//	  patterns: ["deploy", "not:staging"]
//	  mode: all
//	  case_insensitive: true
//	  anchor: start
type PromptMatch struct {
	Patterns        []string  `yaml:"patterns"`
	Mode            MatchMode `yaml:"mode,omitempty"`
	CaseInsensitive bool      `yaml:"case_insensitive,omitempty"`
	Anchor          string    `yaml:"anchor,omitempty"`
}

// UnmarshalYAML accepts both the list and the mapping form.
func (p *PromptMatch) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var patterns []string
		if err := node.Decode(&patterns); err != nil {
			return fmt.Errorf("prompt_match: %w", err)
		}
		*p = PromptMatch{Patterns: patterns, Mode: MatchAny}
		return nil
	case yaml.MappingNode:
		type rawPromptMatch PromptMatch
		var raw rawPromptMatch
		if err := node.Decode(&raw); err != nil {
			return fmt.Errorf("prompt_match: %w", err)
		}
		*p = PromptMatch(raw)
		return nil
	default:
		return fmt.Errorf("prompt_match: line %d: expected a list of patterns or a mapping", node.Line)
	}
}

// EffectiveMode returns the match mode, defaulting to any.
func (p *PromptMatch) EffectiveMode() (MatchMode, error) {
	switch MatchMode(strings.ToLower(string(p.Mode))) {
	case "", MatchAny:
		return MatchAny, nil
	case MatchAll:
		return MatchAll, nil
	default:
		return "", fmt.Errorf("unknown prompt_match mode %q (want any or all)", p.Mode)
	}
}

// Options converts the mapping settings for pattern preprocessing.
func (p *PromptMatch) Options() (pattern.PromptOptions, error) {
	anchor, err := pattern.ParseAnchor(p.Anchor)
	if err != nil {
		return pattern.PromptOptions{}, err
	}
	return pattern.PromptOptions{
		CaseInsensitive: p.CaseInsensitive,
		Anchor:          anchor,
	}, nil
}

// Actions run when a rule matches.
type Actions struct {
	// Inject is a file whose contents are injected.
	Inject string `yaml:"inject,omitempty"`
	// InjectInline is literal text to inject. It wins over the other sources.
	InjectInline string `yaml:"inject_inline,omitempty"`
	// InjectCommand is a shell command whose stdout is injected.
	InjectCommand string     `yaml:"inject_command,omitempty"`
	Run           *RunAction `yaml:"run,omitempty"`
	Block         bool       `yaml:"block,omitempty"`
	BlockIfMatch  string     `yaml:"block_if_match,omitempty"`
	ValidateExpr  string     `yaml:"validate_expr,omitempty"`
	InlineScript  string     `yaml:"inline_script,omitempty"`
}

// HasInjection reports whether any injection source is configured.
func (a *Actions) HasInjection() bool {
	return a.InjectInline != "" || a.InjectCommand != "" || a.Inject != ""
}

// RunAction is a validator script, written either as a string or as
// a mapping with a per-rule timeout in seconds.
type RunAction struct {
	Script  string `yaml:"script"`
	Timeout int    `yaml:"timeout,omitempty"`
}

// UnmarshalYAML accepts both the scalar and the mapping form.
func (r *RunAction) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		r.Script = node.Value
		return nil
	case yaml.MappingNode:
		type rawRunAction RunAction
		var raw rawRunAction
		if err := node.Decode(&raw); err != nil {
			return fmt.Errorf("run: %w", err)
		}
		*r = RunAction(raw)
		return nil
	default:
		return fmt.Errorf("run: line %d: expected a script path or a mapping", node.Line)
	}
}
