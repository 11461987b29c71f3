package config

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/expression"
	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/pattern"
)

// ErrInvalid is wrapped by every parse and validation failure.
var ErrInvalid = errors.New("invalid configuration")

var (
	versionPattern  = regexp.MustCompile(`^\d+\.\d+$`)
	ruleNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// FieldTypes lists the accepted field_types values.
var FieldTypes = []string{"string", "number", "boolean", "array", "object", "any"}

var logLevels = []string{"debug", "info", "warn", "warning", "error"}

// Validate checks the whole document and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if !versionPattern.MatchString(c.Version) {
		errs = append(errs, fmt.Errorf("version %q must look like MAJOR.MINOR", c.Version))
	}

	errs = append(errs, c.Settings.validate()...)

	seen := make(map[string]int, len(c.Rules))
	for i := range c.Rules {
		rule := &c.Rules[i]
		if rule.Name != "" {
			if first, dup := seen[rule.Name]; dup {
				errs = append(errs, fmt.Errorf("rule %q: duplicate name (also rule #%d)", rule.Name, first+1))
			} else {
				seen[rule.Name] = i
			}
		}
		for _, err := range rule.validate() {
			errs = append(errs, fmt.Errorf("%s: %w", rule.label(i), err))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

func (s Settings) validate() []error {
	var errs []error
	if s.MaxContextSize <= 0 {
		errs = append(errs, fmt.Errorf("settings.max_context_size must be positive, got %d", s.MaxContextSize))
	}
	if s.ScriptTimeout <= 0 {
		errs = append(errs, fmt.Errorf("settings.script_timeout must be positive, got %d", s.ScriptTimeout))
	}
	if !slices.Contains(logLevels, strings.ToLower(s.LogLevel)) {
		errs = append(errs, fmt.Errorf("settings.log_level %q is not one of %s", s.LogLevel, strings.Join(logLevels, ", ")))
	}
	return errs
}

func (r *Rule) label(index int) string {
	if r.Name == "" {
		return fmt.Sprintf("rule #%d", index+1)
	}
	return fmt.Sprintf("rule %q", r.Name)
}

func (r *Rule) validate() []error {
	var errs []error

	switch {
	case r.Name == "":
		errs = append(errs, errors.New("name is required"))
	case !ruleNamePattern.MatchString(r.Name):
		errs = append(errs, errors.New("name may only contain letters, digits, '_' and '-'"))
	}

	switch r.EffectiveMode() {
	case ModeEnforce, ModeWarn, ModeAudit:
	default:
		errs = append(errs, fmt.Errorf("mode %q is not one of enforce, warn, audit", r.Mode))
	}

	if r.EnabledWhen != "" {
		if err := expression.Check(r.EnabledWhen); err != nil {
			errs = append(errs, fmt.Errorf("enabled_when: %w", err))
		}
	}

	errs = append(errs, r.Matchers.validate()...)
	errs = append(errs, r.Actions.validate()...)

	if r.Metadata != nil && r.Metadata.Timeout < 0 {
		errs = append(errs, fmt.Errorf("metadata.timeout must not be negative, got %d", r.Metadata.Timeout))
	}

	return errs
}

func (m *Matchers) validate() []error {
	var errs []error

	if m.CommandMatch != "" {
		if _, err := regexp.Compile(m.CommandMatch); err != nil {
			errs = append(errs, fmt.Errorf("matchers.command_match: %w", err))
		}
	}

	if m.PromptMatch != nil {
		errs = append(errs, m.PromptMatch.validate()...)
	}

	for _, path := range m.RequireFields {
		if err := validateFieldPath(path); err != nil {
			errs = append(errs, fmt.Errorf("matchers.require_fields: %w", err))
		}
	}

	for path, typ := range m.FieldTypes {
		if err := validateFieldPath(path); err != nil {
			errs = append(errs, fmt.Errorf("matchers.field_types: %w", err))
		}
		if !slices.Contains(FieldTypes, typ) {
			errs = append(errs, fmt.Errorf("matchers.field_types[%q]: unknown type %q (want one of %s)",
				path, typ, strings.Join(FieldTypes, ", ")))
		}
	}

	return errs
}

func (p *PromptMatch) validate() []error {
	var errs []error

	if len(p.Patterns) == 0 {
		errs = append(errs, errors.New("matchers.prompt_match: at least one pattern is required"))
	}
	if _, err := p.EffectiveMode(); err != nil {
		errs = append(errs, fmt.Errorf("matchers.prompt_match: %w", err))
	}

	opts, err := p.Options()
	if err != nil {
		return append(errs, fmt.Errorf("matchers.prompt_match: %w", err))
	}

	for _, source := range p.Patterns {
		prepared := pattern.PreparePrompt(source, opts)
		if strings.TrimSpace(prepared.Source) == "" || (prepared.Negated && prepared.Expr == "") {
			errs = append(errs, errors.New("matchers.prompt_match: empty pattern"))
			continue
		}
		if _, err := regexp.Compile(prepared.Expr); err != nil {
			errs = append(errs, fmt.Errorf("matchers.prompt_match: pattern %q: %w", source, err))
		}
	}

	return errs
}

func (a *Actions) validate() []error {
	var errs []error

	if a.BlockIfMatch != "" {
		if _, err := regexp.Compile(a.BlockIfMatch); err != nil {
			errs = append(errs, fmt.Errorf("actions.block_if_match: %w", err))
		}
	}
	if a.ValidateExpr != "" {
		if err := expression.Check(a.ValidateExpr); err != nil {
			errs = append(errs, fmt.Errorf("actions.validate_expr: %w", err))
		}
	}
	if a.Run != nil {
		if strings.TrimSpace(a.Run.Script) == "" {
			errs = append(errs, errors.New("actions.run: script is required"))
		}
		if a.Run.Timeout < 0 {
			errs = append(errs, fmt.Errorf("actions.run.timeout must not be negative, got %d", a.Run.Timeout))
		}
	}

	return errs
}

// validateFieldPath rejects empty paths and empty dotted segments.
func validateFieldPath(path string) error {
	switch {
	case path == "":
		return errors.New("field path must not be empty")
	case strings.HasPrefix(path, "."), strings.HasSuffix(path, "."):
		return fmt.Errorf("field path %q must not start or end with '.'", path)
	case strings.Contains(path, ".."):
		return fmt.Errorf("field path %q must not contain '..'", path)
	}
	return nil
}
