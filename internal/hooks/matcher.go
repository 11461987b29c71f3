package hooks

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/config"
	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/models"
	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/pattern"
)

// Matcher evaluates a rule's matchers against an event.
type Matcher struct {
	cache *pattern.Cache
}

// NewMatcher creates a matcher compiling regexes through cache.
func NewMatcher(cache *pattern.Cache) *Matcher {
	return &Matcher{cache: cache}
}

// Matches reports whether every configured predicate holds for event.
// An error means a pattern could not be compiled.
func (m *Matcher) Matches(rule *config.Rule, event *models.Event) (bool, error) {
	matched, _, err := m.match(rule, event)
	return matched, err
}

// match evaluates predicates in a fixed order and stops at the first
// unmet one. detail names that predicate.
func (m *Matcher) match(rule *config.Rule, event *models.Event) (matched bool, detail string, err error) {
	mt := &rule.Matchers

	if len(mt.Tools) > 0 {
		if event.ToolName == "" {
			return false, "tools: event has no tool_name", nil
		}
		if !slices.Contains(mt.Tools, event.ToolName) {
			return false, fmt.Sprintf("tools: %s not in %v", event.ToolName, mt.Tools), nil
		}
	}

	if len(mt.Extensions) > 0 {
		path, ok := event.FilePath()
		if !ok {
			return false, "extensions: event has no file path", nil
		}
		if !matchExtension(path, mt.Extensions) {
			return false, fmt.Sprintf("extensions: %s does not match %v", path, mt.Extensions), nil
		}
	}

	if len(mt.Directories) > 0 {
		path, ok := event.FilePath()
		if !ok {
			return false, "directories: event has no file path", nil
		}
		if !matchDirectory(path, mt.Directories) {
			return false, fmt.Sprintf("directories: %s is outside %v", path, mt.Directories), nil
		}
	}

	if len(mt.Operations) > 0 && !slices.Contains(mt.Operations, string(event.EventType)) {
		return false, fmt.Sprintf("operations: %s not in %v", event.EventType, mt.Operations), nil
	}

	if mt.CommandMatch != "" {
		command, ok := event.Command()
		if !ok {
			return false, "command_match: event has no command", nil
		}
		re, err := m.cache.GetOrCompile(mt.CommandMatch)
		if err != nil {
			return false, "command_match: invalid pattern", err
		}
		if !re.MatchString(command) {
			return false, "command_match: no match", nil
		}
	}

	if mt.PromptMatch != nil {
		text, ok := event.PromptText()
		if !ok {
			return false, "prompt_match: event has no prompt", nil
		}
		hit, err := m.matchPrompt(mt.PromptMatch, text)
		if err != nil {
			return false, "prompt_match: invalid pattern", err
		}
		if !hit {
			return false, "prompt_match: no match", nil
		}
	}

	for _, path := range mt.RequireFields {
		value, ok := event.ToolInput.Lookup(path)
		if !ok || value == nil {
			return false, fmt.Sprintf("require_fields: %s is missing", path), nil
		}
	}

	for _, path := range sortedKeys(mt.FieldTypes) {
		want := mt.FieldTypes[path]
		value, ok := event.ToolInput.Lookup(path)
		if !ok {
			return false, fmt.Sprintf("field_types: %s is missing", path), nil
		}
		if got := models.JSONType(value); want != "any" && got != want {
			return false, fmt.Sprintf("field_types: %s is %s, want %s", path, got, want), nil
		}
	}

	return true, "matched", nil
}

// matchPrompt applies the prompt patterns under the configured mode.
// A negated pattern is satisfied when it does not match.
func (m *Matcher) matchPrompt(pm *config.PromptMatch, text string) (bool, error) {
	opts, err := pm.Options()
	if err != nil {
		return false, err
	}
	mode, err := pm.EffectiveMode()
	if err != nil {
		return false, err
	}

	for _, source := range pm.Patterns {
		p := pattern.PreparePrompt(source, opts)
		re, err := m.cache.GetOrCompile(p.Expr)
		if err != nil {
			return false, err
		}

		satisfied := re.MatchString(text) != p.Negated
		switch {
		case mode == config.MatchAll && !satisfied:
			return false, nil
		case mode == config.MatchAny && satisfied:
			return true, nil
		}
	}

	return mode == config.MatchAll, nil
}

// matchExtension accepts extensions written with or without the dot.
func matchExtension(path string, extensions []string) bool {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return false
	}
	for _, want := range extensions {
		if strings.TrimPrefix(want, ".") == ext {
			return true
		}
	}
	return false
}

// matchDirectory is a substring test, so a prefix such as "src/" matches
// both relative and absolute paths. Trailing glob stars are ignored.
func matchDirectory(path string, directories []string) bool {
	for _, dir := range directories {
		dir = strings.TrimRight(dir, "*")
		if dir == "" || strings.Contains(path, dir) {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
