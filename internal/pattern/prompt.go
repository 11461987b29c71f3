package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

// Anchor controls where a prompt pattern must match.
type Anchor string

const (
	AnchorContains Anchor = "contains"
	AnchorStart    Anchor = "start"
	AnchorEnd      Anchor = "end"
)

// ParseAnchor resolves an anchor name. The empty string means contains.
func ParseAnchor(name string) (Anchor, error) {
	switch Anchor(strings.ToLower(name)) {
	case "", AnchorContains:
		return AnchorContains, nil
	case AnchorStart:
		return AnchorStart, nil
	case AnchorEnd:
		return AnchorEnd, nil
	default:
		return "", fmt.Errorf("unknown anchor %q (want start, end or contains)", name)
	}
}

const (
	negationPrefix   = "not:"
	containsWordTerm = "contains_word:"
)

// namedShorthands are whole-pattern macros written as ":name".
var namedShorthands = map[string]string{
	":credential":  `(?i)(password|passwd|secret|api[_-]?key|access[_-]?token|private[_-]?key|credential)`,
	":destructive": `(?i)(rm\s+-rf|drop\s+(table|database)|truncate\s+table|delete\s+from|force[- ]push)`,
	":url":         `https?://[^\s]+`,
}

// PromptPattern is a prompt pattern after preprocessing.
type PromptPattern struct {
	// Source is the pattern as written in the configuration.
	Source string
	// Expr is the final regular expression.
	Expr string
	// Negated is true when the pattern carried the "not:" prefix.
	Negated bool
}

// PromptOptions are the rule-level settings applied to every pattern.
type PromptOptions struct {
	CaseInsensitive bool
	Anchor          Anchor
}

// PreparePrompt turns a configured prompt pattern into a regular expression.
// The steps run in a fixed order: strip "not:", expand shorthands, apply the
// anchor, then prefix the case-insensitive flag.
func PreparePrompt(source string, opts PromptOptions) PromptPattern {
	p := PromptPattern{Source: source}

	body := source
	if strings.HasPrefix(body, negationPrefix) {
		p.Negated = true
		body = strings.TrimSpace(strings.TrimPrefix(body, negationPrefix))
	}

	body = ExpandShorthand(body)

	switch opts.Anchor {
	case AnchorStart:
		body = "^(?:" + body + ")"
	case AnchorEnd:
		body = "(?:" + body + ")$"
	}

	if opts.CaseInsensitive {
		body = "(?i)" + body
	}

	p.Expr = body
	return p
}

// ExpandShorthand rewrites named macros and contains_word: terms into
// plain regular expressions. Other patterns are returned unchanged.
func ExpandShorthand(p string) string {
	if expanded, ok := namedShorthands[p]; ok {
		return expanded
	}
	if strings.HasPrefix(p, containsWordTerm) {
		word := strings.TrimSpace(strings.TrimPrefix(p, containsWordTerm))
		return `\b` + regexp.QuoteMeta(word) + `\b`
	}
	return p
}
