package hooks

import (
	"strings"
)

// commandFacts extracts the program name and its arguments from a shell
// command. Only the first segment before an unquoted ;, |, && or || is
// considered, and leading VAR=value assignments are skipped.
func commandFacts(command string) (name string, args []string) {
	tokens := parseTokens(firstSegment(command))

	i := 0
	for i < len(tokens) && isAssignment(tokens[i]) {
		i++
	}
	if i >= len(tokens) {
		return "", []string{}
	}

	return tokens[i], append([]string{}, tokens[i+1:]...)
}

// firstSegment returns the command text up to the first unquoted separator.
func firstSegment(command string) string {
	inSingleQuote := false
	inDoubleQuote := false

	for i := 0; i < len(command); i++ {
		switch command[i] {
		case '\'':
			if !inDoubleQuote {
				inSingleQuote = !inSingleQuote
			}
		case '"':
			if !inSingleQuote {
				inDoubleQuote = !inDoubleQuote
			}
		case ';', '|', '&', '\n':
			if inSingleQuote || inDoubleQuote {
				continue
			}
			// A lone & backgrounds the command; only && separates.
			if command[i] == '&' && (i+1 >= len(command) || command[i+1] != '&') {
				continue
			}
			return command[:i]
		}
	}

	return command
}

// isAssignment reports whether token is a shell variable assignment.
func isAssignment(token string) bool {
	name, _, ok := strings.Cut(token, "=")
	if !ok || name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// parseTokens parses a command string into tokens, respecting quoted strings.
// Single and double quotes are removed from the returned tokens.
func parseTokens(command string) []string {
	var tokens []string
	var current strings.Builder
	inSingleQuote := false
	inDoubleQuote := false
	quoted := false

	flush := func() {
		if current.Len() > 0 || quoted {
			tokens = append(tokens, current.String())
			current.Reset()
		}
		quoted = false
	}

	for i := 0; i < len(command); i++ {
		ch := command[i]

		switch ch {
		case '\'':
			if !inDoubleQuote {
				inSingleQuote = !inSingleQuote
				quoted = true
			} else {
				current.WriteByte(ch)
			}
		case '"':
			if !inSingleQuote {
				inDoubleQuote = !inDoubleQuote
				quoted = true
			} else {
				current.WriteByte(ch)
			}
		case ' ', '\t', '\n', '\r':
			if !inSingleQuote && !inDoubleQuote {
				flush()
			} else {
				current.WriteByte(ch)
			}
		default:
			current.WriteByte(ch)
		}
	}

	flush()
	return tokens
}
