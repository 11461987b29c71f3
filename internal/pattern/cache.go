// Package pattern owns regular-expression handling for rule matching:
// a compile cache shared within one process and the prompt-pattern
// preprocessing (negation, shorthands, anchors, case folding).
package pattern

import (
	"fmt"
	"regexp"
	"sync"
)

// Cache memoizes compiled regular expressions keyed by pattern string.
// It is safe for concurrent use. Invalid patterns are never cached.
type Cache struct {
	mu       sync.Mutex
	compiled map[string]*regexp.Regexp
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		compiled: make(map[string]*regexp.Regexp),
	}
}

// GetOrCompile returns the compiled form of pattern, compiling it on first use.
func (c *Cache) GetOrCompile(pattern string) (*regexp.Regexp, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if re, ok := c.compiled[pattern]; ok {
		return re, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex %q: %w", pattern, err)
	}

	c.compiled[pattern] = re
	return re, nil
}

// Clear drops every cached expression.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.compiled = make(map[string]*regexp.Regexp)
}

// Len reports how many expressions are cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.compiled)
}
