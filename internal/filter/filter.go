// Package filter screens user input against a configurable pattern set.
package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultPatterns is the stock pattern set used when none are configured
var DefaultPatterns = []string{
	`\b(?:hack|crack|pirat|illegal)\b`,
	`\b(?:drug|weapon|violence)\b`,
	`\b(?:hate|discriminat|racist)\b`,
}

// Filter checks text against a set of compiled patterns
type Filter struct {
	enabled  bool
	patterns []*regexp.Regexp
}

// New compiles the configured patterns. An empty pattern list falls back
// to the defaults.
func New(enabled bool, patterns []string) (*Filter, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}

	return &Filter{enabled: enabled, patterns: compiled}, nil
}

// IsInappropriate reports whether the text matches any filter pattern
func (f *Filter) IsInappropriate(text string) bool {
	if !f.enabled {
		return false
	}
	lowered := strings.ToLower(text)
	for _, re := range f.patterns {
		if re.MatchString(lowered) {
			return true
		}
	}
	return false
}
