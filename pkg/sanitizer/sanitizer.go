// Package sanitizer masks sensitive values in user text at the top of
// the pipeline, before intent extraction, so secrets never reach stored
// intents or outbound LLM prompts.
package sanitizer

import (
	"regexp"
	"strings"
)

// Sanitizer handles prompt preprocessing and secret masking.
type Sanitizer struct {
	patterns []*regexp.Regexp
	maxSize  int
}

// Patterns for credentials that occasionally leak into query descriptions,
// e.g. when a user pastes a connection string or a curl command.
var defaultPatterns = []*regexp.Regexp{
	// API keys and secrets
	regexp.MustCompile(`(?i)(api[_-]?key|apikey|secret[_-]?key)\s*[:=]\s*['"]?([a-zA-Z0-9_\-]{16,})['"]?`),

	// Authentication tokens
	regexp.MustCompile(`(?i)(bearer\s+)[a-zA-Z0-9_\-\.]+`),
	regexp.MustCompile(`(?i)(token|auth[_-]?token)\s*[:=]\s*['"]?([a-zA-Z0-9_\-\.]{20,})['"]?`),

	// Passwords
	regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[:=]\s*['"]?([^\s'"]{4,})['"]?`),

	// Cluster connection strings with embedded credentials
	regexp.MustCompile(`(?i)(https?|elasticsearch|opensearch):\/\/[^@\s]+@[^\s]+`),

	// JWT tokens
	regexp.MustCompile(`eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`),

	// AWS access key IDs
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
}

// New creates a new Sanitizer with default patterns.
func New(maxSize int) *Sanitizer {
	return &Sanitizer{
		patterns: defaultPatterns,
		maxSize:  maxSize,
	}
}

// NewWithPatterns creates a Sanitizer with custom patterns.
func NewWithPatterns(maxSize int, patterns []*regexp.Regexp) *Sanitizer {
	return &Sanitizer{
		patterns: patterns,
		maxSize:  maxSize,
	}
}

// Sanitize trims, truncates to the size limit, and masks secrets.
func (s *Sanitizer) Sanitize(text string) string {
	text = strings.TrimSpace(text)
	if len(text) > s.maxSize {
		text = text[:s.maxSize]
	}

	for _, pattern := range s.patterns {
		text = pattern.ReplaceAllStringFunc(text, maskValue)
	}
	return text
}

// maskValue creates a masked version of a matched secret. The key part of
// a key=value match is preserved for context.
func maskValue(match string) string {
	if idx := strings.IndexAny(match, ":="); idx != -1 {
		return match[:idx+1] + "[REDACTED]"
	}
	return "[REDACTED]"
}

// IsEmpty checks if the text is empty or whitespace only.
func (s *Sanitizer) IsEmpty(text string) bool {
	return strings.TrimSpace(text) == ""
}

// IsTooLarge checks if the text exceeds the maximum size.
func (s *Sanitizer) IsTooLarge(text string) bool {
	return len(text) > s.maxSize
}
