// Package validator checks DSL query documents for structural problems,
// schema mismatches, and performance risks. It never fails on malformed
// input; the worst outcome is an invalid result with descriptive issues.
package validator

import (
	"go.uber.org/zap"

	"github.com/queryforge/queryforge/internal/domain"
)

// Validator validates draft queries against an optional schema analysis.
type Validator struct {
	logger *zap.Logger
}

// NewValidator creates a query validator.
func NewValidator(logger *zap.Logger) *Validator {
	return &Validator{
		logger: logger.Named("validator"),
	}
}

// Validate runs the structural, schema-aware, performance and
// optimization checks in order. Schema checks are skipped when the
// structural pass finds errors or no schema is available. The result is
// a pure function of (query, analysis); Valid is recomputed from the
// error count at the end.
func (v *Validator) Validate(query map[string]any, analysis *domain.SchemaAnalysis) (result domain.ValidationResult) {
	// Unexpected shapes degrade to an invalid result, never a panic
	// escaping to the caller.
	defer func() {
		if r := recover(); r != nil {
			v.logger.Warn("validation panicked on malformed query", zap.Any("panic", r))
			result = domain.ValidationResult{
				Valid: false,
				Errors: []domain.Issue{{
					Type:    domain.IssueParse,
					Message: "query could not be parsed; check its structure",
				}},
			}
		}
	}()

	c := &collector{}

	if query == nil {
		c.errorf(domain.IssueStructure, "", "query must be a JSON object")
		return c.result()
	}

	checkStructure(query, c)

	if len(c.errors) == 0 {
		if analysis != nil && len(analysis.Fields) > 0 {
			checkSchema(query, analysis, c)
		}
		checkPerformance(query, c)
		suggestOptimizations(query, c)
	}

	res := c.result()
	v.logger.Debug("query validated",
		zap.Bool("valid", res.Valid),
		zap.Int("errors", len(res.Errors)),
		zap.Int("warnings", len(res.Warnings)),
	)
	return res
}

// collector accumulates issues during a validation pass.
type collector struct {
	errors      []domain.Issue
	warnings    []domain.Issue
	suggestions []string
}

func (c *collector) errorf(issueType domain.IssueType, path, message string) {
	c.errors = append(c.errors, domain.Issue{Type: issueType, Message: message, Path: path})
}

func (c *collector) warnf(issueType domain.IssueType, path, message string) {
	c.warnings = append(c.warnings, domain.Issue{Type: issueType, Message: message, Path: path})
}

func (c *collector) suggest(s string) {
	for _, existing := range c.suggestions {
		if existing == s {
			return
		}
	}
	c.suggestions = append(c.suggestions, s)
}

// result recomputes validity from the error count.
func (c *collector) result() domain.ValidationResult {
	return domain.ValidationResult{
		Valid:       len(c.errors) == 0,
		Errors:      c.errors,
		Warnings:    c.warnings,
		Suggestions: c.suggestions,
	}
}
