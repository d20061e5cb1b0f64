package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/queryforge/queryforge/internal/domain"
)

// Filter confidence depends on whether the field hint resolved against
// the schema.
const (
	resolvedFilterConfidence   = 0.85
	unresolvedFilterConfidence = 0.6
)

// Equality patterns.
var (
	reEquality   = regexp.MustCompile(`(?:where|with)\s+([\w.]+)\s+(?:is|=|equals?)\s+['"]?([\w.@-]+)['"]?`)
	reBareStatus = regexp.MustCompile(`\bstatus\s+(?:is\s+)?['"]?([\w-]+)['"]?`)
)

// Range patterns.
var (
	reGreater = regexp.MustCompile(`([\w.]+)\s+(?:greater|more|larger)\s+than\s+(or\s+equal\s+to\s+)?(\d+(?:\.\d+)?)`)
	reLess    = regexp.MustCompile(`([\w.]+)\s+(?:less|fewer|smaller)\s+than\s+(or\s+equal\s+to\s+)?(\d+(?:\.\d+)?)`)
	reBetween = regexp.MustCompile(`([\w.]+)\s+between\s+(\d+(?:\.\d+)?)\s+and\s+(\d+(?:\.\d+)?)`)
)

// Existence patterns.
var (
	reExists = regexp.MustCompile(`([\w.]+)\s+exists\b`)
	reNull   = regexp.MustCompile(`([\w.]+)\s+is\s+(not\s+)?null\b`)
	reHas    = regexp.MustCompile(`\b(?:with|has)\s+([\w.]+)\b`)
)

// Free-text search patterns.
var (
	reContains = regexp.MustCompile(`(?:([\w.]+)\s+)?(?:contains|having)\s+['"]([^'"]+)['"]`)
	reFindTerm = regexp.MustCompile(`(?:find|search\s+for)\s+['"]([^'"]+)['"]`)
)

// extractFilters applies the equality, range, existence and free-text
// pattern families independently over the lowercase text. Filters are
// de-duplicated by (field, operator), first occurrence winning.
func extractFilters(lower string, analysis *domain.SchemaAnalysis) []domain.Filter {
	var filters []domain.Filter
	seen := make(map[string]bool)

	add := func(f domain.Filter) {
		key := f.Field + "|" + string(f.Operator)
		if seen[key] {
			return
		}
		seen[key] = true
		filters = append(filters, f)
	}

	makeFilter := func(hint string, op domain.FilterOperator, value any) domain.Filter {
		field, resolved := resolveField(hint, analysis)
		confidence := unresolvedFilterConfidence
		if resolved {
			confidence = resolvedFilterConfidence
		}
		return domain.Filter{Field: field, Operator: op, Value: value, Confidence: confidence}
	}

	// Equality
	for _, m := range reEquality.FindAllStringSubmatch(lower, -1) {
		add(makeFilter(m[1], domain.OpEq, m[2]))
	}
	if !seen["status|"+string(domain.OpEq)] {
		if m := reBareStatus.FindStringSubmatch(lower); m != nil && m[1] != "is" {
			add(makeFilter("status", domain.OpEq, m[1]))
		}
	}

	// Ranges
	for _, m := range reGreater.FindAllStringSubmatch(lower, -1) {
		op := domain.OpGt
		if m[2] != "" {
			op = domain.OpGte
		}
		add(makeFilter(m[1], op, parseNumber(m[3])))
	}
	for _, m := range reLess.FindAllStringSubmatch(lower, -1) {
		op := domain.OpLt
		if m[2] != "" {
			op = domain.OpLte
		}
		add(makeFilter(m[1], op, parseNumber(m[3])))
	}
	for _, m := range reBetween.FindAllStringSubmatch(lower, -1) {
		add(makeFilter(m[1], domain.OpGte, parseNumber(m[2])))
		add(makeFilter(m[1], domain.OpLte, parseNumber(m[3])))
	}

	// Existence
	for _, m := range reExists.FindAllStringSubmatch(lower, -1) {
		add(makeFilter(m[1], domain.OpExists, nil))
	}
	for _, m := range reNull.FindAllStringSubmatch(lower, -1) {
		if m[2] != "" {
			add(makeFilter(m[1], domain.OpExists, nil))
		} else {
			add(makeFilter(m[1], domain.OpMissing, nil))
		}
	}
	for _, m := range reHas.FindAllStringSubmatch(lower, -1) {
		// "with X is Y" belongs to the equality family; only a bare
		// mention of a known field counts as an existence check.
		if hasFieldFilter(filters, m[1]) {
			continue
		}
		if _, resolved := resolveField(m[1], analysis); resolved {
			add(makeFilter(m[1], domain.OpExists, nil))
		}
	}

	// Free-text search
	for _, m := range reContains.FindAllStringSubmatch(lower, -1) {
		if m[1] != "" {
			add(makeFilter(m[1], domain.OpContains, m[2]))
		} else {
			add(domain.Filter{Operator: domain.OpContains, Value: m[2], Confidence: unresolvedFilterConfidence})
		}
	}
	for _, m := range reFindTerm.FindAllStringSubmatch(lower, -1) {
		add(domain.Filter{Operator: domain.OpContains, Value: m[1], Confidence: unresolvedFilterConfidence})
	}

	return filters
}

// hasFieldFilter reports whether any extracted filter already references
// the hint, resolved or not.
func hasFieldFilter(filters []domain.Filter, hint string) bool {
	for _, f := range filters {
		if strings.EqualFold(f.Field, hint) || strings.Contains(strings.ToLower(f.Field), strings.ToLower(hint)) {
			return true
		}
	}
	return false
}

// parseNumber keeps integers integral so DSL output stays clean.
func parseNumber(s string) any {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
