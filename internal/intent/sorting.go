package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/queryforge/queryforge/internal/domain"
)

// Sorting patterns.
var (
	reSortBy    = regexp.MustCompile(`(?:sort|order)(?:ed)?\s+by\s+([\w.@]+)(?:\s+(asc|desc|ascending|descending))?`)
	reBareOrder = regexp.MustCompile(`\b(ascending|descending)\b`)
)

// Limit patterns.
var (
	reTopFirst = regexp.MustCompile(`(?:top|first)\s+(\d+)\b`)
	reLimitTo  = regexp.MustCompile(`limit(?:\s+to)?\s+(\d+)\b`)
	reNResults = regexp.MustCompile(`(\d+)\s+results\b`)
)

// extractSorting applies the sort-by pattern, attaches a bare order word
// to the most recent order-less entry, and handles the recency special
// cases.
func extractSorting(lower string) []domain.Sort {
	var sorts []domain.Sort

	for _, m := range reSortBy.FindAllStringSubmatch(lower, -1) {
		order := normalizeOrder(m[2])
		sorts = append(sorts, domain.Sort{Field: m[1], Order: order})
	}

	// A standalone "descending" far from "sort by" still carries intent.
	if m := reBareOrder.FindStringSubmatch(lower); m != nil {
		for i := len(sorts) - 1; i >= 0; i-- {
			if sorts[i].Order == "" {
				sorts[i].Order = normalizeOrder(m[1])
				break
			}
		}
	}

	for i := range sorts {
		if sorts[i].Order == "" {
			sorts[i].Order = "asc"
		}
	}

	// Recency vocabulary forces a timestamp sort unless one exists.
	if !hasSortField(sorts, defaultTimeField) {
		if strings.Contains(lower, "latest") || strings.Contains(lower, "most recent") {
			sorts = append(sorts, domain.Sort{Field: defaultTimeField, Order: "desc"})
		} else if strings.Contains(lower, "oldest") || strings.Contains(lower, "earliest") {
			sorts = append(sorts, domain.Sort{Field: defaultTimeField, Order: "asc"})
		}
	}

	return sorts
}

func normalizeOrder(raw string) string {
	switch raw {
	case "desc", "descending":
		return "desc"
	case "asc", "ascending":
		return "asc"
	default:
		return ""
	}
}

func hasSortField(sorts []domain.Sort, field string) bool {
	for _, s := range sorts {
		if s.Field == field {
			return true
		}
	}
	return false
}

// extractLimit applies the limit patterns, defaulting to 10 for plain
// searches only.
func extractLimit(lower string, queryType domain.QueryType) int {
	for _, re := range []*regexp.Regexp{reTopFirst, reLimitTo, reNResults} {
		if m := re.FindStringSubmatch(lower); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				return n
			}
		}
	}
	if queryType == domain.QueryTypeSearch {
		return 10
	}
	return 0
}
