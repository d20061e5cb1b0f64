package validator

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/queryforge/queryforge/internal/domain"
)

// largeSizeThreshold is where deep result sets start hurting the cluster.
const largeSizeThreshold = 1000

// termsAggSizeThreshold is where terms bucket counts become expensive.
const termsAggSizeThreshold = 1000

// checkPerformance flags patterns that are valid but expensive.
func checkPerformance(query map[string]any, c *collector) {
	size, hasSize := requestSize(query)

	if hasSize && size > largeSizeThreshold {
		c.warnf(domain.IssuePerformance, "size",
			fmt.Sprintf("size %d retrieves a very large result set in one page", size))
		c.suggest("Use search_after or a scroll for result sets beyond 1000 documents")
	}

	if hasSize && size > 10 && !hasFilterClause(query) {
		c.warnf(domain.IssuePerformance, "query",
			"large page size with no filter clause scores every matching document")
		c.suggest("Move non-scoring constraints into a bool filter clause")
	}

	if clause, ok := query["query"].(map[string]any); ok {
		checkWildcards(clause, "query", c)
	}

	if aggs := aggsSection(query); aggs != nil {
		checkAggSizes(aggs, "aggs", c)
	}
}

// checkWildcards warns on leading-wildcard patterns, which scan every
// term in the field.
func checkWildcards(clause map[string]any, path string, c *collector) {
	for clauseType, body := range clause {
		childPath := path + "." + clauseType

		switch clauseType {
		case "wildcard", "regexp":
			m, ok := body.(map[string]any)
			if !ok {
				continue
			}
			for field, spec := range m {
				if isClauseOption(field) {
					continue
				}
				pattern := cast.ToString(spec)
				if inner, ok := spec.(map[string]any); ok {
					pattern = cast.ToString(inner["value"])
				}
				if hasLeadingWildcard(pattern) {
					c.warnf(domain.IssuePerformance, childPath+"."+field,
						fmt.Sprintf("pattern %q starts with a wildcard and cannot use the term index", pattern))
				}
			}

		case "query_string":
			m, ok := body.(map[string]any)
			if !ok {
				continue
			}
			for _, token := range strings.Fields(cast.ToString(m["query"])) {
				if hasLeadingWildcard(token) {
					c.warnf(domain.IssuePerformance, childPath,
						fmt.Sprintf("query term %q starts with a wildcard and cannot use the term index", token))
				}
			}

		case "bool":
			m, ok := body.(map[string]any)
			if !ok {
				continue
			}
			for _, occ := range []string{"must", "should", "filter", "must_not"} {
				for _, sub := range clauseList(m[occ]) {
					checkWildcards(sub, childPath+"."+occ, c)
				}
			}

		case "dis_max":
			m, ok := body.(map[string]any)
			if !ok {
				continue
			}
			for _, sub := range cast.ToSlice(m["queries"]) {
				if subClause, ok := sub.(map[string]any); ok {
					checkWildcards(subClause, childPath+".queries", c)
				}
			}

		case "function_score", "boosting":
			m, ok := body.(map[string]any)
			if !ok {
				continue
			}
			for _, key := range []string{"query", "positive", "negative"} {
				if sub, ok := m[key].(map[string]any); ok {
					checkWildcards(sub, childPath+"."+key, c)
				}
			}
		}
	}
}

// checkAggSizes warns on terms aggregations asking for huge bucket counts.
func checkAggSizes(aggs map[string]any, path string, c *collector) {
	for name, raw := range aggs {
		body, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		aggPath := path + "." + name

		for key, spec := range body {
			if key == "aggs" || key == "aggregations" {
				if sub, ok := spec.(map[string]any); ok {
					checkAggSizes(sub, aggPath, c)
				}
				continue
			}
			if key != "terms" {
				continue
			}
			specMap, ok := spec.(map[string]any)
			if !ok {
				continue
			}
			if size, err := cast.ToIntE(specMap["size"]); err == nil && size > termsAggSizeThreshold {
				c.warnf(domain.IssuePerformance, aggPath,
					fmt.Sprintf("terms aggregation %q requests %d buckets; consider composite pagination", name, size))
			}
		}
	}
}

// suggestOptimizations adds advisory suggestions without warnings.
func suggestOptimizations(query map[string]any, c *collector) {
	if size, ok := requestSize(query); ok && size > 10 {
		if _, hasSource := query["_source"]; !hasSource {
			c.suggest("Limit _source to the fields you need when retrieving many documents")
		}
	}

	if _, ok := query["script_fields"]; ok {
		c.suggest("Prefer doc-value fields over script_fields where possible")
	}
	if cast.ToBool(query["track_scores"]) || sortsByScore(query) {
		c.suggest("Scoring alongside an explicit sort costs extra; drop _score sorting unless relevance matters")
	}

	if clause, ok := query["query"].(map[string]any); ok {
		if hasExactMatchInMust(clause) {
			c.suggest("Move exact-match clauses (term, terms, range, exists) from must to filter to skip scoring and enable caching")
		}
	}
}

// requestSize reads the top-level size if it parses as an integer.
func requestSize(query map[string]any) (int, bool) {
	raw, present := query["size"]
	if !present {
		return 0, false
	}
	n, err := cast.ToIntE(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// hasFilterClause reports whether any bool clause in the tree carries a
// filter occurrence.
func hasFilterClause(query map[string]any) bool {
	clause, ok := query["query"].(map[string]any)
	if !ok {
		return false
	}
	return boolHasFilter(clause)
}

func boolHasFilter(clause map[string]any) bool {
	for clauseType, body := range clause {
		m, ok := body.(map[string]any)
		if !ok {
			continue
		}
		switch clauseType {
		case "bool":
			if len(clauseList(m["filter"])) > 0 {
				return true
			}
			for _, occ := range []string{"must", "should", "must_not"} {
				for _, sub := range clauseList(m[occ]) {
					if boolHasFilter(sub) {
						return true
					}
				}
			}
		case "function_score", "boosting":
			for _, key := range []string{"query", "positive", "negative"} {
				if sub, ok := m[key].(map[string]any); ok && boolHasFilter(sub) {
					return true
				}
			}
		}
	}
	return false
}

// sortsByScore reports whether the sort section references _score.
func sortsByScore(query map[string]any) bool {
	for _, ref := range sortFieldRefs(query["sort"]) {
		if ref.field == "_score" {
			return true
		}
	}
	return false
}

// hasExactMatchInMust reports whether a bool must occurrence holds
// clauses that do not benefit from scoring.
func hasExactMatchInMust(clause map[string]any) bool {
	for clauseType, body := range clause {
		m, ok := body.(map[string]any)
		if !ok {
			continue
		}
		if clauseType != "bool" {
			continue
		}
		for _, sub := range clauseList(m["must"]) {
			for subType := range sub {
				switch subType {
				case "term", "terms", "range", "exists":
					return true
				case "bool":
					if hasExactMatchInMust(sub) {
						return true
					}
				}
			}
		}
	}
	return false
}

// hasLeadingWildcard reports whether a pattern starts with * or ?.
func hasLeadingWildcard(pattern string) bool {
	return strings.HasPrefix(pattern, "*") || strings.HasPrefix(pattern, "?")
}
