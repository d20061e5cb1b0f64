package validator

import (
	"fmt"

	"github.com/spf13/cast"

	"github.com/queryforge/queryforge/internal/domain"
)

// knownQueryTypes is the clause whitelist. Anything else is an error.
var knownQueryTypes = map[string]bool{
	"match": true, "match_phrase": true, "match_all": true,
	"term": true, "terms": true, "range": true, "exists": true,
	"prefix": true, "wildcard": true, "regexp": true, "fuzzy": true,
	"ids": true, "multi_match": true, "query_string": true,
	"simple_query_string": true, "bool": true, "dis_max": true,
	"function_score": true, "boosting": true,
}

// knownAggTypes is the aggregation whitelist. Unrecognized types warn
// rather than error so newer engine features stay usable.
var knownAggTypes = map[string]bool{
	"terms": true, "avg": true, "sum": true, "min": true, "max": true,
	"stats": true, "extended_stats": true, "percentiles": true,
	"cardinality": true, "value_count": true, "histogram": true,
	"date_histogram": true, "range": true, "date_range": true,
	"filters": true, "filter": true, "nested": true, "top_hits": true,
	"geo_distance": true, "significant_terms": true,
}

// aggTypesNeedingField are aggregations that must declare a target field
// (or a script).
var aggTypesNeedingField = map[string]bool{
	"terms": true, "avg": true, "sum": true, "min": true, "max": true,
	"stats": true, "extended_stats": true, "percentiles": true,
	"cardinality": true, "value_count": true, "histogram": true,
	"date_histogram": true, "significant_terms": true,
}

// checkStructure validates the request envelope and the query and
// aggregation trees.
func checkStructure(query map[string]any, c *collector) {
	_, hasQuery := query["query"]
	aggs := aggsSection(query)
	if !hasQuery && aggs == nil {
		c.warnf(domain.IssueStructure, "", "request has neither a query nor aggregations; it will match everything")
	}

	if hasQuery {
		clause, ok := query["query"].(map[string]any)
		if !ok {
			c.errorf(domain.IssueStructure, "query", "query must be an object")
		} else {
			checkQueryClause(clause, "query", c)
		}
	}

	if aggs != nil {
		checkAggs(aggs, "aggs", c)
	}

	checkEnvelope(query, c)
}

// checkQueryClause validates one clause object against the whitelist and
// the per-type structural rules, recursing through compound clauses.
func checkQueryClause(clause map[string]any, path string, c *collector) {
	if len(clause) == 0 {
		c.errorf(domain.IssueStructure, path, "query clause is empty")
		return
	}

	for clauseType, body := range clause {
		childPath := path + "." + clauseType
		if !knownQueryTypes[clauseType] {
			c.errorf(domain.IssueUnknownType, childPath, fmt.Sprintf("unknown query type %q", clauseType))
			continue
		}

		switch clauseType {
		case "bool":
			checkBoolClause(body, childPath, c)
		case "range":
			checkRangeClause(body, childPath, c)
		case "function_score":
			checkFunctionScore(body, childPath, c)
		case "dis_max":
			if m, ok := body.(map[string]any); ok {
				for _, sub := range cast.ToSlice(m["queries"]) {
					if subClause, ok := sub.(map[string]any); ok {
						checkQueryClause(subClause, childPath+".queries", c)
					}
				}
			}
		case "boosting":
			if m, ok := body.(map[string]any); ok {
				for _, key := range []string{"positive", "negative"} {
					if sub, ok := m[key].(map[string]any); ok {
						checkQueryClause(sub, childPath+"."+key, c)
					}
				}
			}
		default:
			if _, ok := body.(map[string]any); !ok {
				c.errorf(domain.IssueStructure, childPath, fmt.Sprintf("%s clause body must be an object", clauseType))
			}
		}
	}
}

// checkBoolClause enforces the bool composition rules.
func checkBoolClause(body any, path string, c *collector) {
	m, ok := body.(map[string]any)
	if !ok {
		c.errorf(domain.IssueStructure, path, "bool clause must be an object")
		return
	}

	occurrences := []string{"must", "should", "filter", "must_not"}
	found := false
	for _, occ := range occurrences {
		raw, present := m[occ]
		if !present {
			continue
		}
		found = true

		subs := clauseList(raw)
		if len(subs) == 0 {
			c.errorf(domain.IssueStructure, path+"."+occ, fmt.Sprintf("bool %s must contain at least one clause", occ))
			continue
		}
		for _, sub := range subs {
			checkQueryClause(sub, path+"."+occ, c)
		}
	}

	if !found {
		c.errorf(domain.IssueStructure, path, "bool clause must contain at least one of must, should, filter, must_not")
		return
	}

	// A lone should with no minimum_should_match matches far more than
	// users expect.
	_, hasShould := m["should"]
	_, hasMust := m["must"]
	_, hasFilter := m["filter"]
	_, hasMSM := m["minimum_should_match"]
	if hasShould && !hasMust && !hasFilter && !hasMSM {
		c.warnf(domain.IssueStructure, path, "bool with only should clauses and no minimum_should_match may match too broadly")
		c.suggest("Set minimum_should_match on bool queries that rely solely on should clauses")
	}
}

// checkRangeClause requires at least one bound per field.
func checkRangeClause(body any, path string, c *collector) {
	m, ok := body.(map[string]any)
	if !ok {
		c.errorf(domain.IssueStructure, path, "range clause must be an object")
		return
	}

	for field, spec := range m {
		if isClauseOption(field) {
			continue
		}
		bounds, ok := spec.(map[string]any)
		if !ok {
			c.errorf(domain.IssueStructure, path+"."+field, "range field body must be an object")
			continue
		}
		if !hasAnyKey(bounds, "gt", "gte", "lt", "lte") {
			c.errorf(domain.IssueStructure, path+"."+field, fmt.Sprintf("range on %q must include at least one of gt, gte, lt, lte", field))
		}
	}
}

// checkFunctionScore requires a functions array and prefers a nested query.
func checkFunctionScore(body any, path string, c *collector) {
	m, ok := body.(map[string]any)
	if !ok {
		c.errorf(domain.IssueStructure, path, "function_score clause must be an object")
		return
	}

	if _, ok := m["functions"]; !ok {
		c.errorf(domain.IssueStructure, path, "function_score requires a functions array")
	}
	if sub, ok := m["query"].(map[string]any); ok {
		checkQueryClause(sub, path+".query", c)
	} else {
		c.warnf(domain.IssueStructure, path, "function_score without a nested query scores every document")
	}
}

// checkEnvelope validates from/size, sort and highlight.
func checkEnvelope(query map[string]any, c *collector) {
	for _, key := range []string{"from", "size"} {
		raw, present := query[key]
		if !present {
			continue
		}
		n, err := cast.ToIntE(raw)
		if err != nil || n < 0 || !isIntegral(raw) {
			c.errorf(domain.IssueStructure, key, fmt.Sprintf("%s must be a non-negative integer", key))
		}
	}

	if raw, present := query["sort"]; present {
		checkSort(raw, c)
	}

	if raw, present := query["highlight"]; present {
		m, ok := raw.(map[string]any)
		if !ok {
			c.errorf(domain.IssueStructure, "highlight", "highlight must be an object")
		} else if _, ok := m["fields"].(map[string]any); !ok {
			c.errorf(domain.IssueStructure, "highlight", "highlight must carry a fields object")
		}
	}
}

// checkSort accepts string entries and {field: {order}} objects.
func checkSort(raw any, c *collector) {
	entries := cast.ToSlice(raw)
	if entries == nil {
		if _, ok := raw.(string); ok {
			return
		}
		if m, ok := raw.(map[string]any); ok {
			entries = []any{m}
		} else {
			c.errorf(domain.IssueStructure, "sort", "sort must be a string, object, or array")
			return
		}
	}

	for i, entry := range entries {
		path := fmt.Sprintf("sort[%d]", i)
		switch e := entry.(type) {
		case string:
			// plain field name
		case map[string]any:
			for field, spec := range e {
				switch s := spec.(type) {
				case string:
					if s != "asc" && s != "desc" {
						c.errorf(domain.IssueStructure, path, fmt.Sprintf("sort order for %q must be asc or desc", field))
					}
				case map[string]any:
					order := cast.ToString(s["order"])
					if order != "" && order != "asc" && order != "desc" {
						c.errorf(domain.IssueStructure, path, fmt.Sprintf("sort order for %q must be asc or desc", field))
					}
				default:
					c.errorf(domain.IssueStructure, path, fmt.Sprintf("sort entry for %q must be a string or object", field))
				}
			}
		default:
			c.errorf(domain.IssueStructure, path, "sort entries must be strings or objects")
		}
	}
}

// checkAggs validates aggregation declarations recursively.
func checkAggs(aggs map[string]any, path string, c *collector) {
	for name, raw := range aggs {
		aggPath := path + "." + name
		body, ok := raw.(map[string]any)
		if !ok {
			c.errorf(domain.IssueStructure, aggPath, fmt.Sprintf("aggregation %q must be an object", name))
			continue
		}

		typeFound := false
		for key, spec := range body {
			if key == "aggs" || key == "aggregations" {
				if sub, ok := spec.(map[string]any); ok {
					checkAggs(sub, aggPath, c)
				}
				continue
			}
			if key == "meta" {
				continue
			}

			typeFound = true
			if !knownAggTypes[key] {
				c.warnf(domain.IssueUnknownType, aggPath, fmt.Sprintf("unrecognized aggregation type %q", key))
				continue
			}

			if aggTypesNeedingField[key] {
				spec, ok := spec.(map[string]any)
				if !ok {
					c.errorf(domain.IssueStructure, aggPath, fmt.Sprintf("aggregation %q body must be an object", name))
					continue
				}
				if cast.ToString(spec["field"]) == "" && spec["script"] == nil {
					c.errorf(domain.IssueStructure, aggPath, fmt.Sprintf("aggregation %q (%s) must declare a target field", name, key))
				}
			}
		}

		if !typeFound {
			c.errorf(domain.IssueStructure, aggPath, fmt.Sprintf("aggregation %q has no aggregation type", name))
		}
	}
}

// Helpers

// aggsSection returns the aggregations object under either key.
func aggsSection(query map[string]any) map[string]any {
	for _, key := range []string{"aggs", "aggregations"} {
		if m, ok := query[key].(map[string]any); ok {
			return m
		}
	}
	return nil
}

// clauseList normalizes a bool occurrence to a list of clause objects.
func clauseList(raw any) []map[string]any {
	var out []map[string]any
	if m, ok := raw.(map[string]any); ok {
		return append(out, m)
	}
	for _, item := range cast.ToSlice(raw) {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// isClauseOption filters option keys out of per-field clause bodies.
func isClauseOption(key string) bool {
	switch key {
	case "boost", "_name", "minimum_should_match", "relation":
		return true
	}
	return false
}

func hasAnyKey(m map[string]any, keys ...string) bool {
	for _, key := range keys {
		if _, ok := m[key]; ok {
			return true
		}
	}
	return false
}

// isIntegral rejects fractional sizes that cast would round.
func isIntegral(raw any) bool {
	switch n := raw.(type) {
	case float64:
		return n == float64(int64(n))
	case float32:
		return n == float32(int64(n))
	}
	return true
}
