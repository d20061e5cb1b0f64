package validator

import (
	"github.com/spf13/cast"
)

// fieldRef is one field reference found in a query document, tagged with
// the construct that produced it and where it sits.
type fieldRef struct {
	field     string
	construct string
	context   string
}

// collectFieldRefs walks the whole request and returns every field
// reference across query clauses, sort entries and aggregations.
func collectFieldRefs(query map[string]any) []fieldRef {
	var refs []fieldRef

	if clause, ok := query["query"].(map[string]any); ok {
		refs = append(refs, clauseFieldRefs(clause, "query")...)
	}

	if raw, present := query["sort"]; present {
		refs = append(refs, sortFieldRefs(raw)...)
	}

	if aggs := aggsSection(query); aggs != nil {
		refs = append(refs, aggFieldRefs(aggs, "aggs")...)
	}

	return refs
}

// clauseFieldRefs extracts references from one query clause, recursing
// through compound clauses.
func clauseFieldRefs(clause map[string]any, context string) []fieldRef {
	var refs []fieldRef

	for clauseType, body := range clause {
		childContext := context + "." + clauseType

		switch clauseType {
		case "term", "terms", "match", "match_phrase", "prefix", "wildcard", "regexp", "fuzzy", "range":
			m, ok := body.(map[string]any)
			if !ok {
				continue
			}
			for field := range m {
				if isClauseOption(field) {
					continue
				}
				refs = append(refs, fieldRef{field: field, construct: clauseType, context: childContext})
			}

		case "multi_match", "query_string", "simple_query_string":
			m, ok := body.(map[string]any)
			if !ok {
				continue
			}
			for _, f := range cast.ToStringSlice(m["fields"]) {
				refs = append(refs, fieldRef{field: stripBoost(f), construct: clauseType, context: childContext})
			}

		case "exists":
			m, ok := body.(map[string]any)
			if !ok {
				continue
			}
			if field := cast.ToString(m["field"]); field != "" {
				refs = append(refs, fieldRef{field: field, construct: clauseType, context: childContext})
			}

		case "bool":
			m, ok := body.(map[string]any)
			if !ok {
				continue
			}
			for _, occ := range []string{"must", "should", "filter", "must_not"} {
				for _, sub := range clauseList(m[occ]) {
					refs = append(refs, clauseFieldRefs(sub, childContext+"."+occ)...)
				}
			}

		case "dis_max":
			m, ok := body.(map[string]any)
			if !ok {
				continue
			}
			for _, sub := range cast.ToSlice(m["queries"]) {
				if subClause, ok := sub.(map[string]any); ok {
					refs = append(refs, clauseFieldRefs(subClause, childContext+".queries")...)
				}
			}

		case "function_score", "boosting":
			m, ok := body.(map[string]any)
			if !ok {
				continue
			}
			for _, key := range []string{"query", "positive", "negative"} {
				if sub, ok := m[key].(map[string]any); ok {
					refs = append(refs, clauseFieldRefs(sub, childContext+"."+key)...)
				}
			}
		}
	}

	return refs
}

// sortFieldRefs extracts references from the sort section.
func sortFieldRefs(raw any) []fieldRef {
	var refs []fieldRef

	add := func(field string) {
		refs = append(refs, fieldRef{field: field, construct: "sort", context: "sort"})
	}

	switch v := raw.(type) {
	case string:
		add(v)
	case map[string]any:
		for field := range v {
			add(field)
		}
	default:
		for _, entry := range cast.ToSlice(raw) {
			switch e := entry.(type) {
			case string:
				add(e)
			case map[string]any:
				for field := range e {
					add(field)
				}
			}
		}
	}

	return refs
}

// aggFieldRefs extracts target fields from aggregations, recursing into
// sub-aggregations.
func aggFieldRefs(aggs map[string]any, context string) []fieldRef {
	var refs []fieldRef

	for name, raw := range aggs {
		body, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		aggContext := context + "." + name

		for key, spec := range body {
			if key == "aggs" || key == "aggregations" {
				if sub, ok := spec.(map[string]any); ok {
					refs = append(refs, aggFieldRefs(sub, aggContext)...)
				}
				continue
			}
			specMap, ok := spec.(map[string]any)
			if !ok {
				continue
			}
			if field := cast.ToString(specMap["field"]); field != "" {
				refs = append(refs, fieldRef{field: field, construct: key, context: aggContext})
			}
		}
	}

	return refs
}

// stripBoost removes a caret boost suffix ("title^2" → "title").
func stripBoost(field string) string {
	for i := 0; i < len(field); i++ {
		if field[i] == '^' {
			return field[:i]
		}
	}
	return field
}
