package intent

import (
	"regexp"
	"strings"

	"github.com/queryforge/queryforge/internal/domain"
)

// Field-list patterns: an explicit "fields/columns" marker, or a bare
// list terminated by "from"/"in".
var (
	reFieldList = regexp.MustCompile(`(?:show|return|display|include)\s+(?:me\s+)?(?:the\s+)?(?:fields?|columns?)\s+([\w\s,.@_-]+?)(?:\s+(?:from|in|where)\b|$)`)
	reBareList  = regexp.MustCompile(`(?:show|return|display|include)\s+(?:me\s+)?(?:the\s+)?([\w\s,.@_-]+?)\s+(?:from|in)\b`)
	reListSplit = regexp.MustCompile(`\s*(?:,|\band\b)\s*`)
)

// extractFields finds explicitly requested fields, resolving each token
// against the schema. Falls back to filter-derived fields when no list is
// present.
func extractFields(lower string, analysis *domain.SchemaAnalysis, filters []domain.Filter) []domain.FieldRequest {
	var raw string
	if m := reFieldList.FindStringSubmatch(lower); m != nil {
		raw = m[1]
	} else if m := reBareList.FindStringSubmatch(lower); m != nil {
		raw = m[1]
	}

	var fields []domain.FieldRequest
	seen := make(map[string]bool)

	if raw != "" {
		for _, token := range reListSplit.Split(raw, -1) {
			token = strings.TrimSpace(token)
			if token == "" {
				continue
			}
			name, resolved := resolveField(token, analysis)
			confidence := unresolvedFilterConfidence
			if resolved {
				confidence = resolvedFilterConfidence
			}
			if seen[name] {
				continue
			}
			seen[name] = true
			fields = append(fields, domain.FieldRequest{Name: name, Confidence: confidence})
		}
	}

	if len(fields) > 0 {
		return fields
	}

	// No explicit list: surface the fields the filters constrain.
	for _, f := range filters {
		if f.Field == "" || seen[f.Field] {
			continue
		}
		seen[f.Field] = true
		fields = append(fields, domain.FieldRequest{Name: f.Field, Confidence: f.Confidence})
	}
	return fields
}
