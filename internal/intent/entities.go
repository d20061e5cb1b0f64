package intent

import (
	"regexp"
	"strings"

	"github.com/queryforge/queryforge/internal/domain"
)

// domainNouns is a small fixed table of common subjects, matched on word
// boundaries.
var domainNouns = []struct {
	noun    string
	pattern *regexp.Regexp
}{
	{"logs", regexp.MustCompile(`\blogs?\b`)},
	{"users", regexp.MustCompile(`\busers?\b`)},
	{"transactions", regexp.MustCompile(`\btransactions?\b`)},
	{"products", regexp.MustCompile(`\bproducts?\b`)},
	{"errors", regexp.MustCompile(`\berrors?\b`)},
	{"documents", regexp.MustCompile(`\bdocuments?\b`)},
}

// extractEntities finds schema fields and domain nouns mentioned in the
// text. De-duplicated by entity type, first occurrence wins.
func extractEntities(text, lower string, analysis *domain.SchemaAnalysis) []domain.Entity {
	var entities []domain.Entity
	seen := make(map[string]bool)

	add := func(entityType string, confidence float64) {
		if seen[entityType] {
			return
		}
		seen[entityType] = true
		entities = append(entities, domain.Entity{Type: entityType, Confidence: confidence})
	}

	if analysis != nil {
		for _, field := range analysis.Fields {
			name := fieldName(field.Path)
			nameLower := strings.ToLower(name)
			if strings.Contains(lower, nameLower) {
				add(field.Path, 0.8)
				continue
			}
			// "status_code" also matches as "status code"
			spaced := strings.ReplaceAll(nameLower, "_", " ")
			if spaced != nameLower && strings.Contains(lower, spaced) {
				add(field.Path, 0.75)
			}
		}
	}

	for _, dn := range domainNouns {
		if dn.pattern.MatchString(lower) {
			add(dn.noun, 0.7)
		}
	}

	return entities
}

// fieldName returns the last segment of a dotted path.
func fieldName(path string) string {
	if idx := strings.LastIndex(path, "."); idx != -1 {
		return path[idx+1:]
	}
	return path
}
