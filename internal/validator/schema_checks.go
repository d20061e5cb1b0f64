package validator

import (
	"fmt"
	"strings"

	"github.com/queryforge/queryforge/pkg/fuzzy"

	"github.com/queryforge/queryforge/internal/domain"
)

// minFieldSimilarity is the floor for "did you mean" suggestions.
const minFieldSimilarity = 0.5

// checkSchema verifies every referenced field exists in the analysis and
// is used in a way its type supports. Unknown fields warn rather than
// error; the schema snapshot may lag the live index.
func checkSchema(query map[string]any, analysis *domain.SchemaAnalysis, c *collector) {
	known := knownFieldPaths(analysis)

	for _, ref := range collectFieldRefs(query) {
		// Metadata fields like _id and _score are always addressable.
		if strings.HasPrefix(ref.field, "_") {
			continue
		}

		field, ok := resolveField(ref.field, analysis)
		if !ok {
			msg := fmt.Sprintf("field %q is not present in the index mapping", ref.field)
			if matches := fuzzy.ClosestMatches(ref.field, known, 3, minFieldSimilarity); len(matches) > 0 {
				names := make([]string, len(matches))
				for i, m := range matches {
					names[i] = m.Value
				}
				msg += "; did you mean " + strings.Join(names, ", ") + "?"
			}
			c.warnf(domain.IssueField, ref.context, msg)
			continue
		}

		checkFieldUsage(ref, field, c)
	}
}

// checkFieldUsage warns when a construct does not fit the field's type.
func checkFieldUsage(ref fieldRef, field domain.SchemaField, c *collector) {
	switch ref.construct {
	case "term", "terms":
		if field.Type == domain.FieldTypeText {
			c.warnf(domain.IssueUsage, ref.context,
				fmt.Sprintf("%s on analyzed text field %q matches individual tokens, not the stored value", ref.construct, field.Path))
			if field.HasKeywordSubfield {
				c.suggest(fmt.Sprintf("Use %q for exact matching on %q", field.Path+".keyword", field.Path))
			}
		}

	case "match", "match_phrase", "multi_match":
		if field.Type != domain.FieldTypeText {
			c.warnf(domain.IssueUsage, ref.context,
				fmt.Sprintf("%s on non-text field %q gains nothing from analysis", ref.construct, field.Path))
			c.suggest(fmt.Sprintf("Use a term query for exact matching on %q", field.Path))
		}

	case "range":
		if field.Type != domain.FieldTypeNumeric && field.Type != domain.FieldTypeDate {
			c.warnf(domain.IssueUsage, ref.context,
				fmt.Sprintf("range on %q compares lexicographically; the field is neither numeric nor a date", field.Path))
		}

	default:
		if aggTypesNeedingField[ref.construct] && field.Type == domain.FieldTypeText {
			c.warnf(domain.IssueUsage, ref.context,
				fmt.Sprintf("aggregating on analyzed text field %q buckets individual tokens", field.Path))
			if field.HasKeywordSubfield {
				c.suggest(fmt.Sprintf("Aggregate on %q instead of %q", field.Path+".keyword", field.Path))
			}
		}
	}
}

// resolveField looks up a referenced path, treating declared keyword
// subfields as keyword-typed fields in their own right.
func resolveField(path string, analysis *domain.SchemaAnalysis) (domain.SchemaField, bool) {
	if field, ok := analysis.Field(path); ok {
		return field, true
	}
	if base, found := strings.CutSuffix(path, ".keyword"); found {
		if parent, ok := analysis.Field(base); ok && parent.HasKeywordSubfield {
			return domain.SchemaField{Path: path, Type: domain.FieldTypeKeyword}, true
		}
	}
	return domain.SchemaField{}, false
}

// knownFieldPaths lists every addressable path, including derived
// keyword subfields, as suggestion candidates.
func knownFieldPaths(analysis *domain.SchemaAnalysis) []string {
	paths := analysis.FieldPaths()
	for _, f := range analysis.Fields {
		if f.HasKeywordSubfield {
			paths = append(paths, f.Path+".keyword")
		}
	}
	return paths
}
