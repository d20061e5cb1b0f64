// Package schema flattens index mappings into typed field records and
// classifies them into capability buckets for the rest of the pipeline.
package schema

import (
	"fmt"
	"sort"

	"github.com/spf13/cast"

	"github.com/queryforge/queryforge/internal/domain"
)

// numericTypes are the mapping subtypes treated as numeric.
var numericTypes = map[string]bool{
	"long":         true,
	"integer":      true,
	"short":        true,
	"byte":         true,
	"double":       true,
	"float":        true,
	"half_float":   true,
	"scaled_float": true,
}

// Analyze walks a nested mapping tree and produces a SchemaAnalysis.
// It is a pure function of the mapping: a malformed mapping (missing
// "properties") yields an empty analysis rather than an error, so a
// missing schema never blocks downstream steps.
func Analyze(mapping map[string]any) *domain.SchemaAnalysis {
	analysis := &domain.SchemaAnalysis{}
	if mapping == nil {
		return analysis
	}

	props, ok := mapping["properties"].(map[string]any)
	if !ok {
		return analysis
	}

	walkProperties(props, "", analysis)
	analysis.Suggestions = buildSuggestions(analysis)
	return analysis
}

// walkProperties recurses through a properties block, accumulating
// flattened fields with dotted paths.
func walkProperties(props map[string]any, prefix string, analysis *domain.SchemaAnalysis) {
	// Deterministic traversal keeps field order stable across runs.
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def, ok := props[name].(map[string]any)
		if !ok {
			continue
		}

		path := name
		if prefix != "" {
			path = prefix + "." + name
		}

		typeName := cast.ToString(def["type"])
		classifyField(path, typeName, def, analysis)

		// Objects without a recognized type still carry children.
		if child, ok := def["properties"].(map[string]any); ok {
			walkProperties(child, path, analysis)
		}
	}
}

// classifyField records one field and assigns it to capability buckets.
func classifyField(path, typeName string, def map[string]any, analysis *domain.SchemaAnalysis) {
	switch {
	case typeName == "text":
		hasKeyword := hasKeywordSubfield(def)
		analysis.Fields = append(analysis.Fields, domain.SchemaField{
			Path:               path,
			Type:               domain.FieldTypeText,
			HasKeywordSubfield: hasKeyword,
		})
		analysis.Searchable = append(analysis.Searchable, path)
		if hasKeyword {
			analysis.Aggregatable = append(analysis.Aggregatable, path+".keyword")
		}

	case typeName == "keyword":
		analysis.Fields = append(analysis.Fields, domain.SchemaField{Path: path, Type: domain.FieldTypeKeyword})
		analysis.Aggregatable = append(analysis.Aggregatable, path)

	case typeName == "date":
		analysis.Fields = append(analysis.Fields, domain.SchemaField{Path: path, Type: domain.FieldTypeDate})
		analysis.Dates = append(analysis.Dates, path)
		analysis.Aggregatable = append(analysis.Aggregatable, path)

	case typeName == "geo_point" || typeName == "geo_shape":
		analysis.Fields = append(analysis.Fields, domain.SchemaField{Path: path, Type: domain.FieldType(typeName)})
		analysis.Geo = append(analysis.Geo, path)

	case typeName == "nested":
		analysis.Fields = append(analysis.Fields, domain.SchemaField{Path: path, Type: domain.FieldTypeNested})
		analysis.Nested = append(analysis.Nested, path)

	case numericTypes[typeName]:
		analysis.Fields = append(analysis.Fields, domain.SchemaField{Path: path, Type: domain.FieldTypeNumeric})
		analysis.Aggregatable = append(analysis.Aggregatable, path)

	case typeName == "boolean":
		analysis.Fields = append(analysis.Fields, domain.SchemaField{Path: path, Type: domain.FieldTypeBoolean})
		analysis.Aggregatable = append(analysis.Aggregatable, path)

	case typeName != "":
		analysis.Fields = append(analysis.Fields, domain.SchemaField{Path: path, Type: domain.FieldTypeOther})

		// typeName == "": object container, children handled by the caller
	}
}

// hasKeywordSubfield checks for a declared keyword multi-field.
func hasKeywordSubfield(def map[string]any) bool {
	fields, ok := def["fields"].(map[string]any)
	if !ok {
		return false
	}
	kw, ok := fields["keyword"].(map[string]any)
	if !ok {
		return false
	}
	return cast.ToString(kw["type"]) == "keyword"
}

// buildSuggestions generates up to one usage hint per non-empty bucket,
// each with a concrete example field.
func buildSuggestions(analysis *domain.SchemaAnalysis) []domain.SchemaSuggestion {
	var suggestions []domain.SchemaSuggestion

	if len(analysis.Searchable) > 0 {
		f := analysis.Searchable[0]
		suggestions = append(suggestions, domain.SchemaSuggestion{
			Type:        "search",
			Description: "Full-text search is available on analyzed fields",
			Example:     fmt.Sprintf(`search for terms in "%s"`, f),
		})
	}

	if len(analysis.Aggregatable) > 0 {
		f := analysis.Aggregatable[0]
		suggestions = append(suggestions, domain.SchemaSuggestion{
			Type:        "aggregation",
			Description: "Bucket and metric aggregations are available on exact-value fields",
			Example:     fmt.Sprintf(`count documents grouped by "%s"`, f),
		})
	}

	if len(analysis.Dates) > 0 {
		f := analysis.Dates[0]
		suggestions = append(suggestions,
			domain.SchemaSuggestion{
				Type:        "date",
				Description: "Date fields support range filtering",
				Example:     fmt.Sprintf(`documents where "%s" is in the last 7 days`, f),
			},
			domain.SchemaSuggestion{
				Type:        "time_series",
				Description: "Date fields support time-series bucketing",
				Example:     fmt.Sprintf(`hourly histogram over "%s"`, f),
			},
		)
	}

	if len(analysis.Geo) > 0 {
		f := analysis.Geo[0]
		suggestions = append(suggestions, domain.SchemaSuggestion{
			Type:        "geo",
			Description: "Geographic fields support distance and shape queries",
			Example:     fmt.Sprintf(`documents within 10km of a point using "%s"`, f),
		})
	}

	return suggestions
}
