// Package intent turns free-text query descriptions into a structured
// Intent via deterministic keyword and pattern matching. Each sub-field
// (category, entities, filters, timeframe, fields, aggregations, sorting,
// limit) is extracted by its own ordered rule list; the extractor only
// composes them, so every rule stays independently testable.
package intent

import (
	"strings"

	"go.uber.org/zap"

	"github.com/queryforge/queryforge/internal/domain"
)

// placeholderConfidence is the fixed overall intent confidence. It is not
// computed from matched sub-patterns; downstream consumers must tolerate
// this.
const placeholderConfidence = 0.85

// defaultTimeField is assumed when no timestamp field is named.
const defaultTimeField = "@timestamp"

// Extractor produces intents from user text.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor creates an intent extractor.
func NewExtractor(logger *zap.Logger) *Extractor {
	return &Extractor{
		logger: logger.Named("intent_extractor"),
	}
}

// Extract parses the text into an Intent. The schema analysis is optional;
// without it, field hints pass through unresolved. Fails only on empty or
// whitespace text.
func (e *Extractor) Extract(text string, analysis *domain.SchemaAnalysis) (*domain.Intent, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.WrapError("extract_intent", domain.ErrEmptyInput, false)
	}

	lower := strings.ToLower(text)

	intent := &domain.Intent{
		QueryType:    detectQueryType(lower),
		OriginalText: text,
		Confidence:   placeholderConfidence,
	}

	intent.Entities = extractEntities(text, lower, analysis)
	intent.Filters = extractFilters(lower, analysis)
	intent.Timeframe = extractTimeframe(lower, intent.QueryType)
	intent.Fields = extractFields(lower, analysis, intent.Filters)
	intent.Aggregations = extractAggregations(lower, analysis, intent.QueryType, intent.Timeframe)
	intent.Sorting = extractSorting(lower)
	intent.Limit = extractLimit(lower, intent.QueryType)

	refine(intent, analysis)

	e.logger.Debug("intent extracted",
		zap.String("query_type", string(intent.QueryType)),
		zap.Int("entities", len(intent.Entities)),
		zap.Int("filters", len(intent.Filters)),
		zap.Int("aggregations", len(intent.Aggregations)),
	)

	return intent, nil
}

// refine fills gaps the independent rules left, keyed on the category.
func refine(intent *domain.Intent, analysis *domain.SchemaAnalysis) {
	switch intent.QueryType {
	case domain.QueryTypeAggregation:
		if len(intent.Aggregations) > 0 {
			return
		}
		// Synthesize a terms aggregation from the best available field.
		// Field-less filters (a bare contains phrase) cannot anchor one.
		field := ""
		for _, f := range intent.Filters {
			if f.Field != "" {
				field = f.Field
				break
			}
		}
		if field == "" && len(intent.Fields) > 0 {
			field = intent.Fields[0].Name
		}
		if field == "" && analysis != nil && len(analysis.Aggregatable) > 0 {
			field = analysis.Aggregatable[0]
		}
		if field != "" {
			intent.Aggregations = append(intent.Aggregations, domain.Aggregation{
				Type:       "terms",
				Field:      field,
				Confidence: 0.6,
			})
		}

	case domain.QueryTypeTimeSeries:
		for _, agg := range intent.Aggregations {
			if agg.Type == "date_histogram" {
				return
			}
		}
		field := defaultTimeField
		if analysis != nil && len(analysis.Dates) > 0 {
			field = analysis.Dates[0]
		}
		intent.Aggregations = append(intent.Aggregations, domain.Aggregation{
			Type:       "date_histogram",
			Field:      field,
			Interval:   "hour",
			Confidence: 0.6,
		})
	}
}

// resolveField matches a raw hint against the schema: exact path first,
// then substring, then the hint with spaces normalized to underscores.
// Returns the resolved path and whether resolution succeeded.
func resolveField(hint string, analysis *domain.SchemaAnalysis) (string, bool) {
	hint = strings.TrimSpace(hint)
	if hint == "" || analysis == nil {
		return hint, false
	}

	lower := strings.ToLower(hint)
	for _, path := range analysis.FieldPaths() {
		if strings.ToLower(path) == lower {
			return path, true
		}
	}

	for _, path := range analysis.FieldPaths() {
		pl := strings.ToLower(path)
		if strings.Contains(pl, lower) || strings.Contains(lower, pl) {
			return path, true
		}
	}

	normalized := strings.ReplaceAll(lower, " ", "_")
	if normalized != lower {
		for _, path := range analysis.FieldPaths() {
			if strings.ToLower(path) == normalized {
				return path, true
			}
		}
	}

	return hint, false
}
