// Package perspective emits named query-construction strategies for an
// intent. Each perspective carries a confidence score and a parameter
// bundle consumed by the query builder.
package perspective

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/queryforge/queryforge/internal/domain"
)

// DefaultMaxPerspectives caps generation output.
const DefaultMaxPerspectives = 3

// Confidence bounds after vocabulary adjustment.
const (
	minConfidence = 0.1
	maxConfidence = 0.95
)

// Generator produces perspectives from intents.
type Generator struct {
	maxPerspectives int
	logger          *zap.Logger
}

// NewGenerator creates a perspective generator. A non-positive cap falls
// back to the default.
func NewGenerator(maxPerspectives int, logger *zap.Logger) *Generator {
	if maxPerspectives <= 0 {
		maxPerspectives = DefaultMaxPerspectives
	}
	return &Generator{
		maxPerspectives: maxPerspectives,
		logger:          logger.Named("perspective_generator"),
	}
}

// Generate dispatches on the intent's query type and returns the top
// perspectives sorted by confidence descending.
func (g *Generator) Generate(intent *domain.Intent, analysis *domain.SchemaAnalysis) []domain.Perspective {
	var perspectives []domain.Perspective

	switch intent.QueryType {
	case domain.QueryTypeSearch:
		perspectives = g.searchPerspectives(intent, analysis)
	case domain.QueryTypeAggregation, domain.QueryTypeTimeSeries:
		// Time-series asks share the aggregation strategies; the
		// date-histogram perspective fires because a date field is
		// always referenced.
		perspectives = g.aggregationPerspectives(intent, analysis)
	default:
		perspectives = g.analyticsPerspectives(intent)
	}

	sort.SliceStable(perspectives, func(i, j int) bool {
		return perspectives[i].Confidence > perspectives[j].Confidence
	})

	if len(perspectives) > g.maxPerspectives {
		perspectives = perspectives[:g.maxPerspectives]
	}

	g.logger.Debug("perspectives generated",
		zap.String("query_type", string(intent.QueryType)),
		zap.Int("count", len(perspectives)),
	)
	return perspectives
}

// searchPerspectives emits the three search strategies, plus an
// analytics add-on for non-trivial requests.
func (g *Generator) searchPerspectives(intent *domain.Intent, analysis *domain.SchemaAnalysis) []domain.Perspective {
	adj := newAdjuster(intent, analysis)

	perspectives := []domain.Perspective{
		{
			ID:          uuid.NewString(),
			Name:        "Precise Match",
			Description: "Strict matching that returns only documents satisfying every term",
			Confidence:  adj.precise(),
			Approach:    "precise",
			QueryParams: map[string]any{
				"minimum_should_match": "100%",
				"fuzziness":            "0",
				"operator":             "and",
			},
		},
		{
			ID:          uuid.NewString(),
			Name:        "Enhanced Recall",
			Description: "Forgiving matching that tolerates typos and partial phrasing",
			Confidence:  adj.recall(),
			Approach:    "recall",
			QueryParams: map[string]any{
				"minimum_should_match": "75%",
				"fuzziness":            "AUTO",
			},
		},
		{
			ID:          uuid.NewString(),
			Name:        "Relevance Optimized",
			Description: "Cross-field matching tuned for ranking quality",
			Confidence:  adj.relevance(),
			Approach:    "relevance",
			QueryParams: map[string]any{
				"multi_match_type":     "cross_fields",
				"minimum_should_match": "85%",
				"tie_breaker":          0.3,
			},
		},
	}

	if intent.Complexity == domain.ComplexityMedium || intent.Complexity == domain.ComplexityComplex {
		perspectives = append(perspectives, domain.Perspective{
			ID:          uuid.NewString(),
			Name:        "Search with Analytics",
			Description: "Search results bundled with aggregation summaries",
			Confidence:  0.7,
			Approach:    "search_analytics",
			QueryParams: map[string]any{
				"include_aggregations": true,
				"suggested_dimensions": suggestedDimensions(analysis, 3),
			},
		})
	}

	return perspectives
}

// aggregationPerspectives emits the analytic strategies for bucket and
// metric asks.
func (g *Generator) aggregationPerspectives(intent *domain.Intent, analysis *domain.SchemaAnalysis) []domain.Perspective {
	perspectives := []domain.Perspective{
		{
			ID:          uuid.NewString(),
			Name:        "Standard Analytics",
			Description: "Bucket and metric aggregations over the requested dimensions",
			Confidence:  0.9,
			Approach:    "standard_analytics",
			QueryParams: map[string]any{
				"bucket_size": 10,
			},
		},
	}

	if referencesDates(intent, analysis) {
		perspectives = append(perspectives, domain.Perspective{
			ID:          uuid.NewString(),
			Name:        "Time Series Analysis",
			Description: "Date-histogram bucketing to expose change over time",
			Confidence:  0.85,
			Approach:    "time_series",
			QueryParams: map[string]any{
				"time_field": timeField(intent, analysis),
				"interval":   aggInterval(intent),
			},
		})
	}

	perspectives = append(perspectives, domain.Perspective{
		ID:          uuid.NewString(),
		Name:        "Multi-Dimensional Analysis",
		Description: "Nested aggregations across several dimensions at once",
		Confidence:  0.75,
		Approach:    "multi_dimensional",
		QueryParams: map[string]any{
			"dimensions": suggestedDimensions(analysis, 3),
		},
	})

	return perspectives
}

// analyticsPerspectives is the catch-all for stats-style asks with no
// dedicated strategy set.
func (g *Generator) analyticsPerspectives(intent *domain.Intent) []domain.Perspective {
	return []domain.Perspective{
		{
			ID:          uuid.NewString(),
			Name:        "Statistical Analysis",
			Description: "Extended stats and percentiles over numeric fields",
			Confidence:  0.8,
			Approach:    "statistical",
			QueryParams: map[string]any{
				"metrics": []string{"extended_stats", "percentiles"},
			},
		},
		{
			ID:          uuid.NewString(),
			Name:        "Top Items Analysis",
			Description: "Most frequent values ordered by document count",
			Confidence:  0.85,
			Approach:    "top_items",
			QueryParams: map[string]any{
				"order": "count_desc",
			},
		},
		{
			ID:          uuid.NewString(),
			Name:        "Comparative Analysis",
			Description: "Side-by-side comparison of filtered segments",
			Confidence:  0.75,
			Approach:    "comparative",
			QueryParams: map[string]any{
				"segments": 2,
			},
		},
	}
}

// adjuster applies small confidence tweaks keyed on intent vocabulary,
// entity count, complexity, and schema text richness, clamped afterwards.
type adjuster struct {
	exactVocab  bool
	broadVocab  bool
	multiEntity bool
	textRich    bool
	complexity  domain.Complexity
}

func newAdjuster(intent *domain.Intent, analysis *domain.SchemaAnalysis) adjuster {
	lower := strings.ToLower(intent.OriginalText)
	a := adjuster{
		multiEntity: len(intent.Entities) > 1,
		complexity:  intent.Complexity,
	}
	for _, kw := range []string{"exact", "exactly", "precise", "specific"} {
		if strings.Contains(lower, kw) {
			a.exactVocab = true
			break
		}
	}
	for _, kw := range []string{"similar", "like", "fuzzy", "roughly", "broad", "any"} {
		if strings.Contains(lower, kw) {
			a.broadVocab = true
			break
		}
	}
	if analysis != nil && len(analysis.Searchable) > 3 {
		a.textRich = true
	}
	return a
}

func (a adjuster) precise() float64 {
	c := 0.8
	if a.exactVocab {
		c += 0.1
	}
	if a.broadVocab {
		c -= 0.15
	}
	switch a.complexity {
	case domain.ComplexitySimple:
		c += 0.05
	case domain.ComplexityComplex:
		c -= 0.05
	}
	return clamp(c)
}

func (a adjuster) recall() float64 {
	c := 0.7
	if a.broadVocab {
		c += 0.15
	}
	if a.exactVocab {
		c -= 0.05
	}
	if a.textRich {
		c += 0.05
	}
	if a.complexity == domain.ComplexityComplex {
		c += 0.05
	}
	return clamp(c)
}

func (a adjuster) relevance() float64 {
	c := 0.75
	if a.multiEntity {
		c += 0.05
	}
	if a.textRich {
		c += 0.1
	}
	if a.complexity == domain.ComplexityMedium {
		c += 0.05
	}
	return clamp(c)
}

func clamp(c float64) float64 {
	if c < minConfidence {
		return minConfidence
	}
	if c > maxConfidence {
		return maxConfidence
	}
	return c
}

// referencesDates reports whether the intent or schema carries any
// date-like field.
func referencesDates(intent *domain.Intent, analysis *domain.SchemaAnalysis) bool {
	if intent.Timeframe != nil {
		return true
	}
	for _, agg := range intent.Aggregations {
		if agg.Type == "date_histogram" {
			return true
		}
	}
	return analysis != nil && len(analysis.Dates) > 0
}

// timeField picks the intent's time field, falling back to the schema's
// first date field, then "@timestamp".
func timeField(intent *domain.Intent, analysis *domain.SchemaAnalysis) string {
	if intent.Timeframe != nil && intent.Timeframe.Field != "" {
		return intent.Timeframe.Field
	}
	if analysis != nil && len(analysis.Dates) > 0 {
		return analysis.Dates[0]
	}
	return "@timestamp"
}

// aggInterval picks the first extracted date-histogram interval,
// defaulting to hour.
func aggInterval(intent *domain.Intent) string {
	for _, agg := range intent.Aggregations {
		if agg.Type == "date_histogram" && agg.Interval != "" {
			return agg.Interval
		}
	}
	return "hour"
}

// suggestedDimensions returns up to n aggregatable fields to suggest as
// grouping dimensions.
func suggestedDimensions(analysis *domain.SchemaAnalysis, n int) []string {
	if analysis == nil {
		return nil
	}
	if len(analysis.Aggregatable) < n {
		n = len(analysis.Aggregatable)
	}
	dims := make([]string, n)
	copy(dims, analysis.Aggregatable[:n])
	return dims
}
