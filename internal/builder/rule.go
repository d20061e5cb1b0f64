package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/queryforge/queryforge/internal/domain"
)

// defaultSearchSize is the page size when the user did not ask for one.
const defaultSearchSize = 10

// RuleClient assembles queries deterministically from the extracted
// intent. It needs no external service and is the default builder.
type RuleClient struct {
	logger *zap.Logger
}

// NewRuleClient creates a deterministic rule-based query builder.
func NewRuleClient(logger *zap.Logger) *RuleClient {
	return &RuleClient{
		logger: logger.Named("rule_builder"),
	}
}

// Build assembles a query for the perspective's approach. The same
// inputs always produce the same draft.
func (c *RuleClient) Build(ctx context.Context, intent *domain.Intent, perspective domain.Perspective, analysis *domain.SchemaAnalysis) (*domain.DraftQuery, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.WrapError("build_cancelled", err, false)
	}

	var draft *domain.DraftQuery
	switch perspective.Approach {
	case "standard_analytics":
		draft = c.buildAnalytics(intent, analysis)
	case "time_series":
		draft = c.buildTimeSeries(intent, perspective, analysis)
	case "multi_dimensional":
		draft = c.buildMultiDimensional(intent, perspective, analysis)
	case "statistical":
		draft = c.buildStatistical(intent, perspective, analysis)
	case "top_items":
		draft = c.buildTopItems(intent, analysis)
	case "comparative":
		draft = c.buildComparative(intent, analysis)
	default:
		draft = c.buildSearch(intent, perspective, analysis)
	}

	c.logger.Debug("query drafted",
		zap.String("approach", perspective.Approach),
		zap.String("perspective", perspective.Name),
	)
	return draft, nil
}

// HealthCheck always succeeds; the rule builder has no dependencies.
func (c *RuleClient) HealthCheck(ctx context.Context) error {
	return ctx.Err()
}

// buildSearch assembles a document search query tuned by the
// perspective's matching parameters.
func (c *RuleClient) buildSearch(intent *domain.Intent, perspective domain.Perspective, analysis *domain.SchemaAnalysis) *domain.DraftQuery {
	text := textClause(intent, perspective, analysis)
	filters := filterClauses(intent, analysis)

	env := map[string]any{
		"query": combineClauses(text, filters),
	}

	size := intent.Limit
	if size <= 0 {
		size = defaultSearchSize
	}
	env["size"] = size

	if len(intent.Sorting) > 0 {
		var sorts []any
		for _, s := range intent.Sorting {
			sorts = append(sorts, map[string]any{s.Field: map[string]any{"order": s.Order}})
		}
		env["sort"] = sorts
	}

	if len(intent.Fields) > 0 {
		var source []any
		for _, f := range intent.Fields {
			source = append(source, f.Name)
		}
		env["_source"] = source
	}

	if perspective.Approach == "search_analytics" {
		if aggs := dimensionAggs(cast.ToStringSlice(perspective.QueryParams["suggested_dimensions"]), analysis); len(aggs) > 0 {
			env["aggs"] = aggs
		}
	}

	return &domain.DraftQuery{
		Query:       env,
		Explanation: searchExplanation(intent, perspective),
	}
}

// buildAnalytics assembles the requested aggregations over the filtered
// document set.
func (c *RuleClient) buildAnalytics(intent *domain.Intent, analysis *domain.SchemaAnalysis) *domain.DraftQuery {
	aggs := map[string]any{}
	for _, agg := range intent.Aggregations {
		name, body := aggregationClause(agg, analysis)
		aggs[name] = body
	}
	if len(aggs) == 0 {
		if field := firstAggregatable(analysis); field != "" {
			aggs["top_"+aggKey(field)] = map[string]any{
				"terms": map[string]any{"field": field, "size": defaultSearchSize},
			}
		}
	}

	return &domain.DraftQuery{
		Query:       analyticsEnvelope(intent, analysis, aggs),
		Explanation: fmt.Sprintf("Aggregates the filtered documents across %d dimension(s) without retrieving hits", len(aggs)),
	}
}

// buildTimeSeries nests the intent's metric aggregations under a
// date histogram.
func (c *RuleClient) buildTimeSeries(intent *domain.Intent, perspective domain.Perspective, analysis *domain.SchemaAnalysis) *domain.DraftQuery {
	field := cast.ToString(perspective.QueryParams["time_field"])
	if field == "" {
		field = "@timestamp"
	}
	interval := cast.ToString(perspective.QueryParams["interval"])
	if interval == "" {
		interval = "hour"
	}

	histogram := map[string]any{
		"date_histogram": map[string]any{
			"field":             field,
			"calendar_interval": interval,
		},
	}

	subAggs := map[string]any{}
	for _, agg := range intent.Aggregations {
		if agg.Type == "date_histogram" {
			continue
		}
		name, body := aggregationClause(agg, analysis)
		subAggs[name] = body
	}
	if len(subAggs) > 0 {
		histogram["aggs"] = subAggs
	}

	return &domain.DraftQuery{
		Query: analyticsEnvelope(intent, analysis, map[string]any{
			"over_time": histogram,
		}),
		Explanation: fmt.Sprintf("Buckets documents by %s per %s to expose change over time", field, interval),
	}
}

// buildMultiDimensional nests terms aggregations dimension by dimension,
// attaching metric aggregations at the innermost level.
func (c *RuleClient) buildMultiDimensional(intent *domain.Intent, perspective domain.Perspective, analysis *domain.SchemaAnalysis) *domain.DraftQuery {
	dims := cast.ToStringSlice(perspective.QueryParams["dimensions"])
	for _, agg := range intent.Aggregations {
		if agg.Type == "terms" && agg.Field != "" {
			dims = append(dims, agg.Field)
		}
	}
	dims = uniqueStrings(dims)
	if len(dims) == 0 {
		return c.buildAnalytics(intent, analysis)
	}

	metrics := map[string]any{}
	for _, agg := range intent.Aggregations {
		if agg.Type == "terms" || agg.Type == "date_histogram" {
			continue
		}
		name, body := aggregationClause(agg, analysis)
		metrics[name] = body
	}

	// Innermost dimension first, wrapping outwards.
	var inner map[string]any
	if len(metrics) > 0 {
		inner = metrics
	}
	for i := len(dims) - 1; i >= 0; i-- {
		field := aggregatableField(dims[i], analysis)
		bucket := map[string]any{
			"terms": map[string]any{"field": field, "size": defaultSearchSize},
		}
		if inner != nil {
			bucket["aggs"] = inner
		}
		inner = map[string]any{"by_" + aggKey(dims[i]): bucket}
	}

	return &domain.DraftQuery{
		Query:       analyticsEnvelope(intent, analysis, inner),
		Explanation: fmt.Sprintf("Breaks the documents down across %d nested dimension(s): %s", len(dims), strings.Join(dims, ", ")),
	}
}

// buildStatistical computes distribution metrics over a numeric field.
func (c *RuleClient) buildStatistical(intent *domain.Intent, perspective domain.Perspective, analysis *domain.SchemaAnalysis) *domain.DraftQuery {
	field := ""
	for _, agg := range intent.Aggregations {
		if agg.Field != "" {
			field = agg.Field
			break
		}
	}
	if field == "" {
		field = firstNumeric(analysis)
	}
	if field == "" {
		return c.buildAnalytics(intent, analysis)
	}

	metrics := cast.ToStringSlice(perspective.QueryParams["metrics"])
	if len(metrics) == 0 {
		metrics = []string{"extended_stats", "percentiles"}
	}

	aggs := map[string]any{}
	for _, metric := range metrics {
		aggs[metric+"_"+aggKey(field)] = map[string]any{
			metric: map[string]any{"field": field},
		}
	}

	return &domain.DraftQuery{
		Query:       analyticsEnvelope(intent, analysis, aggs),
		Explanation: fmt.Sprintf("Computes %s over %s for the filtered documents", strings.Join(metrics, " and "), field),
	}
}

// buildTopItems ranks the most frequent values of the leading dimension.
func (c *RuleClient) buildTopItems(intent *domain.Intent, analysis *domain.SchemaAnalysis) *domain.DraftQuery {
	field := ""
	for _, agg := range intent.Aggregations {
		if agg.Type == "terms" && agg.Field != "" {
			field = agg.Field
			break
		}
	}
	if field == "" {
		field = firstAggregatable(analysis)
	}
	if field == "" {
		return c.buildAnalytics(intent, analysis)
	}

	size := intent.Limit
	if size <= 0 {
		size = defaultSearchSize
	}

	aggs := map[string]any{
		"top_" + aggKey(field): map[string]any{
			"terms": map[string]any{
				"field": aggregatableField(field, analysis),
				"size":  size,
				"order": map[string]any{"_count": "desc"},
			},
		},
	}

	return &domain.DraftQuery{
		Query:       analyticsEnvelope(intent, analysis, aggs),
		Explanation: fmt.Sprintf("Ranks the %d most frequent values of %s", size, field),
	}
}

// buildComparative splits the documents into the matching segment and
// the rest for side-by-side counts.
func (c *RuleClient) buildComparative(intent *domain.Intent, analysis *domain.SchemaAnalysis) *domain.DraftQuery {
	var segment map[string]any
	for _, f := range intent.Filters {
		if f.Operator == domain.OpEq {
			segment = map[string]any{
				"term": map[string]any{exactField(f.Field, analysis): f.Value},
			}
			break
		}
	}
	if segment == nil {
		return c.buildTopItems(intent, analysis)
	}

	env := map[string]any{
		"query": map[string]any{"match_all": map[string]any{}},
		"size":  0,
		"aggs": map[string]any{
			"segments": map[string]any{
				"filters": map[string]any{
					"filters": map[string]any{
						"selected": segment,
						"rest": map[string]any{
							"bool": map[string]any{"must_not": []any{segment}},
						},
					},
				},
			},
		},
	}

	return &domain.DraftQuery{
		Query:       env,
		Explanation: "Compares the matching segment against all remaining documents",
	}
}

// Clause assembly helpers

// textClause builds the free-text matching clause, or nil when the
// request carries no meaningful search terms.
func textClause(intent *domain.Intent, perspective domain.Perspective, analysis *domain.SchemaAnalysis) map[string]any {
	terms := searchTerms(intent.OriginalText)
	if len(terms) == 0 {
		return nil
	}
	text := strings.Join(terms, " ")
	params := perspective.QueryParams

	if analysis != nil && len(analysis.Searchable) > 1 {
		body := map[string]any{
			"query":  text,
			"fields": analysis.Searchable,
		}
		if msm := cast.ToString(params["minimum_should_match"]); msm != "" {
			body["minimum_should_match"] = msm
		}
		if mmType := cast.ToString(params["multi_match_type"]); mmType != "" {
			body["type"] = mmType
		}
		if tb, ok := params["tie_breaker"]; ok {
			body["tie_breaker"] = tb
		}
		if fz := cast.ToString(params["fuzziness"]); fz != "" && fz != "0" {
			body["fuzziness"] = fz
		}
		return map[string]any{"multi_match": body}
	}

	field := "message"
	if analysis != nil && len(analysis.Searchable) == 1 {
		field = analysis.Searchable[0]
	}
	body := map[string]any{"query": text}
	if op := cast.ToString(params["operator"]); op != "" {
		body["operator"] = op
	}
	if fz := cast.ToString(params["fuzziness"]); fz != "" && fz != "0" {
		body["fuzziness"] = fz
	}
	if msm := cast.ToString(params["minimum_should_match"]); msm != "" {
		body["minimum_should_match"] = msm
	}
	return map[string]any{"match": map[string]any{field: body}}
}

// filterClauses renders the intent's filters and timeframe as
// non-scoring filter clauses. Range bounds on the same field merge into
// a single clause.
func filterClauses(intent *domain.Intent, analysis *domain.SchemaAnalysis) []any {
	var clauses []any
	ranges := map[string]map[string]any{}
	rangeOrder := []string{}

	addRange := func(field, bound string, value any) {
		if _, ok := ranges[field]; !ok {
			ranges[field] = map[string]any{}
			rangeOrder = append(rangeOrder, field)
		}
		ranges[field][bound] = value
	}

	for _, f := range intent.Filters {
		switch f.Operator {
		case domain.OpEq:
			clauses = append(clauses, map[string]any{
				"term": map[string]any{exactField(f.Field, analysis): f.Value},
			})
		case domain.OpGt, domain.OpGte, domain.OpLt, domain.OpLte:
			addRange(f.Field, string(f.Operator), f.Value)
		case domain.OpExists:
			clauses = append(clauses, map[string]any{
				"exists": map[string]any{"field": f.Field},
			})
		case domain.OpMissing:
			clauses = append(clauses, map[string]any{
				"bool": map[string]any{
					"must_not": []any{map[string]any{"exists": map[string]any{"field": f.Field}}},
				},
			})
		case domain.OpContains:
			clauses = append(clauses, containsClause(f, analysis))
		}
	}

	if tf := intent.Timeframe; tf != nil {
		field := tf.Field
		if field == "" {
			field = "@timestamp"
		}
		for bound, value := range timeframeBounds(tf) {
			addRange(field, bound, value)
		}
	}

	for _, field := range rangeOrder {
		clauses = append(clauses, map[string]any{
			"range": map[string]any{field: ranges[field]},
		})
	}

	return clauses
}

// containsClause prefers analyzed matching; wildcards only fit exact
// fields.
func containsClause(f domain.Filter, analysis *domain.SchemaAnalysis) map[string]any {
	if analysis != nil {
		if field, ok := analysis.Field(f.Field); ok && field.Type != domain.FieldTypeText {
			return map[string]any{
				"wildcard": map[string]any{f.Field: fmt.Sprintf("*%v*", f.Value)},
			}
		}
	}
	return map[string]any{
		"match_phrase": map[string]any{f.Field: f.Value},
	}
}

// timeframeBounds converts a timeframe to range bounds using date math.
func timeframeBounds(tf *domain.Timeframe) map[string]any {
	switch tf.Type {
	case domain.TimeframeRelative:
		return map[string]any{
			"gte": fmt.Sprintf("now-%d%s", tf.Value, unitAbbrev(tf.Unit)),
		}
	case domain.TimeframeAbsolute:
		bounds := map[string]any{}
		if tf.From != "" {
			bounds["gte"] = tf.From
		}
		if tf.To != "" {
			bounds["lte"] = tf.To
		}
		return bounds
	case domain.TimeframeNamed:
		switch tf.Period {
		case "today":
			return map[string]any{"gte": "now/d"}
		case "yesterday":
			return map[string]any{"gte": "now-1d/d", "lt": "now/d"}
		case "this week":
			return map[string]any{"gte": "now/w"}
		case "this month":
			return map[string]any{"gte": "now/M"}
		}
	}
	return map[string]any{}
}

func unitAbbrev(unit string) string {
	switch unit {
	case "minute":
		return "m"
	case "hour":
		return "h"
	case "day":
		return "d"
	case "week":
		return "w"
	case "month":
		return "M"
	case "year":
		return "y"
	}
	return "h"
}

// combineClauses wraps the text clause and filters into the smallest
// query that expresses them.
func combineClauses(text map[string]any, filters []any) map[string]any {
	switch {
	case text == nil && len(filters) == 0:
		return map[string]any{"match_all": map[string]any{}}
	case len(filters) == 0:
		return text
	default:
		b := map[string]any{"filter": filters}
		if text != nil {
			b["must"] = []any{text}
		}
		return map[string]any{"bool": b}
	}
}

// analyticsEnvelope wraps aggregations with the intent's filters and a
// zero-size hit window.
func analyticsEnvelope(intent *domain.Intent, analysis *domain.SchemaAnalysis, aggs map[string]any) map[string]any {
	env := map[string]any{
		"query": combineClauses(nil, filterClauses(intent, analysis)),
		"size":  0,
	}
	if len(aggs) > 0 {
		env["aggs"] = aggs
	}
	return env
}

// aggregationClause renders one extracted aggregation.
func aggregationClause(agg domain.Aggregation, analysis *domain.SchemaAnalysis) (string, map[string]any) {
	switch agg.Type {
	case "terms":
		size := agg.Size
		if size <= 0 {
			size = defaultSearchSize
		}
		return "by_" + aggKey(agg.Field), map[string]any{
			"terms": map[string]any{
				"field": aggregatableField(agg.Field, analysis),
				"size":  size,
			},
		}
	case "date_histogram":
		interval := agg.Interval
		if interval == "" {
			interval = "hour"
		}
		return "over_time", map[string]any{
			"date_histogram": map[string]any{
				"field":             agg.Field,
				"calendar_interval": interval,
			},
		}
	case "histogram":
		return aggKey(agg.Field) + "_distribution", map[string]any{
			"histogram": map[string]any{
				"field":    agg.Field,
				"interval": 10,
			},
		}
	default:
		return agg.Type + "_" + aggKey(agg.Field), map[string]any{
			agg.Type: map[string]any{"field": agg.Field},
		}
	}
}

// dimensionAggs builds one terms bucket per suggested dimension.
func dimensionAggs(dims []string, analysis *domain.SchemaAnalysis) map[string]any {
	if len(dims) == 0 {
		return nil
	}
	aggs := make(map[string]any, len(dims))
	for _, dim := range dims {
		aggs["by_"+aggKey(dim)] = map[string]any{
			"terms": map[string]any{
				"field": aggregatableField(dim, analysis),
				"size":  defaultSearchSize,
			},
		}
	}
	return aggs
}

// Field helpers

// exactField promotes text fields to their keyword subfield for exact
// matching.
func exactField(field string, analysis *domain.SchemaAnalysis) string {
	if analysis == nil {
		return field
	}
	if f, ok := analysis.Field(field); ok && f.Type == domain.FieldTypeText && f.HasKeywordSubfield {
		return field + ".keyword"
	}
	return field
}

// aggregatableField promotes text fields to their keyword subfield for
// bucketing.
func aggregatableField(field string, analysis *domain.SchemaAnalysis) string {
	return exactField(field, analysis)
}

func firstAggregatable(analysis *domain.SchemaAnalysis) string {
	if analysis == nil || len(analysis.Aggregatable) == 0 {
		return ""
	}
	return analysis.Aggregatable[0]
}

func firstNumeric(analysis *domain.SchemaAnalysis) string {
	if analysis == nil {
		return ""
	}
	for _, f := range analysis.Fields {
		if f.Type == domain.FieldTypeNumeric {
			return f.Path
		}
	}
	return ""
}

// aggKey turns a field path into an aggregation name fragment.
func aggKey(field string) string {
	return strings.ReplaceAll(field, ".", "_")
}

// searchTerms strips filler and operator vocabulary from the request
// text, keeping the words worth matching on.
func searchTerms(text string) []string {
	var terms []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, `.,;:!?'"()`)
		if len(w) <= 2 || fillerWords[w] || isNumber(w) {
			continue
		}
		terms = append(terms, w)
	}
	return uniqueStrings(terms)
}

var fillerWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"that": true, "this": true, "are": true, "was": true, "were": true,
	"show": true, "find": true, "get": true, "give": true, "list": true,
	"all": true, "any": true, "where": true, "when": true, "have": true,
	"last": true, "past": true, "than": true, "between": true,
	"greater": true, "less": true, "equal": true, "equals": true,
	"documents": true, "records": true, "results": true, "fields": true,
	"sorted": true, "sort": true, "order": true, "ordered": true,
	"count": true, "average": true, "sum": true, "group": true,
	"hours": true, "hour": true, "days": true, "day": true,
	"minutes": true, "weeks": true, "months": true, "years": true,
}

func isNumber(w string) bool {
	if w == "" {
		return false
	}
	for _, r := range w {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return true
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// searchExplanation summarizes what the search draft does.
func searchExplanation(intent *domain.Intent, perspective domain.Perspective) string {
	var parts []string
	switch perspective.Approach {
	case "recall":
		parts = append(parts, "Forgiving text matching that tolerates typos")
	case "relevance":
		parts = append(parts, "Cross-field matching tuned for ranking quality")
	case "search_analytics":
		parts = append(parts, "Search results with aggregation summaries alongside")
	default:
		parts = append(parts, "Strict text matching requiring every term")
	}
	if n := len(intent.Filters); n > 0 {
		parts = append(parts, fmt.Sprintf("%d filter(s) applied without scoring", n))
	}
	if intent.Timeframe != nil {
		parts = append(parts, "restricted to the requested time window")
	}
	return strings.Join(parts, "; ")
}
