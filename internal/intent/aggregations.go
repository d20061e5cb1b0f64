package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/queryforge/queryforge/internal/domain"
)

// aggRule pairs one pattern with the aggregation it produces. The field
// hint is always the last capture group.
type aggRule struct {
	pattern *regexp.Regexp
	aggType string
}

// Ordered aggregation rules. "top N" is handled separately because it
// carries a size.
var aggRules = []aggRule{
	{regexp.MustCompile(`count(?:\s+of\s+\w+)?\s+(?:by|per)\s+([\w.]+)`), "terms"},
	{regexp.MustCompile(`group(?:ed)?\s+by\s+([\w.]+)`), "terms"},
	{regexp.MustCompile(`(?:average|avg)(?:\s+of)?\s+([\w.]+)`), "avg"},
	{regexp.MustCompile(`(?:sum|total)\s+of\s+([\w.]+)`), "sum"},
	{regexp.MustCompile(`min(?:imum)?\s+(?:of\s+)?([\w.]+)`), "min"},
	{regexp.MustCompile(`max(?:imum)?\s+(?:of\s+)?([\w.]+)`), "max"},
	{regexp.MustCompile(`stats\s+(?:for|of)\s+([\w.]+)`), "stats"},
	{regexp.MustCompile(`percentiles?\s+of\s+([\w.]+)`), "percentiles"},
	{regexp.MustCompile(`(?:distribution|histogram)\s+of\s+([\w.]+)`), "histogram"},
}

var reTopN = regexp.MustCompile(`top\s+(\d+)\s+([\w.]+)`)

// Interval vocabulary for date histograms.
var (
	intervalWords = []struct {
		word     string
		interval string
	}{
		{"hourly", "hour"},
		{"daily", "day"},
		{"weekly", "week"},
		{"monthly", "month"},
		{"yearly", "year"},
	}
	reEveryN = regexp.MustCompile(`every\s+(\d+)\s*(minute|hour|day|week|month|year)s?`)
)

// extractAggregations applies the fixed (pattern, agg-type) table, then
// appends a date_histogram for time-series categories.
func extractAggregations(lower string, analysis *domain.SchemaAnalysis, queryType domain.QueryType, timeframe *domain.Timeframe) []domain.Aggregation {
	var aggs []domain.Aggregation
	seen := make(map[string]bool)

	add := func(agg domain.Aggregation) {
		key := agg.Type + "|" + agg.Field
		if seen[key] {
			return
		}
		seen[key] = true
		aggs = append(aggs, agg)
	}

	for _, rule := range aggRules {
		for _, m := range rule.pattern.FindAllStringSubmatch(lower, -1) {
			field, resolved := resolveField(m[len(m)-1], analysis)
			confidence := unresolvedFilterConfidence
			if resolved {
				confidence = resolvedFilterConfidence
			}
			add(domain.Aggregation{Type: rule.aggType, Field: field, Confidence: confidence})
		}
	}

	for _, m := range reTopN.FindAllStringSubmatch(lower, -1) {
		size, _ := strconv.Atoi(m[1])
		field, resolved := resolveField(m[2], analysis)
		confidence := unresolvedFilterConfidence
		if resolved {
			confidence = resolvedFilterConfidence
		}
		add(domain.Aggregation{Type: "terms", Field: field, Size: size, Confidence: confidence})
	}

	if queryType == domain.QueryTypeTimeSeries {
		field := defaultTimeField
		if timeframe != nil && timeframe.Field != "" {
			field = timeframe.Field
		} else if analysis != nil && len(analysis.Dates) > 0 {
			field = analysis.Dates[0]
		}
		add(domain.Aggregation{
			Type:       "date_histogram",
			Field:      field,
			Interval:   detectInterval(lower),
			Confidence: resolvedFilterConfidence,
		})
	}

	return aggs
}

// detectInterval infers a date-histogram interval from vocabulary,
// defaulting to hour.
func detectInterval(lower string) string {
	for _, iw := range intervalWords {
		if strings.Contains(lower, iw.word) {
			return iw.interval
		}
	}
	if m := reEveryN.FindStringSubmatch(lower); m != nil {
		if m[1] == "1" {
			return m[2]
		}
		return m[1] + m[2][:1] // e.g. "5m", "2h"
	}
	return "hour"
}
