// Package ranker scores and orders query candidates so the most
// trustworthy one comes first. Scores blend perspective confidence with
// validation cleanliness, intent relevance, and performance shape.
package ranker

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/queryforge/queryforge/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Score component weights. Confidence dominates; the rest break ties.
const (
	weightConfidence  = 0.5
	weightValidation  = 0.2
	weightRelevance   = 0.2
	weightPerformance = 0.1
)

const maxRecommendations = 5

// Ranker orders candidates by consensus score.
type Ranker struct {
	logger *zap.Logger
}

// NewRanker creates a candidate ranker.
func NewRanker(logger *zap.Logger) *Ranker {
	return &Ranker{
		logger: logger.Named("ranker"),
	}
}

// Rank scores every candidate against the intent and returns them best
// first. Candidates are annotated in place with score, explanation, and
// recommendations. Ranking the same inputs twice yields the same order.
func (r *Ranker) Rank(candidates []domain.Candidate, intent *domain.Intent) []domain.Candidate {
	for i := range candidates {
		r.score(&candidates[i], intent)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Perspective.Confidence > candidates[j].Perspective.Confidence
	})

	if len(candidates) > 0 {
		r.logger.Debug("candidates ranked",
			zap.Int("count", len(candidates)),
			zap.String("top", candidates[0].Perspective.Name),
			zap.Float64("top_score", candidates[0].Score),
		)
	}
	return candidates
}

func (r *Ranker) score(c *domain.Candidate, intent *domain.Intent) {
	queryText := serializeForScan(c.Query)

	validation := validationScore(c.Validation)
	relevance := relevanceScore(queryText, c.Query, intent)
	performance := performanceScore(queryText, c.Query)

	c.Score = weightConfidence*c.Perspective.Confidence +
		weightValidation*validation +
		weightRelevance*relevance +
		weightPerformance*performance

	c.Explanation = explain(c, validation, relevance, performance)
	c.Recommendations = recommend(c, relevance, performance)
}

// validationScore starts clean and deducts per issue.
func validationScore(v domain.ValidationResult) float64 {
	score := 1.0
	score -= 0.3 * float64(len(v.Errors))
	score -= 0.05 * float64(len(v.Warnings))
	return clamp01(score)
}

// relevanceScore measures how much of the intent the query visibly
// addresses.
func relevanceScore(queryText string, query map[string]any, intent *domain.Intent) float64 {
	score := 0.7

	if terms := keyTerms(intent.OriginalText); len(terms) > 0 {
		matched := 0
		for _, term := range terms {
			if strings.Contains(queryText, term) {
				matched++
			}
		}
		score += 0.2 * float64(matched) / float64(len(terms))
	}

	if len(intent.Aggregations) > 0 && hasAggregations(query) {
		score += 0.15
	}
	if len(intent.Filters) > 0 && hasFilteringConstructs(queryText) {
		score += 0.1
	}
	if intent.Timeframe != nil && coversTimeframe(queryText, intent.Timeframe) {
		score += 0.15
	}

	return clamp01(score)
}

// sizeLiteralPattern spots size values of four or more digits anywhere
// in the query, including sizes buried in aggregations.
var sizeLiteralPattern = regexp.MustCompile(`"size"\s*:\s*\d{4,}`)

// performanceScore estimates execution cost from the query's shape.
func performanceScore(queryText string, query map[string]any) float64 {
	score := 0.7

	if strings.Contains(queryText, `"*`) || strings.Contains(queryText, `"?`) {
		score -= 0.2
	}
	if size, ok := querySize(query); ok && size > 1000 {
		score -= 0.2
	}
	if sizeLiteralPattern.MatchString(queryText) {
		score -= 0.1
	}
	if strings.Contains(queryText, `"filter"`) {
		score += 0.1
	}
	if _, ok := query["_source"]; ok {
		score += 0.05
	}

	return clamp01(score)
}

// explain renders a deterministic human-readable score breakdown,
// keeping any builder-supplied summary as the lead sentence.
func explain(c *domain.Candidate, validation, relevance, performance float64) string {
	var b strings.Builder
	if c.Explanation != "" {
		b.WriteString(strings.TrimSuffix(c.Explanation, "."))
		b.WriteString(". ")
	}
	fmt.Fprintf(&b, "%s strategy", c.Perspective.Name)

	switch {
	case len(c.Validation.Errors) > 0:
		fmt.Fprintf(&b, " with %d validation error(s)", len(c.Validation.Errors))
	case len(c.Validation.Warnings) > 0:
		fmt.Fprintf(&b, " with %d warning(s)", len(c.Validation.Warnings))
	default:
		b.WriteString(", validated cleanly")
	}

	fmt.Fprintf(&b, "; validation %.0f%%, relevance %.0f%%, performance %.0f%%",
		validation*100, relevance*100, performance*100)
	return b.String()
}

// recommend merges validator suggestions with ranking-derived advice.
func recommend(c *domain.Candidate, relevance, performance float64) []string {
	var recs []string

	for i, s := range c.Validation.Suggestions {
		if i == 3 {
			break
		}
		recs = append(recs, s)
	}

	if _, hasSource := c.Query["_source"]; performance < 0.6 && !hasSource {
		recs = append(recs, "Restrict _source and add filters to reduce execution cost")
	}
	if relevance < 0.75 {
		switch c.Perspective.Approach {
		case "precise":
			recs = append(recs, "If results look too narrow, try the Enhanced Recall variant")
		case "recall":
			recs = append(recs, "If results look too noisy, try the Precise Match variant")
		}
	}

	recs = dedupe(recs)
	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}

// keyTerms extracts the meaningful words from the request text.
func keyTerms(text string) []string {
	var terms []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, `.,;:!?'"()`)
		if len(w) <= 2 || stopwords[w] || isNumeric(w) {
			continue
		}
		terms = append(terms, w)
	}
	return dedupe(terms)
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"that": true, "this": true, "are": true, "was": true, "were": true,
	"show": true, "find": true, "get": true, "give": true, "list": true,
	"all": true, "any": true, "last": true, "past": true, "where": true,
	"documents": true, "records": true, "results": true,
}

func isNumeric(w string) bool {
	for _, r := range w {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(w) > 0
}

// coversTimeframe reports whether the query references the intent's time
// field or a relative date expression.
func coversTimeframe(queryText string, tf *domain.Timeframe) bool {
	if tf.Field != "" && strings.Contains(queryText, strings.ToLower(tf.Field)) {
		return true
	}
	return strings.Contains(queryText, "now-")
}

// hasFilteringConstructs reports whether the query narrows results with
// a filter clause, a bool must clause, or a term lookup.
func hasFilteringConstructs(queryText string) bool {
	for _, marker := range []string{`"filter"`, `"must"`, `"term"`} {
		if strings.Contains(queryText, marker) {
			return true
		}
	}
	return false
}

func hasAggregations(query map[string]any) bool {
	for _, key := range []string{"aggs", "aggregations"} {
		if m, ok := query[key].(map[string]any); ok && len(m) > 0 {
			return true
		}
	}
	return false
}

func querySize(query map[string]any) (int, bool) {
	switch n := query["size"].(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	}
	return 0, false
}

// serializeForScan renders the query as lowercase JSON for substring
// checks. Serialization failures degrade to an empty scan target.
func serializeForScan(query map[string]any) string {
	data, err := json.Marshal(query)
	if err != nil {
		return ""
	}
	return strings.ToLower(string(data))
}

func dedupe(in []string) []string {
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

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
