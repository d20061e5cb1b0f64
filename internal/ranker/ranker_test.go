package ranker

import (
	"math"
	"strings"
	"testing"

	"github.com/queryforge/queryforge/internal/domain"
	"github.com/queryforge/queryforge/internal/logger"
)

func candidate(id string, confidence float64, errors, warnings int) domain.Candidate {
	var errs, warns []domain.Issue
	for i := 0; i < errors; i++ {
		errs = append(errs, domain.Issue{Type: domain.IssueStructure, Message: "broken"})
	}
	for i := 0; i < warnings; i++ {
		warns = append(warns, domain.Issue{Type: domain.IssueUsage, Message: "iffy"})
	}
	return domain.Candidate{
		ID: id,
		Query: map[string]any{
			"query": map[string]any{"match": map[string]any{"message": "timeout"}},
		},
		Perspective: domain.Perspective{Name: "P-" + id, Confidence: confidence},
		Validation: domain.ValidationResult{
			Valid:    errors == 0,
			Errors:   errs,
			Warnings: warns,
		},
	}
}

func searchIntent(text string) *domain.Intent {
	return &domain.Intent{
		QueryType:    domain.QueryTypeSearch,
		OriginalText: text,
		Confidence:   0.85,
	}
}

func TestRankCleanBeatsErroredAtEqualConfidence(t *testing.T) {
	r := NewRanker(logger.NewNop())

	got := r.Rank([]domain.Candidate{
		candidate("errored", 0.8, 2, 0),
		candidate("clean", 0.8, 0, 0),
	}, searchIntent("find timeout errors"))

	if got[0].ID != "clean" {
		t.Errorf("top candidate = %q, want clean one; scores %v vs %v",
			got[0].ID, got[0].Score, got[1].Score)
	}
	// Two errors cost 0.6 of the validation component, 0.12 overall.
	diff := got[0].Score - got[1].Score
	if diff < 0.11 || diff > 0.13 {
		t.Errorf("score gap = %v, want about 0.12", diff)
	}
}

func TestRankSortsByScoreDescending(t *testing.T) {
	r := NewRanker(logger.NewNop())

	got := r.Rank([]domain.Candidate{
		candidate("low", 0.4, 1, 2),
		candidate("high", 0.9, 0, 0),
		candidate("mid", 0.7, 0, 1),
	}, searchIntent("find timeout errors"))

	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("candidates not sorted at %d: %v > %v", i, got[i].Score, got[i-1].Score)
		}
	}
	if got[0].ID != "high" {
		t.Errorf("top candidate = %q, want high", got[0].ID)
	}
}

func TestRankStable(t *testing.T) {
	r := NewRanker(logger.NewNop())
	intent := searchIntent("find timeout errors in payments")

	build := func() []domain.Candidate {
		return []domain.Candidate{
			candidate("a", 0.8, 0, 1),
			candidate("b", 0.8, 0, 1),
			candidate("c", 0.75, 0, 0),
		}
	}

	first := r.Rank(build(), intent)
	second := r.Rank(build(), intent)

	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("order differs between runs at %d: %q vs %q", i, first[i].ID, second[i].ID)
		}
		if first[i].Score != second[i].Score {
			t.Fatalf("score differs between runs for %q: %v vs %v", first[i].ID, first[i].Score, second[i].Score)
		}
	}
}

func TestRankRelevanceRewardsMatchedTerms(t *testing.T) {
	r := NewRanker(logger.NewNop())
	intent := searchIntent("find timeout in payments")

	onTopic := candidate("on", 0.8, 0, 0)
	onTopic.Query = map[string]any{
		"query": map[string]any{"match": map[string]any{"message": "timeout payments"}},
	}
	offTopic := candidate("off", 0.8, 0, 0)
	offTopic.Query = map[string]any{
		"query": map[string]any{"match": map[string]any{"message": "unrelated"}},
	}

	got := r.Rank([]domain.Candidate{offTopic, onTopic}, intent)
	if got[0].ID != "on" {
		t.Errorf("candidate matching intent terms should rank first: %v vs %v", got[0].Score, got[1].Score)
	}
}

func TestRankRelevanceRewardsAggregations(t *testing.T) {
	r := NewRanker(logger.NewNop())
	intent := &domain.Intent{
		QueryType:    domain.QueryTypeAggregation,
		OriginalText: "count of documents by category",
		Aggregations: []domain.Aggregation{{Type: "terms", Field: "category", Confidence: 0.85}},
	}

	withAggs := candidate("aggs", 0.8, 0, 0)
	withAggs.Query = map[string]any{
		"size": 0,
		"aggs": map[string]any{
			"by_category": map[string]any{"terms": map[string]any{"field": "category"}},
		},
	}
	without := candidate("plain", 0.8, 0, 0)

	got := r.Rank([]domain.Candidate{without, withAggs}, intent)
	if got[0].ID != "aggs" {
		t.Errorf("aggregation intent should favor the aggregating candidate: %v vs %v", got[0].Score, got[1].Score)
	}
}

func TestRankRelevanceRewardsTimeframe(t *testing.T) {
	intent := searchIntent("errors in the last 24 hours")
	intent.Timeframe = &domain.Timeframe{
		Type: domain.TimeframeRelative, Field: "@timestamp", Value: 24, Unit: "hour",
	}

	temporal := candidate("temporal", 0.8, 0, 0)
	temporal.Query = map[string]any{
		"query": map[string]any{
			"range": map[string]any{"@timestamp": map[string]any{"gte": "now-24h"}},
		},
	}
	plain := candidate("plain", 0.8, 0, 0)

	got := NewRanker(logger.NewNop()).Rank([]domain.Candidate{plain, temporal}, intent)
	if got[0].ID != "temporal" {
		t.Errorf("timeframe intent should favor the time-bounded candidate: %v vs %v", got[0].Score, got[1].Score)
	}
}

func TestRankPerformancePenalties(t *testing.T) {
	r := NewRanker(logger.NewNop())
	intent := searchIntent("find hosts")

	expensive := candidate("wild", 0.8, 0, 0)
	expensive.Query = map[string]any{
		"query": map[string]any{"wildcard": map[string]any{"host": "*west"}},
		"size":  5000,
	}
	cheap := candidate("cheap", 0.8, 0, 0)
	cheap.Query = map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []any{map[string]any{"term": map[string]any{"host": "web-1"}}},
			},
		},
		"_source": []any{"host"},
	}

	got := r.Rank([]domain.Candidate{expensive, cheap}, intent)
	if got[0].ID != "cheap" {
		t.Errorf("filtered query should outrank wildcard scan: %v vs %v", got[0].Score, got[1].Score)
	}
}

func TestPerformanceScoreSizePenalties(t *testing.T) {
	tests := []struct {
		name string
		size int
		want float64
	}{
		{"four digit size over threshold", 2000, 0.4},
		{"four digit size at threshold", 1000, 0.6},
		{"small size", 500, 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := map[string]any{
				"size":  tt.size,
				"query": map[string]any{"match_all": map[string]any{}},
			}
			got := performanceScore(serializeForScan(query), query)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("performance sub-score = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRelevanceScoreRewardsBoolMustFiltering(t *testing.T) {
	intent := searchIntent("logins from host web-1")
	intent.Filters = []domain.Filter{
		{Field: "host", Operator: domain.OpEq, Value: "web-1", Confidence: 0.9},
	}

	filtered := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": []any{map[string]any{"term": map[string]any{"host": "web-1"}}},
			},
		},
	}
	plain := map[string]any{
		"query": map[string]any{"match": map[string]any{"message": "host web-1"}},
	}

	withBonus := relevanceScore(serializeForScan(filtered), filtered, intent)
	withoutBonus := relevanceScore(serializeForScan(plain), plain, intent)
	if diff := withBonus - withoutBonus; math.Abs(diff-0.1) > 1e-9 {
		t.Errorf("bool must term should earn the filtering bonus, diff = %v", diff)
	}
}

func TestRankAnnotatesExplanation(t *testing.T) {
	r := NewRanker(logger.NewNop())

	got := r.Rank([]domain.Candidate{candidate("x", 0.8, 0, 2)}, searchIntent("find things"))

	expl := got[0].Explanation
	if !strings.Contains(expl, "P-x") {
		t.Errorf("explanation should name the perspective: %q", expl)
	}
	if !strings.Contains(expl, "2 warning(s)") {
		t.Errorf("explanation should count warnings: %q", expl)
	}
	if !strings.Contains(expl, "validation 90%") {
		t.Errorf("explanation should include the validation percentage: %q", expl)
	}
}

func TestRankRecommendationsMergedAndCapped(t *testing.T) {
	r := NewRanker(logger.NewNop())

	c := candidate("x", 0.8, 0, 0)
	c.Query = map[string]any{
		"query": map[string]any{"wildcard": map[string]any{"host": "*west"}},
		"size":  5000,
	}
	c.Validation.Suggestions = []string{"s1", "s2", "s3", "s4"}

	got := r.Rank([]domain.Candidate{c}, searchIntent("anything at all really"))

	recs := got[0].Recommendations
	if len(recs) > 5 {
		t.Errorf("recommendations not capped at 5: %v", recs)
	}
	for _, dropped := range []string{"s4"} {
		for _, rec := range recs {
			if rec == dropped {
				t.Errorf("more than three validator suggestions carried over: %v", recs)
			}
		}
	}
	found := false
	for _, rec := range recs {
		if strings.Contains(rec, "execution cost") {
			found = true
		}
	}
	if !found {
		t.Errorf("expensive query should earn a cost recommendation: %v", recs)
	}
}

func TestRankCostRecommendationSkippedWithSource(t *testing.T) {
	r := NewRanker(logger.NewNop())

	c := candidate("x", 0.8, 0, 0)
	c.Query = map[string]any{
		"query":   map[string]any{"wildcard": map[string]any{"host": "*west"}},
		"size":    5000,
		"_source": []any{"host"},
	}

	got := r.Rank([]domain.Candidate{c}, searchIntent("find hosts out west"))
	for _, rec := range got[0].Recommendations {
		if strings.Contains(rec, "execution cost") {
			t.Errorf("cost advice should not fire when _source is already set: %v", got[0].Recommendations)
		}
	}
}

func TestRankEmptyInput(t *testing.T) {
	got := NewRanker(logger.NewNop()).Rank(nil, searchIntent("anything"))
	if len(got) != 0 {
		t.Errorf("ranking no candidates should return none, got %v", got)
	}
}
