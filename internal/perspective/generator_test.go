// Package perspective provides unit tests for strategy generation.
package perspective

import (
	"testing"

	"github.com/queryforge/queryforge/internal/domain"
	"github.com/queryforge/queryforge/internal/logger"
)

func searchIntent(text string) *domain.Intent {
	return &domain.Intent{
		QueryType:    domain.QueryTypeSearch,
		OriginalText: text,
		Confidence:   0.85,
	}
}

func textAnalysis() *domain.SchemaAnalysis {
	return &domain.SchemaAnalysis{
		Fields: []domain.SchemaField{
			{Path: "status", Type: domain.FieldTypeKeyword},
			{Path: "@timestamp", Type: domain.FieldTypeDate},
		},
		Searchable:   []string{"title", "body", "summary", "comments.text"},
		Aggregatable: []string{"status", "category", "host", "@timestamp"},
		Dates:        []string{"@timestamp"},
	}
}

func TestGenerateSearchPerspectives(t *testing.T) {
	g := NewGenerator(3, logger.NewNop())

	got := g.Generate(searchIntent("find failed logins"), textAnalysis())

	if len(got) != 3 {
		t.Fatalf("generated %d perspectives, want 3", len(got))
	}

	names := make(map[string]bool)
	for _, p := range got {
		names[p.Name] = true
		if p.Confidence < 0.1 || p.Confidence > 0.95 {
			t.Errorf("perspective %q confidence %v outside [0.1, 0.95]", p.Name, p.Confidence)
		}
		if p.ID == "" {
			t.Errorf("perspective %q has no ID", p.Name)
		}
	}
	for _, want := range []string{"Precise Match", "Enhanced Recall", "Relevance Optimized"} {
		if !names[want] {
			t.Errorf("missing perspective %q, got %v", want, names)
		}
	}
}

func TestGenerateSortedDescending(t *testing.T) {
	g := NewGenerator(4, logger.NewNop())

	got := g.Generate(searchIntent("find things"), textAnalysis())
	for i := 1; i < len(got); i++ {
		if got[i].Confidence > got[i-1].Confidence {
			t.Errorf("perspectives not sorted by confidence at %d: %v > %v", i, got[i].Confidence, got[i-1].Confidence)
		}
	}
}

func TestGenerateCapRespected(t *testing.T) {
	g := NewGenerator(2, logger.NewNop())

	got := g.Generate(searchIntent("find things"), textAnalysis())
	if len(got) != 2 {
		t.Errorf("generated %d perspectives, want cap of 2", len(got))
	}
}

func TestComplexIntentAddsAnalyticsPerspective(t *testing.T) {
	g := NewGenerator(4, logger.NewNop())

	intent := searchIntent("find failed logins grouped somehow")
	intent.Complexity = domain.ComplexityComplex

	got := g.Generate(intent, textAnalysis())
	for _, p := range got {
		if p.Name == "Search with Analytics" {
			if p.Confidence != 0.7 {
				t.Errorf("analytics perspective confidence = %v, want 0.7", p.Confidence)
			}
			return
		}
	}
	t.Errorf("Search with Analytics not emitted for complex intent: %+v", got)
}

func TestSimpleComplexityBoostsPrecise(t *testing.T) {
	g := NewGenerator(3, logger.NewNop())

	neutral := g.Generate(searchIntent("find failed logins"), nil)
	simple := searchIntent("find failed logins")
	simple.Complexity = domain.ComplexitySimple
	boosted := g.Generate(simple, nil)

	if confidenceOf(boosted, "Precise Match") <= confidenceOf(neutral, "Precise Match") {
		t.Error("simple complexity should boost Precise Match confidence")
	}
}

func TestBroadVocabularyFavorsRecall(t *testing.T) {
	g := NewGenerator(3, logger.NewNop())

	got := g.Generate(searchIntent("find anything similar to a timeout"), textAnalysis())

	if confidenceOf(got, "Enhanced Recall") <= confidenceOf(got, "Precise Match") {
		t.Errorf("broad vocabulary should rank recall above precise: %+v", got)
	}
}

func TestGenerateAggregationPerspectives(t *testing.T) {
	g := NewGenerator(3, logger.NewNop())

	intent := &domain.Intent{
		QueryType:    domain.QueryTypeAggregation,
		OriginalText: "count of documents by category",
		Aggregations: []domain.Aggregation{{Type: "terms", Field: "category", Confidence: 0.85}},
	}

	got := g.Generate(intent, textAnalysis())

	if confidenceOf(got, "Standard Analytics") != 0.9 {
		t.Errorf("Standard Analytics missing or wrong confidence: %+v", got)
	}
	if confidenceOf(got, "Time Series Analysis") != 0.85 {
		t.Errorf("Time Series Analysis should fire when the schema has date fields: %+v", got)
	}
	if confidenceOf(got, "Multi-Dimensional Analysis") != 0.75 {
		t.Errorf("Multi-Dimensional Analysis missing: %+v", got)
	}
}

func TestAggregationWithoutDatesSkipsTimeSeries(t *testing.T) {
	g := NewGenerator(3, logger.NewNop())

	intent := &domain.Intent{
		QueryType:    domain.QueryTypeAggregation,
		OriginalText: "count by category",
	}
	analysis := &domain.SchemaAnalysis{Aggregatable: []string{"category"}}

	got := g.Generate(intent, analysis)
	for _, p := range got {
		if p.Name == "Time Series Analysis" {
			t.Errorf("Time Series Analysis emitted without any date reference: %+v", got)
		}
	}
}

func TestGenerateAnalyticsCatchAll(t *testing.T) {
	g := NewGenerator(3, logger.NewNop())

	intent := &domain.Intent{
		QueryType:    domain.QueryTypeGeospatial,
		OriginalText: "documents near the warehouse",
	}

	got := g.Generate(intent, nil)
	if len(got) != 3 {
		t.Fatalf("generated %d perspectives, want 3", len(got))
	}
	if got[0].Name != "Top Items Analysis" {
		t.Errorf("highest catch-all perspective = %q, want Top Items Analysis", got[0].Name)
	}
}

func confidenceOf(perspectives []domain.Perspective, name string) float64 {
	for _, p := range perspectives {
		if p.Name == name {
			return p.Confidence
		}
	}
	return -1
}
