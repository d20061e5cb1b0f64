// Package fuzzy provides unit tests for approximate string matching.
package fuzzy

import (
	"math"
	"testing"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{
			name: "identical strings",
			a:    "status",
			b:    "status",
			want: 1.0,
		},
		{
			name: "both empty",
			a:    "",
			b:    "",
			want: 1.0,
		},
		{
			name: "one substitution",
			a:    "status",
			b:    "statos",
			want: 1.0 - 1.0/6.0,
		},
		{
			name: "completely different",
			a:    "abc",
			b:    "xyz",
			want: 0.0,
		},
		{
			name: "one empty",
			a:    "field",
			b:    "",
			want: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestClosestMatches(t *testing.T) {
	candidates := []string{"status", "state", "message", "timestamp", "status_code"}

	tests := []struct {
		name      string
		input     string
		limit     int
		minSim    float64
		wantFirst string
		wantCount int
	}{
		{
			name:      "typo resolves to closest field",
			input:     "staus",
			limit:     3,
			minSim:    0.5,
			wantFirst: "status",
			wantCount: 2, // status, state
		},
		{
			name:      "case insensitive",
			input:     "STATUS",
			limit:     3,
			minSim:    0.9,
			wantFirst: "status",
			wantCount: 1,
		},
		{
			name:      "no match above threshold",
			input:     "zzzzzz",
			limit:     3,
			minSim:    0.5,
			wantCount: 0,
		},
		{
			name:      "empty input",
			input:     "",
			limit:     3,
			minSim:    0.5,
			wantCount: 0,
		},
		{
			name:      "limit respected",
			input:     "stat",
			limit:     1,
			minSim:    0.1,
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClosestMatches(tt.input, candidates, tt.limit, tt.minSim)
			if len(got) != tt.wantCount {
				t.Fatalf("ClosestMatches() returned %d matches, want %d: %v", len(got), tt.wantCount, got)
			}
			if tt.wantFirst != "" && got[0].Value != tt.wantFirst {
				t.Errorf("best match = %q, want %q", got[0].Value, tt.wantFirst)
			}
		})
	}
}

func TestClosestMatchesOrdering(t *testing.T) {
	got := ClosestMatches("user", []string{"username", "user_id", "user"}, 3, 0.1)
	if len(got) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Similarity > got[i-1].Similarity {
			t.Errorf("matches not sorted descending at %d: %v", i, got)
		}
	}
	if got[0].Value != "user" {
		t.Errorf("exact match should rank first, got %q", got[0].Value)
	}
}
