// Package schema provides unit tests for the schema model and cache.
package schema

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/queryforge/queryforge/internal/domain"
	"github.com/queryforge/queryforge/internal/logger"
)

// fakeProvider returns a scripted sequence of mapping fetch results.
type fakeProvider struct {
	mapping map[string]any
	err     error
	calls   int
}

func (p *fakeProvider) GetMapping(ctx context.Context, indexPattern string) (map[string]any, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.mapping, nil
}

func TestModelCachesAnalysis(t *testing.T) {
	provider := &fakeProvider{mapping: sampleMapping()}
	model := NewModel(provider, time.Hour, 10, logger.NewNop())

	first, err := model.Analysis(context.Background(), "logs-*")
	if err != nil {
		t.Fatalf("Analysis() error = %v", err)
	}
	second, err := model.Analysis(context.Background(), "logs-*")
	if err != nil {
		t.Fatalf("Analysis() error = %v", err)
	}

	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1", provider.calls)
	}
	if first != second {
		t.Error("second read should hit the cache")
	}
}

func TestModelStaleFallback(t *testing.T) {
	provider := &fakeProvider{mapping: sampleMapping()}
	model := NewModel(provider, time.Hour, 10, logger.NewNop())

	fresh, err := model.Analysis(context.Background(), "logs-*")
	if err != nil {
		t.Fatalf("Analysis() error = %v", err)
	}

	// Force a refresh that fails: entry invalidated from the fresh view
	// but still retrievable as stale is simulated by expiring via a new
	// model sharing no state, so instead exercise GetStale directly.
	model.cache.entries["logs-*"].expiresAt = time.Now().Add(-time.Minute)
	provider.err = errors.New("cluster down")

	stale, err := model.Analysis(context.Background(), "logs-*")
	if err != nil {
		t.Fatalf("Analysis() should fall back to stale cache, got error %v", err)
	}
	if stale != fresh {
		t.Error("stale fallback should return the cached analysis")
	}
}

func TestModelFailsWithoutCache(t *testing.T) {
	provider := &fakeProvider{err: errors.New("cluster down")}
	model := NewModel(provider, time.Hour, 10, logger.NewNop())

	_, err := model.Analysis(context.Background(), "logs-*")
	if !errors.Is(err, domain.ErrSchemaUnavailable) {
		t.Errorf("error = %v, want ErrSchemaUnavailable", err)
	}
}

func TestCacheExpiry(t *testing.T) {
	cache := NewCache(time.Hour, 10)
	analysis := Analyze(sampleMapping())

	cache.Put("logs-*", analysis)
	if _, ok := cache.Get("logs-*"); !ok {
		t.Fatal("fresh entry should be readable")
	}

	cache.entries["logs-*"].expiresAt = time.Now().Add(-time.Second)
	if _, ok := cache.Get("logs-*"); ok {
		t.Error("expired entry should miss")
	}
	if _, ok := cache.GetStale("logs-*"); !ok {
		t.Error("expired entry should still be readable as stale")
	}

	cache.Invalidate("logs-*")
	if _, ok := cache.GetStale("logs-*"); ok {
		t.Error("invalidated entry should be gone")
	}
}

func TestCacheEviction(t *testing.T) {
	cache := NewCache(time.Hour, 2)
	analysis := Analyze(sampleMapping())

	cache.Put("a", analysis)
	cache.Put("b", analysis)
	cache.Put("c", analysis)

	if cache.Size() > 3 {
		t.Errorf("cache size = %d, expected eviction to bound growth", cache.Size())
	}
}
