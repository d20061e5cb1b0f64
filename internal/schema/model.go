package schema

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/queryforge/queryforge/internal/domain"
)

// Model owns schema discovery: it caches analysis results per index
// pattern and falls back to the last-known cached value when a refresh
// fails. A fetch failure with no cache entry at all propagates as
// ErrSchemaUnavailable.
type Model struct {
	provider MappingProvider
	cache    *Cache
	logger   *zap.Logger
}

// NewModel creates a schema model around a mapping provider.
func NewModel(provider MappingProvider, ttl time.Duration, maxEntries int, logger *zap.Logger) *Model {
	return &Model{
		provider: provider,
		cache:    NewCache(ttl, maxEntries),
		logger:   logger.Named("schema_model"),
	}
}

// Analysis returns the schema analysis for an index pattern, fetching and
// caching as needed.
func (m *Model) Analysis(ctx context.Context, indexPattern string) (*domain.SchemaAnalysis, error) {
	if analysis, ok := m.cache.Get(indexPattern); ok {
		return analysis, nil
	}

	mapping, err := m.provider.GetMapping(ctx, indexPattern)
	if err != nil {
		// Stale values beat a failed pipeline.
		if stale, ok := m.cache.GetStale(indexPattern); ok {
			m.logger.Warn("schema fetch failed, serving stale analysis",
				zap.String("pattern", indexPattern),
				zap.Error(err),
			)
			return stale, nil
		}
		m.logger.Error("schema fetch failed with no cached fallback",
			zap.String("pattern", indexPattern),
			zap.Error(err),
		)
		return nil, domain.WrapError("schema_analysis", domain.ErrSchemaUnavailable, domain.IsRetryable(err))
	}

	analysis := Analyze(mapping)
	m.cache.Put(indexPattern, analysis)

	m.logger.Debug("schema analyzed",
		zap.String("pattern", indexPattern),
		zap.Int("fields", len(analysis.Fields)),
		zap.Int("aggregatable", len(analysis.Aggregatable)),
	)
	return analysis, nil
}

// Invalidate drops the cached analysis for an index pattern.
func (m *Model) Invalidate(indexPattern string) {
	m.cache.Invalidate(indexPattern)
}
