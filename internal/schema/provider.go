package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/queryforge/queryforge/internal/domain"
)

// MappingProvider fetches a raw index mapping tree from a cluster.
// Implementations own their own timeout and retry policy.
type MappingProvider interface {
	// GetMapping returns the mapping tree ({"properties": ...}) for an
	// index pattern.
	GetMapping(ctx context.Context, indexPattern string) (map[string]any, error)
}

// HTTPProvider fetches mappings over the cluster's REST API.
type HTTPProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPProvider creates a mapping provider against a cluster endpoint.
func NewHTTPProvider(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Named("schema_provider"),
	}
}

// GetMapping fetches GET {base}/{index}/_mapping and unwraps the first
// index's mapping tree.
func (p *HTTPProvider) GetMapping(ctx context.Context, indexPattern string) (map[string]any, error) {
	url := fmt.Sprintf("%s/%s/_mapping", p.baseURL, indexPattern)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.WrapError("create_request", err, false)
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", "ApiKey "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError("fetch_mapping", err, true)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.WrapError("read_mapping", err, true)
	}

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, domain.WrapError("fetch_mapping",
			fmt.Errorf("cluster returned status %d for %s", resp.StatusCode, indexPattern), retryable)
	}

	// Response shape: {"<index>": {"mappings": {"properties": {...}}}}
	var payload map[string]struct {
		Mappings map[string]any `json:"mappings"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, domain.WrapError("parse_mapping", err, false)
	}

	for index, entry := range payload {
		p.logger.Debug("mapping fetched",
			zap.String("index", index),
			zap.String("pattern", indexPattern),
		)
		return entry.Mappings, nil
	}

	return nil, domain.WrapError("parse_mapping",
		fmt.Errorf("no index matched pattern %q", indexPattern), false)
}
