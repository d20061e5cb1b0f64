package builder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/queryforge/queryforge/internal/config"
	"github.com/queryforge/queryforge/internal/domain"
	"github.com/queryforge/queryforge/internal/logger"
)

func llmConfig(baseURL string) *config.BuilderConfig {
	return &config.BuilderConfig{
		Provider:   config.BuilderProviderOpenAI,
		APIKey:     "test-key",
		BaseURL:    baseURL,
		Model:      "test-model",
		Timeout:    5 * time.Second,
		MaxTokens:  1024,
		MaxRetries: 1,
	}
}

func newLLMClient(t *testing.T, baseURL string) *LLMClient {
	t.Helper()
	prompter, err := NewDefaultPromptBuilder()
	if err != nil {
		t.Fatalf("NewDefaultPromptBuilder() error = %v", err)
	}
	return NewLLMClient(llmConfig(baseURL), prompter, logger.NewNop())
}

func chatReply(content string) string {
	body, _ := json.Marshal(map[string]any{
		"id": "chatcmpl-1",
		"choices": []any{
			map[string]any{
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
	})
	return string(body)
}

func TestLLMBuildParsesDraft(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token: %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatReply(`{"query":{"query":{"match":{"message":"timeout"}},"size":10},"explanation":"matches timeout mentions"}`)))
	}))
	defer server.Close()

	c := newLLMClient(t, server.URL)
	draft, err := c.Build(context.Background(), &domain.Intent{OriginalText: "find timeouts"}, domain.Perspective{Name: "Precise Match"}, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if draft.Explanation != "matches timeout mentions" {
		t.Errorf("explanation = %q", draft.Explanation)
	}
	if _, ok := draft.Query["query"]; !ok {
		t.Errorf("draft query missing query section: %v", draft.Query)
	}
}

func TestLLMBuildExtractsFencedJSON(t *testing.T) {
	content := "Here is the query:\n```json\n{\"query\":{\"query\":{\"match_all\":{}}},\"explanation\":\"everything\"}\n```"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatReply(content)))
	}))
	defer server.Close()

	c := newLLMClient(t, server.URL)
	draft, err := c.Build(context.Background(), &domain.Intent{OriginalText: "everything"}, domain.Perspective{}, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if draft.Explanation != "everything" {
		t.Errorf("explanation = %q", draft.Explanation)
	}
}

func TestLLMBuildRejectsEmptyDraft(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatReply(`{"explanation":"no query at all"}`)))
	}))
	defer server.Close()

	c := newLLMClient(t, server.URL)
	_, err := c.Build(context.Background(), &domain.Intent{OriginalText: "anything"}, domain.Perspective{}, nil)
	if !errors.Is(err, domain.ErrInvalidBuilderResponse) {
		t.Errorf("Build() error = %v, want ErrInvalidBuilderResponse", err)
	}
}

func TestLLMBuildRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := newLLMClient(t, server.URL)
	_, err := c.Build(context.Background(), &domain.Intent{OriginalText: "anything"}, domain.Perspective{}, nil)
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("Build() error = %v, want ErrRateLimited", err)
	}
	if !domain.IsRetryable(err) {
		t.Error("rate limit errors should be retryable")
	}
}

func TestLLMBuildRetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(chatReply(`{"query":{"query":{"match_all":{}}},"explanation":"second try"}`)))
	}))
	defer server.Close()

	c := newLLMClient(t, server.URL)
	draft, err := c.Build(context.Background(), &domain.Intent{OriginalText: "anything"}, domain.Perspective{}, nil)
	if err != nil {
		t.Fatalf("Build() error after retry = %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	if draft.Explanation != "second try" {
		t.Errorf("explanation = %q", draft.Explanation)
	}
}

func TestLLMHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newLLMClient(t, server.URL)
	if err := c.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestLLMHealthCheckUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := newLLMClient(t, server.URL)
	if err := c.HealthCheck(context.Background()); !errors.Is(err, domain.ErrBuilderUnavailable) {
		t.Errorf("HealthCheck() error = %v, want ErrBuilderUnavailable", err)
	}
}
