package builder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/queryforge/queryforge/internal/config"
	"github.com/queryforge/queryforge/internal/domain"
)

// LLMClient drafts queries through an OpenAI-compatible chat API.
type LLMClient struct {
	config     *config.BuilderConfig
	httpClient *http.Client
	prompter   PromptBuilder
	logger     *zap.Logger
}

// OpenAI API request/response structures
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewLLMClient creates an LLM-backed query builder.
func NewLLMClient(cfg *config.BuilderConfig, prompter PromptBuilder, logger *zap.Logger) *LLMClient {
	return &LLMClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		prompter: prompter,
		logger:   logger.Named("llm_builder"),
	}
}

// Build sends the drafting prompt to the chat API and parses the draft
// out of the response, retrying transient failures with backoff.
func (c *LLMClient) Build(ctx context.Context, intent *domain.Intent, perspective domain.Perspective, analysis *domain.SchemaAnalysis) (*domain.DraftQuery, error) {
	startTime := time.Now()
	c.logger.Debug("starting LLM draft", zap.String("perspective", perspective.Name))

	reqBody := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: c.prompter.BuildSystemPrompt()},
			{Role: "user", Content: c.prompter.BuildUserPrompt(intent, perspective, analysis)},
		},
		MaxTokens:   c.config.MaxTokens,
		Temperature: 0.1, // Low temperature for deterministic output
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, domain.WrapError("marshal_request", err, false)
	}

	url := fmt.Sprintf("%s/chat/completions", c.config.BaseURL)

	var draft *domain.DraftQuery
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff
			backoff := time.Duration(attempt*attempt) * time.Second
			c.logger.Debug("retrying LLM request",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return nil, domain.WrapError("context_cancelled", ctx.Err(), false)
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
		if err != nil {
			return nil, domain.WrapError("create_request", err, false)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.config.APIKey))

		draft, lastErr = c.executeRequest(ctx, req)
		if lastErr == nil {
			break
		}

		if !domain.IsRetryable(lastErr) {
			break
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}

	c.logger.Debug("LLM draft completed",
		zap.Duration("duration", time.Since(startTime)),
		zap.String("perspective", perspective.Name),
	)
	return draft, nil
}

// executeRequest performs a single HTTP request to the chat API.
func (c *LLMClient) executeRequest(ctx context.Context, req *http.Request) (*domain.DraftQuery, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, domain.WrapError("builder_timeout", domain.ErrBuilderTimeout, true)
		}
		return nil, domain.WrapError("http_request", err, true)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.WrapError("read_response", err, true)
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, domain.WrapError("rate_limit", domain.ErrRateLimited, true)
		}
		if resp.StatusCode >= 500 {
			return nil, domain.WrapError("builder_unavailable", domain.ErrBuilderUnavailable, true)
		}
		return nil, domain.WrapError("builder_error",
			fmt.Errorf("chat API returned status %d: %s", resp.StatusCode, string(body)), false)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, domain.WrapError("parse_response", err, false)
	}

	if chatResp.Error != nil {
		return nil, domain.WrapError("builder_api_error",
			fmt.Errorf("%s: %s", chatResp.Error.Type, chatResp.Error.Message), false)
	}

	if len(chatResp.Choices) == 0 {
		return nil, domain.WrapError("empty_response", domain.ErrInvalidBuilderResponse, false)
	}

	return c.parseDraft(chatResp.Choices[0].Message.Content)
}

// parseDraft extracts the query draft from the chat content.
func (c *LLMClient) parseDraft(content string) (*domain.DraftQuery, error) {
	// The model may wrap the JSON in markdown fences.
	jsonContent := extractJSON(content)
	if jsonContent == "" {
		c.logger.Warn("could not extract JSON from LLM response",
			zap.String("content_preview", truncate(content, 200)),
		)
		return nil, domain.WrapError("extract_json", domain.ErrInvalidBuilderResponse, false)
	}

	var draft domain.DraftQuery
	if err := json.Unmarshal([]byte(jsonContent), &draft); err != nil {
		c.logger.Warn("failed to unmarshal LLM response",
			zap.Error(err),
			zap.String("json_content", truncate(jsonContent, 200)),
		)
		return nil, domain.WrapError("unmarshal_draft", domain.ErrInvalidBuilderResponse, false)
	}

	if len(draft.Query) == 0 {
		return nil, domain.WrapError("empty_draft", domain.ErrInvalidBuilderResponse, false)
	}

	return &draft, nil
}

// HealthCheck verifies the chat API is reachable.
func (c *LLMClient) HealthCheck(ctx context.Context) error {
	url := fmt.Sprintf("%s/models", c.config.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.config.APIKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WrapError("health_check", domain.ErrBuilderUnavailable, true)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.WrapError("health_check", domain.ErrBuilderUnavailable, true)
	}

	return nil
}

// Helper functions

// extractJSON attempts to extract JSON from content that might include markdown.
func extractJSON(content string) string {
	if isValidJSON(content) {
		return content
	}

	start := -1
	end := -1

	for i, c := range content {
		if c == '{' {
			start = i
			break
		}
	}
	if start == -1 {
		return ""
	}

	depth := 0
	for i := start; i < len(content); i++ {
		if content[i] == '{' {
			depth++
		} else if content[i] == '}' {
			depth--
			if depth == 0 {
				end = i + 1
				break
			}
		}
	}
	if end == -1 {
		return ""
	}

	extracted := content[start:end]
	if isValidJSON(extracted) {
		return extracted
	}
	return ""
}

func isValidJSON(s string) bool {
	var js json.RawMessage
	return json.Unmarshal([]byte(s), &js) == nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
