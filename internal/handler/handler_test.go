package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/queryforge/queryforge/internal/builder"
	"github.com/queryforge/queryforge/internal/intent"
	"github.com/queryforge/queryforge/internal/logger"
	"github.com/queryforge/queryforge/internal/perspective"
	"github.com/queryforge/queryforge/internal/ranker"
	"github.com/queryforge/queryforge/internal/service"
	"github.com/queryforge/queryforge/internal/validator"
	"github.com/queryforge/queryforge/pkg/sanitizer"
)

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	nop := logger.NewNop()

	pipeline := service.NewPipeline(
		intent.NewExtractor(nop),
		nil,
		perspective.NewGenerator(3, nop),
		builder.NewRuleClient(nop),
		validator.NewValidator(nop),
		ranker.NewRanker(nop),
		sanitizer.New(10000),
		nop,
	)

	router := gin.New()
	router.Use(RecoveryMiddleware(nop))
	router.Use(RequestIDMiddleware())

	router.GET("/health", NewHealthHandler(nop).Handle)
	router.GET("/ready", NewReadyHandler(pipeline, nop).Handle)

	v1 := router.Group("/api/v1")
	v1.POST("/query/generate", NewGenerateHandler(pipeline, nop).Handle)
	v1.POST("/query/validate", NewValidateHandler(pipeline, nop).Handle)
	v1.POST("/schema/analyze", NewSchemaHandler(pipeline, nop).Handle)

	return router
}

func doPost(t *testing.T, router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGenerateEndpoint(t *testing.T) {
	router := testRouter()

	w := doPost(t, router, "/api/v1/query/generate",
		`{"text":"show me error logs where status is 'error' from the last 24 hours"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success    bool `json:"success"`
		Candidates []struct {
			Score       float64        `json:"score"`
			Query       map[string]any `json:"query"`
			Explanation string         `json:"explanation"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if !resp.Success || len(resp.Candidates) == 0 {
		t.Errorf("unexpected response: %s", w.Body.String())
	}
	if resp.Candidates[0].Explanation == "" {
		t.Error("top candidate has no explanation")
	}
}

func TestGenerateEndpointRejectsMissingText(t *testing.T) {
	router := testRouter()

	w := doPost(t, router, "/api/v1/query/generate", `{"index_pattern":"logs-*"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGenerateEndpointEmptyText(t *testing.T) {
	router := testRouter()

	w := doPost(t, router, "/api/v1/query/generate", `{"text":"   "}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422; body = %s", w.Code, w.Body.String())
	}
}

func TestGenerateEndpointBadJSON(t *testing.T) {
	router := testRouter()

	w := doPost(t, router, "/api/v1/query/generate", `{"text":`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestValidateEndpoint(t *testing.T) {
	router := testRouter()

	w := doPost(t, router, "/api/v1/query/validate",
		`{"query":{"query":{"mtach":{"status":"error"}}}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success    bool `json:"success"`
		Validation struct {
			Valid  bool `json:"valid"`
			Errors []struct {
				Type string `json:"type"`
			} `json:"errors"`
		} `json:"validation"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if !resp.Success {
		t.Error("validation request should succeed")
	}
	if resp.Validation.Valid || len(resp.Validation.Errors) == 0 {
		t.Errorf("unknown query type should be invalid: %s", w.Body.String())
	}
}

func TestSchemaAnalyzeEndpoint(t *testing.T) {
	router := testRouter()

	w := doPost(t, router, "/api/v1/schema/analyze",
		`{"mapping":{"properties":{"status":{"type":"keyword"},"message":{"type":"text"}}}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success  bool `json:"success"`
		Analysis struct {
			Fields []struct {
				Path string `json:"path"`
			} `json:"fields"`
		} `json:"analysis"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if !resp.Success || len(resp.Analysis.Fields) != 2 {
		t.Errorf("unexpected analysis: %s", w.Body.String())
	}
}

func TestSchemaAnalyzeEndpointRequiresInput(t *testing.T) {
	router := testRouter()

	w := doPost(t, router, "/api/v1/schema/analyze", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	router := testRouter()

	for _, path := range []string{"/health", "/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, w.Code)
		}
	}
}

func TestRequestIDPropagated(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "req-42" {
		t.Errorf("X-Request-ID = %q, want req-42", got)
	}
}
