package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/queryforge/queryforge/internal/service"
)

// SchemaAnalyzeRequest asks for an analysis of a mapping, either inline
// or fetched by index pattern.
type SchemaAnalyzeRequest struct {
	IndexPattern string         `json:"index_pattern,omitempty"`
	Mapping      map[string]any `json:"mapping,omitempty"`
}

// SchemaHandler handles schema analysis requests.
type SchemaHandler struct {
	pipeline *service.Pipeline
	logger   *zap.Logger
}

// NewSchemaHandler creates a new SchemaHandler.
func NewSchemaHandler(pipeline *service.Pipeline, logger *zap.Logger) *SchemaHandler {
	return &SchemaHandler{
		pipeline: pipeline,
		logger:   logger.Named("schema_handler"),
	}
}

// Handle processes POST /api/v1/schema/analyze requests.
func (h *SchemaHandler) Handle(c *gin.Context) {
	logger := h.logger.With(zap.String("request_id", RequestID(c)))

	var req SchemaAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body: " + err.Error(),
		})
		return
	}

	if len(req.Mapping) == 0 && req.IndexPattern == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "either mapping or index_pattern is required",
		})
		return
	}

	analysis, err := h.pipeline.AnalyzeSchema(c.Request.Context(), req.IndexPattern, req.Mapping)
	if err != nil {
		logger.Warn("schema analysis failed", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	logger.Info("schema analyzed",
		zap.Int("fields", len(analysis.Fields)),
		zap.String("index_pattern", req.IndexPattern),
	)
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"analysis":     analysis,
		"processed_at": time.Now(),
	})
}
