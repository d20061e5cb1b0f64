// Package handler contains HTTP handlers for the API.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/queryforge/queryforge/internal/domain"
	"github.com/queryforge/queryforge/internal/service"
)

// GenerateHandler handles query generation requests.
type GenerateHandler struct {
	pipeline *service.Pipeline
	logger   *zap.Logger
}

// NewGenerateHandler creates a new GenerateHandler.
func NewGenerateHandler(pipeline *service.Pipeline, logger *zap.Logger) *GenerateHandler {
	return &GenerateHandler{
		pipeline: pipeline,
		logger:   logger.Named("generate_handler"),
	}
}

// Handle processes POST /api/v1/query/generate requests.
func (h *GenerateHandler) Handle(c *gin.Context) {
	startTime := time.Now()
	logger := h.logger.With(zap.String("request_id", RequestID(c)))
	logger.Debug("received generation request")

	var req domain.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, domain.GenerateResponse{
			Success:     false,
			Error:       "Invalid request body: " + err.Error(),
			ProcessedAt: time.Now(),
		})
		return
	}

	response, err := h.pipeline.Generate(c.Request.Context(), &req)
	if err != nil {
		logger.Error("generation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, domain.GenerateResponse{
			Success:     false,
			Error:       "Internal error during generation",
			ProcessedAt: time.Now(),
		})
		return
	}

	logger.Info("generation completed",
		zap.Bool("success", response.Success),
		zap.Int("candidates", len(response.Candidates)),
		zap.Duration("duration", time.Since(startTime)),
	)

	if response.Success {
		c.JSON(http.StatusOK, response)
	} else {
		c.JSON(http.StatusUnprocessableEntity, response)
	}
}

// ValidateHandler handles standalone query validation requests.
type ValidateHandler struct {
	pipeline *service.Pipeline
	logger   *zap.Logger
}

// NewValidateHandler creates a new ValidateHandler.
func NewValidateHandler(pipeline *service.Pipeline, logger *zap.Logger) *ValidateHandler {
	return &ValidateHandler{
		pipeline: pipeline,
		logger:   logger.Named("validate_handler"),
	}
}

// Handle processes POST /api/v1/query/validate requests.
func (h *ValidateHandler) Handle(c *gin.Context) {
	logger := h.logger.With(zap.String("request_id", RequestID(c)))

	var req domain.ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, domain.ValidateResponse{
			Success:     false,
			Error:       "Invalid request body: " + err.Error(),
			ProcessedAt: time.Now(),
		})
		return
	}

	response := h.pipeline.Validate(c.Request.Context(), &req)

	logger.Info("validation completed",
		zap.Bool("valid", response.Validation.Valid),
		zap.Int("errors", len(response.Validation.Errors)),
	)
	c.JSON(http.StatusOK, response)
}
