// Package service contains the business logic layer.
package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/queryforge/queryforge/internal/builder"
	"github.com/queryforge/queryforge/internal/domain"
	"github.com/queryforge/queryforge/internal/intent"
	"github.com/queryforge/queryforge/internal/perspective"
	"github.com/queryforge/queryforge/internal/ranker"
	"github.com/queryforge/queryforge/internal/schema"
	"github.com/queryforge/queryforge/internal/validator"
	"github.com/queryforge/queryforge/pkg/sanitizer"
)

// SchemaSource resolves an index pattern to a schema analysis.
// Satisfied by *schema.Model; nil disables remote schema lookup.
type SchemaSource interface {
	Analysis(ctx context.Context, indexPattern string) (*domain.SchemaAnalysis, error)
}

// Pipeline orchestrates the query synthesis flow: sanitize, extract
// intent, resolve schema, generate perspectives, build and validate
// candidates concurrently, then rank.
type Pipeline struct {
	extractor *intent.Extractor
	schemas   SchemaSource
	generator *perspective.Generator
	builder   builder.Client
	validator *validator.Validator
	ranker    *ranker.Ranker
	sanitizer *sanitizer.Sanitizer
	logger    *zap.Logger
}

// NewPipeline creates a pipeline with all dependencies. schemas may be
// nil when no cluster endpoint is configured.
func NewPipeline(
	extractor *intent.Extractor,
	schemas SchemaSource,
	generator *perspective.Generator,
	builderClient builder.Client,
	queryValidator *validator.Validator,
	candidateRanker *ranker.Ranker,
	textSanitizer *sanitizer.Sanitizer,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		schemas:   schemas,
		generator: generator,
		builder:   builderClient,
		validator: queryValidator,
		ranker:    candidateRanker,
		sanitizer: textSanitizer,
		logger:    logger.Named("pipeline"),
	}
}

// Generate runs the full synthesis pipeline:
// 1. Sanitize input
// 2. Resolve the schema (best effort)
// 3. Extract the intent
// 4. Generate perspectives
// 5. Build and validate one candidate per perspective, concurrently
// 6. Rank the candidates
func (p *Pipeline) Generate(ctx context.Context, req *domain.GenerateRequest) (*domain.GenerateResponse, error) {
	startTime := time.Now()
	p.logger.Debug("starting generation", zap.Int("text_length", len(req.Text)))

	// Step 1: Validate and sanitize input
	if p.sanitizer.IsEmpty(req.Text) {
		return &domain.GenerateResponse{
			Success:     false,
			Error:       domain.ErrEmptyInput.Error(),
			ProcessedAt: time.Now(),
		}, nil
	}
	if p.sanitizer.IsTooLarge(req.Text) {
		p.logger.Warn("input too large, will be truncated",
			zap.Int("original_size", len(req.Text)),
		)
	}
	text := p.sanitizer.Sanitize(req.Text)

	// Step 2: Resolve the schema. A missing schema degrades the
	// pipeline, it does not abort it.
	analysis := p.resolveSchema(ctx, req.IndexPattern)

	// Step 3: Extract the intent
	extracted, err := p.extractor.Extract(text, analysis)
	if err != nil {
		p.logger.Error("intent extraction failed", zap.Error(err))
		return &domain.GenerateResponse{
			Success:     false,
			Error:       err.Error(),
			ProcessedAt: time.Now(),
		}, nil
	}
	if req.Complexity != "" {
		extracted.Complexity = req.Complexity
	}

	// Step 4: Generate perspectives
	perspectives := p.generator.Generate(extracted, analysis)
	if len(perspectives) == 0 {
		return &domain.GenerateResponse{
			Success:     false,
			Error:       domain.ErrPerspectiveBuild.Error(),
			Intent:      extracted,
			ProcessedAt: time.Now(),
		}, nil
	}

	// Step 5: Build and validate candidates concurrently
	candidates, failed := p.buildCandidates(ctx, extracted, perspectives, analysis)

	// Step 6: Rank
	ranked := p.ranker.Rank(candidates, extracted)

	p.logger.Info("generation completed",
		zap.Int("candidates", len(ranked)),
		zap.Int("failed_perspectives", len(failed)),
		zap.Duration("duration", time.Since(startTime)),
	)

	resp := &domain.GenerateResponse{
		Success:            len(ranked) > 0,
		Candidates:         ranked,
		FailedPerspectives: failed,
		Intent:             extracted,
		ProcessedAt:        time.Now(),
	}
	if len(ranked) == 0 {
		resp.Error = domain.ErrPerspectiveBuild.Error()
	}
	return resp, nil
}

// buildCandidates fans out one goroutine per perspective. A failing
// perspective is reported, never fatal for its siblings. Results keep
// the perspectives' order so ranking ties break deterministically.
func (p *Pipeline) buildCandidates(
	ctx context.Context,
	extracted *domain.Intent,
	perspectives []domain.Perspective,
	analysis *domain.SchemaAnalysis,
) ([]domain.Candidate, []domain.FailedPerspective) {
	results := make([]*domain.Candidate, len(perspectives))
	failures := make([]*domain.FailedPerspective, len(perspectives))

	var wg sync.WaitGroup
	for i, persp := range perspectives {
		wg.Add(1)
		go func(i int, persp domain.Perspective) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					p.logger.Error("candidate build panicked",
						zap.String("perspective", persp.Name),
						zap.Any("panic", r),
					)
					failures[i] = &domain.FailedPerspective{
						Perspective: persp.Name,
						Error:       domain.ErrPerspectiveBuild.Error(),
					}
				}
			}()

			draft, err := p.builder.Build(ctx, extracted, persp, analysis)
			if err != nil {
				p.logger.Warn("perspective build failed",
					zap.String("perspective", persp.Name),
					zap.Error(err),
				)
				failures[i] = &domain.FailedPerspective{
					Perspective: persp.Name,
					Error:       err.Error(),
				}
				return
			}

			results[i] = &domain.Candidate{
				ID:          persp.ID,
				Query:       draft.Query,
				Perspective: persp,
				Validation:  p.validator.Validate(draft.Query, analysis),
				Explanation: draft.Explanation,
			}
		}(i, persp)
	}
	wg.Wait()

	var candidates []domain.Candidate
	var failed []domain.FailedPerspective
	for i := range perspectives {
		if results[i] != nil {
			candidates = append(candidates, *results[i])
		}
		if failures[i] != nil {
			failed = append(failed, *failures[i])
		}
	}
	return candidates, failed
}

// Validate checks a user-supplied query against the schema without
// running the synthesis pipeline.
func (p *Pipeline) Validate(ctx context.Context, req *domain.ValidateRequest) *domain.ValidateResponse {
	analysis := p.resolveSchema(ctx, req.IndexPattern)
	result := p.validator.Validate(req.Query, analysis)

	return &domain.ValidateResponse{
		Success:     true,
		Validation:  &result,
		ProcessedAt: time.Now(),
	}
}

// AnalyzeSchema analyzes an inline mapping, or fetches and analyzes the
// mapping for an index pattern.
func (p *Pipeline) AnalyzeSchema(ctx context.Context, indexPattern string, mapping map[string]any) (*domain.SchemaAnalysis, error) {
	if len(mapping) > 0 {
		return schema.Analyze(mapping), nil
	}
	if p.schemas == nil || indexPattern == "" {
		return nil, domain.WrapError("analyze_schema", domain.ErrSchemaUnavailable, false)
	}
	return p.schemas.Analysis(ctx, indexPattern)
}

// HealthCheck reports whether the query builder is ready.
func (p *Pipeline) HealthCheck(ctx context.Context) error {
	return p.builder.HealthCheck(ctx)
}

// resolveSchema looks up the schema analysis for a pattern, returning
// nil when discovery is disabled, the pattern is empty, or the lookup
// fails.
func (p *Pipeline) resolveSchema(ctx context.Context, indexPattern string) *domain.SchemaAnalysis {
	if p.schemas == nil || indexPattern == "" {
		return nil
	}
	analysis, err := p.schemas.Analysis(ctx, indexPattern)
	if err != nil {
		p.logger.Warn("schema unavailable, continuing without it",
			zap.String("index_pattern", indexPattern),
			zap.Error(err),
		)
		return nil
	}
	return analysis
}
