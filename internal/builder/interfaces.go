// Package builder turns an intent and a perspective into a concrete DSL
// query draft. Implementations range from a deterministic rule assembler
// to an LLM-backed drafter.
package builder

import (
	"context"

	"github.com/queryforge/queryforge/internal/domain"
)

// Client drafts one query per perspective.
// This interface allows for easy mocking and swapping of builders.
type Client interface {
	// Build drafts a query for the given intent under the given
	// perspective. The context should carry timeout and cancellation
	// signals. The analysis may be nil when no schema is available.
	Build(ctx context.Context, intent *domain.Intent, perspective domain.Perspective, analysis *domain.SchemaAnalysis) (*domain.DraftQuery, error)

	// HealthCheck verifies the builder is ready to serve.
	HealthCheck(ctx context.Context) error
}

// PromptBuilder constructs the prompts sent to an LLM-backed builder.
type PromptBuilder interface {
	// BuildSystemPrompt returns the system prompt that defines the
	// builder's role.
	BuildSystemPrompt() string

	// BuildUserPrompt renders the intent, perspective, and schema
	// context into a drafting request.
	BuildUserPrompt(intent *domain.Intent, perspective domain.Perspective, analysis *domain.SchemaAnalysis) string
}
