package builder

import (
	"bytes"
	"encoding/json"
	"text/template"

	"github.com/queryforge/queryforge/internal/domain"
)

// DefaultPromptBuilder implements PromptBuilder with templated prompts.
type DefaultPromptBuilder struct {
	systemPrompt string
	userTemplate *template.Template
}

// systemPromptText defines the drafter's role and behavior.
// This prompt is versioned as code and can be reviewed/tested.
const systemPromptText = `You are an expert in Elasticsearch-style query DSL who converts structured search intents into executable queries.

Your responsibilities:
1. Express the intent's filters, timeframe, aggregations, sorting, and limit in the query
2. Follow the perspective's strategy parameters exactly (fuzziness, minimum_should_match, operators)
3. Only reference fields that appear in the provided schema context
4. Prefer keyword subfields for exact matching and aggregations on text fields
5. Put non-scoring constraints in bool filter clauses

Guidelines:
- Relative timeframes use date math (now-24h, now/d)
- Aggregation-only queries set size to 0
- Never invent fields that are not in the schema context

CRITICAL: You MUST respond with ONLY valid JSON matching the exact schema provided. No markdown, no explanations, just the JSON object.`

// userPromptTemplate presents the intent and perspective to the model.
const userPromptTemplate = `Draft a query for the following intent and strategy, returning valid JSON exactly matching this schema:

{
  "query": "object - the complete request body including query, size, sort, and aggs as needed",
  "explanation": "string - one sentence describing how the query addresses the intent"
}

Intent:
{{.Intent}}

Strategy ({{.PerspectiveName}}):
{{.Perspective}}

Schema context:
{{.Schema}}

Respond with ONLY the JSON object, no additional text.`

// NewDefaultPromptBuilder creates a prompt builder with default templates.
func NewDefaultPromptBuilder() (*DefaultPromptBuilder, error) {
	tmpl, err := template.New("user_prompt").Parse(userPromptTemplate)
	if err != nil {
		return nil, err
	}

	return &DefaultPromptBuilder{
		systemPrompt: systemPromptText,
		userTemplate: tmpl,
	}, nil
}

// BuildSystemPrompt returns the system prompt.
func (p *DefaultPromptBuilder) BuildSystemPrompt() string {
	return p.systemPrompt
}

// BuildUserPrompt renders the intent, perspective, and schema context.
func (p *DefaultPromptBuilder) BuildUserPrompt(intent *domain.Intent, perspective domain.Perspective, analysis *domain.SchemaAnalysis) string {
	data := struct {
		Intent          string
		PerspectiveName string
		Perspective     string
		Schema          string
	}{
		Intent:          marshalIndent(intent),
		PerspectiveName: perspective.Name,
		Perspective:     marshalIndent(perspective),
		Schema:          schemaContext(analysis),
	}

	var buf bytes.Buffer
	if err := p.userTemplate.Execute(&buf, data); err != nil {
		// Fallback to simple format if template fails
		return "Draft a DSL query as JSON for this intent:\n\n" + data.Intent
	}
	return buf.String()
}

// schemaContext renders a compact field list; full mappings would waste
// tokens.
func schemaContext(analysis *domain.SchemaAnalysis) string {
	if analysis == nil || len(analysis.Fields) == 0 {
		return "(no schema available; use conservative field names)"
	}
	ctx := struct {
		Fields       []domain.SchemaField `json:"fields"`
		Searchable   []string             `json:"searchable"`
		Aggregatable []string             `json:"aggregatable"`
		Dates        []string             `json:"dates"`
	}{
		Fields:       analysis.Fields,
		Searchable:   analysis.Searchable,
		Aggregatable: analysis.Aggregatable,
		Dates:        analysis.Dates,
	}
	return marshalIndent(ctx)
}

func marshalIndent(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
