// Package domain contains the core domain models and types.
// These models represent the business logic contracts and are independent
// of any infrastructure concerns.
package domain

import "time"

// FieldType classifies a schema field by its mapping type.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeKeyword  FieldType = "keyword"
	FieldTypeDate     FieldType = "date"
	FieldTypeGeoPoint FieldType = "geo_point"
	FieldTypeGeoShape FieldType = "geo_shape"
	FieldTypeNested   FieldType = "nested"
	FieldTypeNumeric  FieldType = "numeric"
	FieldTypeBoolean  FieldType = "boolean"
	FieldTypeOther    FieldType = "other"
)

// IsGeo reports whether the field type is a geographic type.
func (t FieldType) IsGeo() bool {
	return t == FieldTypeGeoPoint || t == FieldTypeGeoShape
}

// SchemaField is a single flattened field from an index mapping.
// Immutable after construction.
type SchemaField struct {
	// Path is the full dotted path of the field (e.g. "user.name").
	Path string `json:"path"`

	// Type is the classified mapping type.
	Type FieldType `json:"type"`

	// HasKeywordSubfield is true when a text field declares a keyword
	// multi-field, making "<path>.keyword" aggregatable.
	HasKeywordSubfield bool `json:"has_keyword_subfield"`
}

// SchemaSuggestion is a heuristic usage hint derived from schema analysis.
type SchemaSuggestion struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Example     string `json:"example"`
}

// SchemaAnalysis is the derived, read-only view of an index mapping.
// Every path in a capability bucket exists in Fields.
type SchemaAnalysis struct {
	// Fields is the flattened field list with dotted paths.
	Fields []SchemaField `json:"fields"`

	// Searchable lists full-text searchable field paths.
	Searchable []string `json:"searchable"`

	// Aggregatable lists field paths usable in aggregations.
	Aggregatable []string `json:"aggregatable"`

	// Dates lists date field paths.
	Dates []string `json:"dates"`

	// Geo lists geographic field paths.
	Geo []string `json:"geo"`

	// Nested lists nested object field paths.
	Nested []string `json:"nested"`

	// Suggestions are heuristic usage hints, at most one per bucket.
	Suggestions []SchemaSuggestion `json:"suggestions"`
}

// Field looks up a flattened field by exact path.
func (a *SchemaAnalysis) Field(path string) (SchemaField, bool) {
	if a == nil {
		return SchemaField{}, false
	}
	for _, f := range a.Fields {
		if f.Path == path {
			return f, true
		}
	}
	return SchemaField{}, false
}

// FieldPaths returns all flattened field paths.
func (a *SchemaAnalysis) FieldPaths() []string {
	if a == nil {
		return nil
	}
	paths := make([]string, 0, len(a.Fields))
	for _, f := range a.Fields {
		paths = append(paths, f.Path)
	}
	return paths
}

// QueryType categorizes the user's intent.
type QueryType string

const (
	QueryTypeSearch      QueryType = "search"
	QueryTypeAggregation QueryType = "aggregation"
	QueryTypeTimeSeries  QueryType = "time_series"
	QueryTypeGeospatial  QueryType = "geospatial"
)

// Complexity is an optional, externally supplied classification of the
// request. Empty means unknown and is treated neutrally.
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// FilterOperator is the comparison operator of an extracted filter.
type FilterOperator string

const (
	OpEq       FilterOperator = "eq"
	OpGt       FilterOperator = "gt"
	OpGte      FilterOperator = "gte"
	OpLt       FilterOperator = "lt"
	OpLte      FilterOperator = "lte"
	OpExists   FilterOperator = "exists"
	OpMissing  FilterOperator = "missing"
	OpContains FilterOperator = "contains"
)

// Entity is a recognized subject of the query.
type Entity struct {
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

// Filter is a single extracted constraint.
type Filter struct {
	Field      string         `json:"field"`
	Operator   FilterOperator `json:"operator"`
	Value      any            `json:"value,omitempty"`
	Confidence float64        `json:"confidence"`
}

// TimeframeType distinguishes how a timeframe was expressed.
type TimeframeType string

const (
	TimeframeRelative TimeframeType = "relative"
	TimeframeAbsolute TimeframeType = "absolute"
	TimeframeNamed    TimeframeType = "named"
)

// Timeframe is an extracted time window.
type Timeframe struct {
	Type  TimeframeType `json:"type"`
	Field string        `json:"field"`

	// Relative window: Value units back from now.
	Value int    `json:"value,omitempty"`
	Unit  string `json:"unit,omitempty"`

	// Absolute window bounds, ISO dates.
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`

	// Named period such as "today" or "this week".
	Period string `json:"period,omitempty"`
}

// FieldRequest is a field the user asked to see.
type FieldRequest struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Aggregation is an extracted aggregation request.
type Aggregation struct {
	Type       string  `json:"type"`
	Field      string  `json:"field"`
	Size       int     `json:"size,omitempty"`
	Interval   string  `json:"interval,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Sort is an extracted sort directive.
type Sort struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

// Intent is the structured interpretation of the user's text.
// Produced once per submission and never mutated afterwards.
type Intent struct {
	QueryType    QueryType      `json:"query_type"`
	Entities     []Entity       `json:"entities"`
	Filters      []Filter       `json:"filters"`
	Timeframe    *Timeframe     `json:"timeframe,omitempty"`
	Fields       []FieldRequest `json:"fields"`
	Aggregations []Aggregation  `json:"aggregations"`
	Sorting      []Sort         `json:"sorting"`
	Limit        int            `json:"limit,omitempty"`
	OriginalText string         `json:"original_text"`

	// Complexity is supplied by an upstream classifier when available.
	Complexity Complexity `json:"complexity,omitempty"`

	// Confidence is a fixed placeholder (0.85), not computed from the
	// strength of matched sub-patterns. Callers must tolerate this.
	Confidence float64 `json:"confidence"`
}

// Perspective is one named query-construction strategy.
// Created fresh per generation call and never mutated.
type Perspective struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Confidence  float64        `json:"confidence"`
	Approach    string         `json:"approach"`
	QueryParams map[string]any `json:"query_params"`
}

// IssueType categorizes a validation issue.
type IssueType string

const (
	IssueStructure   IssueType = "structure"
	IssueUnknownType IssueType = "unknown_type"
	IssueField       IssueType = "field"
	IssueUsage       IssueType = "usage"
	IssuePerformance IssueType = "performance"
	IssueParse       IssueType = "parse"
)

// Issue is a single validation error or warning.
type Issue struct {
	Type    IssueType `json:"type"`
	Message string    `json:"message"`
	Path    string    `json:"path,omitempty"`
}

// ValidationResult is the outcome of validating one DSL query.
// Valid is true exactly when Errors is empty.
type ValidationResult struct {
	Valid       bool     `json:"valid"`
	Errors      []Issue  `json:"errors"`
	Warnings    []Issue  `json:"warnings"`
	Suggestions []string `json:"suggestions"`
}

// Candidate is a built, validated, scored query paired with its perspective.
type Candidate struct {
	ID              string           `json:"id"`
	Query           map[string]any   `json:"query"`
	Perspective     Perspective      `json:"perspective"`
	Validation      ValidationResult `json:"validation"`
	Score           float64          `json:"score"`
	Explanation     string           `json:"explanation"`
	Recommendations []string         `json:"recommendations"`
}

// FailedPerspective records a perspective whose candidate build failed.
// Reported for diagnostics; never aborts sibling perspectives.
type FailedPerspective struct {
	Perspective string `json:"perspective"`
	Error       string `json:"error"`
}

// GenerateRequest is an incoming query generation request.
type GenerateRequest struct {
	// Text is the free-text description of the data query.
	Text string `json:"text" binding:"required"`

	// IndexPattern selects the schema to resolve against (optional).
	IndexPattern string `json:"index_pattern,omitempty"`

	// Complexity is an optional upstream classification.
	Complexity Complexity `json:"complexity,omitempty"`
}

// GenerateResponse wraps the ranked candidates with metadata.
type GenerateResponse struct {
	Success            bool                `json:"success"`
	Candidates         []Candidate         `json:"candidates,omitempty"`
	FailedPerspectives []FailedPerspective `json:"failed_perspectives,omitempty"`
	Intent             *Intent             `json:"intent,omitempty"`
	Error              string              `json:"error,omitempty"`
	ProcessedAt        time.Time           `json:"processed_at"`
}

// ValidateRequest is a standalone validation request, e.g. for a
// user-edited query.
type ValidateRequest struct {
	Query        map[string]any `json:"query" binding:"required"`
	IndexPattern string         `json:"index_pattern,omitempty"`
}

// ValidateResponse wraps a standalone validation result.
type ValidateResponse struct {
	Success     bool              `json:"success"`
	Validation  *ValidationResult `json:"validation,omitempty"`
	Error       string            `json:"error,omitempty"`
	ProcessedAt time.Time         `json:"processed_at"`
}

// DraftQuery is what a query builder returns for one perspective.
type DraftQuery struct {
	// Query is the DSL document.
	Query map[string]any `json:"query"`

	// Explanation describes how the query addresses the intent.
	Explanation string `json:"explanation"`
}
