// Package data wraps the natural-language query and dataset endpoints.
package data

import (
	"context"
	"fmt"
	"net/url"

	"github.com/askvara/vara-go/internal/api"
	"github.com/askvara/vara-go/internal/domain"
)

type Service struct {
	client *api.Client
}

func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// Question is a natural-language question for the data backend. DatasetID,
// WorkspaceID and QueryType are optional hints; the backend picks its own
// when they are empty.
type Question struct {
	Question             string           `json:"question"`
	DatasetID            string           `json:"datasetId,omitempty"`
	WorkspaceID          string           `json:"workspaceId,omitempty"`
	QueryType            domain.QueryType `json:"queryType,omitempty"`
	IncludeVisualization bool             `json:"includeVisualization,omitempty"`
}

// Answer is the backend's response to a question: the generated query, its
// result, and a prose explanation.
type Answer struct {
	Answer     string             `json:"answer"`
	DataResult *domain.DataResult `json:"dataResult,omitempty"`
	QueryInfo  *domain.QueryInfo  `json:"queryInfo,omitempty"`
}

// AskQuestion sends a natural-language question and returns the generated
// answer.
func (s *Service) AskQuestion(ctx context.Context, q Question) (*Answer, error) {
	env, err := s.client.Post(ctx, "/data/question", q)
	if err != nil {
		return nil, fmt.Errorf("failed to ask question: %w", err)
	}
	return decode[Answer](env, "failed to ask question")
}

// DirectQuery executes a caller-written query verbatim.
type DirectQuery struct {
	Query       string           `json:"query"`
	QueryType   domain.QueryType `json:"queryType"`
	DatasetID   string           `json:"datasetId,omitempty"`
	WorkspaceID string           `json:"workspaceId,omitempty"`
}

// RunQuery executes a SQL or DAX query directly, without generation.
func (s *Service) RunQuery(ctx context.Context, q DirectQuery) (*domain.DataResult, error) {
	env, err := s.client.Post(ctx, "/data/query", q)
	if err != nil {
		return nil, fmt.Errorf("failed to run query: %w", err)
	}
	return decode[domain.DataResult](env, "failed to run query")
}

// Datasets lists the datasets visible to the user, optionally filtered to one
// workspace.
func (s *Service) Datasets(ctx context.Context, workspaceID string) ([]domain.Dataset, error) {
	endpoint := "/data/datasets"
	if workspaceID != "" {
		endpoint += "?workspaceId=" + url.QueryEscape(workspaceID)
	}

	env, err := s.client.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	datasets, err := decode[[]domain.Dataset](env, "failed to list datasets")
	if err != nil {
		return nil, err
	}
	return *datasets, nil
}

// TableSchema describes one table of a dataset.
type TableSchema struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

type Column struct {
	Name     string `json:"name"`
	DataType string `json:"dataType"`
}

// Schema fetches the table layout of a dataset.
func (s *Service) Schema(ctx context.Context, datasetID, workspaceID string) ([]TableSchema, error) {
	endpoint := "/data/datasets/" + url.PathEscape(datasetID) + "/schema"
	if workspaceID != "" {
		endpoint += "?workspaceId=" + url.QueryEscape(workspaceID)
	}

	env, err := s.client.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schema: %w", err)
	}
	tables, err := decode[[]TableSchema](env, "failed to fetch schema")
	if err != nil {
		return nil, err
	}
	return *tables, nil
}

// Analysis is the backend's routing decision for a question: which query
// language and dataset it would use, and why.
type Analysis struct {
	SuggestedQueryType domain.QueryType `json:"suggestedQueryType"`
	SuggestedDataset   string           `json:"suggestedDataset"`
	Confidence         float64          `json:"confidence"`
	Reasoning          string           `json:"reasoning"`
}

// AnalyzeQuestion asks the backend how it would route a question without
// executing anything.
func (s *Service) AnalyzeQuestion(ctx context.Context, question string) (*Analysis, error) {
	env, err := s.client.Post(ctx, "/data/analyze", map[string]string{"question": question})
	if err != nil {
		return nil, fmt.Errorf("failed to analyze question: %w", err)
	}
	return decode[Analysis](env, "failed to analyze question")
}

// Suggestions returns example questions for a dataset.
func (s *Service) Suggestions(ctx context.Context, datasetID, workspaceID string) ([]string, error) {
	endpoint := "/data/suggestions"
	query := url.Values{}
	if datasetID != "" {
		query.Set("datasetId", datasetID)
	}
	if workspaceID != "" {
		query.Set("workspaceId", workspaceID)
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	env, err := s.client.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch suggestions: %w", err)
	}
	suggestions, err := decode[[]string](env, "failed to fetch suggestions")
	if err != nil {
		return nil, err
	}
	return *suggestions, nil
}

func decode[T any](env api.Envelope, what string) (*T, error) {
	if !env.Success {
		return nil, fmt.Errorf("%s: %s", what, env.Error)
	}
	var value T
	if err := env.Decode(&value); err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return &value, nil
}
