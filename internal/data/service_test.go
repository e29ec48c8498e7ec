package data

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askvara/vara-go/internal/api"
	"github.com/askvara/vara-go/internal/connectivity"
	"github.com/askvara/vara-go/internal/domain"
)

func newService(t *testing.T, handler http.Handler) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewService(api.New(server.URL, connectivity.NewStatic(true)))
}

func TestService_AskQuestion(t *testing.T) {
	service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/data/question", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "total revenue by region", body["question"])
		assert.Equal(t, "ds-1", body["datasetId"])

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"answer": "EMEA leads with 4.2M.",
				"dataResult": map[string]any{
					"rowCount":  3,
					"columns":   []string{"region", "revenue"},
					"queryType": "sql",
				},
				"queryInfo": map[string]any{
					"query":      "SELECT region, SUM(revenue) FROM sales GROUP BY region",
					"queryType":  "sql",
					"confidence": 0.92,
				},
			},
		})
	}))

	answer, err := service.AskQuestion(context.Background(), Question{
		Question:  "total revenue by region",
		DatasetID: "ds-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "EMEA leads with 4.2M.", answer.Answer)
	require.NotNil(t, answer.DataResult)
	assert.Equal(t, 3, answer.DataResult.RowCount)
	assert.Equal(t, domain.QuerySQL, answer.QueryInfo.QueryType)
}

func TestService_AskQuestion_Failure(t *testing.T) {
	service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "question too vague"})
	}))

	_, err := service.AskQuestion(context.Background(), Question{Question: "?"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "question too vague")
}

func TestService_RunQuery(t *testing.T) {
	service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/data/query", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "EVALUATE Sales", body["query"])
		assert.Equal(t, "dax", body["queryType"])

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"rowCount": 120, "queryType": "dax", "cached": true},
		})
	}))

	result, err := service.RunQuery(context.Background(), DirectQuery{
		Query:     "EVALUATE Sales",
		QueryType: domain.QueryDAX,
	})
	require.NoError(t, err)
	assert.Equal(t, 120, result.RowCount)
	assert.True(t, result.Cached)
}

func TestService_Datasets(t *testing.T) {
	service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/datasets", r.URL.Path)
		assert.Equal(t, "ws-1", r.URL.Query().Get("workspaceId"))

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": []map[string]any{
				{"id": "ds-1", "name": "Sales", "tables": []string{"orders", "customers"}},
			},
		})
	}))

	datasets, err := service.Datasets(context.Background(), "ws-1")
	require.NoError(t, err)
	require.Len(t, datasets, 1)
	assert.Equal(t, []string{"orders", "customers"}, datasets[0].Tables)
}

func TestService_Schema(t *testing.T) {
	service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/datasets/ds-1/schema", r.URL.Path)

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": []map[string]any{
				{
					"name": "orders",
					"columns": []map[string]string{
						{"name": "id", "dataType": "string"},
						{"name": "amount", "dataType": "decimal"},
					},
				},
			},
		})
	}))

	tables, err := service.Schema(context.Background(), "ds-1", "")
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "orders", tables[0].Name)
	require.Len(t, tables[0].Columns, 2)
	assert.Equal(t, "decimal", tables[0].Columns[1].DataType)
}

func TestService_AnalyzeQuestion(t *testing.T) {
	service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/data/analyze", r.URL.Path)

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"suggestedQueryType": "sql",
				"suggestedDataset":   "ds-1",
				"confidence":         0.87,
				"reasoning":          "aggregation over relational tables",
			},
		})
	}))

	analysis, err := service.AnalyzeQuestion(context.Background(), "orders per customer")
	require.NoError(t, err)
	assert.Equal(t, domain.QuerySQL, analysis.SuggestedQueryType)
	assert.InDelta(t, 0.87, analysis.Confidence, 0.001)
}

func TestService_Suggestions(t *testing.T) {
	service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/suggestions", r.URL.Path)
		assert.Equal(t, "ds-1", r.URL.Query().Get("datasetId"))

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    []string{"top customers by revenue", "orders per month"},
		})
	}))

	suggestions, err := service.Suggestions(context.Background(), "ds-1", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"top customers by revenue", "orders per month"}, suggestions)
}
