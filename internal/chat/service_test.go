package chat

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

func TestService_Chats(t *testing.T) {
	service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": []map[string]any{
				{"id": "c-1", "title": "Revenue questions"},
				{"id": "c-2", "title": "Churn analysis"},
			},
			"pagination": map[string]any{"page": 2, "limit": 10, "total": 12, "pages": 2},
		})
	}))

	page, err := service.Chats(context.Background(), 2, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "c-1", page.Items[0].ID)
	assert.Equal(t, 12, page.Pagination.Total)
}

func TestService_Create(t *testing.T) {
	service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/chat", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Q3 planning", body["title"])

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"id": "c-9", "title": "Q3 planning"},
		})
	}))

	chat, err := service.Create(context.Background(), "Q3 planning", "", "")
	require.NoError(t, err)
	assert.Equal(t, "c-9", chat.ID)
}

func TestService_SendMessage(t *testing.T) {
	service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/message", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "how many orders last week?", body["message"])
		assert.Equal(t, "c-1", body["chatId"])
		assert.Equal(t, "ds-1", body["datasetId"])
		assert.Equal(t, true, body["useDataAgent"])

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"chatId":      "c-1",
				"userMessage": map[string]any{"id": "m-1", "content": "how many orders last week?"},
				"aiResponse":  map[string]any{"id": "m-2", "content": "1,204 orders."},
			},
		})
	}))

	result, err := service.SendMessage(context.Background(), "how many orders last week?", "c-1", SendOptions{
		DatasetID:    "ds-1",
		UseDataAgent: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "c-1", result.ChatID)
	assert.Equal(t, "1,204 orders.", result.AIResponse.Content)
}

func TestService_SendMessage_NewChatOmitsChatID(t *testing.T) {
	service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, hasChatID := body["chatId"]
		assert.False(t, hasChatID)

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"chatId": "c-new"},
		})
	}))

	result, err := service.SendMessage(context.Background(), "hello", "", SendOptions{})
	require.NoError(t, err)
	assert.Equal(t, "c-new", result.ChatID)
}

func TestService_Messages(t *testing.T) {
	service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/c-1/messages", r.URL.Path)

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": []map[string]any{
				{"id": "m-1", "role": "user", "content": "hi"},
				{"id": "m-2", "role": "assistant", "content": "hello"},
			},
		})
	}))

	page, err := service.Messages(context.Background(), "c-1", 1, 50)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "assistant", page.Items[1].Role)
}

func TestService_Delete(t *testing.T) {
	service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/chat/c-1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))

	require.NoError(t, service.Delete(context.Background(), "c-1"))
}

func TestService_Delete_Failure(t *testing.T) {
	service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "chat not found"})
	}))

	err := service.Delete(context.Background(), "c-404")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestService_React(t *testing.T) {
	service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/c-1/messages/m-2/actions", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "like", body["actionType"])

		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))

	require.NoError(t, service.React(context.Background(), "c-1", "m-2", domain.ReactionLike))
}

func TestService_Search(t *testing.T) {
	service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "revenue by region", r.URL.Query().Get("q"))
		assert.Equal(t, "chats", r.URL.Query().Get("type"))

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    []map[string]any{{"id": "c-1", "title": "Revenue questions"}},
		})
	}))

	page, err := service.Search(context.Background(), "revenue by region", 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
}

func TestService_SearchInChat(t *testing.T) {
	service := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/chats/c-1", r.URL.Path)
		assert.Equal(t, "orders", r.URL.Query().Get("q"))

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    []map[string]any{{"id": "m-7", "content": "1,204 orders."}},
		})
	}))

	page, err := service.SearchInChat(context.Background(), "c-1", "orders", 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "m-7", page.Items[0].ID)
}
