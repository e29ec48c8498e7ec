// Package chat wraps the chat and search endpoints with typed calls.
package chat

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

// Chats returns one page of the user's chats, newest first.
func (s *Service) Chats(ctx context.Context, page, limit int) (*domain.Page[domain.Chat], error) {
	env, err := s.client.Get(ctx, fmt.Sprintf("/chat?page=%d&limit=%d", page, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	return decodePage[domain.Chat](env, "failed to list chats")
}

// Create starts a new chat. Description and workspaceID may be empty.
func (s *Service) Create(ctx context.Context, title, description, workspaceID string) (*domain.Chat, error) {
	env, err := s.client.Post(ctx, "/chat", map[string]string{
		"title":       title,
		"description": description,
		"workspaceId": workspaceID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	return decodeOne[domain.Chat](env, "failed to create chat")
}

// SendOptions tunes how the assistant answers a message.
type SendOptions struct {
	DatasetID    string `json:"datasetId,omitempty"`
	WorkspaceID  string `json:"workspaceId,omitempty"`
	UseDataAgent bool   `json:"useDataAgent,omitempty"`
}

// SendResult is the assistant's reply to a sent message.
type SendResult struct {
	ChatID      string             `json:"chatId"`
	UserMessage domain.Message     `json:"userMessage"`
	AIResponse  domain.Message     `json:"aiResponse"`
	DataResult  *domain.DataResult `json:"dataResult,omitempty"`
	QueryInfo   *domain.QueryInfo  `json:"queryInfo,omitempty"`
}

// SendMessage sends a message, creating a new chat when chatID is empty.
func (s *Service) SendMessage(ctx context.Context, message, chatID string, opts SendOptions) (*SendResult, error) {
	body := map[string]any{
		"message": message,
	}
	if chatID != "" {
		body["chatId"] = chatID
	}
	if opts.DatasetID != "" {
		body["datasetId"] = opts.DatasetID
	}
	if opts.WorkspaceID != "" {
		body["workspaceId"] = opts.WorkspaceID
	}
	if opts.UseDataAgent {
		body["useDataAgent"] = true
	}

	env, err := s.client.Post(ctx, "/chat/message", body)
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return decodeOne[SendResult](env, "failed to send message")
}

// Messages returns one page of a chat's history.
func (s *Service) Messages(ctx context.Context, chatID string, page, limit int) (*domain.Page[domain.Message], error) {
	env, err := s.client.Get(ctx, fmt.Sprintf("/chat/%s/messages?page=%d&limit=%d", chatID, page, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return decodePage[domain.Message](env, "failed to list messages")
}

// Delete removes a chat and its messages.
func (s *Service) Delete(ctx context.Context, chatID string) error {
	env, err := s.client.Delete(ctx, "/chat/"+chatID)
	if err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	if !env.Success {
		return fmt.Errorf("failed to delete chat: %s", env.Error)
	}
	return nil
}

// React records a reaction on a message.
func (s *Service) React(ctx context.Context, chatID, messageID string, reaction domain.ReactionType) error {
	env, err := s.client.Post(ctx, fmt.Sprintf("/chat/%s/messages/%s/actions", chatID, messageID), map[string]string{
		"actionType": string(reaction),
	})
	if err != nil {
		return fmt.Errorf("failed to react to message: %w", err)
	}
	if !env.Success {
		return fmt.Errorf("failed to react to message: %s", env.Error)
	}
	return nil
}

// Search finds chats matching the query.
func (s *Service) Search(ctx context.Context, query string, page, limit int) (*domain.Page[domain.Chat], error) {
	endpoint := fmt.Sprintf("/search?q=%s&type=chats&page=%d&limit=%d", url.QueryEscape(query), page, limit)
	env, err := s.client.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to search chats: %w", err)
	}
	return decodePage[domain.Chat](env, "failed to search chats")
}

// SearchInChat finds messages within one chat.
func (s *Service) SearchInChat(ctx context.Context, chatID, query string, page, limit int) (*domain.Page[domain.Message], error) {
	endpoint := fmt.Sprintf("/search/chats/%s?q=%s&page=%d&limit=%d", chatID, url.QueryEscape(query), page, limit)
	env, err := s.client.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to search in chat: %w", err)
	}
	return decodePage[domain.Message](env, "failed to search in chat")
}

func decodeOne[T any](env api.Envelope, what string) (*T, error) {
	if !env.Success {
		return nil, fmt.Errorf("%s: %s", what, env.Error)
	}
	var value T
	if err := env.Decode(&value); err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return &value, nil
}

func decodePage[T any](env api.Envelope, what string) (*domain.Page[T], error) {
	if !env.Success {
		return nil, fmt.Errorf("%s: %s", what, env.Error)
	}
	var items []T
	if err := env.Decode(&items); err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	page := &domain.Page[T]{Items: items}
	if env.Pagination != nil {
		page.Pagination = *env.Pagination
	}
	return page, nil
}
