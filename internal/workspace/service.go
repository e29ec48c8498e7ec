// Package workspace wraps the workspace management endpoints.
package workspace

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

func (s *Service) List(ctx context.Context) ([]domain.Workspace, error) {
	env, err := s.client.Get(ctx, "/workspaces")
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	if !env.Success {
		return nil, fmt.Errorf("failed to list workspaces: %s", env.Error)
	}

	var workspaces []domain.Workspace
	if err := env.Decode(&workspaces); err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	return workspaces, nil
}

func (s *Service) Create(ctx context.Context, name, description, color string) (*domain.Workspace, error) {
	env, err := s.client.Post(ctx, "/workspaces", map[string]string{
		"name":        name,
		"description": description,
		"color":       color,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	if !env.Success {
		return nil, fmt.Errorf("failed to create workspace: %s", env.Error)
	}

	var ws domain.Workspace
	if err := env.Decode(&ws); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return &ws, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	env, err := s.client.Delete(ctx, "/workspaces/"+url.PathEscape(id))
	if err != nil {
		return fmt.Errorf("failed to delete workspace: %w", err)
	}
	if !env.Success {
		return fmt.Errorf("failed to delete workspace: %s", env.Error)
	}
	return nil
}
