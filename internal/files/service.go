// Package files wraps the attachment endpoints: multipart upload, listing,
// deletion, and direct download to disk.
package files

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/askvara/vara-go/internal/api"
	"github.com/askvara/vara-go/internal/apperr"
	"github.com/askvara/vara-go/internal/domain"
	"github.com/askvara/vara-go/internal/platform/retry"
)

type Service struct {
	client *api.Client
	http   *http.Client
}

func NewService(client *api.Client) *Service {
	return &Service{
		client: client,
		http:   &http.Client{Timeout: 5 * time.Minute},
	}
}

// Upload sends a local file as a chat attachment. ChatID and messageID
// associate it with a conversation and may be empty.
func (s *Service) Upload(ctx context.Context, path, chatID, messageID string) (*domain.Attachment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	fields := map[string]string{}
	if chatID != "" {
		fields["chatId"] = chatID
	}
	if messageID != "" {
		fields["messageId"] = messageID
	}

	env, err := s.client.Upload(ctx, "/files/upload", api.File{
		Name:        filepath.Base(path),
		ContentType: contentTypeFor(path),
		Reader:      f,
	}, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}
	if !env.Success {
		return nil, fmt.Errorf("failed to upload file: %s", env.Error)
	}

	var attachment domain.Attachment
	if err := env.Decode(&attachment); err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}
	return &attachment, nil
}

// List returns the user's uploaded attachments, optionally scoped to a chat.
func (s *Service) List(ctx context.Context, chatID string) ([]domain.Attachment, error) {
	endpoint := "/files"
	if chatID != "" {
		endpoint += "?chatId=" + url.QueryEscape(chatID)
	}

	env, err := s.client.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	if !env.Success {
		return nil, fmt.Errorf("failed to list files: %s", env.Error)
	}

	var attachments []domain.Attachment
	if err := env.Decode(&attachments); err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return attachments, nil
}

// Delete removes an uploaded attachment.
func (s *Service) Delete(ctx context.Context, id string) error {
	env, err := s.client.Delete(ctx, "/files/"+url.PathEscape(id))
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if !env.Success {
		return fmt.Errorf("failed to delete file: %s", env.Error)
	}
	return nil
}

var downloadPolicy = retry.Policy{
	MaxAttempts:    3,
	InitialBackoff: 500 * time.Millisecond,
}

// Download fetches a file URL to destPath, retrying transient transport
// failures. Downloads go straight to the URL the server handed out, outside
// the envelope pipeline.
func (s *Service) Download(ctx context.Context, fileURL, destPath string) error {
	body, err := retry.Do(ctx, downloadPolicy, apperr.IsConnectivity, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create download request: %w", err)
		}

		resp, err := s.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("download failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("download failed with status %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}
	if err := os.WriteFile(destPath, body, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// FormatSize renders a byte count for display, e.g. "2.4 MB".
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func contentTypeFor(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
