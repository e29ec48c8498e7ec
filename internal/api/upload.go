package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/google/uuid"

	"github.com/askvara/vara-go/internal/version"
)

// File describes the payload of a multipart upload.
type File struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

// Upload posts a multipart form with the file plus any extra fields. Uploads
// deliberately bypass the 401-retry and offline-queue paths: a consumed
// multipart body is not safely re-executable.
func (c *Client) Upload(ctx context.Context, endpoint string, file File, fields map[string]string) (Envelope, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Envelope{}, fmt.Errorf("rate limiter: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	name := file.Name
	if name == "" {
		name = "file"
	}
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(name)))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file.Reader); err != nil {
		return Envelope{}, fmt.Errorf("failed to copy file contents: %w", err)
	}

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return Envelope{}, fmt.Errorf("failed to write form field %s: %w", key, err)
		}
	}

	if err := writer.Close(); err != nil {
		return Envelope{}, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to create upload request: %w", err)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.creds != nil {
		if token := c.creds.Token(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Envelope{}, fmt.Errorf("upload failed: %w", err)
	}
	return c.normalizeResponse(resp)
}

func escapeQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
