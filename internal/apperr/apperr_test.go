package apperr

import (
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askvara/vara-go/internal/domain"
)

func TestError_Message(t *testing.T) {
	t.Run("with cause", func(t *testing.T) {
		err := Connectivity("request failed", errors.New("dial tcp: timeout"))
		assert.Contains(t, err.Error(), "connectivity: request failed")
		assert.Contains(t, err.Error(), "dial tcp: timeout")
	})

	t.Run("without cause", func(t *testing.T) {
		err := Validation("email is required")
		assert.Equal(t, "validation: email is required", err.Error())
	})
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Auth("refresh failed", cause)
	assert.ErrorIs(t, err, cause)

	var appErr *Error
	require.ErrorAs(t, error(err), &appErr)
	assert.Equal(t, KindAuth, appErr.Kind)
}

func TestIsConnectivity(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"offline sentinel", domain.ErrOffline, true},
		{"wrapped offline sentinel", fmt.Errorf("dispatch: %w", domain.ErrOffline), true},
		{"connectivity kind", Connectivity("down", nil), true},
		{"url transport error", &url.Error{Op: "Post", URL: "http://x", Err: errors.New("connection refused")}, true},
		{"validation kind", Validation("bad input"), false},
		{"plain error", errors.New("nope"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsConnectivity(tt.err))
		})
	}
}
