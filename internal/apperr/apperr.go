// Package apperr provides the client-side error taxonomy: every failure the
// SDK produces is classified so the request pipeline can decide between
// queueing, refreshing credentials, and surfacing the error as-is.
package apperr

import (
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/askvara/vara-go/internal/domain"
)

// Kind categorizes an error for dispatch decisions and logging.
type Kind string

const (
	// KindConnectivity indicates no network was reachable; the request never
	// produced a structured HTTP response and is safe to defer.
	KindConnectivity Kind = "connectivity"
	// KindAuth indicates an unrecoverable authentication failure.
	KindAuth Kind = "auth"
	// KindValidation indicates the server rejected the request as invalid.
	KindValidation Kind = "validation"
	// KindParse indicates a malformed response body.
	KindParse Kind = "parse"
	// KindServer indicates a server-side failure.
	KindServer Kind = "server"
)

// Error is a classified SDK error.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Connectivity wraps a transport failure that never reached the server.
func Connectivity(message string, cause error) *Error {
	return &Error{Kind: KindConnectivity, Message: message, Cause: cause}
}

// Auth wraps an unrecoverable authentication failure.
func Auth(message string, cause error) *Error {
	return &Error{Kind: KindAuth, Message: message, Cause: cause}
}

// Validation wraps a server-side rejection of the request payload.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// IsConnectivity reports whether err represents a network/connectivity
// failure, as opposed to a structured HTTP error response. Such failures are
// the trigger condition for offline queueing.
func IsConnectivity(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domain.ErrOffline) {
		return true
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == KindConnectivity
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
