package domain

import "errors"

var (
	// ErrSessionExpired is returned when a 401 could not be recovered by a
	// token refresh. The session has already been cleared when callers see it.
	ErrSessionExpired = errors.New("session expired")

	// ErrOffline marks requests that failed the connectivity check before any
	// network attempt was made.
	ErrOffline = errors.New("no internet connection")
)
