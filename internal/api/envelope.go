package api

import (
	"encoding/json"
	"fmt"

	"github.com/askvara/vara-go/internal/domain"
)

// Envelope is the uniform shape every HTTP response is normalized into before
// it reaches a caller. Success mirrors the HTTP status class; Error is only
// set when Success is false.
type Envelope struct {
	Success    bool
	Data       json.RawMessage
	Error      string
	Message    string
	Pagination *domain.Pagination
}

// Decode unmarshals the envelope's data payload into v.
func (e Envelope) Decode(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("envelope has no data")
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("failed to decode envelope data: %w", err)
	}
	return nil
}

// payloadProbe picks out the well-known fields of a response body without
// committing to a shape for the rest.
type payloadProbe struct {
	Data       json.RawMessage    `json:"data"`
	Error      string             `json:"error"`
	Message    string             `json:"message"`
	Pagination *domain.Pagination `json:"pagination"`
}

// Normalize turns a received HTTP status and body into an Envelope.
//
// Success is true exactly for 2xx statuses. On success the data is the
// payload's nested "data" field when one is present, otherwise the whole
// payload. On failure the error message comes from the payload's "error" or
// "message" field, falling back to a generic string. A body that does not
// parse as JSON yields a parse-failure envelope regardless of status.
func Normalize(statusCode int, body []byte) Envelope {
	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return Envelope{Success: false, Error: "Failed to parse response"}
	}

	var probe payloadProbe
	// Non-object payloads (arrays, scalars) have no nested fields to probe.
	_ = json.Unmarshal(raw, &probe)

	if statusCode >= 200 && statusCode <= 299 {
		data := probe.Data
		if len(data) == 0 {
			data = raw
		}
		return Envelope{
			Success:    true,
			Data:       data,
			Message:    probe.Message,
			Pagination: probe.Pagination,
		}
	}

	errMsg := probe.Error
	if errMsg == "" {
		errMsg = probe.Message
	}
	if errMsg == "" {
		errMsg = "Request failed"
	}
	return Envelope{Success: false, Error: errMsg}
}
