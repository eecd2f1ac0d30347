package qaclient

import (
	"encoding/json"
	"strings"
)

// Fallback messages used when an error response carries no usable detail.
const (
	msgUpload    = "Failed to upload PDF"
	msgDocuments = "Failed to get documents"
	msgAsk       = "Failed to get answer"
	msgHistory   = "Failed to get QA history"
	msgSummarize = "Failed to generate summary"
)

// APIError is the single failure type returned by every Client call.
// Message is human readable and safe to show to the user.
type APIError struct {
	Op         string
	StatusCode int // 0 when the request never got a response
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// detailMessage pulls the "detail" field out of an error body. Non-string
// details (e.g. validation error lists) are ignored.
func detailMessage(body []byte, fallback string) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return fallback
	}
	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err != nil {
		return fallback
	}
	if detail = strings.TrimSpace(detail); detail == "" {
		return fallback
	}
	return detail
}
