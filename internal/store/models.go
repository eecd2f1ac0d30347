package store

import "time"

// Activity kinds.
const (
	KindUpload    = "upload"
	KindAsk       = "ask"
	KindSummarize = "summarize"
	KindHistory   = "history"
	KindRefresh   = "refresh"
)

// Activity statuses.
const (
	StatusOK       = "ok"
	StatusFailed   = "failed"
	StatusRejected = "rejected"
)

// Activity is one journaled controller action. It never holds question or
// answer text.
type Activity struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	Kind       string    `json:"kind"`
	DocumentID *int64    `json:"document_id"` // Nullable
	Status     string    `json:"status"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
