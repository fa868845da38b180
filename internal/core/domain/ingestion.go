package domain

import "time"

type IngestionStatus string

const (
	IngestionPending    IngestionStatus = "pending"
	IngestionProcessing IngestionStatus = "processing"
	IngestionCompleted  IngestionStatus = "completed"
	IngestionFailed     IngestionStatus = "failed"
)

func (s IngestionStatus) Valid() bool {
	switch s {
	case IngestionPending, IngestionProcessing, IngestionCompleted, IngestionFailed:
		return true
	default:
		return false
	}
}

type IngestionProcess struct {
	ID           string          `json:"id"`
	DocumentID   string          `json:"documentId"`
	Document     *Document       `json:"document,omitempty"`
	TriggeredBy  Principal       `json:"triggeredBy"`
	Status       IngestionStatus `json:"status"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
	Metadata     map[string]any  `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// IngestionRequest is the payload handed to the external ingestion worker.
type IngestionRequest struct {
	ProcessID    string `json:"processId"`
	DocumentPath string `json:"documentPath"`
}

// IngestionEvent is published after every persisted status transition.
type IngestionEvent struct {
	ProcessID    string          `json:"processId"`
	DocumentID   string          `json:"documentId"`
	Status       IngestionStatus `json:"status"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
	OccurredAt   time.Time       `json:"occurredAt"`
}
