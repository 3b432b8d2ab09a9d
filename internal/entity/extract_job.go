package entity

import (
	"time"

	"github.com/google/uuid"
)

// ExtractJob records the outcome of processing one ledger file in a batch.
type ExtractJob struct {
	ID           uuid.UUID  `json:"id"`
	SourcePath   string     `json:"source_path"`
	DocumentID   *uuid.UUID `json:"document_id,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	Status       string     `json:"status"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	Pages        int        `json:"pages"`
	Method       string     `json:"method"`
	Students     int        `json:"students"`
	Subjects     int        `json:"subjects"`
}
