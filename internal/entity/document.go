package entity

import (
	"time"

	"github.com/google/uuid"
)

// Document is an archived ledger source.
type Document struct {
	ID              uuid.UUID `json:"id"`
	SourceName      string    `json:"source_name"`
	SHA256          string    `json:"sha256"`
	Institute       string    `json:"institute"`
	Programme       string    `json:"programme"`
	ResultDate      string    `json:"result_date"`
	ExaminationInfo string    `json:"examination_info"`
	StudentCount    int       `json:"student_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// StudentRow is the per-student index kept next to an archived result.
type StudentRow struct {
	DocumentID   uuid.UUID `json:"document_id"`
	Position     int       `json:"position"`
	RegNo        string    `json:"reg_no"`
	Name         string    `json:"name"`
	FinalResult  string    `json:"final_result"`
	SubjectCount int       `json:"subject_count"`
}
