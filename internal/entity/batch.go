package entity

import (
	"time"

	"github.com/joseph-ayodele/jurisprudence/constants"
)

// Batch is the server-side state of one import batch.
type Batch struct {
	ID              string                `json:"batch_id"`
	TotalFiles      int                   `json:"total_files"`
	Cursor          int                   `json:"cursor"`
	Status          constants.BatchStatus `json:"status"`
	ProcessingUntil *time.Time            `json:"processing_until,omitempty"`
	LeaseOwner      string                `json:"-"`
	CreatedBy       int64                 `json:"created_by"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// Remaining returns how many files are still to be processed.
func (b *Batch) Remaining() int {
	if r := b.TotalFiles - b.Cursor; r > 0 {
		return r
	}
	return 0
}

// BatchFileResult records the outcome for one file of a batch.
type BatchFileResult struct {
	BatchID  string    `json:"batch_id"`
	Position int       `json:"position"`
	Filename string    `json:"filename"`
	OK       bool      `json:"ok"`
	CaseID   int64     `json:"case_id,omitempty"`
	Ref      string    `json:"ref,omitempty"`
	Titre    string    `json:"titre,omitempty"`
	Error    string    `json:"error,omitempty"`
	At       time.Time `json:"processed_at"`
}
