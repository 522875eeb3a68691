package models

import "time"

// EvidenceRef points at an evidence object in the S3-compatible store.
type EvidenceRef struct {
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
}

// Entry is the server-side row for one CPD activity. The ID is the
// client-generated correlation id, so the same activity recorded offline and
// uploaded later lands on the same row.
type Entry struct {
	ID               string
	UserID           string
	Title            string
	Type             string
	DurationHours    float64
	Date             time.Time
	Description      string
	LearningOutcomes string
	Categories       []string
	Evidence         []EvidenceRef
	TranscriptText   string
	Starred          bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
