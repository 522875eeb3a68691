// Package models defines the CPD entry types and their fields.
package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ActivityType classifies a CPD activity.
type ActivityType string

const (
	ActivityTypeCourse     ActivityType = "course"
	ActivityTypeConference ActivityType = "conference"
	ActivityTypeReflection ActivityType = "reflection"
	ActivityTypeMentoring  ActivityType = "mentoring"
	ActivityTypeOther      ActivityType = "other"
)

// ActivityTypes lists every member of the enumeration; aggregation output
// must cover all of them even when unused.
func ActivityTypes() []ActivityType {
	return []ActivityType{
		ActivityTypeCourse,
		ActivityTypeConference,
		ActivityTypeReflection,
		ActivityTypeMentoring,
		ActivityTypeOther,
	}
}

// SyncState tags where an entry currently lives relative to the remote store.
type SyncState string

const (
	// SyncStateLocalOnly: created locally, never uploaded.
	SyncStateLocalOnly SyncState = "local_only"
	// SyncStatePendingUpload: has local changes awaiting upload.
	SyncStatePendingUpload SyncState = "pending_upload"
	// SyncStateSynced: confirmed present remotely under the same correlation id.
	SyncStateSynced SyncState = "synced"
)

// MaxDurationHours caps a single activity; anything longer is a data-entry
// mistake.
const MaxDurationHours = 24.0

var (
	ErrEmptyTitle      = errors.New("title must not be empty")
	ErrInvalidDuration = fmt.Errorf("duration must be > 0 and <= %v hours", MaxDurationHours)
	ErrUnknownType     = errors.New("unknown activity type")
	ErrUnknownCategory = errors.New("unknown category id")
)

// EvidenceRef points at an uploaded evidence object.
type EvidenceRef struct {
	// StorageKey is the object key in the remote object store.
	StorageKey string `json:"storage_key"`
	// FileName is the original name, kept for display.
	FileName string `json:"file_name"`
}

// Entry is a single CPD activity record. ID is the client-generated
// correlation id: it is assigned once at creation, survives the
// offline/online transition, and is the key used to match the record to its
// remote row. It is never the server's row id.
type Entry struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Type             ActivityType  `json:"type"`
	DurationHours    float64       `json:"duration_hours"`
	Date             time.Time     `json:"date"`
	Description      string        `json:"description"`
	LearningOutcomes []string      `json:"learning_outcomes,omitempty"`
	Categories       []string      `json:"categories,omitempty"`
	Evidence         []EvidenceRef `json:"evidence,omitempty"`
	TranscriptText   string        `json:"transcript_text,omitempty"`
	SyncState        SyncState     `json:"sync_state"`
	Starred          bool          `json:"starred"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// NewEntry builds an entry with a fresh correlation id and both timestamps
// set to now. The entry starts life local-only.
func NewEntry(title string, activityType ActivityType, durationHours float64, date time.Time) *Entry {
	now := time.Now().UTC().Truncate(time.Second)
	return &Entry{
		ID:            uuid.NewString(),
		Title:         title,
		Type:          activityType,
		DurationHours: durationHours,
		Date:          date,
		SyncState:     SyncStateLocalOnly,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Validate checks the entry invariants.
func (e *Entry) Validate() error {
	if e.Title == "" {
		return ErrEmptyTitle
	}
	if e.DurationHours <= 0 || e.DurationHours > MaxDurationHours {
		return ErrInvalidDuration
	}
	valid := false
	for _, t := range ActivityTypes() {
		if e.Type == t {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: %q", ErrUnknownType, e.Type)
	}
	for _, c := range e.Categories {
		if _, ok := CategoryByID(c); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownCategory, c)
		}
	}
	return nil
}

// Touch bumps UpdatedAt and reverts the sync state to pending so a synced
// remote copy is never silently shadowed by an unsent local edit.
func (e *Entry) Touch() {
	e.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	e.SyncState = SyncStatePendingUpload
}

// NeedsUpload reports whether the entry still has to reach the remote store.
func (e *Entry) NeedsUpload() bool {
	return e.SyncState == SyncStateLocalOnly || e.SyncState == SyncStatePendingUpload
}
