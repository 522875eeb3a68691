package httpapi

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/cpdvault/internal/server/models"
)

// entryDTO is the JSON shape an entry travels in. The client sends extra
// bookkeeping fields (sync_state) that the server has no use for; they are
// simply not part of the DTO and get dropped on decode.
type entryDTO struct {
	ID               string               `json:"id"`
	Title            string               `json:"title"`
	Type             string               `json:"type"`
	DurationHours    float64              `json:"duration_hours"`
	Date             time.Time            `json:"date"`
	Description      string               `json:"description"`
	LearningOutcomes []string             `json:"learning_outcomes,omitempty"`
	Categories       []string             `json:"categories,omitempty"`
	Evidence         []models.EvidenceRef `json:"evidence,omitempty"`
	TranscriptText   string               `json:"transcript_text,omitempty"`
	Starred          bool                 `json:"starred"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// Learning outcomes are a list on the wire but a single text column in the
// database; one outcome per line.

func (d *entryDTO) toModel() *models.Entry {
	return &models.Entry{
		ID:               d.ID,
		Title:            d.Title,
		Type:             d.Type,
		DurationHours:    d.DurationHours,
		Date:             d.Date,
		Description:      d.Description,
		LearningOutcomes: strings.Join(d.LearningOutcomes, "\n"),
		Categories:       d.Categories,
		Evidence:         d.Evidence,
		TranscriptText:   d.TranscriptText,
		Starred:          d.Starred,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

func entryToDTO(e *models.Entry) *entryDTO {
	var outcomes []string
	if e.LearningOutcomes != "" {
		outcomes = strings.Split(e.LearningOutcomes, "\n")
	}
	return &entryDTO{
		ID:               e.ID,
		Title:            e.Title,
		Type:             e.Type,
		DurationHours:    e.DurationHours,
		Date:             e.Date,
		Description:      e.Description,
		LearningOutcomes: outcomes,
		Categories:       e.Categories,
		Evidence:         e.Evidence,
		TranscriptText:   e.TranscriptText,
		Starred:          e.Starred,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

func entriesToDTO(entries []*models.Entry) []*entryDTO {
	out := make([]*entryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryToDTO(e))
	}
	return out
}
