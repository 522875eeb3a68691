// Package transcribe converts recorded voice notes into text so a spoken
// reflection can be attached to an entry as searchable content.
package transcribe

import "context"

// Transcript is the recognized text of one voice note.
type Transcript struct {
	Text string
	// Confidence is the recognizer's average confidence over all
	// segments, 0..1. Zero when the provider reports none.
	Confidence float32
}

// Transcriber turns a local audio file into a Transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*Transcript, error)
	Close() error
}
