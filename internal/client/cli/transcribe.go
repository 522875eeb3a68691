package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/cpdvault/internal/client/transcribe"
)

// transcribeNote recognizes a recorded voice note and stores the text on an
// entry. The recognizer client is built lazily on first use so the CLI works
// without cloud credentials until this command is invoked.
func (a *App) transcribeNote(ctx context.Context) {

	id, err := getSimpleText(a.reader, "Enter entry id", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	entry, err := a.entryService.Get(ctx, id)
	if err != nil {
		log.Printf("Error: %s", err.Error())
		return
	}

	path, err := getSimpleText(a.reader, "Path to audio file (wav/flac/mp3/ogg)", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	if a.transcriber == nil {
		t, err := transcribe.NewGCPTranscriber(ctx, a.log, a.config.TranscribeLanguage)
		if err != nil {
			log.Printf("Could not initialize speech recognition: %s", err.Error())
			return
		}
		a.transcriber = t
	}

	fmt.Println("Transcribing...")
	tr, err := a.transcriber.Transcribe(ctx, path)
	if err != nil {
		log.Printf("Transcription failed: %s", err.Error())
		return
	}
	if tr.Text == "" {
		fmt.Println("No speech recognized in the file.")
		return
	}

	entry.TranscriptText = tr.Text
	if err := a.entryService.Update(ctx, entry); err != nil {
		log.Printf("Error: %s", err.Error())
		return
	}

	fmt.Printf("Transcript stored (%d chars, confidence %.0f%%):\n%s\n",
		len(tr.Text), tr.Confidence*100, tr.Text)
}
