package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dmitrijs2005/cpdvault/internal/client/models"
)

func (a *App) show(ctx context.Context) {

	id, err := getSimpleText(a.reader, "Enter entry id to show", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	e, err := a.entryService.Get(ctx, id)
	if err != nil {
		log.Printf("Error: %s", err.Error())
		return
	}

	fmt.Printf("Title:      %s\n", e.Title)
	fmt.Printf("Type:       %s\n", e.Type)
	fmt.Printf("Date:       %s\n", e.Date.Format(dateLayout))
	fmt.Printf("Duration:   %.1fh\n", e.DurationHours)
	fmt.Printf("Sync state: %s\n", e.SyncState)
	if e.Starred {
		fmt.Println("Starred:    yes")
	}
	if e.Description != "" {
		fmt.Printf("Description:\n%s\n", e.Description)
	}
	if len(e.LearningOutcomes) > 0 {
		fmt.Printf("Learning outcomes:\n%s\n", strings.Join(e.LearningOutcomes, "\n"))
	}
	if e.TranscriptText != "" {
		fmt.Printf("Voice note transcript:\n%s\n", e.TranscriptText)
	}
	for _, catID := range e.Categories {
		if c, ok := models.CategoryByID(catID); ok {
			fmt.Printf("Category:   %s\n", c.Name)
		}
	}
	for _, ev := range e.Evidence {
		fmt.Printf("Evidence:   %s (%s)\n", ev.FileName, ev.StorageKey)
	}
}

func (a *App) star(ctx context.Context, starred bool) {

	id, err := getSimpleText(a.reader, "Enter entry id", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	if err := a.entryService.SetStarred(ctx, id, starred); err != nil {
		log.Printf("Error: %s", err.Error())
	}
}

func (a *App) delete(ctx context.Context) {

	id, err := getSimpleText(a.reader, "Enter entry id to delete", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	if err := a.entryService.Delete(ctx, id); err != nil {
		log.Printf("Error: %s", err.Error())
	}
}
