package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/cpdvault/internal/client/models"
)

const dateLayout = "2006-01-02"

// add walks the user through creating one CPD entry.
func (a *App) add(ctx context.Context) {
	title, err := getSimpleText(a.reader, "Entry title", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	activityType, err := a.chooseActivityType()
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	durationStr, err := getSimpleText(a.reader, "Duration in hours (e.g. 2.5)", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		log.Printf("not a number: %s", durationStr)
		return
	}

	dateStr, err := getSimpleText(a.reader, "Activity date (YYYY-MM-DD, empty for today)", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}
	date := time.Now().UTC()
	if dateStr != "" {
		date, err = time.Parse(dateLayout, dateStr)
		if err != nil {
			log.Printf("bad date %q, expected YYYY-MM-DD", dateStr)
			return
		}
	}

	entry := models.NewEntry(title, activityType, duration, date)

	if entry.Description, err = GetMultiline(a.reader, "Description (optional)", os.Stdout); err != nil {
		log.Printf("error: %v", err)
		return
	}
	outcomes, err := GetMultiline(a.reader, "What did you learn? (optional)", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}
	if outcomes != "" {
		entry.LearningOutcomes = strings.Split(outcomes, "\n")
	}
	if entry.Categories, err = a.chooseCategories(); err != nil {
		log.Printf("error: %v", err)
		return
	}

	if err := a.entryService.Create(ctx, entry); err != nil {
		log.Printf("Error: %s", err.Error())
		return
	}

	fmt.Printf("Saved %s (%s)\n", entry.ID, entry.SyncState)
}

func (a *App) chooseActivityType() (models.ActivityType, error) {
	types := models.ActivityTypes()
	for i, at := range types {
		fmt.Printf("  %d. %s\n", i+1, at)
	}
	choice, err := getSimpleText(a.reader, "Activity type (number)", os.Stdout)
	if err != nil {
		return "", err
	}
	n, err := strconv.Atoi(choice)
	if err != nil || n < 1 || n > len(types) {
		return "", fmt.Errorf("pick a number between 1 and %d", len(types))
	}
	return types[n-1], nil
}

func (a *App) chooseCategories() ([]string, error) {
	cats := models.Categories()
	fmt.Println("Revalidation categories:")
	for i, c := range cats {
		fmt.Printf("  %d. %s\n", i+1, c.Name)
	}
	choice, err := getSimpleText(a.reader, "Categories (comma-separated numbers, empty for none)", os.Stdout)
	if err != nil {
		return nil, err
	}
	if choice == "" {
		return nil, nil
	}

	var ids []string
	for _, part := range strings.Split(choice, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 || n > len(cats) {
			return nil, fmt.Errorf("bad category number %q", part)
		}
		ids = append(ids, cats[n-1].ID)
	}
	return ids, nil
}
