package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/dmitrijs2005/cpdvault/internal/client/models"
)

func (a *App) list(ctx context.Context) {
	entries, err := a.entryService.GetAll(ctx)
	if err != nil {
		log.Println(err.Error())
		return
	}

	if len(entries) == 0 {
		fmt.Println("No entries yet. Use 'add' to record your first activity.")
		return
	}

	for _, e := range entries {
		star := " "
		if e.Starred {
			star = "*"
		}
		fmt.Printf("%s %s  %-10s %5.1fh  %-14s %s  %s\n",
			star, e.Date.Format(dateLayout), e.Type, e.DurationHours, e.SyncState, e.ID, e.Title)
	}
}

func (a *App) syncNow(ctx context.Context) {
	report, err := a.entryService.SyncPending(ctx)
	if err != nil {
		log.Println(err.Error())
		return
	}
	fmt.Printf("Sync: %d attempted, %d succeeded, %d failed\n",
		report.Attempted, report.Succeeded, report.Failed)
}

func (a *App) showStats(ctx context.Context) {
	st, err := a.entryService.Statistics(ctx)
	if err != nil {
		log.Println(err.Error())
		return
	}

	fmt.Printf("Entries:               %d\n", st.EntryCount)
	fmt.Printf("Total hours:           %.1f\n", st.TotalHours)
	fmt.Printf("Hours this year:       %.1f\n", st.HoursThisYear)
	fmt.Printf("Hours last year:       %.1f\n", st.HoursLastYear)
	fmt.Printf("Average hours/month:   %.1f\n", st.AverageHoursPerMonth)
	fmt.Printf("Annual compliance:     %d%% (%.1f hours still needed)\n",
		st.CompliancePercentage, st.HoursNeeded)

	fmt.Println("By activity type:")
	for _, at := range models.ActivityTypes() {
		fmt.Printf("  %-12s %.1fh\n", at, st.TypeDistribution[at])
	}
}
