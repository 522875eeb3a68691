// Package stats derives compliance rollups from a reconciled entry set. It is
// a pure function of its inputs: no I/O, no clock access, no mutation of the
// entries.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/dmitrijs2005/cpdvault/internal/client/models"
)

// RequiredAnnualHours is the fixed revalidation target per calendar year.
const RequiredAnnualHours = 35.0

// Statistics is the derived view; it is never the source of truth and must be
// recomputed (or cache-invalidated) whenever the entry set changes.
type Statistics struct {
	EntryCount           int                             `json:"entry_count"`
	TotalHours           float64                         `json:"total_hours"`
	HoursThisYear        float64                         `json:"hours_this_year"`
	HoursLastYear        float64                         `json:"hours_last_year"`
	AverageHoursPerMonth float64                         `json:"average_hours_per_month"`
	TypeDistribution     map[models.ActivityType]float64 `json:"type_distribution"`
	CompliancePercentage int                             `json:"compliance_percentage"`
	HoursNeeded          float64                         `json:"hours_needed"`
}

// Clone returns a copy whose TypeDistribution the caller may mutate freely.
func (s Statistics) Clone() Statistics {
	out := s
	out.TypeDistribution = make(map[models.ActivityType]float64, len(s.TypeDistribution))
	for t, v := range s.TypeDistribution {
		out.TypeDistribution[t] = v
	}
	return out
}

// round1 rounds to one decimal place. Applied once at output, never during
// summation.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// roundDistribution rounds the per-type sums to tenths while keeping their
// sum equal to the rounded total. Each value is floored to tenths and the
// leftover tenths go to the largest remainders, type declaration order
// breaking ties.
func roundDistribution(dist map[models.ActivityType]float64, total float64) {
	const eps = 1e-9
	types := models.ActivityTypes()

	units := make(map[models.ActivityType]int, len(types))
	remainders := make(map[models.ActivityType]float64, len(types))
	floored := 0
	for _, t := range types {
		u := int(math.Floor(dist[t]*10 + eps))
		units[t] = u
		remainders[t] = dist[t]*10 - float64(u)
		floored += u
	}

	leftover := int(math.Round(total*10)) - floored
	if leftover < 0 {
		leftover = 0
	}

	order := make([]models.ActivityType, len(types))
	copy(order, types)
	sort.SliceStable(order, func(i, j int) bool {
		return remainders[order[i]] > remainders[order[j]]
	})
	for i := 0; i < leftover && i < len(order); i++ {
		units[order[i]]++
	}

	for _, t := range types {
		dist[t] = float64(units[t]) / 10
	}
}

// monthsSince returns the calendar-month difference from first to now,
// clamped to at least 1.
func monthsSince(first, now time.Time) int {
	months := (now.Year()-first.Year())*12 + int(now.Month()) - int(first.Month())
	if months < 1 {
		months = 1
	}
	return months
}

// Aggregate computes the rollups for the given entry set as of now.
func Aggregate(entries []*models.Entry, now time.Time) Statistics {
	dist := make(map[models.ActivityType]float64, len(models.ActivityTypes()))
	for _, t := range models.ActivityTypes() {
		dist[t] = 0
	}

	var total, thisYear, lastYear float64
	var earliestCreated time.Time

	for _, e := range entries {
		total += e.DurationHours
		dist[e.Type] += e.DurationHours

		switch e.Date.Year() {
		case now.Year():
			thisYear += e.DurationHours
		case now.Year() - 1:
			lastYear += e.DurationHours
		}

		if earliestCreated.IsZero() || e.CreatedAt.Before(earliestCreated) {
			earliestCreated = e.CreatedAt
		}
	}

	avg := 0.0
	if len(entries) > 0 {
		avg = total / float64(monthsSince(earliestCreated, now))
	}

	compliance := 0
	if thisYear > 0 {
		compliance = int(math.Round(thisYear / RequiredAnnualHours * 100))
		if compliance > 100 {
			compliance = 100
		}
	}

	needed := RequiredAnnualHours - thisYear
	if needed < 0 {
		needed = 0
	}

	roundDistribution(dist, total)

	return Statistics{
		EntryCount:           len(entries),
		TotalHours:           round1(total),
		HoursThisYear:        round1(thisYear),
		HoursLastYear:        round1(lastYear),
		AverageHoursPerMonth: round1(avg),
		TypeDistribution:     dist,
		CompliancePercentage: compliance,
		HoursNeeded:          round1(needed),
	}
}
