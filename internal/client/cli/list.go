package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/smolnikov/tripsync/internal/client/models"
	"github.com/smolnikov/tripsync/internal/client/stats"
)

// listItinerary prints the itinerary, optionally filtered to one day
// ("list 2026-09-02"). Items are grouped by date and ordered by start time.
func (a *App) listItinerary(ctx context.Context, args []string) {
	day := ""
	if len(args) > 0 {
		day = args[0]
	}

	items := a.service.Snapshot().Itinerary
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Date != items[j].Date {
			return items[i].Date < items[j].Date
		}
		return items[i].StartTime < items[j].StartTime
	})

	prev := ""
	shown := 0
	for _, it := range items {
		if day != "" && it.Date != day {
			continue
		}
		if it.Date != prev {
			fmt.Printf("-- %s --\n", it.Date)
			prev = it.Date
		}
		fmt.Println(formatItinerary(it, a.service.IsPending(it.ID)))
		shown++
	}
	if shown == 0 {
		fmt.Println("No itinerary items.")
	}
}

func formatItinerary(it models.ItineraryItem, pending bool) string {
	s := fmt.Sprintf("  %s", it.ID)
	if it.StartTime != "" {
		s += " " + it.StartTime
		if it.EndTime != "" {
			s += "-" + it.EndTime
		}
	}
	s += " " + it.Title
	if it.Location != "" {
		s += " @ " + it.Location
	}
	if it.ImgID != "" || it.ImgURL != "" {
		s += " [img]"
	}
	if pending {
		s += " (pending)"
	}
	return s
}

func (a *App) listExpenses(ctx context.Context) {
	snap := a.service.Snapshot()
	if len(snap.Expenses) == 0 {
		fmt.Println("No expenses.")
		return
	}
	for _, e := range snap.Expenses {
		twd := stats.AmountTWD(e, snap.Rates)
		s := fmt.Sprintf("  %s %s %s  %s  %.2f %s (%d TWD)  paid by %s",
			e.ID, e.Date, e.Time, e.Item, e.Amount, e.Currency, twd, e.Payer)
		if a.service.IsPending(e.ID) {
			s += " (pending)"
		}
		fmt.Println(s)
	}
}
