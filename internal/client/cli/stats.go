package cli

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/smolnikov/tripsync/internal/client/stats"
)

// statsCache holds the last computed figures so the stats command never
// recomputes on the render path.
type statsCache struct {
	mu       sync.Mutex
	ready    bool
	totals   map[string]int64
	plan     []stats.Transfer
	grandTWD int64
}

// recomputeStats refreshes the cached figures. Called by the debouncer after
// snapshot replacements settle.
func (a *App) recomputeStats() {
	snap := a.service.Snapshot()

	totals := stats.TotalsByItem(snap.Expenses, snap.Rates)
	var grand int64
	for _, v := range totals {
		grand += v
	}
	plan := stats.Settle(snap.Members, snap.Expenses, snap.Rates)

	a.stats.mu.Lock()
	a.stats.ready = true
	a.stats.totals = totals
	a.stats.plan = plan
	a.stats.grandTWD = grand
	a.stats.mu.Unlock()
}

func (a *App) ensureStats() {
	a.stats.mu.Lock()
	ready := a.stats.ready
	a.stats.mu.Unlock()
	if !ready {
		a.recomputeStats()
	}
}

func (a *App) showStats(ctx context.Context) {
	a.ensureStats()
	a.stats.mu.Lock()
	totals, grand := a.stats.totals, a.stats.grandTWD
	a.stats.mu.Unlock()

	if len(totals) == 0 {
		fmt.Println("No expenses yet.")
		return
	}

	items := make([]string, 0, len(totals))
	for item := range totals {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return totals[items[i]] > totals[items[j]] })

	for _, item := range items {
		fmt.Printf("  %-12s %8d TWD\n", item, totals[item])
	}
	fmt.Printf("  %-12s %8d TWD\n", "total", grand)
}

func (a *App) showSettlement(ctx context.Context) {
	a.ensureStats()
	a.stats.mu.Lock()
	plan := a.stats.plan
	a.stats.mu.Unlock()

	if len(plan) == 0 {
		fmt.Println("Everyone is settled up.")
		return
	}
	for _, tr := range plan {
		fmt.Printf("  %s pays %s %d TWD\n", tr.From, tr.To, tr.Amount)
	}
}
