package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// updateRates shows the current exchange rates and reads a replacement set in
// "CUR=rate" form, comma separated. An empty line keeps the current rates.
func (a *App) updateRates(ctx context.Context) {
	snap := a.service.Snapshot()

	currencies := make([]string, 0, len(snap.Rates))
	for c := range snap.Rates {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)
	for _, c := range currencies {
		fmt.Printf("  %s = %v\n", c, snap.Rates[c])
	}

	line, err := GetSimpleText(a.reader, "Enter rates as CUR=rate, comma separated (empty = keep)")
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	if line == "" {
		return
	}

	rates := make(map[string]float64)
	for _, pair := range strings.Split(line, ",") {
		kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(kv) != 2 {
			fmt.Println("Bad rate entry:", pair)
			return
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(kv[1]), 64)
		if err != nil {
			fmt.Println("Bad rate value:", kv[1])
			return
		}
		rates[strings.ToUpper(strings.TrimSpace(kv[0]))] = rate
	}

	if err := a.service.UpdateRates(ctx, rates); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("Rates updated.")
}
