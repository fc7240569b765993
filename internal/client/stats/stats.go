// Package stats computes the spend-analysis figures shown by the analysis
// view: TWD conversion, per-item totals and the debt settlement plan.
package stats

import (
	"math"
	"sort"

	"github.com/smolnikov/tripsync/internal/client/models"
)

// ConvertTWD converts an amount to TWD using the snapshot's exchange rates.
// An unknown currency is treated as already being TWD.
func ConvertTWD(amount float64, currency string, rates map[string]float64) int64 {
	rate := rates[currency]
	if rate == 0 {
		rate = 1
	}
	return int64(math.Round(amount * rate))
}

// AmountTWD returns the expense's TWD amount, preferring the value fixed at
// entry time so later rate edits do not rewrite history.
func AmountTWD(e models.Expense, rates map[string]float64) int64 {
	if e.AmountTWD > 0 {
		return e.AmountTWD
	}
	return ConvertTWD(e.Amount, e.Currency, rates)
}

// TotalsByItem sums TWD amounts per expense item label. Unlabeled expenses
// are grouped under "other".
func TotalsByItem(expenses []models.Expense, rates map[string]float64) map[string]int64 {
	totals := make(map[string]int64)
	for _, e := range expenses {
		key := e.Item
		if key == "" {
			key = "other"
		}
		totals[key] += AmountTWD(e, rates)
	}
	return totals
}

// ShareOf returns the total TWD share owed by one member across all
// expenses they are involved in.
func ShareOf(expenses []models.Expense, rates map[string]float64, member string) int64 {
	var total float64
	for _, e := range expenses {
		if len(e.Involved) == 0 {
			continue
		}
		for _, p := range e.Involved {
			if p == member {
				total += float64(AmountTWD(e, rates)) / float64(len(e.Involved))
				break
			}
		}
	}
	return int64(math.Round(total))
}

// Transfer is one repayment in a settlement plan.
type Transfer struct {
	From   string
	To     string
	Amount int64
}

// Settle computes a minimal-ish repayment plan: each payer is credited the
// full amount they fronted and each involved member is debited an equal
// share, then the largest debtors pay the largest creditors greedily.
// Balances within ±1 TWD are ignored as rounding noise.
func Settle(members []string, expenses []models.Expense, rates map[string]float64) []Transfer {
	if len(members) == 0 {
		return nil
	}

	balance := make(map[string]float64, len(members))
	for _, m := range members {
		balance[m] = 0
	}
	for _, e := range expenses {
		if len(e.Involved) == 0 {
			continue
		}
		amt := float64(AmountTWD(e, rates))
		if _, ok := balance[e.Payer]; ok {
			balance[e.Payer] += amt
		}
		share := amt / float64(len(e.Involved))
		for _, p := range e.Involved {
			if _, ok := balance[p]; ok {
				balance[p] -= share
			}
		}
	}

	type stake struct {
		member string
		amount float64
	}
	var debtors, creditors []stake
	// Iterate members (not the map) for deterministic output order.
	for _, m := range members {
		switch b := balance[m]; {
		case b < -1:
			debtors = append(debtors, stake{m, b})
		case b > 1:
			creditors = append(creditors, stake{m, b})
		}
	}
	sort.Slice(debtors, func(i, j int) bool { return debtors[i].amount < debtors[j].amount })
	sort.Slice(creditors, func(i, j int) bool { return creditors[i].amount > creditors[j].amount })

	var plan []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		d, c := &debtors[i], &creditors[j]
		amt := math.Min(-d.amount, c.amount)
		plan = append(plan, Transfer{From: d.member, To: c.member, Amount: int64(math.Round(amt))})
		d.amount += amt
		c.amount -= amt
		if -d.amount < 1 {
			i++
		}
		if c.amount < 1 {
			j++
		}
	}
	return plan
}
