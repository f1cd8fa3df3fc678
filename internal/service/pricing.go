package service

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/tapas-pos/api/internal/enum"
)

// PayableTotal sums price x quantity over every item whose category is
// chargeable. Tapas contribute nothing to the total. The result is exact;
// two-decimal formatting happens only at the rendering edge.
func PayableTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if item.Category == enum.FreeCategory {
			continue
		}
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt32(item.Quantity)))
	}
	return total
}

// TopTapas aggregates the line items of all orders into a ranking of
// cumulative quantity per item name, descending. Every category counts;
// a name appearing in several orders becomes a single entry. Ties are
// broken by name so the ranking is stable, matching the SQL aggregate.
func TopTapas(orders []Order) []TopTapasEntry {
	counts := make(map[string]int64)
	for _, order := range orders {
		for _, item := range order.Items {
			counts[item.Name] += int64(item.Quantity)
		}
	}

	entries := make([]TopTapasEntry, 0, len(counts))
	for name, qty := range counts {
		entries = append(entries, TopTapasEntry{Name: name, Quantity: qty})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Quantity != entries[j].Quantity {
			return entries[i].Quantity > entries[j].Quantity
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}
