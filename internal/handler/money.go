package handler

import (
	"github.com/shopspring/decimal"
	"github.com/tapas-pos/api/internal/enum"
)

// formatMoney renders an amount with two decimal places, e.g. "12.50".
func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// displayMoney renders an amount for receipts, e.g. "12.50 €".
func displayMoney(d decimal.Decimal) string {
	return d.StringFixed(2) + " " + enum.CurrencySymbol
}
