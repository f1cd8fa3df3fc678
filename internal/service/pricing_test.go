package service_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/tapas-pos/api/internal/service"
)

func item(name, category, price string, qty int32) service.OrderItem {
	return service.OrderItem{
		Name:      name,
		Category:  category,
		UnitPrice: decimal.RequireFromString(price),
		Quantity:  qty,
	}
}

func TestPayableTotalExcludesTapas(t *testing.T) {
	items := []service.OrderItem{
		item("Patatas bravas", "tapas", "3.00", 2),
		item("Caña", "drinks", "2.50", 2),
		item("Flan casero", "desserts", "4.00", 1),
	}

	got := service.PayableTotal(items)
	want := decimal.RequireFromString("9.00")
	if !got.Equal(want) {
		t.Errorf("total: got %s, want %s", got, want)
	}
}

func TestPayableTotalOnlyTapasIsZero(t *testing.T) {
	items := []service.OrderItem{
		item("Patatas bravas", "tapas", "3.00", 4),
		item("Tortilla española", "tapas", "2.00", 1),
	}

	got := service.PayableTotal(items)
	if !got.IsZero() {
		t.Errorf("total: got %s, want 0", got)
	}
}

func TestPayableTotalEmpty(t *testing.T) {
	if got := service.PayableTotal(nil); !got.IsZero() {
		t.Errorf("total: got %s, want 0", got)
	}
}

func TestPayableTotalMultipliesQuantity(t *testing.T) {
	items := []service.OrderItem{
		item("Copa de vino", "drinks", "3.50", 3),
	}

	got := service.PayableTotal(items)
	want := decimal.RequireFromString("10.50")
	if !got.Equal(want) {
		t.Errorf("total: got %s, want %s", got, want)
	}
}

func TestPayableTotalDoesNotMutateInput(t *testing.T) {
	items := []service.OrderItem{
		item("Caña", "drinks", "2.50", 2),
		item("Patatas bravas", "tapas", "3.00", 1),
	}

	service.PayableTotal(items)

	if !items[0].UnitPrice.Equal(decimal.RequireFromString("2.50")) || items[0].Quantity != 2 {
		t.Error("input items were mutated")
	}
	if len(items) != 2 {
		t.Errorf("input length changed: got %d", len(items))
	}
}

func TestTopTapasMergesAcrossOrders(t *testing.T) {
	orders := []service.Order{
		{Items: []service.OrderItem{
			item("Caña", "drinks", "2.50", 3),
		}},
		{Items: []service.OrderItem{
			item("Caña", "drinks", "2.50", 2),
		}},
	}

	got := service.TopTapas(orders)
	if len(got) != 1 {
		t.Fatalf("entries: got %d, want 1", len(got))
	}
	if got[0].Name != "Caña" || got[0].Quantity != 5 {
		t.Errorf("got %+v, want {Caña 5}", got[0])
	}
}

func TestTopTapasSortsByQuantityDescending(t *testing.T) {
	orders := []service.Order{
		{Items: []service.OrderItem{
			item("Croquetas de jamón", "tapas", "0.00", 1),
			item("Patatas bravas", "tapas", "0.00", 4),
			item("Tortilla española", "tapas", "0.00", 2),
		}},
	}

	got := service.TopTapas(orders)
	want := []string{"Patatas bravas", "Tortilla española", "Croquetas de jamón"}
	if len(got) != len(want) {
		t.Fatalf("entries: got %d, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("position %d: got %s, want %s", i, got[i].Name, name)
		}
	}
}

func TestTopTapasBreaksTiesByName(t *testing.T) {
	orders := []service.Order{
		{Items: []service.OrderItem{
			item("Tortilla española", "tapas", "0.00", 2),
			item("Croquetas de jamón", "tapas", "0.00", 2),
		}},
	}

	got := service.TopTapas(orders)
	if len(got) != 2 {
		t.Fatalf("entries: got %d, want 2", len(got))
	}
	if got[0].Name != "Croquetas de jamón" || got[1].Name != "Tortilla española" {
		t.Errorf("tie order wrong: got [%s, %s]", got[0].Name, got[1].Name)
	}
}

func TestTopTapasCountsEveryCategory(t *testing.T) {
	orders := []service.Order{
		{Items: []service.OrderItem{
			item("Caña", "drinks", "2.50", 10),
			item("Patatas bravas", "tapas", "0.00", 4),
			item("Paella mixta", "raciones", "12.00", 3),
		}},
	}

	got := service.TopTapas(orders)
	want := []service.TopTapasEntry{
		{Name: "Caña", Quantity: 10},
		{Name: "Patatas bravas", Quantity: 4},
		{Name: "Paella mixta", Quantity: 3},
	}
	if len(got) != len(want) {
		t.Fatalf("entries: got %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("position %d: got %+v, want %+v", i, got[i], w)
		}
	}
}

func TestTopTapasEmptyOrders(t *testing.T) {
	if got := service.TopTapas(nil); len(got) != 0 {
		t.Errorf("entries: got %d, want 0", len(got))
	}
}
