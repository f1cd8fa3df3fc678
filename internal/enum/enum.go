package enum

// ── Staff and customers (CHECK constrained in DB) ──

const (
	StaffRoleManager = "MANAGER"
	StaffRoleWaiter  = "WAITER"
)

const (
	CustomerTypeAdult = "ADULT"
	CustomerTypeChild = "CHILD"
)

// ── Menu categories (CHECK constrained in DB) ──

const (
	CategoryTapas    = "tapas"
	CategoryDrinks   = "drinks"
	CategoryDesserts = "desserts"
	CategoryRaciones = "raciones"
)

// Tapas ride along for free: they show up on tickets and in the top-tapas
// ranking but never in the payable total.
const FreeCategory = CategoryTapas

// ── Display (fixed glyph, no locale abstraction) ──

const CurrencySymbol = "€"

// CustomerTypeLabel returns the fixed localized label for a customer type.
func CustomerTypeLabel(customerType string) string {
	switch customerType {
	case CustomerTypeAdult:
		return "Adulto"
	case CustomerTypeChild:
		return "Niño"
	}
	return customerType
}

// IsValidCustomerType reports whether s is a known customer type.
func IsValidCustomerType(s string) bool {
	switch s {
	case CustomerTypeAdult, CustomerTypeChild:
		return true
	}
	return false
}

// IsValidCategory reports whether s is a known menu category.
func IsValidCategory(s string) bool {
	switch s {
	case CategoryTapas, CategoryDrinks, CategoryDesserts, CategoryRaciones:
		return true
	}
	return false
}
