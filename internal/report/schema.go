package report

import "strings"

// Type is the closed set of report variants. Anything unrecognized maps to
// TypeDefault, which renders the generic three-column schema.
type Type string

const (
	TypeSales     Type = "sales"
	TypeInventory Type = "inventory"
	TypeLosses    Type = "losses"
	TypeLowStock  Type = "low-stock"
	TypeRefunds   Type = "refunds"
	TypeDefault   Type = "default"
)

// ParseType maps a request token to a report Type.
func ParseType(raw string) Type {
	switch Type(strings.ToLower(strings.TrimSpace(raw))) {
	case TypeSales:
		return TypeSales
	case TypeInventory:
		return TypeInventory
	case TypeLosses:
		return TypeLosses
	case TypeLowStock:
		return TypeLowStock
	case TypeRefunds:
		return TypeRefunds
	default:
		return TypeDefault
	}
}

// Headers returns the fixed header schema for a report type. Rows produced
// for that type always have exactly this many cells.
func Headers(t Type) []string {
	switch t {
	case TypeSales:
		return []string{"ID", "Date", "Cashier", "Amount ($)", "Status"}
	case TypeInventory:
		return []string{"ID", "SKU", "Name", "Category", "Stock", "Unit", "Price ($)", "Status"}
	case TypeLosses:
		return []string{"ID", "Date", "Item Name", "Quantity", "Reason", "Recorded By", "Value ($)"}
	case TypeLowStock:
		return []string{"ID", "SKU", "Name", "Category", "Current Stock", "Threshold", "Status"}
	case TypeRefunds:
		return []string{"Transaction ID", "Refund Date", "Refunded By", "Original Cashier", "Amount ($)", "Items"}
	default:
		return []string{"ID", "Name", "Value"}
	}
}

// Title returns the human-readable report name used in document headers and
// export file names.
func Title(t Type) string {
	switch t {
	case TypeSales:
		return "Sales Report"
	case TypeInventory:
		return "Inventory Report"
	case TypeLosses:
		return "Loss Report"
	case TypeLowStock:
		return "Low Stock Report"
	case TypeRefunds:
		return "Refunds Report"
	default:
		return "General Report"
	}
}
