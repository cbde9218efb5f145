package cart

import (
	"github.com/shopspring/decimal"

	"github.com/trendstep/storefront/internal/domain/shared/valueobject"
)

// DefaultShippingFee is the flat fee charged on any non-empty order
var DefaultShippingFee = valueobject.MustNewMoney(decimal.RequireFromString("5.99"))

// Summary is the order summary shown next to the cart table
type Summary struct {
	ItemCount int               `json:"item_count"`
	Subtotal  valueobject.Money `json:"subtotal"`
	Shipping  valueobject.Money `json:"shipping"`
	Total     valueobject.Money `json:"total"`
}

// ComputeSummary derives totals from a cart. Amounts stay exact; rounding is
// left to display.
func ComputeSummary(c Cart, shippingFee valueobject.Money) Summary {
	subtotal := valueobject.Zero()
	count := 0
	for _, it := range c.items {
		subtotal = subtotal.Add(it.LineTotal())
		count += it.Quantity
	}
	shipping := valueobject.Zero()
	if subtotal.IsPositive() {
		shipping = shippingFee
	}
	return Summary{
		ItemCount: count,
		Subtotal:  subtotal,
		Shipping:  shipping,
		Total:     subtotal.Add(shipping),
	}
}
