package cart

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trendstep/storefront/internal/domain/cart"
	"github.com/trendstep/storefront/internal/domain/shared/valueobject"
)

// Receipt describes a completed simulated purchase
type Receipt struct {
	OrderRef string
	Items    []cart.Item
	Summary  cart.Summary
	PlacedAt time.Time
}

func newReceipt(c cart.Cart, fee valueobject.Money, placedAt time.Time) *Receipt {
	return &Receipt{
		OrderRef: newOrderRef(),
		Items:    c.Items(),
		Summary:  cart.ComputeSummary(c, fee),
		PlacedAt: placedAt,
	}
}

func newOrderRef() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "TS-" + strings.ToUpper(id[:10])
}
