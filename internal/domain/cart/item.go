package cart

import (
	"strings"
	"unicode"

	"github.com/trendstep/storefront/internal/domain/shared"
	"github.com/trendstep/storefront/internal/domain/shared/valueobject"
)

// UnknownCategory is stored when a product card carries no category
const UnknownCategory = "unknown"

// MaxQuantity caps a line's quantity. Larger values, whether typed by a
// shopper or read from a tampered entry, are lowered to it.
const MaxQuantity = 9999

// ErrInvalidItem matches every candidate validation failure
var ErrInvalidItem = shared.NewDomainError("INVALID_ITEM", "Invalid product")

// Item is one line of the cart
type Item struct {
	ID        string
	Name      string
	UnitPrice valueobject.Money
	ImageRef  string
	Category  string
	Quantity  int
}

// LineTotal returns unit price times quantity, unrounded
func (i Item) LineTotal() valueobject.Money {
	return i.UnitPrice.MultiplyByInt(int64(i.Quantity))
}

// Validate checks the fields a candidate must carry before it can join a cart.
// The ID may be empty; the store assigns one.
func (i Item) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return shared.NewDomainError("INVALID_ITEM", "Product name cannot be empty")
	}
	if i.UnitPrice.Amount().IsNegative() {
		return shared.NewDomainError("INVALID_ITEM", "Product price cannot be negative")
	}
	return nil
}

func (i Item) withQuantity(q int) Item {
	i.Quantity = clampQuantity(q)
	return i
}

func clampQuantity(q int) int {
	switch {
	case q < 1:
		return 1
	case q > MaxQuantity:
		return MaxQuantity
	}
	return q
}

// ParseQuantity reads a typed quantity the way a browser's parseInt does:
// leading spaces are skipped and the leading integer is used, so "2.5" is 2
// and "3 pares" is 3. Input with no leading digits, or a result below 1,
// gives 1.
func ParseQuantity(s string) int {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	negative := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		negative = s[0] == '-'
		s = s[1:]
	}

	q, digits := 0, 0
	for ; digits < len(s) && s[digits] >= '0' && s[digits] <= '9'; digits++ {
		if q <= MaxQuantity {
			q = q*10 + int(s[digits]-'0')
		}
	}
	if digits == 0 || negative {
		return 1
	}
	return clampQuantity(q)
}
