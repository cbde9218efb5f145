// Package cart holds the shopping cart value, its totals and the persisted layout.
package cart

import "github.com/trendstep/storefront/internal/domain/shared"

// ErrCartEmpty is returned when checkout is attempted without items
var ErrCartEmpty = shared.NewDomainError("CART_EMPTY", "Tu carrito está vacío. Agrega productos antes de proceder al pago.")

// Cart is an ordered list of items, unique by ID, in insertion order.
// Cart is a value: every mutation returns a new Cart and leaves the receiver untouched.
type Cart struct {
	items []Item
}

// Empty returns a cart without items
func Empty() Cart {
	return Cart{}
}

// New builds a cart from items, merging duplicate IDs (quantities summed,
// first occurrence's fields kept), dropping items without ID and clamping
// quantities to 1..MaxQuantity.
func New(items ...Item) Cart {
	out := make([]Item, 0, len(items))
	index := make(map[string]int, len(items))
	for _, it := range items {
		if it.ID == "" {
			continue
		}
		it.Quantity = clampQuantity(it.Quantity)
		if pos, ok := index[it.ID]; ok {
			out[pos].Quantity = clampQuantity(out[pos].Quantity + it.Quantity)
			continue
		}
		index[it.ID] = len(out)
		out = append(out, it)
	}
	return Cart{items: out}
}

// Items returns a copy of the lines in display order
func (c Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of distinct lines
func (c Cart) Len() int {
	return len(c.items)
}

// IsEmpty reports whether the cart has no lines
func (c Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// ItemCount returns the sum of all quantities
func (c Cart) ItemCount() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// Find returns the line with the given ID
func (c Cart) Find(id string) (Item, bool) {
	if i := c.indexOf(id); i >= 0 {
		return c.items[i], true
	}
	return Item{}, false
}

// Add merges a candidate into the cart. An existing ID gains one unit and
// keeps its stored fields; a new ID is appended with quantity 1.
func (c Cart) Add(candidate Item) Cart {
	items := c.Items()
	if i := c.indexOf(candidate.ID); i >= 0 {
		items[i] = items[i].withQuantity(items[i].Quantity + 1)
		return Cart{items: items}
	}
	if candidate.Category == "" {
		candidate.Category = UnknownCategory
	}
	return Cart{items: append(items, candidate.withQuantity(1))}
}

// SetQuantity replaces the quantity of a line, clamping values below 1.
// The boolean is false when the ID is not in the cart.
func (c Cart) SetQuantity(id string, q int) (Cart, bool) {
	i := c.indexOf(id)
	if i < 0 {
		return c, false
	}
	items := c.Items()
	items[i] = items[i].withQuantity(q)
	return Cart{items: items}, true
}

// Remove filters a line out. The boolean reports whether anything was removed.
func (c Cart) Remove(id string) (Cart, bool) {
	i := c.indexOf(id)
	if i < 0 {
		return c, false
	}
	items := make([]Item, 0, len(c.items)-1)
	items = append(items, c.items[:i]...)
	items = append(items, c.items[i+1:]...)
	return Cart{items: items}, true
}

func (c Cart) indexOf(id string) int {
	for i := range c.items {
		if c.items[i].ID == id {
			return i
		}
	}
	return -1
}
