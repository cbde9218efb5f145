// Package catalog describes the product cards shown on the storefront.
package catalog

import (
	"fmt"
	"strings"

	"github.com/trendstep/storefront/internal/domain/cart"
	"github.com/trendstep/storefront/internal/domain/shared"
	"github.com/trendstep/storefront/internal/domain/shared/valueobject"
)

// ErrProductNotFound is returned when a card key does not match any product
var ErrProductNotFound = shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found in catalog")

// Product is a storefront card. ID is optional; cards without one get an
// ID when added to the cart.
type Product struct {
	ID       string
	Name     string
	Price    valueobject.Money
	Image    string
	Category string
}

// Key identifies the card on the page: its ID, or its position when it has none
func (p Product) Key(index int) string {
	if p.ID != "" {
		return p.ID
	}
	return fmt.Sprintf("card-%d", index)
}

// Candidate converts the card into a cart add candidate
func (p Product) Candidate() cart.Item {
	category := p.Category
	if category == "" {
		category = cart.UnknownCategory
	}
	return cart.Item{
		ID:        p.ID,
		Name:      strings.TrimSpace(p.Name),
		UnitPrice: p.Price,
		ImageRef:  p.Image,
		Category:  category,
		Quantity:  1,
	}
}

// Category groups cards for display
type Category struct {
	Name     string
	Products []Entry
}

// Entry is a card together with its page key
type Entry struct {
	Key     string
	Product Product
}

// Catalog is an immutable list of cards
type Catalog struct {
	products []Product
}

// New builds a catalog, validating every card
func New(products []Product) (*Catalog, error) {
	seen := make(map[string]struct{}, len(products))
	for i, p := range products {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("product #%d: name is required", i+1)
		}
		if p.Price.Amount().IsNegative() {
			return nil, fmt.Errorf("product %q: price cannot be negative", p.Name)
		}
		if p.ID == "" {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("product %q: duplicate id %q", p.Name, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	cp := make([]Product, len(products))
	copy(cp, products)
	return &Catalog{products: cp}, nil
}

// Len returns the number of cards
func (c *Catalog) Len() int {
	return len(c.products)
}

// Entries returns every card with its page key, in file order
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.products))
	for i, p := range c.products {
		out = append(out, Entry{Key: p.Key(i), Product: p})
	}
	return out
}

// Lookup resolves a page key to its card
func (c *Catalog) Lookup(key string) (Product, error) {
	for i, p := range c.products {
		if p.Key(i) == key {
			return p, nil
		}
	}
	return Product{}, ErrProductNotFound
}

// Categories groups cards by category, keeping first-seen category order
func (c *Catalog) Categories() []Category {
	var out []Category
	index := make(map[string]int)
	for _, e := range c.Entries() {
		name := e.Product.Category
		if name == "" {
			name = cart.UnknownCategory
		}
		pos, ok := index[name]
		if !ok {
			pos = len(out)
			index[name] = pos
			out = append(out, Category{Name: name})
		}
		out[pos].Products = append(out[pos].Products, e)
	}
	return out
}
