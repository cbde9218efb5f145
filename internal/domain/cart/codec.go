package cart

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/trendstep/storefront/internal/domain/shared/valueobject"
)

// storedItem is the persisted shape of a line:
// {"id","name","price","image","category","quantity"}
type storedItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    json.RawMessage `json:"price"`
	Image    string          `json:"image"`
	Category string          `json:"category"`
	Quantity json.RawMessage `json:"quantity"`
}

type encodedItem struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	Image    string      `json:"image"`
	Category string      `json:"category"`
	Quantity int         `json:"quantity"`
}

// Encode serializes a cart to its persisted JSON array form
func Encode(c Cart) (string, error) {
	out := make([]encodedItem, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, encodedItem{
			ID:       it.ID,
			Name:     it.Name,
			Price:    json.Number(it.UnitPrice.String()),
			Image:    it.ImageRef,
			Category: it.Category,
			Quantity: it.Quantity,
		})
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to encode cart: %w", err)
	}
	return string(data), nil
}

// Decode restores a cart from its persisted form. It always returns a usable
// cart: blank input is an empty cart, and a blob that is not a JSON array of
// objects yields an empty cart plus the parse error for logging. Entries
// without an ID are dropped, missing or non-positive quantities become 1 and
// duplicate IDs are merged.
func Decode(data string) (Cart, error) {
	trimmed := bytes.TrimSpace([]byte(data))
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Empty(), nil
	}

	var stored []storedItem
	if err := json.Unmarshal(trimmed, &stored); err != nil {
		return Empty(), fmt.Errorf("malformed cart payload: %w", err)
	}

	items := make([]Item, 0, len(stored))
	for _, s := range stored {
		items = append(items, Item{
			ID:        s.ID,
			Name:      s.Name,
			UnitPrice: decodePrice(s.Price),
			ImageRef:  s.Image,
			Category:  s.Category,
			Quantity:  decodeQuantity(s.Quantity),
		})
	}
	return New(items...), nil
}

func decodePrice(raw json.RawMessage) valueobject.Money {
	d, ok := decodeNumber(raw)
	if !ok || d.IsNegative() {
		return valueobject.Zero()
	}
	return valueobject.MustNewMoney(d)
}

func decodeQuantity(raw json.RawMessage) int {
	d, ok := decodeNumber(raw)
	if !ok || d.LessThan(decimal.NewFromInt(1)) {
		return 1
	}
	if d.GreaterThan(decimal.NewFromInt(MaxQuantity)) {
		return MaxQuantity
	}
	return int(d.IntPart())
}

// decodeNumber accepts a JSON number or a numeric string
func decodeNumber(raw json.RawMessage) (decimal.Decimal, bool) {
	if len(raw) == 0 {
		return decimal.Zero, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return decimal.Zero, false
	}
	d, err := valueobject.ParseAmount(s)
	return d, err == nil
}
