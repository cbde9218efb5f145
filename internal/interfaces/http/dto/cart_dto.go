package dto

import (
	"time"

	"github.com/trendstep/storefront/internal/domain/cart"
	"github.com/trendstep/storefront/internal/domain/catalog"
)

// AddItemRequest adds a product to the cart. Either product_id names a
// catalog card, or name and price describe the product inline.
type AddItemRequest struct {
	ProductID string `json:"product_id" binding:"required_without=Name,max=128"`
	ID        string `json:"id" binding:"omitempty,max=128"`
	Name      string `json:"name" binding:"required_without=ProductID,max=200"`
	Price     string `json:"price" binding:"required_with=Name,price"`
	Image     string `json:"image" binding:"omitempty,max=2048"`
	Category  string `json:"category" binding:"omitempty,max=100"`
}

// SetQuantityRequest replaces a line quantity. Values below 1 are clamped.
type SetQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// CartItemResponse is one cart line
type CartItemResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Image     string `json:"image"`
	Category  string `json:"category"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"line_total"`
}

// SummaryResponse is the order summary
type SummaryResponse struct {
	ItemCount int    `json:"item_count"`
	Label     string `json:"label"`
	Subtotal  string `json:"subtotal"`
	Shipping  string `json:"shipping"`
	Total     string `json:"total"`
}

// CartResponse is the full cart
type CartResponse struct {
	Items   []CartItemResponse `json:"items"`
	Summary SummaryResponse    `json:"summary"`
}

// CountResponse is the header badge value
type CountResponse struct {
	Count int `json:"count"`
}

// CheckoutResponse describes a completed purchase
type CheckoutResponse struct {
	OrderRef string             `json:"order_ref"`
	PlacedAt time.Time          `json:"placed_at"`
	Items    []CartItemResponse `json:"items"`
	Summary  SummaryResponse    `json:"summary"`
}

// ProductResponse is a catalog card
type ProductResponse struct {
	Key      string `json:"key"`
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Image    string `json:"image"`
	Category string `json:"category"`
}

// ToCartItemResponses converts cart lines
func ToCartItemResponses(items []cart.Item) []CartItemResponse {
	out := make([]CartItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, CartItemResponse{
			ID:        it.ID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice.Fixed(),
			Image:     it.ImageRef,
			Category:  it.Category,
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal().Fixed(),
		})
	}
	return out
}

// ToSummaryResponse converts a summary; label is the localized item count
func ToSummaryResponse(s cart.Summary, label string) SummaryResponse {
	return SummaryResponse{
		ItemCount: s.ItemCount,
		Label:     label,
		Subtotal:  s.Subtotal.Fixed(),
		Shipping:  s.Shipping.Fixed(),
		Total:     s.Total.Fixed(),
	}
}

// ToProductResponses converts catalog entries
func ToProductResponses(entries []catalog.Entry) []ProductResponse {
	out := make([]ProductResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, ProductResponse{
			Key:      e.Key,
			ID:       e.Product.ID,
			Name:     e.Product.Name,
			Price:    e.Product.Price.Fixed(),
			Image:    e.Product.Image,
			Category: e.Product.Category,
		})
	}
	return out
}
