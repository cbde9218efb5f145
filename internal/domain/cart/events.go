package cart

import (
	"github.com/trendstep/storefront/internal/domain/shared"
	"github.com/trendstep/storefront/internal/domain/shared/valueobject"
)

// AggregateType names the cart in published events
const AggregateType = "Cart"

// Event type constants
const (
	EventTypeItemAdded           = "cart.item_added"
	EventTypeItemQuantityChanged = "cart.item_quantity_changed"
	EventTypeItemRemoved         = "cart.item_removed"
	EventTypeCleared             = "cart.cleared"
	EventTypeCheckoutCompleted   = "cart.checkout_completed"
)

// ItemAddedEvent is raised when a product is added or its line grows by one
type ItemAddedEvent struct {
	shared.BaseDomainEvent
	SessionID string            `json:"session_id"`
	ItemID    string            `json:"item_id"`
	Name      string            `json:"name"`
	UnitPrice valueobject.Money `json:"unit_price"`
	Quantity  int               `json:"quantity"`
	Merged    bool              `json:"merged"`
}

// NewItemAddedEvent creates an ItemAddedEvent
func NewItemAddedEvent(key, sessionID string, item Item, merged bool) *ItemAddedEvent {
	return &ItemAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemAdded, AggregateType, key),
		SessionID:       sessionID,
		ItemID:          item.ID,
		Name:            item.Name,
		UnitPrice:       item.UnitPrice,
		Quantity:        item.Quantity,
		Merged:          merged,
	}
}

// ItemQuantityChangedEvent carries the new quantity and line total
type ItemQuantityChangedEvent struct {
	shared.BaseDomainEvent
	SessionID   string            `json:"session_id"`
	ItemID      string            `json:"item_id"`
	OldQuantity int               `json:"old_quantity"`
	NewQuantity int               `json:"new_quantity"`
	LineTotal   valueobject.Money `json:"line_total"`
}

// NewItemQuantityChangedEvent creates an ItemQuantityChangedEvent
func NewItemQuantityChangedEvent(key, sessionID string, oldQty int, item Item) *ItemQuantityChangedEvent {
	return &ItemQuantityChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemQuantityChanged, AggregateType, key),
		SessionID:       sessionID,
		ItemID:          item.ID,
		OldQuantity:     oldQty,
		NewQuantity:     item.Quantity,
		LineTotal:       item.LineTotal(),
	}
}

// ItemRemovedEvent is raised when a line is deleted
type ItemRemovedEvent struct {
	shared.BaseDomainEvent
	SessionID string `json:"session_id"`
	ItemID    string `json:"item_id"`
}

// NewItemRemovedEvent creates an ItemRemovedEvent
func NewItemRemovedEvent(key, sessionID, itemID string) *ItemRemovedEvent {
	return &ItemRemovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemRemoved, AggregateType, key),
		SessionID:       sessionID,
		ItemID:          itemID,
	}
}

// ClearedEvent is raised when the shopper empties the cart
type ClearedEvent struct {
	shared.BaseDomainEvent
	SessionID string `json:"session_id"`
	Lines     int    `json:"lines"`
}

// NewClearedEvent creates a ClearedEvent
func NewClearedEvent(key, sessionID string, lines int) *ClearedEvent {
	return &ClearedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCleared, AggregateType, key),
		SessionID:       sessionID,
		Lines:           lines,
	}
}

// CheckoutCompletedEvent is raised after a simulated purchase
type CheckoutCompletedEvent struct {
	shared.BaseDomainEvent
	SessionID string            `json:"session_id"`
	OrderRef  string            `json:"order_ref"`
	ItemCount int               `json:"item_count"`
	Total     valueobject.Money `json:"total"`
}

// NewCheckoutCompletedEvent creates a CheckoutCompletedEvent
func NewCheckoutCompletedEvent(key, sessionID, orderRef string, summary Summary) *CheckoutCompletedEvent {
	return &CheckoutCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCheckoutCompleted, AggregateType, key),
		SessionID:       sessionID,
		OrderRef:        orderRef,
		ItemCount:       summary.ItemCount,
		Total:           summary.Total,
	}
}
