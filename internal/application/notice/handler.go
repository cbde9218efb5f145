package notice

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/trendstep/storefront/internal/domain/cart"
	"github.com/trendstep/storefront/internal/domain/shared"
)

// TTLs sets how long each notice kind stays on screen
type TTLs struct {
	Added   time.Duration
	Success time.Duration
	Warning time.Duration
}

// DefaultTTLs returns the storefront display times
func DefaultTTLs() TTLs {
	return TTLs{Added: DefaultAddedTTL, Success: DefaultSuccessTTL, Warning: DefaultWarningTTL}
}

// EventHandler posts notices in reaction to cart events
type EventHandler struct {
	board  *Board
	ttls   TTLs
	logger *zap.Logger
}

// NewEventHandler creates the cart event handler for a board
func NewEventHandler(board *Board, ttls TTLs, logger *zap.Logger) *EventHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventHandler{board: board, ttls: ttls, logger: logger}
}

// EventTypes implements shared.EventHandler
func (h *EventHandler) EventTypes() []string {
	return []string{cart.EventTypeItemAdded, cart.EventTypeCheckoutCompleted}
}

// Handle implements shared.EventHandler
func (h *EventHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *cart.ItemAddedEvent:
		h.board.Post(e.SessionID, ItemAdded(e.Name), h.ttls.Added)
	case *cart.CheckoutCompletedEvent:
		h.board.Post(e.SessionID, PurchaseSucceeded(e.OrderRef), h.ttls.Success)
	default:
		h.logger.Debug("ignoring event", zap.String("event_type", event.EventType()))
	}
	return nil
}

// Warn posts a warning notice for a session
func (h *EventHandler) Warn(session string, n Notice) *Handle {
	return h.board.Post(session, n, h.ttls.Warning)
}

var _ shared.EventHandler = (*EventHandler)(nil)
