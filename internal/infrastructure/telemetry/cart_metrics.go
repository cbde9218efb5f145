package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/trendstep/storefront/internal/domain/cart"
	"github.com/trendstep/storefront/internal/domain/shared"
)

// CartMetrics turns cart events into OpenTelemetry instruments
type CartMetrics struct {
	itemsAdded      metric.Int64Counter
	quantityChanges metric.Int64Counter
	itemsRemoved    metric.Int64Counter
	cartsCleared    metric.Int64Counter
	checkouts       metric.Int64Counter
	checkoutAmount  metric.Float64Histogram
	checkoutItems   metric.Int64Histogram
}

// CheckoutAmountBuckets are order total boundaries in dollars
var CheckoutAmountBuckets = []float64{10, 25, 50, 75, 100, 150, 250, 500, 1000}

// NewCartMetrics registers the cart instruments on meter
func NewCartMetrics(meter metric.Meter) (*CartMetrics, error) {
	m := &CartMetrics{}
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.itemsAdded, "storefront.cart.items_added", "Add-to-cart actions"},
		{&m.quantityChanges, "storefront.cart.quantity_changes", "Quantity edits on cart lines"},
		{&m.itemsRemoved, "storefront.cart.items_removed", "Lines removed from carts"},
		{&m.cartsCleared, "storefront.cart.cleared", "Carts emptied by the shopper"},
		{&m.checkouts, "storefront.checkout.completed", "Completed simulated purchases"},
	}
	for _, c := range counters {
		if *c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit("{event}")); err != nil {
			return nil, fmt.Errorf("failed to create counter %s: %w", c.name, err)
		}
	}

	m.checkoutAmount, err = meter.Float64Histogram("storefront.checkout.amount",
		metric.WithDescription("Order total including shipping"),
		metric.WithUnit("USD"),
		metric.WithExplicitBucketBoundaries(CheckoutAmountBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram storefront.checkout.amount: %w", err)
	}

	m.checkoutItems, err = meter.Int64Histogram("storefront.checkout.items",
		metric.WithDescription("Units per order"),
		metric.WithUnit("{item}"),
		metric.WithExplicitBucketBoundaries(1, 2, 3, 5, 8, 13, 21),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram storefront.checkout.items: %w", err)
	}
	return m, nil
}

// EventTypes implements shared.EventHandler
func (m *CartMetrics) EventTypes() []string {
	return []string{
		cart.EventTypeItemAdded,
		cart.EventTypeItemQuantityChanged,
		cart.EventTypeItemRemoved,
		cart.EventTypeCleared,
		cart.EventTypeCheckoutCompleted,
	}
}

// Handle implements shared.EventHandler
func (m *CartMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *cart.ItemAddedEvent:
		m.itemsAdded.Add(ctx, 1, metric.WithAttributes(attribute.Bool("merged", e.Merged)))
	case *cart.ItemQuantityChangedEvent:
		direction := "down"
		if e.NewQuantity > e.OldQuantity {
			direction = "up"
		}
		m.quantityChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("direction", direction)))
	case *cart.ItemRemovedEvent:
		m.itemsRemoved.Add(ctx, 1)
	case *cart.ClearedEvent:
		m.cartsCleared.Add(ctx, 1)
	case *cart.CheckoutCompletedEvent:
		m.checkouts.Add(ctx, 1)
		m.checkoutAmount.Record(ctx, e.Total.Float64())
		m.checkoutItems.Record(ctx, int64(e.ItemCount))
	}
	return nil
}

var _ shared.EventHandler = (*CartMetrics)(nil)
