// Package cart contains the cart use cases shared by the storefront, the API and the CLI.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/trendstep/storefront/internal/domain/cart"
	"github.com/trendstep/storefront/internal/domain/shared"
	"github.com/trendstep/storefront/internal/domain/shared/valueobject"
	"github.com/trendstep/storefront/internal/infrastructure/telemetry"
)

// Store keeps one persisted cart in sync with an in-memory copy.
// Every mutation re-reads the persisted blob first, so it always observes the
// latest write to the key, including writes from other processes.
type Store struct {
	key       string
	sessionID string

	storage   cart.Storage
	publisher shared.EventPublisher
	ids       cart.IDGenerator
	fee       valueobject.Money
	lock      sync.Locker
	now       func() time.Time
	logger    *zap.Logger

	mu      sync.RWMutex
	current cart.Cart
}

// Key returns the storage key of this cart
func (s *Store) Key() string {
	return s.key
}

// SessionID returns the storefront session owning this cart
func (s *Store) SessionID() string {
	return s.sessionID
}

// Cart returns the last loaded or written cart
func (s *Store) Cart() cart.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Summary computes totals for the current cart
func (s *Store) Summary() cart.Summary {
	return cart.ComputeSummary(s.Cart(), s.fee)
}

// Load reads the persisted cart. It never fails: a missing, unreadable or
// malformed entry yields an empty cart.
func (s *Store) Load(ctx context.Context) cart.Cart {
	ctx, span := telemetry.StartServiceSpan(ctx, "cart", "load")
	defer span.End()

	s.lock.Lock()
	defer s.lock.Unlock()

	c, err := s.read(ctx)
	if err != nil {
		s.logger.Warn("cart storage read failed, using empty cart",
			zap.String("key", s.key),
			zap.Error(err),
		)
		c = cart.Empty()
	}
	s.setCurrent(c)
	return c
}

// AddItem adds a product card to the cart. A known ID gains one unit and the
// candidate's other fields are ignored; a new ID is appended with quantity 1
// once the candidate passes validation. Candidates without an ID get one from
// the configured generator.
func (s *Store) AddItem(ctx context.Context, candidate cart.Item) (cart.Cart, error) {
	if candidate.ID == "" {
		candidate.ID = s.ids.Generate(candidate)
	}

	var invalid error
	c, err := s.mutate(ctx, "add_item", func(c cart.Cart) (cart.Cart, []shared.DomainEvent) {
		_, merged := c.Find(candidate.ID)
		if !merged {
			if invalid = candidate.Validate(); invalid != nil {
				return c, nil
			}
		}
		next := c.Add(candidate)
		added, _ := next.Find(candidate.ID)
		return next, []shared.DomainEvent{cart.NewItemAddedEvent(s.key, s.sessionID, added, merged)}
	})
	if err != nil {
		return c, err
	}
	return c, invalid
}

// SetQuantity replaces a line's quantity. Values below 1 are clamped to 1 and
// an unknown ID is ignored without writing.
func (s *Store) SetQuantity(ctx context.Context, id string, quantity int) (cart.Cart, error) {
	return s.mutate(ctx, "set_quantity", func(c cart.Cart) (cart.Cart, []shared.DomainEvent) {
		return s.setQuantity(c, id, func(int) int { return quantity })
	})
}

// Increase adds one unit to a line
func (s *Store) Increase(ctx context.Context, id string) (cart.Cart, error) {
	return s.mutate(ctx, "increase", func(c cart.Cart) (cart.Cart, []shared.DomainEvent) {
		return s.setQuantity(c, id, func(q int) int { return q + 1 })
	})
}

// Decrease removes one unit from a line. A line at quantity 1 is left as is.
func (s *Store) Decrease(ctx context.Context, id string) (cart.Cart, error) {
	return s.mutate(ctx, "decrease", func(c cart.Cart) (cart.Cart, []shared.DomainEvent) {
		if it, ok := c.Find(id); !ok || it.Quantity <= 1 {
			return c, nil
		}
		return s.setQuantity(c, id, func(q int) int { return q - 1 })
	})
}

func (s *Store) setQuantity(c cart.Cart, id string, next func(int) int) (cart.Cart, []shared.DomainEvent) {
	it, ok := c.Find(id)
	if !ok {
		return c, nil
	}
	updated, _ := c.SetQuantity(id, next(it.Quantity))
	after, _ := updated.Find(id)
	return updated, []shared.DomainEvent{cart.NewItemQuantityChangedEvent(s.key, s.sessionID, it.Quantity, after)}
}

// RemoveItem deletes a line. Removing an unknown ID is a no-op.
func (s *Store) RemoveItem(ctx context.Context, id string) (cart.Cart, error) {
	return s.mutate(ctx, "remove_item", func(c cart.Cart) (cart.Cart, []shared.DomainEvent) {
		next, removed := c.Remove(id)
		if !removed {
			return c, nil
		}
		return next, []shared.DomainEvent{cart.NewItemRemovedEvent(s.key, s.sessionID, id)}
	})
}

// Clear erases the persisted entry
func (s *Store) Clear(ctx context.Context) (cart.Cart, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cart", "clear")
	defer span.End()

	s.lock.Lock()
	prev, err := s.read(ctx)
	if err != nil {
		s.logger.Warn("cart storage read failed before clear, counting cached lines",
			zap.String("key", s.key),
			zap.Error(err),
		)
		prev = s.Cart()
	}
	if err := s.storage.Remove(ctx, s.key); err != nil {
		s.lock.Unlock()
		telemetry.RecordError(span, err)
		return s.Cart(), storageError("clear", err)
	}
	s.setCurrent(cart.Empty())
	s.lock.Unlock()

	s.publish(ctx, cart.NewClearedEvent(s.key, s.sessionID, prev.Len()))
	return cart.Empty(), nil
}

// Checkout simulates a purchase: the cart is cleared and a receipt returned.
// An empty cart fails with cart.ErrCartEmpty and nothing changes.
func (s *Store) Checkout(ctx context.Context) (*Receipt, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cart", "checkout")
	defer span.End()

	s.lock.Lock()
	c, err := s.read(ctx)
	if err != nil {
		s.lock.Unlock()
		telemetry.RecordError(span, err)
		return nil, storageError("checkout", err)
	}
	s.setCurrent(c)
	if c.IsEmpty() {
		s.lock.Unlock()
		return nil, cart.ErrCartEmpty
	}
	if err := s.storage.Remove(ctx, s.key); err != nil {
		s.lock.Unlock()
		telemetry.RecordError(span, err)
		return nil, storageError("checkout", err)
	}
	s.setCurrent(cart.Empty())
	s.lock.Unlock()

	receipt := newReceipt(c, s.fee, s.now())
	telemetry.SetAttributes(span,
		"order_ref", receipt.OrderRef,
		"item_count", receipt.Summary.ItemCount,
	)
	s.logger.Info("checkout completed",
		zap.String("key", s.key),
		zap.String("order_ref", receipt.OrderRef),
		zap.Int("item_count", receipt.Summary.ItemCount),
		zap.String("total", receipt.Summary.Total.Fixed()),
	)
	s.publish(ctx, cart.NewCheckoutCompletedEvent(s.key, s.sessionID, receipt.OrderRef, receipt.Summary))
	return receipt, nil
}

type mutation func(cart.Cart) (cart.Cart, []shared.DomainEvent)

// mutate runs a read-modify-write cycle under the key lock. A mutation that
// raises no events is treated as a no-op and is not written.
func (s *Store) mutate(ctx context.Context, op string, fn mutation) (cart.Cart, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cart", op)
	defer span.End()

	s.lock.Lock()
	c, err := s.read(ctx)
	if err != nil {
		s.lock.Unlock()
		telemetry.RecordError(span, err)
		return s.Cart(), storageError(op, err)
	}
	s.setCurrent(c)

	next, events := fn(c)
	if len(events) == 0 {
		s.lock.Unlock()
		return c, nil
	}

	if err := s.write(ctx, next); err != nil {
		s.lock.Unlock()
		telemetry.RecordError(span, err)
		return c, storageError(op, err)
	}
	s.setCurrent(next)
	s.lock.Unlock()

	s.publish(ctx, events...)
	return next, nil
}

func (s *Store) read(ctx context.Context) (cart.Cart, error) {
	raw, found, err := s.storage.Get(ctx, s.key)
	if err != nil {
		return cart.Empty(), err
	}
	if !found {
		return cart.Empty(), nil
	}
	c, err := cart.Decode(raw)
	if err != nil {
		s.logger.Debug("discarding malformed cart entry",
			zap.String("key", s.key),
			zap.Error(err),
		)
	}
	return c, nil
}

func (s *Store) write(ctx context.Context, c cart.Cart) error {
	data, err := cart.Encode(c)
	if err != nil {
		return err
	}
	return s.storage.Set(ctx, s.key, data)
}

func (s *Store) setCurrent(c cart.Cart) {
	s.mu.Lock()
	s.current = c
	s.mu.Unlock()
}

func (s *Store) publish(ctx context.Context, events ...shared.DomainEvent) {
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish cart events",
			zap.String("key", s.key),
			zap.Error(err),
		)
	}
}

func storageError(op string, err error) error {
	return fmt.Errorf("cart %s: %w: %w", op, shared.ErrStorageUnavailable, err)
}

// IsStorageError reports whether err came from the cart storage backend
func IsStorageError(err error) bool {
	return errors.Is(err, shared.ErrStorageUnavailable)
}
