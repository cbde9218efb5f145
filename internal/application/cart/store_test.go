package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/trendstep/storefront/internal/domain/cart"
	"github.com/trendstep/storefront/internal/domain/shared/valueobject"
)

var moneyComparer = cmp.Comparer(func(a, b valueobject.Money) bool { return a.Equals(b) })

func price(s string) valueobject.Money {
	return valueobject.MustNewMoney(decimal.RequireFromString(s))
}

func sneaker() cart.Item {
	return cart.Item{ID: "p1", Name: "Runner Pro", UnitPrice: price("19.99"), ImageRef: "img/p1.jpg", Category: "Running"}
}

func boot() cart.Item {
	return cart.Item{ID: "p2", Name: "Trail Boot", UnitPrice: price("10.00"), Category: "Hiking"}
}

func newTestManager(t *testing.T, opts ...ManagerOption) (*Manager, *fakeStorage, *recordingPublisher) {
	t.Helper()
	st := newFakeStorage()
	pub := &recordingPublisher{}
	opts = append([]ManagerOption{WithPublisher(pub)}, opts...)
	return NewManager(st, opts...), st, pub
}

func TestStore_AddSameProductTwice(t *testing.T) {
	ctx := context.Background()
	m, st, pub := newTestManager(t)
	s := m.Open(ctx, "sess-1")

	_, err := s.AddItem(ctx, sneaker())
	require.NoError(t, err)
	c, err := s.AddItem(ctx, sneaker())
	require.NoError(t, err)

	require.Equal(t, 1, c.Len())
	it, _ := c.Find("p1")
	assert.Equal(t, 2, it.Quantity)

	sum := s.Summary()
	assert.Equal(t, 2, sum.ItemCount)
	assert.Equal(t, "39.98", sum.Subtotal.Fixed())
	assert.Equal(t, "5.99", sum.Shipping.Fixed())
	assert.Equal(t, "45.97", sum.Total.Fixed())

	raw, ok := st.raw("trendstepCart:sess-1")
	require.True(t, ok)
	persisted, err := cart.Decode(raw)
	require.NoError(t, err)
	if diff := cmp.Diff(c.Items(), persisted.Items(), moneyComparer); diff != "" {
		t.Errorf("persisted cart mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []string{cart.EventTypeItemAdded, cart.EventTypeItemAdded}, pub.types())
	second := pub.events[1].(*cart.ItemAddedEvent)
	assert.True(t, second.Merged)
	assert.Equal(t, 2, second.Quantity)
	assert.Equal(t, "trendstepCart:sess-1", second.AggregateID())
}

func TestStore_AddItemValidation(t *testing.T) {
	ctx := context.Background()
	m, st, _ := newTestManager(t)
	s := m.Open(ctx, "sess-1")

	_, err := s.AddItem(ctx, cart.Item{ID: "x", Name: "  ", UnitPrice: price("1")})
	require.Error(t, err)
	assert.ErrorIs(t, err, cart.ErrInvalidItem)
	assert.Equal(t, 0, st.writeCount())
}

func TestStore_AddExistingIgnoresCandidateFields(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		candidate cart.Item
	}{
		{name: "id only", candidate: cart.Item{ID: "p1"}},
		{name: "blank name", candidate: cart.Item{ID: "p1", Name: "  ", UnitPrice: price("5")}},
		{name: "different card data", candidate: cart.Item{ID: "p1", Name: "Other", UnitPrice: price("3"), Category: "Hiking"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, st, pub := newTestManager(t)
			s := m.Open(ctx, "sess-1")
			_, err := s.AddItem(ctx, sneaker())
			require.NoError(t, err)

			c, err := s.AddItem(ctx, tt.candidate)
			require.NoError(t, err)

			it, ok := c.Find("p1")
			require.True(t, ok)
			assert.Equal(t, 2, it.Quantity)
			assert.Equal(t, "Runner Pro", it.Name)
			assert.Equal(t, "19.99", it.UnitPrice.Fixed())
			assert.Equal(t, 2, st.writeCount())
			assert.True(t, pub.events[1].(*cart.ItemAddedEvent).Merged)
		})
	}
}

func TestStore_AddItemGeneratesID(t *testing.T) {
	ctx := context.Background()
	gen := cart.IDGeneratorFunc(func(cart.Item) string { return "prod-fixed" })
	m, _, _ := newTestManager(t, WithIDGenerator(gen))
	s := m.Open(ctx, "sess-1")

	candidate := sneaker()
	candidate.ID = ""
	c, err := s.AddItem(ctx, candidate)
	require.NoError(t, err)

	_, ok := c.Find("prod-fixed")
	assert.True(t, ok)
}

func TestStore_SetQuantity(t *testing.T) {
	ctx := context.Background()
	m, _, pub := newTestManager(t)
	s := m.Open(ctx, "sess-1")
	_, err := s.AddItem(ctx, sneaker())
	require.NoError(t, err)

	c, err := s.SetQuantity(ctx, "p1", 0)
	require.NoError(t, err)
	it, _ := c.Find("p1")
	assert.Equal(t, 1, it.Quantity, "quantity is clamped to 1")

	c, err = s.SetQuantity(ctx, "p1", 4)
	require.NoError(t, err)
	it, _ = c.Find("p1")
	assert.Equal(t, 4, it.Quantity)
	assert.Equal(t, "79.96", it.LineTotal().Fixed())

	last := pub.events[len(pub.events)-1].(*cart.ItemQuantityChangedEvent)
	assert.Equal(t, 1, last.OldQuantity)
	assert.Equal(t, 4, last.NewQuantity)
}

func TestStore_IncreaseDecrease(t *testing.T) {
	ctx := context.Background()
	m, st, _ := newTestManager(t)
	s := m.Open(ctx, "sess-1")
	_, err := s.AddItem(ctx, sneaker())
	require.NoError(t, err)

	writes := st.writeCount()
	c, err := s.Decrease(ctx, "p1")
	require.NoError(t, err)
	it, _ := c.Find("p1")
	assert.Equal(t, 1, it.Quantity)
	assert.Equal(t, writes, st.writeCount(), "decrease at 1 does not write")

	_, err = s.Increase(ctx, "p1")
	require.NoError(t, err)
	c, err = s.Increase(ctx, "p1")
	require.NoError(t, err)
	it, _ = c.Find("p1")
	assert.Equal(t, 3, it.Quantity)

	c, err = s.Decrease(ctx, "p1")
	require.NoError(t, err)
	it, _ = c.Find("p1")
	assert.Equal(t, 2, it.Quantity)
}

func TestStore_RemoveItem(t *testing.T) {
	ctx := context.Background()
	m, st, pub := newTestManager(t)
	s := m.Open(ctx, "sess-1")
	_, err := s.AddItem(ctx, sneaker())
	require.NoError(t, err)
	_, err = s.AddItem(ctx, boot())
	require.NoError(t, err)

	t.Run("unknown id is a no-op", func(t *testing.T) {
		writes := st.writeCount()
		events := len(pub.types())

		c, err := s.RemoveItem(ctx, "nope")
		require.NoError(t, err)
		assert.Equal(t, 2, c.Len())
		assert.Equal(t, writes, st.writeCount())
		assert.Len(t, pub.types(), events)
	})

	t.Run("known id is removed", func(t *testing.T) {
		c, err := s.RemoveItem(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, 1, c.Len())
		_, ok := c.Find("p1")
		assert.False(t, ok)
		assert.Equal(t, cart.EventTypeItemRemoved, pub.types()[len(pub.types())-1])
	})
}

func TestStore_ClearThenLoad(t *testing.T) {
	ctx := context.Background()
	m, st, pub := newTestManager(t)
	s := m.Open(ctx, "sess-1")
	_, err := s.AddItem(ctx, sneaker())
	require.NoError(t, err)
	_, err = s.AddItem(ctx, boot())
	require.NoError(t, err)

	c, err := s.Clear(ctx)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	_, ok := st.raw("trendstepCart:sess-1")
	assert.False(t, ok)

	reopened := m.Open(ctx, "sess-1")
	assert.True(t, reopened.Cart().IsEmpty())

	cleared := pub.events[len(pub.events)-1].(*cart.ClearedEvent)
	assert.Equal(t, 2, cleared.Lines)
}

func TestStore_Checkout(t *testing.T) {
	ctx := context.Background()
	placed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("empty cart is rejected", func(t *testing.T) {
		m, st, pub := newTestManager(t)
		s := m.Open(ctx, "sess-1")

		receipt, err := s.Checkout(ctx)
		assert.Nil(t, receipt)
		require.ErrorIs(t, err, cart.ErrCartEmpty)
		assert.Equal(t, 0, st.writeCount())
		assert.Empty(t, pub.types())
	})

	t.Run("successful checkout clears the cart", func(t *testing.T) {
		m, st, pub := newTestManager(t, WithClock(func() time.Time { return placed }))
		s := m.Open(ctx, "sess-1")
		_, err := s.AddItem(ctx, sneaker())
		require.NoError(t, err)
		_, err = s.AddItem(ctx, sneaker())
		require.NoError(t, err)

		receipt, err := s.Checkout(ctx)
		require.NoError(t, err)

		assert.Regexp(t, `^TS-[0-9A-F]{10}$`, receipt.OrderRef)
		assert.Equal(t, placed, receipt.PlacedAt)
		assert.Equal(t, 2, receipt.Summary.ItemCount)
		assert.Equal(t, "45.97", receipt.Summary.Total.Fixed())
		require.Len(t, receipt.Items, 1)

		assert.True(t, s.Cart().IsEmpty())
		_, ok := st.raw("trendstepCart:sess-1")
		assert.False(t, ok)

		done := pub.events[len(pub.events)-1].(*cart.CheckoutCompletedEvent)
		assert.Equal(t, receipt.OrderRef, done.OrderRef)
	})

	t.Run("checkout is logged", func(t *testing.T) {
		core, logs := observer.New(zap.InfoLevel)
		m, _, _ := newTestManager(t, WithLogger(zap.New(core)))
		s := m.Open(ctx, "sess-9")
		_, err := s.AddItem(ctx, boot())
		require.NoError(t, err)

		receipt, err := s.Checkout(ctx)
		require.NoError(t, err)

		entries := logs.FilterMessage("checkout completed").All()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, receipt.OrderRef, fields["order_ref"])
		assert.Equal(t, "sess-9", fields["session_id"])
		assert.Equal(t, "15.99", fields["total"])
	})
}

func TestStore_StorageFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("load falls back to empty", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		m, st, _ := newTestManager(t, WithLogger(zap.New(core)))
		st.failGet = true

		s := m.Open(ctx, "sess-1")
		assert.True(t, s.Cart().IsEmpty())
		assert.Equal(t, 1, logs.FilterMessage("cart storage read failed, using empty cart").Len())
	})

	t.Run("failed write keeps the previous cart", func(t *testing.T) {
		m, st, pub := newTestManager(t)
		s := m.Open(ctx, "sess-1")
		_, err := s.AddItem(ctx, sneaker())
		require.NoError(t, err)

		st.failSet = true
		c, err := s.AddItem(ctx, boot())
		require.Error(t, err)
		assert.True(t, IsStorageError(err))
		assert.ErrorIs(t, err, errBackendDown)
		assert.Equal(t, 1, c.Len())
		assert.Equal(t, 1, s.Cart().Len())
		assert.Len(t, pub.types(), 1)
	})

	t.Run("read failure during mutation does not wipe the cart", func(t *testing.T) {
		m, st, _ := newTestManager(t)
		s := m.Open(ctx, "sess-1")
		_, err := s.AddItem(ctx, sneaker())
		require.NoError(t, err)
		writes := st.writeCount()

		st.failGet = true
		_, err = s.Increase(ctx, "p1")
		require.Error(t, err)
		assert.True(t, IsStorageError(err))
		assert.Equal(t, writes, st.writeCount())

		st.failGet = false
		reopened := m.Open(ctx, "sess-1")
		it, _ := reopened.Cart().Find("p1")
		assert.Equal(t, 1, it.Quantity)
	})

	t.Run("checkout failure keeps the cart", func(t *testing.T) {
		m, st, _ := newTestManager(t)
		s := m.Open(ctx, "sess-1")
		_, err := s.AddItem(ctx, sneaker())
		require.NoError(t, err)

		st.failDel = true
		receipt, err := s.Checkout(ctx)
		assert.Nil(t, receipt)
		assert.True(t, IsStorageError(err))

		_, ok := st.raw("trendstepCart:sess-1")
		assert.True(t, ok)
	})

	t.Run("clear still removes the entry when the read fails", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		m, st, pub := newTestManager(t, WithLogger(zap.New(core)))
		s := m.Open(ctx, "sess-1")
		_, err := s.AddItem(ctx, sneaker())
		require.NoError(t, err)

		st.failGet = true
		c, err := s.Clear(ctx)
		require.NoError(t, err)
		assert.True(t, c.IsEmpty())

		_, ok := st.raw("trendstepCart:sess-1")
		assert.False(t, ok)
		assert.Equal(t, 1, logs.FilterMessage("cart storage read failed before clear, counting cached lines").Len())

		cleared := pub.events[len(pub.events)-1].(*cart.ClearedEvent)
		assert.Equal(t, 1, cleared.Lines)
	})

	t.Run("clear failure is reported", func(t *testing.T) {
		m, st, _ := newTestManager(t)
		s := m.Open(ctx, "sess-1")
		st.failDel = true

		_, err := s.Clear(ctx)
		assert.True(t, IsStorageError(err))
	})
}

func TestStore_MalformedEntryIsIgnored(t *testing.T) {
	ctx := context.Background()
	m, st, _ := newTestManager(t)
	st.data["trendstepCart:sess-1"] = "{not json"

	s := m.Open(ctx, "sess-1")
	assert.True(t, s.Cart().IsEmpty())

	c, err := s.AddItem(ctx, sneaker())
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestStore_PublishErrorIsNotReturned(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.WarnLevel)
	m, _, pub := newTestManager(t, WithLogger(zap.New(core)))
	pub.err = errors.New("bus stopped")

	s := m.Open(ctx, "sess-1")
	_, err := s.AddItem(ctx, sneaker())
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("failed to publish cart events").Len())
}
