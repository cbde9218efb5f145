// Package testutil provides common test utilities for the storefront.
// It contains helpers for building carts and catalogs, driving the HTTP
// surface with a cookie-aware client and recording domain events.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	appcart "github.com/trendstep/storefront/internal/application/cart"
	"github.com/trendstep/storefront/internal/domain/cart"
	"github.com/trendstep/storefront/internal/domain/shared/valueobject"
	"github.com/trendstep/storefront/internal/infrastructure/catalogfile"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Money parses a decimal literal such as "19.99"
func Money(s string) valueobject.Money {
	return valueobject.MustNewMoney(decimal.RequireFromString(s))
}

// Item builds an add candidate with quantity 1
func Item(id, name, price string) cart.Item {
	return cart.Item{
		ID:        id,
		Name:      name,
		UnitPrice: Money(price),
		Category:  cart.UnknownCategory,
		Quantity:  1,
	}
}

// Catalog returns the built-in catalog as a fixed source
func Catalog() *catalogfile.Source {
	return catalogfile.Static(catalogfile.Default())
}

// OpenStore opens the cart of sessionID through a fresh manager over st
func OpenStore(t *testing.T, st cart.Storage, sessionID string, opts ...appcart.ManagerOption) *appcart.Store {
	t.Helper()
	ctx, cancel := ContextWithTimeout(t, 10*time.Second)
	defer cancel()
	return appcart.NewManager(st, opts...).Open(ctx, sessionID)
}

// RequireTotal asserts the summary total of a store's current cart
func RequireTotal(t *testing.T, store *appcart.Store, want string) {
	t.Helper()
	got := store.Summary().Total
	require.True(t, got.Equals(Money(want)), "total: want %s, got %s", want, got.Fixed())
}

// ContextWithTimeout creates a context with a timeout for tests.
func ContextWithTimeout(t *testing.T, timeout time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), timeout)
}

// AssertNever verifies a condition never becomes true within the duration.
func AssertNever(t *testing.T, condition func() bool, duration, interval time.Duration, msgAndArgs ...any) {
	t.Helper()

	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if condition() {
			t.Fatalf("Condition unexpectedly became true: %v", msgAndArgs)
		}
		time.Sleep(interval)
	}
}
