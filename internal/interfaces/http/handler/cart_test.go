package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendstep/storefront/internal/domain/cart"
	"github.com/trendstep/storefront/internal/interfaces/http/dto"
)

type fakePrinter struct {
	err    error
	called int
}

func (p *fakePrinter) Print(_ context.Context, orderRef string, _ time.Time, _ []cart.Item, _ cart.Summary) ([]byte, error) {
	p.called++
	if p.err != nil {
		return nil, p.err
	}
	return []byte("%PDF-1.4 " + orderRef), nil
}

func TestCartHandler_AddItem(t *testing.T) {
	t.Run("catalog product twice", func(t *testing.T) {
		app := newTestApp(t)

		w := app.json(http.MethodPost, "/api/v1/cart/items", `{"product_id":"p1"}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		w = app.json(http.MethodPost, "/api/v1/cart/items", `{"product_id":"p1"}`)
		require.Equal(t, http.StatusCreated, w.Code)

		var got dto.CartResponse
		resp := decode(t, w, &got)
		assert.True(t, resp.Success)
		require.Len(t, got.Items, 1)
		assert.Equal(t, 2, got.Items[0].Quantity)
		assert.Equal(t, "39.98", got.Items[0].LineTotal)
		assert.Equal(t, "39.98", got.Summary.Subtotal)
		assert.Equal(t, "5.99", got.Summary.Shipping)
		assert.Equal(t, "45.97", got.Summary.Total)
		assert.Equal(t, 2, got.Summary.ItemCount)
	})

	t.Run("inline product gets an id", func(t *testing.T) {
		app := newTestApp(t)

		w := app.json(http.MethodPost, "/api/v1/cart/items", `{"name":"Trail Sock","price":"$4.50","category":"Accesorios"}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var got dto.CartResponse
		decode(t, w, &got)
		require.Len(t, got.Items, 1)
		assert.NotEmpty(t, got.Items[0].ID)
		assert.Equal(t, "4.50", got.Items[0].UnitPrice)
		assert.Equal(t, "10.49", got.Summary.Total)
	})

	t.Run("unknown product", func(t *testing.T) {
		app := newTestApp(t)

		w := app.json(http.MethodPost, "/api/v1/cart/items", `{"product_id":"nope"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
		resp := decode(t, w, nil)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeProductNotFound, resp.Error.Code)
	})

	t.Run("validation", func(t *testing.T) {
		app := newTestApp(t)

		w := app.json(http.MethodPost, "/api/v1/cart/items", `{"name":"Trail Sock","price":"-3"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode(t, w, nil)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)

		w = app.json(http.MethodPost, "/api/v1/cart/items", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("storage failure", func(t *testing.T) {
		app := newTestApp(t, withStorage(failingStorage{}))

		w := app.json(http.MethodPost, "/api/v1/cart/items", `{"product_id":"p1"}`)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		resp := decode(t, w, nil)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeStorageUnavailable, resp.Error.Code)
		assert.NotContains(t, w.Body.String(), errBackendDown.Error())
	})
}

func TestCartHandler_Quantities(t *testing.T) {
	app := newTestApp(t)
	app.json(http.MethodPost, "/api/v1/cart/items", `{"product_id":"p2"}`)

	lineQty := func(body string) int {
		t.Helper()
		w := app.json(http.MethodGet, "/api/v1/cart", "")
		require.Equal(t, http.StatusOK, w.Code)
		var got dto.CartResponse
		decode(t, w, &got)
		require.Len(t, got.Items, 1, body)
		return got.Items[0].Quantity
	}

	w := app.json(http.MethodPut, "/api/v1/cart/items/p2", `{"quantity":4}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4, lineQty("set 4"))

	app.json(http.MethodPost, "/api/v1/cart/items/p2/increase", "")
	assert.Equal(t, 5, lineQty("increase"))

	app.json(http.MethodPost, "/api/v1/cart/items/p2/decrease", "")
	assert.Equal(t, 4, lineQty("decrease"))

	app.json(http.MethodPut, "/api/v1/cart/items/p2", `{"quantity":0}`)
	assert.Equal(t, 1, lineQty("zero clamps to one"))

	app.json(http.MethodPost, "/api/v1/cart/items/p2/decrease", "")
	assert.Equal(t, 1, lineQty("never below one"))

	w = app.json(http.MethodPost, "/api/v1/cart/items/ghost/increase", "")
	assert.Equal(t, http.StatusOK, w.Code, "unknown ids leave the cart unchanged")
	assert.Equal(t, 1, lineQty("unchanged"))

	w = app.json(http.MethodGet, "/api/v1/cart/count", "")
	var count dto.CountResponse
	decode(t, w, &count)
	assert.Equal(t, 1, count.Count)

	w = app.json(http.MethodDelete, "/api/v1/cart/items/p2", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got dto.CartResponse
	decode(t, w, &got)
	assert.Empty(t, got.Items)
	assert.Equal(t, "0.00", got.Summary.Total)
}

func TestCartHandler_Summary(t *testing.T) {
	app := newTestApp(t)
	app.json(http.MethodPost, "/api/v1/cart/items", `{"product_id":"p1"}`)
	app.json(http.MethodPost, "/api/v1/cart/items", `{"product_id":"p3"}`)

	w := app.json(http.MethodGet, "/api/v1/cart/summary", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got dto.SummaryResponse
	decode(t, w, &got)
	assert.Equal(t, 2, got.ItemCount)
	assert.Equal(t, "2 productos", got.Label)
	assert.Equal(t, "69.89", got.Subtotal)
	assert.Equal(t, "75.88", got.Total)
}

func TestCartHandler_SessionsAreIsolated(t *testing.T) {
	app := newTestApp(t)
	app.json(http.MethodPost, "/api/v1/cart/items", `{"product_id":"p1"}`)

	w := app.do(http.MethodGet, "/api/v1/cart/count", nil, map[string]string{testSessionHeader: "other"})
	var count dto.CountResponse
	decode(t, w, &count)
	assert.Equal(t, 0, count.Count)
}

func TestCartHandler_Clear(t *testing.T) {
	app := newTestApp(t)
	app.json(http.MethodPost, "/api/v1/cart/items", `{"product_id":"p1"}`)

	w := app.json(http.MethodDelete, "/api/v1/cart", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got dto.CartResponse
	decode(t, w, &got)
	assert.Empty(t, got.Items)
}

func TestCartHandler_Checkout(t *testing.T) {
	t.Run("empty cart", func(t *testing.T) {
		app := newTestApp(t)

		w := app.json(http.MethodPost, "/api/v1/cart/checkout", "")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		resp := decode(t, w, nil)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeCartEmpty, resp.Error.Code)
	})

	t.Run("json receipt empties the cart", func(t *testing.T) {
		app := newTestApp(t)
		app.json(http.MethodPost, "/api/v1/cart/items", `{"product_id":"p1"}`)

		w := app.json(http.MethodPost, "/api/v1/cart/checkout", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var got dto.CheckoutResponse
		decode(t, w, &got)
		assert.NotEmpty(t, got.OrderRef)
		assert.Len(t, got.Items, 1)
		assert.Equal(t, "25.98", got.Summary.Total)

		w = app.json(http.MethodGet, "/api/v1/cart/count", "")
		var count dto.CountResponse
		decode(t, w, &count)
		assert.Equal(t, 0, count.Count)
	})

	t.Run("pdf receipt", func(t *testing.T) {
		printer := &fakePrinter{}
		app := newTestApp(t, withCartOptions(WithReceiptPrinter(printer)))
		app.json(http.MethodPost, "/api/v1/cart/items", `{"product_id":"p1"}`)

		w := app.do(http.MethodPost, "/api/v1/cart/checkout", nil, map[string]string{"Accept": "application/pdf"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), ".pdf")
		assert.Contains(t, w.Body.String(), "%PDF-1.4")
		assert.Equal(t, 1, printer.called)
	})

	t.Run("printer failure falls back to json", func(t *testing.T) {
		printer := &fakePrinter{err: errors.New("no browser")}
		app := newTestApp(t, withCartOptions(WithReceiptPrinter(printer)))
		app.json(http.MethodPost, "/api/v1/cart/items", `{"product_id":"p1"}`)

		w := app.do(http.MethodPost, "/api/v1/cart/checkout", nil, map[string]string{"Accept": "application/pdf"})
		require.Equal(t, http.StatusOK, w.Code)
		var got dto.CheckoutResponse
		decode(t, w, &got)
		assert.NotEmpty(t, got.OrderRef)
	})

	t.Run("json clients skip the printer", func(t *testing.T) {
		printer := &fakePrinter{}
		app := newTestApp(t, withCartOptions(WithReceiptPrinter(printer)))
		app.json(http.MethodPost, "/api/v1/cart/items", `{"product_id":"p1"}`)

		w := app.do(http.MethodPost, "/api/v1/cart/checkout", nil, map[string]string{"Accept": "application/json"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Zero(t, printer.called)
	})
}

func TestCartHandler_ListProducts(t *testing.T) {
	app := newTestApp(t)

	w := app.json(http.MethodGet, "/api/v1/products", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got []dto.ProductResponse
	decode(t, w, &got)
	assert.Len(t, got, 6)
}
