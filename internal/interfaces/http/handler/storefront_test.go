package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorefront_Home(t *testing.T) {
	app := newTestApp(t)

	w := app.page("/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Runner Pro")
	assert.Contains(t, body, "Outdoor")
	assert.Contains(t, body, `class="badge" hidden>0</span>`)
}

func TestStorefront_AddShowsNoticeOnce(t *testing.T) {
	app := newTestApp(t)

	w := app.form("/cart/add", url.Values{"product": {"p1"}}, map[string]string{"Referer": "http://example.com/"})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	body := app.page("/").Body.String()
	assert.Contains(t, body, "Runner Pro ha sido añadido al carrito")
	assert.Contains(t, body, `class="badge">1</span>`)
	assert.Contains(t, body, `data-ttl="3000"`)

	body = app.page("/").Body.String()
	assert.NotContains(t, body, "ha sido añadido", "drained notices are not rendered again")
	assert.Zero(t, app.board.Len())
}

func TestStorefront_AddRedirects(t *testing.T) {
	app := newTestApp(t)

	w := app.form("/cart/add", url.Values{"product": {"p1"}}, map[string]string{"Referer": "http://evil.test/phish"})
	assert.Equal(t, "/", w.Header().Get("Location"), "foreign referers go home")

	w = app.form("/cart/add", url.Values{"product": {"p1"}}, map[string]string{"Referer": "http://example.com/carrito"})
	assert.Equal(t, "/carrito", w.Header().Get("Location"))

	w = app.form("/cart/add", url.Values{"product": {"gone"}}, nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, app.page("/").Body.String(), "Este producto ya no está disponible.")
}

func TestStorefront_CartPage(t *testing.T) {
	app := newTestApp(t)

	body := app.page("/carrito").Body.String()
	assert.Contains(t, body, "Tu carrito está vacío")

	app.form("/cart/add", url.Values{"product": {"p1"}}, nil)
	app.form("/cart/add", url.Values{"product": {"p1"}}, nil)

	w := app.page("/carrito")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	body = w.Body.String()
	assert.Contains(t, body, `data-item-id="p1"`)
	assert.Contains(t, body, `<dd id="summary-total">$45.97</dd>`)
	assert.NotContains(t, body, "data-strip-query")
}

func TestStorefront_LineActions(t *testing.T) {
	app := newTestApp(t)
	app.form("/cart/add", url.Values{"product": {"p3"}}, nil)

	count := func() int {
		return app.carts.Open(context.Background(), "s1").Cart().ItemCount()
	}

	w := app.form("/cart/items/p3/increase", nil, nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, PathCart, w.Header().Get("Location"))
	assert.Equal(t, 2, count())

	app.form("/cart/items/p3/decrease", nil, nil)
	assert.Equal(t, 1, count())

	app.form("/cart/items/p3/quantity", url.Values{"quantity": {"7"}}, nil)
	assert.Equal(t, 7, count())

	app.form("/cart/items/p3/quantity", url.Values{"quantity": {"2.5"}}, nil)
	assert.Equal(t, 2, count(), "the leading integer of a typed value is used")

	app.form("/cart/items/p3/quantity", url.Values{"quantity": {"abc"}}, nil)
	assert.Equal(t, 1, count())

	app.form("/cart/items/p3/remove", nil, nil)
	assert.Equal(t, 0, count())
}

func TestStorefront_Clear(t *testing.T) {
	app := newTestApp(t)
	app.form("/cart/add", url.Values{"product": {"p1"}}, nil)

	w := app.form("/cart/clear", nil, nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, app.page("/carrito").Body.String(), `data-item-id="p1"`, "unconfirmed clear keeps the cart")

	app.form("/cart/clear", url.Values{"confirm": {"yes"}}, nil)
	assert.Contains(t, app.page("/carrito").Body.String(), "Tu carrito está vacío")
}

func TestStorefront_Checkout(t *testing.T) {
	t.Run("empty cart warns", func(t *testing.T) {
		app := newTestApp(t)

		w := app.form("/cart/checkout", nil, nil)
		require.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, PathCart, w.Header().Get("Location"))

		body := app.page("/carrito").Body.String()
		assert.Contains(t, body, "Agrega productos antes de proceder al pago")
		assert.NotContains(t, body, "¡Compra exitosa!")
	})

	t.Run("success shows the purchase notice once", func(t *testing.T) {
		app := newTestApp(t)
		app.form("/cart/add", url.Values{"product": {"p1"}}, nil)
		app.page("/")

		w := app.form("/cart/checkout", nil, nil)
		require.Equal(t, http.StatusSeeOther, w.Code)
		target := w.Header().Get("Location")
		assert.Equal(t, "/carrito?checkout_success=true", target)

		w = app.page(target)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
		body := w.Body.String()
		assert.Equal(t, 1, strings.Count(body, "¡Compra exitosa!"))
		assert.Contains(t, body, `data-strip-query="checkout_success"`)
		assert.Contains(t, body, "Tu carrito está vacío")
		assert.Contains(t, body, `data-ttl="5000"`)
	})

	t.Run("storage failure warns", func(t *testing.T) {
		app := newTestApp(t, withStorage(failingStorage{}))

		w := app.form("/cart/checkout", nil, nil)
		assert.Equal(t, PathCart, w.Header().Get("Location"))
		assert.Contains(t, app.page("/carrito").Body.String(), "No pudimos guardar tu carrito")
	})
}

