package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcart "github.com/trendstep/storefront/internal/application/cart"
	"github.com/trendstep/storefront/internal/application/notice"
	"github.com/trendstep/storefront/internal/infrastructure/catalogfile"
	"github.com/trendstep/storefront/internal/infrastructure/storage"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	carts := appcart.NewManager(storage.NewMemoryStore(0))
	store := carts.Open(context.Background(), "tui")
	return New(context.Background(), store, catalogfile.Static(catalogfile.Default()), nil)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press feeds msg and, when the model answers with a cart command, runs it
// and feeds its result back. Tick commands are returned unexecuted.
func press(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd == nil {
		return m, nil
	}
	if _, isKey := msg.(tea.KeyMsg); !isKey {
		return m, cmd
	}
	switch result := cmd().(type) {
	case cartUpdatedMsg, checkoutMsg:
		next, cmd = m.Update(result)
		return next.(Model), cmd
	default:
		return m, cmd
	}
}

func TestModel_AddFromCatalog(t *testing.T) {
	m := newTestModel(t)

	m, tick := press(t, m, runes("a"))
	require.NotNil(t, tick, "the notice schedules its dismissal")
	require.NotNil(t, m.notice)
	assert.Equal(t, notice.KindSuccess, m.notice.kind)
	assert.Contains(t, m.notice.text, "Runner Pro ha sido añadido al carrito")
	assert.Equal(t, 1, m.cart.ItemCount())

	m, _ = press(t, m, runes("a"))
	assert.Equal(t, 2, m.cart.ItemCount())
	assert.Len(t, m.cart.Items(), 1)

	view := m.View()
	assert.Contains(t, view, "Runner Pro")
	assert.Contains(t, view, "$45.97")
}

func TestModel_NoticeExpiry(t *testing.T) {
	m := newTestModel(t)

	m, _ = press(t, m, runes("a"))
	first := m.gen
	m, _ = press(t, m, runes("a"))
	require.Greater(t, m.gen, first)

	m, _ = press(t, m, noticeExpiredMsg{gen: first})
	assert.NotNil(t, m.notice, "a stale tick does not dismiss the newer notice")

	m, _ = press(t, m, noticeExpiredMsg{gen: m.gen})
	assert.Nil(t, m.notice)
}

func TestModel_CartLineKeys(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, runes("a"))

	m, _ = press(t, m, runes("+"))
	assert.Equal(t, 1, m.cart.ItemCount(), "line keys need the cart pane")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, paneCart, m.focus)

	m, _ = press(t, m, runes("+"))
	assert.Equal(t, 2, m.cart.ItemCount())

	m, _ = press(t, m, runes("-"))
	m, _ = press(t, m, runes("-"))
	assert.Equal(t, 1, m.cart.ItemCount(), "never below one")

	m, _ = press(t, m, runes("e"))
	require.Equal(t, modeEditQuantity, m.mode)
	m.quantity.SetValue("6")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, modeBrowse, m.mode)
	assert.Equal(t, 6, m.cart.ItemCount())

	m, _ = press(t, m, runes("e"))
	m.quantity.SetValue("2.5")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, 2, m.cart.ItemCount(), "the leading integer is kept")

	m, _ = press(t, m, runes("d"))
	assert.True(t, m.cart.IsEmpty())
	assert.Contains(t, m.View(), "Tu carrito está vacío")
}

func TestModel_ClearNeedsConfirmation(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, runes("a"))

	m, _ = press(t, m, runes("C"))
	require.Equal(t, modeConfirmClear, m.mode)
	assert.Contains(t, m.View(), "vaciar el carrito")

	m, _ = press(t, m, runes("n"))
	assert.Equal(t, modeBrowse, m.mode)
	assert.Equal(t, 1, m.cart.ItemCount())

	m, _ = press(t, m, runes("C"))
	m, _ = press(t, m, runes("y"))
	assert.True(t, m.cart.IsEmpty())
}

func TestModel_Checkout(t *testing.T) {
	t.Run("empty cart warns", func(t *testing.T) {
		m := newTestModel(t)

		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
		require.NotNil(t, m.notice)
		assert.Equal(t, notice.KindWarning, m.notice.kind)
		assert.Contains(t, m.notice.text, "Tu carrito está vacío")
	})

	t.Run("purchase empties the cart", func(t *testing.T) {
		m := newTestModel(t)
		m, _ = press(t, m, runes("a"))

		m, tick := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
		require.NotNil(t, tick)
		require.NotNil(t, m.notice)
		assert.Contains(t, m.notice.text, "¡Compra exitosa!")
		assert.True(t, m.cart.IsEmpty())
		assert.True(t, m.store.Cart().IsEmpty())
	})
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

