// Package tui is a terminal storefront over the same cart store the web
// storefront uses.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	appcart "github.com/trendstep/storefront/internal/application/cart"
	"github.com/trendstep/storefront/internal/application/notice"
	"github.com/trendstep/storefront/internal/domain/cart"
	"github.com/trendstep/storefront/internal/domain/catalog"
	"github.com/trendstep/storefront/internal/infrastructure/i18n"
)

// CatalogProvider returns the current product catalog
type CatalogProvider interface {
	Catalog() *catalog.Catalog
}

type pane int

const (
	paneCatalog pane = iota
	paneCart
)

type mode int

const (
	modeBrowse mode = iota
	modeEditQuantity
	modeConfirmClear
)

// Display times for notices
const (
	AddedTTL   = notice.DefaultAddedTTL
	SuccessTTL = notice.DefaultSuccessTTL
	WarningTTL = notice.DefaultWarningTTL
)

type flash struct {
	kind notice.Kind
	text string
}

// cartUpdatedMsg carries the result of a cart mutation
type cartUpdatedMsg struct {
	cart  cart.Cart
	err   error
	added string // product name when the mutation was an add
}

type checkoutMsg struct {
	receipt *appcart.Receipt
	err     error
}

// noticeExpiredMsg dismisses the notice of generation gen. A newer notice
// bumps the generation, so ticks for replaced notices are ignored.
type noticeExpiredMsg struct {
	gen int
}

// Model is the bubbletea model of the terminal storefront
type Model struct {
	ctx       context.Context
	store     *appcart.Store
	catalog   CatalogProvider
	localizer *i18n.Localizer

	cart    cart.Cart
	entries []catalog.Entry

	products table.Model
	lines    table.Model
	quantity textinput.Model
	help     help.Model
	keys     keyMap
	styles   styles

	focus pane
	mode  mode

	notice *flash
	gen    int

	width  int
	height int
}

// New builds the model for one cart store
func New(ctx context.Context, store *appcart.Store, source CatalogProvider, localizer *i18n.Localizer) Model {
	if localizer == nil {
		localizer = i18n.New("es")
	}

	products := table.New(
		table.WithColumns([]table.Column{
			{Title: "Producto", Width: 22},
			{Title: "Categoría", Width: 12},
			{Title: "Precio", Width: 10},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	lines := table.New(
		table.WithColumns([]table.Column{
			{Title: "Producto", Width: 22},
			{Title: "Precio", Width: 10},
			{Title: "Cant.", Width: 6},
			{Title: "Total", Width: 10},
		}),
		table.WithHeight(10),
	)

	qty := textinput.New()
	qty.Placeholder = "1"
	qty.CharLimit = 4
	qty.Width = 6
	qty.Prompt = "Cantidad: "

	m := Model{
		ctx:       ctx,
		store:     store,
		catalog:   source,
		localizer: localizer,
		cart:      store.Cart(),
		products:  products,
		lines:     lines,
		quantity:  qty,
		help:      help.New(),
		keys:      defaultKeyMap(),
		styles:    defaultStyles(),
	}
	m.refreshCatalog()
	m.refreshCart()
	return m
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		h := max(msg.Height-12, 3)
		m.products.SetHeight(h)
		m.lines.SetHeight(h)
		return m, nil

	case noticeExpiredMsg:
		if msg.gen == m.gen {
			m.notice = nil
		}
		return m, nil

	case cartUpdatedMsg:
		m.cart = msg.cart
		m.refreshCart()
		if msg.err != nil {
			return m.flash(notice.StorageUnavailable(), WarningTTL)
		}
		if msg.added != "" {
			return m.flash(notice.ItemAdded(msg.added), AddedTTL)
		}
		return m, nil

	case checkoutMsg:
		return m.checkedOut(msg)

	case tea.KeyMsg:
		switch m.mode {
		case modeEditQuantity:
			return m.updateEdit(msg)
		case modeConfirmClear:
			return m.updateConfirm(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Switch):
		m.setFocus(1 - m.focus)
		return m, nil

	case key.Matches(msg, m.keys.Add):
		entry, ok := m.selectedEntry()
		if !ok {
			return m, nil
		}
		return m, m.mutate(func(ctx context.Context) (cart.Cart, error) {
			return m.store.AddItem(ctx, entry.Product.Candidate())
		}, entry.Product.Name)

	case key.Matches(msg, m.keys.Checkout):
		return m, m.checkout()

	case key.Matches(msg, m.keys.Clear):
		if !m.cart.IsEmpty() {
			m.mode = modeConfirmClear
		}
		return m, nil
	}

	id, ok := m.selectedLine()
	switch {
	case !ok:
	case key.Matches(msg, m.keys.Increase):
		return m, m.mutate(func(ctx context.Context) (cart.Cart, error) {
			return m.store.Increase(ctx, id)
		}, "")

	case key.Matches(msg, m.keys.Decrease):
		return m, m.mutate(func(ctx context.Context) (cart.Cart, error) {
			return m.store.Decrease(ctx, id)
		}, "")

	case key.Matches(msg, m.keys.Remove):
		return m, m.mutate(func(ctx context.Context) (cart.Cart, error) {
			return m.store.RemoveItem(ctx, id)
		}, "")

	case key.Matches(msg, m.keys.Edit):
		item, _ := m.cart.Find(id)
		m.mode = modeEditQuantity
		m.quantity.SetValue(strconv.Itoa(item.Quantity))
		m.quantity.CursorEnd()
		return m, m.quantity.Focus()
	}

	var cmd tea.Cmd
	if m.focus == paneCatalog {
		m.products, cmd = m.products.Update(msg)
	} else {
		m.lines, cmd = m.lines.Update(msg)
	}
	return m, cmd
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.mode = modeBrowse
		m.quantity.Blur()
		return m, nil

	case msg.Type == tea.KeyEnter:
		m.mode = modeBrowse
		m.quantity.Blur()
		id, ok := m.selectedLine()
		if !ok {
			return m, nil
		}
		q := cart.ParseQuantity(m.quantity.Value())
		return m, m.mutate(func(ctx context.Context) (cart.Cart, error) {
			return m.store.SetQuantity(ctx, id, q)
		}, "")
	}

	var cmd tea.Cmd
	m.quantity, cmd = m.quantity.Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = modeBrowse
	if strings.EqualFold(msg.String(), "y") || strings.EqualFold(msg.String(), "s") {
		return m, m.mutate(m.store.Clear, "")
	}
	return m, nil
}

func (m Model) checkedOut(msg checkoutMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.err == nil:
		m.cart = cart.Empty()
		m.refreshCart()
		m.setFocus(paneCatalog)
		return m.flash(notice.PurchaseSucceeded(msg.receipt.OrderRef), SuccessTTL)
	case errors.Is(msg.err, cart.ErrCartEmpty):
		return m.flash(notice.CartEmpty(), WarningTTL)
	default:
		return m.flash(notice.StorageUnavailable(), WarningTTL)
	}
}

// flash shows n and schedules its dismissal
func (m Model) flash(n notice.Notice, ttl time.Duration) (tea.Model, tea.Cmd) {
	m.gen++
	m.notice = &flash{kind: n.Kind, text: n.Text()}
	gen := m.gen
	return m, tea.Tick(ttl, func(time.Time) tea.Msg {
		return noticeExpiredMsg{gen: gen}
	})
}

func (m Model) mutate(op func(context.Context) (cart.Cart, error), added string) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		c, err := op(ctx)
		if err != nil {
			added = ""
		}
		return cartUpdatedMsg{cart: c, err: err, added: added}
	}
}

func (m Model) checkout() tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		receipt, err := store.Checkout(ctx)
		return checkoutMsg{receipt: receipt, err: err}
	}
}

func (m *Model) setFocus(p pane) {
	m.focus = p
	if p == paneCatalog {
		m.products.Focus()
		m.lines.Blur()
	} else {
		m.lines.Focus()
		m.products.Blur()
	}
}

func (m *Model) refreshCatalog() {
	m.entries = m.catalog.Catalog().Entries()
	rows := make([]table.Row, 0, len(m.entries))
	for _, e := range m.entries {
		rows = append(rows, table.Row{e.Product.Name, e.Product.Category, e.Product.Price.Display()})
	}
	m.products.SetRows(rows)
}

func (m *Model) refreshCart() {
	items := m.cart.Items()
	rows := make([]table.Row, 0, len(items))
	for _, it := range items {
		rows = append(rows, table.Row{it.Name, it.UnitPrice.Display(), strconv.Itoa(it.Quantity), it.LineTotal().Display()})
	}
	m.lines.SetRows(rows)
	if c := m.lines.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.lines.SetCursor(len(rows) - 1)
	}
}

func (m Model) selectedEntry() (catalog.Entry, bool) {
	if m.focus != paneCatalog {
		return catalog.Entry{}, false
	}
	i := m.products.Cursor()
	if i < 0 || i >= len(m.entries) {
		return catalog.Entry{}, false
	}
	return m.entries[i], true
}

func (m Model) selectedLine() (string, bool) {
	if m.focus != paneCart {
		return "", false
	}
	items := m.cart.Items()
	i := m.lines.Cursor()
	if i < 0 || i >= len(items) {
		return "", false
	}
	return items[i].ID, true
}

// View implements tea.Model
func (m Model) View() string {
	var b strings.Builder

	header := m.styles.Title.Render("TrendStep")
	if n := m.cart.ItemCount(); n > 0 {
		header += " " + m.styles.Badge.Render(strconv.Itoa(n))
	}
	b.WriteString(header + "\n")

	if m.notice != nil {
		b.WriteString(m.styles.notice(m.notice.kind).Render(m.notice.text))
	}
	b.WriteString("\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		m.pane(paneCatalog, "Catálogo", m.products.View()),
		m.pane(paneCart, "Carrito", m.cartView()),
	))
	b.WriteString("\n")
	b.WriteString(m.summaryView())
	b.WriteString("\n")

	switch m.mode {
	case modeEditQuantity:
		b.WriteString(m.quantity.View() + m.styles.Muted.Render("  enter confirma · esc cancela"))
	case modeConfirmClear:
		b.WriteString(m.styles.Prompt.Render("¿Estás seguro de que quieres vaciar el carrito? (y/n)"))
	default:
		b.WriteString(m.help.View(m.keys))
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) pane(p pane, title, body string) string {
	style := m.styles.Pane
	if m.focus == p {
		style = m.styles.FocusedPane
	}
	return style.Render(m.styles.PaneTitle.Render(title) + "\n" + body)
}

func (m Model) cartView() string {
	if m.cart.IsEmpty() {
		return m.styles.Muted.Render("Tu carrito está vacío")
	}
	return m.lines.View()
}

func (m Model) summaryView() string {
	s := m.store.Summary()
	return m.styles.Summary.Render(fmt.Sprintf("%s · Subtotal %s · Envío %s · ",
		m.localizer.ItemCount(s.ItemCount), s.Subtotal.Display(), s.Shipping.Display())) +
		m.styles.Total.Render("Total "+s.Total.Display())
}
