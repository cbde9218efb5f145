package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appcart "github.com/trendstep/storefront/internal/application/cart"
	"github.com/trendstep/storefront/internal/application/notice"
	"github.com/trendstep/storefront/internal/domain/cart"
	"github.com/trendstep/storefront/internal/domain/catalog"
	"github.com/trendstep/storefront/internal/infrastructure/logger"
	"github.com/trendstep/storefront/internal/interfaces/http/middleware"
)

// Storefront page paths
const (
	PathHome = "/"
	PathCart = "/carrito"

	checkoutSuccessParam = "checkout_success"
)

// StorefrontHandler serves the HTML storefront. Every page drains the
// session's pending notices, so a notice is rendered once and its timer is
// cancelled when the shopper navigates.
type StorefrontHandler struct {
	carts   *appcart.Manager
	catalog CatalogProvider
	board   *notice.Board
	notices *notice.EventHandler
}

// NewStorefrontHandler creates the storefront handler. notices posts the
// warnings raised by form actions on board.
func NewStorefrontHandler(carts *appcart.Manager, catalog CatalogProvider, board *notice.Board, notices *notice.EventHandler) *StorefrontHandler {
	return &StorefrontHandler{carts: carts, catalog: catalog, board: board, notices: notices}
}

// RegisterRoutes mounts the storefront routes
func (h *StorefrontHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET(PathHome, h.Home)
	r.GET(PathCart, h.CartPage)
	r.POST("/cart/add", h.Add)
	r.POST("/cart/items/:id/increase", h.Increase)
	r.POST("/cart/items/:id/decrease", h.Decrease)
	r.POST("/cart/items/:id/quantity", h.SetQuantity)
	r.POST("/cart/items/:id/remove", h.Remove)
	r.POST("/cart/clear", h.Clear)
	r.POST("/cart/checkout", h.Checkout)
}

type pageData struct {
	Title              string
	Count              int
	Notices            []notice.Notice
	Categories         []catalog.Category
	Items              []cart.Item
	Summary            cart.Summary
	StripCheckoutParam bool
}

func (h *StorefrontHandler) store(c *gin.Context) *appcart.Store {
	return h.carts.Open(c.Request.Context(), middleware.GetSessionID(c))
}

// Home renders the catalog grouped by category
func (h *StorefrontHandler) Home(c *gin.Context) {
	ct := h.store(c).Cart()
	c.HTML(http.StatusOK, "index.html", pageData{
		Title:      "Tienda",
		Count:      ct.ItemCount(),
		Notices:    h.board.Drain(middleware.GetSessionID(c)),
		Categories: h.catalog.Catalog().Categories(),
	})
}

// CartPage renders the cart table and the order summary. After a checkout
// the page shows the purchase notice once and asks the browser to drop the
// query parameter, so a reload does not show it again.
func (h *StorefrontHandler) CartPage(c *gin.Context) {
	sid := middleware.GetSessionID(c)
	ct := h.store(c).Cart()
	notices := h.board.Drain(sid)

	justPaid := c.Query(checkoutSuccessParam) == "true"
	if justPaid && !hasPurchaseNotice(notices) {
		n := notice.PurchaseSucceeded("")
		n.TTL = notice.DefaultSuccessTTL
		notices = append(notices, n)
	}

	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, "cart.html", pageData{
		Title:              "Carrito",
		Count:              ct.ItemCount(),
		Notices:            notices,
		Items:              ct.Items(),
		Summary:            cart.ComputeSummary(ct, h.carts.ShippingFee()),
		StripCheckoutParam: justPaid,
	})
}

func hasPurchaseNotice(ns []notice.Notice) bool {
	want := notice.PurchaseSucceeded("").Title
	for _, n := range ns {
		if n.Kind == notice.KindSuccess && n.Title == want {
			return true
		}
	}
	return false
}

// Add puts a catalog card in the cart and returns to the page it came from
func (h *StorefrontHandler) Add(c *gin.Context) {
	sid := middleware.GetSessionID(c)
	p, err := h.catalog.Catalog().Lookup(c.PostForm("product"))
	if err != nil {
		h.notices.Warn(sid, notice.ProductUnavailable())
		h.redirect(c, backTo(c))
		return
	}
	_, err = h.store(c).AddItem(c.Request.Context(), p.Candidate())
	h.after(c, err, backTo(c))
}

// Increase adds one unit to a line
func (h *StorefrontHandler) Increase(c *gin.Context) {
	_, err := h.store(c).Increase(c.Request.Context(), c.Param("id"))
	h.after(c, err, PathCart)
}

// Decrease removes one unit from a line
func (h *StorefrontHandler) Decrease(c *gin.Context) {
	_, err := h.store(c).Decrease(c.Request.Context(), c.Param("id"))
	h.after(c, err, PathCart)
}

// SetQuantity applies a typed quantity. Anything that is not a positive
// integer becomes 1.
func (h *StorefrontHandler) SetQuantity(c *gin.Context) {
	_, err := h.store(c).SetQuantity(c.Request.Context(), c.Param("id"), cart.ParseQuantity(c.PostForm("quantity")))
	h.after(c, err, PathCart)
}

// Remove deletes a line
func (h *StorefrontHandler) Remove(c *gin.Context) {
	_, err := h.store(c).RemoveItem(c.Request.Context(), c.Param("id"))
	h.after(c, err, PathCart)
}

// Clear empties the cart once the shopper confirmed with confirm=yes
func (h *StorefrontHandler) Clear(c *gin.Context) {
	if c.PostForm("confirm") != "yes" {
		h.redirect(c, PathCart)
		return
	}
	_, err := h.store(c).Clear(c.Request.Context())
	h.after(c, err, PathCart)
}

// Checkout completes the purchase and sends the shopper to the success view.
// An empty cart only gets a warning.
func (h *StorefrontHandler) Checkout(c *gin.Context) {
	sid := middleware.GetSessionID(c)
	_, err := h.store(c).Checkout(c.Request.Context())
	switch {
	case err == nil:
		h.redirect(c, PathCart+"?"+checkoutSuccessParam+"=true")
	case errors.Is(err, cart.ErrCartEmpty):
		h.notices.Warn(sid, notice.CartEmpty())
		h.redirect(c, PathCart)
	default:
		h.after(c, err, PathCart)
	}
}

// after redirects to target, first posting a notice when the change could not be saved
func (h *StorefrontHandler) after(c *gin.Context, err error, target string) {
	if err != nil {
		logger.GetGinLogger(c).Warn("storefront action failed", zap.Error(err))
		h.notices.Warn(middleware.GetSessionID(c), notice.StorageUnavailable())
	}
	h.redirect(c, target)
}

func (h *StorefrontHandler) redirect(c *gin.Context, target string) {
	c.Redirect(http.StatusSeeOther, target)
}

// backTo returns the local page a form was posted from
func backTo(c *gin.Context) string {
	ref, err := url.Parse(c.GetHeader("Referer"))
	if err != nil || ref.Path == "" || !strings.HasPrefix(ref.Path, "/") || strings.HasPrefix(ref.Path, "//") {
		return PathHome
	}
	if ref.Host != "" && ref.Host != c.Request.Host {
		return PathHome
	}
	return ref.Path
}
