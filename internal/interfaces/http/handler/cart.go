package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appcart "github.com/trendstep/storefront/internal/application/cart"
	"github.com/trendstep/storefront/internal/domain/cart"
	"github.com/trendstep/storefront/internal/domain/catalog"
	"github.com/trendstep/storefront/internal/domain/shared"
	"github.com/trendstep/storefront/internal/domain/shared/valueobject"
	"github.com/trendstep/storefront/internal/infrastructure/i18n"
	"github.com/trendstep/storefront/internal/infrastructure/logger"
	"github.com/trendstep/storefront/internal/interfaces/http/dto"
	"github.com/trendstep/storefront/internal/interfaces/http/middleware"
)

// CatalogProvider returns the current product catalog
type CatalogProvider interface {
	Catalog() *catalog.Catalog
}

// ReceiptPrinter renders a checkout receipt as PDF
type ReceiptPrinter interface {
	Print(ctx context.Context, orderRef string, placedAt time.Time, items []cart.Item, summary cart.Summary) ([]byte, error)
}

// CartHandler serves /api/v1/cart and /api/v1/products
type CartHandler struct {
	BaseHandler
	carts     *appcart.Manager
	catalog   CatalogProvider
	localizer *i18n.Localizer
	printer   ReceiptPrinter
}

// CartHandlerOption configures a CartHandler
type CartHandlerOption func(*CartHandler)

// WithReceiptPrinter enables PDF receipts for checkout requests that accept application/pdf
func WithReceiptPrinter(p ReceiptPrinter) CartHandlerOption {
	return func(h *CartHandler) {
		h.printer = p
	}
}

// NewCartHandler creates the cart API handler
func NewCartHandler(carts *appcart.Manager, catalog CatalogProvider, localizer *i18n.Localizer, opts ...CartHandlerOption) *CartHandler {
	if localizer == nil {
		localizer = i18n.New("es")
	}
	h := &CartHandler{carts: carts, catalog: catalog, localizer: localizer}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes mounts the API routes
func (h *CartHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/products", h.ListProducts)

	g := rg.Group("/cart")
	g.GET("", h.GetCart)
	g.DELETE("", h.Clear)
	g.GET("/summary", h.GetSummary)
	g.GET("/count", h.GetCount)
	g.POST("/items", h.AddItem)
	g.PUT("/items/:id", h.SetQuantity)
	g.POST("/items/:id/increase", h.Increase)
	g.POST("/items/:id/decrease", h.Decrease)
	g.DELETE("/items/:id", h.RemoveItem)
	g.POST("/checkout", h.Checkout)
}

func (h *CartHandler) store(c *gin.Context) *appcart.Store {
	return h.carts.Open(c.Request.Context(), middleware.GetSessionID(c))
}

func (h *CartHandler) toResponse(ct cart.Cart) dto.CartResponse {
	return dto.CartResponse{
		Items:   dto.ToCartItemResponses(ct.Items()),
		Summary: h.summary(cart.ComputeSummary(ct, h.carts.ShippingFee())),
	}
}

func (h *CartHandler) summary(s cart.Summary) dto.SummaryResponse {
	return dto.ToSummaryResponse(s, h.localizer.ItemCount(s.ItemCount))
}

// ListProducts returns the catalog cards in display order
//
// @Summary      List catalog products
// @Description  Returns the product cards shown on the storefront, in catalog order
// @Tags         products
// @Produce      json
// @Success      200 {object} dto.Response{data=[]dto.ProductResponse}
// @Router       /products [get]
func (h *CartHandler) ListProducts(c *gin.Context) {
	h.Success(c, dto.ToProductResponses(h.catalog.Catalog().Entries()))
}

// GetCart returns items and summary
//
// @Summary      Get cart
// @Description  Returns the session cart lines with the order summary
// @Tags         cart
// @Produce      json
// @Success      200 {object} dto.Response{data=dto.CartResponse}
// @Router       /cart [get]
func (h *CartHandler) GetCart(c *gin.Context) {
	h.Success(c, h.toResponse(h.store(c).Cart()))
}

// GetSummary returns the order summary only
//
// @Summary      Get order summary
// @Description  Returns item count, subtotal, shipping and total
// @Tags         cart
// @Produce      json
// @Success      200 {object} dto.Response{data=dto.SummaryResponse}
// @Router       /cart/summary [get]
func (h *CartHandler) GetSummary(c *gin.Context) {
	ct := h.store(c).Cart()
	h.Success(c, h.summary(cart.ComputeSummary(ct, h.carts.ShippingFee())))
}

// GetCount returns the total number of units for the header badge
//
// @Summary      Get item count
// @Description  Returns the total number of units across all lines
// @Tags         cart
// @Produce      json
// @Success      200 {object} dto.Response{data=dto.CountResponse}
// @Router       /cart/count [get]
func (h *CartHandler) GetCount(c *gin.Context) {
	ct := h.store(c).Cart()
	h.Success(c, dto.CountResponse{Count: ct.ItemCount()})
}

// AddItem adds a catalog card by product_id, or an inline product
//
// @Summary      Add item
// @Description  Adds a catalog product by product_id, or an inline product card. A product already in the cart gains one unit.
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request body dto.AddItemRequest true "Product to add"
// @Success      201 {object} dto.Response{data=dto.CartResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(c, err)
		return
	}

	candidate, err := h.candidate(req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	ct, err := h.store(c).AddItem(c.Request.Context(), candidate)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, h.toResponse(ct))
}

func (h *CartHandler) candidate(req dto.AddItemRequest) (cart.Item, error) {
	if req.ProductID != "" {
		p, err := h.catalog.Catalog().Lookup(req.ProductID)
		if err != nil {
			return cart.Item{}, err
		}
		return p.Candidate(), nil
	}

	amount, err := valueobject.ParseAmount(req.Price)
	if err != nil {
		return cart.Item{}, shared.NewDomainError("INVALID_ITEM", "Product price is not a number")
	}
	price, err := valueobject.NewMoney(amount)
	if err != nil {
		return cart.Item{}, shared.NewDomainError("INVALID_ITEM", "Product price cannot be negative")
	}
	return catalog.Product{
		ID:       strings.TrimSpace(req.ID),
		Name:     req.Name,
		Price:    price,
		Image:    req.Image,
		Category: req.Category,
	}.Candidate(), nil
}

// SetQuantity replaces a line quantity; values below 1 become 1
//
// @Summary      Set line quantity
// @Description  Replaces the quantity of a line. Values below 1 become 1 and values above 9999 become 9999.
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID"
// @Param        request body dto.SetQuantityRequest true "New quantity"
// @Success      200 {object} dto.Response{data=dto.CartResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /cart/items/{id} [put]
func (h *CartHandler) SetQuantity(c *gin.Context) {
	var req dto.SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(c, err)
		return
	}
	ct, err := h.store(c).SetQuantity(c.Request.Context(), c.Param("id"), req.Quantity)
	h.respond(c, ct, err)
}

// Increase adds one unit
//
// @Summary      Increase line quantity
// @Description  Adds one unit to a line
// @Tags         cart
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      200 {object} dto.Response{data=dto.CartResponse}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /cart/items/{id}/increase [post]
func (h *CartHandler) Increase(c *gin.Context) {
	ct, err := h.store(c).Increase(c.Request.Context(), c.Param("id"))
	h.respond(c, ct, err)
}

// Decrease removes one unit, never going below 1
//
// @Summary      Decrease line quantity
// @Description  Removes one unit from a line, never going below 1
// @Tags         cart
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      200 {object} dto.Response{data=dto.CartResponse}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /cart/items/{id}/decrease [post]
func (h *CartHandler) Decrease(c *gin.Context) {
	ct, err := h.store(c).Decrease(c.Request.Context(), c.Param("id"))
	h.respond(c, ct, err)
}

// RemoveItem deletes a line; unknown IDs are ignored
//
// @Summary      Remove line
// @Description  Deletes a line. Unknown IDs are ignored.
// @Tags         cart
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      200 {object} dto.Response{data=dto.CartResponse}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /cart/items/{id} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	ct, err := h.store(c).RemoveItem(c.Request.Context(), c.Param("id"))
	h.respond(c, ct, err)
}

// Clear empties the cart
//
// @Summary      Clear cart
// @Description  Erases the persisted cart
// @Tags         cart
// @Produce      json
// @Success      200 {object} dto.Response{data=dto.CartResponse}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /cart [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	ct, err := h.store(c).Clear(c.Request.Context())
	h.respond(c, ct, err)
}

func (h *CartHandler) respond(c *gin.Context, ct cart.Cart, err error) {
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, h.toResponse(ct))
}

// Checkout completes the simulated purchase. Requests accepting
// application/pdf get the printed receipt when a printer is configured.
//
// @Summary      Checkout
// @Description  Completes the simulated purchase and empties the cart. Clients accepting application/pdf receive the printed receipt when printing is enabled.
// @Tags         cart
// @Produce      json,application/pdf
// @Success      200 {object} dto.Response{data=dto.CheckoutResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /cart/checkout [post]
func (h *CartHandler) Checkout(c *gin.Context) {
	receipt, err := h.store(c).Checkout(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if h.printer != nil && c.NegotiateFormat(gin.MIMEJSON, "application/pdf") == "application/pdf" {
		pdf, err := h.printer.Print(c.Request.Context(), receipt.OrderRef, receipt.PlacedAt, receipt.Items, receipt.Summary)
		if err == nil {
			c.Header("Content-Disposition", `attachment; filename="`+receipt.OrderRef+`.pdf"`)
			c.Data(http.StatusOK, "application/pdf", pdf)
			return
		}
		logger.GetGinLogger(c).Warn("receipt printing failed, answering with JSON",
			zap.String("order_ref", receipt.OrderRef),
			zap.Error(err),
		)
	}

	h.Success(c, dto.CheckoutResponse{
		OrderRef: receipt.OrderRef,
		PlacedAt: receipt.PlacedAt,
		Items:    dto.ToCartItemResponses(receipt.Items),
		Summary:  h.summary(receipt.Summary),
	})
}
