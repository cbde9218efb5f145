package printing

import (
	"context"
	"fmt"
	"time"

	"github.com/trendstep/storefront/internal/domain/cart"
)

// PDFRenderer turns an HTML document into PDF bytes
type PDFRenderer interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

// ReceiptPrinter renders checkout receipts to PDF
type ReceiptPrinter struct {
	engine   *TemplateEngine
	renderer PDFRenderer
}

// NewReceiptPrinter combines a template engine with a PDF renderer
func NewReceiptPrinter(engine *TemplateEngine, renderer PDFRenderer) *ReceiptPrinter {
	return &ReceiptPrinter{engine: engine, renderer: renderer}
}

// Print renders one receipt
func (p *ReceiptPrinter) Print(ctx context.Context, orderRef string, placedAt time.Time, items []cart.Item, summary cart.Summary) ([]byte, error) {
	html, err := p.engine.RenderReceipt(ReceiptDocument{
		OrderRef: orderRef,
		PlacedAt: placedAt,
		Items:    items,
		Summary:  summary,
	})
	if err != nil {
		return nil, err
	}
	pdf, err := p.renderer.Render(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("print receipt %s: %w", orderRef, err)
	}
	return pdf, nil
}
