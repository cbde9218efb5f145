// Package printing renders checkout receipts as HTML and, through headless
// Chrome, as PDF.
package printing

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/trendstep/storefront/internal/domain/cart"
	"github.com/trendstep/storefront/internal/domain/shared/valueobject"
	"github.com/trendstep/storefront/internal/infrastructure/i18n"
)

//go:embed templates/*.html
var templateFS embed.FS

// ReceiptDocument is the data bound to the receipt template
type ReceiptDocument struct {
	OrderRef string
	PlacedAt time.Time
	Items    []cart.Item
	Summary  cart.Summary
}

// TemplateEngine renders receipt HTML
type TemplateEngine struct {
	tmpl *template.Template
}

// NewTemplateEngine parses the embedded templates with helpers for money,
// dates and localized item counts
func NewTemplateEngine(localizer *i18n.Localizer) (*TemplateEngine, error) {
	if localizer == nil {
		localizer = i18n.New("es")
	}
	funcs := template.FuncMap{
		"money":      func(m valueobject.Money) string { return m.Display() },
		"formatTime": func(t time.Time) string { return t.Format("02/01/2006 15:04") },
		"itemCount":  localizer.ItemCount,
	}
	tmpl, err := template.New("receipt").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse receipt templates: %w", err)
	}
	return &TemplateEngine{tmpl: tmpl}, nil
}

// RenderReceipt returns the receipt as a complete HTML document
func (e *TemplateEngine) RenderReceipt(doc ReceiptDocument) (string, error) {
	var buf bytes.Buffer
	if err := e.tmpl.ExecuteTemplate(&buf, "receipt.html", doc); err != nil {
		return "", fmt.Errorf("render receipt %s: %w", doc.OrderRef, err)
	}
	return buf.String(), nil
}
