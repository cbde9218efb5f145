package handler

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/trendstep/storefront/internal/domain/shared/valueobject"
	"github.com/trendstep/storefront/internal/infrastructure/i18n"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// NewViews parses the storefront page templates. Register the result with
// gin.Engine.SetHTMLTemplate.
func NewViews(localizer *i18n.Localizer) (*template.Template, error) {
	if localizer == nil {
		localizer = i18n.New("es")
	}
	funcs := template.FuncMap{
		"money":     func(m valueobject.Money) string { return m.Display() },
		"itemCount": localizer.ItemCount,
		"ttlMillis": func(d time.Duration) int64 { return d.Milliseconds() },
	}
	tmpl, err := template.New("storefront").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse storefront templates: %w", err)
	}
	return tmpl, nil
}

// StaticFS serves the storefront script and stylesheet
func StaticFS() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
