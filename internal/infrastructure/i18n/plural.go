// Package i18n formats the few storefront strings that depend on a count.
package i18n

import (
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const keyItemCount = "%d items"

// supported is in preference order; the first entry is the fallback
var supported = []language.Tag{language.Spanish, language.English}

var matcher = language.NewMatcher(supported)

var messages = func() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.Spanish))
	must(b.Set(language.Spanish, keyItemCount,
		plural.Selectf(1, "%d", "=1", "%d producto", "other", "%d productos")))
	must(b.Set(language.English, keyItemCount,
		plural.Selectf(1, "%d", "=1", "%d item", "other", "%d items")))
	return b
}()

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Localizer prints count-dependent labels in one language
type Localizer struct {
	printer *message.Printer
}

// New returns a Localizer for a BCP 47 tag; unknown or unsupported tags fall
// back to Spanish
func New(lang string) *Localizer {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.Spanish
	}
	_, index, _ := matcher.Match(tag)
	return &Localizer{printer: message.NewPrinter(supported[index], message.Catalog(messages))}
}

// ItemCount renders "1 producto" / "3 productos"
func (l *Localizer) ItemCount(n int) string {
	return l.printer.Sprintf(keyItemCount, n)
}
