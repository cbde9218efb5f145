package catalogfile

import (
	_ "embed"

	"github.com/trendstep/storefront/internal/domain/catalog"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// Default returns the built-in catalog used when no file is configured.
// Two of its cards carry no ID, like hand-written storefront markup.
func Default() *catalog.Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic("catalogfile: built-in catalog is invalid: " + err.Error())
	}
	return c
}
