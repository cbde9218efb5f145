// Package catalogfile loads the storefront catalog from YAML and keeps it
// current while the file changes.
package catalogfile

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/trendstep/storefront/internal/domain/catalog"
	"github.com/trendstep/storefront/internal/domain/shared/valueobject"
)

type fileFormat struct {
	Products []productEntry `yaml:"products"`
}

type productEntry struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Price    price  `yaml:"price"`
	Image    string `yaml:"image"`
	Category string `yaml:"category"`
}

// price accepts 19.99, "19.99" and "$19.99"
type price struct {
	valueobject.Money
}

func (p *price) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: price must be a scalar", node.Line)
	}
	d, err := valueobject.ParseAmount(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	m, err := valueobject.NewMoney(d)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	p.Money = m
	return nil
}

// Parse decodes a catalog document. Unknown fields are rejected so typos
// surface on reload instead of silently dropping data.
func Parse(data []byte) (*catalog.Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc fileFormat
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	products := make([]catalog.Product, 0, len(doc.Products))
	for _, e := range doc.Products {
		products = append(products, catalog.Product{
			ID:       e.ID,
			Name:     e.Name,
			Price:    e.Price.Money,
			Image:    e.Image,
			Category: e.Category,
		})
	}
	return catalog.New(products)
}

// Load reads and parses a catalog file
func Load(path string) (*catalog.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}
