// Package catalog loads the products recommendations are drawn from.
package catalog

import (
	"errors"
	"fmt"
	"os"

	"quizrec/internal/score"

	"gopkg.in/yaml.v3"
)

// Format names the shape of a catalog document.
type Format string

const (
	// FormatProducts is a list of generic products.
	FormatProducts Format = "products"
	// FormatPaddles is a list of paddle records.
	FormatPaddles Format = "paddles"
)

var ErrDuplicateProduct = errors.New("duplicate product id")

// Catalog is an ordered, read-only product list with lookup by id.
type Catalog struct {
	products []score.Product
	index    map[string]int
}

// New indexes products. Product ids must be unique.
func New(products []score.Product) (*Catalog, error) {
	c := &Catalog{
		products: products,
		index:    make(map[string]int, len(products)),
	}
	for i, p := range products {
		if _, ok := c.index[p.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProduct, p.ID)
		}
		c.index[p.ID] = i
	}
	return c, nil
}

// Products returns every product in catalog order. The slice must not be modified.
func (c *Catalog) Products() []score.Product {
	return c.products
}

func (c *Catalog) Len() int {
	return len(c.products)
}

// Get looks a product up by id.
func (c *Catalog) Get(id string) (score.Product, bool) {
	i, ok := c.index[id]
	if !ok {
		return score.Product{}, false
	}
	return c.products[i], true
}

// Subset returns the products whose ids are listed, in catalog order.
// Unknown ids are ignored.
func (c *Catalog) Subset(ids []string) []score.Product {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	subset := make([]score.Product, 0, len(ids))
	for _, p := range c.products {
		if _, ok := wanted[p.ID]; ok {
			subset = append(subset, p)
		}
	}
	return subset
}

// LoadProducts decodes a YAML or JSON list of products.
func LoadProducts(data []byte) ([]score.Product, error) {
	var products []score.Product
	if err := yaml.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

// LoadPaddles decodes a YAML or JSON list of paddles and converts them.
func LoadPaddles(data []byte) ([]score.Product, error) {
	var paddles []Paddle
	if err := yaml.Unmarshal(data, &paddles); err != nil {
		return nil, fmt.Errorf("decode paddles: %w", err)
	}
	return PaddlesToProducts(paddles), nil
}

// Load reads a catalog file in the given format.
func Load(file string, format Format) (*Catalog, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	var products []score.Product
	switch format {
	case FormatProducts, "":
		products, err = LoadProducts(data)
	case FormatPaddles:
		products, err = LoadPaddles(data)
	default:
		return nil, fmt.Errorf("unknown catalog format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	return New(products)
}
