// Package demo provides the product catalog used by the run command.
package demo

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"prodclass/internal/config"
	"prodclass/pkg/types"
)

//go:embed catalog.yaml
var builtin []byte

// Catalog is a list of products to classify.
type Catalog struct {
	Products []types.Product `json:"products" yaml:"products" toml:"products"`
}

// Default returns the embedded demo catalog.
func Default() Catalog {
	var c Catalog
	if err := yaml.Unmarshal(builtin, &c); err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Load reads a catalog from a yaml, json or toml file. Products without a
// name are rejected.
func Load(path string) (Catalog, error) {
	var c Catalog
	b, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read catalog: %w", err)
	}
	if err := config.Unmarshal(filepath.Ext(path), b, &c); err != nil {
		return c, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	for i, p := range c.Products {
		if strings.TrimSpace(p.Name) == "" {
			return c, fmt.Errorf("catalog %s: product %d has no name", path, i+1)
		}
	}
	return c, nil
}

// First returns at most n products from the head of the catalog.
func (c Catalog) First(n int) []types.Product {
	if n < 0 || n > len(c.Products) {
		n = len(c.Products)
	}
	return append([]types.Product(nil), c.Products[:n]...)
}
