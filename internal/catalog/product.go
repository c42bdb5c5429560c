package catalog

import (
	"strings"
)

type Product struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	ImageRef string  `json:"img"`
	Category string  `json:"category"`
	Rating   float64 `json:"rating"`
}

// Index is the read-only product set of a session, in document order.
type Index struct {
	products []Product
	byName   map[string]int
	cats     []string
}

// NewIndex keeps the first product for each name and drops unnamed ones.
func NewIndex(products []Product) *Index {
	idx := &Index{
		products: make([]Product, 0, len(products)),
		byName:   make(map[string]int, len(products)),
	}

	seenCat := map[string]struct{}{}
	for _, p := range products {
		if p.Name == "" {
			continue
		}
		if _, dup := idx.byName[p.Name]; dup {
			continue
		}
		p.Category = strings.ToLower(p.Category)
		idx.byName[p.Name] = len(idx.products)
		idx.products = append(idx.products, p)

		if p.Category == "" {
			continue
		}
		if _, ok := seenCat[p.Category]; !ok {
			seenCat[p.Category] = struct{}{}
			idx.cats = append(idx.cats, p.Category)
		}
	}
	return idx
}

// Products returns a copy of the catalog in document order.
func (i *Index) Products() []Product {
	return append([]Product(nil), i.products...)
}

func (i *Index) Lookup(name string) (Product, bool) {
	n, ok := i.byName[name]
	if !ok {
		return Product{}, false
	}
	return i.products[n], true
}

func (i *Index) Contains(name string) bool {
	_, ok := i.byName[name]
	return ok
}

func (i *Index) Len() int { return len(i.products) }

// Categories lists distinct non-empty categories in first-seen order.
func (i *Index) Categories() []string {
	return append([]string(nil), i.cats...)
}
