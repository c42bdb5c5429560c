package catalog

import (
	"sort"
	"strings"
)

const CategoryAll = "all"

const (
	SortDefault    = "default"
	SortPriceLow   = "priceLow"
	SortPriceHigh  = "priceHigh"
	SortRatingHigh = "ratingHigh"
)

// SortKeys is the selector order shown to users.
var SortKeys = []string{SortDefault, SortPriceLow, SortPriceHigh, SortRatingHigh}

// DeriveOrder filters products by category (case-insensitive, "all" or empty
// passes everything) and stable-sorts by sortKey. Unknown keys keep the
// filtered order. The input slice is never modified.
func DeriveOrder(products []Product, categoryFilter, sortKey string) []Product {
	cat := strings.ToLower(strings.TrimSpace(categoryFilter))

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if cat == "" || cat == CategoryAll || strings.ToLower(p.Category) == cat {
			out = append(out, p)
		}
	}

	switch sortKey {
	case SortPriceLow:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case SortPriceHigh:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	case SortRatingHigh:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	}

	return out
}
