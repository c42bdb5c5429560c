package collection

import "github.com/shopspring/decimal"

// Item is the product snapshot copied into a collection entry. Name is the
// entry key.
type Item struct {
	Name     string
	Price    float64
	ImageRef string
}

type WishlistEntry struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	ImageRef string  `json:"img"`
}

// CartEntry never exists with Qty below 1.
type CartEntry struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	ImageRef string  `json:"img"`
	Qty      int     `json:"qty"`
}

// LineTotal is Price×Qty.
func (e CartEntry) LineTotal() decimal.Decimal {
	return decimal.NewFromFloat(e.Price).Mul(decimal.NewFromInt(int64(e.Qty)))
}

type (
	Wishlist = Ordered[WishlistEntry]
	Cart     = Ordered[CartEntry]
)
