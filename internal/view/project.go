// Package view projects catalog and collection state onto the rendered
// surface. Nothing here mutates collections.
package view

import (
	"github.com/shopspring/decimal"

	"Storefront/internal/catalog"
	"Storefront/internal/collection"
)

// State is the input of one projection.
type State struct {
	Order      []catalog.Product
	Categories []string
	Category   string
	SortKey    string

	Wishlist []collection.WishlistEntry
	Cart     []collection.CartEntry

	OpenPanel    string
	PersistError error
}

var sortLabels = map[string]string{
	catalog.SortDefault:    "Featured",
	catalog.SortPriceLow:   "Price: Low to High",
	catalog.SortPriceHigh:  "Price: High to Low",
	catalog.SortRatingHigh: "Rating: High to Low",
}

// Project derives a Surface from st. It is a pure function.
func Project(st State) Surface {
	inWishlist := make(map[string]struct{}, len(st.Wishlist))
	for _, e := range st.Wishlist {
		inWishlist[e.Name] = struct{}{}
	}
	inCart := make(map[string]struct{}, len(st.Cart))
	for _, e := range st.Cart {
		inCart[e.Name] = struct{}{}
	}

	s := Surface{
		Category: categorySelector(st.Categories, st.Category),
		Sort:     sortSelector(st.SortKey),
		Cards:    make([]Card, 0, len(st.Order)),
	}

	for _, p := range st.Order {
		_, w := inWishlist[p.Name]
		_, c := inCart[p.Name]
		s.Cards = append(s.Cards, Card{
			Name:     p.Name,
			Price:    Money(decimal.NewFromFloat(p.Price)),
			ImageRef: p.ImageRef,
			Category: p.Category,
			Rating:   p.Rating,
			Wishlist: wishlistButton(w),
			Cart:     cartButton(c),
		})
	}

	s.Badges.Wishlist = len(st.Wishlist)
	for _, e := range st.Cart {
		s.Badges.Cart += e.Qty
	}

	s.Wishlist = projectWishlist(st.Wishlist)
	s.Wishlist.Open = st.OpenPanel == PanelWishlist
	s.Cart = projectCart(st.Cart)
	s.Cart.Open = st.OpenPanel == PanelCart

	if st.PersistError != nil {
		s.Notice = persistNotice
	}
	return s
}

func wishlistButton(in bool) Button {
	if in {
		return Button{Label: wishlistLabelIn, Active: true}
	}
	return Button{Label: wishlistLabelOut}
}

func cartButton(in bool) Button {
	if in {
		return Button{Label: cartLabelIn, Active: true}
	}
	return Button{Label: cartLabelOut}
}

func projectWishlist(entries []collection.WishlistEntry) WishlistPanel {
	p := WishlistPanel{Rows: make([]WishlistRow, 0, len(entries))}
	if len(entries) == 0 {
		p.Empty = emptyWishlist
		return p
	}
	for _, e := range entries {
		p.Rows = append(p.Rows, WishlistRow{
			Name:     e.Name,
			Price:    Money(decimal.NewFromFloat(e.Price)),
			ImageRef: e.ImageRef,
		})
	}
	return p
}

func projectCart(entries []collection.CartEntry) CartPanel {
	p := CartPanel{Rows: make([]CartRow, 0, len(entries))}
	if len(entries) == 0 {
		p.Empty = emptyCart
		p.Total = Money(decimal.Zero)
		return p
	}

	total := decimal.Zero
	for _, e := range entries {
		line := e.LineTotal()
		total = total.Add(line)
		p.Rows = append(p.Rows, CartRow{
			Name:      e.Name,
			Price:     Money(decimal.NewFromFloat(e.Price)),
			ImageRef:  e.ImageRef,
			Qty:       e.Qty,
			LineTotal: Money(line),
		})
	}
	p.Total = Money(total)
	return p
}

func categorySelector(categories []string, current string) Selector {
	if current == "" {
		current = catalog.CategoryAll
	}
	sel := Selector{Value: current}
	sel.Options = append(sel.Options, Option{Value: catalog.CategoryAll, Label: "All", Selected: current == catalog.CategoryAll})
	for _, c := range categories {
		sel.Options = append(sel.Options, Option{Value: c, Label: c, Selected: c == current})
	}
	return sel
}

func sortSelector(current string) Selector {
	if _, ok := sortLabels[current]; !ok {
		current = catalog.SortDefault
	}
	sel := Selector{Value: current}
	for _, k := range catalog.SortKeys {
		sel.Options = append(sel.Options, Option{Value: k, Label: sortLabels[k], Selected: k == current})
	}
	return sel
}

// Money renders an amount with two fractional digits.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
