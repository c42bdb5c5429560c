package view

const (
	PanelNone     = ""
	PanelWishlist = "wishlist"
	PanelCart     = "cart"
)

const (
	wishlistLabelIn  = "❤️ In Wishlist"
	wishlistLabelOut = "❤️ Add to Wishlist"
	cartLabelIn      = "🛒 In Cart"
	cartLabelOut     = "🛒 Add to Cart"

	emptyWishlist = "No items in wishlist."
	emptyCart     = "Your cart is empty."

	persistNotice = "Your latest change could not be saved and may be lost after a restart."
)

type Button struct {
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

type Card struct {
	Name     string  `json:"name"`
	Price    string  `json:"price"`
	ImageRef string  `json:"img"`
	Category string  `json:"category"`
	Rating   float64 `json:"rating"`
	Wishlist Button  `json:"wishlist"`
	Cart     Button  `json:"cart"`
}

type Badges struct {
	Wishlist int `json:"wishlist"`
	Cart     int `json:"cart"`
}

type WishlistRow struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	ImageRef string `json:"img"`
}

type WishlistPanel struct {
	Open  bool          `json:"open"`
	Rows  []WishlistRow `json:"rows"`
	Empty string        `json:"empty,omitempty"`
}

type CartRow struct {
	Name      string `json:"name"`
	Price     string `json:"price"`
	ImageRef  string `json:"img"`
	Qty       int    `json:"qty"`
	LineTotal string `json:"line_total"`
}

type CartPanel struct {
	Open  bool      `json:"open"`
	Rows  []CartRow `json:"rows"`
	Total string    `json:"total"`
	Empty string    `json:"empty,omitempty"`
}

type Option struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

type Selector struct {
	Value   string   `json:"value"`
	Options []Option `json:"options"`
}

// Surface is everything the page shows. It is derived, never edited in place.
type Surface struct {
	Category Selector      `json:"category"`
	Sort     Selector      `json:"sort"`
	Cards    []Card        `json:"cards"`
	Badges   Badges        `json:"badges"`
	Wishlist WishlistPanel `json:"wishlist"`
	Cart     CartPanel     `json:"cart"`
	Notice   string        `json:"notice,omitempty"`
}
