// Package storefront wires one shopper's session together: the catalog, their
// collections and the rendered surface, driven through a dispatch table.
package storefront

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"Storefront/internal/catalog"
	"Storefront/internal/collection"
	"Storefront/internal/kvstore"
	"Storefront/internal/view"
)

const (
	SurfaceCatalog  = "catalog"
	SurfaceWishlist = "wishlist"
	SurfaceCart     = "cart"
	SurfaceFilters  = "filters"
	SurfacePanels   = "panels"
)

const (
	KindToggleWishlist = "toggle-wishlist"
	KindAddCart        = "add-cart"
	KindRemove         = "remove"
	KindIncrement      = "increment"
	KindDecrement      = "decrement"
	KindCategory       = "category"
	KindSort           = "sort"
	KindOpen           = "open"
	KindClose          = "close"
)

var ErrUnknownAction = errors.New("unknown action")

// Action is one user interaction: where it came from, what it asks for, and
// the entity it targets.
type Action struct {
	Surface string `json:"surface"`
	Kind    string `json:"kind"`
	ID      string `json:"id"`
}

type route struct{ surface, kind string }

type handler func(c *Controller, ctx context.Context, id string)

var dispatch = map[route]handler{
	{SurfaceCatalog, KindToggleWishlist}: (*Controller).toggleWishlist,
	{SurfaceCatalog, KindAddCart}:        (*Controller).addCart,

	{SurfaceWishlist, KindRemove}: func(c *Controller, ctx context.Context, id string) {
		c.collections.RemoveFromWishlist(ctx, id)
	},

	{SurfaceCart, KindIncrement}: func(c *Controller, ctx context.Context, id string) {
		c.collections.IncrementCart(ctx, id)
	},
	{SurfaceCart, KindDecrement}: func(c *Controller, ctx context.Context, id string) {
		c.collections.DecrementCart(ctx, id)
	},
	{SurfaceCart, KindRemove}: func(c *Controller, ctx context.Context, id string) {
		c.collections.RemoveFromCart(ctx, id)
	},

	{SurfaceFilters, KindCategory}: (*Controller).setCategory,
	{SurfaceFilters, KindSort}:     (*Controller).setSort,

	{SurfacePanels, KindOpen}: (*Controller).openPanel,
	{SurfacePanels, KindClose}: func(c *Controller, _ context.Context, _ string) {
		c.panel = view.PanelNone
	},
}

// Controller is the application state of one session. Every Dispatch runs
// mutation, persistence and projection under one lock.
type Controller struct {
	mu sync.Mutex

	catalog     *catalog.Index
	collections *collection.Manager
	view        *view.Sync
	log         *zap.Logger

	category string
	sortKey  string
	panel    string
}

type Option func(*controllerOptions)

type controllerOptions struct {
	log     *zap.Logger
	metrics *collection.Metrics
}

func WithLogger(log *zap.Logger) Option {
	return func(o *controllerOptions) {
		if log != nil {
			o.log = log
		}
	}
}

func WithMetrics(m *collection.Metrics) Option {
	return func(o *controllerOptions) { o.metrics = m }
}

// NewController restores the collections stored under store and projects the
// initial surface.
func NewController(ctx context.Context, idx *catalog.Index, store *kvstore.Store, opts ...Option) *Controller {
	o := controllerOptions{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Controller{
		catalog: idx,
		collections: collection.Open(ctx, store, idx.Contains,
			collection.WithLogger(o.log),
			collection.WithMetrics(o.metrics),
		),
		view:     view.NewSync(),
		log:      o.log,
		category: catalog.CategoryAll,
		sortKey:  catalog.SortDefault,
	}
	c.sync()
	return c
}

// Dispatch routes a through the dispatch table and returns the re-projected
// surface. Unroutable actions leave all state untouched.
func (c *Controller) Dispatch(ctx context.Context, a Action) (view.Surface, error) {
	h, ok := dispatch[route{a.Surface, a.Kind}]
	if !ok {
		return view.Surface{}, ErrUnknownAction
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	h(c, ctx, a.ID)
	return c.sync(), nil
}

// Surface is the most recent projection.
func (c *Controller) Surface() view.Surface {
	return c.view.Surface()
}

func (c *Controller) Render(w io.Writer) error {
	return c.view.Render(w)
}

func (c *Controller) toggleWishlist(ctx context.Context, name string) {
	p, ok := c.catalog.Lookup(name)
	if !ok {
		c.log.Debug("toggle on unknown product", zap.String("name", name))
		return
	}
	c.collections.ToggleWishlist(ctx, item(p))
}

func (c *Controller) addCart(ctx context.Context, name string) {
	p, ok := c.catalog.Lookup(name)
	if !ok {
		c.log.Debug("add on unknown product", zap.String("name", name))
		return
	}
	c.collections.AddOrIncrementCart(ctx, item(p))
}

func (c *Controller) setCategory(_ context.Context, category string) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		category = catalog.CategoryAll
	}
	c.category = category
}

func (c *Controller) setSort(_ context.Context, key string) {
	if !slices.Contains(catalog.SortKeys, key) {
		key = catalog.SortDefault
	}
	c.sortKey = key
}

func (c *Controller) openPanel(_ context.Context, panel string) {
	switch panel {
	case view.PanelWishlist, view.PanelCart:
		c.panel = panel
	}
}

// sync must be called with mu held, except from the constructor.
func (c *Controller) sync() view.Surface {
	return c.view.Sync(view.State{
		Order:        catalog.DeriveOrder(c.catalog.Products(), c.category, c.sortKey),
		Categories:   c.catalog.Categories(),
		Category:     c.category,
		SortKey:      c.sortKey,
		Wishlist:     c.collections.Wishlist(),
		Cart:         c.collections.Cart(),
		OpenPanel:    c.panel,
		PersistError: c.collections.PersistErr(),
	})
}

func item(p catalog.Product) collection.Item {
	return collection.Item{Name: p.Name, Price: p.Price, ImageRef: p.ImageRef}
}
