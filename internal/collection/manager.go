// Package collection owns the wishlist and the cart. Every mutation is
// written through to the kvstore before it returns.
package collection

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"Storefront/internal/kvstore"
)

const (
	WishlistKey = "wishlist"
	CartKey     = "cart"
)

var records = []string{WishlistKey, CartKey}

const (
	OpToggleWishlist = "toggle_wishlist"
	OpRemoveWishlist = "remove_wishlist"
	OpAddCart        = "add_cart"
	OpIncrementCart  = "increment_cart"
	OpDecrementCart  = "decrement_cart"
	OpRemoveCart     = "remove_cart"
)

// Result describes one mutation. PersistErr is non-nil when the in-memory
// change could not be written; the change itself is kept.
type Result struct {
	Changed    bool
	PersistErr error
}

type Manager struct {
	store   *kvstore.Store
	log     *zap.Logger
	metrics *Metrics

	wishlist *Wishlist
	cart     *Cart

	// dirty holds the last write error of each record not yet persisted.
	dirty map[string]error
}

type Option func(*Manager)

func WithLogger(log *zap.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// Open loads both collections from store. Absent or corrupted records start
// empty. When known is non-nil, entries for names it rejects are dropped, as
// are cart entries with a quantity below 1.
func Open(ctx context.Context, store *kvstore.Store, known func(name string) bool, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		log:   zap.NewNop(),
		dirty: map[string]error{},
	}
	for _, opt := range opts {
		opt(m)
	}

	m.wishlist = kvstore.Get(ctx, store, WishlistKey, NewOrdered[WishlistEntry]())
	m.cart = kvstore.Get(ctx, store, CartKey, NewOrdered[CartEntry]())

	droppedW := m.wishlist.Filter(func(name string, e WishlistEntry) bool {
		return e.Name == name && (known == nil || known(name))
	})
	droppedC := m.cart.Filter(func(name string, e CartEntry) bool {
		return e.Name == name && e.Qty >= 1 && (known == nil || known(name))
	})
	if droppedW+droppedC > 0 {
		m.log.Debug("dropped stale collection entries",
			zap.Int("wishlist", droppedW),
			zap.Int("cart", droppedC),
		)
	}

	return m
}

// ToggleWishlist removes item if present, otherwise adds it.
func (m *Manager) ToggleWishlist(ctx context.Context, item Item) Result {
	if !m.wishlist.Delete(item.Name) {
		m.wishlist.Put(item.Name, WishlistEntry{Name: item.Name, Price: item.Price, ImageRef: item.ImageRef})
	}
	return m.commit(ctx, OpToggleWishlist, WishlistKey, true)
}

func (m *Manager) RemoveFromWishlist(ctx context.Context, name string) Result {
	changed := m.wishlist.Delete(name)
	return m.commit(ctx, OpRemoveWishlist, WishlistKey, changed)
}

// AddOrIncrementCart inserts item with quantity 1, or bumps an existing entry.
func (m *Manager) AddOrIncrementCart(ctx context.Context, item Item) Result {
	e, ok := m.cart.Get(item.Name)
	if ok {
		e.Qty++
	} else {
		e = CartEntry{Name: item.Name, Price: item.Price, ImageRef: item.ImageRef, Qty: 1}
	}
	m.cart.Put(item.Name, e)
	return m.commit(ctx, OpAddCart, CartKey, true)
}

func (m *Manager) IncrementCart(ctx context.Context, name string) Result {
	e, ok := m.cart.Get(name)
	if ok {
		e.Qty++
		m.cart.Put(name, e)
	}
	return m.commit(ctx, OpIncrementCart, CartKey, ok)
}

// DecrementCart removes the entry instead of letting its quantity reach 0.
func (m *Manager) DecrementCart(ctx context.Context, name string) Result {
	e, ok := m.cart.Get(name)
	if ok {
		e.Qty--
		if e.Qty < 1 {
			m.cart.Delete(name)
		} else {
			m.cart.Put(name, e)
		}
	}
	return m.commit(ctx, OpDecrementCart, CartKey, ok)
}

func (m *Manager) RemoveFromCart(ctx context.Context, name string) Result {
	changed := m.cart.Delete(name)
	return m.commit(ctx, OpRemoveCart, CartKey, changed)
}

// commit writes record, then retries any other record whose last write
// failed. Writes ignore caller cancellation; the store timeout bounds them.
func (m *Manager) commit(ctx context.Context, op, record string, changed bool) Result {
	m.metrics.observe(op, changed)
	ctx = context.WithoutCancel(ctx)

	err := m.write(ctx, op, record)
	for _, other := range records {
		if _, dirty := m.dirty[other]; dirty && other != record {
			_ = m.write(ctx, op, other)
		}
	}
	return Result{Changed: changed, PersistErr: err}
}

func (m *Manager) write(ctx context.Context, op, record string) error {
	var err error
	switch record {
	case WishlistKey:
		err = m.store.Set(ctx, WishlistKey, m.wishlist)
	case CartKey:
		err = m.store.Set(ctx, CartKey, m.cart)
	}

	if err != nil {
		m.dirty[record] = err
		m.metrics.persistFailed(record)
		m.log.Warn("collection write failed",
			zap.String("op", op),
			zap.String("record", record),
			zap.Error(err),
		)
		return err
	}
	delete(m.dirty, record)
	return nil
}

// PersistErr is non-nil while any record holds changes the store has not
// accepted yet.
func (m *Manager) PersistErr() error {
	for _, r := range records {
		if err := m.dirty[r]; err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) Wishlist() []WishlistEntry { return m.wishlist.Values() }

func (m *Manager) Cart() []CartEntry { return m.cart.Values() }

func (m *Manager) InWishlist(name string) bool { return m.wishlist.Has(name) }

func (m *Manager) InCart(name string) bool { return m.cart.Has(name) }

func (m *Manager) WishlistCount() int { return m.wishlist.Len() }

// CartQuantity is the sum of all entry quantities.
func (m *Manager) CartQuantity() int {
	var n int
	for _, e := range m.cart.Values() {
		n += e.Qty
	}
	return n
}

func (m *Manager) CartTotal() decimal.Decimal {
	total := decimal.Zero
	for _, e := range m.cart.Values() {
		total = total.Add(e.LineTotal())
	}
	return total
}
