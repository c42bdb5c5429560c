package collection

import (
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"Storefront/internal/kvstore"
)

var (
	lamp  = Item{Name: "Lamp", Price: 9.99, ImageRef: "img/lamp.jpg"}
	novel = Item{Name: "Novel", Price: 12.5, ImageRef: "img/novel.jpg"}
)

// flakyBackend fails writes with fail. When failKey is set only that key
// fails. Like the network backends it refuses cancelled contexts.
type flakyBackend struct {
	*kvstore.MemBackend
	fail    error
	failKey string
}

func (b *flakyBackend) Write(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.fail != nil && (b.failKey == "" || key == b.failKey) {
		return b.fail
	}
	return b.MemBackend.Write(ctx, key, value)
}

func newTestManager(t *testing.T) (*Manager, *kvstore.MemBackend) {
	t.Helper()
	backend := kvstore.NewMemBackend()
	return Open(context.Background(), kvstore.New(backend), nil, WithLogger(zap.NewNop())), backend
}

func stored(t *testing.T, backend *kvstore.MemBackend, key string) string {
	t.Helper()
	raw, err := backend.Read(context.Background(), key)
	require.NoError(t, err)
	return string(raw)
}

func TestManager_CartScenario(t *testing.T) {
	ctx := context.Background()
	m, backend := newTestManager(t)

	m.AddOrIncrementCart(ctx, lamp)
	assert.Equal(t, []CartEntry{{Name: "Lamp", Price: 9.99, ImageRef: "img/lamp.jpg", Qty: 1}}, m.Cart())
	assert.JSONEq(t, `{"Lamp":{"name":"Lamp","price":9.99,"img":"img/lamp.jpg","qty":1}}`, stored(t, backend, CartKey))

	m.AddOrIncrementCart(ctx, lamp)
	assert.Equal(t, 2, m.Cart()[0].Qty)
	assert.JSONEq(t, `{"Lamp":{"name":"Lamp","price":9.99,"img":"img/lamp.jpg","qty":2}}`, stored(t, backend, CartKey))

	m.DecrementCart(ctx, lamp.Name)
	assert.Equal(t, 1, m.Cart()[0].Qty)

	res := m.DecrementCart(ctx, lamp.Name)
	assert.True(t, res.Changed)
	assert.Empty(t, m.Cart())
	assert.Zero(t, m.CartQuantity())
	assert.Equal(t, "0.00", m.CartTotal().StringFixed(2))
	assert.JSONEq(t, `{}`, stored(t, backend, CartKey))
}

func TestManager_ToggleWishlistTwiceRestores(t *testing.T) {
	ctx := context.Background()
	m, backend := newTestManager(t)

	m.ToggleWishlist(ctx, novel)
	before := stored(t, backend, WishlistKey)
	beforeEntries := m.Wishlist()

	m.ToggleWishlist(ctx, lamp)
	assert.True(t, m.InWishlist(lamp.Name))
	m.ToggleWishlist(ctx, lamp)
	assert.False(t, m.InWishlist(lamp.Name))

	assert.Equal(t, beforeEntries, m.Wishlist())
	assert.JSONEq(t, before, stored(t, backend, WishlistKey))
}

func TestManager_NoOpsOnAbsentEntries(t *testing.T) {
	ctx := context.Background()
	m, backend := newTestManager(t)

	for _, res := range []Result{
		m.IncrementCart(ctx, "ghost"),
		m.DecrementCart(ctx, "ghost"),
		m.RemoveFromCart(ctx, "ghost"),
		m.RemoveFromWishlist(ctx, "ghost"),
	} {
		assert.False(t, res.Changed)
		assert.NoError(t, res.PersistErr)
	}

	assert.Empty(t, m.Cart())
	assert.Empty(t, m.Wishlist())
	// still written, as an empty snapshot
	assert.JSONEq(t, `{}`, stored(t, backend, CartKey))
	assert.JSONEq(t, `{}`, stored(t, backend, WishlistKey))
}

func TestManager_QuantityInvariant(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	ops := []func(){
		func() { m.AddOrIncrementCart(ctx, lamp) },
		func() { m.AddOrIncrementCart(ctx, novel) },
		func() { m.DecrementCart(ctx, lamp.Name) },
		func() { m.DecrementCart(ctx, lamp.Name) },
		func() { m.IncrementCart(ctx, novel.Name) },
		func() { m.DecrementCart(ctx, novel.Name) },
		func() { m.DecrementCart(ctx, novel.Name) },
		func() { m.DecrementCart(ctx, novel.Name) },
		func() { m.AddOrIncrementCart(ctx, lamp) },
	}
	for _, op := range ops {
		op()
		var sum int
		for _, e := range m.Cart() {
			assert.GreaterOrEqual(t, e.Qty, 1)
			sum += e.Qty
		}
		assert.Equal(t, sum, m.CartQuantity())
	}
}

func TestManager_CartTotal(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	m.AddOrIncrementCart(ctx, lamp)
	m.AddOrIncrementCart(ctx, lamp)
	m.AddOrIncrementCart(ctx, lamp)
	m.AddOrIncrementCart(ctx, novel)

	assert.Equal(t, "42.47", m.CartTotal().StringFixed(2))
	assert.Equal(t, 4, m.CartQuantity())
}

func TestManager_RemoveAndIncrement(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	m.AddOrIncrementCart(ctx, lamp)
	m.AddOrIncrementCart(ctx, novel)
	assert.True(t, m.IncrementCart(ctx, lamp.Name).Changed)
	assert.True(t, m.InCart(lamp.Name))

	assert.True(t, m.RemoveFromCart(ctx, lamp.Name).Changed)
	assert.False(t, m.InCart(lamp.Name))
	assert.Equal(t, 1, m.CartQuantity())

	m.ToggleWishlist(ctx, lamp)
	assert.True(t, m.RemoveFromWishlist(ctx, lamp.Name).Changed)
	assert.Zero(t, m.WishlistCount())
}

func TestManager_RoundTripThroughStore(t *testing.T) {
	ctx := context.Background()
	backend := kvstore.NewMemBackend()
	store := kvstore.New(backend)

	m := Open(ctx, store, nil)
	m.ToggleWishlist(ctx, novel)
	m.ToggleWishlist(ctx, lamp)
	m.AddOrIncrementCart(ctx, novel)
	m.AddOrIncrementCart(ctx, lamp)
	m.AddOrIncrementCart(ctx, novel)

	reloaded := Open(ctx, store, nil)
	assert.Equal(t, m.Wishlist(), reloaded.Wishlist())
	assert.Equal(t, m.Cart(), reloaded.Cart())
	assert.Equal(t, []string{"Novel", "Lamp"}, reloaded.cart.Keys(), "insertion order survives reload")
}

func TestOpen_CorruptedWishlistStartsEmpty(t *testing.T) {
	ctx := context.Background()
	backend := kvstore.NewMemBackend()
	require.NoError(t, backend.Write(ctx, WishlistKey, []byte(`{"Lamp":`)))
	require.NoError(t, backend.Write(ctx, CartKey, []byte(`{"Lamp":{"name":"Lamp","price":9.99,"img":"","qty":3}}`)))

	m := Open(ctx, kvstore.New(backend), nil)
	assert.Empty(t, m.Wishlist())
	assert.Equal(t, 3, m.CartQuantity())

	m.ToggleWishlist(ctx, lamp)
	assert.JSONEq(t, `{"Lamp":{"name":"Lamp","price":9.99,"img":"img/lamp.jpg"}}`, stored(t, backend, WishlistKey))
}

func TestOpen_DropsStaleEntries(t *testing.T) {
	ctx := context.Background()
	backend := kvstore.NewMemBackend()
	require.NoError(t, backend.Write(ctx, WishlistKey, []byte(
		`{"Lamp":{"name":"Lamp","price":1},"Gone":{"name":"Gone","price":2},"Alias":{"name":"Other"}}`)))
	require.NoError(t, backend.Write(ctx, CartKey, []byte(
		`{"Lamp":{"name":"Lamp","price":1,"qty":0},"Novel":{"name":"Novel","price":2,"qty":2},"Gone":{"name":"Gone","qty":1}}`)))

	known := map[string]bool{"Lamp": true, "Novel": true, "Alias": true}
	m := Open(ctx, kvstore.New(backend), func(name string) bool { return known[name] })

	assert.Equal(t, []WishlistEntry{{Name: "Lamp", Price: 1}}, m.Wishlist())
	assert.Equal(t, []CartEntry{{Name: "Novel", Price: 2, Qty: 2}}, m.Cart())
}

func TestManager_PersistFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	quota := errors.New("quota exceeded")
	backend := &flakyBackend{MemBackend: kvstore.NewMemBackend()}
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	m := Open(ctx, kvstore.New(backend), nil, WithMetrics(metrics))

	backend.fail = quota
	res := m.AddOrIncrementCart(ctx, lamp)
	assert.True(t, res.Changed)
	assert.ErrorIs(t, res.PersistErr, quota)
	assert.ErrorIs(t, m.PersistErr(), quota)
	assert.True(t, m.InCart(lamp.Name), "in-memory change is kept")
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.PersistFailures.WithLabelValues(CartKey)))

	backend.fail = nil
	res = m.IncrementCart(ctx, lamp.Name)
	assert.NoError(t, res.PersistErr)
	assert.NoError(t, m.PersistErr())
	assert.JSONEq(t, `{"Lamp":{"name":"Lamp","price":9.99,"img":"img/lamp.jpg","qty":2}}`, stored(t, backend.MemBackend, CartKey))

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Mutations.WithLabelValues(OpAddCart, "true")))
}

func TestOrdered_JSONOrder(t *testing.T) {
	o := NewOrdered[int]()
	o.Put("b", 1)
	o.Put("a", 2)
	o.Put("c", 3)
	o.Put("a", 4)
	o.Delete("c")

	raw, err := json.Marshal(o)
	require.NoError(t, err)
	assert.Equal(t, `{"b":1,"a":4}`, string(raw))

	back := NewOrdered[int]()
	require.NoError(t, json.Unmarshal([]byte(`{"z":1,"y":2,"x":3}`), back))
	assert.Equal(t, []string{"z", "y", "x"}, back.Keys())
	assert.Equal(t, []int{1, 2, 3}, back.Values())

	assert.Error(t, json.Unmarshal([]byte(`[1]`), back))
	assert.Equal(t, []string{"z", "y", "x"}, back.Keys(), "failed decode leaves the value untouched")
}

func TestManager_DirtyRecordRetriedOnNextWrite(t *testing.T) {
	ctx := context.Background()
	down := errors.New("connection reset")
	backend := &flakyBackend{MemBackend: kvstore.NewMemBackend(), fail: down, failKey: CartKey}
	m := Open(ctx, kvstore.New(backend), nil)

	res := m.AddOrIncrementCart(ctx, lamp)
	require.ErrorIs(t, res.PersistErr, down)

	res = m.ToggleWishlist(ctx, novel)
	assert.NoError(t, res.PersistErr, "wishlist write itself succeeded")
	assert.ErrorIs(t, m.PersistErr(), down, "cart still lags the display")

	backend.fail = nil
	m.ToggleWishlist(ctx, lamp)

	assert.NoError(t, m.PersistErr())
	assert.JSONEq(t, `{"Lamp":{"name":"Lamp","price":9.99,"img":"img/lamp.jpg","qty":1}}`, stored(t, backend.MemBackend, CartKey))
	assert.JSONEq(t, `{"Novel":{"name":"Novel","price":12.5,"img":"img/novel.jpg"},"Lamp":{"name":"Lamp","price":9.99,"img":"img/lamp.jpg"}}`,
		stored(t, backend.MemBackend, WishlistKey))
}

func TestManager_WriteSurvivesCancelledCaller(t *testing.T) {
	backend := &flakyBackend{MemBackend: kvstore.NewMemBackend()}
	m := Open(context.Background(), kvstore.New(backend), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := m.AddOrIncrementCart(ctx, lamp)
	assert.NoError(t, res.PersistErr)
	assert.NoError(t, m.PersistErr())
	assert.JSONEq(t, `{"Lamp":{"name":"Lamp","price":9.99,"img":"img/lamp.jpg","qty":1}}`, stored(t, backend.MemBackend, CartKey))
}
