// Package session maps browser sessions to their live per-session state.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Factory builds the state for a session id, typically by reloading it from
// durable storage.
type Factory[T any] func(ctx context.Context, id string) (T, error)

// Registry keeps recently used session states in memory. Evicted sessions are
// rebuilt by the factory on their next request. A state still held by a
// request survives eviction, so one session never has two live states.
type Registry[T any] struct {
	tokens  *TokenMaker
	ttl     time.Duration
	factory Factory[T]
	log     *zap.Logger

	mu     sync.Mutex
	cache  *gocache.Cache
	leased map[string]*lease[T]
}

type lease[T any] struct {
	state T
	refs  int
}

func NewRegistry[T any](tokens *TokenMaker, ttl, idle time.Duration, factory Factory[T], log *zap.Logger) *Registry[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry[T]{
		tokens:  tokens,
		ttl:     ttl,
		factory: factory,
		log:     log,
		cache:   gocache.New(idle, idle/2),
		leased:  make(map[string]*lease[T]),
	}
}

// Resolved is the outcome of Resolve. Token is set only when a new session was
// minted and must be sent back to the client. Release must be called once the
// request is done with State.
type Resolved[T any] struct {
	ID    string
	State T
	Token string

	release func()
}

func (r Resolved[T]) Release() {
	if r.release != nil {
		r.release()
	}
}

// Resolve returns the session named by token, or a brand new session when the
// token is empty, forged or expired.
func (r *Registry[T]) Resolve(ctx context.Context, token string) (Resolved[T], error) {
	var out Resolved[T]

	id, err := r.tokens.Parse(token)
	if err != nil {
		if token != "" {
			r.log.Debug("replacing invalid session token")
		}
		id = uuid.NewString()
		if out.Token, err = r.tokens.New(id, r.ttl); err != nil {
			return out, fmt.Errorf("sign session token: %w", err)
		}
	}
	out.ID = id

	state, err := r.acquire(ctx, id)
	if err != nil {
		return out, err
	}
	out.State = state
	out.release = func() { r.releaseID(id) }
	return out, nil
}

func (r *Registry[T]) acquire(ctx context.Context, id string) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.leased[id]
	switch {
	case ok:
		// may have been evicted while in use
		r.cache.SetDefault(id, l.state)
	default:
		var state T
		if v, hit := r.cache.Get(id); hit {
			state = v.(T)
		} else {
			built, err := r.factory(ctx, id)
			if err != nil {
				var zero T
				return zero, fmt.Errorf("load session %s: %w", id, err)
			}
			state = built
		}
		r.cache.SetDefault(id, state)
		l = &lease[T]{state: state}
		r.leased[id] = l
	}

	l.refs++
	return l.state, nil
}

func (r *Registry[T]) releaseID(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.leased[id]
	if !ok {
		return
	}
	if l.refs--; l.refs <= 0 {
		delete(r.leased, id)
	}
}

// Len reports how many sessions are currently held in memory.
func (r *Registry[T]) Len() int {
	return r.cache.ItemCount()
}
