package kvstore

import (
	"context"
	"sync"
)

type MemBackend struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func NewMemBackend() *MemBackend {
	return &MemBackend{m: map[string][]byte{}}
}

func (b *MemBackend) Read(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.m[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (b *MemBackend) Write(_ context.Context, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.m[key] = append([]byte(nil), value...)
	return nil
}

func (b *MemBackend) Ping(context.Context) error { return nil }

func (b *MemBackend) Close() error { return nil }
