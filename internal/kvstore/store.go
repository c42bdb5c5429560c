// Package kvstore is the durable key→JSON record store behind the wishlist and
// cart. Reads never fail at the boundary: absent or corrupted records resolve
// to the caller's fallback and are overwritten by the next write.
package kvstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const (
	pingTimeout    = 1 * time.Second
	defaultTimeout = 3 * time.Second
	keySeparator   = ":"
)

var (
	ErrNotFound = errors.New("kvstore: key not found")
	errNull     = errors.New("stored value is null")
)

// DecodeError reports a stored record that could not be deserialized.
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("kvstore: decode %q: %v", e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Backend is the storage medium. Read returns ErrNotFound for absent keys.
type Backend interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
	Close() error
}

type Store struct {
	backend Backend
	prefix  string
	timeout time.Duration
	log     *zap.Logger
}

type Option func(*Store)

func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

func New(b Backend, opts ...Option) *Store {
	s := &Store{
		backend: b,
		timeout: defaultTimeout,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Namespace returns a view of the same backend whose keys are prefixed with
// prefix and a colon.
func (s *Store) Namespace(prefix string) *Store {
	ns := *s
	ns.prefix = s.key(prefix)
	ns.log = s.log.With(zap.String("namespace", ns.prefix))
	return &ns
}

func (s *Store) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return s.prefix + keySeparator + k
}

// Load decodes the record stored under key into dst. It returns ErrNotFound,
// a *DecodeError, or a backend error.
func (s *Store) Load(ctx context.Context, key string, dst any) error {
	full := s.key(key)

	var raw []byte
	err := withTimeout(ctx, s.timeout, func(ctx context.Context) error {
		var err error
		raw, err = s.backend.Read(ctx, full)
		return err
	})
	if err != nil {
		return err
	}

	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return &DecodeError{Key: full, Err: errNull}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &DecodeError{Key: full, Err: err}
	}
	return nil
}

// Set serializes v and writes it synchronously.
func (s *Store) Set(ctx context.Context, key string, v any) error {
	full := s.key(key)

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kvstore: encode %q: %w", full, err)
	}

	err = withTimeout(ctx, s.timeout, func(ctx context.Context) error {
		return s.backend.Write(ctx, full, raw)
	})
	if err != nil {
		return fmt.Errorf("kvstore: write %q: %w", full, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, s.backend.Ping)
}

func (s *Store) Close() error {
	return s.backend.Close()
}

// Get returns the record stored under key, or fallback when it is absent,
// unreadable or malformed.
func Get[T any](ctx context.Context, s *Store, key string, fallback T) T {
	var v T
	err := s.Load(ctx, key, &v)
	if err == nil {
		return v
	}

	var de *DecodeError
	switch {
	case errors.Is(err, ErrNotFound):
	case errors.As(err, &de):
		s.log.Debug("discarding corrupted record", zap.String("key", de.Key), zap.Error(de.Err))
	default:
		s.log.Warn("record read failed, using fallback", zap.String("key", s.key(key)), zap.Error(err))
	}
	return fallback
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
