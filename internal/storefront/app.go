package storefront

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"Storefront/internal/catalog"
	"Storefront/internal/kvstore"
	"Storefront/internal/session"
	"Storefront/pkg/kit"
)

const (
	CookieName = "sf_session"

	maxActionBody = 64 << 10
	readyTimeout  = 1 * time.Second
)

type Server struct {
	Sessions *session.Registry[*Controller]
	Catalog  *catalog.Index
	Store    *kvstore.Store
	Log      *zap.Logger

	CookieTTL    time.Duration
	CookieSecure bool
}

// NewFactory builds controllers whose collections live under the session id
// in store.
func NewFactory(idx *catalog.Index, store *kvstore.Store, opts ...Option) session.Factory[*Controller] {
	return func(ctx context.Context, id string) (*Controller, error) {
		return NewController(ctx, idx, store.Namespace(id), opts...), nil
	}
}

// controller resolves the request's session. The returned release must run
// when the handler is done with the controller.
func (s *Server) controller(w http.ResponseWriter, r *http.Request) (*Controller, func(), bool) {
	var token string
	if ck, err := r.Cookie(CookieName); err == nil {
		token = ck.Value
	}

	res, err := s.Sessions.Resolve(r.Context(), token)
	if err != nil {
		s.logger().Error("resolve session failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return nil, nil, false
	}

	if res.Token != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    res.Token,
			Path:     "/",
			MaxAge:   int(s.CookieTTL.Seconds()),
			HttpOnly: true,
			Secure:   s.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return res.State, res.Release, true
}

func (s *Server) page(w http.ResponseWriter, r *http.Request) {
	c, release, ok := s.controller(w, r)
	if !ok {
		return
	}
	defer release()

	q := r.URL.Query()
	for _, a := range []Action{
		{Surface: SurfaceFilters, Kind: KindCategory, ID: q.Get(KindCategory)},
		{Surface: SurfaceFilters, Kind: KindSort, ID: q.Get(KindSort)},
	} {
		if !q.Has(a.Kind) {
			continue
		}
		if _, err := c.Dispatch(r.Context(), a); err != nil {
			s.logger().Error("apply query filter", zap.Error(err))
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := c.Render(w); err != nil {
		s.logger().Error("render page failed", zap.Error(err))
	}
}

func (s *Server) action(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxActionBody)
	if err := r.ParseForm(); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad form", nil)
		return
	}

	c, release, ok := s.controller(w, r)
	if !ok {
		return
	}
	defer release()

	a := Action{
		Surface: r.PostForm.Get("surface"),
		Kind:    r.PostForm.Get("kind"),
		ID:      r.PostForm.Get("id"),
	}

	surface, err := c.Dispatch(r.Context(), a)
	if err != nil {
		if errors.Is(err, ErrUnknownAction) {
			kit.WriteError(w, r, http.StatusBadRequest, "unknown action", a)
			return
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	if kit.WantsJSON(r) {
		kit.WriteJSON(w, http.StatusOK, surface)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) state(w http.ResponseWriter, r *http.Request) {
	c, release, ok := s.controller(w, r)
	if !ok {
		return
	}
	defer release()
	kit.WriteJSON(w, http.StatusOK, c.Surface())
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.Store.Ping(ctx); err != nil {
		s.logger().Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
