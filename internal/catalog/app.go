package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Storefront/pkg/kit"
)

// Server exposes the catalog index read-only over HTTP.
type Server struct {
	Index *Index
	Log   *zap.Logger
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.list)
	r.Get("/{name}", s.get)

	return r
}

type listResp struct {
	Category string    `json:"category"`
	Sort     string    `json:"sort"`
	Products []Product `json:"products"`
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := q.Get("category")
	if category == "" {
		category = CategoryAll
	}
	sortKey := q.Get("sort")
	if sortKey == "" {
		sortKey = SortDefault
	}

	kit.WriteJSON(w, http.StatusOK, listResp{
		Category: category,
		Sort:     sortKey,
		Products: DeriveOrder(s.Index.Products(), category, sortKey),
	})
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	p, ok := s.Index.Lookup(name)
	if !ok {
		if s.Log != nil {
			s.Log.Debug("product lookup miss", zap.String("name", name))
		}
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"name": name})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}
