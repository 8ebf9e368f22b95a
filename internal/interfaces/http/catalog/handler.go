package catalog

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	catalogapp "github.com/umaimono-club/store-directory/api/internal/catalog/application"
)

// Handler wires catalog HTTP endpoints to application services.
type Handler struct {
	logger  *log.Logger
	stores  catalogapp.StoreService
	queries catalogapp.StoreQueryService
	reviews catalogapp.ReviewService
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger  *log.Logger
	Stores  catalogapp.StoreService
	Queries catalogapp.StoreQueryService
	Reviews catalogapp.ReviewService
}

// NewHandler constructs the catalog HTTP handler set.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		logger:  cfg.Logger,
		stores:  cfg.Stores,
		queries: cfg.Queries,
		reviews: cfg.Reviews,
	}
}

// Register mounts the catalog routes onto the router. Static segments are
// registered alongside /stores/{slug}; chi resolves them first.
func (h *Handler) Register(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/stores", h.storeListHandler())
	r.Get("/stores/top", h.topStoresHandler())
	r.Get("/stores/search", h.searchHandler())
	r.Get("/stores/near", h.mapHandler())
	r.Get("/stores/tags", h.tagsHandler())
	r.Get("/stores/tags/{tag}", h.tagsHandler())
	r.Get("/stores/{slug}", h.storeDetailHandler())
	r.With(authMiddleware).Post("/stores", h.storeCreateHandler())
	r.With(authMiddleware).Post("/stores/{id}", h.storeUpdateHandler())
	r.With(authMiddleware).Post("/stores/{id}/reviews", h.reviewCreateHandler())
}
