package account

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	accountapp "github.com/umaimono-club/store-directory/api/internal/account/application"
	accountdomain "github.com/umaimono-club/store-directory/api/internal/account/domain"
	catalogapp "github.com/umaimono-club/store-directory/api/internal/catalog/application"
)

// TokenIssuer signs an access token for an authenticated account.
type TokenIssuer interface {
	Issue(user *accountdomain.User) (token string, expiresAt time.Time, err error)
}

// Handler wires account HTTP endpoints to application services.
type Handler struct {
	logger   *log.Logger
	accounts accountapp.AccountService
	stores   catalogapp.StoreQueryService
	tokens   TokenIssuer
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger   *log.Logger
	Accounts accountapp.AccountService
	Stores   catalogapp.StoreQueryService
	Tokens   TokenIssuer
}

// NewHandler constructs the account HTTP handler set.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		logger:   cfg.Logger,
		accounts: cfg.Accounts,
		stores:   cfg.Stores,
		tokens:   cfg.Tokens,
	}
}

// Register mounts the account routes onto the router.
func (h *Handler) Register(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Post("/register", h.registerHandler())
	r.Post("/login", h.loginHandler())
	r.Post("/account/forgot", h.forgotHandler())
	r.Post("/account/reset/{token}", h.resetHandler())
	r.With(authMiddleware).Get("/account", h.accountHandler())
	r.With(authMiddleware).Post("/account", h.accountUpdateHandler())
	r.With(authMiddleware).Post("/stores/{id}/heart", h.heartToggleHandler())
	r.With(authMiddleware).Get("/hearts", h.heartsHandler())
}
