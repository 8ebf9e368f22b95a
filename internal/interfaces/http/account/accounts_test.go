package account

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountdomain "github.com/umaimono-club/store-directory/api/internal/account/domain"
	catalogapp "github.com/umaimono-club/store-directory/api/internal/catalog/application"
	catalogdomain "github.com/umaimono-club/store-directory/api/internal/catalog/domain"
	"github.com/umaimono-club/store-directory/api/internal/interfaces/http/common"
)

type fakeAccountService struct {
	registerFn     func(ctx context.Context, name, email, password string) (*accountdomain.User, error)
	authenticateFn func(ctx context.Context, email, password string) (*accountdomain.User, error)
	profileFn      func(ctx context.Context, id string) (*accountdomain.User, error)
	toggleHeartFn  func(ctx context.Context, userID, storeID string) (*accountdomain.User, error)
	forgotFn       func(ctx context.Context, email string) (string, error)
	resetFn        func(ctx context.Context, token, password string) (*accountdomain.User, error)
}

func (f *fakeAccountService) Register(ctx context.Context, name, email, password string) (*accountdomain.User, error) {
	return f.registerFn(ctx, name, email, password)
}

func (f *fakeAccountService) Authenticate(ctx context.Context, email, password string) (*accountdomain.User, error) {
	return f.authenticateFn(ctx, email, password)
}

func (f *fakeAccountService) Profile(ctx context.Context, id string) (*accountdomain.User, error) {
	return f.profileFn(ctx, id)
}

func (f *fakeAccountService) UpdateProfile(context.Context, string, string, string) (*accountdomain.User, error) {
	return nil, accountdomain.ErrNotFound
}

func (f *fakeAccountService) ToggleHeart(ctx context.Context, userID, storeID string) (*accountdomain.User, error) {
	return f.toggleHeartFn(ctx, userID, storeID)
}

func (f *fakeAccountService) ForgotPassword(ctx context.Context, email string) (string, error) {
	return f.forgotFn(ctx, email)
}

func (f *fakeAccountService) ResetPassword(ctx context.Context, token, password string) (*accountdomain.User, error) {
	return f.resetFn(ctx, token, password)
}

type fakeStoreQueries struct {
	byIDsFn func(ctx context.Context, ids []string) ([]catalogdomain.Store, error)
}

func (f *fakeStoreQueries) ListPage(context.Context, int) (*catalogapp.StorePage, error) {
	return nil, nil
}

func (f *fakeStoreQueries) BySlug(context.Context, string) (*catalogdomain.Store, error) {
	return nil, catalogdomain.ErrNotFound
}

func (f *fakeStoreQueries) ByIDs(ctx context.Context, ids []string) ([]catalogdomain.Store, error) {
	return f.byIDsFn(ctx, ids)
}

func (f *fakeStoreQueries) ByTag(context.Context, string) ([]catalogdomain.TagCount, []catalogdomain.Store, error) {
	return nil, nil, nil
}

func (f *fakeStoreQueries) Search(context.Context, string) ([]catalogdomain.Store, error) {
	return nil, nil
}

func (f *fakeStoreQueries) Near(context.Context, float64, float64) ([]catalogdomain.StorePin, error) {
	return nil, nil
}

func (f *fakeStoreQueries) Top(context.Context) ([]catalogdomain.RankedStore, error) {
	return nil, nil
}

var _ catalogapp.StoreQueryService = (*fakeStoreQueries)(nil)

type staticIssuer struct{}

func (staticIssuer) Issue(user *accountdomain.User) (string, time.Time, error) {
	return "token-for-" + user.ID, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), nil
}

func newTestRouter(accounts *fakeAccountService, stores *fakeStoreQueries) http.Handler {
	handler := NewHandler(Config{
		Logger:   log.New(io.Discard, "", 0),
		Accounts: accounts,
		Stores:   stores,
		Tokens:   staticIssuer{},
	})
	router := chi.NewRouter()
	auth := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := common.ContextWithUser(r.Context(), common.AuthenticatedUser{ID: "u1", Name: "Wes", Email: "wes@example.com"})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
	handler.Register(router, auth)
	return router
}

func TestRegisterHandler(t *testing.T) {
	accounts := &fakeAccountService{
		registerFn: func(_ context.Context, name, email, password string) (*accountdomain.User, error) {
			assert.Equal(t, "Wes", name)
			return &accountdomain.User{ID: "u1", Name: name, Email: "wes@example.com"}, nil
		},
	}

	body := strings.NewReader(`{"name":"Wes","email":"wes@example.com","password":"correct horse"}`)
	rec := httptest.NewRecorder()
	newTestRouter(accounts, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/register", body))

	require.Equal(t, http.StatusCreated, rec.Code)
	var user struct {
		ID     string   `json:"id"`
		Hearts []string `json:"hearts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "u1", user.ID)
	assert.NotNil(t, user.Hearts, "hearts must serialise as an empty array, not null")
}

func TestRegisterHandlerEmailTaken(t *testing.T) {
	accounts := &fakeAccountService{
		registerFn: func(context.Context, string, string, string) (*accountdomain.User, error) {
			return nil, accountdomain.ErrEmailTaken
		},
	}

	body := strings.NewReader(`{"name":"Wes","email":"wes@example.com","password":"correct horse"}`)
	rec := httptest.NewRecorder()
	newTestRouter(accounts, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/register", body))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterHandlerRejectsUnknownFields(t *testing.T) {
	body := strings.NewReader(`{"name":"Wes","admin":true}`)
	rec := httptest.NewRecorder()
	newTestRouter(&fakeAccountService{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/register", body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginHandler(t *testing.T) {
	accounts := &fakeAccountService{
		authenticateFn: func(_ context.Context, email, password string) (*accountdomain.User, error) {
			return &accountdomain.User{ID: "u1", Name: "Wes", Email: email}, nil
		},
	}

	body := strings.NewReader(`{"email":"wes@example.com","password":"correct horse"}`)
	rec := httptest.NewRecorder()
	newTestRouter(accounts, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", body))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "token-for-u1", resp.Token)
	assert.Equal(t, "u1", resp.User.ID)
}

func TestLoginHandlerBadCredentials(t *testing.T) {
	accounts := &fakeAccountService{
		authenticateFn: func(context.Context, string, string) (*accountdomain.User, error) {
			return nil, accountdomain.ErrInvalidCredentials
		},
	}

	body := strings.NewReader(`{"email":"wes@example.com","password":"nope nope"}`)
	rec := httptest.NewRecorder()
	newTestRouter(accounts, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", body))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHeartToggleHandler(t *testing.T) {
	accounts := &fakeAccountService{
		toggleHeartFn: func(_ context.Context, userID, storeID string) (*accountdomain.User, error) {
			assert.Equal(t, "u1", userID)
			assert.Equal(t, "s1", storeID)
			return &accountdomain.User{ID: userID, Hearts: []string{"s1"}}, nil
		},
	}

	rec := httptest.NewRecorder()
	newTestRouter(accounts, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/stores/s1/heart", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var user struct {
		Hearts []string `json:"hearts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, []string{"s1"}, user.Hearts)
}

func TestHeartsHandler(t *testing.T) {
	accounts := &fakeAccountService{
		profileFn: func(_ context.Context, id string) (*accountdomain.User, error) {
			return &accountdomain.User{ID: id, Hearts: []string{"s1", "s2"}}, nil
		},
	}
	stores := &fakeStoreQueries{
		byIDsFn: func(_ context.Context, ids []string) ([]catalogdomain.Store, error) {
			assert.Equal(t, []string{"s1", "s2"}, ids)
			return []catalogdomain.Store{
				{ID: "s1", Name: "Cafe Deluxe", Slug: "cafe-deluxe", Reviews: []catalogdomain.Review{{ID: "r1"}}},
				{ID: "s2", Name: "Thai Aree", Slug: "thai-aree"},
			}, nil
		},
	}

	rec := httptest.NewRecorder()
	newTestRouter(accounts, stores).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hearts", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var items []struct {
		Slug        string `json:"slug"`
		ReviewCount int    `json:"reviewCount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "cafe-deluxe", items[0].Slug)
	assert.Equal(t, 1, items[0].ReviewCount)
}

func TestForgotHandlerHidesUnknownEmail(t *testing.T) {
	accounts := &fakeAccountService{
		forgotFn: func(context.Context, string) (string, error) {
			return "", accountdomain.ErrNotFound
		},
	}

	body := strings.NewReader(`{"email":"nobody@example.com"}`)
	rec := httptest.NewRecorder()
	newTestRouter(accounts, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/account/forgot", body))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	_, leaked := resp["resetToken"]
	assert.False(t, leaked, "unknown emails must not receive a token")
}

func TestResetHandlerInvalidToken(t *testing.T) {
	accounts := &fakeAccountService{
		resetFn: func(context.Context, string, string) (*accountdomain.User, error) {
			return nil, accountdomain.ErrResetTokenInvalid
		},
	}

	body := strings.NewReader(`{"password":"new password here"}`)
	rec := httptest.NewRecorder()
	newTestRouter(accounts, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/account/reset/deadbeef", body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
