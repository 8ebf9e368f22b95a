package account

import (
	"errors"
	"log"
	"net/http"
	"time"

	accountdomain "github.com/umaimono-club/store-directory/api/internal/account/domain"
	catalogdomain "github.com/umaimono-club/store-directory/api/internal/catalog/domain"
	"github.com/umaimono-club/store-directory/api/internal/interfaces/http/common"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotRequest struct {
	Email string `json:"email"`
}

type resetRequest struct {
	Password string `json:"password"`
}

type updateAccountRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type userResponse struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Hearts  []string  `json:"hearts"`
	Created time.Time `json:"created"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      userResponse `json:"user"`
}

type heartedStoreResponse struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Slug    string    `json:"slug"`
	Photo   string    `json:"photo,omitempty"`
	Tags    []string  `json:"tags,omitempty"`
	Created time.Time `json:"created"`
	Reviews int       `json:"reviewCount"`
}

func buildUserResponse(user *accountdomain.User) userResponse {
	hearts := user.Hearts
	if hearts == nil {
		hearts = []string{}
	}
	return userResponse{
		ID:      user.ID,
		Name:    user.Name,
		Email:   user.Email,
		Hearts:  hearts,
		Created: user.Created,
	}
}

func buildHeartedStoreResponses(stores []catalogdomain.Store) []heartedStoreResponse {
	items := make([]heartedStoreResponse, 0, len(stores))
	for _, store := range stores {
		items = append(items, heartedStoreResponse{
			ID:      store.ID,
			Name:    store.Name,
			Slug:    store.Slug,
			Photo:   store.Photo,
			Tags:    store.Tags,
			Created: store.Created,
			Reviews: len(store.Reviews),
		})
	}
	return items
}

// writeAccountError maps account errors onto HTTP statuses.
func writeAccountError(logger *log.Logger, w http.ResponseWriter, err error) bool {
	var validation *accountdomain.ValidationError
	switch {
	case errors.As(err, &validation):
		common.WriteError(logger, w, http.StatusBadRequest, validation.Error())
	case errors.Is(err, accountdomain.ErrEmailTaken):
		common.WriteError(logger, w, http.StatusConflict, "このメールアドレスは既に登録されています")
	case errors.Is(err, accountdomain.ErrInvalidCredentials):
		common.WriteError(logger, w, http.StatusUnauthorized, "メールアドレスまたはパスワードが正しくありません")
	case errors.Is(err, accountdomain.ErrResetTokenInvalid):
		common.WriteError(logger, w, http.StatusBadRequest, "リセットトークンが無効か、期限切れです")
	case errors.Is(err, accountdomain.ErrNotFound):
		common.WriteError(logger, w, http.StatusNotFound, "ユーザーが見つかりません")
	default:
		return false
	}
	return true
}
