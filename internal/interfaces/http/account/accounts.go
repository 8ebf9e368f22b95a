package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	accountdomain "github.com/umaimono-club/store-directory/api/internal/account/domain"
	"github.com/umaimono-club/store-directory/api/internal/interfaces/http/common"
)

const (
	handlerTimeout = 5 * time.Second
	maxRequestBody = 1 << 20
)

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		common.WriteError(h.logger, w, http.StatusBadRequest, fmt.Sprintf("リクエストの形式が不正です: %v", err))
		return false
	}
	return true
}

func (h *Handler) registerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if !h.decodeJSON(w, r, &req) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
		defer cancel()

		user, err := h.accounts.Register(ctx, req.Name, req.Email, req.Password)
		if err != nil {
			if writeAccountError(h.logger, w, err) {
				return
			}
			h.logger.Printf("register failed email=%q err=%v", req.Email, err)
			common.WriteError(h.logger, w, http.StatusInternalServerError, "アカウントの作成に失敗しました")
			return
		}

		common.WriteJSON(h.logger, w, http.StatusCreated, buildUserResponse(user))
	}
}

func (h *Handler) loginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if !h.decodeJSON(w, r, &req) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
		defer cancel()

		user, err := h.accounts.Authenticate(ctx, req.Email, req.Password)
		if err != nil {
			if writeAccountError(h.logger, w, err) {
				return
			}
			h.logger.Printf("login failed email=%q err=%v", req.Email, err)
			common.WriteError(h.logger, w, http.StatusInternalServerError, "ログインに失敗しました")
			return
		}

		token, expiresAt, err := h.tokens.Issue(user)
		if err != nil {
			h.logger.Printf("token issue failed user=%s err=%v", user.ID, err)
			common.WriteError(h.logger, w, http.StatusInternalServerError, "トークンの発行に失敗しました")
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, loginResponse{
			Token:     token,
			ExpiresAt: expiresAt,
			User:      buildUserResponse(user),
		})
	}
}

func (h *Handler) accountHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := common.UserFromContext(r.Context())
		if !ok {
			common.WriteError(h.logger, w, http.StatusInternalServerError, "認証情報を取得できませんでした")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
		defer cancel()

		user, err := h.accounts.Profile(ctx, principal.ID)
		if err != nil {
			if writeAccountError(h.logger, w, err) {
				return
			}
			h.logger.Printf("profile fetch failed user=%s err=%v", principal.ID, err)
			common.WriteError(h.logger, w, http.StatusInternalServerError, "アカウント情報の取得に失敗しました")
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, buildUserResponse(user))
	}
}

func (h *Handler) accountUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := common.UserFromContext(r.Context())
		if !ok {
			common.WriteError(h.logger, w, http.StatusInternalServerError, "認証情報を取得できませんでした")
			return
		}

		var req updateAccountRequest
		if !h.decodeJSON(w, r, &req) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
		defer cancel()

		user, err := h.accounts.UpdateProfile(ctx, principal.ID, req.Name, req.Email)
		if err != nil {
			if writeAccountError(h.logger, w, err) {
				return
			}
			h.logger.Printf("profile update failed user=%s err=%v", principal.ID, err)
			common.WriteError(h.logger, w, http.StatusInternalServerError, "アカウントの更新に失敗しました")
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, buildUserResponse(user))
	}
}

func (h *Handler) forgotHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req forgotRequest
		if !h.decodeJSON(w, r, &req) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
		defer cancel()

		// 存在しないメールアドレスでも同じ応答を返し、登録状況を漏らさない。
		token, err := h.accounts.ForgotPassword(ctx, req.Email)
		if err != nil {
			var validation *accountdomain.ValidationError
			if errors.As(err, &validation) {
				common.WriteError(h.logger, w, http.StatusBadRequest, validation.Error())
				return
			}
			if !errors.Is(err, accountdomain.ErrNotFound) {
				h.logger.Printf("forgot password failed email=%q err=%v", req.Email, err)
			}
			common.WriteJSON(h.logger, w, http.StatusOK, map[string]string{
				"status": "ok",
			})
			return
		}

		// メール配送は外部の関心事。開発用途としてトークンを応答に含める。
		common.WriteJSON(h.logger, w, http.StatusOK, map[string]string{
			"status":     "ok",
			"resetToken": token,
		})
	}
}

func (h *Handler) resetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(chi.URLParam(r, "token"))
		if token == "" {
			common.WriteError(h.logger, w, http.StatusBadRequest, "リセットトークンが指定されていません")
			return
		}

		var req resetRequest
		if !h.decodeJSON(w, r, &req) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
		defer cancel()

		user, err := h.accounts.ResetPassword(ctx, token, req.Password)
		if err != nil {
			if writeAccountError(h.logger, w, err) {
				return
			}
			h.logger.Printf("password reset failed err=%v", err)
			common.WriteError(h.logger, w, http.StatusInternalServerError, "パスワードの再設定に失敗しました")
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, buildUserResponse(user))
	}
}
