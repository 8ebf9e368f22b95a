package account

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/umaimono-club/store-directory/api/internal/interfaces/http/common"
)

func (h *Handler) heartToggleHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := common.UserFromContext(r.Context())
		if !ok {
			common.WriteError(h.logger, w, http.StatusInternalServerError, "認証情報を取得できませんでした")
			return
		}

		storeID := strings.TrimSpace(chi.URLParam(r, "id"))
		if storeID == "" {
			common.WriteError(h.logger, w, http.StatusBadRequest, "店舗IDが指定されていません")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
		defer cancel()

		user, err := h.accounts.ToggleHeart(ctx, principal.ID, storeID)
		if err != nil {
			if writeAccountError(h.logger, w, err) {
				return
			}
			h.logger.Printf("heart toggle failed user=%s store=%s err=%v", principal.ID, storeID, err)
			common.WriteError(h.logger, w, http.StatusInternalServerError, "お気に入りの更新に失敗しました")
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, buildUserResponse(user))
	}
}

func (h *Handler) heartsHandler() http.HandlerFunc {
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
			h.logger.Printf("hearts fetch failed user=%s err=%v", principal.ID, err)
			common.WriteError(h.logger, w, http.StatusInternalServerError, "お気に入りの取得に失敗しました")
			return
		}

		stores, err := h.stores.ByIDs(ctx, user.Hearts)
		if err != nil {
			h.logger.Printf("hearted stores fetch failed user=%s err=%v", principal.ID, err)
			common.WriteError(h.logger, w, http.StatusInternalServerError, "お気に入り店舗の取得に失敗しました")
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, buildHeartedStoreResponses(stores))
	}
}
