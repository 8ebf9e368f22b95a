package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/umaimono-club/store-directory/api/internal/catalog/domain"
	"github.com/umaimono-club/store-directory/api/internal/interfaces/http/common"
)

const handlerTimeout = 5 * time.Second

func (h *Handler) storeListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
		defer cancel()

		page, _ := common.ParsePositiveInt(r.URL.Query().Get("page"), 1)

		result, err := h.queries.ListPage(ctx, page)
		if err != nil {
			var outOfRange *domain.PageOutOfRangeError
			if errors.As(err, &outOfRange) {
				last := outOfRange.LastPage
				if last < 1 {
					last = 1
				}
				http.Redirect(w, r, fmt.Sprintf("/stores?page=%d", last), http.StatusSeeOther)
				return
			}
			h.logger.Printf("store list fetch failed page=%d err=%v", page, err)
			common.WriteError(h.logger, w, http.StatusInternalServerError, "店舗一覧の取得に失敗しました")
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, storeListResponse{
			Items: buildStoreResponses(result.Stores),
			Page:  result.Page,
			Pages: result.Pages,
			Total: result.Total,
		})
	}
}

func (h *Handler) storeDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
		defer cancel()

		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		if slug == "" {
			common.WriteError(h.logger, w, http.StatusBadRequest, "スラッグが指定されていません")
			return
		}

		store, err := h.queries.BySlug(ctx, slug)
		if err != nil {
			if writeDomainError(h.logger, w, err) {
				return
			}
			h.logger.Printf("store detail fetch failed slug=%q err=%v", slug, err)
			common.WriteError(h.logger, w, http.StatusInternalServerError, "店舗情報の取得に失敗しました")
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, buildStoreResponse(*store))
	}
}

func (h *Handler) tagsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
		defer cancel()

		tag := strings.TrimSpace(chi.URLParam(r, "tag"))

		tags, stores, err := h.queries.ByTag(ctx, tag)
		if err != nil {
			h.logger.Printf("tag page fetch failed tag=%q err=%v", tag, err)
			common.WriteError(h.logger, w, http.StatusInternalServerError, "タグ一覧の取得に失敗しました")
			return
		}

		tagItems := make([]tagCountResponse, 0, len(tags))
		for _, t := range tags {
			tagItems = append(tagItems, tagCountResponse{Tag: t.Tag, Count: t.Count})
		}
		common.WriteJSON(h.logger, w, http.StatusOK, tagPageResponse{
			Tag:    tag,
			Tags:   tagItems,
			Stores: buildStoreResponses(stores),
		})
	}
}

func (h *Handler) searchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
		defer cancel()

		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			common.WriteError(h.logger, w, http.StatusBadRequest, "検索キーワードを指定してください")
			return
		}

		stores, err := h.queries.Search(ctx, query)
		if err != nil {
			h.logger.Printf("store search failed q=%q err=%v", query, err)
			common.WriteError(h.logger, w, http.StatusInternalServerError, "店舗検索に失敗しました")
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, buildStoreResponses(stores))
	}
}

func (h *Handler) mapHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
		defer cancel()

		query := r.URL.Query()
		lng, okLng := common.ParseCoordinate(query.Get("lng"))
		lat, okLat := common.ParseCoordinate(query.Get("lat"))
		if !okLng || !okLat {
			common.WriteError(h.logger, w, http.StatusBadRequest, "lng と lat を数値で指定してください")
			return
		}

		pins, err := h.queries.Near(ctx, lng, lat)
		if err != nil {
			h.logger.Printf("near query failed lng=%f lat=%f err=%v", lng, lat, err)
			common.WriteError(h.logger, w, http.StatusInternalServerError, "周辺店舗の取得に失敗しました")
			return
		}

		items := make([]storePinResponse, 0, len(pins))
		for _, pin := range pins {
			items = append(items, storePinResponse{ID: pin.ID, Name: pin.Name, Photo: pin.Photo})
		}
		common.WriteJSON(h.logger, w, http.StatusOK, items)
	}
}

func (h *Handler) topStoresHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
		defer cancel()

		ranked, err := h.queries.Top(ctx)
		if err != nil {
			h.logger.Printf("top stores fetch failed: %v", err)
			common.WriteError(h.logger, w, http.StatusInternalServerError, "ランキングの取得に失敗しました")
			return
		}

		items := make([]rankedStoreResponse, 0, len(ranked))
		for _, store := range ranked {
			items = append(items, rankedStoreResponse{
				ID:            store.ID,
				Name:          store.Name,
				Slug:          store.Slug,
				Photo:         store.Photo,
				ReviewCount:   store.ReviewCount,
				AverageRating: store.AverageRating,
			})
		}
		common.WriteJSON(h.logger, w, http.StatusOK, items)
	}
}
