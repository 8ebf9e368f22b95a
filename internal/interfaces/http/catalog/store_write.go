package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	catalogapp "github.com/umaimono-club/store-directory/api/internal/catalog/application"
	"github.com/umaimono-club/store-directory/api/internal/catalog/domain"
	"github.com/umaimono-club/store-directory/api/internal/interfaces/http/common"
)

const (
	// maxUploadBytes bounds the whole multipart form, photo included.
	maxUploadBytes = 10 << 20
	photoFieldName = "photo"
)

// parseStoreForm reads the multipart store form: name, description, tags
// (repeated field or comma-separated), address, lng, lat and an optional
// photo file. The photo's declared content type is carried as-is; the
// pipeline decides whether it is acceptable.
func parseStoreForm(r *http.Request) (domain.StorePayload, *catalogapp.Upload, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return domain.StorePayload{}, nil, &domain.ValidationError{Field: "form", Message: "multipart form could not be parsed"}
	}

	tags := r.MultipartForm.Value["tags"]
	if len(tags) == 1 && strings.Contains(tags[0], ",") {
		tags = strings.Split(tags[0], ",")
	}

	lng, okLng := common.ParseCoordinate(r.FormValue("lng"))
	lat, okLat := common.ParseCoordinate(r.FormValue("lat"))
	if !okLng || !okLat {
		return domain.StorePayload{}, nil, &domain.ValidationError{Field: "location.coordinates", Message: "lng and lat must be finite numbers"}
	}

	payload := domain.StorePayload{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Tags:        tags,
		Location: &domain.Location{
			Type:        "Point",
			Coordinates: []float64{lng, lat},
			Address:     r.FormValue("address"),
		},
	}

	upload, err := readUpload(r)
	if err != nil {
		return domain.StorePayload{}, nil, err
	}
	return payload, upload, nil
}

// readUpload pulls the optional photo file into memory.
func readUpload(r *http.Request) (*catalogapp.Upload, error) {
	file, header, err := r.FormFile(photoFieldName)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.ValidationError{Field: photoFieldName, Message: "photo upload could not be read"}
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return &catalogapp.Upload{
		Filename:    header.Filename,
		ContentType: uploadContentType(header),
		Data:        data,
	}, nil
}

func uploadContentType(header *multipart.FileHeader) string {
	return strings.TrimSpace(header.Header.Get("Content-Type"))
}

func (h *Handler) storeCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := common.UserFromContext(r.Context())
		if !ok {
			common.WriteError(h.logger, w, http.StatusInternalServerError, "認証情報を取得できませんでした")
			return
		}

		payload, upload, err := parseStoreForm(r)
		if err != nil {
			if writeDomainError(h.logger, w, err) {
				return
			}
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
		defer cancel()

		store, err := h.stores.Create(ctx, user.ID, payload, upload)
		if err != nil {
			if writeDomainError(h.logger, w, err) {
				return
			}
			h.logger.Printf("store create failed author=%s err=%v", user.ID, err)
			common.WriteError(h.logger, w, http.StatusInternalServerError, "店舗の作成に失敗しました")
			return
		}

		common.WriteJSON(h.logger, w, http.StatusCreated, buildStoreResponse(*store))
	}
}

func (h *Handler) storeUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := common.UserFromContext(r.Context())
		if !ok {
			common.WriteError(h.logger, w, http.StatusInternalServerError, "認証情報を取得できませんでした")
			return
		}

		id := strings.TrimSpace(chi.URLParam(r, "id"))
		if id == "" {
			common.WriteError(h.logger, w, http.StatusBadRequest, "店舗IDが指定されていません")
			return
		}

		payload, upload, err := parseStoreForm(r)
		if err != nil {
			if writeDomainError(h.logger, w, err) {
				return
			}
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
		defer cancel()

		store, err := h.stores.Update(ctx, id, user.ID, payload, upload)
		if err != nil {
			if writeDomainError(h.logger, w, err) {
				return
			}
			h.logger.Printf("store update failed id=%s requester=%s err=%v", id, user.ID, err)
			common.WriteError(h.logger, w, http.StatusInternalServerError, "店舗の更新に失敗しました")
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, buildStoreResponse(*store))
	}
}

type createReviewRequest struct {
	Rating float64 `json:"rating"`
	Text   string  `json:"text"`
}

func (h *Handler) reviewCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := common.UserFromContext(r.Context())
		if !ok {
			common.WriteError(h.logger, w, http.StatusInternalServerError, "認証情報を取得できませんでした")
			return
		}

		storeID := strings.TrimSpace(chi.URLParam(r, "id"))

		defer r.Body.Close()
		var req createReviewRequest
		decoder := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, fmt.Sprintf("リクエストの形式が不正です: %v", err))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
		defer cancel()

		review, err := h.reviews.Add(ctx, storeID, user.ID, req.Rating, req.Text)
		if err != nil {
			if writeDomainError(h.logger, w, err) {
				return
			}
			h.logger.Printf("review create failed store=%s author=%s err=%v", storeID, user.ID, err)
			common.WriteError(h.logger, w, http.StatusInternalServerError, "レビューの投稿に失敗しました")
			return
		}

		common.WriteJSON(h.logger, w, http.StatusCreated, buildReviewResponse(*review))
	}
}
