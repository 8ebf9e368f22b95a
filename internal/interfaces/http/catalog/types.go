package catalog

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/umaimono-club/store-directory/api/internal/catalog/domain"
	"github.com/umaimono-club/store-directory/api/internal/interfaces/http/common"
)

type locationPayload struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
	Address     string    `json:"address"`
}

type authorResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type reviewResponse struct {
	ID      string    `json:"id"`
	Store   string    `json:"store"`
	Author  string    `json:"author"`
	Rating  float64   `json:"rating"`
	Text    string    `json:"text"`
	Created time.Time `json:"created"`
}

type storeResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Slug        string           `json:"slug"`
	Description string           `json:"description,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
	Created     time.Time        `json:"created"`
	Location    *locationPayload `json:"location,omitempty"`
	Photo       string           `json:"photo,omitempty"`
	Author      *authorResponse  `json:"author,omitempty"`
	Reviews     []reviewResponse `json:"reviews"`
}

type storeListResponse struct {
	Items []storeResponse `json:"items"`
	Page  int             `json:"page"`
	Pages int             `json:"pages"`
	Total int64           `json:"total"`
}

type storePinResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Photo string `json:"photo,omitempty"`
}

type tagCountResponse struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type tagPageResponse struct {
	Tag    string             `json:"tag,omitempty"`
	Tags   []tagCountResponse `json:"tags"`
	Stores []storeResponse    `json:"stores"`
}

type rankedStoreResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Slug          string  `json:"slug"`
	Photo         string  `json:"photo,omitempty"`
	ReviewCount   int     `json:"reviewCount"`
	AverageRating float64 `json:"averageRating"`
}

func buildStoreResponse(store domain.Store) storeResponse {
	resp := storeResponse{
		ID:          store.ID,
		Name:        store.Name,
		Slug:        store.Slug,
		Description: store.Description,
		Tags:        store.Tags,
		Created:     store.Created,
		Photo:       store.Photo,
		Reviews:     make([]reviewResponse, 0, len(store.Reviews)),
	}
	if store.Location != nil {
		resp.Location = &locationPayload{
			Type:        store.Location.Type,
			Coordinates: store.Location.Coordinates,
			Address:     store.Location.Address,
		}
	}
	if store.Author != nil {
		resp.Author = &authorResponse{ID: store.Author.ID, Name: store.Author.Name}
	}
	for _, review := range store.Reviews {
		resp.Reviews = append(resp.Reviews, buildReviewResponse(review))
	}
	return resp
}

func buildStoreResponses(stores []domain.Store) []storeResponse {
	items := make([]storeResponse, 0, len(stores))
	for _, store := range stores {
		items = append(items, buildStoreResponse(store))
	}
	return items
}

func buildReviewResponse(review domain.Review) reviewResponse {
	return reviewResponse{
		ID:      review.ID,
		Store:   review.StoreID,
		Author:  review.AuthorID,
		Rating:  review.Rating,
		Text:    review.Text,
		Created: review.Created,
	}
}

// writeDomainError maps catalog errors onto HTTP statuses. Anything not in
// the taxonomy propagates as a 500 after being logged by the caller.
func writeDomainError(logger *log.Logger, w http.ResponseWriter, err error) bool {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		common.WriteError(logger, w, http.StatusBadRequest, validation.Error())
	case errors.Is(err, domain.ErrInvalidFileType):
		common.WriteError(logger, w, http.StatusBadRequest, "画像ファイルのみアップロードできます")
	case errors.Is(err, domain.ErrNotFound):
		common.WriteError(logger, w, http.StatusNotFound, "店舗が見つかりません")
	case errors.Is(err, domain.ErrNotOwner):
		common.WriteError(logger, w, http.StatusForbidden, "この店舗を編集できるのは作成者のみです")
	case errors.Is(err, domain.ErrSlugTaken):
		common.WriteError(logger, w, http.StatusConflict, "同名の店舗が同時に作成されました。もう一度お試しください")
	default:
		return false
	}
	return true
}
