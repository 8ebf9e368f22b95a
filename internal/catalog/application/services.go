package application

import (
	"context"

	"github.com/umaimono-club/store-directory/api/internal/catalog/domain"
)

// StoreRepository abstracts store persistence for the catalog context.
// StoreRepository は catalog コンテキストで店舗を永続化するためのポート。
//
// Create assigns id and slug. Update regenerates the slug only when the
// caller has cleared it (the service clears it exactly when the name was
// modified). Every find-style read attaches the store's reviews by
// back-reference; FindBySlug additionally attaches the author.
type StoreRepository interface {
	Create(ctx context.Context, store *domain.Store) error
	Update(ctx context.Context, store *domain.Store) error
	FindByID(ctx context.Context, id string) (*domain.Store, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Store, error)
	FindPage(ctx context.Context, page, limit int) ([]domain.Store, int64, error)
	FindByIDs(ctx context.Context, ids []string) ([]domain.Store, error)
	FindByTag(ctx context.Context, tag string) ([]domain.Store, error)
	Search(ctx context.Context, query string, limit int64) ([]domain.Store, error)
	FindNear(ctx context.Context, lng, lat float64, maxMeters int) ([]domain.StorePin, error)
	TagList(ctx context.Context) ([]domain.TagCount, error)
	TopStores(ctx context.Context, limit int64) ([]domain.RankedStore, error)
}

// ReviewRepository persists the review back-reference collection.
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
}

// PhotoStore is the object-storage sink accepting named byte buffers.
type PhotoStore interface {
	Save(ctx context.Context, name string, data []byte) error
}

// Upload is one in-memory uploaded file as received at the transport edge.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// StoreService handles store writes.
type StoreService interface {
	Create(ctx context.Context, authorID string, payload domain.StorePayload, upload *Upload) (*domain.Store, error)
	Update(ctx context.Context, id, requesterID string, payload domain.StorePayload, upload *Upload) (*domain.Store, error)
}

// StoreQueryService describes the catalog read use-cases.
// StoreQueryService は店舗参照ユースケースを提供するリーダーモデル。
type StoreQueryService interface {
	ListPage(ctx context.Context, page int) (*StorePage, error)
	BySlug(ctx context.Context, slug string) (*domain.Store, error)
	ByIDs(ctx context.Context, ids []string) ([]domain.Store, error)
	ByTag(ctx context.Context, tag string) ([]domain.TagCount, []domain.Store, error)
	Search(ctx context.Context, query string) ([]domain.Store, error)
	Near(ctx context.Context, lng, lat float64) ([]domain.StorePin, error)
	Top(ctx context.Context) ([]domain.RankedStore, error)
}

// ReviewService handles review submissions.
type ReviewService interface {
	Add(ctx context.Context, storeID, authorID string, rating float64, text string) (*domain.Review, error)
}

// StorePage is one page of the store listing.
type StorePage struct {
	Stores []domain.Store
	Page   int
	Pages  int
	Total  int64
}
