package application

import (
	"context"
	"strings"

	"github.com/umaimono-club/store-directory/api/internal/catalog/domain"
)

const (
	// DefaultPageSize is the listing page size.
	DefaultPageSize = 4
	// searchLimit caps full-text search results.
	searchLimit = 5
	// nearMaxMeters is the map query radius.
	nearMaxMeters = 10000
	// topStoresLimit caps the ranking output.
	topStoresLimit = 10
)

// storeQueryService is the concrete implementation of StoreQueryService.
type storeQueryService struct {
	stores StoreRepository
}

// NewStoreQueryService creates the catalog read service.
func NewStoreQueryService(stores StoreRepository) StoreQueryService {
	return &storeQueryService{stores: stores}
}

// ListPage returns one page of stores sorted by creation time descending.
// Requests beyond the last page fail with *domain.PageOutOfRangeError so
// the transport can redirect to the last valid page.
func (s *storeQueryService) ListPage(ctx context.Context, page int) (*StorePage, error) {
	if page < 1 {
		page = 1
	}
	stores, total, err := s.stores.FindPage(ctx, page, DefaultPageSize)
	if err != nil {
		return nil, err
	}
	pages := int((total + DefaultPageSize - 1) / DefaultPageSize)
	if len(stores) == 0 && page > 1 && total > 0 {
		return nil, &domain.PageOutOfRangeError{Page: page, LastPage: pages}
	}
	return &StorePage{Stores: stores, Page: page, Pages: pages, Total: total}, nil
}

func (s *storeQueryService) BySlug(ctx context.Context, slug string) (*domain.Store, error) {
	return s.stores.FindBySlug(ctx, strings.TrimSpace(slug))
}

func (s *storeQueryService) ByIDs(ctx context.Context, ids []string) ([]domain.Store, error) {
	return s.stores.FindByIDs(ctx, ids)
}

// ByTag returns the tag histogram together with the stores matching the
// given tag; with no tag it returns every store carrying at least one tag.
func (s *storeQueryService) ByTag(ctx context.Context, tag string) ([]domain.TagCount, []domain.Store, error) {
	tags, err := s.stores.TagList(ctx)
	if err != nil {
		return nil, nil, err
	}
	stores, err := s.stores.FindByTag(ctx, strings.TrimSpace(tag))
	if err != nil {
		return nil, nil, err
	}
	return tags, stores, nil
}

func (s *storeQueryService) Search(ctx context.Context, query string) ([]domain.Store, error) {
	return s.stores.Search(ctx, strings.TrimSpace(query), searchLimit)
}

func (s *storeQueryService) Near(ctx context.Context, lng, lat float64) ([]domain.StorePin, error) {
	return s.stores.FindNear(ctx, lng, lat, nearMaxMeters)
}

func (s *storeQueryService) Top(ctx context.Context) ([]domain.RankedStore, error) {
	return s.stores.TopStores(ctx, topStoresLimit)
}
