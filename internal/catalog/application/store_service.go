package application

import (
	"context"
	"time"

	"github.com/umaimono-club/store-directory/api/internal/catalog/domain"
)

// storeService is the concrete implementation of StoreService.
type storeService struct {
	stores StoreRepository
	photos *PhotoService
}

// NewStoreService creates the store command service.
func NewStoreService(stores StoreRepository, photos *PhotoService) StoreService {
	return &storeService{stores: stores, photos: photos}
}

// Create validates the payload, runs the photo pipeline when a file is
// attached and persists the store with the requester as author. The slug
// is assigned by the repository during the write.
func (s *storeService) Create(ctx context.Context, authorID string, payload domain.StorePayload, upload *Upload) (*domain.Store, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	photo, err := s.photos.Process(ctx, upload)
	if err != nil {
		return nil, err
	}
	if photo != "" {
		payload.Photo = photo
	}

	store := &domain.Store{
		Name:        payload.Name,
		Description: payload.Description,
		Tags:        payload.Tags,
		Location:    payload.Location,
		Photo:       payload.Photo,
		AuthorID:    authorID,
		Created:     time.Now().UTC(),
	}
	if err := s.stores.Create(ctx, store); err != nil {
		return nil, err
	}
	return store, nil
}

// Update loads the store, asserts ownership, re-runs validation and applies
// the payload. The slug is cleared only when the name actually changed,
// which tells the repository to regenerate it; untouched saves never move
// a store's URL.
func (s *storeService) Update(ctx context.Context, id, requesterID string, payload domain.StorePayload, upload *Upload) (*domain.Store, error) {
	store, err := s.stores.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if store.AuthorID != requesterID {
		return nil, domain.ErrNotOwner
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	photo, err := s.photos.Process(ctx, upload)
	if err != nil {
		return nil, err
	}

	if payload.Name != store.Name {
		store.Slug = ""
	}
	store.Name = payload.Name
	store.Description = payload.Description
	store.Tags = payload.Tags
	store.Location = payload.Location
	if photo != "" {
		store.Photo = photo
	}

	if err := s.stores.Update(ctx, store); err != nil {
		return nil, err
	}
	return store, nil
}
