package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umaimono-club/store-directory/api/internal/catalog/domain"
)

// fakeStoreRepo lets each test plug in just the repository behavior it
// needs; unset methods return zero values.
type fakeStoreRepo struct {
	createFn    func(ctx context.Context, store *domain.Store) error
	updateFn    func(ctx context.Context, store *domain.Store) error
	findByIDFn  func(ctx context.Context, id string) (*domain.Store, error)
	findPageFn  func(ctx context.Context, page, limit int) ([]domain.Store, int64, error)
	searchFn    func(ctx context.Context, query string, limit int64) ([]domain.Store, error)
	findNearFn  func(ctx context.Context, lng, lat float64, maxMeters int) ([]domain.StorePin, error)
	topStoresFn func(ctx context.Context, limit int64) ([]domain.RankedStore, error)
}

func (f *fakeStoreRepo) Create(ctx context.Context, store *domain.Store) error {
	if f.createFn != nil {
		return f.createFn(ctx, store)
	}
	return nil
}

func (f *fakeStoreRepo) Update(ctx context.Context, store *domain.Store) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, store)
	}
	return nil
}

func (f *fakeStoreRepo) FindByID(ctx context.Context, id string) (*domain.Store, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeStoreRepo) FindBySlug(ctx context.Context, slug string) (*domain.Store, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeStoreRepo) FindPage(ctx context.Context, page, limit int) ([]domain.Store, int64, error) {
	if f.findPageFn != nil {
		return f.findPageFn(ctx, page, limit)
	}
	return nil, 0, nil
}

func (f *fakeStoreRepo) FindByIDs(ctx context.Context, ids []string) ([]domain.Store, error) {
	return nil, nil
}

func (f *fakeStoreRepo) FindByTag(ctx context.Context, tag string) ([]domain.Store, error) {
	return nil, nil
}

func (f *fakeStoreRepo) Search(ctx context.Context, query string, limit int64) ([]domain.Store, error) {
	if f.searchFn != nil {
		return f.searchFn(ctx, query, limit)
	}
	return nil, nil
}

func (f *fakeStoreRepo) FindNear(ctx context.Context, lng, lat float64, maxMeters int) ([]domain.StorePin, error) {
	if f.findNearFn != nil {
		return f.findNearFn(ctx, lng, lat, maxMeters)
	}
	return nil, nil
}

func (f *fakeStoreRepo) TagList(ctx context.Context) ([]domain.TagCount, error) {
	return nil, nil
}

func (f *fakeStoreRepo) TopStores(ctx context.Context, limit int64) ([]domain.RankedStore, error) {
	if f.topStoresFn != nil {
		return f.topStoresFn(ctx, limit)
	}
	return nil, nil
}

var _ StoreRepository = (*fakeStoreRepo)(nil)

func testPayload() domain.StorePayload {
	return domain.StorePayload{
		Name:        "Cafe Deluxe",
		Description: "Third wave espresso.",
		Tags:        []string{"Wifi"},
		Location: &domain.Location{
			Type:        "Point",
			Coordinates: []float64{-73.6, 45.52},
			Address:     "Montréal",
		},
	}
}

func TestStoreServiceCreate(t *testing.T) {
	var created *domain.Store
	repo := &fakeStoreRepo{
		createFn: func(_ context.Context, store *domain.Store) error {
			store.ID = "s1"
			store.Slug = "cafe-deluxe"
			created = store
			return nil
		},
	}
	svc := NewStoreService(repo, NewPhotoService(newMemoryPhotoStore()))

	store, err := svc.Create(context.Background(), "u1", testPayload(), nil)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "s1", store.ID)
	assert.Equal(t, "cafe-deluxe", store.Slug)
	assert.Equal(t, "u1", store.AuthorID)
	assert.Equal(t, "Cafe Deluxe", store.Name)
	assert.False(t, store.Created.IsZero())
}

func TestStoreServiceCreateInvalidPayload(t *testing.T) {
	repo := &fakeStoreRepo{
		createFn: func(context.Context, *domain.Store) error {
			t.Fatal("repository must not be reached on validation failure")
			return nil
		},
	}
	svc := NewStoreService(repo, NewPhotoService(newMemoryPhotoStore()))

	payload := testPayload()
	payload.Name = "  "
	_, err := svc.Create(context.Background(), "u1", payload, nil)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestStoreServiceCreateRejectsBadUpload(t *testing.T) {
	repo := &fakeStoreRepo{
		createFn: func(context.Context, *domain.Store) error {
			t.Fatal("repository must not be reached when the upload is rejected")
			return nil
		},
	}
	sink := newMemoryPhotoStore()
	svc := NewStoreService(repo, NewPhotoService(sink))

	upload := &Upload{Filename: "notes.txt", ContentType: "text/plain", Data: []byte("hello")}
	_, err := svc.Create(context.Background(), "u1", testPayload(), upload)
	require.ErrorIs(t, err, domain.ErrInvalidFileType)
	assert.Empty(t, sink.saved)
}

func TestStoreServiceCreatePhotoSinkFailure(t *testing.T) {
	repo := &fakeStoreRepo{
		createFn: func(context.Context, *domain.Store) error {
			t.Fatal("repository must not be reached when the photo write fails")
			return nil
		},
	}
	sink := newMemoryPhotoStore()
	sink.err = errors.New("disk full")
	svc := NewStoreService(repo, NewPhotoService(sink))

	_, err := svc.Create(context.Background(), "u1", testPayload(), pngUpload(t, 10, 10))
	require.Error(t, err)
}

func TestStoreServiceUpdateNotOwner(t *testing.T) {
	repo := &fakeStoreRepo{
		findByIDFn: func(_ context.Context, id string) (*domain.Store, error) {
			return &domain.Store{ID: id, Name: "Cafe Deluxe", Slug: "cafe-deluxe", AuthorID: "owner"}, nil
		},
	}
	svc := NewStoreService(repo, NewPhotoService(newMemoryPhotoStore()))

	_, err := svc.Update(context.Background(), "s1", "intruder", testPayload(), nil)
	require.ErrorIs(t, err, domain.ErrNotOwner)
}

func TestStoreServiceUpdateKeepsSlugWhenNameUnchanged(t *testing.T) {
	var updated *domain.Store
	repo := &fakeStoreRepo{
		findByIDFn: func(_ context.Context, id string) (*domain.Store, error) {
			return &domain.Store{ID: id, Name: "Cafe Deluxe", Slug: "cafe-deluxe", AuthorID: "u1", Photo: "old.jpg"}, nil
		},
		updateFn: func(_ context.Context, store *domain.Store) error {
			updated = store
			return nil
		},
	}
	svc := NewStoreService(repo, NewPhotoService(newMemoryPhotoStore()))

	store, err := svc.Update(context.Background(), "s1", "u1", testPayload(), nil)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "cafe-deluxe", store.Slug)
	assert.Equal(t, "old.jpg", store.Photo, "absent upload must not clear the photo")
}

func TestStoreServiceUpdateClearsSlugOnRename(t *testing.T) {
	var updated *domain.Store
	repo := &fakeStoreRepo{
		findByIDFn: func(_ context.Context, id string) (*domain.Store, error) {
			return &domain.Store{ID: id, Name: "Cafe Deluxe", Slug: "cafe-deluxe", AuthorID: "u1"}, nil
		},
		updateFn: func(_ context.Context, store *domain.Store) error {
			updated = store
			return nil
		},
	}
	svc := NewStoreService(repo, NewPhotoService(newMemoryPhotoStore()))

	payload := testPayload()
	payload.Name = "Cafe Supreme"
	_, err := svc.Update(context.Background(), "s1", "u1", payload, nil)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Empty(t, updated.Slug, "rename must hand slug regeneration to the repository")
	assert.Equal(t, "Cafe Supreme", updated.Name)
}
