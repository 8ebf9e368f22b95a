package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umaimono-club/store-directory/api/internal/catalog/domain"
)

type fakeReviewRepo struct {
	created []*domain.Review
}

func (f *fakeReviewRepo) Create(_ context.Context, review *domain.Review) error {
	review.ID = "r1"
	f.created = append(f.created, review)
	return nil
}

func TestReviewServiceAdd(t *testing.T) {
	stores := &fakeStoreRepo{
		findByIDFn: func(_ context.Context, id string) (*domain.Store, error) {
			return &domain.Store{ID: id}, nil
		},
	}
	reviews := &fakeReviewRepo{}
	svc := NewReviewService(stores, reviews)

	review, err := svc.Add(context.Background(), "s1", "u1", 4, "  solid lunch spot  ")
	require.NoError(t, err)
	assert.Equal(t, "r1", review.ID)
	assert.Equal(t, "s1", review.StoreID)
	assert.Equal(t, "u1", review.AuthorID)
	assert.Equal(t, "solid lunch spot", review.Text)
	assert.False(t, review.Created.IsZero())
	assert.Len(t, reviews.created, 1)
}

func TestReviewServiceAddInvalidRating(t *testing.T) {
	svc := NewReviewService(&fakeStoreRepo{}, &fakeReviewRepo{})

	_, err := svc.Add(context.Background(), "s1", "u1", 0, "text")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "rating", verr.Field)
}

func TestReviewServiceAddUnknownStore(t *testing.T) {
	reviews := &fakeReviewRepo{}
	svc := NewReviewService(&fakeStoreRepo{}, reviews)

	_, err := svc.Add(context.Background(), "missing", "u1", 4, "text")
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, reviews.created)
}
