package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/umaimono-club/store-directory/api/internal/catalog/application"
	"github.com/umaimono-club/store-directory/api/internal/catalog/domain"
)

// ReviewRepository implements application.ReviewRepository using MongoDB.
type ReviewRepository struct {
	reviews *mongo.Collection
}

// NewReviewRepository creates a new Mongo-backed review repository.
func NewReviewRepository(db *mongo.Database, reviewCollection string) *ReviewRepository {
	return &ReviewRepository{reviews: db.Collection(reviewCollection)}
}

// Create はレビューを保存し、採番結果をドメインモデルへ反映する。
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	storeID, err := primitive.ObjectIDFromHex(review.StoreID)
	if err != nil {
		return err
	}
	authorID, err := primitive.ObjectIDFromHex(review.AuthorID)
	if err != nil {
		return err
	}

	created := review.Created
	if created.IsZero() {
		created = time.Now().UTC()
	}
	doc := ReviewDocument{
		ID:      primitive.NewObjectID(),
		Store:   storeID,
		Author:  authorID,
		Rating:  review.Rating,
		Text:    review.Text,
		Created: created,
	}
	if _, err := r.reviews.InsertOne(ctx, doc); err != nil {
		return err
	}

	review.ID = doc.ID.Hex()
	review.Created = doc.Created
	return nil
}

var _ application.ReviewRepository = (*ReviewRepository)(nil)
