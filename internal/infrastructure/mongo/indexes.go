package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes は起動時に必要なインデックスを揃える。
// stores: name+description のテキスト、location の 2dsphere、slug のユニーク。
// users: email のユニーク。reviews: 逆参照キー store。
// slug のユニークインデックスにより、同名同時保存の競合は黙って重複せず
// 書き込みエラーとして表面化する。
func EnsureIndexes(ctx context.Context, db *mongo.Database, storeCollection, reviewCollection, userCollection string) error {
	storeIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "name", Value: "text"},
				{Key: "description", Value: "text"},
			},
		},
		{
			Keys: bson.D{{Key: "location", Value: "2dsphere"}},
		},
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "created", Value: -1}},
		},
	}
	if _, err := db.Collection(storeCollection).Indexes().CreateMany(ctx, storeIndexes); err != nil {
		return err
	}

	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := db.Collection(userCollection).Indexes().CreateMany(ctx, userIndexes); err != nil {
		return err
	}

	reviewIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "store", Value: 1}},
		},
	}
	_, err := db.Collection(reviewCollection).Indexes().CreateMany(ctx, reviewIndexes)
	return err
}
