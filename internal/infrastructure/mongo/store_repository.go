package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/umaimono-club/store-directory/api/internal/catalog/application"
	"github.com/umaimono-club/store-directory/api/internal/catalog/domain"
)

// StoreRepository implements application.StoreRepository using MongoDB.
type StoreRepository struct {
	stores  *mongo.Collection
	reviews *mongo.Collection
	users   *mongo.Collection
}

// NewStoreRepository creates a new Mongo-backed store repository.
func NewStoreRepository(db *mongo.Database, storeCollection, reviewCollection, userCollection string) *StoreRepository {
	return &StoreRepository{
		stores:  db.Collection(storeCollection),
		reviews: db.Collection(reviewCollection),
		users:   db.Collection(userCollection),
	}
}

// Create は採番とスラッグ生成を行った上で店舗を保存する。スラッグの
// 重複チェックは check-then-write のため同名の同時保存では競合しうるが、
// ユニークインデックスが最終防衛線として ErrSlugTaken で弾く。
func (r *StoreRepository) Create(ctx context.Context, store *domain.Store) error {
	authorID, err := primitive.ObjectIDFromHex(store.AuthorID)
	if err != nil {
		return err
	}

	created := store.Created
	if created.IsZero() {
		created = time.Now().UTC()
	}
	doc := StoreDocument{
		ID:          primitive.NewObjectID(),
		Name:        store.Name,
		Description: store.Description,
		Tags:        append([]string{}, store.Tags...),
		Created:     created,
		Location:    buildLocationDocument(store.Location),
		Photo:       store.Photo,
		Author:      authorID,
	}
	if err := r.assignSlug(ctx, &doc); err != nil {
		return err
	}

	if _, err := r.stores.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrSlugTaken
		}
		return err
	}

	store.ID = doc.ID.Hex()
	store.Slug = doc.Slug
	store.Created = doc.Created
	return nil
}

// Update は店舗を差し替える。Slug が空のときだけ（= 名前が変更されたとき）
// スラッグを再生成し、それ以外の保存では既存の URL を動かさない。
func (r *StoreRepository) Update(ctx context.Context, store *domain.Store) error {
	objectID, err := primitive.ObjectIDFromHex(store.ID)
	if err != nil {
		return err
	}

	if store.Slug == "" {
		doc := StoreDocument{Name: store.Name}
		if err := r.assignSlug(ctx, &doc); err != nil {
			return err
		}
		store.Slug = doc.Slug
	}

	update := bson.M{"$set": bson.M{
		"name":        store.Name,
		"slug":        store.Slug,
		"description": store.Description,
		"tags":        append([]string{}, store.Tags...),
		"location":    buildLocationDocument(store.Location),
		"photo":       store.Photo,
	}}

	res, err := r.stores.UpdateByID(ctx, objectID, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrSlugTaken
		}
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// FindByID returns a single store with its reviews attached.
func (r *StoreRepository) FindByID(ctx context.Context, id string) (*domain.Store, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	var doc StoreDocument
	if err := r.stores.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	store := mapStoreDocument(doc)
	if err := r.attachReviews(ctx, []domain.Store{}, &store); err != nil {
		return nil, err
	}
	return &store, nil
}

// FindBySlug はスラッグで 1 件取得し、著者とレビューを合成して返す。
func (r *StoreRepository) FindBySlug(ctx context.Context, slug string) (*domain.Store, error) {
	var doc StoreDocument
	if err := r.stores.FindOne(ctx, bson.M{"slug": slug}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	store := mapStoreDocument(doc)

	var author UserDocument
	err := r.users.FindOne(ctx, bson.M{"_id": doc.Author}).Decode(&author)
	if err == nil {
		store.Author = &domain.Author{ID: author.ID.Hex(), Name: author.Name, Email: author.Email}
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	if err := r.attachReviews(ctx, []domain.Store{}, &store); err != nil {
		return nil, err
	}
	return &store, nil
}

// FindPage は作成日時の降順でページングした店舗一覧と総件数を返す。
func (r *StoreRepository) FindPage(ctx context.Context, page, limit int) ([]domain.Store, int64, error) {
	total, err := r.stores.CountDocuments(ctx, bson.D{})
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	stores, err := r.findStores(ctx, bson.D{}, opts)
	if err != nil {
		return nil, 0, err
	}
	return stores, total, nil
}

// FindByIDs returns the stores matching the given ids, reviews attached.
func (r *StoreRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Store, error) {
	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		objectID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		objectIDs = append(objectIDs, objectID)
	}
	if len(objectIDs) == 0 {
		return []domain.Store{}, nil
	}
	return r.findStores(ctx, bson.M{"_id": bson.M{"$in": objectIDs}}, nil)
}

// FindByTag returns the stores for one tag, or every tagged store.
func (r *StoreRepository) FindByTag(ctx context.Context, tag string) ([]domain.Store, error) {
	return r.findStores(ctx, byTagFilter(tag), nil)
}

// Search はテキストインデックスに対する関連度検索。スコア降順、limit 件まで。
func (r *StoreRepository) Search(ctx context.Context, query string, limit int64) ([]domain.Store, error) {
	opts := options.Find().
		SetProjection(textScoreProjection()).
		SetSort(textScoreSort()).
		SetLimit(limit)
	return r.findStores(ctx, textSearchFilter(query), opts)
}

// FindNear は近接クエリの結果を {photo, name} の射影で近い順に返す。
func (r *StoreRepository) FindNear(ctx context.Context, lng, lat float64, maxMeters int) ([]domain.StorePin, error) {
	opts := options.Find().SetProjection(bson.M{"photo": 1, "name": 1})
	cursor, err := r.stores.Find(ctx, nearFilter(lng, lat, maxMeters), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	pins := make([]domain.StorePin, 0)
	for cursor.Next(ctx) {
		var doc struct {
			ID    primitive.ObjectID `bson:"_id"`
			Name  string             `bson:"name"`
			Photo string             `bson:"photo"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		pins = append(pins, domain.StorePin{ID: doc.ID.Hex(), Name: doc.Name, Photo: doc.Photo})
	}
	return pins, cursor.Err()
}

// TagList はタグの使用回数ヒストグラムを多い順で返す。
func (r *StoreRepository) TagList(ctx context.Context) ([]domain.TagCount, error) {
	cursor, err := r.stores.Aggregate(ctx, tagListPipeline())
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tags := make([]domain.TagCount, 0)
	for cursor.Next(ctx) {
		var row struct {
			Tag   string `bson:"_id"`
			Count int    `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		tags = append(tags, domain.TagCount{Tag: row.Tag, Count: row.Count})
	}
	return tags, cursor.Err()
}

// TopStores はレビュー結合パイプラインで平均評価上位の店舗を返す。
func (r *StoreRepository) TopStores(ctx context.Context, limit int64) ([]domain.RankedStore, error) {
	cursor, err := r.stores.Aggregate(ctx, topStoresPipeline(r.reviews.Name(), limit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	ranked := make([]domain.RankedStore, 0)
	for cursor.Next(ctx) {
		var row struct {
			ID            primitive.ObjectID `bson:"_id"`
			Name          string             `bson:"name"`
			Slug          string             `bson:"slug"`
			Photo         string             `bson:"photo"`
			ReviewCount   int                `bson:"reviewCount"`
			AverageRating float64            `bson:"averageRating"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		ranked = append(ranked, domain.RankedStore{
			ID:            row.ID.Hex(),
			Name:          row.Name,
			Slug:          row.Slug,
			Photo:         row.Photo,
			ReviewCount:   row.ReviewCount,
			AverageRating: row.AverageRating,
		})
	}
	return ranked, cursor.Err()
}

// assignSlug は名前からスラッグを導出し、既存件数に応じて連番を付ける。
func (r *StoreRepository) assignSlug(ctx context.Context, doc *StoreDocument) error {
	base := domain.MakeSlug(doc.Name)
	count, err := r.stores.CountDocuments(ctx, slugFilter(base))
	if err != nil {
		return err
	}
	doc.Slug = domain.NextSlug(base, count)
	return nil
}

// findStores はフィルタで店舗を取得し、レビューを一括で合成する共通経路。
func (r *StoreRepository) findStores(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]domain.Store, error) {
	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = r.stores.Find(ctx, filter, opts)
	} else {
		cursor, err = r.stores.Find(ctx, filter)
	}
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	stores := make([]domain.Store, 0)
	for cursor.Next(ctx) {
		var doc StoreDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		stores = append(stores, mapStoreDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	if err := r.attachReviews(ctx, stores, nil); err != nil {
		return nil, err
	}
	return stores, nil
}

// attachReviews は store への逆参照でレビューを 1 回の $in クエリで取得し、
// 各店舗へ割り当てる。single が指定された場合はその 1 件のみ対象。
func (r *StoreRepository) attachReviews(ctx context.Context, stores []domain.Store, single *domain.Store) error {
	targets := make([]*domain.Store, 0, len(stores)+1)
	for i := range stores {
		targets = append(targets, &stores[i])
	}
	if single != nil {
		targets = append(targets, single)
	}
	if len(targets) == 0 {
		return nil
	}

	ids := make([]primitive.ObjectID, 0, len(targets))
	index := make(map[primitive.ObjectID]*domain.Store, len(targets))
	for _, store := range targets {
		objectID, err := primitive.ObjectIDFromHex(store.ID)
		if err != nil {
			return err
		}
		ids = append(ids, objectID)
		index[objectID] = store
		store.Reviews = []domain.Review{}
	}

	opts := options.Find().SetSort(bson.D{{Key: "created", Value: -1}})
	cursor, err := r.reviews.Find(ctx, bson.M{"store": bson.M{"$in": ids}}, opts)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc ReviewDocument
		if err := cursor.Decode(&doc); err != nil {
			return err
		}
		store, ok := index[doc.Store]
		if !ok {
			continue
		}
		store.Reviews = append(store.Reviews, mapReviewDocument(doc))
	}
	return cursor.Err()
}

func mapStoreDocument(doc StoreDocument) domain.Store {
	return domain.Store{
		ID:          doc.ID.Hex(),
		Name:        doc.Name,
		Slug:        doc.Slug,
		Description: doc.Description,
		Tags:        append([]string{}, doc.Tags...),
		Created:     doc.Created,
		Location:    mapLocationDocument(doc.Location),
		Photo:       doc.Photo,
		AuthorID:    doc.Author.Hex(),
	}
}

func mapLocationDocument(doc *LocationDocument) *domain.Location {
	if doc == nil {
		return nil
	}
	return &domain.Location{
		Type:        doc.Type,
		Coordinates: append([]float64{}, doc.Coordinates...),
		Address:     doc.Address,
	}
}

func buildLocationDocument(loc *domain.Location) *LocationDocument {
	if loc == nil {
		return nil
	}
	return &LocationDocument{
		Type:        loc.Type,
		Coordinates: append([]float64{}, loc.Coordinates...),
		Address:     loc.Address,
	}
}

func mapReviewDocument(doc ReviewDocument) domain.Review {
	return domain.Review{
		ID:       doc.ID.Hex(),
		StoreID:  doc.Store.Hex(),
		AuthorID: doc.Author.Hex(),
		Rating:   doc.Rating,
		Text:     doc.Text,
		Created:  doc.Created,
	}
}

var _ application.StoreRepository = (*StoreRepository)(nil)
