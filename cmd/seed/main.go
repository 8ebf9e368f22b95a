package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	catalogdomain "github.com/umaimono-club/store-directory/api/internal/catalog/domain"
	mongodoc "github.com/umaimono-club/store-directory/api/internal/infrastructure/mongo"
)

type seedOptions struct {
	userCount       int
	reviewCount     int
	heartCount      int
	dropCollections bool
	randomSeed      int64
}

type collections struct {
	stores  string
	reviews string
	users   string
}

func main() {
	opts := parseFlags()

	cols := collections{
		stores:  envOrDefault("STORE_COLLECTION", "stores"),
		reviews: envOrDefault("REVIEW_COLLECTION", "reviews"),
		users:   envOrDefault("USER_COLLECTION", "users"),
	}
	mongoURI := envOrDefault("MONGO_URI", "mongodb://localhost:27017")
	dbName := envOrDefault("MONGO_DB", "store-directory")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("MongoDB 接続に失敗しました: %v", err)
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	db := client.Database(dbName)

	if opts.dropCollections {
		for _, name := range []string{cols.stores, cols.reviews, cols.users} {
			if err := db.Collection(name).Drop(ctx); err != nil {
				// Drop は存在しない場合も err を返すので warning ログにとどめる
				log.Printf("WARN: コレクション %s の削除に失敗: %v", name, err)
			}
		}
		log.Printf("既存コレクションを削除しました")
	}

	if err := mongodoc.EnsureIndexes(ctx, db, cols.stores, cols.reviews, cols.users); err != nil {
		log.Fatalf("インデックス作成に失敗しました: %v", err)
	}

	rng := rand.New(rand.NewSource(opts.randomSeed))

	userDocs, err := generateUsers(opts.userCount)
	if err != nil {
		log.Fatalf("ユーザーデータの生成に失敗しました: %v", err)
	}
	if err := insertMany(ctx, db.Collection(cols.users), toAnySlice(userDocs)); err != nil {
		log.Fatalf("ユーザーデータの挿入に失敗しました: %v", err)
	}

	storeDocs := generateStores(rng, userDocs)
	if err := insertMany(ctx, db.Collection(cols.stores), toAnySlice(storeDocs)); err != nil {
		log.Fatalf("店舗データの挿入に失敗しました: %v", err)
	}

	reviewDocs := generateReviews(rng, storeDocs, userDocs, opts.reviewCount)
	if err := insertMany(ctx, db.Collection(cols.reviews), toAnySlice(reviewDocs)); err != nil {
		log.Fatalf("レビューデータの挿入に失敗しました: %v", err)
	}

	if err := applyHearts(ctx, db, cols.users, rng, userDocs, storeDocs, opts.heartCount); err != nil {
		log.Fatalf("お気に入りデータの更新に失敗しました: %v", err)
	}

	log.Printf("Seed 完了: users=%d stores=%d reviews=%d hearts=%d",
		len(userDocs), len(storeDocs), len(reviewDocs), opts.heartCount)
	log.Printf("Mongo: %s / %s", mongoURI, dbName)
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseFlags() seedOptions {
	var opts seedOptions
	flag.IntVar(&opts.userCount, "users", 3, "生成するユーザー数")
	flag.IntVar(&opts.reviewCount, "reviews", 40, "生成するレビュー総数")
	flag.IntVar(&opts.heartCount, "hearts", 10, "生成するお気に入り数")
	flag.BoolVar(&opts.dropCollections, "drop", true, "既存コレクションを削除してから投入する")
	defaultSeed := time.Now().UnixNano()
	flag.Int64Var(&opts.randomSeed, "seed", defaultSeed, "乱数シード（再現用）")
	flag.Parse()

	if opts.userCount <= 0 {
		log.Fatal("users は 1 以上を指定してください")
	}
	if opts.reviewCount < 0 {
		opts.reviewCount = 0
	}
	if opts.heartCount < 0 {
		opts.heartCount = 0
	}
	return opts
}

func generateUsers(count int) ([]mongodoc.UserDocument, error) {
	// 全ユーザー共通の開発用パスワード
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	names := []string{"Wes Bos", "Debbie Downer", "Beau Faith", "Mary Poppins", "Sato Hanako"}
	docs := make([]mongodoc.UserDocument, 0, count)
	for i := 0; i < count; i++ {
		name := names[i%len(names)]
		docs = append(docs, mongodoc.UserDocument{
			ID:       primitive.NewObjectID(),
			Email:    fmt.Sprintf("user%d@example.com", i+1),
			Name:     name,
			Password: hash,
			Created:  now.Add(-time.Duration(i) * 24 * time.Hour),
		})
	}
	return docs, nil
}

type seedStore struct {
	name        string
	description string
	tags        []string
	address     string
	lng         float64
	lat         float64
}

func generateStores(rng *rand.Rand, users []mongodoc.UserDocument) []mongodoc.StoreDocument {
	now := time.Now().UTC()
	docs := make([]mongodoc.StoreDocument, 0, len(seedStores))
	slugTaken := make(map[string]int)

	for i, s := range seedStores {
		base := catalogdomain.MakeSlug(s.name)
		slug := catalogdomain.NextSlug(base, int64(slugTaken[base]))
		slugTaken[base]++

		author := users[rng.Intn(len(users))]
		docs = append(docs, mongodoc.StoreDocument{
			ID:          primitive.NewObjectID(),
			Name:        s.name,
			Slug:        slug,
			Description: s.description,
			Tags:        s.tags,
			Created:     now.Add(-time.Duration(rng.Intn(365)+i) * 24 * time.Hour),
			Location: &mongodoc.LocationDocument{
				Type:        "Point",
				Coordinates: []float64{s.lng, s.lat},
				Address:     s.address,
			},
			Photo:  fmt.Sprintf("seed-%02d.jpg", i+1),
			Author: author.ID,
		})
	}
	return docs
}

func generateReviews(rng *rand.Rand, stores []mongodoc.StoreDocument, users []mongodoc.UserDocument, total int) []mongodoc.ReviewDocument {
	if total <= 0 || len(stores) == 0 {
		return nil
	}
	now := time.Now().UTC()
	docs := make([]mongodoc.ReviewDocument, 0, total)
	for i := 0; i < total; i++ {
		store := stores[rng.Intn(len(stores))]
		author := users[rng.Intn(len(users))]
		docs = append(docs, mongodoc.ReviewDocument{
			ID:      primitive.NewObjectID(),
			Store:   store.ID,
			Author:  author.ID,
			Rating:  float64(1 + rng.Intn(5)),
			Text:    reviewTexts[rng.Intn(len(reviewTexts))],
			Created: now.Add(-time.Duration(rng.Intn(90*24)) * time.Hour),
		})
	}
	return docs
}

func applyHearts(ctx context.Context, db *mongo.Database, userCollection string, rng *rand.Rand, users []mongodoc.UserDocument, stores []mongodoc.StoreDocument, desired int) error {
	if desired <= 0 || len(stores) == 0 {
		return nil
	}
	col := db.Collection(userCollection)
	for i := 0; i < desired; i++ {
		user := users[rng.Intn(len(users))]
		store := stores[rng.Intn(len(stores))]
		if _, err := col.UpdateByID(ctx, user.ID, bson.M{
			"$addToSet": bson.M{"hearts": store.ID},
		}); err != nil {
			return err
		}
	}
	return nil
}

func insertMany(ctx context.Context, col *mongo.Collection, docs []interface{}) error {
	if len(docs) == 0 {
		return nil
	}
	_, err := col.InsertMany(ctx, docs)
	return err
}

func toAnySlice[T any](in []T) []interface{} {
	out := make([]interface{}, len(in))
	for i := range in {
		out[i] = in[i]
	}
	return out
}

var (
	seedStores = []seedStore{
		{
			name:        "Thai Aree",
			description: "Cozy spot with rich curries and a short but dependable menu.",
			tags:        []string{"Family Friendly", "Vegetarian"},
			address:     "3880 Rue Saint-Denis, Montréal",
			lng:         -73.577808, lat: 45.521585,
		},
		{
			name:        "Fabergé",
			description: "Brunch plates stacked high, long weekend lines to match.",
			tags:        []string{"Licensed", "Family Friendly"},
			address:     "25 Rue Fairmount Ouest, Montréal",
			lng:         -73.596834, lat: 45.522467,
		},
		{
			name:        "Pizzeria Magpie",
			description: "Wood fired pies and natural wine in a narrow room.",
			tags:        []string{"Licensed", "Open Late"},
			address:     "16 Rue Maguire, Montréal",
			lng:         -73.600556, lat: 45.525246,
		},
		{
			name:        "Dépanneur Le Pick Up",
			description: "Corner store turned sandwich counter, pulled pork is the move.",
			tags:        []string{"Vegetarian", "Open Late"},
			address:     "7032 Rue Waverly, Montréal",
			lng:         -73.615556, lat: 45.530466,
		},
		{
			name:        "Noust",
			description: "Tasting menu only, book weeks ahead.",
			tags:        []string{"Licensed"},
			address:     "1650 Rue Notre-Dame Est, Montréal",
			lng:         -73.545196, lat: 45.521629,
		},
		{
			name:        "Umami Burger",
			description: "Smash patties with house pickles and a decent veggie option.",
			tags:        []string{"Family Friendly", "Wifi"},
			address:     "432 Bernard Ouest, Montréal",
			lng:         -73.606351, lat: 45.523497,
		},
		{
			name:        "Café Olimpico",
			description: "Standing room espresso bar, open early and loud all day.",
			tags:        []string{"Wifi", "Open Late"},
			address:     "124 Rue Saint-Viateur Ouest, Montréal",
			lng:         -73.600891, lat: 45.525691,
		},
	}

	reviewTexts = []string{
		"Came for the tacos, stayed for the hot sauce selection.",
		"Service was slow on a Friday night but the food made up for it.",
		"Best value lunch in the neighbourhood, hands down.",
		"A bit cramped inside. Go early or expect a wait.",
		"The seasonal menu keeps things interesting. Will be back.",
		"Decent, not amazing. The patio is the real draw.",
	}
)
