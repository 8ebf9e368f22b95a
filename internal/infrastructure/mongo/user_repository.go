package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/umaimono-club/store-directory/api/internal/account/application"
	"github.com/umaimono-club/store-directory/api/internal/account/domain"
)

// UserRepository implements application.UserRepository using MongoDB.
type UserRepository struct {
	users *mongo.Collection
}

// NewUserRepository creates a new Mongo-backed user repository.
func NewUserRepository(db *mongo.Database, userCollection string) *UserRepository {
	return &UserRepository{users: db.Collection(userCollection)}
}

// Create はメールアドレスの重複を確認した上でユーザーを保存する。
// ユニークインデックスが同時登録の競合も ErrEmailTaken として弾く。
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := r.users.FindOne(ctx, bson.M{"email": user.Email}).Err(); err == nil {
		return domain.ErrEmailTaken
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}

	created := user.Created
	if created.IsZero() {
		created = time.Now().UTC()
	}
	doc := UserDocument{
		ID:       primitive.NewObjectID(),
		Email:    user.Email,
		Name:     user.Name,
		Password: user.PasswordHash,
		Created:  created,
	}
	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrEmailTaken
		}
		return err
	}

	user.ID = doc.ID.Hex()
	user.Created = doc.Created
	return nil
}

// FindByID returns a single user by its identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": objectID})
}

// FindByEmail returns a single user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// UpdateProfile は表示名とメールアドレスを差し替え、更新後のユーザーを返す。
func (r *UserRepository) UpdateProfile(ctx context.Context, id, name, email string) (*domain.User, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	update := bson.M{"$set": bson.M{"name": name, "email": email}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc UserDocument
	if err := r.users.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}
	user := mapUserDocument(doc)
	return &user, nil
}

// ToggleHeart は $addToSet / $pull でお気に入り集合を 1 ステップで変異させる。
// 集合演算なので同じ店舗 ID が重複して入ることはない。
func (r *UserRepository) ToggleHeart(ctx context.Context, userID, storeID string, add bool) (*domain.User, error) {
	userObjID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	storeObjID, err := primitive.ObjectIDFromHex(storeID)
	if err != nil {
		return nil, err
	}

	operator := "$pull"
	if add {
		operator = "$addToSet"
	}
	update := bson.M{operator: bson.M{"hearts": storeObjID}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc UserDocument
	if err := r.users.FindOneAndUpdate(ctx, bson.M{"_id": userObjID}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	user := mapUserDocument(doc)
	return &user, nil
}

// SetResetToken はリセットトークンと有効期限を記録する。
func (r *UserRepository) SetResetToken(ctx context.Context, userID, token string, expires time.Time) error {
	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrNotFound
	}
	update := bson.M{"$set": bson.M{
		"resetPasswordToken":   token,
		"resetPasswordExpires": expires,
	}}
	res, err := r.users.UpdateByID(ctx, objectID, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// FindByResetToken は有効期限内のトークンに一致するユーザーを返す。
// 期限切れと未知のトークンは区別せず ErrResetTokenInvalid に揃える。
func (r *UserRepository) FindByResetToken(ctx context.Context, token string) (*domain.User, error) {
	filter := bson.M{
		"resetPasswordToken":   token,
		"resetPasswordExpires": bson.M{"$gt": time.Now().UTC()},
	}
	var doc UserDocument
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrResetTokenInvalid
		}
		return nil, err
	}
	user := mapUserDocument(doc)
	return &user, nil
}

// UpdatePassword はハッシュを差し替え、使用済みトークンを破棄する。
func (r *UserRepository) UpdatePassword(ctx context.Context, userID string, hash []byte) error {
	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrNotFound
	}
	update := bson.M{
		"$set":   bson.M{"password": hash},
		"$unset": bson.M{"resetPasswordToken": "", "resetPasswordExpires": ""},
	}
	res, err := r.users.UpdateByID(ctx, objectID, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc UserDocument
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	user := mapUserDocument(doc)
	return &user, nil
}

func mapUserDocument(doc UserDocument) domain.User {
	hearts := make([]string, 0, len(doc.Hearts))
	for _, id := range doc.Hearts {
		hearts = append(hearts, id.Hex())
	}
	return domain.User{
		ID:           doc.ID.Hex(),
		Email:        doc.Email,
		Name:         doc.Name,
		PasswordHash: doc.Password,
		Hearts:       hearts,
		ResetToken:   doc.ResetPasswordToken,
		ResetExpires: doc.ResetPasswordExpires,
		Created:      doc.Created,
	}
}

var _ application.UserRepository = (*UserRepository)(nil)
