package application

import (
	"context"
	"time"

	"github.com/umaimono-club/store-directory/api/internal/account/domain"
)

// UserRepository abstracts user persistence for the account context.
// UserRepository は account コンテキストでユーザーを永続化するためのポート。
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id, name, email string) (*domain.User, error)
	// ToggleHeart applies a single set mutation (add or remove) on the
	// user's hearts and returns the updated user.
	ToggleHeart(ctx context.Context, userID, storeID string, add bool) (*domain.User, error)
	SetResetToken(ctx context.Context, userID, token string, expires time.Time) error
	// FindByResetToken resolves a non-expired token to its user.
	FindByResetToken(ctx context.Context, token string) (*domain.User, error)
	// UpdatePassword replaces the hash and clears any reset token.
	UpdatePassword(ctx context.Context, userID string, hash []byte) error
}

// AccountService provides the account use-cases.
type AccountService interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	Profile(ctx context.Context, id string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id, name, email string) (*domain.User, error)
	ToggleHeart(ctx context.Context, userID, storeID string) (*domain.User, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, password string) (*domain.User, error)
}
