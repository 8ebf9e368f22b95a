package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/umaimono-club/store-directory/api/internal/account/domain"
)

const (
	minPasswordLength = 8
	resetTokenBytes   = 20
	resetTokenTTL     = time.Hour
)

// accountService is the concrete implementation of AccountService.
type accountService struct {
	users UserRepository
}

// NewAccountService creates the account service.
func NewAccountService(users UserRepository) AccountService {
	return &accountService{users: users}
}

// Register creates a new account with a bcrypt password hash.
func (s *accountService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	name, err := domain.NormalizeName(name)
	if err != nil {
		return nil, err
	}
	email, err = domain.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, &domain.ValidationError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters", minPasswordLength)}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Created:      time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies the credentials and returns the account. Unknown
// emails and wrong passwords are indistinguishable to the caller.
func (s *accountService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email, err := domain.NormalizeEmail(email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (s *accountService) Profile(ctx context.Context, id string) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *accountService) UpdateProfile(ctx context.Context, id, name, email string) (*domain.User, error) {
	name, err := domain.NormalizeName(name)
	if err != nil {
		return nil, err
	}
	email, err = domain.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	return s.users.UpdateProfile(ctx, id, name, email)
}

// ToggleHeart flips the store's membership in the user's favorites set.
// The read and the conditional write are two steps; concurrent toggles on
// the same user may interleave, but $addToSet/$pull semantics keep the set
// free of duplicates either way.
func (s *accountService) ToggleHeart(ctx context.Context, userID, storeID string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.users.ToggleHeart(ctx, userID, storeID, !user.HasHeart(storeID))
}

// ForgotPassword issues a one-hour reset token for the account. The token
// is returned to the caller; delivering it is left to an outer layer.
func (s *accountService) ForgotPassword(ctx context.Context, email string) (string, error) {
	email, err := domain.NormalizeEmail(email)
	if err != nil {
		return "", err
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	raw := make([]byte, resetTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	token := hex.EncodeToString(raw)

	expires := time.Now().UTC().Add(resetTokenTTL)
	if err := s.users.SetResetToken(ctx, user.ID, token, expires); err != nil {
		return "", err
	}
	return token, nil
}

// ResetPassword consumes a valid token and replaces the password.
func (s *accountService) ResetPassword(ctx context.Context, token, password string) (*domain.User, error) {
	if len(password) < minPasswordLength {
		return nil, &domain.ValidationError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters", minPasswordLength)}
	}
	user, err := s.users.FindByResetToken(ctx, token)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return nil, err
	}
	user.PasswordHash = hash
	user.ResetToken = ""
	user.ResetExpires = nil
	return user, nil
}
