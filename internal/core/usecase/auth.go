package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kirillkom/docflow/internal/core/domain"
	"github.com/kirillkom/docflow/internal/core/ports"
)

type AuthUseCase struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher
	tokens ports.TokenIssuer

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthUseCase(users ports.UserRepository, hasher ports.PasswordHasher, tokens ports.TokenIssuer) *AuthUseCase {
	return &AuthUseCase{users: users, hasher: hasher, tokens: tokens}
}

func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	user, err := uc.ValidateCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return uc.IssueSession(user)
}

// ValidateCredentials returns the same error for an unknown email and a wrong
// password, and spends one hash comparison in both cases.
func (uc *AuthUseCase) ValidateCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := uc.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if !domain.IsKind(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("lookup user: %w", err)
		}
		_ = uc.hasher.Compare(uc.placeholderHash(), password)
		return nil, domain.ErrInvalidCredentials
	}

	if err := uc.hasher.Compare(user.PasswordHash, password); err != nil {
		slog.Info("login_rejected", "user_id", user.ID)
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (uc *AuthUseCase) IssueSession(user *domain.User) (*domain.Session, error) {
	token, err := uc.tokens.Sign(domain.SessionClaims{
		Subject: user.ID,
		Email:   user.Email,
		Role:    user.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	return &domain.Session{AccessToken: token, User: user.Principal()}, nil
}

// ResolvePrincipal maps a bearer token to the identity it was issued for.
func (uc *AuthUseCase) ResolvePrincipal(_ context.Context, token string) (*domain.Principal, error) {
	claims, err := uc.tokens.Verify(token)
	if err != nil {
		return nil, domain.WrapError(domain.ErrUnauthorized, "verify token", err)
	}
	return uc.ResolvePrincipalFromClaims(claims)
}

// ResolvePrincipalFromClaims trusts verified claims as issued; role changes
// apply from the next login.
func (uc *AuthUseCase) ResolvePrincipalFromClaims(claims domain.SessionClaims) (*domain.Principal, error) {
	if claims.Subject == "" {
		return nil, domain.WrapError(domain.ErrUnauthorized, "resolve principal", errors.New("token has no subject"))
	}
	if !claims.Role.Valid() {
		return nil, domain.WrapError(domain.ErrUnauthorized, "resolve principal", fmt.Errorf("token role %q is unknown", claims.Role))
	}
	return &domain.Principal{ID: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}

func (uc *AuthUseCase) placeholderHash() string {
	uc.dummyOnce.Do(func() {
		hash, err := uc.hasher.Hash("placeholder-password")
		if err != nil {
			slog.Warn("login_placeholder_hash_failed", "error", err)
			return
		}
		uc.dummyHash = hash
	})
	return uc.dummyHash
}
