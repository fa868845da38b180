package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/docflow/internal/core/domain"
	"github.com/kirillkom/docflow/internal/core/ports"
)

type UserUseCase struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	now    func() time.Time
}

func NewUserUseCase(repo ports.UserRepository, hasher ports.PasswordHasher) *UserUseCase {
	return &UserUseCase{
		repo:   repo,
		hasher: hasher,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (uc *UserUseCase) Create(ctx context.Context, in domain.NewUser) (*domain.User, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create user", errors.New("email and password are required"))
	}
	role := in.Role
	if role == "" {
		role = domain.RoleViewer
	}
	if !role.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create user", fmt.Errorf("unknown role %q", role))
	}

	if _, err := uc.repo.GetByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !domain.IsKind(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}

	hash, err := uc.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := uc.now()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// The unique index still guards against a concurrent insert.
	if err := uc.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (uc *UserUseCase) FindAll(ctx context.Context) ([]domain.User, error) {
	users, err := uc.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (uc *UserUseCase) FindOne(ctx context.Context, id string) (*domain.User, error) {
	user, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			return nil, domain.WrapError(domain.ErrNotFound, "find user", domain.ErrUserNotFound)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (uc *UserUseCase) Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	user, err := uc.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Password != nil && *patch.Password != "" {
		if uc.hasher.Compare(user.PasswordHash, *patch.Password) == nil {
			return nil, domain.ErrPasswordUnchanged
		}
		hash, err := uc.hasher.Hash(*patch.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	if patch.Email != nil {
		email := domain.NormalizeEmail(*patch.Email)
		if email != user.Email {
			if _, err := uc.repo.GetByEmail(ctx, email); err == nil {
				return nil, domain.ErrEmailTaken
			} else if !domain.IsKind(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("lookup user by email: %w", err)
			}
			user.Email = email
		}
	}
	if patch.Role != nil {
		if !patch.Role.Valid() {
			return nil, domain.WrapError(domain.ErrInvalidInput, "update user", fmt.Errorf("unknown role %q", *patch.Role))
		}
		user.Role = *patch.Role
	}
	user.UpdatedAt = uc.now()

	if err := uc.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (uc *UserUseCase) Remove(ctx context.Context, id string) error {
	if _, err := uc.FindOne(ctx, id); err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
