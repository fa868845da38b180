package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/docflow/internal/core/domain"
)

func TestCreateUserDefaultsToViewer(t *testing.T) {
	repo := newUserRepoFake()
	uc := NewUserUseCase(repo, &hasherFake{})

	user, err := uc.Create(context.Background(), domain.NewUser{Email: "Bob@Example.com", Password: "Secret1!"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if user.Role != domain.RoleViewer {
		t.Fatalf("expected viewer role, got %s", user.Role)
	}
	if user.Email != "bob@example.com" {
		t.Fatalf("expected normalized email, got %s", user.Email)
	}
	if user.PasswordHash != "hashed:Secret1!" {
		t.Fatalf("password must be stored hashed, got %q", user.PasswordHash)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo := newUserRepoFake(domain.User{ID: "u1", Email: "bob@example.com"})
	uc := NewUserUseCase(repo, &hasherFake{})

	_, err := uc.Create(context.Background(), domain.NewUser{Email: "bob@example.com", Password: "Secret1!"})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected email taken, got %v", err)
	}
	if !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("expected conflict kind")
	}
}

func TestUpdateUserRejectsSamePassword(t *testing.T) {
	repo := newUserRepoFake(domain.User{ID: "u1", Email: "bob@example.com", PasswordHash: "hashed:Secret1!"})
	uc := NewUserUseCase(repo, &hasherFake{})

	same := "Secret1!"
	_, err := uc.Update(context.Background(), "u1", domain.UserPatch{Password: &same})
	if !errors.Is(err, domain.ErrPasswordUnchanged) {
		t.Fatalf("expected password unchanged, got %v", err)
	}
	if repo.updated != nil {
		t.Fatalf("expected no write")
	}
}

func TestUpdateUserChangesPasswordAndRole(t *testing.T) {
	repo := newUserRepoFake(domain.User{ID: "u1", Email: "bob@example.com", PasswordHash: "hashed:Secret1!", Role: domain.RoleViewer})
	uc := NewUserUseCase(repo, &hasherFake{})

	password := "Another2@"
	role := domain.RoleEditor
	user, err := uc.Update(context.Background(), "u1", domain.UserPatch{Password: &password, Role: &role})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if user.PasswordHash != "hashed:Another2@" || user.Role != domain.RoleEditor {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestFindOneAndRemoveUnknownUser(t *testing.T) {
	repo := newUserRepoFake()
	uc := NewUserUseCase(repo, &hasherFake{})

	if _, err := uc.FindOne(context.Background(), "nope"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
	if err := uc.Remove(context.Background(), "nope"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
	if repo.deleted != "" {
		t.Fatalf("expected no delete")
	}
}
