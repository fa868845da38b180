package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/docflow/internal/core/domain"
)

type seedFile struct {
	Users []seedUser `yaml:"users"`
}

type seedUser struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

type userCreator interface {
	Create(ctx context.Context, in domain.NewUser) (*domain.User, error)
}

// LoadSeedUsers parses a YAML file of the form `users: [{email, password, role}]`.
func LoadSeedUsers(path string) ([]domain.NewUser, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var file seedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	out := make([]domain.NewUser, 0, len(file.Users))
	for i, u := range file.Users {
		user := domain.NewUser{Email: u.Email, Password: u.Password}
		if u.Role != "" {
			role, err := domain.ParseRole(u.Role)
			if err != nil {
				return nil, fmt.Errorf("seed user %d: %w", i, err)
			}
			user.Role = role
		}
		out = append(out, user)
	}
	return out, nil
}

// SeedUsers creates the accounts listed in path that do not exist yet.
// An empty path is a no-op.
func SeedUsers(ctx context.Context, path string, users userCreator) (int, error) {
	if path == "" {
		return 0, nil
	}
	seeds, err := LoadSeedUsers(path)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, seed := range seeds {
		_, err := users.Create(ctx, seed)
		switch {
		case err == nil:
			created++
			slog.Info("seed_user_created", "email", seed.Email, "role", string(seed.Role))
		case errors.Is(err, domain.ErrEmailTaken):
			continue
		default:
			return created, fmt.Errorf("seed user %s: %w", seed.Email, err)
		}
	}
	return created, nil
}
