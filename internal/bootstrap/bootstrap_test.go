package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kirillkom/docflow/internal/core/domain"
)

type userCreatorFake struct {
	existing map[string]bool
	created  []domain.NewUser
	err      error
}

func (f *userCreatorFake) Create(_ context.Context, in domain.NewUser) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.existing[in.Email] {
		return nil, domain.ErrEmailTaken
	}
	f.created = append(f.created, in)
	return &domain.User{Email: in.Email, Role: in.Role}, nil
}

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write seed file: %v", err)
	}
	return path
}

func TestSeedUsersCreatesOnlyMissingAccounts(t *testing.T) {
	path := writeSeedFile(t, `
users:
  - email: admin@example.com
    password: Admin123!
    role: admin
  - email: existing@example.com
    password: Exist123!
    role: editor
  - email: reader@example.com
    password: Reader123!
`)
	users := &userCreatorFake{existing: map[string]bool{"existing@example.com": true}}

	created, err := SeedUsers(context.Background(), path, users)
	if err != nil {
		t.Fatalf("SeedUsers() error = %v", err)
	}
	if created != 2 || len(users.created) != 2 {
		t.Fatalf("expected 2 created users, got %d (%+v)", created, users.created)
	}
	if users.created[0].Role != domain.RoleAdmin || users.created[1].Role != "" {
		t.Fatalf("unexpected roles: %+v", users.created)
	}
}

func TestSeedUsersEmptyPathIsNoop(t *testing.T) {
	users := &userCreatorFake{err: errors.New("must not be called")}
	created, err := SeedUsers(context.Background(), "", users)
	if err != nil || created != 0 {
		t.Fatalf("SeedUsers() = %d, %v", created, err)
	}
}

func TestLoadSeedUsersRejectsUnknownRole(t *testing.T) {
	path := writeSeedFile(t, "users:\n  - email: a@b.c\n    password: x\n    role: owner\n")
	if _, err := LoadSeedUsers(path); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestSeedUsersPropagatesStoreErrors(t *testing.T) {
	path := writeSeedFile(t, "users:\n  - email: a@b.c\n    password: Secret123!\n")
	users := &userCreatorFake{err: errors.New("db down")}
	if _, err := SeedUsers(context.Background(), path, users); err == nil {
		t.Fatalf("expected error")
	}
}

type workerStub struct{ err error }

func (w workerStub) Ingest(context.Context, domain.IngestionRequest) error { return w.err }

type callRecorderFake struct {
	calls []error
}

func (f *callRecorderFake) RecordWorkerCall(_ string, _ time.Duration, err error) {
	f.calls = append(f.calls, err)
}

func TestInstrumentedWorkerRecordsOutcome(t *testing.T) {
	recorder := &callRecorderFake{}
	failure := errors.New("worker down")
	worker := &instrumentedWorker{next: workerStub{err: failure}, metrics: recorder}

	err := worker.Ingest(context.Background(), domain.IngestionRequest{ProcessID: "p1", DocumentPath: "/x"})
	if !errors.Is(err, failure) {
		t.Fatalf("expected worker error to pass through, got %v", err)
	}
	if len(recorder.calls) != 1 || !errors.Is(recorder.calls[0], failure) {
		t.Fatalf("unexpected recorded calls: %v", recorder.calls)
	}
}
