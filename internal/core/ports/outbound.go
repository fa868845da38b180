package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/docflow/internal/core/domain"
)

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
}

// DocumentReader is the read-only document lookup consumed by ingestion.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// DocumentRepository persists document metadata.
type DocumentRepository interface {
	DocumentReader
	Create(ctx context.Context, doc *domain.Document) error
	List(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Document], error)
	Update(ctx context.Context, doc *domain.Document) error
	Delete(ctx context.Context, id string) error
}

// IngestionRepository persists ingestion process records.
type IngestionRepository interface {
	Create(ctx context.Context, process *domain.IngestionProcess) error
	GetByID(ctx context.Context, id string) (*domain.IngestionProcess, error)
	Save(ctx context.Context, process *domain.IngestionProcess) error
	List(ctx context.Context, page domain.PageRequest) (domain.Page[domain.IngestionProcess], error)
	ListByStatus(ctx context.Context, status domain.IngestionStatus) ([]domain.IngestionProcess, error)
}

// ObjectStorage stores uploaded document files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, path string) error
}

// IngestionWorker hands a document to the external processing service.
type IngestionWorker interface {
	Ingest(ctx context.Context, req domain.IngestionRequest) error
}

// IngestionEventPublisher announces persisted status transitions.
type IngestionEventPublisher interface {
	PublishStatusChanged(ctx context.Context, event domain.IngestionEvent) error
}

// IngestionEventSubscriber delivers status transitions to a consumer.
type IngestionEventSubscriber interface {
	SubscribeStatusChanged(ctx context.Context, handler func(context.Context, domain.IngestionEvent) error) error
}

// IngestionEventObserver records consumed transitions.
type IngestionEventObserver interface {
	ObserveTransition(status domain.IngestionStatus, lag time.Duration)
}

// PasswordHasher hashes and compares secrets.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer signs and verifies session tokens.
type TokenIssuer interface {
	Sign(claims domain.SessionClaims) (string, error)
	Verify(token string) (domain.SessionClaims, error)
}
