package ports

import (
	"context"
	"io"

	"github.com/kirillkom/docflow/internal/core/domain"
)

// Authenticator is the inbound contract for login and token resolution.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*domain.Session, error)
	ResolvePrincipal(ctx context.Context, token string) (*domain.Principal, error)
}

// UserService is the inbound contract for account management.
type UserService interface {
	Create(ctx context.Context, in domain.NewUser) (*domain.User, error)
	FindAll(ctx context.Context) ([]domain.User, error)
	FindOne(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error)
	Remove(ctx context.Context, id string) error
}

// DocumentService is the inbound contract for document upload and metadata.
type DocumentService interface {
	Create(ctx context.Context, title string, file *domain.DocumentUpload, by domain.Principal) (*domain.Document, error)
	FindAll(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Document], error)
	FindOne(ctx context.Context, id string) (*domain.Document, error)
	OpenFile(ctx context.Context, id string) (*domain.Document, io.ReadCloser, error)
	Update(ctx context.Context, id string, title *string, file *domain.DocumentUpload, by domain.Principal) (*domain.Document, error)
	Remove(ctx context.Context, id string) error
}

// IngestionService is the inbound contract for the ingestion lifecycle.
type IngestionService interface {
	Create(ctx context.Context, documentID string, by domain.Principal) (*domain.IngestionProcess, error)
	FindAll(ctx context.Context, page domain.PageRequest) (domain.Page[domain.IngestionProcess], error)
	FindOne(ctx context.Context, id string) (*domain.IngestionProcess, error)
	UpdateStatus(ctx context.Context, id string, status domain.IngestionStatus, errMessage string) (*domain.IngestionProcess, error)
	ReprocessFailed(ctx context.Context, by domain.Principal) ([]domain.IngestionProcess, error)
}
