package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/docflow/internal/core/domain"
	"github.com/kirillkom/docflow/internal/core/ports"
)

type DocumentUseCase struct {
	repo    ports.DocumentRepository
	storage ports.ObjectStorage
	now     func() time.Time
}

func NewDocumentUseCase(repo ports.DocumentRepository, storage ports.ObjectStorage) *DocumentUseCase {
	return &DocumentUseCase{
		repo:    repo,
		storage: storage,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (uc *DocumentUseCase) Create(ctx context.Context, title string, file *domain.DocumentUpload, by domain.Principal) (*domain.Document, error) {
	if file.Empty() {
		return nil, domain.ErrDocumentFileRequired
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create document", errors.New("title is required"))
	}

	id := uuid.NewString()
	path, err := uc.storeFile(ctx, id, file)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	uploader := by
	doc := &domain.Document{
		ID:         id,
		Title:      title,
		FileName:   file.FileName,
		FilePath:   path,
		MimeType:   file.MimeType,
		FileSize:   file.Size,
		UploadedBy: &uploader,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := uc.repo.Create(ctx, doc); err != nil {
		uc.discardFile(ctx, path)
		return nil, fmt.Errorf("create document: %w", err)
	}
	return doc, nil
}

func (uc *DocumentUseCase) FindAll(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Document], error) {
	result, err := uc.repo.List(ctx, domain.NewPageRequest(page.Page, page.Limit))
	if err != nil {
		return domain.Page[domain.Document]{}, fmt.Errorf("list documents: %w", err)
	}
	return result, nil
}

func (uc *DocumentUseCase) FindOne(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			return nil, domain.WrapError(domain.ErrNotFound, "find document", domain.ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	return doc, nil
}

// OpenFile returns the document with a reader over its stored file. The
// caller closes the reader.
func (uc *DocumentUseCase) OpenFile(ctx context.Context, id string) (*domain.Document, io.ReadCloser, error) {
	doc, err := uc.FindOne(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	body, err := uc.storage.Open(ctx, doc.FilePath)
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			return nil, nil, domain.WrapError(domain.ErrNotFound, "open document file", domain.ErrDocumentFileGone)
		}
		return nil, nil, fmt.Errorf("open document file: %w", err)
	}
	return doc, body, nil
}

// Update replaces the stored file and optionally the title. A file is
// required even when only the title changes.
func (uc *DocumentUseCase) Update(ctx context.Context, id string, title *string, file *domain.DocumentUpload, by domain.Principal) (*domain.Document, error) {
	doc, err := uc.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if file.Empty() {
		return nil, domain.ErrDocumentFileMissing
	}

	path, err := uc.storeFile(ctx, doc.ID, file)
	if err != nil {
		return nil, err
	}
	previousPath := doc.FilePath

	doc.FileName = file.FileName
	doc.FilePath = path
	doc.MimeType = file.MimeType
	doc.FileSize = file.Size
	if title != nil && strings.TrimSpace(*title) != "" {
		doc.Title = strings.TrimSpace(*title)
	}
	uploader := by
	doc.UploadedBy = &uploader
	doc.UpdatedAt = uc.now()

	if err := uc.repo.Update(ctx, doc); err != nil {
		if path != previousPath {
			uc.discardFile(ctx, path)
		}
		return nil, fmt.Errorf("update document: %w", err)
	}
	if previousPath != "" && previousPath != path {
		uc.discardFile(ctx, previousPath)
	}
	return doc, nil
}

// Remove deletes the document row; ingestion records cascade with it.
func (uc *DocumentUseCase) Remove(ctx context.Context, id string) error {
	doc, err := uc.FindOne(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	uc.discardFile(ctx, doc.FilePath)
	return nil
}

func (uc *DocumentUseCase) storeFile(ctx context.Context, id string, file *domain.DocumentUpload) (string, error) {
	key := fmt.Sprintf("%s_%s", id, sanitizeFilename(file.FileName))
	path, err := uc.storage.Save(ctx, key, file.Body)
	if err != nil {
		return "", fmt.Errorf("save file to storage: %w", err)
	}
	return path, nil
}

func (uc *DocumentUseCase) discardFile(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := uc.storage.Remove(ctx, path); err != nil {
		slog.Warn("document_file_remove_failed", "path", path, "error", err)
	}
}

// sanitizeFilename keeps storage keys to a portable character set.
func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == "_" {
		return "document.bin"
	}
	return base
}
