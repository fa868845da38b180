package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kirillkom/docflow/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentSelect = `
SELECT d.id, d.title, d.file_name, d.file_path, d.mime_type, d.file_size, d.created_at, d.updated_at,
	u.id, u.email, u.role
FROM documents d
LEFT JOIN users u ON u.id = d.uploaded_by
`

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (id, title, file_name, file_path, mime_type, file_size, uploaded_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`,
		doc.ID, doc.Title, doc.FileName, doc.FilePath, doc.MimeType, doc.FileSize,
		uploaderID(doc), doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, documentSelect+`WHERE d.id = $1`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get document", domain.ErrDocumentNotFound)
		}
		return nil, err
	}
	return &doc, nil
}

// List returns the newest documents first.
func (r *DocumentRepository) List(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Document], error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&total); err != nil {
		return domain.Page[domain.Document]{}, fmt.Errorf("count documents: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, documentSelect+`ORDER BY d.created_at DESC LIMIT $1 OFFSET $2`, page.Limit, page.Offset())
	if err != nil {
		return domain.Page[domain.Document]{}, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Document, 0, page.Limit)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return domain.Page[domain.Document]{}, err
		}
		items = append(items, doc)
	}
	if err := rows.Err(); err != nil {
		return domain.Page[domain.Document]{}, fmt.Errorf("iterate documents: %w", err)
	}
	return domain.Page[domain.Document]{Items: items, Total: total}, nil
}

func (r *DocumentRepository) Update(ctx context.Context, doc *domain.Document) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET title = $2, file_name = $3, file_path = $4, mime_type = $5, file_size = $6, uploaded_by = $7, updated_at = $8
WHERE id = $1
`, doc.ID, doc.Title, doc.FileName, doc.FilePath, doc.MimeType, doc.FileSize, uploaderID(doc), doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return requireAffected(result, "update document", domain.WrapError(domain.ErrNotFound, "update document", domain.ErrDocumentNotFound))
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return requireAffected(result, "delete document", domain.WrapError(domain.ErrNotFound, "delete document", domain.ErrDocumentNotFound))
}

func uploaderID(doc *domain.Document) any {
	if doc.UploadedBy == nil {
		return nil
	}
	return nullableString(doc.UploadedBy.ID)
}

func scanDocument(row rowScanner) (domain.Document, error) {
	var doc domain.Document
	var uploader nullPrincipal
	err := row.Scan(
		&doc.ID, &doc.Title, &doc.FileName, &doc.FilePath, &doc.MimeType, &doc.FileSize, &doc.CreatedAt, &doc.UpdatedAt,
		&uploader.id, &uploader.email, &uploader.role,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Document{}, err
		}
		return domain.Document{}, fmt.Errorf("scan document: %w", err)
	}
	doc.UploadedBy = uploader.principal()
	return doc, nil
}

// nullPrincipal scans the LEFT JOINed user columns.
type nullPrincipal struct {
	id    sql.NullString
	email sql.NullString
	role  sql.NullString
}

func (p nullPrincipal) principal() *domain.Principal {
	if !p.id.Valid {
		return nil
	}
	return &domain.Principal{ID: p.id.String, Email: p.email.String, Role: domain.Role(p.role.String)}
}
