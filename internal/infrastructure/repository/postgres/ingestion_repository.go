package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kirillkom/docflow/internal/core/domain"
)

type IngestionRepository struct {
	db *sql.DB
}

func NewIngestionRepository(db *sql.DB) *IngestionRepository {
	return &IngestionRepository{db: db}
}

const ingestionSelect = `
SELECT p.id, p.status, p.error_message, p.metadata, p.created_at, p.updated_at,
	d.id, d.title, d.file_name, d.file_path, d.mime_type, d.file_size, d.created_at, d.updated_at,
	t.id, t.email, t.role
FROM ingestion_processes p
JOIN documents d ON d.id = p.document_id
LEFT JOIN users t ON t.id = p.triggered_by
`

func (r *IngestionRepository) Create(ctx context.Context, process *domain.IngestionProcess) error {
	metadata, err := marshalMetadata(process.Metadata)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO ingestion_processes (id, document_id, triggered_by, status, error_message, metadata, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
		process.ID, process.DocumentID, nullableString(process.TriggeredBy.ID), string(process.Status),
		nullableString(process.ErrorMessage), metadata, process.CreatedAt, process.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ingestion process: %w", err)
	}
	return nil
}

func (r *IngestionRepository) GetByID(ctx context.Context, id string) (*domain.IngestionProcess, error) {
	row := r.db.QueryRowContext(ctx, ingestionSelect+`WHERE p.id = $1`, id)

	process, err := scanIngestion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get ingestion process", domain.ErrIngestionNotFound)
		}
		return nil, err
	}
	return &process, nil
}

// Save writes the mutable fields of a process in a single statement.
func (r *IngestionRepository) Save(ctx context.Context, process *domain.IngestionProcess) error {
	metadata, err := marshalMetadata(process.Metadata)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE ingestion_processes
SET status = $2, error_message = $3, triggered_by = $4, metadata = $5, updated_at = $6
WHERE id = $1
`,
		process.ID, string(process.Status), nullableString(process.ErrorMessage),
		nullableString(process.TriggeredBy.ID), metadata, process.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update ingestion process: %w", err)
	}
	return requireAffected(result, "update ingestion process", domain.WrapError(domain.ErrNotFound, "save ingestion process", domain.ErrIngestionNotFound))
}

func (r *IngestionRepository) List(ctx context.Context, page domain.PageRequest) (domain.Page[domain.IngestionProcess], error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ingestion_processes`).Scan(&total); err != nil {
		return domain.Page[domain.IngestionProcess]{}, fmt.Errorf("count ingestion processes: %w", err)
	}

	items, err := r.query(ctx, ingestionSelect+`ORDER BY p.created_at DESC LIMIT $1 OFFSET $2`, page.Limit, page.Offset())
	if err != nil {
		return domain.Page[domain.IngestionProcess]{}, err
	}
	return domain.Page[domain.IngestionProcess]{Items: items, Total: total}, nil
}

func (r *IngestionRepository) ListByStatus(ctx context.Context, status domain.IngestionStatus) ([]domain.IngestionProcess, error) {
	return r.query(ctx, ingestionSelect+`WHERE p.status = $1 ORDER BY p.created_at ASC`, string(status))
}

func (r *IngestionRepository) query(ctx context.Context, query string, args ...any) ([]domain.IngestionProcess, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ingestion processes: %w", err)
	}
	defer rows.Close()

	out := make([]domain.IngestionProcess, 0)
	for rows.Next() {
		process, err := scanIngestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, process)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ingestion processes: %w", err)
	}
	return out, nil
}

func scanIngestion(row rowScanner) (domain.IngestionProcess, error) {
	var (
		process     domain.IngestionProcess
		doc         domain.Document
		status      string
		errMessage  sql.NullString
		metadataRaw []byte
		triggeredBy nullPrincipal
	)
	err := row.Scan(
		&process.ID, &status, &errMessage, &metadataRaw, &process.CreatedAt, &process.UpdatedAt,
		&doc.ID, &doc.Title, &doc.FileName, &doc.FilePath, &doc.MimeType, &doc.FileSize, &doc.CreatedAt, &doc.UpdatedAt,
		&triggeredBy.id, &triggeredBy.email, &triggeredBy.role,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.IngestionProcess{}, err
		}
		return domain.IngestionProcess{}, fmt.Errorf("scan ingestion process: %w", err)
	}

	if len(metadataRaw) > 0 {
		if err := json.Unmarshal(metadataRaw, &process.Metadata); err != nil {
			return domain.IngestionProcess{}, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	process.Status = domain.IngestionStatus(status)
	process.ErrorMessage = errMessage.String
	process.DocumentID = doc.ID
	process.Document = &doc
	if p := triggeredBy.principal(); p != nil {
		process.TriggeredBy = *p
	}
	return process, nil
}

func marshalMetadata(metadata map[string]any) (any, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return raw, nil
}
