package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/docflow/internal/core/domain"
)

var ingestionRowColumns = []string{
	"id", "status", "error_message", "metadata", "created_at", "updated_at",
	"doc_id", "title", "file_name", "file_path", "mime_type", "file_size", "doc_created_at", "doc_updated_at",
	"trigger_id", "trigger_email", "trigger_role",
}

func TestIngestionListByStatusScansDocumentAndTrigger(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewIngestionRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery("WHERE p.status = \\$1").
		WithArgs("failed").
		WillReturnRows(sqlmock.NewRows(ingestionRowColumns).
			AddRow("p1", "failed", "boom", []byte(`{"attempt":1}`), now, now,
				"d1", "Report", "r.pdf", "/uploads/d1_r.pdf", "application/pdf", int64(10), now, now,
				"u1", "ana@example.com", "editor").
			AddRow("p2", "failed", nil, nil, now, now,
				"d1", "Report", "r.pdf", "/uploads/d1_r.pdf", "application/pdf", int64(10), now, now,
				nil, nil, nil))

	out, err := repo.ListByStatus(context.Background(), domain.IngestionFailed)
	if err != nil {
		t.Fatalf("ListByStatus() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	first := out[0]
	if first.Document == nil || first.Document.FilePath != "/uploads/d1_r.pdf" || first.DocumentID != "d1" {
		t.Fatalf("expected joined document, got %+v", first.Document)
	}
	if first.TriggeredBy.ID != "u1" || first.ErrorMessage != "boom" {
		t.Fatalf("unexpected first record: %+v", first)
	}
	if first.Metadata["attempt"] != float64(1) {
		t.Fatalf("unexpected metadata: %v", first.Metadata)
	}
	if out[1].TriggeredBy.ID != "" || out[1].ErrorMessage != "" {
		t.Fatalf("null columns must scan as zero values: %+v", out[1])
	}
}

func TestIngestionListPaginatesNewestFirst(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewIngestionRepository(db)
	newer := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM ingestion_processes`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY p.created_at DESC LIMIT $1 OFFSET $2`)).
		WithArgs(5, 10).
		WillReturnRows(sqlmock.NewRows(ingestionRowColumns).
			AddRow("p12", "completed", nil, nil, newer, newer,
				"d1", "Report", "r.pdf", "/uploads/d1_r.pdf", "application/pdf", int64(10), older, older,
				"u1", "ana@example.com", "editor").
			AddRow("p11", "pending", nil, nil, older, older,
				"d1", "Report", "r.pdf", "/uploads/d1_r.pdf", "application/pdf", int64(10), older, older,
				nil, nil, nil))

	page, err := repo.List(context.Background(), domain.NewPageRequest(3, 5))
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.Total != 12 || len(page.Items) != 2 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Items[0].ID != "p12" || !page.Items[0].CreatedAt.After(page.Items[1].CreatedAt) {
		t.Fatalf("expected newest first, got %s then %s", page.Items[0].ID, page.Items[1].ID)
	}
	want := domain.Principal{ID: "u1", Email: "ana@example.com", Role: domain.RoleEditor}
	if page.Items[0].TriggeredBy != want {
		t.Fatalf("unexpected trigger projection: %+v", page.Items[0].TriggeredBy)
	}
	if page.Items[1].TriggeredBy != (domain.Principal{}) {
		t.Fatalf("missing trigger must scan as zero principal: %+v", page.Items[1].TriggeredBy)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestIngestionSaveWritesMutableFields(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewIngestionRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE ingestion_processes").
		WithArgs("p1", "completed", nil, "u1", nil, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Save(context.Background(), &domain.IngestionProcess{
		ID:          "p1",
		Status:      domain.IngestionCompleted,
		TriggeredBy: domain.Principal{ID: "u1"},
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestIngestionSaveMissingRecord(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewIngestionRepository(db)

	mock.ExpectExec("UPDATE ingestion_processes").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Save(context.Background(), &domain.IngestionProcess{ID: "p404", Status: domain.IngestionFailed})
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestIngestionGetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewIngestionRepository(db)

	mock.ExpectQuery("FROM ingestion_processes p").
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "nope")
	if msg, _ := domain.PublicMessage(err); msg != "Ingestion process not found" {
		t.Fatalf("unexpected error %v", err)
	}
}
