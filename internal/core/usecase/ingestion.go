package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/docflow/internal/core/domain"
	"github.com/kirillkom/docflow/internal/core/ports"
)

var errNoDocumentPath = errors.New("ingestion process has no document file path")

type IngestionUseCase struct {
	repo      ports.IngestionRepository
	documents ports.DocumentReader
	worker    ports.IngestionWorker
	events    ports.IngestionEventPublisher

	now func() time.Time
	wg  sync.WaitGroup
}

// NewIngestionUseCase wires the ingestion state machine. events may be nil.
func NewIngestionUseCase(
	repo ports.IngestionRepository,
	documents ports.DocumentReader,
	worker ports.IngestionWorker,
	events ports.IngestionEventPublisher,
) *IngestionUseCase {
	return &IngestionUseCase{
		repo:      repo,
		documents: documents,
		worker:    worker,
		events:    events,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create records a PENDING process and hands the document to the worker in
// the background. The returned record never reflects the worker outcome.
func (uc *IngestionUseCase) Create(ctx context.Context, documentID string, by domain.Principal) (*domain.IngestionProcess, error) {
	doc, err := uc.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}

	now := uc.now()
	process := &domain.IngestionProcess{
		ID:          uuid.NewString(),
		DocumentID:  doc.ID,
		Document:    doc,
		TriggeredBy: by,
		Status:      domain.IngestionPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, process); err != nil {
		return nil, fmt.Errorf("create ingestion process: %w", err)
	}

	snapshot := *process
	uc.dispatch(context.WithoutCancel(ctx), &snapshot)
	return process, nil
}

// Wait blocks until every background dispatch started by Create has finished.
func (uc *IngestionUseCase) Wait() {
	uc.wg.Wait()
}

func (uc *IngestionUseCase) dispatch(ctx context.Context, process *domain.IngestionProcess) {
	uc.wg.Add(1)
	go func() {
		defer uc.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("ingestion_dispatch_panic", "process_id", process.ID, "panic", fmt.Sprint(rec))
			}
		}()

		if _, err := uc.triggerExternalIngestion(ctx, process); err != nil {
			slog.Error("ingestion_dispatch_failed", "process_id", process.ID, "error", err)
		}
	}()
}

// triggerExternalIngestion calls the worker and records the outcome. Worker
// failures become a FAILED status; only a failure to persist that outcome is
// returned to the caller.
func (uc *IngestionUseCase) triggerExternalIngestion(ctx context.Context, process *domain.IngestionProcess) (*domain.IngestionProcess, error) {
	callErr := uc.callWorker(ctx, process)
	if callErr != nil {
		slog.Warn("ingestion_worker_failed", "process_id", process.ID, "error", callErr)
		updated, err := uc.UpdateStatus(ctx, process.ID, domain.IngestionFailed, callErr.Error())
		if err != nil {
			return nil, fmt.Errorf("set status=failed: %w", err)
		}
		return updated, nil
	}

	updated, err := uc.UpdateStatus(ctx, process.ID, domain.IngestionCompleted, "")
	if err != nil {
		return nil, fmt.Errorf("set status=completed: %w", err)
	}
	return updated, nil
}

func (uc *IngestionUseCase) callWorker(ctx context.Context, process *domain.IngestionProcess) error {
	if process.Document == nil || process.Document.FilePath == "" {
		return errNoDocumentPath
	}
	return uc.worker.Ingest(ctx, domain.IngestionRequest{
		ProcessID:    process.ID,
		DocumentPath: process.Document.FilePath,
	})
}

// UpdateStatus is the single mutation point for a process status. An empty
// errMessage leaves the stored message untouched, except that COMPLETED
// always clears it.
func (uc *IngestionUseCase) UpdateStatus(
	ctx context.Context,
	id string,
	status domain.IngestionStatus,
	errMessage string,
) (*domain.IngestionProcess, error) {
	return uc.transition(ctx, id, status, errMessage, nil)
}

func (uc *IngestionUseCase) transition(
	ctx context.Context,
	id string,
	status domain.IngestionStatus,
	errMessage string,
	by *domain.Principal,
) (*domain.IngestionProcess, error) {
	if !status.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "update ingestion status", fmt.Errorf("unknown status %q", status))
	}

	process, err := uc.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}

	process.Status = status
	if errMessage != "" {
		process.ErrorMessage = errMessage
	}
	if status == domain.IngestionCompleted {
		process.ErrorMessage = ""
	}
	if by != nil {
		process.TriggeredBy = *by
	}
	process.UpdatedAt = uc.now()

	if err := uc.repo.Save(ctx, process); err != nil {
		return nil, fmt.Errorf("save ingestion process: %w", err)
	}
	uc.publish(ctx, process)
	return process, nil
}

func (uc *IngestionUseCase) publish(ctx context.Context, process *domain.IngestionProcess) {
	if uc.events == nil {
		return
	}
	event := domain.IngestionEvent{
		ProcessID:    process.ID,
		DocumentID:   process.DocumentID,
		Status:       process.Status,
		ErrorMessage: process.ErrorMessage,
		OccurredAt:   process.UpdatedAt,
	}
	if err := uc.events.PublishStatusChanged(ctx, event); err != nil {
		slog.Warn("ingestion_event_publish_failed", "process_id", process.ID, "status", process.Status, "error", err)
	}
}

func (uc *IngestionUseCase) FindAll(ctx context.Context, page domain.PageRequest) (domain.Page[domain.IngestionProcess], error) {
	result, err := uc.repo.List(ctx, domain.NewPageRequest(page.Page, page.Limit))
	if err != nil {
		return domain.Page[domain.IngestionProcess]{}, fmt.Errorf("list ingestion processes: %w", err)
	}
	return result, nil
}

func (uc *IngestionUseCase) FindOne(ctx context.Context, id string) (*domain.IngestionProcess, error) {
	process, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			return nil, domain.WrapError(domain.ErrNotFound, "find ingestion process", domain.ErrIngestionNotFound)
		}
		return nil, fmt.Errorf("find ingestion process: %w", err)
	}
	return process, nil
}

// ReprocessFailed retries every FAILED process, one at a time. Records whose
// retry attempt itself errors are marked FAILED and left out of the result.
func (uc *IngestionUseCase) ReprocessFailed(ctx context.Context, by domain.Principal) ([]domain.IngestionProcess, error) {
	failed, err := uc.repo.ListByStatus(ctx, domain.IngestionFailed)
	if err != nil {
		return nil, fmt.Errorf("list failed ingestion processes: %w", err)
	}
	if len(failed) == 0 {
		return nil, domain.ErrNoFailedIngestions
	}

	// A started batch runs to the end even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	reprocessed := make([]domain.IngestionProcess, 0, len(failed))
	for i := range failed {
		process := failed[i]
		updated, err := uc.retry(ctx, &process, by)
		if err != nil {
			slog.Error("ingestion_reprocess_failed", "process_id", process.ID, "error", err)
			if _, markErr := uc.UpdateStatus(ctx, process.ID, domain.IngestionFailed, err.Error()); markErr != nil {
				slog.Error("ingestion_reprocess_mark_failed", "process_id", process.ID, "error", markErr)
			}
			continue
		}
		reprocessed = append(reprocessed, *updated)
	}

	slog.Info("ingestion_reprocess_finished",
		"failed", len(failed),
		"reprocessed", len(reprocessed),
		"triggered_by", by.ID,
	)
	return reprocessed, nil
}

func (uc *IngestionUseCase) retry(ctx context.Context, process *domain.IngestionProcess, by domain.Principal) (*domain.IngestionProcess, error) {
	pending, err := uc.transition(ctx, process.ID, domain.IngestionPending, "", &by)
	if err != nil {
		return nil, fmt.Errorf("set status=pending: %w", err)
	}
	if pending.Document == nil {
		pending.Document = process.Document
	}
	return uc.triggerExternalIngestion(ctx, pending)
}
