package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/kirillkom/docflow/internal/core/domain"
	"github.com/kirillkom/docflow/internal/core/ports"
)

// EventAuditUseCase consumes ingestion status events outside the API process.
type EventAuditUseCase struct {
	observer ports.IngestionEventObserver
	now      func() time.Time
}

func NewEventAuditUseCase(observer ports.IngestionEventObserver) *EventAuditUseCase {
	return &EventAuditUseCase{
		observer: observer,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (uc *EventAuditUseCase) Handle(_ context.Context, event domain.IngestionEvent) error {
	if event.ProcessID == "" || !event.Status.Valid() {
		return domain.WrapError(domain.ErrInvalidInput, "handle ingestion event", errors.New("malformed event"))
	}

	var lag time.Duration
	if !event.OccurredAt.IsZero() {
		lag = uc.now().Sub(event.OccurredAt)
	}
	uc.observer.ObserveTransition(event.Status, lag)

	attrs := []any{
		"process_id", event.ProcessID,
		"document_id", event.DocumentID,
		"status", event.Status,
		"lag_ms", lag.Milliseconds(),
	}
	if event.Status == domain.IngestionFailed {
		slog.Warn("ingestion_failed", append(attrs, "error", event.ErrorMessage)...)
		return nil
	}
	slog.Info("ingestion_transition", attrs...)
	return nil
}
