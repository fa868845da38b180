package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/docflow/internal/core/domain"
	"github.com/kirillkom/docflow/internal/infrastructure/resilience"
)

// Connection states the client recovers from on its own.
var connectionErrors = []error{
	nats.ErrNoServers,
	nats.ErrTimeout,
	nats.ErrConnectionClosed,
	nats.ErrConnectionDraining,
	nats.ErrDisconnected,
	nats.ErrConnectionReconnecting,
}

// Rejections of the event itself. Retrying sends the same bytes again.
var eventErrors = []error{
	nats.ErrMaxPayload,
	nats.ErrBadSubject,
	nats.ErrInvalidMsg,
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// classifyPublishError only counts connection trouble against the breaker.
func classifyPublishError(err error) resilience.ErrorClassification {
	switch {
	case err == nil:
		return resilience.ErrorClassification{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resilience.ErrorClassification{}
	case matchesAny(err, connectionErrors):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	case matchesAny(err, eventErrors):
		return resilience.ErrorClassification{}
	default:
		return resilience.ErrorClassification{RecordFailure: true}
	}
}

// publishFailure tags a failed status event with the process it belongs to.
func publishFailure(event domain.IngestionEvent, err error) error {
	if err == nil {
		return nil
	}
	op := "publish ingestion event " + event.ProcessID
	switch {
	case domain.IsKind(err, domain.ErrTemporary):
		return err
	case resilience.IsCircuitOpen(err), matchesAny(err, connectionErrors):
		return domain.WrapError(domain.ErrTemporary, op, err)
	case matchesAny(err, eventErrors):
		return domain.WrapError(domain.ErrInvalidInput, op, err)
	default:
		return err
	}
}
