package ingestworker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/kirillkom/docflow/internal/core/domain"
	"github.com/kirillkom/docflow/internal/infrastructure/resilience"
)

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "ingestion worker status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("ingestion worker %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("ingestion worker %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

// classifyWorkerError never asks for a retry; it only decides what counts
// against the breaker. 4xx responses mean the worker is healthy but rejected
// the request.
func classifyWorkerError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) {
		return resilience.ErrorClassification{RecordFailure: false}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return resilience.ErrorClassification{RecordFailure: isServerSideStatus(statusErr.StatusCode)}
	}
	return resilience.ErrorClassification{RecordFailure: true}
}

func wrapTemporaryIfNeeded(operation string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		return err
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) && isServerSideStatus(statusErr.StatusCode) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}

func isServerSideStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	default:
		return statusCode >= 500
	}
}
