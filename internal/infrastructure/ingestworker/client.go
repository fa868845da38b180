package ingestworker

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/docflow/internal/core/domain"
	"github.com/kirillkom/docflow/internal/infrastructure/resilience"
)

const operationIngest = "ingestion-worker.ingest"

// Client hands documents to the external ingestion worker over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	Timeout            time.Duration
	HTTPClient         *http.Client
	ResilienceExecutor *resilience.Executor
}

func New(baseURL string) *Client {
	return NewWithOptions(baseURL, Options{})
}

func NewWithOptions(baseURL string, options Options) *Client {
	httpClient := options.HTTPClient
	if httpClient == nil {
		timeout := options.Timeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		executor:   options.ResilienceExecutor,
	}
}

// Ingest posts {processId, documentPath} to /ingest. Any 2xx response counts
// as success; the body is ignored.
func (c *Client) Ingest(ctx context.Context, req domain.IngestionRequest) error {
	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/ingest", req, "ingest")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, operationIngest, call, classifyWorkerError)
	} else {
		err = call(ctx)
	}
	return wrapTemporaryIfNeeded("ingest", err)
}
