package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/docflow/internal/config"
	"github.com/kirillkom/docflow/internal/core/domain"
	"github.com/kirillkom/docflow/internal/core/ports"
	"github.com/kirillkom/docflow/internal/core/usecase"
	"github.com/kirillkom/docflow/internal/infrastructure/ingestworker"
	"github.com/kirillkom/docflow/internal/infrastructure/queue/nats"
	"github.com/kirillkom/docflow/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/docflow/internal/infrastructure/resilience"
	"github.com/kirillkom/docflow/internal/infrastructure/security"
	"github.com/kirillkom/docflow/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/docflow/internal/observability/metrics"
)

const apiService = "api"

type App struct {
	Config  config.Config
	Metrics *metrics.HTTPServerMetrics

	AuthUC      *usecase.AuthUseCase
	UserUC      *usecase.UserUseCase
	DocumentUC  *usecase.DocumentUseCase
	IngestionUC *usecase.IngestionUseCase

	closeFn func()
}

// New wires the API process: postgres, local storage, the worker client and
// the optional NATS publisher.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	tokens, err := security.NewJWTIssuer(cfg.JWTSecret, cfg.JWTExpiresIn)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init token issuer: %w", err)
	}
	hasher := security.NewBcryptHasher(cfg.BcryptCost)

	httpMetrics := metrics.NewHTTPServerMetrics(apiService)

	workerPolicy := resilience.IngestionWorkerConfig(cfg.IngestionBreakerOn)
	workerPolicy.OnStateChange = func(operation, _, to string) {
		httpMetrics.SetBreakerState(apiService, operation, to)
	}
	worker := &instrumentedWorker{
		next: ingestworker.NewWithOptions(cfg.IngestionWorkerURL, ingestworker.Options{
			Timeout:            cfg.IngestionWorkerTimeout,
			ResilienceExecutor: resilience.NewExecutor(workerPolicy),
		}),
		metrics: httpMetrics,
	}

	var (
		events ports.IngestionEventPublisher
		queue  *nats.Queue
	)
	if cfg.NATSURL != "" {
		publishPolicy := resilience.EventPublishConfig()
		publishPolicy.OnStateChange = func(operation, _, to string) {
			httpMetrics.SetBreakerState(apiService, operation, to)
		}
		queue, err = nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ClientName:         "docflow-api",
			ResilienceExecutor: resilience.NewExecutor(publishPolicy),
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init event publisher: %w", err)
		}
		events = queue
	}

	users := postgres.NewUserRepository(db)
	documents := postgres.NewDocumentRepository(db)
	ingestions := postgres.NewIngestionRepository(db)

	return &App{
		Config:  cfg,
		Metrics: httpMetrics,

		AuthUC:      usecase.NewAuthUseCase(users, hasher, tokens),
		UserUC:      usecase.NewUserUseCase(users, hasher),
		DocumentUC:  usecase.NewDocumentUseCase(documents, storage),
		IngestionUC: usecase.NewIngestionUseCase(ingestions, documents, worker, events),

		closeFn: func() {
			if queue != nil {
				queue.Close()
			}
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// WaitForDispatches waits for background ingestion calls, at most timeout.
func (a *App) WaitForDispatches(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		a.IngestionUC.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

type WorkerApp struct {
	Config     config.Config
	Subscriber ports.IngestionEventSubscriber
	Metrics    *metrics.WorkerMetrics
	AuditUC    *usecase.EventAuditUseCase

	closeFn func()
}

// NewWorker wires the event consumer process. It needs NATS and nothing else.
func NewWorker(cfg config.Config) (*WorkerApp, error) {
	if cfg.NATSURL == "" {
		return nil, errors.New("NATS_URL is required for the worker")
	}
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ClientName: "docflow-worker",
		QueueGroup: cfg.NATSQueue,
	})
	if err != nil {
		return nil, fmt.Errorf("init event subscriber: %w", err)
	}

	workerMetrics := metrics.NewWorkerMetrics("worker")
	return &WorkerApp{
		Config:     cfg,
		Subscriber: queue,
		Metrics:    workerMetrics,
		AuditUC:    usecase.NewEventAuditUseCase(workerMetrics),
		closeFn:    queue.Close,
	}, nil
}

func (a *WorkerApp) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

type workerCallRecorder interface {
	RecordWorkerCall(service string, duration time.Duration, err error)
}

// instrumentedWorker times every call to the external ingestion worker.
type instrumentedWorker struct {
	next    ports.IngestionWorker
	metrics workerCallRecorder
}

func (w *instrumentedWorker) Ingest(ctx context.Context, req domain.IngestionRequest) error {
	start := time.Now()
	err := w.next.Ingest(ctx, req)
	w.metrics.RecordWorkerCall(apiService, time.Since(start), err)
	return err
}
