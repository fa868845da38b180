package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kirillkom/docflow/internal/config"
	"github.com/kirillkom/docflow/internal/core/authz"
	"github.com/kirillkom/docflow/internal/core/domain"
	"github.com/kirillkom/docflow/internal/core/ports"
	"github.com/kirillkom/docflow/internal/observability/metrics"
)

const serviceName = "api"

// Services are the inbound ports served over HTTP.
type Services struct {
	Auth      ports.Authenticator
	Users     ports.UserService
	Documents ports.DocumentService
	Ingestion ports.IngestionService
}

type Router struct {
	cfg       config.Config
	auth      ports.Authenticator
	users     ports.UserService
	documents ports.DocumentService
	ingestion ports.IngestionService
	policy    *authz.Policy
	metrics   *metrics.HTTPServerMetrics
}

// NewRouter wires the handlers. httpMetrics may be nil.
func NewRouter(cfg config.Config, services Services, httpMetrics *metrics.HTTPServerMetrics) *Router {
	return &Router{
		cfg:       cfg,
		auth:      services.Auth,
		users:     services.Users,
		documents: services.Documents,
		ingestion: services.Ingestion,
		policy:    DefaultPolicy(),
		metrics:   httpMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware, accessLogMiddleware, recoverMiddleware)
	if rt.metrics != nil {
		r.Use(func(next http.Handler) http.Handler {
			return rt.metrics.Middleware(serviceName, next)
		})
	}
	r.Use(corsMiddleware(rt.cfg.CORSAllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/healthz", rt.healthz)
	if rt.metrics != nil {
		r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	r.Group(func(api chi.Router) {
		api.Use(rt.trafficControl)

		api.Route("/auth", func(g chi.Router) {
			g.With(rt.guard(groupAuth, "login")).Post("/login", rt.login)
			g.With(rt.guard(groupAuth, "profile")).Get("/profile", rt.profile)
		})

		api.Route("/user", func(g chi.Router) {
			g.With(rt.guard(groupUser, "create")).Post("/", rt.createUser)
			g.With(rt.guard(groupUser, "findAll")).Get("/", rt.listUsers)
			g.With(rt.guard(groupUser, "findOne")).Get("/{id}", rt.getUser)
			g.With(rt.guard(groupUser, "update")).Patch("/{id}", rt.updateUser)
			g.With(rt.guard(groupUser, "remove")).Delete("/{id}", rt.deleteUser)
		})

		api.Route("/documents", func(g chi.Router) {
			g.With(rt.guard(groupDocuments, "create")).Post("/", rt.createDocument)
			g.With(rt.guard(groupDocuments, "findAll")).Get("/", rt.listDocuments)
			g.With(rt.guard(groupDocuments, "findOne")).Get("/{id}", rt.getDocument)
			g.With(rt.guard(groupDocuments, "download")).Get("/{id}/file", rt.downloadDocument)
			g.With(rt.guard(groupDocuments, "update")).Patch("/{id}", rt.updateDocument)
			g.With(rt.guard(groupDocuments, "remove")).Delete("/{id}", rt.deleteDocument)
		})

		api.Route("/ingestion", func(g chi.Router) {
			g.With(rt.guard(groupIngestion, "create")).Post("/", rt.createIngestion)
			g.With(rt.guard(groupIngestion, "findAll")).Get("/", rt.listIngestions)
			g.With(rt.guard(groupIngestion, "reprocessFailed")).Post("/reprocess-failed", rt.reprocessFailed)
			g.With(rt.guard(groupIngestion, "findOne")).Get("/{id}", rt.getIngestion)
		})
	})

	return r
}

// trafficControl rate-limits first so rejected requests never hold a slot.
func (rt *Router) trafficControl(next http.Handler) http.Handler {
	onReject := func(reason string) {
		if rt.metrics != nil {
			rt.metrics.RecordRejected(serviceName, reason)
		}
	}
	gated := backpressureMiddleware(next, rt.cfg.APIMaxInFlight, rt.cfg.APIBackpressureWait, onReject)
	return rateLimitMiddleware(gated, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, onReject)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type pageQuery struct {
	Page  string `json:"page" validate:"omitempty,number"`
	Limit string `json:"limit" validate:"omitempty,number"`
}

// pageFromQuery rejects malformed values; absent or zero values fall back to
// the defaults.
func pageFromQuery(r *http.Request) (domain.PageRequest, error) {
	q := pageQuery{Page: r.URL.Query().Get("page"), Limit: r.URL.Query().Get("limit")}
	if err := validateStruct(&q); err != nil {
		return domain.PageRequest{}, err
	}
	page, err := atoiOrZero("page", q.Page)
	if err != nil {
		return domain.PageRequest{}, err
	}
	limit, err := atoiOrZero("limit", q.Limit)
	if err != nil {
		return domain.PageRequest{}, err
	}
	return domain.NewPageRequest(page, limit), nil
}

func atoiOrZero(field, raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewError(domain.ErrInvalidInput, field+" is out of range")
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
