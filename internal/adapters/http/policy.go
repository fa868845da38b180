package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kirillkom/docflow/internal/core/authz"
	"github.com/kirillkom/docflow/internal/core/domain"
)

const (
	groupAuth      = "auth"
	groupUser      = "user"
	groupDocuments = "documents"
	groupIngestion = "ingestion"
)

// DefaultPolicy is the access table for every routed operation.
func DefaultPolicy() *authz.Policy {
	return authz.NewPolicy().
		Group(groupAuth, authz.Authenticated()).
		Handler(groupAuth, "login", authz.Public()).
		Group(groupUser, authz.Authenticated()).
		Handler(groupUser, "create", authz.Public()).
		Handler(groupUser, "findAll", authz.Roles(domain.RoleAdmin)).
		Handler(groupUser, "findOne", authz.Roles(domain.RoleAdmin)).
		Handler(groupUser, "update", authz.Roles(domain.RoleAdmin)).
		Handler(groupUser, "remove", authz.Roles(domain.RoleAdmin)).
		Group(groupDocuments, authz.Authenticated()).
		Handler(groupDocuments, "create", authz.Roles(domain.RoleAdmin, domain.RoleEditor)).
		Handler(groupDocuments, "update", authz.Roles(domain.RoleAdmin, domain.RoleEditor)).
		Handler(groupDocuments, "remove", authz.Roles(domain.RoleAdmin)).
		Group(groupIngestion, authz.Authenticated()).
		Handler(groupIngestion, "create", authz.Roles(domain.RoleAdmin, domain.RoleEditor)).
		Handler(groupIngestion, "reprocessFailed", authz.Roles(domain.RoleAdmin))
}

type principalContextKey struct{}

func withPrincipal(ctx context.Context, principal *domain.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal)
}

func principalFromContext(ctx context.Context) (*domain.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey{}).(*domain.Principal)
	return principal, ok && principal != nil
}

// guard authenticates the bearer token and applies the policy entry for the
// operation. Public operations skip both steps.
func (rt *Router) guard(group, handler string) func(http.Handler) http.Handler {
	op := authz.Operation{Group: group, Handler: handler}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rt.policy.IsPublic(op) {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := rt.authenticate(r)
			if err != nil {
				writeError(w, r, err)
				return
			}

			decision := rt.policy.Decide(op, principal)
			if !decision.Allowed {
				slog.Warn("authorization_denied",
					"request_id", requestIDFromContext(r.Context()),
					"operation", op.String(),
					"user_id", principal.ID,
					"role", string(principal.Role),
					"reason", decision.Reason,
				)
				writeError(w, r, errForbiddenRequest)
				return
			}

			next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), principal)))
		})
	}
}

func (rt *Router) authenticate(r *http.Request) (*domain.Principal, error) {
	token, ok := bearerToken(r)
	if !ok {
		return nil, domain.WrapError(domain.ErrUnauthorized, "authenticate", errMissingToken)
	}
	return rt.auth.ResolvePrincipal(r.Context(), token)
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
