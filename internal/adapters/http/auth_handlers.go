package httpadapter

import (
	"net/http"

	"github.com/kirillkom/docflow/internal/core/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// login answers 201 like the other create-style POST endpoints.
func (rt *Router) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	session, err := rt.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (rt *Router) profile(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r.Context())
	if !ok {
		writeError(w, r, domain.WrapError(domain.ErrUnauthorized, "profile", errMissingToken))
		return
	}
	writeJSON(w, http.StatusOK, principal)
}

func currentPrincipal(r *http.Request) domain.Principal {
	if principal, ok := principalFromContext(r.Context()); ok {
		return *principal
	}
	return domain.Principal{}
}
