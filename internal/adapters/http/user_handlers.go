package httpadapter

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kirillkom/docflow/internal/core/domain"
)

type createUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,has_upper,has_lower,has_digit,has_special"`
	Role     string `json:"role" validate:"omitempty,oneof=admin editor viewer"`
}

type updateUserRequest struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=8,has_upper,has_lower,has_digit,has_special"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin editor viewer"`
}

func (rt *Router) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := rt.users.Create(r.Context(), domain.NewUser{
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (rt *Router) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := rt.users.FindAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (rt *Router) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := rt.users.FindOne(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (rt *Router) updateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	patch := domain.UserPatch{Email: req.Email, Password: req.Password}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		patch.Role = &role
	}

	user, err := rt.users.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (rt *Router) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := rt.users.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, true)
}
