package users

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/wayfarer-app/wayfarer/internal/auth"
	"github.com/wayfarer-app/wayfarer/internal/platform/httpx"
	"github.com/wayfarer-app/wayfarer/internal/shared"
)

// Handler wires HTTP endpoints for account administration and the /me
// self-service routes.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers the routes. Self-service routes need only a
// principal; the rest is admin territory.
func (h *Handler) MountRoutes(r chi.Router, mw auth.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(mw.Require)
		r.Get("/me", h.me)
		r.Patch("/me", h.updateMe)
		r.Delete("/me", h.deleteMe)
	})
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireRoles(auth.RoleAdmin))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Patch("/{id}", h.adminUpdate)
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, shared.ErrCredentialAbsent)
		return
	}
	user, err := h.service.Get(r.Context(), principal.ID)
	if err != nil {
		h.respondErr(w, "get profile", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   map[string]any{"user": user},
	})
}

// updateMeRequest captures password fields only to reject them; profile
// updates never touch credentials.
type updateMeRequest struct {
	Name            *string `json:"name" validate:"omitempty,min=1"`
	Email           *string `json:"email" validate:"omitempty,email"`
	Photo           *string `json:"photo"`
	Password        *string `json:"password"`
	PasswordConfirm *string `json:"passwordConfirm"`
}

func (h *Handler) updateMe(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, shared.ErrCredentialAbsent)
		return
	}

	var req updateMeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", shared.ErrValidation))
		return
	}
	if req.Password != nil || req.PasswordConfirm != nil {
		httpx.RespondError(w, fmt.Errorf("%w: this route is not for password updates, use /update-password", shared.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", shared.ErrValidation, validationDetail(err)))
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), principal.ID, UpdateProfileParams{
		Name:  req.Name,
		Email: req.Email,
		Photo: req.Photo,
	})
	if err != nil {
		h.respondErr(w, "update profile", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   map[string]any{"user": user},
	})
}

func (h *Handler) deleteMe(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, shared.ErrCredentialAbsent)
		return
	}
	if err := h.service.Deactivate(r.Context(), principal.ID); err != nil {
		h.respondErr(w, "deactivate account", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	query := shared.ParseListQuery(r.URL.Query(), ListColumns, "created_at", true)
	users, pagination, err := h.service.List(r.Context(), query)
	if err != nil {
		h.respondErr(w, "list users", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"status":     "success",
		"results":    len(users),
		"pagination": pagination,
		"data":       map[string]any{"users": users},
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid user id", shared.ErrValidation))
		return
	}
	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, "get user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   map[string]any{"user": user},
	})
}

type adminUpdateRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Photo    *string `json:"photo"`
	Role     *string `json:"role" validate:"omitempty,oneof=user guide lead-guide admin"`
	IsActive *bool   `json:"active"`
}

func (h *Handler) adminUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid user id", shared.ErrValidation))
		return
	}

	var req adminUpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", shared.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", shared.ErrValidation, validationDetail(err)))
		return
	}

	params := AdminUpdateParams{
		Name:     req.Name,
		Email:    req.Email,
		Photo:    req.Photo,
		IsActive: req.IsActive,
	}
	if req.Role != nil {
		role, ok := auth.ParseRole(*req.Role)
		if !ok {
			httpx.RespondError(w, fmt.Errorf("%w: unknown role", shared.ErrValidation))
			return
		}
		params.Role = &role
	}

	user, err := h.service.AdminUpdate(r.Context(), id, params)
	if err != nil {
		h.respondErr(w, "admin update user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   map[string]any{"user": user},
	})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid user id", shared.ErrValidation))
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondErr(w, "delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondErr(w http.ResponseWriter, op string, err error) {
	if !shared.IsOperational(err) && h.logger != nil {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func validationDetail(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return "invalid payload"
	}
	return fmt.Sprintf("field %s failed %s validation", errs[0].Field(), errs[0].Tag())
}
