package reviews

import (
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

// Handler wires HTTP endpoints for reviews.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountTourRoutes registers the routes nested under a tour.
func (h *Handler) MountTourRoutes(r chi.Router, mw auth.Middleware) {
	r.Get("/", h.listByTour)
	r.With(mw.RequireRoles(auth.RoleUser)).Post("/", h.create)
}

// MountRoutes registers the flat review routes.
func (h *Handler) MountRoutes(r chi.Router, mw auth.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(mw.Require)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler) listByTour(w http.ResponseWriter, r *http.Request) {
	tourID, err := strconv.ParseInt(chi.URLParam(r, "tourId"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid tour id", shared.ErrValidation))
		return
	}
	reviews, err := h.service.ListByTour(r.Context(), tourID)
	if err != nil {
		h.respondErr(w, "list reviews", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"results": len(reviews),
		"data":    map[string]any{"reviews": reviews},
	})
}

type createReviewRequest struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Review string `json:"review" validate:"required"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, shared.ErrCredentialAbsent)
		return
	}
	tourID, err := strconv.ParseInt(chi.URLParam(r, "tourId"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid tour id", shared.ErrValidation))
		return
	}

	var req createReviewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", shared.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: rating must be 1-5 and review non-empty", shared.ErrValidation))
		return
	}

	review, err := h.service.Create(r.Context(), principal, tourID, req.Rating, req.Review)
	if err != nil {
		h.respondErr(w, "create review", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"status": "success",
		"data":   map[string]any{"review": review},
	})
}

type updateReviewRequest struct {
	Rating *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Review *string `json:"review"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, shared.ErrCredentialAbsent)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid review id", shared.ErrValidation))
		return
	}

	var req updateReviewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", shared.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: rating must be 1-5", shared.ErrValidation))
		return
	}

	review, err := h.service.Update(r.Context(), principal, id, UpdateReviewParams{Rating: req.Rating, Review: req.Review})
	if err != nil {
		h.respondErr(w, "update review", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   map[string]any{"review": review},
	})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, shared.ErrCredentialAbsent)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid review id", shared.ErrValidation))
		return
	}

	if err := h.service.Delete(r.Context(), principal, id); err != nil {
		h.respondErr(w, "delete review", err)
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
