package bookings

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wayfarer-app/wayfarer/internal/auth"
	"github.com/wayfarer-app/wayfarer/internal/payments"
	"github.com/wayfarer-app/wayfarer/internal/platform/httpx"
	"github.com/wayfarer-app/wayfarer/internal/shared"
)

// EventParser authenticates and decodes provider webhook deliveries.
type EventParser interface {
	ParseEvent(body []byte, header http.Header) (*payments.Event, error)
}

// Handler wires HTTP endpoints for bookings.
type Handler struct {
	logger  *slog.Logger
	service *Service
	parser  EventParser
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, parser EventParser) *Handler {
	return &Handler{logger: logger, service: service, parser: parser}
}

// MountRoutes registers the routes. The webhook stays outside the
// credential pipeline; its HMAC signature is the authentication.
func (h *Handler) MountRoutes(r chi.Router, mw auth.Middleware) {
	r.Post("/webhook", h.webhook)
	r.Group(func(r chi.Router) {
		r.Use(mw.Require)
		r.Get("/", h.listMine)
		r.Post("/checkout/{tourId}", h.checkout)
		r.Get("/{id}", h.get)
		r.Patch("/{id}/cancel", h.cancel)
	})
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
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

	url, err := h.service.Checkout(r.Context(), principal, tourID)
	if err != nil {
		h.respondErr(w, "checkout", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"status": "success",
		"data":   map[string]any{"checkoutUrl": url},
	})
}

func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: unreadable body", shared.ErrValidation))
		return
	}
	event, err := h.parser.ParseEvent(body, r.Header)
	if err != nil {
		h.respondErr(w, "parse webhook", err)
		return
	}
	if err := h.service.HandleEvent(r.Context(), event); err != nil {
		h.respondErr(w, "handle webhook", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"received": true})
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, shared.ErrCredentialAbsent)
		return
	}
	bookings, err := h.service.ListMine(r.Context(), principal)
	if err != nil {
		h.respondErr(w, "list bookings", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"results": len(bookings),
		"data":    map[string]any{"bookings": bookings},
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, shared.ErrCredentialAbsent)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid booking id", shared.ErrValidation))
		return
	}

	booking, err := h.service.Get(r.Context(), principal, id)
	if err != nil {
		h.respondErr(w, "get booking", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   map[string]any{"booking": booking},
	})
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, shared.ErrCredentialAbsent)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid booking id", shared.ErrValidation))
		return
	}

	if err := h.service.Cancel(r.Context(), principal, id); err != nil {
		h.respondErr(w, "cancel booking", err)
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
