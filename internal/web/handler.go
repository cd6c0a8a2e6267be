package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	gomponents "maragu.dev/gomponents"

	"github.com/wayfarer-app/wayfarer/internal/auth"
	"github.com/wayfarer-app/wayfarer/internal/bookings"
	"github.com/wayfarer-app/wayfarer/internal/reviews"
	"github.com/wayfarer-app/wayfarer/internal/shared"
	"github.com/wayfarer-app/wayfarer/internal/tours"
)

// Handler serves the rendered site. Pages go through the passive identity
// probe, so every view knows who is logged in without ever failing the
// request over a bad cookie.
type Handler struct {
	logger       *slog.Logger
	tours        *tours.Service
	reviews      *reviews.Service
	bookings     *bookings.Service
	auth         *auth.Service
	cookieTTL    time.Duration
	secureCookie bool
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, toursSvc *tours.Service, reviewsSvc *reviews.Service, bookingsSvc *bookings.Service, authSvc *auth.Service, cookieTTL time.Duration, secureCookie bool) *Handler {
	return &Handler{
		logger:       logger,
		tours:        toursSvc,
		reviews:      reviewsSvc,
		bookings:     bookingsSvc,
		auth:         authSvc,
		cookieTTL:    cookieTTL,
		secureCookie: secureCookie,
	}
}

// MountRoutes registers the page routes behind the identity probe.
func (h *Handler) MountRoutes(r chi.Router, mw auth.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(mw.Probe)
		r.Get("/", h.overview)
		r.Get("/tours/{slug}", h.tourDetail)
		r.Post("/tours/{slug}/book", h.bookTour)
		r.Get("/login", h.loginForm)
		r.Post("/login", h.loginSubmit)
		r.Post("/logout", h.logout)
		r.Get("/me", h.account)
		r.Get("/my-bookings", h.myBookings)
	})
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	list, _, err := h.tours.List(r.Context(), shared.NewListQuery().WithSort("name", false))
	if err != nil {
		h.renderError(w, principal, err)
		return
	}
	renderHTML(w, http.StatusOK, overviewPage(principal, list))
}

func (h *Handler) tourDetail(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	tour, err := h.tours.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.renderError(w, principal, err)
		return
	}
	tourReviews, err := h.reviews.ListByTour(r.Context(), tour.ID)
	if err != nil {
		h.renderError(w, principal, err)
		return
	}
	renderHTML(w, http.StatusOK, tourPage(principal, tour, tourReviews))
}

func (h *Handler) bookTour(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	tour, err := h.tours.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.renderError(w, principal, err)
		return
	}
	checkoutURL, err := h.bookings.Checkout(r.Context(), principal, tour.ID)
	if err != nil {
		h.renderError(w, principal, err)
		return
	}
	http.Redirect(w, r, checkoutURL, http.StatusSeeOther)
}

func (h *Handler) loginForm(w http.ResponseWriter, r *http.Request) {
	if auth.PrincipalFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	renderHTML(w, http.StatusOK, loginPage(r.URL.Query().Get("error")))
}

func (h *Handler) loginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/login?error=invalid+form", http.StatusSeeOther)
		return
	}
	email := r.Form.Get("email")
	password := r.Form.Get("password")

	_, token, err := h.auth.Login(r.Context(), email, password)
	if err != nil {
		msg := "something went wrong, try again"
		if errors.Is(err, shared.ErrInvalidCredentials) {
			msg = "incorrect email or password"
		}
		http.Redirect(w, r, "/login?error="+url.QueryEscape(msg), http.StatusSeeOther)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.cookieTTL),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    auth.LogoutSentinel,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) account(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	renderHTML(w, http.StatusOK, accountPage(principal))
}

func (h *Handler) myBookings(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	list, err := h.bookings.ListMine(r.Context(), principal)
	if err != nil {
		h.renderError(w, principal, err)
		return
	}
	renderHTML(w, http.StatusOK, bookingsPage(principal, list))
}

func (h *Handler) renderError(w http.ResponseWriter, principal *auth.Principal, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		renderHTML(w, http.StatusNotFound, errorPage(principal, "Page not found", "We could not find what you were looking for."))
		return
	}
	if h.logger != nil && !shared.IsOperational(err) {
		h.logger.Error("render page", slog.Any("error", err))
	}
	renderHTML(w, http.StatusInternalServerError, errorPage(principal, "Something went wrong", "Please try again later."))
}

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}
