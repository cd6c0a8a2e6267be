package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/wayfarer-app/wayfarer/internal/platform/httpx"
	"github.com/wayfarer-app/wayfarer/internal/shared"
)

// HandlerConfig carries the cookie and link settings the handler needs.
type HandlerConfig struct {
	CookieTTL     time.Duration
	SecureCookie  bool
	PublicBaseURL string
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	cfg       HandlerConfig
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, cfg HandlerConfig) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
		cfg:       cfg,
	}
}

// Credential endpoints get a tighter per-IP bucket than the global limiter
// to slow down password guessing and reset-mail floods.
const (
	credentialRateLimit  = 10
	credentialRateWindow = time.Minute
)

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router, mw Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(credentialRateLimit, credentialRateWindow, httprate.WithKeyFuncs(httprate.KeyByIP)))
		r.Post("/signup", h.signUp)
		r.Post("/login", h.login)
		r.Post("/forgot-password", h.forgotPassword)
		r.Patch("/reset-password/{token}", h.resetPassword)
	})
	r.Post("/logout", h.logout)
	r.With(mw.Require).Patch("/update-password", h.updatePassword)
}

type accountView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Photo string `json:"photo,omitempty"`
	Role  Role   `json:"role"`
}

func newAccountView(a *Account) accountView {
	return accountView{ID: a.ID, Name: a.Name, Email: a.Email, Photo: a.Photo, Role: a.Role}
}

type signUpRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Photo    string `json:"photo"`
}

func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", shared.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", shared.ErrValidation, validationDetail(err)))
		return
	}

	account, token, err := h.service.SignUp(r.Context(), SignUpParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Photo:    req.Photo,
	})
	if err != nil {
		h.respondErr(w, "signup", err)
		return
	}
	h.sendToken(w, account, token, http.StatusCreated)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", shared.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", shared.ErrValidation, validationDetail(err)))
		return
	}

	account, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondErr(w, "login", err)
		return
	}
	h.sendToken(w, account, token, http.StatusOK)
}

/// logout instructs the client to discard the credential: the cookie is
// overwritten with a sentinel that expires almost immediately. The token
// itself stays valid until its natural expiry; there is no server-side
// revocation list.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    LogoutSentinel,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "success"})
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", shared.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", shared.ErrValidation, validationDetail(err)))
		return
	}

	resetURLBase := h.cfg.PublicBaseURL + "/api/v1/users/reset-password"
	if err := h.service.ForgotPassword(r.Context(), req.Email, resetURLBase); err != nil {
		h.respondErr(w, "forgot password", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "reset password url sent to email",
	})
}

type resetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", shared.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", shared.ErrValidation, validationDetail(err)))
		return
	}

	account, token, err := h.service.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password)
	if err != nil {
		h.respondErr(w, "reset password", err)
		return
	}
	h.sendToken(w, account, token, http.StatusOK)
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
}

func (h *Handler) updatePassword(w http.ResponseWriter, r *http.Request) {
	principal := PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, shared.ErrCredentialAbsent)
		return
	}

	var req updatePasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", shared.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", shared.ErrValidation, validationDetail(err)))
		return
	}

	account, token, err := h.service.UpdatePassword(r.Context(), principal.ID, req.CurrentPassword, req.Password)
	if err != nil {
		h.respondErr(w, "update password", err)
		return
	}
	h.sendToken(w, account, token, http.StatusOK)
}

// sendToken writes the credential both as a cookie and in the response
// body, alongside the account view.
func (h *Handler) sendToken(w http.ResponseWriter, account *Account, token string, status int) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.cfg.CookieTTL),
		HttpOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	httpx.JSON(w, status, map[string]any{
		"status": "success",
		"token":  token,
		"data":   map[string]any{"user": newAccountView(account)},
	})
}

func (h *Handler) respondErr(w http.ResponseWriter, op string, err error) {
	if !shared.IsOperational(err) && h.logger != nil {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func validationDetail(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return fieldErrs[0].Field() + " is invalid"
	}
	return "invalid request"
}
