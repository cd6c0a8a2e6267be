package tours

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/wayfarer-app/wayfarer/internal/auth"
	"github.com/wayfarer-app/wayfarer/internal/platform/httpx"
	"github.com/wayfarer-app/wayfarer/internal/shared"
)

const milesPerKm = 0.621371

// Handler wires HTTP endpoints for tours.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers tour routes. Listing and detail are public; writes
// are restricted to administrators and lead guides, and the monthly plan to
// staff roles.
func (h *Handler) MountRoutes(r chi.Router, mw auth.Middleware) {
	r.Get("/", h.list)
	r.Get("/top-5-cheap", h.topFiveCheap)
	r.Get("/stats", h.stats)
	r.With(mw.RequireRoles(auth.RoleAdmin, auth.RoleLeadGuide, auth.RoleGuide)).
		Get("/monthly-plan/{year}", h.monthlyPlan)
	r.Get("/within/{distance}/center/{latlng}/unit/{unit}", h.within)
	r.Get("/distances/{latlng}/unit/{unit}", h.distances)
	r.Get("/slug/{slug}", h.getBySlug)
	r.Get("/{tourId}", h.get)

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireRoles(auth.RoleAdmin, auth.RoleLeadGuide))
		r.Post("/", h.create)
		r.Patch("/{tourId}", h.update)
		r.Delete("/{tourId}", h.delete)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := shared.ParseListQuery(r.URL.Query(), ListColumns, "created_at", true)
	h.respondList(w, r, q)
}

// topFiveCheap is the canned "top 5 cheapest, best rated first" listing.
func (h *Handler) topFiveCheap(w http.ResponseWriter, r *http.Request) {
	q := shared.NewListQuery().
		WithSort("price", false).
		WithSort("ratings_average", true).
		WithPage(1, 5)
	h.respondList(w, r, q)
}

func (h *Handler) respondList(w http.ResponseWriter, r *http.Request, q shared.ListQuery) {
	tours, pagination, err := h.service.List(r.Context(), q)
	if err != nil {
		h.respondErr(w, "list tours", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"status":     "success",
		"results":    len(tours),
		"pagination": pagination,
		"data":       map[string]any{"tours": tours},
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "tourId"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid tour id", shared.ErrValidation))
		return
	}
	tour, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, "get tour", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   map[string]any{"tour": tour},
	})
}

func (h *Handler) getBySlug(w http.ResponseWriter, r *http.Request) {
	tour, err := h.service.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.respondErr(w, "get tour by slug", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   map[string]any{"tour": tour},
	})
}

type locationPayload struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Address     string  `json:"address"`
	Description string  `json:"description"`
	Day         int     `json:"day"`
}

func (p locationPayload) toLocation() Location {
	return Location{Lat: p.Lat, Lng: p.Lng, Address: p.Address, Description: p.Description, Day: p.Day}
}

type createTourRequest struct {
	Name          string            `json:"name" validate:"required"`
	Duration      int               `json:"duration" validate:"required,gt=0"`
	MaxGroupSize  int               `json:"maxGroupSize" validate:"required,gt=0"`
	Difficulty    string            `json:"difficulty" validate:"required,oneof=easy medium difficult"`
	Price         float64           `json:"price" validate:"required,gt=0"`
	PriceDiscount *float64          `json:"priceDiscount"`
	Summary       string            `json:"summary" validate:"required"`
	Description   string            `json:"description"`
	ImageCover    string            `json:"imageCover" validate:"required"`
	Images        []string          `json:"images"`
	StartDates    []time.Time       `json:"startDates"`
	Secret        bool              `json:"secret"`
	StartLocation locationPayload   `json:"startLocation"`
	Locations     []locationPayload `json:"locations"`
	GuideIDs      []int64           `json:"guideIds"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createTourRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", shared.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", shared.ErrValidation, validationDetail(err)))
		return
	}

	difficulty, _ := ParseDifficulty(req.Difficulty)
	locations := make([]Location, 0, len(req.Locations))
	for _, l := range req.Locations {
		locations = append(locations, l.toLocation())
	}

	tour, err := h.service.Create(r.Context(), CreateTourParams{
		Name:          req.Name,
		Duration:      req.Duration,
		MaxGroupSize:  req.MaxGroupSize,
		Difficulty:    difficulty,
		Price:         req.Price,
		PriceDiscount: req.PriceDiscount,
		Summary:       req.Summary,
		Description:   req.Description,
		ImageCover:    req.ImageCover,
		Images:        req.Images,
		StartDates:    req.StartDates,
		Secret:        req.Secret,
		StartLocation: req.StartLocation.toLocation(),
		Locations:     locations,
		GuideIDs:      req.GuideIDs,
	})
	if err != nil {
		h.respondErr(w, "create tour", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"status": "success",
		"data":   map[string]any{"tour": tour},
	})
}

type updateTourRequest struct {
	Name          *string            `json:"name"`
	Duration      *int               `json:"duration" validate:"omitempty,gt=0"`
	MaxGroupSize  *int               `json:"maxGroupSize" validate:"omitempty,gt=0"`
	Difficulty    *string            `json:"difficulty" validate:"omitempty,oneof=easy medium difficult"`
	Price         *float64           `json:"price" validate:"omitempty,gt=0"`
	PriceDiscount *float64           `json:"priceDiscount"`
	Summary       *string            `json:"summary"`
	Description   *string            `json:"description"`
	ImageCover    *string            `json:"imageCover"`
	Images        *[]string          `json:"images"`
	StartDates    *[]time.Time       `json:"startDates"`
	Secret        *bool              `json:"secret"`
	StartLocation *locationPayload   `json:"startLocation"`
	Locations     *[]locationPayload `json:"locations"`
	GuideIDs      *[]int64           `json:"guideIds"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "tourId"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid tour id", shared.ErrValidation))
		return
	}

	var req updateTourRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", shared.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", shared.ErrValidation, validationDetail(err)))
		return
	}

	params := UpdateTourParams{
		Name:          req.Name,
		Duration:      req.Duration,
		MaxGroupSize:  req.MaxGroupSize,
		Price:         req.Price,
		PriceDiscount: req.PriceDiscount,
		Summary:       req.Summary,
		Description:   req.Description,
		ImageCover:    req.ImageCover,
		Images:        req.Images,
		StartDates:    req.StartDates,
		Secret:        req.Secret,
		GuideIDs:      req.GuideIDs,
	}
	if req.Difficulty != nil {
		difficulty, _ := ParseDifficulty(*req.Difficulty)
		params.Difficulty = &difficulty
	}
	if req.StartLocation != nil {
		loc := req.StartLocation.toLocation()
		params.StartLocation = &loc
	}
	if req.Locations != nil {
		locations := make([]Location, 0, len(*req.Locations))
		for _, l := range *req.Locations {
			locations = append(locations, l.toLocation())
		}
		params.Locations = &locations
	}

	tour, err := h.service.Update(r.Context(), id, params)
	if err != nil {
		h.respondErr(w, "update tour", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   map[string]any{"tour": tour},
	})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "tourId"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid tour id", shared.ErrValidation))
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondErr(w, "delete tour", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.respondErr(w, "tour stats", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   map[string]any{"stats": stats},
	})
}

func (h *Handler) monthlyPlan(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid year", shared.ErrValidation))
		return
	}
	plan, err := h.service.MonthlyPlan(r.Context(), year)
	if err != nil {
		h.respondErr(w, "monthly plan", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   map[string]any{"plan": plan},
	})
}

func (h *Handler) within(w http.ResponseWriter, r *http.Request) {
	distance, err := strconv.ParseFloat(chi.URLParam(r, "distance"), 64)
	if err != nil || distance < 0 {
		httpx.RespondError(w, fmt.Errorf("%w: invalid distance", shared.ErrValidation))
		return
	}
	lat, lng, err := parseLatLng(chi.URLParam(r, "latlng"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	radiusKm := distance
	if chi.URLParam(r, "unit") == "mi" {
		radiusKm = distance / milesPerKm
	}

	found, err := h.service.Within(r.Context(), lat, lng, radiusKm)
	if err != nil {
		h.respondErr(w, "tours within", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"results": len(found),
		"data":    map[string]any{"tours": found},
	})
}

func (h *Handler) distances(w http.ResponseWriter, r *http.Request) {
	lat, lng, err := parseLatLng(chi.URLParam(r, "latlng"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	multiplier := 1.0
	if chi.URLParam(r, "unit") == "mi" {
		multiplier = milesPerKm
	}

	distances, err := h.service.Distances(r.Context(), lat, lng, multiplier)
	if err != nil {
		h.respondErr(w, "tour distances", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   map[string]any{"distances": distances},
	})
}

func parseLatLng(raw string) (float64, float64, error) {
	parts := strings.SplitN(raw, ",", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: provide latitude and longitude as lat,lng", shared.ErrValidation)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: provide latitude and longitude as lat,lng", shared.ErrValidation)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: provide latitude and longitude as lat,lng", shared.ErrValidation)
	}
	return lat, lng, nil
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
