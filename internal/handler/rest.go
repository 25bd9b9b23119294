package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/venuelist/internal/catalog"
	"github.com/vyrodovalexey/venuelist/internal/listview"
	"github.com/vyrodovalexey/venuelist/internal/model"
	"github.com/vyrodovalexey/venuelist/internal/session"
	"github.com/vyrodovalexey/venuelist/internal/store"
)

// RESTHandler handles REST API requests for venues, profiles and views.
type RESTHandler struct {
	catalog      *catalog.Catalog
	registry     *session.Registry
	itemsPerPage int
	logger       *zap.Logger
}

// NewRESTHandler creates a new RESTHandler instance. itemsPerPage is the
// page size of the venue listing when the request does not choose one.
func NewRESTHandler(
	c *catalog.Catalog,
	registry *session.Registry,
	itemsPerPage int,
	logger *zap.Logger,
) *RESTHandler {
	return &RESTHandler{
		catalog:      c,
		registry:     registry,
		itemsPerPage: itemsPerPage,
		logger:       logger,
	}
}

// RegisterRoutes registers the REST API routes with the router.
func (h *RESTHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/ready", h.ReadyCheck).Methods(http.MethodGet)

	router.HandleFunc("/api/v1/venues", h.ListVenues).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/venues", h.CreateVenue).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/venues/{id}", h.GetVenue).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/venues/{id}", h.UpdateVenue).Methods(http.MethodPut)
	router.HandleFunc("/api/v1/venues/{id}", h.DeleteVenue).Methods(http.MethodDelete)
	router.HandleFunc("/api/v1/venues/{id}/favorite", h.AddFavorite).Methods(http.MethodPut)
	router.HandleFunc("/api/v1/venues/{id}/favorite", h.RemoveFavorite).Methods(http.MethodDelete)
	router.HandleFunc("/api/v1/venues/{id}/events/{eventID}/star", h.StarEvent).Methods(http.MethodPut)
	router.HandleFunc("/api/v1/venues/{id}/events/{eventID}/star", h.UnstarEvent).Methods(http.MethodDelete)
	router.HandleFunc("/api/v1/profile", h.GetProfile).Methods(http.MethodGet)

	h.registerViewRoutes(router)
}

// HealthCheck handles GET /health requests.
func (h *RESTHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	response := HealthResponse{
		Status:  "healthy",
		Version: Version,
	}
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(response))
}

// ReadyCheck handles GET /ready requests. The service is ready once the
// venue list can be loaded.
func (h *RESTHandler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	if _, err := h.catalog.Snapshot(r.Context()); err != nil {
		h.logger.Warn("readiness check failed", zap.Error(err))
		h.writeJSON(w, http.StatusServiceUnavailable, model.NewErrorResponse[ReadyResponse]("venues unavailable"))
		return
	}
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(ReadyResponse{Status: "ready"}))
}

// ListVenues handles GET /api/v1/venues requests. It returns one page of the
// favorites-first ordering for the current viewer.
func (h *RESTHandler) ListVenues(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid page")
		return
	}

	perPage, err := queryInt(r, "per_page", h.itemsPerPage)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid per_page")
		return
	}
	req := model.ViewRequest{ItemsPerPage: perPage}
	if err := req.Validate(); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var (
		list      *listview.List[model.Venue]
		favorites *listview.FavoriteSet
	)
	err = h.catalog.WithState(r.Context(), viewerID(r), func(l *listview.List[model.Venue], f *listview.FavoriteSet) {
		list, favorites = l, f
	})
	if err != nil {
		h.handleError(w, err, "list venues")
		return
	}

	ordered := listview.NewList(listview.Order(list.Items(), favorites))
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(listview.Paginate(ordered, perPage, page)))
}

// GetVenue handles GET /api/v1/venues/{id} requests.
func (h *RESTHandler) GetVenue(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	venue, err := h.catalog.Get(r.Context(), viewerID(r), id)
	if err != nil {
		h.handleError(w, err, "get venue")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(venue))
}

// CreateVenue handles POST /api/v1/venues requests.
func (h *RESTHandler) CreateVenue(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeVenue(w, r)
	if !ok {
		return
	}

	venue, err := h.catalog.CreateVenue(r.Context(), input)
	if err != nil {
		h.handleError(w, err, "create venue")
		return
	}

	h.writeJSON(w, http.StatusCreated, model.NewSuccessResponse(venue))
}

// UpdateVenue handles PUT /api/v1/venues/{id} requests.
func (h *RESTHandler) UpdateVenue(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	input, ok := h.decodeVenue(w, r)
	if !ok {
		return
	}

	venue, err := h.catalog.UpdateVenue(r.Context(), id, input)
	if err != nil {
		h.handleError(w, err, "update venue")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(venue))
}

// DeleteVenue handles DELETE /api/v1/venues/{id} requests.
func (h *RESTHandler) DeleteVenue(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.catalog.DeleteVenue(r.Context(), id); err != nil {
		h.handleError(w, err, "delete venue")
		return
	}

	h.writeJSON(w, http.StatusNoContent, nil)
}

// AddFavorite handles PUT /api/v1/venues/{id}/favorite requests.
func (h *RESTHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	profile, err := h.catalog.AddFavoriteVenue(r.Context(), viewerID(r), id)
	if err != nil {
		h.handleError(w, err, "add favorite")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(profile))
}

// RemoveFavorite handles DELETE /api/v1/venues/{id}/favorite requests.
func (h *RESTHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	profile, err := h.catalog.RemoveFavoriteVenue(r.Context(), viewerID(r), id)
	if err != nil {
		h.handleError(w, err, "remove favorite")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(profile))
}

// StarEvent handles PUT /api/v1/venues/{id}/events/{eventID}/star requests.
func (h *RESTHandler) StarEvent(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	venue, err := h.catalog.StarEvent(r.Context(), viewerID(r), vars["id"], vars["eventID"])
	if err != nil {
		h.handleError(w, err, "star event")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(venue))
}

// UnstarEvent handles DELETE /api/v1/venues/{id}/events/{eventID}/star requests.
func (h *RESTHandler) UnstarEvent(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	venue, err := h.catalog.UnstarEvent(r.Context(), viewerID(r), vars["id"], vars["eventID"])
	if err != nil {
		h.handleError(w, err, "unstar event")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(venue))
}

// GetProfile handles GET /api/v1/profile requests.
func (h *RESTHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.catalog.Profile(r.Context(), viewerID(r))
	if err != nil {
		h.handleError(w, err, "get profile")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(profile))
}

func (h *RESTHandler) decodeVenue(w http.ResponseWriter, r *http.Request) (*model.Venue, bool) {
	var input model.Venue
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}

	if err := input.Validate(); err != nil {
		h.logger.Warn("validation failed", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	return &input, true
}

// handleError maps domain errors to HTTP responses.
func (h *RESTHandler) handleError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "venue not found")
	case errors.Is(err, store.ErrEventNotFound):
		h.writeError(w, http.StatusNotFound, "event not found")
	case errors.Is(err, session.ErrViewNotFound):
		h.writeError(w, http.StatusNotFound, "view not found")
	case errors.Is(err, store.ErrInvalidID):
		h.writeError(w, http.StatusBadRequest, "invalid ID")
	case errors.Is(err, store.ErrAlreadyExists):
		h.writeError(w, http.StatusConflict, "venue already exists")
	case errors.Is(err, catalog.ErrAnonymous):
		h.writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, session.ErrUnknownIntent),
		errors.Is(err, model.ErrInvalidItemsPerPage):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("operation failed", zap.String("operation", operation), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// writeJSON writes a JSON response with the given status code.
func (h *RESTHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError writes an error response with the given status code and message.
func (h *RESTHandler) writeError(w http.ResponseWriter, status int, message string) {
	response := model.ErrorResponse{
		Code:    status,
		Message: message,
	}
	h.writeJSON(w, status, response)
}

// queryInt reads an integer query parameter, returning def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
