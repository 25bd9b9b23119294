package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/venuelist/internal/model"
)

func (h *RESTHandler) registerViewRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/views", h.OpenView).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/views/{id}", h.GetView).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/views/{id}", h.CloseView).Methods(http.MethodDelete)
	router.HandleFunc("/api/v1/views/{id}/next", h.NextPage).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/views/{id}/prev", h.PrevPage).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/views/{id}/page/{page}", h.GoToPage).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/views/{id}/resize", h.ResizeView).Methods(http.MethodPost)
}

// OpenView handles POST /api/v1/views requests. The body is optional.
func (h *RESTHandler) OpenView(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeViewRequest(w, r)
	if !ok {
		return
	}

	state, err := h.registry.Open(r.Context(), viewerID(r), req.ItemsPerPage)
	if err != nil {
		h.handleError(w, err, "open view")
		return
	}

	h.writeJSON(w, http.StatusCreated, model.NewSuccessResponse(state))
}

// GetView handles GET /api/v1/views/{id} requests.
func (h *RESTHandler) GetView(w http.ResponseWriter, r *http.Request) {
	state, err := h.registry.State(viewerID(r), mux.Vars(r)["id"])
	if err != nil {
		h.handleError(w, err, "get view")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(state))
}

// CloseView handles DELETE /api/v1/views/{id} requests.
func (h *RESTHandler) CloseView(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Close(viewerID(r), mux.Vars(r)["id"]); err != nil {
		h.handleError(w, err, "close view")
		return
	}

	h.writeJSON(w, http.StatusNoContent, nil)
}

// NextPage handles POST /api/v1/views/{id}/next requests.
func (h *RESTHandler) NextPage(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, model.ViewIntent{Type: model.IntentNext})
}

// PrevPage handles POST /api/v1/views/{id}/prev requests.
func (h *RESTHandler) PrevPage(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, model.ViewIntent{Type: model.IntentPrev})
}

// GoToPage handles POST /api/v1/views/{id}/page/{page} requests.
func (h *RESTHandler) GoToPage(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(mux.Vars(r)["page"])
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid page")
		return
	}

	h.navigate(w, r, model.ViewIntent{Type: model.IntentGoTo, Page: page})
}

// ResizeView handles POST /api/v1/views/{id}/resize requests.
func (h *RESTHandler) ResizeView(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeViewRequest(w, r)
	if !ok {
		return
	}

	h.navigate(w, r, model.ViewIntent{Type: model.IntentResize, ItemsPerPage: req.ItemsPerPage})
}

// navigate applies intent to the view named in the path. Moves that do not
// change the view are reported through the outcome, not as errors.
func (h *RESTHandler) navigate(w http.ResponseWriter, r *http.Request, intent model.ViewIntent) {
	state, outcome, err := h.registry.Navigate(viewerID(r), mux.Vars(r)["id"], intent)
	if err != nil {
		h.handleError(w, err, "navigate view")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(model.NavigationResult{
		View:    state,
		Outcome: string(outcome),
	}))
}

func (h *RESTHandler) decodeViewRequest(w http.ResponseWriter, r *http.Request) (model.ViewRequest, bool) {
	var req model.ViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("invalid request body", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}

	if err := req.Validate(); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return req, false
	}

	return req, true
}
