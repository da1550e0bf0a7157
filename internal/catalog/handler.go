// internal/catalog/handler.go
package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

// Routes returns the movie routes, to be mounted at /api/movies.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.handleAddMovie)
	r.Get("/", h.handleListMovies)
	r.Get("/{id}", h.handleGetMovie)
	return r
}

// HandleHealth reports liveness together with the catalog size.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"movies": h.service.CountMovies(r.Context()),
	})
}

func (h *Handler) handleAddMovie(w http.ResponseWriter, r *http.Request) {
	var req MovieInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed JSON: " + err.Error()})
		return
	}

	if err := ValidateInput(req); err != nil {
		h.writeCreateError(w, err)
		return
	}

	movie, err := h.service.AddMovie(r.Context(), req.Movie())
	if err != nil {
		h.writeCreateError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, movie)
}

func (h *Handler) writeCreateError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, verr.Fields)
		return
	}
	h.logger.Error("Failed to add movie", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

func (h *Handler) handleGetMovie(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid movie ID"})
		return
	}

	movie, ok := h.service.GetMovie(r.Context(), id)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, movie)
}

func (h *Handler) handleListMovies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.ListMovies(r.Context()))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
