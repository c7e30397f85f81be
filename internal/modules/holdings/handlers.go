package holdings

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/foliotracker/folio/internal/domain"
)

// Handler serves reconstructed holdings over HTTP. It caches the last build
// and rebuilds lazily; Refresh forces a rebuild (wired to the refresh job and
// the manual refresh endpoint).
type Handler struct {
	service *Service
	log     zerolog.Logger

	mu     sync.RWMutex
	result *BuildResult
}

// NewHandler creates a holdings handler.
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "holdings").Logger(),
	}
}

// RegisterRoutes mounts the holdings routes on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleList)
	r.Get("/{symbol}", h.HandleGet)
}

// Result returns the cached build, running the pipeline on first use.
func (h *Handler) Result() (*BuildResult, error) {
	h.mu.RLock()
	cached := h.result
	h.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}
	return h.Refresh()
}

// Refresh discards the cached build and reruns the full pipeline.
func (h *Handler) Refresh() (*BuildResult, error) {
	result, err := h.service.Rebuild()
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	h.result = result
	h.mu.Unlock()
	return result, nil
}

// HandleList returns holdings filtered by the view query parameter:
// current (default) = open positions, past = holdings with realized history,
// all = everything.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	result, err := h.Result()
	if err != nil {
		h.log.Error().Err(err).Msg("Holdings rebuild failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var view []*domain.Holding
	switch r.URL.Query().Get("view") {
	case "", "current":
		view = Current(result.Holdings)
	case "past":
		view = Past(result.Holdings)
	case "all":
		view = result.Holdings
	default:
		h.writeError(w, http.StatusBadRequest, "view must be one of: current, past, all")
		return
	}
	if view == nil {
		view = []*domain.Holding{}
	}

	h.writeJSON(w, http.StatusOK, view)
}

// HandleGet returns a single holding by symbol.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	result, err := h.Result()
	if err != nil {
		h.log.Error().Err(err).Msg("Holdings rebuild failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	symbol := chi.URLParam(r, "symbol")
	for _, holding := range result.Holdings {
		if holding.Symbol == symbol {
			h.writeJSON(w, http.StatusOK, holding)
			return
		}
	}
	h.writeError(w, http.StatusNotFound, "unknown symbol: "+symbol)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
