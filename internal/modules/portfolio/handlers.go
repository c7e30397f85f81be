package portfolio

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/foliotracker/folio/internal/modules/holdings"
)

// HoldingsProvider hands out the latest reconstructed holdings set.
type HoldingsProvider interface {
	Result() (*holdings.BuildResult, error)
}

// Handler serves the portfolio aggregate over HTTP.
type Handler struct {
	provider HoldingsProvider
	defaults Options
	log      zerolog.Logger
}

// NewHandler creates a portfolio handler. The defaults decide weighting
// behavior when the request does not say.
func NewHandler(provider HoldingsProvider, defaults Options, log zerolog.Logger) *Handler {
	return &Handler{
		provider: provider,
		defaults: defaults,
		log:      log.With().Str("handler", "portfolio").Logger(),
	}
}

// RegisterRoutes mounts the portfolio routes on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleGet)
}

// HandleGet aggregates the open holdings into one portfolio record. The
// normalized query parameter overrides the configured weighting.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	result, err := h.provider.Result()
	if err != nil {
		h.log.Error().Err(err).Msg("Holdings rebuild failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	opts := h.defaults
	if raw := r.URL.Query().Get("normalized"); raw != "" {
		normalized, err := strconv.ParseBool(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "normalized must be a boolean")
			return
		}
		opts.NormalizeWeights = normalized
	}

	aggregate := Aggregate(holdings.Current(result.Holdings), result.Snapshot, opts)
	h.writeJSON(w, http.StatusOK, aggregate)
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
