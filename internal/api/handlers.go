package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/sawpanic/fxproxy/internal/domain"
	"github.com/sawpanic/fxproxy/internal/rates"
)

// RateService resolves ordered pairs.
type RateService interface {
	Get(pair domain.Pair) (domain.Rate, error)
}

// Readiness reports whether the snapshot has been populated.
type Readiness interface {
	Ready() bool
}

// Handlers carries the endpoint implementations.
type Handlers struct {
	svc   RateService
	ready Readiness
}

// NewHandlers builds the endpoint set.
func NewHandlers(svc RateService, ready Readiness) *Handlers {
	return &Handlers{svc: svc, ready: ready}
}

// rateResponse is the client-facing rate shape. Price goes out as a raw JSON
// number so clients get a numeric field without float re-encoding.
type rateResponse struct {
	From      string      `json:"from"`
	To        string      `json:"to"`
	Price     json.Number `json:"price"`
	Timestamp string      `json:"timestamp"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Rates serves GET /rates?from=&to=. A missing or non-whitelisted currency is
// a 404, deliberately indistinguishable from an unknown route. Lookup
// failures are a 500 with a generic payload.
func (h *Handlers) Rates(w http.ResponseWriter, r *http.Request) {
	from, err := domain.ParseCurrency(r.URL.Query().Get("from"))
	if err != nil {
		h.NotFound(w, r)
		return
	}
	to, err := domain.ParseCurrency(r.URL.Query().Get("to"))
	if err != nil {
		h.NotFound(w, r)
		return
	}

	rate, err := h.svc.Get(domain.Pair{From: from, To: to})
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("rate lookup failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: rates.ErrLookupFailed.Error()})
		return
	}

	writeJSON(w, http.StatusOK, rateResponse{
		From:      rate.Pair.From.String(),
		To:        rate.Pair.To.String(),
		Price:     json.Number(rate.Price.String()),
		Timestamp: rate.Timestamp.Format(time.RFC3339),
	})
}

// Health is plain process liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports 200 once the first snapshot sync has completed, 503 before.
func (h *Handlers) Ready(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil && h.ready.Ready() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
}

// NotFound answers every unroutable request, including bad query currencies.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
