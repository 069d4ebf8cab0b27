package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/DiligentDeer/crvhealth/internal/contracts"
	"github.com/DiligentDeer/crvhealth/internal/evaluator"
	"github.com/DiligentDeer/crvhealth/internal/registry"
	"github.com/DiligentDeer/crvhealth/internal/scoring"
	"github.com/DiligentDeer/crvhealth/pkg/logger"
)

// ScoreHandler handles market and score API endpoints.
// SSOT: score API handlers live in this struct only.
type ScoreHandler struct {
	registry *registry.Registry
	runner   *evaluator.Runner
	logger   *logger.Logger
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(reg *registry.Registry, runner *evaluator.Runner, log *logger.Logger) *ScoreHandler {
	return &ScoreHandler{
		registry: reg,
		runner:   runner,
		logger:   log,
	}
}

// MarketInfo is the listing view of one registered market.
type MarketInfo struct {
	Name       string  `json:"name"`
	Controller string  `json:"controller"`
	Token      string  `json:"token"`
	AMM        string  `json:"amm"`
	A          int64   `json:"amplification"`
	MaxLTV     float64 `json:"max_ltv"`
	MinLTV     float64 `json:"min_ltv"`
}

// ListMarkets returns the registered markets.
// GET /api/v1/markets
func (h *ScoreHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	markets := h.registry.All()
	infos := make([]MarketInfo, len(markets))
	for i, m := range markets {
		infos[i] = MarketInfo{
			Name:       m.Name,
			Controller: m.Key(),
			Token:      m.Token,
			AMM:        m.AMM,
			A:          m.A,
			MaxLTV:     m.MaxLTV,
			MinLTV:     m.MinLTV,
		}
	}
	respondJSON(w, http.StatusOK, infos)
}

// GetScore returns the score breakdown for one market. The market path
// segment accepts either the registry name or the controller address.
// GET /api/v1/markets/{market}/score
func (h *ScoreHandler) GetScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := mux.Vars(r)["market"]

	market, ok := h.registry.ByName(name)
	if !ok {
		market, ok = h.registry.ByController(name)
	}
	if !ok {
		respondError(w, http.StatusNotFound, "Unknown market")
		return
	}

	breakdown, err := h.runner.EvaluateCached(ctx, market)
	if err != nil {
		h.logger.WithError(err).WithField("market", market.Name).Error("Failed to evaluate market")
		respondError(w, http.StatusBadGateway, "Failed to evaluate market")
		return
	}

	respondJSON(w, http.StatusOK, breakdown)
}

// GetAllScores evaluates every registered market.
// GET /api/v1/scores
func (h *ScoreHandler) GetAllScores(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	results := h.runner.EvaluateAll(ctx, h.registry.All())

	type entry struct {
		Market    string                    `json:"market"`
		Breakdown *contracts.ScoreBreakdown `json:"breakdown,omitempty"`
		Error     string                    `json:"error,omitempty"`
	}
	entries := make([]entry, len(results))
	for i, res := range results {
		entries[i] = entry{Market: res.Market.Name, Breakdown: res.Breakdown}
		if res.Err != nil {
			entries[i].Error = res.Err.Error()
		}
	}
	respondJSON(w, http.StatusOK, entries)
}

// CompositeRequest is the body of the dynamic composite endpoint.
type CompositeRequest struct {
	Inputs map[string]scoring.DynamicInput `json:"inputs"`
}

// CompositeResponse carries the weight-normalized composite.
type CompositeResponse struct {
	Composite float64 `json:"composite"`
	Band      string  `json:"band,omitempty"`
}

// ComputeComposite aggregates caller-supplied scores and weights.
// POST /api/v1/scores/composite
func (h *ScoreHandler) ComputeComposite(w http.ResponseWriter, r *http.Request) {
	var req CompositeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	composite, err := scoring.DynamicComposite(req.Inputs)
	if err != nil {
		if errors.Is(err, scoring.ErrZeroWeight) {
			respondError(w, http.StatusBadRequest, "Total weight is zero")
			return
		}
		respondError(w, http.StatusBadRequest, "Invalid inputs")
		return
	}

	respondJSON(w, http.StatusOK, CompositeResponse{
		Composite: composite,
		Band:      contracts.BandFor(composite),
	})
}

// WeightEntry is one row of the published weight table.
type WeightEntry struct {
	Category string  `json:"category"`
	Weight   float64 `json:"weight"`
}

// GetWeights returns the active composite weight table.
// GET /api/v1/weights
func (h *ScoreHandler) GetWeights(w http.ResponseWriter, r *http.Request) {
	entries := make([]WeightEntry, len(scoring.CompositeWeights))
	for i, cw := range scoring.CompositeWeights {
		entries[i] = WeightEntry{Category: cw.Name, Weight: cw.Weight}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"version": scoring.WeightsVersion,
		"weights": entries,
	})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
