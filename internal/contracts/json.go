package contracts

import (
	"encoding/json"
	"math"
	"time"
)

// JSON encoding for score types. Undefined values are NaN internally but
// encoding/json rejects NaN, so they serialize as null and decode back
// to NaN.

func nanToPtr(f float64) *float64 {
	if math.IsNaN(f) {
		return nil
	}
	return &f
}

func ptrToNaN(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

type scoreRecordJSON struct {
	Name     string   `json:"name"`
	RawValue *float64 `json:"raw_value"`
	Score    *float64 `json:"score"`
	Weight   float64  `json:"weight"`
	Valid    bool     `json:"valid"`
	Reason   string   `json:"reason,omitempty"`
}

// MarshalJSON encodes NaN raw values and scores as null.
func (r ScoreRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(scoreRecordJSON{
		Name:     r.Name,
		RawValue: nanToPtr(r.RawValue),
		Score:    nanToPtr(r.Score),
		Weight:   r.Weight,
		Valid:    r.Valid,
		Reason:   r.Reason,
	})
}

// UnmarshalJSON decodes null raw values and scores back to NaN.
func (r *ScoreRecord) UnmarshalJSON(data []byte) error {
	var raw scoreRecordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Name = raw.Name
	r.RawValue = ptrToNaN(raw.RawValue)
	r.Score = ptrToNaN(raw.Score)
	r.Weight = raw.Weight
	r.Valid = raw.Valid
	r.Reason = raw.Reason
	return nil
}

type scoreBreakdownJSON struct {
	Market         string              `json:"market"`
	RunID          string              `json:"run_id"`
	GeneratedAt    time.Time           `json:"generated_at"`
	WeightsVersion string              `json:"weights_version"`
	Categories     []ScoreRecord       `json:"categories"`
	Metrics        map[string]*float64 `json:"metrics"`
	Composite      *float64            `json:"composite"`
	Partial        bool                `json:"partial"`
	Band           string              `json:"band,omitempty"`
}

// MarshalJSON encodes a NaN composite and NaN metrics as null.
func (b ScoreBreakdown) MarshalJSON() ([]byte, error) {
	metrics := make(map[string]*float64, len(b.Metrics))
	for k, v := range b.Metrics {
		metrics[k] = nanToPtr(v)
	}
	return json.Marshal(scoreBreakdownJSON{
		Market:         b.Market,
		RunID:          b.RunID,
		GeneratedAt:    b.GeneratedAt,
		WeightsVersion: b.WeightsVersion,
		Categories:     b.Categories,
		Metrics:        metrics,
		Composite:      nanToPtr(b.Composite),
		Partial:        b.Partial,
		Band:           b.Band,
	})
}

// UnmarshalJSON decodes null composites and metrics back to NaN.
func (b *ScoreBreakdown) UnmarshalJSON(data []byte) error {
	var raw scoreBreakdownJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.Market = raw.Market
	b.RunID = raw.RunID
	b.GeneratedAt = raw.GeneratedAt
	b.WeightsVersion = raw.WeightsVersion
	b.Categories = raw.Categories
	b.Metrics = make(map[string]float64, len(raw.Metrics))
	for k, v := range raw.Metrics {
		b.Metrics[k] = ptrToNaN(v)
	}
	b.Composite = ptrToNaN(raw.Composite)
	b.Partial = raw.Partial
	b.Band = raw.Band
	return nil
}
