package contracts

import (
	"sort"
	"time"
)

// PricePoint is one raw price observation from the upstream price feed.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}

// PriceBar is one calendar day of OHLC price activity for an asset.
// Invariant: Low <= Open, Close <= High and Low <= High.
type PriceBar struct {
	Date  time.Time `json:"date"` // truncated to UTC midnight
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
}

// Valid reports whether the bar satisfies the OHLC invariant.
func (b PriceBar) Valid() bool {
	return b.Low <= b.High &&
		b.Low <= b.Open && b.Open <= b.High &&
		b.Low <= b.Close && b.Close <= b.High
}

// BarSeries is an ordered-by-date, gap-tolerant sequence of daily bars for
// one market. Days with no trade activity may be absent. Once fetched a
// day's bar is immutable; only the bar store may extend a series.
type BarSeries []PriceBar

// Sort orders the series by date ascending.
func (s BarSeries) Sort() {
	sort.Slice(s, func(i, j int) bool {
		return s[i].Date.Before(s[j].Date)
	})
}

// Last returns the most recent bar. ok is false on an empty series.
func (s BarSeries) Last() (PriceBar, bool) {
	if len(s) == 0 {
		return PriceBar{}, false
	}
	return s[len(s)-1], true
}

// Tail returns the last n bars, or the whole series when it is shorter.
func (s BarSeries) Tail(n int) BarSeries {
	if n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}

// Day truncates a timestamp to its UTC calendar day.
func Day(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
