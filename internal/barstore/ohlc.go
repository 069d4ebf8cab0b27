package barstore

import (
	"github.com/DiligentDeer/crvhealth/internal/contracts"
)

// DailyOHLC resamples a raw point series into daily OHLC bars. Points are
// grouped by UTC calendar day; within a day the first point is the open,
// the last is the close, and high/low are the extremes. Days with no
// points simply produce no bar. The result is sorted by date ascending.
func DailyOHLC(points []contracts.PricePoint) contracts.BarSeries {
	byDay := make(map[int64]*contracts.PriceBar)
	for _, p := range points {
		day := contracts.Day(p.Timestamp)
		key := day.Unix()
		bar, ok := byDay[key]
		if !ok {
			byDay[key] = &contracts.PriceBar{
				Date:  day,
				Open:  p.Price,
				High:  p.Price,
				Low:   p.Price,
				Close: p.Price,
			}
			continue
		}
		if p.Price > bar.High {
			bar.High = p.Price
		}
		if p.Price < bar.Low {
			bar.Low = p.Price
		}
		bar.Close = p.Price
	}

	series := make(contracts.BarSeries, 0, len(byDay))
	for _, bar := range byDay {
		series = append(series, *bar)
	}
	series.Sort()
	return series
}

// Merge combines two bar series into one, last-write-wins by date: where
// both series carry a bar for the same day, the bar from `update` replaces
// the one from `base`. The result is sorted by date ascending.
func Merge(base, update contracts.BarSeries) contracts.BarSeries {
	byDay := make(map[int64]contracts.PriceBar, len(base)+len(update))
	for _, b := range base {
		byDay[b.Date.Unix()] = b
	}
	for _, b := range update {
		byDay[b.Date.Unix()] = b
	}

	merged := make(contracts.BarSeries, 0, len(byDay))
	for _, b := range byDay {
		merged = append(merged, b)
	}
	merged.Sort()
	return merged
}
