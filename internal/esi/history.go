package esi

import (
	"context"
	"fmt"
	"net/http"
	"sort"
)

// DefaultHistoryWindow is the number of trailing days averaged by
// ComputeTrailingStats.
const DefaultHistoryWindow = 30

// HistoryEntry represents a single day of market history for an item in a region.
type HistoryEntry struct {
	Date       string  `json:"date"`
	Average    float64 `json:"average"`
	Highest    float64 `json:"highest"`
	Lowest     float64 `json:"lowest"`
	Volume     int64   `json:"volume"`
	OrderCount int64   `json:"order_count"`
}

// HistoryStats is the liquidity summary used to reject opportunities.
type HistoryStats struct {
	AvgVolume float64 // average units traded per day
	AvgPrice  float64 // average of the daily average price
}

// HistoryCache is a persistent cache for market history data.
type HistoryCache interface {
	GetMarketHistory(regionID int32, typeID int32) ([]HistoryEntry, bool)
	SetMarketHistory(regionID int32, typeID int32, entries []HistoryEntry)
}

// FetchMarketHistory fetches market history for a type in a region from ESI.
func (c *Client) FetchMarketHistory(ctx context.Context, regionID, typeID int32) ([]HistoryEntry, error) {
	url := fmt.Sprintf("%s/markets/%d/history/?datasource=%s&type_id=%d",
		c.baseURL, regionID, datasource, typeID)

	var entries []HistoryEntry
	if _, err := c.doJSON(ctx, "history", http.MethodGet, url, nil, c.historyTimeout, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ComputeTrailingStats averages volume and price over the last window
// entries (all of them when the series is shorter). An empty series yields
// zero stats.
func ComputeTrailingStats(entries []HistoryEntry, window int) HistoryStats {
	if len(entries) == 0 {
		return HistoryStats{}
	}
	if window <= 0 {
		window = DefaultHistoryWindow
	}

	// ESI does not guarantee chronological order.
	sorted := make([]HistoryEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date < sorted[j].Date
	})

	recent := sorted
	if len(recent) > window {
		recent = recent[len(recent)-window:]
	}

	var vol, price float64
	for _, e := range recent {
		vol += float64(e.Volume)
		price += e.Average
	}
	n := float64(len(recent))
	return HistoryStats{AvgVolume: vol / n, AvgPrice: price / n}
}
