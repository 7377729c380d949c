package engine

import (
	"context"
	"fmt"
	"sort"

	"eve-arbscan/internal/esi"
)

type velocityCandidate struct {
	PriceQuote
	Spread float64
	ROI    float64
}

// VelocityScan looks for items whose buy/sell spread at one hub is wide
// enough, and traded often enough, to flip in place.
func (s *Scanner) VelocityScan(ctx context.Context, p VelocityParams, progress func(string)) []Opportunity {
	if progress == nil {
		progress = noProgress
	}
	progress(fmt.Sprintf("Downloading orders for %s...", p.Hub.Name))
	book := s.Loader.Load(ctx, p.Hub.RegionID, p.Hub.StationID, esi.OrderTypeAll, p.Depth)
	if ctx.Err() != nil {
		return nil
	}

	candidates := velocityCandidates(BuildQuotes(book), p, s.Tuning)
	progress(fmt.Sprintf("Analysing %d candidates...", len(candidates)))
	if len(candidates) == 0 {
		return nil
	}

	ids := make([]int32, len(candidates))
	for i, c := range candidates {
		ids[i] = c.TypeID
	}
	names := s.resolveNames(ctx, ids)

	var out []Opportunity
	every := s.reportEvery()
	for i, c := range candidates {
		if ctx.Err() != nil {
			return out
		}
		if i > 0 && i%every == 0 {
			progress(fmt.Sprintf("Checked %d/%d...", i, len(candidates)))
		}
		st := s.historyStats(ctx, p.Hub.RegionID, c.TypeID)
		if !acceptVelocity(c, st, p, s.Tuning) {
			continue
		}
		out = append(out, Opportunity{
			TypeID:      c.TypeID,
			Name:        nameOf(names, c.TypeID),
			Tag:         TagTrade,
			BuyPrice:    c.BestBuy,
			SellPrice:   c.BestSell,
			Profit:      c.Spread,
			ROI:         sanitizeFloat(c.ROI),
			DailyVolume: st.AvgVolume,
			DailyProfit: sanitizeFloat(c.Spread * st.AvgVolume),
		})
	}
	return out
}

// velocityCandidates applies the price and ROI band filters, ranks by spread
// and keeps the top candidates.
func velocityCandidates(quotes []PriceQuote, p VelocityParams, t Tuning) []velocityCandidate {
	var out []velocityCandidate
	for _, q := range quotes {
		if q.BestBuy <= 0 || q.BestBuy < p.MinPrice || q.BestBuy > p.MaxPrice {
			continue
		}
		spread := q.BestSell - q.BestBuy
		roi := spread / q.BestBuy * 100
		if roi < t.MinROI || roi > t.MaxROI {
			continue
		}
		out = append(out, velocityCandidate{PriceQuote: q, Spread: spread, ROI: roi})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Spread != out[j].Spread {
			return out[i].Spread > out[j].Spread
		}
		return out[i].TypeID < out[j].TypeID
	})
	if t.TopCandidates > 0 && len(out) > t.TopCandidates {
		out = out[:t.TopCandidates]
	}
	return out
}

// acceptVelocity applies the history-based rejections.
func acceptVelocity(c velocityCandidate, st esi.HistoryStats, p VelocityParams, t Tuning) bool {
	if st.AvgVolume < p.MinVolume {
		return false
	}
	if st.AvgPrice > 0 && c.BestBuy > t.StalePriceFactor*st.AvgPrice {
		return false
	}
	return c.Spread*st.AvgVolume >= p.MinDailyProfit
}
