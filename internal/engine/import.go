package engine

import (
	"context"
	"fmt"
	"sort"

	"eve-arbscan/internal/esi"
)

// Import row status.
const (
	StatusActive = "Active"
	StatusEmpty  = "Empty"
)

type importCandidate struct {
	TypeID int32
	Source float64 // min sell at the reference hub
	Target float64 // min sell at the target hub, synthesized for empty markets
	Profit float64
	ROI    float64
	Status string
}

// ImportScan compares reference hub sell prices against a target hub and
// ranks items worth hauling there, including items the target does not
// stock at all.
func (s *Scanner) ImportScan(ctx context.Context, p ImportParams, progress func(string)) []Opportunity {
	if progress == nil {
		progress = noProgress
	}
	ref := s.Tuning.ReferenceHub
	depth := p.Depth
	if depth <= 0 {
		depth = s.Tuning.ReferenceDepth
	}

	progress(fmt.Sprintf("Downloading %s sell orders...", ref.Name))
	source := MinSellPrices(s.Loader.Load(ctx, ref.RegionID, ref.StationID, esi.OrderTypeSell, depth))
	if ctx.Err() != nil {
		return nil
	}
	progress(fmt.Sprintf("Downloading %s sell orders...", p.Hub.Name))
	target := MinSellPrices(s.Loader.Load(ctx, p.Hub.RegionID, p.Hub.StationID, esi.OrderTypeSell, 0))
	if ctx.Err() != nil {
		return nil
	}

	candidates := importCandidates(source, target, p, s.Tuning)
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
		if st.AvgVolume < p.MinVolume {
			continue
		}
		tag := TagImport
		if c.Status == StatusEmpty {
			tag = TagEmptyMarket
		}
		out = append(out, Opportunity{
			TypeID:      c.TypeID,
			Name:        nameOf(names, c.TypeID),
			Tag:         tag,
			BuyPrice:    c.Source,
			SellPrice:   c.Target,
			Profit:      c.Profit,
			ROI:         sanitizeFloat(c.ROI),
			DailyVolume: st.AvgVolume,
			DailyProfit: sanitizeFloat(c.Profit * st.AvgVolume),
		})
	}
	return out
}

// importCandidates joins source and target prices on the items the source
// stocks, synthesizes prices for empty markets, filters by ROI and keeps
// the top candidates by ROI.
func importCandidates(source, target map[int32]float64, p ImportParams, t Tuning) []importCandidate {
	var out []importCandidate
	for typeID, src := range source {
		if src <= 0 {
			continue
		}
		c := importCandidate{TypeID: typeID, Source: src, Status: StatusActive}
		if dst, ok := target[typeID]; ok {
			c.Target = dst
		} else {
			c.Status = StatusEmpty
			c.Target = src * t.EmptyMarketMarkup
		}
		if c.Status == StatusEmpty && !p.IncludeEmpty {
			continue
		}
		c.Profit = c.Target - c.Source
		c.ROI = c.Profit / c.Source * 100
		if c.ROI < p.MinROI {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ROI != out[j].ROI {
			return out[i].ROI > out[j].ROI
		}
		return out[i].TypeID < out[j].TypeID
	})
	if t.TopCandidates > 0 && len(out) > t.TopCandidates {
		out = out[:t.TopCandidates]
	}
	return out
}
