package engine

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"eve-arbscan/internal/esi"
	"eve-arbscan/internal/logger"
	"eve-arbscan/internal/metrics"
)

// MarketAPI is the part of the ESI client the scanner depends on.
type MarketAPI interface {
	OrderPager
	ResolveNames(ctx context.Context, ids []int32) map[int32]string
	FetchMarketHistory(ctx context.Context, regionID, typeID int32) ([]esi.HistoryEntry, error)
}

// NameCache is a persistent cache of item display names.
type NameCache interface {
	GetTypeNames(ids []int32) map[int32]string
	SetTypeNames(names map[int32]string)
}

// Scanner runs the arbitrage strategies against live market data.
type Scanner struct {
	ESI     MarketAPI
	Loader  *MarketLoader
	History esi.HistoryCache // optional
	Names   NameCache        // optional
	Tuning  Tuning
}

// NewScanner creates a Scanner with default tuning.
func NewScanner(api MarketAPI, workers int) *Scanner {
	return &Scanner{
		ESI:    api,
		Loader: NewMarketLoader(api, workers),
		Tuning: DefaultTuning(),
	}
}

// VelocityJob wraps VelocityScan for the scan loop.
func (s *Scanner) VelocityJob(p VelocityParams) Job {
	return Job{
		Strategy: StrategyVelocity,
		Hub:      p.Hub,
		Scan: func(ctx context.Context, progress func(string)) []Opportunity {
			return s.VelocityScan(ctx, p, progress)
		},
	}
}

// ImportJob wraps ImportScan for the scan loop.
func (s *Scanner) ImportJob(p ImportParams) Job {
	return Job{
		Strategy: StrategyImport,
		Hub:      p.Hub,
		Scan: func(ctx context.Context, progress func(string)) []Opportunity {
			return s.ImportScan(ctx, p, progress)
		},
	}
}

// historyStats returns trailing history stats for an item, preferring the
// cache. Failures collapse to zero stats.
func (s *Scanner) historyStats(ctx context.Context, regionID, typeID int32) esi.HistoryStats {
	window := s.Tuning.HistoryWindow
	if s.History != nil {
		if entries, ok := s.History.GetMarketHistory(regionID, typeID); ok {
			metrics.HistoryLookups.WithLabelValues("cache").Inc()
			return esi.ComputeTrailingStats(entries, window)
		}
	}
	entries, err := s.ESI.FetchMarketHistory(ctx, regionID, typeID)
	if err != nil {
		metrics.HistoryLookups.WithLabelValues("failed").Inc()
		msg := fmt.Sprintf("type %d region %d: %v", typeID, regionID, err)
		if esi.IsTransport(err) {
			logger.Debug("HISTORY", msg)
		} else {
			logger.Warn("HISTORY", msg)
		}
		return esi.HistoryStats{}
	}
	metrics.HistoryLookups.WithLabelValues("remote").Inc()
	if s.History != nil && len(entries) > 0 {
		s.History.SetMarketHistory(regionID, typeID, entries)
	}
	return esi.ComputeTrailingStats(entries, window)
}

// resolveNames maps type IDs to names, consulting the name cache first and
// storing whatever ESI returns for the rest.
func (s *Scanner) resolveNames(ctx context.Context, ids []int32) map[int32]string {
	names := make(map[int32]string, len(ids))
	missing := ids
	if s.Names != nil {
		for id, n := range s.Names.GetTypeNames(ids) {
			names[id] = n
		}
		missing = missing[:0:0]
		for _, id := range ids {
			if _, ok := names[id]; !ok {
				missing = append(missing, id)
			}
		}
	}
	if len(missing) == 0 {
		return names
	}
	fetched := s.ESI.ResolveNames(ctx, missing)
	for id, n := range fetched {
		names[id] = n
	}
	if s.Names != nil && len(fetched) > 0 {
		s.Names.SetTypeNames(fetched)
	}
	return names
}

// nameOf falls back to the numeric identifier for unresolved items.
func nameOf(names map[int32]string, typeID int32) string {
	if n, ok := names[typeID]; ok && n != "" {
		return n
	}
	return strconv.FormatInt(int64(typeID), 10)
}

func (s *Scanner) reportEvery() int {
	if s.Tuning.ProgressEvery <= 0 {
		return 10
	}
	return s.Tuning.ProgressEvery
}

// sanitizeFloat replaces NaN/Inf with 0 so results always serialize.
func sanitizeFloat(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func noProgress(string) {}
