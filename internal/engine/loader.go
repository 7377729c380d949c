package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"eve-arbscan/internal/esi"
	"eve-arbscan/internal/logger"
	"eve-arbscan/internal/metrics"
)

// DefaultPageWorkers bounds in-flight page requests per load.
const DefaultPageWorkers = 20

// OrderPager fetches one page of a region's order book.
type OrderPager interface {
	FetchOrdersPage(ctx context.Context, regionID int32, orderType esi.OrderType, page int) (esi.OrdersPage, error)
}

// MarketLoader assembles a station's order book from a paginated region book.
type MarketLoader struct {
	ESI     OrderPager
	Workers int
}

// NewMarketLoader creates a loader with the given concurrency bound.
func NewMarketLoader(pager OrderPager, workers int) *MarketLoader {
	if workers <= 0 {
		workers = DefaultPageWorkers
	}
	return &MarketLoader{ESI: pager, Workers: workers}
}

type pageResult struct {
	page   int
	orders []esi.MarketOrder
	err    error
}

// Load fetches page 1 to learn the page count, then pages 2..limit through a
// bounded worker pool, and returns the merged orders located at stationID.
// maxPages <= 0 means all pages. Failed pages are skipped. On cancellation
// it stops waiting and keeps the pages that already arrived.
func (l *MarketLoader) Load(ctx context.Context, regionID int32, stationID int64, orderType esi.OrderType, maxPages int) []esi.MarketOrder {
	first, err := l.ESI.FetchOrdersPage(ctx, regionID, orderType, 1)
	if err != nil {
		metrics.PagesFailed.Inc()
		logger.Warn("LOAD", fmt.Sprintf("region %d %s page 1: %v", regionID, orderType, err))
		return nil
	}
	metrics.PagesFetched.Inc()

	limit := first.TotalPages
	if maxPages > 0 && maxPages < limit {
		limit = maxPages
	}

	orders := append([]esi.MarketOrder(nil), first.Orders...)
	if limit > 1 {
		orders = append(orders, l.fanOut(ctx, regionID, orderType, limit)...)
	}

	book := FilterStation(orders, stationID)
	logger.Debug("LOAD", fmt.Sprintf("region %d %s: %d pages, %d orders, %d at station %d",
		regionID, orderType, limit, len(orders), len(book), stationID))
	return book
}

// fanOut fetches pages 2..limit concurrently and merges them in arrival order.
func (l *MarketLoader) fanOut(ctx context.Context, regionID int32, orderType esi.OrderType, limit int) []esi.MarketOrder {
	workers := l.Workers
	if workers <= 0 {
		workers = DefaultPageWorkers
	}
	pending := limit - 1
	// Buffered so abandoned workers never block.
	results := make(chan pageResult, pending)
	sem := semaphore.NewWeighted(int64(workers))

	go func() {
		for p := 2; p <= limit; p++ {
			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			go func(page int) {
				defer sem.Release(1)
				pg, err := l.ESI.FetchOrdersPage(ctx, regionID, orderType, page)
				results <- pageResult{page: page, orders: pg.Orders, err: err}
			}(p)
		}
	}()

	var merged []esi.MarketOrder
	received := 0
	absorb := func(r pageResult) {
		received++
		if r.err != nil {
			metrics.PagesFailed.Inc()
			logger.Debug("LOAD", fmt.Sprintf("region %d %s page %d: %v", regionID, orderType, r.page, r.err))
			return
		}
		metrics.PagesFetched.Inc()
		merged = append(merged, r.orders...)
	}
	for received < pending {
		select {
		case <-ctx.Done():
			// Keep pages that finished before we noticed.
			for {
				select {
				case r := <-results:
					absorb(r)
					continue
				default:
				}
				break
			}
			metrics.PagesAbandoned.Add(float64(pending - received))
			return merged
		case r := <-results:
			absorb(r)
			if ctx.Err() != nil {
				metrics.PagesAbandoned.Add(float64(pending - received))
				return merged
			}
		}
	}
	return merged
}

// FilterStation keeps the orders located at stationID.
func FilterStation(orders []esi.MarketOrder, stationID int64) []esi.MarketOrder {
	var out []esi.MarketOrder
	for _, o := range orders {
		if o.LocationID == stationID {
			out = append(out, o)
		}
	}
	return out
}
