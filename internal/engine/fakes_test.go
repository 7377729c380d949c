package engine

import (
	"context"
	"net/http"
	"sync"
	"time"

	"eve-arbscan/internal/esi"
)

type bookKey struct {
	region    int32
	orderType esi.OrderType
}

// fakeMarket serves canned order pages, history and names.
type fakeMarket struct {
	mu        sync.Mutex
	books     map[bookKey][][]esi.MarketOrder
	failPages map[int]bool
	delay     func(page int) time.Duration
	onPage    func(page int)
	requested []int

	history      map[int32][]esi.HistoryEntry
	onHistory    func(calls int)
	historyCalls int

	names     map[int32]string
	nameCalls int
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{
		books:     make(map[bookKey][][]esi.MarketOrder),
		failPages: make(map[int]bool),
		history:   make(map[int32][]esi.HistoryEntry),
		names:     make(map[int32]string),
	}
}

func (f *fakeMarket) setBook(region int32, ot esi.OrderType, pages ...[]esi.MarketOrder) {
	f.books[bookKey{region, ot}] = pages
}

func (f *fakeMarket) FetchOrdersPage(ctx context.Context, regionID int32, orderType esi.OrderType, page int) (esi.OrdersPage, error) {
	f.mu.Lock()
	f.requested = append(f.requested, page)
	book := f.books[bookKey{regionID, orderType}]
	fail := f.failPages[page]
	f.mu.Unlock()

	if f.onPage != nil {
		f.onPage(page)
	}
	if f.delay != nil {
		time.Sleep(f.delay(page))
	}
	if fail || page < 1 || page > len(book) {
		return esi.OrdersPage{}, &esi.TransportError{Op: "orders", StatusCode: http.StatusBadGateway}
	}
	return esi.OrdersPage{Orders: book[page-1], TotalPages: len(book)}, nil
}

func (f *fakeMarket) ResolveNames(_ context.Context, ids []int32) map[int32]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nameCalls++
	out := make(map[int32]string)
	for _, id := range ids {
		if n, ok := f.names[id]; ok {
			out[id] = n
		}
	}
	return out
}

func (f *fakeMarket) FetchMarketHistory(_ context.Context, _ int32, typeID int32) ([]esi.HistoryEntry, error) {
	f.mu.Lock()
	f.historyCalls++
	calls := f.historyCalls
	entries, ok := f.history[typeID]
	f.mu.Unlock()
	if f.onHistory != nil {
		f.onHistory(calls)
	}
	if !ok {
		return nil, &esi.TransportError{Op: "history", StatusCode: http.StatusNotFound}
	}
	return entries, nil
}

func (f *fakeMarket) requestedPages() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.requested...)
}

func order(id int64, typeID int32, price float64, buy bool, location int64) esi.MarketOrder {
	return esi.MarketOrder{
		OrderID:      id,
		TypeID:       typeID,
		LocationID:   location,
		Price:        price,
		VolumeRemain: 10,
		IsBuyOrder:   buy,
	}
}

// flatHistory returns days of identical history points.
func flatHistory(days int, volume int64, avg float64) []esi.HistoryEntry {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]esi.HistoryEntry, days)
	for i := range out {
		out[i] = esi.HistoryEntry{
			Date:    start.AddDate(0, 0, i).Format("2006-01-02"),
			Average: avg,
			Volume:  volume,
		}
	}
	return out
}

type memHistoryCache struct {
	mu      sync.Mutex
	entries map[[2]int32][]esi.HistoryEntry
}

func (c *memHistoryCache) GetMarketHistory(regionID, typeID int32) ([]esi.HistoryEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[[2]int32{regionID, typeID}]
	return e, ok
}

func (c *memHistoryCache) SetMarketHistory(regionID, typeID int32, entries []esi.HistoryEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[[2]int32][]esi.HistoryEntry)
	}
	c.entries[[2]int32{regionID, typeID}] = entries
}

type memNameCache struct {
	names map[int32]string
}

func (c *memNameCache) GetTypeNames(ids []int32) map[int32]string {
	out := make(map[int32]string)
	for _, id := range ids {
		if n, ok := c.names[id]; ok {
			out[id] = n
		}
	}
	return out
}

func (c *memNameCache) SetTypeNames(names map[int32]string) {
	if c.names == nil {
		c.names = make(map[int32]string)
	}
	for id, n := range names {
		c.names[id] = n
	}
}
