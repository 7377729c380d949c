package esi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(Options{
		BaseURL:           srv.URL,
		OrdersTimeout:     2 * time.Second,
		HistoryTimeout:    2 * time.Second,
		NamesTimeout:      2 * time.Second,
		RequestsPerSecond: 1000,
		Burst:             100,
	})
}

func TestMarketOrder_UnmarshalJSON(t *testing.T) {
	raw := `{"order_id":1,"type_id":34,"location_id":60003760,"system_id":30000142,"price":4.5,"volume_remain":100000,"is_buy_order":false}`
	var o MarketOrder
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if o.OrderID != 1 || o.TypeID != 34 || o.LocationID != 60003760 || o.SystemID != 30000142 {
		t.Errorf("MarketOrder = %+v", o)
	}
	if o.Price != 4.5 || o.VolumeRemain != 100000 {
		t.Errorf("Price/VolumeRemain = %v/%v", o.Price, o.VolumeRemain)
	}
	if o.IsBuyOrder != false {
		t.Error("IsBuyOrder want false")
	}
}

func TestHistoryEntry_UnmarshalJSON(t *testing.T) {
	raw := `{"date":"2025-01-15","average":100.5,"highest":105,"lowest":98,"volume":50000,"order_count":12}`
	var h HistoryEntry
	if err := json.Unmarshal([]byte(raw), &h); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if h.Date != "2025-01-15" || h.Average != 100.5 || h.Highest != 105 || h.Lowest != 98 {
		t.Errorf("HistoryEntry = %+v", h)
	}
	if h.Volume != 50000 || h.OrderCount != 12 {
		t.Errorf("Volume/OrderCount = %v/%v", h.Volume, h.OrderCount)
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Options{})
	if c == nil {
		t.Fatal("NewClient returned nil")
	}
	if c.baseURL != DefaultBaseURL || c.userAgent != DefaultUserAgent {
		t.Errorf("baseURL/userAgent = %q/%q", c.baseURL, c.userAgent)
	}
	if c.ordersTimeout != 10*time.Second || c.historyTimeout != 5*time.Second {
		t.Errorf("timeouts = %v/%v", c.ordersTimeout, c.historyTimeout)
	}
}

func TestFetchOrdersPage_ReadsPagesHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets/10000002/orders/" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("order_type") != "sell" || q.Get("page") != "3" || q.Get("datasource") != "tranquility" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing User-Agent")
		}
		w.Header().Set("X-Pages", "7")
		fmt.Fprint(w, `[{"order_id":9,"type_id":34,"location_id":60003760,"price":5,"is_buy_order":false}]`)
	}))
	defer srv.Close()

	page, err := newTestClient(srv).FetchOrdersPage(context.Background(), 10000002, OrderTypeSell, 3)
	if err != nil {
		t.Fatalf("FetchOrdersPage: %v", err)
	}
	if page.TotalPages != 7 {
		t.Errorf("TotalPages = %d, want 7", page.TotalPages)
	}
	if len(page.Orders) != 1 || page.Orders[0].OrderID != 9 {
		t.Errorf("Orders = %+v", page.Orders)
	}
}

func TestFetchOrdersPage_MissingHeaderMeansOnePage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	page, err := newTestClient(srv).FetchOrdersPage(context.Background(), 1, "", 1)
	if err != nil {
		t.Fatalf("FetchOrdersPage: %v", err)
	}
	if page.TotalPages != 1 {
		t.Errorf("TotalPages = %d, want 1", page.TotalPages)
	}
}

func TestFetchOrdersPage_StatusIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Pages", "4")
		http.Error(w, `{"error":"boom"}`, http.StatusBadGateway)
	}))
	defer srv.Close()

	page, err := newTestClient(srv).FetchOrdersPage(context.Background(), 1, OrderTypeAll, 1)
	if err == nil {
		t.Fatal("want error for 502")
	}
	if !IsTransport(err) {
		t.Errorf("err = %T, want *TransportError", err)
	}
	te := err.(*TransportError)
	if te.StatusCode != http.StatusBadGateway || te.Op != "orders" {
		t.Errorf("TransportError = %+v", te)
	}
	if len(page.Orders) != 0 || page.TotalPages != 0 {
		t.Errorf("failed page = %+v, want empty with 0 pages", page)
	}
}

func TestFetchOrdersPage_TimeoutIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := newTestClient(srv)
	c.ordersTimeout = 50 * time.Millisecond
	_, err := c.FetchOrdersPage(context.Background(), 1, OrderTypeAll, 1)
	if !IsTransport(err) {
		t.Fatalf("err = %v, want transport error", err)
	}
}

func TestFetchOrdersPage_BadJSONIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{not json`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchOrdersPage(context.Background(), 1, OrderTypeAll, 1)
	if !IsTransport(err) {
		t.Fatalf("err = %v, want transport error", err)
	}
}

func TestResolveNames_ChunksOf1000(t *testing.T) {
	var calls atomic.Int32
	var mu sync.Mutex
	var sizes []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasPrefix(r.URL.Path, "/universe/names/") {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		calls.Add(1)
		var ids []int32
		if err := json.NewDecoder(r.Body).Decode(&ids); err != nil {
			t.Errorf("decode body: %v", err)
		}
		mu.Lock()
		sizes = append(sizes, len(ids))
		mu.Unlock()
		out := make([]NameEntry, 0, len(ids))
		for _, id := range ids {
			out = append(out, NameEntry{ID: id, Name: fmt.Sprintf("Item %d", id), Category: "inventory_type"})
		}
		json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	ids := make([]int32, 0, 2600)
	for i := int32(1); i <= 2500; i++ {
		ids = append(ids, i)
	}
	ids = append(ids, ids[:100]...) // duplicates are dropped

	names := newTestClient(srv).ResolveNames(context.Background(), ids)
	if got := calls.Load(); got != 3 {
		t.Fatalf("batch calls = %d, want 3", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if fmt.Sprint(sizes) != "[1000 1000 500]" {
		t.Errorf("batch sizes = %v, want [1000 1000 500]", sizes)
	}
	if len(names) != 2500 {
		t.Errorf("len(names) = %d, want 2500", len(names))
	}
	if names[42] != "Item 42" {
		t.Errorf("names[42] = %q", names[42])
	}
}

func TestResolveNames_FailedChunkDegrades(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		var ids []int32
		json.NewDecoder(r.Body).Decode(&ids)
		if n == 1 {
			http.Error(w, "nope", http.StatusServiceUnavailable)
			return
		}
		out := make([]NameEntry, 0, len(ids))
		for _, id := range ids {
			out = append(out, NameEntry{ID: id, Name: "ok"})
		}
		json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	ids := make([]int32, 1500)
	for i := range ids {
		ids[i] = int32(i + 1)
	}
	names := newTestClient(srv).ResolveNames(context.Background(), ids)
	if len(names) != 500 {
		t.Errorf("len(names) = %d, want 500 (first chunk failed)", len(names))
	}
	if _, ok := names[1]; ok {
		t.Error("id 1 belongs to the failed chunk and must be absent")
	}
}

func TestChunkIDs(t *testing.T) {
	chunks := ChunkIDs([]int32{5, 3, 5, 1, 3, 2}, 2)
	if fmt.Sprint(chunks) != "[[1 2] [3 5]]" {
		t.Errorf("ChunkIDs = %v", chunks)
	}
	if ChunkIDs(nil, 1000) != nil {
		t.Error("ChunkIDs(nil) want nil")
	}
}

func TestComputeTrailingStats_UsesLast30(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var entries []HistoryEntry
	for i := 0; i < 45; i++ {
		e := HistoryEntry{Date: start.AddDate(0, 0, i).Format("2006-01-02")}
		if i < 15 {
			e.Volume, e.Average = 1_000_000, 9_999
		} else {
			e.Volume, e.Average = 10, 100
		}
		entries = append(entries, e)
	}
	// Shuffle order: stats must not depend on response ordering.
	entries[0], entries[44] = entries[44], entries[0]

	s := ComputeTrailingStats(entries, 30)
	if s.AvgVolume != 10 || s.AvgPrice != 100 {
		t.Errorf("stats = %+v, want {10 100}", s)
	}
}

func TestComputeTrailingStats_ShortAndEmpty(t *testing.T) {
	if s := ComputeTrailingStats(nil, 30); s != (HistoryStats{}) {
		t.Errorf("empty = %+v", s)
	}
	s := ComputeTrailingStats([]HistoryEntry{
		{Date: "2025-01-01", Volume: 10, Average: 2},
		{Date: "2025-01-02", Volume: 20, Average: 4},
	}, 30)
	if s.AvgVolume != 15 || s.AvgPrice != 3 {
		t.Errorf("short = %+v, want {15 3}", s)
	}
}

func TestFetchMarketHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("type_id") != "34" {
			t.Errorf("type_id = %s", r.URL.Query().Get("type_id"))
		}
		fmt.Fprint(w, `[{"date":"2025-01-01","average":5,"volume":100}]`)
	}))
	defer srv.Close()

	entries, err := newTestClient(srv).FetchMarketHistory(context.Background(), 10000002, 34)
	if err != nil {
		t.Fatalf("FetchMarketHistory: %v", err)
	}
	if len(entries) != 1 || entries[0].Volume != 100 {
		t.Errorf("entries = %+v", entries)
	}
}

func TestHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"players":31000}`)
	}))
	defer srv.Close()
	if !newTestClient(srv).HealthCheck(context.Background()) {
		t.Error("HealthCheck = false, want true")
	}
}
