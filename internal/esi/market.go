package esi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

// OrderType filters an order book query.
type OrderType string

const (
	OrderTypeAll  OrderType = "all"
	OrderTypeBuy  OrderType = "buy"
	OrderTypeSell OrderType = "sell"
)

// MarketOrder mirrors the ESI market order response.
type MarketOrder struct {
	OrderID      int64   `json:"order_id"`
	TypeID       int32   `json:"type_id"`
	LocationID   int64   `json:"location_id"`
	SystemID     int32   `json:"system_id"`
	Price        float64 `json:"price"`
	VolumeRemain int32   `json:"volume_remain"`
	IsBuyOrder   bool    `json:"is_buy_order"`
}

// OrdersPage is one page of a region's order book together with the total
// page count reported in the X-Pages header.
type OrdersPage struct {
	Orders     []MarketOrder
	TotalPages int
}

// FetchOrdersPage fetches a single page of a region's order book.
// On failure it returns an empty page and a *TransportError; an empty page
// means "no data for this page", not that an item is absent from the book.
func (c *Client) FetchOrdersPage(ctx context.Context, regionID int32, orderType OrderType, page int) (OrdersPage, error) {
	if orderType == "" {
		orderType = OrderTypeAll
	}
	url := fmt.Sprintf("%s/markets/%d/orders/?datasource=%s&order_type=%s&page=%d",
		c.baseURL, regionID, datasource, orderType, page)

	var orders []MarketOrder
	hdr, err := c.doJSON(ctx, "orders", http.MethodGet, url, nil, c.ordersTimeout, &orders)
	if err != nil {
		return OrdersPage{}, err
	}
	return OrdersPage{Orders: orders, TotalPages: parsePages(hdr)}, nil
}

// parsePages reads X-Pages. A missing or malformed header means one page.
func parsePages(hdr http.Header) int {
	p := hdr.Get("X-Pages")
	if p == "" {
		return 1
	}
	n, err := strconv.Atoi(p)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
