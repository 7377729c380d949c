package engine

import (
	"sort"

	"eve-arbscan/internal/esi"
)

// BuildQuotes groups a station book into one PriceQuote per item. Items that
// lack either a buy or a sell order are dropped. The result is ordered by
// type ID.
func BuildQuotes(orders []esi.MarketOrder) []PriceQuote {
	highestBuy := make(map[int32]float64)
	lowestSell := make(map[int32]float64)
	for _, o := range orders {
		if o.IsBuyOrder {
			if cur, ok := highestBuy[o.TypeID]; !ok || o.Price > cur {
				highestBuy[o.TypeID] = o.Price
			}
			continue
		}
		if cur, ok := lowestSell[o.TypeID]; !ok || o.Price < cur {
			lowestSell[o.TypeID] = o.Price
		}
	}

	quotes := make([]PriceQuote, 0, len(highestBuy))
	for typeID, buy := range highestBuy {
		sell, ok := lowestSell[typeID]
		if !ok {
			continue
		}
		quotes = append(quotes, PriceQuote{TypeID: typeID, BestBuy: buy, BestSell: sell})
	}
	sort.Slice(quotes, func(i, j int) bool { return quotes[i].TypeID < quotes[j].TypeID })
	return quotes
}

// MinSellPrices returns the lowest sell price per item. Buy orders are ignored.
func MinSellPrices(orders []esi.MarketOrder) map[int32]float64 {
	prices := make(map[int32]float64)
	for _, o := range orders {
		if o.IsBuyOrder {
			continue
		}
		if cur, ok := prices[o.TypeID]; !ok || o.Price < cur {
			prices[o.TypeID] = o.Price
		}
	}
	return prices
}
