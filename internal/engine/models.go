package engine

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Strategy identifies which scan produced a cycle.
type Strategy string

const (
	StrategyVelocity Strategy = "velocity"
	StrategyImport   Strategy = "import"
)

// Prefix is the snapshot file name prefix of the strategy.
func (s Strategy) Prefix() string {
	if s == StrategyImport {
		return "IMPORT"
	}
	return "TRADE"
}

// Opportunity tags.
const (
	TagTrade       = "Trade"
	TagImport      = "Import"
	TagEmptyMarket = "Empty-market opportunity"
)

// PriceQuote is the best buy and best sell price of one item at one station.
// BestBuy >= BestSell is allowed; such quotes simply have non-positive ROI.
type PriceQuote struct {
	TypeID   int32
	BestBuy  float64 // max price among buy orders
	BestSell float64 // min price among sell orders
}

// Opportunity is one ranked result of a scan.
type Opportunity struct {
	TypeID      int32   `json:"type_id"`
	Name        string  `json:"name"`
	Tag         string  `json:"tag"`
	BuyPrice    float64 `json:"buy_price"`
	SellPrice   float64 `json:"sell_price"`
	Profit      float64 `json:"profit"`
	ROI         float64 `json:"roi"`
	DailyVolume float64 `json:"daily_volume"`
	DailyProfit float64 `json:"daily_profit"` // Profit * DailyVolume
}

// SortByDailyProfit orders opportunities by estimated daily profit, highest first.
func SortByDailyProfit(opps []Opportunity) {
	sort.SliceStable(opps, func(i, j int) bool {
		if opps[i].DailyProfit != opps[j].DailyProfit {
			return opps[i].DailyProfit > opps[j].DailyProfit
		}
		return opps[i].TypeID < opps[j].TypeID
	})
}

// VelocityParams holds the input parameters of the single-hub spread scan.
type VelocityParams struct {
	Hub            Hub
	MinPrice       float64
	MaxPrice       float64
	MinVolume      float64
	MinDailyProfit float64
	Depth          int // max order book pages, 0 = all
}

// ImportParams holds the input parameters of the cross-hub import scan.
type ImportParams struct {
	Hub          Hub
	MinROI       float64
	MinVolume    float64
	IncludeEmpty bool
	Depth        int // reference hub page cap, 0 = Tuning.ReferenceDepth
}

// Tuning holds the heuristics shared by both strategies.
type Tuning struct {
	MinROI            float64 // velocity plausibility band, percent
	MaxROI            float64
	TopCandidates     int     // candidates kept for history lookups
	StalePriceFactor  float64 // reject buy price above factor * historical average
	EmptyMarketMarkup float64 // synthetic target price multiplier for empty markets
	ReferenceHub      Hub     // import source hub
	ReferenceDepth    int     // reference hub page cap when the caller asks for all pages
	HistoryWindow     int     // trailing history entries averaged
	ProgressEvery     int     // progress message every N checked items
}

// DefaultTuning returns the long-standing heuristic values.
func DefaultTuning() Tuning {
	return Tuning{
		MinROI:            10,
		MaxROI:            300,
		TopCandidates:     300,
		StalePriceFactor:  3,
		EmptyMarketMarkup: 2,
		ReferenceHub:      Jita,
		ReferenceDepth:    50,
		HistoryWindow:     30,
		ProgressEvery:     10,
	}
}

// Cycle is the outcome of one scan iteration.
type Cycle struct {
	RunID         uuid.UUID     `json:"run_id"`
	ID            uuid.UUID     `json:"id"`
	Number        int           `json:"number"`
	Strategy      Strategy      `json:"strategy"`
	Hub           Hub           `json:"hub"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration"`
	Opportunities []Opportunity `json:"opportunities"`
	SnapshotPath  string        `json:"snapshot_path,omitempty"`
	Cancelled     bool          `json:"cancelled"`
}

// TopDailyProfit returns the best estimated daily profit of the cycle.
func (c *Cycle) TopDailyProfit() float64 {
	var top float64
	for i, o := range c.Opportunities {
		if i == 0 || o.DailyProfit > top {
			top = o.DailyProfit
		}
	}
	return top
}

// TotalDailyProfit sums the estimated daily profit of every opportunity.
func (c *Cycle) TotalDailyProfit() float64 {
	var total float64
	for _, o := range c.Opportunities {
		total += o.DailyProfit
	}
	return total
}
