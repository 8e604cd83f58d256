package models

// SpreadAnalysis reports best bid/ask and derived spread figures for one
// market. Fields are nil when the book is one-sided.
type SpreadAnalysis struct {
	MarketID         string  `json:"market_id"`
	BestBid          *string `json:"best_bid"`
	BestAsk          *string `json:"best_ask"`
	AbsoluteSpread   *string `json:"absolute_spread"`
	SpreadPercentage *string `json:"spread_percentage"`
	MidPrice         *string `json:"mid_price"`
}

// DepthBand is the liquidity available within one percentage band around the
// mid price. Depth values are notional (price x quantity) sums.
type DepthBand struct {
	Percentage int    `json:"percentage"`
	BidDepth   string `json:"bid_depth"`
	AskDepth   string `json:"ask_depth"`
	TotalDepth string `json:"total_depth"`
}

// DepthAnalysis reports depth at the 1/2/5/10 percent bands.
type DepthAnalysis struct {
	MarketID string      `json:"market_id"`
	Bands    []DepthBand `json:"bands"`
}

// VolatilityMeta describes how a volatility figure was produced.
type VolatilityMeta struct {
	TradeCount int    `json:"trade_count"`
	Method     string `json:"method"`
}

// VolatilityStats is the trade-based volatility for one market. Metadata is
// nil when the figure degraded to zero for lack of usable trades.
type VolatilityStats struct {
	MarketID   string          `json:"market_id"`
	Volatility string          `json:"volatility"`
	Metadata   *VolatilityMeta `json:"history_metadata"`
}

// HealthRating buckets a health score into a coarse label.
type HealthRating string

const (
	HealthRatingExcellent HealthRating = "excellent"
	HealthRatingGood      HealthRating = "good"
	HealthRatingFair      HealthRating = "fair"
	HealthRatingPoor      HealthRating = "poor"
)

// HealthComponents are the sub-scores blended into the composite score.
type HealthComponents struct {
	SpreadScore   int `json:"spread_score"`
	DepthScore    int `json:"depth_score"`
	ActivityScore int `json:"activity_score"`
}

// MarketHealth is the composite 0-100 health score for one market.
type MarketHealth struct {
	MarketID   string           `json:"market_id"`
	Ticker     string           `json:"ticker"`
	Score      int              `json:"score"`
	Components HealthComponents `json:"components"`
	Rating     HealthRating     `json:"rating"`
}

// FundingRate is one historical funding rate point.
type FundingRate struct {
	Rate      string `json:"rate"`
	Timestamp int64  `json:"timestamp"`
}

// FundingHistory lists recent funding rates for a derivative market.
type FundingHistory struct {
	MarketID string        `json:"market_id"`
	Rates    []FundingRate `json:"funding_rates"`
}

// MarketRanking is one row of a cross-market ranking.
type MarketRanking struct {
	MarketID         string     `json:"market_id"`
	Ticker           string     `json:"ticker"`
	Type             MarketType `json:"type"`
	HealthScore      int        `json:"health_score"`
	Rating           string     `json:"rating"`
	SpreadPercentage *string    `json:"spread_percentage"`
	OrderbookEntries int        `json:"orderbook_entries"`
}

// ComparisonEntry is the per-market column of a side-by-side comparison.
// Unknown market ids degrade to ticker/type "unknown" with nil analytics.
type ComparisonEntry struct {
	MarketID   string           `json:"market_id"`
	Ticker     string           `json:"ticker"`
	Type       string           `json:"type"`
	Spread     *SpreadAnalysis  `json:"spread"`
	Depth      *DepthAnalysis   `json:"depth"`
	Health     *MarketHealth    `json:"health"`
	Volatility *VolatilityStats `json:"volatility"`
}

// MarketComparison holds up to five markets side by side.
type MarketComparison struct {
	Markets []ComparisonEntry `json:"markets"`
}

// WhaleTrade is a trade whose notional value cleared the whale threshold.
type WhaleTrade struct {
	TradeID           string `json:"trade_id"`
	MarketID          string `json:"market_id"`
	Direction         string `json:"trade_direction"`
	ExecutionPrice    string `json:"execution_price"`
	ExecutionQuantity string `json:"execution_quantity"`
	HumanPrice        string `json:"human_price"`
	HumanQuantity     string `json:"human_quantity"`
	NotionalValue     string `json:"notional_value"`
	ExecutedAt        int64  `json:"executed_at"`
}

// PriceLevelView is a human-readable price level for snapshot views.
type PriceLevelView struct {
	HumanPrice    string `json:"human_price"`
	HumanQuantity string `json:"human_quantity"`
}

// OrderbookSummary condenses a book to its headline figures for snapshots.
type OrderbookSummary struct {
	BestBid          *string          `json:"best_bid"`
	BestAsk          *string          `json:"best_ask"`
	SpreadPercentage *string          `json:"spread_percentage"`
	BuyLevels        int              `json:"buy_levels"`
	SellLevels       int              `json:"sell_levels"`
	TopBuys          []PriceLevelView `json:"top_buys"`
	TopSells         []PriceLevelView `json:"top_sells"`
}

// RecentTrade is the compact trade view embedded in snapshots.
type RecentTrade struct {
	HumanPrice    string `json:"human_price"`
	HumanQuantity string `json:"human_quantity"`
	Direction     string `json:"trade_direction"`
	ExecutedAt    int64  `json:"executed_at"`
}

// MarketSnapshot is the all-in-one view of a single market.
type MarketSnapshot struct {
	Market       Market            `json:"market"`
	Orderbook    *OrderbookSummary `json:"orderbook"`
	RecentTrades []RecentTrade     `json:"recent_trades"`
	Health       *MarketHealth     `json:"health"`
	Spread       *SpreadAnalysis   `json:"spread"`
}
