package models

import "time"

// OrderbookLevel is a single price level carrying both the indexer's raw
// fixed-point representation and the human-readable conversion.
type OrderbookLevel struct {
	Price         string `json:"price"`
	Quantity      string `json:"quantity"`
	HumanPrice    string `json:"human_price"`
	HumanQuantity string `json:"human_quantity"`
	Timestamp     int64  `json:"timestamp"`
}

// OrderbookSnapshot is a point-in-time view of one market's book.
// Buys are sorted descending by price and sells ascending, as guaranteed by
// the indexer. Spread fields stay nil unless both best levels exist with
// positive prices.
type OrderbookSnapshot struct {
	MarketID         string           `json:"market_id"`
	Buys             []OrderbookLevel `json:"buys"`
	Sells            []OrderbookLevel `json:"sells"`
	BestBid          *string          `json:"best_bid"`
	BestAsk          *string          `json:"best_ask"`
	Spread           *string          `json:"spread"`
	SpreadPercentage *string          `json:"spread_percentage"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
