package models

// Trade is a single executed trade as reported by the indexer, newest-first
// within a page. Price and quantity are kept both raw and human-readable.
type Trade struct {
	OrderHash         string `json:"order_hash"`
	TradeID           string `json:"trade_id"`
	SubaccountID      string `json:"subaccount_id"`
	MarketID          string `json:"market_id"`
	ExecutedAt        int64  `json:"executed_at"`
	Direction         string `json:"trade_direction"`
	ExecutionType     string `json:"trade_execution_type"`
	ExecutionSide     string `json:"execution_side"`
	ExecutionPrice    string `json:"execution_price"`
	ExecutionQuantity string `json:"execution_quantity"`
	HumanPrice        string `json:"human_price"`
	HumanQuantity     string `json:"human_quantity"`
	Fee               string `json:"fee"`
	FeeRecipient      string `json:"fee_recipient"`
}

// TradePage is one page of trade history for a market.
type TradePage struct {
	MarketID string  `json:"market_id"`
	Trades   []Trade `json:"trades"`
	Total    int     `json:"total"`
}
