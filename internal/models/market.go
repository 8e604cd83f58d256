package models

// MarketType distinguishes the two market families served by the indexer.
type MarketType string

const (
	MarketTypeSpot       MarketType = "spot"
	MarketTypeDerivative MarketType = "derivative"
)

// TokenMeta describes the token behind one side of a market pair.
type TokenMeta struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// Market is the catalog entry for a single spot or derivative market.
// Immutable once fetched; the whole list is refreshed on cache expiry.
// Derivative markets carry no base token metadata because the indexer
// already quotes them in human units.
type Market struct {
	MarketID            string     `json:"market_id"`
	Ticker              string     `json:"ticker"`
	Type                MarketType `json:"type"`
	BaseDenom           string     `json:"base_denom"`
	QuoteDenom          string     `json:"quote_denom"`
	BaseTokenMeta       *TokenMeta `json:"base_token_meta,omitempty"`
	QuoteTokenMeta      *TokenMeta `json:"quote_token_meta,omitempty"`
	MakerFeeRate        string     `json:"maker_fee_rate"`
	TakerFeeRate        string     `json:"taker_fee_rate"`
	MinPriceTickSize    string     `json:"min_price_tick_size"`
	MinQuantityTickSize string     `json:"min_quantity_tick_size"`
	ServiceProviderFee  string     `json:"service_provider_fee"`
}

// MarketRef is the compact market identity used in aggregated views.
type MarketRef struct {
	MarketID string     `json:"market_id"`
	Ticker   string     `json:"ticker"`
	Type     MarketType `json:"type"`
}

// MarketsSummary aggregates counts across the (optionally filtered) catalog.
type MarketsSummary struct {
	TotalMarkets      int         `json:"total_markets"`
	SpotMarkets       int         `json:"spot_markets"`
	DerivativeMarkets int         `json:"derivative_markets"`
	Markets           []MarketRef `json:"markets"`
}
