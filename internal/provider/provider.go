// Package provider defines the narrow read-only query interface the engine
// consumes from the blockchain indexer. All numeric fields stay strings so
// the indexer's fixed-point representations survive transport untouched;
// normalization is the service layer's job.
package provider

import (
	"context"

	"market-intel/internal/models"
)

type RawToken struct {
	Name     string
	Symbol   string
	Decimals int
}

type RawMarket struct {
	MarketID            string
	Ticker              string
	BaseDenom           string
	QuoteDenom          string
	BaseToken           *RawToken
	QuoteToken          *RawToken
	MakerFeeRate        string
	TakerFeeRate        string
	MinPriceTickSize    string
	MinQuantityTickSize string
	ServiceProviderFee  string
}

type RawPriceLevel struct {
	Price     string
	Quantity  string
	Timestamp int64
}

// RawOrderbook carries levels pre-sorted best-first by the indexer:
// buys descending, sells ascending.
type RawOrderbook struct {
	Buys  []RawPriceLevel
	Sells []RawPriceLevel
}

type RawTrade struct {
	OrderHash          string
	TradeID            string
	SubaccountID       string
	MarketID           string
	ExecutedAt         int64
	TradeDirection     string
	TradeExecutionType string
	ExecutionSide      string
	Price              string
	Quantity           string
	Fee                string
	FeeRecipient       string
}

// RawTradePage is one page of trade history, newest-first.
type RawTradePage struct {
	Trades []RawTrade
	Total  int
}

type RawOraclePrice struct {
	Symbol      string
	BaseSymbol  string
	QuoteSymbol string
	OracleType  string
	Price       string
}

type RawFundingRate struct {
	Rate      string
	Timestamp int64
}

type RawBankBalance struct {
	Denom  string
	Amount string
}

type RawSubaccountBalance struct {
	SubaccountID     string
	Denom            string
	TotalBalance     string
	AvailableBalance string
}

type RawPortfolio struct {
	BankBalances   []RawBankBalance
	Subaccounts    []RawSubaccountBalance
	PositionsCount int
}

type RawPosition struct {
	MarketID      string
	Ticker        string
	Direction     string
	Quantity      string
	EntryPrice    string
	MarkPrice     string
	Margin        string
	UnrealizedPnl string
	SubaccountID  string
}

// Provider is the indexer capability set the engine depends on. The market
// type discriminator routes orderbook and trade fetches to the right
// indexer API family.
type Provider interface {
	FetchSpotMarkets(ctx context.Context) ([]RawMarket, error)
	FetchDerivativeMarkets(ctx context.Context) ([]RawMarket, error)
	FetchOrderbook(ctx context.Context, marketType models.MarketType, marketID string) (*RawOrderbook, error)
	FetchTrades(ctx context.Context, marketType models.MarketType, marketID string, limit, skip int) (*RawTradePage, error)
	FetchOraclePrices(ctx context.Context) ([]RawOraclePrice, error)
	FetchFundingRates(ctx context.Context, marketID string, limit int) ([]RawFundingRate, error)
	FetchPortfolio(ctx context.Context, address string) (*RawPortfolio, error)
	FetchPositions(ctx context.Context, subaccountID string) ([]RawPosition, error)
}
