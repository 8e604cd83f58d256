package injective

import (
	"encoding/json"

	"market-intel/internal/provider"
)

// flexString decodes a JSON field that the gateway serves as either a
// string or a bare number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) Value() string { return string(f) }

type wireToken struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

func (t *wireToken) toRawToken() *provider.RawToken {
	if t == nil {
		return nil
	}
	return &provider.RawToken{Name: t.Name, Symbol: t.Symbol, Decimals: t.Decimals}
}

type wireMarket struct {
	MarketID            string     `json:"marketId"`
	MarketStatus        string     `json:"marketStatus"`
	Ticker              string     `json:"ticker"`
	BaseDenom           string     `json:"baseDenom"`
	QuoteDenom          string     `json:"quoteDenom"`
	OracleBase          string     `json:"oracleBase"`
	OracleQuote         string     `json:"oracleQuote"`
	BaseTokenMeta       *wireToken `json:"baseTokenMeta"`
	QuoteTokenMeta      *wireToken `json:"quoteTokenMeta"`
	MakerFeeRate        string     `json:"makerFeeRate"`
	TakerFeeRate        string     `json:"takerFeeRate"`
	ServiceProviderFee  string     `json:"serviceProviderFee"`
	MinPriceTickSize    flexString `json:"minPriceTickSize"`
	MinQuantityTickSize flexString `json:"minQuantityTickSize"`
}

type marketsResponse struct {
	Markets []wireMarket `json:"markets"`
}

type wireLevel struct {
	Price     flexString `json:"price"`
	Quantity  flexString `json:"quantity"`
	Timestamp int64      `json:"timestamp"`
}

type orderbookResponse struct {
	Orderbook struct {
		Buys  []wireLevel `json:"buys"`
		Sells []wireLevel `json:"sells"`
	} `json:"orderbook"`
}

type wireTrade struct {
	OrderHash          string     `json:"orderHash"`
	TradeID            string     `json:"tradeId"`
	SubaccountID       string     `json:"subaccountId"`
	MarketID           string     `json:"marketId"`
	ExecutedAt         int64      `json:"executedAt"`
	TradeDirection     string     `json:"tradeDirection"`
	TradeExecutionType string     `json:"tradeExecutionType"`
	ExecutionSide      string     `json:"executionSide"`
	Price              flexString `json:"price"`
	Quantity           flexString `json:"quantity"`
	Fee                string     `json:"fee"`
	FeeRecipient       string     `json:"feeRecipient"`
}

type tradesResponse struct {
	Trades []wireTrade `json:"trades"`
	Paging struct {
		Total int `json:"total,string"`
	} `json:"paging"`
}

type wireOracle struct {
	Symbol      string `json:"symbol"`
	BaseSymbol  string `json:"baseSymbol"`
	QuoteSymbol string `json:"quoteSymbol"`
	OracleType  string `json:"oracleType"`
	Price       string `json:"price"`
}

type oracleListResponse struct {
	Oracles []wireOracle `json:"oracles"`
}

type wireFundingRate struct {
	MarketID  string `json:"marketId"`
	Rate      string `json:"rate"`
	Timestamp int64  `json:"timestamp,string"`
}

type fundingRatesResponse struct {
	FundingRates []wireFundingRate `json:"fundingRates"`
}

type wireDeposit struct {
	TotalBalance     string `json:"totalBalance"`
	AvailableBalance string `json:"availableBalance"`
}

type wireSubaccountBalance struct {
	SubaccountID string      `json:"subaccountId"`
	Denom        string      `json:"denom"`
	Deposit      wireDeposit `json:"deposit"`
}

type portfolioResponse struct {
	Portfolio struct {
		AccountAddress string `json:"accountAddress"`
		BankBalances   []struct {
			Denom  string `json:"denom"`
			Amount string `json:"amount"`
		} `json:"bankBalances"`
		Subaccounts       []wireSubaccountBalance `json:"subaccounts"`
		PositionsWithUpnl []json.RawMessage       `json:"positionsWithUpnl"`
	} `json:"portfolio"`
}

type wirePosition struct {
	MarketID      string `json:"marketId"`
	Ticker        string `json:"ticker"`
	Direction     string `json:"direction"`
	Quantity      string `json:"quantity"`
	EntryPrice    string `json:"entryPrice"`
	MarkPrice     string `json:"markPrice"`
	Margin        string `json:"margin"`
	UnrealizedPnl string `json:"unrealizedPnl"`
	SubaccountID  string `json:"subaccountId"`
}

type positionsResponse struct {
	Positions []wirePosition `json:"positions"`
}
