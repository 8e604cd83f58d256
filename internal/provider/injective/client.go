// Package injective implements provider.Provider against the Injective
// indexer's HTTP gateway.
package injective

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"market-intel/internal/metrics"
	"market-intel/internal/models"
	"market-intel/internal/provider"
)

// Request ceiling against the public sentry endpoints.
const (
	requestsPerSecond = 10
	requestBurst      = 20
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logrus.Logger
}

// NewClient creates a client for one indexer endpoint set. The timeout
// bounds a single HTTP exchange; the engine layer adds no timeouts of its
// own.
func NewClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst),
		logger:     logger,
	}
}

func (c *Client) FetchSpotMarkets(ctx context.Context) ([]provider.RawMarket, error) {
	var resp marketsResponse
	if err := c.getJSON(ctx, "spot_markets", "/api/exchange/spot/v1/markets", nil, &resp); err != nil {
		return nil, models.NewUpstreamError("SPOT_MARKETS_FETCH", "failed to fetch spot markets", err)
	}
	return toRawMarkets(resp.Markets), nil
}

func (c *Client) FetchDerivativeMarkets(ctx context.Context) ([]provider.RawMarket, error) {
	var resp marketsResponse
	if err := c.getJSON(ctx, "derivative_markets", "/api/exchange/derivative/v1/markets", nil, &resp); err != nil {
		return nil, models.NewUpstreamError("DERIVATIVE_MARKETS_FETCH", "failed to fetch derivative markets", err)
	}
	return toRawMarkets(resp.Markets), nil
}

func (c *Client) FetchOrderbook(ctx context.Context, marketType models.MarketType, marketID string) (*provider.RawOrderbook, error) {
	path := "/api/exchange/spot/v2/orderbook/" + url.PathEscape(marketID)
	if marketType == models.MarketTypeDerivative {
		path = "/api/exchange/derivative/v2/orderbook/" + url.PathEscape(marketID)
	}
	var resp orderbookResponse
	if err := c.getJSON(ctx, "orderbook", path, nil, &resp); err != nil {
		return nil, models.NewUpstreamError("ORDERBOOK_FETCH", "failed to fetch orderbook for "+marketID, err)
	}
	return &provider.RawOrderbook{
		Buys:  toRawLevels(resp.Orderbook.Buys),
		Sells: toRawLevels(resp.Orderbook.Sells),
	}, nil
}

func (c *Client) FetchTrades(ctx context.Context, marketType models.MarketType, marketID string, limit, skip int) (*provider.RawTradePage, error) {
	path := "/api/exchange/spot/v1/trades"
	if marketType == models.MarketTypeDerivative {
		path = "/api/exchange/derivative/v1/trades"
	}
	query := url.Values{
		"marketId": {marketID},
		"limit":    {strconv.Itoa(limit)},
		"skip":     {strconv.Itoa(skip)},
	}
	var resp tradesResponse
	if err := c.getJSON(ctx, "trades", path, query, &resp); err != nil {
		return nil, models.NewUpstreamError("TRADES_FETCH", "failed to fetch trades for "+marketID, err)
	}
	page := &provider.RawTradePage{
		Trades: make([]provider.RawTrade, 0, len(resp.Trades)),
		Total:  resp.Paging.Total,
	}
	for _, t := range resp.Trades {
		page.Trades = append(page.Trades, provider.RawTrade{
			OrderHash:          t.OrderHash,
			TradeID:            t.TradeID,
			SubaccountID:       t.SubaccountID,
			MarketID:           t.MarketID,
			ExecutedAt:         t.ExecutedAt,
			TradeDirection:     t.TradeDirection,
			TradeExecutionType: t.TradeExecutionType,
			ExecutionSide:      t.ExecutionSide,
			Price:              t.Price.Value(),
			Quantity:           t.Quantity.Value(),
			Fee:                t.Fee,
			FeeRecipient:       t.FeeRecipient,
		})
	}
	return page, nil
}

func (c *Client) FetchOraclePrices(ctx context.Context) ([]provider.RawOraclePrice, error) {
	var resp oracleListResponse
	if err := c.getJSON(ctx, "oracle_prices", "/api/exchange/oracle/v1/oracle_list", nil, &resp); err != nil {
		return nil, models.NewUpstreamError("ORACLE_FETCH", "failed to fetch oracle list", err)
	}
	out := make([]provider.RawOraclePrice, 0, len(resp.Oracles))
	for _, o := range resp.Oracles {
		out = append(out, provider.RawOraclePrice{
			Symbol:      o.Symbol,
			BaseSymbol:  o.BaseSymbol,
			QuoteSymbol: o.QuoteSymbol,
			OracleType:  o.OracleType,
			Price:       o.Price,
		})
	}
	return out, nil
}

func (c *Client) FetchFundingRates(ctx context.Context, marketID string, limit int) ([]provider.RawFundingRate, error) {
	query := url.Values{
		"marketId": {marketID},
		"limit":    {strconv.Itoa(limit)},
	}
	var resp fundingRatesResponse
	if err := c.getJSON(ctx, "funding_rates", "/api/exchange/derivative/v1/fundingRates", query, &resp); err != nil {
		return nil, models.NewUpstreamError("FUNDING_FETCH", "failed to fetch funding rates for "+marketID, err)
	}
	out := make([]provider.RawFundingRate, 0, len(resp.FundingRates))
	for _, f := range resp.FundingRates {
		out = append(out, provider.RawFundingRate{Rate: f.Rate, Timestamp: f.Timestamp})
	}
	return out, nil
}

func (c *Client) FetchPortfolio(ctx context.Context, address string) (*provider.RawPortfolio, error) {
	path := "/api/exchange/portfolio/v2/portfolio/" + url.PathEscape(address)
	var resp portfolioResponse
	if err := c.getJSON(ctx, "portfolio", path, nil, &resp); err != nil {
		return nil, models.NewUpstreamError("PORTFOLIO_FETCH", "failed to fetch portfolio for "+address, err)
	}
	out := &provider.RawPortfolio{
		BankBalances:   make([]provider.RawBankBalance, 0, len(resp.Portfolio.BankBalances)),
		Subaccounts:    make([]provider.RawSubaccountBalance, 0, len(resp.Portfolio.Subaccounts)),
		PositionsCount: len(resp.Portfolio.PositionsWithUpnl),
	}
	for _, b := range resp.Portfolio.BankBalances {
		out.BankBalances = append(out.BankBalances, provider.RawBankBalance{Denom: b.Denom, Amount: b.Amount})
	}
	for _, s := range resp.Portfolio.Subaccounts {
		out.Subaccounts = append(out.Subaccounts, provider.RawSubaccountBalance{
			SubaccountID:     s.SubaccountID,
			Denom:            s.Denom,
			TotalBalance:     s.Deposit.TotalBalance,
			AvailableBalance: s.Deposit.AvailableBalance,
		})
	}
	return out, nil
}

func (c *Client) FetchPositions(ctx context.Context, subaccountID string) ([]provider.RawPosition, error) {
	query := url.Values{"subaccountId": {subaccountID}}
	var resp positionsResponse
	if err := c.getJSON(ctx, "positions", "/api/exchange/derivative/v2/positions", query, &resp); err != nil {
		return nil, models.NewUpstreamError("POSITIONS_FETCH", "failed to fetch positions for "+subaccountID, err)
	}
	out := make([]provider.RawPosition, 0, len(resp.Positions))
	for _, p := range resp.Positions {
		out = append(out, provider.RawPosition{
			MarketID:      p.MarketID,
			Ticker:        p.Ticker,
			Direction:     p.Direction,
			Quantity:      p.Quantity,
			EntryPrice:    p.EntryPrice,
			MarkPrice:     p.MarkPrice,
			Margin:        p.Margin,
			UnrealizedPnl: p.UnrealizedPnl,
			SubaccountID:  p.SubaccountID,
		})
	}
	return out, nil
}

// getJSON issues one rate-limited GET and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, call, path string, query url.Values, out any) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveUpstream(call, start, err) }()

	if err = c.limiter.Wait(ctx); err != nil {
		return err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("call", call).Warn("Indexer request failed")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.WithField("call", call).Warnf("Indexer returned status %d", resp.StatusCode)
		return fmt.Errorf("indexer returned status %d: %s", resp.StatusCode, string(body))
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", call, err)
	}
	return nil
}

func toRawMarkets(in []wireMarket) []provider.RawMarket {
	out := make([]provider.RawMarket, 0, len(in))
	for _, m := range in {
		baseDenom := m.BaseDenom
		if baseDenom == "" {
			// Derivative markets have no base denom; the oracle base stands in.
			baseDenom = m.OracleBase
		}
		out = append(out, provider.RawMarket{
			MarketID:            m.MarketID,
			Ticker:              m.Ticker,
			BaseDenom:           baseDenom,
			QuoteDenom:          m.QuoteDenom,
			BaseToken:           m.BaseTokenMeta.toRawToken(),
			QuoteToken:          m.QuoteTokenMeta.toRawToken(),
			MakerFeeRate:        m.MakerFeeRate,
			TakerFeeRate:        m.TakerFeeRate,
			MinPriceTickSize:    m.MinPriceTickSize.Value(),
			MinQuantityTickSize: m.MinQuantityTickSize.Value(),
			ServiceProviderFee:  m.ServiceProviderFee,
		})
	}
	return out
}

func toRawLevels(in []wireLevel) []provider.RawPriceLevel {
	out := make([]provider.RawPriceLevel, 0, len(in))
	for _, l := range in {
		out = append(out, provider.RawPriceLevel{
			Price:     l.Price.Value(),
			Quantity:  l.Quantity.Value(),
			Timestamp: l.Timestamp,
		})
	}
	return out
}

var _ provider.Provider = (*Client)(nil)
