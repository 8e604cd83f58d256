// Package stub implements provider.Provider over in-memory fixtures for
// tests. Error fields, when set, are returned instead of data; Calls counts
// invocations per method so cache behaviour can be asserted.
package stub

import (
	"context"

	"market-intel/internal/models"
	"market-intel/internal/provider"
)

type Provider struct {
	SpotMarkets       []provider.RawMarket
	DerivativeMarkets []provider.RawMarket
	Orderbooks        map[string]*provider.RawOrderbook
	Trades            map[string]*provider.RawTradePage
	OraclePrices      []provider.RawOraclePrice
	FundingRates      map[string][]provider.RawFundingRate
	Portfolios        map[string]*provider.RawPortfolio
	Positions         map[string][]provider.RawPosition

	SpotErr       error
	DerivativeErr error
	OrderbookErr  error
	TradesErr     error
	OracleErr     error
	FundingErr    error
	PortfolioErr  error
	PositionsErr  error

	Calls map[string]int
}

func New() *Provider {
	return &Provider{
		Orderbooks:   make(map[string]*provider.RawOrderbook),
		Trades:       make(map[string]*provider.RawTradePage),
		FundingRates: make(map[string][]provider.RawFundingRate),
		Portfolios:   make(map[string]*provider.RawPortfolio),
		Positions:    make(map[string][]provider.RawPosition),
		Calls:        make(map[string]int),
	}
}

func (p *Provider) FetchSpotMarkets(_ context.Context) ([]provider.RawMarket, error) {
	p.Calls["spot_markets"]++
	if p.SpotErr != nil {
		return nil, p.SpotErr
	}
	return p.SpotMarkets, nil
}

func (p *Provider) FetchDerivativeMarkets(_ context.Context) ([]provider.RawMarket, error) {
	p.Calls["derivative_markets"]++
	if p.DerivativeErr != nil {
		return nil, p.DerivativeErr
	}
	return p.DerivativeMarkets, nil
}

func (p *Provider) FetchOrderbook(_ context.Context, _ models.MarketType, marketID string) (*provider.RawOrderbook, error) {
	p.Calls["orderbook"]++
	if p.OrderbookErr != nil {
		return nil, p.OrderbookErr
	}
	if ob, ok := p.Orderbooks[marketID]; ok {
		return ob, nil
	}
	return &provider.RawOrderbook{}, nil
}

func (p *Provider) FetchTrades(_ context.Context, _ models.MarketType, marketID string, limit, skip int) (*provider.RawTradePage, error) {
	p.Calls["trades"]++
	if p.TradesErr != nil {
		return nil, p.TradesErr
	}
	page, ok := p.Trades[marketID]
	if !ok {
		return &provider.RawTradePage{}, nil
	}
	trades := page.Trades
	if skip > 0 {
		if skip >= len(trades) {
			trades = nil
		} else {
			trades = trades[skip:]
		}
	}
	if limit > 0 && limit < len(trades) {
		trades = trades[:limit]
	}
	return &provider.RawTradePage{Trades: trades, Total: page.Total}, nil
}

func (p *Provider) FetchOraclePrices(_ context.Context) ([]provider.RawOraclePrice, error) {
	p.Calls["oracle_prices"]++
	if p.OracleErr != nil {
		return nil, p.OracleErr
	}
	return p.OraclePrices, nil
}

func (p *Provider) FetchFundingRates(_ context.Context, marketID string, limit int) ([]provider.RawFundingRate, error) {
	p.Calls["funding_rates"]++
	if p.FundingErr != nil {
		return nil, p.FundingErr
	}
	rates := p.FundingRates[marketID]
	if limit > 0 && limit < len(rates) {
		rates = rates[:limit]
	}
	return rates, nil
}

func (p *Provider) FetchPortfolio(_ context.Context, address string) (*provider.RawPortfolio, error) {
	p.Calls["portfolio"]++
	if p.PortfolioErr != nil {
		return nil, p.PortfolioErr
	}
	if pf, ok := p.Portfolios[address]; ok {
		return pf, nil
	}
	return &provider.RawPortfolio{}, nil
}

func (p *Provider) FetchPositions(_ context.Context, subaccountID string) ([]provider.RawPosition, error) {
	p.Calls["positions"]++
	if p.PositionsErr != nil {
		return nil, p.PositionsErr
	}
	return p.Positions[subaccountID], nil
}

var _ provider.Provider = (*Provider)(nil)
