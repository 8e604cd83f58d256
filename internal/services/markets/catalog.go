// Package markets maintains the market catalog: the cached lists of spot and
// derivative markets and the lookups every other service resolves markets
// through.
package markets

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"market-intel/internal/cache"
	"market-intel/internal/config"
	"market-intel/internal/models"
	"market-intel/internal/provider"
)

// Fallback token decimals when the indexer ships no token metadata.
const (
	DefaultBaseDecimals  = 18
	DefaultQuoteDecimals = 6
)

const (
	keySpotMarkets       = "markets:spot"
	keyDerivativeMarkets = "markets:derivative"
	keySummaryPrefix     = "markets:summary:"
)

type Catalog struct {
	provider provider.Provider
	cache    *cache.Store
	ttls     config.CacheConfig
	logger   *logrus.Logger
}

func NewCatalog(p provider.Provider, store *cache.Store, ttls config.CacheConfig, logger *logrus.Logger) *Catalog {
	return &Catalog{
		provider: p,
		cache:    store,
		ttls:     ttls,
		logger:   logger,
	}
}

// SpotMarkets returns the spot market list, served from cache when live.
func (c *Catalog) SpotMarkets(ctx context.Context) ([]models.Market, error) {
	if cached, ok := cache.Typed[[]models.Market](c.cache, keySpotMarkets); ok {
		return cached, nil
	}
	raw, err := c.provider.FetchSpotMarkets(ctx)
	if err != nil {
		return nil, err
	}
	list := convertMarkets(raw, models.MarketTypeSpot)
	c.cache.Set(keySpotMarkets, list, c.ttls.MarketsTTL)
	c.logger.WithField("count", len(list)).Debug("Refreshed spot market catalog")
	return list, nil
}

// DerivativeMarkets returns the derivative market list, served from cache
// when live.
func (c *Catalog) DerivativeMarkets(ctx context.Context) ([]models.Market, error) {
	if cached, ok := cache.Typed[[]models.Market](c.cache, keyDerivativeMarkets); ok {
		return cached, nil
	}
	raw, err := c.provider.FetchDerivativeMarkets(ctx)
	if err != nil {
		return nil, err
	}
	list := convertMarkets(raw, models.MarketTypeDerivative)
	c.cache.Set(keyDerivativeMarkets, list, c.ttls.MarketsTTL)
	c.logger.WithField("count", len(list)).Debug("Refreshed derivative market catalog")
	return list, nil
}

// ListAll returns every market, spot first then derivative. The two sides
// are fetched concurrently; each side keeps its own cache entry so a miss on
// one does not refetch the other.
func (c *Catalog) ListAll(ctx context.Context) ([]models.Market, error) {
	var spot, derivative []models.Market

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		spot, err = c.SpotMarkets(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		derivative, err = c.DerivativeMarkets(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := make([]models.Market, 0, len(spot)+len(derivative))
	all = append(all, spot...)
	all = append(all, derivative...)
	return all, nil
}

// ByID resolves a market by its id across both families.
func (c *Catalog) ByID(ctx context.Context, marketID string) (*models.Market, error) {
	all, err := c.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].MarketID == marketID {
			return &all[i], nil
		}
	}
	return nil, models.ErrMarketNotFound
}

// ByTicker resolves a market by ticker. Dashes and underscores in the query
// are treated as the pair separator, so "inj-usdt" and "INJ_USDT" both find
// "INJ/USDT". An exact ticker match wins over a prefix match such as
// "INJ/USDT PERP". typeFilter narrows the search to one family; empty means
// both.
func (c *Catalog) ByTicker(ctx context.Context, ticker string, typeFilter models.MarketType) (*models.Market, error) {
	list, err := c.listByType(ctx, typeFilter)
	if err != nil {
		return nil, err
	}

	normalized := normalizeTicker(ticker)
	var prefixMatch *models.Market
	for i := range list {
		candidate := strings.ToUpper(list[i].Ticker)
		if candidate == normalized {
			return &list[i], nil
		}
		if prefixMatch == nil && strings.HasPrefix(candidate, normalized+" ") {
			prefixMatch = &list[i]
		}
	}
	if prefixMatch != nil {
		return prefixMatch, nil
	}
	return nil, models.ErrMarketNotFound
}

// Search returns every market whose ticker contains the query,
// case-insensitively. An empty query matches nothing.
func (c *Catalog) Search(ctx context.Context, query string) ([]models.Market, error) {
	query = strings.ToUpper(strings.TrimSpace(query))
	if query == "" {
		return []models.Market{}, nil
	}
	all, err := c.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	matches := make([]models.Market, 0)
	for _, m := range all {
		if strings.Contains(strings.ToUpper(m.Ticker), query) {
			matches = append(matches, m)
		}
	}
	return matches, nil
}

// Summary aggregates catalog counts, optionally narrowed to one family.
// The aggregate keeps its own cache entry per filter.
func (c *Catalog) Summary(ctx context.Context, typeFilter models.MarketType) (*models.MarketsSummary, error) {
	key := keySummaryPrefix + summaryFilterLabel(typeFilter)
	if cached, ok := cache.Typed[*models.MarketsSummary](c.cache, key); ok {
		return cached, nil
	}

	list, err := c.listByType(ctx, typeFilter)
	if err != nil {
		return nil, err
	}

	summary := &models.MarketsSummary{
		TotalMarkets: len(list),
		Markets:      make([]models.MarketRef, 0, len(list)),
	}
	for _, m := range list {
		switch m.Type {
		case models.MarketTypeSpot:
			summary.SpotMarkets++
		case models.MarketTypeDerivative:
			summary.DerivativeMarkets++
		}
		summary.Markets = append(summary.Markets, models.MarketRef{
			MarketID: m.MarketID,
			Ticker:   m.Ticker,
			Type:     m.Type,
		})
	}

	c.cache.Set(key, summary, c.ttls.SummaryTTL)
	return summary, nil
}

func (c *Catalog) listByType(ctx context.Context, typeFilter models.MarketType) ([]models.Market, error) {
	switch typeFilter {
	case models.MarketTypeSpot:
		return c.SpotMarkets(ctx)
	case models.MarketTypeDerivative:
		return c.DerivativeMarkets(ctx)
	default:
		return c.ListAll(ctx)
	}
}

func summaryFilterLabel(typeFilter models.MarketType) string {
	if typeFilter == "" {
		return "all"
	}
	return string(typeFilter)
}

func normalizeTicker(ticker string) string {
	replaced := strings.Map(func(r rune) rune {
		if r == '-' || r == '_' {
			return '/'
		}
		return r
	}, ticker)
	return strings.ToUpper(strings.TrimSpace(replaced))
}

// Decimals returns the base and quote token decimals for a market, falling
// back to the chain-wide defaults when metadata is missing.
func Decimals(m *models.Market) (base, quote int) {
	base, quote = DefaultBaseDecimals, DefaultQuoteDecimals
	if m.BaseTokenMeta != nil && m.BaseTokenMeta.Decimals > 0 {
		base = m.BaseTokenMeta.Decimals
	}
	if m.QuoteTokenMeta != nil && m.QuoteTokenMeta.Decimals > 0 {
		quote = m.QuoteTokenMeta.Decimals
	}
	return base, quote
}

func convertMarkets(raw []provider.RawMarket, marketType models.MarketType) []models.Market {
	out := make([]models.Market, 0, len(raw))
	for _, r := range raw {
		out = append(out, models.Market{
			MarketID:            r.MarketID,
			Ticker:              r.Ticker,
			Type:                marketType,
			BaseDenom:           r.BaseDenom,
			QuoteDenom:          r.QuoteDenom,
			BaseTokenMeta:       convertToken(r.BaseToken),
			QuoteTokenMeta:      convertToken(r.QuoteToken),
			MakerFeeRate:        r.MakerFeeRate,
			TakerFeeRate:        r.TakerFeeRate,
			MinPriceTickSize:    r.MinPriceTickSize,
			MinQuantityTickSize: r.MinQuantityTickSize,
			ServiceProviderFee:  r.ServiceProviderFee,
		})
	}
	return out
}

func convertToken(t *provider.RawToken) *models.TokenMeta {
	if t == nil {
		return nil
	}
	return &models.TokenMeta{Name: t.Name, Symbol: t.Symbol, Decimals: t.Decimals}
}
