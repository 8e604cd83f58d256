package markets

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-intel/internal/cache"
	"market-intel/internal/config"
	"market-intel/internal/models"
	"market-intel/internal/provider"
	"market-intel/internal/provider/stub"
)

func testTTLs() config.CacheConfig {
	return config.CacheConfig{
		MarketsTTL: time.Minute,
		SummaryTTL: time.Minute,
	}
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func fixtureProvider() *stub.Provider {
	p := stub.New()
	p.SpotMarkets = []provider.RawMarket{
		{
			MarketID:   "0xspot1",
			Ticker:     "INJ/USDT",
			BaseDenom:  "inj",
			QuoteDenom: "peggy0xusdt",
			BaseToken:  &provider.RawToken{Symbol: "INJ", Decimals: 18},
			QuoteToken: &provider.RawToken{Symbol: "USDT", Decimals: 6},
		},
		{
			MarketID:   "0xspot2",
			Ticker:     "ATOM/USDT",
			BaseDenom:  "ibc/atom",
			QuoteDenom: "peggy0xusdt",
			BaseToken:  &provider.RawToken{Symbol: "ATOM", Decimals: 6},
			QuoteToken: &provider.RawToken{Symbol: "USDT", Decimals: 6},
		},
	}
	p.DerivativeMarkets = []provider.RawMarket{
		{
			MarketID:   "0xperp1",
			Ticker:     "INJ/USDT PERP",
			BaseDenom:  "INJ",
			QuoteDenom: "peggy0xusdt",
		},
	}
	return p
}

func TestListAllConcatenatesSpotFirst(t *testing.T) {
	p := fixtureProvider()
	catalog := NewCatalog(p, cache.New(0), testTTLs(), testLogger())

	all, err := catalog.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "0xspot1", all[0].MarketID)
	assert.Equal(t, models.MarketTypeSpot, all[0].Type)
	assert.Equal(t, "0xperp1", all[2].MarketID)
	assert.Equal(t, models.MarketTypeDerivative, all[2].Type)
}

func TestListAllServesFromCache(t *testing.T) {
	p := fixtureProvider()
	catalog := NewCatalog(p, cache.New(0), testTTLs(), testLogger())
	ctx := context.Background()

	_, err := catalog.ListAll(ctx)
	require.NoError(t, err)
	_, err = catalog.ListAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, p.Calls["spot_markets"])
	assert.Equal(t, 1, p.Calls["derivative_markets"])
}

func TestListAllPropagatesUpstreamError(t *testing.T) {
	p := fixtureProvider()
	p.DerivativeErr = errors.New("indexer down")
	catalog := NewCatalog(p, cache.New(0), testTTLs(), testLogger())

	_, err := catalog.ListAll(context.Background())
	require.Error(t, err)
}

func TestByID(t *testing.T) {
	catalog := NewCatalog(fixtureProvider(), cache.New(0), testTTLs(), testLogger())
	ctx := context.Background()

	m, err := catalog.ByID(ctx, "0xperp1")
	require.NoError(t, err)
	assert.Equal(t, "INJ/USDT PERP", m.Ticker)

	_, err = catalog.ByID(ctx, "0xmissing")
	assert.ErrorIs(t, err, models.ErrMarketNotFound)
}

func TestByTickerNormalization(t *testing.T) {
	catalog := NewCatalog(fixtureProvider(), cache.New(0), testTTLs(), testLogger())
	ctx := context.Background()

	for _, query := range []string{"INJ/USDT", "inj/usdt", "inj-usdt", "INJ_USDT"} {
		m, err := catalog.ByTicker(ctx, query, "")
		require.NoError(t, err, "query %q", query)
		assert.Equal(t, "0xspot1", m.MarketID, "query %q", query)
	}
}

func TestByTickerExactBeatsPrefix(t *testing.T) {
	catalog := NewCatalog(fixtureProvider(), cache.New(0), testTTLs(), testLogger())

	// "INJ/USDT PERP" starts with "INJ/USDT " but the exact spot match wins.
	m, err := catalog.ByTicker(context.Background(), "inj-usdt", "")
	require.NoError(t, err)
	assert.Equal(t, models.MarketTypeSpot, m.Type)
}

func TestByTickerPrefixMatch(t *testing.T) {
	catalog := NewCatalog(fixtureProvider(), cache.New(0), testTTLs(), testLogger())

	m, err := catalog.ByTicker(context.Background(), "inj-usdt", models.MarketTypeDerivative)
	require.NoError(t, err)
	assert.Equal(t, "0xperp1", m.MarketID)
}

func TestByTickerNotFound(t *testing.T) {
	catalog := NewCatalog(fixtureProvider(), cache.New(0), testTTLs(), testLogger())

	_, err := catalog.ByTicker(context.Background(), "doge-usdt", "")
	assert.ErrorIs(t, err, models.ErrMarketNotFound)
}

func TestSearch(t *testing.T) {
	catalog := NewCatalog(fixtureProvider(), cache.New(0), testTTLs(), testLogger())
	ctx := context.Background()

	matches, err := catalog.Search(ctx, "inj")
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	matches, err = catalog.Search(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSummaryCountsAndFilter(t *testing.T) {
	catalog := NewCatalog(fixtureProvider(), cache.New(0), testTTLs(), testLogger())
	ctx := context.Background()

	all, err := catalog.Summary(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, all.TotalMarkets)
	assert.Equal(t, 2, all.SpotMarkets)
	assert.Equal(t, 1, all.DerivativeMarkets)
	require.Len(t, all.Markets, 3)

	spotOnly, err := catalog.Summary(ctx, models.MarketTypeSpot)
	require.NoError(t, err)
	assert.Equal(t, 2, spotOnly.TotalMarkets)
	assert.Equal(t, 0, spotOnly.DerivativeMarkets)
}

func TestDecimalsDefaults(t *testing.T) {
	withMeta := &models.Market{
		BaseTokenMeta:  &models.TokenMeta{Decimals: 8},
		QuoteTokenMeta: &models.TokenMeta{Decimals: 6},
	}
	base, quote := Decimals(withMeta)
	assert.Equal(t, 8, base)
	assert.Equal(t, 6, quote)

	base, quote = Decimals(&models.Market{})
	assert.Equal(t, DefaultBaseDecimals, base)
	assert.Equal(t, DefaultQuoteDecimals, quote)
}
