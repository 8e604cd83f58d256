package rankings

import (
	"context"
	"fmt"
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
	"market-intel/internal/services/analytics"
	"market-intel/internal/services/markets"
	"market-intel/internal/services/orderbook"
	"market-intel/internal/services/trades"
)

func newTestService(p *stub.Provider) *Service {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	ttls := config.CacheConfig{
		MarketsTTL:   time.Minute,
		OrderbookTTL: time.Minute,
		TradesTTL:    time.Minute,
		AnalyticsTTL: time.Minute,
		SummaryTTL:   time.Minute,
	}
	store := cache.New(0)
	catalog := markets.NewCatalog(p, store, ttls, logger)
	orderbookSvc := orderbook.NewService(p, catalog, store, ttls, logger)
	tradesSvc := trades.NewService(p, catalog, store, ttls, logger)
	analyticsSvc := analytics.NewService(p, catalog, orderbookSvc, tradesSvc, store, ttls, logger)
	return NewService(catalog, orderbookSvc, tradesSvc, analyticsSvc, store, ttls, logger)
}

// deepBook builds a tight, deep book around price 100 with count levels per
// side.
func deepBook(count int) *provider.RawOrderbook {
	book := &provider.RawOrderbook{}
	for i := 0; i < count; i++ {
		book.Buys = append(book.Buys, provider.RawPriceLevel{
			Price:    fmt.Sprintf("%.3f", 100-float64(i)*0.001),
			Quantity: "200",
		})
		book.Sells = append(book.Sells, provider.RawPriceLevel{
			Price:    fmt.Sprintf("%.3f", 100.001+float64(i)*0.001),
			Quantity: "200",
		})
	}
	return book
}

func fixture() *stub.Provider {
	p := stub.New()
	p.DerivativeMarkets = []provider.RawMarket{
		{MarketID: "0xempty", Ticker: "EMPTY/USDT PERP"},
		{MarketID: "0xgood", Ticker: "GOOD/USDT PERP"},
		{MarketID: "0xmid", Ticker: "MID/USDT PERP"},
	}
	p.Orderbooks["0xgood"] = deepBook(60)
	p.Orderbooks["0xmid"] = &provider.RawOrderbook{
		Buys: []provider.RawPriceLevel{
			{Price: "100", Quantity: "1"},
			{Price: "99.9", Quantity: "1"},
			{Price: "99.8", Quantity: "1"},
			{Price: "99.7", Quantity: "1"},
			{Price: "99.6", Quantity: "1"},
			{Price: "99.5", Quantity: "1"},
		},
		Sells: []provider.RawPriceLevel{
			{Price: "102", Quantity: "1"},
		},
	}
	return p
}

func TestRankingsOrdersByHealth(t *testing.T) {
	svc := newTestService(fixture())

	rankings, err := svc.Rankings(context.Background(), SortHealth, 10, "")
	require.NoError(t, err)
	require.Len(t, rankings, 3)
	assert.Equal(t, "0xgood", rankings[0].MarketID)
	assert.Equal(t, "0xmid", rankings[1].MarketID)
	assert.Equal(t, "0xempty", rankings[2].MarketID)
	assert.GreaterOrEqual(t, rankings[0].HealthScore, rankings[1].HealthScore)
	assert.GreaterOrEqual(t, rankings[1].HealthScore, rankings[2].HealthScore)
}

func TestRankingsSpreadSortTruncatesAfterSort(t *testing.T) {
	svc := newTestService(fixture())

	// 0xempty has no spread and must sort last, then fall off the limit.
	rankings, err := svc.Rankings(context.Background(), SortSpread, 2, "")
	require.NoError(t, err)
	require.Len(t, rankings, 2)
	assert.Equal(t, "0xgood", rankings[0].MarketID)
	assert.Equal(t, "0xmid", rankings[1].MarketID)
}

func TestRankingsDepthSort(t *testing.T) {
	svc := newTestService(fixture())

	rankings, err := svc.Rankings(context.Background(), SortDepth, 10, "")
	require.NoError(t, err)
	require.Len(t, rankings, 3)
	assert.Equal(t, "0xgood", rankings[0].MarketID)
	assert.Greater(t, rankings[0].OrderbookEntries, rankings[1].OrderbookEntries)
}

func TestRankingsServedFromCache(t *testing.T) {
	p := fixture()
	svc := newTestService(p)
	ctx := context.Background()

	_, err := svc.Rankings(ctx, SortHealth, 10, "")
	require.NoError(t, err)
	calls := p.Calls["orderbook"]

	_, err = svc.Rankings(ctx, SortHealth, 10, "")
	require.NoError(t, err)
	assert.Equal(t, calls, p.Calls["orderbook"])
}

func TestSortRankingsSpreadNullsLast(t *testing.T) {
	mid := "0.5000"
	tight := "0.1000"
	rankings := []models.MarketRanking{
		{MarketID: "mid", SpreadPercentage: &mid},
		{MarketID: "no-spread"},
		{MarketID: "tight", SpreadPercentage: &tight},
	}
	sortRankings(rankings, SortSpread)

	ids := []string{rankings[0].MarketID, rankings[1].MarketID, rankings[2].MarketID}
	assert.Equal(t, []string{"tight", "mid", "no-spread"}, ids)
}

func TestRankingsTypeFilter(t *testing.T) {
	p := fixture()
	p.SpotMarkets = []provider.RawMarket{
		{MarketID: "0xspot", Ticker: "INJ/USDT"},
	}
	svc := newTestService(p)

	rankings, err := svc.Rankings(context.Background(), SortHealth, 10, models.MarketTypeSpot)
	require.NoError(t, err)
	require.Len(t, rankings, 1)
	assert.Equal(t, "0xspot", rankings[0].MarketID)
}

func TestCompareValidation(t *testing.T) {
	svc := newTestService(fixture())
	ctx := context.Background()

	_, err := svc.Compare(ctx, nil)
	assert.ErrorIs(t, err, models.ErrNoMarketIDs)

	_, err = svc.Compare(ctx, []string{"1", "2", "3", "4", "5", "6"})
	assert.ErrorIs(t, err, models.ErrTooManyMarkets)
}

func TestCompareUnknownMarketPlaceholder(t *testing.T) {
	svc := newTestService(fixture())

	comparison, err := svc.Compare(context.Background(), []string{"0xmid", "0xmissing"})
	require.NoError(t, err)
	require.Len(t, comparison.Markets, 2)

	known := comparison.Markets[0]
	assert.Equal(t, "MID/USDT PERP", known.Ticker)
	assert.NotNil(t, known.Spread)
	assert.NotNil(t, known.Health)

	placeholder := comparison.Markets[1]
	assert.Equal(t, "0xmissing", placeholder.MarketID)
	assert.Equal(t, "unknown", placeholder.Ticker)
	assert.Equal(t, "unknown", placeholder.Type)
	assert.Nil(t, placeholder.Spread)
	assert.Nil(t, placeholder.Health)
}

func whaleFixture() *stub.Provider {
	p := fixture()
	page := &provider.RawTradePage{Total: 20}
	for i := 1; i <= 20; i++ {
		page.Trades = append(page.Trades, provider.RawTrade{
			TradeID:  fmt.Sprintf("t%d", i),
			MarketID: "0xmid",
			Price:    fmt.Sprintf("%d", i),
			Quantity: "1",
		})
	}
	p.Trades["0xmid"] = page
	return p
}

func TestWhalesExplicitThreshold(t *testing.T) {
	svc := newTestService(whaleFixture())

	whales, err := svc.Whales(context.Background(), "0xmid", 18)
	require.NoError(t, err)
	require.Len(t, whales, 3)
	assert.Equal(t, "t20", whales[0].TradeID)
	assert.Equal(t, "20.0000", whales[0].NotionalValue)
	assert.Equal(t, "t18", whales[2].TradeID)
}

func TestWhalesAutoThreshold(t *testing.T) {
	svc := newTestService(whaleFixture())

	// 20 notionals, top decile boundary sits at the second largest value.
	whales, err := svc.Whales(context.Background(), "0xmid", 0)
	require.NoError(t, err)
	require.Len(t, whales, 2)
	assert.Equal(t, "t20", whales[0].TradeID)
	assert.Equal(t, "t19", whales[1].TradeID)
}

func TestWhalesAutoThresholdAlwaysAdmitsOne(t *testing.T) {
	p := fixture()
	p.Trades["0xmid"] = &provider.RawTradePage{
		Trades: []provider.RawTrade{
			{TradeID: "t2", MarketID: "0xmid", Price: "5", Quantity: "1"},
			{TradeID: "t1", MarketID: "0xmid", Price: "3", Quantity: "1"},
		},
		Total: 2,
	}
	svc := newTestService(p)

	whales, err := svc.Whales(context.Background(), "0xmid", 0)
	require.NoError(t, err)
	require.Len(t, whales, 1)
	assert.Equal(t, "t2", whales[0].TradeID)
}

func TestWhalesUnknownMarket(t *testing.T) {
	svc := newTestService(fixture())

	whales, err := svc.Whales(context.Background(), "0xmissing", 0)
	require.NoError(t, err)
	assert.Empty(t, whales)
}

func TestSnapshot(t *testing.T) {
	p := whaleFixture()
	svc := newTestService(p)

	snap, err := svc.Snapshot(context.Background(), "0xmid")
	require.NoError(t, err)
	assert.Equal(t, "MID/USDT PERP", snap.Market.Ticker)

	require.NotNil(t, snap.Orderbook)
	assert.Equal(t, 6, snap.Orderbook.BuyLevels)
	assert.Len(t, snap.Orderbook.TopBuys, 5)
	assert.Len(t, snap.Orderbook.TopSells, 1)

	assert.Len(t, snap.RecentTrades, 5)
	assert.NotNil(t, snap.Health)
	assert.NotNil(t, snap.Spread)
}

func TestSnapshotUnknownMarket(t *testing.T) {
	svc := newTestService(fixture())

	_, err := svc.Snapshot(context.Background(), "0xmissing")
	assert.ErrorIs(t, err, models.ErrMarketNotFound)
}
