package injective

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-intel/internal/models"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewClient(server.URL, 5*time.Second, logger), server
}

func TestFetchSpotMarkets(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/exchange/spot/v1/markets", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"markets": [{
				"marketId": "0xspot1",
				"ticker": "INJ/USDT",
				"baseDenom": "inj",
				"quoteDenom": "peggy0xusdt",
				"baseTokenMeta": {"name": "Injective", "symbol": "INJ", "decimals": 18},
				"quoteTokenMeta": {"name": "Tether", "symbol": "USDT", "decimals": 6},
				"makerFeeRate": "-0.0001",
				"takerFeeRate": "0.001",
				"minPriceTickSize": 1e-15,
				"minQuantityTickSize": "1000000000000000"
			}]
		}`))
	}))
	defer server.Close()

	markets, err := client.FetchSpotMarkets(context.Background())
	require.NoError(t, err)
	require.Len(t, markets, 1)
	assert.Equal(t, "0xspot1", markets[0].MarketID)
	assert.Equal(t, "inj", markets[0].BaseDenom)
	require.NotNil(t, markets[0].BaseToken)
	assert.Equal(t, 18, markets[0].BaseToken.Decimals)
	// Numeric tick sizes survive as strings.
	assert.Equal(t, "1e-15", markets[0].MinPriceTickSize)
	assert.Equal(t, "1000000000000000", markets[0].MinQuantityTickSize)
}

func TestFetchDerivativeMarketsUsesOracleBase(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/exchange/derivative/v1/markets", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"markets": [{
				"marketId": "0xperp1",
				"ticker": "INJ/USDT PERP",
				"oracleBase": "INJ",
				"quoteDenom": "peggy0xusdt"
			}]
		}`))
	}))
	defer server.Close()

	markets, err := client.FetchDerivativeMarkets(context.Background())
	require.NoError(t, err)
	require.Len(t, markets, 1)
	assert.Equal(t, "INJ", markets[0].BaseDenom)
}

func TestFetchOrderbookRoutesByMarketType(t *testing.T) {
	var gotPath string
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{
			"orderbook": {
				"buys": [{"price": "100", "quantity": "3", "timestamp": 1700000000000}],
				"sells": []
			}
		}`))
	}))
	defer server.Close()
	ctx := context.Background()

	book, err := client.FetchOrderbook(ctx, models.MarketTypeDerivative, "0xperp1")
	require.NoError(t, err)
	assert.Equal(t, "/api/exchange/derivative/v2/orderbook/0xperp1", gotPath)
	require.Len(t, book.Buys, 1)
	assert.Equal(t, "100", book.Buys[0].Price)
	assert.Empty(t, book.Sells)

	_, err = client.FetchOrderbook(ctx, models.MarketTypeSpot, "0xspot1")
	require.NoError(t, err)
	assert.Equal(t, "/api/exchange/spot/v2/orderbook/0xspot1", gotPath)
}

func TestFetchTradesPassesPaging(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0xspot1", r.URL.Query().Get("marketId"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "10", r.URL.Query().Get("skip"))
		_, _ = w.Write([]byte(`{
			"trades": [{"tradeId": "t1", "price": "100", "quantity": "2", "tradeDirection": "buy"}],
			"paging": {"total": "42"}
		}`))
	}))
	defer server.Close()

	page, err := client.FetchTrades(context.Background(), models.MarketTypeSpot, "0xspot1", 5, 10)
	require.NoError(t, err)
	assert.Equal(t, 42, page.Total)
	require.Len(t, page.Trades, 1)
	assert.Equal(t, "t1", page.Trades[0].TradeID)
}

func TestErrorStatusBecomesUpstreamError(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := client.FetchSpotMarkets(context.Background())
	require.Error(t, err)

	var upstream *models.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, "SPOT_MARKETS_FETCH", upstream.Code)
}

func TestMalformedJSONBecomesUpstreamError(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	_, err := client.FetchOraclePrices(context.Background())
	var upstream *models.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, "ORACLE_FETCH", upstream.Code)
}
