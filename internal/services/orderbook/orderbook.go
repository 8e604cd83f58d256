// Package orderbook serves cached orderbook snapshots with human-readable
// price levels and derived spread figures.
package orderbook

import (
	"context"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"market-intel/internal/cache"
	"market-intel/internal/config"
	"market-intel/internal/decimals"
	"market-intel/internal/models"
	"market-intel/internal/provider"
	"market-intel/internal/services/markets"
)

const keyPrefix = "orderbook:"

type Service struct {
	provider provider.Provider
	catalog  *markets.Catalog
	cache    *cache.Store
	ttls     config.CacheConfig
	logger   *logrus.Logger
}

func NewService(p provider.Provider, catalog *markets.Catalog, store *cache.Store, ttls config.CacheConfig, logger *logrus.Logger) *Service {
	return &Service{
		provider: p,
		catalog:  catalog,
		cache:    store,
		ttls:     ttls,
		logger:   logger,
	}
}

// Get returns the current orderbook snapshot for a market. The market must
// exist in the catalog; unknown ids return models.ErrMarketNotFound.
func (s *Service) Get(ctx context.Context, marketID string) (*models.OrderbookSnapshot, error) {
	key := keyPrefix + marketID
	if cached, ok := cache.Typed[*models.OrderbookSnapshot](s.cache, key); ok {
		return cached, nil
	}

	market, err := s.catalog.ByID(ctx, marketID)
	if err != nil {
		return nil, err
	}

	raw, err := s.provider.FetchOrderbook(ctx, market.Type, marketID)
	if err != nil {
		return nil, err
	}

	snapshot := buildSnapshot(market, raw)
	s.cache.Set(key, snapshot, s.ttls.OrderbookTTL)
	return snapshot, nil
}

func buildSnapshot(market *models.Market, raw *provider.RawOrderbook) *models.OrderbookSnapshot {
	base, quote := markets.Decimals(market)

	snapshot := &models.OrderbookSnapshot{
		MarketID:  market.MarketID,
		Buys:      convertLevels(raw.Buys, market.Type, base, quote),
		Sells:     convertLevels(raw.Sells, market.Type, base, quote),
		UpdatedAt: time.Now().UTC(),
	}

	if len(raw.Buys) > 0 {
		bid := raw.Buys[0].Price
		snapshot.BestBid = &bid
	}
	if len(raw.Sells) > 0 {
		ask := raw.Sells[0].Price
		snapshot.BestAsk = &ask
	}

	// Spread figures need both sides with positive prices.
	if snapshot.BestBid != nil && snapshot.BestAsk != nil {
		bid := decimals.SafeParseFloat(*snapshot.BestBid)
		ask := decimals.SafeParseFloat(*snapshot.BestAsk)
		if bid > 0 && ask > 0 {
			spread := ask - bid
			mid := (bid + ask) / 2
			spreadStr := strconv.FormatFloat(spread, 'g', -1, 64)
			pctStr := strconv.FormatFloat(spread/mid*100, 'f', 4, 64)
			snapshot.Spread = &spreadStr
			snapshot.SpreadPercentage = &pctStr
		}
	}

	return snapshot
}

func convertLevels(levels []provider.RawPriceLevel, marketType models.MarketType, base, quote int) []models.OrderbookLevel {
	out := make([]models.OrderbookLevel, 0, len(levels))
	for _, l := range levels {
		level := models.OrderbookLevel{
			Price:     l.Price,
			Quantity:  l.Quantity,
			Timestamp: l.Timestamp,
		}
		if marketType == models.MarketTypeSpot {
			level.HumanPrice = decimals.SpotPrice(l.Price, base, quote)
			level.HumanQuantity = decimals.SpotQuantity(l.Quantity, base)
		} else {
			level.HumanPrice = decimals.DerivativePrice(l.Price)
			level.HumanQuantity = decimals.DerivativeQuantity(l.Quantity)
		}
		out = append(out, level)
	}
	return out
}
