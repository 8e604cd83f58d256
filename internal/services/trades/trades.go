// Package trades serves cached trade history pages with human-readable
// prices and quantities.
package trades

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"market-intel/internal/cache"
	"market-intel/internal/config"
	"market-intel/internal/decimals"
	"market-intel/internal/models"
	"market-intel/internal/provider"
	"market-intel/internal/services/markets"
)

const DefaultLimit = 20

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

// List returns one page of trade history, newest first. A non-positive limit
// falls back to DefaultLimit; negative skip is treated as zero. Each
// limit/skip combination caches separately.
func (s *Service) List(ctx context.Context, marketID string, limit, skip int) (*models.TradePage, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if skip < 0 {
		skip = 0
	}

	key := fmt.Sprintf("trades:%s:%d:%d", marketID, limit, skip)
	if cached, ok := cache.Typed[*models.TradePage](s.cache, key); ok {
		return cached, nil
	}

	market, err := s.catalog.ByID(ctx, marketID)
	if err != nil {
		return nil, err
	}

	raw, err := s.provider.FetchTrades(ctx, market.Type, marketID, limit, skip)
	if err != nil {
		return nil, err
	}

	page := &models.TradePage{
		MarketID: marketID,
		Trades:   convertTrades(raw.Trades, market),
		Total:    raw.Total,
	}
	s.cache.Set(key, page, s.ttls.TradesTTL)
	return page, nil
}

func convertTrades(raw []provider.RawTrade, market *models.Market) []models.Trade {
	base, quote := markets.Decimals(market)

	out := make([]models.Trade, 0, len(raw))
	for _, t := range raw {
		trade := models.Trade{
			OrderHash:         t.OrderHash,
			TradeID:           t.TradeID,
			SubaccountID:      t.SubaccountID,
			MarketID:          t.MarketID,
			ExecutedAt:        t.ExecutedAt,
			Direction:         t.TradeDirection,
			ExecutionType:     t.TradeExecutionType,
			ExecutionSide:     t.ExecutionSide,
			ExecutionPrice:    t.Price,
			ExecutionQuantity: t.Quantity,
			Fee:               t.Fee,
			FeeRecipient:      t.FeeRecipient,
		}
		if market.Type == models.MarketTypeSpot {
			trade.HumanPrice = decimals.SpotPrice(t.Price, base, quote)
			trade.HumanQuantity = decimals.SpotQuantity(t.Quantity, base)
		} else {
			trade.HumanPrice = decimals.DerivativePrice(t.Price)
			trade.HumanQuantity = decimals.DerivativeQuantity(t.Quantity)
		}
		out = append(out, trade)
	}
	return out
}
