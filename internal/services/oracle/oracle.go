// Package oracle serves the cached oracle price list.
package oracle

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"market-intel/internal/cache"
	"market-intel/internal/config"
	"market-intel/internal/models"
	"market-intel/internal/provider"
)

const keyPrices = "oracle:prices"

type Service struct {
	provider provider.Provider
	cache    *cache.Store
	ttls     config.CacheConfig
	logger   *logrus.Logger
}

func NewService(p provider.Provider, store *cache.Store, ttls config.CacheConfig, logger *logrus.Logger) *Service {
	return &Service{
		provider: p,
		cache:    store,
		ttls:     ttls,
		logger:   logger,
	}
}

// Prices returns every oracle price feed, served from cache when live.
func (s *Service) Prices(ctx context.Context) ([]models.OraclePrice, error) {
	if cached, ok := cache.Typed[[]models.OraclePrice](s.cache, keyPrices); ok {
		return cached, nil
	}

	raw, err := s.provider.FetchOraclePrices(ctx)
	if err != nil {
		return nil, err
	}

	prices := make([]models.OraclePrice, 0, len(raw))
	for _, r := range raw {
		symbol := r.Symbol
		if symbol == "" {
			symbol = r.BaseSymbol + "/" + r.QuoteSymbol
		}
		price := r.Price
		if price == "" {
			price = "0"
		}
		prices = append(prices, models.OraclePrice{
			Symbol:      symbol,
			BaseSymbol:  r.BaseSymbol,
			QuoteSymbol: r.QuoteSymbol,
			OracleType:  r.OracleType,
			Price:       price,
		})
	}

	s.cache.Set(keyPrices, prices, s.ttls.OracleTTL)
	s.logger.WithField("count", len(prices)).Debug("Refreshed oracle prices")
	return prices, nil
}

// BySymbol filters the price list to feeds matching symbol,
// case-insensitively against both the feed symbol and the base symbol.
func (s *Service) BySymbol(ctx context.Context, symbol string) ([]models.OraclePrice, error) {
	prices, err := s.Prices(ctx)
	if err != nil {
		return nil, err
	}

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return prices, nil
	}

	matches := make([]models.OraclePrice, 0)
	for _, p := range prices {
		if strings.ToUpper(p.Symbol) == symbol || strings.ToUpper(p.BaseSymbol) == symbol {
			matches = append(matches, p)
		}
	}
	return matches, nil
}
