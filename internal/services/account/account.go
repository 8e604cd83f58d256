// Package account resolves Injective addresses into portfolios, default
// subaccounts and open positions.
package account

import (
	"context"
	"encoding/hex"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"market-intel/internal/cache"
	"market-intel/internal/models"
	"market-intel/internal/provider"
)

const (
	addressPrefix    = "inj"
	accountKeyLength = 20

	portfolioTTL = 30 * time.Second
	positionsTTL = 15 * time.Second
)

type Service struct {
	provider provider.Provider
	cache    *cache.Store
	logger   *logrus.Logger
}

func NewService(p provider.Provider, store *cache.Store, logger *logrus.Logger) *Service {
	return &Service{
		provider: p,
		cache:    store,
		logger:   logger,
	}
}

// SubaccountID derives the default (index zero) subaccount id from an inj
// address: the 20-byte account key hex-encoded and zero-padded to 32 bytes.
func SubaccountID(address string) (string, error) {
	hrp, data, ok := decodeBech32(address)
	if !ok || hrp != addressPrefix {
		return "", models.ErrInvalidAddress
	}
	key, ok := convertBits(data, 5, 8, false)
	if !ok || len(key) != accountKeyLength {
		return "", models.ErrInvalidAddress
	}
	return "0x" + hex.EncodeToString(key) + strings.Repeat("0", 24), nil
}

// Portfolio returns the aggregated balances of an address.
func (s *Service) Portfolio(ctx context.Context, address string) (*models.Portfolio, error) {
	if _, err := SubaccountID(address); err != nil {
		return nil, err
	}

	key := "account:portfolio:" + address
	if cached, ok := cache.Typed[*models.Portfolio](s.cache, key); ok {
		return cached, nil
	}

	raw, err := s.provider.FetchPortfolio(ctx, address)
	if err != nil {
		return nil, err
	}

	portfolio := &models.Portfolio{
		Address:        address,
		BankBalances:   make([]models.BankBalance, 0, len(raw.BankBalances)),
		Subaccounts:    make([]models.SubaccountBalance, 0, len(raw.Subaccounts)),
		PositionsCount: raw.PositionsCount,
	}
	for _, b := range raw.BankBalances {
		portfolio.BankBalances = append(portfolio.BankBalances, models.BankBalance{
			Denom:  b.Denom,
			Amount: b.Amount,
		})
	}
	for _, sub := range raw.Subaccounts {
		portfolio.Subaccounts = append(portfolio.Subaccounts, models.SubaccountBalance{
			SubaccountID: sub.SubaccountID,
			Denom:        sub.Denom,
			Deposit: models.SubaccountDeposit{
				TotalBalance:     sub.TotalBalance,
				AvailableBalance: sub.AvailableBalance,
			},
		})
	}

	s.cache.Set(key, portfolio, portfolioTTL)
	return portfolio, nil
}

// Positions returns the open derivative positions of an address's default
// subaccount.
func (s *Service) Positions(ctx context.Context, address string) (*models.PositionsPage, error) {
	subaccountID, err := SubaccountID(address)
	if err != nil {
		return nil, err
	}

	key := "account:positions:" + address
	if cached, ok := cache.Typed[*models.PositionsPage](s.cache, key); ok {
		return cached, nil
	}

	raw, err := s.provider.FetchPositions(ctx, subaccountID)
	if err != nil {
		return nil, err
	}

	page := &models.PositionsPage{
		Address:   address,
		Positions: make([]models.Position, 0, len(raw)),
		Total:     len(raw),
	}
	for _, p := range raw {
		page.Positions = append(page.Positions, models.Position{
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

	s.cache.Set(key, page, positionsTTL)
	return page, nil
}
