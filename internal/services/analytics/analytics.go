// Package analytics derives market quality figures from orderbook and trade
// data: spread, depth, volatility, funding history and the composite health
// score.
package analytics

import (
	"context"
	"errors"
	"math"
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"market-intel/internal/cache"
	"market-intel/internal/config"
	"market-intel/internal/decimals"
	"market-intel/internal/models"
	"market-intel/internal/provider"
	"market-intel/internal/services/markets"
	"market-intel/internal/services/orderbook"
	"market-intel/internal/services/trades"
)

// depthBands are the percentage bands around mid that depth is summed over.
var depthBands = []int{1, 2, 5, 10}

const (
	volatilityTradeWindow = 100
	fundingRateLimit      = 50
	volatilityMethod      = "log_return_stddev"
)

type Service struct {
	provider  provider.Provider
	catalog   *markets.Catalog
	orderbook *orderbook.Service
	trades    *trades.Service
	cache     *cache.Store
	ttls      config.CacheConfig
	logger    *logrus.Logger
}

func NewService(
	p provider.Provider,
	catalog *markets.Catalog,
	orderbookSvc *orderbook.Service,
	tradesSvc *trades.Service,
	store *cache.Store,
	ttls config.CacheConfig,
	logger *logrus.Logger,
) *Service {
	return &Service{
		provider:  p,
		catalog:   catalog,
		orderbook: orderbookSvc,
		trades:    tradesSvc,
		cache:     store,
		ttls:      ttls,
		logger:    logger,
	}
}

// Spread reports best bid/ask and the derived spread and mid price. All
// derived fields stay nil unless both book sides carry positive prices.
func (s *Service) Spread(ctx context.Context, marketID string) (*models.SpreadAnalysis, error) {
	key := "analytics:spread:" + marketID
	if cached, ok := cache.Typed[*models.SpreadAnalysis](s.cache, key); ok {
		return cached, nil
	}

	snap, err := s.orderbook.Get(ctx, marketID)
	if err != nil {
		return nil, err
	}

	analysis := &models.SpreadAnalysis{
		MarketID: marketID,
		BestBid:  snap.BestBid,
		BestAsk:  snap.BestAsk,
	}
	if snap.BestBid != nil && snap.BestAsk != nil {
		bid := decimals.SafeParseFloat(*snap.BestBid)
		ask := decimals.SafeParseFloat(*snap.BestAsk)
		if bid > 0 && ask > 0 {
			spread := ask - bid
			mid := (bid + ask) / 2
			abs := strconv.FormatFloat(spread, 'g', -1, 64)
			pct := strconv.FormatFloat(spread/mid*100, 'f', 4, 64)
			midStr := strconv.FormatFloat(mid, 'g', -1, 64)
			analysis.AbsoluteSpread = &abs
			analysis.SpreadPercentage = &pct
			analysis.MidPrice = &midStr
		}
	}

	s.cache.Set(key, analysis, s.ttls.AnalyticsTTL)
	return analysis, nil
}

// Depth sums the notional liquidity resting within 1/2/5/10 percent of the
// mid price, per side. A one-sided book or a non-positive mid yields
// models.ErrNoLiquidity.
func (s *Service) Depth(ctx context.Context, marketID string) (*models.DepthAnalysis, error) {
	key := "analytics:depth:" + marketID
	if cached, ok := cache.Typed[*models.DepthAnalysis](s.cache, key); ok {
		return cached, nil
	}

	snap, err := s.orderbook.Get(ctx, marketID)
	if err != nil {
		return nil, err
	}

	bands, err := depthFromSnapshot(snap)
	if err != nil {
		return nil, err
	}

	analysis := &models.DepthAnalysis{MarketID: marketID, Bands: bands}
	s.cache.Set(key, analysis, s.ttls.AnalyticsTTL)
	return analysis, nil
}

// Volatility computes the population standard deviation of log returns over
// the most recent trades. Any failure along the way degrades to a zero
// figure with nil metadata rather than an error; volatility is advisory.
func (s *Service) Volatility(ctx context.Context, marketID string) (*models.VolatilityStats, error) {
	key := "analytics:volatility:" + marketID
	if cached, ok := cache.Typed[*models.VolatilityStats](s.cache, key); ok {
		return cached, nil
	}

	stats := &models.VolatilityStats{MarketID: marketID, Volatility: "0"}

	page, err := s.trades.List(ctx, marketID, volatilityTradeWindow, 0)
	if err != nil {
		s.logger.WithError(err).WithField("market_id", marketID).Debug("Volatility degraded to zero")
		s.cache.Set(key, stats, s.ttls.AnalyticsTTL)
		return stats, nil
	}

	// Pages arrive newest-first; returns need chronological order.
	prices := make([]float64, 0, len(page.Trades))
	for i := len(page.Trades) - 1; i >= 0; i-- {
		if p := decimals.SafeParseFloat(page.Trades[i].HumanPrice); p > 0 {
			prices = append(prices, p)
		}
	}

	if vol, ok := logReturnStddev(prices); ok {
		stats.Volatility = strconv.FormatFloat(vol, 'f', 8, 64)
		stats.Metadata = &models.VolatilityMeta{
			TradeCount: len(page.Trades),
			Method:     volatilityMethod,
		}
	}

	s.cache.Set(key, stats, s.ttls.AnalyticsTTL)
	return stats, nil
}

// Health blends spread, depth and activity sub-scores into a 0-100
// composite. Sub-inputs are fetched concurrently.
func (s *Service) Health(ctx context.Context, marketID string) (*models.MarketHealth, error) {
	key := "analytics:health:" + marketID
	if cached, ok := cache.Typed[*models.MarketHealth](s.cache, key); ok {
		return cached, nil
	}

	market, err := s.catalog.ByID(ctx, marketID)
	if err != nil {
		return nil, err
	}

	var (
		snap  *models.OrderbookSnapshot
		depth *models.DepthAnalysis
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap, err = s.orderbook.Get(gctx, marketID)
		return err
	})
	g.Go(func() error {
		d, err := s.Depth(gctx, marketID)
		if err != nil {
			// An illiquid book scores zero depth; it is not a failure.
			if errors.Is(err, models.ErrNoLiquidity) {
				return nil
			}
			return err
		}
		depth = d
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var spreadPct *float64
	if snap.SpreadPercentage != nil {
		pct := decimals.SafeParseFloat(*snap.SpreadPercentage)
		spreadPct = &pct
	}

	depthScore := 0
	if depth != nil && len(depth.Bands) > 1 {
		depthScore = scoreDepth(decimals.SafeParseFloat(depth.Bands[1].TotalDepth))
	}

	components := models.HealthComponents{
		SpreadScore:   scoreSpread(spreadPct),
		DepthScore:    depthScore,
		ActivityScore: scoreActivity(len(snap.Buys) + len(snap.Sells)),
	}
	score := int(math.Round(
		spreadWeight*float64(components.SpreadScore) +
			depthWeight*float64(components.DepthScore) +
			activityWeight*float64(components.ActivityScore),
	))

	health := &models.MarketHealth{
		MarketID:   marketID,
		Ticker:     market.Ticker,
		Score:      score,
		Components: components,
		Rating:     healthRating(score),
	}
	s.cache.Set(key, health, s.ttls.AnalyticsTTL)
	return health, nil
}

// Funding returns recent funding rates for a derivative market. Spot markets
// yield models.ErrNotDerivative. An upstream failure degrades to an empty
// history; funding is advisory the same way volatility is.
func (s *Service) Funding(ctx context.Context, marketID string) (*models.FundingHistory, error) {
	key := "analytics:funding:" + marketID
	if cached, ok := cache.Typed[*models.FundingHistory](s.cache, key); ok {
		return cached, nil
	}

	market, err := s.catalog.ByID(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if market.Type != models.MarketTypeDerivative {
		return nil, models.ErrNotDerivative
	}

	history := &models.FundingHistory{MarketID: marketID, Rates: []models.FundingRate{}}
	raw, err := s.provider.FetchFundingRates(ctx, marketID, fundingRateLimit)
	if err != nil {
		// Degrade to an empty history, uncached so the next caller retries.
		s.logger.WithError(err).WithField("market_id", marketID).Warn("Funding rate fetch failed")
		return history, nil
	}
	for _, r := range raw {
		history.Rates = append(history.Rates, models.FundingRate{Rate: r.Rate, Timestamp: r.Timestamp})
	}

	s.cache.Set(key, history, s.ttls.AnalyticsTTL)
	return history, nil
}

// depthFromSnapshot renders the per-band depth rows for a two-sided book.
func depthFromSnapshot(snap *models.OrderbookSnapshot) ([]models.DepthBand, error) {
	mid, ok := midPrice(snap)
	if !ok {
		return nil, models.ErrNoLiquidity
	}

	bands := make([]models.DepthBand, 0, len(depthBands))
	for _, pct := range depthBands {
		low := mid * (1 - float64(pct)/100)
		high := mid * (1 + float64(pct)/100)

		var bidDepth, askDepth float64
		for _, l := range snap.Buys {
			price := decimals.SafeParseFloat(l.HumanPrice)
			if price >= low {
				bidDepth += price * decimals.SafeParseFloat(l.HumanQuantity)
			}
		}
		for _, l := range snap.Sells {
			price := decimals.SafeParseFloat(l.HumanPrice)
			if price > 0 && price <= high {
				askDepth += price * decimals.SafeParseFloat(l.HumanQuantity)
			}
		}

		bands = append(bands, models.DepthBand{
			Percentage: pct,
			BidDepth:   strconv.FormatFloat(bidDepth, 'f', 4, 64),
			AskDepth:   strconv.FormatFloat(askDepth, 'f', 4, 64),
			TotalDepth: strconv.FormatFloat(bidDepth+askDepth, 'f', 4, 64),
		})
	}
	return bands, nil
}

// midPrice derives the human-unit mid from the best level on each side.
func midPrice(snap *models.OrderbookSnapshot) (float64, bool) {
	if len(snap.Buys) == 0 || len(snap.Sells) == 0 {
		return 0, false
	}
	bid := decimals.SafeParseFloat(snap.Buys[0].HumanPrice)
	ask := decimals.SafeParseFloat(snap.Sells[0].HumanPrice)
	if bid <= 0 || ask <= 0 {
		return 0, false
	}
	return (bid + ask) / 2, true
}

// logReturnStddev is the population standard deviation of consecutive log
// returns. It needs at least two positive prices.
func logReturnStddev(prices []float64) (float64, bool) {
	if len(prices) < 2 {
		return 0, false
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		returns = append(returns, math.Log(prices[i]/prices[i-1]))
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))

	return math.Sqrt(variance), true
}
