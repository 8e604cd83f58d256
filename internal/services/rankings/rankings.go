// Package rankings orchestrates the cross-market views: health rankings,
// side-by-side comparisons, whale trade detection and single-market
// snapshots.
package rankings

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"market-intel/internal/cache"
	"market-intel/internal/config"
	"market-intel/internal/decimals"
	"market-intel/internal/models"
	"market-intel/internal/services/analytics"
	"market-intel/internal/services/markets"
	"market-intel/internal/services/orderbook"
	"market-intel/internal/services/trades"
)

const (
	// DefaultLimit is the ranking size when the caller passes none.
	DefaultLimit = 20
	// MaxLimit caps the ranking size.
	MaxLimit = 100
	// MaxCompareMarkets bounds a side-by-side comparison.
	MaxCompareMarkets = 5

	// rankingBatchSize is how many candidates are analyzed concurrently
	// before the next batch starts.
	rankingBatchSize = 10

	whaleTradeWindow     = 100
	snapshotTopLevels    = 5
	snapshotRecentTrades = 5
)

type Service struct {
	catalog   *markets.Catalog
	orderbook *orderbook.Service
	trades    *trades.Service
	analytics *analytics.Service
	cache     *cache.Store
	ttls      config.CacheConfig
	logger    *logrus.Logger
}

func NewService(
	catalog *markets.Catalog,
	orderbookSvc *orderbook.Service,
	tradesSvc *trades.Service,
	analyticsSvc *analytics.Service,
	store *cache.Store,
	ttls config.CacheConfig,
	logger *logrus.Logger,
) *Service {
	return &Service{
		catalog:   catalog,
		orderbook: orderbookSvc,
		trades:    tradesSvc,
		analytics: analyticsSvc,
		cache:     store,
		ttls:      ttls,
		logger:    logger,
	}
}

// Ranking sort keys.
const (
	SortHealth = "health"
	SortSpread = "spread"
	SortDepth  = "depth"
)

// Rankings scores up to 2x limit candidate markets and returns the best
// limit of them under the chosen sort key: health score descending, spread
// percentage ascending with spreadless markets last, or orderbook entries
// descending. Unrecognized sort keys fall back to health. Candidates whose
// analysis fails are dropped rather than failing the whole ranking. Limit is
// clamped to [1, MaxLimit]; non-positive means DefaultLimit. typeFilter
// narrows the candidate pool to one market family; empty means both.
func (s *Service) Rankings(ctx context.Context, sortBy string, limit int, typeFilter models.MarketType) ([]models.MarketRanking, error) {
	if sortBy != SortSpread && sortBy != SortDepth {
		sortBy = SortHealth
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	filterLabel := "all"
	if typeFilter != "" {
		filterLabel = string(typeFilter)
	}

	key := fmt.Sprintf("rankings:%s:%d:%s", sortBy, limit, filterLabel)
	if cached, ok := cache.Typed[[]models.MarketRanking](s.cache, key); ok {
		return cached, nil
	}

	all, err := s.catalog.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.Market, 0, len(all))
	for _, m := range all {
		if typeFilter == "" || m.Type == typeFilter {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) > 2*limit {
		candidates = candidates[:2*limit]
	}

	results := make([]*models.MarketRanking, len(candidates))
	for start := 0; start < len(candidates); start += rankingBatchSize {
		end := start + rankingBatchSize
		if end > len(candidates) {
			end = len(candidates)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				ranking, err := s.rankOne(gctx, &candidates[i])
				if err != nil {
					s.logger.WithError(err).WithField("market_id", candidates[i].MarketID).Debug("Dropped market from ranking")
					return nil
				}
				results[i] = ranking
				return nil
			})
		}
		// Members never report errors, so Wait only orders the batches.
		_ = g.Wait()
	}

	rankings := make([]models.MarketRanking, 0, len(results))
	for _, r := range results {
		if r != nil {
			rankings = append(rankings, *r)
		}
	}

	sortRankings(rankings, sortBy)
	if len(rankings) > limit {
		rankings = rankings[:limit]
	}

	s.cache.Set(key, rankings, s.ttls.SummaryTTL)
	return rankings, nil
}

func (s *Service) rankOne(ctx context.Context, market *models.Market) (*models.MarketRanking, error) {
	health, err := s.analytics.Health(ctx, market.MarketID)
	if err != nil {
		return nil, err
	}
	snap, err := s.orderbook.Get(ctx, market.MarketID)
	if err != nil {
		return nil, err
	}

	return &models.MarketRanking{
		MarketID:         market.MarketID,
		Ticker:           market.Ticker,
		Type:             market.Type,
		HealthScore:      health.Score,
		Rating:           string(health.Rating),
		SpreadPercentage: snap.SpreadPercentage,
		OrderbookEntries: len(snap.Buys) + len(snap.Sells),
	}, nil
}

func sortRankings(rankings []models.MarketRanking, sortBy string) {
	switch sortBy {
	case SortSpread:
		// Absent spreads sort to the end.
		sort.SliceStable(rankings, func(i, j int) bool {
			return spreadSortValue(rankings[i]) < spreadSortValue(rankings[j])
		})
	case SortDepth:
		sort.SliceStable(rankings, func(i, j int) bool {
			return rankings[i].OrderbookEntries > rankings[j].OrderbookEntries
		})
	default:
		sort.SliceStable(rankings, func(i, j int) bool {
			return rankings[i].HealthScore > rankings[j].HealthScore
		})
	}
}

func spreadSortValue(r models.MarketRanking) float64 {
	if r.SpreadPercentage == nil {
		return math.Inf(1)
	}
	return decimals.SafeParseFloat(*r.SpreadPercentage)
}

// Compare builds a side-by-side view of 1 to MaxCompareMarkets markets.
// Unknown ids degrade to placeholder entries and individual analytics
// failures leave that cell nil, so one bad market never sinks the rest.
func (s *Service) Compare(ctx context.Context, marketIDs []string) (*models.MarketComparison, error) {
	if len(marketIDs) == 0 {
		return nil, models.ErrNoMarketIDs
	}
	if len(marketIDs) > MaxCompareMarkets {
		return nil, models.ErrTooManyMarkets
	}

	sortedIDs := append([]string(nil), marketIDs...)
	sort.Strings(sortedIDs)
	key := "compare:" + strings.Join(sortedIDs, ",")
	if cached, ok := cache.Typed[*models.MarketComparison](s.cache, key); ok {
		return cached, nil
	}

	entries := make([]models.ComparisonEntry, len(marketIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range marketIDs {
		i, id := i, id
		g.Go(func() error {
			entries[i] = s.compareOne(gctx, id)
			return nil
		})
	}
	_ = g.Wait()

	comparison := &models.MarketComparison{Markets: entries}
	s.cache.Set(key, comparison, s.ttls.AnalyticsTTL)
	return comparison, nil
}

func (s *Service) compareOne(ctx context.Context, marketID string) models.ComparisonEntry {
	entry := models.ComparisonEntry{
		MarketID: marketID,
		Ticker:   "unknown",
		Type:     "unknown",
	}

	market, err := s.catalog.ByID(ctx, marketID)
	if err != nil {
		return entry
	}
	entry.Ticker = market.Ticker
	entry.Type = string(market.Type)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if spread, err := s.analytics.Spread(gctx, marketID); err == nil {
			entry.Spread = spread
		}
		return nil
	})
	g.Go(func() error {
		if depth, err := s.analytics.Depth(gctx, marketID); err == nil {
			entry.Depth = depth
		}
		return nil
	})
	g.Go(func() error {
		if health, err := s.analytics.Health(gctx, marketID); err == nil {
			entry.Health = health
		}
		return nil
	})
	g.Go(func() error {
		if vol, err := s.analytics.Volatility(gctx, marketID); err == nil {
			entry.Volatility = vol
		}
		return nil
	})
	_ = g.Wait()

	return entry
}

// Whales filters recent trades down to those whose notional value clears
// threshold. A non-positive threshold auto-calibrates to roughly the top
// decile of the window's notionals. Unknown markets yield an empty slice.
func (s *Service) Whales(ctx context.Context, marketID string, threshold float64) ([]models.WhaleTrade, error) {
	thresholdLabel := "auto"
	if threshold > 0 {
		thresholdLabel = strconv.FormatFloat(threshold, 'f', -1, 64)
	}
	key := fmt.Sprintf("whales:%s:%s", marketID, thresholdLabel)
	if cached, ok := cache.Typed[[]models.WhaleTrade](s.cache, key); ok {
		return cached, nil
	}

	page, err := s.trades.List(ctx, marketID, whaleTradeWindow, 0)
	if err != nil {
		if errors.Is(err, models.ErrMarketNotFound) {
			return []models.WhaleTrade{}, nil
		}
		return nil, err
	}

	valuedTrades := make([]valuedTrade, 0, len(page.Trades))
	for _, t := range page.Trades {
		notional := decimals.SafeParseFloat(t.HumanPrice) * decimals.SafeParseFloat(t.HumanQuantity)
		if notional > 0 {
			valuedTrades = append(valuedTrades, valuedTrade{trade: t, notional: notional})
		}
	}
	if len(valuedTrades) == 0 {
		return []models.WhaleTrade{}, nil
	}

	if threshold <= 0 {
		threshold = autoThreshold(valuedTrades)
	}

	whales := make([]models.WhaleTrade, 0)
	for _, v := range valuedTrades {
		if v.notional >= threshold {
			whales = append(whales, models.WhaleTrade{
				TradeID:           v.trade.TradeID,
				MarketID:          v.trade.MarketID,
				Direction:         v.trade.Direction,
				ExecutionPrice:    v.trade.ExecutionPrice,
				ExecutionQuantity: v.trade.ExecutionQuantity,
				HumanPrice:        v.trade.HumanPrice,
				HumanQuantity:     v.trade.HumanQuantity,
				NotionalValue:     strconv.FormatFloat(v.notional, 'f', 4, 64),
				ExecutedAt:        v.trade.ExecutedAt,
			})
		}
	}

	sort.SliceStable(whales, func(i, j int) bool {
		return decimals.SafeParseFloat(whales[i].NotionalValue) > decimals.SafeParseFloat(whales[j].NotionalValue)
	})

	s.cache.Set(key, whales, s.ttls.TradesTTL)
	return whales, nil
}

type valuedTrade struct {
	trade    models.Trade
	notional float64
}

// autoThreshold picks the notional at the top-decile rank boundary of the
// window, so roughly the top 10% of trades qualify and at least one always
// does. Applied as a >= filter, duplicates at the boundary stay in.
func autoThreshold(valuedTrades []valuedTrade) float64 {
	notionals := make([]float64, len(valuedTrades))
	for i, v := range valuedTrades {
		notionals[i] = v.notional
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(notionals)))

	rank := int(math.Floor(float64(len(notionals)) * 0.1))
	if rank < 1 {
		rank = 1
	}
	return notionals[rank-1]
}

// Snapshot assembles the all-in-one view of a market. The market itself must
// exist; analytics that cannot be computed are left nil.
func (s *Service) Snapshot(ctx context.Context, marketID string) (*models.MarketSnapshot, error) {
	key := "snapshot:" + marketID
	if cached, ok := cache.Typed[*models.MarketSnapshot](s.cache, key); ok {
		return cached, nil
	}

	market, err := s.catalog.ByID(ctx, marketID)
	if err != nil {
		return nil, err
	}

	snapshot := &models.MarketSnapshot{
		Market:       *market,
		RecentTrades: []models.RecentTrade{},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		book, err := s.orderbook.Get(gctx, marketID)
		if err != nil {
			return err
		}
		snapshot.Orderbook = summarizeBook(book)
		return nil
	})
	g.Go(func() error {
		page, err := s.trades.List(gctx, marketID, snapshotRecentTrades, 0)
		if err != nil {
			return err
		}
		for _, t := range page.Trades {
			snapshot.RecentTrades = append(snapshot.RecentTrades, models.RecentTrade{
				HumanPrice:    t.HumanPrice,
				HumanQuantity: t.HumanQuantity,
				Direction:     t.Direction,
				ExecutedAt:    t.ExecutedAt,
			})
		}
		return nil
	})
	g.Go(func() error {
		if health, err := s.analytics.Health(gctx, marketID); err == nil {
			snapshot.Health = health
		}
		return nil
	})
	g.Go(func() error {
		if spread, err := s.analytics.Spread(gctx, marketID); err == nil {
			snapshot.Spread = spread
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.cache.Set(key, snapshot, s.ttls.AnalyticsTTL)
	return snapshot, nil
}

func summarizeBook(book *models.OrderbookSnapshot) *models.OrderbookSummary {
	summary := &models.OrderbookSummary{
		BestBid:          book.BestBid,
		BestAsk:          book.BestAsk,
		SpreadPercentage: book.SpreadPercentage,
		BuyLevels:        len(book.Buys),
		SellLevels:       len(book.Sells),
		TopBuys:          topLevels(book.Buys),
		TopSells:         topLevels(book.Sells),
	}
	return summary
}

func topLevels(levels []models.OrderbookLevel) []models.PriceLevelView {
	n := len(levels)
	if n > snapshotTopLevels {
		n = snapshotTopLevels
	}
	out := make([]models.PriceLevelView, 0, n)
	for _, l := range levels[:n] {
		out = append(out, models.PriceLevelView{
			HumanPrice:    l.HumanPrice,
			HumanQuantity: l.HumanQuantity,
		})
	}
	return out
}
