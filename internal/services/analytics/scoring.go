package analytics

import "market-intel/internal/models"

// Composite health weights: spread quality dominates, depth and activity
// split the remainder.
const (
	spreadWeight   = 0.4
	depthWeight    = 0.3
	activityWeight = 0.3
)

// scoreSpread buckets a spread percentage into 10..100. A nil spread means a
// one-sided or empty book and scores zero.
func scoreSpread(spreadPct *float64) int {
	if spreadPct == nil {
		return 0
	}
	pct := *spreadPct
	switch {
	case pct <= 0.01:
		return 100
	case pct <= 0.05:
		return 90
	case pct <= 0.1:
		return 80
	case pct <= 0.5:
		return 60
	case pct <= 1:
		return 40
	case pct <= 5:
		return 20
	default:
		return 10
	}
}

// scoreDepth buckets the total notional depth within 2 percent of mid.
func scoreDepth(depth float64) int {
	switch {
	case depth > 1_000_000:
		return 100
	case depth > 100_000:
		return 80
	case depth > 10_000:
		return 60
	case depth > 1_000:
		return 40
	case depth > 100:
		return 20
	default:
		return 10
	}
}

// scoreActivity buckets the total number of resting orderbook entries.
func scoreActivity(entries int) int {
	switch {
	case entries > 100:
		return 100
	case entries > 50:
		return 80
	case entries > 20:
		return 60
	case entries > 10:
		return 40
	case entries > 0:
		return 20
	default:
		return 0
	}
}

func healthRating(score int) models.HealthRating {
	switch {
	case score >= 80:
		return models.HealthRatingExcellent
	case score >= 60:
		return models.HealthRatingGood
	case score >= 40:
		return models.HealthRatingFair
	default:
		return models.HealthRatingPoor
	}
}
