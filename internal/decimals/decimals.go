// Package decimals normalizes the indexer's fixed-point integer
// representations into human-readable decimal strings.
//
// Spot conversion:
//
//	humanPrice    = rawPrice * 10^(baseDecimals - quoteDecimals)
//	humanQuantity = rawQuantity / 10^baseDecimals
//
// Derivative prices and quantities are already human-scaled by the indexer
// and only need formatting.
package decimals

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// SafeParseFloat parses s as a float, mapping unparsable input and NaN to 0.
func SafeParseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0
	}
	return f
}

// SpotPrice converts a raw spot price using the market's token decimals.
func SpotPrice(raw string, baseDecimals, quoteDecimals int) string {
	d, ok := parse(raw)
	if !ok || d.IsZero() {
		return "0"
	}
	return format(d.Shift(int32(baseDecimals - quoteDecimals)))
}

// SpotQuantity converts a raw spot quantity out of base-token units.
func SpotQuantity(raw string, baseDecimals int) string {
	d, ok := parse(raw)
	if !ok || d.IsZero() {
		return "0"
	}
	return format(d.Shift(int32(-baseDecimals)))
}

// DerivativePrice formats a derivative price, which needs no scaling.
func DerivativePrice(raw string) string {
	d, ok := parse(raw)
	if !ok || d.IsZero() {
		return "0"
	}
	return format(d)
}

// DerivativeQuantity formats a derivative quantity, which needs no scaling.
func DerivativeQuantity(raw string) string {
	return DerivativePrice(raw)
}

func parse(raw string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// format renders a value with magnitude-dependent precision: 10 significant
// digits at or above 1, 8 significant digits down to 1e-5, scientific
// notation with 6 fraction digits below that.
func format(d decimal.Decimal) string {
	f, _ := d.Float64()
	abs := math.Abs(f)
	switch {
	case f == 0:
		return "0"
	case abs >= 1:
		return strconv.FormatFloat(f, 'g', 10, 64)
	case abs >= 1e-5:
		return strconv.FormatFloat(f, 'g', 8, 64)
	default:
		return strconv.FormatFloat(f, 'e', 6, 64)
	}
}
