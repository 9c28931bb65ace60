package odds

import (
	"math"
	"strconv"
	"strings"

	"github.com/charleschow/match-features/internal/core/match"
)

// Neutral is substituted for odds the feed could not express as a number.
const Neutral = 1.0

// RemoveVig3 converts three-way decimal odds to fair probabilities.
func RemoveVig3(a, b, c float64) (float64, float64, float64) {
	rawA := 1.0 / a
	rawB := 1.0 / b
	rawC := 1.0 / c
	total := rawA + rawB + rawC
	return rawA / total, rawB / total, rawC / total
}

// Fair returns vig-free 1X2 probabilities. ok is false when any price is
// neutral or invalid, in which case no market view exists.
func Fair(o match.Odds) (h, d, a float64, ok bool) {
	if !quoted(o.Home) || !quoted(o.Draw) || !quoted(o.Away) {
		return 0, 0, 0, false
	}
	h, d, a = RemoveVig3(o.Home, o.Draw, o.Away)
	return h, d, a, true
}

// quoted reports whether price is a finite, non-neutral decimal price.
func quoted(price float64) bool {
	return price > Neutral && !math.IsInf(price, 1)
}

// Overround is the bookmaker margin implied by a 1X2 line (0.05 = 5%).
func Overround(o match.Odds) float64 {
	if o.Home <= 0 || o.Draw <= 0 || o.Away <= 0 {
		return 0
	}
	return 1/o.Home + 1/o.Draw + 1/o.Away - 1
}

// ParseDecimal reads a decimal price from a feed cell. Comma decimals are
// accepted; anything unparseable or non-positive yields Neutral.
func ParseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(strings.Replace(s, ",", ".", 1))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return Neutral, false
	}
	return v, true
}

// ExpectedValue is the return per unit staked at price for a win probability p.
func ExpectedValue(p, price float64) float64 {
	return p*price - 1
}

// MarketWisdom is the raw implied probability of a single price. A zero
// price is read as 3.0; a missing price gives def.
func MarketWisdom(price float64, present bool, def float64) float64 {
	if !present {
		return def
	}
	if price == 0 {
		price = 3.0
	}
	return 1 / price
}
