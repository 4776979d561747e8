package strategy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"levelbot-go/internal/signal"
)

const (
	// MinLevelCandles is the shortest window the level detector accepts.
	MinLevelCandles = 73
	// recentSkip candles at the end of the window are ignored; the newest one is still forming.
	recentSkip = 6
)

var (
	// ErrInsufficientData means the feed returned fewer candles than a component needs.
	ErrInsufficientData = errors.New("insufficient candle data")
	// ErrNoLevel means no valid support or no valid resistance was found.
	ErrNoLevel = errors.New("no support/resistance level")
)

// LevelParams tunes multi-touch clustering.
type LevelParams struct {
	MinTouches                int
	MinDistanceBetweenTouches int
	TolerancePips             float64
	MinRegionSeparation       int
}

// Levels is a validated support/resistance pair.
type Levels struct {
	Support    float64
	Resistance float64
}

// PriceBin is a tolerance-quantized price and the candle indices whose extreme fell into it.
type PriceBin struct {
	Key     decimal.Decimal
	Indices []int
}

// Price returns the bin key as a float price.
func (b PriceBin) Price() float64 { return b.Key.InexactFloat64() }

// DetectLevels clusters lows and highs of candles into tolerance bins and returns the lowest valid
// support and the highest valid resistance. Both sides must validate or ErrNoLevel is returned.
func DetectLevels(symbol string, candles []signal.Candle, p LevelParams) (Levels, error) {
	if len(candles) < MinLevelCandles {
		return Levels{}, fmt.Errorf("%w: %d candles, need %d", ErrInsufficientData, len(candles), MinLevelCandles)
	}
	tolerance := decimal.NewFromFloat(p.TolerancePips).Mul(decimal.NewFromFloat(PipSize(symbol)))
	if !tolerance.IsPositive() {
		return Levels{}, fmt.Errorf("tolerance must be positive, got %v pips", p.TolerancePips)
	}

	relevant := candles[:len(candles)-recentSkip]
	lows := make([]float64, len(relevant))
	highs := make([]float64, len(relevant))
	for i, c := range relevant {
		lows[i] = c.Low
		highs[i] = c.High
	}

	supports := validPrices(BinPrices(lows, tolerance), p)
	resistances := validPrices(BinPrices(highs, tolerance), p)
	if len(supports) == 0 || len(resistances) == 0 {
		return Levels{}, ErrNoLevel
	}

	levels := Levels{Support: supports[0], Resistance: resistances[0]}
	for _, px := range supports[1:] {
		if px < levels.Support {
			levels.Support = px
		}
	}
	for _, px := range resistances[1:] {
		if px > levels.Resistance {
			levels.Resistance = px
		}
	}
	return levels, nil
}

// BinPrices rounds each price to the nearest multiple of tolerance (half to even) and groups
// the indices per bin. Bins are returned in ascending price order; indices stay ascending.
func BinPrices(prices []float64, tolerance decimal.Decimal) []PriceBin {
	bins := make(map[string]*PriceBin)
	for idx, price := range prices {
		key := decimal.NewFromFloat(price).Div(tolerance).RoundBank(0).Mul(tolerance)
		k := key.String()
		bin, ok := bins[k]
		if !ok {
			bin = &PriceBin{Key: key}
			bins[k] = bin
		}
		bin.Indices = append(bin.Indices, idx)
	}
	out := make([]PriceBin, 0, len(bins))
	for _, bin := range bins {
		out = append(out, *bin)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.LessThan(out[j].Key) })
	return out
}

// TouchGroups splits ascending indices into runs: a gap of at least minDistance starts a new group.
func TouchGroups(indices []int, minDistance int) [][]int {
	if len(indices) == 0 {
		return nil
	}
	groups := [][]int{{indices[0]}}
	for _, idx := range indices[1:] {
		last := groups[len(groups)-1]
		if idx-last[len(last)-1] >= minDistance {
			groups = append(groups, []int{idx})
			continue
		}
		groups[len(groups)-1] = append(last, idx)
	}
	return groups
}

// ValidLevel reports whether a bin has enough touches and at least one pair of touch groups
// separated by MinRegionSeparation candles.
func ValidLevel(indices []int, p LevelParams) bool {
	if len(indices) < p.MinTouches {
		return false
	}
	groups := TouchGroups(indices, p.MinDistanceBetweenTouches)
	for i := 0; i < len(groups); i++ {
		for j := i + 1; j < len(groups); j++ {
			gap := groups[j][0] - groups[i][len(groups[i])-1]
			if gap < 0 {
				gap = -gap
			}
			if gap >= p.MinRegionSeparation {
				return true
			}
		}
	}
	return false
}

func validPrices(bins []PriceBin, p LevelParams) []float64 {
	var out []float64
	for _, bin := range bins {
		if ValidLevel(bin.Indices, p) {
			out = append(out, bin.Price())
		}
	}
	return out
}
