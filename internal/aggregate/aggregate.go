// Package aggregate implements the pluggable price aggregation
// algorithms applied to one asset's venue column.
//
// All algorithms except Backwad filter zero cells before computing;
// Backwad works on the raw column because the master slot position is
// significant. Deviation and ratio thresholds use truncated integer
// percents; the truncation is part of the contract, not an accident.
package aggregate

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Algorithm names accepted by Resolve.
const (
	AlgoAverage  = "average"
	AlgoMedian   = "median"
	AlgoWeighted = "weighted"
	AlgoMax      = "max"
	AlgoBackwad  = "backwad"
)

var (
	// ErrEmptyData reports a column with no non-zero prices.
	ErrEmptyData = errors.New("aggregate: no non-zero prices")
	// ErrMasterPriceMissing reports that both master candidates are zero.
	ErrMasterPriceMissing = errors.New("aggregate: master price missing")
	// ErrInsufficientInput reports a backwad column shorter than four cells.
	ErrInsufficientInput = errors.New("aggregate: fewer than four input cells")
	// ErrConsensusBelowRatio reports that too few venues agree with the master.
	ErrConsensusBelowRatio = errors.New("aggregate: consensus below expected ratio")
	// ErrWeightedUndefined reports that every price/volume pair was zero.
	ErrWeightedUndefined = errors.New("aggregate: weighted sums are zero")
	// ErrUnknownAlgorithm reports an unrecognised algorithm name.
	ErrUnknownAlgorithm = errors.New("aggregate: unknown algorithm")
)

// Resolve dispatches a column to the named algorithm. The diff and
// ratio fractions are converted to integer percents with uint16(x*100);
// values below 0.01 therefore truncate to zero percent.
func Resolve(name string, prices, volumes []float64, diff, ratio float64) (float64, error) {
	switch name {
	case AlgoAverage:
		return Average(prices)
	case AlgoMedian:
		return Median(prices)
	case AlgoWeighted:
		return Weighted(prices, volumes)
	case AlgoMax:
		return Max(prices)
	case AlgoBackwad:
		return Backwad(prices, truncU16(diff*100), truncU16(ratio*100))
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
}

// Average returns the arithmetic mean of the non-zero prices.
func Average(prices []float64) (float64, error) {
	data := filter(prices)
	if len(data) == 0 {
		return 0, ErrEmptyData
	}
	var sum float64
	for _, p := range data {
		sum += p
	}
	return sum / float64(len(data)), nil
}

// Median returns the middle of the sorted non-zero prices. Even-length
// input yields the mean of the two middle values.
func Median(prices []float64) (float64, error) {
	data := filter(prices)
	if len(data) == 0 {
		return 0, ErrEmptyData
	}
	sort.Float64s(data)
	mid := len(data) / 2
	if len(data)%2 == 1 {
		return data[mid], nil
	}
	return (data[mid-1] + data[mid]) / 2, nil
}

// Weighted returns the volume-weighted mean over cells where both the
// price and the volume are non-zero.
func Weighted(prices, volumes []float64) (float64, error) {
	n := min(len(prices), len(volumes))
	var num, den float64
	for i := 0; i < n; i++ {
		if prices[i] == 0 || volumes[i] == 0 {
			continue
		}
		num += prices[i] * volumes[i]
		den += volumes[i]
	}
	if den == 0 {
		return 0, ErrWeightedUndefined
	}
	return num / den, nil
}

// Max returns the largest non-zero price.
func Max(prices []float64) (float64, error) {
	data := filter(prices)
	if len(data) == 0 {
		return 0, ErrEmptyData
	}
	best := data[0]
	for _, p := range data[1:] {
		if p > best {
			best = p
		}
	}
	return best, nil
}

// Backwad accepts the master price (the first cell, falling back to
// the second when zero) iff enough non-zero venues sit within
// diffPercent of it. The raw column must hold at least four cells.
func Backwad(prices []float64, diffPercent, expectedRatio uint16) (float64, error) {
	if len(prices) < 4 {
		return 0, ErrInsufficientInput
	}
	master := prices[0]
	if master == 0 {
		master = prices[1]
	}
	if master == 0 {
		return 0, ErrMasterPriceMissing
	}

	var agree, nonZero uint64
	for _, p := range prices {
		if p == 0 {
			continue
		}
		nonZero++
		if truncU16(math.Abs(master-p)*100/master) <= diffPercent {
			agree++
		}
	}
	if uint16(agree*100/nonZero) < expectedRatio {
		return 0, ErrConsensusBelowRatio
	}
	return master, nil
}

func filter(prices []float64) []float64 {
	out := make([]float64, 0, len(prices))
	for _, p := range prices {
		if p != 0 {
			out = append(out, p)
		}
	}
	return out
}

// truncU16 is a saturating float-to-uint16 truncation.
func truncU16(x float64) uint16 {
	if math.IsNaN(x) || x <= 0 {
		return 0
	}
	if x >= math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(x)
}
