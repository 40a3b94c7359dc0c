package staking

import (
	"math"

	"github.com/holiman/uint256"
)

const bpsDenominator = 10_000

func checkedAdd(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrNumericOverflow
	}
	return a + b, nil
}

func checkedSub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrNumericOverflow
	}
	return a - b, nil
}

func addSeconds(ts, delta int64) (int64, error) {
	if delta > 0 && ts > math.MaxInt64-delta {
		return 0, ErrNumericOverflow
	}
	return ts + delta, nil
}

// nodeKeys applies the floor-division tiering rule.
func nodeKeys(cumulative, tierUnit uint64) (uint32, error) {
	if tierUnit == 0 {
		return 0, nil
	}
	keys := cumulative / tierUnit
	if keys > math.MaxUint32 {
		return 0, ErrNumericOverflow
	}
	return uint32(keys), nil
}

// mulDiv computes a*b/denom with a 256-bit intermediate product.
func mulDiv(a, b, denom uint64) (uint64, error) {
	if denom == 0 {
		return 0, nil
	}
	product := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	quotient := product.Div(product, uint256.NewInt(denom))
	if !quotient.IsUint64() {
		return 0, ErrNumericOverflow
	}
	return quotient.Uint64(), nil
}

func minUint64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
