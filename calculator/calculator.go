package calculator

import (
	"errors"
	"fmt"
	"sync"

	"github.com/holiman/uint256"
)

// The swap fee is a fixed 0.3%: an input of amountIn trades as if it were
// amountIn * 997 / 1000, with the remainder retained by the pool.
var (
	feeNumerator   = uint256.NewInt(997)
	feeDenominator = uint256.NewInt(1000)
	one            = uint256.NewInt(1)
)

var (
	// ErrNilAmount is returned when a nil pointer is passed for an amount or reserve.
	ErrNilAmount = errors.New("nil pointer passed as amount")
	// ErrInvalidAmount is returned when an input/output amount is zero.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInsufficientLiquidity is returned when a reserve is zero, or when an
	// amountOut is requested that is greater than or equal to the available reserve.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity for swap")
	// ErrOverflow is returned when an intermediate product or sum exceeds 256 bits.
	ErrOverflow = errors.New("arithmetic overflow")
)

// calc holds reusable uint256 objects to avoid allocations during the hot
// arithmetic. Instances are NOT safe for concurrent use by themselves; they
// are managed by calcPool.
type calc struct {
	amountInWithFee *uint256.Int
	numerator       *uint256.Int
	denominator     *uint256.Int
	scaled          *uint256.Int
}

var calcPool = sync.Pool{
	New: func() any {
		return &calc{
			amountInWithFee: new(uint256.Int),
			numerator:       new(uint256.Int),
			denominator:     new(uint256.Int),
			scaled:          new(uint256.Int),
		}
	},
}

// Quote returns the amount of asset B equivalent in value to amountA at the
// pool's current ratio: amountA * reserveB / reserveA, floor division. No
// fee applies; this is the rate used when balancing a liquidity deposit.
func Quote(amountA, reserveA, reserveB *uint256.Int) (*uint256.Int, error) {
	if amountA == nil || reserveA == nil || reserveB == nil {
		return nil, ErrNilAmount
	}
	if amountA.IsZero() {
		return nil, ErrInvalidAmount
	}
	if reserveA.IsZero() || reserveB.IsZero() {
		return nil, fmt.Errorf("%w: zero reserve", ErrInsufficientLiquidity)
	}

	c := calcPool.Get().(*calc)
	defer calcPool.Put(c)

	if _, overflow := c.numerator.MulOverflow(amountA, reserveB); overflow {
		return nil, fmt.Errorf("%w: amountA * reserveB", ErrOverflow)
	}
	return new(uint256.Int).Div(c.numerator, reserveA), nil
}

// GetAmountOut returns the maximum output amount a swap of amountIn obtains
// against the given reserves, net of the 0.3% fee:
//
//	amountOut = floor(amountIn*997 * reserveOut / (reserveIn*1000 + amountIn*997))
//
// The result is monotonic non-decreasing in amountIn and strictly below
// reserveOut for all valid inputs.
func GetAmountOut(amountIn, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	if amountIn == nil || reserveIn == nil || reserveOut == nil {
		return nil, ErrNilAmount
	}
	if amountIn.IsZero() {
		return nil, ErrInvalidAmount
	}
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return nil, fmt.Errorf("%w: zero reserve", ErrInsufficientLiquidity)
	}

	c := calcPool.Get().(*calc)
	defer calcPool.Put(c)

	if _, overflow := c.amountInWithFee.MulOverflow(amountIn, feeNumerator); overflow {
		return nil, fmt.Errorf("%w: amountIn * 997", ErrOverflow)
	}
	if _, overflow := c.numerator.MulOverflow(c.amountInWithFee, reserveOut); overflow {
		return nil, fmt.Errorf("%w: amountInWithFee * reserveOut", ErrOverflow)
	}
	if _, overflow := c.scaled.MulOverflow(reserveIn, feeDenominator); overflow {
		return nil, fmt.Errorf("%w: reserveIn * 1000", ErrOverflow)
	}
	if _, overflow := c.denominator.AddOverflow(c.scaled, c.amountInWithFee); overflow {
		return nil, fmt.Errorf("%w: swap denominator", ErrOverflow)
	}

	return new(uint256.Int).Div(c.numerator, c.denominator), nil
}

// GetAmountIn returns the minimum input amount that obtains at least
// amountOut against the given reserves, the exact inverse of GetAmountOut
// rounded up:
//
//	amountIn = floor(reserveIn*amountOut*1000 / ((reserveOut-amountOut)*997)) + 1
//
// The +1 is deliberate: feeding the result back through GetAmountOut yields
// at least the requested amountOut, never less. The rounding favors the pool.
func GetAmountIn(amountOut, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	if amountOut == nil || reserveIn == nil || reserveOut == nil {
		return nil, ErrNilAmount
	}
	if amountOut.IsZero() {
		return nil, ErrInvalidAmount
	}
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return nil, fmt.Errorf("%w: zero reserve", ErrInsufficientLiquidity)
	}
	if amountOut.Cmp(reserveOut) >= 0 {
		return nil, fmt.Errorf("%w: requested amountOut (%s) >= reserveOut (%s)",
			ErrInsufficientLiquidity, amountOut.Dec(), reserveOut.Dec())
	}

	c := calcPool.Get().(*calc)
	defer calcPool.Put(c)

	if _, overflow := c.numerator.MulOverflow(reserveIn, amountOut); overflow {
		return nil, fmt.Errorf("%w: reserveIn * amountOut", ErrOverflow)
	}
	if _, overflow := c.numerator.MulOverflow(c.numerator, feeDenominator); overflow {
		return nil, fmt.Errorf("%w: numerator * 1000", ErrOverflow)
	}

	// reserveOut > amountOut was checked above, so this cannot underflow.
	c.scaled.Sub(reserveOut, amountOut)
	if _, overflow := c.denominator.MulOverflow(c.scaled, feeNumerator); overflow {
		return nil, fmt.Errorf("%w: denominator * 997", ErrOverflow)
	}

	amountIn := new(uint256.Int).Div(c.numerator, c.denominator)
	if _, overflow := amountIn.AddOverflow(amountIn, one); overflow {
		return nil, fmt.Errorf("%w: amountIn + 1", ErrOverflow)
	}
	return amountIn, nil
}
