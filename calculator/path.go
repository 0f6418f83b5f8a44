package calculator

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/defistate/amm-engine-go/engine"
)

// ErrInvalidPath is returned when a swap path has fewer than two assets.
var ErrInvalidPath = errors.New("path must contain at least two assets")

// ReserveSource yields the reserves of the pool for one hop, ordered by the
// direction of travel. All reads during one path computation must come from
// the same state snapshot; the amounts are only exact against that snapshot.
type ReserveSource interface {
	ReservesToward(assetIn, assetOut engine.Asset) (reserveIn, reserveOut *uint256.Int, err error)
}

// GetAmountsOut walks a path forward: amounts[0] is amountIn, and each
// following slot is the output of swapping the previous amount through that
// hop's pool. amounts[len(path)-1] is the final output.
func GetAmountsOut(src ReserveSource, amountIn *uint256.Int, path []engine.Asset) ([]*uint256.Int, error) {
	if len(path) < 2 {
		return nil, ErrInvalidPath
	}
	if amountIn == nil {
		return nil, ErrNilAmount
	}

	amounts := make([]*uint256.Int, len(path))
	amounts[0] = new(uint256.Int).Set(amountIn)
	for i := 0; i < len(path)-1; i++ {
		reserveIn, reserveOut, err := src.ReservesToward(path[i], path[i+1])
		if err != nil {
			return nil, fmt.Errorf("hop %d (%s -> %s): %w", i, path[i], path[i+1], err)
		}
		out, err := GetAmountOut(amounts[i], reserveIn, reserveOut)
		if err != nil {
			return nil, fmt.Errorf("hop %d (%s -> %s): %w", i, path[i], path[i+1], err)
		}
		amounts[i+1] = out
	}
	return amounts, nil
}

// GetAmountsIn walks a path backward: amounts[len(path)-1] is the target
// output, and each preceding slot is the input that hop requires to produce
// the amount after it. amounts[0] is what the caller must supply.
func GetAmountsIn(src ReserveSource, amountOut *uint256.Int, path []engine.Asset) ([]*uint256.Int, error) {
	if len(path) < 2 {
		return nil, ErrInvalidPath
	}
	if amountOut == nil {
		return nil, ErrNilAmount
	}

	amounts := make([]*uint256.Int, len(path))
	amounts[len(path)-1] = new(uint256.Int).Set(amountOut)
	for i := len(path) - 2; i >= 0; i-- {
		reserveIn, reserveOut, err := src.ReservesToward(path[i], path[i+1])
		if err != nil {
			return nil, fmt.Errorf("hop %d (%s -> %s): %w", i, path[i], path[i+1], err)
		}
		in, err := GetAmountIn(amounts[i+1], reserveIn, reserveOut)
		if err != nil {
			return nil, fmt.Errorf("hop %d (%s -> %s): %w", i, path[i], path[i+1], err)
		}
		amounts[i] = in
	}
	return amounts, nil
}
