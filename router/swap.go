package router

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/defistate/amm-engine-go/calculator"
	"github.com/defistate/amm-engine-go/engine"
)

// SwapExactTokensForTokens swaps a fixed input along the path, failing
// before any transfer if the computed final output falls below amountOutMin.
func (r *Router) SwapExactTokensForTokens(
	caller engine.Account,
	amountIn, amountOutMin *uint256.Int,
	path []engine.Asset,
	to engine.Account,
	deadline uint64,
) (amounts []*uint256.Int, err error) {
	done := r.metrics.observe("swap_exact_in")
	defer func() { done(err) }()

	if err = r.ensureDeadline(deadline); err != nil {
		return nil, err
	}
	rollback := r.begin()
	defer func() {
		if err != nil {
			rollback()
		}
	}()

	amounts, err = calculator.GetAmountsOut(r, amountIn, path)
	if err != nil {
		return nil, err
	}
	if amounts[len(amounts)-1].Lt(amountOutMin) {
		return nil, fmt.Errorf("%w: output %s, minimum %s",
			ErrInsufficientOutputAmount, amounts[len(amounts)-1].Dec(), amountOutMin.Dec())
	}
	if err = r.fundFirstHop(caller, path, amounts[0]); err != nil {
		return nil, err
	}
	if err = r.executeSwap(amounts, path, to); err != nil {
		return nil, err
	}
	return amounts, nil
}

// SwapTokensForExactTokens swaps for a fixed output along the path, failing
// before any transfer if the computed required input exceeds amountInMax.
func (r *Router) SwapTokensForExactTokens(
	caller engine.Account,
	amountOut, amountInMax *uint256.Int,
	path []engine.Asset,
	to engine.Account,
	deadline uint64,
) (amounts []*uint256.Int, err error) {
	done := r.metrics.observe("swap_exact_out")
	defer func() { done(err) }()

	if err = r.ensureDeadline(deadline); err != nil {
		return nil, err
	}
	rollback := r.begin()
	defer func() {
		if err != nil {
			rollback()
		}
	}()

	amounts, err = calculator.GetAmountsIn(r, amountOut, path)
	if err != nil {
		return nil, err
	}
	if amounts[0].Gt(amountInMax) {
		return nil, fmt.Errorf("%w: required %s, maximum %s",
			ErrExcessiveInputAmount, amounts[0].Dec(), amountInMax.Dec())
	}
	if err = r.fundFirstHop(caller, path, amounts[0]); err != nil {
		return nil, err
	}
	if err = r.executeSwap(amounts, path, to); err != nil {
		return nil, err
	}
	return amounts, nil
}

// SwapExactNativeForTokens wraps the attached native value and swaps it along
// the path, which must start with the wrapped native asset.
func (r *Router) SwapExactNativeForTokens(
	caller engine.Account,
	amountIn, amountOutMin *uint256.Int,
	path []engine.Asset,
	to engine.Account,
	deadline uint64,
) (amounts []*uint256.Int, err error) {
	done := r.metrics.observe("swap_exact_native_in")
	defer func() { done(err) }()

	if err = r.ensureDeadline(deadline); err != nil {
		return nil, err
	}
	if err = r.checkNativePath(path, true); err != nil {
		return nil, err
	}
	rollback := r.begin()
	defer func() {
		if err != nil {
			rollback()
		}
	}()

	amounts, err = calculator.GetAmountsOut(r, amountIn, path)
	if err != nil {
		return nil, err
	}
	if amounts[len(amounts)-1].Lt(amountOutMin) {
		return nil, fmt.Errorf("%w: output %s, minimum %s",
			ErrInsufficientOutputAmount, amounts[len(amounts)-1].Dec(), amountOutMin.Dec())
	}
	firstPool, err := r.pairAddress(path[0], path[1])
	if err != nil {
		return nil, err
	}
	if err = r.wrapper.Wrap(caller, firstPool, amounts[0]); err != nil {
		return nil, err
	}
	if err = r.executeSwap(amounts, path, to); err != nil {
		return nil, err
	}
	return amounts, nil
}

// SwapNativeForExactTokens swaps attached native value for a fixed output.
// The attached value is escrowed up front; the portion above the computed
// requirement is refunded to the caller.
func (r *Router) SwapNativeForExactTokens(
	caller engine.Account,
	amountOut, amountInMax *uint256.Int,
	path []engine.Asset,
	to engine.Account,
	deadline uint64,
) (amounts []*uint256.Int, err error) {
	done := r.metrics.observe("swap_native_exact_out")
	defer func() { done(err) }()

	if err = r.ensureDeadline(deadline); err != nil {
		return nil, err
	}
	if err = r.checkNativePath(path, true); err != nil {
		return nil, err
	}
	rollback := r.begin()
	defer func() {
		if err != nil {
			rollback()
		}
	}()

	if err = r.wrapper.Native().Escrow(caller, r.account, amountInMax); err != nil {
		return nil, err
	}

	amounts, err = calculator.GetAmountsIn(r, amountOut, path)
	if err != nil {
		return nil, err
	}
	if amounts[0].Gt(amountInMax) {
		return nil, fmt.Errorf("%w: required %s, maximum %s",
			ErrExcessiveInputAmount, amounts[0].Dec(), amountInMax.Dec())
	}
	firstPool, err := r.pairAddress(path[0], path[1])
	if err != nil {
		return nil, err
	}
	if err = r.wrapper.Wrap(r.account, firstPool, amounts[0]); err != nil {
		return nil, err
	}
	if err = r.executeSwap(amounts, path, to); err != nil {
		return nil, err
	}
	if dust := new(uint256.Int).Sub(amountInMax, amounts[0]); !dust.IsZero() {
		if err = r.wrapper.Native().Transfer(r.account, caller, dust); err != nil {
			return nil, err
		}
		r.logger.Debug("refunded native dust", "to", caller, "amount", dust.Dec())
	}
	return amounts, nil
}

// SwapExactTokensForNative swaps a fixed token input for native value. The
// path must end with the wrapped native asset; the final hop pays the
// router, which unwraps to the destination.
func (r *Router) SwapExactTokensForNative(
	caller engine.Account,
	amountIn, amountOutMin *uint256.Int,
	path []engine.Asset,
	to engine.Account,
	deadline uint64,
) (amounts []*uint256.Int, err error) {
	done := r.metrics.observe("swap_exact_in_native_out")
	defer func() { done(err) }()

	if err = r.ensureDeadline(deadline); err != nil {
		return nil, err
	}
	if err = r.checkNativePath(path, false); err != nil {
		return nil, err
	}
	rollback := r.begin()
	defer func() {
		if err != nil {
			rollback()
		}
	}()

	amounts, err = calculator.GetAmountsOut(r, amountIn, path)
	if err != nil {
		return nil, err
	}
	out := amounts[len(amounts)-1]
	if out.Lt(amountOutMin) {
		return nil, fmt.Errorf("%w: output %s, minimum %s",
			ErrInsufficientOutputAmount, out.Dec(), amountOutMin.Dec())
	}
	if err = r.fundFirstHop(caller, path, amounts[0]); err != nil {
		return nil, err
	}
	if err = r.executeSwap(amounts, path, r.account); err != nil {
		return nil, err
	}
	if err = r.wrapper.Unwrap(r.account, to, out); err != nil {
		return nil, err
	}
	return amounts, nil
}

// SwapTokensForExactNative swaps tokens for a fixed native output.
func (r *Router) SwapTokensForExactNative(
	caller engine.Account,
	amountOut, amountInMax *uint256.Int,
	path []engine.Asset,
	to engine.Account,
	deadline uint64,
) (amounts []*uint256.Int, err error) {
	done := r.metrics.observe("swap_exact_native_out")
	defer func() { done(err) }()

	if err = r.ensureDeadline(deadline); err != nil {
		return nil, err
	}
	if err = r.checkNativePath(path, false); err != nil {
		return nil, err
	}
	rollback := r.begin()
	defer func() {
		if err != nil {
			rollback()
		}
	}()

	amounts, err = calculator.GetAmountsIn(r, amountOut, path)
	if err != nil {
		return nil, err
	}
	if amounts[0].Gt(amountInMax) {
		return nil, fmt.Errorf("%w: required %s, maximum %s",
			ErrExcessiveInputAmount, amounts[0].Dec(), amountInMax.Dec())
	}
	if err = r.fundFirstHop(caller, path, amounts[0]); err != nil {
		return nil, err
	}
	if err = r.executeSwap(amounts, path, r.account); err != nil {
		return nil, err
	}
	if err = r.wrapper.Unwrap(r.account, to, amounts[len(amounts)-1]); err != nil {
		return nil, err
	}
	return amounts, nil
}

// fundFirstHop pulls the swap input from the caller into the first hop's
// pool account.
func (r *Router) fundFirstHop(caller engine.Account, path []engine.Asset, amountIn *uint256.Int) error {
	firstPool, err := r.pairAddress(path[0], path[1])
	if err != nil {
		return err
	}
	if err := r.tokens.TransferFrom(path[0], r.account, caller, firstPool, amountIn); err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	return nil
}

// checkNativePath verifies the wrapper is configured and the path touches
// the wrapped native asset at the required end.
func (r *Router) checkNativePath(path []engine.Asset, nativeIn bool) error {
	if r.wrapper == nil {
		return ErrNativeUnsupported
	}
	if len(path) < 2 {
		return fmt.Errorf("%w: need at least two assets, got %d", ErrInvalidPath, len(path))
	}
	wrapped := r.wrapper.Asset()
	if nativeIn && path[0] != wrapped {
		return fmt.Errorf("%w: native input path must start with the wrapped asset %s", ErrInvalidPath, wrapped)
	}
	if !nativeIn && path[len(path)-1] != wrapped {
		return fmt.Errorf("%w: native output path must end with the wrapped asset %s", ErrInvalidPath, wrapped)
	}
	return nil
}
