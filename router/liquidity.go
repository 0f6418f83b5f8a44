package router

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/defistate/amm-engine-go/calculator"
	"github.com/defistate/amm-engine-go/engine"
	"github.com/defistate/amm-engine-go/pair"
)

// addLiquidityAmounts balances a two-sided deposit against the current
// reserve ratio. It creates the pool if it does not exist yet; a fresh pool
// accepts the desired amounts as-is and sets the initial ratio.
func (r *Router) addLiquidityAmounts(
	tokenA, tokenB engine.Asset,
	amountADesired, amountBDesired, amountAMin, amountBMin *uint256.Int,
) (amountA, amountB *uint256.Int, err error) {
	entry, created, err := r.pairs.GetOrCreate(tokenA, tokenB)
	if err != nil {
		return nil, nil, err
	}
	if created {
		if err := r.pools.Register(entry.Address, entry.Token0, entry.Token1); err != nil {
			return nil, nil, err
		}
		r.logger.Info("created pool", "address", entry.Address, "token0", entry.Token0, "token1", entry.Token1)
	}

	reserveA, reserveB, err := r.ReservesToward(tokenA, tokenB)
	if err != nil {
		return nil, nil, err
	}
	if reserveA.IsZero() && reserveB.IsZero() {
		return amountADesired.Clone(), amountBDesired.Clone(), nil
	}

	amountBOptimal, err := calculator.Quote(amountADesired, reserveA, reserveB)
	if err != nil {
		return nil, nil, err
	}
	if !amountBOptimal.Gt(amountBDesired) {
		if amountBOptimal.Lt(amountBMin) {
			return nil, nil, fmt.Errorf("%w: balanced %s, minimum %s",
				ErrInsufficientBAmount, amountBOptimal.Dec(), amountBMin.Dec())
		}
		return amountADesired.Clone(), amountBOptimal, nil
	}

	amountAOptimal, err := calculator.Quote(amountBDesired, reserveB, reserveA)
	if err != nil {
		return nil, nil, err
	}
	// Quote in the other direction cannot exceed amountADesired here; the
	// first branch would have taken it.
	if amountAOptimal.Lt(amountAMin) {
		return nil, nil, fmt.Errorf("%w: balanced %s, minimum %s",
			ErrInsufficientAAmount, amountAOptimal.Dec(), amountAMin.Dec())
	}
	return amountAOptimal, amountBDesired.Clone(), nil
}

// AddLiquidity deposits a balanced pair of assets into the pool for
// (tokenA, tokenB), creating the pool on first use, and mints liquidity
// shares to the destination. The deposited amounts never exceed the desired
// amounts and never fall below the minimums.
func (r *Router) AddLiquidity(
	caller engine.Account,
	tokenA, tokenB engine.Asset,
	amountADesired, amountBDesired, amountAMin, amountBMin *uint256.Int,
	to engine.Account,
	deadline uint64,
) (amountA, amountB, liquidity *uint256.Int, err error) {
	done := r.metrics.observe("add_liquidity")
	defer func() { done(err) }()

	if err = r.ensureDeadline(deadline); err != nil {
		return nil, nil, nil, err
	}
	rollback := r.begin()
	defer func() {
		if err != nil {
			rollback()
		}
	}()

	amountA, amountB, err = r.addLiquidityAmounts(tokenA, tokenB, amountADesired, amountBDesired, amountAMin, amountBMin)
	if err != nil {
		return nil, nil, nil, err
	}
	pool, err := r.pairAddress(tokenA, tokenB)
	if err != nil {
		return nil, nil, nil, err
	}
	if err = r.tokens.TransferFrom(tokenA, r.account, caller, pool, amountA); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	if err = r.tokens.TransferFrom(tokenB, r.account, caller, pool, amountB); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	liquidity, err = r.pools.Mint(pool, to)
	if err != nil {
		return nil, nil, nil, err
	}
	r.logger.Debug("added liquidity", "pool", pool, "amountA", amountA.Dec(), "amountB", amountB.Dec(), "shares", liquidity.Dec())
	return amountA, amountB, liquidity, nil
}

// AddLiquidityNative deposits the chain-native asset alongside a token. The
// attached native value is escrowed up front; the portion the balancer does
// not use is refunded to the caller before returning.
func (r *Router) AddLiquidityNative(
	caller engine.Account,
	token engine.Asset,
	amountTokenDesired, amountTokenMin, amountNativeDesired, amountNativeMin *uint256.Int,
	to engine.Account,
	deadline uint64,
) (amountToken, amountNative, liquidity *uint256.Int, err error) {
	done := r.metrics.observe("add_liquidity_native")
	defer func() { done(err) }()

	if err = r.ensureDeadline(deadline); err != nil {
		return nil, nil, nil, err
	}
	if r.wrapper == nil {
		return nil, nil, nil, ErrNativeUnsupported
	}
	rollback := r.begin()
	defer func() {
		if err != nil {
			rollback()
		}
	}()

	// Take custody of the full attached value first; the unused remainder is
	// refunded after balancing.
	if err = r.wrapper.Native().Escrow(caller, r.account, amountNativeDesired); err != nil {
		return nil, nil, nil, err
	}

	wrapped := r.wrapper.Asset()
	amountToken, amountNative, err = r.addLiquidityAmounts(token, wrapped, amountTokenDesired, amountNativeDesired, amountTokenMin, amountNativeMin)
	if err != nil {
		return nil, nil, nil, err
	}
	pool, err := r.pairAddress(token, wrapped)
	if err != nil {
		return nil, nil, nil, err
	}
	if err = r.tokens.TransferFrom(token, r.account, caller, pool, amountToken); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	if err = r.wrapper.Wrap(r.account, pool, amountNative); err != nil {
		return nil, nil, nil, err
	}
	liquidity, err = r.pools.Mint(pool, to)
	if err != nil {
		return nil, nil, nil, err
	}

	if dust := new(uint256.Int).Sub(amountNativeDesired, amountNative); !dust.IsZero() {
		if err = r.wrapper.Native().Transfer(r.account, caller, dust); err != nil {
			return nil, nil, nil, err
		}
		r.logger.Debug("refunded native dust", "to", caller, "amount", dust.Dec())
	}
	return amountToken, amountNative, liquidity, nil
}

// removeLiquidity moves the caller's shares into the pool's own account and
// burns them, paying out both assets to the destination. Returns the payout
// in (tokenA, tokenB) order.
func (r *Router) removeLiquidity(
	caller engine.Account,
	tokenA, tokenB engine.Asset,
	liquidity, amountAMin, amountBMin *uint256.Int,
	to engine.Account,
	viaAllowance bool,
) (amountA, amountB *uint256.Int, err error) {
	pool, err := r.pairAddress(tokenA, tokenB)
	if err != nil {
		return nil, nil, err
	}
	if viaAllowance {
		err = r.pools.TransferSharesFrom(pool, r.account, caller, pool, liquidity)
	} else {
		err = r.pools.TransferShares(pool, caller, pool, liquidity)
	}
	if err != nil {
		return nil, nil, err
	}
	amount0, amount1, err := r.pools.Burn(pool, to)
	if err != nil {
		return nil, nil, err
	}

	token0, _, err := pair.SortAssets(tokenA, tokenB)
	if err != nil {
		return nil, nil, err
	}
	amountA, amountB = amount0, amount1
	if tokenA != token0 {
		amountA, amountB = amount1, amount0
	}
	if amountA.Lt(amountAMin) {
		return nil, nil, fmt.Errorf("%w: received %s, minimum %s", ErrInsufficientAAmount, amountA.Dec(), amountAMin.Dec())
	}
	if amountB.Lt(amountBMin) {
		return nil, nil, fmt.Errorf("%w: received %s, minimum %s", ErrInsufficientBAmount, amountB.Dec(), amountBMin.Dec())
	}
	return amountA, amountB, nil
}

// RemoveLiquidity burns the caller's liquidity shares and pays out both
// pool assets pro rata to the destination.
func (r *Router) RemoveLiquidity(
	caller engine.Account,
	tokenA, tokenB engine.Asset,
	liquidity, amountAMin, amountBMin *uint256.Int,
	to engine.Account,
	deadline uint64,
) (amountA, amountB *uint256.Int, err error) {
	done := r.metrics.observe("remove_liquidity")
	defer func() { done(err) }()

	if err = r.ensureDeadline(deadline); err != nil {
		return nil, nil, err
	}
	rollback := r.begin()
	defer func() {
		if err != nil {
			rollback()
		}
	}()
	return r.removeLiquidity(caller, tokenA, tokenB, liquidity, amountAMin, amountBMin, to, false)
}

// RemoveLiquidityNative burns shares of the (token, wrapped native) pool,
// paying the token leg directly and unwrapping the native leg to the
// destination.
func (r *Router) RemoveLiquidityNative(
	caller engine.Account,
	token engine.Asset,
	liquidity, amountTokenMin, amountNativeMin *uint256.Int,
	to engine.Account,
	deadline uint64,
) (amountToken, amountNative *uint256.Int, err error) {
	done := r.metrics.observe("remove_liquidity_native")
	defer func() { done(err) }()

	if err = r.ensureDeadline(deadline); err != nil {
		return nil, nil, err
	}
	if r.wrapper == nil {
		return nil, nil, ErrNativeUnsupported
	}
	rollback := r.begin()
	defer func() {
		if err != nil {
			rollback()
		}
	}()
	return r.removeLiquidityNative(caller, token, liquidity, amountTokenMin, amountNativeMin, to, false)
}

func (r *Router) removeLiquidityNative(
	caller engine.Account,
	token engine.Asset,
	liquidity, amountTokenMin, amountNativeMin *uint256.Int,
	to engine.Account,
	viaAllowance bool,
) (amountToken, amountNative *uint256.Int, err error) {
	wrapped := r.wrapper.Asset()
	// Pay out to the router's account, then forward: the native leg has to
	// pass through an unwrap.
	amountToken, amountNative, err = r.removeLiquidity(caller, token, wrapped, liquidity, amountTokenMin, amountNativeMin, r.account, viaAllowance)
	if err != nil {
		return nil, nil, err
	}
	if err = r.tokens.Transfer(token, r.account, to, amountToken); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	if err = r.wrapper.Unwrap(r.account, to, amountNative); err != nil {
		return nil, nil, err
	}
	return amountToken, amountNative, nil
}

// RemoveLiquidityWithAuthorization is RemoveLiquidity with the share
// allowance granted in-band by signature instead of a prior direct approval.
// If approveMax is set the signed allowance is unlimited and survives this
// withdrawal.
func (r *Router) RemoveLiquidityWithAuthorization(
	caller engine.Account,
	tokenA, tokenB engine.Asset,
	liquidity, amountAMin, amountBMin *uint256.Int,
	to engine.Account,
	deadline uint64,
	approveMax bool,
	signature []byte,
) (amountA, amountB *uint256.Int, err error) {
	done := r.metrics.observe("remove_liquidity_authorized")
	defer func() { done(err) }()

	if err = r.ensureDeadline(deadline); err != nil {
		return nil, nil, err
	}
	rollback := r.begin()
	defer func() {
		if err != nil {
			rollback()
		}
	}()

	pool, err := r.pairAddress(tokenA, tokenB)
	if err != nil {
		return nil, nil, err
	}
	value := liquidity
	if approveMax {
		value = new(uint256.Int).SetAllOne()
	}
	if err = r.pools.Authorize(pool, caller, r.account, value, deadline, signature); err != nil {
		return nil, nil, err
	}
	return r.removeLiquidity(caller, tokenA, tokenB, liquidity, amountAMin, amountBMin, to, true)
}

// RemoveLiquidityNativeWithAuthorization combines the signature-based share
// allowance with the native payout path.
func (r *Router) RemoveLiquidityNativeWithAuthorization(
	caller engine.Account,
	token engine.Asset,
	liquidity, amountTokenMin, amountNativeMin *uint256.Int,
	to engine.Account,
	deadline uint64,
	approveMax bool,
	signature []byte,
) (amountToken, amountNative *uint256.Int, err error) {
	done := r.metrics.observe("remove_liquidity_native_authorized")
	defer func() { done(err) }()

	if err = r.ensureDeadline(deadline); err != nil {
		return nil, nil, err
	}
	if r.wrapper == nil {
		return nil, nil, ErrNativeUnsupported
	}
	rollback := r.begin()
	defer func() {
		if err != nil {
			rollback()
		}
	}()

	pool, err := r.pairAddress(token, r.wrapper.Asset())
	if err != nil {
		return nil, nil, err
	}
	value := liquidity
	if approveMax {
		value = new(uint256.Int).SetAllOne()
	}
	if err = r.pools.Authorize(pool, caller, r.account, value, deadline, signature); err != nil {
		return nil, nil, err
	}
	return r.removeLiquidityNative(caller, token, liquidity, amountTokenMin, amountNativeMin, to, true)
}
