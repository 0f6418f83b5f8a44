package ledger

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/defistate/amm-engine-go/engine"
)

var (
	// ErrPoolExists is returned when registering a pool address twice.
	ErrPoolExists = errors.New("pool already registered")
	// ErrInsufficientLiquidityMinted is returned when a deposit is too small to mint any share.
	ErrInsufficientLiquidityMinted = errors.New("insufficient liquidity minted")
	// ErrInsufficientLiquidityBurned is returned when redeemed shares pay out zero of either asset.
	ErrInsufficientLiquidityBurned = errors.New("insufficient liquidity burned")
	// ErrInsufficientReserves is returned when a swap requests more output than a reserve holds.
	ErrInsufficientReserves = errors.New("insufficient reserves for requested output")
	// ErrInsufficientSwapOutput is returned when a swap requests no output at all.
	ErrInsufficientSwapOutput = errors.New("swap requires a positive output amount")
	// ErrInsufficientSwapInput is returned when no input has arrived in the pool's account.
	ErrInsufficientSwapInput = errors.New("swap received no input")
	// ErrInvariantViolated is returned when a swap would decrease the fee-adjusted
	// product of the reserves.
	ErrInvariantViolated = errors.New("constant-product invariant violated")
	// ErrOverflow is returned when reserve arithmetic exceeds 256 bits.
	ErrOverflow = errors.New("arithmetic overflow")
	// ErrNoAuthorizationCapability is returned from Authorize when no signature
	// verifier was configured.
	ErrNoAuthorizationCapability = errors.New("no authorization capability configured")
)

// MinimumShares is the share amount permanently locked on a pool's first
// deposit, so total shares can never return to zero once a pool has traded.
var MinimumShares = uint256.NewInt(1000)

// lockedSharesAccount holds the permanently locked minimum shares.
var lockedSharesAccount = engine.Account{}

// thousand and three implement the fee-adjusted invariant check:
// an input of n contributes n*1000 - n*3 after the 0.3% fee.
var (
	thousand = uint256.NewInt(1000)
	three    = uint256.NewInt(3)
	million  = uint256.NewInt(1000 * 1000)
)

// SignatureVerifier validates an off-ledger authorization. The scheme is an
// external capability; the pool ledger only delegates to it.
type SignatureVerifier func(pool common.Address, owner, spender engine.Account, amount *uint256.Int, deadline uint64, signature []byte) error

type poolState struct {
	token0, token1     engine.Asset
	reserve0, reserve1 *uint256.Int

	totalShares     *uint256.Int
	shares          map[engine.Account]*uint256.Int
	shareAllowances map[engine.Account]map[engine.Account]*uint256.Int
}

// InMemoryPoolLedger is the reference PoolLedger: constant-product pools
// whose token balances live at the pool's own account in a TokenLedger.
// A swap's input is whatever balance it finds above its recorded reserves,
// which is what makes forward-chained multi-hop settlement possible.
type InMemoryPoolLedger struct {
	tokens *InMemoryTokenLedger
	clock  engine.Clock
	verify SignatureVerifier

	pools map[common.Address]*poolState
}

// NewInMemoryPoolLedger creates an empty pool ledger over a token ledger.
// verify may be nil, in which case Authorize always fails.
func NewInMemoryPoolLedger(tokens *InMemoryTokenLedger, clock engine.Clock, verify SignatureVerifier) *InMemoryPoolLedger {
	return &InMemoryPoolLedger{
		tokens: tokens,
		clock:  clock,
		verify: verify,
		pools:  make(map[common.Address]*poolState),
	}
}

// Register creates the ledger-side state for a pool the registry has
// created. token0 and token1 must already be in canonical order.
func (l *InMemoryPoolLedger) Register(pool common.Address, token0, token1 engine.Asset) error {
	if _, exists := l.pools[pool]; exists {
		return fmt.Errorf("%w: %s", ErrPoolExists, pool)
	}
	if token0.Cmp(token1) >= 0 {
		return fmt.Errorf("pool %s: tokens not in canonical order", pool)
	}
	l.pools[pool] = &poolState{
		token0:          token0,
		token1:          token1,
		reserve0:        new(uint256.Int),
		reserve1:        new(uint256.Int),
		totalShares:     new(uint256.Int),
		shares:          make(map[engine.Account]*uint256.Int),
		shareAllowances: make(map[engine.Account]map[engine.Account]*uint256.Int),
	}
	return nil
}

func (l *InMemoryPoolLedger) pool(pool common.Address) (*poolState, error) {
	p, ok := l.pools[pool]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPool, pool)
	}
	return p, nil
}

// Reserves returns copies of the pool's reserves in canonical order.
func (l *InMemoryPoolLedger) Reserves(pool common.Address) (*uint256.Int, *uint256.Int, error) {
	p, err := l.pool(pool)
	if err != nil {
		return nil, nil, err
	}
	return new(uint256.Int).Set(p.reserve0), new(uint256.Int).Set(p.reserve1), nil
}

// Mint measures the deposit that has arrived above the recorded reserves and
// credits shares for it. The first deposit mints the geometric mean of the
// two amounts, minus MinimumShares which are locked forever.
func (l *InMemoryPoolLedger) Mint(pool common.Address, to engine.Account) (*uint256.Int, error) {
	p, err := l.pool(pool)
	if err != nil {
		return nil, err
	}

	balance0 := l.tokens.BalanceOf(p.token0, pool)
	balance1 := l.tokens.BalanceOf(p.token1, pool)
	if balance0.Lt(p.reserve0) || balance1.Lt(p.reserve1) {
		return nil, fmt.Errorf("pool %s: balances below recorded reserves", pool)
	}
	amount0 := new(uint256.Int).Sub(balance0, p.reserve0)
	amount1 := new(uint256.Int).Sub(balance1, p.reserve1)

	liquidity := new(uint256.Int)
	if p.totalShares.IsZero() {
		product := new(uint256.Int)
		if _, overflow := product.MulOverflow(amount0, amount1); overflow {
			return nil, fmt.Errorf("%w: first deposit product", ErrOverflow)
		}
		liquidity.Sqrt(product)
		if !liquidity.Gt(MinimumShares) {
			return nil, fmt.Errorf("%w: first deposit below minimum", ErrInsufficientLiquidityMinted)
		}
		liquidity.Sub(liquidity, MinimumShares)
		l.issueShares(p, lockedSharesAccount, MinimumShares)
	} else {
		share0 := new(uint256.Int)
		if _, overflow := share0.MulOverflow(amount0, p.totalShares); overflow {
			return nil, fmt.Errorf("%w: amount0 * totalShares", ErrOverflow)
		}
		share0.Div(share0, p.reserve0)

		share1 := new(uint256.Int)
		if _, overflow := share1.MulOverflow(amount1, p.totalShares); overflow {
			return nil, fmt.Errorf("%w: amount1 * totalShares", ErrOverflow)
		}
		share1.Div(share1, p.reserve1)

		if share0.Lt(share1) {
			liquidity.Set(share0)
		} else {
			liquidity.Set(share1)
		}
		if liquidity.IsZero() {
			return nil, ErrInsufficientLiquidityMinted
		}
	}

	l.issueShares(p, to, liquidity)
	p.reserve0.Set(balance0)
	p.reserve1.Set(balance1)
	return new(uint256.Int).Set(liquidity), nil
}

// Burn redeems the shares sitting in the pool's own account, paying out both
// assets pro rata to the destination.
func (l *InMemoryPoolLedger) Burn(pool common.Address, to engine.Account) (*uint256.Int, *uint256.Int, error) {
	p, err := l.pool(pool)
	if err != nil {
		return nil, nil, err
	}

	liquidity := p.shares[pool]
	if liquidity == nil || liquidity.IsZero() {
		return nil, nil, fmt.Errorf("%w: no shares held by pool", ErrInsufficientLiquidityBurned)
	}

	balance0 := l.tokens.BalanceOf(p.token0, pool)
	balance1 := l.tokens.BalanceOf(p.token1, pool)

	amount0 := new(uint256.Int)
	if _, overflow := amount0.MulOverflow(liquidity, balance0); overflow {
		return nil, nil, fmt.Errorf("%w: liquidity * balance0", ErrOverflow)
	}
	amount0.Div(amount0, p.totalShares)

	amount1 := new(uint256.Int)
	if _, overflow := amount1.MulOverflow(liquidity, balance1); overflow {
		return nil, nil, fmt.Errorf("%w: liquidity * balance1", ErrOverflow)
	}
	amount1.Div(amount1, p.totalShares)

	if amount0.IsZero() || amount1.IsZero() {
		return nil, nil, ErrInsufficientLiquidityBurned
	}

	p.totalShares.Sub(p.totalShares, liquidity)
	liquidity.Clear()

	if err := l.tokens.Transfer(p.token0, pool, to, amount0); err != nil {
		return nil, nil, err
	}
	if err := l.tokens.Transfer(p.token1, pool, to, amount1); err != nil {
		return nil, nil, err
	}

	p.reserve0.Set(l.tokens.BalanceOf(p.token0, pool))
	p.reserve1.Set(l.tokens.BalanceOf(p.token1, pool))
	return amount0, amount1, nil
}

// Swap validates the requested outputs against whatever input has already
// arrived in the pool's account, enforcing the fee-adjusted constant-product
// invariant, then pays out. Validation happens entirely before any transfer:
// a failed swap moves nothing.
func (l *InMemoryPoolLedger) Swap(pool common.Address, amount0Out, amount1Out *uint256.Int, to engine.Account) error {
	p, err := l.pool(pool)
	if err != nil {
		return err
	}
	if amount0Out == nil || amount1Out == nil {
		return fmt.Errorf("pool %s: nil output amount", pool)
	}
	if amount0Out.IsZero() && amount1Out.IsZero() {
		return ErrInsufficientSwapOutput
	}
	if !amount0Out.Lt(p.reserve0) || !amount1Out.Lt(p.reserve1) {
		return fmt.Errorf("%w: out (%s, %s) vs reserves (%s, %s)",
			ErrInsufficientReserves, amount0Out.Dec(), amount1Out.Dec(), p.reserve0.Dec(), p.reserve1.Dec())
	}

	// Projected balances after paying out. Inputs are whatever sits above the
	// recorded reserves right now.
	balance0 := l.tokens.BalanceOf(p.token0, pool)
	balance1 := l.tokens.BalanceOf(p.token1, pool)
	if balance0.Lt(amount0Out) || balance1.Lt(amount1Out) {
		return fmt.Errorf("%w: pool balance below requested output", ErrInsufficientReserves)
	}
	balance0.Sub(balance0, amount0Out)
	balance1.Sub(balance1, amount1Out)

	amount0In := swapInput(balance0, p.reserve0, amount0Out)
	amount1In := swapInput(balance1, p.reserve1, amount1Out)
	if amount0In.IsZero() && amount1In.IsZero() {
		return ErrInsufficientSwapInput
	}

	adjusted0, err := adjustedBalance(balance0, amount0In)
	if err != nil {
		return err
	}
	adjusted1, err := adjustedBalance(balance1, amount1In)
	if err != nil {
		return err
	}

	left := new(uint256.Int)
	if _, overflow := left.MulOverflow(adjusted0, adjusted1); overflow {
		return fmt.Errorf("%w: adjusted balance product", ErrOverflow)
	}
	right := new(uint256.Int)
	if _, overflow := right.MulOverflow(p.reserve0, p.reserve1); overflow {
		return fmt.Errorf("%w: reserve product", ErrOverflow)
	}
	if _, overflow := right.MulOverflow(right, million); overflow {
		return fmt.Errorf("%w: scaled reserve product", ErrOverflow)
	}
	if left.Lt(right) {
		return fmt.Errorf("%w: %s < %s", ErrInvariantViolated, left.Dec(), right.Dec())
	}

	if !amount0Out.IsZero() {
		if err := l.tokens.Transfer(p.token0, pool, to, amount0Out); err != nil {
			return err
		}
	}
	if !amount1Out.IsZero() {
		if err := l.tokens.Transfer(p.token1, pool, to, amount1Out); err != nil {
			return err
		}
	}

	p.reserve0.Set(balance0)
	p.reserve1.Set(balance1)
	return nil
}

// swapInput returns balance - (reserve - out) when positive, else zero.
func swapInput(balance, reserve, out *uint256.Int) *uint256.Int {
	prior := new(uint256.Int).Sub(reserve, out)
	if balance.Gt(prior) {
		return prior.Sub(balance, prior)
	}
	return new(uint256.Int)
}

// adjustedBalance returns balance*1000 - in*3, the balance net of the 0.3%
// fee on this swap's input.
func adjustedBalance(balance, in *uint256.Int) (*uint256.Int, error) {
	adjusted := new(uint256.Int)
	if _, overflow := adjusted.MulOverflow(balance, thousand); overflow {
		return nil, fmt.Errorf("%w: balance * 1000", ErrOverflow)
	}
	fee := new(uint256.Int).Mul(in, three)
	adjusted.Sub(adjusted, fee)
	return adjusted, nil
}

// TotalShares returns a copy of the pool's outstanding share supply.
func (l *InMemoryPoolLedger) TotalShares(pool common.Address) (*uint256.Int, error) {
	p, err := l.pool(pool)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Set(p.totalShares), nil
}

// SharesOf returns a copy of an account's share balance; zero if unknown.
func (l *InMemoryPoolLedger) SharesOf(pool common.Address, account engine.Account) *uint256.Int {
	p, ok := l.pools[pool]
	if !ok {
		return new(uint256.Int)
	}
	if shares, ok := p.shares[account]; ok {
		return new(uint256.Int).Set(shares)
	}
	return new(uint256.Int)
}

// TransferShares moves shares between accounts.
func (l *InMemoryPoolLedger) TransferShares(pool common.Address, from, to engine.Account, amount *uint256.Int) error {
	p, err := l.pool(pool)
	if err != nil {
		return err
	}
	fromShares := p.shares[from]
	if fromShares == nil || fromShares.Lt(amount) {
		return fmt.Errorf("%w: shares of %s", ErrInsufficientBalance, from)
	}
	fromShares.Sub(fromShares, amount)
	l.creditShares(p, to, amount)
	return nil
}

// TransferSharesFrom moves shares on the owner's behalf, consuming the
// spender's share allowance.
func (l *InMemoryPoolLedger) TransferSharesFrom(pool common.Address, spender engine.Account, owner, to engine.Account, amount *uint256.Int) error {
	p, err := l.pool(pool)
	if err != nil {
		return err
	}
	var allowance *uint256.Int
	if spenders, ok := p.shareAllowances[owner]; ok {
		allowance = spenders[spender]
	}
	if allowance == nil || allowance.Lt(amount) {
		return fmt.Errorf("%w: share spender %s", ErrInsufficientAllowance, spender)
	}
	if err := l.TransferShares(pool, owner, to, amount); err != nil {
		return err
	}
	allowance.Sub(allowance, amount)
	return nil
}

// ApproveShares sets a share allowance by direct call. Not part of the
// PoolLedger contract; tests and owner-initiated flows use it.
func (l *InMemoryPoolLedger) ApproveShares(pool common.Address, owner, spender engine.Account, amount *uint256.Int) error {
	p, err := l.pool(pool)
	if err != nil {
		return err
	}
	spenders, ok := p.shareAllowances[owner]
	if !ok {
		spenders = make(map[engine.Account]*uint256.Int)
		p.shareAllowances[owner] = spenders
	}
	spenders[spender] = new(uint256.Int).Set(amount)
	return nil
}

// Authorize grants a share allowance by signature. The deadline is checked
// here; verification of the signature itself is delegated.
func (l *InMemoryPoolLedger) Authorize(pool common.Address, owner, spender engine.Account, amount *uint256.Int, deadline uint64, signature []byte) error {
	p, err := l.pool(pool)
	if err != nil {
		return err
	}
	if l.verify == nil {
		return ErrNoAuthorizationCapability
	}
	if uint64(l.clock.Now().Unix()) > deadline {
		return fmt.Errorf("%w: deadline %d", ErrExpiredAuthorization, deadline)
	}
	if err := l.verify(pool, owner, spender, amount, deadline, signature); err != nil {
		return err
	}

	spenders, ok := p.shareAllowances[owner]
	if !ok {
		spenders = make(map[engine.Account]*uint256.Int)
		p.shareAllowances[owner] = spenders
	}
	spenders[spender] = new(uint256.Int).Set(amount)
	return nil
}

func (l *InMemoryPoolLedger) creditShares(p *poolState, to engine.Account, amount *uint256.Int) {
	shares, ok := p.shares[to]
	if !ok {
		shares = new(uint256.Int)
		p.shares[to] = shares
	}
	shares.Add(shares, amount)
}

// issueShares mints new shares to an account, growing the total supply.
func (l *InMemoryPoolLedger) issueShares(p *poolState, to engine.Account, amount *uint256.Int) {
	l.creditShares(p, to, amount)
	p.totalShares.Add(p.totalShares, amount)
}

// snapshot returns a deep copy of every pool's state.
func (l *InMemoryPoolLedger) snapshot() map[common.Address]*poolState {
	poolsCopy := make(map[common.Address]*poolState, len(l.pools))
	for addr, p := range l.pools {
		sharesCopy := make(map[engine.Account]*uint256.Int, len(p.shares))
		for account, shares := range p.shares {
			sharesCopy[account] = new(uint256.Int).Set(shares)
		}
		allowancesCopy := make(map[engine.Account]map[engine.Account]*uint256.Int, len(p.shareAllowances))
		for owner, spenders := range p.shareAllowances {
			spendersCopy := make(map[engine.Account]*uint256.Int, len(spenders))
			for spender, allowance := range spenders {
				spendersCopy[spender] = new(uint256.Int).Set(allowance)
			}
			allowancesCopy[owner] = spendersCopy
		}
		poolsCopy[addr] = &poolState{
			token0:          p.token0,
			token1:          p.token1,
			reserve0:        new(uint256.Int).Set(p.reserve0),
			reserve1:        new(uint256.Int).Set(p.reserve1),
			totalShares:     new(uint256.Int).Set(p.totalShares),
			shares:          sharesCopy,
			shareAllowances: allowancesCopy,
		}
	}
	return poolsCopy
}

func (l *InMemoryPoolLedger) restore(snap map[common.Address]*poolState) {
	l.pools = snap
}
