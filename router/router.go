// Package router orchestrates the public AMM operations: liquidity
// deposits and withdrawals, single- and multi-hop swaps, and their
// native-asset variants. It computes exact amounts first, validates every
// deadline and slippage bound before touching any reserve, and then
// instructs the external ledgers, never holding custody of intermediate
// balances itself.
package router

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/defistate/amm-engine-go/calculator"
	"github.com/defistate/amm-engine-go/engine"
	"github.com/defistate/amm-engine-go/ledger"
	"github.com/defistate/amm-engine-go/pair"
	"github.com/defistate/amm-engine-go/registry"
)

// Transactional is an all-or-nothing boundary around one mutating
// operation. Begin snapshots state and returns the rollback; discarding the
// rollback commits.
type Transactional interface {
	Begin() (rollback func())
}

// Config holds the router's collaborators and dependencies.
type Config struct {
	// Pairs is the pool registry. Required.
	Pairs *registry.PairSystem
	// Pools is the pool reserve/share ledger. Required.
	Pools ledger.PoolLedger
	// Tokens is the fungible-asset transfer primitive. Required.
	Tokens ledger.TokenLedger
	// Wrapper adapts the chain-native asset. Optional; without it the
	// native-asset entry points fail with ErrNativeUnsupported.
	Wrapper *ledger.WrappedNative
	// Account is the router's own settlement account, used as the transient
	// stop for native wrap/unwrap legs. Required.
	Account engine.Account
	// Tx wraps every mutating operation in an all-or-nothing boundary.
	// Optional; without it a mid-operation ledger failure is the ledger's
	// problem to contain.
	Tx Transactional
	// Clock supplies the current time for deadline checks. Defaults to the
	// system clock.
	Clock engine.Clock
	// Logger is required.
	Logger engine.Logger
	// Registry receives the router's metrics. Required.
	Registry prometheus.Registerer
}

// validate checks that all required dependencies are present.
func (c *Config) validate() error {
	if c.Pairs == nil {
		return errors.New("config: Pairs cannot be nil")
	}
	if c.Pools == nil {
		return errors.New("config: Pools cannot be nil")
	}
	if c.Tokens == nil {
		return errors.New("config: Tokens cannot be nil")
	}
	if c.Account == (engine.Account{}) {
		return errors.New("config: Account cannot be the zero address")
	}
	if c.Logger == nil {
		return errors.New("config: Logger cannot be nil")
	}
	if c.Registry == nil {
		return errors.New("config: Registry cannot be nil")
	}
	return nil
}

// Router is the orchestrating entry point for every public AMM operation.
type Router struct {
	pairs      *registry.PairSystem
	pools      ledger.PoolLedger
	tokens     ledger.TokenLedger
	wrapper    *ledger.WrappedNative
	account    engine.Account
	deployment pair.Deployment
	tx         Transactional
	clock      engine.Clock
	logger     engine.Logger
	metrics    *metrics
}

// NewRouter constructs a router from a configuration, returning an error if
// the configuration is invalid. If a native wrapper and ledger are present,
// the router's account is guarded so that the only plain native transfers it
// accepts are the wrapper's unwrap payouts.
func NewRouter(cfg *Config) (*Router, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	clock := cfg.Clock
	if clock == nil {
		clock = engine.SystemClock{}
	}

	r := &Router{
		pairs:      cfg.Pairs,
		pools:      cfg.Pools,
		tokens:     cfg.Tokens,
		wrapper:    cfg.Wrapper,
		account:    cfg.Account,
		deployment: cfg.Pairs.Deployment(),
		tx:         cfg.Tx,
		clock:      clock,
		logger:     cfg.Logger,
		metrics:    newMetrics(cfg.Registry),
	}

	if cfg.Wrapper != nil {
		vault := cfg.Wrapper.Vault()
		cfg.Wrapper.Native().SetGuard(r.account, func(from engine.Account) bool {
			return from == vault
		})
	}
	return r, nil
}

// ensureDeadline fails the operation before any work if the deadline has
// passed.
func (r *Router) ensureDeadline(deadline uint64) error {
	now := uint64(r.clock.Now().Unix())
	if now > deadline {
		return fmt.Errorf("%w: now %d, deadline %d", ErrExpired, now, deadline)
	}
	return nil
}

// begin opens the transaction boundary, if one is configured.
func (r *Router) begin() (rollback func()) {
	if r.tx == nil {
		return func() {}
	}
	return r.tx.Begin()
}

// pairAddress derives a hop's pool address with no registry lookup. The
// registry guarantees by construction that created pools land exactly here.
func (r *Router) pairAddress(tokenA, tokenB engine.Asset) (common.Address, error) {
	return r.deployment.AddressFor(tokenA, tokenB)
}

// ReservesToward returns the reserves of the pool for one hop, ordered by
// the direction of travel. It implements calculator.ReserveSource; reads
// within one path computation see the same operation's state.
func (r *Router) ReservesToward(assetIn, assetOut engine.Asset) (*uint256.Int, *uint256.Int, error) {
	address, err := r.pairAddress(assetIn, assetOut)
	if err != nil {
		return nil, nil, err
	}
	reserve0, reserve1, err := r.pools.Reserves(address)
	if err != nil {
		return nil, nil, err
	}
	token0, _, err := pair.SortAssets(assetIn, assetOut)
	if err != nil {
		return nil, nil, err
	}
	if assetIn == token0 {
		return reserve0, reserve1, nil
	}
	return reserve1, reserve0, nil
}

// --- Pure queries ---

// Quote returns the amount of asset B matching amountA at the given ratio.
func (r *Router) Quote(amountA, reserveA, reserveB *uint256.Int) (*uint256.Int, error) {
	return calculator.Quote(amountA, reserveA, reserveB)
}

// GetAmountOut returns the output a swap of amountIn obtains against the
// given reserves.
func (r *Router) GetAmountOut(amountIn, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	return calculator.GetAmountOut(amountIn, reserveIn, reserveOut)
}

// GetAmountIn returns the input required to obtain amountOut against the
// given reserves. This calls the true inverse formula, so query results
// always agree with what execution will charge.
func (r *Router) GetAmountIn(amountOut, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	return calculator.GetAmountIn(amountOut, reserveIn, reserveOut)
}

// GetAmountsOut returns the hop-by-hop amounts of swapping amountIn forward
// along the path, against current reserves.
func (r *Router) GetAmountsOut(amountIn *uint256.Int, path []engine.Asset) ([]*uint256.Int, error) {
	return calculator.GetAmountsOut(r, amountIn, path)
}

// GetAmountsIn returns the hop-by-hop amounts required to obtain amountOut
// at the end of the path, against current reserves.
func (r *Router) GetAmountsIn(amountOut *uint256.Int, path []engine.Asset) ([]*uint256.Int, error) {
	return calculator.GetAmountsIn(r, amountOut, path)
}

// --- Swap orchestration ---

// executeSwap settles a precomputed multi-hop swap. Each hop's output is
// sent directly to the next hop's pool, and only the last hop pays the
// recipient, so the router never holds an intermediate balance. The first
// hop's input must already sit in the first pool's account.
func (r *Router) executeSwap(amounts []*uint256.Int, path []engine.Asset, to engine.Account) error {
	for i := 0; i < len(path)-1; i++ {
		input, output := path[i], path[i+1]
		token0, _, err := pair.SortAssets(input, output)
		if err != nil {
			return err
		}

		amount0Out, amount1Out := new(uint256.Int), new(uint256.Int)
		if input == token0 {
			amount1Out.Set(amounts[i+1])
		} else {
			amount0Out.Set(amounts[i+1])
		}

		destination := to
		if i < len(path)-2 {
			destination, err = r.pairAddress(output, path[i+2])
			if err != nil {
				return err
			}
		}

		pool, err := r.pairAddress(input, output)
		if err != nil {
			return err
		}
		if err := r.pools.Swap(pool, amount0Out, amount1Out, destination); err != nil {
			return fmt.Errorf("%w: hop %d: %w", ErrTransferFailed, i, err)
		}
	}
	return nil
}
