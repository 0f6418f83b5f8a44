// Package ledger defines the external collaborators the routing core
// instructs but never owns: the fungible-token transfer primitive, the pool
// share/reserve ledger, and the native-asset wrapper. Reference in-memory
// implementations are provided so the full orchestration can run and be
// tested without a chain behind it.
//
// The reference implementations are not safe for concurrent use by
// themselves. Public operations are totally ordered by the host's
// transaction sequencing; the router executes one operation at a time
// against them.
package ledger

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/defistate/amm-engine-go/engine"
)

var (
	// ErrInsufficientBalance is returned when a transfer exceeds the sender's balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInsufficientAllowance is returned when a delegated transfer exceeds the
	// spender's approved allowance.
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	// ErrUnknownPool is returned when a pool address has not been registered.
	ErrUnknownPool = errors.New("unknown pool")
	// ErrUnknownAsset is returned for an asset the ledger has never seen.
	ErrUnknownAsset = errors.New("unknown asset")
	// ErrExpiredAuthorization is returned when an authorization deadline has passed.
	ErrExpiredAuthorization = errors.New("authorization expired")
	// ErrUnsolicitedNative is returned when a plain native-value transfer targets
	// an account that only accepts native value from the wrapper's unwrap path.
	ErrUnsolicitedNative = errors.New("unsolicited native transfer rejected")
)

// TokenLedger is the fungible-asset transfer primitive. Both transfer forms
// fail atomically: on error no balance has moved.
type TokenLedger interface {
	BalanceOf(token engine.Asset, account engine.Account) *uint256.Int
	Transfer(token engine.Asset, from, to engine.Account, amount *uint256.Int) error
	TransferFrom(token engine.Asset, spender engine.Account, owner, to engine.Account, amount *uint256.Int) error
	Approve(token engine.Asset, owner, spender engine.Account, amount *uint256.Int)
}

// PoolLedger owns pool reserves and liquidity shares. The routing core never
// mutates reserves directly; it only instructs this ledger, which performs
// the final invariant check on every swap.
type PoolLedger interface {
	// Register creates ledger-side state for a pool the registry has just
	// created. token0 and token1 must be in canonical order.
	Register(pool common.Address, token0, token1 engine.Asset) error

	// Reserves returns the pool's reserves in canonical (token0, token1) order.
	Reserves(pool common.Address) (reserve0, reserve1 *uint256.Int, err error)

	// Swap sends amount0Out of token0 and amount1Out of token1 to the
	// destination, then verifies the constant-product invariant net of fee
	// against whatever input has already arrived in the pool's account.
	Swap(pool common.Address, amount0Out, amount1Out *uint256.Int, to engine.Account) error

	// Mint credits liquidity shares to the destination, proportional to the
	// deposit it finds above the recorded reserves.
	Mint(pool common.Address, to engine.Account) (*uint256.Int, error)

	// Burn redeems the shares held by the pool's own account, paying out both
	// assets pro rata to the destination.
	Burn(pool common.Address, to engine.Account) (amount0, amount1 *uint256.Int, err error)

	TotalShares(pool common.Address) (*uint256.Int, error)
	SharesOf(pool common.Address, account engine.Account) *uint256.Int
	TransferShares(pool common.Address, from, to engine.Account, amount *uint256.Int) error
	TransferSharesFrom(pool common.Address, spender engine.Account, owner, to engine.Account, amount *uint256.Int) error

	// Authorize grants a share allowance by signature instead of a direct
	// call, honoring its own deadline. Signature verification is delegated to
	// an opaque external capability.
	Authorize(pool common.Address, owner, spender engine.Account, amount *uint256.Int, deadline uint64, signature []byte) error
}
