package ledger

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/defistate/amm-engine-go/engine"
)

// NativeLedger tracks balances of the chain-native unit. The native unit is
// not a TokenLedger asset: it cannot be transferred by the standard
// primitive and must be wrapped before it can sit in a pool.
//
// Two transfer paths exist. Escrow models value attached to an invocation
// the recipient is executing; it is always accepted. Transfer models a
// plain incoming payment; recipients may install a guard that rejects
// payments from unexpected senders.
type NativeLedger struct {
	balances map[engine.Account]*uint256.Int
	guards   map[engine.Account]func(from engine.Account) bool
}

// NewNativeLedger creates an empty native-unit ledger.
func NewNativeLedger() *NativeLedger {
	return &NativeLedger{
		balances: make(map[engine.Account]*uint256.Int),
		guards:   make(map[engine.Account]func(from engine.Account) bool),
	}
}

// BalanceOf returns a copy of the account's native balance.
func (l *NativeLedger) BalanceOf(account engine.Account) *uint256.Int {
	if balance, ok := l.balances[account]; ok {
		return new(uint256.Int).Set(balance)
	}
	return new(uint256.Int)
}

// Credit issues native units to an account. Test faucet.
func (l *NativeLedger) Credit(account engine.Account, amount *uint256.Int) {
	balance, ok := l.balances[account]
	if !ok {
		balance = new(uint256.Int)
		l.balances[account] = balance
	}
	balance.Add(balance, amount)
}

// SetGuard installs an acceptance predicate for plain transfers into an
// account. A nil guard removes any restriction.
func (l *NativeLedger) SetGuard(account engine.Account, guard func(from engine.Account) bool) {
	if guard == nil {
		delete(l.guards, account)
		return
	}
	l.guards[account] = guard
}

// Escrow moves value attached to an invocation. Never guard-checked.
func (l *NativeLedger) Escrow(from, to engine.Account, amount *uint256.Int) error {
	return l.move(from, to, amount)
}

// Transfer moves value as a plain payment, consulting the recipient's guard.
func (l *NativeLedger) Transfer(from, to engine.Account, amount *uint256.Int) error {
	if guard, ok := l.guards[to]; ok && !guard(from) {
		return fmt.Errorf("%w: %s -> %s", ErrUnsolicitedNative, from, to)
	}
	return l.move(from, to, amount)
}

func (l *NativeLedger) move(from, to engine.Account, amount *uint256.Int) error {
	fromBalance, ok := l.balances[from]
	if !ok || fromBalance.Lt(amount) {
		return fmt.Errorf("%w: native transfer %s from %s", ErrInsufficientBalance, amount.Dec(), from)
	}
	toBalance, ok := l.balances[to]
	if !ok {
		toBalance = new(uint256.Int)
		l.balances[to] = toBalance
	}
	fromBalance.Sub(fromBalance, amount)
	toBalance.Add(toBalance, amount)
	return nil
}

// snapshot returns a deep copy of all native balances.
func (l *NativeLedger) snapshot() map[engine.Account]*uint256.Int {
	balancesCopy := make(map[engine.Account]*uint256.Int, len(l.balances))
	for account, balance := range l.balances {
		balancesCopy[account] = new(uint256.Int).Set(balance)
	}
	return balancesCopy
}

func (l *NativeLedger) restore(snap map[engine.Account]*uint256.Int) {
	l.balances = snap
}

// WrappedNative is the native-asset wrapper primitive: it holds escrowed
// native value in its vault account and issues a standard transferable
// asset 1:1 against it.
type WrappedNative struct {
	asset  engine.Asset
	vault  engine.Account
	native *NativeLedger
	tokens *InMemoryTokenLedger
}

// NewWrappedNative creates a wrapper issuing the given asset, with native
// custody at the vault account.
func NewWrappedNative(asset engine.Asset, vault engine.Account, native *NativeLedger, tokens *InMemoryTokenLedger) *WrappedNative {
	return &WrappedNative{asset: asset, vault: vault, native: native, tokens: tokens}
}

// Asset returns the wrapped representation's asset identity.
func (w *WrappedNative) Asset() engine.Asset { return w.asset }

// Vault returns the account holding the escrowed native value. Plain native
// transfers from this account are the wrapper's unwrap payouts.
func (w *WrappedNative) Vault() engine.Account { return w.vault }

// Native returns the underlying native-unit ledger.
func (w *WrappedNative) Native() *NativeLedger { return w.native }

// Wrap escrows native value from the caller into the vault and credits the
// wrapped asset 1:1 to the destination.
func (w *WrappedNative) Wrap(from, to engine.Account, amount *uint256.Int) error {
	if err := w.native.Escrow(from, w.vault, amount); err != nil {
		return err
	}
	w.tokens.Mint(w.asset, to, amount)
	return nil
}

// Unwrap burns the wrapped asset from the owner and pays native value 1:1
// to the destination.
func (w *WrappedNative) Unwrap(owner, to engine.Account, amount *uint256.Int) error {
	if err := w.tokens.Burn(w.asset, owner, amount); err != nil {
		return err
	}
	return w.native.Transfer(w.vault, to, amount)
}
