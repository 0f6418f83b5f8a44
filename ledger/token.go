package ledger

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/defistate/amm-engine-go/engine"
)

// InMemoryTokenLedger is the reference TokenLedger: balances and allowances
// held in maps, every mutation all-or-nothing.
type InMemoryTokenLedger struct {
	balances   map[engine.Asset]map[engine.Account]*uint256.Int
	allowances map[engine.Asset]map[engine.Account]map[engine.Account]*uint256.Int
}

// NewInMemoryTokenLedger creates an empty token ledger.
func NewInMemoryTokenLedger() *InMemoryTokenLedger {
	return &InMemoryTokenLedger{
		balances:   make(map[engine.Asset]map[engine.Account]*uint256.Int),
		allowances: make(map[engine.Asset]map[engine.Account]map[engine.Account]*uint256.Int),
	}
}

// BalanceOf returns a copy of the account's balance; zero for unknown pairs.
func (l *InMemoryTokenLedger) BalanceOf(token engine.Asset, account engine.Account) *uint256.Int {
	if holders, ok := l.balances[token]; ok {
		if balance, ok := holders[account]; ok {
			return new(uint256.Int).Set(balance)
		}
	}
	return new(uint256.Int)
}

// Mint credits freshly issued units to an account. It is not part of the
// TokenLedger contract; tests and the native wrapper use it directly.
func (l *InMemoryTokenLedger) Mint(token engine.Asset, to engine.Account, amount *uint256.Int) {
	holders, ok := l.balances[token]
	if !ok {
		holders = make(map[engine.Account]*uint256.Int)
		l.balances[token] = holders
	}
	balance, ok := holders[to]
	if !ok {
		balance = new(uint256.Int)
		holders[to] = balance
	}
	balance.Add(balance, amount)
}

// Burn destroys units held by an account.
func (l *InMemoryTokenLedger) Burn(token engine.Asset, from engine.Account, amount *uint256.Int) error {
	holders, ok := l.balances[token]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAsset, token)
	}
	balance, ok := holders[from]
	if !ok || balance.Lt(amount) {
		return fmt.Errorf("%w: burn %s from %s", ErrInsufficientBalance, amount.Dec(), from)
	}
	balance.Sub(balance, amount)
	return nil
}

// Transfer moves units between accounts. On error no balance has moved.
func (l *InMemoryTokenLedger) Transfer(token engine.Asset, from, to engine.Account, amount *uint256.Int) error {
	holders, ok := l.balances[token]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAsset, token)
	}
	fromBalance, ok := holders[from]
	if !ok || fromBalance.Lt(amount) {
		return fmt.Errorf("%w: transfer %s from %s", ErrInsufficientBalance, amount.Dec(), from)
	}

	toBalance, ok := holders[to]
	if !ok {
		toBalance = new(uint256.Int)
		holders[to] = toBalance
	}
	fromBalance.Sub(fromBalance, amount)
	toBalance.Add(toBalance, amount)
	return nil
}

// TransferFrom moves units on behalf of their owner, consuming the spender's
// allowance. On error neither the allowance nor any balance has moved.
func (l *InMemoryTokenLedger) TransferFrom(token engine.Asset, spender engine.Account, owner, to engine.Account, amount *uint256.Int) error {
	allowance := l.allowance(token, owner, spender)
	if allowance == nil || allowance.Lt(amount) {
		return fmt.Errorf("%w: spender %s on %s", ErrInsufficientAllowance, spender, token)
	}
	if err := l.Transfer(token, owner, to, amount); err != nil {
		return err
	}
	allowance.Sub(allowance, amount)
	return nil
}

// Approve sets the spender's allowance over the owner's balance.
func (l *InMemoryTokenLedger) Approve(token engine.Asset, owner, spender engine.Account, amount *uint256.Int) {
	owners, ok := l.allowances[token]
	if !ok {
		owners = make(map[engine.Account]map[engine.Account]*uint256.Int)
		l.allowances[token] = owners
	}
	spenders, ok := owners[owner]
	if !ok {
		spenders = make(map[engine.Account]*uint256.Int)
		owners[owner] = spenders
	}
	spenders[spender] = new(uint256.Int).Set(amount)
}

func (l *InMemoryTokenLedger) allowance(token engine.Asset, owner, spender engine.Account) *uint256.Int {
	if owners, ok := l.allowances[token]; ok {
		if spenders, ok := owners[owner]; ok {
			return spenders[spender]
		}
	}
	return nil
}

// snapshot returns a deep copy of all balances and allowances.
func (l *InMemoryTokenLedger) snapshot() *InMemoryTokenLedger {
	copyLedger := NewInMemoryTokenLedger()
	for token, holders := range l.balances {
		holdersCopy := make(map[engine.Account]*uint256.Int, len(holders))
		for account, balance := range holders {
			holdersCopy[account] = new(uint256.Int).Set(balance)
		}
		copyLedger.balances[token] = holdersCopy
	}
	for token, owners := range l.allowances {
		ownersCopy := make(map[engine.Account]map[engine.Account]*uint256.Int, len(owners))
		for owner, spenders := range owners {
			spendersCopy := make(map[engine.Account]*uint256.Int, len(spenders))
			for spender, allowance := range spenders {
				spendersCopy[spender] = new(uint256.Int).Set(allowance)
			}
			ownersCopy[owner] = spendersCopy
		}
		copyLedger.allowances[token] = ownersCopy
	}
	return copyLedger
}

// restore replaces the ledger's state with a snapshot's.
func (l *InMemoryTokenLedger) restore(snap *InMemoryTokenLedger) {
	l.balances = snap.balances
	l.allowances = snap.allowances
}
