package registry

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/defistate/amm-engine-go/engine"
	"github.com/defistate/amm-engine-go/pair"
)

// ErrPairExists is returned when creating a pool for a pair that already has one.
var ErrPairExists = errors.New("pair already has a pool")

// Entry is one created pool: its deterministic address and its pair in
// canonical order. Reserves live in the pool ledger, not here; the registry
// only answers identity questions.
type Entry struct {
	Address common.Address `json:"address"`
	Token0  engine.Asset   `json:"token0"`
	Token1  engine.Asset   `json:"token1"`
}

// PairRegistryView is a snapshot of every created pool, safe for the caller
// to keep and mutate.
type PairRegistryView struct {
	Entries []Entry `json:"entries"`
}

// PairRegistry is a simple, non-thread-safe indexed table of created pools,
// keyed by the canonical pair. Entries live in a slice arena with a map
// index into it, so iteration order is creation order.
//
// Invariant, by construction: every entry's Address equals exactly what
// Deployment.AddressFor predicts for its pair. Routing derives addresses
// without consulting the registry and relies on this agreement.
type PairRegistry struct {
	deployment pair.Deployment

	keyToIndex map[pair.Key]int
	entries    []Entry
}

// NewPairRegistry creates a new, properly initialized registry bound to a
// deployment.
func NewPairRegistry(deployment pair.Deployment) *PairRegistry {
	return &PairRegistry{
		deployment: deployment,
		keyToIndex: make(map[pair.Key]int),
		entries:    make([]Entry, 0),
	}
}

// NewPairRegistryFromView reconstructs a registry from a snapshot. The view
// data is copied, so the new registry has full ownership of its memory.
func NewPairRegistryFromView(view *PairRegistryView, deployment pair.Deployment) (*PairRegistry, error) {
	r := NewPairRegistry(deployment)
	for _, entry := range view.Entries {
		key, err := pair.KeyFor(entry.Token0, entry.Token1)
		if err != nil {
			return nil, fmt.Errorf("invalid entry %s: %w", entry.Address, err)
		}
		if _, exists := r.keyToIndex[key]; exists {
			return nil, fmt.Errorf("%w: duplicate entry for %s/%s", ErrPairExists, entry.Token0, entry.Token1)
		}
		r.keyToIndex[key] = len(r.entries)
		r.entries = append(r.entries, entry)
	}
	return r, nil
}

// Deployment returns the address-derivation constants this registry creates
// pools under.
func (r *PairRegistry) Deployment() pair.Deployment {
	return r.deployment
}

func (r *PairRegistry) get(tokenA, tokenB engine.Asset) (Entry, bool) {
	key, err := pair.KeyFor(tokenA, tokenB)
	if err != nil {
		return Entry{}, false
	}
	index, exists := r.keyToIndex[key]
	if !exists {
		return Entry{}, false
	}
	return r.entries[index], true
}

// create registers a pool for a never-before-seen pair at the address the
// deployment derivation predicts.
func (r *PairRegistry) create(tokenA, tokenB engine.Asset) (Entry, error) {
	key, err := pair.KeyFor(tokenA, tokenB)
	if err != nil {
		return Entry{}, err
	}
	if index, exists := r.keyToIndex[key]; exists {
		return r.entries[index], ErrPairExists
	}

	token0, token1, err := pair.SortAssets(tokenA, tokenB)
	if err != nil {
		return Entry{}, err
	}
	address, err := r.deployment.AddressFor(token0, token1)
	if err != nil {
		return Entry{}, err
	}

	entry := Entry{Address: address, Token0: token0, Token1: token1}
	r.keyToIndex[key] = len(r.entries)
	r.entries = append(r.entries, entry)
	return entry, nil
}

// len reports the number of created pools.
func (r *PairRegistry) len() int {
	return len(r.entries)
}

// view returns a deep copy of the registry's entries.
func (r *PairRegistry) view() *PairRegistryView {
	entriesCopy := make([]Entry, len(r.entries))
	copy(entriesCopy, r.entries)
	return &PairRegistryView{Entries: entriesCopy}
}
