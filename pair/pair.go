package pair

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/defistate/amm-engine-go/engine"
)

var (
	// ErrIdenticalAssets is returned when both sides of a pair are the same asset.
	ErrIdenticalAssets = errors.New("identical assets")
	// ErrZeroAsset is returned when an asset identity is the zero address.
	ErrZeroAsset = errors.New("zero asset address")
)

// Pool is a point-in-time snapshot of one constant-product pool: its
// deterministic address, the pair in canonical order, and the reserves in
// that same order.
type Pool struct {
	Address  common.Address `json:"address"`
	Token0   engine.Asset   `json:"token0"`
	Token1   engine.Asset   `json:"token1"`
	Reserve0 *uint256.Int   `json:"reserve0"`
	Reserve1 *uint256.Int   `json:"reserve1"`
}

// Key is the canonical identity of an unordered asset pair: token0 bytes
// followed by token1 bytes, sorted. Comparable, so it can key a map.
type Key [2 * common.AddressLength]byte

// SortAssets canonicalizes an unordered pair by byte-wise address order, so
// (A,B) and (B,A) always yield the same (token0, token1).
func SortAssets(tokenA, tokenB engine.Asset) (token0, token1 engine.Asset, err error) {
	if tokenA == tokenB {
		return engine.Asset{}, engine.Asset{}, ErrIdenticalAssets
	}
	if tokenA.Cmp(tokenB) < 0 {
		token0, token1 = tokenA, tokenB
	} else {
		token0, token1 = tokenB, tokenA
	}
	if token0 == (engine.Asset{}) {
		return engine.Asset{}, engine.Asset{}, ErrZeroAsset
	}
	return token0, token1, nil
}

// KeyFor returns the canonical Key for an unordered pair.
func KeyFor(tokenA, tokenB engine.Asset) (Key, error) {
	token0, token1, err := SortAssets(tokenA, tokenB)
	if err != nil {
		return Key{}, err
	}
	var k Key
	copy(k[:common.AddressLength], token0.Bytes())
	copy(k[common.AddressLength:], token1.Bytes())
	return k, nil
}

// DeepCopy creates a new Pool with its own memory for the reserve values.
// This is essential to prevent a snapshot from sharing memory with live state.
func (p Pool) DeepCopy() Pool {
	newPool := p
	if p.Reserve0 != nil {
		newPool.Reserve0 = new(uint256.Int).Set(p.Reserve0)
	}
	if p.Reserve1 != nil {
		newPool.Reserve1 = new(uint256.Int).Set(p.Reserve1)
	}
	return newPool
}

// ReservesToward returns the pool's reserves ordered by the direction of
// travel: the reserve of assetIn first, then the reserve of assetOut.
func (p Pool) ReservesToward(assetIn, assetOut engine.Asset) (reserveIn, reserveOut *uint256.Int, err error) {
	switch {
	case assetIn == p.Token0 && assetOut == p.Token1:
		return p.Reserve0, p.Reserve1, nil
	case assetIn == p.Token1 && assetOut == p.Token0:
		return p.Reserve1, p.Reserve0, nil
	default:
		return nil, nil, ErrPairMismatch
	}
}

// ErrPairMismatch is returned when a pool does not hold the requested pair.
var ErrPairMismatch = errors.New("pool does not contain the requested pair")
