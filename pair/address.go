package pair

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/defistate/amm-engine-go/engine"
)

// Deployment pins the registry-specific constants of the deterministic
// address derivation: the registry seed address and the fingerprint of the
// pool template it instantiates. The registry and the routing layer MUST
// share one Deployment value; if they drift, every derived address points
// at a pool the registry never created.
type Deployment struct {
	// Factory is the registry seed mixed into every derived address.
	Factory common.Address `json:"factory"`
	// TemplateFingerprint commits to the pool template (the init code hash
	// in the on-chain original).
	TemplateFingerprint common.Hash `json:"templateFingerprint"`
}

// AddressFor derives the pool address for an unordered pair without any
// registry lookup. It is a pure function of the sorted pair and the
// Deployment constants:
//
//	keccak256(0xff ++ factory ++ keccak256(token0 ++ token1) ++ fingerprint)[12:]
func (d Deployment) AddressFor(tokenA, tokenB engine.Asset) (common.Address, error) {
	token0, token1, err := SortAssets(tokenA, tokenB)
	if err != nil {
		return common.Address{}, err
	}

	salt := crypto.Keccak256(token0.Bytes(), token1.Bytes())

	preimage := make([]byte, 0, 1+common.AddressLength+2*common.HashLength)
	preimage = append(preimage, 0xff)
	preimage = append(preimage, d.Factory.Bytes()...)
	preimage = append(preimage, salt...)
	preimage = append(preimage, d.TemplateFingerprint.Bytes()...)

	return common.BytesToAddress(crypto.Keccak256(preimage)[12:]), nil
}
