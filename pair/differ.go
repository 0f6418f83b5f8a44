package pair

import "github.com/ethereum/go-ethereum/common"

// PoolSetDiff summarizes the changes between two pool snapshots.
type PoolSetDiff struct {
	Additions []Pool           `json:"additions,omitempty"`
	Updates   []Pool           `json:"updates,omitempty"`
	Deletions []common.Address `json:"deletions,omitempty"`
}

// IsEmpty returns true if the diff contains no changes.
func (d PoolSetDiff) IsEmpty() bool {
	return len(d.Additions) == 0 && len(d.Updates) == 0 && len(d.Deletions) == 0
}

// Diff calculates the difference between two pool snapshots. It follows the
// standard pattern for diffing lists of objects:
// 1. Convert both lists into maps for O(1) average lookups.
// 2. Iterate the new map to identify additions and updates.
// 3. Iterate the old map to identify deletions.
// Only the reserves are compared for updates; a pool's address and pair are
// immutable for its whole lifetime.
func Diff(old, new []Pool) PoolSetDiff {
	oldPools := make(map[common.Address]Pool, len(old))
	for _, pool := range old {
		oldPools[pool.Address] = pool
	}

	newPools := make(map[common.Address]Pool, len(new))
	for _, pool := range new {
		newPools[pool.Address] = pool
	}

	var additions []Pool
	var updates []Pool
	var deletions []common.Address

	for addr, newPool := range newPools {
		oldPool, exists := oldPools[addr]
		if !exists {
			additions = append(additions, newPool)
			continue
		}
		if oldPool.Reserve0.Cmp(newPool.Reserve0) != 0 || oldPool.Reserve1.Cmp(newPool.Reserve1) != 0 {
			updates = append(updates, newPool)
		}
	}

	for addr := range oldPools {
		if _, exists := newPools[addr]; !exists {
			deletions = append(deletions, addr)
		}
	}

	return PoolSetDiff{
		Additions: additions,
		Updates:   updates,
		Deletions: deletions,
	}
}

// ApplyDiff constructs a new snapshot by applying a diff to a previous one.
// Every pool carried into the result is deep-copied so the new snapshot
// shares no reserve memory with the old one.
func ApplyDiff(prev []Pool, diff PoolSetDiff) []Pool {
	next := make(map[common.Address]Pool, len(prev))
	for _, pool := range prev {
		next[pool.Address] = pool.DeepCopy()
	}

	for _, addr := range diff.Deletions {
		delete(next, addr)
	}
	for _, pool := range diff.Updates {
		next[pool.Address] = pool.DeepCopy()
	}
	for _, pool := range diff.Additions {
		next[pool.Address] = pool.DeepCopy()
	}

	final := make([]Pool, 0, len(next))
	for _, pool := range next {
		final = append(final, pool)
	}
	return final
}
