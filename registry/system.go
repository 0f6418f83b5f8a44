package registry

import (
	"sync"
	"sync/atomic"

	"github.com/defistate/amm-engine-go/engine"
	"github.com/defistate/amm-engine-go/pair"
)

// PairSystem provides a concurrency-safe layer over PairRegistry. It uses a
// sync.RWMutex for writes and an atomic.Pointer for lock-free snapshot reads.
type PairSystem struct {
	mu         sync.RWMutex
	registry   *PairRegistry
	cachedView atomic.Pointer[PairRegistryView] // Read-optimized cache of the registry view
}

// NewPairSystem creates and initializes a new, concurrency-safe PairSystem
// bound to a deployment.
func NewPairSystem(deployment pair.Deployment) *PairSystem {
	s := &PairSystem{
		registry: NewPairRegistry(deployment),
	}
	// Initialize the cached view with an empty, non-nil snapshot.
	s.cachedView.Store(s.registry.view())
	return s
}

// NewPairSystemFromView creates a concurrency-safe system from a snapshot,
// reconstructing the underlying registry and initializing the read cache.
func NewPairSystemFromView(view *PairRegistryView, deployment pair.Deployment) (*PairSystem, error) {
	registry, err := NewPairRegistryFromView(view, deployment)
	if err != nil {
		return nil, err
	}
	s := &PairSystem{
		registry: registry,
	}
	s.cachedView.Store(s.registry.view())
	return s, nil
}

// updateCachedView generates a fresh view and atomically updates the pointer.
// MUST be called from within a write lock.
func (s *PairSystem) updateCachedView() {
	s.cachedView.Store(s.registry.view())
}

// Deployment returns the address-derivation constants of this system.
func (s *PairSystem) Deployment() pair.Deployment {
	return s.registry.Deployment()
}

// Get returns the pool entry for an unordered pair, if one has been created.
func (s *PairSystem) Get(tokenA, tokenB engine.Asset) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.get(tokenA, tokenB)
}

// Create registers a pool for a never-before-seen pair. It fails with
// ErrPairExists (returning the existing entry) if the pair already has one.
func (s *PairSystem) Create(tokenA, tokenB engine.Asset) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.registry.create(tokenA, tokenB)
	if err != nil {
		return entry, err
	}
	s.updateCachedView()
	return entry, nil
}

// GetOrCreate returns the existing entry for a pair, creating the pool first
// if this is the pair's first use. created reports whether a new pool was made.
func (s *PairSystem) GetOrCreate(tokenA, tokenB engine.Asset) (entry Entry, created bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.registry.get(tokenA, tokenB); ok {
		return entry, false, nil
	}
	entry, err = s.registry.create(tokenA, tokenB)
	if err != nil {
		return Entry{}, false, err
	}
	s.updateCachedView()
	return entry, true, nil
}

// Len reports the number of created pools.
func (s *PairSystem) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.len()
}

// View returns a thread-safe copy of every created pool. Reads come from the
// atomic cache, so concurrent callers never contend with writers.
func (s *PairSystem) View() *PairRegistryView {
	cached := s.cachedView.Load()
	if cached == nil {
		return &PairRegistryView{}
	}

	// Copy the cached view so the caller cannot mutate the shared cache.
	entriesCopy := make([]Entry, len(cached.Entries))
	copy(entriesCopy, cached.Entries)
	return &PairRegistryView{Entries: entriesCopy}
}
