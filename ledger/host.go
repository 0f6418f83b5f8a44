package ledger

// Host bundles the reference ledgers into one unit of mutable state with an
// all-or-nothing transaction boundary. The router opens a transaction around
// every mutating operation, so a failure at any point rolls the whole state
// back to where the operation started.
type Host struct {
	Tokens *InMemoryTokenLedger
	Pools  *InMemoryPoolLedger
	Native *NativeLedger
}

// Begin deep-copies the current state and returns a rollback function that
// restores it. Discarding the rollback commits.
func (h *Host) Begin() (rollback func()) {
	tokensSnap := h.Tokens.snapshot()
	poolsSnap := h.Pools.snapshot()
	nativeSnap := h.Native.snapshot()

	return func() {
		h.Tokens.restore(tokensSnap)
		h.Pools.restore(poolsSnap)
		h.Native.restore(nativeSnap)
	}
}
