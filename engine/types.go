package engine

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Asset identifies a fungible token by its ledger address.
type Asset = common.Address

// Account identifies a balance-holding participant: an end user, the
// router itself, a pool, or the native wrapper vault.
type Account = common.Address

// Clock supplies the current time for deadline validation. It is injected
// so deterministic tests can pin it.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock is a Clock pinned to a single instant, for tests.
type FixedClock struct {
	Instant time.Time
}

func (c FixedClock) Now() time.Time { return c.Instant }

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NopLogger discards all log output. Useful as a default in tests.
type NopLogger struct{}

func (NopLogger) Debug(msg string, args ...any) {}
func (NopLogger) Info(msg string, args ...any)  {}
func (NopLogger) Warn(msg string, args ...any)  {}
func (NopLogger) Error(msg string, args ...any) {}
