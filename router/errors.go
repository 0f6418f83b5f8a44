package router

import "errors"

var (
	// ErrExpired is returned when an operation's deadline has passed before any
	// work was done.
	ErrExpired = errors.New("operation deadline has passed")
	// ErrInvalidPath is returned when a native-asset variant is given a path that
	// does not start or end with the wrapped native asset.
	ErrInvalidPath = errors.New("invalid swap path")
	// ErrInsufficientOutputAmount is returned when the computed output falls
	// below the caller's minimum. No transfer has occurred.
	ErrInsufficientOutputAmount = errors.New("output amount below caller minimum")
	// ErrExcessiveInputAmount is returned when the computed required input
	// exceeds the caller's maximum. No transfer has occurred.
	ErrExcessiveInputAmount = errors.New("input amount above caller maximum")
	// ErrInsufficientAAmount is returned when the balanced deposit of asset A
	// falls below the caller's minimum.
	ErrInsufficientAAmount = errors.New("amount of asset A below minimum")
	// ErrInsufficientBAmount is returned when the balanced deposit of asset B
	// falls below the caller's minimum.
	ErrInsufficientBAmount = errors.New("amount of asset B below minimum")
	// ErrTransferFailed is returned when an asset transfer or a pool ledger call
	// did not succeed; the enclosing operation is aborted with no partial effect.
	ErrTransferFailed = errors.New("asset transfer failed")
	// ErrNativeUnsupported is returned from native-asset entry points when no
	// wrapper was configured.
	ErrNativeUnsupported = errors.New("no native wrapper configured")
)
