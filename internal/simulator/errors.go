package simulator

import "errors"

var (
	// ErrUnknownTicker is returned by StaticSource for symbols it does not hold.
	ErrUnknownTicker = errors.New("unknown ticker")
	// ErrPanic wraps a recovered panic from a single ticker.
	ErrPanic = errors.New("ticker panicked")
)
