package order

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Sentinel errors for order operations.
var (
	ErrNotFound          = errors.New("order not found")
	ErrShipmentIDMissing = errors.New("shipment id not provided")
	ErrAlreadyCancelled  = errors.New("order already cancelled")
)

// State is a step of the cart-to-order conversion.
type State int

const (
	StateValidating State = iota
	StateReserving
	StatePersisting
	StateClearing
	StateCommitted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateReserving:
		return "reserving"
	case StatePersisting:
		return "persisting"
	case StateClearing:
		return "clearing"
	case StateCommitted:
		return "committed"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ConversionError reports an aborted conversion and the state it failed in.
// Nothing written during the conversion survives it.
type ConversionError struct {
	State State
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("create order: aborted while %s: %v", e.State, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}
