package core

import (
	"fmt"
	"net/netip"
)

// EventBase groups station events the way the radio firmware does.
type EventBase string

const (
	// LinkEvents are link-layer notifications.
	LinkEvents EventBase = "link"
	// AddressEvents are address-assignment notifications.
	AddressEvents EventBase = "address"
)

// EventID identifies an event within its base.
type EventID int

const (
	LinkStarted EventID = iota + 1
	LinkConnected
	LinkDisconnected
	AddressAcquired
	AddressLost
)

func (id EventID) String() string {
	switch id {
	case LinkStarted:
		return "LinkStarted"
	case LinkConnected:
		return "LinkConnected"
	case LinkDisconnected:
		return "LinkDisconnected"
	case AddressAcquired:
		return "AddressAcquired"
	case AddressLost:
		return "AddressLost"
	default:
		return fmt.Sprintf("EventID(%d)", int(id))
	}
}

// Event is delivered to registered handlers from the station's own goroutine.
type Event struct {
	Base EventBase
	ID   EventID

	// Addr is set for AddressAcquired.
	Addr netip.Addr

	// Reason is set for LinkDisconnected.
	Reason string
}

// EventHandler observes station events. It must not block.
type EventHandler func(Event)

// Registration is the handle of one registered handler.
type Registration interface {
	// Unregister stops delivery to the handler. It is idempotent.
	Unregister()
}
