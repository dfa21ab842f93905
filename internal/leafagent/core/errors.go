package core

import "errors"

// Stage outcomes. Callers classify with errors.Is; the underlying cause is wrapped alongside.
var (
	// ErrConfig reports missing or invalid credentials, detected before any I/O.
	ErrConfig = errors.New("invalid configuration")

	// ErrStackInit reports a networking stack or radio initialization failure.
	ErrStackInit = errors.New("network stack initialization failed")

	// ErrConnectTimeout reports that no address was acquired within the timeout.
	ErrConnectTimeout = errors.New("timed out waiting for an address")

	// ErrDisconnect reports a teardown failure.
	ErrDisconnect = errors.New("disconnect failed")

	// ErrTransport reports a request construction or exchange-level failure.
	ErrTransport = errors.New("transport error")

	// ErrProtocol reports an unexpected event during an HTTP exchange.
	ErrProtocol = errors.New("unexpected exchange event")

	// ErrAllocation reports that the response buffer could not be allocated.
	ErrAllocation = errors.New("response buffer allocation failed")
)
