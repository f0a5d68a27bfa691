package steemengine

import "errors"

// Domain errors raised by the client. Transport failures (timeouts, broken
// connections, malformed JSON) are propagated unwrapped and are not part of
// this set.
var (
	// ErrTokenNotFound is returned when a requested token symbol does not exist.
	ErrTokenNotFound = errors.New("token does not exist")

	// ErrAccountNotFound is returned when a named account does not exist on the
	// target chain. The wrapping message names the offending account.
	ErrAccountNotFound = errors.New("account does not exist")

	// ErrNotEnoughBalance is returned when a requested amount exceeds the
	// relevant balance.
	ErrNotEnoughBalance = errors.New("not enough balance")

	// ErrNoResults is returned when a remote query that should return a
	// collection returned an absent (null) response. This signals a likely
	// query-construction problem, not a legitimate empty result set.
	ErrNoResults = errors.New("no results from API")

	// ErrWrongNetwork is returned when the active RPC node's chain identity
	// does not match the client's configured network.
	ErrWrongNetwork = errors.New("rpc node is on the wrong network")

	// ErrPrecisionTooLow is returned when an amount, quantity or price is
	// below the smallest unit representable at the token's precision.
	ErrPrecisionTooLow = errors.New("amount is lower than token precision")

	// ErrInvalidDirection is returned when an order or trade direction is
	// neither "buy" nor "sell".
	ErrInvalidDirection = errors.New("direction must be either buy or sell")

	// ErrNoClient is returned by a record's convenience lookup methods when
	// the record was never bound to a live client.
	ErrNoClient = errors.New("record is not bound to a steemengine client")
)
