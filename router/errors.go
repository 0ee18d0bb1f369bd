package router

import "errors"

var (
	// ErrNoRoute means no path exists between the requested assets within
	// the hop bound. Connectivity failures are reported as-is, never
	// retried automatically.
	ErrNoRoute = errors.New("no route between requested assets")

	// ErrAllQuotesFailed means candidate paths existed but every one of
	// them failed to quote, which points at liquidity or upstream state
	// rather than connectivity.
	ErrAllQuotesFailed = errors.New("all candidate routes failed to quote")

	// ErrRouteNotExecutable means a priced route could not be turned into
	// an executable chain: an append refused the predecessor or a
	// composition-time policy was violated. A pricing problem it is not.
	ErrRouteNotExecutable = errors.New("route cannot be composed into an executable operation")

	// ErrStaleQuote means the price moved beyond the accepted slippage
	// between display and confirmation. Callers should re-quote.
	ErrStaleQuote = errors.New("quoted price moved beyond slippage tolerance")

	// ErrAlreadySubmitted guards the single-use property of a composed
	// operation.
	ErrAlreadySubmitted = errors.New("operation was already submitted")
)
