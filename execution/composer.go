package execution

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Cogwheel-Validator/spectra-swap-engine/models"
	"github.com/Cogwheel-Validator/spectra-swap-engine/router"
)

var executionLog zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	executionLog = zerolog.New(out).With().Timestamp().Str("component", "execution").Logger()
}

// SetLogger replaces the package logger.
func SetLogger(logger zerolog.Logger) {
	executionLog = logger.With().Str("component", "execution").Logger()
}

// Composition is a route turned into an ordered chain of submittable
// segments. Swap limits were fixed when it was built; nothing is
// recomputed between display and submission.
//
// A composition is single-use: once submitted, successfully or not, it
// refuses further submission and a fresh quote cycle is required.
type Composition struct {
	Route    *router.Route
	Segments []router.AtomicOperation

	Slippage decimal.Decimal
	FeeAsset models.ChainAssetID

	mu        sync.Mutex
	submitted bool
}

// Compose builds the atomic chain left to right in route order. The first
// hop pays its submission fee in the requested fee asset; every later hop
// pays in its own input asset. Any nil append fails the whole route, a
// partial chain is never returned.
func Compose(route *router.Route, slippage decimal.Decimal, feeAsset models.ChainAssetID) (*Composition, error) {
	if route == nil || len(route.Items) == 0 {
		return nil, fmt.Errorf("%w: empty route", router.ErrRouteNotExecutable)
	}
	if feeAsset == (models.ChainAssetID{}) {
		feeAsset = route.AssetIn()
	}

	segments := make([]router.AtomicOperation, 0, len(route.Items))
	var current router.AtomicOperation

	for i, item := range route.Items {
		amountIn, amountOut := route.HopAmounts(i)
		args := router.AtomicOperationArgs{
			SwapLimit: router.SwapLimit{
				Direction: route.Direction,
				AmountIn:  amountIn,
				AmountOut: amountOut,
				Slippage:  slippage,
			},
			FeeAsset: item.Edge.Origin(),
		}
		if i == 0 {
			args.FeeAsset = feeAsset

			begun, err := item.Edge.BeginOperation(args)
			if err != nil {
				return nil, fmt.Errorf("begin operation: %w", err)
			}
			current = begun
		} else {
			current = item.Edge.AppendToOperation(current, args)
			if current == nil {
				return nil, fmt.Errorf("%w: hop %d refused chaining", router.ErrRouteNotExecutable, i)
			}
		}
		segments = append(segments, current)
	}

	return &Composition{
		Route:    route,
		Segments: segments,
		Slippage: slippage,
		FeeAsset: feeAsset,
	}, nil
}

// Revalidate checks a previously shown route against a freshly computed
// one right before submission.
func Revalidate(shown, fresh *router.Route, slippage decimal.Decimal) error {
	if !shown.Matches(fresh, slippage) {
		return fmt.Errorf("%w: quoted %s, now %s",
			router.ErrStaleQuote, shown.Quote(), fresh.Quote())
	}
	return nil
}

func (c *Composition) markSubmitted() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitted {
		return router.ErrAlreadySubmitted
	}
	c.submitted = true
	return nil
}

// Execute runs the segments in order, propagating each segment's delivered
// amount into the next and reporting the index of the segment about to
// start. It consumes the composition.
func (c *Composition) Execute(ctx context.Context, onSegmentStart func(index int)) (*big.Int, error) {
	if err := c.markSubmitted(); err != nil {
		return nil, err
	}

	amount := c.Route.AmountIn()
	for i, segment := range c.Segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if onSegmentStart != nil {
			onSegmentStart(i)
		}
		executionLog.Info().
			Int("segment", i).
			Str("amount_in", amount.String()).
			Msg("executing segment")

		out, err := segment.ExecuteWrapper(ctx, amount)
		if err != nil {
			return nil, fmt.Errorf("execute segment %d: %w", i, err)
		}
		amount = out
	}

	return amount, nil
}

// Submit broadcasts a single-segment composition. Multi-segment chains go
// through Execute, which settles every hop before reporting.
func (c *Composition) Submit(ctx context.Context) (*router.SubmissionReceipt, error) {
	if len(c.Segments) != 1 {
		return nil, fmt.Errorf("%w: %d segments, direct submission needs exactly one",
			router.ErrRouteNotExecutable, len(c.Segments))
	}
	if err := c.markSubmitted(); err != nil {
		return nil, err
	}

	receipt, err := c.Segments[0].SubmitWrapper(ctx, c.Route.AmountIn())
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	executionLog.Info().
		Str("chain", receipt.ChainID).
		Str("tx_hash", receipt.TxHash).
		Msg("operation submitted")
	return receipt, nil
}
