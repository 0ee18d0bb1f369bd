// Package poolswap provides the same-chain DEX pool edge: both sides of
// the hop live on one chain and the venue's trade API prices and executes
// the swap.
package poolswap

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Cogwheel-Validator/spectra-swap-engine/fees"
	"github.com/Cogwheel-Validator/spectra-swap-engine/models"
	"github.com/Cogwheel-Validator/spectra-swap-engine/router"
)

var poolswapLog zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	poolswapLog = zerolog.New(out).With().Timestamp().Str("component", "poolswap").Logger()
}

// SetLogger replaces the package logger, used by the service entry point
// to unify log output.
func SetLogger(logger zerolog.Logger) {
	poolswapLog = logger.With().Str("component", "poolswap").Logger()
}

// SwapRequest describes one swap to price or execute against a venue.
type SwapRequest struct {
	VenueID      string
	AssetIn      models.ChainAssetID
	AssetOut     models.ChainAssetID
	AmountIn     *big.Int
	AmountOutMin *big.Int
	FeeAsset     models.ChainAssetID
}

// TradeClient talks to one DEX venue. Implementations wrap the venue's
// quote/trade API; the engine never sees transport details.
type TradeClient interface {
	QuoteSwap(ctx context.Context, venueID string, assetIn, assetOut models.ChainAssetID,
		amount *big.Int, direction models.Direction) (*big.Int, error)

	// EstimateSwapFee prices the submission fee of the swap in the
	// request's fee asset.
	EstimateSwapFee(ctx context.Context, req SwapRequest) (*big.Int, error)

	DryRunSwap(ctx context.Context, req SwapRequest) (*big.Int, error)
	SubmitSwap(ctx context.Context, req SwapRequest) (string, error)
}

// Edge is a directed swap between two assets on the same chain through
// one liquidity venue.
type Edge struct {
	venueID     string
	origin      models.ChainAssetID
	destination models.ChainAssetID
	weight      int

	// approxCostFiat is the static fiat cost estimate the prototype
	// pre-filter compares candidates by.
	approxCostFiat decimal.Decimal

	client TradeClient
}

func NewEdge(
	venueID string,
	origin, destination models.ChainAssetID,
	weight int,
	approxCostFiat decimal.Decimal,
	client TradeClient,
) (*Edge, error) {
	if origin.ChainID != destination.ChainID {
		return nil, fmt.Errorf("pool swap %s: origin %s and destination %s are on different chains",
			venueID, origin, destination)
	}
	return &Edge{
		venueID:        venueID,
		origin:         origin,
		destination:    destination,
		weight:         weight,
		approxCostFiat: approxCostFiat,
		client:         client,
	}, nil
}

func (e *Edge) Origin() models.ChainAssetID      { return e.origin }
func (e *Edge) Destination() models.ChainAssetID { return e.destination }
func (e *Edge) Weight() int                      { return e.weight }
func (e *Edge) Type() router.EdgeType            { return router.EdgeTypeSwap }
func (e *Edge) VenueID() string                  { return e.venueID }

func (e *Edge) Quote(ctx context.Context, amount *big.Int, direction models.Direction) (*big.Int, error) {
	quote, err := e.client.QuoteSwap(ctx, e.venueID, e.origin, e.destination, amount, direction)
	if err != nil {
		return nil, fmt.Errorf("venue %s quote: %w", e.venueID, err)
	}
	if quote == nil || quote.Sign() <= 0 {
		return nil, fmt.Errorf("venue %s returned empty quote", e.venueID)
	}
	return quote, nil
}

func (e *Edge) BeginOperation(args router.AtomicOperationArgs) (router.AtomicOperation, error) {
	return e.newOperation(args), nil
}

// AppendToOperation chains a fresh swap segment after any predecessor; a
// swap only needs its input asset present on its own chain, which route
// contiguity already guarantees.
func (e *Edge) AppendToOperation(_ router.AtomicOperation, args router.AtomicOperationArgs) router.AtomicOperation {
	return e.newOperation(args)
}

func (e *Edge) newOperation(args router.AtomicOperationArgs) *operation {
	return &operation{edge: e, args: args}
}

func (e *Edge) BeginMetaOperation(amountIn, amountOut *big.Int) *router.MetaOperation {
	return &router.MetaOperation{
		AssetIn:   e.origin,
		AssetOut:  e.destination,
		AmountIn:  amountIn,
		AmountOut: amountOut,
		Label:     router.OperationLabelSwap,
	}
}

func (e *Edge) AppendToMetaOperation(current *router.MetaOperation, amountIn, amountOut *big.Int) *router.MetaOperation {
	if current == nil {
		return nil
	}
	return e.BeginMetaOperation(amountIn, amountOut)
}

func (e *Edge) BeginOperationPrototype() *router.OperationPrototype {
	proto := router.OperationPrototype{}
	return proto.WithChain(e.origin.ChainID, e.approxCostFiat)
}

func (e *Edge) AppendToOperationPrototype(current *router.OperationPrototype) *router.OperationPrototype {
	if current == nil {
		return nil
	}
	return current.WithChain(e.origin.ChainID, e.approxCostFiat)
}

func (e *Edge) ShouldIgnoreFeeRequirement(router.GraphEdge) bool { return false }

// DEX chains accept any pooled asset as fee payment, so a swap mid-route
// can pay fees in its own input asset.
func (e *Edge) CanPayNonNativeFeesInIntermediatePosition() bool { return true }

func (e *Edge) RequiresOriginKeepAliveOnIntermediatePosition() bool { return false }

// operation is one swap segment of a composed route.
type operation struct {
	edge *Edge
	args router.AtomicOperationArgs
}

func (o *operation) request(amountIn *big.Int) SwapRequest {
	return SwapRequest{
		VenueID:      o.edge.venueID,
		AssetIn:      o.edge.origin,
		AssetOut:     o.edge.destination,
		AmountIn:     amountIn,
		AmountOutMin: o.args.SwapLimit.AmountOutMin(),
		FeeAsset:     o.args.FeeAsset,
	}
}

func (o *operation) ExecuteWrapper(ctx context.Context, amountIn *big.Int) (*big.Int, error) {
	out, err := o.edge.client.DryRunSwap(ctx, o.request(amountIn))
	if err != nil {
		return nil, fmt.Errorf("venue %s dry run: %w", o.edge.venueID, err)
	}
	return out, nil
}

func (o *operation) SubmitWrapper(ctx context.Context, amountIn *big.Int) (*router.SubmissionReceipt, error) {
	txHash, err := o.edge.client.SubmitSwap(ctx, o.request(amountIn))
	if err != nil {
		return nil, fmt.Errorf("venue %s submit: %w", o.edge.venueID, err)
	}
	poolswapLog.Info().
		Str("venue", o.edge.venueID).
		Str("tx_hash", txHash).
		Msg("swap submitted")
	return &router.SubmissionReceipt{ChainID: o.edge.origin.ChainID, TxHash: txHash}, nil
}

func (o *operation) EstimateFee(ctx context.Context) (*fees.OperationFee, error) {
	amount, err := o.edge.client.EstimateSwapFee(ctx, o.request(o.args.SwapLimit.AmountIn))
	if err != nil {
		return nil, fmt.Errorf("venue %s fee: %w", o.edge.venueID, err)
	}
	return &fees.OperationFee{
		Submission: fees.SubmissionFee{
			Amount: fees.NewAmount(o.args.FeeAsset, amount),
		},
		AssetIn:  o.edge.origin,
		AssetOut: o.edge.destination,
		FeeAsset: o.args.FeeAsset,
	}, nil
}

func (o *operation) RequiredAmountToGetAmountOut(ctx context.Context, amountOut *big.Int) (*big.Int, error) {
	return o.edge.Quote(ctx, amountOut, models.DirectionBuy)
}

func (o *operation) SwapLimit() router.SwapLimit { return o.args.SwapLimit }
