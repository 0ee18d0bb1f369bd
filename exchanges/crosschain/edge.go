// Package crosschain provides the cross-chain transfer edge: the asset
// moves between chains through a reserve transfer or a teleport. Value
// propagates one-to-one; the messaging delivery fee is a post-submission
// fee deducted from the transferred amount and accounted only in the fee
// aggregate, never in hop-to-hop quote propagation.
package crosschain

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

var crosschainLog zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	crosschainLog = zerolog.New(out).With().Timestamp().Str("component", "crosschain").Logger()
}

// SetLogger replaces the package logger, used by the service entry point
// to unify log output.
func SetLogger(logger zerolog.Logger) {
	crosschainLog = logger.With().Str("component", "crosschain").Logger()
}

// TransferKind selects the messaging mechanism of a lane.
type TransferKind string

const (
	TransferKindReserve  TransferKind = "reserve"
	TransferKindTeleport TransferKind = "teleport"
)

func (k TransferKind) edgeType() router.EdgeType {
	if k == TransferKindTeleport {
		return router.EdgeTypeTeleport
	}
	return router.EdgeTypeReserveTransfer
}

// TransferRequest describes one transfer to price or execute.
type TransferRequest struct {
	Lane        string
	Kind        TransferKind
	AssetIn     models.ChainAssetID
	AssetOut    models.ChainAssetID
	Amount      *big.Int
	Beneficiary string
	FeeAsset    models.ChainAssetID
}

// TransferClient submits and prices transfers on the origin chain.
type TransferClient interface {
	EstimateOriginFee(ctx context.Context, req TransferRequest) (*big.Int, error)
	DryRunTransfer(ctx context.Context, req TransferRequest) (*big.Int, error)
	SubmitTransfer(ctx context.Context, req TransferRequest) (string, error)
}

// Edge is a directed transfer lane between the same asset on two chains.
type Edge struct {
	lane        string
	kind        TransferKind
	origin      models.ChainAssetID
	destination models.ChainAssetID
	weight      int

	// deliveryFeeRate is the fraction of the transferred amount the
	// messaging layer takes en route.
	deliveryFeeRate decimal.Decimal
	approxCostFiat  decimal.Decimal

	client    TransferClient
	converter *AddressConverter
	sender    string
}

func NewEdge(
	lane string,
	kind TransferKind,
	origin, destination models.ChainAssetID,
	weight int,
	deliveryFeeRate, approxCostFiat decimal.Decimal,
	client TransferClient,
	converter *AddressConverter,
	sender string,
) (*Edge, error) {
	if origin.ChainID == destination.ChainID {
		return nil, fmt.Errorf("transfer lane %s: both endpoints on chain %s", lane, origin.ChainID)
	}
	if deliveryFeeRate.Sign() < 0 || deliveryFeeRate.Cmp(decimal.NewFromInt(1)) >= 0 {
		return nil, fmt.Errorf("transfer lane %s: delivery fee rate %s out of range", lane, deliveryFeeRate)
	}
	return &Edge{
		lane:            lane,
		kind:            kind,
		origin:          origin,
		destination:     destination,
		weight:          weight,
		deliveryFeeRate: deliveryFeeRate,
		approxCostFiat:  approxCostFiat,
		client:          client,
		converter:       converter,
		sender:          sender,
	}, nil
}

func (e *Edge) Origin() models.ChainAssetID      { return e.origin }
func (e *Edge) Destination() models.ChainAssetID { return e.destination }
func (e *Edge) Weight() int                      { return e.weight }
func (e *Edge) Type() router.EdgeType            { return e.kind.edgeType() }
func (e *Edge) Lane() string                     { return e.lane }

// DeliveryFee is the messaging fee for transferring the given amount.
func (e *Edge) DeliveryFee(amount *big.Int) *big.Int {
	fee := decimal.NewFromBigInt(amount, 0).Mul(e.deliveryFeeRate)
	return fee.Floor().BigInt()
}

// Quote moves value one-to-one in both directions. It fails when the
// amount would not survive the delivery fee. The guard rounds the fee
// up so dust amounts are refused even when the accounted fee floors
// to zero.
func (e *Edge) Quote(_ context.Context, amount *big.Int, _ models.Direction) (*big.Int, error) {
	fee := decimal.NewFromBigInt(amount, 0).Mul(e.deliveryFeeRate).Ceil().BigInt()
	if amount.Cmp(fee) <= 0 {
		return nil, fmt.Errorf("lane %s: amount %s cannot cover delivery fee", e.lane, amount)
	}
	return new(big.Int).Set(amount), nil
}

func (e *Edge) BeginOperation(args router.AtomicOperationArgs) (router.AtomicOperation, error) {
	return e.newOperation(args), nil
}

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
		Label:     router.OperationLabelTransfer,

		RequiresOriginKeepAlive: e.kind == TransferKindReserve,
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
	return proto.WithChain(e.origin.ChainID, decimal.Zero).
		WithChain(e.destination.ChainID, e.approxCostFiat)
}

func (e *Edge) AppendToOperationPrototype(current *router.OperationPrototype) *router.OperationPrototype {
	if current == nil {
		return nil
	}
	return current.WithChain(e.destination.ChainID, e.approxCostFiat)
}

// ShouldIgnoreFeeRequirement waives the keep-alive requirement when a
// teleport predecessor already delivered native funds that hold the
// account above the existential deposit.
func (e *Edge) ShouldIgnoreFeeRequirement(predecessor router.GraphEdge) bool {
	return predecessor.Type() == router.EdgeTypeTeleport
}

// Transfers pay origin fees in the chain's native asset only.
func (e *Edge) CanPayNonNativeFeesInIntermediatePosition() bool { return false }

// A reserve transfer debits the origin reserve account and must leave it
// above the existential deposit; a teleport burns and owes nothing.
func (e *Edge) RequiresOriginKeepAliveOnIntermediatePosition() bool {
	return e.kind == TransferKindReserve
}

type operation struct {
	edge *Edge
	args router.AtomicOperationArgs
}

func (o *operation) request(amount *big.Int) (TransferRequest, error) {
	req := TransferRequest{
		Lane:     o.edge.lane,
		Kind:     o.edge.kind,
		AssetIn:  o.edge.origin,
		AssetOut: o.edge.destination,
		Amount:   amount,
		FeeAsset: o.args.FeeAsset,
	}
	if o.edge.sender != "" && o.edge.converter != nil {
		beneficiary, err := o.edge.converter.ConvertAddress(o.edge.sender, o.edge.destination.ChainID)
		if err != nil {
			return TransferRequest{}, fmt.Errorf("derive beneficiary: %w", err)
		}
		req.Beneficiary = beneficiary
	}
	return req, nil
}

func (o *operation) ExecuteWrapper(ctx context.Context, amountIn *big.Int) (*big.Int, error) {
	req, err := o.request(amountIn)
	if err != nil {
		return nil, err
	}
	out, err := o.edge.client.DryRunTransfer(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("lane %s dry run: %w", o.edge.lane, err)
	}
	return out, nil
}

func (o *operation) SubmitWrapper(ctx context.Context, amountIn *big.Int) (*router.SubmissionReceipt, error) {
	req, err := o.request(amountIn)
	if err != nil {
		return nil, err
	}
	txHash, err := o.edge.client.SubmitTransfer(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("lane %s submit: %w", o.edge.lane, err)
	}
	crosschainLog.Info().
		Str("lane", o.edge.lane).
		Str("kind", string(o.edge.kind)).
		Str("tx_hash", txHash).
		Msg("transfer submitted")
	return &router.SubmissionReceipt{ChainID: o.edge.origin.ChainID, TxHash: txHash}, nil
}

// EstimateFee reports the origin submission fee plus the delivery fee.
// The delivery fee is deducted from the transferred value itself, so it
// lands in PaidFromAmount and is never attributed to an account.
func (o *operation) EstimateFee(ctx context.Context) (*fees.OperationFee, error) {
	amount := o.args.SwapLimit.AmountIn
	req, err := o.request(amount)
	if err != nil {
		return nil, err
	}

	originFee, err := o.edge.client.EstimateOriginFee(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("lane %s origin fee: %w", o.edge.lane, err)
	}

	operationFee := &fees.OperationFee{
		Submission: fees.SubmissionFee{
			Amount: fees.NewAmount(o.args.FeeAsset, originFee),
		},
		AssetIn:  o.edge.origin,
		AssetOut: o.edge.destination,
		FeeAsset: o.args.FeeAsset,
	}

	if deliveryFee := o.edge.DeliveryFee(amount); deliveryFee.Sign() > 0 {
		operationFee.PostSubmission.PaidFromAmount = []fees.Amount{
			fees.NewAmount(o.edge.origin, deliveryFee),
		}
	}

	return operationFee, nil
}

func (o *operation) RequiredAmountToGetAmountOut(ctx context.Context, amountOut *big.Int) (*big.Int, error) {
	return o.edge.Quote(ctx, amountOut, models.DirectionBuy)
}

func (o *operation) SwapLimit() router.SwapLimit { return o.args.SwapLimit }
