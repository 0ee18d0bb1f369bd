package router

import (
	"context"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Cogwheel-Validator/spectra-swap-engine/fees"
	"github.com/Cogwheel-Validator/spectra-swap-engine/models"
)

// EdgeType is a closed tag distinguishing edge categories. Composition
// rules (fee ignoring, keep alive) branch on it.
type EdgeType string

const (
	EdgeTypeSwap            EdgeType = "swap"
	EdgeTypeReserveTransfer EdgeType = "reserve_transfer"
	EdgeTypeTeleport        EdgeType = "teleport"
)

// OperationLabel classifies a hop for display purposes.
type OperationLabel string

const (
	OperationLabelSwap     OperationLabel = "swap"
	OperationLabelTransfer OperationLabel = "transfer"
)

// SwapLimit is the slippage-bounded acceptable amount range of one hop.
// It is computed once when the user confirms a quote and passed unchanged
// through execution; recomputing it later would race against the displayed
// numbers.
type SwapLimit struct {
	Direction models.Direction
	AmountIn  *big.Int
	AmountOut *big.Int
	Slippage  decimal.Decimal
}

// AmountOutMin is the lowest output the user accepts when selling.
func (l SwapLimit) AmountOutMin() *big.Int {
	out := decimal.NewFromBigInt(l.AmountOut, 0)
	min := out.Sub(out.Mul(l.Slippage))
	return min.Floor().BigInt()
}

// AmountInMax is the highest input the user accepts when buying.
func (l SwapLimit) AmountInMax() *big.Int {
	in := decimal.NewFromBigInt(l.AmountIn, 0)
	max := in.Add(in.Mul(l.Slippage))
	return max.Ceil().BigInt()
}

// AtomicOperationArgs carries the per-hop parameters fixed at confirmation
// time. FeeAsset is the asset this hop's submission fee is paid in: the
// configured fee asset on the first hop, the hop's own input asset on every
// later hop.
type AtomicOperationArgs struct {
	SwapLimit SwapLimit
	FeeAsset  models.ChainAssetID
}

// SubmissionReceipt identifies a broadcast operation.
type SubmissionReceipt struct {
	ChainID string
	TxHash  string
}

// AtomicOperation is one submittable segment of a composed route.
//
// ExecuteWrapper dry-runs the segment and returns the amount it would
// deliver for the given input. SubmitWrapper broadcasts it; a segment must
// never be submitted twice.
type AtomicOperation interface {
	ExecuteWrapper(ctx context.Context, amountIn *big.Int) (*big.Int, error)
	SubmitWrapper(ctx context.Context, amountIn *big.Int) (*SubmissionReceipt, error)

	// EstimateFee prices the segment without submitting it.
	EstimateFee(ctx context.Context) (*fees.OperationFee, error)

	// RequiredAmountToGetAmountOut inverts the segment's quote: how much
	// input is needed for the given output at current state.
	RequiredAmountToGetAmountOut(ctx context.Context, amountOut *big.Int) (*big.Int, error)

	SwapLimit() SwapLimit
}

// MetaOperation is the display and validation summary of one hop. It is
// built without network calls and exists before any on-chain object does.
type MetaOperation struct {
	AssetIn  models.ChainAssetID
	AssetOut models.ChainAssetID

	AmountIn  *big.Int
	AmountOut *big.Int

	Label OperationLabel

	// RequiresOriginKeepAlive marks hops whose origin account must stay
	// above the chain's existential deposit after execution.
	RequiresOriginKeepAlive bool
}

// OperationPrototype is a network-free shape of a candidate path, enough
// to estimate execution time and rough fiat cost before any quote call.
type OperationPrototype struct {
	// ChainsInvolved lists the chain ids the path touches, in order,
	// without consecutive duplicates.
	ChainsInvolved []string

	// EstimatedCostFiat accumulates each edge's static cost estimate.
	EstimatedCostFiat decimal.Decimal

	Segments int
}

// WithChain returns a copy of the prototype extended by one segment.
func (p OperationPrototype) WithChain(chainID string, cost decimal.Decimal) *OperationPrototype {
	chains := p.ChainsInvolved
	if len(chains) == 0 || chains[len(chains)-1] != chainID {
		chains = append(append([]string(nil), chains...), chainID)
	}
	return &OperationPrototype{
		ChainsInvolved:    chains,
		EstimatedCostFiat: p.EstimatedCostFiat.Add(cost),
		Segments:          p.Segments + 1,
	}
}

// GraphEdge is the capability every exchange mechanism must provide to
// participate in routing. Concrete implementations live in the exchanges
// packages; the engine only ever sees this interface.
//
// The append builders return nil when the edge cannot be chained after the
// given predecessor. The composer treats a nil append as a hard failure of
// the whole route, never as a prompt to retry or split.
type GraphEdge interface {
	Origin() models.ChainAssetID
	Destination() models.ChainAssetID

	// Weight is the static routing cost of the edge, lower is better. It
	// is unrelated to the chain execution weight on a submission fee.
	Weight() int

	Type() EdgeType

	// Quote returns the counter-amount for the requested direction. It
	// must fail rather than clamp when the amount cannot be serviced.
	Quote(ctx context.Context, amount *big.Int, direction models.Direction) (*big.Int, error)

	BeginOperation(args AtomicOperationArgs) (AtomicOperation, error)
	AppendToOperation(current AtomicOperation, args AtomicOperationArgs) AtomicOperation

	BeginMetaOperation(amountIn, amountOut *big.Int) *MetaOperation
	AppendToMetaOperation(current *MetaOperation, amountIn, amountOut *big.Int) *MetaOperation

	BeginOperationPrototype() *OperationPrototype
	AppendToOperationPrototype(current *OperationPrototype) *OperationPrototype

	// ShouldIgnoreFeeRequirement reports that a normally mandatory fee
	// requirement (such as the origin keep-alive deposit) is already
	// guaranteed by the given predecessor.
	ShouldIgnoreFeeRequirement(predecessor GraphEdge) bool

	CanPayNonNativeFeesInIntermediatePosition() bool
	RequiresOriginKeepAliveOnIntermediatePosition() bool
}

// TimeEstimating estimates how long execution across the given chains
// takes, in submission order.
type TimeEstimating interface {
	TotalTime(chainIDs []string) time.Duration
}

// SufficiencyProviding reports whether an asset is sufficient, i.e. can
// hold an account above the existential deposit on its own.
type SufficiencyProviding interface {
	IsSufficient(asset models.ChainAssetID) bool
}

// UtilityAssetProviding resolves the native fee asset of a chain.
type UtilityAssetProviding interface {
	UtilityAsset(chainID string) (models.ChainAssetID, bool)
}
