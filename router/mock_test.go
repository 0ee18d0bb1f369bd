package router_test

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Cogwheel-Validator/spectra-swap-engine/fees"
	"github.com/Cogwheel-Validator/spectra-swap-engine/models"
	"github.com/Cogwheel-Validator/spectra-swap-engine/router"
)

var (
	assetA = models.ChainAssetID{ChainID: "alpha", AssetID: "A"}
	assetB = models.ChainAssetID{ChainID: "alpha", AssetID: "B"}
	assetC = models.ChainAssetID{ChainID: "beta", AssetID: "C"}
	assetD = models.ChainAssetID{ChainID: "gamma", AssetID: "D"}
)

// mockEdge implements router.GraphEdge with injected behavior, the same
// way venue clients are mocked elsewhere in this module's tests.
type mockEdge struct {
	origin      models.ChainAssetID
	destination models.ChainAssetID
	weight      int
	edgeType    router.EdgeType

	quoteFn func(amount *big.Int, direction models.Direction) (*big.Int, error)

	refuseMetaAppend      bool
	refusePrototype       bool
	refuseOperationAppend bool
	prototypeCost         decimal.Decimal

	canPayNonNative   bool
	requiresKeepAlive bool
	ignoreFeeAfter    router.EdgeType
}

// sellRate builds a deterministic quote function that multiplies by
// num/den when selling and divides when buying.
func sellRate(num, den int64) func(*big.Int, models.Direction) (*big.Int, error) {
	return func(amount *big.Int, direction models.Direction) (*big.Int, error) {
		result := new(big.Int).Set(amount)
		if direction == models.DirectionBuy {
			result.Mul(result, big.NewInt(den))
			result.Div(result, big.NewInt(num))
		} else {
			result.Mul(result, big.NewInt(num))
			result.Div(result, big.NewInt(den))
		}
		return result, nil
	}
}

func (e *mockEdge) Origin() models.ChainAssetID      { return e.origin }
func (e *mockEdge) Destination() models.ChainAssetID { return e.destination }
func (e *mockEdge) Weight() int                      { return e.weight }

func (e *mockEdge) Type() router.EdgeType {
	if e.edgeType == "" {
		return router.EdgeTypeSwap
	}
	return e.edgeType
}

func (e *mockEdge) Quote(_ context.Context, amount *big.Int, direction models.Direction) (*big.Int, error) {
	if e.quoteFn == nil {
		return nil, errors.New("no quote configured")
	}
	return e.quoteFn(amount, direction)
}

func (e *mockEdge) BeginOperation(args router.AtomicOperationArgs) (router.AtomicOperation, error) {
	return &mockOperation{edge: e, limit: args.SwapLimit}, nil
}

func (e *mockEdge) AppendToOperation(current router.AtomicOperation, args router.AtomicOperationArgs) router.AtomicOperation {
	if e.refuseOperationAppend {
		return nil
	}
	return &mockOperation{edge: e, limit: args.SwapLimit, previous: current}
}

func (e *mockEdge) BeginMetaOperation(amountIn, amountOut *big.Int) *router.MetaOperation {
	return &router.MetaOperation{
		AssetIn:  e.origin,
		AssetOut: e.destination,
		AmountIn: amountIn, AmountOut: amountOut,
		Label: router.OperationLabelSwap,
	}
}

func (e *mockEdge) AppendToMetaOperation(current *router.MetaOperation, amountIn, amountOut *big.Int) *router.MetaOperation {
	if e.refuseMetaAppend || current == nil {
		return nil
	}
	return e.BeginMetaOperation(amountIn, amountOut)
}

func (e *mockEdge) BeginOperationPrototype() *router.OperationPrototype {
	proto := router.OperationPrototype{}
	return proto.WithChain(e.destination.ChainID, e.prototypeCost)
}

func (e *mockEdge) AppendToOperationPrototype(current *router.OperationPrototype) *router.OperationPrototype {
	if e.refusePrototype || current == nil {
		return nil
	}
	return current.WithChain(e.destination.ChainID, e.prototypeCost)
}

func (e *mockEdge) ShouldIgnoreFeeRequirement(predecessor router.GraphEdge) bool {
	return e.ignoreFeeAfter != "" && predecessor.Type() == e.ignoreFeeAfter
}

func (e *mockEdge) CanPayNonNativeFeesInIntermediatePosition() bool {
	return e.canPayNonNative
}

func (e *mockEdge) RequiresOriginKeepAliveOnIntermediatePosition() bool {
	return e.requiresKeepAlive
}

// mockOperation is a minimal atomic segment for composition tests.
type mockOperation struct {
	edge      *mockEdge
	limit     router.SwapLimit
	previous  router.AtomicOperation
	submitted bool

	fee *fees.OperationFee
}

func (o *mockOperation) ExecuteWrapper(ctx context.Context, amountIn *big.Int) (*big.Int, error) {
	return o.edge.Quote(ctx, amountIn, models.DirectionSell)
}

func (o *mockOperation) SubmitWrapper(_ context.Context, _ *big.Int) (*router.SubmissionReceipt, error) {
	if o.submitted {
		return nil, router.ErrAlreadySubmitted
	}
	o.submitted = true
	return &router.SubmissionReceipt{ChainID: o.edge.origin.ChainID, TxHash: "0xmock"}, nil
}

func (o *mockOperation) EstimateFee(_ context.Context) (*fees.OperationFee, error) {
	if o.fee != nil {
		return o.fee, nil
	}
	return &fees.OperationFee{
		Submission: fees.SubmissionFee{
			Amount: fees.NewAmount(o.edge.origin, big.NewInt(1)),
		},
		AssetIn:  o.edge.origin,
		AssetOut: o.edge.destination,
		FeeAsset: o.edge.origin,
	}, nil
}

func (o *mockOperation) RequiredAmountToGetAmountOut(ctx context.Context, amountOut *big.Int) (*big.Int, error) {
	return o.edge.Quote(ctx, amountOut, models.DirectionBuy)
}

func (o *mockOperation) SwapLimit() router.SwapLimit { return o.limit }

type staticTimeEstimator struct {
	perChain time.Duration
}

func (s staticTimeEstimator) TotalTime(chainIDs []string) time.Duration {
	return time.Duration(len(chainIDs)) * s.perChain
}

type staticSufficiency map[models.ChainAssetID]bool

func (s staticSufficiency) IsSufficient(asset models.ChainAssetID) bool {
	sufficient, ok := s[asset]
	return !ok || sufficient
}

type staticUtilityAssets map[string]models.ChainAssetID

func (s staticUtilityAssets) UtilityAsset(chainID string) (models.ChainAssetID, bool) {
	asset, ok := s[chainID]
	return asset, ok
}

func newTestPathfinder(graph *router.Graph, cfg router.PathfinderConfig) *router.Pathfinder {
	return router.NewPathfinder(
		graph,
		staticTimeEstimator{perChain: 6 * time.Second},
		staticSufficiency{},
		staticUtilityAssets{},
		cfg,
	)
}
