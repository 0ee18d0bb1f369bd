package rpc_test

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeebo/assert"

	"github.com/Cogwheel-Validator/spectra-swap-engine/execution"
	"github.com/Cogwheel-Validator/spectra-swap-engine/fees"
	"github.com/Cogwheel-Validator/spectra-swap-engine/models"
	"github.com/Cogwheel-Validator/spectra-swap-engine/router"
	"github.com/Cogwheel-Validator/spectra-swap-engine/rpc"
)

var (
	assetA = models.ChainAssetID{ChainID: "alpha", AssetID: "A"}
	assetB = models.ChainAssetID{ChainID: "alpha", AssetID: "B"}
	assetD = models.ChainAssetID{ChainID: "gamma", AssetID: "D"}
)

type apiEdge struct {
	origin      models.ChainAssetID
	destination models.ChainAssetID

	num, den int64
	fee      int64
}

func (e *apiEdge) Origin() models.ChainAssetID      { return e.origin }
func (e *apiEdge) Destination() models.ChainAssetID { return e.destination }
func (e *apiEdge) Weight() int                      { return 1 }
func (e *apiEdge) Type() router.EdgeType            { return router.EdgeTypeSwap }

func (e *apiEdge) Quote(_ context.Context, amount *big.Int, direction models.Direction) (*big.Int, error) {
	result := new(big.Int).Set(amount)
	if direction == models.DirectionBuy {
		result.Mul(result, big.NewInt(e.den))
		result.Div(result, big.NewInt(e.num))
	} else {
		result.Mul(result, big.NewInt(e.num))
		result.Div(result, big.NewInt(e.den))
	}
	return result, nil
}

func (e *apiEdge) BeginOperation(args router.AtomicOperationArgs) (router.AtomicOperation, error) {
	return &apiOperation{edge: e, limit: args.SwapLimit, feeAsset: args.FeeAsset}, nil
}

func (e *apiEdge) AppendToOperation(_ router.AtomicOperation, args router.AtomicOperationArgs) router.AtomicOperation {
	return &apiOperation{edge: e, limit: args.SwapLimit, feeAsset: args.FeeAsset}
}

func (e *apiEdge) BeginMetaOperation(amountIn, amountOut *big.Int) *router.MetaOperation {
	return &router.MetaOperation{
		AssetIn:  e.origin,
		AssetOut: e.destination,
		AmountIn: amountIn, AmountOut: amountOut,
		Label: router.OperationLabelSwap,
	}
}

func (e *apiEdge) AppendToMetaOperation(current *router.MetaOperation, amountIn, amountOut *big.Int) *router.MetaOperation {
	if current == nil {
		return nil
	}
	return e.BeginMetaOperation(amountIn, amountOut)
}

func (e *apiEdge) BeginOperationPrototype() *router.OperationPrototype {
	proto := router.OperationPrototype{}
	return proto.WithChain(e.destination.ChainID, decimal.Zero)
}

func (e *apiEdge) AppendToOperationPrototype(current *router.OperationPrototype) *router.OperationPrototype {
	if current == nil {
		return nil
	}
	return current.WithChain(e.destination.ChainID, decimal.Zero)
}

func (e *apiEdge) ShouldIgnoreFeeRequirement(router.GraphEdge) bool    { return false }
func (e *apiEdge) CanPayNonNativeFeesInIntermediatePosition() bool     { return true }
func (e *apiEdge) RequiresOriginKeepAliveOnIntermediatePosition() bool { return false }

type apiOperation struct {
	edge     *apiEdge
	limit    router.SwapLimit
	feeAsset models.ChainAssetID
}

func (o *apiOperation) ExecuteWrapper(ctx context.Context, amountIn *big.Int) (*big.Int, error) {
	return o.edge.Quote(ctx, amountIn, models.DirectionSell)
}

func (o *apiOperation) SubmitWrapper(context.Context, *big.Int) (*router.SubmissionReceipt, error) {
	return &router.SubmissionReceipt{ChainID: o.edge.origin.ChainID, TxHash: "0xtest"}, nil
}

func (o *apiOperation) EstimateFee(context.Context) (*fees.OperationFee, error) {
	return &fees.OperationFee{
		Submission: fees.SubmissionFee{
			Amount: fees.NewAmount(o.feeAsset, big.NewInt(o.edge.fee)),
		},
		AssetIn:  o.edge.origin,
		AssetOut: o.edge.destination,
		FeeAsset: o.feeAsset,
	}, nil
}

func (o *apiOperation) RequiredAmountToGetAmountOut(ctx context.Context, amountOut *big.Int) (*big.Int, error) {
	return o.edge.Quote(ctx, amountOut, models.DirectionBuy)
}

func (o *apiOperation) SwapLimit() router.SwapLimit { return o.limit }

type fixedTimes struct{}

func (fixedTimes) TotalTime(chainIDs []string) time.Duration {
	return time.Duration(len(chainIDs)) * 6 * time.Second
}

type allSufficient struct{}

func (allSufficient) IsSufficient(models.ChainAssetID) bool { return true }

type noUtilityAssets struct{}

func (noUtilityAssets) UtilityAsset(string) (models.ChainAssetID, bool) {
	return models.ChainAssetID{}, false
}

type staticPrices map[models.ChainAssetID]string

func (p staticPrices) FetchPrice(_ context.Context, id models.ChainAssetID) (*models.PriceData, error) {
	raw, ok := p[id]
	if !ok {
		return nil, nil
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, err
	}
	return &models.PriceData{Price: price, Currency: "usd", UpdatedAt: time.Now()}, nil
}

type staticDecimals map[models.ChainAssetID]int32

func (d staticDecimals) AssetDecimals(id models.ChainAssetID) (int32, bool) {
	dec, ok := d[id]
	return dec, ok
}

func newTestMux(t *testing.T) http.Handler {
	t.Helper()

	graph := router.NewGraph([]router.EdgeHandle{
		router.NewEdgeHandle(&apiEdge{origin: assetA, destination: assetB, num: 95, den: 100, fee: 1}),
	})

	pathfinder := router.NewPathfinder(
		graph,
		fixedTimes{},
		allSufficient{},
		noUtilityAssets{},
		router.PathfinderConfig{},
	).WithFeeEstimator(execution.FeeEstimator{})

	engine := rpc.NewEngineServer(
		pathfinder,
		graph,
		staticPrices{},
		staticDecimals{},
		"usd",
	)

	zero := 0
	cfg := &rpc.ServerConfig{
		Address:               "localhost:0",
		EnableMetrics:         false,
		RatePerMinute:         &zero,
		MaxConcurrentRequests: &zero,
	}
	return rpc.NewMux(cfg, engine)
}

func postJSON(t *testing.T, mux http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestQuoteEndpoint(t *testing.T) {
	mux := newTestMux(t)

	rec := postJSON(t, mux, "/v1/quote", models.QuoteRequest{
		AssetIn:   models.RefFor(assetA),
		AssetOut:  models.RefFor(assetB),
		Amount:    "1000",
		Direction: "sell",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.QuoteResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "1000", resp.AmountIn)
	assert.Equal(t, "950", resp.AmountOut)
	assert.Equal(t, 1, len(resp.Hops))
	assert.Equal(t, "swap", resp.Hops[0].Label)
	assert.NotNil(t, resp.Fee)
	assert.Equal(t, "1", resp.Fee.TotalFeeInAssetIn)
}

func TestQuoteEndpointIsNotCacheable(t *testing.T) {
	mux := newTestMux(t)

	rec := postJSON(t, mux, "/v1/quote", models.QuoteRequest{
		AssetIn:   models.RefFor(assetA),
		AssetOut:  models.RefFor(assetB),
		Amount:    "1000",
		Direction: "sell",
	})
	assert.Equal(t, "no-store, no-cache, must-revalidate", rec.Header().Get("Cache-Control"))
}

func TestQuoteEndpointNoRoute(t *testing.T) {
	mux := newTestMux(t)

	rec := postJSON(t, mux, "/v1/quote", models.QuoteRequest{
		AssetIn:   models.RefFor(assetA),
		AssetOut:  models.RefFor(assetD),
		Amount:    "1000",
		Direction: "sell",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.QuoteResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.True(t, resp.ErrorMessage != "")
}

func TestQuoteEndpointRejectsBadAmount(t *testing.T) {
	mux := newTestMux(t)

	rec := postJSON(t, mux, "/v1/quote", models.QuoteRequest{
		AssetIn:   models.RefFor(assetA),
		AssetOut:  models.RefFor(assetB),
		Amount:    "not-a-number",
		Direction: "sell",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuoteEndpointRejectsBadDirection(t *testing.T) {
	mux := newTestMux(t)

	rec := postJSON(t, mux, "/v1/quote", models.QuoteRequest{
		AssetIn:   models.RefFor(assetA),
		AssetOut:  models.RefFor(assetB),
		Amount:    "1000",
		Direction: "sideways",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFeeEndpoint(t *testing.T) {
	mux := newTestMux(t)

	rec := postJSON(t, mux, "/v1/fee", models.FeeRequest{
		AssetIn:   models.RefFor(assetA),
		AssetOut:  models.RefFor(assetB),
		Amount:    "1000",
		Direction: "sell",
		Slippage:  "0.01",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.FeeResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Fee)

	// Single hop: one fee of 1 in the input asset, nothing intermediate.
	assert.Equal(t, "1", resp.Fee.OriginFee)
	assert.Equal(t, "0", resp.Fee.IntermediateFeesInAssetIn)
	assert.Equal(t, "1", resp.Fee.TotalFeeInAssetIn)
	assert.Equal(t, "2", resp.BufferedTotalInAssetIn)
}

func TestFeeEndpointRejectsNegativeSlippage(t *testing.T) {
	mux := newTestMux(t)

	rec := postJSON(t, mux, "/v1/fee", models.FeeRequest{
		AssetIn:   models.RefFor(assetA),
		AssetOut:  models.RefFor(assetB),
		Amount:    "1000",
		Direction: "sell",
		Slippage:  "-0.01",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDestinationsEndpoint(t *testing.T) {
	mux := newTestMux(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/assets/alpha/A/destinations", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.DestinationsResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, len(resp.Destinations))
	assert.Equal(t, models.RefFor(assetB), resp.Destinations[0])
}

func TestDestinationsEndpointUnknownOrigin(t *testing.T) {
	mux := newTestMux(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/assets/gamma/D/destinations", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.DestinationsResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 0, len(resp.Destinations))
}

func TestHealthAndReadyEndpoints(t *testing.T) {
	mux := newTestMux(t)

	for _, path := range []string{"/server/health", "/server/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
