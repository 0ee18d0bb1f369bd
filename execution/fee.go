package execution

import (
	"context"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/Cogwheel-Validator/spectra-swap-engine/fees"
	"github.com/Cogwheel-Validator/spectra-swap-engine/models"
	"github.com/Cogwheel-Validator/spectra-swap-engine/router"
)

// FeeBufferPercent pads the affordability pre-check so a fee that drifts
// slightly between quote and submission does not strand the operation.
const FeeBufferPercent = 10

// ApplyFeeBuffer returns the fee padded by FeeBufferPercent, rounded up.
func ApplyFeeBuffer(fee *big.Int) *big.Int {
	padded := new(big.Int).Mul(fee, big.NewInt(100+FeeBufferPercent))
	padded.Add(padded, big.NewInt(99))
	return padded.Div(padded, big.NewInt(100))
}

// EstimateFee prices every segment and aggregates the route-level fee.
//
// Intermediate fees are folded into the input asset by walking the
// segments backward: the fees carried from later hops, denominated in the
// current hop's output asset, are converted through the hop's inverse
// quote, then the hop's own submission-asset fee joins the carry. The
// first hop's own fee stays out of the carry, it is the upfront origin fee
// and counting it here would double count.
func (c *Composition) EstimateFee(ctx context.Context) (*fees.ExchangeFee, error) {
	operationFees := make([]fees.OperationFee, 0, len(c.Segments))
	for i, segment := range c.Segments {
		fee, err := segment.EstimateFee(ctx)
		if err != nil {
			return nil, fmt.Errorf("estimate fee for segment %d: %w", i, err)
		}
		operationFees = append(operationFees, *fee)
	}

	intermediate, err := c.intermediateFeesInAssetIn(ctx, operationFees)
	if err != nil {
		return nil, err
	}

	return &fees.ExchangeFee{
		OperationFees:             operationFees,
		IntermediateFeesInAssetIn: intermediate,
		Slippage:                  c.Slippage,
		FeeAssetID:                c.FeeAsset,
	}, nil
}

func (c *Composition) intermediateFeesInAssetIn(
	ctx context.Context,
	operationFees []fees.OperationFee,
) (*big.Int, error) {
	carried := big.NewInt(0)

	for i := len(c.Segments) - 1; i >= 0; i-- {
		inAssetIn := big.NewInt(0)
		if carried.Sign() > 0 {
			required, err := c.Segments[i].RequiredAmountToGetAmountOut(ctx, carried)
			if err != nil {
				return nil, fmt.Errorf("invert quote for segment %d: %w", i, err)
			}
			inAssetIn = required
		}

		if i > 0 {
			own, err := operationFees[i].TotalEnsuringSubmissionAsset(fees.SelectedAccount())
			if err != nil {
				return nil, fmt.Errorf("segment %d: %w", i, err)
			}
			inAssetIn.Add(inAssetIn, own)
		}

		carried = inAssetIn
	}

	return carried, nil
}

// FeeEstimator prices a route without a user-confirmed composition, used
// by the pathfinder to attach fees to returned quotes.
type FeeEstimator struct {
	Slippage decimal.Decimal
	FeeAsset models.ChainAssetID
}

// EstimateRouteFee composes the route with the estimator's defaults and
// aggregates its fee. The throwaway composition is never submitted.
func (e FeeEstimator) EstimateRouteFee(ctx context.Context, route *router.Route) (*fees.ExchangeFee, error) {
	composition, err := Compose(route, e.Slippage, e.FeeAsset)
	if err != nil {
		return nil, err
	}
	return composition.EstimateFee(ctx)
}
