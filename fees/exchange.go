package fees

import (
	"errors"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/Cogwheel-Validator/spectra-swap-engine/models"
)

// ErrMismatchBetweenFeeAndRoute reports a fee object whose shape does not
// correspond to the route it claims to describe.
var ErrMismatchBetweenFeeAndRoute = errors.New("fee does not match route")

// ExchangeFee aggregates the per-hop fees of a committed route together
// with the route-level derived numbers.
type ExchangeFee struct {
	// OperationFees holds one entry per hop, in origin order.
	OperationFees []OperationFee

	// IntermediateFeesInAssetIn is the total of all non-first-hop fees
	// expressed in the route's input asset via a reverse walk of the
	// hops' inverse quotes.
	IntermediateFeesInAssetIn *big.Int

	// Slippage is the tolerance the fee was computed under.
	Slippage decimal.Decimal

	// FeeAssetID is the asset the first hop's submission fee is paid in.
	FeeAssetID models.ChainAssetID
}

// OriginFeeInAsset is the part of the fee payable upfront on the origin
// chain in the given asset. Only the first hop counts: later hops charge
// their fees mid-flight from assets the user no longer holds directly.
func (e ExchangeFee) OriginFeeInAsset(asset models.ChainAssetID, matcher PayerMatcher) *big.Int {
	if len(e.OperationFees) == 0 {
		return big.NewInt(0)
	}
	return e.OperationFees[0].TotalInAsset(asset, matcher)
}

// OriginFeeInFeeAsset is OriginFeeInAsset evaluated in the configured fee
// asset for the selected account, the number a holdings check wants.
func (e ExchangeFee) OriginFeeInFeeAsset() *big.Int {
	return e.OriginFeeInAsset(e.FeeAssetID, SelectedAccount())
}

// TotalFeeInAssetIn is the complete cost of the route expressed in the
// given asset: the upfront origin fee plus the intermediate fees already
// converted into the input asset.
func (e ExchangeFee) TotalFeeInAssetIn(asset models.ChainAssetID, matcher PayerMatcher) *big.Int {
	total := new(big.Int).Set(e.OriginFeeInAsset(asset, matcher))
	if e.IntermediateFeesInAssetIn != nil {
		total.Add(total, e.IntermediateFeesInAssetIn)
	}
	return total
}
