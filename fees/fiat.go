package fees

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/Cogwheel-Validator/spectra-swap-engine/models"
)

// PriceStoring yields the current fiat price of an asset. Implementations
// return a nil PriceData when no price is known.
type PriceStoring interface {
	FetchPrice(ctx context.Context, asset models.ChainAssetID) (*models.PriceData, error)
}

// AssetDecimalsProviding resolves the number of decimal places of an
// asset, needed to scale planck amounts before multiplying by a price.
type AssetDecimalsProviding interface {
	AssetDecimals(asset models.ChainAssetID) (int32, bool)
}

// TotalInFiat converts every fee component of the exchange into fiat and
// sums the result. Amounts are grouped per asset first so each price is
// fetched and applied once. Assets without a known price or unknown
// decimals contribute zero rather than failing the whole estimate.
func (e ExchangeFee) TotalInFiat(
	ctx context.Context,
	prices PriceStoring,
	decimalsOf AssetDecimalsProviding,
) (decimal.Decimal, error) {
	grouped := make(map[models.ChainAssetID]*big.Int)
	for _, opFee := range e.OperationFees {
		for _, amount := range opFee.AllAmounts() {
			if amount.Value == nil || amount.Value.Sign() == 0 {
				continue
			}
			sum, ok := grouped[amount.Asset]
			if !ok {
				sum = big.NewInt(0)
				grouped[amount.Asset] = sum
			}
			sum.Add(sum, amount.Value)
		}
	}

	total := decimal.Zero
	for asset, sum := range grouped {
		price, err := prices.FetchPrice(ctx, asset)
		if err != nil {
			return decimal.Zero, err
		}
		if price == nil {
			continue
		}
		dec, ok := decimalsOf.AssetDecimals(asset)
		if !ok {
			continue
		}
		units := decimal.NewFromBigInt(sum, -dec)
		total = total.Add(units.Mul(price.Price))
	}

	return total, nil
}
