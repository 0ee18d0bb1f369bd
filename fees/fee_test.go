package fees_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/zeebo/assert"

	"github.com/Cogwheel-Validator/spectra-swap-engine/fees"
	"github.com/Cogwheel-Validator/spectra-swap-engine/models"
)

var (
	dotOnPolkadot = models.ChainAssetID{ChainID: "polkadot", AssetID: "native"}
	dotOnHydra    = models.ChainAssetID{ChainID: "hydradx", AssetID: "5"}
	hdxOnHydra    = models.ChainAssetID{ChainID: "hydradx", AssetID: "native"}
	usdtOnHydra   = models.ChainAssetID{ChainID: "hydradx", AssetID: "10"}
)

func ptr(s string) *string { return &s }

func TestPayerMatcher(t *testing.T) {
	sponsor := "sponsor-account"

	assert.True(t, fees.SelectedAccount().Matches(nil))
	assert.False(t, fees.SelectedAccount().Matches(&sponsor))

	assert.True(t, fees.AnyAccount().Matches(nil))
	assert.True(t, fees.AnyAccount().Matches(&sponsor))

	assert.False(t, fees.GivenAccount(sponsor).Matches(nil))
	assert.True(t, fees.GivenAccount(sponsor).Matches(&sponsor))
	assert.False(t, fees.GivenAccount(sponsor).Matches(ptr("other")))
}

func TestPostSubmissionTotalAmountIn(t *testing.T) {
	post := fees.PostSubmission{
		PaidByAccount: []fees.AmountWithPayer{
			{Amount: fees.NewAmount(dotOnHydra, big.NewInt(30)), Payer: nil},
			{Amount: fees.NewAmount(dotOnHydra, big.NewInt(50)), Payer: ptr("sponsor")},
			{Amount: fees.NewAmount(hdxOnHydra, big.NewInt(999))},
		},
		PaidFromAmount: []fees.Amount{
			fees.NewAmount(dotOnHydra, big.NewInt(7)),
		},
	}

	// PaidFromAmount counts for every matcher, PaidByAccount is filtered.
	assert.Equal(t, int64(37), post.TotalAmountIn(dotOnHydra, fees.SelectedAccount()).Int64())
	assert.Equal(t, int64(87), post.TotalAmountIn(dotOnHydra, fees.AnyAccount()).Int64())
	assert.Equal(t, int64(57), post.TotalAmountIn(dotOnHydra, fees.GivenAccount("sponsor")).Int64())
	assert.Equal(t, int64(0), post.TotalAmountIn(usdtOnHydra, fees.AnyAccount()).Int64())
}

func TestOperationFeeTotalInAsset(t *testing.T) {
	opFee := fees.OperationFee{
		Submission: fees.SubmissionFee{
			Amount: fees.NewAmount(dotOnPolkadot, big.NewInt(100)),
		},
		PostSubmission: fees.PostSubmission{
			PaidFromAmount: []fees.Amount{
				fees.NewAmount(dotOnPolkadot, big.NewInt(11)),
			},
		},
	}

	assert.Equal(t, int64(111), opFee.TotalInAsset(dotOnPolkadot, fees.SelectedAccount()).Int64())
	// A sponsored submission fee drops out for the selected account.
	opFee.Submission.Payer = ptr("sponsor")
	assert.Equal(t, int64(11), opFee.TotalInAsset(dotOnPolkadot, fees.SelectedAccount()).Int64())
	assert.Equal(t, int64(111), opFee.TotalInAsset(dotOnPolkadot, fees.AnyAccount()).Int64())
}

func TestTotalEnsuringSubmissionAsset(t *testing.T) {
	opFee := fees.OperationFee{
		Submission: fees.SubmissionFee{
			Amount: fees.NewAmount(dotOnPolkadot, big.NewInt(100)),
		},
		PostSubmission: fees.PostSubmission{
			PaidByAccount: []fees.AmountWithPayer{
				{Amount: fees.NewAmount(dotOnPolkadot, big.NewInt(5))},
			},
		},
	}

	total, err := opFee.TotalEnsuringSubmissionAsset(fees.SelectedAccount())
	assert.NoError(t, err)
	assert.Equal(t, int64(105), total.Int64())

	// An account-paid component in a foreign asset cannot be folded in.
	opFee.PostSubmission.PaidByAccount = append(opFee.PostSubmission.PaidByAccount, fees.AmountWithPayer{
		Amount: fees.NewAmount(hdxOnHydra, big.NewInt(1)),
	})
	_, err = opFee.TotalEnsuringSubmissionAsset(fees.SelectedAccount())
	assert.Error(t, err)
}

func twoHopFee() fees.ExchangeFee {
	return fees.ExchangeFee{
		OperationFees: []fees.OperationFee{
			{
				Submission: fees.SubmissionFee{
					Amount: fees.NewAmount(dotOnPolkadot, big.NewInt(100)),
				},
				AssetIn:  dotOnPolkadot,
				AssetOut: dotOnHydra,
				FeeAsset: dotOnPolkadot,
			},
			{
				Submission: fees.SubmissionFee{
					Amount: fees.NewAmount(dotOnHydra, big.NewInt(40)),
				},
				AssetIn:  dotOnHydra,
				AssetOut: usdtOnHydra,
				FeeAsset: dotOnHydra,
			},
		},
		IntermediateFeesInAssetIn: big.NewInt(41),
		Slippage:                  decimal.RequireFromString("0.005"),
		FeeAssetID:                dotOnPolkadot,
	}
}

func TestOriginFeeCountsFirstHopOnly(t *testing.T) {
	fee := twoHopFee()

	assert.Equal(t, int64(100), fee.OriginFeeInAsset(dotOnPolkadot, fees.AnyAccount()).Int64())
	// Second hop pays in dotOnHydra but that never shows up at the origin.
	assert.Equal(t, int64(0), fee.OriginFeeInAsset(dotOnHydra, fees.AnyAccount()).Int64())
	assert.Equal(t, int64(100), fee.OriginFeeInFeeAsset().Int64())
}

func TestTotalFeeInAssetInDecomposition(t *testing.T) {
	fee := twoHopFee()

	for _, matcher := range []fees.PayerMatcher{
		fees.SelectedAccount(),
		fees.AnyAccount(),
		fees.GivenAccount("sponsor"),
	} {
		origin := fee.OriginFeeInAsset(dotOnPolkadot, matcher)
		total := fee.TotalFeeInAssetIn(dotOnPolkadot, matcher)
		assert.Equal(t, origin.Int64()+41, total.Int64())
	}
}

func TestEmptyFee(t *testing.T) {
	var fee fees.ExchangeFee
	assert.Equal(t, int64(0), fee.OriginFeeInAsset(dotOnPolkadot, fees.AnyAccount()).Int64())
	assert.Equal(t, int64(0), fee.TotalFeeInAssetIn(dotOnPolkadot, fees.AnyAccount()).Int64())
}

type staticPrices map[models.ChainAssetID]decimal.Decimal

func (s staticPrices) FetchPrice(_ context.Context, asset models.ChainAssetID) (*models.PriceData, error) {
	price, ok := s[asset]
	if !ok {
		return nil, nil
	}
	return &models.PriceData{Price: price, Currency: "usd"}, nil
}

type staticDecimals map[models.ChainAssetID]int32

func (s staticDecimals) AssetDecimals(asset models.ChainAssetID) (int32, bool) {
	dec, ok := s[asset]
	return dec, ok
}

func TestTotalInFiat(t *testing.T) {
	fee := fees.ExchangeFee{
		OperationFees: []fees.OperationFee{
			{
				Submission: fees.SubmissionFee{
					// 1.5 DOT at 10 decimals.
					Amount: fees.NewAmount(dotOnPolkadot, big.NewInt(15_000_000_000)),
				},
			},
			{
				Submission: fees.SubmissionFee{
					// 0.5 DOT more of the same asset, grouped before converting.
					Amount: fees.NewAmount(dotOnPolkadot, big.NewInt(5_000_000_000)),
				},
				PostSubmission: fees.PostSubmission{
					PaidFromAmount: []fees.Amount{
						// Unknown price, contributes nothing.
						fees.NewAmount(hdxOnHydra, big.NewInt(1_000_000_000_000)),
					},
				},
			},
		},
	}

	prices := staticPrices{dotOnPolkadot: decimal.RequireFromString("4.25")}
	decimals := staticDecimals{dotOnPolkadot: 10, hdxOnHydra: 12}

	total, err := fee.TotalInFiat(context.Background(), prices, decimals)
	assert.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("8.5")))
}
