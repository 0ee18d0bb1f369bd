package fees

import (
	"math/big"

	"github.com/Cogwheel-Validator/spectra-swap-engine/models"
)

// Amount is a quantity of one concrete asset.
type Amount struct {
	Asset models.ChainAssetID
	Value *big.Int
}

func NewAmount(asset models.ChainAssetID, value *big.Int) Amount {
	return Amount{Asset: asset, Value: value}
}

// AmountWithPayer is an Amount debited from an on-chain account. A nil
// Payer means the user's selected account pays; a non-nil Payer names a
// different account (e.g. a protocol-determined sponsor).
type AmountWithPayer struct {
	Amount Amount
	Payer  *string
}

// SubmissionFee is the fee charged when the operation's extrinsic is
// broadcast. Weight is the chain's execution-weight unit and has nothing
// to do with the routing weight of an edge.
type SubmissionFee struct {
	Amount Amount
	Payer  *string
	Weight uint64
}

// PostSubmission groups the fees that materialize only after the extrinsic
// was accepted, e.g. cross-chain delivery and remote execution fees.
//
// PaidByAccount entries are still debited from some account and therefore
// participate in payer matching. PaidFromAmount entries are deducted from
// the transferred value itself and are never paid by any account.
type PostSubmission struct {
	PaidByAccount  []AmountWithPayer
	PaidFromAmount []Amount
}

// TotalAmountIn sums the post-submission fees denominated in the given
// asset. PaidByAccount entries are filtered by the matcher. PaidFromAmount
// entries are included unconditionally: they have no payer, so asking the
// matcher about them would be meaningless and silently filtering them out
// would under-report the fee.
func (p PostSubmission) TotalAmountIn(asset models.ChainAssetID, matcher PayerMatcher) *big.Int {
	total := big.NewInt(0)

	for _, fee := range p.PaidByAccount {
		if fee.Amount.Asset != asset {
			continue
		}
		if !matcher.Matches(fee.Payer) {
			continue
		}
		total.Add(total, fee.Amount.Value)
	}

	for _, fee := range p.PaidFromAmount {
		if fee.Asset != asset {
			continue
		}
		total.Add(total, fee.Value)
	}

	return total
}

// OperationFee is the full fee breakdown of one hop of a committed route.
type OperationFee struct {
	Submission     SubmissionFee
	PostSubmission PostSubmission

	AssetIn  models.ChainAssetID
	AssetOut models.ChainAssetID
	// FeeAsset is the asset the submission fee was quoted in for this hop.
	FeeAsset models.ChainAssetID
	// OriginUtilityAsset is the native fee asset of the hop's origin chain.
	OriginUtilityAsset models.ChainAssetID
}

// TotalInAsset sums every fee component of the hop denominated in the given
// asset, with PaidByAccount components filtered by the matcher.
func (f OperationFee) TotalInAsset(asset models.ChainAssetID, matcher PayerMatcher) *big.Int {
	total := big.NewInt(0)

	if f.Submission.Amount.Asset == asset && matcher.Matches(f.Submission.Payer) {
		total.Add(total, f.Submission.Amount.Value)
	}

	total.Add(total, f.PostSubmission.TotalAmountIn(asset, matcher))

	return total
}

// TotalEnsuringSubmissionAsset sums the hop's fees denominated in the
// submission fee asset. It fails when some account-paid component is
// denominated in a different asset, because such a fee cannot be folded
// into a single submission-asset number without a conversion the caller
// did not ask for.
func (f OperationFee) TotalEnsuringSubmissionAsset(matcher PayerMatcher) (*big.Int, error) {
	submissionAsset := f.Submission.Amount.Asset

	for _, fee := range f.PostSubmission.PaidByAccount {
		if matcher.Matches(fee.Payer) && fee.Amount.Asset != submissionAsset {
			return nil, ErrMismatchBetweenFeeAndRoute
		}
	}

	return f.TotalInAsset(submissionAsset, matcher), nil
}

// AllAmounts returns every fee component of the hop regardless of payer,
// used by fiat aggregation.
func (f OperationFee) AllAmounts() []Amount {
	amounts := make([]Amount, 0, 1+len(f.PostSubmission.PaidByAccount)+len(f.PostSubmission.PaidFromAmount))
	amounts = append(amounts, f.Submission.Amount)
	for _, fee := range f.PostSubmission.PaidByAccount {
		amounts = append(amounts, fee.Amount)
	}
	amounts = append(amounts, f.PostSubmission.PaidFromAmount...)
	return amounts
}
