package models

import (
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// ChainAssetID identifies one asset on one chain. It is a plain value type:
// two ChainAssetIDs are the same asset iff they are structurally equal.
type ChainAssetID struct {
	ChainID string
	AssetID string
}

func NewChainAssetID(chainID, assetID string) ChainAssetID {
	return ChainAssetID{ChainID: chainID, AssetID: assetID}
}

func (c ChainAssetID) String() string {
	return fmt.Sprintf("%s/%s", c.ChainID, c.AssetID)
}

// Direction tells which side of an exchange is fixed: selling fixes the
// input amount and solves for the output, buying fixes the output amount
// and solves for the required input.
type Direction string

const (
	DirectionSell Direction = "sell"
	DirectionBuy  Direction = "buy"
)

// ParseDirection validates a direction coming from an API request.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionSell, DirectionBuy:
		return Direction(s), nil
	default:
		return "", fmt.Errorf("unknown direction %q", s)
	}
}

// Chain describes one supported chain as loaded from the registry config.
type Chain struct {
	ID           string
	Name         string
	Bech32Prefix string
	// BlockTime is the average block interval, used for execution time
	// estimates of operations submitted to this chain.
	BlockTime time.Duration
	// UtilityAsset is the chain's native fee asset id.
	UtilityAsset string
	Assets       []Asset
}

// Asset describes one asset of a chain.
type Asset struct {
	ID       string
	Symbol   string
	Decimals int
	// ExistentialDeposit is the minimum balance an account must keep to
	// stay alive on chain. Zero means the chain has no such requirement
	// for this asset.
	ExistentialDeposit *big.Int
	// Sufficient assets can keep an account alive on their own; accounts
	// holding only insufficient assets still need the native existential
	// deposit.
	Sufficient bool
}

// ChainAsset pins an Asset together with the chain it lives on.
type ChainAsset struct {
	Chain Chain
	Asset Asset
}

func (c ChainAsset) ID() ChainAssetID {
	return ChainAssetID{ChainID: c.Chain.ID, AssetID: c.Asset.ID}
}

// PriceData is one oracle price point for an asset, quoted in the oracle's
// fiat currency (USD unless configured otherwise).
type PriceData struct {
	Price     decimal.Decimal
	Currency  string
	UpdatedAt time.Time
}
