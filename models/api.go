package models

// AssetRef names one asset on one chain in API payloads.
type AssetRef struct {
	ChainID string `json:"chain_id"`
	AssetID string `json:"asset_id"`
}

// RefFor converts an internal identifier into its API shape.
func RefFor(id ChainAssetID) AssetRef {
	return AssetRef{ChainID: id.ChainID, AssetID: id.AssetID}
}

// ID converts the API shape back into the internal identifier.
func (r AssetRef) ID() ChainAssetID {
	return ChainAssetID{ChainID: r.ChainID, AssetID: r.AssetID}
}

// QuoteRequest asks for the best route between two assets. Amount is a
// base-10 integer string in the smallest unit of the fixed-side asset.
type QuoteRequest struct {
	AssetIn   AssetRef `json:"asset_in"`
	AssetOut  AssetRef `json:"asset_out"`
	Amount    string   `json:"amount"`
	Direction string   `json:"direction"` // "sell" | "buy"
}

// HopSummary describes one hop of a returned route.
type HopSummary struct {
	AssetIn   AssetRef `json:"asset_in"`
	AssetOut  AssetRef `json:"asset_out"`
	AmountIn  string   `json:"amount_in"`
	AmountOut string   `json:"amount_out"`
	Label     string   `json:"label"` // "swap" | "transfer"

	EstimatedSeconds float64 `json:"estimated_seconds"`
}

// FeeSummary is the aggregated fee view of a route.
type FeeSummary struct {
	FeeAsset                  AssetRef `json:"fee_asset"`
	OriginFee                 string   `json:"origin_fee"`
	IntermediateFeesInAssetIn string   `json:"intermediate_fees_in_asset_in"`
	TotalFeeInAssetIn         string   `json:"total_fee_in_asset_in"`
	TotalFiat                 string   `json:"total_fiat,omitempty"`
	FiatCurrency              string   `json:"fiat_currency,omitempty"`
}

// QuoteResponse - unified response for quote queries. A valid query with no
// viable route returns 200 with success=false.
type QuoteResponse struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`

	Direction string       `json:"direction,omitempty"`
	AmountIn  string       `json:"amount_in,omitempty"`
	AmountOut string       `json:"amount_out,omitempty"`
	Hops      []HopSummary `json:"hops,omitempty"`

	TotalSeconds float64     `json:"total_seconds,omitempty"`
	Fee          *FeeSummary `json:"fee,omitempty"`
}

// FeeRequest prices the route a quote query would return. Slippage is a
// decimal fraction ("0.01" is one percent); FeeAsset overrides the asset
// the first hop's fee is paid in and defaults to the input asset.
type FeeRequest struct {
	AssetIn   AssetRef  `json:"asset_in"`
	AssetOut  AssetRef  `json:"asset_out"`
	Amount    string    `json:"amount"`
	Direction string    `json:"direction"`
	Slippage  string    `json:"slippage"`
	FeeAsset  *AssetRef `json:"fee_asset,omitempty"`
}

// FeeResponse carries the fee breakdown plus the buffered total a wallet
// should reserve before submitting.
type FeeResponse struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`

	Fee                    *FeeSummary `json:"fee,omitempty"`
	BufferedTotalInAssetIn string      `json:"buffered_total_in_asset_in,omitempty"`
}

// DestinationsResponse lists every asset reachable from the origin in one
// hop of the current edge set.
type DestinationsResponse struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`

	Origin       AssetRef   `json:"origin"`
	Destinations []AssetRef `json:"destinations"`
}
