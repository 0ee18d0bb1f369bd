package config

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"

	"github.com/Cogwheel-Validator/spectra-swap-engine/exchanges/crosschain"
	"github.com/Cogwheel-Validator/spectra-swap-engine/exchanges/poolswap"
	"github.com/Cogwheel-Validator/spectra-swap-engine/models"
	"github.com/Cogwheel-Validator/spectra-swap-engine/router"
)

// Registry is the loaded chain-and-edge configuration. It backs the edge
// graph and answers the asset lookups the engine needs: sufficiency,
// utility assets, decimals and block times.
type Registry struct {
	chains map[string]models.Chain
	assets map[models.ChainAssetID]models.Asset

	cfg *RegistryConfig
}

// LoadRegistry reads a registry file, TOML by default with a JSON
// fallback on the file extension.
func LoadRegistry(filePath string) (*Registry, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}

	var cfg RegistryConfig
	if strings.HasSuffix(filePath, ".json") {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON registry: %w", err)
		}
	} else {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML registry: %w", err)
		}
	}

	return NewRegistry(&cfg)
}

// NewRegistry validates the raw config and builds the lookup maps.
func NewRegistry(cfg *RegistryConfig) (*Registry, error) {
	if cfg == nil || len(cfg.Chains) == 0 {
		return nil, fmt.Errorf("no chains in registry")
	}

	registry := &Registry{
		chains: make(map[string]models.Chain, len(cfg.Chains)),
		assets: make(map[models.ChainAssetID]models.Asset),
		cfg:    cfg,
	}

	for _, chainCfg := range cfg.Chains {
		chain, err := convertChain(chainCfg)
		if err != nil {
			return nil, err
		}
		if _, exists := registry.chains[chain.ID]; exists {
			return nil, fmt.Errorf("duplicate chain id %s", chain.ID)
		}
		registry.chains[chain.ID] = chain
		for _, asset := range chain.Assets {
			registry.assets[models.ChainAssetID{ChainID: chain.ID, AssetID: asset.ID}] = asset
		}
	}

	if err := registry.verifyEdgeConfigs(); err != nil {
		return nil, err
	}

	return registry, nil
}

func convertChain(cfg ChainConfig) (models.Chain, error) {
	if cfg.ID == "" {
		return models.Chain{}, fmt.Errorf("chain with empty id")
	}
	blockTime, err := time.ParseDuration(cfg.BlockTime)
	if err != nil || blockTime <= 0 {
		return models.Chain{}, fmt.Errorf("chain %s: invalid block_time %q", cfg.ID, cfg.BlockTime)
	}
	if len(cfg.Assets) == 0 {
		return models.Chain{}, fmt.Errorf("chain %s: no assets", cfg.ID)
	}

	chain := models.Chain{
		ID:           cfg.ID,
		Name:         cfg.Name,
		Bech32Prefix: cfg.Bech32Prefix,
		BlockTime:    blockTime,
		UtilityAsset: cfg.UtilityAsset,
		Assets:       make([]models.Asset, 0, len(cfg.Assets)),
	}

	foundUtility := false
	for _, assetCfg := range cfg.Assets {
		deposit := big.NewInt(0)
		if assetCfg.ExistentialDeposit != "" {
			parsed, ok := new(big.Int).SetString(assetCfg.ExistentialDeposit, 10)
			if !ok {
				return models.Chain{}, fmt.Errorf("chain %s asset %s: malformed existential_deposit %q",
					cfg.ID, assetCfg.ID, assetCfg.ExistentialDeposit)
			}
			deposit = parsed
		}
		chain.Assets = append(chain.Assets, models.Asset{
			ID:                 assetCfg.ID,
			Symbol:             assetCfg.Symbol,
			Decimals:           assetCfg.Decimals,
			ExistentialDeposit: deposit,
			Sufficient:         assetCfg.Sufficient,
		})
		if assetCfg.ID == cfg.UtilityAsset {
			foundUtility = true
		}
	}
	if cfg.UtilityAsset == "" || !foundUtility {
		return models.Chain{}, fmt.Errorf("chain %s: utility_asset %q not among assets",
			cfg.ID, cfg.UtilityAsset)
	}

	return chain, nil
}

func (r *Registry) verifyEdgeConfigs() error {
	for _, venue := range r.cfg.PoolVenues {
		if _, ok := r.chains[venue.ChainID]; !ok {
			return fmt.Errorf("pool venue %s: unknown chain %s", venue.ID, venue.ChainID)
		}
		for _, pair := range venue.Pairs {
			for _, assetID := range []string{pair.AssetA, pair.AssetB} {
				id := models.ChainAssetID{ChainID: venue.ChainID, AssetID: assetID}
				if _, ok := r.assets[id]; !ok {
					return fmt.Errorf("pool venue %s: unknown asset %s", venue.ID, id)
				}
			}
		}
	}

	for _, lane := range r.cfg.TransferLanes {
		if lane.Kind != string(crosschain.TransferKindReserve) &&
			lane.Kind != string(crosschain.TransferKindTeleport) {
			return fmt.Errorf("transfer lane %s: unknown kind %q", lane.ID, lane.Kind)
		}
		origin := models.ChainAssetID{ChainID: lane.OriginChain, AssetID: lane.OriginAsset}
		destination := models.ChainAssetID{ChainID: lane.DestinationChain, AssetID: lane.DestinationAsset}
		for _, id := range []models.ChainAssetID{origin, destination} {
			if _, ok := r.assets[id]; !ok {
				return fmt.Errorf("transfer lane %s: unknown asset %s", lane.ID, id)
			}
		}
	}

	return nil
}

// Chains returns the configured chains.
func (r *Registry) Chains() []models.Chain {
	chains := make([]models.Chain, 0, len(r.chains))
	for _, chain := range r.chains {
		chains = append(chains, chain)
	}
	return chains
}

// Chain looks up one chain by id.
func (r *Registry) Chain(chainID string) (models.Chain, bool) {
	chain, ok := r.chains[chainID]
	return chain, ok
}

// Asset looks up one asset.
func (r *Registry) Asset(id models.ChainAssetID) (models.Asset, bool) {
	asset, ok := r.assets[id]
	return asset, ok
}

// IsSufficient reports whether an asset can keep an account alive on its
// own. Unknown assets count as insufficient.
func (r *Registry) IsSufficient(id models.ChainAssetID) bool {
	asset, ok := r.assets[id]
	return ok && asset.Sufficient
}

// UtilityAsset resolves the native fee asset of a chain.
func (r *Registry) UtilityAsset(chainID string) (models.ChainAssetID, bool) {
	chain, ok := r.chains[chainID]
	if !ok {
		return models.ChainAssetID{}, false
	}
	return models.ChainAssetID{ChainID: chainID, AssetID: chain.UtilityAsset}, true
}

// AssetDecimals resolves an asset's decimal places for fiat scaling.
func (r *Registry) AssetDecimals(id models.ChainAssetID) (int32, bool) {
	asset, ok := r.assets[id]
	if !ok {
		return 0, false
	}
	return int32(asset.Decimals), true
}

// BlockTimes maps chain ids to their block intervals for the execution
// time estimator.
func (r *Registry) BlockTimes() map[string]time.Duration {
	times := make(map[string]time.Duration, len(r.chains))
	for id, chain := range r.chains {
		times[id] = chain.BlockTime
	}
	return times
}

// BuildEdges materializes the configured venues and lanes into graph
// edges. Pool pairs produce one edge per direction; transfer lanes
// produce the reverse direction only when marked bidirectional.
func (r *Registry) BuildEdges(
	tradeClient poolswap.TradeClient,
	transferClient crosschain.TransferClient,
	sender string,
) ([]router.EdgeHandle, error) {
	converter := crosschain.NewAddressConverter(r.Chains())
	edges := make([]router.EdgeHandle, 0)

	for _, venue := range r.cfg.PoolVenues {
		cost, err := parseDecimal(venue.ApproxCostFiat)
		if err != nil {
			return nil, fmt.Errorf("pool venue %s: %w", venue.ID, err)
		}
		for _, pair := range venue.Pairs {
			assetA := models.ChainAssetID{ChainID: venue.ChainID, AssetID: pair.AssetA}
			assetB := models.ChainAssetID{ChainID: venue.ChainID, AssetID: pair.AssetB}
			for _, pairing := range [][2]models.ChainAssetID{{assetA, assetB}, {assetB, assetA}} {
				edge, err := poolswap.NewEdge(venue.ID, pairing[0], pairing[1], venue.Weight, cost, tradeClient)
				if err != nil {
					return nil, fmt.Errorf("pool venue %s: %w", venue.ID, err)
				}
				edges = append(edges, router.NewEdgeHandle(edge))
			}
		}
	}

	for _, lane := range r.cfg.TransferLanes {
		feeRate, err := parseDecimal(lane.DeliveryFeeRate)
		if err != nil {
			return nil, fmt.Errorf("transfer lane %s: %w", lane.ID, err)
		}
		cost, err := parseDecimal(lane.ApproxCostFiat)
		if err != nil {
			return nil, fmt.Errorf("transfer lane %s: %w", lane.ID, err)
		}

		origin := models.ChainAssetID{ChainID: lane.OriginChain, AssetID: lane.OriginAsset}
		destination := models.ChainAssetID{ChainID: lane.DestinationChain, AssetID: lane.DestinationAsset}

		endpoints := [][2]models.ChainAssetID{{origin, destination}}
		if lane.Bidirectional {
			endpoints = append(endpoints, [2]models.ChainAssetID{destination, origin})
		}
		for _, pairing := range endpoints {
			edge, err := crosschain.NewEdge(
				lane.ID,
				crosschain.TransferKind(lane.Kind),
				pairing[0], pairing[1],
				lane.Weight,
				feeRate, cost,
				transferClient, converter, sender,
			)
			if err != nil {
				return nil, fmt.Errorf("transfer lane %s: %w", lane.ID, err)
			}
			edges = append(edges, router.NewEdgeHandle(edge))
		}
	}

	if len(edges) == 0 {
		return nil, fmt.Errorf("registry declares no edges")
	}
	return edges, nil
}

func parseDecimal(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("malformed decimal %q: %w", raw, err)
	}
	return value, nil
}
