package crosschain

import (
	"fmt"

	"github.com/btcsuite/btcutil/bech32"

	"github.com/Cogwheel-Validator/spectra-swap-engine/models"
)

// AddressConverter derives the same account's address on other chains by
// re-encoding its bech32 payload under the target chain's prefix. The
// crosschain edge uses it to compute the beneficiary on the destination
// chain from the sender's origin address.
type AddressConverter struct {
	chainPrefixes map[string]string
}

func NewAddressConverter(chains []models.Chain) *AddressConverter {
	prefixes := make(map[string]string)
	for _, chain := range chains {
		if chain.Bech32Prefix != "" {
			prefixes[chain.ID] = chain.Bech32Prefix
		}
	}
	return &AddressConverter{chainPrefixes: prefixes}
}

// ConvertAddress re-encodes an address for the target chain.
func (c *AddressConverter) ConvertAddress(address, targetChainID string) (string, error) {
	targetPrefix, ok := c.chainPrefixes[targetChainID]
	if !ok {
		return "", fmt.Errorf("unknown chain id: %s", targetChainID)
	}
	return ConvertBech32Address(address, targetPrefix)
}

// ConvertBech32Address re-encodes a bech32 address under a new prefix.
func ConvertBech32Address(address, targetPrefix string) (string, error) {
	_, data, err := bech32.Decode(address)
	if err != nil {
		return "", fmt.Errorf("failed to decode address: %w", err)
	}

	converted, err := bech32.Encode(targetPrefix, data)
	if err != nil {
		return "", fmt.Errorf("failed to encode address: %w", err)
	}

	return converted, nil
}

// Prefix returns the bech32 prefix registered for a chain.
func (c *AddressConverter) Prefix(chainID string) (string, bool) {
	prefix, ok := c.chainPrefixes[chainID]
	return prefix, ok
}
