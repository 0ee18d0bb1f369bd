package crosschain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"time"
)

// HTTPTransferClient implements TransferClient against a transfer relayer
// API that serves JSON over HTTP. Amounts travel as base-10 strings.
type HTTPTransferClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewHTTPTransferClient(apiURL string, timeout time.Duration) (*HTTPTransferClient, error) {
	if _, err := url.Parse(apiURL); err != nil {
		return nil, fmt.Errorf("parse transfer API URL: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPTransferClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    apiURL,
	}, nil
}

type transferRequestBody struct {
	Lane        string `json:"lane"`
	Kind        string `json:"kind"`
	ChainFrom   string `json:"chain_from"`
	ChainTo     string `json:"chain_to"`
	AssetIn     string `json:"asset_in"`
	AssetOut    string `json:"asset_out"`
	Amount      string `json:"amount"`
	Beneficiary string `json:"beneficiary,omitempty"`
	FeeAsset    string `json:"fee_asset"`
}

type amountResponse struct {
	Amount string `json:"amount"`
	Error  string `json:"error,omitempty"`
}

type transferSubmitResponse struct {
	TxHash string `json:"tx_hash"`
	Error  string `json:"error,omitempty"`
}

func (c *HTTPTransferClient) EstimateOriginFee(ctx context.Context, req TransferRequest) (*big.Int, error) {
	var parsed amountResponse
	if err := c.post(ctx, "/transfer/fee", transferBody(req), &parsed); err != nil {
		return nil, err
	}
	return parseTransferAmount(parsed.Amount, parsed.Error)
}

func (c *HTTPTransferClient) DryRunTransfer(ctx context.Context, req TransferRequest) (*big.Int, error) {
	var parsed amountResponse
	if err := c.post(ctx, "/transfer/dry-run", transferBody(req), &parsed); err != nil {
		return nil, err
	}
	return parseTransferAmount(parsed.Amount, parsed.Error)
}

func (c *HTTPTransferClient) SubmitTransfer(ctx context.Context, req TransferRequest) (string, error) {
	var parsed transferSubmitResponse
	if err := c.post(ctx, "/transfer/submit", transferBody(req), &parsed); err != nil {
		return "", err
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("relayer rejected transfer: %s", parsed.Error)
	}
	return parsed.TxHash, nil
}

func transferBody(req TransferRequest) transferRequestBody {
	body := transferRequestBody{
		Lane:        req.Lane,
		Kind:        string(req.Kind),
		ChainFrom:   req.AssetIn.ChainID,
		ChainTo:     req.AssetOut.ChainID,
		AssetIn:     req.AssetIn.AssetID,
		AssetOut:    req.AssetOut.AssetID,
		Beneficiary: req.Beneficiary,
		FeeAsset:    req.FeeAsset.AssetID,
	}
	if req.Amount != nil {
		body.Amount = req.Amount.String()
	}
	return body
}

func (c *HTTPTransferClient) post(ctx context.Context, path string, body any, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("transfer API request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			crosschainLog.Warn().Err(err).Msg("failed to close response body")
		}
	}()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read transfer API response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("transfer API status %d: %s", resp.StatusCode, string(payload))
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode transfer API response: %w", err)
	}
	return nil
}

func parseTransferAmount(amount, apiError string) (*big.Int, error) {
	if apiError != "" {
		return nil, fmt.Errorf("transfer API error: %s", apiError)
	}
	value, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return nil, fmt.Errorf("transfer API returned malformed amount %q", amount)
	}
	return value, nil
}
