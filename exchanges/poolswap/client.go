package poolswap

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

	"github.com/Cogwheel-Validator/spectra-swap-engine/models"
)

// HTTPTradeClient implements TradeClient against a venue trade API that
// serves JSON over HTTP. Amounts travel as base-10 strings to stay exact.
type HTTPTradeClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewHTTPTradeClient(apiURL string, timeout time.Duration) (*HTTPTradeClient, error) {
	if _, err := url.Parse(apiURL); err != nil {
		return nil, fmt.Errorf("parse trade API URL: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPTradeClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    apiURL,
	}, nil
}

type quoteResponse struct {
	Amount string `json:"amount"`
	Error  string `json:"error,omitempty"`
}

type swapRequestBody struct {
	Venue        string `json:"venue"`
	ChainID      string `json:"chain_id"`
	AssetIn      string `json:"asset_in"`
	AssetOut     string `json:"asset_out"`
	AmountIn     string `json:"amount_in"`
	AmountOutMin string `json:"amount_out_min"`
	FeeAsset     string `json:"fee_asset"`
}

type submitResponse struct {
	TxHash string `json:"tx_hash"`
	Error  string `json:"error,omitempty"`
}

func (c *HTTPTradeClient) QuoteSwap(
	ctx context.Context,
	venueID string,
	assetIn, assetOut models.ChainAssetID,
	amount *big.Int,
	direction models.Direction,
) (*big.Int, error) {
	query := url.Values{}
	query.Set("venue", venueID)
	query.Set("asset_in", assetIn.AssetID)
	query.Set("asset_out", assetOut.AssetID)
	query.Set("amount", amount.String())
	query.Set("direction", string(direction))

	fullURL := fmt.Sprintf("%s/quote?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, err
	}

	var parsed quoteResponse
	if err := c.do(req, &parsed); err != nil {
		return nil, err
	}
	return parseAmount(parsed.Amount, parsed.Error)
}

func (c *HTTPTradeClient) EstimateSwapFee(ctx context.Context, swap SwapRequest) (*big.Int, error) {
	var parsed quoteResponse
	if err := c.post(ctx, "/swap/fee", requestBody(swap), &parsed); err != nil {
		return nil, err
	}
	return parseAmount(parsed.Amount, parsed.Error)
}

func (c *HTTPTradeClient) DryRunSwap(ctx context.Context, swap SwapRequest) (*big.Int, error) {
	var parsed quoteResponse
	if err := c.post(ctx, "/swap/dry-run", requestBody(swap), &parsed); err != nil {
		return nil, err
	}
	return parseAmount(parsed.Amount, parsed.Error)
}

func (c *HTTPTradeClient) SubmitSwap(ctx context.Context, swap SwapRequest) (string, error) {
	var parsed submitResponse
	if err := c.post(ctx, "/swap/submit", requestBody(swap), &parsed); err != nil {
		return "", err
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("venue rejected swap: %s", parsed.Error)
	}
	return parsed.TxHash, nil
}

func requestBody(swap SwapRequest) swapRequestBody {
	body := swapRequestBody{
		Venue:    swap.VenueID,
		ChainID:  swap.AssetIn.ChainID,
		AssetIn:  swap.AssetIn.AssetID,
		AssetOut: swap.AssetOut.AssetID,
		FeeAsset: swap.FeeAsset.AssetID,
	}
	if swap.AmountIn != nil {
		body.AmountIn = swap.AmountIn.String()
	}
	if swap.AmountOutMin != nil {
		body.AmountOutMin = swap.AmountOutMin.String()
	}
	return body
}

func (c *HTTPTradeClient) post(ctx context.Context, path string, body any, out any) error {
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
	return c.do(req, out)
}

func (c *HTTPTradeClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("trade API request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			poolswapLog.Warn().Err(err).Msg("failed to close response body")
		}
	}()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read trade API response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("trade API status %d: %s", resp.StatusCode, string(payload))
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode trade API response: %w", err)
	}
	return nil
}

func parseAmount(amount, apiError string) (*big.Int, error) {
	if apiError != "" {
		return nil, fmt.Errorf("trade API error: %s", apiError)
	}
	value, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return nil, fmt.Errorf("trade API returned malformed amount %q", amount)
	}
	return value, nil
}
