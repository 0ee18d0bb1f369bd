// Package pricing fetches fiat prices for fee conversion. A missing price
// is not an error; fee aggregation treats it as a zero contribution.
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Cogwheel-Validator/spectra-swap-engine/models"
)

var pricingLog zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	pricingLog = zerolog.New(out).With().Timestamp().Str("component", "pricing").Logger()
}

type cachedPrice struct {
	data      *models.PriceData
	fetchedAt time.Time
}

// Client queries a price oracle API and caches results for a short TTL so
// fee aggregation over a multi-hop route does not hammer the oracle with
// one request per hop.
type Client struct {
	httpClient *http.Client
	baseURL    string
	currency   string
	ttl        time.Duration

	mu    sync.Mutex
	cache map[models.ChainAssetID]cachedPrice
}

func NewClient(apiURL, currency string, ttl time.Duration) (*Client, error) {
	if _, err := url.Parse(apiURL); err != nil {
		return nil, fmt.Errorf("parse price API URL: %w", err)
	}
	if currency == "" {
		currency = "usd"
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    apiURL,
		currency:   currency,
		ttl:        ttl,
		cache:      make(map[models.ChainAssetID]cachedPrice),
	}, nil
}

type priceResponse struct {
	Price     string `json:"price"`
	Currency  string `json:"currency"`
	UpdatedAt int64  `json:"updated_at"`
}

// FetchPrice returns the cached or freshly fetched price of an asset. An
// unknown asset yields a nil price, not an error.
func (c *Client) FetchPrice(ctx context.Context, asset models.ChainAssetID) (*models.PriceData, error) {
	c.mu.Lock()
	cached, ok := c.cache[asset]
	c.mu.Unlock()
	if ok && time.Since(cached.fetchedAt) < c.ttl {
		return cached.data, nil
	}

	data, err := c.fetch(ctx, asset)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[asset] = cachedPrice{data: data, fetchedAt: time.Now()}
	c.mu.Unlock()
	return data, nil
}

func (c *Client) fetch(ctx context.Context, asset models.ChainAssetID) (*models.PriceData, error) {
	fullURL := fmt.Sprintf("%s/v1/prices/%s/%s?currency=%s",
		c.baseURL, url.PathEscape(asset.ChainID), url.PathEscape(asset.AssetID), url.QueryEscape(c.currency))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("price API request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			pricingLog.Warn().Err(err).Msg("failed to close response body")
		}
	}()

	if resp.StatusCode == http.StatusNotFound {
		pricingLog.Debug().Str("asset", asset.String()).Msg("no price for asset")
		return nil, nil
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read price API response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price API status %d: %s", resp.StatusCode, string(payload))
	}

	var parsed priceResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("decode price API response: %w", err)
	}

	price, err := decimal.NewFromString(parsed.Price)
	if err != nil {
		return nil, fmt.Errorf("price API returned malformed price %q: %w", parsed.Price, err)
	}

	return &models.PriceData{
		Price:     price,
		Currency:  parsed.Currency,
		UpdatedAt: time.Unix(parsed.UpdatedAt, 0),
	}, nil
}
