package blockchain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fundraising-backend/internal/models"
)

// satoshisPerBTC converts provider amounts (satoshis) to BTC.
var satoshisPerBTC = decimal.New(1, 8)

// fetchAttempts bounds retries of transient provider failures. The
// shared deadline in GetBalance keeps the whole fetch, retries
// included, within the configured timeout.
const fetchAttempts = 2

// Client fetches confirmed address balances from an Esplora-compatible
// API (blockstream.info, mempool.space).
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

type addressResponse struct {
	Address    string `json:"address"`
	ChainStats struct {
		FundedTxoSum int64 `json:"funded_txo_sum"`
		SpentTxoSum  int64 `json:"spent_txo_sum"`
		TxCount      int64 `json:"tx_count"`
	} `json:"chain_stats"`
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetBalance returns the confirmed balance of a Bitcoin address in
// BTC. Transient provider failures are retried with backoff under a
// single deadline; any transport, status, or decode failure is
// surfaced as models.ErrExternalService so callers can treat timeouts
// and provider errors uniformly.
func (c *Client) GetBalance(address string) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	var balance decimal.Decimal
	err := c.RetryWithBackoff(ctx, func() error {
		var ferr error
		balance, ferr = c.fetchBalance(ctx, address)
		return ferr
	}, fetchAttempts)
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

func (c *Client) fetchBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	url := c.baseURL + "/address/" + address

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: balance fetch failed: %v", models.ErrExternalService, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: failed to read response body: %v", models.ErrExternalService, err)
	}

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("%w: balance fetch status %d, body: %s", models.ErrExternalService, resp.StatusCode, string(body))
	}

	var result addressResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return decimal.Zero, fmt.Errorf("%w: failed to decode response: %v", models.ErrExternalService, err)
	}

	sats := result.ChainStats.FundedTxoSum - result.ChainStats.SpentTxoSum
	return decimal.NewFromInt(sats).Div(satoshisPerBTC), nil
}

// RetryWithBackoff retries fn with exponential backoff, up to
// maxRetries attempts, giving up early when ctx expires.
func (c *Client) RetryWithBackoff(ctx context.Context, fn func() error, maxRetries int) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if attempt < maxRetries-1 {
			select {
			case <-time.After(time.Duration(1<<attempt) * time.Second):
			case <-ctx.Done():
				return lastErr
			}
		}
	}
	return lastErr
}
