package rates

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fundraising-backend/internal/models"
)

// Quote is one observed BTC→currency conversion rate.
type Quote struct {
	CurrencyCode string
	Rate         decimal.Decimal
	FetchedAt    time.Time
}

// Client fetches BTC exchange rates from a CoinGecko-compatible
// simple-price endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetRate returns the current BTC price in the given currency.
// Currency codes are stored uppercase ISO-style; the provider keys
// them lowercase.
func (c *Client) GetRate(currencyCode string) (Quote, error) {
	vs := strings.ToLower(currencyCode)
	url := c.baseURL + "/simple/price?ids=bitcoin&vs_currencies=" + vs

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: rate fetch failed: %v", models.ErrExternalService, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: failed to read response body: %v", models.ErrExternalService, err)
	}

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("%w: rate fetch status %d, body: %s", models.ErrExternalService, resp.StatusCode, string(body))
	}

	// Decode through json.Number so the rate never round-trips a
	// binary float.
	var result map[string]map[string]json.Number
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&result); err != nil {
		return Quote{}, fmt.Errorf("%w: failed to decode response: %v", models.ErrExternalService, err)
	}

	raw, ok := result["bitcoin"][vs]
	if !ok {
		return Quote{}, fmt.Errorf("%w: no rate for currency %s in response", models.ErrExternalService, currencyCode)
	}

	rate, err := decimal.NewFromString(raw.String())
	if err != nil {
		return Quote{}, fmt.Errorf("%w: invalid rate %q: %v", models.ErrExternalService, raw.String(), err)
	}

	return Quote{
		CurrencyCode: strings.ToUpper(currencyCode),
		Rate:         rate,
		FetchedAt:    time.Now(),
	}, nil
}
