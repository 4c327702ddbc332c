package rates_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundraising-backend/internal/models"
	"fundraising-backend/internal/rates"
)

func TestClient_GetRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "bitcoin", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"bitcoin":{"usd":50123.45}}`))
	}))
	defer server.Close()

	client := rates.NewClient(server.URL, 5*time.Second)

	quote, err := client.GetRate("USD")
	require.NoError(t, err)
	assert.Equal(t, "USD", quote.CurrencyCode)
	assert.True(t, quote.Rate.Equal(decimal.RequireFromString("50123.45")),
		"got rate %s", quote.Rate)
	assert.WithinDuration(t, time.Now(), quote.FetchedAt, 5*time.Second)
}

func TestClient_GetRate_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := rates.NewClient(server.URL, 5*time.Second)

	_, err := client.GetRate("USD")
	assert.ErrorIs(t, err, models.ErrExternalService)
}

func TestClient_GetRate_MissingCurrency(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"bitcoin":{}}`))
	}))
	defer server.Close()

	client := rates.NewClient(server.URL, 5*time.Second)

	_, err := client.GetRate("XYZ")
	assert.ErrorIs(t, err, models.ErrExternalService)
}
