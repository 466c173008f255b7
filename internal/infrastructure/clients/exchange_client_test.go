package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kachence/sols.bet-sub002/pkg/config"
	"github.com/kachence/sols.bet-sub002/pkg/retry"
)

func newTestClient(t *testing.T, baseURL string, maxRetries int) *ExchangeAPIClient {
	t.Helper()
	client, err := NewExchangeAPIClient(&config.OracleConfig{
		BaseURL:          baseURL,
		Timeout:          5,
		MaxRetries:       maxRetries,
		RetryBackoffBase: 1,
	}, zerolog.Nop())
	require.NoError(t, err)
	return client
}

func TestGetExchangeRateParsesCoinCapResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/assets/solana", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"id":"solana","symbol":"SOL","priceUsd":"142.53"},"timestamp":1700000000000}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 0)

	rate, err := client.GetExchangeRate(context.Background(), "SOL", "USD")
	require.NoError(t, err)
	assert.Equal(t, "SOL", rate.CryptoCurrency)
	assert.Equal(t, "USD", rate.FiatCurrency)
	assert.Equal(t, 142.53, rate.Rate)
}

func TestGetExchangeRateSendsAPIKey(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"data":{"priceUsd":"142.53"},"timestamp":1700000000000}`))
	}))
	defer server.Close()

	client, err := NewExchangeAPIClient(&config.OracleConfig{
		BaseURL:          server.URL,
		Timeout:          5,
		RetryBackoffBase: 1,
		APIKey:           "coincap-key",
	}, zerolog.Nop())
	require.NoError(t, err)

	_, err = client.GetExchangeRate(context.Background(), "SOL", "USD")
	require.NoError(t, err)
	assert.Equal(t, "Bearer coincap-key", gotAuth)
}

func TestGetExchangeRateRejectsNonPositivePrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"priceUsd":"0"},"timestamp":1700000000000}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 0)

	_, err := client.GetExchangeRate(context.Background(), "SOL", "USD")
	assert.Error(t, err)
}

func TestGetExchangeRateDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 3)

	_, err := client.GetExchangeRate(context.Background(), "SOL", "USD")
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetExchangeRateRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"data":{"priceUsd":"142.53"},"timestamp":1700000000000}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 1)

	rate, err := client.GetExchangeRate(context.Background(), "SOL", "USD")
	require.NoError(t, err)
	assert.Equal(t, 142.53, rate.Rate)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetExchangeRateExhaustsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 1)

	_, err := client.GetExchangeRate(context.Background(), "SOL", "USD")
	assert.ErrorIs(t, err, retry.ErrMaxRetriesExceeded)
}

func TestMapCryptoToCoinCapID(t *testing.T) {
	assert.Equal(t, "solana", mapCryptoToCoinCapID("SOL"))
	assert.Equal(t, "bitcoin", mapCryptoToCoinCapID("BTC"))
	assert.Equal(t, "unknown-coin", mapCryptoToCoinCapID("unknown-coin"))
}
