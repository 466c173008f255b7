package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/kachence/sols.bet-sub002/internal/domain"
	"github.com/kachence/sols.bet-sub002/pkg/config"
	"github.com/kachence/sols.bet-sub002/pkg/retry"
)

type ExchangeAPIClient struct {
	baseURL    string
	httpClient *http.Client
	config     *config.OracleConfig
	retrier    *retry.Retrier
	logger     zerolog.Logger
}

func NewExchangeAPIClient(cfg *config.OracleConfig, logger zerolog.Logger) (*ExchangeAPIClient, error) {
	backoffBase := time.Duration(cfg.RetryBackoffBase) * time.Second
	if backoffBase <= 0 {
		backoffBase = 2 * time.Second
	}

	retrier, err := retry.New(retry.Policy{
		MaxRetries:  cfg.MaxRetries,
		BackoffBase: backoffBase,
		Retryable:   isRetryable,
	}, logger)
	if err != nil {
		return nil, err
	}

	return &ExchangeAPIClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
		config:  cfg,
		retrier: retrier,
		logger:  logger.With().Str("component", "coincap_api_client").Logger(),
	}, nil
}

func (c *ExchangeAPIClient) GetExchangeRate(ctx context.Context, cryptoCurrency, fiatCurrency string) (*domain.ExchangeRate, error) {
	var rate *domain.ExchangeRate

	err := c.retrier.Do(ctx, func() error {
		fetched, err := c.fetchRate(ctx, cryptoCurrency)
		if err != nil {
			return err
		}
		rate = fetched
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rate, nil
}

func (c *ExchangeAPIClient) fetchRate(ctx context.Context, cryptoCurrency string) (*domain.ExchangeRate, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	u.Path = fmt.Sprintf("/v3/assets/%s", mapCryptoToCoinCapID(cryptoCurrency))

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request failed: %w", err)
	}

	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body failed: %w", err)
	}

	return c.parseCoinCapResponse(body, cryptoCurrency)
}

func (c *ExchangeAPIClient) parseCoinCapResponse(body []byte, cryptoCurrency string) (*domain.ExchangeRate, error) {
	var response struct {
		Data      domain.CoinCapAsset `json:"data"`
		Timestamp int64               `json:"timestamp"`
	}

	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("parsing JSON response failed: %w", err)
	}

	price, err := strconv.ParseFloat(response.Data.PriceUSD, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid price format: %w", err)
	}
	if price <= 0 {
		return nil, fmt.Errorf("non-positive price %f for %s", price, cryptoCurrency)
	}

	return &domain.ExchangeRate{
		CryptoCurrency: cryptoCurrency,
		FiatCurrency:   "USD",
		Rate:           price,
		LastUpdated:    time.Unix(response.Timestamp/1000, 0).Format(time.RFC3339),
	}, nil
}

func (c *ExchangeAPIClient) handleErrorResponse(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &httpStatusError{statusCode: resp.StatusCode, message: "failed to read response body"}
	}

	var errorResp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &errorResp); err == nil && errorResp.Error != "" {
		return &httpStatusError{statusCode: resp.StatusCode, message: errorResp.Error}
	}

	return &httpStatusError{statusCode: resp.StatusCode, message: string(body)}
}

type httpStatusError struct {
	statusCode int
	message    string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("HTTP error %d: %s", e.statusCode, e.message)
}

func mapCryptoToCoinCapID(cryptoCurrency string) string {
	mapping := map[string]string{
		"SOL":  "solana",
		"BTC":  "bitcoin",
		"ETH":  "ethereum",
		"USDC": "usd-coin",
		"USDT": "tether",
	}

	if id, exists := mapping[cryptoCurrency]; exists {
		return id
	}
	return cryptoCurrency
}

func isRetryable(err error) bool {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.statusCode == http.StatusTooManyRequests ||
			statusErr.statusCode == http.StatusInternalServerError ||
			statusErr.statusCode == http.StatusBadGateway ||
			statusErr.statusCode == http.StatusServiceUnavailable ||
			statusErr.statusCode == http.StatusGatewayTimeout
	}

	// Network-level failures (timeouts, refused connections) are transient;
	// parse errors are permanent.
	var netErr net.Error
	return errors.As(err, &netErr)
}
