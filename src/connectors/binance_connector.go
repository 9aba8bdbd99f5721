package connectors

// REST CLIENT FOR THE BINANCE PUBLIC TICKER API
// RESTY ONLY + INTERNAL RETRY, NO AUTH REQUIRED

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
)

const defaultBinanceBaseURL = "https://api.binance.com/api/v3"

// tickerPrice is the wire shape of /ticker/price; price is decimal-as-text.
type tickerPrice struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// -----------------------------
// CLIENT
// -----------------------------
type BinanceClient struct {
	baseURL string
	http    *resty.Client
}

func NewBinanceClient(baseURL string) *BinanceClient {
	retryCount := defaultRetryAttempts - 1

	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBinanceBaseURL
		logger.Warnf("No base URL provided, using default: %s", baseURL)
	}
	baseURL = strings.TrimRight(baseURL, "/")

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(retryCount).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff).
		AddRetryCondition(isRetryableResp)

	return &BinanceClient{
		baseURL: baseURL,
		http:    httpClient,
	}
}

// TickerPrice fetches the current price for one trading pair,
// e.g. GET /ticker/price?symbol=BTCUSDT
func (c *BinanceClient) TickerPrice(ctx context.Context, pair string) (decimal.Decimal, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("symbol", pair).
		Get("/ticker/price")
	if err != nil {
		return decimal.Decimal{}, err
	}
	if resp.StatusCode() != 200 {
		return decimal.Decimal{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	var parsed tickerPrice
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return decimal.Decimal{}, err
	}
	price, err := decimal.NewFromString(parsed.Price)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid price %q for %s: %w", parsed.Price, pair, err)
	}
	return price, nil
}

// TickerPrices fetches prices for several trading pairs in one call,
// e.g. GET /ticker/price?symbols=["BTCUSDT","ETHUSDT"]
// Pairs missing from the response are absent from the returned map.
func (c *BinanceClient) TickerPrices(ctx context.Context, pairs []string) (map[string]decimal.Decimal, error) {
	if len(pairs) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	// the symbols parameter is a JSON array of pair names
	symbolsParam, err := json.Marshal(pairs)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("symbols", string(symbolsParam)).
		Get("/ticker/price")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	var parsed []tickerPrice
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, err
	}

	prices := make(map[string]decimal.Decimal, len(parsed))
	for _, item := range parsed {
		price, err := decimal.NewFromString(item.Price)
		if err != nil {
			logger.Warnf("Skipping %s: invalid price %q", item.Symbol, item.Price)
			continue
		}
		prices[item.Symbol] = price
	}
	return prices, nil
}
