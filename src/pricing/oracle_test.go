package pricing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeTicker struct {
	mu          sync.Mutex
	prices      map[string]decimal.Decimal
	batchErr    error
	singleErrs  map[string]error
	singleCalls map[string]int
	batchCalls  [][]string
}

func newFakeTicker(prices map[string]string) *fakeTicker {
	parsed := make(map[string]decimal.Decimal, len(prices))
	for pair, price := range prices {
		parsed[pair] = decimal.RequireFromString(price)
	}
	return &fakeTicker{
		prices:      parsed,
		singleErrs:  map[string]error{},
		singleCalls: map[string]int{},
	}
}

func (f *fakeTicker) TickerPrice(_ context.Context, pair string) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.singleCalls[pair]++
	if err, ok := f.singleErrs[pair]; ok {
		return decimal.Decimal{}, err
	}
	price, ok := f.prices[pair]
	if !ok {
		return decimal.Decimal{}, errors.New("unknown pair")
	}
	return price, nil
}

func (f *fakeTicker) TickerPrices(_ context.Context, pairs []string) (map[string]decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls = append(f.batchCalls, append([]string(nil), pairs...))
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	out := make(map[string]decimal.Decimal, len(pairs))
	for _, pair := range pairs {
		if price, ok := f.prices[pair]; ok {
			out[pair] = price
		}
	}
	return out, nil
}

func (f *fakeTicker) calls(pair string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.singleCalls[pair]
}

func TestGetPrice_CachesWithinTTL(t *testing.T) {
	ticker := newFakeTicker(map[string]string{"BTCUSDT": "50000"})
	oracle := NewOracle(ticker, 30*time.Second)

	now := time.Now()
	oracle.now = func() time.Time { return now }

	price, ok := oracle.GetPrice(context.Background(), "btc")
	require.True(t, ok)
	require.True(t, price.Equal(decimal.RequireFromString("50000")))

	now = now.Add(29 * time.Second)
	_, ok = oracle.GetPrice(context.Background(), "BTC")
	require.True(t, ok)

	if got := ticker.calls("BTCUSDT"); got != 1 {
		t.Fatalf("expected 1 external call within TTL, got %d", got)
	}
}

func TestGetPrice_RefetchesAfterTTL(t *testing.T) {
	ticker := newFakeTicker(map[string]string{"BTCUSDT": "50000"})
	oracle := NewOracle(ticker, 30*time.Second)

	now := time.Now()
	oracle.now = func() time.Time { return now }

	_, ok := oracle.GetPrice(context.Background(), "BTC")
	require.True(t, ok)

	now = now.Add(31 * time.Second)
	_, ok = oracle.GetPrice(context.Background(), "BTC")
	require.True(t, ok)

	if got := ticker.calls("BTCUSDT"); got != 2 {
		t.Fatalf("expected a new external call after TTL expiry, got %d", got)
	}
}

func TestGetPrices_BatchesOnlyUncachedPairs(t *testing.T) {
	ticker := newFakeTicker(map[string]string{"BTCUSDT": "50000", "ETHUSDT": "3000"})
	oracle := NewOracle(ticker, 30*time.Second)

	_, ok := oracle.GetPrice(context.Background(), "BTC")
	require.True(t, ok)

	prices, err := oracle.GetPrices(context.Background(), []string{"BTC", "ETH"})
	require.NoError(t, err)
	require.Len(t, prices, 2)
	require.True(t, prices["BTC"].Equal(decimal.RequireFromString("50000")))
	require.True(t, prices["ETH"].Equal(decimal.RequireFromString("3000")))

	require.Len(t, ticker.batchCalls, 1)
	require.Equal(t, []string{"ETHUSDT"}, ticker.batchCalls[0])
}

func TestGetPrices_FallbackCollectsPartialSuccess(t *testing.T) {
	ticker := newFakeTicker(map[string]string{"AAAUSDT": "1.5", "BBBUSDT": "2.5"})
	ticker.batchErr = errors.New("HTTP 418")
	ticker.singleErrs["BBBUSDT"] = errors.New("HTTP 500")
	oracle := NewOracle(ticker, 30*time.Second)

	prices, err := oracle.GetPrices(context.Background(), []string{"AAA", "BBB"})
	require.NoError(t, err)

	price, ok := prices["AAA"]
	require.True(t, ok, "expected fallback price for AAA")
	require.True(t, price.Equal(decimal.RequireFromString("1.5")))

	if _, ok := prices["BBB"]; ok {
		t.Fatal("BBB failed both paths and must be omitted, not mapped to zero")
	}
}

func TestGetPrices_TotalFailureReturnsError(t *testing.T) {
	ticker := newFakeTicker(nil)
	ticker.batchErr = errors.New("connection refused")
	ticker.singleErrs["AAAUSDT"] = errors.New("connection refused")
	ticker.singleErrs["BBBUSDT"] = errors.New("connection refused")
	oracle := NewOracle(ticker, 30*time.Second)

	prices, err := oracle.GetPrices(context.Background(), []string{"AAA", "BBB"})
	require.Error(t, err)
	require.Empty(t, prices)
}

func TestClearCache_ForcesRefetch(t *testing.T) {
	ticker := newFakeTicker(map[string]string{"BTCUSDT": "50000"})
	oracle := NewOracle(ticker, 30*time.Second)

	_, ok := oracle.GetPrice(context.Background(), "BTC")
	require.True(t, ok)
	oracle.ClearCache()
	_, ok = oracle.GetPrice(context.Background(), "BTC")
	require.True(t, ok)

	if got := ticker.calls("BTCUSDT"); got != 2 {
		t.Fatalf("expected refetch after ClearCache, got %d calls", got)
	}
}

func TestTradingPair_Mapping(t *testing.T) {
	require.Equal(t, "BTCUSDT", TradingPair("btc"))
	require.Equal(t, "ETHUSDT", TradingPair("ETH"))
	require.Equal(t, "BTC", baseSymbol("BTCUSDT"))
}
