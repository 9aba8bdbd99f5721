package pricing

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
)

// QuoteAsset is the fixed quote currency of every trading pair sent to the
// price source. BTC maps to BTCUSDT, and the suffix is stripped again when
// indexing results by internal symbol.
const QuoteAsset = "USDT"

// DefaultCacheTTL bounds call volume against the rate-limited ticker API.
const DefaultCacheTTL = 30 * time.Second

// TickerSource is the external price API consumed by the Oracle.
type TickerSource interface {
	TickerPrice(ctx context.Context, pair string) (decimal.Decimal, error)
	TickerPrices(ctx context.Context, pairs []string) (map[string]decimal.Decimal, error)
}

type cacheEntry struct {
	price     decimal.Decimal
	fetchedAt time.Time
}

// Oracle resolves current market prices with a short-lived per-pair cache.
// The cache is owned by the Oracle instance, shared by every caller holding
// it, and safe for concurrent use. Entries expire by TTL only; ClearCache is
// the single manual invalidation.
type Oracle struct {
	source TickerSource
	ttl    time.Duration
	now    func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

func NewOracle(source TickerSource, ttl time.Duration) *Oracle {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Oracle{
		source: source,
		ttl:    ttl,
		now:    time.Now,
		cache:  make(map[string]cacheEntry),
	}
}

// TradingPair maps an internal asset symbol to the external pair name.
func TradingPair(symbol string) string {
	return strings.ToUpper(symbol) + QuoteAsset
}

func baseSymbol(pair string) string {
	return strings.TrimSuffix(pair, QuoteAsset)
}

// GetPrice resolves one symbol; ok is false when no price could be fetched.
func (o *Oracle) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	pair := TradingPair(symbol)
	if price, ok := o.cached(pair); ok {
		return price, true
	}
	price, err := o.source.TickerPrice(ctx, pair)
	if err != nil {
		logger.WithError(err).WithField("pair", pair).Warn("ticker price lookup failed")
		return decimal.Decimal{}, false
	}
	o.store(pair, price)
	return price, true
}

// GetPrices resolves many symbols with at most one batch call for the
// uncached subset. Symbols that stay unresolved are omitted from the result,
// never mapped to zero. The returned error is non-nil only on total failure:
// the batch call failed, every per-pair fallback failed, and nothing was
// cached either.
func (o *Oracle) GetPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(symbols))
	var uncached []string
	for _, s := range symbols {
		pair := TradingPair(s)
		if price, ok := o.cached(pair); ok {
			prices[strings.ToUpper(s)] = price
		} else {
			uncached = append(uncached, pair)
		}
	}
	if len(uncached) == 0 {
		return prices, nil
	}

	batch, err := o.source.TickerPrices(ctx, uncached)
	if err == nil {
		for pair, price := range batch {
			o.store(pair, price)
			prices[baseSymbol(pair)] = price
		}
		return prices, nil
	}
	logger.WithError(err).Warn("batch ticker lookup failed, falling back to single lookups")

	// One request per pair, concurrently, so one slow pair does not
	// serialize behind another. Failing pairs are simply dropped.
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		resolved int
	)
	for _, pair := range uncached {
		wg.Add(1)
		go func(pair string) {
			defer wg.Done()
			price, err := o.source.TickerPrice(ctx, pair)
			if err != nil {
				logger.WithError(err).WithField("pair", pair).Warn("fallback ticker lookup failed")
				return
			}
			o.store(pair, price)
			mu.Lock()
			prices[baseSymbol(pair)] = price
			resolved++
			mu.Unlock()
		}(pair)
	}
	wg.Wait()

	if resolved == 0 && len(prices) == 0 {
		return prices, errors.New("price source unavailable: batch and fallback lookups failed")
	}
	return prices, nil
}

// ClearCache drops every cached price; the next lookup goes to the source.
func (o *Oracle) ClearCache() {
	o.mu.Lock()
	o.cache = make(map[string]cacheEntry)
	o.mu.Unlock()
}

func (o *Oracle) cached(pair string) (decimal.Decimal, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	entry, ok := o.cache[pair]
	if !ok || o.now().Sub(entry.fetchedAt) >= o.ttl {
		return decimal.Decimal{}, false
	}
	return entry.price, true
}

func (o *Oracle) store(pair string, price decimal.Decimal) {
	o.mu.Lock()
	o.cache[pair] = cacheEntry{price: price, fetchedAt: o.now()}
	o.mu.Unlock()
}
