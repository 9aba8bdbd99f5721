package portfolio

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"cryptodash/src/metrics"
	"cryptodash/src/model"
)

var hundred = decimal.NewFromInt(100)

// PriceSource is the slice of the price oracle the pipeline depends on.
type PriceSource interface {
	GetPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error)
}

// EnrichedAsset is an asset's metrics plus live-market figures. When the
// price lookup failed, CurrentPrice is nil and the cost basis stands in for
// the current value.
type EnrichedAsset struct {
	Symbol string `json:"symbol"`
	metrics.AssetMetrics

	CurrentPrice         *decimal.Decimal `json:"currentPrice,omitempty"`
	CurrentValue         decimal.Decimal  `json:"currentValue"`
	UnrealizedPnL        decimal.Decimal  `json:"unrealizedPnL"`
	UnrealizedPnLPercent decimal.Decimal  `json:"unrealizedPnLPercent"`
	TotalPnL             decimal.Decimal  `json:"totalPnL"`
	TotalPnLPercent      decimal.Decimal  `json:"totalPnLPercent"`

	MetricsUnavailable bool `json:"metricsUnavailable,omitempty"`
}

// Summary aggregates the enriched assets portfolio-wide.
type Summary struct {
	TotalCurrentValue  decimal.Decimal `json:"totalCurrentValue"`
	TotalCost          decimal.Decimal `json:"totalCost"`
	TotalRealizedPnL   decimal.Decimal `json:"totalRealizedPnL"`
	TotalUnrealizedPnL decimal.Decimal `json:"totalUnrealizedPnL"`
	TotalPnL           decimal.Decimal `json:"totalPnL"`
	TotalPnLPercent    decimal.Decimal `json:"totalPnLPercent"`
	LastPriceUpdate    time.Time       `json:"lastPriceUpdate"`
}

// Result is the per-asset and portfolio-level view served to the dashboard.
type Result struct {
	Assets            []EnrichedAsset `json:"assets"`
	Summary           Summary         `json:"summary"`
	PricesUnavailable bool            `json:"pricesUnavailable"`
}

// Enrich combines positions with current market prices. Each asset gets
// live P&L figures when its price resolved and the cost-basis fallback when
// it did not. A total price-source failure sets PricesUnavailable and still
// produces a result for every asset; the position data is never discarded.
func Enrich(ctx context.Context, positions map[string]model.Position, prices PriceSource) Result {
	symbols := make([]string, 0, len(positions))
	for symbol := range positions {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	var priceMap map[string]decimal.Decimal
	var pricesUnavailable bool
	if len(symbols) > 0 {
		var err error
		priceMap, err = prices.GetPrices(ctx, symbols)
		if err != nil {
			logger.WithError(err).Error("Price lookup failed, using cost basis for all assets")
			pricesUnavailable = true
		}
	}

	res := Result{
		Assets:            make([]EnrichedAsset, 0, len(symbols)),
		PricesUnavailable: pricesUnavailable,
	}
	for _, symbol := range symbols {
		asset := enrichOne(symbol, positions[symbol], priceMap)
		res.Assets = append(res.Assets, asset)
		if asset.MetricsUnavailable {
			continue
		}
		res.Summary.TotalCurrentValue = res.Summary.TotalCurrentValue.Add(asset.CurrentValue)
		res.Summary.TotalCost = res.Summary.TotalCost.Add(asset.OpenCost)
		res.Summary.TotalRealizedPnL = res.Summary.TotalRealizedPnL.Add(asset.RealizedGain)
		res.Summary.TotalUnrealizedPnL = res.Summary.TotalUnrealizedPnL.Add(asset.UnrealizedPnL)
		res.Summary.TotalPnL = res.Summary.TotalPnL.Add(asset.TotalPnL)
	}
	res.Summary.TotalPnLPercent = percentOf(res.Summary.TotalPnL, res.Summary.TotalCost)
	res.Summary.LastPriceUpdate = time.Now().UTC()
	return res
}

func enrichOne(symbol string, pos model.Position, prices map[string]decimal.Decimal) EnrichedAsset {
	asset := EnrichedAsset{Symbol: symbol}

	m, err := metrics.Compute(pos)
	if err != nil {
		logger.WithError(err).WithField("symbol", symbol).Warn("Metrics unavailable for asset")
		asset.MetricsUnavailable = true
		return asset
	}
	asset.AssetMetrics = m

	price, ok := prices[symbol]
	if !ok {
		// cost-basis fallback: value the holding at what it cost
		asset.CurrentValue = m.OpenCost
		asset.TotalPnL = m.RealizedGain
		asset.TotalPnLPercent = percentOf(m.RealizedGain, m.OpenCost)
		return asset
	}

	p := price
	asset.CurrentPrice = &p
	asset.CurrentValue = m.OpenQuantity.Mul(price)
	costLeg := m.OpenQuantity.Mul(m.AvgBuyPrice)
	asset.UnrealizedPnL = asset.CurrentValue.Sub(costLeg)
	asset.UnrealizedPnLPercent = percentOf(asset.UnrealizedPnL, costLeg)
	asset.TotalPnL = m.RealizedGain.Add(asset.UnrealizedPnL)
	asset.TotalPnLPercent = percentOf(asset.TotalPnL, m.OpenCost)
	return asset
}

// percentOf returns part/whole*100, or zero when whole is zero.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Decimal{}
	}
	return part.Div(whole).Mul(hundred)
}
