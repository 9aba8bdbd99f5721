package metrics

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"cryptodash/src/model"
)

// AssetMetrics is derived from a Position on every read and never persisted.
type AssetMetrics struct {
	OpenQuantity    decimal.Decimal `json:"openQuantity"`
	OpenCost        decimal.Decimal `json:"openCost"`
	RealizedGain    decimal.Decimal `json:"realizedGain"`
	TotalCommission decimal.Decimal `json:"totalCommission"`
	AvgBuyPrice     decimal.Decimal `json:"avgBuyPrice"`

	TotalTransactions int `json:"totalTransactions"`
	BuyTransactions   int `json:"buyTransactions"`
	SellTransactions  int `json:"sellTransactions"`

	FirstTransactionAt *time.Time `json:"firstTransactionAt,omitempty"`
	LastTransactionAt  *time.Time `json:"lastTransactionAt,omitempty"`
}

// Compute derives AssetMetrics from a position. Pure function: the same
// position always yields the same metrics and pos is never mutated.
// avgBuyPrice is zero when open_quantity is zero. Malformed numeric text
// returns a *model.ParseError; callers surface it as "metrics unavailable"
// instead of letting NaN leak into the output.
func Compute(pos model.Position) (AssetMetrics, error) {
	var m AssetMetrics
	var err error

	if m.OpenQuantity, err = model.ParseDecimal("open_quantity", pos.OpenQuantity); err != nil {
		return AssetMetrics{}, err
	}
	if m.OpenCost, err = model.ParseDecimal("open_cost", pos.OpenCost); err != nil {
		return AssetMetrics{}, err
	}
	if m.RealizedGain, err = model.ParseDecimal("realized_gain", pos.RealizedGain); err != nil {
		return AssetMetrics{}, err
	}
	if m.TotalCommission, err = model.ParseDecimal("total_commission_as_usdt", pos.TotalCommissionAsUSDT); err != nil {
		return AssetMetrics{}, err
	}

	if m.OpenQuantity.IsPositive() {
		m.AvgBuyPrice = m.OpenCost.Div(m.OpenQuantity)
	}

	m.TotalTransactions = len(pos.Transactions)
	times := make([]int64, 0, len(pos.Transactions))
	for i, tx := range pos.Transactions {
		switch tx.Activity {
		case model.ActivityBuy:
			m.BuyTransactions++
		case model.ActivitySell:
			m.SellTransactions++
		}
		ms, err := model.ParseEpochMillis(fmt.Sprintf("transactions[%d].time", i), tx.Time)
		if err != nil {
			return AssetMetrics{}, err
		}
		times = append(times, ms)
	}

	if len(times) > 0 {
		sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
		first := time.UnixMilli(times[0]).UTC()
		last := time.UnixMilli(times[len(times)-1]).UTC()
		m.FirstTransactionAt = &first
		m.LastTransactionAt = &last
	}

	return m, nil
}
