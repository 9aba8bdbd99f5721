package model

import "fmt"

// Position is the current holding state for one asset symbol, as persisted by
// the bot in asset-positions/<SYMBOL>.json. All numeric fields keep the
// decimal-as-text encoding of the file format. open_cost and realized_gain
// stay meaningful lifetime totals even when open_quantity is zero.
type Position struct {
	OpenQuantity          string        `json:"open_quantity"`
	OpenCost              string        `json:"open_cost"`
	RealizedGain          string        `json:"realized_gain"`
	TotalCommissionAsUSDT string        `json:"total_commission_as_usdt"`
	Transactions          []Transaction `json:"transactions"`
}

// HasTransactions reports whether the position carries any trading history.
// Positions without history are excluded from the active asset universe.
func (p Position) HasTransactions() bool {
	return len(p.Transactions) > 0
}

// Validate checks every numeric text field of the position and its
// transactions, returning the first *ParseError found.
func (p Position) Validate() error {
	if _, err := ParseDecimal("open_quantity", p.OpenQuantity); err != nil {
		return err
	}
	if _, err := ParseDecimal("open_cost", p.OpenCost); err != nil {
		return err
	}
	if _, err := ParseDecimal("realized_gain", p.RealizedGain); err != nil {
		return err
	}
	if _, err := ParseDecimal("total_commission_as_usdt", p.TotalCommissionAsUSDT); err != nil {
		return err
	}
	for i, tx := range p.Transactions {
		if err := tx.validate(fmt.Sprintf("transactions[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}
