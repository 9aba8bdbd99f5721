package model

import "time"

// Transaction activity values as written by the bot.
const (
	ActivityBuy  = "BUY"
	ActivitySell = "SELL"
)

// Transaction is one historical fill, copied verbatim from a position file.
// time is epoch millis as text; quantity, price and the commission amounts
// are decimal-as-text.
type Transaction struct {
	Time             string   `json:"time"`
	Activity         string   `json:"activity"`
	Symbol           string   `json:"symbol"`
	TradeSymbol      string   `json:"trade_symbol"`
	Quantity         string   `json:"quantity"`
	Price            string   `json:"price"`
	Commission       string   `json:"commission"`
	CommissionAsset  string   `json:"commission_asset"`
	CommissionAsUSDT string   `json:"commission_as_usdt"`
	RoundID          string   `json:"round_id"`
	OrderID          string   `json:"order_id"`
	TradeID          string   `json:"trade_id"`
	ClosedTradeIDs   []string `json:"closed_trade_ids"`
}

// ExecutedAt parses the epoch-millis timestamp.
func (t Transaction) ExecutedAt() (time.Time, error) {
	ms, err := ParseEpochMillis("time", t.Time)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}

func (t Transaction) validate(prefix string) error {
	qty, err := ParseDecimal(prefix+".quantity", t.Quantity)
	if err != nil {
		return err
	}
	if qty.IsNegative() {
		return &ParseError{Field: prefix + ".quantity", Value: t.Quantity, Err: errNegative}
	}
	price, err := ParseDecimal(prefix+".price", t.Price)
	if err != nil {
		return err
	}
	if price.IsNegative() {
		return &ParseError{Field: prefix + ".price", Value: t.Price, Err: errNegative}
	}
	if _, err := ParseEpochMillis(prefix+".time", t.Time); err != nil {
		return err
	}
	return nil
}
