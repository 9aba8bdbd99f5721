package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validPosition() Position {
	return Position{
		OpenQuantity:          "1.5",
		OpenCost:              "300",
		RealizedGain:          "12",
		TotalCommissionAsUSDT: "0.4",
		Transactions: []Transaction{
			{Time: "1700000000000", Activity: ActivityBuy, Quantity: "1.5", Price: "200"},
		},
	}
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, validPosition().Validate())
}

func TestValidate_ReportsFieldName(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Position)
		field  string
	}{
		{"open_cost", func(p *Position) { p.OpenCost = "12,5" }, "open_cost"},
		{"transaction quantity", func(p *Position) { p.Transactions[0].Quantity = "" }, "transactions[0].quantity"},
		{"negative price", func(p *Position) { p.Transactions[0].Price = "-3" }, "transactions[0].price"},
		{"transaction time", func(p *Position) { p.Transactions[0].Time = "soon" }, "transactions[0].time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := validPosition()
			tt.mutate(&pos)

			err := pos.Validate()
			require.Error(t, err)

			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			require.Equal(t, tt.field, parseErr.Field)
		})
	}
}

func TestExecutedAt(t *testing.T) {
	tx := Transaction{Time: "1700000000000"}
	ts, err := tx.ExecutedAt()
	require.NoError(t, err)
	require.Equal(t, time.UnixMilli(1700000000000).UTC(), ts)

	tx.Time = "never"
	_, err = tx.ExecutedAt()
	require.Error(t, err)
}
