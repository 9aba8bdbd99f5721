package snapshot

import (
	"context"
	"encoding/json"
	"os"

	logger "github.com/sirupsen/logrus"

	"cryptodash/src/connectors"
	"cryptodash/src/portfolio"
	"cryptodash/src/pricing"
	"cryptodash/src/server"
	"cryptodash/src/store"
)

// Snapshot prints the enriched portfolio once and exits. It shares the
// server's configuration surface, so ASSET_POSITIONS_PATH and
// BINANCE_BASE_URL apply here too.
type Snapshot struct{}

func (s *Snapshot) Start() error {
	config := server.GetConfig()

	positions := store.NewPositionStore(config.AssetPositionsPath, config.ReloadDebounce)
	if err := positions.Reload(); err != nil {
		logger.WithError(err).Error("Failed to load asset positions")
		return err
	}

	oracle := pricing.NewOracle(connectors.NewBinanceClient(config.BinanceBaseURL), config.PriceCacheTTL)

	res := portfolio.Enrich(context.Background(), positions.All(), oracle)
	if res.PricesUnavailable {
		logger.Warn("Prices unavailable, snapshot shows cost-basis figures")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
