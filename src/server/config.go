package server

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port               string        `envconfig:"PORT" default:"39583"`
	AssetPositionsPath string        `envconfig:"ASSET_POSITIONS_PATH" default:"./asset-positions"`
	AllowedOrigins     []string      `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:5174"`
	BinanceBaseURL     string        `envconfig:"BINANCE_BASE_URL" default:"https://api.binance.com/api/v3"`
	PriceCacheTTL      time.Duration `envconfig:"PRICE_CACHE_TTL" default:"30s"`
	ReloadDebounce     time.Duration `envconfig:"RELOAD_DEBOUNCE" default:"1s"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
