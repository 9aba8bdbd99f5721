package handler

import (
	"net/http"

	logger "github.com/sirupsen/logrus"

	"cryptodash/src/portfolio"
)

// PortfolioHandler serves the enriched per-asset and portfolio-level view.
// Price failures never block the response; the assets fall back to their
// cost basis and the result carries the pricesUnavailable flag.
func PortfolioHandler(positions positionReader, prices portfolio.PriceSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := portfolio.Enrich(r.Context(), positions.All(), prices)
		writeJSON(w, http.StatusOK, res)
	}
}

type reloader interface {
	Reload() error
}

type cacheClearer interface {
	ClearCache()
}

// RefreshHandler forces a full position reload and drops every cached
// price, so the next portfolio read hits the price source again.
func RefreshHandler(positions reloader, prices cacheClearer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := positions.Reload(); err != nil {
			logger.WithError(err).Error("Manual refresh failed")
			writeJSON(w, http.StatusInternalServerError, errorResponse{
				Error:   "Failed to load asset positions",
				Message: err.Error(),
			})
			return
		}
		prices.ClearCache()
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
