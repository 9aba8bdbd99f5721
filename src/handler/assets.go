package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"cryptodash/src/model"
	"cryptodash/src/store"
)

type positionReader interface {
	Get(symbol string) (model.Position, bool)
	All() map[string]model.Position
	Status() store.Status
	Path() string
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.WithError(err).Error("failed to encode response")
	}
}

// AssetsHandler serves every cached position keyed by symbol.
func AssetsHandler(positions positionReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assets := positions.All()
		logger.Debugf("Serving %d assets from cache", len(assets))
		writeJSON(w, http.StatusOK, assets)
	}
}

// AssetHandler serves one position as {SYMBOL: position}. Unknown symbols
// get a 404, distinct from a generic failure.
func AssetHandler(positions positionReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
		pos, ok := positions.Get(symbol)
		if !ok {
			writeJSON(w, http.StatusNotFound, errorResponse{
				Error: fmt.Sprintf("Asset %s not found", symbol),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]model.Position{symbol: pos})
	}
}

type cacheStatusResponse struct {
	CachedAssets []string         `json:"cachedAssets"`
	LastModified map[string]int64 `json:"lastModified"`
	CacheSize    int              `json:"cacheSize"`
	Timestamp    string           `json:"timestamp"`
}

// CacheStatusHandler reports which symbols are cached and when their files
// last changed.
func CacheStatusHandler(positions positionReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := positions.Status()
		writeJSON(w, http.StatusOK, cacheStatusResponse{
			CachedAssets: status.CachedAssets,
			LastModified: status.LastModified,
			CacheSize:    status.CacheSize,
			Timestamp:    time.Now().UTC().Format(time.RFC3339),
		})
	}
}

type healthResponse struct {
	Status             string `json:"status"`
	Timestamp          string `json:"timestamp"`
	AssetPositionsPath string `json:"assetPositionsPath"`
}

func HealthHandler(positions positionReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{
			Status:             "ok",
			Timestamp:          time.Now().UTC().Format(time.RFC3339),
			AssetPositionsPath: positions.Path(),
		})
	}
}
