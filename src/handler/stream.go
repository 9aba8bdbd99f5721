package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"

	"cryptodash/src/model"
	"cryptodash/src/portfolio"
)

const streamWriteTimeout = 10 * time.Second

type streamSource interface {
	All() map[string]model.Position
	Subscribe() (<-chan struct{}, func())
}

// StreamHandler upgrades to a WebSocket and pushes the enriched portfolio
// after every completed reload, starting with the current state. Clients
// that fall behind see only the latest snapshot.
func StreamHandler(positions streamSource, prices portfolio.PriceSource, allowedOrigins []string) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.WithError(err).Warn("WebSocket upgrade failed")
			return
		}
		defer conn.Close()

		updates, cancel := positions.Subscribe()
		defer cancel()

		// drain reads so the peer's close frame is noticed
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		push := func() error {
			res := portfolio.Enrich(r.Context(), positions.All(), prices)
			if err := conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
				return err
			}
			return conn.WriteJSON(res)
		}
		if err := push(); err != nil {
			return
		}

		for {
			select {
			case <-done:
				return
			case <-r.Context().Done():
				return
			case <-updates:
				if err := push(); err != nil {
					logger.WithError(err).Debug("WebSocket push failed, closing")
					return
				}
			}
		}
	}
}
