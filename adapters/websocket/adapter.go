package websocket

import (
	"net/http"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"learnledger/realtime"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
	streamBuffer = 256
)

// Handler returns an http.Handler that upgrades to WebSocket and streams
// ledger events from the hub until the client disconnects.
func Handler(hub *realtime.Hub) http.Handler {
	upgrader := gorillaws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		id, events := hub.Subscribe(streamBuffer)
		defer hub.Unsubscribe(id)

		// Drain client frames so close handshakes and pongs are processed.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		pings := time.NewTicker(pingInterval)
		defer pings.Stop()

		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(gorillaws.TextMessage, realtime.MarshalJSON(ev)); err != nil {
					return
				}
			case <-pings.C:
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(gorillaws.PingMessage, nil); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	})
}
