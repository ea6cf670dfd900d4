package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers connect from a separately served frontend.
	CheckOrigin: func(*http.Request) bool { return true },
}

// StreamEventsHandler handles GET /ws?token=...
//
// It authenticates via the token query parameter (the browser WebSocket
// API cannot set headers), subscribes to the account's event channel and
// relays events until either side goes away. Events published while no
// socket is connected are lost, not replayed.
func (h *HandlerProvider) StreamEventsHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = bearerToken(r)
	}

	accountID, err := h.identity.VerifyToken(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	events, cancel, err := h.subscriber.Subscribe(r.Context(), accountID)
	if err != nil {
		slog.Error("event subscribe failed", "account_id", accountID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")

		return
	}
	defer cancel()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}
	defer conn.Close()

	// Drain client frames so close and ping/pong handling works; the
	// client is not expected to send anything meaningful.
	go func() {
		for {
			_, _, rerr := conn.ReadMessage()
			if rerr != nil {
				cancel()
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}

			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))

			err := conn.WriteJSON(ev)
			if err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))

			err := conn.WriteMessage(websocket.PingMessage, nil)
			if err != nil {
				return
			}
		}
	}
}
