package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/maptrace/internal/core/usecases"
	"github.com/samirrijal/maptrace/internal/pkg/metrics"
)

// WebSocketHandler relays fragment changes of one session to the client.
// The current fragment is sent first so late joiners start in sync.
// Clients may send {"action":"ping"}; anything else is answered with an
// error message.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		session := c.Params("id")
		remoteAddr := c.RemoteAddr().String()
		logger := slog.With("session", session, "remote", remoteAddr)

		if !usecases.ValidSession(session) {
			_ = c.WriteJSON(map[string]string{"error": usecases.ErrInvalidSession.Error()})
			return
		}

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		logger.Info("ws client connected")

		var mu sync.Mutex
		writeRaw := func(data []byte) error {
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			return writeRaw(data)
		}

		sub, err := deps.Events.SubscribeSession(session, func(data []byte) {
			_ = writeRaw(data)
		})
		if err != nil {
			logger.Error("ws subscribe failed", "error", err)
			return
		}
		defer func() { _ = sub.Unsubscribe() }()

		// Snapshot after subscribing so no change falls in between.
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		st, err := deps.Fragments.Get(ctx, session)
		cancel()
		if err == nil {
			_ = writeJSON(map[string]interface{}{
				"session":  session,
				"fragment": st.String(),
				"source":   "snapshot",
				"at":       time.Now().UTC(),
			})
		}

		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}
			var m struct {
				Action string `json:"action"`
			}
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}
			switch m.Action {
			case "ping":
				_ = writeJSON(map[string]string{"status": "pong"})
			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		logger.Info("ws client disconnected")
	}
}
