package transport

import (
	"context"
	"net/http"
	"time"

	ws "github.com/coder/websocket"
)

// HandleSync returns an HTTP handler that upgrades connections to WebSocket
// and runs them as members of the room named in the query string.
func HandleSync(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomName := r.URL.Query().Get("room")
		if roomName == "" {
			http.Error(w, "missing room", http.StatusBadRequest)
			return
		}

		room, err := hub.Room(roomName)
		if err != nil {
			hub.logger.Error("open room", "room", roomName, "error", err)
			http.Error(w, "room unavailable", http.StatusInternalServerError)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // Devices connect from app origins, not browsers we control
		})
		if err != nil {
			hub.logger.Warn("websocket accept", "error", err)
			return
		}

		room.serve(r.Context(), conn)
	}
}

// serve runs one device connection: register, pump writes, read until the
// connection closes, unregister.
func (r *Room) serve(ctx context.Context, conn *ws.Conn) {
	client := &roomClient{send: make(chan []byte, sendBufferSize)}
	r.register(client)
	defer r.unregister(client)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case msg, ok := <-client.send:
				if !ok {
					return
				}
				if err := conn.Write(ctx, ws.MessageBinary, msg); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.Ping(ctx); err != nil {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		r.handleFrame(client, data)
	}
}
