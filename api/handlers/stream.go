package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/carlogapp/carlog-api/store"
	"github.com/carlogapp/carlog-api/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The auth middleware rejects unauthenticated handshakes before the
	// upgrade, so any origin may connect
	CheckOrigin: func(r *http.Request) bool { return true },
}

// EventFeed upgrades clients onto the websocket hub
type EventFeed struct {
	Hub   *ws.Hub
	Store *store.RecordStore
}

// ServeEventFeedHandler upgrades the connection and starts the client pumps.
// Clients authenticate like every other route, or via the "token" query
// parameter during the handshake. Every client receives the full record
// snapshot as its first frame.
func (e EventFeed) ServeEventFeedHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("failed to upgrade event feed connection", "error", err)
		return
	}

	client := ws.NewClient(e.Hub, conn)
	client.Register()

	go client.WritePump()
	go client.ReadPump()
}

// PumpStoreEvents forwards record store events to the hub until the event
// channel closes. Run it in its own goroutine.
func (e EventFeed) PumpStoreEvents() {
	for event := range e.Store.Events() {
		e.Hub.BroadcastEvent(event)
	}
}
