package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func newFeedServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		client := NewClient(hub, conn)
		client.Register()
		go client.WritePump()
		go client.ReadPump()
	}))
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHubSendsInitFrameOnConnect(t *testing.T) {
	hub := NewHub()
	hub.SetInitDataProvider(func() *InitData {
		return &InitData{
			Vehicles:          []string{"v1"},
			Maintenance:       []string{},
			SelectedVehicleID: "v1",
		}
	})
	go hub.Run()

	server := newFeedServer(t, hub)
	defer server.Close()

	conn := dial(t, server)
	defer conn.Close()

	msg := readMessage(t, conn)
	assert.Equal(t, MsgTypeInit, msg.Type)

	init := msg.Data.(map[string]interface{})
	assert.Equal(t, "v1", init["selectedVehicleId"])
}

func TestHubBroadcastsEvents(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	server := newFeedServer(t, hub)
	defer server.Close()

	conn := dial(t, server)
	defer conn.Close()

	// wait for registration before broadcasting
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	require.Equal(t, 1, hub.ClientCount())

	hub.BroadcastEvent(map[string]string{"kind": "vehicles-changed", "vehicleId": "v1"})

	msg := readMessage(t, conn)
	assert.Equal(t, MsgTypeEvent, msg.Type)

	event := msg.Data.(map[string]interface{})
	assert.Equal(t, "vehicles-changed", event["kind"])
}

func TestHubDropsDisconnectedClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	server := newFeedServer(t, hub)
	defer server.Close()

	conn := dial(t, server)

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	require.Equal(t, 1, hub.ClientCount())

	conn.Close()

	deadline = time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, 0, hub.ClientCount())
}
