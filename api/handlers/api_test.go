package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"

	"github.com/carlogapp/carlog-api/config"
	"github.com/carlogapp/carlog-api/store"
	"github.com/carlogapp/carlog-api/store/mocks"
	"github.com/carlogapp/carlog-api/ws"
)

var a App

func executeRequest(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	a.Router.ServeHTTP(rr, req)
	return rr
}

func checkResponseCode(t *testing.T, expected, actual int) {
	if expected != actual {
		t.Errorf("Expected response code %d. Got %d\n", expected, actual)
	}
}

func TestUnknownRoute(t *testing.T) {
	a.Router = a.New()
	req, _ := http.NewRequest("GET", "/asdf", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusNotFound, response.Code)

}

func TestHealthCheckRoute(t *testing.T) {
	a.Router = a.New()
	req, _ := http.NewRequest("GET", "/health", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusOK, response.Code)

	if !strings.Contains(response.Body.String(), "alive") {
		t.Errorf("Expected 'alive' in the reponse. Got '%s'", response.Body.String())
	}
}

func TestApp_VehicleHandlerUnauthorized(t *testing.T) {
	a.Router = a.New()
	req, _ := http.NewRequest("GET", "/api/v1/vehicles", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusUnauthorized, response.Code)
}

func TestApp_EventFeedUnauthorized(t *testing.T) {
	a.Router = a.New()
	req, _ := http.NewRequest("GET", "/api/v1/events", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusUnauthorized, response.Code)
}

func TestApp_EventFeedTokenQueryParam(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	a.Config = config.Config{UserEmail: "jean.dupont@example.com", PasswordHash: string(hash)}
	a.Store = store.New(a.Config.UserEmail, new(mocks.Persistence), store.CascadeEntries)
	a.Hub = ws.NewHub()
	a.Hub.SetInitDataProvider(func() *ws.InitData {
		return &ws.InitData{
			Vehicles:          a.Store.Vehicles(),
			Maintenance:       a.Store.FilteredEntries(a.Store.SelectedID()),
			SelectedVehicleID: a.Store.SelectedID(),
		}
	})
	go a.Hub.Run()
	a.Router = a.New()

	server := httptest.NewServer(a.Router)
	defer server.Close()

	// mint a token the way the UI does
	req, _ := http.NewRequest("POST", server.URL+"/api/v1/auth/token", nil)
	req.SetBasicAuth("jean.dupont@example.com", "s3cret")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}
	defer resp.Body.Close()
	var tokenResp map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		t.Fatalf("failed to decode token response: %v", err)
	}

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/events"

	// the handshake cannot carry headers from a browser, the token query
	// parameter must authenticate it
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+tokenResp["token"], nil)
	if err != nil {
		t.Fatalf("failed to dial event feed with token: %v", err)
	}
	defer conn.Close()

	var frame ws.Message
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("failed to read init frame: %v", err)
	}
	if frame.Type != ws.MsgTypeInit {
		t.Errorf("Expected '%s' frame. Got '%s'", ws.MsgTypeInit, frame.Type)
	}

	// an anonymous dial is refused before the upgrade
	_, anonResp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Errorf("Expected anonymous dial to fail")
	}
	if anonResp == nil || anonResp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected response code %d on anonymous dial", http.StatusUnauthorized)
	}
}

func TestApp_VehicleHandlerInvalidToken(t *testing.T) {
	a.Router = a.New()
	req, _ := http.NewRequest("GET", "/api/v1/vehicles", nil)
	req.Header.Add("Authorization", "Bearer asdfasdf")
	response := executeRequest(req)

	checkResponseCode(t, http.StatusUnauthorized, response.Code)

	if !strings.Contains(response.Body.String(), "unauthorized") {
		t.Errorf("Expected 'unauthorized' in the reponse. Got '%s'", response.Body.String())
	}
}
