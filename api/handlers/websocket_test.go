package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/firtrack/fir-tracking-api/api/handlers"
	"github.com/firtrack/fir-tracking-api/dispatch"
)

func signTicket(t *testing.T, secret string) string {
	claims := jwt.MapClaims{
		"sub": primitive.NewObjectID().Hex(),
		"typ": "ws-ticket",
		"exp": time.Now().Add(time.Minute).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	assert.NoError(t, err)
	return signed
}

func TestServeWebsocketRejectsMissingTicket(t *testing.T) {
	s := handlers.Socket{Registry: dispatch.NewRegistry(), JWTSecret: []byte("secret")}

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rr := httptest.NewRecorder()

	s.ServeWebsocket(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestServeWebsocketRejectsForgedTicket(t *testing.T) {
	s := handlers.Socket{Registry: dispatch.NewRegistry(), JWTSecret: []byte("secret")}

	req := httptest.NewRequest(http.MethodGet, "/ws?ticket="+signTicket(t, "wrong-secret"), nil)
	rr := httptest.NewRecorder()

	s.ServeWebsocket(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestServeWebsocketDeliversCaseEvents(t *testing.T) {
	registry := dispatch.NewRegistry()
	s := handlers.Socket{Registry: registry, JWTSecret: []byte("secret")}

	server := httptest.NewServer(http.HandlerFunc(s.ServeWebsocket))
	defer server.Close()

	url := strings.Replace(server.URL, "http", "ws", 1) + "?ticket=" + signTicket(t, "secret")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	assert.NoError(t, err)
	defer conn.Close()

	caseID := primitive.NewObjectID().Hex()
	err = conn.WriteJSON(map[string]string{"action": "join", "caseId": caseID})
	assert.NoError(t, err)

	// give the read loop a moment to process the join frame
	time.Sleep(200 * time.Millisecond)

	registry.PublishToCase(caseID, dispatch.EventFirUpdated, map[string]string{"firNumber": "FIR2025000042"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame struct {
		Event string                 `json:"event"`
		Data  map[string]interface{} `json:"data"`
	}
	err = conn.ReadJSON(&frame)
	assert.NoError(t, err)
	assert.Equal(t, dispatch.EventFirUpdated, frame.Event)
	assert.Equal(t, "FIR2025000042", frame.Data["firNumber"])
}

func TestServeWebsocketLeaveStopsCaseEvents(t *testing.T) {
	registry := dispatch.NewRegistry()
	s := handlers.Socket{Registry: registry, JWTSecret: []byte("secret")}

	server := httptest.NewServer(http.HandlerFunc(s.ServeWebsocket))
	defer server.Close()

	url := strings.Replace(server.URL, "http", "ws", 1) + "?ticket=" + signTicket(t, "secret")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	assert.NoError(t, err)
	defer conn.Close()

	caseID := primitive.NewObjectID().Hex()
	assert.NoError(t, conn.WriteJSON(map[string]string{"action": "join", "caseId": caseID}))
	assert.NoError(t, conn.WriteJSON(map[string]string{"action": "leave", "caseId": caseID}))
	time.Sleep(200 * time.Millisecond)

	registry.PublishToCase(caseID, dispatch.EventFirUpdated, nil)

	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var frame map[string]interface{}
	err = conn.ReadJSON(&frame)
	assert.Error(t, err)
}
