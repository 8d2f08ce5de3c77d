package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lms-backend/internal/middleware"
	"lms-backend/internal/models"
)

func TestHub_RejectsMissingOrBadToken(t *testing.T) {
	hub := NewHub(nil, middleware.NewJWTAuth("secret"), nil)

	for _, target := range []string{"/ws", "/ws?token=garbage"} {
		rr := httptest.NewRecorder()
		hub.HandleWebSocket(rr, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code, target)
	}
}

func TestHub_SendToUserReachesSocket(t *testing.T) {
	jwt := middleware.NewJWTAuth("secret")
	hub := NewHub(nil, jwt, nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	userID := uuid.New()
	token, err := jwt.GenerateAccessToken(userID, "s@example.com", models.RoleStudent)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=" + token
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ConnectionCount(userID) == 1 }, time.Second, 10*time.Millisecond)

	hub.SendToUser(userID, models.WSMessage{Type: "notification", Payload: map[string]string{"title": "hi"}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg models.WSMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "notification", msg.Type)
}

func TestHub_CheckOrigin(t *testing.T) {
	hub := NewHub(nil, middleware.NewJWTAuth("secret"), []string{"http://localhost:5173"})

	allowed := httptest.NewRequest(http.MethodGet, "/ws", nil)
	allowed.Header.Set("Origin", "http://localhost:5173")
	assert.True(t, hub.upgrader.CheckOrigin(allowed))

	denied := httptest.NewRequest(http.MethodGet, "/ws", nil)
	denied.Header.Set("Origin", "http://evil.test")
	assert.False(t, hub.upgrader.CheckOrigin(denied))
}
