package webchat

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kioskhub/kiosk-gateway/internal/channel"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discard{}, nil))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func dialTestAdapter(t *testing.T, a *Adapter, connID string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(a.wsHandler))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?conn_id=" + connID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebChatInbound(t *testing.T) {
	a := New(0, true, testLogger())
	conn := dialTestAdapter(t, a, "kiosk1")

	require.NoError(t, conn.WriteJSON(WSMessage{Type: "message", Content: "where is the exit"}))

	select {
	case msg := <-a.Incoming():
		assert.Equal(t, "webchat", msg.Channel)
		assert.Equal(t, "kiosk1", msg.ConnID)
		assert.Equal(t, "where is the exit", msg.Content)
	case <-time.After(time.Second):
		t.Fatal("message not forwarded")
	}
}

func TestWebChatIgnoresNonMessageFrames(t *testing.T) {
	a := New(0, true, testLogger())
	conn := dialTestAdapter(t, a, "kiosk1")

	require.NoError(t, conn.WriteJSON(WSMessage{Type: "ping"}))
	require.NoError(t, conn.WriteJSON(WSMessage{Type: "message", Content: "real question"}))

	select {
	case msg := <-a.Incoming():
		assert.Equal(t, "real question", msg.Content)
	case <-time.After(time.Second):
		t.Fatal("message not forwarded")
	}
}

func TestWebChatSendTo(t *testing.T) {
	a := New(0, true, testLogger())
	conn := dialTestAdapter(t, a, "kiosk1")

	// The handler registers the connection on upgrade; wait for it
	require.Eventually(t, func() bool {
		a.connMux.RLock()
		defer a.connMux.RUnlock()
		_, ok := a.conns["kiosk1"]
		return ok
	}, time.Second, 10*time.Millisecond)

	resp := &channel.Response{Content: "turn left", SessionID: "session_x", ModelUsed: "primary"}
	require.NoError(t, a.SendTo("kiosk1", resp))

	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "message", msg.Type)
	assert.Equal(t, "turn left", msg.Content)
	assert.Equal(t, "session_x", msg.SessionID)
	assert.Equal(t, "primary", msg.ModelUsed)
}

func TestWebChatSendToUnknownConn(t *testing.T) {
	a := New(0, true, testLogger())
	assert.NoError(t, a.SendTo("nobody", &channel.Response{Content: "hi"}))
}

func TestWebChatEnabled(t *testing.T) {
	assert.True(t, New(18790, true, testLogger()).IsEnabled())
	assert.False(t, New(18790, false, testLogger()).IsEnabled())
	assert.False(t, New(0, true, testLogger()).IsEnabled())
}
