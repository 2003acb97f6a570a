// Package webchat exposes the kiosk over a WebSocket endpoint for
// browser front ends.
package webchat

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kioskhub/kiosk-gateway/internal/channel"
)

// Adapter serves kiosk conversations over WebSocket connections
type Adapter struct {
	port     int
	enabled  bool
	incoming chan *channel.Message
	upgrader websocket.Upgrader
	conns    map[string]*websocket.Conn
	connMux  sync.RWMutex
	server   *http.Server
	stopOnce sync.Once
	stopCh   chan struct{}
	logger   *slog.Logger
}

// WSMessage is the wire format in both directions
type WSMessage struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	SessionID string `json:"session_id,omitempty"`
	Cached    bool   `json:"cached,omitempty"`
	ModelUsed string `json:"model_used,omitempty"`
}

// New creates a webchat adapter listening on the given port
func New(port int, enabled bool, logger *slog.Logger) *Adapter {
	return &Adapter{
		port:    port,
		enabled: enabled,
		// Kiosk screens connect from the same host, so all origins are accepted
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		incoming: make(chan *channel.Message, 100),
		conns:    make(map[string]*websocket.Conn),
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (a *Adapter) Name() string { return "webchat" }

func (a *Adapter) IsEnabled() bool { return a.enabled && a.port > 0 }

// Start begins serving the WebSocket endpoint on /ws
func (a *Adapter) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", a.wsHandler)
	a.server = &http.Server{Addr: ":" + strconv.Itoa(a.port), Handler: mux}

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("WebChat server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		a.server.Shutdown(context.Background())
		a.stopOnce.Do(func() { close(a.stopCh) })
	}()

	return nil
}

// Stop closes the listener and the incoming stream
func (a *Adapter) Stop() error {
	a.stopOnce.Do(func() { close(a.stopCh) })
	if a.server != nil {
		return a.server.Shutdown(context.Background())
	}
	return nil
}

// SendTo writes a response frame to one connection
func (a *Adapter) SendTo(connID string, resp *channel.Response) error {
	a.connMux.RLock()
	conn, exists := a.conns[connID]
	a.connMux.RUnlock()
	if !exists {
		// The client disconnected before the reply was ready
		return nil
	}

	msg := WSMessage{
		Type:      "message",
		Content:   resp.Content,
		SessionID: resp.SessionID,
		Cached:    resp.Cached,
		ModelUsed: resp.ModelUsed,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Incoming returns the stream of inbound messages
func (a *Adapter) Incoming() <-chan *channel.Message {
	return a.incoming
}

func (a *Adapter) wsHandler(rw http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		a.logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	connID := r.URL.Query().Get("conn_id")
	if connID == "" {
		connID = "kiosk_" + strconv.FormatInt(time.Now().UnixNano(), 10)
	}

	a.connMux.Lock()
	a.conns[connID] = conn
	a.connMux.Unlock()

	defer func() {
		a.connMux.Lock()
		delete(a.conns, connID)
		a.connMux.Unlock()
		conn.Close()
	}()

	for {
		select {
		case <-a.stopCh:
			return
		default:
			var msg WSMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					a.logger.Debug("WebSocket read ended", "conn_id", connID, "error", err)
				}
				return
			}
			if msg.Type != "message" {
				continue
			}

			select {
			case a.incoming <- &channel.Message{
				ID:        strconv.FormatInt(time.Now().UnixNano(), 10),
				Channel:   "webchat",
				ConnID:    connID,
				Content:   msg.Content,
				Timestamp: time.Now().Unix(),
			}:
			case <-a.stopCh:
				return
			}
		}
	}
}
