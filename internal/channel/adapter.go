// Package channel defines the adapter contract for kiosk front ends and
// the bridge that pumps their messages through the orchestrator.
package channel

import (
	"context"
	"log/slog"

	"github.com/kioskhub/kiosk-gateway/internal/kiosk"
)

// Message represents an inbound message from a channel
type Message struct {
	ID        string
	Channel   string
	ConnID    string
	Content   string
	Timestamp int64
}

// Response represents a reply to send back to a channel
type Response struct {
	Content   string
	SessionID string
	Cached    bool
	ModelUsed string
}

// Adapter is the interface kiosk front ends implement
type Adapter interface {
	// Start starts the adapter
	Start(ctx context.Context) error

	// Stop stops the adapter
	Stop() error

	// SendTo sends a response to one connection
	SendTo(connID string, resp *Response) error

	// Incoming returns the stream of inbound messages
	Incoming() <-chan *Message

	// Name returns the adapter name
	Name() string

	// IsEnabled returns whether the adapter is enabled
	IsEnabled() bool
}

// Responder handles one kiosk turn. The orchestrator implements it.
type Responder interface {
	HandleCommand(sessionID, input string) (kiosk.Reply, bool)
	ProcessQuery(ctx context.Context, sessionID, input string) kiosk.Reply
}

// Bridge pumps messages from adapters through the responder and routes
// replies back to the originating connection.
type Bridge struct {
	responder Responder
	adapters  []Adapter
	logger    *slog.Logger
}

// NewBridge creates a bridge over the given adapters
func NewBridge(responder Responder, adapters []Adapter, logger *slog.Logger) *Bridge {
	return &Bridge{
		responder: responder,
		adapters:  adapters,
		logger:    logger,
	}
}

// Run starts every enabled adapter and consumes its messages until the
// context is cancelled. It blocks.
func (b *Bridge) Run(ctx context.Context) error {
	done := make(chan struct{})
	running := 0

	for _, a := range b.adapters {
		if !a.IsEnabled() {
			continue
		}
		if err := a.Start(ctx); err != nil {
			b.logger.Error("Failed to start channel adapter", "channel", a.Name(), "error", err)
			continue
		}
		b.logger.Info("Channel adapter started", "channel", a.Name())
		running++
		go func(a Adapter) {
			b.pump(ctx, a)
			done <- struct{}{}
		}(a)
	}

	for i := 0; i < running; i++ {
		<-done
	}
	return nil
}

// pump is the per-adapter consumption loop. Each connection keeps its own
// session, carried across turns by the reply's session ID.
func (b *Bridge) pump(ctx context.Context, a Adapter) {
	sessions := make(map[string]string)

	for {
		select {
		case <-ctx.Done():
			if err := a.Stop(); err != nil {
				b.logger.Warn("Channel adapter stop failed", "channel", a.Name(), "error", err)
			}
			return
		case msg, ok := <-a.Incoming():
			if !ok {
				return
			}
			reply, handled := b.responder.HandleCommand(sessions[msg.ConnID], msg.Content)
			if !handled {
				reply = b.responder.ProcessQuery(ctx, sessions[msg.ConnID], msg.Content)
			}
			sessions[msg.ConnID] = reply.SessionID

			resp := &Response{
				Content:   reply.Text,
				SessionID: reply.SessionID,
				Cached:    reply.Cached,
				ModelUsed: reply.ModelUsed,
			}
			if err := a.SendTo(msg.ConnID, resp); err != nil {
				b.logger.Warn("Failed to send channel response",
					"channel", a.Name(), "conn_id", msg.ConnID, "error", err)
			}
		}
	}
}
