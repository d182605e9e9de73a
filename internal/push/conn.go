package push

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mbeoliero/kit/log"

	"github.com/mbeoliero/parley/internal/entity"
)

// frame is the wire envelope of a push event
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type messagesSeenData struct {
	ConversationId string `json:"conversation_id"`
}

// Conn consumes an established WebSocket connection and decodes its frames
// into typed events. The events channel is closed when the connection ends.
type Conn struct {
	conn   *websocket.Conn
	connId string
	events chan Event
	closed atomic.Bool
	quit   chan struct{}
	done   chan struct{}
}

// Dial connects to the push endpoint and starts consuming events
func Dial(ctx context.Context, url string, buffer int) (*Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return NewConn(ctx, conn, buffer), nil
}

// NewConn wraps an established connection and starts its read loop
func NewConn(ctx context.Context, conn *websocket.Conn, buffer int) *Conn {
	if buffer <= 0 {
		buffer = 256
	}
	c := &Conn{
		conn:   conn,
		connId: uuid.New().String(),
		events: make(chan Event, buffer),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go c.readLoop(ctx)
	return c
}

// Events returns the typed event stream, closed on teardown
func (c *Conn) Events() <-chan Event {
	return c.events
}

// Close tears the connection down; safe to call more than once. quit is
// closed before the socket so a read loop stuck delivering into a full
// events buffer unblocks too.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	close(c.quit)
	err := c.conn.Close()
	<-c.done
	return err
}

// readLoop reads frames until the connection closes, decoding each into a
// typed event. Unknown events are dropped; malformed payloads are logged
// and skipped, never fatal.
func (c *Conn) readLoop(ctx context.Context) {
	defer func() {
		close(c.events)
		close(c.done)
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if !c.closed.Load() {
				log.CtxDebug(ctx, "push channel read ended: conn_id=%s, error=%v", c.connId, err)
			}
			return
		}

		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			log.CtxWarn(ctx, "drop malformed push frame: conn_id=%s, error=%v", c.connId, err)
			continue
		}

		event, err := decode(f)
		if err != nil {
			log.CtxWarn(ctx, "drop undecodable push event: conn_id=%s, event=%s, error=%v", c.connId, f.Event, err)
			continue
		}
		if event == nil {
			log.CtxDebug(ctx, "drop unknown push event: conn_id=%s, event=%s", c.connId, f.Event)
			continue
		}

		select {
		case c.events <- event:
		case <-c.quit:
			return
		}
	}
}

// decode maps a frame to its typed event; nil for unknown event names
func decode(f frame) (Event, error) {
	switch f.Event {
	case EventNewMessage:
		var msg entity.Message
		if err := json.Unmarshal(f.Data, &msg); err != nil {
			return nil, err
		}
		return NewMessageEvent{Message: msg}, nil
	case EventMessagesSeen:
		var data messagesSeenData
		if err := json.Unmarshal(f.Data, &data); err != nil {
			return nil, err
		}
		return MessagesSeenEvent{ConversationId: data.ConversationId}, nil
	case EventOnlineUsers:
		var ids []string
		if err := json.Unmarshal(f.Data, &ids); err != nil {
			return nil, err
		}
		return OnlineUsersEvent{UserIds: ids}, nil
	default:
		return nil, nil
	}
}
