package gateway

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"roomchat/pkg/types"
)

const (
	writeTimeout    = 5 * time.Second
	writeBufferSize = 100
)

// Conn wraps a websocket connection with a single writer goroutine so
// concurrent broadcasts never interleave frames. It carries no business
// state beyond its opaque connection ID; identity and room live in the
// session registry.
type Conn struct {
	id        string
	ws        *websocket.Conn
	writeCh   chan []byte
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func newConn(ws *websocket.Conn) *Conn {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Conn{
		id:      uuid.New().String(),
		ws:      ws,
		writeCh: make(chan []byte, writeBufferSize),
		ctx:     ctx,
		cancel:  cancel,
	}
	go c.writeLoop()
	return c
}

// ID returns the opaque per-connection identifier.
func (c *Conn) ID() string { return c.id }

func (c *Conn) writeLoop() {
	for {
		select {
		case data := <-c.writeCh:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// Send marshals an outbound frame and queues it for the writer. Returns
// ErrConnectionClosed once the connection is shut down and ErrWriteTimeout
// when the write buffer stays full.
func (c *Conn) Send(event string, data any) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	payload, err := json.Marshal(types.Frame{Event: event, Data: data})
	if err != nil {
		return err
	}

	select {
	case c.writeCh <- payload:
		return nil
	case <-time.After(writeTimeout):
		return ErrWriteTimeout
	case <-c.ctx.Done():
		return ErrConnectionClosed
	}
}

// readEnvelope blocks for the next inbound frame.
func (c *Conn) readEnvelope() (types.Envelope, error) {
	var env types.Envelope
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return env, err
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return env, ErrInvalidFrame
	}
	return env, nil
}

// Close shuts the connection down. Idempotent.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.ws.Close()
	})
	return err
}
