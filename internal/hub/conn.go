package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// sendBuffer is the per-connection outbound queue depth before Send starts
// reporting failure instead of blocking the publisher.
const sendBuffer = 64

// writeWait is the deadline for a single websocket write.
const writeWait = 5 * time.Second

// Conn adapts a gorilla/websocket connection to the Subscriber interface.
type Conn struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan *Message
	done chan struct{}
	once sync.Once
}

// NewConn wraps an established websocket connection.
func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{
		id:   uuid.New(),
		conn: ws,
		send: make(chan *Message, sendBuffer),
		done: make(chan struct{}),
	}
}

// ID implements Subscriber.
func (c *Conn) ID() uuid.UUID { return c.id }

// Send implements Subscriber, queuing msg for the write pump. It returns
// false without blocking if the outbound buffer is full or the connection
// is already closed.
func (c *Conn) Send(msg *Message) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// Close shuts down the connection's write pump, idempotently.
func (c *Conn) Close() {
	c.once.Do(func() { close(c.done) })
}

// WritePump drains queued messages to the underlying socket until Close is
// called or a write fails (grounded on the teacher pack's websocket hub
// write pump).
func (c *Conn) WritePump() {
	defer c.conn.Close()
	log := logrus.WithField("conn_id", c.id)

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				log.WithError(err).Warn("write failed, closing connection")
				return
			}
		case <-c.done:
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// RequestHandler handles an inbound `battle:request` frame's payload and
// returns the value to ack back to the requester.
type RequestHandler func(payload json.RawMessage) interface{}

// ReadLoop reads control frames from the client: `battle:subscribe` and
// `battle:unsubscribe` invoke onSubscribe/onUnsubscribe with the room key;
// `battle:request` invokes onRequest with its raw payload and writes the
// returned value back as an ack frame (spec §6 "Socket events").
func (c *Conn) ReadLoop(onSubscribe, onUnsubscribe func(room string), onRequest RequestHandler) {
	defer c.Close()

	for {
		var frame struct {
			Type    string          `json:"type"`
			Room    string          `json:"room"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := c.conn.ReadJSON(&frame); err != nil {
			return
		}
		switch frame.Type {
		case "battle:subscribe":
			if onSubscribe != nil {
				onSubscribe(frame.Room)
			}
		case "battle:unsubscribe":
			if onUnsubscribe != nil {
				onUnsubscribe(frame.Room)
			}
		case "battle:request":
			if onRequest != nil {
				ack := onRequest(frame.Payload)
				body, err := json.Marshal(ack)
				if err != nil {
					continue
				}
				c.Send(&Message{Type: "battle:request:ack", Payload: body, Timestamp: time.Now().UnixMilli()})
			}
		}
	}
}
