package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/ganot/taskboard/internal/docstore"
)

// MessageType defines the type of a websocket feed message.
type MessageType string

const (
	// MessageSubscribe starts a live query under a client-chosen id.
	MessageSubscribe MessageType = "subscribe"
	// MessageUnsubscribe stops the live query with the given id.
	MessageUnsubscribe MessageType = "unsubscribe"
	// MessageSubscribed acknowledges an accepted subscribe.
	MessageSubscribed MessageType = "subscribed"
	// MessageSnapshot carries the full current result of a live query.
	MessageSnapshot MessageType = "snapshot"
	// MessageError reports a rejected subscribe, or a failed re-run of an
	// accepted one.
	MessageError MessageType = "error"
)

// ClientMessage is sent by feed clients.
type ClientMessage struct {
	Type  MessageType     `json:"type"`
	ID    string          `json:"id"`
	Query *docstore.Query `json:"query,omitempty"`
}

// ServerMessage is sent by the feed.
type ServerMessage struct {
	Type      MessageType         `json:"type"`
	ID        string              `json:"id"`
	Seq       int64               `json:"seq,omitempty"`
	Documents []docstore.Document `json:"documents,omitempty"`
	Error     *APIError           `json:"error,omitempty"`
}

const (
	writeTimeout = 5 * time.Second
	sendBuffer   = 64
)

// feed serves live query snapshots over websocket connections.
type feed struct {
	workspace Workspace
	logger    *slog.Logger
}

// feedConn is one websocket client and its live queries.
type feedConn struct {
	conn   *websocket.Conn
	userID string
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	send   chan ServerMessage

	mu   sync.Mutex
	subs map[string]*docstore.Subscription
}

func (f *feed) serve(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		f.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &feedConn{
		conn:   conn,
		userID: sess.UserID,
		logger: f.logger.With("user_id", sess.UserID),
		ctx:    ctx,
		cancel: cancel,
		send:   make(chan ServerMessage, sendBuffer),
		subs:   make(map[string]*docstore.Subscription),
	}
	c.logger.Debug("feed client connected")

	go c.writeLoop()
	c.readLoop(f.workspace)
}

// readLoop handles client messages until the connection closes.
func (c *feedConn) readLoop(ws Workspace) {
	defer c.close()

	for {
		var msg ClientMessage
		_, data, err := c.conn.Read(c.ctx)
		if err != nil {
			return
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Debug("ignoring malformed feed message", "error", err)
			continue
		}

		switch msg.Type {
		case MessageSubscribe:
			c.subscribe(ws, msg)
		case MessageUnsubscribe:
			c.unsubscribe(msg.ID)
		default:
			c.logger.Debug("ignoring unknown feed message", "type", msg.Type)
		}
	}
}

func (c *feedConn) subscribe(ws Workspace, msg ClientMessage) {
	if msg.Query == nil {
		c.enqueue(ServerMessage{Type: MessageError, ID: msg.ID, Error: MapError(docstore.ErrInvalidQuery)})
		return
	}
	// A repeated id replaces the earlier query.
	c.unsubscribe(msg.ID)

	id := msg.ID
	onSnapshot := func(snap docstore.Snapshot) {
		c.enqueue(ServerMessage{Type: MessageSnapshot, ID: id, Seq: snap.Seq, Documents: snap.Documents})
	}
	onError := func(err error) {
		c.enqueue(ServerMessage{Type: MessageError, ID: id, Error: MapError(err)})
	}

	sub, err := ws.Subscribe(c.ctx, c.userID, *msg.Query, onSnapshot, onError)
	if err != nil {
		c.enqueue(ServerMessage{Type: MessageError, ID: id, Error: MapError(err)})
		return
	}

	c.mu.Lock()
	c.subs[id] = sub
	c.mu.Unlock()
	c.enqueue(ServerMessage{Type: MessageSubscribed, ID: id})
}

func (c *feedConn) unsubscribe(id string) {
	c.mu.Lock()
	sub, ok := c.subs[id]
	delete(c.subs, id)
	c.mu.Unlock()
	if ok {
		sub.Cancel()
	}
}

// enqueue hands msg to the write loop, blocking until there is room or the
// connection is gone.
func (c *feedConn) enqueue(msg ServerMessage) {
	select {
	case c.send <- msg:
	case <-c.ctx.Done():
	}
}

func (c *feedConn) writeLoop() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case msg := <-c.send:
			data, err := json.Marshal(msg)
			if err != nil {
				c.logger.Error("failed to marshal feed message", "error", err)
				continue
			}
			ctx, cancel := context.WithTimeout(c.ctx, writeTimeout)
			err = c.conn.Write(ctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					c.logger.Debug("feed write failed", "error", err)
				}
				c.cancel()
				return
			}
		}
	}
}

func (c *feedConn) close() {
	c.cancel()

	c.mu.Lock()
	subs := c.subs
	c.subs = make(map[string]*docstore.Subscription)
	c.mu.Unlock()
	for _, sub := range subs {
		sub.Cancel()
	}

	_ = c.conn.Close(websocket.StatusNormalClosure, "")
	c.logger.Debug("feed client disconnected", "subscriptions", len(subs))
}
