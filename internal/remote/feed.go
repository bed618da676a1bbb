package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/ganot/taskboard/internal/backend"
	"github.com/ganot/taskboard/internal/docstore"
	"github.com/ganot/taskboard/internal/transport"
)

const (
	feedWriteTimeout = 5 * time.Second
	feedReadLimit    = 8 << 20
)

// feed is one websocket connection carrying every live query of a session.
type feed struct {
	conn   *websocket.Conn
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	// onClose runs once when the connection ends for any reason.
	onClose func(*feed)

	writeMu sync.Mutex

	mu      sync.Mutex
	subs    map[string]*subscription
	next    int
	closing bool
}

// subscription is a live query multiplexed on a feed.
type subscription struct {
	id         string
	collection string
	feed       *feed
	onSnapshot func(docstore.Snapshot)
	onError    func(error)

	// ack receives nil when the server accepts the query, or its rejection.
	ack chan error

	mu        sync.Mutex
	acked     bool
	cancelled bool
}

var _ backend.Subscription = (*subscription)(nil)

func dialFeed(ctx context.Context, url, token string, logger *slog.Logger, onClose func(*feed)) (*feed, error) {
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer " + token}},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", backend.ErrOffline, err)
	}
	conn.SetReadLimit(feedReadLimit)

	fctx, cancel := context.WithCancel(context.Background())
	f := &feed{
		conn:    conn,
		logger:  logger,
		ctx:     fctx,
		cancel:  cancel,
		onClose: onClose,
		subs:    make(map[string]*subscription),
	}
	go f.readLoop()
	return f, nil
}

// subscribe registers a live query and waits for the server to accept or
// reject it. Snapshots that arrive before the acknowledgement are delivered.
func (f *feed) subscribe(ctx context.Context, q docstore.Query, onSnapshot func(docstore.Snapshot), onError func(error)) (*subscription, error) {
	f.mu.Lock()
	if f.closing {
		f.mu.Unlock()
		return nil, backend.ErrOffline
	}
	f.next++
	sub := &subscription{
		id:         strconv.Itoa(f.next),
		collection: q.Collection,
		feed:       f,
		onSnapshot: onSnapshot,
		onError:    onError,
		ack:        make(chan error, 1),
	}
	f.subs[sub.id] = sub
	f.mu.Unlock()

	if err := f.write(ctx, transport.ClientMessage{Type: transport.MessageSubscribe, ID: sub.id, Query: &q}); err != nil {
		f.remove(sub.id)
		return nil, fmt.Errorf("%w: %v", backend.ErrOffline, err)
	}

	select {
	case err := <-sub.ack:
		if err != nil {
			f.remove(sub.id)
			return nil, err
		}
		return sub, nil
	case <-ctx.Done():
		sub.Cancel()
		return nil, ctx.Err()
	}
}

func (f *feed) write(ctx context.Context, msg transport.ClientMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, feedWriteTimeout)
	defer cancel()

	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	return f.conn.Write(ctx, websocket.MessageText, data)
}

func (f *feed) lookup(id string) *subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs[id]
}

func (f *feed) remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs, id)
}

// active reports how many live queries the feed carries.
func (f *feed) active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *feed) readLoop() {
	var readErr error
	defer func() { f.shutdown(readErr) }()

	for {
		_, data, err := f.conn.Read(f.ctx)
		if err != nil {
			readErr = err
			return
		}
		var msg transport.ServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			f.logger.Debug("ignoring malformed feed message", "error", err)
			continue
		}
		sub := f.lookup(msg.ID)
		if sub == nil {
			continue
		}

		switch msg.Type {
		case transport.MessageSubscribed:
			sub.accept(nil)
		case transport.MessageSnapshot:
			docs := msg.Documents
			if docs == nil {
				docs = []docstore.Document{}
			}
			sub.deliver(docstore.Snapshot{Seq: msg.Seq, Documents: docs})
		case transport.MessageError:
			err := error(&transport.APIError{Code: transport.CodeInternal, Message: "live query failed"})
			if msg.Error != nil {
				err = msg.Error
			}
			if !sub.accept(err) {
				sub.fail(err)
			}
		}
	}
}

// shutdown ends every live query. A connection lost without close() reports
// backend.ErrOffline to each of them.
func (f *feed) shutdown(cause error) {
	f.cancel()

	f.mu.Lock()
	deliberate := f.closing
	f.closing = true
	subs := f.subs
	f.subs = make(map[string]*subscription)
	f.mu.Unlock()

	if !deliberate {
		f.logger.Warn("live query feed lost", "error", cause, "subscriptions", len(subs))
	}
	lost := fmt.Errorf("%w: %v", backend.ErrOffline, cause)
	for _, sub := range subs {
		if sub.accept(lost) {
			continue
		}
		if !deliberate {
			sub.fail(lost)
		}
	}

	_ = f.conn.CloseNow()
	if f.onClose != nil {
		f.onClose(f)
	}
}

// close ends the connection without reporting errors to live queries.
func (f *feed) close() {
	f.mu.Lock()
	f.closing = true
	f.mu.Unlock()

	_ = f.conn.Close(websocket.StatusNormalClosure, "")
	f.cancel()
}

// accept resolves the pending subscribe. It reports false once the
// subscription was already acknowledged.
func (s *subscription) accept(err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.acked {
		return false
	}
	s.acked = true
	s.ack <- err
	return true
}

func (s *subscription) deliver(snap docstore.Snapshot) {
	s.mu.Lock()
	cancelled := s.cancelled
	s.mu.Unlock()
	if !cancelled && s.onSnapshot != nil {
		s.onSnapshot(snap)
	}
}

func (s *subscription) fail(err error) {
	s.mu.Lock()
	cancelled := s.cancelled
	s.mu.Unlock()
	if !cancelled && s.onError != nil {
		s.onError(&backend.SubscriptionError{Collection: s.collection, Err: err})
	}
}

// Cancel stops deliveries and tells the server to drop the query.
func (s *subscription) Cancel() {
	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		return
	}
	s.cancelled = true
	s.mu.Unlock()

	f := s.feed
	if f.lookup(s.id) == nil {
		return
	}
	f.remove(s.id)
	if err := f.write(f.ctx, transport.ClientMessage{Type: transport.MessageUnsubscribe, ID: s.id}); err != nil {
		f.logger.Debug("unsubscribe not sent", "id", s.id, "error", err)
	}
}
