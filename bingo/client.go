// bingo/client.go
// The session: one room membership over one persistent connection.
package bingo

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/WarperSan/BingoAPI/internal/logger"
)

// sessionState tracks where the client is in its lifecycle. Transitions are
// serialized under Client.mu; there is never more than one receive loop.
type sessionState int

const (
	stateIdle sessionState = iota
	stateConnecting
	stateAwaitingHandshake
	stateLive
	stateDisconnecting
)

const closeReason = "client disconnecting"

// writeWait bounds every write on the persistent connection, including the
// closing handshake.
const writeWait = 10 * time.Second

// Client is a session with one room of the service. Create it with
// NewClient, enter a room with JoinRoom or CreateRoom, leave with
// Disconnect. All methods are safe for concurrent use.
//
// Events received on the persistent connection are classified as
// self-authored or peer-authored and delivered twice per occurrence: first
// to the Handler hook, then to every registered Subscriber, in registration
// order. Delivery is strictly in receipt order; a slow handler stalls the
// read side rather than reordering.
type Client struct {
	// HTTP issues the one-shot room actions. Defaults to a plain
	// *http.Client. Replace before first use.
	HTTP Doer

	// Dialer opens the persistent connection. Defaults to
	// websocket.DefaultDialer.
	Dialer *websocket.Dialer

	cfg     Config
	log     *logger.Logger
	handler Handler

	mu     sync.Mutex
	state  sessionState
	roomID string
	self   Player
	conn   *websocket.Conn
	cancel context.CancelFunc
	done   chan struct{}
	subs   []Subscriber
}

// NewClient builds a client around cfg. handler may be nil, in which case
// only subscribers are notified. log may be nil; a component logger is used.
func NewClient(cfg Config, handler Handler, log *logger.Logger) *Client {
	if handler == nil {
		handler = BaseHandler{}
	}
	if log == nil {
		log = logger.NewLogger("bingo")
	}
	return &Client{
		HTTP:    &http.Client{},
		Dialer:  websocket.DefaultDialer,
		cfg:     cfg.withDefaults(),
		log:     log,
		handler: handler,
	}
}

// RoomID returns the code of the room this client is a member of, or ""
// when it is not in a room. Membership starts when the handshake event is
// observed, not when the join call returns.
func (c *Client) RoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

// Self returns the identity assigned by the handshake event. Zero value
// before the handshake and after a disconnect.
func (c *Client) Self() Player {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.self
}

// connect opens the persistent connection with the credential obtained from
// a join, authenticates it, and blocks until the handshake event arrives or
// the configured timeout elapses. A timed-out attempt is fully torn down
// before the error is returned, so a later connect starts from a clean
// slate.
func (c *Client) connect(ctx context.Context, socketKey string) error {
	c.mu.Lock()
	if c.state != stateIdle {
		c.mu.Unlock()
		return ErrNotIdle
	}
	c.state = stateConnecting
	c.mu.Unlock()

	conn, _, err := c.Dialer.DialContext(ctx, c.cfg.SocketURL, nil)
	if err != nil {
		c.reset()
		return err
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(socketAuth{SocketKey: socketKey}); err != nil {
		conn.Close()
		c.reset()
		return err
	}
	conn.SetWriteDeadline(time.Time{})

	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.mu.Lock()
	if c.state != stateConnecting {
		// A concurrent Disconnect won the race; do not resurrect the
		// session under it.
		c.mu.Unlock()
		cancel()
		conn.Close()
		return ErrNotIdle
	}
	c.conn = conn
	c.cancel = cancel
	c.done = done
	c.state = stateAwaitingHandshake
	c.mu.Unlock()

	// The loop starts before we wait: the handshake event may already be in
	// flight.
	go c.readLoop(loopCtx, conn, done)

	if !c.waitFor(ctx, func() bool { return c.RoomID() != "" }) {
		c.log.Warnf("No handshake within %v, tearing the session down", c.cfg.ConnectTimeout)
		c.Disconnect()
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrConnectTimeout
	}

	c.mu.Lock()
	if c.state == stateAwaitingHandshake {
		c.state = stateLive
	}
	c.mu.Unlock()

	c.log.Infof("Session live in room %q as %q", c.RoomID(), c.Self().Name)
	return nil
}

// waitFor polls cond every PollInterval until it holds, the timeout budget
// runs out, or ctx is cancelled.
func (c *Client) waitFor(ctx context.Context, cond func() bool) bool {
	deadline := time.Now().Add(c.cfg.ConnectTimeout)
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for !cond() {
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
	return true
}

// readLoop owns the receive side of the connection for the lifetime of the
// session. Frames are decoded one at a time and dispatched before the next
// read; unhandled frames are logged and dropped, never fatal.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debugf("Receive loop stopped: %v", err)
			} else {
				c.log.Errorf("Receive loop aborted: %v", err)
			}
			return
		}

		c.log.Debugf("Frame received: %s", data)

		event, ok := ParseEvent(data)
		if !ok {
			c.log.Errorf("Unhandled frame: %s", data)
			continue
		}

		c.dispatch(event)
	}
}

// Disconnect leaves the room and releases the connection. It is idempotent:
// calling it on an idle client is a no-op. Cleanup is strictly ordered —
// close the connection, stop and await the receive loop, clear the session
// state — and only then is the self-disconnected notification fired, so
// observers never see it while residual state is live.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if c.state == stateIdle || c.state == stateDisconnecting {
		c.mu.Unlock()
		return
	}
	c.state = stateDisconnecting
	conn := c.conn
	cancel := c.cancel
	done := c.done
	wasMember := c.roomID != ""
	if wasMember {
		c.log.Infof("Disconnecting from room %q", c.roomID)
	}
	c.mu.Unlock()

	if conn != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, closeReason)
		if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
			// The connection may already be broken; that is an acceptable
			// way to disconnect.
			c.log.Debugf("Close message not delivered: %v", err)
		}
		if err := conn.Close(); err != nil {
			c.log.Debugf("Closing connection: %v", err)
		}
	}

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	c.reset()

	// Notification comes last: observers must never see "disconnected"
	// while residual session state is still live. A connect attempt that
	// never became a member tears down silently.
	if wasMember {
		c.handler.OnSelfDisconnected()
		for _, sub := range c.snapshotSubs() {
			if sub.SelfDisconnected != nil {
				sub.SelfDisconnected()
			}
		}

		// Subscriptions belong to the membership that just ended.
		c.mu.Lock()
		c.subs = nil
		c.mu.Unlock()
	}
}

// reset clears all session fields back to the empty state.
func (c *Client) reset() {
	c.mu.Lock()
	c.conn = nil
	c.cancel = nil
	c.done = nil
	c.roomID = ""
	c.self = Player{}
	c.state = stateIdle
	c.mu.Unlock()
}
