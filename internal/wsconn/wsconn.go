// Package wsconn implements a resilient WebSocket connection: a
// single-writer state machine owning the socket handle, a connection
// token that invalidates stale async callbacks, a pending-pong flag, a
// retry counter, and a closed flag — plus a topic-keyed pub-sub fan-out
// with full re-subscribe on reconnect.
//
// Reconnection uses exponential backoff over connect/read/ping loops;
// fan-out generalizes a broadcast-to-all hub into topic-keyed
// per-subscriber delivery.
package wsconn

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"tradecore/internal/errs"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

const (
	pingInterval    = 50 * time.Second
	pongWait        = 90 * time.Second
	minReconnectWait = time.Second
	maxReconnectWait = 30 * time.Second
	writeTimeout    = 10 * time.Second
)

// Dialer abstracts websocket.DefaultDialer for testability.
type Dialer interface {
	DialContext(ctx context.Context, url string, header map[string][]string) (*websocket.Conn, error)
}

type defaultDialer struct{}

func (defaultDialer) DialContext(ctx context.Context, url string, header map[string][]string) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	return conn, err
}

// Message is one parsed inbound frame: a topic and its raw payload.
type Message struct {
	Topic   string
	Payload json.RawMessage
}

// commandKind enumerates the single-writer agent's internal operations —
// The connect+/retry+/keep_alive+/check_alive+/terminate+/cleanup+/
// reset_retries+.
type commandKind int

const (
	cmdConnect commandKind = iota
	cmdRetry
	cmdKeepAlive
	cmdCheckAlive
	cmdTerminate
	cmdResetRetries
	cmdSubscribe
	cmdUnsubscribe
)

type command struct {
	kind  commandKind
	token uint64
	topic string
	reply chan struct{}
}

// Conn is the resilient WebSocket connection. All state transitions are
// serialized through a single goroutine (run) reading from cmds; only
// that goroutine touches conn/token/retries/closed/pendingPong.
type Conn struct {
	url    string
	dialer Dialer

	cmds chan command

	mu          sync.RWMutex
	subscribers map[string]map[chan Message]struct{} // topic -> subscriber channels
	topics      map[string]struct{}                  // full subscribed set, re-sent on reconnect

	socket       *websocket.Conn
	token        uint64
	retries      int
	closed       bool
	pendingPong  bool

	onConnectionError func(error)
}

// New builds a Conn targeting url; Run must be called to start it.
func New(url string, dialer Dialer) *Conn {
	if dialer == nil {
		dialer = defaultDialer{}
	}
	return &Conn{
		url:         url,
		dialer:      dialer,
		cmds:        make(chan command, 32),
		subscribers: make(map[string]map[chan Message]struct{}),
		topics:      make(map[string]struct{}),
	}
}

// Run drives the single-writer agent until ctx is cancelled. It should be
// launched in its own goroutine.
func (c *Conn) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.agent(ctx) })
	g.Go(func() error { return c.pingTicker(ctx) })
	<-ctx.Done()
	c.terminate()
	return g.Wait()
}

func (c *Conn) agent(ctx context.Context) error {
	c.connect(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-c.cmds:
			c.handle(ctx, cmd)
			if cmd.reply != nil {
				close(cmd.reply)
			}
		}
	}
}

func (c *Conn) handle(ctx context.Context, cmd command) {
	switch cmd.kind {
	case cmdRetry:
		if cmd.token != c.token {
			return // callback from a superseded socket
		}
		c.connect(ctx)
	case cmdKeepAlive:
		c.keepAlive()
	case cmdCheckAlive:
		c.checkAlive(ctx)
	case cmdTerminate:
		c.cleanup()
	case cmdResetRetries: // sent by the pong handler
		c.retries = 0
		c.pendingPong = false
	case cmdSubscribe:
		c.topics[cmd.topic] = struct{}{}
		c.sendSubscribe(cmd.topic, true)
	case cmdUnsubscribe:
		delete(c.topics, cmd.topic)
		c.sendSubscribe(cmd.topic, false)
	}
}

// connect dials, replacing any prior socket and invalidating its token so
// stale reader-goroutine callbacks from the old connection are ignored.
func (c *Conn) connect(ctx context.Context) {
	if c.closed {
		return
	}
	conn, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		c.reportError(errs.Wrap(errs.Unavailable, err, "dial %s", c.url))
		c.scheduleRetry(ctx)
		return
	}
	c.socket = conn
	c.token++
	myToken := c.token
	c.retries = 0
	c.pendingPong = false

	conn.SetPongHandler(func(string) error {
		c.cmds <- command{kind: cmdResetRetries}
		return nil
	})

	for topic := range c.topics {
		c.sendSubscribeLocked(conn, topic, true)
	}

	go c.readLoop(ctx, conn, myToken)
}

func (c *Conn) readLoop(ctx context.Context, conn *websocket.Conn, token uint64) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case c.cmds <- command{kind: cmdRetry, token: token}:
			case <-ctx.Done():
			}
			return
		}
		msg := parseMessage(data)
		c.fanOut(msg)
	}
}

func parseMessage(data []byte) Message {
	var envelope struct {
		Topic   string          `json:"topic"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Message{Payload: data}
	}
	return Message{Topic: envelope.Topic, Payload: envelope.Payload}
}

func (c *Conn) fanOut(msg Message) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for sub := range c.subscribers[msg.Topic] {
		select {
		case sub <- msg:
		default: // slow subscriber: drop rather than block the read loop
		}
	}
}

func (c *Conn) scheduleRetry(ctx context.Context) {
	wait := minReconnectWait << uint(c.retries)
	if wait > maxReconnectWait || wait <= 0 {
		wait = maxReconnectWait
	}
	c.retries++
	token := c.token
	time.AfterFunc(wait, func() {
		select {
		case c.cmds <- command{kind: cmdRetry, token: token}:
		case <-ctx.Done():
		}
	})
}

func (c *Conn) pingTicker(ctx context.Context) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			select {
			case c.cmds <- command{kind: cmdKeepAlive}:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func (c *Conn) keepAlive() {
	if c.socket == nil {
		return
	}
	if c.pendingPong {
		// no pong since last ping: treat as a dead connection.
		c.checkAlive(context.Background())
		return
	}
	c.pendingPong = true
	_ = c.socket.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = c.socket.WriteMessage(websocket.PingMessage, nil)
}

func (c *Conn) checkAlive(ctx context.Context) {
	if c.socket != nil {
		_ = c.socket.Close()
	}
	c.connect(ctx)
}

func (c *Conn) cleanup() {
	c.closed = true
	if c.socket != nil {
		_ = c.socket.Close()
		c.socket = nil
	}
}

func (c *Conn) terminate() {
	select {
	case c.cmds <- command{kind: cmdTerminate}:
	default:
	}
}

func (c *Conn) reportError(err error) {
	if c.onConnectionError != nil {
		c.onConnectionError(err)
	}
}

// OnConnectionError registers a callback invoked when dialing the venue
// fails. A read error on an established socket triggers a reconnect
// without invoking it.
func (c *Conn) OnConnectionError(f func(error)) { c.onConnectionError = f }

// Subscribe returns a channel receiving every Message for topic. The
// subscription is re-issued automatically on every reconnect.
func (c *Conn) Subscribe(topic string) <-chan Message {
	ch := make(chan Message, 64)
	c.mu.Lock()
	if c.subscribers[topic] == nil {
		c.subscribers[topic] = make(map[chan Message]struct{})
	}
	c.subscribers[topic][ch] = struct{}{}
	c.mu.Unlock()

	reply := make(chan struct{})
	c.cmds <- command{kind: cmdSubscribe, topic: topic, reply: reply}
	<-reply
	return ch
}

// Unsubscribe stops delivery to ch and, if it was the topic's last
// subscriber, sends an unsubscribe frame to the venue.
func (c *Conn) Unsubscribe(topic string, ch <-chan Message) {
	c.mu.Lock()
	subs := c.subscribers[topic]
	for existing := range subs {
		if (<-chan Message)(existing) == ch {
			delete(subs, existing)
			close(existing)
			break
		}
	}
	empty := len(subs) == 0
	c.mu.Unlock()

	if empty {
		reply := make(chan struct{})
		c.cmds <- command{kind: cmdUnsubscribe, topic: topic, reply: reply}
		<-reply
	}
}

func (c *Conn) sendSubscribe(topic string, subscribe bool) {
	if c.socket == nil {
		return
	}
	c.sendSubscribeLocked(c.socket, topic, subscribe)
}

func (c *Conn) sendSubscribeLocked(conn *websocket.Conn, topic string, subscribe bool) {
	frame := map[string]any{"topic": topic, "subscribe": subscribe}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = conn.WriteJSON(frame)
}
