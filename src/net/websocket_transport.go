package net

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var (
	// ErrTransportShutdown is returned when operations on a transport are
	// invoked after it's been terminated.
	ErrTransportShutdown = errors.New("transport shutdown")

	// ErrConnClosed is returned when sending on a closed connection.
	ErrConnClosed = errors.New("connection closed")

	// ErrQueueFull is returned when the outbound queue of a connection is
	// full. The message is dropped.
	ErrQueueFull = errors.New("outbound queue full")
)

// DefaultMaxQueue is the size of the outbound queue of a connection when none
// is specified.
const DefaultMaxQueue = 64

// DefaultMaxMessageSize is the largest incoming frame, in bytes, accepted when
// no limit is specified. Larger frames close the connection.
const DefaultMaxMessageSize = 16 << 20

/*
WebsocketTransport carries gossip messages over websocket connections. It
serves websocket upgrades on its bind address and dials ws:// URLs for
outbound connections.

Every connection has a read loop, which decodes incoming text frames and
reports them as Events, and a write pump, which drains a bounded queue of
encoded messages. Send never blocks: when the queue is full the message is
dropped.
*/
type WebsocketTransport struct {
	logger *logrus.Entry

	listener net.Listener
	server   *http.Server
	upgrader websocket.Upgrader
	dialer   *websocket.Dialer

	conns     map[*wsConn]struct{}
	connsLock sync.Mutex

	consumeCh chan Event

	maxQueue       int
	maxMessageSize int64
	timeout        time.Duration

	shutdown     bool
	shutdownCh   chan struct{}
	shutdownLock sync.Mutex
}

type wsConn struct {
	addr      string
	ws        *websocket.Conn
	outCh     chan []byte
	closeCh   chan struct{}
	closeOnce sync.Once
	timeout   time.Duration
}

// RemoteAddr implements the Conn interface.
func (c *wsConn) RemoteAddr() string {
	return c.addr
}

// Send implements the Conn interface.
func (c *wsConn) Send(msg *Message) error {
	data, err := EncodeMessage(msg)
	if err != nil {
		return err
	}

	select {
	case <-c.closeCh:
		return ErrConnClosed
	default:
	}

	select {
	case c.outCh <- data:
		return nil
	case <-c.closeCh:
		return ErrConnClosed
	default:
		return ErrQueueFull
	}
}

// Close implements the Conn interface.
func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.ws.Close()
	})
	return err
}

func (c *wsConn) writePump() {
	for {
		select {
		case data := <-c.outCh:
			if c.timeout > 0 {
				c.ws.SetWriteDeadline(time.Now().Add(c.timeout))
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.Close()
				return
			}
		case <-c.closeCh:
			return
		}
	}
}

// NewWebsocketTransport binds bindAddr and returns a transport ready to
// Listen. maxQueue is the number of outbound messages buffered per
// connection, maxMessageSize the largest incoming frame in bytes, and timeout
// applies to dialing and to individual writes.
func NewWebsocketTransport(
	bindAddr string,
	maxQueue int,
	maxMessageSize int64,
	timeout time.Duration,
	logger *logrus.Entry,
) (*WebsocketTransport, error) {

	if logger == nil {
		log := logrus.New()
		log.Level = logrus.DebugLevel
		logger = logrus.NewEntry(log)
	}

	if maxQueue <= 0 {
		maxQueue = DefaultMaxQueue
	}

	if maxMessageSize <= 0 {
		maxMessageSize = DefaultMaxMessageSize
	}

	// Try to bind
	list, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, err
	}

	trans := &WebsocketTransport{
		logger:   logger,
		listener: list,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		dialer: &websocket.Dialer{
			HandshakeTimeout: timeout,
		},
		conns:          make(map[*wsConn]struct{}),
		consumeCh:      make(chan Event, 64),
		maxQueue:       maxQueue,
		maxMessageSize: maxMessageSize,
		timeout:        timeout,
		shutdownCh:     make(chan struct{}),
	}

	trans.server = &http.Server{Handler: trans}

	return trans, nil
}

// Consumer implements the Transport interface.
func (t *WebsocketTransport) Consumer() <-chan Event {
	return t.consumeCh
}

// LocalAddr implements the Transport interface.
func (t *WebsocketTransport) LocalAddr() string {
	return t.listener.Addr().String()
}

// IsShutdown is used to check if the transport is shutdown.
func (t *WebsocketTransport) IsShutdown() bool {
	select {
	case <-t.shutdownCh:
		return true
	default:
		return false
	}
}

// Listen implements the Transport interface. It blocks until the transport is
// closed.
func (t *WebsocketTransport) Listen() {
	t.logger.WithField("bind_address", t.LocalAddr()).Debug("Listening for websocket peers")

	err := t.server.Serve(t.listener)
	if err != nil && err != http.ErrServerClosed && !t.IsShutdown() {
		t.logger.WithError(err).Error("Websocket server stopped")
	}
}

// ServeHTTP upgrades inbound HTTP requests to websocket connections.
func (t *WebsocketTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if t.IsShutdown() {
		http.Error(w, ErrTransportShutdown.Error(), http.StatusServiceUnavailable)
		return
	}

	ws, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		t.logger.WithError(err).Error("Failed to upgrade connection")
		return
	}

	t.logger.WithFields(logrus.Fields{
		"node": t.LocalAddr(),
		"from": ws.RemoteAddr(),
	}).Debug("accepted connection")

	conn := t.newConn(ws.RemoteAddr().String(), ws)
	t.emit(Event{Kind: EventOpen, Conn: conn})
	t.readLoop(conn)
}

// Connect implements the Transport interface. addr is either a host:port or a
// full ws:// or wss:// URL.
func (t *WebsocketTransport) Connect(addr string) error {
	if t.IsShutdown() {
		return ErrTransportShutdown
	}

	url := addr
	if !strings.HasPrefix(addr, "ws://") && !strings.HasPrefix(addr, "wss://") {
		url = "ws://" + addr
	}

	ws, _, err := t.dialer.Dial(url, nil)
	if err != nil {
		return err
	}

	t.logger.WithFields(logrus.Fields{
		"node": t.LocalAddr(),
		"to":   url,
	}).Debug("opened connection")

	conn := t.newConn(addr, ws)
	go func() {
		t.emit(Event{Kind: EventOpen, Conn: conn})
		t.readLoop(conn)
	}()

	return nil
}

func (t *WebsocketTransport) newConn(addr string, ws *websocket.Conn) *wsConn {
	ws.SetReadLimit(t.maxMessageSize)

	conn := &wsConn{
		addr:    addr,
		ws:      ws,
		outCh:   make(chan []byte, t.maxQueue),
		closeCh: make(chan struct{}),
		timeout: t.timeout,
	}

	t.connsLock.Lock()
	t.conns[conn] = struct{}{}
	t.connsLock.Unlock()

	go conn.writePump()

	return conn
}

// readLoop decodes incoming frames until the connection fails. Frames that
// are not valid messages are reported as EventDrop and do not terminate the
// connection.
func (t *WebsocketTransport) readLoop(conn *wsConn) {
	defer func() {
		t.connsLock.Lock()
		delete(t.conns, conn)
		t.connsLock.Unlock()
	}()

	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			conn.Close()
			t.emit(Event{Kind: EventClose, Conn: conn, Err: err})
			return
		}

		msg, err := DecodeMessage(data)
		if err != nil {
			t.emit(Event{Kind: EventDrop, Conn: conn, Err: err})
			continue
		}

		t.emit(Event{Kind: EventMessage, Conn: conn, Message: msg})
	}
}

func (t *WebsocketTransport) emit(ev Event) {
	select {
	case t.consumeCh <- ev:
	case <-t.shutdownCh:
	}
}

// Close is used to stop the network transport.
func (t *WebsocketTransport) Close() error {
	t.shutdownLock.Lock()
	defer t.shutdownLock.Unlock()

	if !t.shutdown {
		close(t.shutdownCh)
		t.server.Close()
		t.listener.Close()

		t.connsLock.Lock()
		for conn := range t.conns {
			conn.Close()
		}
		t.connsLock.Unlock()

		t.shutdown = true
	}
	return nil
}
