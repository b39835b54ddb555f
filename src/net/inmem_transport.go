package net

import (
	"crypto/rand"
	"fmt"
	"sync"
)

// NewInmemAddr returns a new in-memory addr with
// a randomly generate UUID as the ID.
func NewInmemAddr() string {
	return generateUUID()
}

// generateUUID is used to generate a random UUID.
func generateUUID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Errorf("failed to read random bytes: %v", err))
	}

	return fmt.Sprintf("%08x-%04x-%04x-%04x-%12x",
		buf[0:4],
		buf[4:6],
		buf[6:8],
		buf[8:10],
		buf[10:16])
}

// InmemTransport Implements the Transport interface, to allow naivechain to be
// tested in-memory without going over a network. Messages still go through
// the JSON codec so that tests exercise the wire format.
type InmemTransport struct {
	sync.RWMutex
	consumerCh chan Event
	localAddr  string
	peers      map[string]*InmemTransport
	maxQueue   int
	shutdownCh chan struct{}
	closeOnce  sync.Once
}

// NewInmemTransport is used to initialize a new transport
// and generates a random local address if none is specified
func NewInmemTransport(addr string) (string, *InmemTransport) {
	if addr == "" {
		addr = NewInmemAddr()
	}
	trans := &InmemTransport{
		consumerCh: make(chan Event, 16),
		localAddr:  addr,
		peers:      make(map[string]*InmemTransport),
		maxQueue:   DefaultMaxQueue,
		shutdownCh: make(chan struct{}),
	}
	return addr, trans
}

// Consumer implements the Transport interface.
func (i *InmemTransport) Consumer() <-chan Event {
	return i.consumerCh
}

// LocalAddr implements the Transport interface.
func (i *InmemTransport) LocalAddr() string {
	return i.localAddr
}

// Link is used to make another transport reachable under a given address.
// This allows for local routing.
func (i *InmemTransport) Link(peer string, t Transport) {
	trans := t.(*InmemTransport)
	i.Lock()
	defer i.Unlock()
	i.peers[peer] = trans
}

// Unlink is used to remove the ability to route to a given peer.
func (i *InmemTransport) Unlink(peer string) {
	i.Lock()
	defer i.Unlock()
	delete(i.peers, peer)
}

// Connect implements the Transport interface. The target must have been
// linked beforehand.
func (i *InmemTransport) Connect(target string) error {
	if i.isShutdown() {
		return ErrTransportShutdown
	}

	i.RLock()
	peer, ok := i.peers[target]
	i.RUnlock()

	if !ok {
		return fmt.Errorf("failed to connect to peer: %v", target)
	}

	local := newInmemConn(i, target)
	remote := newInmemConn(peer, i.localAddr)
	local.peer = remote
	remote.peer = local

	go func() {
		i.emit(Event{Kind: EventOpen, Conn: local})
		peer.emit(Event{Kind: EventOpen, Conn: remote})
		go local.pump()
		go remote.pump()
	}()

	return nil
}

func (i *InmemTransport) emit(ev Event) {
	select {
	case i.consumerCh <- ev:
	case <-i.shutdownCh:
	}
}

func (i *InmemTransport) isShutdown() bool {
	select {
	case <-i.shutdownCh:
		return true
	default:
		return false
	}
}

// Close is used to permanently disable the transport
func (i *InmemTransport) Close() error {
	i.closeOnce.Do(func() {
		close(i.shutdownCh)
	})
	i.Lock()
	defer i.Unlock()
	i.peers = make(map[string]*InmemTransport)
	return nil
}

// Listen is an empty function as there is no need to defer
// initialisation of the InMem service
func (i *InmemTransport) Listen() {
}

// inmemConn is one end of an in-memory connection. Messages sent on it are
// delivered, in order, as events of the transport owning the other end.
type inmemConn struct {
	owner      *InmemTransport
	remoteAddr string
	peer       *inmemConn
	outCh      chan []byte
	closeCh    chan struct{}
	closeOnce  sync.Once
}

func newInmemConn(owner *InmemTransport, remoteAddr string) *inmemConn {
	return &inmemConn{
		owner:      owner,
		remoteAddr: remoteAddr,
		outCh:      make(chan []byte, owner.maxQueue),
		closeCh:    make(chan struct{}),
	}
}

// RemoteAddr implements the Conn interface.
func (c *inmemConn) RemoteAddr() string {
	return c.remoteAddr
}

// Send implements the Conn interface.
func (c *inmemConn) Send(msg *Message) error {
	data, err := EncodeMessage(msg)
	if err != nil {
		return err
	}
	return c.sendRaw(data)
}

func (c *inmemConn) sendRaw(data []byte) error {
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

// Close implements the Conn interface. Both ends are closed and each
// transport receives an EventClose for its end.
func (c *inmemConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closeCh)
		go c.owner.emit(Event{Kind: EventClose, Conn: c, Err: ErrConnClosed})
		c.peer.Close()
	})
	return nil
}

func (c *inmemConn) pump() {
	for {
		select {
		case data := <-c.outCh:
			c.peer.deliver(data)
		case <-c.closeCh:
			return
		}
	}
}

func (c *inmemConn) deliver(data []byte) {
	msg, err := DecodeMessage(data)
	if err != nil {
		c.owner.emit(Event{Kind: EventDrop, Conn: c, Err: err})
		return
	}
	c.owner.emit(Event{Kind: EventMessage, Conn: c, Message: msg})
}
