package peers

import (
	"sync/atomic"

	"github.com/mosaicnetworks/naivechain/src/net"
)

// State is the lifecycle state of a peer connection.
type State uint32

const (
	// Connecting is the state of a connection being established
	Connecting State = iota
	// Open is the state of a registered connection
	Open
	// Closed is terminal
	Closed
)

// String ...
func (s State) String() string {
	switch s {
	case Connecting:
		return "Connecting"
	case Open:
		return "Open"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Peer is the remote end of a connection.
type Peer struct {
	NetAddr string
	Conn    net.Conn

	state State
}

// NewPeer creates a Peer in the Connecting state.
func NewPeer(conn net.Conn) *Peer {
	return &Peer{
		NetAddr: conn.RemoteAddr(),
		Conn:    conn,
		state:   Connecting,
	}
}

// State returns the current state of the peer.
func (p *Peer) State() State {
	stateAddr := (*uint32)(&p.state)
	return State(atomic.LoadUint32(stateAddr))
}

// transition moves the peer from one state to another and reports whether it
// was in the from state.
func (p *Peer) transition(from, to State) bool {
	stateAddr := (*uint32)(&p.state)
	return atomic.CompareAndSwapUint32(stateAddr, uint32(from), uint32(to))
}
