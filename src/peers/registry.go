package peers

import (
	"sync"

	"github.com/mosaicnetworks/naivechain/src/net"
	"github.com/sirupsen/logrus"
)

// Registry is the set of open peer connections.
type Registry struct {
	sync.RWMutex

	peers  []*Peer
	byConn map[net.Conn]*Peer

	logger *logrus.Entry
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *logrus.Entry) *Registry {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}

	return &Registry{
		byConn: make(map[net.Conn]*Peer),
		logger: logger,
	}
}

// Register opens a Connecting peer and adds it to the set. It returns false if
// the peer was not in the Connecting state.
func (r *Registry) Register(peer *Peer) bool {
	if !peer.transition(Connecting, Open) {
		return false
	}

	r.Lock()
	defer r.Unlock()

	r.byConn[peer.Conn] = peer

	peers := make([]*Peer, len(r.peers), len(r.peers)+1)
	copy(peers, r.peers)
	r.peers = append(peers, peer)

	return true
}

// Deregister closes the peer of conn and removes it from the set. It returns
// the removed peer, or nil if conn was not registered.
func (r *Registry) Deregister(conn net.Conn) *Peer {
	r.Lock()
	defer r.Unlock()

	peer, ok := r.byConn[conn]
	if !ok {
		return nil
	}

	delete(r.byConn, conn)

	peers := make([]*Peer, 0, len(r.peers))
	for _, p := range r.peers {
		if p != peer {
			peers = append(peers, p)
		}
	}
	r.peers = peers

	peer.transition(Open, Closed)

	return peer
}

// ByConn returns the open peer of a connection.
func (r *Registry) ByConn(conn net.Conn) (*Peer, bool) {
	r.RLock()
	defer r.RUnlock()
	p, ok := r.byConn[conn]
	return p, ok
}

// Peers returns the open peers in registration order.
func (r *Registry) Peers() []*Peer {
	r.RLock()
	defer r.RUnlock()
	return r.peers
}

// Addrs returns the remote addresses of the open peers.
func (r *Registry) Addrs() []string {
	peers := r.Peers()
	res := make([]string, 0, len(peers))
	for _, p := range peers {
		res = append(res, p.NetAddr)
	}
	return res
}

// Len returns the number of open peers.
func (r *Registry) Len() int {
	r.RLock()
	defer r.RUnlock()
	return len(r.peers)
}

// Write sends msg to a single peer without waiting for delivery. Failures are
// logged and otherwise ignored.
func (r *Registry) Write(peer *Peer, msg *net.Message) {
	if err := peer.Conn.Send(msg); err != nil {
		r.logger.WithFields(logrus.Fields{
			"peer":  peer.NetAddr,
			"type":  msg.Type,
			"error": err,
		}).Warn("Failed to write message")
	}
}

// Broadcast writes msg to every open peer.
func (r *Registry) Broadcast(msg *net.Message) {
	for _, p := range r.Peers() {
		r.Write(p, msg)
	}
}
