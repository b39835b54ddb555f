package node

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mosaicnetworks/naivechain/src/chain"
	"github.com/mosaicnetworks/naivechain/src/config"
	"github.com/mosaicnetworks/naivechain/src/metrics"
	"github.com/mosaicnetworks/naivechain/src/net"
	"github.com/mosaicnetworks/naivechain/src/peers"
	"github.com/sirupsen/logrus"
)

// Node defines a naivechain node
type Node struct {
	state

	conf   *config.Config
	logger *logrus.Entry

	core     *Core
	coreLock sync.Mutex

	registry *peers.Registry

	trans net.Transport
	netCh <-chan net.Event

	shutdownCh   chan struct{}
	shutdownOnce sync.Once

	start    time.Time
	messages uint64
	dropped  uint64
	rejected uint64
}

// NewNode is a factory method that returns a Node instance
func NewNode(conf *config.Config, store *chain.Store, trans net.Transport) *Node {
	logger := conf.Logger().WithField("node", trans.LocalAddr())
	registry := peers.NewRegistry(logger)

	node := Node{
		conf:       conf,
		logger:     logger,
		core:       NewCore(store, registry, logger),
		registry:   registry,
		trans:      trans,
		netCh:      trans.Consumer(),
		shutdownCh: make(chan struct{}),
		start:      time.Now(),
	}

	return &node
}

// RunAsync calls Run as a separate thread
func (n *Node) RunAsync() {
	n.logger.Debug("runasync")
	go n.Run()
}

// Run starts the transport and processes its events until the node is shut
// down. Events are handled one at a time, so messages from a connection are
// processed in the order they arrived.
func (n *Node) Run() {
	go n.trans.Listen()

	var statsCh <-chan time.Time
	if n.conf.StatsInterval > 0 {
		ticker := time.NewTicker(n.conf.StatsInterval)
		defer ticker.Stop()
		statsCh = ticker.C
	}

	for {
		select {
		case ev := <-n.netCh:
			n.processEvent(ev)
		case <-statsCh:
			n.logStats()
		case <-n.shutdownCh:
			return
		}
	}
}

func (n *Node) processEvent(ev net.Event) {
	switch ev.Kind {
	case net.EventOpen:
		n.onOpen(ev.Conn)
	case net.EventMessage:
		n.onMessage(ev.Conn, ev.Message)
	case net.EventDrop:
		atomic.AddUint64(&n.dropped, 1)
		metrics.ObserveDropped()
		n.logger.WithFields(logrus.Fields{
			"peer":  ev.Conn.RemoteAddr(),
			"error": ev.Err,
		}).Warn("Dropping malformed message")
	case net.EventClose:
		n.onClose(ev.Conn, ev.Err)
	}
}

// onOpen registers the peer of a new connection and asks it for its tip.
func (n *Node) onOpen(conn net.Conn) {
	peer := peers.NewPeer(conn)
	if !n.registry.Register(peer) {
		return
	}

	metrics.SetPeers(n.registry.Len())

	n.logger.WithField("peer", peer.NetAddr).Debug("Peer connected")

	n.registry.Write(peer, net.NewQueryLatestMessage())
}

// onClose forgets the peer of a closed connection.
func (n *Node) onClose(conn net.Conn, err error) {
	peer := n.registry.Deregister(conn)
	if peer == nil {
		return
	}

	metrics.SetPeers(n.registry.Len())

	n.logger.WithFields(logrus.Fields{
		"peer":  peer.NetAddr,
		"error": err,
	}).Debug("Peer disconnected")
}

func (n *Node) onMessage(conn net.Conn, msg *net.Message) {
	peer, ok := n.registry.ByConn(conn)
	if !ok {
		n.logger.WithField("peer", conn.RemoteAddr()).Warn("Message from unknown connection")
		return
	}

	atomic.AddUint64(&n.messages, 1)
	metrics.ObserveMessage(msg.Type.String())

	n.logger.WithFields(logrus.Fields{
		"peer": peer.NetAddr,
		"type": msg.Type.String(),
	}).Debug("Received message")

	switch msg.Type {
	case net.QueryLatest:
		n.reply(peer, n.core.responseLatest)
	case net.QueryAll:
		n.reply(peer, n.core.responseAll)
	case net.ResponseBlockchain:
		n.processResponse(peer, msg)
	}
}

func (n *Node) reply(peer *peers.Peer, build func() (*net.Message, error)) {
	resp, err := build()
	if err != nil {
		n.logger.WithError(err).Error("Building response")
		return
	}
	n.registry.Write(peer, resp)
}

func (n *Node) processResponse(peer *peers.Peer, msg *net.Message) {
	blocks, err := msg.Blocks()
	if err != nil {
		atomic.AddUint64(&n.dropped, 1)
		metrics.ObserveDropped()
		n.logger.WithFields(logrus.Fields{
			"peer":  peer.NetAddr,
			"error": err,
		}).Warn("Dropping malformed blocks")
		return
	}

	n.coreLock.Lock()
	action, err := n.core.ProcessResponse(blocks)
	n.coreLock.Unlock()

	switch {
	case err == ErrEmptyResponse:
		n.logger.WithField("peer", peer.NetAddr).Warn("Dropping empty response")
	case err != nil:
		atomic.AddUint64(&n.rejected, 1)
		n.logger.WithFields(logrus.Fields{
			"peer":   peer.NetAddr,
			"action": action.String(),
			"error":  err,
		}).Info("Rejected received blocks")
	}
}

// Mine produces a block with the given payload on top of the local chain and
// broadcasts it to all peers.
func (n *Node) Mine(data string) (chain.Block, error) {
	n.coreLock.Lock()
	defer n.coreLock.Unlock()
	return n.core.Mine(data)
}

// AddPeers opens connections to the given addresses in the background. Dial
// failures are logged.
func (n *Node) AddPeers(addrs ...string) {
	for _, addr := range addrs {
		addr := addr
		if !n.goFunc(func() { n.connect(addr) }) {
			n.connect(addr)
		}
	}
}

func (n *Node) connect(addr string) {
	if err := n.trans.Connect(addr); err != nil {
		n.logger.WithFields(logrus.Fields{
			"peer":  addr,
			"error": err,
		}).Error("Connection failed")
	}
}

// GetBlocks returns a copy of the local chain.
func (n *Node) GetBlocks() []chain.Block {
	return n.core.store.All()
}

// GetPeers returns the addresses of the open peers.
func (n *Node) GetPeers() []string {
	return n.registry.Addrs()
}

// GetState returns the state of the node.
func (n *Node) GetState() State {
	return n.getState()
}

// GetStats returns information about the node.
func (n *Node) GetStats() map[string]string {
	timeElapsed := time.Since(n.start)
	tip := n.core.store.Tip()

	s := map[string]string{
		"state":             n.getState().String(),
		"chain_length":      strconv.Itoa(n.core.store.Len()),
		"last_block_index":  strconv.Itoa(tip.Index),
		"last_block_hash":   tip.Hash,
		"num_peers":         strconv.Itoa(n.registry.Len()),
		"messages":          strconv.FormatUint(atomic.LoadUint64(&n.messages), 10),
		"dropped_messages":  strconv.FormatUint(atomic.LoadUint64(&n.dropped), 10),
		"rejected_messages": strconv.FormatUint(atomic.LoadUint64(&n.rejected), 10),
		"time_elapsed":      strconv.FormatFloat(timeElapsed.Seconds(), 'f', 2, 64),
	}
	return s
}

func (n *Node) logStats() {
	stats := n.GetStats()

	n.logger.WithFields(logrus.Fields{
		"chain_length":      stats["chain_length"],
		"last_block_index":  stats["last_block_index"],
		"last_block_hash":   stats["last_block_hash"],
		"num_peers":         stats["num_peers"],
		"messages":          stats["messages"],
		"dropped_messages":  stats["dropped_messages"],
		"rejected_messages": stats["rejected_messages"],
		"state":             stats["state"],
	}).Debug("Stats")
}

// Shutdown stops the event loop and closes the transport, which closes all
// peer connections.
func (n *Node) Shutdown() {
	n.shutdownOnce.Do(func() {
		n.logger.Debug("Shutdown")

		n.setState(Shutdown)

		close(n.shutdownCh)

		if err := n.trans.Close(); err != nil {
			n.logger.WithError(err).Error("Closing transport")
		}

		n.waitRoutines()
	})
}
