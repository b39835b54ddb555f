// Package naivechain wires the components of a naivechain node together: the
// chain store, the websocket transport, the gossip node and the HTTP service.
package naivechain

import (
	"fmt"

	"github.com/mosaicnetworks/naivechain/src/chain"
	"github.com/mosaicnetworks/naivechain/src/config"
	"github.com/mosaicnetworks/naivechain/src/net"
	"github.com/mosaicnetworks/naivechain/src/node"
	"github.com/mosaicnetworks/naivechain/src/service"
	"github.com/sirupsen/logrus"
)

// Naivechain is a naivechain engine
type Naivechain struct {
	Config    *config.Config
	Node      *node.Node
	Transport net.Transport
	Store     *chain.Store
	Service   *service.Service
	logger    *logrus.Entry
}

// NewNaivechain ...
func NewNaivechain(c *config.Config) *Naivechain {
	engine := &Naivechain{
		Config: c,
		logger: c.Logger(),
	}

	return engine
}

func (n *Naivechain) initStore() error {
	n.Store = chain.NewStore()
	return nil
}

func (n *Naivechain) initTransport() error {
	transport, err := net.NewWebsocketTransport(
		n.Config.P2PAddr,
		n.Config.MaxQueue,
		n.Config.MaxMessageSize,
		n.Config.Timeout,
		n.logger,
	)
	if err != nil {
		return fmt.Errorf("binding p2p address %s: %v", n.Config.P2PAddr, err)
	}

	n.Transport = transport

	return nil
}

func (n *Naivechain) initNode() error {
	n.Node = node.NewNode(n.Config, n.Store, n.Transport)
	return nil
}

func (n *Naivechain) initService() error {
	if n.Config.NoService {
		return nil
	}

	n.Service = service.NewService(n.Config.HTTPAddr, n.Node, n.logger)

	if err := n.Service.Listen(); err != nil {
		return fmt.Errorf("binding http address %s: %v", n.Config.HTTPAddr, err)
	}

	return nil
}

// Init binds the listeners and builds the node. A bind failure is returned
// and nothing is left running.
func (n *Naivechain) Init() error {
	if err := n.initStore(); err != nil {
		return err
	}

	if err := n.initTransport(); err != nil {
		return err
	}

	if err := n.initNode(); err != nil {
		return err
	}

	if err := n.initService(); err != nil {
		n.Transport.Close()
		return err
	}

	return nil
}

// Run serves the HTTP API, connects to the initial peers and runs the node.
// This is a blocking call.
func (n *Naivechain) Run() {
	if n.Service != nil {
		go n.Service.Serve()
	}

	n.logger.WithFields(logrus.Fields{
		"p2p":  n.Transport.LocalAddr(),
		"http": n.Config.HTTPAddr,
	}).Info("Starting naivechain node")

	n.Node.AddPeers(n.Config.InitialPeers()...)

	n.Node.Run()
}

// Shutdown stops the service and the node.
func (n *Naivechain) Shutdown() {
	if n.Service != nil {
		n.Service.Close()
	}
	n.Node.Shutdown()
}
